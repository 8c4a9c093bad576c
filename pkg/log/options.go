package log

import (
	"fmt"
	"os"
)

// Options configures the logging system.
type Options struct {
	Name  string // application identifier used to derive log file names
	Dir   string // directory where log files are written
	Level Level  // minimum level to record

	MaxAge     int // days to keep rotated files (0: keep forever)
	MaxSizeMB  int // size per file before rotation (0: default 100MB)
	MaxBackups int // rotated files to keep (0: default 20)

	EnableCriticalLog bool // write ERROR and above to a separate file
	EnableVerboseLog  bool // write DEBUG and below to a separate file
	EnableConsoleLog  bool // mirror every entry to stdout

	// ReportCaller records the source location (function and line) of
	// each log call.
	ReportCaller bool

	// CallerPathPrefix, when set, is trimmed from the front of the
	// reported caller path to keep entries readable.
	CallerPathPrefix string
}

// Validate reports whether the option values are usable.
func (opts *Options) Validate() error {
	if opts.Name == "" {
		return fmt.Errorf("log options: application name is empty")
	}

	if opts.Dir != "" {
		if info, err := os.Stat(opts.Dir); err == nil && !info.IsDir() {
			return fmt.Errorf("log options: directory path %s exists as a regular file", opts.Dir)
		}
	}

	if opts.MaxAge < 0 {
		return fmt.Errorf("log options: MaxAge must not be negative: %d", opts.MaxAge)
	}
	if opts.MaxSizeMB < 0 {
		return fmt.Errorf("log options: MaxSizeMB must not be negative: %d", opts.MaxSizeMB)
	}
	if opts.MaxBackups < 0 {
		return fmt.Errorf("log options: MaxBackups must not be negative: %d", opts.MaxBackups)
	}

	return nil
}
