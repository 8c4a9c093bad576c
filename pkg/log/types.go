package log

import (
	"github.com/sirupsen/logrus"
)

// Level is an alias of logrus.Level.
type Level = logrus.Level

const (
	// PanicLevel logs the entry and then calls panic().
	PanicLevel Level = logrus.PanicLevel

	// FatalLevel logs the entry and then calls os.Exit(1).
	FatalLevel Level = logrus.FatalLevel

	// ErrorLevel marks failures that need operator attention but do not
	// stop the process.
	ErrorLevel Level = logrus.ErrorLevel

	// WarnLevel marks conditions that are not errors yet but deserve a look.
	WarnLevel Level = logrus.WarnLevel

	// InfoLevel records the normal operational flow of the process.
	InfoLevel Level = logrus.InfoLevel

	// DebugLevel records detail useful while diagnosing problems.
	DebugLevel Level = logrus.DebugLevel

	// TraceLevel is the most granular level, below Debug.
	TraceLevel Level = logrus.TraceLevel
)

// AllLevels is an alias of logrus.AllLevels.
var AllLevels = logrus.AllLevels

// Fields is an alias of logrus.Fields.
type Fields = logrus.Fields

// Entry is an alias of logrus.Entry.
type Entry = logrus.Entry

// Hook is an alias of logrus.Hook.
type Hook = logrus.Hook

// Logger is an alias of logrus.Logger.
type Logger = logrus.Logger

// Formatter is an alias of logrus.Formatter.
type Formatter = logrus.Formatter

// TextFormatter is an alias of logrus.TextFormatter.
type TextFormatter = logrus.TextFormatter
