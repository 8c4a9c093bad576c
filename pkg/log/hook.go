package log

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// hook routes each log entry to the writers that should receive it.
//
// Routing policy:
//   - Error and above go to the critical writer and the main writer.
//   - Info and Warn go to the main writer.
//   - Debug and Trace go to the verbose writer only, never to main.
//   - The console writer, when present, receives every entry.
type hook struct {
	mainWriter     io.Writer // INFO / WARN / ERROR / FATAL / PANIC
	criticalWriter io.Writer // ERROR / FATAL / PANIC
	verboseWriter  io.Writer // DEBUG / TRACE
	consoleWriter  io.Writer // all levels, stdout

	formatter Formatter

	mu sync.RWMutex // logging holds the read lock, Close holds the write lock

	closed bool // once true, every logging request is dropped
}

// Levels returns the set of levels this hook receives.
func (h *hook) Levels() []Level {
	return AllLevels
}

// Fire formats the entry once and writes it to each destination the
// routing policy selects. A failed writer does not stop the remaining
// writers; the first error is returned after all writes were attempted.
func (h *hook) Fire(entry *Entry) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return nil
	}

	msg, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}

	var firstErr error

	if h.consoleWriter != nil {
		// A console write failure must not affect file logging.
		if _, err := h.consoleWriter.Write(msg); err != nil {
			fmt.Fprintf(os.Stderr, "[LOG-SYSTEM-WARN] console write failed: %v\n", err)
		}
	}

	if entry.Level <= ErrorLevel {
		if h.criticalWriter != nil {
			if _, err := h.criticalWriter.Write(msg); err != nil {
				firstErr = err

				fmt.Fprintf(os.Stderr, "[LOG-SYSTEM-FAILURE] critical log write failed: %v\n", err)
			}
		}
	}

	if entry.Level >= DebugLevel {
		if h.verboseWriter != nil {
			if _, err := h.verboseWriter.Write(msg); err != nil {
				if firstErr == nil {
					firstErr = err
				}

				fmt.Fprintf(os.Stderr, "[LOG-SYSTEM-WARN] verbose log write failed: %v\n", err)
			}
		}

		// Debug and Trace never reach the main log.
		return firstErr
	}

	if h.mainWriter != nil {
		if _, err := h.mainWriter.Write(msg); err != nil {
			if firstErr == nil {
				firstErr = err
			}

			fmt.Fprintf(os.Stderr, "[LOG-SYSTEM-FAILURE] main log write failed: %v\n", err)
		}
	}

	return firstErr
}

// Close marks the hook as closed so in-flight resource teardown cannot
// race with a concurrent write.
func (h *hook) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true

	return nil
}
