package log

import (
	"errors"
	"io"
	"sync/atomic"
)

// closer tears down every log resource (main, critical and verbose files)
// as a unit. The hook is disabled before any file is closed so a
// concurrent log call cannot write to a closed file, and Close is
// idempotent.
type closer struct {
	closers []io.Closer

	hook *hook

	// closed guards against duplicate Close calls (0: open, 1: closed)
	closed int32
}

func (c *closer) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil // already closed
	}

	if c.hook != nil {
		c.hook.Close()
	}

	// Close every file even when one of them fails.
	var errs error
	for _, closer := range c.closers {
		if closer != nil {
			// Flush buffered entries to disk before closing.
			if s, ok := closer.(interface{ Sync() error }); ok {
				_ = s.Sync()
			}

			if err := closer.Close(); err != nil {
				errs = errors.Join(errs, err)
			}
		}
	}

	return errs
}
