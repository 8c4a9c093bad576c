// Package errors provides the application error handling system.
//
// It extends the standard errors package with type-based classification
// and error chaining. Every error carries an ErrorType, and Wrap
// accumulates context as errors travel up the call stack.
//
// # Basic usage
//
// Creating a new error:
//
//	err := errors.New(errors.NotFound, "snapshot file not found")
//
// Wrapping with context:
//
//	if err != nil {
//	    return errors.Wrap(err, errors.System, "reading seen-offer store failed")
//	}
//
// Checking the type:
//
//	if errors.Is(err, errors.NotFound) {
//	    // handle a NotFound error
//	}
//
// Walking the chain:
//
//	rootErr := errors.RootCause(err)
//
// # Choosing an ErrorType
//
// Unknown: unclassifiable errors (the zero value, avoid where possible).
//
// Internal: application logic faults treated as bugs, such as an
// unexpected nil or invalid state transition.
//
// System: infrastructure failures, such as disk I/O or network faults.
//
// InvalidInput: validation failures of user-supplied values.
//
// Conflict: resource conflicts, such as duplicate creation.
//
// NotFound: the requested resource does not exist.
//
// ExecutionFailed: a business operation or external call failed, such
// as a failed availability fetch or notification delivery.
//
// ParsingFailed: data decoding or conversion failed, such as a JSON
// payload with an unexpected shape.
//
// Timeout: an operation exceeded its deadline.
//
// Unavailable: a service is temporarily out of order.
//
// When wrapping a library error, pick the type that matches its nature:
// sql.ErrNoRows becomes NotFound, context.DeadlineExceeded becomes
// Timeout, a net.Error becomes System, a json decode error becomes
// ParsingFailed.
package errors

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// AppError is the uniform representation of every error the application
// produces.
type AppError struct {
	errType ErrorType    // classification
	message string       // human-readable message
	cause   error        // underlying cause, if any
	stack   []StackFrame // call stack captured at creation
}

// Type returns the error classification.
func (e *AppError) Type() ErrorType {
	return e.errType
}

// Message returns the error message without the cause chain.
func (e *AppError) Message() string {
	return e.message
}

// Stack returns the captured stack trace.
func (e *AppError) Stack() []StackFrame {
	if e.stack == nil {
		return nil
	}
	return e.stack
}

// Error implements the standard error interface.
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.errType, e.message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.errType, e.message)
}

// Unwrap implements the standard errors.Unwrap interface.
func (e *AppError) Unwrap() error {
	return e.cause
}

// Format implements fmt.Formatter. %+v prints the full error chain with
// stack traces.
func (e *AppError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprintf(s, "[%s] %s", e.errType, e.message)

			// Print the stack only at the innermost AppError or at the
			// boundary to a non-AppError cause, so a wrapped chain does
			// not repeat near-identical traces at every level.
			var target *AppError
			if e.cause == nil || !errors.As(e.cause, &target) {
				if len(e.stack) > 0 {
					fmt.Fprint(s, "\nStack trace:")
					for _, frame := range e.stack {
						funcName := frame.Function
						if idx := strings.LastIndex(funcName, "/"); idx != -1 {
							funcName = funcName[idx+1:]
						}
						fmt.Fprintf(s, "\n\t%s:%d %s", frame.File, frame.Line, funcName)
					}
				}
			}

			if e.cause != nil {
				fmt.Fprint(s, "\nCaused by:\n")
				if formatter, ok := e.cause.(fmt.Formatter); ok {
					formatter.Format(s, verb)
				} else {
					fmt.Fprintf(s, "\t%v", e.cause)
				}
			}
			return
		}
		fallthrough
	case 's':
		io.WriteString(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

// New creates a new error of the given type.
func New(errType ErrorType, message string) error {
	return &AppError{
		errType: errType,
		message: message,
		stack:   captureStack(defaultCallerSkip),
	}
}

// Newf creates a new error of the given type with a formatted message.
func Newf(errType ErrorType, format string, args ...any) error {
	return &AppError{
		errType: errType,
		message: fmt.Sprintf(format, args...),
		stack:   captureStack(defaultCallerSkip),
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(err error, errType ErrorType, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{
		errType: errType,
		message: message,
		cause:   err,
		stack:   captureStack(defaultCallerSkip),
	}
}

// Wrapf wraps an existing error with formatted context.
func Wrapf(err error, errType ErrorType, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &AppError{
		errType: errType,
		message: fmt.Sprintf(format, args...),
		cause:   err,
		stack:   captureStack(defaultCallerSkip),
	}
}

// Is reports whether the error chain contains the given ErrorType.
func Is(err error, errType ErrorType) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok {
			if appErr.errType == errType {
				return true
			}
		}
		err = errors.Unwrap(err)
	}
	return false
}

// As finds the first error in the chain matching target's type.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// RootCause returns the innermost error of the chain.
func RootCause(err error) error {
	if err == nil {
		return nil
	}

	for {
		unwrapped := errors.Unwrap(err)
		if unwrapped == nil {
			return err
		}
		err = unwrapped
	}
}

// UnderlyingType returns the ErrorType of the innermost AppError in the
// chain. Wrapping an external error (sql.ErrNoRows, a net.Error) keeps
// the type chosen at the wrapping site, and wrapping an AppError inside
// another AppError still reports the original classification.
//
// Returns Unknown when the chain contains no AppError or err is nil.
func UnderlyingType(err error) ErrorType {
	var lastAppErrorType ErrorType = Unknown

	for err != nil {
		if appErr, ok := err.(*AppError); ok {
			lastAppErrorType = appErr.errType
		}
		err = errors.Unwrap(err)
	}

	return lastAppErrorType
}
