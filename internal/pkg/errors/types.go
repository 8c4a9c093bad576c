package errors

//go:generate stringer -type=ErrorType

// ErrorType classifies an error.
type ErrorType int

const (
	// Unknown marks an error that could not be classified.
	Unknown ErrorType = iota

	// Internal marks an application logic fault (a bug).
	Internal

	// System marks a system or infrastructure failure (disk, network).
	System

	// Unauthorized marks an authentication failure.
	Unauthorized

	// Forbidden marks a missing permission.
	Forbidden

	// InvalidInput marks a validation failure of an input value.
	InvalidInput

	// Conflict marks a resource conflict (duplicate creation).
	Conflict

	// NotFound marks a missing resource.
	NotFound

	// ExecutionFailed marks a failed business operation or external call.
	ExecutionFailed

	// ParsingFailed marks a data parsing or conversion failure.
	ParsingFailed

	// Timeout marks an exceeded deadline.
	Timeout

	// Unavailable marks a temporarily unavailable service.
	Unavailable
)
