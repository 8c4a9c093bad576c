package fetcher

import (
	"fmt"
	"net/http"
)

// HTTPStatusError is returned when a request fails with a status the chain
// does not accept. It carries enough context to diagnose the failure
// without re-issuing the request.
//
// The Cause field holds the underlying domain error, so errors.Is and
// errors.As work across the chain through the Unwrap method.
type HTTPStatusError struct {
	// StatusCode is the numeric HTTP status, e.g. 404 or 503.
	StatusCode int

	// Status is the textual form, e.g. "404 Not Found".
	Status string

	// URL is the request target with sensitive parts already redacted.
	URL string

	// Header holds the response headers, sensitive entries redacted.
	Header http.Header

	// BodySnippet is the first part of the response body, capped at 4KB.
	BodySnippet string

	// Cause is the underlying domain error, if any.
	Cause error
}

func (e *HTTPStatusError) Error() string {
	msg := fmt.Sprintf("HTTP %d (%s)", e.StatusCode, e.Status)
	if e.URL != "" {
		msg += fmt.Sprintf(" URL: %s", e.URL)
	}
	if e.BodySnippet != "" {
		msg += fmt.Sprintf(", Body: %s", e.BodySnippet)
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

func (e *HTTPStatusError) Unwrap() error {
	return e.Cause
}
