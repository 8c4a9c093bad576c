package fetcher

import (
	"fmt"

	apperrors "github.com/darkkaiser/resale-watcher/internal/pkg/errors"
)

var (
	// ErrMaxRetriesExceeded marks a request that failed on every attempt
	// the retry policy allowed.
	ErrMaxRetriesExceeded = apperrors.New(apperrors.Unavailable, "the request kept failing until the retry budget was exhausted")
)

func newErrMaxRetriesExceeded(cause error) error {
	if cause == nil {
		return ErrMaxRetriesExceeded
	}
	return apperrors.Wrap(cause, apperrors.Unavailable, ErrMaxRetriesExceeded.Error())
}

func newErrRetryAfterExceeded(requested, limit string) error {
	return apperrors.New(apperrors.Unavailable, fmt.Sprintf("the server requested a retry delay of %s, above the configured limit of %s", requested, limit))
}

func newErrGetBodyFailed(cause error) error {
	return apperrors.Wrap(cause, apperrors.ExecutionFailed, "failed to rebuild the request body for a retry")
}

// NewErrResponseBodyTooLarge is returned when the response body exceeded
// the configured size limit while being read.
func NewErrResponseBodyTooLarge(limit int64) error {
	return apperrors.New(apperrors.ExecutionFailed, fmt.Sprintf("the response body exceeded the configured size limit (%d bytes)", limit))
}

// NewErrResponseBodyTooLargeByContentLength is returned when the declared
// Content-Length already exceeds the limit, before any body data is read.
func NewErrResponseBodyTooLargeByContentLength(contentLength, limit int64) error {
	return apperrors.New(apperrors.ExecutionFailed, fmt.Sprintf("the declared response size (%d bytes) exceeds the configured limit (%d bytes)", contentLength, limit))
}
