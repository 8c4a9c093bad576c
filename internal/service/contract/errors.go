package contract

import (
	apperrors "github.com/darkkaiser/resale-watcher/internal/pkg/errors"
)

var (
	// ErrMessageRequired is returned when a notification body is empty or
	// consists only of whitespace.
	ErrMessageRequired = apperrors.New(apperrors.InvalidInput, "a notification message body must not be empty")

	// ErrNotifierNotFound is returned when a message names a notifier that
	// is not configured.
	ErrNotifierNotFound = apperrors.New(apperrors.NotFound, "the requested notifier is not configured")

	// ErrServiceStopped is returned when a message is submitted after the
	// notification service has shut down.
	ErrServiceStopped = apperrors.New(apperrors.Unavailable, "the notification service is not running")
)
