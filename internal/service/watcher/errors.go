package watcher

import (
	apperrors "github.com/darkkaiser/resale-watcher/internal/pkg/errors"
)

// ErrNotificationSenderNotInitialized is returned by Start when no
// NotificationSender was injected beforehand.
var ErrNotificationSenderNotInitialized = apperrors.New(apperrors.System, "the notification sender is not initialized")
