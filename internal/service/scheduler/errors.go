package scheduler

import (
	apperrors "github.com/darkkaiser/resale-watcher/internal/pkg/errors"
)

var (
	// ErrStatsProviderNotInitialized is returned by Start when no stats
	// source was provided.
	ErrStatsProviderNotInitialized = apperrors.New(apperrors.System, "the stats provider is not initialized")

	// ErrNotificationSenderNotInitialized is returned by Start when no
	// notification sender was provided.
	ErrNotificationSenderNotInitialized = apperrors.New(apperrors.System, "the notification sender is not initialized")
)
