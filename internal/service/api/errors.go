package api

import (
	apperrors "github.com/darkkaiser/resale-watcher/internal/pkg/errors"
)

// ErrStatsProviderNotInitialized is returned by Start when no stats
// source was provided.
var ErrStatsProviderNotInitialized = apperrors.New(apperrors.System, "the stats provider is not initialized")
