package service

import (
	"context"
	"sync"
)

// Service is the lifecycle contract every long-running component of the
// application implements. Start must not block; the implementation runs in
// its own goroutine, watches serviceStopCtx for shutdown and signals
// serviceStopWG when fully stopped.
type Service interface {
	Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error
}
