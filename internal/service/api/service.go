// Package api serves the status endpoints of the watcher over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/darkkaiser/resale-watcher/internal/config"
	"github.com/darkkaiser/resale-watcher/internal/service/contract"
	"github.com/darkkaiser/resale-watcher/internal/service/watcher"
	applog "github.com/darkkaiser/resale-watcher/pkg/log"
	"github.com/labstack/echo/v4"
)

const component = "api.service"

// shutdownTimeout bounds the graceful shutdown of the HTTP server.
const shutdownTimeout = 5 * time.Second

// StatsProvider exposes the watcher counters the status endpoint reports.
type StatsProvider interface {
	Stats() watcher.Stats
}

// Service runs the status HTTP server.
type Service struct {
	apiConfig config.APIConfig
	debug     bool

	statsProvider StatsProvider
	healthChecker contract.NotificationHealthChecker

	notificationSender contract.NotificationSender

	running   bool
	runningMu sync.Mutex
}

// NewService builds the API service. The notification sender is only used
// to report a fatal server error to the default notifier.
func NewService(appConfig *config.AppConfig, statsProvider StatsProvider, healthChecker contract.NotificationHealthChecker, notificationSender contract.NotificationSender) *Service {
	return &Service{
		apiConfig: appConfig.API,
		debug:     appConfig.Debug,

		statsProvider: statsProvider,
		healthChecker: healthChecker,

		notificationSender: notificationSender,
	}
}

// Start launches the HTTP server in its own goroutine. With the API
// disabled the service starts as a no-op.
func (s *Service) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(component).Info("starting the api service")

	if s.statsProvider == nil {
		defer serviceStopWG.Done()
		return ErrStatsProviderNotInitialized
	}

	if s.running {
		defer serviceStopWG.Done()
		applog.WithComponent(component).Warn("the api service is already running")
		return nil
	}

	if !s.apiConfig.Enabled {
		applog.WithComponent(component).Info("the api is disabled, no server was started")

		go func() {
			defer serviceStopWG.Done()
			<-serviceStopCtx.Done()
		}()

		return nil
	}

	s.running = true

	go s.runServiceLoop(serviceStopCtx, serviceStopWG)

	applog.WithComponentAndFields(component, applog.Fields{
		"port": s.apiConfig.ListenPort,
	}).Info("the api service started")

	return nil
}

func (s *Service) runServiceLoop(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) {
	defer serviceStopWG.Done()

	e := s.setupServer()

	httpServerDone := make(chan struct{})
	go s.startHTTPServer(e, httpServerDone)

	s.waitForShutdown(serviceStopCtx, e, httpServerDone)
}

func (s *Service) setupServer() *echo.Echo {
	e := NewHTTPServer(HTTPServerConfig{
		Debug:     s.debug,
		RateLimit: s.apiConfig.RateLimit,
	})

	h := newHandler(s.statsProvider, s.healthChecker)
	SetupRoutes(e, h)

	return e
}

// startHTTPServer blocks until the server exits and closes done.
func (s *Service) startHTTPServer(e *echo.Echo, done chan struct{}) {
	defer close(done)

	err := e.Start(fmt.Sprintf(":%d", s.apiConfig.ListenPort))
	s.handleServerError(err)
}

// handleServerError distinguishes a graceful shutdown from a fatal server
// failure. The latter is reported to the default notifier.
func (s *Service) handleServerError(err error) {
	if err == nil {
		return
	}

	if errors.Is(err, http.ErrServerClosed) {
		applog.WithComponent(component).Info("the http server stopped")
		return
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"port":  s.apiConfig.ListenPort,
		"error": err.Error(),
	}).Error("the http server failed")

	if s.notificationSender != nil {
		s.notificationSender.NotifyErrorToDefault(context.Background(), fmt.Sprintf("The status API server failed.\n\n%v", err))
	}
}

func (s *Service) waitForShutdown(serviceStopCtx context.Context, e *echo.Echo, httpServerDone chan struct{}) {
	select {
	case <-serviceStopCtx.Done():
		applog.WithComponent(component).Info("stopping the api service")

	case <-httpServerDone:
		// The server exited on its own, a bind failure for example.
		s.cleanup()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"error": err.Error(),
		}).Error("shutting down the http server failed")
	}

	<-httpServerDone

	s.cleanup()
}

func (s *Service) cleanup() {
	s.runningMu.Lock()
	s.running = false
	s.runningMu.Unlock()

	applog.WithComponent(component).Info("the api service stopped")
}
