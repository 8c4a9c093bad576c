// Package notification routes messages from the watcher to the configured
// notifier channels.
package notification

import (
	"context"
	"html"
	"strings"
	"sync"

	"github.com/darkkaiser/resale-watcher/internal/config"
	apperrors "github.com/darkkaiser/resale-watcher/internal/pkg/errors"
	"github.com/darkkaiser/resale-watcher/internal/service/contract"
	"github.com/darkkaiser/resale-watcher/internal/service/notification/notifier/telegram"
	applog "github.com/darkkaiser/resale-watcher/pkg/log"
	"github.com/darkkaiser/resale-watcher/pkg/strutil"
)

const component = "notification.service"

// Notifier is one delivery channel. Send reports one result per
// recipient of the channel.
type Notifier interface {
	ID() contract.NotifierID
	Send(ctx context.Context, msg contract.Message) []contract.DeliveryResult
}

// NotifierFactory builds the channel for one telegram configuration
// block. Swapped out by tests.
type NotifierFactory func(cfg *config.TelegramConfig) (Notifier, error)

// Service implements contract.NotificationSender over the configured
// notifiers. Deliveries are synchronous so callers learn the per-recipient
// outcome before deciding whether an offer counts as notified.
type Service struct {
	appConfig *config.AppConfig

	factory NotifierFactory

	notifiers       map[contract.NotifierID]Notifier
	defaultNotifier Notifier

	running   bool
	runningMu sync.Mutex
}

// NewService prepares the notification service. The notifiers connect on
// Start, not here.
func NewService(appConfig *config.AppConfig) *Service {
	return &Service{
		appConfig: appConfig,

		factory: func(cfg *config.TelegramConfig) (Notifier, error) {
			return telegram.New(cfg)
		},

		notifiers: make(map[contract.NotifierID]Notifier),
	}
}

// SetNotifierFactory replaces the channel constructor.
func (s *Service) SetNotifierFactory(factory NotifierFactory) {
	s.factory = factory
}

// Start connects every configured notifier and verifies the default one
// exists. A failing notifier fails the whole start.
func (s *Service) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(component).Info("starting the notification service")

	if s.running {
		defer serviceStopWG.Done()
		applog.WithComponent(component).Warn("the notification service is already running")
		return nil
	}

	for i := range s.appConfig.Notifiers.Telegrams {
		cfg := &s.appConfig.Notifiers.Telegrams[i]

		n, err := s.factory(cfg)
		if err != nil {
			defer serviceStopWG.Done()
			return apperrors.Wrap(err, apperrors.System, "initializing the notifiers failed")
		}

		s.notifiers[n.ID()] = n

		applog.WithComponentAndFields(component, applog.Fields{
			"notifier_id": n.ID(),
			"bot_token":   applog.MaskSensitiveData(cfg.BotToken),
			"chat_ids":    strutil.JoinInts(cfg.ChatIDs, ", "),
		}).Debug("a notifier was registered")
	}

	defaultID := contract.NotifierID(s.appConfig.Notifiers.DefaultNotifierID)
	s.defaultNotifier = s.notifiers[defaultID]
	if s.defaultNotifier == nil {
		defer serviceStopWG.Done()
		return apperrors.Newf(apperrors.NotFound, "the default notifier '%s' is not configured", defaultID)
	}

	s.running = true

	go s.waitForShutdown(serviceStopCtx, serviceStopWG)

	applog.WithComponent(component).Info("the notification service started")

	return nil
}

func (s *Service) waitForShutdown(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) {
	defer serviceStopWG.Done()

	<-serviceStopCtx.Done()

	s.runningMu.Lock()
	s.running = false
	s.notifiers = make(map[contract.NotifierID]Notifier)
	s.defaultNotifier = nil
	s.runningMu.Unlock()

	applog.WithComponent(component).Info("the notification service stopped")
}

// Notify delivers the message through the named notifier.
func (s *Service) Notify(ctx context.Context, notifierID contract.NotifierID, msg contract.Message) ([]contract.DeliveryResult, error) {
	if strings.TrimSpace(msg.Body) == "" {
		return nil, contract.ErrMessageRequired
	}

	s.runningMu.Lock()
	if !s.running {
		s.runningMu.Unlock()
		return nil, contract.ErrServiceStopped
	}
	n := s.notifiers[notifierID]
	s.runningMu.Unlock()

	if n == nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"notifier_id": notifierID,
		}).Error("the requested notifier is not configured")

		return nil, contract.ErrNotifierNotFound
	}

	return n.Send(ctx, msg), nil
}

// NotifyDefault delivers the message through the default notifier.
func (s *Service) NotifyDefault(ctx context.Context, msg contract.Message) ([]contract.DeliveryResult, error) {
	if strings.TrimSpace(msg.Body) == "" {
		return nil, contract.ErrMessageRequired
	}

	s.runningMu.Lock()
	n := s.defaultNotifier
	s.runningMu.Unlock()

	if n == nil {
		return nil, contract.ErrServiceStopped
	}

	return n.Send(ctx, msg), nil
}

// NotifyErrorToDefault pushes an error report to the default notifier.
// Best effort: a failed report is only logged, the caller has already
// handled the underlying error.
func (s *Service) NotifyErrorToDefault(ctx context.Context, message string) {
	results, err := s.NotifyDefault(ctx, contract.Message{
		Title: "Watcher error",
		Body:  "⚠️ " + html.EscapeString(message),
	})
	if err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"error": err.Error(),
		}).Warn("the error report could not be dispatched")
		return
	}

	if !contract.Delivered(results) {
		applog.WithComponent(component).Warn("the error report reached no recipient")
	}
}

// Health reports whether the service can deliver notifications.
func (s *Service) Health() error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	if !s.running {
		return contract.ErrServiceStopped
	}

	return nil
}

var (
	_ contract.NotificationSender        = (*Service)(nil)
	_ contract.NotificationHealthChecker = (*Service)(nil)
)
