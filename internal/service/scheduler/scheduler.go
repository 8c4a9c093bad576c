// Package scheduler sends a periodic summary of the watcher's activity to
// the default notifier.
package scheduler

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/darkkaiser/resale-watcher/internal/config"
	"github.com/darkkaiser/resale-watcher/internal/service/contract"
	"github.com/darkkaiser/resale-watcher/internal/service/watcher"
	"github.com/darkkaiser/resale-watcher/pkg/cronx"
	applog "github.com/darkkaiser/resale-watcher/pkg/log"
	"github.com/darkkaiser/resale-watcher/pkg/strutil"
	"github.com/robfig/cron/v3"
)

const component = "scheduler.service"

// summaryTimeout bounds one summary dispatch so a stuck delivery cannot
// pile up cron runs.
const summaryTimeout = time.Minute

// StatsProvider exposes the watcher counters the summary reports.
type StatsProvider interface {
	Stats() watcher.Stats
}

// Scheduler runs the summary dispatch on the configured cron spec.
type Scheduler struct {
	summaryConfig config.SummaryConfig

	cron *cron.Cron

	statsProvider      StatsProvider
	notificationSender contract.NotificationSender

	running   bool
	runningMu sync.Mutex
}

// NewService builds the summary scheduler.
func NewService(summaryConfig config.SummaryConfig, statsProvider StatsProvider, notificationSender contract.NotificationSender) *Scheduler {
	return &Scheduler{
		summaryConfig: summaryConfig,

		statsProvider:      statsProvider,
		notificationSender: notificationSender,
	}
}

// Start registers the summary job and starts the cron engine. With the
// summary disabled the service starts as a no-op so the shutdown flow
// stays uniform.
func (s *Scheduler) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(component).Info("starting the scheduler service")

	if s.statsProvider == nil {
		serviceStopWG.Done()
		return ErrStatsProviderNotInitialized
	}
	if s.notificationSender == nil {
		serviceStopWG.Done()
		return ErrNotificationSenderNotInitialized
	}

	if s.running {
		serviceStopWG.Done()
		applog.WithComponent(component).Warn("the scheduler service is already running")
		return nil
	}

	if s.summaryConfig.Runnable {
		s.cron = cron.New(
			cron.WithParser(cronx.StandardParser()),
			cron.WithLogger(cron.VerbosePrintfLogger(applog.StandardLogger())),
			cron.WithChain(
				cron.Recover(cron.VerbosePrintfLogger(applog.StandardLogger())),
				cron.SkipIfStillRunning(cron.VerbosePrintfLogger(applog.StandardLogger())),
			),
		)

		if _, err := s.cron.AddFunc(s.summaryConfig.TimeSpec, s.dispatchSummary); err != nil {
			serviceStopWG.Done()
			return fmt.Errorf("registering the summary schedule failed (time_spec: %s): %w", s.summaryConfig.TimeSpec, err)
		}

		s.cron.Start()
	} else {
		applog.WithComponent(component).Info("the summary is disabled, no schedule was registered")
	}

	s.running = true

	go func() {
		defer serviceStopWG.Done()

		<-serviceStopCtx.Done()

		s.Stop()
	}()

	applog.WithComponentAndFields(component, applog.Fields{
		"runnable":  s.summaryConfig.Runnable,
		"time_spec": s.summaryConfig.TimeSpec,
	}).Info("the scheduler service started")

	return nil
}

// Stop halts the cron engine and waits for a running summary dispatch.
func (s *Scheduler) Stop() {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	if !s.running {
		return
	}

	applog.WithComponent(component).Info("stopping the scheduler service")

	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}

	s.cron = nil
	s.running = false

	applog.WithComponent(component).Info("the scheduler service stopped")
}

// dispatchSummary collects the current counters and pushes them to the
// default notifier.
func (s *Scheduler) dispatchSummary() {
	ctx, cancel := context.WithTimeout(context.Background(), summaryTimeout)
	defer cancel()

	stats := s.statsProvider.Stats()

	results, err := s.notificationSender.NotifyDefault(ctx, contract.Message{
		Title: "Daily summary",
		Body:  buildSummaryBody(stats, time.Now()),
	})
	if err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"error": err.Error(),
		}).Error("dispatching the summary failed")
		return
	}

	if !contract.Delivered(results) {
		applog.WithComponent(component).Error("the summary reached no recipient")
	}
}

// buildSummaryBody renders the counters as a short report. The error text
// is escaped because the body is delivered as HTML.
func buildSummaryBody(stats watcher.Stats, now time.Time) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Completed cycles: %s\n", strutil.FormatCommas(stats.Cycles))
	fmt.Fprintf(&sb, "Notified offers: %s\n", strutil.FormatCommas(stats.NotifiedOffers))
	fmt.Fprintf(&sb, "Seen offers: %s\n", strutil.FormatCommas(stats.SeenOffers))

	if !stats.StartedAt.IsZero() {
		fmt.Fprintf(&sb, "Uptime: %s\n", now.Sub(stats.StartedAt).Round(time.Minute))
	}
	if !stats.LastCycleAt.IsZero() {
		fmt.Fprintf(&sb, "Last cycle: %s\n", stats.LastCycleAt.Format(time.RFC3339))
	}
	if stats.LastError != "" {
		fmt.Fprintf(&sb, "\nLast error (%s):\n%s\n", stats.LastErrorAt.Format(time.RFC3339), html.EscapeString(stats.LastError))
	}

	return strings.TrimRight(sb.String(), "\n")
}
