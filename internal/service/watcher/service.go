// Package watcher polls resale availability documents, filters the offers
// against the configured price limit and the seen-offer set, and pushes a
// notification for every newly admitted offer.
package watcher

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/darkkaiser/resale-watcher/internal/config"
	"github.com/darkkaiser/resale-watcher/internal/service/contract"
	"github.com/darkkaiser/resale-watcher/internal/service/watcher/fetcher"
	"github.com/darkkaiser/resale-watcher/internal/service/watcher/images"
	"github.com/darkkaiser/resale-watcher/internal/service/watcher/resale"
	"github.com/darkkaiser/resale-watcher/internal/service/watcher/storage"
	applog "github.com/darkkaiser/resale-watcher/pkg/log"
)

const component = "watcher.service"

// Stats is a point-in-time snapshot of the watcher's counters, consumed by
// the daily summary and the status API.
type Stats struct {
	StartedAt      time.Time `json:"started_at"`
	Cycles         uint64    `json:"cycles"`
	NotifiedOffers uint64    `json:"notified_offers"`
	SeenOffers     int       `json:"seen_offers"`
	LastCycleAt    time.Time `json:"last_cycle_at"`
	LastError      string    `json:"last_error,omitempty"`
	LastErrorAt    time.Time `json:"last_error_at,omitzero"`
}

// Service drives the poll cycle. One goroutine walks the configured
// resources in order, so offers of a single snapshot are always handled
// sequentially and the seen-offer set needs no further coordination.
type Service struct {
	appConfig *config.AppConfig

	fetcher       fetcher.Fetcher
	parser        *resale.Parser
	store         *storage.SeenOfferStore
	imageSelector *images.Selector

	notificationSender contract.NotificationSender

	// sleep and jitter are swapped out by tests to make cycles instant.
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(min, max time.Duration) time.Duration

	stats   Stats
	statsMu sync.Mutex

	running   bool
	runningMu sync.Mutex
}

// NewService wires the poll cycle's collaborators together. The
// NotificationSender is injected separately via SetNotificationSender
// because the notification service is constructed after the watcher.
func NewService(appConfig *config.AppConfig, f fetcher.Fetcher, parser *resale.Parser, store *storage.SeenOfferStore, imageSelector *images.Selector) *Service {
	return &Service{
		appConfig: appConfig,

		fetcher:       f,
		parser:        parser,
		store:         store,
		imageSelector: imageSelector,

		sleep:  sleepContext,
		jitter: randomBetween,
	}
}

// SetNotificationSender injects the sender used to dispatch offer and
// error notifications. Must be called before Start.
func (s *Service) SetNotificationSender(notificationSender contract.NotificationSender) {
	s.notificationSender = notificationSender
}

// Start launches the poll loop in its own goroutine. Calling Start on a
// running service logs a warning and returns nil.
func (s *Service) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(component).Info("starting the watcher service")

	if s.notificationSender == nil {
		defer serviceStopWG.Done()
		return ErrNotificationSenderNotInitialized
	}

	if s.running {
		defer serviceStopWG.Done()
		applog.WithComponent(component).Warn("the watcher service is already running")
		return nil
	}

	s.running = true

	s.statsMu.Lock()
	s.stats.StartedAt = time.Now()
	s.statsMu.Unlock()

	go s.run(serviceStopCtx, serviceStopWG)

	applog.WithComponent(component).Info("the watcher service started")

	return nil
}

// Stats returns a copy of the current counters.
func (s *Service) Stats() Stats {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()

	stats := s.stats
	stats.SeenOffers = s.store.Len()

	return stats
}

// run executes poll cycles separated by the check interval until the
// service stop context is canceled. A panic inside a cycle is recovered
// and only costs that one cycle, the loop itself keeps going.
func (s *Service) run(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) {
	defer serviceStopWG.Done()

	for {
		s.runCycleRecovered(serviceStopCtx)

		if err := s.sleep(serviceStopCtx, s.appConfig.Watch.CheckIntervalDuration()); err != nil {
			break
		}
	}

	s.runningMu.Lock()
	s.running = false
	s.runningMu.Unlock()

	applog.WithComponent(component).Info("the watcher service stopped")
}

// runCycleRecovered shields the poll loop from a panicking cycle.
func (s *Service) runCycleRecovered(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"panic": r,
			}).Error("a poll cycle panicked, backing off for a full check interval")

			s.recordError(fmt.Sprintf("poll cycle panic: %v", r))
		}
	}()

	s.runCycle(ctx)
}

// runCycle walks every configured resource once. A failing resource is
// logged and reported to the default notifier but never stops the cycle
// for the remaining resources.
func (s *Service) runCycle(ctx context.Context) {
	watch := &s.appConfig.Watch

	for i, resourceID := range watch.ResourceIDs {
		if err := s.sleep(ctx, s.jitter(watch.MinDelayDuration(), watch.MaxDelayDuration())); err != nil {
			return
		}

		label := resourceID
		if i < len(watch.ResourceLabels) {
			label = watch.ResourceLabels[i]
		}

		if err := s.checkResource(ctx, resourceID, label); err != nil {
			if ctx.Err() != nil {
				return
			}

			applog.WithComponentAndFields(component, applog.Fields{
				"resource_id": resourceID,
				"label":       label,
				"error":       err.Error(),
			}).Error("checking the resource failed")

			s.recordError(fmt.Sprintf("resource %s: %v", resourceID, err))

			s.notificationSender.NotifyErrorToDefault(ctx, fmt.Sprintf("Checking resource %s (%s) failed.\n\n%v", resourceID, label, err))
		}
	}

	s.statsMu.Lock()
	s.stats.Cycles++
	s.stats.LastCycleAt = time.Now()
	s.statsMu.Unlock()
}

// checkResource fetches and parses one availability document and
// dispatches a notification for every offer that passes the filter.
func (s *Service) checkResource(ctx context.Context, resourceID, label string) error {
	watch := &s.appConfig.Watch

	raw, err := fetcher.FetchBytes(ctx, s.fetcher, watch.ResourceURL(resourceID), s.requestHeader(resourceID))
	if err != nil {
		return err
	}

	result, err := s.parser.Parse(raw)
	if err != nil {
		return err
	}

	switch result.Status {
	case resale.StatusEmpty:
		applog.WithComponentAndFields(component, applog.Fields{
			"resource_id": resourceID,
		}).Debug("no availability, the document matches the empty baseline")

		return nil

	case resale.StatusNoOffers:
		// Not the baseline but nothing to sell either. Usually a schema
		// drift on the upstream side, so the document itself goes into
		// the warning.
		applog.WithComponentAndFields(component, applog.Fields{
			"resource_id": resourceID,
			"groups":      len(result.Snapshot.Groups),
			"document":    resale.CompactRaw(result.Raw),
		}).Warn("the document differs from the empty baseline but lists no offers")

		return nil
	}

	for _, offer := range result.Snapshot.Offers {
		verdict := resale.Judge(offer, watch.MaxPrice, s.store.Contains)
		if !verdict.Admitted() {
			applog.WithComponentAndFields(component, applog.Fields{
				"resource_id": resourceID,
				"offer_id":    offer.ID,
				"reason":      verdict.Reason.String(),
			}).Debug("the offer was filtered out")

			continue
		}

		if err := s.dispatchOffer(ctx, resourceID, label, offer, verdict.PriceMajor, result.Raw); err != nil {
			if ctx.Err() != nil {
				return err
			}

			applog.WithComponentAndFields(component, applog.Fields{
				"resource_id": resourceID,
				"offer_id":    offer.ID,
				"error":       err.Error(),
			}).Error("dispatching the offer notification failed, it stays unseen and will be retried next cycle")

			s.recordError(fmt.Sprintf("offer %s: %v", offer.ID, err))

			continue
		}

		// Pacing between consecutive offer notifications of one document.
		if err := s.sleep(ctx, watch.OfferPauseDuration()); err != nil {
			return err
		}
	}

	return nil
}

// dispatchOffer enriches the offer, sends the notification to every
// recipient of the default notifier and records the offer as seen once at
// least one recipient got it.
func (s *Service) dispatchOffer(ctx context.Context, resourceID, label string, offer resale.Offer, priceMajor float64, raw []byte) error {
	enriched := resale.EnrichedOffer{
		Offer:      offer,
		PriceMajor: priceMajor,
	}

	if seat, ok := resale.ExtractSeatInfo(raw, offer.ID); ok {
		enriched.Seat = seat
		enriched.HasSeat = true
	}

	if path, ok := s.imageSelector.Select(offer.OfferTypeDescription, enriched.Seat.Sector); ok {
		enriched.ImagePath = path
	}

	results, err := s.notificationSender.NotifyDefault(ctx, contract.Message{
		Title:     "New resale offer",
		Body:      resale.BuildMessage(label, s.appConfig.Watch.ResourceLink(resourceID), enriched),
		ImagePath: enriched.ImagePath,
	})
	if err != nil {
		return err
	}

	if !contract.Delivered(results) {
		return fmt.Errorf("the notification reached none of the %d recipients", len(results))
	}

	for _, result := range results {
		if result.Err != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"offer_id":  offer.ID,
				"recipient": result.Recipient,
				"error":     result.Err.Error(),
			}).Warn("one recipient did not receive the offer notification")
		}
	}

	// The offer is seen as soon as one recipient got the notification, so
	// a partially failed fan-out is not repeated for everyone next cycle.
	if err := s.store.Add(offer.ID); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"offer_id": offer.ID,
			"error":    err.Error(),
		}).Warn("the seen-offer store could not be persisted, the offer stays seen in memory only")
	}

	s.statsMu.Lock()
	s.stats.NotifiedOffers++
	s.statsMu.Unlock()

	applog.WithComponentAndFields(component, applog.Fields{
		"resource_id": resourceID,
		"offer_id":    offer.ID,
		"price":       enriched.PriceMajor,
	}).Info("an offer notification was dispatched")

	return nil
}

// requestHeader builds the static headers sent with every document fetch.
// The referer gets the resource identifier substituted so it matches the
// page a browser would have come from.
func (s *Service) requestHeader(resourceID string) http.Header {
	watch := &s.appConfig.Watch

	header := make(http.Header)
	if watch.Accept != "" {
		header.Set("Accept", watch.Accept)
	}
	if watch.Referer != "" {
		header.Set("Referer", watch.RefererFor(resourceID))
	}
	if watch.Origin != "" {
		header.Set("Origin", watch.Origin)
	}

	return header
}

func (s *Service) recordError(message string) {
	s.statsMu.Lock()
	s.stats.LastError = message
	s.stats.LastErrorAt = time.Now()
	s.statsMu.Unlock()
}

// sleepContext waits for d or until ctx is canceled, whichever comes
// first. A non-positive d returns immediately.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// randomBetween picks a uniformly random duration in [min, max].
func randomBetween(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + rand.N(max-min+1)
}
