package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/darkkaiser/resale-watcher/internal/config"
	"github.com/darkkaiser/resale-watcher/internal/service/contract"
	"github.com/darkkaiser/resale-watcher/internal/service/watcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStatsProvider struct {
	stats watcher.Stats
}

func (f *fakeStatsProvider) Stats() watcher.Stats {
	return f.stats
}

type fakeSender struct {
	mu       sync.Mutex
	messages []contract.Message
}

func (f *fakeSender) Notify(_ context.Context, _ contract.NotifierID, msg contract.Message) ([]contract.DeliveryResult, error) {
	return f.NotifyDefault(context.Background(), msg)
}

func (f *fakeSender) NotifyDefault(_ context.Context, msg contract.Message) ([]contract.DeliveryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.messages = append(f.messages, msg)

	return []contract.DeliveryResult{{Recipient: 1}}, nil
}

func (f *fakeSender) NotifyErrorToDefault(context.Context, string) {}

func TestScheduler_StartAndStop(t *testing.T) {
	t.Parallel()

	t.Run("RegistersTheSummarySchedule", func(t *testing.T) {
		t.Parallel()

		s := NewService(
			config.SummaryConfig{Runnable: true, TimeSpec: "0 0 9 * * *"},
			&fakeStatsProvider{},
			&fakeSender{},
		)

		ctx, cancel := context.WithCancel(context.Background())

		var wg sync.WaitGroup
		wg.Add(1)
		require.NoError(t, s.Start(ctx, &wg))

		require.NotNil(t, s.cron)
		assert.Len(t, s.cron.Entries(), 1)

		cancel()
		wg.Wait()
		assert.False(t, s.running)
	})

	t.Run("DisabledSummaryStartsAsNoOp", func(t *testing.T) {
		t.Parallel()

		s := NewService(config.SummaryConfig{Runnable: false}, &fakeStatsProvider{}, &fakeSender{})

		ctx, cancel := context.WithCancel(context.Background())

		var wg sync.WaitGroup
		wg.Add(1)
		require.NoError(t, s.Start(ctx, &wg))

		assert.Nil(t, s.cron)

		cancel()
		wg.Wait()
	})

	t.Run("Error_BadTimeSpec", func(t *testing.T) {
		t.Parallel()

		s := NewService(
			config.SummaryConfig{Runnable: true, TimeSpec: "not a cron spec"},
			&fakeStatsProvider{},
			&fakeSender{},
		)

		var wg sync.WaitGroup
		wg.Add(1)

		err := s.Start(context.Background(), &wg)

		require.Error(t, err)
		wg.Wait()
	})

	t.Run("Error_MissingStatsProvider", func(t *testing.T) {
		t.Parallel()

		s := NewService(config.SummaryConfig{}, nil, &fakeSender{})

		var wg sync.WaitGroup
		wg.Add(1)

		err := s.Start(context.Background(), &wg)

		require.ErrorIs(t, err, ErrStatsProviderNotInitialized)
		wg.Wait()
	})
}

func TestScheduler_DispatchSummary(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{}
	s := NewService(config.SummaryConfig{}, &fakeStatsProvider{stats: watcher.Stats{
		Cycles:         42,
		NotifiedOffers: 3,
		SeenOffers:     7,
	}}, sender)

	s.dispatchSummary()

	require.Len(t, sender.messages, 1)
	msg := sender.messages[0]
	assert.Equal(t, "Daily summary", msg.Title)
	assert.Contains(t, msg.Body, "Completed cycles: 42")
	assert.Contains(t, msg.Body, "Notified offers: 3")
	assert.Contains(t, msg.Body, "Seen offers: 7")
}

func TestBuildSummaryBody(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 30, 12, 0, 0, 0, time.UTC)

	t.Run("IncludesUptimeAndLastError", func(t *testing.T) {
		t.Parallel()

		body := buildSummaryBody(watcher.Stats{
			StartedAt:   now.Add(-90 * time.Minute),
			Cycles:      10,
			LastCycleAt: now.Add(-time.Minute),
			LastError:   "fetch failed: <nil>",
			LastErrorAt: now.Add(-time.Hour),
		}, now)

		assert.Contains(t, body, "Uptime: 1h30m0s")
		assert.Contains(t, body, "Last cycle: ")
		assert.Contains(t, body, "&lt;nil&gt;")
	})

	t.Run("OmitsEmptySections", func(t *testing.T) {
		t.Parallel()

		body := buildSummaryBody(watcher.Stats{Cycles: 1}, now)

		assert.NotContains(t, body, "Uptime")
		assert.NotContains(t, body, "Last error")
	})
}
