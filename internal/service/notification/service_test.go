package notification

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/darkkaiser/resale-watcher/internal/config"
	apperrors "github.com/darkkaiser/resale-watcher/internal/pkg/errors"
	"github.com/darkkaiser/resale-watcher/internal/service/contract"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	id       contract.NotifierID
	mu       sync.Mutex
	messages []contract.Message
	sendErr  error
}

func (f *fakeNotifier) ID() contract.NotifierID {
	return f.id
}

func (f *fakeNotifier) Send(_ context.Context, msg contract.Message) []contract.DeliveryResult {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.messages = append(f.messages, msg)

	return []contract.DeliveryResult{{Recipient: 1, Err: f.sendErr}}
}

func newTestConfig() *config.AppConfig {
	return &config.AppConfig{
		Notifiers: config.NotifierConfig{
			DefaultNotifierID: "main",
			Telegrams: []config.TelegramConfig{
				{ID: "main", BotToken: "123456789:abcdefghijklmnopqrstuvwxyzABCD", ChatIDs: []int64{1}},
				{ID: "backup", BotToken: "123456780:abcdefghijklmnopqrstuvwxyzABCD", ChatIDs: []int64{2}},
			},
		},
	}
}

// startTestService wires fake notifiers and starts the service. The
// returned cancel stops it and waits for the shutdown goroutine.
func startTestService(t *testing.T, appConfig *config.AppConfig) (*Service, map[contract.NotifierID]*fakeNotifier, func()) {
	t.Helper()

	fakes := make(map[contract.NotifierID]*fakeNotifier)

	s := NewService(appConfig)
	s.SetNotifierFactory(func(cfg *config.TelegramConfig) (Notifier, error) {
		f := &fakeNotifier{id: contract.NotifierID(cfg.ID)}
		fakes[f.id] = f
		return f, nil
	})

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	require.NoError(t, s.Start(ctx, &wg))

	return s, fakes, func() {
		cancel()
		wg.Wait()
	}
}

func TestService_Start_MasksTheBotTokenInTheRegisterLog(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	previous := logrus.GetLevel()
	logrus.SetLevel(logrus.DebugLevel)
	defer logrus.SetLevel(previous)

	_, _, stop := startTestService(t, newTestConfig())
	defer stop()

	var registered *logrus.Entry
	for _, entry := range hook.AllEntries() {
		if entry.Message == "a notifier was registered" && entry.Data["notifier_id"] == contract.NotifierID("main") {
			registered = entry
			break
		}
	}
	require.NotNil(t, registered)

	assert.Equal(t, "1234***ABCD", registered.Data["bot_token"])
	assert.Equal(t, "1", registered.Data["chat_ids"])
}

func TestService_Start(t *testing.T) {
	t.Parallel()

	t.Run("Success", func(t *testing.T) {
		t.Parallel()

		s, fakes, stop := startTestService(t, newTestConfig())
		defer stop()

		assert.Len(t, fakes, 2)
		assert.NoError(t, s.Health())
	})

	t.Run("Error_UnknownDefaultNotifier", func(t *testing.T) {
		t.Parallel()

		appConfig := newTestConfig()
		appConfig.Notifiers.DefaultNotifierID = "nope"

		s := NewService(appConfig)
		s.SetNotifierFactory(func(cfg *config.TelegramConfig) (Notifier, error) {
			return &fakeNotifier{id: contract.NotifierID(cfg.ID)}, nil
		})

		var wg sync.WaitGroup
		wg.Add(1)

		err := s.Start(context.Background(), &wg)

		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.NotFound))
		wg.Wait()
	})

	t.Run("Error_NotifierInitializationFails", func(t *testing.T) {
		t.Parallel()

		s := NewService(newTestConfig())
		s.SetNotifierFactory(func(*config.TelegramConfig) (Notifier, error) {
			return nil, errors.New("unauthorized")
		})

		var wg sync.WaitGroup
		wg.Add(1)

		err := s.Start(context.Background(), &wg)

		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.System))
		wg.Wait()
	})
}

func TestService_Notify(t *testing.T) {
	t.Parallel()

	t.Run("RoutesToTheNamedNotifier", func(t *testing.T) {
		t.Parallel()

		s, fakes, stop := startTestService(t, newTestConfig())
		defer stop()

		results, err := s.Notify(context.Background(), "backup", contract.Message{Body: "hello"})

		require.NoError(t, err)
		assert.True(t, contract.Delivered(results))
		assert.Len(t, fakes["backup"].messages, 1)
		assert.Empty(t, fakes["main"].messages)
	})

	t.Run("Error_UnknownNotifier", func(t *testing.T) {
		t.Parallel()

		s, _, stop := startTestService(t, newTestConfig())
		defer stop()

		_, err := s.Notify(context.Background(), "nope", contract.Message{Body: "hello"})

		assert.ErrorIs(t, err, contract.ErrNotifierNotFound)
	})

	t.Run("Error_EmptyBody", func(t *testing.T) {
		t.Parallel()

		s, _, stop := startTestService(t, newTestConfig())
		defer stop()

		_, err := s.Notify(context.Background(), "main", contract.Message{Body: "   "})

		assert.ErrorIs(t, err, contract.ErrMessageRequired)
	})

	t.Run("Error_AfterShutdown", func(t *testing.T) {
		t.Parallel()

		s, _, stop := startTestService(t, newTestConfig())
		stop()

		_, err := s.Notify(context.Background(), "main", contract.Message{Body: "hello"})

		assert.ErrorIs(t, err, contract.ErrServiceStopped)
		assert.ErrorIs(t, s.Health(), contract.ErrServiceStopped)
	})
}

func TestService_NotifyDefault(t *testing.T) {
	t.Parallel()

	s, fakes, stop := startTestService(t, newTestConfig())
	defer stop()

	results, err := s.NotifyDefault(context.Background(), contract.Message{Title: "Offer", Body: "hello"})

	require.NoError(t, err)
	assert.True(t, contract.Delivered(results))
	require.Len(t, fakes["main"].messages, 1)
	assert.Equal(t, "Offer", fakes["main"].messages[0].Title)
}

func TestService_NotifyErrorToDefault(t *testing.T) {
	t.Parallel()

	t.Run("EscapesTheMessage", func(t *testing.T) {
		t.Parallel()

		s, fakes, stop := startTestService(t, newTestConfig())
		defer stop()

		s.NotifyErrorToDefault(context.Background(), "fetch failed: <nil>")

		require.Len(t, fakes["main"].messages, 1)
		msg := fakes["main"].messages[0]
		assert.Equal(t, "Watcher error", msg.Title)
		assert.Contains(t, msg.Body, "&lt;nil&gt;")
	})

	t.Run("SwallowsDeliveryFailures", func(t *testing.T) {
		t.Parallel()

		s, fakes, stop := startTestService(t, newTestConfig())
		defer stop()

		fakes["main"].sendErr = errors.New("down")

		s.NotifyErrorToDefault(context.Background(), "boom")
	})
}
