package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/darkkaiser/resale-watcher/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// baseConfig returns a fully valid configuration that individual test cases
// mutate to trigger one specific validation failure.
func baseConfig() *AppConfig {
	return &AppConfig{
		Debug: true,
		Watch: WatchConfig{
			URLTemplate:    "https://resale.example.com/api/events/{resource_id}/availability",
			LinkTemplate:   "https://resale.example.com/events/{resource_id}",
			ResourceIDs:    []string{"417009905", "417009906"},
			ResourceLabels: []string{"30/05/26", "31/05/26"},
			MaxPrice:       250,
			CheckInterval:  "60s",
			MinDelay:       "1s",
			MaxDelay:       "5s",
			OfferPause:     "1s",
			FetchTimeout:   "30s",
			StoreFile:      "seen_offers.json",
		},
		HTTPRetry: HTTPRetryConfig{
			MaxRetries: 3,
			RetryDelay: "2s",
		},
		Notifiers: NotifierConfig{
			DefaultNotifierID: "telegram-main",
			Telegrams: []TelegramConfig{
				{ID: "telegram-main", BotToken: "123456789:ABC-DEF1234ghIkl-zyx57W2v1u123ew11", ChatIDs: []int64{12345}},
			},
		},
		Summary: SummaryConfig{Runnable: true, TimeSpec: "0 0 9 * * *"},
		API:     APIConfig{Enabled: true, ListenPort: 8080, RateLimit: 10},
	}
}

func TestAppConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr bool
		errType apperrors.ErrorType
	}{
		{
			name:   "Valid",
			mutate: func(c *AppConfig) {},
		},
		{
			name:   "Valid_SummaryDisabledIgnoresTimeSpec",
			mutate: func(c *AppConfig) { c.Summary = SummaryConfig{Runnable: false, TimeSpec: "garbage"} },
		},
		{
			name:   "Valid_APIDisabledIgnoresPort",
			mutate: func(c *AppConfig) { c.API = APIConfig{Enabled: false, ListenPort: 0} },
		},
		{
			name:    "Error_URLTemplateWithoutPlaceholder",
			mutate:  func(c *AppConfig) { c.Watch.URLTemplate = "https://resale.example.com/api/availability" },
			wantErr: true,
			errType: apperrors.InvalidInput,
		},
		{
			name:    "Error_LinkTemplateWithoutPlaceholder",
			mutate:  func(c *AppConfig) { c.Watch.LinkTemplate = "https://resale.example.com/events" },
			wantErr: true,
			errType: apperrors.InvalidInput,
		},
		{
			name:    "Error_NoResources",
			mutate:  func(c *AppConfig) { c.Watch.ResourceIDs = nil },
			wantErr: true,
			errType: apperrors.InvalidInput,
		},
		{
			name:    "Error_DuplicateResourceIDs",
			mutate:  func(c *AppConfig) { c.Watch.ResourceIDs = []string{"417009905", "417009905"} },
			wantErr: true,
			errType: apperrors.InvalidInput,
		},
		{
			name:    "Error_LabelCountMismatch",
			mutate:  func(c *AppConfig) { c.Watch.ResourceLabels = []string{"30/05/26"} },
			wantErr: true,
			errType: apperrors.InvalidInput,
		},
		{
			name:    "Error_ZeroMaxPrice",
			mutate:  func(c *AppConfig) { c.Watch.MaxPrice = 0 },
			wantErr: true,
			errType: apperrors.InvalidInput,
		},
		{
			name:    "Error_BaselineNotJSON",
			mutate:  func(c *AppConfig) { c.Watch.BaselineEmpty = "{broken" },
			wantErr: true,
			errType: apperrors.InvalidInput,
		},
		{
			name:    "Error_BadCheckInterval",
			mutate:  func(c *AppConfig) { c.Watch.CheckInterval = "soon" },
			wantErr: true,
			errType: apperrors.InvalidInput,
		},
		{
			name: "Error_MinDelayAboveMaxDelay",
			mutate: func(c *AppConfig) {
				c.Watch.MinDelay = "10s"
				c.Watch.MaxDelay = "2s"
			},
			wantErr: true,
			errType: apperrors.InvalidInput,
		},
		{
			name:    "Error_EmptyStoreFile",
			mutate:  func(c *AppConfig) { c.Watch.StoreFile = "  " },
			wantErr: true,
			errType: apperrors.InvalidInput,
		},
		{
			name:    "Error_BadRetryDelay",
			mutate:  func(c *AppConfig) { c.HTTPRetry.RetryDelay = "2 seconds" },
			wantErr: true,
			errType: apperrors.InvalidInput,
		},
		{
			name:    "Error_MalformedBotToken",
			mutate:  func(c *AppConfig) { c.Notifiers.Telegrams[0].BotToken = "not-a-token" },
			wantErr: true,
			errType: apperrors.InvalidInput,
		},
		{
			name:    "Error_NoChatIDs",
			mutate:  func(c *AppConfig) { c.Notifiers.Telegrams[0].ChatIDs = nil },
			wantErr: true,
			errType: apperrors.InvalidInput,
		},
		{
			name: "Error_DuplicateNotifierIDs",
			mutate: func(c *AppConfig) {
				c.Notifiers.Telegrams = append(c.Notifiers.Telegrams, c.Notifiers.Telegrams[0])
			},
			wantErr: true,
			errType: apperrors.InvalidInput,
		},
		{
			name:    "Error_UnknownDefaultNotifier",
			mutate:  func(c *AppConfig) { c.Notifiers.DefaultNotifierID = "missing" },
			wantErr: true,
			errType: apperrors.NotFound,
		},
		{
			name:    "Error_BadSummarySchedule",
			mutate:  func(c *AppConfig) { c.Summary.TimeSpec = "9 * * *" },
			wantErr: true,
			errType: apperrors.InvalidInput,
		},
		{
			name:    "Error_APIPortOutOfRange",
			mutate:  func(c *AppConfig) { c.API.ListenPort = 70000 },
			wantErr: true,
			errType: apperrors.InvalidInput,
		},
		{
			name:    "Error_NegativeRateLimit",
			mutate:  func(c *AppConfig) { c.API.RateLimit = -1 },
			wantErr: true,
			errType: apperrors.InvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := baseConfig()
			tt.mutate(cfg)

			err := cfg.validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.Is(err, tt.errType), "unexpected error type: %v", err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestWatchConfig_Accessors(t *testing.T) {
	t.Parallel()

	cfg := baseConfig().Watch

	assert.Equal(t, "https://resale.example.com/api/events/417009905/availability", cfg.ResourceURL("417009905"))
	assert.Equal(t, "https://resale.example.com/events/417009905", cfg.ResourceLink("417009905"))
	assert.Equal(t, DefaultBaselineEmpty, cfg.BaselineEmptyJSON())
	assert.Equal(t, time.Minute, cfg.CheckIntervalDuration())
	assert.Equal(t, time.Second, cfg.MinDelayDuration())
	assert.Equal(t, 5*time.Second, cfg.MaxDelayDuration())

	cfg.BaselineEmpty = `{"groups":[]}`
	assert.Equal(t, `{"groups":[]}`, cfg.BaselineEmptyJSON())
}

func TestAppConfig_VerifyRecommendations(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	assert.Empty(t, cfg.VerifyRecommendations())

	cfg.Watch.CheckInterval = "2s"
	cfg.API.ListenPort = 80
	warnings := cfg.VerifyRecommendations()
	assert.Len(t, warnings, 2)
}

const validConfigJSON = `{
	"debug": false,
	"watch": {
		"url_template": "https://resale.example.com/api/events/{resource_id}/availability",
		"link_template": "https://resale.example.com/events/{resource_id}",
		"resource_ids": ["417009905"],
		"resource_labels": ["30/05/26"],
		"max_price": 250
	},
	"notifiers": {
		"default_notifier_id": "telegram-main",
		"telegrams": [
			{
				"id": "telegram-main",
				"bot_token": "123456789:ABC-DEF1234ghIkl-zyx57W2v1u123ew11",
				"chat_ids": [12345, 67890]
			}
		]
	},
	"summary": {"runnable": false, "time_spec": ""},
	"api": {"enabled": false, "listen_port": 0, "rate_limit": 0}
}`

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "resale-watcher.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadWithFile(t *testing.T) {
	t.Run("Success_AppliesDefaults", func(t *testing.T) {
		cfg, err := LoadWithFile(writeConfigFile(t, validConfigJSON))
		require.NoError(t, err)

		assert.Equal(t, DefaultMaxRetries, cfg.HTTPRetry.MaxRetries)
		assert.Equal(t, DefaultRetryDelay, cfg.HTTPRetry.RetryDelay)
		assert.Equal(t, DefaultStoreFile, cfg.Watch.StoreFile)
		assert.Equal(t, []string{"417009905"}, cfg.Watch.ResourceIDs)
		assert.Equal(t, []int64{12345, 67890}, cfg.Notifiers.Telegrams[0].ChatIDs)
		assert.InEpsilon(t, 250.0, cfg.Watch.MaxPrice, 1e-9)
	})

	t.Run("Success_EnvOverridesFile", func(t *testing.T) {
		t.Setenv("RESALE_WATCH__MAX_PRICE", "99.5")
		t.Setenv("RESALE_HTTP_RETRY__MAX_RETRIES", "7")

		cfg, err := LoadWithFile(writeConfigFile(t, validConfigJSON))
		require.NoError(t, err)

		assert.InEpsilon(t, 99.5, cfg.Watch.MaxPrice, 1e-9)
		assert.Equal(t, 7, cfg.HTTPRetry.MaxRetries)
	})

	t.Run("Success_EnvOverridesListsFromCommaSeparatedValues", func(t *testing.T) {
		t.Setenv("RESALE_WATCH__RESOURCE_IDS", "417009905, 417009906")
		t.Setenv("RESALE_WATCH__RESOURCE_LABELS", "30/05/26,31/05/26")
		t.Setenv("RESALE_WATCH__USER_AGENTS", " Agent/1.0 ")

		cfg, err := LoadWithFile(writeConfigFile(t, validConfigJSON))
		require.NoError(t, err)

		assert.Equal(t, []string{"417009905", "417009906"}, cfg.Watch.ResourceIDs)
		assert.Equal(t, []string{"30/05/26", "31/05/26"}, cfg.Watch.ResourceLabels)
		assert.Equal(t, []string{"Agent/1.0"}, cfg.Watch.UserAgents)
	})

	t.Run("Error_FileNotFound", func(t *testing.T) {
		_, err := LoadWithFile(filepath.Join(t.TempDir(), "missing.json"))
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.System))
	})

	t.Run("Error_MalformedJSON", func(t *testing.T) {
		_, err := LoadWithFile(writeConfigFile(t, "{broken"))
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.InvalidInput))
	})

	t.Run("Error_UnknownKeyRejected", func(t *testing.T) {
		content := `{"watch_typo": {}, ` + validConfigJSON[1:]
		_, err := LoadWithFile(writeConfigFile(t, content))
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.System))
	})

	t.Run("Error_ValidationFailure", func(t *testing.T) {
		content := `{
			"watch": {
				"url_template": "https://resale.example.com/api/availability",
				"link_template": "https://resale.example.com/events/{resource_id}",
				"resource_ids": ["417009905"],
				"resource_labels": ["30/05/26"],
				"max_price": 250
			},
			"notifiers": {
				"default_notifier_id": "telegram-main",
				"telegrams": [
					{
						"id": "telegram-main",
						"bot_token": "123456789:ABC-DEF1234ghIkl-zyx57W2v1u123ew11",
						"chat_ids": [12345]
					}
				]
			}
		}`
		_, err := LoadWithFile(writeConfigFile(t, content))
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.InvalidInput))
	})
}
