package config

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	apperrors "github.com/darkkaiser/resale-watcher/internal/pkg/errors"
	"github.com/darkkaiser/resale-watcher/pkg/cronx"
	"github.com/darkkaiser/resale-watcher/pkg/strutil"
	"github.com/go-viper/mapstructure/v2"
	koanfjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// AppName is the global identifier of the application.
	AppName string = "resale-watcher"

	// DefaultFilename is the configuration file looked up when no
	// explicit path is given on the command line.
	DefaultFilename = AppName + ".json"

	// ------------------------------------------------------------------------------------------------
	// HTTP retry policy defaults
	// ------------------------------------------------------------------------------------------------

	// DefaultMaxRetries is the default number of retries for a failed HTTP request.
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the default wait time between retries.
	DefaultRetryDelay = "2s"

	// ------------------------------------------------------------------------------------------------
	// Watch defaults
	// ------------------------------------------------------------------------------------------------

	// DefaultCheckInterval is the default pause between full polling cycles.
	DefaultCheckInterval = "60s"

	// DefaultMinDelay and DefaultMaxDelay bound the random delay inserted
	// before each per-resource request within a cycle.
	DefaultMinDelay = "1s"
	DefaultMaxDelay = "5s"

	// DefaultOfferPause is the default pause between consecutive
	// notifications dispatched for offers of the same resource.
	DefaultOfferPause = "1s"

	// DefaultFetchTimeout is the default per-request HTTP timeout.
	DefaultFetchTimeout = "30s"

	// DefaultStoreFile is the default path of the seen-offer store.
	DefaultStoreFile = "seen_offers.json"

	// DefaultBaselineEmpty is the payload the availability endpoint returns
	// when a resource has nothing on sale. A fetched document equal to this
	// one is treated as "no availability" without further parsing.
	DefaultBaselineEmpty = `{"groups": [], "offers": []}`

	// resourceIDPlaceholder must appear in the URL and link templates and is
	// replaced with the concrete resource identifier at request time.
	resourceIDPlaceholder = "{resource_id}"
)

// AppConfig is the root structure holding every application setting.
type AppConfig struct {
	Debug     bool            `json:"debug"`
	Watch     WatchConfig     `json:"watch"`
	HTTPRetry HTTPRetryConfig `json:"http_retry"`
	Notifiers NotifierConfig  `json:"notifiers"`
	Summary   SummaryConfig   `json:"summary"`
	API       APIConfig       `json:"api"`
}

// validate checks the coherence of the loaded configuration right after load.
func (c *AppConfig) validate() error {
	if err := c.Watch.validate(); err != nil {
		return err
	}

	if err := c.HTTPRetry.validate(); err != nil {
		return err
	}

	if _, err := c.Notifiers.validate(); err != nil {
		return err
	}

	if err := c.Summary.validate(); err != nil {
		return err
	}

	if err := c.API.validate(); err != nil {
		return err
	}

	return nil
}

// VerifyRecommendations diagnoses settings that are legal but risky for
// day-to-day operation. It never fails; it only returns warning messages.
func (c *AppConfig) VerifyRecommendations() []string {
	var warnings []string

	warnings = append(warnings, c.Watch.VerifyRecommendations()...)
	warnings = append(warnings, c.API.VerifyRecommendations()...)

	return warnings
}

// WatchConfig defines the resources to poll and the admission policy
// applied to the offers found on them.
type WatchConfig struct {
	// URLTemplate is the availability endpoint with a {resource_id} placeholder.
	URLTemplate string `json:"url_template" validate:"required"`

	// LinkTemplate is the public page linked from notifications,
	// also with a {resource_id} placeholder.
	LinkTemplate string `json:"link_template" validate:"required"`

	// ResourceIDs and ResourceLabels are parallel lists: the label at
	// index i names the resource at index i in notification messages.
	ResourceIDs    []string `json:"resource_ids" validate:"required,min=1,unique"`
	ResourceLabels []string `json:"resource_labels" validate:"required,min=1"`

	// MaxPrice is the exclusive upper bound, in major currency units,
	// for an offer to be worth notifying.
	MaxPrice float64 `json:"max_price" validate:"required,gt=0"`

	// BaselineEmpty overrides the built-in "nothing on sale" payload.
	BaselineEmpty string `json:"baseline_empty"`

	CheckInterval string `json:"check_interval"`
	MinDelay      string `json:"min_delay"`
	MaxDelay      string `json:"max_delay"`
	OfferPause    string `json:"offer_pause"`
	FetchTimeout  string `json:"fetch_timeout"`

	// StoreFile is the path of the persistent seen-offer store.
	StoreFile string `json:"store_file"`

	// ImagesDir is the directory holding the sector map images attached
	// to notifications. Empty disables image attachments.
	ImagesDir string `json:"images_dir"`

	// UserAgents optionally overrides the rotation list used for requests.
	UserAgents []string `json:"user_agents"`

	// Static request headers sent with every availability request.
	Accept  string `json:"accept"`
	Referer string `json:"referer"`
	Origin  string `json:"origin"`
}

func (c *WatchConfig) validate() error {
	if err := checkStruct(c, "Watch"); err != nil {
		return err
	}

	if !strings.Contains(c.URLTemplate, resourceIDPlaceholder) {
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("the watch URL template(url_template) must contain the '%s' placeholder", resourceIDPlaceholder))
	}
	if !strings.Contains(c.LinkTemplate, resourceIDPlaceholder) {
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("the watch link template(link_template) must contain the '%s' placeholder", resourceIDPlaceholder))
	}

	// Labels and IDs are matched by position, so the lists must line up.
	if len(c.ResourceLabels) != len(c.ResourceIDs) {
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("the resource label list(resource_labels) must have one entry per resource ID (ids: %d, labels: %d)", len(c.ResourceIDs), len(c.ResourceLabels)))
	}

	if c.BaselineEmpty != "" && !json.Valid([]byte(c.BaselineEmpty)) {
		return apperrors.New(apperrors.InvalidInput, "the empty-availability baseline(baseline_empty) is not valid JSON")
	}

	for name, value := range map[string]string{
		"check_interval": c.CheckInterval,
		"min_delay":      c.MinDelay,
		"max_delay":      c.MaxDelay,
		"offer_pause":    c.OfferPause,
		"fetch_timeout":  c.FetchTimeout,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("the watch duration setting(%s) is not valid: '%s' (e.g. 1s, 500ms)", name, value))
		}
	}

	if c.MinDelayDuration() > c.MaxDelayDuration() {
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("the minimum request delay(min_delay: %s) must not exceed the maximum(max_delay: %s)", c.MinDelay, c.MaxDelay))
	}

	if strings.TrimSpace(c.StoreFile) == "" {
		return apperrors.New(apperrors.InvalidInput, "the seen-offer store path(store_file) is empty")
	}

	return nil
}

func (c *WatchConfig) VerifyRecommendations() []string {
	var warnings []string

	if c.CheckIntervalDuration() < 10*time.Second {
		warnings = append(warnings, fmt.Sprintf("the polling interval is very short(check_interval: %s); the availability endpoint may rate-limit or block the watcher", c.CheckInterval))
	}

	return warnings
}

// ResourceURL renders the availability endpoint URL for a resource.
func (c *WatchConfig) ResourceURL(resourceID string) string {
	return strings.ReplaceAll(c.URLTemplate, resourceIDPlaceholder, resourceID)
}

// ResourceLink renders the public page URL for a resource.
func (c *WatchConfig) ResourceLink(resourceID string) string {
	return strings.ReplaceAll(c.LinkTemplate, resourceIDPlaceholder, resourceID)
}

// RefererFor returns the referer header value with the resource
// identifier substituted into the placeholder, if present.
func (c *WatchConfig) RefererFor(resourceID string) string {
	return strings.ReplaceAll(c.Referer, resourceIDPlaceholder, resourceID)
}

// BaselineEmptyJSON returns the effective empty-availability baseline.
func (c *WatchConfig) BaselineEmptyJSON() string {
	if c.BaselineEmpty != "" {
		return c.BaselineEmpty
	}
	return DefaultBaselineEmpty
}

// The duration accessors assume validate() has already run; on a value that
// does not parse they fall back to zero, which callers treat as "no delay".
func (c *WatchConfig) CheckIntervalDuration() time.Duration { return parseDuration(c.CheckInterval) }
func (c *WatchConfig) MinDelayDuration() time.Duration      { return parseDuration(c.MinDelay) }
func (c *WatchConfig) MaxDelayDuration() time.Duration      { return parseDuration(c.MaxDelay) }
func (c *WatchConfig) OfferPauseDuration() time.Duration    { return parseDuration(c.OfferPause) }
func (c *WatchConfig) FetchTimeoutDuration() time.Duration  { return parseDuration(c.FetchTimeout) }

func parseDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

// HTTPRetryConfig defines how often, and how long apart, failed HTTP
// requests are retried.
type HTTPRetryConfig struct {
	MaxRetries int    `json:"max_retries"`
	RetryDelay string `json:"retry_delay"`
}

func (c *HTTPRetryConfig) validate() error {
	if _, err := time.ParseDuration(c.RetryDelay); err != nil {
		return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("the HTTP retry delay(retry_delay) is not valid: '%s' (e.g. 1s, 500ms)", c.RetryDelay))
	}
	return nil
}

// RetryDelayDuration returns the parsed retry delay, falling back to the
// default when the configured value does not parse.
func (c *HTTPRetryConfig) RetryDelayDuration() time.Duration {
	d, err := time.ParseDuration(c.RetryDelay)
	if err != nil {
		d, _ = time.ParseDuration(DefaultRetryDelay)
	}
	return d
}

// NotifierConfig declares the notification channels offers are dispatched to.
type NotifierConfig struct {
	DefaultNotifierID string           `json:"default_notifier_id"`
	Telegrams         []TelegramConfig `json:"telegrams" validate:"unique=ID"`
}

func (c *NotifierConfig) validate() ([]string, error) {
	if err := checkUniqueField(c.Telegrams, "ID", "Notifier"); err != nil {
		return nil, err
	}

	for _, telegram := range c.Telegrams {
		if err := checkStruct(telegram, fmt.Sprintf("Telegram Notifier['%s']", telegram.ID)); err != nil {
			return nil, err
		}
	}

	var notifierIDs []string
	for _, telegram := range c.Telegrams {
		notifierIDs = append(notifierIDs, telegram.ID)
	}

	if !slices.Contains(notifierIDs, c.DefaultNotifierID) {
		return nil, apperrors.New(apperrors.NotFound, fmt.Sprintf("the default NotifierID('%s') does not exist in the declared notifier list", c.DefaultNotifierID))
	}

	return notifierIDs, nil
}

// TelegramConfig holds the bot token and recipient chats of one Telegram
// notification channel. Every chat in ChatIDs receives every notification.
type TelegramConfig struct {
	ID       string  `json:"id" validate:"required"`
	BotToken string  `json:"bot_token" validate:"required,telegram_bot_token"`
	ChatIDs  []int64 `json:"chat_ids" validate:"required,min=1,unique"`
}

// SummaryConfig schedules the daily activity summary notification.
type SummaryConfig struct {
	Runnable bool   `json:"runnable"`
	TimeSpec string `json:"time_spec"`
}

func (c *SummaryConfig) validate() error {
	if !c.Runnable {
		return nil
	}

	if err := cronx.Validate(c.TimeSpec); err != nil {
		return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("the summary schedule(time_spec) is not a valid cron expression: '%s'", c.TimeSpec))
	}

	return nil
}

// APIConfig configures the embedded status HTTP server.
type APIConfig struct {
	Enabled    bool    `json:"enabled"`
	ListenPort int     `json:"listen_port"`
	RateLimit  float64 `json:"rate_limit"`
}

func (c *APIConfig) validate() error {
	if !c.Enabled {
		return nil
	}

	if c.ListenPort < 1 || c.ListenPort > 65535 {
		return apperrors.New(apperrors.InvalidInput, "the status server port(listen_port) must be between 1 and 65535")
	}

	if c.RateLimit < 0 {
		return apperrors.New(apperrors.InvalidInput, "the status server rate limit(rate_limit) must not be negative")
	}

	return nil
}

func (c *APIConfig) VerifyRecommendations() []string {
	var warnings []string

	// Ports below 1024 need elevated privileges on most systems.
	if c.Enabled && c.ListenPort < 1024 {
		warnings = append(warnings, fmt.Sprintf("the status server is configured on a system reserved port(port: %d); starting it may require administrator privileges", c.ListenPort))
	}

	return warnings
}

// listSettings are the configuration keys decoded as string lists; their
// environment overrides are split on commas.
var listSettings = map[string]bool{
	"watch.resource_ids":    true,
	"watch.resource_labels": true,
	"watch.user_agents":     true,
}

// Load reads the default configuration file and builds the application settings.
func Load() (*AppConfig, error) {
	return LoadWithFile(DefaultFilename)
}

// LoadWithFile reads the given configuration file and builds an AppConfig.
//
// Sources are merged lowest priority first: built-in defaults, then the
// JSON file, then environment variables with the RESALE_ prefix where a
// double underscore separates nesting levels.
// Example: RESALE_WATCH__MAX_PRICE -> watch.max_price
func LoadWithFile(filename string) (*AppConfig, error) {
	k := koanf.New(".")

	// 1. Built-in defaults (lowest priority).
	err := k.Load(confmap.Provider(map[string]interface{}{
		"http_retry.max_retries": DefaultMaxRetries,
		"http_retry.retry_delay": DefaultRetryDelay,
		"watch.check_interval":   DefaultCheckInterval,
		"watch.min_delay":        DefaultMinDelay,
		"watch.max_delay":        DefaultMaxDelay,
		"watch.offer_pause":      DefaultOfferPause,
		"watch.fetch_timeout":    DefaultFetchTimeout,
		"watch.store_file":       DefaultStoreFile,
	}, "."), nil)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "failed to load the built-in application defaults")
	}

	// 2. JSON configuration file (overrides defaults).
	if err := k.Load(file.Provider(filename), koanfjson.Parser()); err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrap(err, apperrors.System, fmt.Sprintf("configuration file not found: '%s'", filename))
		}
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("failed to load the configuration file: '%s'", filename))
	}

	// 3. Environment variables (highest priority, override the file).
	// List-valued settings take a comma separated value.
	if err := k.Load(env.ProviderWithValue("RESALE_", ".", func(key, value string) (string, interface{}) {
		key = strings.TrimPrefix(key, "RESALE_")
		key = strings.ToLower(key)
		key = strings.ReplaceAll(key, "__", ".")

		if listSettings[key] {
			return key, strutil.SplitAndTrim(value, ",")
		}
		return key, value
	}), nil); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "failed to load environment variable overrides")
	}

	// 4. Strict unmarshalling: unknown keys in the file are an error.
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "json",
		DecoderConfig: &mapstructure.DecoderConfig{
			ErrorUnused:      true,
			WeaklyTypedInput: true,
		},
	}
	var appConfig AppConfig
	if err := k.UnmarshalWithConf("", &appConfig, unmarshalConf); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "failed to map the configuration data onto the application structures")
	}

	// 5. Coherence checks.
	if err := appConfig.validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("validation of the configuration file('%s') failed", filename))
	}

	return &appConfig, nil
}
