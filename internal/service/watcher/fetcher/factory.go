package fetcher

import (
	"time"
)

// Config collects every option for assembling a Fetcher chain.
type Config struct {
	// Timeout is the whole-request timeout, from dialing until the body
	// has been read. Zero keeps the HTTPFetcher default.
	Timeout time.Duration

	// EnableUserAgentRandomization injects a random User-Agent into each
	// request. Useful against naive bot blocking on scraped endpoints.
	EnableUserAgentRandomization bool

	// UserAgents overrides the built-in User-Agent rotation list.
	UserAgents []string

	// MaxRetries, MinRetryDelay and MaxRetryDelay configure the retry
	// policy; see RetryFetcher for the normalization rules.
	MaxRetries    int
	MinRetryDelay time.Duration
	MaxRetryDelay time.Duration

	// AllowedStatusCodes lists the statuses treated as success.
	// Empty means 200 OK only.
	AllowedStatusCodes []int

	// MaxBytes bounds the response body size. NoLimit disables the bound;
	// zero and negative values fall back to the default.
	MaxBytes int64

	// DisableLogging turns off the outermost logging middleware.
	DisableLogging bool
}

// New assembles a Fetcher chain from the common settings. For full control
// use NewFromConfig.
func New(maxRetries int, minRetryDelay time.Duration, maxBytes int64, opts ...Option) Fetcher {
	return NewFromConfig(Config{
		MaxRetries:    maxRetries,
		MinRetryDelay: minRetryDelay,
		MaxBytes:      maxBytes,
	}, opts...)
}

// NewFromConfig assembles the Fetcher chain, outermost first:
//
//  1. LoggingFetcher    records the whole request lifecycle, retries included.
//  2. UserAgentFetcher  keeps one User-Agent stable across retries.
//  3. RetryFetcher      drives backoff; validation failures below it are retried.
//  4. StatusCodeFetcher rejects unexpected statuses per attempt.
//  5. MaxBytesFetcher   bounds the body size.
//  6. HTTPFetcher       performs the network I/O.
func NewFromConfig(cfg Config, opts ...Option) Fetcher {
	var mergedOpts []Option
	if cfg.Timeout > 0 {
		mergedOpts = append(mergedOpts, WithTimeout(cfg.Timeout))
	}
	// Caller options come last so they can override the Config-derived ones.
	mergedOpts = append(mergedOpts, opts...)

	var f Fetcher = NewHTTPFetcher(mergedOpts...)

	f = NewMaxBytesFetcher(f, cfg.MaxBytes)

	if len(cfg.AllowedStatusCodes) > 0 {
		f = NewStatusCodeFetcherWithOptions(f, cfg.AllowedStatusCodes...)
	} else {
		f = NewStatusCodeFetcher(f)
	}

	f = NewRetryFetcher(f, cfg.MaxRetries, cfg.MinRetryDelay, cfg.MaxRetryDelay)

	if cfg.EnableUserAgentRandomization {
		f = NewUserAgentFetcher(f, cfg.UserAgents)
	}

	if !cfg.DisableLogging {
		f = NewLoggingFetcher(f)
	}

	return f
}
