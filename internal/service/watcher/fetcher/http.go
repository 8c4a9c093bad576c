package fetcher

import (
	"net/http"
	"time"

	apperrors "github.com/darkkaiser/resale-watcher/internal/pkg/errors"
)

const (
	// defaultTimeout covers the whole request, from dialing until the
	// response body has been read.
	defaultTimeout = 30 * time.Second

	// defaultMaxRedirects mirrors the net/http default.
	defaultMaxRedirects = 10
)

// HTTPFetcher is the innermost element of every chain. It performs the
// actual network I/O through a *http.Client.
type HTTPFetcher struct {
	client *http.Client
}

var _ Fetcher = (*HTTPFetcher)(nil)

// Option customizes the HTTPFetcher built by NewHTTPFetcher.
type Option func(*options)

type options struct {
	timeout      time.Duration
	maxRedirects int
	transport    http.RoundTripper
}

// WithTimeout sets the total request timeout. Zero disables the timeout;
// a negative value falls back to the default.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout < 0 {
			timeout = defaultTimeout
		}
		o.timeout = timeout
	}
}

// WithMaxRedirects bounds the number of 3xx redirects followed per request.
// Zero forbids redirects entirely; a negative value falls back to the default.
func WithMaxRedirects(n int) Option {
	return func(o *options) {
		if n < 0 {
			n = defaultMaxRedirects
		}
		o.maxRedirects = n
	}
}

// WithTransport replaces the underlying RoundTripper. Mainly for tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.transport = rt
	}
}

// NewHTTPFetcher builds the innermost fetcher with the given options.
func NewHTTPFetcher(opts ...Option) *HTTPFetcher {
	o := options{
		timeout:      defaultTimeout,
		maxRedirects: defaultMaxRedirects,
	}
	for _, opt := range opts {
		opt(&o)
	}

	maxRedirects := o.maxRedirects
	client := &http.Client{
		Timeout:   o.timeout,
		Transport: o.transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return apperrors.New(apperrors.ExecutionFailed, "the redirect limit for the request was exceeded")
			}
			return nil
		},
	}

	return &HTTPFetcher{client: client}
}

// Do performs the HTTP request.
func (f *HTTPFetcher) Do(req *http.Request) (*http.Response, error) {
	return f.client.Do(req)
}
