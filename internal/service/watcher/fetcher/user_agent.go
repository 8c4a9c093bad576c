package fetcher

import (
	"math/rand/v2"
	"net/http"
)

// defaultUserAgents is the rotation list used when the configuration does
// not provide one. Kept to current mainstream browser strings.
var defaultUserAgents = []string{
	// Chrome 120 - Windows 10/11 (64-bit)
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	// Chrome 120 - macOS Catalina (10.15.7)
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	// Chrome 120 - Linux (64-bit)
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	// Firefox 121 - Windows 10/11 (64-bit)
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	// Firefox 121 - macOS Catalina (10.15)
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:121.0) Gecko/20100101 Firefox/121.0",
	// Safari 17.2 - macOS Catalina (10.15.7)
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
}

// UserAgentFetcher injects a randomly chosen User-Agent into requests that
// do not carry one. Requests with an explicit User-Agent pass unmodified.
//
// Placed outside the RetryFetcher so retries of one request keep the same
// User-Agent.
type UserAgentFetcher struct {
	delegate Fetcher

	userAgents []string
}

var _ Fetcher = (*UserAgentFetcher)(nil)

// NewUserAgentFetcher builds a UserAgentFetcher. An empty or nil userAgents
// list falls back to the built-in rotation.
func NewUserAgentFetcher(delegate Fetcher, userAgents []string) *UserAgentFetcher {
	return &UserAgentFetcher{
		delegate:   delegate,
		userAgents: userAgents,
	}
}

// Do performs the request, injecting a User-Agent if needed. The original
// request is never modified; injection happens on a clone.
func (f *UserAgentFetcher) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return f.delegate.Do(req)
	}

	uas := f.userAgents
	if len(uas) == 0 {
		uas = defaultUserAgents
	}

	ua := uas[rand.IntN(len(uas))]

	clonedReq := req.Clone(req.Context())
	clonedReq.Header.Set("User-Agent", ua)

	return f.delegate.Do(clonedReq)
}
