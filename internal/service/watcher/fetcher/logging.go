package fetcher

import (
	"net/http"
	"time"

	applog "github.com/darkkaiser/resale-watcher/pkg/log"
)

// LoggingFetcher records method, redacted URL, status and elapsed time for
// every request passing through the chain. It sits outermost so retries
// and their delays are covered by one record.
type LoggingFetcher struct {
	delegate Fetcher
}

var _ Fetcher = (*LoggingFetcher)(nil)

// NewLoggingFetcher builds a LoggingFetcher.
func NewLoggingFetcher(delegate Fetcher) *LoggingFetcher {
	return &LoggingFetcher{
		delegate: delegate,
	}
}

// Do performs the request and logs the outcome.
func (f *LoggingFetcher) Do(req *http.Request) (*http.Response, error) {
	start := time.Now()

	resp, err := f.delegate.Do(req)

	duration := time.Since(start)

	fields := applog.Fields{
		"method":   req.Method,
		"url":      redactURL(req.URL),
		"duration": duration.String(),
	}

	if err != nil {
		fields["error"] = err.Error()

		if resp != nil {
			fields["status"] = resp.Status
			fields["status_code"] = resp.StatusCode
		}

		applog.WithComponent(component).
			WithContext(req.Context()).
			WithFields(fields).
			Error("HTTP request failed")

		return resp, err
	}

	if resp != nil {
		fields["status"] = resp.Status
		fields["status_code"] = resp.StatusCode
	}

	applog.WithComponent(component).
		WithContext(req.Context()).
		WithFields(fields).
		Debug("HTTP request completed")

	return resp, nil
}
