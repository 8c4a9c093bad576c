package fetcher

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/darkkaiser/resale-watcher/internal/pkg/errors"
	applog "github.com/darkkaiser/resale-watcher/pkg/log"
)

const (
	// minAllowedRetries is the smallest accepted retry count (0: no retries).
	minAllowedRetries = 0

	// maxAllowedRetries is the largest accepted retry count.
	maxAllowedRetries = 10

	// defaultMaxRetryDelay caps the exponential backoff when the caller
	// does not set an upper bound.
	defaultMaxRetryDelay = 30 * time.Second
)

// RetryFetcher retries failed requests with exponential backoff and full
// jitter. A Retry-After response header, when present and within policy,
// overrides the computed delay. Context cancellation aborts waiting
// immediately.
type RetryFetcher struct {
	delegate Fetcher

	// maxRetries is normalized into [minAllowedRetries, maxAllowedRetries].
	maxRetries int

	// minRetryDelay is the starting point of the exponential backoff,
	// never below one second.
	minRetryDelay time.Duration

	// maxRetryDelay caps the backoff, never below minRetryDelay.
	maxRetryDelay time.Duration
}

var _ Fetcher = (*RetryFetcher)(nil)

// NewRetryFetcher builds a RetryFetcher with normalized policy values.
func NewRetryFetcher(delegate Fetcher, maxRetries int, minRetryDelay time.Duration, maxRetryDelay time.Duration) *RetryFetcher {
	maxRetries = normalizeMaxRetries(maxRetries)
	minRetryDelay, maxRetryDelay = normalizeRetryDelays(minRetryDelay, maxRetryDelay)

	return &RetryFetcher{
		delegate:      delegate,
		maxRetries:    maxRetries,
		minRetryDelay: minRetryDelay,
		maxRetryDelay: maxRetryDelay,
	}
}

// Do performs the request, retrying transient failures.
//
// Retried: network errors, timeouts, 5xx statuses (except 501/505/511),
// 429 and 408.
// Not retried: context cancellation, 4xx client errors, certificate
// errors, and non-idempotent methods (POST, PATCH).
//
// A request with a body must set GetBody, otherwise retries are disabled
// for it to protect data integrity.
func (f *RetryFetcher) Do(req *http.Request) (*http.Response, error) {
	effectiveMaxRetries := f.maxRetries

	// Non-idempotent methods risk duplicate writes when replayed.
	if !isIdempotentMethod(req.Method) {
		effectiveMaxRetries = 0
	}

	// Without GetBody a consumed body cannot be replayed.
	if req.Body != nil && req.GetBody == nil && f.maxRetries > 0 {
		applog.WithComponent(component).WithContext(req.Context()).WithFields(applog.Fields{
			"url":         redactURL(req.URL),
			"method":      req.Method,
			"max_retries": f.maxRetries,
		}).Warn("retries disabled: the request body cannot be rebuilt (GetBody is nil)")

		effectiveMaxRetries = 0
	}

	var lastErr error
	var lastResp *http.Response

	for i := 0; i <= effectiveMaxRetries; i++ {
		if i > 0 {
			// Exponential backoff: minRetryDelay * 2^(attempt-1), capped.
			delay := f.minRetryDelay * time.Duration(1<<(i-1))
			if delay > f.maxRetryDelay {
				delay = f.maxRetryDelay
			}

			// Full jitter spreads concurrent retries across [0, delay].
			if delay > 0 {
				delay = time.Duration(rand.Int64N(int64(delay) + 1))
			}

			// A server-provided Retry-After takes precedence over the
			// computed delay; one above maxRetryDelay aborts the retry.
			var retryAfter string
			var explicitDelayFound bool

			if lastResp != nil {
				retryAfter = lastResp.Header.Get("Retry-After")
			} else if lastErr != nil {
				var statusErr *HTTPStatusError
				if errors.As(lastErr, &statusErr) {
					retryAfter = statusErr.Header.Get("Retry-After")
				}
			}

			if retryAfter != "" {
				if retryAfterDelay, ok := parseRetryAfter(retryAfter); ok {
					if retryAfterDelay > f.maxRetryDelay {
						if lastResp != nil && lastResp.Body != nil {
							drainAndCloseBody(lastResp.Body)
						}

						return nil, newErrRetryAfterExceeded(retryAfterDelay.String(), f.maxRetryDelay.String())
					}

					delay = retryAfterDelay
					explicitDelayFound = true
				}
			}

			// Guard against near-zero jittered delays hammering the server.
			if !explicitDelayFound && delay < time.Millisecond {
				delay = f.minRetryDelay
			}

			fields := applog.Fields{
				"url":               redactURL(req.URL),
				"retry":             i,
				"max_retries":       f.maxRetries,
				"remaining_retries": effectiveMaxRetries - i,
				"delay":             delay.String(),
			}
			var retryReason string
			if lastErr != nil {
				fields["error"] = lastErr.Error()
				retryReason = "network_error"
			}
			if lastResp != nil {
				fields["status_code"] = lastResp.StatusCode
				if retryReason == "" {
					retryReason = fmt.Sprintf("status_code_%d", lastResp.StatusCode)
				}
			}
			if retryReason != "" {
				fields["retry_reason"] = retryReason
			}
			if retryAfter != "" {
				fields["retry_after_header"] = retryAfter
			}

			applog.WithComponent(component).
				WithContext(req.Context()).
				WithFields(fields).
				Warn("waiting to retry: the request failed with a transient error")

			timer := time.NewTimer(delay)

			select {
			case <-req.Context().Done():
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}

				if lastResp != nil && lastResp.Body != nil {
					// Cancellation favors a quick return over connection reuse.
					lastResp.Body.Close()
				}

				return nil, req.Context().Err()

			case <-timer.C:
			}
		}

		// Rebuild the body consumed by the previous attempt, on a clone so
		// the caller's request stays untouched.
		if i > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				if lastResp != nil && lastResp.Body != nil {
					drainAndCloseBody(lastResp.Body)
				}

				return nil, newErrGetBodyFailed(err)
			}

			req = req.Clone(req.Context())
			req.Body = body
		}

		resp, err := f.delegate.Do(req)
		lastResp = resp

		// Status-based retry decision. The StatusCodeFetcher below usually
		// converts these to errors first, but the check stays so this
		// middleware also works standalone.
		shouldRetry := false
		if resp != nil {
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusRequestTimeout {
				shouldRetry = true
			} else if resp.StatusCode >= 500 {
				switch resp.StatusCode {
				case http.StatusNotImplemented, http.StatusHTTPVersionNotSupported, http.StatusNetworkAuthenticationRequired:
					shouldRetry = false

				default:
					shouldRetry = true
				}
			}
		}

		if err != nil {
			// An expired overall deadline cannot be fixed by retrying.
			if errors.Is(err, context.DeadlineExceeded) && req.Context().Err() != nil {
				if resp != nil && resp.Body != nil {
					resp.Body.Close()
				}

				return nil, err
			}

			if !isRetriable(err) {
				if resp != nil && resp.Body != nil {
					if errors.Is(err, context.Canceled) {
						resp.Body.Close()
					} else {
						drainAndCloseBody(resp.Body)
					}
				}

				return nil, err
			}
		} else if !shouldRetry {
			return resp, nil
		}

		lastErr = err
		if resp != nil {
			if i == effectiveMaxRetries {
				finalErr := lastErr
				if finalErr == nil {
					var bodySnippet string
					if resp.Body != nil {
						lr := io.LimitReader(resp.Body, statusBodySnippetLimit)
						bodyBytes, _ := io.ReadAll(lr)
						if len(bodyBytes) > 0 {
							bodySnippet = string(bodyBytes)
						}
					}

					// No network error, but the server kept answering with a
					// retriable status until the budget ran out.
					finalErr = &HTTPStatusError{
						StatusCode:  resp.StatusCode,
						Status:      resp.Status,
						URL:         redactURL(req.URL),
						Header:      redactHeaders(resp.Header),
						BodySnippet: bodySnippet,
						Cause:       ErrMaxRetriesExceeded,
					}
				} else {
					finalErr = newErrMaxRetriesExceeded(finalErr)
				}

				drainAndCloseBody(resp.Body)

				return nil, finalErr
			}

			drainAndCloseBody(resp.Body)
		}
	}

	// Every attempt failed without a response (timeout, refused connection).
	return nil, newErrMaxRetriesExceeded(lastErr)
}

func normalizeMaxRetries(maxRetries int) int {
	if maxRetries < minAllowedRetries {
		return minAllowedRetries
	}
	if maxRetries > maxAllowedRetries {
		return maxAllowedRetries
	}

	return maxRetries
}

func normalizeRetryDelays(minRetryDelay, maxRetryDelay time.Duration) (time.Duration, time.Duration) {
	if minRetryDelay < time.Second {
		minRetryDelay = 1 * time.Second
	}

	if maxRetryDelay == 0 {
		maxRetryDelay = defaultMaxRetryDelay
	}

	if maxRetryDelay < minRetryDelay {
		maxRetryDelay = minRetryDelay
	}

	return minRetryDelay, maxRetryDelay
}

// isRetriable classifies an error as transient or permanent.
//
// Retried: timeouts, transient network failures, apperrors.Unavailable
// (except 501/505/511), and unclassified errors.
// Not retried: context cancellation, certificate errors, malformed URLs,
// redirect loops, and domain errors (ExecutionFailed, InvalidInput,
// Forbidden, NotFound).
func isRetriable(err error) bool {
	if err == nil {
		return false
	}

	// context.DeadlineExceeded also surfaces as net.Error.Timeout(), so it
	// is classified there, not here.
	if errors.Is(err, context.Canceled) {
		return false
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		switch urlErr.Err.Error() {
		case "stopped after 10 redirects":
			return false

		case "invalid control character in URL":
			return false
		}

		if strings.Contains(urlErr.Error(), "unsupported protocol scheme") {
			return false
		}
	}

	// Certificate problems do not heal between attempts.
	var x509HostnameErr x509.HostnameError
	var x509UnknownAuthorityErr x509.UnknownAuthorityError
	var x509CertificateInvalidErr x509.CertificateInvalidError
	if errors.As(err, &x509HostnameErr) || errors.As(err, &x509UnknownAuthorityErr) || errors.As(err, &x509CertificateInvalidErr) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true
		}
	}

	if apperrors.Is(err, apperrors.Unavailable) {
		var statusErr *HTTPStatusError
		if errors.As(err, &statusErr) {
			switch statusErr.StatusCode {
			case http.StatusNotImplemented,
				http.StatusHTTPVersionNotSupported,
				http.StatusNetworkAuthenticationRequired:
				return false
			}
		}

		return true
	}

	if apperrors.Is(err, apperrors.ExecutionFailed) ||
		apperrors.Is(err, apperrors.InvalidInput) ||
		apperrors.Is(err, apperrors.Forbidden) ||
		apperrors.Is(err, apperrors.NotFound) {
		return false
	}

	// No clear permanent cause: treat as transient (DNS failure, refused
	// connection, dropped network).
	return true
}

// isIdempotentMethod reports whether a method is safe to replay.
// See RFC 7231 Section 4.2.2.
func isIdempotentMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace, http.MethodPut, http.MethodDelete:
		return true

	default:
		return false
	}
}

// parseRetryAfter parses a Retry-After header value, accepting both the
// delta-seconds and the HTTP-date forms of RFC 7231 Section 7.1.3.
func parseRetryAfter(value string) (time.Duration, bool) {
	if value == "" {
		return 0, false
	}

	var seconds int
	if _, err := fmt.Sscanf(value, "%d", &seconds); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second, true
	}

	if date, err := http.ParseTime(value); err == nil {
		duration := time.Until(date)
		if duration < 0 {
			// A date in the past means retry now; clock skew makes this common.
			duration = 0
		}

		return duration, true
	}

	return 0, false
}
