package fetcher

import (
	"io"
	"net/http"
	"slices"

	apperrors "github.com/darkkaiser/resale-watcher/internal/pkg/errors"
)

// statusBodySnippetLimit caps how much of an error response body is kept
// for diagnostics.
const statusBodySnippetLimit = 4096

// StatusCodeFetcher converts responses with unexpected status codes into
// errors, closing the failed response so the connection can be reused.
type StatusCodeFetcher struct {
	delegate Fetcher

	// allowedStatusCodes lists the statuses accepted as success.
	// Nil or empty means 200 OK only.
	allowedStatusCodes []int
}

var _ Fetcher = (*StatusCodeFetcher)(nil)

// NewStatusCodeFetcher builds a StatusCodeFetcher accepting only 200 OK.
func NewStatusCodeFetcher(delegate Fetcher) *StatusCodeFetcher {
	return &StatusCodeFetcher{
		delegate: delegate,
	}
}

// NewStatusCodeFetcherWithOptions builds a StatusCodeFetcher accepting the
// given status codes.
func NewStatusCodeFetcherWithOptions(delegate Fetcher, allowedStatusCodes ...int) *StatusCodeFetcher {
	return &StatusCodeFetcher{
		delegate:           delegate,
		allowedStatusCodes: allowedStatusCodes,
	}
}

// Do performs the request and validates the response status.
//
// On a rejected status the body has already been consumed into the error's
// BodySnippet and closed; the returned response is nil.
func (f *StatusCodeFetcher) Do(req *http.Request) (*http.Response, error) {
	resp, err := f.delegate.Do(req)
	if err != nil {
		// A response may accompany the error (e.g. redirect failure).
		if resp != nil {
			drainAndCloseBody(resp.Body)
		}

		return nil, err
	}

	if statusErr := checkResponseStatus(resp, req, f.allowedStatusCodes...); statusErr != nil {
		drainAndCloseBody(resp.Body)

		return nil, statusErr
	}

	return resp, nil
}

// checkResponseStatus returns a structured error when the response status
// is not in the allowed set. It reads at most statusBodySnippetLimit bytes
// of the body for the error context; the caller still owns closing it.
func checkResponseStatus(resp *http.Response, req *http.Request, allowedStatusCodes ...int) error {
	if len(allowedStatusCodes) == 0 {
		allowedStatusCodes = []int{http.StatusOK}
	}

	if slices.Contains(allowedStatusCodes, resp.StatusCode) {
		return nil
	}

	// 5xx and 429 are transient from the caller's point of view, the rest
	// will not get better by retrying.
	errType := apperrors.ExecutionFailed
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		errType = apperrors.Unavailable
	}

	var bodySnippet string
	if resp.Body != nil {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, statusBodySnippetLimit))
		bodySnippet = string(data)
	}

	return &HTTPStatusError{
		StatusCode:  resp.StatusCode,
		Status:      resp.Status,
		URL:         redactURL(req.URL),
		Header:      redactHeaders(resp.Header),
		BodySnippet: bodySnippet,
		Cause:       apperrors.New(errType, "the server answered with an unexpected status code"),
	}
}
