package fetcher

import (
	"context"
	"io"
	"net/http"

	apperrors "github.com/darkkaiser/resale-watcher/internal/pkg/errors"
)

// component names this package in log records.
const component = "watcher.fetcher"

// Fetcher is the core HTTP execution interface.
//
// Implementations are middlewares composed with the decorator pattern:
// retry, logging, User-Agent injection and response validation each wrap
// an inner Fetcher and delegate to it.
//
// Implementation notes:
//   - The caller must close the Body of a returned response.
//   - A non-nil response may accompany a non-nil error.
//   - Context cancellation must abort the request promptly.
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
}

// Get sends an HTTP GET request to the given URL through f. The header map
// is applied to the request before it is sent; a nil map is allowed.
//
// On error the response body has already been consumed and closed.
func Get(ctx context.Context, f Fetcher, url string, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := f.Do(req)
	if err != nil {
		if resp != nil {
			drainAndCloseBody(resp.Body)
		}

		return nil, err
	}

	return resp, nil
}

// FetchBytes performs a GET request and returns the full response body.
// The body size is bounded by the MaxBytesFetcher in the chain, so reading
// it fully here is safe.
func FetchBytes(ctx context.Context, f Fetcher, url string, header http.Header) ([]byte, error) {
	resp, err := Get(ctx, f, url, header)
	if err != nil {
		return nil, err
	}
	defer drainAndCloseBody(resp.Body)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ExecutionFailed, "failed to read the HTTP response body")
	}

	return data, nil
}

// drainAndCloseBody empties and closes a response body so the underlying
// connection can be reused. Reading is capped to avoid downloading huge
// error pages just to discard them.
func drainAndCloseBody(body io.ReadCloser) {
	if body == nil {
		return
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64*1024))
	_ = body.Close()
}
