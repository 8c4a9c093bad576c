package fetcher

import (
	"errors"
	"io"
	"net/http"
)

const (
	// defaultMaxBytes is the body size limit applied when none is given (10MB).
	defaultMaxBytes = 10 * 1024 * 1024

	// NoLimit disables the body size limit entirely.
	NoLimit = -1
)

// maxBytesReader wraps http.MaxBytesReader to convert its error into the
// application error format.
type maxBytesReader struct {
	rc io.ReadCloser

	limit int64
}

func (r *maxBytesReader) Read(p []byte) (n int, err error) {
	n, err = r.rc.Read(p)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return n, NewErrResponseBodyTooLarge(r.limit)
		}
	}

	return n, err
}

func (r *maxBytesReader) Close() error {
	return r.rc.Close()
}

// MaxBytesFetcher bounds the size of response bodies.
//
// It rejects oversized responses twice: early, from the Content-Length
// header, and again while the body is actually read, which also covers
// responses with a missing or forged Content-Length.
type MaxBytesFetcher struct {
	delegate Fetcher

	limit int64
}

// NewMaxBytesFetcher wraps delegate with a body size limit. NoLimit
// returns the delegate unwrapped; zero and negative limits fall back to
// the default.
func NewMaxBytesFetcher(delegate Fetcher, limit int64) Fetcher {
	if limit == NoLimit {
		return delegate
	}
	if limit <= 0 {
		limit = defaultMaxBytes
	}

	return &MaxBytesFetcher{
		delegate: delegate,
		limit:    limit,
	}
}

// Do performs the request and installs the size-limited body reader.
// Reading past the limit surfaces as an error from Read, so the caller
// must still close the body as usual.
func (f *MaxBytesFetcher) Do(req *http.Request) (*http.Response, error) {
	resp, err := f.delegate.Do(req)
	if err != nil {
		if resp != nil {
			drainAndCloseBody(resp.Body)
		}

		return nil, err
	}

	// Early rejection saves downloading a body we would discard anyway.
	if resp.ContentLength > f.limit {
		if resp.Body != nil {
			drainAndCloseBody(resp.Body)
		}

		return nil, NewErrResponseBodyTooLargeByContentLength(resp.ContentLength, f.limit)
	}

	resp.Body = &maxBytesReader{
		rc:    http.MaxBytesReader(nil, resp.Body, f.limit),
		limit: f.limit,
	}

	return resp, nil
}
