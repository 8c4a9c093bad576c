package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/darkkaiser/resale-watcher/internal/service/contract"
	"github.com/darkkaiser/resale-watcher/internal/service/watcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStatsProvider struct {
	stats watcher.Stats
}

func (f *fakeStatsProvider) Stats() watcher.Stats {
	return f.stats
}

type fakeHealthChecker struct {
	err error
}

func (f *fakeHealthChecker) Health() error {
	return f.err
}

func newTestServer(stats watcher.Stats, health error) *httptest.Server {
	e := NewHTTPServer(HTTPServerConfig{})
	SetupRoutes(e, newHandler(&fakeStatsProvider{stats: stats}, &fakeHealthChecker{err: health}))

	return httptest.NewServer(e)
}

func TestHandler_Healthz(t *testing.T) {
	t.Parallel()

	t.Run("Healthy", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(watcher.Stats{}, nil)
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body healthzResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "ok", body.Status)
		assert.Equal(t, "ok", body.Notifications)
	})

	t.Run("DegradedWhenNotificationsAreDown", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(watcher.Stats{}, contract.ErrServiceStopped)
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body healthzResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "degraded", body.Status)
	})
}

func TestHandler_Status(t *testing.T) {
	t.Parallel()

	srv := newTestServer(watcher.Stats{
		Cycles:         12,
		NotifiedOffers: 4,
		SeenOffers:     9,
	}, nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body statusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, uint64(12), body.Watcher.Cycles)
	assert.Equal(t, uint64(4), body.Watcher.NotifiedOffers)
	assert.Equal(t, 9, body.Watcher.SeenOffers)
	assert.NotEmpty(t, body.Build.GoVersion)
}

func TestSetupRoutes_NotFound(t *testing.T) {
	t.Parallel()

	srv := newTestServer(watcher.Stats{}, nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNewHTTPServer_RateLimiting(t *testing.T) {
	t.Parallel()

	e := NewHTTPServer(HTTPServerConfig{RateLimit: 1})
	SetupRoutes(e, newHandler(&fakeStatsProvider{}, nil))

	srv := httptest.NewServer(e)
	defer srv.Close()

	// The store allows a small burst, hammering the endpoint must
	// eventually produce a 429.
	var limited bool
	for range 50 {
		resp, err := http.Get(srv.URL + "/healthz")
		require.NoError(t, err)
		resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			limited = true
			break
		}
	}

	assert.True(t, limited)
}
