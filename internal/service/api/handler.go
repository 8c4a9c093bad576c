package api

import (
	"net/http"

	"github.com/darkkaiser/resale-watcher/internal/pkg/version"
	"github.com/darkkaiser/resale-watcher/internal/service/contract"
	"github.com/darkkaiser/resale-watcher/internal/service/watcher"
	"github.com/labstack/echo/v4"
)

type handler struct {
	statsProvider StatsProvider
	healthChecker contract.NotificationHealthChecker
}

func newHandler(statsProvider StatsProvider, healthChecker contract.NotificationHealthChecker) *handler {
	return &handler{
		statsProvider: statsProvider,
		healthChecker: healthChecker,
	}
}

type healthzResponse struct {
	Status        string `json:"status"`
	Notifications string `json:"notifications"`
}

type statusResponse struct {
	Build   version.Info  `json:"build"`
	Watcher watcher.Stats `json:"watcher"`
}

// healthz reports liveness. A broken notification path degrades the
// response to 503 because the watcher is useless without deliveries.
func (h *handler) healthz(c echo.Context) error {
	resp := healthzResponse{Status: "ok", Notifications: "ok"}
	code := http.StatusOK

	if h.healthChecker != nil {
		if err := h.healthChecker.Health(); err != nil {
			resp.Status = "degraded"
			resp.Notifications = err.Error()
			code = http.StatusServiceUnavailable
		}
	}

	return c.JSON(code, resp)
}

// status reports the build info and the watcher counters.
func (h *handler) status(c echo.Context) error {
	return c.JSON(http.StatusOK, statusResponse{
		Build:   version.Get(),
		Watcher: h.statsProvider.Stats(),
	})
}
