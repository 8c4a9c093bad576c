package api

import (
	"net/http"
	"time"

	appmiddleware "github.com/darkkaiser/resale-watcher/internal/service/api/middleware"
	applog "github.com/darkkaiser/resale-watcher/pkg/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

const (
	defaultReadTimeout       = 10 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second

	// defaultMaxBodySize caps request bodies. The API only serves GETs,
	// anything larger is abuse.
	defaultMaxBodySize = "64K"
)

// HTTPServerConfig carries the knobs for the status server.
type HTTPServerConfig struct {
	Debug bool

	// RateLimit is the allowed requests per second per client IP. Zero
	// disables rate limiting.
	RateLimit float64
}

// NewHTTPServer builds an Echo instance with the middleware chain applied.
// Routes are registered separately.
func NewHTTPServer(cfg HTTPServerConfig) *echo.Echo {
	e := echo.New()

	e.Debug = cfg.Debug
	e.HideBanner = true
	e.HidePort = true
	e.Logger = appmiddleware.Logger{Logger: applog.StandardLogger()}

	e.Server.ReadTimeout = defaultReadTimeout
	e.Server.ReadHeaderTimeout = defaultReadHeaderTimeout
	e.Server.WriteTimeout = defaultWriteTimeout
	e.Server.IdleTimeout = defaultIdleTimeout

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	// The Server header leaks the stack, drop it.
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set(echo.HeaderServer, "")
			return next(c)
		}
	})

	if cfg.RateLimit > 0 {
		e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.RateLimit))))
	}

	e.Use(middleware.BodyLimit(defaultMaxBodySize))
	e.Use(middleware.Secure())

	return e
}

// SetupRoutes registers the status endpoints.
func SetupRoutes(e *echo.Echo, h *handler) {
	e.GET("/healthz", h.healthz)
	e.GET("/api/v1/status", h.status)

	e.RouteNotFound("/*", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "the requested resource was not found")
	})
}
