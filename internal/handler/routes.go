package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"keymaster-proxy-go/internal/config"
	"keymaster-proxy-go/internal/metrics"
)

// RegisterRoutes wires all route handlers onto the Echo instance. The fixed
// operational routes are registered alongside the catch-alls; echo's route
// precedence keeps them out of the generic handler's path space.
func RegisterRoutes(e *echo.Echo, cfg *config.Config, m *metrics.Metrics, proxy *ProxyHandler, health *HealthHandler) {
	e.GET("/healthz", health.Healthz)
	e.GET("/proxy/status", health.Status)

	if cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}

	e.Any("/hf", proxy.HandleGated)
	e.Any("/hf/*", proxy.HandleGated)
	e.Any("/*", proxy.HandleGeneric)
}
