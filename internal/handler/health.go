package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"keymaster-proxy-go/internal/config"
	"keymaster-proxy-go/internal/registry"
)

// Version is a string type for dependency injection of the build version.
type Version string

// HealthHandler serves health and status endpoints.
type HealthHandler struct {
	cfg      *config.Config
	registry *registry.ProviderRegistry
	version  Version
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(cfg *config.Config, reg *registry.ProviderRegistry, v Version) *HealthHandler {
	return &HealthHandler{cfg: cfg, registry: reg, version: v}
}

// Healthz returns a simple OK response for liveness probes.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Status returns proxy status information. Provider names are listed, never
// their credentials.
func (h *HealthHandler) Status(c echo.Context) error {
	routes := h.registry.Routes()
	providers := make([]string, 0, len(routes))
	for _, route := range routes {
		providers = append(providers, route.Provider)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":    "ok",
		"version":   string(h.version),
		"base_url":  h.cfg.Proxy.BaseURL,
		"providers": providers,
	})
}
