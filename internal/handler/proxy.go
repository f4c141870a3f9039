package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"keymaster-proxy-go/internal/model"
	"keymaster-proxy-go/internal/service"
)

// ProxyHandler forwards API requests to the resolved upstream provider.
type ProxyHandler struct {
	service *service.ProxyService
	logger  *slog.Logger
}

// NewProxyHandler creates a ProxyHandler.
func NewProxyHandler(svc *service.ProxyService, logger *slog.Logger) *ProxyHandler {
	return &ProxyHandler{
		service: svc,
		logger:  logger.With("component", "proxy_handler"),
	}
}

// HandleGeneric serves the root catch-all route.
func (h *ProxyHandler) HandleGeneric(c echo.Context) error {
	return h.handle(c, h.service.DispatchGeneric)
}

// HandleGated serves the gated provider's prefixed route.
func (h *ProxyHandler) HandleGated(c echo.Context) error {
	return h.handle(c, h.service.DispatchGated)
}

func (h *ProxyHandler) handle(c echo.Context, dispatch func(*model.ProxyRequest) (*model.ProxyResponse, error)) error {
	req := c.Request()

	pr := &model.ProxyRequest{
		Ctx:      req.Context(),
		Method:   req.Method,
		Path:     req.URL.Path,
		RawQuery: req.URL.RawQuery,
		Header:   req.Header,
		Body:     req.Body,
	}

	resp, err := dispatch(pr)
	if err != nil {
		return h.mapError(c, err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Relay upstream headers unfiltered; the proxy is transparent.
	for key, vals := range resp.Header {
		for _, v := range vals {
			c.Response().Header().Add(key, v)
		}
	}

	c.Response().WriteHeader(resp.StatusCode)

	// Stream the upstream body directly to the client. If the copy fails
	// mid-stream (client disconnect, network error), the status code has
	// already been sent; the client sees a truncated response and the
	// error can only be logged.
	if _, err := io.Copy(c.Response(), resp.Body); err != nil {
		h.logger.Error("streaming response body",
			"err", err,
			"path", req.URL.Path,
		)
	}

	return nil
}

func (h *ProxyHandler) mapError(c echo.Context, err error) error {
	h.logger.Error("proxy error",
		"err", err,
		"path", c.Request().URL.Path,
	)

	if errors.Is(err, service.ErrAuthMissing) || errors.Is(err, service.ErrAuthMalformed) {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "authorization header required in the form '<scheme> <token>'",
		})
	}

	if errors.Is(err, service.ErrUnknownToken) {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "unrecognized token",
		})
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return c.JSON(http.StatusGatewayTimeout, map[string]string{
			"error": "upstream request timed out",
		})
	}

	if errors.Is(err, context.Canceled) {
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "client disconnected",
		})
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "upstream host unreachable",
		})
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "upstream connection failed",
		})
	}

	return c.JSON(http.StatusBadGateway, map[string]string{
		"error": "upstream request failed",
	})
}
