// Package service implements the core dispatch and forwarding logic.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"keymaster-proxy-go/internal/client"
	"keymaster-proxy-go/internal/model"
	"keymaster-proxy-go/internal/registry"
	"keymaster-proxy-go/internal/rewrite"
)

// Per-request dispatch errors, mapped to status codes by the handler.
var (
	// ErrAuthMissing is returned when a route requiring authorization gets none.
	ErrAuthMissing = errors.New("authorization header required")
	// ErrAuthMalformed is returned when the authorization header does not
	// split into exactly two space-separated fields.
	ErrAuthMalformed = errors.New("authorization header must be '<scheme> <token>'")
	// ErrUnknownToken is returned when the presented token resolves to no
	// route usable by the dispatching route family.
	ErrUnknownToken = errors.New("unrecognized token")
)

// ProxyService routes inbound requests to their upstream provider,
// substituting the real credential for the placeholder token.
type ProxyService struct {
	client   *client.UpstreamClient
	registry *registry.ProviderRegistry
	logger   *slog.Logger
}

// NewProxyService creates a ProxyService.
func NewProxyService(c *client.UpstreamClient, reg *registry.ProviderRegistry, logger *slog.Logger) *ProxyService {
	return &ProxyService{
		client:   c,
		registry: reg,
		logger:   logger.With("component", "proxy_service"),
	}
}

// DispatchGeneric serves the root catch-all: the placeholder token must
// resolve to a non-gated route, whose credential is then substituted.
// The caller is responsible for closing the response body.
func (s *ProxyService) DispatchGeneric(pr *model.ProxyRequest) (*model.ProxyResponse, error) {
	token, err := bearerToken(pr.Header)
	if err != nil {
		return nil, err
	}

	route, ok := s.registry.Resolve(token)
	if !ok || route.Gated {
		// Gated tokens are only honored under their own path prefix.
		return nil, ErrUnknownToken
	}

	return s.forward(pr, route.BaseURL, route.Credential, route.StripPrefix)
}

// DispatchGated serves the gated provider's prefix. Without an authorization
// header the request is proxied anonymously to the public upstream; with one,
// the token must be the gated provider's own placeholder. The prefix is
// stripped in both modes. The caller is responsible for closing the response
// body.
func (s *ProxyService) DispatchGated(pr *model.ProxyRequest) (*model.ProxyResponse, error) {
	gated := s.registry.Gated()

	if len(pr.Header.Values("Authorization")) == 0 {
		return s.forward(pr, gated.BaseURL, "", gated.StripPrefix)
	}

	token, err := bearerToken(pr.Header)
	if err != nil {
		return nil, err
	}

	route, ok := s.registry.Resolve(token)
	if !ok || route != gated {
		// A token valid for another provider is still rejected here.
		return nil, ErrUnknownToken
	}

	return s.forward(pr, route.BaseURL, route.Credential, route.StripPrefix)
}

// forward rewrites pr against the upstream and streams the call.
func (s *ProxyService) forward(pr *model.ProxyRequest, base *url.URL, credential, stripPrefix string) (*model.ProxyResponse, error) {
	out := rewrite.Rewrite(pr, base, credential, stripPrefix)

	s.logger.Debug("forwarding request",
		"method", pr.Method,
		"path", pr.Path,
		"upstream", base.Host,
	)

	resp, err := s.client.DoStream(out)
	if err != nil {
		return nil, fmt.Errorf("forward to upstream: %w", err)
	}
	return resp, nil
}

// bearerToken extracts the placeholder token from the authorization header.
// The value must split on a single space into exactly a scheme and a token;
// the scheme itself is not checked.
func bearerToken(h http.Header) (string, error) {
	vals := h.Values("Authorization")
	if len(vals) == 0 {
		return "", ErrAuthMissing
	}
	parts := strings.Split(vals[0], " ")
	if len(parts) != 2 {
		return "", ErrAuthMalformed
	}
	return parts[1], nil
}
