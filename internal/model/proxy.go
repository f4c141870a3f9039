// Package model defines shared types for the proxy.
package model

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

// ProxyRequest represents a client request to be forwarded upstream.
// RawQuery keeps the original encoded query string so it reaches the
// upstream byte-for-byte, without a decode/re-encode round trip.
type ProxyRequest struct {
	Ctx      context.Context
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     io.ReadCloser
}

// OutboundRequest is the fully rewritten request descriptor handed to the
// upstream client. Host is carried separately because net/http ignores a
// Host key in Request.Header on outbound requests.
type OutboundRequest struct {
	Ctx    context.Context
	Method string
	URL    string
	Host   string
	Header http.Header
	Body   io.Reader
}

// ProxyResponse represents the upstream response to be streamed back.
type ProxyResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// Route binds a placeholder token to an upstream and its real credential.
// Routes are built once at startup and never mutated.
type Route struct {
	// Provider is the registry name of the upstream (e.g. "openai").
	Provider string
	// Token is the placeholder value clients present instead of a real key.
	Token string
	// BaseURL is the upstream base; its path is prepended to forwarded paths.
	BaseURL *url.URL
	// Credential is the real secret substituted into the outbound
	// authorization header.
	Credential string
	// StripPrefix, when non-empty, is removed from the inbound path before
	// forwarding.
	StripPrefix string
	// Gated marks routes served only under their own path prefix; the
	// generic catch-all refuses their tokens.
	Gated bool
}
