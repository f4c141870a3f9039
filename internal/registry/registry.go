// Package registry builds the read-only placeholder-token → route table.
package registry

import (
	"fmt"
	"net/url"

	"keymaster-proxy-go/internal/config"
	"keymaster-proxy-go/internal/model"
)

// Placeholder tokens clients present instead of real provider keys.
const (
	TokenOpenAI      = "openai"
	TokenCohere      = "cohere"
	TokenHuggingFace = "hugging_face"
)

// providerDef describes one supported upstream. Adding a provider is a data
// change: one row here plus its slot in config.ProvidersConfig.
type providerDef struct {
	name        string
	token       string
	stripPrefix string
	gated       bool
	slot        func(*config.Config) config.ProviderConfig
}

var providerDefs = []providerDef{
	{
		name:  "openai",
		token: TokenOpenAI,
		slot:  func(c *config.Config) config.ProviderConfig { return c.Providers.OpenAI },
	},
	{
		name:  "cohere",
		token: TokenCohere,
		slot:  func(c *config.Config) config.ProviderConfig { return c.Providers.Cohere },
	},
	{
		name:        "huggingface",
		token:       TokenHuggingFace,
		stripPrefix: "/hf",
		gated:       true,
		slot:        func(c *config.Config) config.ProviderConfig { return c.Providers.HuggingFace },
	},
}

// ProviderRegistry maps placeholder tokens to routes. It is built once at
// startup and never mutated afterwards.
type ProviderRegistry struct {
	routes map[string]*model.Route
	gated  *model.Route
}

// New builds a ProviderRegistry from resolved configuration. Providers with
// an empty credential slot are not registered; their tokens do not resolve.
// The gated provider's upstream is retained either way so the anonymous
// pass-through works without a configured key.
func New(cfg *config.Config) (*ProviderRegistry, error) {
	r := &ProviderRegistry{routes: make(map[string]*model.Route)}

	for _, def := range providerDefs {
		slot := def.slot(cfg)
		base, err := url.Parse(slot.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("registry: parse %s base URL: %w", def.name, err)
		}

		route := &model.Route{
			Provider:    def.name,
			Token:       def.token,
			BaseURL:     base,
			Credential:  slot.APIKey,
			StripPrefix: def.stripPrefix,
			Gated:       def.gated,
		}

		if def.gated {
			r.gated = route
		}
		if slot.APIKey != "" {
			r.routes[def.token] = route
		}
	}

	return r, nil
}

// Resolve returns the route whose placeholder token equals token exactly.
// There is no normalization and no partial matching.
func (r *ProviderRegistry) Resolve(token string) (*model.Route, bool) {
	route, ok := r.routes[token]
	return route, ok
}

// Gated returns the gated provider's route. Its Credential is empty when no
// key is configured; callers must not inject an authorization header then.
func (r *ProviderRegistry) Gated() *model.Route {
	return r.gated
}

// Routes returns all registered routes in provider definition order.
func (r *ProviderRegistry) Routes() []*model.Route {
	out := make([]*model.Route, 0, len(r.routes))
	for _, def := range providerDefs {
		if route, ok := r.routes[def.token]; ok {
			out = append(out, route)
		}
	}
	return out
}
