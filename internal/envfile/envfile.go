// Package envfile renders the shell-sourceable export file that points
// client tools at the proxy with their placeholder tokens.
package envfile

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"keymaster-proxy-go/internal/model"
	"keymaster-proxy-go/internal/registry"
)

// exportVars maps a registered route to the environment variables its client
// SDK reads: the endpoint variable pointing at the proxy and the key variable
// holding the placeholder token.
func exportVars(baseURL string, route *model.Route) [][2]string {
	switch route.Provider {
	case "openai":
		return [][2]string{
			{"OPENAI_BASE_URL", baseURL},
			{"OPENAI_API_KEY", route.Token},
		}
	case "cohere":
		return [][2]string{
			{"CO_API_URL", baseURL},
			{"CO_API_KEY", route.Token},
		}
	case "huggingface":
		return [][2]string{
			{"HF_ENDPOINT", baseURL + route.StripPrefix},
			{"HF_API_KEY", route.Token},
		}
	}
	return nil
}

// Render produces the export lines for every registered provider.
func Render(baseURL string, reg *registry.ProviderRegistry) string {
	var b strings.Builder
	for _, route := range reg.Routes() {
		for _, kv := range exportVars(baseURL, route) {
			fmt.Fprintf(&b, "export %s=%q\n", kv[0], kv[1])
		}
	}
	return b.String()
}

// Write renders the env file to path with owner-only permissions.
func Write(path, baseURL string, reg *registry.ProviderRegistry, logger *slog.Logger) error {
	if err := os.WriteFile(path, []byte(Render(baseURL, reg)), 0o600); err != nil {
		return fmt.Errorf("envfile: write %s: %w", path, err)
	}
	logger.Info("wrote env file; run `source "+path+"` to configure client tools",
		"path", path,
		"providers", len(reg.Routes()),
	)
	return nil
}
