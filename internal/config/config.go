// Package config handles TOML configuration loading and validation.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// configSearchPaths lists paths checked in order when no explicit config is given.
var configSearchPaths = []string{
	"/etc/keymaster-proxy/config.toml",
	"configs/config.toml",
}

// Default upstream endpoints per provider.
const (
	DefaultOpenAIBaseURL      = "https://api.openai.com/v1/"
	DefaultCohereBaseURL      = "https://api.cohere.ai"
	DefaultHuggingFaceBaseURL = "https://huggingface.co"
)

// CLI holds command-line arguments parsed by Kong. The env bindings make
// environment variables take precedence over the config file, matching the
// documented resolution order (env > file > defaults).
type CLI struct {
	Config         string `kong:"short='c',help='Path to TOML config file.',env='CONFIG_PATH'"`
	Host           string `kong:"help='Listen host (overrides config).',env='HOST'"`
	Port           int    `kong:"short='p',help='Listen port (overrides config).',env='PORT'"`
	BaseURL        string `kong:"help='Advertised proxy base URL written to the env file (overrides config).',env='BASE_URL'"`
	OpenAIKey      string `kong:"help='OpenAI API key (overrides config).',env='OPENAI_API_KEY'"`
	CohereKey      string `kong:"help='Cohere API key (overrides config).',env='CO_API_KEY'"`
	HuggingFaceKey string `kong:"help='Hugging Face API key (overrides config).',env='HF_API_KEY'"`
	LogLevel       string `kong:"help='Log level: debug|info|warn|error (overrides config).',env='LOG_LEVEL'"`
}

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Proxy     ProxyConfig     `toml:"proxy"`
	Providers ProvidersConfig `toml:"providers"`
	Upstream  UpstreamConfig  `toml:"upstream"`
	Log       LogConfig       `toml:"log"`
	Metrics   MetricsConfig   `toml:"metrics"`

	filePath string // resolved config file path (unexported)
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string          `toml:"host"`
	Port         int             `toml:"port"` // 0 means "use default" (8000); TOML cannot distinguish 0 from unset
	BodyMaxBytes int64           `toml:"body_max_bytes"`
	RateLimit    RateLimitConfig `toml:"rate_limit"`
}

// RateLimitConfig controls per-IP request rate limiting.
type RateLimitConfig struct {
	Enabled           bool    `toml:"enabled"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// ProxyConfig holds settings for the proxy's own advertised endpoint.
type ProxyConfig struct {
	// BaseURL is the locally reachable URL clients are told to use; it is
	// what the generated env file points client tools at.
	BaseURL string `toml:"base_url"`
	// EnvFile is the path of the shell-sourceable export file written at startup.
	EnvFile string `toml:"env_file"`
}

// ProvidersConfig holds the credential slot for each supported upstream.
type ProvidersConfig struct {
	OpenAI      ProviderConfig `toml:"openai"`
	Cohere      ProviderConfig `toml:"cohere"`
	HuggingFace ProviderConfig `toml:"huggingface"`
}

// ProviderConfig holds one upstream's real credential and optional endpoint override.
type ProviderConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

// UpstreamConfig holds upstream connection settings shared by all providers.
type UpstreamConfig struct {
	TimeoutSeconds  int `toml:"timeout_seconds"`
	IdleConnections int `toml:"idle_connections"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Load reads the TOML config file and applies CLI overrides.
// When no explicit path is given (via --config or CONFIG_PATH), it searches
// /etc/keymaster-proxy/config.toml then configs/config.toml. A missing file
// is not an error (credentials may come entirely from the environment); a
// file that exists but cannot be read, parsed, or validated is fatal.
func Load(cli *CLI) (*Config, error) {
	var cfg Config

	path := cli.Config
	if path == "" {
		path = findConfig()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg.filePath = path
	}

	cfg.applyCLI(cli)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	cfg.setDefaults()
	return &cfg, nil
}

// applyCLI overrides config values with non-zero CLI flags.
func (c *Config) applyCLI(cli *CLI) {
	if cli.Host != "" {
		c.Server.Host = cli.Host
	}
	if cli.Port != 0 {
		c.Server.Port = cli.Port
	}
	if cli.BaseURL != "" {
		c.Proxy.BaseURL = cli.BaseURL
	}
	if cli.OpenAIKey != "" {
		c.Providers.OpenAI.APIKey = cli.OpenAIKey
	}
	if cli.CohereKey != "" {
		c.Providers.Cohere.APIKey = cli.CohereKey
	}
	if cli.HuggingFaceKey != "" {
		c.Providers.HuggingFace.APIKey = cli.HuggingFaceKey
	}
	if cli.LogLevel != "" {
		c.Log.Level = cli.LogLevel
	}
}

func (c *Config) validate() error {
	// Provider credential slots: empty means "not served", but placeholder
	// template values must not be mistaken for real keys.
	for name, p := range map[string]ProviderConfig{
		"openai":      c.Providers.OpenAI,
		"cohere":      c.Providers.Cohere,
		"huggingface": c.Providers.HuggingFace,
	} {
		if p.APIKey == "YOUR_API_KEY_HERE" {
			return fmt.Errorf("providers.%s.api_key contains placeholder value; set a real key or leave empty", name)
		}
		if p.BaseURL != "" {
			u, err := url.Parse(p.BaseURL)
			if err != nil {
				return fmt.Errorf("providers.%s.base_url is not a valid URL: %w", name, err)
			}
			if u.Scheme != "https" {
				return fmt.Errorf("providers.%s.base_url must use HTTPS; got %q", name, p.BaseURL)
			}
		}
	}

	if c.Proxy.BaseURL != "" {
		if _, err := url.Parse(c.Proxy.BaseURL); err != nil {
			return fmt.Errorf("proxy.base_url is not a valid URL: %w", err)
		}
	}

	// Numeric bounds.
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 0–65535; got %d", c.Server.Port)
	}
	if c.Server.BodyMaxBytes < 0 {
		return fmt.Errorf("server.body_max_bytes must be non-negative; got %d", c.Server.BodyMaxBytes)
	}
	if c.Upstream.TimeoutSeconds < 0 {
		return fmt.Errorf("upstream.timeout_seconds must be non-negative; got %d", c.Upstream.TimeoutSeconds)
	}
	if c.Upstream.IdleConnections < 0 {
		return fmt.Errorf("upstream.idle_connections must be non-negative; got %d", c.Upstream.IdleConnections)
	}
	if c.Server.RateLimit.Enabled && c.Server.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("server.rate_limit.requests_per_second must be > 0 when rate limiting is enabled; got %v", c.Server.RateLimit.RequestsPerSecond)
	}

	// Log fields.
	level := strings.ToLower(c.Log.Level)
	switch level {
	case "debug", "info", "warn", "error", "":
		// valid
	default:
		return fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", c.Log.Level)
	}
	format := strings.ToLower(c.Log.Format)
	switch format {
	case "json", "text", "":
		// valid
	default:
		return fmt.Errorf("log.format must be one of: json, text; got %q", c.Log.Format)
	}

	// Metrics path validation (only when metrics are enabled).
	if c.Metrics.Enabled && c.Metrics.Path != "" {
		p := c.Metrics.Path
		if p[0] != '/' {
			return fmt.Errorf("metrics.path must start with '/'; got %q", p)
		}
		for _, reserved := range []string{"/hf", "/healthz", "/proxy/status"} {
			if p == reserved || strings.HasPrefix(p, reserved+"/") {
				return fmt.Errorf("metrics.path %q conflicts with reserved route %q", p, reserved)
			}
		}
	}

	return nil
}

// setDefaults fills zero-valued fields with sensible defaults.
// For integer fields (Port, BodyMaxBytes, etc.), zero means "unset" because TOML
// cannot distinguish between an explicit 0 and an omitted key. Setting port=0 in
// the config file therefore results in the default port (8000).
func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.BodyMaxBytes == 0 {
		c.Server.BodyMaxBytes = 10 * 1024 * 1024 // 10 MB
	}
	if c.Proxy.BaseURL == "" {
		c.Proxy.BaseURL = "http://127.0.0.1:8000"
	}
	if c.Proxy.EnvFile == "" {
		c.Proxy.EnvFile = "generated-keys.env"
	}
	if c.Providers.OpenAI.BaseURL == "" {
		c.Providers.OpenAI.BaseURL = DefaultOpenAIBaseURL
	}
	if c.Providers.Cohere.BaseURL == "" {
		c.Providers.Cohere.BaseURL = DefaultCohereBaseURL
	}
	if c.Providers.HuggingFace.BaseURL == "" {
		c.Providers.HuggingFace.BaseURL = DefaultHuggingFaceBaseURL
	}
	if c.Upstream.TimeoutSeconds == 0 {
		c.Upstream.TimeoutSeconds = 120
	}
	if c.Upstream.IdleConnections == 0 {
		c.Upstream.IdleConnections = 100
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// findConfig returns the first config path that exists, or empty string.
func findConfig() string {
	return findConfigInPaths(configSearchPaths)
}

// findConfigInPaths returns the first path that exists on disk, or empty string.
func findConfigInPaths(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Addr returns the server listen address as host:port.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// WarnPermissions logs a warning if the config file is readable by group or others.
func (c *Config) WarnPermissions(logger *slog.Logger) {
	if c.filePath == "" {
		return
	}
	info, err := os.Stat(c.filePath)
	if err != nil {
		return
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		logger.Warn("config file is readable by group/others; consider chmod 600",
			"path", c.filePath,
			"mode", fmt.Sprintf("%04o", perm),
		)
	}
}
