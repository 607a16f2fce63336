// ABOUTME: Configuration loading and parsing for cart-gateway
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete cart-gateway configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Assets  AssetsConfig  `yaml:"assets"`
	Carts   CartsConfig   `yaml:"carts"`
	MCP     MCPConfig     `yaml:"mcp"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds the HTTP listener configuration
type ServerConfig struct {
	HTTPAddr        string        `yaml:"http_addr"`
	ShutdownTimeout time.Duration `yaml:"-"`

	ShutdownTimeoutRaw string `yaml:"shutdown_timeout"`
}

// AssetsConfig points at the directory holding the built widget
type AssetsConfig struct {
	// Dir is the widget asset directory. Empty means auto-detect.
	Dir string `yaml:"dir"`
}

// CartsConfig holds cart store and REST session settings
type CartsConfig struct {
	Shards int `yaml:"shards"`
	// SessionCookie makes REST calls without a cartId stick to a cookie-backed default cart.
	SessionCookie bool   `yaml:"session_cookie"`
	CookieName    string `yaml:"cookie_name"`
}

// MCPConfig holds MCP handshake and session settings
type MCPConfig struct {
	ServerName      string        `yaml:"server_name"`
	ServerVersion   string        `yaml:"server_version"`
	ProtocolVersion string        `yaml:"protocol_version"`
	SessionTTL      time.Duration `yaml:"-"`
	MaxSessions     int           `yaml:"max_sessions"`

	SessionTTLRaw string `yaml:"session_ttl"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:        "0.0.0.0:8000",
			ShutdownTimeout: 5 * time.Second,
		},
		Carts: CartsConfig{
			Shards:     32,
			CookieName: "cart_session",
		},
		MCP: MCPConfig{
			ServerName:      "shopping-cart",
			ServerVersion:   "0.1.0",
			ProtocolVersion: "2024-11-05",
			SessionTTL:      30 * time.Minute,
			MaxSessions:     10_000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a configuration file from the given path and returns a parsed Config.
// A missing file yields the defaults. Environment variables in the format
// ${VAR_NAME} are expanded, then PORT and ASSETS_DIR override the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// defaults only
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		expandedData := expandEnvVars(string(data))
		if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyEnvOverrides applies PORT (keeping the configured host) and ASSETS_DIR.
func applyEnvOverrides(cfg *Config) {
	if port := os.Getenv("PORT"); port != "" {
		host, _, err := net.SplitHostPort(cfg.Server.HTTPAddr)
		if err != nil {
			host = "0.0.0.0"
		}
		cfg.Server.HTTPAddr = net.JoinHostPort(host, port)
	}
	if dir := os.Getenv("ASSETS_DIR"); dir != "" {
		cfg.Assets.Dir = dir
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}
	if _, _, err := net.SplitHostPort(c.Server.HTTPAddr); err != nil {
		return fmt.Errorf("server.http_addr %q is not host:port: %w", c.Server.HTTPAddr, err)
	}
	if c.Carts.Shards <= 0 {
		return fmt.Errorf("carts.shards must be positive, got %d", c.Carts.Shards)
	}
	if c.Carts.SessionCookie && c.Carts.CookieName == "" {
		return fmt.Errorf("carts.cookie_name is required when session_cookie is enabled")
	}
	if c.MCP.SessionTTL <= 0 {
		return fmt.Errorf("mcp.session_ttl must be positive")
	}
	if c.MCP.MaxSessions <= 0 {
		return fmt.Errorf("mcp.max_sessions must be positive, got %d", c.MCP.MaxSessions)
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Server.ShutdownTimeoutRaw != "" {
		cfg.Server.ShutdownTimeout, err = time.ParseDuration(cfg.Server.ShutdownTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing shutdown_timeout %q: %w", cfg.Server.ShutdownTimeoutRaw, err)
		}
	}

	if cfg.MCP.SessionTTLRaw != "" {
		cfg.MCP.SessionTTL, err = time.ParseDuration(cfg.MCP.SessionTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing session_ttl %q: %w", cfg.MCP.SessionTTLRaw, err)
		}
	}

	return nil
}

// DefaultYAML is the file written by `cart-gateway init`.
const DefaultYAML = `server:
  http_addr: "0.0.0.0:8000"
  shutdown_timeout: "5s"

assets:
  # Empty means ./assets, then ../assets, then "assets".
  dir: ""

carts:
  shards: 32
  session_cookie: false
  cookie_name: "cart_session"

mcp:
  server_name: "shopping-cart"
  server_version: "0.1.0"
  protocol_version: "2024-11-05"
  session_ttl: "30m"
  max_sessions: 10000

logging:
  level: "info"
  format: "text"
`
