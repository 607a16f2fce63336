// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, defaults, env var expansion, overrides, and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: "127.0.0.1:9000"
  shutdown_timeout: "10s"

assets:
  dir: "/srv/assets"

carts:
  shards: 8
  session_cookie: true
  cookie_name: "sid"

mcp:
  server_name: "cart-test"
  server_version: "9.9.9"
  protocol_version: "2025-03-26"
  session_ttl: "5m"
  max_sessions: 50

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "127.0.0.1:9000" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "127.0.0.1:9000")
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v, want %v", cfg.Server.ShutdownTimeout, 10*time.Second)
	}
	if cfg.Assets.Dir != "/srv/assets" {
		t.Errorf("Assets.Dir = %q, want %q", cfg.Assets.Dir, "/srv/assets")
	}
	if cfg.Carts.Shards != 8 {
		t.Errorf("Carts.Shards = %d, want 8", cfg.Carts.Shards)
	}
	if !cfg.Carts.SessionCookie {
		t.Error("Carts.SessionCookie = false, want true")
	}
	if cfg.Carts.CookieName != "sid" {
		t.Errorf("Carts.CookieName = %q, want %q", cfg.Carts.CookieName, "sid")
	}
	if cfg.MCP.ServerName != "cart-test" {
		t.Errorf("MCP.ServerName = %q, want %q", cfg.MCP.ServerName, "cart-test")
	}
	if cfg.MCP.ProtocolVersion != "2025-03-26" {
		t.Errorf("MCP.ProtocolVersion = %q, want %q", cfg.MCP.ProtocolVersion, "2025-03-26")
	}
	if cfg.MCP.SessionTTL != 5*time.Minute {
		t.Errorf("MCP.SessionTTL = %v, want %v", cfg.MCP.SessionTTL, 5*time.Minute)
	}
	if cfg.MCP.MaxSessions != 50 {
		t.Errorf("MCP.MaxSessions = %d, want 50", cfg.MCP.MaxSessions)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want debug/json", cfg.Logging)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	def := Default()
	if cfg.Server.HTTPAddr != def.Server.HTTPAddr {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, def.Server.HTTPAddr)
	}
	if cfg.Carts.Shards != def.Carts.Shards {
		t.Errorf("Carts.Shards = %d, want %d", cfg.Carts.Shards, def.Carts.Shards)
	}
	if cfg.MCP.SessionTTL != 30*time.Minute {
		t.Errorf("MCP.SessionTTL = %v, want 30m", cfg.MCP.SessionTTL)
	}
	if cfg.MCP.ServerName != "shopping-cart" {
		t.Errorf("MCP.ServerName = %q, want shopping-cart", cfg.MCP.ServerName)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: "warn"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
	if cfg.Server.HTTPAddr != "0.0.0.0:8000" {
		t.Errorf("Server.HTTPAddr = %q, want default", cfg.Server.HTTPAddr)
	}
	if cfg.Server.ShutdownTimeout != 5*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v, want 5s", cfg.Server.ShutdownTimeout)
	}
}

func TestLoad_DefaultYAMLParses(t *testing.T) {
	cfg, err := Load(writeConfig(t, DefaultYAML))
	if err != nil {
		t.Fatalf("Load(DefaultYAML) error = %v", err)
	}
	if cfg.MCP.MaxSessions != 10000 {
		t.Errorf("MCP.MaxSessions = %d, want 10000", cfg.MCP.MaxSessions)
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_CART_NAME", "from-env")

	cfg, err := Load(writeConfig(t, `
mcp:
  server_name: "${TEST_CART_NAME}"
`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MCP.ServerName != "from-env" {
		t.Errorf("MCP.ServerName = %q, want from-env", cfg.MCP.ServerName)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9123")
	t.Setenv("ASSETS_DIR", "/tmp/widgets")

	cfg, err := Load(writeConfig(t, `
server:
  http_addr: "127.0.0.1:8000"
assets:
  dir: "/ignored"
`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.HTTPAddr != "127.0.0.1:9123" {
		t.Errorf("Server.HTTPAddr = %q, want 127.0.0.1:9123", cfg.Server.HTTPAddr)
	}
	if cfg.Assets.Dir != "/tmp/widgets" {
		t.Errorf("Assets.Dir = %q, want /tmp/widgets", cfg.Assets.Dir)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unclosed"))
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "parsing config file") {
		t.Errorf("error = %v, want parsing config file", err)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	_, err := Load(writeConfig(t, `
mcp:
  session_ttl: "forever"
`))
	if err == nil {
		t.Fatal("expected error for invalid duration")
	}
	if !strings.Contains(err.Error(), "session_ttl") {
		t.Errorf("error = %v, want mention of session_ttl", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"empty addr", func(c *Config) { c.Server.HTTPAddr = "" }, "server.http_addr is required"},
		{"addr without port", func(c *Config) { c.Server.HTTPAddr = "localhost" }, "not host:port"},
		{"zero shards", func(c *Config) { c.Carts.Shards = 0 }, "carts.shards"},
		{"cookie without name", func(c *Config) {
			c.Carts.SessionCookie = true
			c.Carts.CookieName = ""
		}, "cookie_name"},
		{"zero ttl", func(c *Config) { c.MCP.SessionTTL = 0 }, "session_ttl"},
		{"zero max sessions", func(c *Config) { c.MCP.MaxSessions = 0 }, "max_sessions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
