// ABOUTME: Entry point for the cart-gateway server
// ABOUTME: Serves shopping carts over MCP and REST; also writes default config and probes health

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/2389/cart-gateway/internal/config"
	"github.com/2389/cart-gateway/internal/gateway"
)

// Version is set at build time.
var version = "dev"

const banner = `
                 _                    _
  ___ __ _ _ __| |_      __ _  __ _| |_ _____      ____ _ _   _
 / __/ _' | '__| __|____/ _' |/ _' | __/ _ \ \ /\ / / _' | | | |
| (_| (_| | |  | ||_____| (_| | (_| | ||  __/\ V  V / (_| | |_| |
 \___\__,_|_|   \__|     \__, |\__,_|\__\___| \_/\_/ \__,_|\__, |
                         |___/                             |___/
`

// getConfigPath returns the path to the gateway config file.
// Priority: CART_GATEWAY_CONFIG env var > XDG_CONFIG_HOME/cart-gateway/config.yaml > ~/.config/cart-gateway/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("CART_GATEWAY_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml"
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "cart-gateway", "config.yaml")
}

func usage() {
	fmt.Println("Usage: cart-gateway <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve    Start the cart server")
	fmt.Println("  init     Write a default config file")
	fmt.Println("  health   Check server health")
}

func main() {
	cmd := "serve"
	if len(os.Args) >= 2 {
		cmd = os.Args[1]
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch cmd {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit(getConfigPath())
	case "health":
		err = runHealth(ctx)
	case "help", "-h", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("MCP:       http://%s/mcp\n", dialAddr(cfg.Server.HTTPAddr))
	if cfg.Carts.SessionCookie {
		green.Print("    ▶ ")
		fmt.Printf("Sessions:  cookie %q\n", cfg.Carts.CookieName)
	}
	fmt.Println()

	logger.Info("starting cart-gateway",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"version", version,
	)

	gw, err := gateway.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}

	return gw.Run(ctx)
}

// runInit writes the default config to path. An existing file is never
// overwritten.
func runInit(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config already exists at %s", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking config path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	if _, err := f.WriteString(config.DefaultYAML); err != nil {
		f.Close()
		return fmt.Errorf("writing config file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	color.New(color.FgGreen).Print("✓ ")
	fmt.Printf("Wrote %s\n", path)
	return nil
}

func runHealth(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := checkHealth(ctx, "http://"+dialAddr(cfg.Server.HTTPAddr)+"/health"); err != nil {
		return err
	}

	fmt.Println("healthy")
	return nil
}

// checkHealth GETs url and fails unless it answers 200.
func checkHealth(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// dialAddr turns a listen address into one a local client can dial.
func dialAddr(listenAddr string) string {
	host, port, err := net.SplitHostPort(listenAddr)
	if err != nil {
		return listenAddr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}
