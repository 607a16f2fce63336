// ABOUTME: Gateway orchestrator that assembles the cart HTTP surface
// ABOUTME: Wires the cart store, MCP endpoint, REST API, widget assets and health into one server

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/2389/cart-gateway/internal/cart"
	"github.com/2389/cart-gateway/internal/config"
	"github.com/2389/cart-gateway/internal/mcp"
	"github.com/2389/cart-gateway/internal/rest"
	"github.com/2389/cart-gateway/internal/session"
	"github.com/2389/cart-gateway/internal/widget"
)

// Gateway owns the shared cart store and the HTTP server in front of it.
type Gateway struct {
	config     *config.Config
	store      *cart.Store
	sessions   *session.Registry
	widget     *widget.Loader
	mcpServer  *mcp.Server
	httpServer *http.Server
	handler    http.Handler
	logger     *slog.Logger
}

// New creates a new Gateway instance with the given configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}

	store := cart.NewStore(cfg.Carts.Shards)
	sessions := session.New(cfg.MCP.SessionTTL, cfg.MCP.MaxSessions)

	workDir, err := os.Getwd()
	if err != nil {
		workDir = "."
	}
	assetsDir := widget.ResolveDir(cfg.Assets.Dir, workDir)
	loader := widget.NewDirLoader(assetsDir)

	mcpServer, err := mcp.NewServer(mcp.Config{
		Store:           store,
		Widget:          loader,
		Sessions:        sessions,
		Logger:          logger,
		ServerName:      cfg.MCP.ServerName,
		ServerVersion:   cfg.MCP.ServerVersion,
		ProtocolVersion: cfg.MCP.ProtocolVersion,
	})
	if err != nil {
		sessions.Close()
		return nil, fmt.Errorf("creating MCP server: %w", err)
	}

	restHandler, err := rest.NewHandler(rest.Config{
		Store:         store,
		Logger:        logger,
		SessionCookie: cfg.Carts.SessionCookie,
		CookieName:    cfg.Carts.CookieName,
	})
	if err != nil {
		sessions.Close()
		return nil, fmt.Errorf("creating REST handler: %w", err)
	}

	gw := &Gateway{
		config:    cfg,
		store:     store,
		sessions:  sessions,
		widget:    loader,
		mcpServer: mcpServer,
		logger:    logger.With("component", "gateway"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", gw.handleHealth)
	mux.Handle("GET /assets/", http.StripPrefix("/assets", loader.FileServer()))
	restHandler.RegisterRoutes(mux)
	mcpServer.RegisterRoutes(mux)

	gw.handler = logRequests(gw.logger, withCORS(mux))
	gw.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           gw.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return gw, nil
}

// Handler returns the fully wrapped HTTP handler.
func (g *Gateway) Handler() http.Handler {
	return g.handler
}

// Store returns the shared cart store.
func (g *Gateway) Store() *cart.Store {
	return g.store
}

// startServer starts the HTTP server in a goroutine, returning an error channel.
func (g *Gateway) startServer(ln net.Listener) chan error {
	errCh := make(chan error, 1)

	go func() {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := g.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	return errCh
}

// waitForShutdownSignal waits for context cancellation or server error.
func (g *Gateway) waitForShutdownSignal(ctx context.Context, errCh chan error) error {
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
		return nil
	case err := <-errCh:
		g.logger.Error("server error", "error", err)
		return err
	}
}

// Run listens on the configured address and blocks until the context is
// canceled. Returns nil on graceful shutdown, or an error if the server fails.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		g.closeComponents()
		return fmt.Errorf("listening on HTTP address: %w", err)
	}
	return g.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (g *Gateway) Serve(ctx context.Context, ln net.Listener) error {
	g.logger.Info("starting gateway",
		"http_addr", ln.Addr().String(),
		"assets_dir", g.widget.Dir(),
	)

	errCh := g.startServer(ln)
	serverErr := g.waitForShutdownSignal(ctx, errCh)

	shutdownErr := g.gracefulShutdown()

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// The caller's context is already canceled at this point.
func (g *Gateway) gracefulShutdown() error {
	timeout := g.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return g.Shutdown(ctx)
}

// Shutdown stops accepting requests, waits for in-flight ones and releases
// background resources.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway", "carts", g.store.Len())

	err := g.httpServer.Shutdown(ctx)
	g.closeComponents()

	if err != nil {
		return fmt.Errorf("HTTP shutdown: %w", err)
	}
	return nil
}

func (g *Gateway) closeComponents() {
	g.mcpServer.Close()
	g.sessions.Close()
}

// handleHealth returns 200 OK if the server is alive.
func (g *Gateway) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
