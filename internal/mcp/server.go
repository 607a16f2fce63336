// ABOUTME: MCP-compatible HTTP server exposing the shopping cart tools and widget.
// ABOUTME: Dispatches JSON-RPC methods, serves the SSE endpoint handshake and manages sessions.

package mcp

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/2389/cart-gateway/internal/cart"
	"github.com/2389/cart-gateway/internal/session"
)

// DefaultProtocolVersion is advertised when no version is configured.
const DefaultProtocolVersion = "2024-11-05"

// SessionHeader carries the MCP session id.
const SessionHeader = "Mcp-Session-Id"

// sseEndpointEvent advertises the POST endpoint to clients that open GET /mcp.
const sseEndpointEvent = "event: endpoint\ndata: /mcp\n\n"

// WidgetSource loads the widget HTML served by resources/read.
type WidgetSource interface {
	LoadHTML() (string, error)
}

// Config holds configuration for the MCP server.
type Config struct {
	Store  *cart.Store
	Widget WidgetSource
	// Sessions is optional; when nil the server owns a registry and closes it in Close.
	Sessions *session.Registry
	Logger   *slog.Logger

	ServerName      string
	ServerVersion   string
	ProtocolVersion string
}

// Server implements the MCP endpoint for the shopping cart.
type Server struct {
	tools        *Tools
	widget       WidgetSource
	sessions     *session.Registry
	ownsSessions bool
	logger       *slog.Logger
	info         ServerInfo
	protocol     string
}

// ServerInfo is reported by initialize.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeResult is the initialize handshake result.
type InitializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	Capabilities    Capabilities `json:"capabilities"`
	ServerInfo      ServerInfo   `json:"serverInfo"`
}

// Capabilities advertises what the server supports.
type Capabilities struct {
	Tools     ToolsCapability     `json:"tools"`
	Resources ResourcesCapability `json:"resources"`
}

// ToolsCapability describes tool support.
type ToolsCapability struct {
	ListChanged bool `json:"listChanged"`
}

// ResourcesCapability describes resource support.
type ResourcesCapability struct {
	ListChanged bool `json:"listChanged"`
	Subscribe   bool `json:"subscribe"`
}

// ListToolsResult is the result for tools/list.
type ListToolsResult struct {
	Tools []ToolInfo `json:"tools"`
	Meta  Meta       `json:"_meta"`
}

// ResourceInfo is a resources/list entry.
type ResourceInfo struct {
	Name     string `json:"name"`
	URI      string `json:"uri"`
	MIMEType string `json:"mimeType"`
	Meta     Meta   `json:"_meta"`
}

// ListResourcesResult is the result for resources/list.
type ListResourcesResult struct {
	Resources []ResourceInfo `json:"resources"`
	Meta      Meta           `json:"_meta"`
}

// ListResourceTemplatesResult is the result for resources/templates/list.
type ListResourceTemplatesResult struct {
	ResourceTemplates []any `json:"resourceTemplates"`
}

// ResourceContents is one entry of a resources/read result.
type ResourceContents struct {
	URI      string `json:"uri"`
	MIMEType string `json:"mimeType"`
	Text     string `json:"text"`
	Meta     Meta   `json:"_meta"`
}

// ReadResourceResult is the result for resources/read.
type ReadResourceResult struct {
	Contents []ResourceContents `json:"contents"`
	Meta     Meta               `json:"_meta"`
}

// CallToolParams are the params for tools/call.
type CallToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

type readResourceParams struct {
	URI string `json:"uri"`
}

// NewServer creates a new MCP server with the given configuration.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("cart store is required")
	}
	if cfg.Widget == nil {
		return nil, errors.New("widget source is required")
	}

	tools, err := NewTools(cfg.Store)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		tools:    tools,
		widget:   cfg.Widget,
		sessions: cfg.Sessions,
		logger:   logger.With("component", "mcp"),
		info: ServerInfo{
			Name:    valueOr(cfg.ServerName, "shopping-cart"),
			Version: valueOr(cfg.ServerVersion, "0.1.0"),
		},
		protocol: valueOr(cfg.ProtocolVersion, DefaultProtocolVersion),
	}
	if s.sessions == nil {
		s.sessions = session.New(30*time.Minute, 10_000)
		s.ownsSessions = true
	}
	return s, nil
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// Close releases resources owned by the server.
func (s *Server) Close() {
	if s.ownsSessions {
		s.sessions.Close()
	}
}

// RegisterRoutes registers the MCP endpoint on the given ServeMux: /mcp, /mcp/
// and the bare root path.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/mcp", s.handleMCP)
	mux.HandleFunc("/mcp/{$}", s.handleMCP)
	mux.HandleFunc("/{$}", s.handleMCP)
}

// Handler returns the MCP endpoint as a plain handler.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.handleMCP)
}

func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handlePost(w, r)
	case http.MethodGet:
		s.handleSSE(w, r)
	case http.MethodDelete:
		s.handleDelete(w, r)
	case http.MethodOptions:
		w.Header().Set("Allow", "POST, GET, DELETE, OPTIONS")
		w.WriteHeader(http.StatusNoContent)
	default:
		w.Header().Set("Allow", "POST, GET, DELETE, OPTIONS")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

// handleSSE answers the GET handshake with a single endpoint event.
func (s *Server) handleSSE(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := io.WriteString(w, sseEndpointEvent); err != nil {
		s.logger.Debug("failed to write SSE endpoint event", "error", err)
	}
}

// handleDelete terminates a session.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(SessionHeader)
	if sessionID == "" {
		http.Error(w, "Bad Request: missing Mcp-Session-Id", http.StatusBadRequest)
		return
	}

	if !s.sessions.Delete(sessionID) {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	s.logger.Info("MCP session terminated", "session_id", sessionID)
	w.WriteHeader(http.StatusNoContent)
}

// handlePost processes JSON-RPC messages sent via HTTP POST.
func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize+1))
	if err != nil {
		s.logger.Warn("failed to read MCP request body", "error", err)
		s.sendJSONRPCError(w, http.StatusBadRequest, nil, JSONRPCParseError, "Parse error")
		return
	}
	if int64(len(body)) > MaxRequestBodySize {
		s.logger.Warn("MCP request body too large", "limit", MaxRequestBodySize)
		s.sendJSONRPCError(w, http.StatusBadRequest, nil, JSONRPCParseError, "Parse error")
		return
	}

	var req JSONRPCRequest
	if err := json.Unmarshal(body, &req); err != nil || req.Method == "" {
		s.logger.Warn("malformed MCP request", "error", err)
		s.sendJSONRPCError(w, http.StatusBadRequest, nil, JSONRPCParseError, "Parse error")
		return
	}

	sessionID := r.Header.Get(SessionHeader)
	if sessionID != "" {
		s.sessions.Touch(sessionID)
	}

	s.logger.Debug("MCP request",
		"method", req.Method,
		"id", string(responseID(req.ID)),
		"session_id", sessionID,
	)

	result, rpcErr := s.dispatch(w, req)
	if rpcErr != nil {
		s.sendJSONRPCError(w, http.StatusOK, req.ID, rpcErr.Code, rpcErr.Message)
		return
	}
	s.sendJSONRPCResult(w, req.ID, result)
}

// dispatch routes a request by method name.
func (s *Server) dispatch(w http.ResponseWriter, req JSONRPCRequest) (any, *JSONRPCError) {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(w), nil
	case "notifications/initialized", "ping":
		return struct{}{}, nil
	case "tools/list":
		return ListToolsResult{Tools: s.tools.List(), Meta: widgetMeta("")}, nil
	case "resources/list":
		return s.handleResourcesList(), nil
	case "resources/templates/list":
		return ListResourceTemplatesResult{ResourceTemplates: []any{}}, nil
	case "resources/read":
		return s.handleResourcesRead(req.Params)
	case "tools/call":
		return s.handleToolsCall(req.Params)
	default:
		s.logger.Warn("unknown MCP method", "method", req.Method)
		return nil, &JSONRPCError{Code: JSONRPCMethodNotFound, Message: "Method not found"}
	}
}

// handleInitialize performs the handshake and opens a session.
func (s *Server) handleInitialize(w http.ResponseWriter) InitializeResult {
	sess := s.sessions.Create(s.protocol)
	w.Header().Set(SessionHeader, sess.ID)

	s.logger.Info("MCP session created",
		"session_id", sess.ID,
		"protocol_version", sess.ProtocolVersion,
	)

	return InitializeResult{
		ProtocolVersion: s.protocol,
		Capabilities: Capabilities{
			Tools:     ToolsCapability{ListChanged: true},
			Resources: ResourcesCapability{ListChanged: true, Subscribe: true},
		},
		ServerInfo: s.info,
	}
}

func (s *Server) handleResourcesList() ListResourcesResult {
	return ListResourcesResult{
		Resources: []ResourceInfo{{
			Name:     WidgetName,
			URI:      WidgetURI,
			MIMEType: WidgetMIMEType,
			Meta:     widgetMeta(""),
		}},
		Meta: widgetMeta(""),
	}
}

// handleResourcesRead returns the widget HTML. A failed read degrades to an
// empty document.
func (s *Server) handleResourcesRead(raw json.RawMessage) (any, *JSONRPCError) {
	var params readResourceParams
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, &JSONRPCError{Code: JSONRPCInvalidParams, Message: "Invalid params"}
		}
	}

	if params.URI != "" && params.URI != WidgetURI {
		s.logger.Warn("unknown resource requested", "uri", params.URI)
		return ReadResourceResult{
			Contents: []ResourceContents{},
			Meta:     Meta{"error": "Unknown resource: " + params.URI},
		}, nil
	}

	html, err := s.widget.LoadHTML()
	if err != nil {
		s.logger.Warn("failed to load widget HTML", "error", err)
		html = ""
	}

	return ReadResourceResult{
		Contents: []ResourceContents{{
			URI:      WidgetURI,
			MIMEType: WidgetMIMEType,
			Text:     html,
			Meta:     widgetMeta(""),
		}},
		Meta: widgetMeta(""),
	}, nil
}

// handleToolsCall runs a tool and logs checkout receipts.
func (s *Server) handleToolsCall(raw json.RawMessage) (any, *JSONRPCError) {
	var params CallToolParams
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, &JSONRPCError{Code: JSONRPCInvalidParams, Message: "Invalid params"}
		}
	}

	result, err := s.tools.Call(params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool call failed", "tool_name", params.Name, "error", err)

		var toolErr *ToolError
		if errors.As(err, &toolErr) {
			return nil, &JSONRPCError{Code: toolErr.Code, Message: toolErr.Message}
		}
		return nil, &JSONRPCError{Code: JSONRPCInternalError, Message: "Internal error"}
	}

	if result.Receipt != "" {
		s.logger.Info("cart checked out",
			"cart_id", result.StructuredContent.CartID,
			"summary", result.Receipt,
		)
	}

	s.logger.Debug("tools/call complete",
		"tool_name", params.Name,
		"cart_id", result.StructuredContent.CartID,
		"items", len(result.StructuredContent.Items),
	)

	return result, nil
}
