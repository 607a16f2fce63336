// ABOUTME: JSON-RPC 2.0 envelope types, error codes and response writers.
// ABOUTME: Shared by every MCP method handler so envelopes are built in one place.

package mcp

import (
	"encoding/json"
	"net/http"
)

// MaxRequestBodySize is the maximum allowed size for request bodies (1MB).
const MaxRequestBodySize = 1 << 20

// JSON-RPC 2.0 types

// JSONRPCRequest represents a JSON-RPC 2.0 request. The id is echoed back
// verbatim and never interpreted.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

// JSONRPCError represents a JSON-RPC 2.0 error object.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Standard JSON-RPC error codes
const (
	JSONRPCParseError     = -32700
	JSONRPCInvalidRequest = -32600
	JSONRPCMethodNotFound = -32601
	JSONRPCInvalidParams  = -32602
	JSONRPCInternalError  = -32603
)

// responseID turns an absent id into an explicit null.
func responseID(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return json.RawMessage("null")
	}
	return id
}

// sendJSONRPCResult sends a successful JSON-RPC response.
func (s *Server) sendJSONRPCResult(w http.ResponseWriter, id json.RawMessage, result any) {
	s.writeEnvelope(w, http.StatusOK, JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      responseID(id),
		Result:  result,
	})
}

// sendJSONRPCError sends a JSON-RPC error response with the given HTTP status.
// Protocol-level errors use 200; only transport parse failures use 4xx.
func (s *Server) sendJSONRPCError(w http.ResponseWriter, status int, id json.RawMessage, code int, message string) {
	s.writeEnvelope(w, status, JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      responseID(id),
		Error: &JSONRPCError{
			Code:    code,
			Message: message,
		},
	})
}

func (s *Server) writeEnvelope(w http.ResponseWriter, status int, resp JSONRPCResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("failed to encode JSON-RPC response", "error", err)
	}
}
