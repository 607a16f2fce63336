// ABOUTME: REST handlers for widget cart sync and checkout.
// ABOUTME: Sync overwrites a cart wholesale; checkout removes it and logs a summary.

package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/2389/cart-gateway/internal/cart"
)

// MaxRequestBodySize is the maximum allowed size for request bodies (1MB).
const MaxRequestBodySize = 1 << 20

// DefaultCookieName names the session cookie when none is configured.
const DefaultCookieName = "cart_session"

// Response statuses
const (
	StatusUpdated    = "updated"
	StatusCheckedOut = "checked_out"
)

// SyncRequest is the JSON request body for POST /sync_cart.
type SyncRequest struct {
	Items  []cart.Item `json:"items"`
	CartID string      `json:"cartId"`
}

// CheckoutRequest is the JSON request body for POST /checkout.
type CheckoutRequest struct {
	CartID string `json:"cartId"`
}

// CartResponse is the JSON response for both endpoints.
type CartResponse struct {
	Status string `json:"status"`
	CartID string `json:"cartId"`
}

var errMissingItems = errors.New("missing field `items`")

// Config holds configuration for the REST handlers.
type Config struct {
	Store  *cart.Store
	Logger *slog.Logger
	// SessionCookie enables cookie-backed default carts.
	SessionCookie bool
	CookieName    string
}

// Handler serves the REST cart endpoints.
type Handler struct {
	store         *cart.Store
	logger        *slog.Logger
	sessionCookie bool
	cookieName    string
}

// NewHandler creates a REST handler over the given store.
func NewHandler(cfg Config) (*Handler, error) {
	if cfg.Store == nil {
		return nil, errors.New("cart store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	name := cfg.CookieName
	if name == "" {
		name = DefaultCookieName
	}

	return &Handler{
		store:         cfg.Store,
		logger:        logger.With("component", "rest"),
		sessionCookie: cfg.SessionCookie,
		cookieName:    name,
	}, nil
}

// RegisterRoutes registers the REST endpoints on the given ServeMux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /sync_cart", h.handleSync)
	mux.HandleFunc("POST /checkout", h.handleCheckout)
}

// handleSync replaces the cart's contents with the request's items.
func (h *Handler) handleSync(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Items == nil {
		h.sendJSONError(w, http.StatusBadRequest, errMissingItems.Error())
		return
	}

	cartID := h.resolveCartID(w, r, req.CartID)
	if err := h.store.Put(cartID, req.Items); err != nil {
		h.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Debug("cart synced", "cart_id", cartID, "items", len(req.Items))
	h.sendJSON(w, CartResponse{Status: StatusUpdated, CartID: cartID})
}

// handleCheckout removes the cart. The response does not reveal whether a cart
// existed.
func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	cartID := h.resolveCartID(w, r, req.CartID)
	if _, items, ok := h.store.Remove(cartID); ok {
		h.logger.Info("cart checked out",
			"cart_id", cartID,
			"summary", cart.Summary(items),
		)
	}

	h.sendJSON(w, CartResponse{Status: StatusCheckedOut, CartID: cartID})
}

// resolveCartID picks the cart id for a request. An explicit id wins. With
// session cookies enabled, a request lacking the cookie is issued one even when
// it names a cart.
func (h *Handler) resolveCartID(w http.ResponseWriter, r *http.Request, requested string) string {
	if !h.sessionCookie {
		return h.store.ResolveID(requested)
	}

	sessionID := ""
	if c, err := r.Cookie(h.cookieName); err == nil {
		sessionID = c.Value
	}
	if sessionID == "" {
		sessionID = h.store.ResolveID("")
		http.SetCookie(w, &http.Cookie{
			Name:     h.cookieName,
			Value:    sessionID,
			Path:     "/",
			HttpOnly: true,
		})
	}

	if requested != "" {
		return requested
	}
	return sessionID
}

// decodeBody decodes a JSON object body. An empty body decodes as {}.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxRequestBodySize))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		}
		return fmt.Errorf("reading request body: %w", err)
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		body = []byte("{}")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func (h *Handler) sendJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("failed to encode response", "error", err)
	}
}

// sendJSONError writes a JSON error response.
func (h *Handler) sendJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		h.logger.Warn("failed to encode error response", "error", err)
	}
}
