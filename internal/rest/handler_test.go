// ABOUTME: Tests for the REST sync and checkout handlers.
// ABOUTME: Covers overwrite semantics, id resolution, cookie sessions and bad input.

package rest

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/cart-gateway/internal/cart"
)

func newTestHandler(t *testing.T, cfg Config) (*http.ServeMux, *cart.Store) {
	t.Helper()
	if cfg.Store == nil {
		cfg.Store = cart.NewStore(4, cart.WithIDGenerator(sequentialIDs()))
	}
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	h, err := NewHandler(cfg)
	require.NoError(t, err)

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return mux, cfg.Store
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return "gen-" + strconv.Itoa(n)
	}
}

func post(t *testing.T, mux http.Handler, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func decodeCartResponse(t *testing.T, rr *httptest.ResponseRecorder) CartResponse {
	t.Helper()
	var resp CartResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), rr.Body.String())
	return resp
}

func TestNewHandler_RequiresStore(t *testing.T) {
	_, err := NewHandler(Config{})
	assert.Error(t, err)
}

func TestSync_ReplacesContents(t *testing.T) {
	mux, store := newTestHandler(t, Config{})

	rr := post(t, mux, "/sync_cart", `{"cartId":"c1","items":[{"name":"Apple","quantity":3}]}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, CartResponse{Status: StatusUpdated, CartID: "c1"}, decodeCartResponse(t, rr))

	rr = post(t, mux, "/sync_cart", `{"cartId":"c1","items":[{"name":"Banana","quantity":1,"ripe":true}]}`)
	require.Equal(t, http.StatusOK, rr.Code)

	items, ok := store.Get("c1")
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, "Banana", items[0].Name)
	assert.Equal(t, uint32(1), items[0].Quantity)
	assert.JSONEq(t, "true", string(items[0].Extra["ripe"]))
}

func TestSync_GeneratesIDWhenMissing(t *testing.T) {
	mux, store := newTestHandler(t, Config{})

	rr := post(t, mux, "/sync_cart", `{"items":[{"name":"Apple"}]}`)
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decodeCartResponse(t, rr)
	assert.Equal(t, "gen-1", resp.CartID)
	assert.Empty(t, rr.Header().Get("Set-Cookie"))

	items, ok := store.Get("gen-1")
	require.True(t, ok)
	assert.Equal(t, uint32(1), items[0].Quantity)
}

func TestSync_EmptyItemsClearsCart(t *testing.T) {
	mux, store := newTestHandler(t, Config{})

	post(t, mux, "/sync_cart", `{"cartId":"c","items":[{"name":"Apple"}]}`)
	rr := post(t, mux, "/sync_cart", `{"cartId":"c","items":[]}`)
	require.Equal(t, http.StatusOK, rr.Code)

	items, ok := store.Get("c")
	require.True(t, ok)
	assert.Empty(t, items)
}

func TestSync_CombinesDuplicateNames(t *testing.T) {
	mux, store := newTestHandler(t, Config{})

	rr := post(t, mux, "/sync_cart", `{"cartId":"c","items":[{"name":"Apple","quantity":1},{"name":"Apple","quantity":5}]}`)
	require.Equal(t, http.StatusOK, rr.Code)

	items, ok := store.Get("c")
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, uint32(6), items[0].Quantity)
}

func TestSync_BadRequests(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"invalid json", `{"items":`, "invalid JSON body"},
		{"missing items", `{"cartId":"c"}`, "missing field `items`"},
		{"missing name", `{"items":[{"quantity":2}]}`, "missing field `name`"},
		{"negative quantity", `{"items":[{"name":"A","quantity":-2}]}`, "invalid JSON body"},
		{"empty body", ``, "missing field `items`"},
		{"null quantity", `{"items":[{"name":"A","quantity":null}]}`, "invalid JSON body"},
		{"overflowing duplicates", `{"items":[{"name":"A","quantity":4294967295},{"name":"A","quantity":1}]}`, "quantity overflow"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux, store := newTestHandler(t, Config{})

			rr := post(t, mux, "/sync_cart", tt.body)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			var body map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Contains(t, body["error"], tt.wantErr)
			assert.Equal(t, 0, store.Len())
		})
	}
}

func TestSync_BodyTooLarge(t *testing.T) {
	mux, _ := newTestHandler(t, Config{})

	body := `{"items":[{"name":"` + strings.Repeat("a", MaxRequestBodySize) + `"}]}`
	rr := post(t, mux, "/sync_cart", body)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "exceeds")
}

func TestCheckout(t *testing.T) {
	mux, store := newTestHandler(t, Config{})

	post(t, mux, "/sync_cart", `{"cartId":"c1","items":[{"name":"Apple","quantity":2}]}`)

	rr := post(t, mux, "/checkout", `{"cartId":"c1"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, CartResponse{Status: StatusCheckedOut, CartID: "c1"}, decodeCartResponse(t, rr))

	_, ok := store.Get("c1")
	assert.False(t, ok)

	rr = post(t, mux, "/checkout", `{"cartId":"c1"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, CartResponse{Status: StatusCheckedOut, CartID: "c1"}, decodeCartResponse(t, rr))
}

func TestCheckout_EmptyBodyUsesFreshID(t *testing.T) {
	mux, _ := newTestHandler(t, Config{})

	rr := post(t, mux, "/checkout", ``)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "gen-1", decodeCartResponse(t, rr).CartID)
}

func TestCheckout_InvalidJSON(t *testing.T) {
	mux, _ := newTestHandler(t, Config{})

	rr := post(t, mux, "/checkout", `{"cartId":42}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRoutes_RejectOtherMethods(t *testing.T) {
	mux, _ := newTestHandler(t, Config{})

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/sync_cart", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestSessionCookie(t *testing.T) {
	t.Run("issues cookie and reuses it as the default cart", func(t *testing.T) {
		mux, store := newTestHandler(t, Config{SessionCookie: true})

		rr := post(t, mux, "/sync_cart", `{"items":[{"name":"Apple"}]}`)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "cart_session=gen-1; Path=/; HttpOnly", rr.Header().Get("Set-Cookie"))
		assert.Equal(t, "gen-1", decodeCartResponse(t, rr).CartID)

		cookie := &http.Cookie{Name: "cart_session", Value: "gen-1"}
		rr = post(t, mux, "/sync_cart", `{"items":[{"name":"Pear"}]}`, cookie)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, rr.Header().Get("Set-Cookie"))
		assert.Equal(t, "gen-1", decodeCartResponse(t, rr).CartID)

		items, ok := store.Get("gen-1")
		require.True(t, ok)
		require.Len(t, items, 1)
		assert.Equal(t, "Pear", items[0].Name)

		rr = post(t, mux, "/checkout", `{}`, cookie)
		assert.Equal(t, "gen-1", decodeCartResponse(t, rr).CartID)
		_, ok = store.Get("gen-1")
		assert.False(t, ok)
	})

	t.Run("explicit cart id wins over cookie", func(t *testing.T) {
		mux, store := newTestHandler(t, Config{SessionCookie: true})

		rr := post(t, mux, "/sync_cart", `{"cartId":"named","items":[{"name":"Apple"}]}`,
			&http.Cookie{Name: "cart_session", Value: "sess"})

		assert.Equal(t, "named", decodeCartResponse(t, rr).CartID)
		_, ok := store.Get("sess")
		assert.False(t, ok)
	})

	t.Run("explicit id without cookie still issues one", func(t *testing.T) {
		mux, _ := newTestHandler(t, Config{SessionCookie: true})

		rr := post(t, mux, "/checkout", `{"cartId":"named"}`)

		assert.Equal(t, "named", decodeCartResponse(t, rr).CartID)
		assert.Equal(t, "cart_session=gen-1; Path=/; HttpOnly", rr.Header().Get("Set-Cookie"))
	})

	t.Run("custom cookie name", func(t *testing.T) {
		mux, _ := newTestHandler(t, Config{SessionCookie: true, CookieName: "sid"})

		rr := post(t, mux, "/sync_cart", `{"items":[]}`)

		assert.True(t, strings.HasPrefix(rr.Header().Get("Set-Cookie"), "sid=gen-1;"))
	})

	t.Run("empty cookie value is ignored", func(t *testing.T) {
		mux, _ := newTestHandler(t, Config{SessionCookie: true})

		rr := post(t, mux, "/sync_cart", `{"items":[]}`, &http.Cookie{Name: "cart_session", Value: ""})

		assert.Equal(t, "gen-1", decodeCartResponse(t, rr).CartID)
		assert.NotEmpty(t, rr.Header().Get("Set-Cookie"))
	})
}
