package widget

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/psanford/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadHTML_PrefersPrimary(t *testing.T) {
	fsys := memfs.New()
	require.NoError(t, fsys.WriteFile("shopping-cart.html", []byte("<primary/>"), 0o644))
	require.NoError(t, fsys.WriteFile("shopping-cart-9999.html", []byte("<versioned/>"), 0o644))

	html, err := NewLoader(fsys, "mem").LoadHTML()

	require.NoError(t, err)
	assert.Equal(t, "<primary/>", html)
}

func TestLoadHTML_FallsBackToLatestVersion(t *testing.T) {
	fsys := memfs.New()
	require.NoError(t, fsys.WriteFile("shopping-cart-2024a.html", []byte("old"), 0o644))
	require.NoError(t, fsys.WriteFile("shopping-cart-2025b.html", []byte("new"), 0o644))
	require.NoError(t, fsys.WriteFile("shopping-cart-2025a.html", []byte("mid"), 0o644))
	require.NoError(t, fsys.WriteFile("other-widget-3000.html", []byte("nope"), 0o644))
	require.NoError(t, fsys.WriteFile("shopping-cart-3000.js", []byte("nope"), 0o644))

	html, err := NewLoader(fsys, "mem").LoadHTML()

	require.NoError(t, err)
	assert.Equal(t, "new", html)
}

func TestLoadHTML_IgnoresVersionedDirectories(t *testing.T) {
	fsys := memfs.New()
	require.NoError(t, fsys.MkdirAll("shopping-cart-zzz.html", 0o755))
	require.NoError(t, fsys.WriteFile("shopping-cart-aaa.html", []byte("file"), 0o644))

	html, err := NewLoader(fsys, "mem").LoadHTML()

	require.NoError(t, err)
	assert.Equal(t, "file", html)
}

func TestLoadHTML_NotFound(t *testing.T) {
	_, err := NewLoader(memfs.New(), "mem").LoadHTML()

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLoadHTML_MissingDirectory(t *testing.T) {
	_, err := NewDirLoader(filepath.Join(t.TempDir(), "absent")).LoadHTML()

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestResolveDir(t *testing.T) {
	t.Run("configured wins", func(t *testing.T) {
		assert.Equal(t, "/srv/widgets", ResolveDir("/srv/widgets", t.TempDir()))
	})

	t.Run("assets next to working dir", func(t *testing.T) {
		work := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(work, "assets"), 0o755))
		assert.Equal(t, filepath.Join(work, "assets"), ResolveDir("", work))
	})

	t.Run("assets in parent", func(t *testing.T) {
		root := t.TempDir()
		work := filepath.Join(root, "server")
		require.NoError(t, os.Mkdir(work, 0o755))
		require.NoError(t, os.Mkdir(filepath.Join(root, "assets"), 0o755))
		assert.Equal(t, filepath.Join(root, "assets"), ResolveDir("", work))
	})

	t.Run("relative fallback", func(t *testing.T) {
		root := t.TempDir()
		work := filepath.Join(root, "a", "b")
		require.NoError(t, os.MkdirAll(work, 0o755))
		assert.Equal(t, "assets", ResolveDir("", work))
	})
}

func TestContainsHash(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"shopping-cart.a1b2c3d4.js", true},
		{"assets/cart.CU4W1PlC.css", true},
		{"shopping-cart.html", false},
		{"shopping-cart-2025.html", false},
	}
	for _, tt := range tests {
		if got := containsHash(tt.path); got != tt.want {
			t.Errorf("containsHash(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestMimeFromExt(t *testing.T) {
	tests := []struct {
		ext  string
		want string
	}{
		{".js", "application/javascript"},
		{".css", "text/css; charset=utf-8"},
		{".html", "text/html; charset=utf-8"},
		{".woff2", "font/woff2"},
		{".qqqqqq", "application/octet-stream"},
	}
	for _, tt := range tests {
		if got := mimeFromExt(tt.ext); got != tt.want {
			t.Errorf("mimeFromExt(%q) = %q, want %q", tt.ext, got, tt.want)
		}
	}
}

func TestFileServer_CacheHeaders(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shopping-cart.html"), []byte("<html/>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cart.a1b2c3d4.js"), []byte("1"), 0o644))

	handler := NewDirLoader(dir).FileServer()

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/cart.a1b2c3d4.js", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "public, max-age=31536000, immutable", rr.Header().Get("Cache-Control"))
	assert.Equal(t, "application/javascript", rr.Header().Get("Content-Type"))

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/shopping-cart.html", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "no-cache", rr.Header().Get("Cache-Control"))
	assert.Equal(t, "<html/>", rr.Body.String())
}
