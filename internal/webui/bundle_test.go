package webui

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestEngine(t *testing.T, b Bundle) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin/*path", b.Handler("/admin"))
	return r
}

func TestEmbeddedBundleServesIndexForClientRoutes(t *testing.T) {
	b, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	r := newTestEngine(t, b)

	for _, target := range []string{"/admin/", "/admin/settings", "/admin/billing/invoices"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Hirelane Admin") {
			t.Fatalf("%s: expected index, got %d %q", target, w.Code, w.Body.String())
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/assets/app.css", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "font-family") {
		t.Fatalf("expected stylesheet, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/assets/missing.js", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing asset, got %d", w.Code)
	}
}

func TestLoadFromDirectory(t *testing.T) {
	dir := t.TempDir()
	if errWrite := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<p>custom</p>"), 0o600); errWrite != nil {
		t.Fatalf("write index: %v", errWrite)
	}
	b, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(b.IndexHTML) != "<p>custom</p>" {
		t.Fatalf("unexpected index %q", b.IndexHTML)
	}

	if _, errMissing := Load(t.TempDir()); errMissing == nil {
		t.Fatalf("expected error for directory without index.html")
	}
}
