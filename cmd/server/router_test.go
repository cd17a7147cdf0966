
package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"harborview-ssg/internal/config"
	"harborview-ssg/internal/diagnostics"
	"harborview-ssg/internal/models"
	"harborview-ssg/internal/routes"
	"harborview-ssg/pkg/logger"
)

func site(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"index.html":       "<html><body><h1>Home</h1></body></html>",
		"about/index.html": "<html><body><h1>About</h1></body></html>",
		"assets/app.js":    "console.log(1)",
	}
	for name, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	require.NoError(t, diagnostics.WriteBuildStatus(dir, models.BuildStatus{Success: true, RoutesGenerated: 2}))
	return dir
}

func get(t *testing.T, h http.Handler, target string) (*http.Response, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	res := rec.Result()
	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, string(b)
}

func TestServesSnapshotsWithFallback(t *testing.T) {
	cfg := config.Config{BaseURL: "https://harborview.example", Environment: config.Production, OutDir: site(t)}
	h := newRouter(cfg, routes.Default(), logger.Nop())

	res, body := get(t, h, "/about")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "<h1>About</h1>")
	assert.Empty(t, res.Header.Get("X-Robots-Tag"))

	_, body = get(t, h, "/booking/step-2")
	assert.Contains(t, body, "<h1>Home</h1>")

	_, body = get(t, h, "/assets/app.js")
	assert.Equal(t, "console.log(1)", body)
}

func TestDiagnosticsHiddenInProduction(t *testing.T) {
	cfg := config.Config{BaseURL: "https://harborview.example", Environment: config.Production, OutDir: site(t)}
	res, _ := get(t, newRouter(cfg, routes.Default(), logger.Nop()), "/__diagnostics/build-status")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	cfg.ExposeDiagnostics = true
	res, body := get(t, newRouter(cfg, routes.Default(), logger.Nop()), "/__diagnostics/build-status")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, `"routesGenerated": 2`)
}

func TestPreviewIsNotIndexable(t *testing.T) {
	cfg := config.Config{BaseURL: "https://preview.harborview.example", Environment: config.Preview, OutDir: site(t)}
	h := newRouter(cfg, routes.Default(), logger.Nop())

	res, body := get(t, h, "/robots.txt")
	assert.Equal(t, "noindex", res.Header.Get("X-Robots-Tag"))
	assert.Contains(t, body, "Disallow: /\n")

	res, _ = get(t, h, "/__diagnostics/seo")
	assert.Equal(t, http.StatusNotFound, res.StatusCode, "no report written yet")

	res, body = get(t, h, "/sitemap.xml")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "https://preview.harborview.example/contact")

	res, body = get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "ok", body)
}
