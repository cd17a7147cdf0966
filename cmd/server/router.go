
package main

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"harborview-ssg/internal/config"
	"harborview-ssg/internal/diagnostics"
	"harborview-ssg/internal/routes"
	"harborview-ssg/internal/sitemap"
	"harborview-ssg/internal/snapshot"
	"harborview-ssg/pkg/logger"
)

func newRouter(cfg config.Config, table routes.Table, l *logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logRequest(l))
	r.Use(middleware.Recoverer)
	r.Use(robotsHeader(cfg))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write(sitemap.Robots(cfg))
	})
	r.Get("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		b, err := sitemap.Sitemap(table, cfg, time.Now())
		if err != nil {
			l.Errorf("sitemap: %v", err)
			http.Error(w, "sitemap unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/xml; charset=utf-8")
		_, _ = w.Write(b)
	})

	r.Route("/"+config.DiagnosticsDir, func(r chi.Router) {
		r.Use(diagnosticsGate(cfg))
		dir := diagnostics.Dir(cfg.OutDir)
		r.Get("/seo", serveFile(filepath.Join(dir, diagnostics.ReportFile), "application/json"))
		r.Get("/html", serveFile(filepath.Join(dir, diagnostics.TextFile), "text/plain; charset=utf-8"))
		r.Get("/build-status", serveFile(filepath.Join(dir, diagnostics.BuildStatusFile), "application/json"))
		r.NotFound(http.NotFound)
	})

	r.Get("/*", snapshots(cfg.OutDir))
	return r
}

// snapshots serves files from outDir. Unknown paths fall back to the root
// snapshot so client-side routes still boot.
func snapshots(outDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clean := path.Clean("/" + r.URL.Path)
		file := filepath.Join(outDir, filepath.FromSlash(clean))
		if fi, err := os.Stat(file); err == nil && !fi.IsDir() {
			http.ServeFile(w, r, file)
			return
		}
		file = filepath.Join(outDir, snapshot.PathFor(clean))
		if _, err := os.Stat(file); err != nil {
			file = filepath.Join(outDir, snapshot.PathFor("/"))
		}
		serveHTML(w, file)
	}
}

// serveHTML writes file directly; http.ServeFile would redirect index.html.
func serveHTML(w http.ResponseWriter, file string) {
	b, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.Error(w, "site not built", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(b)
}

func serveFile(file, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := os.ReadFile(file)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(b)
	}
}

func diagnosticsGate(cfg config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.DiagnosticsExposed() {
				http.NotFound(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func robotsHeader(cfg config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Indexable() {
				w.Header().Set("X-Robots-Tag", "noindex")
			}
			next.ServeHTTP(w, r)
		})
	}
}

func logRequest(l *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			l.Infof("%s %s %d %s", r.Method, r.URL.Path, ww.Status(), time.Since(start))
		})
	}
}
