
// Package snapshot merges the HTML template with render results and writes
// one static file per route.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"harborview-ssg/internal/bundler"
	"harborview-ssg/internal/models"
	"harborview-ssg/internal/seo"
)

// PathFor maps a route path to its file, relative to the output root:
// "/" -> index.html, "/foo" -> foo/index.html.
func PathFor(route string) string {
	p := strings.Trim(route, "/")
	if p == "" {
		return "index.html"
	}
	return filepath.Join(filepath.FromSlash(p), "index.html")
}

// Merge injects head tags and body markup into the template. The result
// depends only on its inputs.
func Merge(t bundler.Template, res models.RenderResult) string {
	head := seo.HeadHTML(res.Head)
	out := strings.Replace(t.Raw, bundler.HeadPlaceholder, strings.TrimSuffix(head, "\n"), 1)
	root := strings.TrimSuffix(bundler.RootPlaceholder, "</div>") + res.HTML + "</div>"
	return strings.Replace(out, bundler.RootPlaceholder, root, 1)
}

type Writer struct {
	outDir string
}

func NewWriter(outDir string) *Writer { return &Writer{outDir: outDir} }

// Write merges and writes one snapshot, creating parent directories and
// replacing any file left by a previous build. It returns the file path.
func (w *Writer) Write(t bundler.Template, res models.RenderResult) (string, error) {
	path := filepath.Join(w.outDir, PathFor(res.Route))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("snapshot %s: %w", res.Route, err)
	}
	if err := os.WriteFile(path, []byte(Merge(t, res)), 0o644); err != nil {
		return "", fmt.Errorf("snapshot %s: %w", res.Route, err)
	}
	return path, nil
}

// Read returns the snapshot for route from outDir.
func Read(outDir, route string) ([]byte, error) {
	return os.ReadFile(filepath.Join(outDir, PathFor(route)))
}
