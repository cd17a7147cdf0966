
package snapshot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"harborview-ssg/internal/bundler"
	"harborview-ssg/internal/models"
)

func TestPathFor(t *testing.T) {
	assert.Equal(t, "index.html", PathFor("/"))
	assert.Equal(t, filepath.Join("about", "index.html"), PathFor("/about"))
	assert.Equal(t, filepath.Join("services", "couples-therapy", "index.html"), PathFor("/services/couples-therapy"))
}

func result(route string) models.RenderResult {
	return models.RenderResult{
		Route: route,
		HTML:  "<h1>About</h1><p>Hello</p>",
		Head: models.HeadMetadata{
			Title:     "About",
			Canonical: "https://harborview.example" + route,
		},
	}
}

func TestMergeInjectsBothPlaceholders(t *testing.T) {
	out := Merge(bundler.Default(), result("/about"))
	assert.NotContains(t, out, bundler.HeadPlaceholder)
	assert.Contains(t, out, `<div id="root"><h1>About</h1><p>Hello</p></div>`)
	assert.Contains(t, out, "<title>About</title>")
	assert.Less(t, strings.Index(out, "<title>"), strings.Index(out, "</head>"))
}

func TestWriteIsIdempotentAndOverwrites(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)
	stale := filepath.Join(dir, "services", "couples-therapy", "index.html")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o755))
	require.NoError(t, os.WriteFile(stale, []byte("stale"), 0o644))

	p1, err := w.Write(bundler.Default(), result("/services/couples-therapy"))
	require.NoError(t, err)
	assert.Equal(t, stale, p1)
	first, err := os.ReadFile(p1)
	require.NoError(t, err)

	_, err = w.Write(bundler.Default(), result("/services/couples-therapy"))
	require.NoError(t, err)
	second, err := Read(dir, "/services/couples-therapy")
	require.NoError(t, err)
	if diff := cmp.Diff(string(first), string(second)); diff != "" {
		t.Fatalf("snapshot changed between writes (-first +second):\n%s", diff)
	}
	assert.NotContains(t, string(second), "stale")
}

func TestWriteEmptyBodyKeepsShell(t *testing.T) {
	dir := t.TempDir()
	_, err := NewWriter(dir).Write(bundler.Default(), models.RenderResult{Route: "/about"})
	require.NoError(t, err)
	b, err := Read(dir, "/about")
	require.NoError(t, err)
	assert.Contains(t, string(b), bundler.RootPlaceholder)
}
