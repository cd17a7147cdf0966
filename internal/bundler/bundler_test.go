
package bundler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"harborview-ssg/pkg/logger"
)

func TestBuildWithoutCommandWritesDefault(t *testing.T) {
	out := filepath.Join(t.TempDir(), "dist")
	require.NoError(t, os.MkdirAll(out, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(out, "stale.html"), []byte("old"), 0o644))

	tpl, err := New("", t.TempDir(), out, logger.Nop()).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Default(), tpl)
	_, err = os.Stat(filepath.Join(out, "stale.html"))
	assert.True(t, os.IsNotExist(err), "output dir must be cleared")
	_, err = os.Stat(filepath.Join(out, TemplateFile))
	assert.NoError(t, err)
}

func TestBuildRunsCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "dist")
	cmd := `mkdir -p "$SSG_OUT_DIR/assets" && printf '<html><head><!--app-head--></head><body><div id="root"></div></body></html>' > "$SSG_OUT_DIR/index.html"`
	tpl, err := New(cmd, t.TempDir(), out, logger.Nop()).Build(context.Background())
	require.NoError(t, err)
	assert.Contains(t, tpl.Raw, RootPlaceholder)
}

func TestBuildFailureCarriesOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "dist")
	_, err := New(`echo "syntax error in App.tsx" >&2; exit 3`, t.TempDir(), out, logger.Nop()).Build(context.Background())
	var bf *BundlerFailure
	require.True(t, errors.As(err, &bf))
	assert.Contains(t, bf.Output, "syntax error in App.tsx")
	assert.Contains(t, err.Error(), "syntax error in App.tsx")
}

func TestBuildRejectsTemplateWithoutPlaceholders(t *testing.T) {
	out := filepath.Join(t.TempDir(), "dist")
	_, err := New(`echo '<html><body></body></html>' > "$SSG_OUT_DIR/index.html"`, t.TempDir(), out, logger.Nop()).Build(context.Background())
	var bf *BundlerFailure
	require.True(t, errors.As(err, &bf))
	assert.Contains(t, err.Error(), "placeholder")
}

func TestCleanRefusesSourceTree(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, Clean(dir, filepath.Join(dir, "src")))
	assert.Error(t, Clean(dir, dir))
	assert.Error(t, Clean("/", ""))
}

func TestParseTemplate(t *testing.T) {
	_, err := ParseTemplate(defaultTemplate)
	assert.NoError(t, err)
	_, err = ParseTemplate(`<!--app-head--><div id="root"></div><div id="root"></div>`)
	assert.Error(t, err)
}
