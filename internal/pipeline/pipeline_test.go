
package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"harborview-ssg/internal/bundler"
	"harborview-ssg/internal/config"
	"harborview-ssg/internal/content"
	"harborview-ssg/internal/diagnostics"
	"harborview-ssg/internal/models"
	"harborview-ssg/internal/render"
	"harborview-ssg/internal/routes"
	"harborview-ssg/internal/sitemap"
	"harborview-ssg/internal/snapshot"
	"harborview-ssg/internal/verify"
	"harborview-ssg/pkg/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var fixed = func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }

func twoRoutes() routes.Table {
	return routes.Table{
		{Path: "/", Title: "Home", Priority: 1, ChangeFrequency: models.Weekly, Critical: true},
		{Path: "/about", Title: "About", Priority: 0.8, ChangeFrequency: models.Monthly, Critical: true},
	}
}

func twoPages() content.Loader {
	return content.NewFSLoader(fstest.MapFS{
		"index.md": {Data: []byte("---\nheading: Welcome\n---\nWe offer therapy in Portland.\n")},
		"about.md": {Data: []byte("---\nheading: About us\n---\nWe are a small practice.\n")},
	})
}

func testConfig(t *testing.T) config.Config {
	return config.Config{
		BaseURL:     "https://harborview.example",
		Environment: config.Production,
		OutDir:      t.TempDir(),
		SiteName:    "Harborview Counseling",
	}
}

func newPipeline(cfg config.Config, table routes.Table, loader content.Loader, opts ...Option) *Pipeline {
	opts = append([]Option{WithClock(fixed), WithWorkers(2)}, opts...)
	return New(cfg, table, StaticTemplate(bundler.Default()), loader, logger.Nop(), opts...)
}

func TestBuildDiagnoseVerifyTwoRoutes(t *testing.T) {
	cfg := testConfig(t)
	p := newPipeline(cfg, twoRoutes(), twoPages())

	st, err := p.Build(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Success)
	assert.Equal(t, 2, st.RoutesGenerated)
	assert.Equal(t, "production", st.Environment)
	assert.Equal(t, "2024-06-01T09:00:00Z", st.Timestamp)
	assert.NotEmpty(t, st.BuildID)

	rep, err := p.Diagnose(context.Background())
	require.NoError(t, err)
	require.Len(t, rep.Routes, 2)
	for _, e := range rep.Routes {
		assert.True(t, e.HasTitle, e.Route)
		assert.Equal(t, 100, e.SEOScore, e.Route)
	}

	onDisk, err := diagnostics.ReadReport(cfg.OutDir)
	require.NoError(t, err)
	assert.Len(t, onDisk.Routes, 2)

	res, err := p.Verify()
	require.NoError(t, err)
	assert.True(t, res.OK())
}

type emptyFor struct {
	inner PageRenderer
	route string
}

func (e emptyFor) Render(path string) (models.RenderResult, error) {
	res, err := e.inner.Render(path)
	if path == e.route {
		res.HTML = ""
	}
	return res, err
}

func TestVerifyCatchesEmptyRender(t *testing.T) {
	cfg := testConfig(t)
	table := twoRoutes()
	stub := func(pages *content.Cache) (PageRenderer, error) {
		inner, err := DefaultRenderers(cfg, table)(pages)
		return emptyFor{inner: inner, route: "/about"}, err
	}
	p := newPipeline(cfg, table, twoPages(), WithRenderers(stub))

	_, err := p.Build(context.Background())
	require.NoError(t, err)
	_, err = p.Diagnose(context.Background())
	require.NoError(t, err)
	res, err := p.Verify()
	require.NoError(t, err)

	require.False(t, res.OK())
	assert.Equal(t, models.OutcomeOK, res.Routes[0].Outcome)
	about := res.Routes[1]
	assert.Equal(t, models.OutcomeMissingSignals, about.Outcome)
	assert.Contains(t, about.MissingSignals, verify.SignalH1)
	assert.Contains(t, about.MissingSignals, verify.SignalParagraph)
}

func TestBuildWritesEverySnapshotAndIsIdempotent(t *testing.T) {
	cfg := testConfig(t)
	table := routes.Default()
	p := newPipeline(cfg, table, content.Embedded())

	_, err := p.Build(context.Background())
	require.NoError(t, err)
	first := map[string][]byte{}
	for _, rt := range table {
		b, err := snapshot.Read(cfg.OutDir, rt.Path)
		require.NoError(t, err, rt.Path)
		first[rt.Path] = b
	}

	_, err = p.Build(context.Background())
	require.NoError(t, err)
	for _, rt := range table {
		b, err := snapshot.Read(cfg.OutDir, rt.Path)
		require.NoError(t, err)
		if diff := cmp.Diff(string(first[rt.Path]), string(b)); diff != "" {
			t.Fatalf("%s changed between builds:\n%s", rt.Path, diff)
		}
	}
	_, err = os.Stat(filepath.Join(cfg.OutDir, sitemap.SitemapFile))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(cfg.OutDir, sitemap.RobotsFile))
	assert.NoError(t, err)

	_, err = p.Diagnose(context.Background())
	require.NoError(t, err)
	res, err := p.Verify()
	require.NoError(t, err)
	assert.True(t, res.OK(), "%+v", res.Failures())
}

func TestStrictBuildAbortsOnRenderFailure(t *testing.T) {
	cfg := testConfig(t)
	loader := content.NewFSLoader(fstest.MapFS{"index.md": {Data: []byte("Home page.")}})
	p := newPipeline(cfg, twoRoutes(), loader)

	st, err := p.Build(context.Background())
	var rf *render.RenderFailure
	require.True(t, errors.As(err, &rf))
	assert.Equal(t, "/about", rf.Route)
	assert.False(t, st.Success)

	onDisk, err := diagnostics.ReadBuildStatus(cfg.OutDir)
	require.NoError(t, err)
	assert.False(t, onDisk.Success)
	_, failed := onDisk.Failed("/about")
	assert.True(t, failed)
	_, err = os.Stat(filepath.Join(cfg.OutDir, sitemap.SitemapFile))
	assert.True(t, os.IsNotExist(err))
}

func TestLenientBuildRecordsRenderError(t *testing.T) {
	cfg := testConfig(t)
	loader := content.NewFSLoader(fstest.MapFS{"index.md": {Data: []byte("Home page.")}})
	p := newPipeline(cfg, twoRoutes(), loader, Lenient(true))

	st, err := p.Build(context.Background())
	require.NoError(t, err)
	assert.False(t, st.Success)
	assert.Equal(t, 1, st.RoutesGenerated)
	require.Len(t, st.FailedRoutes, 1)

	_, err = p.Diagnose(context.Background())
	require.NoError(t, err)
	res, err := p.Verify()
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeOK, res.Routes[0].Outcome)
	assert.Equal(t, models.OutcomeRenderError, res.Routes[1].Outcome)
	assert.False(t, res.OK())

	sm, err := os.ReadFile(filepath.Join(cfg.OutDir, sitemap.SitemapFile))
	require.NoError(t, err)
	assert.Contains(t, string(sm), "<loc>https://harborview.example/</loc>")
	assert.NotContains(t, string(sm), "/about")
}

func TestHeadingOnlyPageMissesParagraph(t *testing.T) {
	cfg := testConfig(t)
	table := routes.Table{{Path: "/", Title: "Home", Priority: 1, ChangeFrequency: models.Weekly, Critical: true}}
	loader := content.NewFSLoader(fstest.MapFS{"index.md": {Data: []byte("---\nheading: Welcome\n---\n")}})
	p := newPipeline(cfg, table, loader)

	_, err := p.Build(context.Background())
	require.NoError(t, err)
	rep, err := p.Diagnose(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Routes[0].ParagraphCount)
	assert.Equal(t, 75, rep.Routes[0].SEOScore)

	res, err := p.Verify()
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.Equal(t, []string{verify.SignalParagraph}, res.Routes[0].MissingSignals)
}

type failingAssets struct{}

func (failingAssets) Build(context.Context) (bundler.Template, error) {
	return bundler.Template{}, &bundler.BundlerFailure{Command: "vite build", Output: "error TS2304", Err: errors.New("exit status 1")}
}

func TestBundlerFailureAbortsBeforeRendering(t *testing.T) {
	cfg := testConfig(t)
	p := New(cfg, twoRoutes(), failingAssets{}, twoPages(), logger.Nop())
	_, err := p.Build(context.Background())
	var bf *bundler.BundlerFailure
	require.True(t, errors.As(err, &bf))
	entries, err := os.ReadDir(cfg.OutDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestVerifyWithoutDiagnosticsFails(t *testing.T) {
	cfg := testConfig(t)
	p := newPipeline(cfg, twoRoutes(), twoPages())
	_, err := p.Build(context.Background())
	require.NoError(t, err)
	_, err = p.Verify()
	assert.Error(t, err)
}

func TestWatchRebuildsOnChange(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.md"), []byte("Home."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "about.md"), []byte("About."), 0o644))
	p := newPipeline(cfg, twoRoutes(), content.DirLoader(dir))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Watch(ctx, dir) }()

	h1 := func() string {
		rep, err := diagnostics.ReadReport(cfg.OutDir)
		if err != nil {
			return ""
		}
		e, _ := rep.Entry("/about")
		return e.H1
	}
	require.Eventually(t, func() bool { return h1() == "About" }, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "about.md"), []byte("---\nheading: Meet the team\n---\nWe are a small practice.\n"), 0o644))
	require.Eventually(t, func() bool { return h1() == "Meet the team" }, 5*time.Second, 20*time.Millisecond)

	b, err := snapshot.Read(cfg.OutDir, "/about")
	require.NoError(t, err)
	assert.Contains(t, string(b), "We are a small practice.")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
