
// Package pipeline runs the build, diagnose and verify steps in order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

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

// AssetBuilder produces the HTML template (and, as a side effect, the bundle).
type AssetBuilder interface {
	Build(ctx context.Context) (bundler.Template, error)
}

// PageRenderer renders one route synchronously.
type PageRenderer interface {
	Render(path string) (models.RenderResult, error)
}

// RendererFactory builds a renderer over the pages resolved for this build.
type RendererFactory func(pages *content.Cache) (PageRenderer, error)

// StaticTemplate is an AssetBuilder for a template that already exists.
type StaticTemplate bundler.Template

func (t StaticTemplate) Build(context.Context) (bundler.Template, error) {
	return bundler.Template(t), nil
}

// DefaultRenderers wires the site renderer.
func DefaultRenderers(cfg config.Config, table routes.Table) RendererFactory {
	return func(pages *content.Cache) (PageRenderer, error) {
		return render.New(cfg, table, pages, render.DefaultPractice(cfg))
	}
}

type Pipeline struct {
	cfg       config.Config
	table     routes.Table
	assets    AssetBuilder
	loader    content.Loader
	renderers RendererFactory
	log       *logger.Logger
	now       func() time.Time
	reload    func() (routes.Table, error)
	lenient   bool
	workers   int
}

type Option func(*Pipeline)

// Lenient skips routes that fail to render and records them in the build
// status instead of aborting.
func Lenient(on bool) Option { return func(p *Pipeline) { p.lenient = on } }

func WithClock(now func() time.Time) Option { return func(p *Pipeline) { p.now = now } }

func WithRenderers(f RendererFactory) Option { return func(p *Pipeline) { p.renderers = f } }

// WithTableReload re-reads the route table before every watch rebuild.
func WithTableReload(f func() (routes.Table, error)) Option {
	return func(p *Pipeline) { p.reload = f }
}

func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

func New(cfg config.Config, table routes.Table, assets AssetBuilder, loader content.Loader, l *logger.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:     cfg,
		table:   table,
		assets:  assets,
		loader:  loader,
		log:     l,
		now:     time.Now,
		workers: runtime.NumCPU(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Build runs the asset builder, resolves page data, renders every route and
// writes snapshots, sitemap, robots and the build status. A bundler failure
// aborts before anything else is written. In strict mode the first render
// failure aborts the build.
func (p *Pipeline) Build(ctx context.Context) (models.BuildStatus, error) {
	start := p.now()
	tpl, err := p.assets.Build(ctx)
	if err != nil {
		return models.BuildStatus{}, err
	}

	pages, err := content.Prefetch(ctx, p.loader, p.table.Paths())
	if ctxErr := ctx.Err(); ctxErr != nil {
		return models.BuildStatus{}, ctxErr
	}
	if err != nil {
		p.log.Warnf("prefetch: %v", err)
	}
	factory := p.renderers
	if factory == nil {
		factory = DefaultRenderers(p.cfg, p.table)
	}
	r, err := factory(pages)
	if err != nil {
		return models.BuildStatus{}, fmt.Errorf("renderer: %w", err)
	}

	w := snapshot.NewWriter(p.cfg.OutDir)
	var (
		mu     sync.Mutex
		failed []models.FailedRoute
	)
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(p.workers)
	for _, rt := range p.table {
		eg.Go(func() error {
			if err := ectx.Err(); err != nil {
				return err
			}
			log := p.log.With("route", rt.Path)
			res, err := r.Render(rt.Path)
			if err != nil {
				if !p.lenient {
					return err
				}
				log.Errorf("%v (skipped)", err)
				mu.Lock()
				failed = append(failed, models.FailedRoute{Route: rt.Path, Error: err.Error()})
				mu.Unlock()
				return nil
			}
			path, err := w.Write(tpl, res)
			if err != nil {
				return err
			}
			log.Debugf("wrote %s", path)
			return nil
		})
	}
	renderErr := eg.Wait()

	status := models.BuildStatus{
		Environment: string(p.cfg.Environment),
		Timestamp:   p.now().UTC().Format(time.RFC3339),
		BuildID:     uuid.NewString(),
	}
	if renderErr != nil {
		var rf *render.RenderFailure
		if errors.As(renderErr, &rf) {
			status.FailedRoutes = []models.FailedRoute{{Route: rf.Route, Error: rf.Error()}}
		}
		if err := diagnostics.WriteBuildStatus(p.cfg.OutDir, status); err != nil {
			p.log.Errorf("write build status: %v", err)
		}
		return status, renderErr
	}

	sortFailed(failed, p.table)
	status.FailedRoutes = failed
	status.RoutesGenerated = len(p.table) - len(failed)
	status.Success = len(failed) == 0

	// the sitemap lists only pages that exist on disk
	if err := sitemap.Write(p.generated(failed), p.cfg, start); err != nil {
		return status, fmt.Errorf("sitemap: %w", err)
	}
	if err := diagnostics.WriteBuildStatus(p.cfg.OutDir, status); err != nil {
		return status, fmt.Errorf("build status: %w", err)
	}
	p.log.Infof("build %s: %d/%d routes generated in %s", status.BuildID, status.RoutesGenerated, len(p.table), p.now().Sub(start).Round(time.Millisecond))
	return status, nil
}

// sortFailed puts failures in route-table order so the status file is stable.
func sortFailed(failed []models.FailedRoute, table routes.Table) {
	idx := make(map[string]int, len(table))
	for i, rt := range table {
		idx[rt.Path] = i
	}
	sort.SliceStable(failed, func(i, j int) bool {
		return idx[failed[i].Route] < idx[failed[j].Route]
	})
}

func (p *Pipeline) generated(failed []models.FailedRoute) routes.Table {
	if len(failed) == 0 {
		return p.table
	}
	skip := make(map[string]bool, len(failed))
	for _, f := range failed {
		skip[f.Route] = true
	}
	out := make(routes.Table, 0, len(p.table)-len(failed))
	for _, rt := range p.table {
		if !skip[rt.Path] {
			out = append(out, rt)
		}
	}
	return out
}

// Diagnose scans the snapshots already on disk.
func (p *Pipeline) Diagnose(ctx context.Context) (models.AggregateReport, error) {
	return diagnostics.New(p.cfg, p.log).WithClock(p.now).Run(ctx, p.table)
}

// Verify reads the diagnostics artifacts and gates on them. Missing
// artifacts are an error, not a warning.
func (p *Pipeline) Verify() (verify.Result, error) {
	rep, err := diagnostics.ReadReport(p.cfg.OutDir)
	if err != nil {
		return verify.Result{}, fmt.Errorf("read %s (run diagnose first): %w", diagnostics.ReportFile, err)
	}
	status, err := diagnostics.ReadBuildStatus(p.cfg.OutDir)
	if err != nil {
		return verify.Result{}, fmt.Errorf("read %s (run build first): %w", diagnostics.BuildStatusFile, err)
	}
	return verify.Verify(p.table, rep, status), nil
}
