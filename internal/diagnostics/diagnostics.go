
// Package diagnostics scans generated snapshots for SEO signals and writes
// the reports under __diagnostics/.
package diagnostics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"harborview-ssg/internal/classifier"
	"harborview-ssg/internal/config"
	"harborview-ssg/internal/models"
	"harborview-ssg/internal/parser"
	"harborview-ssg/internal/routes"
	"harborview-ssg/internal/snapshot"
	"harborview-ssg/pkg/logger"
)

const (
	ReportFile      = "seo.json"
	TextFile        = "html.txt"
	BuildStatusFile = "build-status.json"

	topTerms = 8
)

// ScanError is recorded on a route's entry; it never stops the report.
type ScanError struct {
	Route string
	Err   error
}

func (e *ScanError) Error() string { return fmt.Sprintf("scan %s: %v", e.Route, e.Err) }
func (e *ScanError) Unwrap() error { return e.Err }

type Generator struct {
	cfg     config.Config
	parser  *parser.Parser
	cl      *classifier.Classifier
	log     *logger.Logger
	now     func() time.Time
	workers int
}

func New(cfg config.Config, l *logger.Logger) *Generator {
	return &Generator{
		cfg:     cfg,
		parser:  parser.New(),
		cl:      classifier.New(),
		log:     l,
		now:     time.Now,
		workers: runtime.NumCPU(),
	}
}

// WithClock pins the report timestamp.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Dir is the diagnostics directory under an output root.
func Dir(outDir string) string { return filepath.Join(outDir, config.DiagnosticsDir) }

// Scan reads every route's snapshot from the configured output directory.
// Entries keep the table's order.
func (g *Generator) Scan(ctx context.Context, table routes.Table) (models.AggregateReport, error) {
	entries := make([]models.DiagnosticReport, len(table))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)
	for i, rt := range table {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			entries[i] = g.scanRoute(rt)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return models.AggregateReport{}, err
	}

	rep := models.AggregateReport{
		GeneratedAt: g.now().UTC(),
		Environment: string(g.cfg.Environment),
		BaseURL:     g.cfg.BaseURL,
		Routes:      entries,
	}
	total, n := 0, 0
	for _, e := range entries {
		if e.Error != "" {
			continue
		}
		total += e.SEOScore
		n++
	}
	if n > 0 {
		rep.AverageScore = float64(total) / float64(n)
	}
	return rep, nil
}

func (g *Generator) scanRoute(rt models.Route) models.DiagnosticReport {
	entry := models.DiagnosticReport{Route: rt.Path, Critical: rt.Critical, JSONLDTypes: []string{}}
	data, err := snapshot.Read(g.cfg.OutDir, rt.Path)
	if err != nil {
		se := &ScanError{Route: rt.Path, Err: err}
		g.log.Warnf("%v", se)
		entry.Error = se.Error()
		return entry
	}
	s, err := g.parser.Extract(bytes.NewReader(data), "text/html; charset=utf-8")
	if err != nil {
		se := &ScanError{Route: rt.Path, Err: err}
		g.log.Warnf("%v", se)
		entry.Error = se.Error()
		return entry
	}
	entry.HasTitle = s.Title != ""
	entry.Title = s.Title
	entry.HasH1 = s.H1Count > 0
	entry.H1 = s.H1
	entry.H1Count = s.H1Count
	entry.HasParagraph = s.ParagraphCount > 0
	entry.ParagraphCount = s.ParagraphCount
	entry.HasCanonical = s.Canonical != ""
	entry.Canonical = s.Canonical
	entry.HasDescription = s.Description != ""
	entry.Description = s.Description
	entry.JSONLDTypes = s.JSONLDTypes
	entry.InvalidJSONLD = s.InvalidJSONLD
	entry.ContentLength = s.ContentLength
	entry.EmptyShell = s.EmptyShell
	entry.SEOScore = g.cl.Score(s)
	entry.TopTerms = g.cl.TopTerms(s.Text, topTerms)
	return entry
}

// Run scans and writes seo.json and html.txt.
func (g *Generator) Run(ctx context.Context, table routes.Table) (models.AggregateReport, error) {
	rep, err := g.Scan(ctx, table)
	if err != nil {
		return rep, err
	}
	if err := WriteReport(g.cfg.OutDir, rep); err != nil {
		return rep, err
	}
	g.log.Infof("diagnostics: %d routes scanned, average score %.1f", len(rep.Routes), rep.AverageScore)
	return rep, nil
}

// WriteReport writes both the machine- and human-readable reports.
func WriteReport(outDir string, rep models.AggregateReport) error {
	if err := writeJSON(filepath.Join(Dir(outDir), ReportFile), rep); err != nil {
		return err
	}
	return writeFile(filepath.Join(Dir(outDir), TextFile), []byte(Text(rep)))
}

// ReadReport loads seo.json from an output root.
func ReadReport(outDir string) (models.AggregateReport, error) {
	var rep models.AggregateReport
	err := readJSON(filepath.Join(Dir(outDir), ReportFile), &rep)
	return rep, err
}

func WriteBuildStatus(outDir string, st models.BuildStatus) error {
	return writeJSON(filepath.Join(Dir(outDir), BuildStatusFile), st)
}

func ReadBuildStatus(outDir string) (models.BuildStatus, error) {
	var st models.BuildStatus
	err := readJSON(filepath.Join(Dir(outDir), BuildStatusFile), &st)
	return st, err
}

// Text renders the human-readable per-route report.
func Text(rep models.AggregateReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "SEO diagnostics  environment=%s  base=%s\n", rep.Environment, rep.BaseURL)
	fmt.Fprintf(&b, "generated %s\n", rep.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "average score %.1f/100 over %d routes\n", rep.AverageScore, len(rep.Routes))
	for _, e := range rep.Routes {
		b.WriteString("\n")
		crit := ""
		if e.Critical {
			crit = " [critical]"
		}
		if e.Error != "" {
			fmt.Fprintf(&b, "%s%s  ERROR: %s\n", e.Route, crit, e.Error)
			continue
		}
		fmt.Fprintf(&b, "%s%s  score=%d\n", e.Route, crit, e.SEOScore)
		fmt.Fprintf(&b, "  title:       %s\n", orMissing(e.Title))
		fmt.Fprintf(&b, "  h1 (%d):      %s\n", e.H1Count, orMissing(e.H1))
		fmt.Fprintf(&b, "  paragraphs:  %d\n", e.ParagraphCount)
		fmt.Fprintf(&b, "  canonical:   %s\n", orMissing(e.Canonical))
		fmt.Fprintf(&b, "  description: %s\n", orMissing(e.Description))
		types := strings.Join(e.JSONLDTypes, ", ")
		if e.InvalidJSONLD > 0 {
			types += fmt.Sprintf(" (+%d invalid)", e.InvalidJSONLD)
		}
		fmt.Fprintf(&b, "  json-ld:     %s\n", orMissing(types))
		fmt.Fprintf(&b, "  length:      %d bytes\n", e.ContentLength)
		if e.EmptyShell {
			b.WriteString("  body:        EMPTY SHELL\n")
		}
		if len(e.TopTerms) > 0 {
			fmt.Fprintf(&b, "  terms:       %s\n", strings.Join(e.TopTerms, ", "))
		}
	}
	return b.String()
}

func orMissing(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(missing)"
	}
	return s
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return writeFile(path, append(data, '\n'))
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
