
package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"harborview-ssg/internal/bundler"
	"harborview-ssg/internal/crawler"
	"harborview-ssg/internal/diagnostics"
	"harborview-ssg/internal/ioformats"
	"harborview-ssg/internal/pipeline"
	"harborview-ssg/internal/sitemap"
	"harborview-ssg/internal/verify"
)

var (
	lenient      bool
	skipBundle   bool
	templateFile string

	urlsFile    string
	checkOut    string
	concurrency int
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Bundle assets and write a static snapshot for every route",
	Long: `Runs the bundler (or writes the built-in template), renders every route of
the route table and writes <out>/<route>/index.html, sitemap.xml, robots.txt
and __diagnostics/build-status.json.

A bundler failure aborts before anything is rendered. By default the first
route that fails to render aborts the build; --lenient records it and goes on.`,
	RunE: runBuild,
}

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Scan the snapshots and write __diagnostics/seo.json and html.txt",
	RunE:  runDiagnose,
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Fail when a critical route is missing an SEO signal",
	RunE:  runVerify,
}

var sitemapCmd = &cobra.Command{
	Use:   "sitemap",
	Short: "Write sitemap.xml and robots.txt only",
	RunE:  runSitemap,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Fetch every route from the deployed BASE_URL and check title and h1",
	Long: `Requests BASE_URL + path for every route (plus any --urls targets) and
writes one NDJSON line per target. Timeouts, bad statuses, refused connections
and pages without a title or h1 are reported by kind.`,
	RunE: runCheck,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild and re-diagnose whenever content or routes change",
	RunE:  runWatch,
}

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List the route table",
	RunE:  runRoutes,
}

func assets() (pipeline.AssetBuilder, error) {
	if !skipBundle {
		return bundler.New(cfg.Bundler, cfg.SrcDir, cfg.OutDir, log), nil
	}
	if templateFile == "" {
		return pipeline.StaticTemplate(bundler.Default()), nil
	}
	tpl, err := bundler.LoadTemplate(templateFile)
	if err != nil {
		return nil, err
	}
	return pipeline.StaticTemplate(tpl), nil
}

func runBuild(cmd *cobra.Command, args []string) error {
	table, err := loadTable()
	if err != nil {
		return err
	}
	a, err := assets()
	if err != nil {
		return err
	}
	p := pipeline.New(cfg, table, a, loadContent(), log, pipeline.Lenient(lenient))
	st, err := p.Build(cmd.Context())
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "built %d/%d routes into %s (build %s)\n", st.RoutesGenerated, len(table), cfg.OutDir, st.BuildID)
	for _, f := range st.FailedRoutes {
		fmt.Fprintf(w, "  skipped %s: %s\n", f.Route, f.Error)
	}
	if !st.Success {
		fmt.Fprintf(w, "FAIL: %d route(s) failed to render\n", len(st.FailedRoutes))
		return errGate
	}
	return nil
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	table, err := loadTable()
	if err != nil {
		return err
	}
	p := pipeline.New(cfg, table, nil, nil, log)
	rep, err := p.Diagnose(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "scanned %d routes, average score %.1f -> %s\n",
		len(rep.Routes), rep.AverageScore, diagnostics.Dir(cfg.OutDir))
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	table, err := loadTable()
	if err != nil {
		return err
	}
	res, err := pipeline.New(cfg, table, nil, nil, log).Verify()
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "FAIL:", err)
		return errGate
	}
	verify.Print(cmd.OutOrStdout(), res)
	if !res.OK() {
		return errGate
	}
	return nil
}

func runSitemap(cmd *cobra.Command, args []string) error {
	table, err := loadTable()
	if err != nil {
		return err
	}
	if err := sitemap.Write(table, cfg, time.Now()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s and %s for %d routes\n", sitemap.SitemapFile, sitemap.RobotsFile, len(table))
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	table, err := loadTable()
	if err != nil {
		return err
	}
	targets := make([]crawler.Target, 0, len(table))
	for _, rt := range table {
		targets = append(targets, crawler.Target{Route: rt.Path, URL: cfg.CanonicalURL(rt.Path)})
	}
	if urlsFile != "" {
		extra, err := ioformats.ReadTargets(urlsFile)
		if err != nil {
			return fmt.Errorf("read %s: %w", urlsFile, err)
		}
		targets = append(targets, extra...)
	}

	results := crawler.NewChecker(cfg.CheckTimeout, concurrency).Check(cmd.Context(), targets)

	var w io.Writer = cmd.OutOrStdout()
	if checkOut != "" {
		f, err := os.Create(checkOut)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := ioformats.WriteNDJSON(w, results); err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if !r.OK {
			failed++
			log.Warnf("%s: %s %s", r.URL, r.Kind, r.Error)
		}
	}
	if failed > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "FAIL: %d of %d targets failed\n", failed, len(results))
		return errGate
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "OK: %d targets reachable\n", len(results))
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	if cfg.ContentDir == "" && cfg.RoutesFile == "" {
		return fmt.Errorf("nothing to watch: pass --content and/or --routes")
	}
	table, err := loadTable()
	if err != nil {
		return err
	}
	a, err := assets()
	if err != nil {
		return err
	}
	// Bundle once; rebuilds only re-render.
	tpl, err := a.Build(cmd.Context())
	if err != nil {
		return err
	}
	opts := []pipeline.Option{pipeline.Lenient(true)}
	if cfg.RoutesFile != "" {
		opts = append(opts, pipeline.WithTableReload(loadTable))
	}
	p := pipeline.New(cfg, table, pipeline.StaticTemplate(tpl), loadContent(), log, opts...)
	log.Infof("watching %s (ctrl-c to stop)", strings.Join(watchPaths(), ", "))
	return p.Watch(cmd.Context(), watchPaths()...)
}

func watchPaths() []string {
	var out []string
	if cfg.ContentDir != "" {
		out = append(out, cfg.ContentDir)
	}
	if cfg.RoutesFile != "" {
		out = append(out, cfg.RoutesFile)
	}
	return out
}

func runRoutes(cmd *cobra.Command, args []string) error {
	table, err := loadTable()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tPRIORITY\tCHANGEFREQ\tCRITICAL\tTITLE")
	for _, rt := range table {
		fmt.Fprintf(tw, "%s\t%.1f\t%s\t%t\t%s\n", rt.Path, rt.Priority, rt.ChangeFrequency, rt.Critical, rt.Title)
	}
	return tw.Flush()
}
