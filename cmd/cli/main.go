
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"harborview-ssg/internal/config"
	"harborview-ssg/internal/content"
	"harborview-ssg/internal/routes"
	"harborview-ssg/pkg/logger"
)

var (
	// Global flags
	verbose    bool
	configFile string
	outDir     string
	srcDir     string
	contentDir string
	routesFile string
	bundlerCmd string

	log *logger.Logger
	cfg config.Config
)

// errGate is returned after the report has already been printed.
var errGate = errors.New("gate failed")

var rootCmd = &cobra.Command{
	Use:   "harborview",
	Short: "Prerender, diagnose and verify the Harborview marketing site",
	Long: `harborview builds static HTML snapshots of every public route so that
crawlers get real content, then scans the snapshots for SEO signals and fails
the deploy when a critical page is missing any of them.

Typical pipeline:
  harborview build && harborview diagnose && harborview verify`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logger.New(verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		log = l
		c, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cfg = c
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			log.Sync()
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	pf.StringVar(&configFile, "config", "", "YAML config file (overrides environment)")
	pf.StringVar(&outDir, "out", "", "output directory (default dist, or SSG_OUT_DIR)")
	pf.StringVar(&srcDir, "src", "", "source tree the bundler runs in")
	pf.StringVar(&contentDir, "content", "", "markdown content directory (default: embedded pages)")
	pf.StringVar(&routesFile, "routes", "", "YAML route table (default: built-in routes)")
	pf.StringVar(&bundlerCmd, "bundler", "", "bundler command, e.g. \"npm run build\" (or SSG_BUNDLER)")

	buildCmd.Flags().BoolVar(&lenient, "lenient", false, "skip routes that fail to render instead of aborting")
	buildCmd.Flags().BoolVar(&skipBundle, "skip-bundle", false, "do not run the bundler; render into the existing output")
	buildCmd.Flags().StringVar(&templateFile, "template", "", "HTML template to use with --skip-bundle")

	checkCmd.Flags().StringVar(&urlsFile, "urls", "", "extra targets (csv with url column, or ndjson)")
	checkCmd.Flags().StringVar(&checkOut, "out", "", "NDJSON report file (default stdout)")
	checkCmd.Flags().IntVar(&concurrency, "concurrency", 4, "parallel requests")

	rootCmd.AddCommand(buildCmd, diagnoseCmd, verifyCmd, sitemapCmd, checkCmd, watchCmd, routesCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errGate) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

// loadConfig resolves the environment, then the config file, then flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	c, err := config.FromEnv()
	if err != nil {
		return c, err
	}
	if configFile != "" {
		if err := c.LoadFile(configFile); err != nil {
			return c, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("out") && cmd != checkCmd {
		c.OutDir = outDir
	}
	if flags.Changed("src") {
		c.SrcDir = srcDir
	}
	if flags.Changed("content") {
		c.ContentDir = contentDir
	}
	if flags.Changed("routes") {
		c.RoutesFile = routesFile
	}
	if flags.Changed("bundler") {
		c.Bundler = bundlerCmd
	}
	return c, c.Validate()
}

func loadTable() (routes.Table, error) {
	if cfg.RoutesFile == "" {
		t := routes.Default()
		return t, t.Validate()
	}
	return routes.Load(cfg.RoutesFile)
}

func loadContent() content.Loader {
	if cfg.ContentDir == "" {
		return content.Embedded()
	}
	return content.DirLoader(cfg.ContentDir)
}
