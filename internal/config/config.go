
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Environment string

const (
	Production  Environment = "production"
	Preview     Environment = "preview"
	Development Environment = "development"
)

// ReservedPrefixes are never indexable, whatever the environment.
var ReservedPrefixes = []string{"/admin", "/api", "/__diagnostics"}

const DiagnosticsDir = "__diagnostics"

// Config is resolved once at startup and passed to every component that
// needs to know about the deployment.
type Config struct {
	BaseURL     string      `yaml:"base_url"`
	Environment Environment `yaml:"environment"`
	OutDir      string      `yaml:"out_dir"`
	SrcDir      string      `yaml:"src_dir"`
	ContentDir  string      `yaml:"content_dir"`
	RoutesFile  string      `yaml:"routes_file"`
	Bundler     string      `yaml:"bundler"`
	SiteName    string      `yaml:"site_name"`
	// LastMod pins sitemap lastmod; zero means the build date.
	LastMod time.Time `yaml:"-"`
	// ExposeDiagnostics forces the diagnostics endpoints on in production.
	ExposeDiagnostics bool          `yaml:"expose_diagnostics"`
	CheckTimeout      time.Duration `yaml:"check_timeout"`
}

// FromEnv reads BASE_URL, DEPLOY_ENV and the SSG_* variables.
func FromEnv() (Config, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Config, error) {
	get := func(k string) string {
		v, _ := lookup(k)
		return strings.TrimSpace(v)
	}
	c := Config{
		BaseURL:     get("BASE_URL"),
		Environment: Environment(strings.ToLower(get("DEPLOY_ENV"))),
		OutDir:      get("SSG_OUT_DIR"),
		Bundler:     get("SSG_BUNDLER"),
	}
	if v := get("SSG_EXPOSE_DIAGNOSTICS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("SSG_EXPOSE_DIAGNOSTICS: %w", err)
		}
		c.ExposeDiagnostics = b
	}
	if v := get("SSG_LASTMOD"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return Config{}, fmt.Errorf("SSG_LASTMOD: %w", err)
		}
		c.LastMod = t
	}
	c.defaults()
	return c, c.Validate()
}

// LoadFile overlays a YAML config file onto c. Empty file values keep c's.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var f Config
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	if f.BaseURL != "" {
		c.BaseURL = f.BaseURL
	}
	if f.Environment != "" {
		c.Environment = f.Environment
	}
	if f.OutDir != "" {
		c.OutDir = f.OutDir
	}
	if f.SrcDir != "" {
		c.SrcDir = f.SrcDir
	}
	if f.ContentDir != "" {
		c.ContentDir = f.ContentDir
	}
	if f.RoutesFile != "" {
		c.RoutesFile = f.RoutesFile
	}
	if f.Bundler != "" {
		c.Bundler = f.Bundler
	}
	if f.SiteName != "" {
		c.SiteName = f.SiteName
	}
	if f.CheckTimeout > 0 {
		c.CheckTimeout = f.CheckTimeout
	}
	c.ExposeDiagnostics = c.ExposeDiagnostics || f.ExposeDiagnostics
	c.defaults()
	return c.Validate()
}

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:8080"
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Environment == "" {
		c.Environment = Development
	}
	if c.OutDir == "" {
		c.OutDir = "dist"
	}
	if c.SrcDir == "" {
		c.SrcDir = "."
	}
	if c.SiteName == "" {
		c.SiteName = "Harborview Counseling"
	}
	if c.CheckTimeout <= 0 {
		c.CheckTimeout = 30 * time.Second
	}
}

func (c Config) Validate() error {
	switch c.Environment {
	case Production, Preview, Development:
	default:
		return fmt.Errorf("config: unknown DEPLOY_ENV %q", c.Environment)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("config: BASE_URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return errors.New("config: BASE_URL must be an absolute http(s) origin")
	}
	if u.Path != "" || u.RawQuery != "" {
		return errors.New("config: BASE_URL must not carry a path or query")
	}
	return nil
}

// Indexable is the single place deciding whether crawlers may index the site.
func (c Config) Indexable() bool { return c.Environment == Production }

func (c Config) DiagnosticsExposed() bool {
	return c.Environment != Production || c.ExposeDiagnostics
}

// RobotsDirective is the per-page robots meta value; empty means default.
func (c Config) RobotsDirective() string {
	if c.Indexable() {
		return ""
	}
	return "noindex, nofollow"
}

// CanonicalURL joins the base URL and a route path.
func (c Config) CanonicalURL(path string) string {
	if path == "" || path == "/" {
		return c.BaseURL + "/"
	}
	return c.BaseURL + path
}

// BuildDate is LastMod when pinned, otherwise now (UTC, date only).
func (c Config) BuildDate(now time.Time) time.Time {
	if !c.LastMod.IsZero() {
		return c.LastMod
	}
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
