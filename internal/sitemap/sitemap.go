
// Package sitemap emits sitemap.xml and robots.txt from the route table.
package sitemap

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"harborview-ssg/internal/config"
	"harborview-ssg/internal/routes"
)

const (
	SitemapFile = "sitemap.xml"
	RobotsFile  = "robots.txt"
	namespace   = "http://www.sitemaps.org/schemas/sitemap/0.9"
)

type urlset struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []entry  `xml:"url"`
}

type entry struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// Sitemap renders one <url> per route. Routes without their own lastmod get
// the build date.
func Sitemap(table routes.Table, cfg config.Config, now time.Time) ([]byte, error) {
	def := cfg.BuildDate(now).Format("2006-01-02")
	set := urlset{Xmlns: namespace, URLs: make([]entry, 0, len(table))}
	for _, rt := range table {
		lastmod := def
		if rt.LastMod != "" {
			t, err := time.Parse("2006-01-02", rt.LastMod)
			if err != nil {
				return nil, fmt.Errorf("sitemap: %s: lastmod %q: %w", rt.Path, rt.LastMod, err)
			}
			lastmod = t.Format("2006-01-02")
		}
		set.URLs = append(set.URLs, entry{
			Loc:        cfg.CanonicalURL(rt.Path),
			LastMod:    lastmod,
			ChangeFreq: string(rt.ChangeFrequency),
			Priority:   strconv.FormatFloat(rt.Priority, 'f', 1, 64),
		})
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return nil, err
	}
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

// Robots allows everything but the reserved prefixes in production and
// blocks all crawling elsewhere.
func Robots(cfg config.Config) []byte {
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	if !cfg.Indexable() {
		b.WriteString("Disallow: /\n")
		return []byte(b.String())
	}
	b.WriteString("Allow: /\n")
	for _, p := range config.ReservedPrefixes {
		b.WriteString("Disallow: " + p + "\n")
	}
	b.WriteString("\nSitemap: " + cfg.BaseURL + "/" + SitemapFile + "\n")
	return []byte(b.String())
}

// Write emits both files at the output root.
func Write(table routes.Table, cfg config.Config, now time.Time) error {
	sm, err := Sitemap(table, cfg, now)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(cfg.OutDir, SitemapFile), sm, 0o644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cfg.OutDir, RobotsFile), Robots(cfg), 0o644)
}
