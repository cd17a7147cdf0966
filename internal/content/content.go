
// Package content loads page bodies (markdown with YAML front matter) and
// holds them in a build-scoped cache for the synchronous renderer.
package content

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"harborview-ssg/internal/seo"
)

//go:embed pages
var embedded embed.FS

var ErrNotFound = errors.New("content: page not found")

// Page is the data one route's component tree renders from.
type Page struct {
	Route     string
	Heading   string
	Summary   string
	Body      string
	FAQ       []seo.Question
	UpdatedAt time.Time
	SEO       PageSEO
}

// PageSEO holds optional head overrides.
type PageSEO struct {
	Title       string
	Description string
	OGImage     string
}

type frontMatter struct {
	Heading   string         `yaml:"heading"`
	Summary   string         `yaml:"summary"`
	UpdatedAt string         `yaml:"updated_at"`
	FAQ       []seo.Question `yaml:"faq"`
	SEO       struct {
		Title       string `yaml:"title"`
		Description string `yaml:"description"`
		OGImage     string `yaml:"og_image"`
	} `yaml:"seo"`
}

// Loader resolves the data for one route. Implementations may block.
type Loader interface {
	Load(ctx context.Context, route string) (Page, error)
}

// FSLoader reads <route>.md files from a filesystem; "/" maps to index.md.
type FSLoader struct {
	fsys fs.FS
}

func NewFSLoader(fsys fs.FS) *FSLoader { return &FSLoader{fsys: fsys} }

// DirLoader reads pages from a directory on disk.
func DirLoader(dir string) *FSLoader { return NewFSLoader(os.DirFS(dir)) }

// Embedded returns the loader for the pages shipped with the binary.
func Embedded() *FSLoader {
	sub, err := fs.Sub(embedded, "pages")
	if err != nil {
		panic(err)
	}
	return NewFSLoader(sub)
}

// FileFor maps a route path to its markdown file name.
func FileFor(route string) string {
	p := strings.Trim(route, "/")
	if p == "" {
		return "index.md"
	}
	return path.Clean(p) + ".md"
}

func (l *FSLoader) Load(ctx context.Context, route string) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	name := FileFor(route)
	data, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Page{}, fmt.Errorf("%w: %s (%s)", ErrNotFound, route, name)
		}
		return Page{}, err
	}
	return Parse(route, string(data))
}

// Parse splits front matter from the markdown body.
func Parse(route, src string) (Page, error) {
	fm, body := splitFrontMatter(src)
	var front frontMatter
	if strings.TrimSpace(fm) != "" {
		if err := yaml.Unmarshal([]byte(fm), &front); err != nil {
			return Page{}, fmt.Errorf("content: parse front matter for %s: %w", route, err)
		}
	}
	p := Page{
		Route:     route,
		Heading:   strings.TrimSpace(front.Heading),
		Summary:   strings.TrimSpace(front.Summary),
		Body:      body,
		FAQ:       front.FAQ,
		UpdatedAt: parseDate(front.UpdatedAt),
		SEO: PageSEO{
			Title:       strings.TrimSpace(front.SEO.Title),
			Description: strings.TrimSpace(front.SEO.Description),
			OGImage:     strings.TrimSpace(front.SEO.OGImage),
		},
	}
	return p, nil
}

func splitFrontMatter(input string) (string, string) {
	input = strings.TrimLeft(input, "\ufeff")
	lines := strings.Split(input, "\n")
	if strings.TrimSpace(lines[0]) != "---" {
		return "", input
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			fm := strings.Join(lines[1:i], "\n")
			body := strings.Join(lines[i+1:], "\n")
			return fm, strings.TrimLeft(body, "\n\r")
		}
	}
	return "", input
}

func parseDate(v string) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Cache holds pre-fetched pages for one build. It is created per build and
// handed to the renderer; nothing about it is package-level.
type Cache struct {
	mu    sync.RWMutex
	pages map[string]Page
}

func NewCache() *Cache { return &Cache{pages: map[string]Page{}} }

func (c *Cache) Get(route string) (Page, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.pages[route]
	if ok {
		p.FAQ = append([]seo.Question(nil), p.FAQ...)
	}
	return p, ok
}

func (c *Cache) Put(p Page) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[p.Route] = p
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pages)
}

// Prefetch resolves every route's data before any render happens. A route
// whose data is missing is left out of the cache and reported in the joined
// error, so the renderer fails it by name.
func Prefetch(ctx context.Context, l Loader, routes []string) (*Cache, error) {
	c := NewCache()
	var errs []error
	for _, r := range routes {
		p, err := l.Load(ctx, r)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return c, ctxErr
			}
			errs = append(errs, fmt.Errorf("%s: %w", r, err))
			continue
		}
		c.Put(p)
	}
	return c, errors.Join(errs...)
}
