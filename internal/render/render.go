
// Package render produces a route's page markup and head metadata without a
// browser. Render is synchronous and reads only data resolved beforehand.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"harborview-ssg/internal/config"
	"harborview-ssg/internal/content"
	"harborview-ssg/internal/models"
	"harborview-ssg/internal/routes"
	"harborview-ssg/internal/seo"
)

var ErrEmptyRender = errors.New("render produced no markup")

// RenderFailure names the route whose component tree could not be rendered.
type RenderFailure struct {
	Route string
	Err   error
}

func (e *RenderFailure) Error() string {
	return fmt.Sprintf("render %s: %v", e.Route, e.Err)
}

func (e *RenderFailure) Unwrap() error { return e.Err }

type Renderer struct {
	cfg      config.Config
	table    routes.Table
	pages    *content.Cache
	practice seo.Practice
	md       goldmark.Markdown
	policy   *bluemonday.Policy
	layout   *template.Template
}

// New wires a renderer over pre-fetched pages.
func New(cfg config.Config, table routes.Table, pages *content.Cache, practice seo.Practice) (*Renderer, error) {
	layout, err := template.New("layout").Parse(layoutTemplate)
	if err != nil {
		return nil, err
	}
	if practice.Name == "" {
		practice.Name = cfg.SiteName
	}
	if practice.URL == "" {
		practice.URL = cfg.CanonicalURL("/")
	}
	policy := bluemonday.UGCPolicy()
	// internal links must stay followable
	policy.RequireNoFollowOnLinks(false)
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithASTTransformers(util.Prioritized(demoteHeadings{}, 100)),
		),
	)
	return &Renderer{
		cfg:      cfg,
		table:    table,
		pages:    pages,
		practice: practice,
		md:       md,
		policy:   policy,
		layout:   layout,
	}, nil
}

// DefaultPractice is the business shown in the home page structured data.
func DefaultPractice(cfg config.Config) seo.Practice {
	return seo.Practice{
		Name:      cfg.SiteName,
		URL:       cfg.CanonicalURL("/"),
		Telephone: "+1-503-555-0142",
		Email:     "hello@harborview.example",
		Street:    "1200 SE Morrison St, Suite 300",
		City:      "Portland",
		Region:    "OR",
		Postal:    "97214",
	}
}

// Render renders path. A panic inside the component tree is returned as a
// RenderFailure rather than crashing the build.
func (r *Renderer) Render(path string) (res models.RenderResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			res = models.RenderResult{}
			err = &RenderFailure{Route: path, Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	page, ok := r.pages.Get(path)
	if !ok {
		return models.RenderResult{}, &RenderFailure{Route: path, Err: content.ErrNotFound}
	}
	route, known := r.table.Lookup(path)
	if !known {
		route = models.Route{Path: path, Title: page.Heading}
	}

	body, err := r.markdown(page.Body)
	if err != nil {
		return models.RenderResult{}, &RenderFailure{Route: path, Err: err}
	}

	view := pageView{
		SiteName:    r.cfg.SiteName,
		Nav:         r.nav(path),
		Breadcrumbs: r.crumbs(path),
		Heading:     firstNonEmpty(page.Heading, shortTitle(route.Title)),
		Summary:     page.Summary,
		Body:        template.HTML(body),
		FAQ:         page.FAQ,
	}
	if view.Heading == "" && strings.TrimSpace(body) == "" {
		return models.RenderResult{}, &RenderFailure{Route: path, Err: ErrEmptyRender}
	}

	var buf bytes.Buffer
	if err := r.layout.Execute(&buf, view); err != nil {
		return models.RenderResult{}, &RenderFailure{Route: path, Err: err}
	}
	return models.RenderResult{
		Route: path,
		HTML:  buf.String(),
		Head:  r.head(route, page, view.Breadcrumbs),
	}, nil
}

func (r *Renderer) markdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return r.policy.Sanitize(buf.String()), nil
}

func (r *Renderer) head(route models.Route, page content.Page, crumbs []crumb) models.HeadMetadata {
	title := firstNonEmpty(page.SEO.Title, route.Title, page.Heading)
	desc := firstNonEmpty(page.SEO.Description, route.Description, page.Summary)
	canonical := r.cfg.CanonicalURL(route.Path)

	meta := []models.MetaTag{
		{Property: "og:title", Content: title},
		{Property: "og:type", Content: "website"},
		{Property: "og:url", Content: canonical},
		{Property: "og:site_name", Content: r.cfg.SiteName},
	}
	if desc != "" {
		meta = append(meta, models.MetaTag{Property: "og:description", Content: desc})
	}
	if page.SEO.OGImage != "" {
		meta = append(meta, models.MetaTag{Property: "og:image", Content: page.SEO.OGImage})
	}
	meta = append(meta, models.MetaTag{Name: "twitter:card", Content: "summary"})

	var sd []map[string]any
	if route.Path == "/" {
		sd = append(sd, seo.WebSite(r.cfg.SiteName, canonical), seo.MedicalBusiness(r.practice))
	} else {
		sd = append(sd, seo.WebPage(title, desc, canonical))
		items := make([]seo.BreadcrumbItem, 0, len(crumbs))
		for _, c := range crumbs {
			items = append(items, seo.BreadcrumbItem{Name: c.Label, Item: r.cfg.CanonicalURL(c.Path)})
		}
		sd = append(sd, seo.BreadcrumbList(items))
	}
	if len(page.FAQ) > 0 {
		sd = append(sd, seo.FAQPage(page.FAQ))
	}

	return models.HeadMetadata{
		Title:          title,
		Description:    desc,
		Canonical:      canonical,
		Robots:         r.cfg.RobotsDirective(),
		Meta:           meta,
		StructuredData: sd,
	}
}

// demoteHeadings turns markdown level-1 headings into h2 so the layout's
// heading stays the only h1 on the page.
type demoteHeadings struct{}

func (demoteHeadings) Transform(doc *ast.Document, _ text.Reader, _ parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok && h.Level == 1 {
			h.Level = 2
		}
		return ast.WalkContinue, nil
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
