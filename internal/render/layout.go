
package render

import (
	"html/template"
	"strings"

	"harborview-ssg/internal/seo"
)

type navItem struct {
	Path   string
	Label  string
	Active bool
}

type crumb struct {
	Path  string
	Label string
}

type pageView struct {
	SiteName    string
	Nav         []navItem
	Breadcrumbs []crumb
	Heading     string
	Summary     string
	Body        template.HTML
	FAQ         []seo.Question
}

const layoutTemplate = `<div class="site">
<header class="site-header">
<a class="brand" href="/">{{.SiteName}}</a>
<nav aria-label="Primary"><ul>
{{- range .Nav}}
<li><a href="{{.Path}}"{{if .Active}} aria-current="page"{{end}}>{{.Label}}</a></li>
{{- end}}
</ul></nav>
</header>
<main id="main">
{{- if .Breadcrumbs}}
<nav aria-label="Breadcrumb" class="breadcrumbs"><ol>
{{- range .Breadcrumbs}}
<li><a href="{{.Path}}">{{.Label}}</a></li>
{{- end}}
</ol></nav>
{{- end}}
<h1>{{.Heading}}</h1>
{{- if .Summary}}
<p class="lead">{{.Summary}}</p>
{{- end}}
<div class="content">
{{.Body}}</div>
{{- if .FAQ}}
<section class="faq">
{{- range .FAQ}}
<h2>{{.Q}}</h2>
<p>{{.A}}</p>
{{- end}}
</section>
{{- end}}
</main>
<footer class="site-footer">
<p>{{.SiteName}} &middot; <a href="/privacy">Privacy</a> &middot; <a href="/contact">Contact</a></p>
</footer>
</div>`

// nav lists home plus every top-level route, in table order.
func (r *Renderer) nav(current string) []navItem {
	var out []navItem
	for _, rt := range r.table {
		if rt.Path != "/" && strings.Count(rt.Path, "/") != 1 {
			continue
		}
		label := shortTitle(rt.Title)
		if rt.Path == "/" {
			label = "Home"
		}
		active := rt.Path == current || (rt.Path != "/" && strings.HasPrefix(current, rt.Path+"/"))
		out = append(out, navItem{Path: rt.Path, Label: label, Active: active})
	}
	return out
}

// crumbs builds Home > ancestors > page; the root page has none.
func (r *Renderer) crumbs(path string) []crumb {
	if path == "/" {
		return nil
	}
	out := []crumb{{Path: "/", Label: "Home"}}
	segs := strings.Split(strings.Trim(path, "/"), "/")
	for i := range segs {
		p := "/" + strings.Join(segs[:i+1], "/")
		label := prettify(segs[i])
		if rt, ok := r.table.Lookup(p); ok {
			label = shortTitle(rt.Title)
		}
		out = append(out, crumb{Path: p, Label: label})
	}
	return out
}

// shortTitle drops the " | Site" suffix from a document title.
func shortTitle(title string) string {
	if i := strings.Index(title, " | "); i >= 0 {
		return strings.TrimSpace(title[:i])
	}
	return strings.TrimSpace(title)
}

func prettify(slug string) string {
	parts := strings.Split(slug, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
