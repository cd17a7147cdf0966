
package seo

import (
	"html"
	"strings"

	"harborview-ssg/internal/models"
)

// HeadHTML renders head metadata as tags, one per line, in a fixed order.
func HeadHTML(h models.HeadMetadata) string {
	var b strings.Builder
	if h.Title != "" {
		b.WriteString("<title>" + html.EscapeString(h.Title) + "</title>\n")
	}
	if h.Description != "" {
		writeMeta(&b, "name", "description", h.Description)
	}
	if h.Robots != "" {
		writeMeta(&b, "name", "robots", h.Robots)
	}
	for _, m := range h.Meta {
		if m.Property != "" {
			writeMeta(&b, "property", m.Property, m.Content)
		} else if m.Name != "" {
			writeMeta(&b, "name", m.Name, m.Content)
		}
	}
	if h.Canonical != "" {
		b.WriteString(`<link rel="canonical" href="` + html.EscapeString(h.Canonical) + "\">\n")
	}
	for _, sd := range h.StructuredData {
		js := JSON(sd)
		if js == "" {
			continue
		}
		b.WriteString(`<script type="application/ld+json">` + js + "</script>\n")
	}
	return b.String()
}

func writeMeta(b *strings.Builder, attr, key, content string) {
	b.WriteString("<meta " + attr + `="` + html.EscapeString(key) + `" content="` + html.EscapeString(content) + "\">\n")
}
