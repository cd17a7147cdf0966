
package seo

import (
	"encoding/json"
)

const schemaContext = "https://schema.org"

// JSON marshals v to a compact JSON string. It returns an empty string on error.
// encoding/json escapes <, > and &, so the result is safe inside a script block.
func JSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Practice describes the business behind the site.
type Practice struct {
	Name      string
	URL       string
	Telephone string
	Email     string
	Street    string
	City      string
	Region    string
	Postal    string
}

// MedicalBusiness returns the practice schema shown on the home page.
func MedicalBusiness(p Practice) map[string]any {
	m := map[string]any{
		"@context": schemaContext,
		"@type":    "MedicalBusiness",
		"name":     p.Name,
	}
	if p.URL != "" {
		m["url"] = p.URL
	}
	if p.Telephone != "" {
		m["telephone"] = p.Telephone
	}
	if p.Email != "" {
		m["email"] = p.Email
	}
	if p.Street != "" {
		m["address"] = map[string]any{
			"@type":           "PostalAddress",
			"streetAddress":   p.Street,
			"addressLocality": p.City,
			"addressRegion":   p.Region,
			"postalCode":      p.Postal,
		}
	}
	return m
}

// WebSite returns a minimal WebSite schema.
func WebSite(name, url string) map[string]any {
	m := map[string]any{
		"@context": schemaContext,
		"@type":    "WebSite",
		"name":     name,
	}
	if url != "" {
		m["url"] = url
	}
	return m
}

func WebPage(name, description, url string) map[string]any {
	m := map[string]any{
		"@context": schemaContext,
		"@type":    "WebPage",
		"name":     name,
	}
	if description != "" {
		m["description"] = description
	}
	if url != "" {
		m["url"] = url
	}
	return m
}

// BreadcrumbItem maps name and absolute item URL.
type BreadcrumbItem struct {
	Name string
	Item string
}

// BreadcrumbList builds schema.org BreadcrumbList.
func BreadcrumbList(items []BreadcrumbItem) map[string]any {
	el := make([]map[string]any, 0, len(items))
	for i, it := range items {
		el = append(el, map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     it.Name,
			"item":     it.Item,
		})
	}
	return map[string]any{
		"@context":        schemaContext,
		"@type":           "BreadcrumbList",
		"itemListElement": el,
	}
}

type Question struct {
	Q string `yaml:"q"`
	A string `yaml:"a"`
}

// FAQPage builds a FAQPage schema from question/answer pairs.
func FAQPage(qs []Question) map[string]any {
	el := make([]map[string]any, 0, len(qs))
	for _, q := range qs {
		el = append(el, map[string]any{
			"@type": "Question",
			"name":  q.Q,
			"acceptedAnswer": map[string]any{
				"@type": "Answer",
				"text":  q.A,
			},
		})
	}
	return map[string]any{
		"@context":   schemaContext,
		"@type":      "FAQPage",
		"mainEntity": el,
	}
}
