
// Package parser extracts SEO signals from an HTML document using a parse
// tree rather than pattern matching on the raw text.
package parser

import (
	"bytes"
	"encoding/json"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"harborview-ssg/internal/models"
)

type Parser struct{}

func New() *Parser { return &Parser{} }

var whitespaceRe = regexp.MustCompile(`\s+`)

// Extract parses one document. contentType may be empty for files on disk.
func (p *Parser) Extract(r io.Reader, contentType string) (models.Signals, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return models.Signals{}, err
	}

	enc, _, _ := charset.DetermineEncoding(data, contentType)
	utf8data, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		// fallback: if already utf-8, continue
		if !utf8.Valid(data) {
			return models.Signals{}, err
		}
		utf8data = data
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(utf8data))
	if err != nil {
		return models.Signals{}, err
	}

	s := models.Signals{
		ContentLength: len(data),
		JSONLDTypes:   []string{},
	}

	// structured data first: the script blocks are stripped below
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		types, ok := jsonLDTypes(sel.Text())
		if !ok {
			s.InvalidJSONLD++
			return
		}
		s.JSONLDTypes = append(s.JSONLDTypes, types...)
	})

	s.Title = strings.TrimSpace(doc.Find("head title").First().Text())
	if s.Title == "" {
		s.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	s.Description = strings.TrimSpace(doc.Find(`meta[name="description"]`).AttrOr("content", ""))
	s.Canonical = strings.TrimSpace(doc.Find(`link[rel~="canonical"]`).AttrOr("href", ""))

	doc.Find("script,noscript,style,template").Each(func(_ int, sel *goquery.Selection) {
		sel.Remove()
	})

	h1s := doc.Find("body h1")
	s.H1Count = h1s.Length()
	s.H1 = normalise(h1s.First().Text())

	// only the page's own content counts; site chrome such as the footer
	// lives outside main
	scope := doc.Find("body main").First()
	if scope.Length() == 0 {
		scope = doc.Find("body")
	}
	var parts []string
	scope.Find("p").Each(func(_ int, sel *goquery.Selection) {
		if t := normalise(sel.Text()); t != "" {
			s.ParagraphCount++
			parts = append(parts, t)
		}
	})
	scope.Find("li").Each(func(_ int, sel *goquery.Selection) {
		if t := normalise(sel.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	s.Text = strings.Join(parts, " ")
	s.EmptyShell = isEmptyShell(doc)

	return s, nil
}

// isEmptyShell reports a document whose app container (or, without one, the
// body) holds no elements and no text: the bare client-side placeholder.
func isEmptyShell(doc *goquery.Document) bool {
	root := doc.Find("#root").First()
	if root.Length() == 0 {
		root = doc.Find("body").First()
	}
	if root.Length() == 0 {
		return true
	}
	return root.Children().Length() == 0 && strings.TrimSpace(root.Text()) == ""
}

func normalise(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// jsonLDTypes decodes one structured-data block and returns the declared
// @type values, following top-level arrays and @graph. ok is false when the
// block is not JSON or declares no type.
func jsonLDTypes(raw string) ([]string, bool) {
	var v any
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &v); err != nil {
		return nil, false
	}
	var types []string
	var walk func(any)
	walk = func(v any) {
		switch t := v.(type) {
		case []any:
			for _, e := range t {
				walk(e)
			}
		case map[string]any:
			switch ty := t["@type"].(type) {
			case string:
				if ty != "" {
					types = append(types, ty)
				}
			case []any:
				for _, e := range ty {
					if s, ok := e.(string); ok && s != "" {
						types = append(types, s)
					}
				}
			}
			if g, ok := t["@graph"]; ok {
				walk(g)
			}
		}
	}
	walk(v)
	return types, len(types) > 0
}
