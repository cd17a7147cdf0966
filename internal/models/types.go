
package models

import "time"

type ChangeFrequency string

const (
	Weekly  ChangeFrequency = "weekly"
	Monthly ChangeFrequency = "monthly"
	Yearly  ChangeFrequency = "yearly"
)

// Route is one crawlable page and the SEO metadata it is expected to carry.
type Route struct {
	Path            string          `json:"path" yaml:"path"`
	Title           string          `json:"title" yaml:"title"`
	Description     string          `json:"description" yaml:"description"`
	Priority        float64         `json:"priority" yaml:"priority"`
	ChangeFrequency ChangeFrequency `json:"changeFrequency" yaml:"change_frequency"`
	Critical        bool            `json:"critical" yaml:"critical"`
	LastMod         string          `json:"lastMod,omitempty" yaml:"lastmod,omitempty"`
}

type MetaTag struct {
	Name     string `json:"name,omitempty"`
	Property string `json:"property,omitempty"`
	Content  string `json:"content"`
}

type HeadMetadata struct {
	Title          string           `json:"title"`
	Description    string           `json:"description,omitempty"`
	Canonical      string           `json:"canonical,omitempty"`
	Robots         string           `json:"robots,omitempty"`
	Meta           []MetaTag        `json:"meta,omitempty"`
	StructuredData []map[string]any `json:"structuredData,omitempty"`
}

type RenderResult struct {
	Route string       `json:"route"`
	HTML  string       `json:"html"`
	Head  HeadMetadata `json:"head"`
}

// Signals are the SEO markers found in one HTML document.
type Signals struct {
	Title          string   `json:"title,omitempty"`
	H1             string   `json:"h1,omitempty"`
	H1Count        int      `json:"h1Count"`
	ParagraphCount int      `json:"paragraphCount"`
	Canonical      string   `json:"canonical,omitempty"`
	Description    string   `json:"description,omitempty"`
	JSONLDTypes    []string `json:"jsonLdTypes"`
	InvalidJSONLD  int      `json:"invalidJsonLd,omitempty"`
	ContentLength  int      `json:"contentLength"`
	EmptyShell     bool     `json:"emptyShell"`
	Text           string   `json:"-"`
}

type DiagnosticReport struct {
	Route          string   `json:"route"`
	Critical       bool     `json:"critical"`
	HasTitle       bool     `json:"hasTitle"`
	Title          string   `json:"title,omitempty"`
	HasH1          bool     `json:"hasH1"`
	H1             string   `json:"h1,omitempty"`
	H1Count        int      `json:"h1Count"`
	HasParagraph   bool     `json:"hasParagraph"`
	ParagraphCount int      `json:"paragraphCount"`
	HasCanonical   bool     `json:"hasCanonical"`
	Canonical      string   `json:"canonical,omitempty"`
	HasDescription bool     `json:"hasDescription"`
	Description    string   `json:"description,omitempty"`
	JSONLDTypes    []string `json:"jsonLdTypes"`
	InvalidJSONLD  int      `json:"invalidJsonLd,omitempty"`
	ContentLength  int      `json:"contentLength"`
	EmptyShell     bool     `json:"emptyShell"`
	SEOScore       int      `json:"seoScore"`
	TopTerms       []string `json:"topTerms,omitempty"`
	Error          string   `json:"error,omitempty"`
}

// AggregateReport is the machine-readable diagnostics artifact (seo.json).
type AggregateReport struct {
	GeneratedAt  time.Time          `json:"generatedAt"`
	Environment  string             `json:"environment"`
	BaseURL      string             `json:"baseUrl"`
	AverageScore float64            `json:"averageScore"`
	Routes       []DiagnosticReport `json:"routes"`
}

// Entry returns the report entry for path, if any.
func (a AggregateReport) Entry(path string) (DiagnosticReport, bool) {
	for _, r := range a.Routes {
		if r.Route == path {
			return r, true
		}
	}
	return DiagnosticReport{}, false
}

type FailedRoute struct {
	Route string `json:"route"`
	Error string `json:"error"`
}

// BuildStatus summarises one build run; downstream tooling reads only this.
type BuildStatus struct {
	Success         bool          `json:"success"`
	RoutesGenerated int           `json:"routesGenerated"`
	Environment     string        `json:"environment"`
	Timestamp       string        `json:"timestamp"`
	BuildID         string        `json:"buildId,omitempty"`
	FailedRoutes    []FailedRoute `json:"failedRoutes,omitempty"`
}

// Failed reports whether path was recorded as a render failure.
func (b BuildStatus) Failed(path string) (FailedRoute, bool) {
	for _, f := range b.FailedRoutes {
		if f.Route == path {
			return f, true
		}
	}
	return FailedRoute{}, false
}

type Outcome string

const (
	OutcomeOK             Outcome = "ok"
	OutcomeMissingSignals Outcome = "missing-signals"
	OutcomeRenderError    Outcome = "render-error"
	OutcomeScanError      Outcome = "scan-error"
)
