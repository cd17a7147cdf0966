
// Package verify is the build's acceptance gate over the diagnostics report.
package verify

import (
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"harborview-ssg/internal/models"
	"harborview-ssg/internal/routes"
)

// Signal names used in missingSignals.
const (
	SignalTitle          = "title"
	SignalH1             = "h1"
	SignalSingleH1       = "single-h1"
	SignalParagraph      = "paragraph"
	SignalCanonical      = "canonical"
	SignalCanonicalPath  = "canonical-path"
	SignalStructuredData = "structured-data"
	SignalContent        = "content"
	SignalReportEntry    = "report-entry"
)

// Failure lists what a route is missing.
type Failure struct {
	Route          string
	MissingSignals []string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: missing %s", f.Route, strings.Join(f.MissingSignals, ", "))
}

// RouteResult is the verdict for one route.
type RouteResult struct {
	Route          string         `json:"route"`
	Critical       bool           `json:"critical"`
	Outcome        models.Outcome `json:"outcome"`
	MissingSignals []string       `json:"missingSignals,omitempty"`
	Detail         string         `json:"detail,omitempty"`
}

type Result struct {
	Routes []RouteResult `json:"routes"`
}

// OK is false when any critical route is not ok.
func (r Result) OK() bool {
	for _, rr := range r.Routes {
		if rr.Critical && rr.Outcome != models.OutcomeOK {
			return false
		}
	}
	return true
}

// Failures returns a Failure for every critical route that is not ok.
func (r Result) Failures() []*Failure {
	var out []*Failure
	for _, rr := range r.Routes {
		if !rr.Critical || rr.Outcome == models.OutcomeOK {
			continue
		}
		missing := rr.MissingSignals
		if len(missing) == 0 {
			missing = []string{string(rr.Outcome)}
		}
		out = append(out, &Failure{Route: rr.Route, MissingSignals: missing})
	}
	return out
}

// Verify checks every route of the table against the report. Routes recorded
// as render failures in the build status are render-error; entries carrying a
// scan error are scan-error; everything else is ok or missing-signals.
func Verify(table routes.Table, rep models.AggregateReport, status models.BuildStatus) Result {
	res := Result{Routes: make([]RouteResult, 0, len(table))}
	for _, rt := range table {
		rr := RouteResult{Route: rt.Path, Critical: rt.Critical}
		if f, failed := status.Failed(rt.Path); failed {
			rr.Outcome = models.OutcomeRenderError
			rr.Detail = f.Error
			res.Routes = append(res.Routes, rr)
			continue
		}
		entry, ok := rep.Entry(rt.Path)
		switch {
		case !ok:
			rr.Outcome = models.OutcomeMissingSignals
			rr.MissingSignals = []string{SignalReportEntry}
		case entry.Error != "":
			rr.Outcome = models.OutcomeScanError
			rr.Detail = entry.Error
		default:
			rr.MissingSignals = Missing(rt, entry)
			rr.Outcome = models.OutcomeOK
			if len(rr.MissingSignals) > 0 {
				rr.Outcome = models.OutcomeMissingSignals
			}
		}
		res.Routes = append(res.Routes, rr)
	}
	return res
}

// Missing lists the hard requirements entry does not meet for rt.
func Missing(rt models.Route, e models.DiagnosticReport) []string {
	var m []string
	if !e.HasTitle {
		m = append(m, SignalTitle)
	}
	switch {
	case !e.HasH1:
		m = append(m, SignalH1)
	case e.H1Count > 1:
		m = append(m, SignalSingleH1)
	}
	if !e.HasParagraph {
		m = append(m, SignalParagraph)
	}
	switch {
	case !e.HasCanonical:
		m = append(m, SignalCanonical)
	case !canonicalMatches(e.Canonical, rt.Path):
		m = append(m, SignalCanonicalPath)
	}
	if len(e.JSONLDTypes) == 0 {
		m = append(m, SignalStructuredData)
	}
	if e.EmptyShell {
		m = append(m, SignalContent)
	}
	return m
}

// canonicalMatches compares the href's path with the route, ignoring a
// trailing slash.
func canonicalMatches(href, path string) bool {
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	return strings.TrimSuffix(u.Path, "/") == strings.TrimSuffix(path, "/")
}

// Print writes one line per route, sorted failures first, then the verdict.
func Print(w io.Writer, res Result) {
	rows := append([]RouteResult(nil), res.Routes...)
	sort.SliceStable(rows, func(i, j int) bool {
		return rank(rows[i]) < rank(rows[j])
	})
	for _, rr := range rows {
		level := "OK  "
		if rr.Outcome != models.OutcomeOK {
			level = "WARN"
			if rr.Critical {
				level = "FAIL"
			}
		}
		line := fmt.Sprintf("%s %-32s %s", level, rr.Route, rr.Outcome)
		if len(rr.MissingSignals) > 0 {
			line += " [" + strings.Join(rr.MissingSignals, ", ") + "]"
		}
		if rr.Detail != "" {
			line += " " + rr.Detail
		}
		fmt.Fprintln(w, line)
	}
	if res.OK() {
		fmt.Fprintf(w, "OK: SEO verification passed (routes=%d)\n", len(res.Routes))
		return
	}
	fmt.Fprintf(w, "FAIL: SEO verification failed (%d critical route(s))\n", len(res.Failures()))
}

func rank(rr RouteResult) int {
	switch {
	case rr.Outcome == models.OutcomeOK:
		return 2
	case rr.Critical:
		return 0
	default:
		return 1
	}
}
