
package crawler

import (
	"context"
	"errors"
	"time"

	"harborview-ssg/internal/parser"
)

type Target struct {
	Route string `json:"route,omitempty"`
	URL   string `json:"url"`
}

// CheckResult is one line of the live-check report.
type CheckResult struct {
	Route     string      `json:"route,omitempty"`
	URL       string      `json:"url"`
	OK        bool        `json:"ok"`
	Status    int         `json:"status,omitempty"`
	ElapsedMs int64       `json:"elapsedMs"`
	Kind      FailureKind `json:"kind,omitempty"`
	Error     string      `json:"error,omitempty"`
	Title     string      `json:"title,omitempty"`
	H1        string      `json:"h1,omitempty"`
}

type Checker struct {
	client      *HTTPClient
	parser      *parser.Parser
	timeout     time.Duration
	concurrency int
}

// NewChecker applies timeout to every request; a timeout is reported as its
// own failure kind.
func NewChecker(timeout time.Duration, concurrency int) *Checker {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Checker{
		client:      NewHTTPClient(timeout, 5*time.Second, 5*1024*1024),
		parser:      parser.New(),
		timeout:     timeout,
		concurrency: concurrency,
	}
}

// Check fetches every target and never fails as a whole: each problem lands
// in that target's result. Results keep the input order.
func (c *Checker) Check(ctx context.Context, targets []Target) []CheckResult {
	results := make([]CheckResult, len(targets))

	sem := make(chan struct{}, c.concurrency)
	done := make(chan int, len(targets))

	for i, tg := range targets {
		sem <- struct{}{} // acquire
		go func() {
			defer func() { <-sem; done <- i }()
			results[i] = c.checkOne(ctx, tg)
		}()
	}
	for range targets {
		<-done
	}
	return results
}

func (c *Checker) checkOne(ctx context.Context, tg Target) CheckResult {
	res := CheckResult{Route: tg.Route, URL: tg.URL}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	page, err := c.client.Fetch(ctx, tg.URL)
	if err != nil {
		return fail(res, err, time.Since(start))
	}
	defer page.Body.Close()
	res.Status = page.Status

	s, err := c.parser.Extract(page.Body, page.ContentType)
	res.ElapsedMs = time.Since(start).Milliseconds()
	if err != nil {
		return fail(res, &CheckFailure{Kind: Classify(err), URL: tg.URL, Status: page.Status, Err: err}, time.Since(start))
	}
	res.Title = s.Title
	res.H1 = s.H1
	if s.Title == "" || s.H1Count == 0 {
		res.Kind = KindContent
		res.Error = "deployed page lacks title or h1"
		return res
	}
	res.OK = true
	return res
}

func fail(res CheckResult, err error, elapsed time.Duration) CheckResult {
	res.ElapsedMs = elapsed.Milliseconds()
	res.Error = err.Error()
	res.Kind = KindOther
	var cf *CheckFailure
	if errors.As(err, &cf) {
		res.Kind = cf.Kind
		if cf.Status != 0 {
			res.Status = cf.Status
		}
	}
	return res
}
