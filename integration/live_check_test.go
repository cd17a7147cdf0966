//go:build integration

package integration

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"harborview-ssg/internal/classifier"
	"harborview-ssg/internal/crawler"
	"harborview-ssg/internal/parser"
	"harborview-ssg/internal/routes"
)

// TestDeployedCriticalRoutes checks the deployed site at BASE_URL, e.g.
// BASE_URL=https://preview.harborview.example go test -tags integration ./integration
func TestDeployedCriticalRoutes(t *testing.T) {
	base := strings.TrimSuffix(os.Getenv("BASE_URL"), "/")
	if base == "" {
		t.Skip("skipping: BASE_URL not set")
	}

	var targets []crawler.Target
	for _, rt := range routes.Default().Critical() {
		targets = append(targets, crawler.Target{Route: rt.Path, URL: base + rt.Path})
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	for _, res := range crawler.NewChecker(30*time.Second, 4).Check(ctx, targets) {
		if res.Kind == crawler.KindConnectionRefused || res.Kind == crawler.KindTimeout {
			t.Skipf("skipping: %s unreachable: %s", res.URL, res.Error)
		}
		if !res.OK {
			t.Errorf("%s: %s %s", res.URL, res.Kind, res.Error)
		}
	}
}

func TestDeployedHomeScores(t *testing.T) {
	base := strings.TrimSuffix(os.Getenv("BASE_URL"), "/")
	if base == "" {
		t.Skip("skipping: BASE_URL not set")
	}

	client := crawler.NewHTTPClient(30*time.Second, 5*time.Second, 5*1024*1024)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	page, err := client.Fetch(ctx, base+"/")
	if err != nil {
		t.Skipf("skipping: fetch failed: %v", err)
	}
	defer page.Body.Close()

	s, err := parser.New().Extract(page.Body, page.ContentType)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	cl := classifier.New()
	if got := cl.Score(s); got != 100 {
		t.Errorf("expected home page score 100, got %d", got)
	}
	if len(cl.TopTerms(s.Text, 10)) == 0 {
		t.Errorf("expected non-empty top terms")
	}
}
