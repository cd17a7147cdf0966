
package classifier

import (
	"testing"

	"harborview-ssg/internal/models"
)

func TestScore(t *testing.T) {
	cl := New()
	full := models.Signals{H1Count: 1, ParagraphCount: 3, Canonical: "https://x.example/", JSONLDTypes: []string{"WebPage"}}
	if got := cl.Score(full); got != 100 {
		t.Fatalf("want 100, got %d", got)
	}
	// title and description are reported but not scored
	partial := models.Signals{Title: "t", Description: "d", H1Count: 2, JSONLDTypes: []string{}}
	if got := cl.Score(partial); got != 25 {
		t.Fatalf("want 25, got %d", got)
	}
	if got := cl.Score(models.Signals{}); got != 0 {
		t.Fatalf("want 0, got %d", got)
	}
}

func TestTopTerms(t *testing.T) {
	cl := New()
	topics := cl.TopTerms("therapy therapy couples couples couples anxiety and the", 3)
	if len(topics) != 3 || topics[0] != "couples" || topics[1] != "therapy" {
		t.Fatalf("unexpected topics: %#v", topics)
	}
	if got := cl.TopTerms("", 5); len(got) != 0 {
		t.Fatalf("want no topics, got %#v", got)
	}
}
