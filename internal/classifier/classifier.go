
// Package classifier scores a page's SEO signals and picks its dominant terms.
package classifier

import (
	"sort"
	"strings"
	"unicode"

	"harborview-ssg/internal/models"
)

type Classifier struct{}

func New() *Classifier { return &Classifier{} }

// simple stopword list (extend as needed)
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "of": {}, "to": {}, "in": {}, "a": {}, "for": {}, "is": {}, "on": {}, "with": {}, "as": {},
	"by": {}, "at": {}, "from": {}, "that": {}, "this": {}, "it": {}, "an": {}, "be": {}, "or": {}, "are": {}, "was": {},
	"will": {}, "has": {}, "have": {}, "had": {}, "but": {}, "not": {}, "your": {}, "you": {}, "we": {}, "our": {},
	"can": {}, "who": {}, "what": {}, "how": {}, "each": {}, "every": {}, "more": {}, "into": {}, "than": {}, "us": {},
}

const (
	pointsH1             = 25
	pointsParagraph      = 25
	pointsCanonical      = 25
	pointsStructuredData = 25
)

// Score is the composite SEO score out of 100: 25 each for an h1, a
// paragraph, a canonical link and at least one structured-data block.
func (c *Classifier) Score(s models.Signals) int {
	score := 0
	if s.H1Count > 0 {
		score += pointsH1
	}
	if s.ParagraphCount > 0 {
		score += pointsParagraph
	}
	if s.Canonical != "" {
		score += pointsCanonical
	}
	if len(s.JSONLDTypes) > 0 {
		score += pointsStructuredData
	}
	return score
}

// TopTerms returns top N keywords by frequency, ignoring stopwords and short tokens.
func (c *Classifier) TopTerms(text string, n int) []string {
	freq := map[string]int{}
	token := func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsNumber(r) }
	words := strings.FieldsFunc(strings.ToLower(text), token)

	for _, w := range words {
		if len(w) < 3 {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		freq[w]++
	}

	type kv struct {
		K string
		V int
	}
	var list []kv
	for k, v := range freq {
		list = append(list, kv{k, v})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].V == list[j].V {
			return list[i].K < list[j].K
		}
		return list[i].V > list[j].V
	})
	if n > len(list) {
		n = len(list)
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, list[i].K)
	}
	return out
}
