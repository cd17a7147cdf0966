
// Package routes holds the table of crawlable pages.
package routes

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"harborview-ssg/internal/models"
)

type Table []models.Route

// Default is the practice's page list.
func Default() Table {
	return Table{
		{Path: "/", Title: "Harborview Counseling | Therapy in Portland", Description: "Compassionate, evidence-based therapy for individuals and couples in Portland and online.", Priority: 1.0, ChangeFrequency: models.Weekly, Critical: true},
		{Path: "/about", Title: "About Us | Harborview Counseling", Description: "Meet the licensed therapists at Harborview Counseling and learn how we work.", Priority: 0.8, ChangeFrequency: models.Monthly, Critical: true},
		{Path: "/services", Title: "Therapy Services | Harborview Counseling", Description: "Individual therapy, couples therapy and telehealth sessions tailored to you.", Priority: 0.9, ChangeFrequency: models.Monthly, Critical: true},
		{Path: "/services/individual-therapy", Title: "Individual Therapy | Harborview Counseling", Description: "One-on-one therapy for anxiety, depression, stress and life transitions.", Priority: 0.8, ChangeFrequency: models.Monthly, Critical: true},
		{Path: "/services/couples-therapy", Title: "Couples Therapy | Harborview Counseling", Description: "Couples counseling to rebuild trust, improve communication and reconnect.", Priority: 0.8, ChangeFrequency: models.Monthly, Critical: true},
		{Path: "/approach", Title: "Our Approach | Harborview Counseling", Description: "How we combine CBT, ACT and attachment-focused therapy.", Priority: 0.6, ChangeFrequency: models.Yearly},
		{Path: "/faq", Title: "Frequently Asked Questions | Harborview Counseling", Description: "Answers about fees, insurance, scheduling and confidentiality.", Priority: 0.6, ChangeFrequency: models.Monthly},
		{Path: "/contact", Title: "Contact | Harborview Counseling", Description: "Book a free 15-minute consultation or send us a message.", Priority: 0.7, ChangeFrequency: models.Yearly, Critical: true},
		{Path: "/privacy", Title: "Privacy Policy | Harborview Counseling", Description: "How Harborview Counseling protects your personal and health information.", Priority: 0.3, ChangeFrequency: models.Yearly},
	}
}

type fileFormat struct {
	Routes []models.Route `yaml:"routes"`
}

// Load reads a YAML route file of the form `routes: [...]` and validates it.
func Load(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("routes: parse %s: %w", path, err)
	}
	t := Table(f.Routes)
	for i := range t {
		if t[i].ChangeFrequency == "" {
			t[i].ChangeFrequency = models.Monthly
		}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks path shape, uniqueness and the sitemap fields.
func (t Table) Validate() error {
	if len(t) == 0 {
		return errors.New("routes: table is empty")
	}
	seen := make(map[string]struct{}, len(t))
	var errs []error
	for _, r := range t {
		if err := ValidatePath(r.Path); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := seen[r.Path]; dup {
			errs = append(errs, fmt.Errorf("routes: duplicate path %q", r.Path))
		}
		seen[r.Path] = struct{}{}
		if strings.TrimSpace(r.Title) == "" {
			errs = append(errs, fmt.Errorf("routes: %s: empty title", r.Path))
		}
		if r.Priority < 0 || r.Priority > 1 {
			errs = append(errs, fmt.Errorf("routes: %s: priority %v out of range", r.Path, r.Priority))
		}
		switch r.ChangeFrequency {
		case models.Weekly, models.Monthly, models.Yearly:
		default:
			errs = append(errs, fmt.Errorf("routes: %s: unknown change frequency %q", r.Path, r.ChangeFrequency))
		}
	}
	return errors.Join(errs...)
}

// ValidatePath accepts absolute URL paths without query, fragment or
// trailing slash (root excepted).
func ValidatePath(p string) error {
	switch {
	case !strings.HasPrefix(p, "/"):
		return fmt.Errorf("routes: %q is not absolute", p)
	case strings.ContainsAny(p, "?#"):
		return fmt.Errorf("routes: %q carries a query or fragment", p)
	case p != "/" && strings.HasSuffix(p, "/"):
		return fmt.Errorf("routes: %q has a trailing slash", p)
	case strings.Contains(p, "//") || strings.Contains(p, ".."):
		return fmt.Errorf("routes: %q is not a clean path", p)
	case strings.ContainsAny(p, " \t\r\n\\"):
		return fmt.Errorf("routes: %q contains whitespace or backslash", p)
	}
	return nil
}

func (t Table) Lookup(path string) (models.Route, bool) {
	for _, r := range t {
		if r.Path == path {
			return r, true
		}
	}
	return models.Route{}, false
}

func (t Table) Critical() Table {
	var out Table
	for _, r := range t {
		if r.Critical {
			out = append(out, r)
		}
	}
	return out
}

func (t Table) Paths() []string {
	out := make([]string, len(t))
	for i, r := range t {
		out[i] = r.Path
	}
	return out
}
