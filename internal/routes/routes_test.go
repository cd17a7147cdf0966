
package routes

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"harborview-ssg/internal/models"
)

func TestDefaultTableIsValid(t *testing.T) {
	tbl := Default()
	require.NoError(t, tbl.Validate())
	r, ok := tbl.Lookup("/")
	require.True(t, ok)
	assert.True(t, r.Critical)
	assert.NotEmpty(t, tbl.Critical())
	assert.Len(t, tbl.Paths(), len(tbl))
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]Table{
		"empty":     {},
		"relative":  {{Path: "about", Title: "x", ChangeFrequency: models.Monthly}},
		"query":     {{Path: "/about?x=1", Title: "x", ChangeFrequency: models.Monthly}},
		"trailing":  {{Path: "/about/", Title: "x", ChangeFrequency: models.Monthly}},
		"duplicate": {{Path: "/a", Title: "a", ChangeFrequency: models.Monthly}, {Path: "/a", Title: "b", ChangeFrequency: models.Monthly}},
		"priority":  {{Path: "/a", Title: "a", Priority: 1.5, ChangeFrequency: models.Monthly}},
		"freq":      {{Path: "/a", Title: "a", ChangeFrequency: "daily"}},
		"title":     {{Path: "/a", ChangeFrequency: models.Monthly}},
	}
	for name, tbl := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, tbl.Validate())
		})
	}
}

func TestLoad(t *testing.T) {
	p := filepath.Join(t.TempDir(), "routes.yaml")
	src := `routes:
  - path: /
    title: Home
    priority: 1
    change_frequency: weekly
    critical: true
  - path: /about
    title: About
    priority: 0.5
`
	require.NoError(t, os.WriteFile(p, []byte(src), 0o644))
	tbl, err := Load(p)
	require.NoError(t, err)
	require.Len(t, tbl, 2)
	assert.Equal(t, models.Weekly, tbl[0].ChangeFrequency)
	assert.Equal(t, models.Monthly, tbl[1].ChangeFrequency)
	assert.Len(t, tbl.Critical(), 1)
}
