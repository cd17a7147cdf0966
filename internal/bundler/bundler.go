
// Package bundler produces the client bundle and the HTML template the
// snapshots are injected into.
package bundler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"harborview-ssg/pkg/logger"
)

const (
	HeadPlaceholder = "<!--app-head-->"
	RootPlaceholder = `<div id="root"></div>`
	TemplateFile    = "index.html"
)

// Template is the bundler's index.html with both placeholders present.
type Template struct {
	Raw string
}

const defaultTemplate = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<!--app-head-->
<link rel="stylesheet" href="/assets/index.css">
</head>
<body>
<div id="root"></div>
<script type="module" src="/assets/index.js"></script>
</body>
</html>
`

// Default is the built-in template used when no bundler is configured.
func Default() Template { return Template{Raw: defaultTemplate} }

// ParseTemplate checks that raw carries both injection points.
func ParseTemplate(raw string) (Template, error) {
	var missing []string
	if !strings.Contains(raw, HeadPlaceholder) {
		missing = append(missing, HeadPlaceholder)
	}
	if strings.Count(raw, RootPlaceholder) != 1 {
		missing = append(missing, RootPlaceholder)
	}
	if len(missing) > 0 {
		return Template{}, fmt.Errorf("template lacks placeholder(s) %s", strings.Join(missing, ", "))
	}
	return Template{Raw: raw}, nil
}

// LoadTemplate reads and checks a template file.
func LoadTemplate(path string) (Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Template{}, err
	}
	return ParseTemplate(string(data))
}

// BundlerFailure aborts the whole pipeline; Output is the tool's full output.
type BundlerFailure struct {
	Command string
	Output  string
	Err     error
}

func (e *BundlerFailure) Error() string {
	msg := fmt.Sprintf("bundler %q failed: %v", e.Command, e.Err)
	if strings.TrimSpace(e.Output) != "" {
		msg += "\n" + e.Output
	}
	return msg
}

func (e *BundlerFailure) Unwrap() error { return e.Err }

type Builder struct {
	command string
	srcDir  string
	outDir  string
	log     *logger.Logger
}

// New returns a builder. An empty command writes the built-in template.
func New(command, srcDir, outDir string, l *logger.Logger) *Builder {
	return &Builder{command: strings.TrimSpace(command), srcDir: srcDir, outDir: outDir, log: l}
}

// Build clears the output directory, runs the bundler and returns the
// template it produced. Any failure is a *BundlerFailure.
func (b *Builder) Build(ctx context.Context) (Template, error) {
	if err := Clean(b.outDir, b.srcDir); err != nil {
		return Template{}, &BundlerFailure{Command: b.command, Err: err}
	}
	if b.command == "" {
		b.log.Infof("no bundler configured, writing built-in template to %s", b.outDir)
		t := Default()
		if err := os.WriteFile(filepath.Join(b.outDir, TemplateFile), []byte(t.Raw), 0o644); err != nil {
			return Template{}, &BundlerFailure{Err: err}
		}
		return t, nil
	}

	absOut, err := filepath.Abs(b.outDir)
	if err != nil {
		return Template{}, &BundlerFailure{Command: b.command, Err: err}
	}
	b.log.Infof("running bundler: %s", b.command)
	cmd := exec.CommandContext(ctx, "sh", "-c", b.command)
	cmd.Dir = b.srcDir
	cmd.Env = append(os.Environ(), "SSG_OUT_DIR="+absOut)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return Template{}, &BundlerFailure{Command: b.command, Output: out.String(), Err: err}
	}
	b.log.Debugf("bundler output:\n%s", out.String())

	t, err := LoadTemplate(filepath.Join(b.outDir, TemplateFile))
	if err != nil {
		return Template{}, &BundlerFailure{Command: b.command, Output: out.String(), Err: err}
	}
	return t, nil
}

// Clean empties outDir, refusing paths that would take the source tree or
// the filesystem root with it.
func Clean(outDir, srcDir string) error {
	absOut, err := filepath.Abs(outDir)
	if err != nil {
		return err
	}
	if absOut == filepath.Dir(absOut) {
		return errors.New("refusing to clean filesystem root")
	}
	if srcDir != "" {
		absSrc, err := filepath.Abs(srcDir)
		if err != nil {
			return err
		}
		if rel, err := filepath.Rel(absOut, absSrc); err == nil && !strings.HasPrefix(rel, "..") {
			return fmt.Errorf("refusing to clean %s: it contains the source tree", absOut)
		}
	}
	if err := os.RemoveAll(absOut); err != nil {
		return err
	}
	return os.MkdirAll(absOut, 0o755)
}
