
package pipeline

import (
	"context"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounce = 300 * time.Millisecond

// Watch rebuilds and re-diagnoses whenever a file under one of paths changes,
// until ctx is done. Directories are watched recursively; build errors are
// logged and watching continues.
func (p *Pipeline) Watch(ctx context.Context, paths ...string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	for _, root := range paths {
		if root == "" {
			continue
		}
		if err := addRecursive(w, root); err != nil {
			return err
		}
	}

	p.rebuild(ctx)

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				_ = addRecursive(w, ev.Name)
			}
			p.log.Debugf("change: %s", ev)
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			p.log.Warnf("watch: %v", err)
		case <-timer.C:
			p.rebuild(ctx)
		}
	}
}

func (p *Pipeline) rebuild(ctx context.Context) {
	if p.reload != nil {
		t, err := p.reload()
		if err != nil {
			p.log.Errorf("routes: %v", err)
			return
		}
		p.table = t
	}
	if _, err := p.Build(ctx); err != nil {
		p.log.Errorf("build: %v", err)
		return
	}
	rep, err := p.Diagnose(ctx)
	if err != nil {
		p.log.Errorf("diagnose: %v", err)
		return
	}
	p.log.Infof("rebuilt %d routes, average score %.1f", len(rep.Routes), rep.AverageScore)
}

func addRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path == root {
			return w.Add(path)
		}
		return nil
	})
}
