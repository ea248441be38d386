package sake

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const watchDebounce = 300 * time.Millisecond

// watchTask maps a changed file to the task that recompiles it.
func watchTask(name string) string {
	base := filepath.Base(name)
	switch {
	case strings.HasSuffix(base, ".min.js"), strings.HasSuffix(base, ".min.css"), strings.HasSuffix(base, ".map"):
		return ""
	case strings.HasSuffix(base, ".scss"):
		return "compile:styles"
	case strings.HasSuffix(base, ".coffee"):
		return "compile:coffee"
	case strings.HasSuffix(base, ".js"):
		return "compile:js"
	}
	return ""
}

// watch recompiles styles and scripts when their sources change, until
// the context is cancelled.
func (s *Sake) watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	for _, dir := range []string{s.cssDir(), s.jsDir()} {
		if err := s.watchTree(w, dir); err != nil {
			return err
		}
	}
	s.Log.Info("Watching for changes, press Ctrl+C to stop")
	return s.watchLoop(ctx, w, w.Events, w.Errors, watchDebounce)
}

// watchTree adds dir and its subdirectories to w. fsnotify is not recursive.
func (s *Sake) watchTree(w *fsnotify.Watcher, dir string) error {
	if ok, _ := afero.DirExists(s.Fs, dir); !ok {
		return nil
	}
	return afero.Walk(s.Fs, dir, func(p string, info os.FileInfo, err error) error {
		if err != nil || !info.IsDir() {
			return err
		}
		if strings.HasPrefix(info.Name(), ".") || info.Name() == "node_modules" {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}

// watchLoop collects changes and runs the affected tasks once the events
// settle. A failing compile is logged and watching continues. w may be nil
// when new directories need not be followed.
func (s *Sake) watchLoop(ctx context.Context, w *fsnotify.Watcher, events <-chan fsnotify.Event, errs <-chan error, debounce time.Duration) error {
	pending := map[string]bool{}
	var order []string
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) && w != nil {
				if info, err := s.Fs.Stat(ev.Name); err == nil && info.IsDir() {
					if err := s.watchTree(w, ev.Name); err != nil {
						s.Log.Warn("Failed to watch "+ev.Name, zap.Error(err))
					}
					continue
				}
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			name := watchTask(ev.Name)
			if name == "" {
				continue
			}
			s.Log.Debug("changed", zap.String("file", ev.Name), zap.String("task", name))
			if !pending[name] {
				pending[name] = true
				order = append(order, name)
			}
			timer.Reset(debounce)

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			s.Log.Warn("Watcher error", zap.Error(err))

		case <-timer.C:
			for _, name := range order {
				if err := s.tasks.Run(ctx, name); err != nil {
					s.Log.Error("'"+name+"' failed", zap.Error(err))
				}
			}
			pending = map[string]bool{}
			order = nil
		}
	}
}
