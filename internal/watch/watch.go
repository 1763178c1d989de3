// Package watch re-runs a callback when files under a directory change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce coalesces bursts of events such as editor saves.
const DefaultDebounce = 300 * time.Millisecond

// Config configures a Watcher.
type Config struct {
	Root     string
	Debounce time.Duration

	// Relevant filters events by slash-separated path relative to Root.
	// Nil accepts everything.
	Relevant func(rel string, isDir bool) bool

	// OnChange runs after a quiet period following relevant events. Runs
	// never overlap.
	OnChange func(ctx context.Context)

	Logger *zap.Logger
}

// Watcher watches a directory tree recursively.
type Watcher struct {
	cfg     Config
	fsw     *fsnotify.Watcher
	log     *zap.Logger
	watched int
}

// New creates the watcher and registers every relevant directory.
func New(cfg Config) (*Watcher, error) {
	if cfg.OnChange == nil {
		return nil, fmt.Errorf("watch: OnChange is required")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	info, err := os.Stat(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("watch root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch root %s is not a directory", cfg.Root)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch init failed: %w", err)
	}
	w := &Watcher{cfg: cfg, fsw: fsw, log: cfg.Logger}
	if err := w.addRecursive(cfg.Root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	w.log.Info("watching", zap.String("root", cfg.Root), zap.Int("directories", w.watched))
	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run delivers debounced changes until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.handle(ev) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.cfg.Debounce)
			fire = timer.C
		case <-fire:
			fire = nil
			w.log.Debug("change detected, running")
			w.cfg.OnChange(ctx)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}

// handle registers new directories and reports whether ev should trigger
// a run.
func (w *Watcher) handle(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	rel, err := filepath.Rel(w.cfg.Root, ev.Name)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	isDir := false
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			isDir = true
			if w.relevant(rel, true) {
				if err := w.addRecursive(ev.Name); err != nil {
					w.log.Warn("cannot watch new directory", zap.String("path", rel), zap.Error(err))
				}
			}
		}
	}
	if !w.relevant(rel, isDir) {
		return false
	}
	w.log.Debug("file event", zap.String("path", rel), zap.String("op", ev.Op.String()))
	return true
}

func (w *Watcher) relevant(rel string, isDir bool) bool {
	if w.cfg.Relevant == nil {
		return true
	}
	return w.cfg.Relevant(rel, isDir)
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.cfg.Root {
			rel, relErr := filepath.Rel(w.cfg.Root, path)
			if relErr == nil && !w.relevant(filepath.ToSlash(rel), true) {
				return filepath.SkipDir
			}
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		w.watched++
		return nil
	})
}
