// Package watch re-runs the documentation pipeline whenever the
// watched trees change, with debouncing so editor save bursts trigger
// a single run.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.skognes.net/docs/docsci/internal/logfields"
)

// RunFunc executes one pipeline run and returns its exit code.
type RunFunc func(ctx context.Context) int

// Watcher triggers runs on filesystem changes.
type Watcher struct {
	roots    []string
	run      RunFunc
	debounce time.Duration
}

// New creates a watcher over the given root directories.
func New(roots []string, run RunFunc) *Watcher {
	return &Watcher{
		roots:    roots,
		run:      run,
		debounce: 2 * time.Second, // collapse rapid file change bursts
	}
}

// WithDebounce overrides the debounce interval (tests).
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	if d > 0 {
		w.debounce = d
	}
	return w
}

// Start performs an initial run, then re-runs on every debounced
// change burst until the context is cancelled. It returns the exit
// code of the last run.
func (w *Watcher) Start(ctx context.Context) (int, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return 1, fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	for _, root := range w.roots {
		if err := addRecursive(watcher, root); err != nil {
			return 1, err
		}
	}
	slog.Info("Watching for changes", logfields.Count(len(w.roots)))

	code := w.run(ctx)

	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return code, nil
		case event, ok := <-watcher.Events:
			if !ok {
				return code, nil
			}
			if !relevant(event) {
				continue
			}
			slog.Debug("Change detected", logfields.Path(event.Name))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
			// New directories must be picked up or edits under them
			// would go unseen.
			if event.Op.Has(fsnotify.Create) {
				_ = addRecursive(watcher, event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return code, nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		case <-timerC:
			timer = nil
			timerC = nil
			code = w.run(ctx)
		}
	}
}

// relevant filters events down to content mutations of visible files.
func relevant(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return false
	}
	return !strings.HasPrefix(filepath.Base(event.Name), ".")
}

// addRecursive watches root and every directory below it. Non-existent
// or non-directory roots are ignored.
func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // unreadable subtrees are skipped, not fatal
		}
		if !d.IsDir() {
			return nil
		}
		if name := d.Name(); name != "." && strings.HasPrefix(name, ".") {
			return fs.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			slog.Warn("Failed to watch directory", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}
