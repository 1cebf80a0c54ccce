// Package watcher reports changed source files under a directory tree,
// debounced so an editor's burst of writes becomes one batch.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long the watcher waits for further changes.
const DefaultDebounce = 500 * time.Millisecond

// Config configures a Watcher.
type Config struct {
	Debounce time.Duration
	// Exclude lists directories whose contents are ignored, such as the
	// vault output folder.
	Exclude []string
	// Accept filters changed files; nil accepts everything.
	Accept func(path string) bool
}

// Handler receives a batch of changed files in sorted order.
type Handler func(ctx context.Context, paths []string)

// Watcher watches a directory tree recursively.
type Watcher struct {
	root    string
	cfg     Config
	exclude []string
	fsw     *fsnotify.Watcher
	logger  *zap.Logger
}

// New creates a watcher for root. Call Run to start it.
func New(root string, cfg Config, logger *zap.Logger) (*Watcher, error) {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", root, err)
	}
	exclude := make([]string, 0, len(cfg.Exclude))
	for _, dir := range cfg.Exclude {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", dir, err)
		}
		exclude = append(exclude, abs)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	return &Watcher{
		root:    absRoot,
		cfg:     cfg,
		exclude: exclude,
		fsw:     fsw,
		logger:  logger.Named("watcher"),
	}, nil
}

// Run watches until ctx is cancelled, calling handle for every debounced
// batch. Handler calls are sequential; events arriving meanwhile are
// batched for the next call.
func (w *Watcher) Run(ctx context.Context, handle Handler) error {
	defer w.fsw.Close()

	if err := w.addRecursive(w.root); err != nil {
		return err
	}
	w.logger.Info("watching", zap.String("root", w.root), zap.Duration("debounce", w.cfg.Debounce))

	timer := time.NewTimer(w.cfg.Debounce)
	timer.Stop()
	pending := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.track(event) {
				pending[event.Name] = true
				timer.Reset(w.cfg.Debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for path := range pending {
				batch = append(batch, path)
			}
			slices.Sort(batch)
			clear(pending)

			w.logger.Debug("changes detected", zap.Strings("paths", batch))
			handle(ctx, batch)
		}
	}
}

// track handles one event and reports whether it names a changed file.
func (w *Watcher) track(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	if w.excluded(event.Name) {
		return false
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return false
	}
	if info.IsDir() {
		if event.Has(fsnotify.Create) {
			if err := w.addRecursive(event.Name); err != nil {
				w.logger.Warn("watching new directory", zap.String("path", event.Name), zap.Error(err))
			}
		}
		return false
	}
	return w.Relevant(event.Name)
}

// Relevant reports whether a changed file should be reported.
func (w *Watcher) Relevant(path string) bool {
	if w.excluded(path) || strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	return w.cfg.Accept == nil || w.cfg.Accept(path)
}

func (w *Watcher) excluded(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return true
	}
	for _, dir := range w.exclude {
		if abs == dir || strings.HasPrefix(abs, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// addRecursive watches dir and every subdirectory except hidden and
// excluded ones.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		if path != dir && strings.HasPrefix(base, ".") || w.excluded(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}
