package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reports changes to the input artifacts after a quiet period
type Watcher struct {
	watcher  *fsnotify.Watcher
	targets  map[string]bool // absolute artifact paths; directories match anything inside
	debounce time.Duration
	logger   *zap.Logger
}

// NewWatcher watches the given artifact paths. A file is watched through its parent
// directory so that editors replacing the file by rename are still seen.
func NewWatcher(paths []string, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		watcher:  fw,
		targets:  make(map[string]bool, len(paths)),
		debounce: debounce,
		logger:   logger,
	}

	watched := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fw.Close()
			return nil, err
		}
		info, err := os.Stat(abs)
		if err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}

		dir := filepath.Dir(abs)
		if info.IsDir() {
			dir = abs
		}
		w.targets[abs] = info.IsDir()

		if watched[dir] {
			continue
		}
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
		watched[dir] = true
	}

	return w, nil
}

// Run blocks until ctx is cancelled, calling onChange once per burst of changes
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context)) error {
	defer func() { _ = w.watcher.Close() }()

	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("artifact changed", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))

		case <-timer.C:
			onChange(ctx)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}

	name, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	if _, ok := w.targets[name]; ok {
		return true
	}
	if isDir, ok := w.targets[filepath.Dir(name)]; ok && isDir {
		return true
	}
	return false
}
