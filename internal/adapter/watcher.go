package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	m "modsync.dev/pkg/modsync/internal/model"
)

// DirWatcher reports debounced change notifications for a set of directories.
// Only the directories themselves are watched, not their subtrees.
type DirWatcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	ignore   []string
	mu       sync.Mutex
}

// NewDirWatcher creates a watcher. Events whose base name matches one of the
// ignore patterns (doublestar syntax) are dropped.
func NewDirWatcher(debounce time.Duration, ignore ...string) (*DirWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &DirWatcher{
		watcher:  watcher,
		debounce: debounce,
		ignore:   ignore,
	}, nil
}

// Add starts watching dir.
func (w *DirWatcher) Add(dir m.Path) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.watcher.Add(string(dir)); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	return nil
}

// Run blocks until ctx is done, calling onChange once per burst of events.
func (w *DirWatcher) Run(ctx context.Context, onChange func()) error {
	var (
		timer   *time.Timer
		pending <-chan time.Time
	)

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			if w.shouldIgnore(event.Name) {
				continue
			}

			slog.Debug("watch event", "path", event.Name, "op", event.Op.String())

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}

			pending = timer.C

		case <-pending:
			pending = nil

			onChange()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}

			slog.Warn("watch error", "error", err)
		}
	}
}

// Close releases the underlying watcher.
func (w *DirWatcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.watcher.Close()
}

func (w *DirWatcher) shouldIgnore(path string) bool {
	base := filepath.Base(path)

	for _, pattern := range w.ignore {
		if match, _ := doublestar.Match(pattern, base); match {
			return true
		}
	}

	return false
}
