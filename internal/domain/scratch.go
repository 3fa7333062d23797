package domain

import (
	"log/slog"

	m "modsync.dev/pkg/modsync/internal/model"
)

const (
	countScratchPrefix    = "_count_"
	activateScratchPrefix = "_temp_"
)

// withScratchDir creates a private scratch directory in the library, runs fn
// with it and removes it on every exit path.
func (e *Engine) withScratchDir(prefix string, fn func(dir m.Path) error) error {
	dir, err := e.fs.CreateTempDir(e.cfg.LibraryPath, prefix)
	if err != nil {
		slog.Error("Failed to create scratch dir", "prefix", prefix, "error", err)
		return err
	}

	defer e.cleanupScratchDir(dir)

	return fn(dir)
}

// cleanupScratchDir removes the scratch directory, logging errors if cleanup fails.
func (e *Engine) cleanupScratchDir(dir m.Path) {
	if err := e.fs.RemoveAll(dir); err != nil {
		slog.Error("Failed to cleanup scratch dir", "dir", dir, "error", err)
	}
}
