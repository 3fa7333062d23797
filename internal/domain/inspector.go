package domain

import (
	"iter"
	"log/slog"
	"path/filepath"

	"modsync.dev/pkg/modsync/internal/adapter"
	m "modsync.dev/pkg/modsync/internal/model"
)

// MaxSearchDepth bounds how deep below an extraction root mod roots are searched.
const MaxSearchDepth = 3

// ModRoots lazily yields every mod root under root in discovery order.
//
// If root itself holds a manifest it is the only root. Otherwise directories
// are searched depth-first up to MaxSearchDepth levels below root; a directory
// holding a manifest is yielded and not descended into. Unreadable directories
// contribute nothing.
func ModRoots(fsAdapter adapter.FSAdapter, root m.Path) iter.Seq[m.ModRoot] {
	return func(yield func(m.ModRoot) bool) {
		if HasManifest(fsAdapter, root) {
			yield(m.ModRoot{Path: root, Name: filepath.Base(string(root))})
			return
		}

		searchModRoots(fsAdapter, root, 1, yield)
	}
}

// FindModRoots collects ModRoots into a slice.
func FindModRoots(fsAdapter adapter.FSAdapter, root m.Path) []m.ModRoot {
	var roots []m.ModRoot
	for r := range ModRoots(fsAdapter, root) {
		roots = append(roots, r)
	}

	return roots
}

// searchModRoots visits the subdirectories of dir, which sit at depth below
// the search root. It returns false once yield asks to stop.
func searchModRoots(fsAdapter adapter.FSAdapter, dir m.Path, depth int, yield func(m.ModRoot) bool) bool {
	entries, err := fsAdapter.ReadDir(dir)
	if err != nil {
		slog.Debug("skipping unreadable directory", "dir", dir, "error", err)
		return true
	}

	for _, entry := range entries {
		child := m.Path(filepath.Join(string(dir), entry.Name()))
		if !fsAdapter.IsDir(child) {
			continue
		}

		if HasManifest(fsAdapter, child) {
			if !yield(m.ModRoot{Path: child, Name: entry.Name()}) {
				return false
			}

			continue
		}

		if depth < MaxSearchDepth && !searchModRoots(fsAdapter, child, depth+1, yield) {
			return false
		}
	}

	return true
}
