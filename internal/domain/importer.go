package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	m "modsync.dev/pkg/modsync/internal/model"
)

// ImportExisting packs every unmanaged mod folder found in the live directory
// into a library archive named after the folder.
//
// Folders starting with "." or "_", folders matching an ignore pattern and
// folders without a top-level manifest are skipped. Folders that already have
// an archive with the same stem, whatever the extension case, are reported as
// already present. A failure on one folder is
// recorded in the result and does not stop the others.
func (e *Engine) ImportExisting(ctx context.Context) (m.ImportResult, error) {
	result := m.ImportResult{}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	entries, err := e.fs.ReadDir(e.cfg.LivePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return result, nil
		}

		slog.Error("Failed to read live directory", "path", e.cfg.LivePath, "error", err)

		return result, ioFailure("import", "", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		folder := e.livePath(name)

		if !e.fs.IsDir(folder) || e.skipImport(name) {
			continue
		}
		if !HasManifest(e.fs, folder) {
			slog.Debug("Skipping folder without manifest", "folder", name)
			continue
		}

		existing, err := e.archivesNamed(name)
		if err != nil {
			slog.Error("Failed to read library", "folder", name, "error", err)

			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", name, ioFailure("import", name, err)))

			continue
		}

		if len(existing) > 0 {
			slog.Debug("Skipping folder already in library", "folder", name, "archive", existing[0])

			result.Names = append(result.Names, name)
			result.AlreadyPresent = append(result.AlreadyPresent, name)

			continue
		}

		if err := e.importFolder(name); err != nil {
			slog.Error("Failed to import folder", "folder", name, "error", err)

			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", name, err))

			continue
		}

		result.Imported++
		result.Names = append(result.Names, name)
	}

	return result, nil
}

func (e *Engine) skipImport(name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
		return true
	}

	for _, pattern := range e.cfg.ImportIgnore {
		if match, _ := doublestar.Match(pattern, name); match {
			slog.Debug("Skipping ignored folder", "folder", name, "pattern", pattern)
			return true
		}
	}

	return false
}

// importFolder writes <library>/<name>.zip from the live folder, removing the
// archive again if writing fails partway.
func (e *Engine) importFolder(name string) error {
	const op = "import"

	unlock := e.lockPackage(name)
	defer unlock()

	folder := e.livePath(name)

	if _, err := ReadManifest(e.fs, folder); err != nil {
		return invalidFormat(op, name, err)
	}

	archive := e.libraryPath(name + m.ArchiveExt)

	if err := e.archives.Create(folder, e.cfg.LivePath, archive); err != nil {
		if errors.Is(err, os.ErrExist) {
			return ioFailure(op, name, err)
		}

		if e.fs.Exists(archive) {
			if rmErr := e.fs.Remove(archive); rmErr != nil {
				slog.Error("Failed to remove partial archive", "archive", archive, "error", rmErr)
			}
		}

		return ioFailure(op, name, err)
	}

	slog.Info("Folder imported", "folder", name, "archive", archive)

	return nil
}
