package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"modsync.dev/pkg/modsync/internal/adapter"
	m "modsync.dev/pkg/modsync/internal/model"
)

// Activate materializes the archive packageFilename from the library as a
// package directory in the live directory.
//
// A single mod root is flattened into the package directory; several mod
// roots are placed side by side as named folders. Any previous activation of
// the package is replaced, never merged. If the archive holds no mod root or
// a manifest fails to parse, the live directory is left untouched.
func (e *Engine) Activate(ctx context.Context, packageFilename string) (m.ActivationResult, error) {
	const op = "activate"

	if err := ctx.Err(); err != nil {
		return m.ActivationResult{}, err
	}

	name := PackageName(packageFilename)
	archive := e.libraryPath(packageFilename)

	if !validEntryName(packageFilename) || name == "" || !e.fs.Exists(archive) || e.fs.IsDir(archive) {
		return m.ActivationResult{}, notFound(op, name, "archive %q is not in the library", packageFilename)
	}

	unlock := e.lockPackage(name)
	defer unlock()

	var result m.ActivationResult

	err := e.withScratchDir(activateScratchPrefix+name+"-", func(scratch m.Path) error {
		var err error

		result, err = e.activateFromScratch(op, name, archive, scratch)

		return err
	})
	if err != nil {
		var opErr *OpError
		if !errors.As(err, &opErr) {
			err = ioFailure(op, name, err)
		}

		slog.Error("Failed to activate package", "package", name, "error", err)

		return m.ActivationResult{}, err
	}

	slog.Info("Package activated", "package", name, "layout", result.Layout, "mods", len(result.Mods))

	return result, nil
}

func (e *Engine) activateFromScratch(op, name string, archive, scratch m.Path) (m.ActivationResult, error) {
	if err := e.archives.Extract(archive, scratch); err != nil {
		if errors.Is(err, adapter.ErrUnsafeEntry) {
			return m.ActivationResult{}, invalidFormat(op, name, err)
		}

		return m.ActivationResult{}, ioFailure(op, name, fmt.Errorf("extract: %w", err))
	}

	roots := FindModRoots(e.fs, scratch)
	if len(roots) == 0 {
		return m.ActivationResult{}, invalidFormat(op, name,
			fmt.Errorf("no %s found within %d directory levels", m.ManifestFileName, MaxSearchDepth))
	}

	mods, err := e.readModIDs(name, scratch, roots)
	if err != nil {
		return m.ActivationResult{}, invalidFormat(op, name, err)
	}

	liveDir := e.livePath(name)

	if e.fs.Exists(liveDir) {
		if err := e.fs.RemoveAll(liveDir); err != nil {
			return m.ActivationResult{}, ioFailure(op, name, fmt.Errorf("remove previous activation: %w", err))
		}
	}

	if err := e.fs.MkdirAll(liveDir); err != nil {
		return m.ActivationResult{}, ioFailure(op, name, err)
	}

	result := m.ActivationResult{Package: name, Dir: liveDir, Mods: mods}

	if len(roots) == 1 {
		result.Layout = m.LayoutFlattened
		err = e.moveContents(roots[0].Path, liveDir)
	} else {
		result.Layout = m.LayoutNested
		err = e.moveRoots(roots, liveDir)
	}

	if err != nil {
		e.discardPartialActivation(liveDir)
		return m.ActivationResult{}, ioFailure(op, name, err)
	}

	return result, nil
}

// readModIDs parses every root's manifest and returns one identifier per
// root: its UniqueID, or its folder name when the manifest carries none.
func (e *Engine) readModIDs(name string, scratch m.Path, roots []m.ModRoot) ([]string, error) {
	mods := make([]string, 0, len(roots))

	for _, root := range roots {
		manifest, err := ReadManifest(e.fs, root.Path)
		if err != nil {
			return nil, err
		}

		id := manifest.UniqueID
		if id == "" {
			slog.Warn("Manifest has no UniqueID", "package", name, "root", root.Name)

			id = root.Name
			if root.Path == scratch {
				id = name
			}
		}

		mods = append(mods, id)
	}

	return mods, nil
}

// moveContents moves every entry of src directly into dst.
func (e *Engine) moveContents(src, dst m.Path) error {
	entries, err := e.fs.ReadDir(src)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		target := m.Path(filepath.Join(string(dst), entry.Name()))
		if err := e.replace(m.Path(filepath.Join(string(src), entry.Name())), target); err != nil {
			return err
		}
	}

	return nil
}

// moveRoots moves each mod root, as a directory, into dst.
func (e *Engine) moveRoots(roots []m.ModRoot, dst m.Path) error {
	for _, root := range roots {
		target := m.Path(filepath.Join(string(dst), root.Name))
		if e.fs.Exists(target) {
			slog.Warn("Duplicate mod folder name, later one wins", "folder", root.Name, "source", root.Path)
		}

		if err := e.replace(root.Path, target); err != nil {
			return err
		}
	}

	return nil
}

// replace moves src to dst, deleting whatever already sits at dst.
func (e *Engine) replace(src, dst m.Path) error {
	if e.fs.Exists(dst) {
		if err := e.fs.RemoveAll(dst); err != nil {
			return fmt.Errorf("replace %s: %w", dst, err)
		}
	}

	if err := e.fs.Move(src, dst); err != nil {
		return fmt.Errorf("move %s: %w", filepath.Base(string(src)), err)
	}

	return nil
}

// discardPartialActivation removes a half-populated package directory.
func (e *Engine) discardPartialActivation(liveDir m.Path) {
	if err := e.fs.RemoveAll(liveDir); err != nil {
		slog.Error("Failed to remove partial activation", "dir", liveDir, "error", err)
	}
}
