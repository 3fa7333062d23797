package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	m "modsync.dev/pkg/modsync/internal/model"
)

// AddPackage copies the archive at source into the library, replacing any
// archive with the same package name. The filename is preserved verbatim, so
// adding Foo.zip over Foo.ZIP leaves only Foo.zip.
func (e *Engine) AddPackage(ctx context.Context, source m.Path) (m.LocalPackage, error) {
	const op = "add"

	if err := ctx.Err(); err != nil {
		return m.LocalPackage{}, err
	}

	filename := filepath.Base(string(source))
	name := PackageName(filename)

	info, err := e.fs.FileInfo(source)
	if err != nil {
		return m.LocalPackage{}, notFound(op, name, "%s: %w", source, err)
	}

	if info.IsDir() || !isArchiveName(filename) {
		return m.LocalPackage{}, invalidFormat(op, name, fmt.Errorf("only %s archives are supported", m.ArchiveExt))
	}

	unlock := e.lockPackage(name)
	defer unlock()

	dest := e.libraryPath(filename)

	if !samePath(source, dest) {
		if err := e.fs.CopyFile(source, dest); err != nil {
			slog.Error("Failed to copy archive into library", "source", source, "error", err)
			return m.LocalPackage{}, ioFailure(op, name, err)
		}
	}

	if err := e.removeSameNameArchives(name, filename); err != nil {
		return m.LocalPackage{}, ioFailure(op, name, err)
	}

	destInfo, err := e.fs.FileInfo(dest)
	if err != nil {
		return m.LocalPackage{}, ioFailure(op, name, err)
	}

	pkg, _ := e.describePackage(destInfo, nil)

	slog.Info("Package added", "package", name, "mods", pkg.ModCount)

	return pkg, nil
}

// DeletePackage removes an archive from the library. A live package
// directory matching it under match is deactivated first.
func (e *Engine) DeletePackage(ctx context.Context, packageName string, match m.MatchMode) (m.DeleteResult, error) {
	const op = "delete"

	if err := ctx.Err(); err != nil {
		return m.DeleteResult{}, err
	}

	filename, err := e.ResolvePackage(packageName, match)
	if err != nil {
		return m.DeleteResult{}, err
	}

	name := PackageName(filename)
	result := m.DeleteResult{Package: name, Filename: filename}

	liveName, err := e.resolveLiveName(ctx, op, name, match)
	if errors.Is(err, ErrAmbiguous) {
		return result, err
	}

	if err == nil {
		unlock := e.lockPackage(liveName)
		deactivated, deactivateErr := e.deactivateLocked(op, liveName)
		unlock()

		if deactivateErr != nil {
			return result, deactivateErr
		}

		result.Deactivated = true
		result.ModCount = deactivated.ModCount
	}

	unlock := e.lockPackage(name)
	defer unlock()

	if err := e.fs.Remove(e.libraryPath(filename)); err != nil {
		slog.Error("Failed to delete archive", "archive", filename, "error", err)
		return result, ioFailure(op, name, err)
	}

	slog.Info("Package deleted", "package", name, "deactivated", result.Deactivated)

	return result, nil
}

// ResolvePackage maps a package name or archive filename to the filename of
// an archive in the library.
func (e *Engine) ResolvePackage(packageName string, match m.MatchMode) (string, error) {
	const op = "resolve"

	if !validEntryName(packageName) {
		return "", notFound(op, packageName, "invalid package name %q", packageName)
	}

	archives, err := e.libraryArchives()
	if err != nil {
		return "", ioFailure(op, packageName, err)
	}

	filenames := make([]string, 0, len(archives))
	for _, info := range archives {
		filenames = append(filenames, info.Name())
	}

	want := packageName
	key := PackageName

	if isArchiveName(packageName) {
		key = func(filename string) string { return filename }
	}

	return pickMatch(op, want, filenames, key, match)
}

// archivesNamed returns the library archives whose package name is exactly name.
func (e *Engine) archivesNamed(name string) ([]string, error) {
	archives, err := e.libraryArchives()
	if err != nil {
		return nil, err
	}

	var filenames []string

	for _, info := range archives {
		if PackageName(info.Name()) == name {
			filenames = append(filenames, info.Name())
		}
	}

	return filenames, nil
}

// removeSameNameArchives deletes every archive named name except keep. On a
// case-insensitive filesystem the other spelling may be keep itself.
func (e *Engine) removeSameNameArchives(name, keep string) error {
	filenames, err := e.archivesNamed(name)
	if err != nil {
		return err
	}

	keepInfo, err := e.fs.FileInfo(e.libraryPath(keep))
	if err != nil {
		return err
	}

	for _, filename := range filenames {
		if filename == keep {
			continue
		}

		if info, err := e.fs.FileInfo(e.libraryPath(filename)); err == nil && os.SameFile(keepInfo, info) {
			continue
		}

		slog.Info("Replacing archive", "package", name, "old", filename, "new", keep)

		if err := e.fs.Remove(e.libraryPath(filename)); err != nil {
			return fmt.Errorf("remove %s: %w", filename, err)
		}
	}

	return nil
}

func samePath(a, b m.Path) bool {
	absA, errA := filepath.Abs(string(a))
	absB, errB := filepath.Abs(string(b))

	return errA == nil && errB == nil && absA == absB
}
