// Package adapter contains filesystem and archive adapters for the modsync CLI.
package adapter

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	m "modsync.dev/pkg/modsync/internal/model"
)

// FSAdapter abstracts the filesystem operations the domain layer relies on
// when reading the library and materializing packages. It hides direct `os`
// access so the engine can run against an in-memory filesystem in tests.
//
//nolint:interfacebloat // A richer interface keeps engine logic decoupled from os/fs.
type FSAdapter interface {
	// Fs exposes the backing afero filesystem for codecs that stream files.
	Fs() afero.Fs

	// ReadDir lists a directory sorted by name.
	ReadDir(path m.Path) ([]os.FileInfo, error)

	// ReadFile loads a file from disk and returns its contents.
	ReadFile(path m.Path) ([]byte, error)

	// FileInfo returns metadata for a path.
	FileInfo(path m.Path) (os.FileInfo, error)

	// Exists reports whether anything exists at path.
	Exists(path m.Path) bool

	// IsDir reports whether path exists and is a directory.
	IsDir(path m.Path) bool

	// MkdirAll creates a directory and any missing parents.
	MkdirAll(path m.Path) error

	// CreateTempDir creates a uniquely named directory under dir whose name
	// starts with prefix.
	CreateTempDir(dir m.Path, prefix string) (m.Path, error)

	// RemoveAll removes a path and all its contents.
	RemoveAll(path m.Path) error

	// Remove removes a single file or empty directory.
	Remove(path m.Path) error

	// Move renames src to dst, falling back to copy and delete when a rename
	// is not possible (e.g. across devices).
	Move(src, dst m.Path) error

	// CopyFile copies a single file, preserving its mode and modification time.
	CopyFile(src, dst m.Path) error

	// Walk traverses the tree rooted at root in lexical order.
	Walk(root m.Path, fn filepath.WalkFunc) error
}

// LocalFSAdapter is the afero-backed implementation of FSAdapter.
type LocalFSAdapter struct {
	fs afero.Fs
}

// NewLocalFSAdapter constructs an adapter over the operating system filesystem.
func NewLocalFSAdapter() *LocalFSAdapter {
	return NewFSAdapter(afero.NewOsFs())
}

// NewFSAdapter constructs an adapter over an arbitrary afero filesystem.
func NewFSAdapter(fs afero.Fs) *LocalFSAdapter {
	return &LocalFSAdapter{fs: fs}
}

// Fs returns the backing filesystem.
func (a *LocalFSAdapter) Fs() afero.Fs {
	return a.fs
}

// ReadDir lists directory entries sorted by filename.
func (a *LocalFSAdapter) ReadDir(path m.Path) ([]os.FileInfo, error) {
	return afero.ReadDir(a.fs, string(path))
}

// ReadFile loads file contents.
func (a *LocalFSAdapter) ReadFile(path m.Path) ([]byte, error) {
	return afero.ReadFile(a.fs, string(path))
}

// FileInfo returns os.FileInfo metadata for the given path.
func (a *LocalFSAdapter) FileInfo(path m.Path) (os.FileInfo, error) {
	return a.fs.Stat(string(path))
}

// Exists reports whether path exists.
func (a *LocalFSAdapter) Exists(path m.Path) bool {
	_, err := a.fs.Stat(string(path))
	return err == nil
}

// IsDir reports whether path is an existing directory.
func (a *LocalFSAdapter) IsDir(path m.Path) bool {
	info, err := a.fs.Stat(string(path))
	return err == nil && info.IsDir()
}

// MkdirAll creates path and any missing parents.
func (a *LocalFSAdapter) MkdirAll(path m.Path) error {
	return a.fs.MkdirAll(string(path), 0o750)
}

// CreateTempDir creates a fresh directory named prefix+uuid inside dir.
func (a *LocalFSAdapter) CreateTempDir(dir m.Path, prefix string) (m.Path, error) {
	if err := a.fs.MkdirAll(string(dir), 0o750); err != nil {
		return "", err
	}

	tmpDir := filepath.Join(string(dir), prefix+uuid.NewString())
	if err := a.fs.Mkdir(tmpDir, 0o750); err != nil {
		return "", err
	}

	return m.Path(tmpDir), nil
}

// RemoveAll removes a directory and all its contents.
func (a *LocalFSAdapter) RemoveAll(path m.Path) error {
	return a.fs.RemoveAll(string(path))
}

// Remove removes a single file or empty directory.
func (a *LocalFSAdapter) Remove(path m.Path) error {
	return a.fs.Remove(string(path))
}

// Move renames src to dst, copying when the rename fails with a link error.
func (a *LocalFSAdapter) Move(src, dst m.Path) error {
	err := a.fs.Rename(string(src), string(dst))
	if err == nil {
		return nil
	}

	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) {
		return err
	}

	slog.Debug("rename failed, copying instead", "src", src, "dst", dst, "error", err)

	info, statErr := a.fs.Stat(string(src))
	if statErr != nil {
		return statErr
	}

	if info.IsDir() {
		err = a.copyDir(string(src), string(dst))
	} else {
		err = a.copyFile(string(src), string(dst), info)
	}

	if err != nil {
		_ = a.fs.RemoveAll(string(dst))
		return fmt.Errorf("copy %s: %w", src, err)
	}

	return a.fs.RemoveAll(string(src))
}

// CopyFile copies a single file.
func (a *LocalFSAdapter) CopyFile(src, dst m.Path) error {
	info, err := a.fs.Stat(string(src))
	if err != nil {
		return err
	}

	return a.copyFile(string(src), string(dst), info)
}

// Walk traverses root, calling fn for every file and directory.
func (a *LocalFSAdapter) Walk(root m.Path, fn filepath.WalkFunc) error {
	return afero.Walk(a.fs, string(root), fn)
}

// copyDir recursively copies a directory tree.
func (a *LocalFSAdapter) copyDir(src, dst string) error {
	return afero.Walk(a.fs, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		targetPath := filepath.Join(dst, relPath)

		if info.IsDir() {
			return a.fs.MkdirAll(targetPath, info.Mode().Perm()|0o700)
		}

		return a.copyFile(path, targetPath, info)
	})
}

// copyFile copies a single file, keeping mode and modification time.
func (a *LocalFSAdapter) copyFile(src, dst string, info os.FileInfo) error {
	sourceFile, err := a.fs.Open(src)
	if err != nil {
		return err
	}

	defer func() { _ = sourceFile.Close() }()

	if err := a.fs.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}

	destFile, err := a.fs.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		_ = destFile.Close()
		return err
	}

	if err := destFile.Close(); err != nil {
		return err
	}

	return a.fs.Chtimes(dst, info.ModTime(), info.ModTime())
}
