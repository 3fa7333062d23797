package adapter

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	m "modsync.dev/pkg/modsync/internal/model"
)

// ErrUnsafeEntry is returned when an archive entry would be written outside
// the extraction directory.
var ErrUnsafeEntry = errors.New("archive entry escapes extraction directory")

// ArchiveAdapter extracts and creates package archives.
type ArchiveAdapter interface {
	// Extract unpacks archive into dest, preserving relative directory structure.
	Extract(archive, dest m.Path) error

	// Create writes a deflate-compressed archive at dest holding every file
	// under srcDir. Entry names are relative to baseDir.
	Create(srcDir, baseDir, dest m.Path) error
}

// ZipArchiveAdapter implements ArchiveAdapter for standard zip files.
type ZipArchiveAdapter struct {
	fs afero.Fs
}

// NewZipArchiveAdapter constructs a zip codec over fs.
func NewZipArchiveAdapter(fs afero.Fs) *ZipArchiveAdapter {
	return &ZipArchiveAdapter{fs: fs}
}

// Extract unpacks every entry of archive under dest.
func (z *ZipArchiveAdapter) Extract(archive, dest m.Path) error {
	file, err := z.fs.Open(string(archive))
	if err != nil {
		return err
	}

	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	reader, err := zip.NewReader(file, info.Size())
	if errors.Is(err, zip.ErrInsecurePath) {
		return fmt.Errorf("open archive %s: %w", archive, ErrUnsafeEntry)
	}

	if err != nil {
		return fmt.Errorf("open archive %s: %w", archive, err)
	}

	for _, entry := range reader.File {
		if err := z.extractEntry(entry, string(dest)); err != nil {
			return err
		}
	}

	return nil
}

func (z *ZipArchiveAdapter) extractEntry(entry *zip.File, dest string) error {
	// Archives built on Windows sometimes use backslash separators.
	name := strings.ReplaceAll(entry.Name, `\`, "/")

	target, err := safeJoin(dest, name)
	if err != nil {
		return fmt.Errorf("%s: %w", entry.Name, err)
	}

	if strings.HasSuffix(name, "/") || entry.FileInfo().IsDir() {
		return z.fs.MkdirAll(target, 0o750)
	}

	if err := z.fs.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return err
	}

	src, err := entry.Open()
	if err != nil {
		return fmt.Errorf("open entry %s: %w", entry.Name, err)
	}

	defer func() { _ = src.Close() }()

	perm := entry.Mode().Perm()
	if perm == 0 {
		perm = 0o640
	}

	dst, err := z.fs.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return err
	}

	// #nosec G110 - archives come from the user's own library
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("extract entry %s: %w", entry.Name, err)
	}

	if err := dst.Close(); err != nil {
		return err
	}

	if !entry.Modified.IsZero() {
		_ = z.fs.Chtimes(target, entry.Modified, entry.Modified)
	}

	return nil
}

// safeJoin joins an archive entry name onto dest and rejects names that
// resolve outside dest.
func safeJoin(dest, name string) (string, error) {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", ErrUnsafeEntry
	}

	target := filepath.Join(dest, filepath.FromSlash(name))

	rel, err := filepath.Rel(dest, target)
	if err != nil {
		return "", err
	}

	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrUnsafeEntry
	}

	return target, nil
}

// Create packs every regular file under srcDir into a new archive at dest.
func (z *ZipArchiveAdapter) Create(srcDir, baseDir, dest m.Path) error {
	out, err := z.fs.OpenFile(string(dest), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return err
	}

	writer := zip.NewWriter(out)

	walkErr := afero.Walk(z.fs, walkRoot(z.fs, string(srcDir)), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		relPath, err := filepath.Rel(string(baseDir), path)
		if err != nil {
			return err
		}

		return z.addFile(writer, path, filepath.ToSlash(relPath), info)
	})

	closeErr := writer.Close()
	fileErr := out.Close()

	switch {
	case walkErr != nil:
		return walkErr
	case closeErr != nil:
		return fmt.Errorf("finalize archive %s: %w", dest, closeErr)
	default:
		return fileErr
	}
}

// walkRoot returns dir in a form afero.Walk descends into even when dir is a
// symlink to a directory. Links below dir are not followed.
func walkRoot(fs afero.Fs, dir string) string {
	lstater, ok := fs.(afero.Lstater)
	if !ok {
		return dir
	}

	info, _, err := lstater.LstatIfPossible(dir)
	if err != nil || info.Mode()&os.ModeSymlink == 0 {
		return dir
	}

	return dir + string(filepath.Separator)
}

// addFile adds a single file to the archive under name.
func (z *ZipArchiveAdapter) addFile(writer *zip.Writer, path, name string, info os.FileInfo) error {
	file, err := z.fs.Open(path)
	if err != nil {
		return fmt.Errorf("open file %s: %w", path, err)
	}

	defer func() { _ = file.Close() }()

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}

	header.Name = name
	header.Method = zip.Deflate

	entryWriter, err := writer.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("create file in archive %s: %w", name, err)
	}

	if _, err := io.Copy(entryWriter, file); err != nil {
		return fmt.Errorf("copy file to archive %s: %w", name, err)
	}

	return nil
}
