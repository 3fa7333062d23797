package domain

import (
	"archive/zip"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"modsync.dev/pkg/modsync/internal/adapter"
	m "modsync.dev/pkg/modsync/internal/model"
)

// testEnv is an engine over a real temporary library and live directory.
type testEnv struct {
	engine  *Engine
	library string
	live    string
	store   *countingStore
}

// countingStore records how often the count cache is read and written.
type countingStore struct {
	adapter.CountStore
	loads int
	saves int
}

func (c *countingStore) LoadCounts(path m.Path) (adapter.CountCache, error) {
	c.loads++
	return c.CountStore.LoadCounts(path)
}

func (c *countingStore) SaveCounts(path m.Path, cache adapter.CountCache) error {
	c.saves++
	return c.CountStore.SaveCounts(path, cache)
}

func newTestEnv(t *testing.T, opts ...func(*Config)) *testEnv {
	t.Helper()

	return newTestEnvWithAdapters(t, nil, nil, opts...)
}

// newTestEnvWithAdapters is newTestEnv with the filesystem and archive
// adapters passed through the given wrappers, when non-nil.
func newTestEnvWithAdapters(
	t *testing.T,
	wrapFS func(adapter.FSAdapter) adapter.FSAdapter,
	wrapArchives func(adapter.ArchiveAdapter) adapter.ArchiveAdapter,
	opts ...func(*Config),
) *testEnv {
	t.Helper()

	root := t.TempDir()
	cfg := Config{
		LibraryPath: m.Path(filepath.Join(root, "library")),
		LivePath:    m.Path(filepath.Join(root, "Mods")),
		CacheCounts: true,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	fs := afero.NewOsFs()
	store := &countingStore{CountStore: adapter.NewYAMLCountStore(fs)}

	var fsAdapter adapter.FSAdapter = adapter.NewFSAdapter(fs)
	if wrapFS != nil {
		fsAdapter = wrapFS(fsAdapter)
	}

	var archives adapter.ArchiveAdapter = adapter.NewZipArchiveAdapter(fs)
	if wrapArchives != nil {
		archives = wrapArchives(archives)
	}

	engine, err := NewEngine(cfg, fsAdapter, archives, store)
	require.NoError(t, err)

	return &testEnv{
		engine:  engine,
		library: string(cfg.LibraryPath),
		live:    string(cfg.LivePath),
		store:   store,
	}
}

// addArchive writes a zip named filename into the library with the given
// entries. Names ending in "/" become directory entries.
func (env *testEnv) addArchive(t *testing.T, filename string, entries map[string]string) string {
	t.Helper()

	path := filepath.Join(env.library, filename)
	writeZip(t, path, entries)

	return path
}

func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()

	file, err := os.Create(path)
	require.NoError(t, err)

	writer := zip.NewWriter(file)

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		w, err := writer.Create(name)
		require.NoError(t, err)

		_, err = w.Write([]byte(entries[name]))
		require.NoError(t, err)
	}

	require.NoError(t, writer.Close())
	require.NoError(t, file.Close())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func manifest(id string) string {
	return `{"UniqueID": "` + id + `", "Name": "` + id + `"}`
}

// listTree returns every file under dir as a slash separated relative path.
func listTree(t *testing.T, dir string) []string {
	t.Helper()

	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		files = append(files, filepath.ToSlash(rel))

		return nil
	})
	require.NoError(t, err)

	sort.Strings(files)

	return files
}

// libraryEntries lists names in the library directory, scratch dirs included.
func libraryEntries(t *testing.T, env *testEnv) []string {
	t.Helper()

	entries, err := os.ReadDir(env.library)
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}

	return names
}

func assertNoScratchDirs(t *testing.T, env *testEnv) {
	t.Helper()

	for _, name := range libraryEntries(t, env) {
		require.False(t, len(name) > 0 && name[0] == '_', "scratch dir %s left behind", name)
	}
}
