// Package domain implements the mod library engine: archive inspection,
// catalog listing, activation, deactivation and reverse import.
package domain

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"modsync.dev/pkg/modsync/internal/adapter"
	m "modsync.dev/pkg/modsync/internal/model"
)

// CountCacheFileName is the mod-count cache file kept in the library directory.
const CountCacheFileName = ".modsync-cache.yaml"

const defaultCatalogParallel = 4

// Config holds the inputs the engine needs. It is passed explicitly at
// construction; the engine never reads global configuration.
type Config struct {
	LibraryPath m.Path
	LivePath    m.Path

	// ImportIgnore holds doublestar patterns matched against live folder names
	// that ImportExisting skips.
	ImportIgnore []string

	// CacheCounts enables the (size, mod time) keyed mod-count cache.
	CacheCounts bool

	// CatalogParallel bounds how many archives are inspected at once.
	CatalogParallel int
}

// Engine synchronizes the local archive library with the live directory.
// Mutating operations on the same package are serialized within a process.
type Engine struct {
	cfg      Config
	fs       adapter.FSAdapter
	archives adapter.ArchiveAdapter
	counts   adapter.CountStore

	locks   sync.Map // lower-cased package name -> *sync.Mutex
	cacheMu sync.Mutex
}

// NewEngine validates cfg, creates both directories if absent and returns
// an engine backed by the given adapters.
func NewEngine(
	cfg Config,
	fsAdapter adapter.FSAdapter,
	archives adapter.ArchiveAdapter,
	counts adapter.CountStore,
) (*Engine, error) {
	if strings.TrimSpace(string(cfg.LibraryPath)) == "" {
		return nil, errors.New("library path is not configured")
	}

	if strings.TrimSpace(string(cfg.LivePath)) == "" {
		return nil, errors.New("live path is not configured")
	}

	if cfg.CatalogParallel <= 0 {
		cfg.CatalogParallel = defaultCatalogParallel
	}

	for _, dir := range []m.Path{cfg.LibraryPath, cfg.LivePath} {
		if err := fsAdapter.MkdirAll(dir); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return &Engine{
		cfg:      cfg,
		fs:       fsAdapter,
		archives: archives,
		counts:   counts,
	}, nil
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) libraryPath(filename string) m.Path {
	return m.Path(filepath.Join(string(e.cfg.LibraryPath), filename))
}

func (e *Engine) livePath(name string) m.Path {
	return m.Path(filepath.Join(string(e.cfg.LivePath), name))
}

// lockPackage serializes mutating work on one package and returns the unlock func.
func (e *Engine) lockPackage(name string) func() {
	value, _ := e.locks.LoadOrStore(strings.ToLower(name), &sync.Mutex{})
	mu, _ := value.(*sync.Mutex)
	mu.Lock()

	return mu.Unlock
}

// PackageName returns the package identifier of an archive filename.
func PackageName(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

func isArchiveName(name string) bool {
	return strings.EqualFold(filepath.Ext(name), m.ArchiveExt)
}

// validEntryName rejects names that would address anything but a direct
// child of the library or live directory.
func validEntryName(name string) bool {
	return name != "" && name != "." && name != ".." && filepath.Base(name) == name && !strings.ContainsAny(name, `/\`)
}
