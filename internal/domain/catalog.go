package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"golang.org/x/sync/errgroup"
	"modsync.dev/pkg/modsync/internal/adapter"
	m "modsync.dev/pkg/modsync/internal/model"
)

// fallbackModCount is reported when an archive cannot be inspected.
const fallbackModCount = 1

// ListLocalPackages describes every archive in the library. Enabled flags and
// mod counts are derived from the filesystem on each call.
func (e *Engine) ListLocalPackages(ctx context.Context) ([]m.LocalPackage, error) {
	const op = "list packages"

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	archives, err := e.libraryArchives()
	if err != nil {
		slog.Error("Failed to read library", "path", e.cfg.LibraryPath, "error", err)
		return nil, ioFailure(op, "", err)
	}

	cache := e.loadCountCache()
	packages := make([]m.LocalPackage, len(archives))
	fresh := make([]*adapter.CountEntry, len(archives))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.cfg.CatalogParallel)

	for i, info := range archives {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			packages[i], fresh[i] = e.describePackage(info, cache)

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	e.storeCountCache(cache, archives, fresh)

	sort.SliceStable(packages, func(i, j int) bool {
		return packages[i].Name < packages[j].Name
	})

	return packages, nil
}

// ListEnabledPackages returns the names of all package directories in the
// live directory. Symlinks to directories count, as they do for IsEnabled.
func (e *Engine) ListEnabledPackages(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := e.fs.ReadDir(e.cfg.LivePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}

		return nil, ioFailure("list enabled", "", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if e.fs.IsDir(e.livePath(entry.Name())) {
			names = append(names, entry.Name())
		}
	}

	return names, nil
}

// IsEnabled reports whether a live package directory named name exists.
func (e *Engine) IsEnabled(name string) bool {
	return validEntryName(name) && e.fs.IsDir(e.livePath(name))
}

// libraryArchives returns the zip files directly inside the library.
func (e *Engine) libraryArchives() ([]os.FileInfo, error) {
	entries, err := e.fs.ReadDir(e.cfg.LibraryPath)
	if err != nil {
		return nil, err
	}

	archives := make([]os.FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.Mode().IsRegular() && isArchiveName(entry.Name()) {
			archives = append(archives, entry)
		}
	}

	return archives, nil
}

// describePackage builds the catalog entry for one archive. The returned
// CountEntry is non-nil when a count was freshly computed and may be cached.
func (e *Engine) describePackage(info os.FileInfo, cache adapter.CountCache) (m.LocalPackage, *adapter.CountEntry) {
	name := PackageName(info.Name())
	pkg := m.LocalPackage{
		Name:     name,
		Filename: info.Name(),
		Path:     e.libraryPath(info.Name()),
		Size:     info.Size(),
		ModTime:  info.ModTime(),
		Enabled:  e.IsEnabled(name),
	}

	if entry, ok := cache[info.Name()]; ok && entry.Matches(info) {
		pkg.ModCount = entry.ModCount
		return pkg, nil
	}

	count, err := e.countMods(pkg.Path, name)
	if err != nil {
		slog.Warn("Failed to count mods, assuming one", "archive", pkg.Path, "error", err)
		pkg.ModCount = fallbackModCount

		return pkg, nil
	}

	pkg.ModCount = count

	return pkg, &adapter.CountEntry{Size: info.Size(), ModTime: info.ModTime(), ModCount: count}
}

// countMods extracts archive into a scratch directory and counts its mod roots.
func (e *Engine) countMods(archive m.Path, name string) (int, error) {
	count := 0

	err := e.withScratchDir(countScratchPrefix+name+"-", func(dir m.Path) error {
		if err := e.archives.Extract(archive, dir); err != nil {
			return fmt.Errorf("extract: %w", err)
		}

		count = len(FindModRoots(e.fs, dir))

		return nil
	})

	return count, err
}

func (e *Engine) countCachePath() m.Path {
	return e.libraryPath(CountCacheFileName)
}

func (e *Engine) loadCountCache() adapter.CountCache {
	if !e.cfg.CacheCounts || e.counts == nil {
		return adapter.CountCache{}
	}

	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	cache, err := e.counts.LoadCounts(e.countCachePath())
	if err != nil {
		slog.Warn("Ignoring unreadable count cache", "path", e.countCachePath(), "error", err)
		return adapter.CountCache{}
	}

	return cache
}

// storeCountCache merges fresh counts into cache, drops entries for archives
// that no longer exist and persists the result when anything changed.
func (e *Engine) storeCountCache(cache adapter.CountCache, archives []os.FileInfo, fresh []*adapter.CountEntry) {
	if !e.cfg.CacheCounts || e.counts == nil {
		return
	}

	present := make(map[string]bool, len(archives))
	changed := false

	for i, info := range archives {
		present[info.Name()] = true

		if fresh[i] != nil {
			cache[info.Name()] = *fresh[i]
			changed = true
		}
	}

	for filename := range cache {
		if !present[filename] {
			delete(cache, filename)

			changed = true
		}
	}

	if !changed {
		return
	}

	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	if err := e.counts.SaveCounts(e.countCachePath(), cache); err != nil {
		slog.Warn("Failed to save count cache", "path", e.countCachePath(), "error", err)
	}
}
