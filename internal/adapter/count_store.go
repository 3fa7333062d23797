package adapter

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
	m "modsync.dev/pkg/modsync/internal/model"
)

const countCacheVersion = 1

// CountEntry is the cached mod count of one archive, valid while the archive
// keeps the recorded size and modification time.
type CountEntry struct {
	Size     int64     `yaml:"size"`
	ModTime  time.Time `yaml:"mod_time"`
	ModCount int       `yaml:"mod_count"`
}

// Matches reports whether the entry still describes info.
func (e CountEntry) Matches(info os.FileInfo) bool {
	return e.Size == info.Size() && e.ModTime.Equal(info.ModTime())
}

// CountCache maps archive filenames to cached counts.
type CountCache map[string]CountEntry

type countCacheFile struct {
	Version int        `yaml:"version"`
	Entries CountCache `yaml:"entries"`
}

// CountStore persists mod-count caches.
type CountStore interface {
	LoadCounts(path m.Path) (CountCache, error)
	SaveCounts(path m.Path, cache CountCache) error
}

// YAMLCountStore stores the count cache as a YAML document.
type YAMLCountStore struct {
	fs afero.Fs
}

// NewYAMLCountStore constructs a CountStore over fs.
func NewYAMLCountStore(fs afero.Fs) *YAMLCountStore {
	return &YAMLCountStore{fs: fs}
}

// LoadCounts reads the cache at path. A missing file yields an empty cache.
func (s *YAMLCountStore) LoadCounts(path m.Path) (CountCache, error) {
	data, err := afero.ReadFile(s.fs, string(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return CountCache{}, nil
		}

		return nil, err
	}

	var doc countCacheFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode count cache %s: %w", path, err)
	}

	if doc.Version != countCacheVersion || doc.Entries == nil {
		return CountCache{}, nil
	}

	return doc.Entries, nil
}

// SaveCounts writes cache to path via a temporary file and rename.
func (s *YAMLCountStore) SaveCounts(path m.Path, cache CountCache) error {
	data, err := yaml.Marshal(countCacheFile{Version: countCacheVersion, Entries: cache})
	if err != nil {
		return fmt.Errorf("encode count cache: %w", err)
	}

	tmpPath := string(path) + ".tmp"
	if err := afero.WriteFile(s.fs, tmpPath, data, 0o600); err != nil {
		return err
	}

	if err := s.fs.Rename(tmpPath, string(path)); err != nil {
		_ = s.fs.Remove(tmpPath)
		return err
	}

	return nil
}
