package model

import "time"

// ManifestFileName is the file whose presence marks a directory as a mod root.
const ManifestFileName = "manifest.json"

// ArchiveExt is the extension of package archives in the local library.
const ArchiveExt = ".zip"

// Manifest is the subset of a mod manifest the engine reads.
// Only UniqueID is consumed; the rest is display text. Non-string values
// such as a legacy object Version are kept as compact JSON.
type Manifest struct {
	UniqueID    string
	Name        string
	Author      string
	Version     string
	Description string
}

// ModRoot is a directory confirmed to contain a manifest.
type ModRoot struct {
	Path Path
	Name string
}

// LocalPackage is one archive in the local library.
type LocalPackage struct {
	Name     string // archive filename stem, the join key with the live directory
	Filename string
	Path     Path
	Size     int64
	ModTime  time.Time
	Enabled  bool
	ModCount int
}

// Layout describes how an activated package is materialized.
type Layout string

const (
	// LayoutFlattened places the single mod's contents at the package directory top level.
	LayoutFlattened Layout = "flattened"
	// LayoutNested keeps each mod as a named folder under the package directory.
	LayoutNested Layout = "nested"
)

// ActivationResult reports what Activate materialized.
type ActivationResult struct {
	Package string
	Dir     Path
	Layout  Layout
	Mods    []string
}

// DeactivationResult reports what Deactivate removed.
type DeactivationResult struct {
	Package  string
	ModCount int
}

// ImportResult is the per-item outcome of a reverse import.
type ImportResult struct {
	Imported       int
	Failed         int
	Names          []string // imported plus already-present folders
	AlreadyPresent []string
	Errors         []string // "<folder>: <detail>"
}

// DeleteResult reports what DeletePackage removed.
type DeleteResult struct {
	Package     string
	Filename    string
	Deactivated bool
	ModCount    int // mods removed from the live directory, if it was active
}
