// Package model defines the data structures shared by the mod library engine.
package model

import "strings"

// Path represents a file system path.
type Path string

// String returns the path as a plain string.
func (p Path) String() string {
	return string(p)
}

// MatchMode controls how package names are compared during lookups.
type MatchMode int

const (
	// MatchExact compares names byte for byte.
	MatchExact MatchMode = iota
	// MatchFold compares names case-insensitively (Unicode simple folding).
	MatchFold
)

// Equal reports whether a and b are the same name under the mode.
func (mm MatchMode) Equal(a, b string) bool {
	if mm == MatchFold {
		return strings.EqualFold(a, b)
	}

	return a == b
}

// String returns a human-readable representation of the mode.
func (mm MatchMode) String() string {
	switch mm {
	case MatchExact:
		return "exact"
	case MatchFold:
		return "fold"
	default:
		return "unknown"
	}
}
