package domain

import (
	"errors"
	"fmt"
)

// Error kinds returned by engine operations. Match them with errors.Is.
var (
	// ErrNotFound means the referenced archive or live package directory does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidFormat means an archive holds no mod root or a manifest failed to parse.
	ErrInvalidFormat = errors.New("invalid format")
	// ErrIO wraps filesystem and archive failures.
	ErrIO = errors.New("i/o failure")
	// ErrAmbiguous means a case-insensitive lookup matched more than one name.
	ErrAmbiguous = errors.New("ambiguous name")
)

// OpError describes a failed engine operation on one package.
type OpError struct {
	Op      string
	Package string
	Kind    error
	Err     error
}

func (e *OpError) Error() string {
	msg := e.Op
	if e.Package != "" {
		msg += " " + e.Package
	}

	msg += ": " + e.Kind.Error()

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap exposes both the kind and the underlying cause to errors.Is/As.
func (e *OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}

	return []error{e.Kind, e.Err}
}

func notFound(op, pkg string, format string, args ...any) error {
	return &OpError{Op: op, Package: pkg, Kind: ErrNotFound, Err: fmt.Errorf(format, args...)}
}

func invalidFormat(op, pkg string, err error) error {
	return &OpError{Op: op, Package: pkg, Kind: ErrInvalidFormat, Err: err}
}

func ioFailure(op, pkg string, err error) error {
	return &OpError{Op: op, Package: pkg, Kind: ErrIO, Err: err}
}

func errAmbiguousMatches(names []string) error {
	return fmt.Errorf("matches %q", names)
}
