// Package controller provides output adapters for displaying library state
// and command outcomes.
package controller

import (
	"context"
	"io"
	"os"

	"golang.org/x/term"
	m "modsync.dev/pkg/modsync/internal/model"
)

// UI defines how command results are shown to the user.
// Implementations can use different output methods (plain text, tables, etc).
type UI interface {
	DisplayPackages(ctx context.Context, packages []m.LocalPackage) error
	DisplayEnabled(ctx context.Context, names []string) error
	DisplayActivation(ctx context.Context, result m.ActivationResult)
	DisplayDeactivation(ctx context.Context, result m.DeactivationResult)
	DisplayAdded(ctx context.Context, pkg m.LocalPackage)
	DisplayDeleted(ctx context.Context, result m.DeleteResult)
	DisplayImport(ctx context.Context, result m.ImportResult) error
	DisplayFailure(ctx context.Context, target string, err error)
}

// IsTTY reports whether w is an interactive terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
