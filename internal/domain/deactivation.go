package domain

import (
	"context"
	"log/slog"

	m "modsync.dev/pkg/modsync/internal/model"
)

// Deactivate removes the live package directory matching packageName and
// reports how many mod roots it held. Manual edits inside it are lost.
func (e *Engine) Deactivate(ctx context.Context, packageName string, match m.MatchMode) (m.DeactivationResult, error) {
	const op = "deactivate"

	if err := ctx.Err(); err != nil {
		return m.DeactivationResult{}, err
	}

	name, err := e.resolveLiveName(ctx, op, packageName, match)
	if err != nil {
		return m.DeactivationResult{}, err
	}

	unlock := e.lockPackage(name)
	defer unlock()

	return e.deactivateLocked(op, name)
}

func (e *Engine) deactivateLocked(op, name string) (m.DeactivationResult, error) {
	liveDir := e.livePath(name)
	if !e.fs.IsDir(liveDir) {
		return m.DeactivationResult{}, notFound(op, name, "package is not enabled")
	}

	count := len(FindModRoots(e.fs, liveDir))

	if err := e.fs.RemoveAll(liveDir); err != nil {
		slog.Error("Failed to remove package directory", "dir", liveDir, "error", err)
		return m.DeactivationResult{}, ioFailure(op, name, err)
	}

	slog.Info("Package deactivated", "package", name, "mods", count)

	return m.DeactivationResult{Package: name, ModCount: count}, nil
}

// resolveLiveName maps a user supplied name to an existing live package
// directory name. An exact match always wins over a case-folded one.
func (e *Engine) resolveLiveName(ctx context.Context, op, packageName string, match m.MatchMode) (string, error) {
	if !validEntryName(packageName) {
		return "", notFound(op, packageName, "invalid package name %q", packageName)
	}

	if e.IsEnabled(packageName) {
		return packageName, nil
	}

	if match == m.MatchExact {
		return "", notFound(op, packageName, "package is not enabled")
	}

	enabled, err := e.ListEnabledPackages(ctx)
	if err != nil {
		return "", err
	}

	return pickMatch(op, packageName, enabled, func(candidate string) string { return candidate }, match)
}

// pickMatch returns the single candidate whose key equals want under match.
func pickMatch(op, want string, candidates []string, key func(string) string, match m.MatchMode) (string, error) {
	var found []string

	for _, candidate := range candidates {
		if key(candidate) == want {
			return candidate, nil
		}

		if match.Equal(key(candidate), want) {
			found = append(found, candidate)
		}
	}

	switch len(found) {
	case 0:
		return "", notFound(op, want, "no package named %q", want)
	case 1:
		return found[0], nil
	default:
		return "", &OpError{Op: op, Package: want, Kind: ErrAmbiguous, Err: errAmbiguousMatches(found)}
	}
}
