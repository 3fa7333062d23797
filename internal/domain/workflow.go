package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"modsync.dev/pkg/modsync/internal/controller"
	m "modsync.dev/pkg/modsync/internal/model"
)

// Workflow runs one user-facing command against the engine and reports
// the outcome through a UI.
type Workflow interface {
	List(ctx context.Context) error
	Enabled(ctx context.Context) error
	Enable(ctx context.Context, names []string, match m.MatchMode) error
	Disable(ctx context.Context, names []string, match m.MatchMode) error
	Add(ctx context.Context, sources []m.Path) error
	Delete(ctx context.Context, names []string, match m.MatchMode) error
	Import(ctx context.Context) (m.ImportResult, error)
}

type workflow struct {
	controller.UI
	engine *Engine
}

// NewWorkflow creates a Workflow over engine reporting to ui.
func NewWorkflow(engine *Engine, ui controller.UI) Workflow {
	return &workflow{UI: ui, engine: engine}
}

func (w *workflow) List(ctx context.Context) error {
	packages, err := w.engine.ListLocalPackages(ctx)
	if err != nil {
		slog.Error("Failed to list local packages", "error", err)
		return fmt.Errorf("list packages: %w", err)
	}

	if err := w.DisplayPackages(ctx, packages); err != nil {
		return fmt.Errorf("display: %w", err)
	}

	return nil
}

func (w *workflow) Enabled(ctx context.Context) error {
	names, err := w.engine.ListEnabledPackages(ctx)
	if err != nil {
		slog.Error("Failed to list enabled packages", "error", err)
		return fmt.Errorf("list enabled: %w", err)
	}

	if err := w.DisplayEnabled(ctx, names); err != nil {
		return fmt.Errorf("display: %w", err)
	}

	return nil
}

// Enable activates each named package; a failure does not stop the rest.
func (w *workflow) Enable(ctx context.Context, names []string, match m.MatchMode) error {
	return w.each(ctx, names, func(name string) error {
		filename, err := w.engine.ResolvePackage(name, match)
		if err != nil {
			return err
		}

		result, err := w.engine.Activate(ctx, filename)
		if err != nil {
			return err
		}

		w.DisplayActivation(ctx, result)

		return nil
	})
}

func (w *workflow) Disable(ctx context.Context, names []string, match m.MatchMode) error {
	return w.each(ctx, names, func(name string) error {
		result, err := w.engine.Deactivate(ctx, name, match)
		if err != nil {
			return err
		}

		w.DisplayDeactivation(ctx, result)

		return nil
	})
}

func (w *workflow) Add(ctx context.Context, sources []m.Path) error {
	names := make([]string, len(sources))
	for i, source := range sources {
		names[i] = source.String()
	}

	return w.each(ctx, names, func(source string) error {
		pkg, err := w.engine.AddPackage(ctx, m.Path(source))
		if err != nil {
			return err
		}

		w.DisplayAdded(ctx, pkg)

		return nil
	})
}

func (w *workflow) Delete(ctx context.Context, names []string, match m.MatchMode) error {
	return w.each(ctx, names, func(name string) error {
		result, err := w.engine.DeletePackage(ctx, name, match)
		if err != nil {
			return err
		}

		w.DisplayDeleted(ctx, result)

		return nil
	})
}

// Import runs the reverse import. Per-folder failures are part of the
// result, not the returned error.
func (w *workflow) Import(ctx context.Context) (m.ImportResult, error) {
	result, err := w.engine.ImportExisting(ctx)
	if err != nil {
		slog.Error("Failed to import existing packages", "error", err)
		return result, fmt.Errorf("import: %w", err)
	}

	if err := w.DisplayImport(ctx, result); err != nil {
		return result, fmt.Errorf("display: %w", err)
	}

	return result, nil
}

func (w *workflow) each(ctx context.Context, targets []string, run func(string) error) error {
	var errs []error

	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		if err := run(target); err != nil {
			slog.Error("Failed to process package", "package", target, "error", err)
			w.DisplayFailure(ctx, target, err)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
