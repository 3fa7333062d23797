package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"modsync.dev/pkg/modsync/internal/controller"
	m "modsync.dev/pkg/modsync/internal/model"
)

var errImportDone = errors.New("existing mods were already imported; pass --force to import again")

// importCmd represents the import command.
var importCmd = newImportCmd()

func newImportCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Pack mod folders already in the live directory into the library",
		Long: `Create a library archive for every folder in the live directory that has a
manifest but no archive yet, so mods installed by hand can be managed.

Folders starting with "." or "_" and folders matching import.ignore are
skipped. The command runs once per configuration; use --force to repeat it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkImportGate(force); err != nil {
				return err
			}

			workflow, _, err := newWorkflow(cmd)
			if err != nil {
				return err
			}

			if _, err := workflow.Import(cmd.Context()); err != nil {
				return err
			}

			return recordImportDone()
		},
	}

	cmd.Flags().BoolVarP(&force, forceFlagName, "f", false, "import even if an import already ran")

	return cmd
}

// checkImportGate refuses a repeated import unless force is set.
func checkImportGate(force bool) error {
	if viper.GetBool(importDoneKey) && !force {
		return errImportDone
	}

	return nil
}

// recordImportDone persists import.done so later runs are gated.
func recordImportDone() error {
	viper.Set(importDoneKey, true)

	if err := viper.WriteConfig(); err != nil {
		slog.Error("Failed to record import in config", "error", err)
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// gatedBackend applies the one-time import gate to a browser backend.
type gatedBackend struct {
	controller.BrowserBackend
	force bool
}

func (g gatedBackend) ImportExisting(ctx context.Context) (m.ImportResult, error) {
	if err := checkImportGate(g.force); err != nil {
		return m.ImportResult{}, err
	}

	result, err := g.BrowserBackend.ImportExisting(ctx)
	if err != nil {
		return result, err
	}

	return result, recordImportDone()
}

func init() {
	rootCmd.AddCommand(importCmd)
}
