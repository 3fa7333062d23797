package cmd

import (
	"errors"

	"github.com/spf13/cobra"
	"modsync.dev/pkg/modsync/internal/controller"
)

// browseCmd represents the browse command.
var browseCmd = newBrowseCmd()

func newBrowseCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Interactively enable and disable packages",
		Long: `Open a terminal browser over the library.

  ↑/k ↓/j      move
  space/enter  enable or disable the selected package
  r            refresh
  i            import existing mod folders (once, like the import command;
               pass --force to allow it again)
  q            quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !controller.IsTTY(cmd.OutOrStdout()) {
				return errors.New("browse needs an interactive terminal; use list, enable and disable instead")
			}

			engine, err := newEngine()
			if err != nil {
				return err
			}

			backend := gatedBackend{BrowserBackend: engine, force: force}

			return controller.NewBrowser(backend, cmd.OutOrStdout()).Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVarP(&force, forceFlagName, "f", false, "allow the import key even if an import already ran")

	return cmd
}

func init() {
	rootCmd.AddCommand(browseCmd)
}
