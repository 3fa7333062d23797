package cmd

import (
	"github.com/spf13/cobra"
)

// enableCmd represents the enable command.
var enableCmd = newEnableCmd()

func newEnableCmd() *cobra.Command {
	var ignoreCase bool

	cmd := &cobra.Command{
		Use:   "enable <package>...",
		Short: "Extract packages from the library into the live directory",
		Long: `Enable one or more packages. A package holding a single mod is extracted
directly into <live>/<package>; a package holding several mods keeps each mod
as its own folder inside <live>/<package>. A previous activation is replaced.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workflow, _, err := newWorkflow(cmd)
			if err != nil {
				return err
			}

			return workflow.Enable(cmd.Context(), args, matchMode(ignoreCase))
		},
	}

	cmd.Flags().BoolVarP(&ignoreCase, ignoreCaseFlagName, "i", false, "match package names case-insensitively")

	return cmd
}

// disableCmd represents the disable command.
var disableCmd = newDisableCmd()

func newDisableCmd() *cobra.Command {
	var ignoreCase bool

	cmd := &cobra.Command{
		Use:   "disable <package>...",
		Short: "Remove package folders from the live directory",
		Long: `Disable one or more packages by deleting their folders from the live
directory. The archives stay in the library. Changes made inside the folder
are lost.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workflow, _, err := newWorkflow(cmd)
			if err != nil {
				return err
			}

			return workflow.Disable(cmd.Context(), args, matchMode(ignoreCase))
		},
	}

	cmd.Flags().BoolVarP(&ignoreCase, ignoreCaseFlagName, "i", false, "match package names case-insensitively")

	return cmd
}

func init() {
	rootCmd.AddCommand(enableCmd)
	rootCmd.AddCommand(disableCmd)
}
