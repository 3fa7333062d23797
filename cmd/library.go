package cmd

import (
	"github.com/spf13/cobra"
)

// addCmd represents the add command.
var addCmd = newAddCmd()

func newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <archive.zip>...",
		Short: "Copy archives into the library",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workflow, _, err := newWorkflow(cmd)
			if err != nil {
				return err
			}

			return workflow.Add(cmd.Context(), parsePaths(args))
		},
	}
}

// deleteCmd represents the delete command.
var deleteCmd = newDeleteCmd()

func newDeleteCmd() *cobra.Command {
	var ignoreCase bool

	cmd := &cobra.Command{
		Use:     "delete <package>...",
		Aliases: []string{"rm"},
		Short:   "Delete archives from the library, disabling them first",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workflow, _, err := newWorkflow(cmd)
			if err != nil {
				return err
			}

			return workflow.Delete(cmd.Context(), args, matchMode(ignoreCase))
		},
	}

	cmd.Flags().BoolVarP(&ignoreCase, ignoreCaseFlagName, "i", false, "match package names case-insensitively")

	return cmd
}

func init() {
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(deleteCmd)
}
