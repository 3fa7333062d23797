package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// listCmd represents the list command.
var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List library packages with their state and mod counts",
		Long: `List every archive in the library with whether it is enabled, how many
mods it contains and its size.

` + pathsHelp,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if noCache {
				viper.Set(catalogCacheKey, false)
			}

			workflow, _, err := newWorkflow(cmd)
			if err != nil {
				return err
			}

			return workflow.List(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&noCache, noCacheFlagName, false, "recount mods in every archive instead of using the count cache")
	cmd.Flags().Int(parallelFlagName, viper.GetInt(catalogParallelKey), "number of archives inspected at once")
	bindFlagToConfig(cmd.Flags().Lookup(parallelFlagName), catalogParallelKey)

	return cmd
}

// enabledCmd represents the enabled command.
var enabledCmd = newEnabledCmd()

func newEnabledCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enabled",
		Short: "List package folders present in the live directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			workflow, _, err := newWorkflow(cmd)
			if err != nil {
				return err
			}

			return workflow.Enabled(cmd.Context())
		},
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(enabledCmd)
}
