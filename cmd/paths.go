package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// configCmd groups commands that edit modsync.yaml.
var configCmd = newConfigCmd()

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Edit the modsync configuration file",
	}

	cmd.AddCommand(newSetPathsCmd())

	return cmd
}

func newSetPathsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-paths <library> <live>",
		Short: "Record the library and live directories in modsync.yaml",
		Long: `Store absolute library and live directory paths in modsync.yaml. Both
directories are created when the engine first opens them.

` + pathsHelp,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			library, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve library path: %w", err)
			}

			live, err := filepath.Abs(args[1])
			if err != nil {
				return fmt.Errorf("resolve live path: %w", err)
			}

			if library == live {
				return fmt.Errorf("library and live directory must differ: %s", library)
			}

			viper.Set(libraryPathKey, library)
			viper.Set(livePathKey, live)

			if err := viper.WriteConfig(); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			cmd.Printf("library: %s\nlive:    %s\n", library, live)

			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(configCmd)
}
