// Package cmd provides the root command and CLI setup for modsync.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"modsync.dev/pkg/modsync/internal/adapter"
	"modsync.dev/pkg/modsync/internal/controller"
	"modsync.dev/pkg/modsync/internal/domain"
	m "modsync.dev/pkg/modsync/internal/model"
)

// libraryFlag and liveFlag override the configured directories for one run.
var (
	libraryFlag string
	liveFlag    string
	verboseFlag bool
)

const pathsHelp = `The library directory holds one .zip archive per package. The live
directory is the folder the mod loader scans; every enabled package is a
folder in it named after its archive.`

const rootLongDescription = `modsync keeps a library of mod archives in sync with the live mods
directory of a game extension loader. Packages are enabled by extracting
their archives into the live directory and disabled by removing them again.

` + pathsHelp

// rootCmd represents the base command when called without any subcommands.
var rootCmd = baseRootCmd()

func init() {
	configureRootFlags(rootCmd)
}

func newRootCmd() *cobra.Command {
	cmd := baseRootCmd()
	configureRootFlags(cmd)

	return cmd
}

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "modsync",
		Short:        "Mod library synchronization tool",
		Long:         rootLongDescription,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger("", viper.GetBool(logVerboseKey))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&libraryFlag, libraryFlagName, viper.GetString(libraryPathKey), "library directory holding package archives")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(libraryFlagName), libraryPathKey)

	cmd.PersistentFlags().StringVar(&liveFlag, liveFlagName, viper.GetString(livePathKey), "live mods directory scanned by the loader")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(liveFlagName), livePathKey)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "write debug output to the log file")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// engineConfig assembles the engine configuration from viper.
func engineConfig() (domain.Config, error) {
	library := strings.TrimSpace(viper.GetString(libraryPathKey))
	live := strings.TrimSpace(viper.GetString(livePathKey))

	if live == "" {
		return domain.Config{}, errors.New("live directory is not configured; pass --live or run 'modsync config set-paths'")
	}

	return domain.Config{
		LibraryPath:     m.Path(library),
		LivePath:        m.Path(live),
		ImportIgnore:    viper.GetStringSlice(importIgnoreKey),
		CacheCounts:     viper.GetBool(catalogCacheKey),
		CatalogParallel: viper.GetInt(catalogParallelKey),
	}, nil
}

// newEngine builds an engine over the local filesystem.
func newEngine() (*domain.Engine, error) {
	cfg, err := engineConfig()
	if err != nil {
		return nil, err
	}

	fs := afero.NewOsFs()

	engine, err := domain.NewEngine(
		cfg,
		adapter.NewFSAdapter(fs),
		adapter.NewZipArchiveAdapter(fs),
		adapter.NewYAMLCountStore(fs),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open library: %w", err)
	}

	return engine, nil
}

// newWorkflow builds the engine and a workflow printing to cmd's output.
func newWorkflow(cmd *cobra.Command) (domain.Workflow, *domain.Engine, error) {
	engine, err := newEngine()
	if err != nil {
		return nil, nil, err
	}

	var ui controller.UI = controller.NewSimpleUI(cmd)

	return domain.NewWorkflow(engine, ui), engine, nil
}

func matchMode(ignoreCase bool) m.MatchMode {
	if ignoreCase {
		return m.MatchFold
	}

	return m.MatchExact
}

func parsePaths(args []string) []m.Path {
	paths := make([]m.Path, 0, len(args))
	for _, arg := range args {
		paths = append(paths, m.Path(arg))
	}

	return paths
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		os.Exit(1)
	}
}
