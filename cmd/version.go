package cmd

import (
	"runtime/debug"

	"github.com/spf13/cobra"
)

// buildVersion is set at link time with -ldflags "-X ...cmd.buildVersion=v1.2.3".
var buildVersion = ""

var readBuildInfo = debug.ReadBuildInfo

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the modsync version",
		Long:  "Prints the modsync release and the Go toolchain it was built with.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			version, goVersion := modsyncVersion()

			cmd.Printf("modsync %s\n", version)

			if goVersion != "" {
				cmd.Printf("built with %s\n", goVersion)
			}
		},
	}
}

// modsyncVersion returns the release string, preferring the link-time value
// over module build info, and the Go version when known.
func modsyncVersion() (string, string) {
	version := buildVersion
	goVersion := ""

	if info, ok := readBuildInfo(); ok {
		goVersion = info.GoVersion

		if version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			version = info.Main.Version
		}
	}

	if version == "" {
		version = "dev"
	}

	return version, goVersion
}

// versionCmd represents the version command.
var versionCmd = newVersionCmd()

func init() {
	rootCmd.AddCommand(versionCmd)
}
