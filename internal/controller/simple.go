package controller

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	m "modsync.dev/pkg/modsync/internal/model"
)

const (
	enabledLabel  = "yes"
	disabledLabel = "no"
)

// SimpleUI implements UI using cobra Command's output streams.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// DisplayPackages prints the library catalog as a table.
func (s *SimpleUI) DisplayPackages(ctx context.Context, packages []m.LocalPackage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(packages) == 0 {
		s.printf("No packages in library\n")
		return nil
	}

	s.printf("\n%s", renderPackageTable(packages))

	return nil
}

func renderPackageTable(packages []m.LocalPackage) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Package", "Enabled", "Mods", "Size"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
	})

	enabled := 0
	mods := 0

	for _, pkg := range packages {
		table.Append([]string{
			pkg.Name,
			enabledText(pkg.Enabled),
			fmt.Sprintf("%d", pkg.ModCount),
			humanize.Bytes(uint64(max(pkg.Size, 0))),
		})

		if pkg.Enabled {
			enabled++
		}

		mods += pkg.ModCount
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Packages %d", len(packages)),
		fmt.Sprintf("%d", enabled),
		fmt.Sprintf("%d", mods),
		"",
	})

	table.Render()

	return tableBuffer.String()
}

func enabledText(enabled bool) string {
	if enabled {
		return enabledLabel
	}

	return disabledLabel
}

// DisplayEnabled prints the names of the packages present in the live directory.
func (s *SimpleUI) DisplayEnabled(ctx context.Context, names []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(names) == 0 {
		s.printf("No packages enabled\n")
		return nil
	}

	for _, name := range names {
		s.printf("%s\n", name)
	}

	return nil
}

// DisplayActivation reports an activated package.
func (s *SimpleUI) DisplayActivation(ctx context.Context, result m.ActivationResult) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Enabled %s (%s, %d mod(s))\n", result.Package, result.Layout, len(result.Mods))
}

// DisplayDeactivation reports a deactivated package.
func (s *SimpleUI) DisplayDeactivation(ctx context.Context, result m.DeactivationResult) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Disabled %s (%d mod(s))\n", result.Package, result.ModCount)
}

// DisplayAdded reports an archive copied into the library.
func (s *SimpleUI) DisplayAdded(ctx context.Context, pkg m.LocalPackage) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Added %s (%s, %d mod(s))\n", pkg.Filename, humanize.Bytes(uint64(max(pkg.Size, 0))), pkg.ModCount)
}

// DisplayDeleted reports an archive removed from the library.
func (s *SimpleUI) DisplayDeleted(ctx context.Context, result m.DeleteResult) {
	if err := ctx.Err(); err != nil {
		return
	}

	if result.Deactivated {
		s.printf("Disabled %s (%d mod(s))\n", result.Package, result.ModCount)
	}

	s.printf("Deleted %s\n", result.Filename)
}

// DisplayImport prints the reverse-import summary.
func (s *SimpleUI) DisplayImport(ctx context.Context, result m.ImportResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("Imported %d package(s), %d failed, %d already present\n",
		result.Imported, result.Failed, len(result.AlreadyPresent))

	if len(result.Names) > 0 {
		s.printf("Packages: %s\n", strings.Join(result.Names, ", "))
	}

	for _, line := range result.Errors {
		s.printf("  error: %s\n", line)
	}

	return nil
}

// DisplayFailure prints a per-target failure without aborting the command.
func (s *SimpleUI) DisplayFailure(ctx context.Context, target string, err error) {
	if ctx.Err() != nil {
		return
	}

	_, _ = fmt.Fprintf(s.cmd.ErrOrStderr(), "%s: %v\n", target, err)
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
