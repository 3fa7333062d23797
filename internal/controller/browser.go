package controller

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"
	m "modsync.dev/pkg/modsync/internal/model"
)

// BrowserBackend is the set of library operations the browser drives.
type BrowserBackend interface {
	ListLocalPackages(ctx context.Context) ([]m.LocalPackage, error)
	Activate(ctx context.Context, packageFilename string) (m.ActivationResult, error)
	Deactivate(ctx context.Context, packageName string, match m.MatchMode) (m.DeactivationResult, error)
	ImportExisting(ctx context.Context) (m.ImportResult, error)
}

// Browser is an interactive package list that toggles activation in place.
type Browser struct {
	backend BrowserBackend
	output  io.Writer
	input   io.Reader
}

// NewBrowser creates a Browser rendering to output.
func NewBrowser(backend BrowserBackend, output io.Writer) *Browser {
	return &Browser{backend: backend, output: output}
}

// WithInput overrides the program input, stdin by default.
func (b *Browser) WithInput(input io.Reader) *Browser {
	b.input = input
	return b
}

// Run blocks until the user quits or ctx is cancelled.
func (b *Browser) Run(ctx context.Context) error {
	model := newBrowserModel(ctx, b.backend)

	if f, ok := b.output.(*os.File); ok {
		width, height, err := term.GetSize(int(f.Fd()))
		if err == nil {
			model.width = width
			model.height = height
		}
	}

	opts := []tea.ProgramOption{tea.WithOutput(b.output), tea.WithContext(ctx), tea.WithAltScreen()}
	if b.input != nil {
		opts = append(opts, tea.WithInput(b.input))
	}

	program := tea.NewProgram(model, opts...)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("browser: %w", err)
	}

	return nil
}

type packagesLoadedMsg struct {
	packages []m.LocalPackage
	err      error
}

type operationDoneMsg struct {
	status string
	err    error
}

type browserModel struct {
	ctx      context.Context
	backend  BrowserBackend
	packages []m.LocalPackage
	cursor   int
	offset   int
	height   int
	width    int
	busy     bool
	status   string
	err      error
	spinner  spinner.Model
	quitting bool
}

func newBrowserModel(ctx context.Context, backend BrowserBackend) browserModel {
	return browserModel{
		ctx:     ctx,
		backend: backend,
		busy:    true,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

func (bm browserModel) Init() tea.Cmd {
	return tea.Batch(bm.spinner.Tick, bm.loadPackages())
}

func (bm browserModel) loadPackages() tea.Cmd {
	return func() tea.Msg {
		packages, err := bm.backend.ListLocalPackages(bm.ctx)
		return packagesLoadedMsg{packages: packages, err: err}
	}
}

func (bm browserModel) toggle(pkg m.LocalPackage) tea.Cmd {
	return func() tea.Msg {
		if pkg.Enabled {
			result, err := bm.backend.Deactivate(bm.ctx, pkg.Name, m.MatchExact)
			if err != nil {
				return operationDoneMsg{err: err}
			}

			return operationDoneMsg{status: fmt.Sprintf("Disabled %s (%d mod(s))", result.Package, result.ModCount)}
		}

		result, err := bm.backend.Activate(bm.ctx, pkg.Filename)
		if err != nil {
			return operationDoneMsg{err: err}
		}

		return operationDoneMsg{status: fmt.Sprintf("Enabled %s (%s, %d mod(s))", result.Package, result.Layout, len(result.Mods))}
	}
}

func (bm browserModel) importExisting() tea.Cmd {
	return func() tea.Msg {
		result, err := bm.backend.ImportExisting(bm.ctx)
		if err != nil {
			return operationDoneMsg{err: err}
		}

		return operationDoneMsg{status: fmt.Sprintf("Imported %d package(s), %d failed, %d already present",
			result.Imported, result.Failed, len(result.AlreadyPresent))}
	}
}

func (bm browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		bm.width = msg.Width
		bm.height = msg.Height

		return bm, nil

	case tea.KeyMsg:
		return bm.handleKeyPress(msg)

	case packagesLoadedMsg:
		bm.busy = false
		if msg.err != nil {
			bm.err = msg.err
			return bm, nil
		}

		bm.packages = msg.packages
		bm.clampCursor()

		return bm, nil

	case operationDoneMsg:
		bm.status = msg.status
		bm.err = msg.err

		return bm, bm.loadPackages()

	case spinner.TickMsg:
		var cmd tea.Cmd

		bm.spinner, cmd = bm.spinner.Update(msg)

		return bm, cmd
	}

	return bm, nil
}

//nolint:exhaustive // Only quit keys are handled by type
func (bm browserModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		bm.quitting = true
		return bm, tea.Quit
	default:
	}

	switch msg.String() {
	case "q":
		bm.quitting = true
		return bm, tea.Quit

	case "down", "j":
		bm.cursor++
		bm.clampCursor()

		return bm, nil

	case "up", "k":
		bm.cursor--
		bm.clampCursor()

		return bm, nil
	}

	if bm.busy {
		return bm, nil
	}

	switch msg.String() {
	case " ", "enter":
		if len(bm.packages) == 0 {
			return bm, nil
		}

		bm.busy = true
		bm.err = nil

		return bm, tea.Batch(bm.spinner.Tick, bm.toggle(bm.packages[bm.cursor]))

	case "r":
		bm.busy = true
		bm.err = nil

		return bm, tea.Batch(bm.spinner.Tick, bm.loadPackages())

	case "i":
		bm.busy = true
		bm.err = nil

		return bm, tea.Batch(bm.spinner.Tick, bm.importExisting())
	}

	return bm, nil
}

func (bm *browserModel) clampCursor() {
	if bm.cursor >= len(bm.packages) {
		bm.cursor = len(bm.packages) - 1
	}

	if bm.cursor < 0 {
		bm.cursor = 0
	}

	perPage := bm.itemsPerPage()
	if bm.cursor < bm.offset {
		bm.offset = bm.cursor
	}

	if bm.cursor >= bm.offset+perPage {
		bm.offset = bm.cursor - perPage + 1
	}
}

func (bm browserModel) itemsPerPage() int {
	if bm.height == 0 {
		return 10
	}
	// title + blank + status + help
	reserved := 6

	available := bm.height - reserved
	if available < 1 {
		return 1
	}

	return available
}

func (bm browserModel) View() string {
	if bm.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("modsync library"))
	b.WriteString("\n")

	if len(bm.packages) == 0 && !bm.busy {
		b.WriteString(mutedStyle.Render("  No packages in library"))
		b.WriteString("\n")
	}

	end := min(bm.offset+bm.itemsPerPage(), len(bm.packages))
	for i := bm.offset; i < end; i++ {
		b.WriteString(bm.renderRow(i))
		b.WriteString("\n")
	}

	b.WriteString("\n")

	switch {
	case bm.busy:
		fmt.Fprintf(&b, "  %s working...\n", bm.spinner.View())
	case bm.err != nil:
		b.WriteString(errorStyle.Render("  " + bm.err.Error()))
		b.WriteString("\n")
	case bm.status != "":
		b.WriteString("  " + bm.status + "\n")
	default:
		b.WriteString("\n")
	}

	b.WriteString(mutedStyle.Render("  ↑/k: up | ↓/j: down | space: toggle | r: refresh | i: import | q: quit"))
	b.WriteString("\n")

	return b.String()
}

func (bm browserModel) renderRow(i int) string {
	pkg := bm.packages[i]

	marker := "[ ]"
	if pkg.Enabled {
		marker = enabledStyle.Render("[x]")
	}

	line := fmt.Sprintf("%s %s  %s", marker, pkg.Name,
		mutedStyle.Render(fmt.Sprintf("%d mod(s), %s", pkg.ModCount, humanize.Bytes(uint64(max(pkg.Size, 0))))))

	if i == bm.cursor {
		return cursorStyle.Render("> ") + line
	}

	return "  " + line
}
