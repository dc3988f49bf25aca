package controller

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Lines taken by the viewer header and footer.
const viewerChrome = 4

// TUI implements UI with a Bubble Tea viewer for sources taller than the
// terminal. Tables are printed like SimpleUI does.
type TUI struct {
	*SimpleUI

	input  io.Reader
	output io.Writer
}

// NewTUI creates a new TUI.
func NewTUI(cmd *cobra.Command) *TUI {
	return &TUI{
		SimpleUI: NewSimpleUI(cmd),
		input:    cmd.InOrStdin(),
		output:   cmd.OutOrStdout(),
	}
}

// DisplaySource opens a scrollable viewer unless the source fits on screen.
func (p *TUI) DisplaySource(ctx context.Context, title, source string, options ...DisplayOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg := displayConfig(options)
	if cfg.lineNumbers {
		source = numberLines(source)
	}

	model := newSourceModel(title, source)

	if f, ok := p.output.(*os.File); ok {
		width, height, err := term.GetSize(int(f.Fd()))
		if err == nil {
			model = model.resize(width, height)
		}
	}

	if !model.needsPagination() {
		return p.SimpleUI.DisplaySource(ctx, title, source)
	}

	program := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithInput(p.input),
		tea.WithOutput(p.output),
		tea.WithAltScreen(),
	)
	if _, err := program.Run(); err != nil {
		return err
	}

	return nil
}

// sourceModel is the Bubble Tea model of the source viewer.
type sourceModel struct {
	title    string
	lines    int
	viewport viewport.Model
	ready    bool
	quitting bool
	header   lipgloss.Style
	footer   lipgloss.Style
}

func newSourceModel(title, source string) sourceModel {
	vp := viewport.New(0, 0)
	vp.SetContent(source)

	return sourceModel{
		title:    title,
		lines:    strings.Count(ensureNewline(source), "\n"),
		viewport: vp,
		header:   lipgloss.NewStyle().Bold(true),
		footer:   lipgloss.NewStyle().Faint(true),
	}
}

func (sm sourceModel) resize(width, height int) sourceModel {
	sm.viewport.Width = width
	sm.viewport.Height = max(height-viewerChrome, 1)
	sm.ready = height > 0

	return sm
}

// needsPagination reports whether the source is taller than the viewport.
func (sm sourceModel) needsPagination() bool {
	return sm.ready && sm.lines > sm.viewport.Height
}

func (sm sourceModel) Init() tea.Cmd {
	return nil
}

func (sm sourceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return sm.resize(msg.Width, msg.Height), nil

	case tea.KeyMsg:
		//nolint:exhaustive // Everything else goes to the viewport.
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			sm.quitting = true
			return sm, tea.Quit
		default:
		}

		switch msg.String() {
		case "q":
			sm.quitting = true
			return sm, tea.Quit
		case "g", "home":
			sm.viewport.GotoTop()
			return sm, nil
		case "G", "end":
			sm.viewport.GotoBottom()
			return sm, nil
		}
	}

	var cmd tea.Cmd
	sm.viewport, cmd = sm.viewport.Update(msg)

	return sm, cmd
}

func (sm sourceModel) View() string {
	if sm.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(sm.header.Render(sm.title) + "\n\n")
	b.WriteString(sm.viewport.View() + "\n")
	fmt.Fprintf(&b, "%s\n", sm.footer.Render(fmt.Sprintf(
		"%3.f%% | %d lines | ↑/k: up | ↓/j: down | g: top | G: bottom | q: quit",
		sm.viewport.ScrollPercent()*100, sm.lines,
	)))

	return b.String()
}
