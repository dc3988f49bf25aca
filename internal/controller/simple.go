package controller

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "weave.dev/pkg/weave/internal/model"
)

const (
	shortIDLength   = 8
	shortHashLength = 12
	timeLayout      = "2006-01-02 15:04:05"
)

// SimpleUI implements UI using cobra Command's output stream.
type SimpleUI struct {
	cmd    *cobra.Command
	styles styles
}

type styles struct {
	title   lipgloss.Style
	err     lipgloss.Style
	warning lipgloss.Style
	ok      lipgloss.Style
	faint   lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:   r.NewStyle().Bold(true),
		err:     r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		warning: r.NewStyle().Foreground(lipgloss.Color("11")),
		ok:      r.NewStyle().Foreground(lipgloss.Color("10")),
		faint:   r.NewStyle().Faint(true),
	}
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{
		cmd:    cmd,
		styles: newStyles(lipgloss.NewRenderer(cmd.OutOrStdout())),
	}
}

// DisplaySource prints a source unit under its title.
func (s *SimpleUI) DisplaySource(ctx context.Context, title, source string, options ...DisplayOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg := displayConfig(options)
	if cfg.lineNumbers {
		source = numberLines(source)
	}

	if title != "" {
		s.printf("%s\n\n", s.styles.title.Render("// "+title))
	}

	s.printf("%s", ensureNewline(source))

	return nil
}

// DisplayDiff prints a unified diff.
func (s *SimpleUI) DisplayDiff(ctx context.Context, diff string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if diff == "" {
		s.printf("%s\n", s.styles.faint.Render("no differences"))
		return nil
	}

	s.printf("%s", ensureNewline(diff))

	return nil
}

// DisplayCompileResults prints a summary table and every diagnostic.
func (s *SimpleUI) DisplayCompileResults(ctx context.Context, results []m.CompileResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("\n%s", renderResultsTable(results))

	for _, result := range results {
		if result.Err != nil && len(result.Diagnostics) == 0 {
			s.printf("%s: %s\n", result.Blueprint.Path, s.styles.err.Render(result.Err.Error()))
		}

		for _, d := range result.Diagnostics {
			s.printf("%s: %s: %s\n", result.Blueprint.Path, d.Location, s.severity(d.Severity)+": "+d.Message)
		}
	}

	return nil
}

func renderResultsTable(results []m.CompileResult) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Blueprint", "Type", "Status", "Errors", "Warnings"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_CENTER, tablewriter.ALIGN_CENTER,
	})

	compiled := 0

	for _, r := range results {
		errs, warnings := r.Counts()
		if r.Status == m.Compiled {
			compiled++
		}

		typeName := r.TypeName
		if r.Package != "" {
			typeName = r.Package + "." + r.TypeName
		}

		table.Append([]string{
			string(r.Blueprint.Path),
			typeName,
			r.Status.String(),
			fmt.Sprintf("%d", errs),
			fmt.Sprintf("%d", warnings),
		})
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Blueprints %d", len(results)),
		"",
		fmt.Sprintf("%d compiled", compiled),
		"",
		"",
	})

	table.Render()

	return tableBuffer.String()
}

// DisplayMembers lists the operations of base and whether they can be
// overridden.
func (s *SimpleUI) DisplayMembers(ctx context.Context, base m.TypeDescriptor, overridable []m.Operation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("%s\n\n", s.styles.title.Render(fmt.Sprintf("%s.%s (%s)", base.PkgName, base.Name, base.Kind)))

	if len(base.Operations) == 0 {
		s.printf("%s\n", s.styles.faint.Render("no operations"))
		return nil
	}

	open := make(map[string]struct{}, len(overridable))
	for _, op := range overridable {
		open[op.String()] = struct{}{}
	}

	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Operation", "Kind", "Overridable"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)

	count := 0

	for _, op := range base.Operations {
		mark := "no"
		if _, ok := open[op.String()]; ok {
			mark = "yes"
			count++
		}

		table.Append([]string{op.String(), operationKind(op), mark})
	}

	table.SetFooter([]string{fmt.Sprintf("Total Operations %d", len(base.Operations)), "", fmt.Sprintf("%d", count)})
	table.Render()

	s.printf("%s", tableBuffer.String())

	return nil
}

func operationKind(op m.Operation) string {
	switch {
	case op.Static:
		return "static"
	case op.Final:
		return "final"
	case op.Virtual:
		return "virtual"
	}

	return "plain"
}

// DisplayHistory prints the compile journal.
func (s *SimpleUI) DisplayHistory(ctx context.Context, records []m.CompileRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(records) == 0 {
		s.printf("%s\n", s.styles.faint.Render("journal is empty"))
		return nil
	}

	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"ID", "Time", "Blueprint", "Type", "Status", "Errors", "Warnings", "Source"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)

	for _, r := range records {
		status := "failed"
		if r.Succeeded {
			status = "compiled"
		}

		table.Append([]string{
			shorten(r.ID, shortIDLength),
			r.Timestamp.Local().Format(timeLayout),
			r.Blueprint,
			r.Package + "." + r.TypeName,
			status,
			fmt.Sprintf("%d", r.Errors),
			fmt.Sprintf("%d", r.Warnings),
			shorten(r.SourceHash, shortHashLength),
		})
	}

	table.SetFooter([]string{fmt.Sprintf("Total Records %d", len(records)), lastRun(records), "", "", "", "", "", ""})
	table.Render()

	s.printf("%s", tableBuffer.String())

	return nil
}

func lastRun(records []m.CompileRecord) string {
	var last time.Time

	for _, r := range records {
		if r.Timestamp.After(last) {
			last = r.Timestamp
		}
	}

	return last.Local().Format(timeLayout)
}

func (s *SimpleUI) severity(sev m.Severity) string {
	if sev == m.SeverityError {
		return s.styles.err.Render(sev.String())
	}

	return s.styles.warning.Render(sev.String())
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}

func shorten(value string, n int) string {
	if len(value) <= n {
		return value
	}

	return value[:n]
}

func ensureNewline(text string) string {
	if text == "" || strings.HasSuffix(text, "\n") {
		return text
	}

	return text + "\n"
}

func numberLines(source string) string {
	lines := strings.Split(strings.TrimSuffix(source, "\n"), "\n")
	width := len(fmt.Sprintf("%d", len(lines)))

	var b strings.Builder
	for i, line := range lines {
		fmt.Fprintf(&b, "%*d  %s\n", width, i+1, line)
	}

	return b.String()
}
