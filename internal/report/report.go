// Package report renders human-readable run summaries for the terminal.
package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dgallion1/docoutline/internal/pipeline"
)

var (
	// titleStyle for bold headers
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	// dimStyle for muted metadata text
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	// boxStyle for the summary box
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1)
)

// FormatRun writes a boxed summary of run followed by one line per document.
func FormatRun(w io.Writer, run *pipeline.Run) {
	elapsed := run.FinishedAt.Sub(run.StartedAt).Seconds()
	ok, failed, missing := run.Count(pipeline.DocOK), run.Count(pipeline.DocFailed), run.Count(pipeline.DocMissing)

	line1 := fmt.Sprintf("%s %s  %s %.2fs",
		dimStyle.Render("Run:"), run.ID,
		dimStyle.Render("Duration:"), elapsed,
	)
	line2 := fmt.Sprintf("%s %s  %s %s  %s %s",
		dimStyle.Render("OK:"), successStyle.Render(fmt.Sprint(ok)),
		dimStyle.Render("Failed:"), countStyle(failed, errorStyle).Render(fmt.Sprint(failed)),
		dimStyle.Render("Missing:"), countStyle(missing, warnStyle).Render(fmt.Sprint(missing)),
	)
	content := titleStyle.Render(heading(run.Kind)) + "\n" + line1 + "\n" + line2
	if run.Output != "" {
		content += "\n" + dimStyle.Render("Output:") + " " + run.Output
	} else if run.Kind == "analyze" {
		content += "\n" + warnStyle.Render("No output written")
	}
	fmt.Fprintln(w, boxStyle.Render(content))

	for _, d := range run.Documents {
		fmt.Fprintln(w, FormatDocument(d))
	}
}

// FormatDocument renders one document report as a status line.
func FormatDocument(d pipeline.DocReport) string {
	name := filepath.Base(d.Path)
	switch d.Status {
	case pipeline.DocOK:
		return fmt.Sprintf("%s %s %s", successStyle.Render("✓"), name,
			dimStyle.Render(fmt.Sprintf("(%d pages, %dms)", d.Pages, d.DurationMs)))
	case pipeline.DocMissing:
		return fmt.Sprintf("%s %s %s", warnStyle.Render("?"), name, dimStyle.Render("not found"))
	default:
		return fmt.Sprintf("%s %s %s", errorStyle.Render("✗"), name, dimStyle.Render(d.Error))
	}
}

// FormatUsage explains how to provide an analysis descriptor.
func FormatUsage(w io.Writer, descriptorPath, example string) {
	fmt.Fprintln(w, warnStyle.Render("No descriptor found at "+descriptorPath))
	fmt.Fprintln(w, dimStyle.Render("Create one like this:"))
	fmt.Fprintln(w, boxStyle.Render(strings.TrimRight(example, "\n")))
}

func heading(kind string) string {
	if kind == "" {
		return "Run complete"
	}
	return strings.ToUpper(kind[:1]) + kind[1:] + " complete"
}

func countStyle(n int, style lipgloss.Style) lipgloss.Style {
	if n == 0 {
		return dimStyle
	}
	return style
}
