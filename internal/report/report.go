// Package report renders test results and project summaries as markdown,
// optionally styled for the terminal.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/besttest/besttest/internal/aggregate"
	"github.com/besttest/besttest/pkg/types"
)

const timeLayout = "2006-01-02 15:04"

// ResultMarkdown renders one execution result with its per-case details.
func ResultMarkdown(r types.TestResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", r.PlanName)
	fmt.Fprintf(&b, "- **Result:** %s\n", r.ID)
	fmt.Fprintf(&b, "- **Plan:** %s\n", r.PlanID)
	fmt.Fprintf(&b, "- **Executed:** %s\n\n", r.ExecutedAt.Local().Format(timeLayout))

	b.WriteString("| Total | Passed | Failed | Skipped | Not Tested |\n")
	b.WriteString("|------:|-------:|-------:|--------:|-----------:|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %d |\n\n", r.Total, r.Passed, r.Failed, r.Skipped, r.NotTested)

	if len(r.Details) == 0 {
		b.WriteString("_No test cases._\n")
		return b.String()
	}

	b.WriteString("## Details\n\n")
	b.WriteString("| ID | Name | Module | Scenario | Result | Comments |\n")
	b.WriteString("|----|------|--------|----------|--------|----------|\n")
	for _, d := range r.Details {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			cell(d.ID), cell(d.Name), cell(d.Module), cell(d.Scenario), d.Result, cell(d.Comments))
	}

	if shots := r.Screenshots(); len(shots) > 0 {
		b.WriteString("\n## Evidence\n\n")
		for _, d := range r.Details {
			for _, name := range d.Screenshots {
				fmt.Fprintf(&b, "- %s: `%s`\n", d.ID, name)
			}
		}
	}
	return b.String()
}

// SummaryMarkdown renders the summary of a project.
func SummaryMarkdown(project string, s aggregate.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", project)
	fmt.Fprintf(&b, "- **Test cases:** %d in %d modules\n", s.TotalCases, s.Modules)
	fmt.Fprintf(&b, "- **Plans:** %d\n", s.Plans)
	fmt.Fprintf(&b, "- **Executions:** %d\n", s.Executions)
	fmt.Fprintf(&b, "- **Pass rate:** %.1f%%\n\n", s.PassRate)

	b.WriteString("## Verdicts\n\n")
	b.WriteString("| Module | Passed | Failed | Skipped |\n")
	b.WriteString("|--------|-------:|-------:|--------:|\n")
	for _, m := range s.PerModule {
		fmt.Fprintf(&b, "| %s | %d | %d | %d |\n", cell(m.Module), m.Passed, m.Failed, m.Skipped)
	}
	fmt.Fprintf(&b, "| **All** | %d | %d | %d |\n", s.Global.Passed, s.Global.Failed, s.Global.Skipped)
	return b.String()
}

// ResultsMarkdown lists results newest first with their completion.
func ResultsMarkdown(results []types.TestResult) string {
	var b strings.Builder
	b.WriteString("| ID | Plan | Executed | Passed | Failed | Skipped | Not Tested |\n")
	b.WriteString("|----|------|----------|-------:|-------:|--------:|-----------:|\n")
	for _, r := range results {
		fmt.Fprintf(&b, "| %s | %s | %s | %d | %d | %d | %d |\n",
			r.ID, cell(r.PlanName), r.ExecutedAt.Local().Format(timeLayout),
			r.Passed, r.Failed, r.Skipped, r.NotTested)
	}
	return b.String()
}

// cell escapes a value for a markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

// Renderer writes markdown to a terminal, styled when possible.
type Renderer struct {
	out   io.Writer
	plain bool
}

// NewRenderer returns a renderer for out. With plain set the markdown is
// written as-is.
func NewRenderer(out io.Writer, plain bool) *Renderer {
	if out == nil {
		out = os.Stdout
	}
	return &Renderer{out: out, plain: plain}
}

// Render writes content, falling back to plain text when styling fails.
func (r *Renderer) Render(content string) error {
	if r.plain {
		_, err := fmt.Fprint(r.out, content)
		return err
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		_, err = fmt.Fprintln(r.out, content)
		return err
	}
	rendered, err := tr.Render(content)
	if err != nil {
		_, err = fmt.Fprintln(r.out, content)
		return err
	}
	_, err = fmt.Fprint(r.out, rendered)
	return err
}

// Age formats how long ago t was, for list output.
func Age(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
	return fmt.Sprintf("%dd ago", int(d.Hours()/24))
}
