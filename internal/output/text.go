package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dshills/sift/internal/finding"
	"github.com/dshills/sift/internal/review"
)

var (
	dim = lipgloss.Color("#6B7280")

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#D97706"))
	dimStyle    = lipgloss.NewStyle().Foreground(dim)
	titleStyle  = lipgloss.NewStyle().Bold(true)
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E"))

	severityStyles = map[finding.Severity]lipgloss.Style{
		finding.SeverityBlock:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#B91C1C")),
		finding.SeverityHigh:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444")),
		finding.SeverityMedium: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B")),
		finding.SeverityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("#8B949E")),
	}
)

// TextWriter outputs a human-readable report. Color enables ANSI styling.
type TextWriter struct {
	Color bool
}

func (t *TextWriter) paint(style lipgloss.Style, s string) string {
	if !t.Color {
		return s
	}
	return style.Render(s)
}

func (t *TextWriter) Write(w io.Writer, res *review.Result) error {
	ew := &errWriter{w: w}
	active := res.Active()

	title := "sift review"
	if res.Source != "" {
		title += " · " + res.Source
	}
	ew.println(t.paint(headerStyle, title))
	if res.Repo != "" {
		if res.PR > 0 {
			ew.printf("Repository: %s #%d\n", res.Repo, res.PR)
		} else {
			ew.printf("Repository: %s\n", res.Repo)
		}
	}
	if res.ShadowMode {
		ew.println(t.paint(dimStyle, "Shadow mode: results are recorded but not posted"))
	}
	ew.println(t.paint(dimStyle, strings.Repeat("─", 60)))

	switch res.Status {
	case review.StatusSkipped:
		ew.printf("Skipped: %s\n", res.Reason)
		return ew.err
	case review.StatusFailed:
		ew.printf("Failed: %s\n", res.Error)
		return ew.err
	}

	grouped := groupBySeverity(active)
	ew.printf("Findings: %d active", len(active))
	if len(active) > 0 {
		var parts []string
		for _, sev := range severityOrder {
			if n := len(grouped[sev]); n > 0 {
				parts = append(parts, fmt.Sprintf("%d %s", n, sev))
			}
		}
		ew.printf(" (%s)", strings.Join(parts, ", "))
	}
	if res.Stats.Suppressed > 0 {
		ew.printf(", %d suppressed", res.Stats.Suppressed)
	}
	ew.println("")
	ew.println(t.paint(dimStyle, strings.Repeat("─", 60)))

	if len(active) == 0 {
		ew.println(t.paint(passStyle, "\nNo issues found. Looks good!"))
	}

	for _, sev := range severityOrder {
		findings := grouped[sev]
		if len(findings) == 0 {
			continue
		}
		ew.printf("\n%s\n", t.paint(severityStyles[sev], " "+strings.ToUpper(string(sev))+" "))

		for _, f := range findings {
			origin := "AI"
			if f.RuleID != "" {
				origin = f.RuleID
			}
			ew.printf("\n  %s  %s  %s\n",
				t.paint(dimStyle, f.FilePath+":"+lineLabel(f)), t.paint(titleStyle, f.Title), t.paint(dimStyle, "["+origin+"]"))
			ew.printf("  Category: %s | Confidence: %s\n", f.Category, f.Confidence)
			for _, line := range wrapText(f.Message, 70) {
				ew.printf("    %s\n", line)
			}
			if f.CodeSnippet != "" {
				ew.printf("    %s\n", t.paint(dimStyle, "> "+f.CodeSnippet))
			}
			if f.Suggestion != "" {
				ew.println("  Suggestion:")
				for _, line := range wrapText(f.Suggestion, 70) {
					ew.printf("    %s\n", line)
				}
			}
		}
	}

	ew.printf("\n%s\n", t.paint(dimStyle, strings.Repeat("─", 60)))
	m := res.Metrics
	ew.printf("Run %s · %d files, %d hunks", shortID(res.RunID), m.FilesAnalyzed, m.HunksAnalyzed)
	if m.Model != "" {
		ew.printf(" · model %s (%s)", m.Model, m.Tier)
	}
	ew.printf(" · completed in %dms\n", m.DurationMs)
	return ew.err
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	var current strings.Builder
	for _, word := range strings.Fields(text) {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
