package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/sift/internal/finding"
	"github.com/dshills/sift/internal/review"
)

const (
	maxTopTitles       = 3
	maxTitleLen        = 30
	maxReportFiles     = 5
	maxFindingsPerFile = 5
	maxSummaryPerSev   = 5
	maxReportMessage   = 100
)

// MarkdownWriter outputs the full review report.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, res *review.Result) error {
	_, err := io.WriteString(w, FullReport(res))
	return err
}

// FullReport renders the markdown report: severity table, then up to five
// files with their findings.
func FullReport(res *review.Result) string {
	var b strings.Builder
	active := res.Active()

	b.WriteString("## 🤖 AI Code Review Report\n\n")
	if res.ShadowMode {
		b.WriteString("> ⚠️ **Shadow Mode**: This review is for testing only and won't block the PR.\n\n")
	}
	if res.Status == review.StatusSkipped {
		fmt.Fprintf(&b, "_Skipped: %s_\n", res.Reason)
		return b.String()
	}
	if len(active) == 0 {
		b.WriteString("✅ **No issues found!** This code looks good to merge.\n")
		writeFooter(&b, res)
		return b.String()
	}

	fmt.Fprintf(&b, "Found **%d** issue(s) to review:\n\n", len(active))
	b.WriteString("| Severity | Count | Top Issues |\n")
	b.WriteString("|----------|-------|------------|\n")
	grouped := groupBySeverity(active)
	for _, sev := range severityOrder {
		findings := grouped[sev]
		if len(findings) == 0 {
			continue
		}
		var titles []string
		for _, f := range findings[:min(len(findings), maxTopTitles)] {
			titles = append(titles, finding.Truncate(f.Title, maxTitleLen))
		}
		top := strings.Join(titles, ", ")
		if extra := len(findings) - maxTopTitles; extra > 0 {
			top += fmt.Sprintf(" (+%d more)", extra)
		}
		fmt.Fprintf(&b, "| %s %s | %d | %s |\n", SeverityEmoji(sev), strings.ToUpper(string(sev)), len(findings), top)
	}

	var paths []string
	byFile := make(map[string][]*finding.Finding)
	for _, f := range active {
		if _, ok := byFile[f.FilePath]; !ok {
			paths = append(paths, f.FilePath)
		}
		byFile[f.FilePath] = append(byFile[f.FilePath], f)
	}
	for _, path := range paths[:min(len(paths), maxReportFiles)] {
		fmt.Fprintf(&b, "\n### `%s`\n\n", path)
		findings := byFile[path]
		for _, f := range findings[:min(len(findings), maxFindingsPerFile)] {
			line := ""
			if f.LineStart != nil {
				line = fmt.Sprintf(" L%d", *f.LineStart)
			}
			fmt.Fprintf(&b, "- %s **%s**%s\n", SeverityEmoji(f.Severity), f.Title, line)
			msg := f.Message
			if len([]rune(msg)) > maxReportMessage {
				msg = finding.Truncate(msg, maxReportMessage) + "..."
			}
			fmt.Fprintf(&b, "  %s\n", msg)
		}
		if extra := len(findings) - maxFindingsPerFile; extra > 0 {
			fmt.Fprintf(&b, "  ... and %d more in this file\n", extra)
		}
	}
	if extra := len(paths) - maxReportFiles; extra > 0 {
		fmt.Fprintf(&b, "\n_... and %d more file(s)_\n", extra)
	}
	writeFooter(&b, res)
	return b.String()
}

// SummaryComment renders the pull request summary comment.
func SummaryComment(res *review.Result) string {
	active := res.Active()
	if len(active) == 0 {
		return "✅ **AI Code Review**: No issues found in this PR."
	}

	var b strings.Builder
	b.WriteString("## 🤖 AI Code Review Summary\n\n")
	if res.ShadowMode {
		b.WriteString("> ⚠️ **Shadow Mode**: This is a preview review and won't block the PR.\n\n")
	}
	fmt.Fprintf(&b, "Found **%d** issue(s):\n\n", len(active))

	grouped := groupBySeverity(active)
	for _, sev := range severityOrder {
		if n := len(grouped[sev]); n > 0 {
			fmt.Fprintf(&b, "- %s **%s**: %d\n", SeverityEmoji(sev), strings.ToUpper(string(sev)), n)
		}
	}

	b.WriteString("\n### Details\n\n")
	for _, sev := range severityOrder {
		findings := grouped[sev]
		for _, f := range findings[:min(len(findings), maxSummaryPerSev)] {
			fmt.Fprintf(&b, "- %s **%s** (%s %s)\n", SeverityEmoji(f.Severity), f.Title, CategoryEmoji(f.Category), f.Category)
			fmt.Fprintf(&b, "  - `%s:%s`\n", f.FilePath, lineLabel(f))
		}
	}
	writeFooter(&b, res)
	return b.String()
}

// InlineComment renders the body of a line comment for f.
func InlineComment(f *finding.Finding) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### %s %s\n\n", SeverityEmoji(f.Severity), f.Title)
	fmt.Fprintf(&b, "**Severity**: %s | **Category**: %s %s\n\n",
		strings.ToUpper(string(f.Severity)), CategoryEmoji(f.Category), f.Category)
	fmt.Fprintf(&b, "%s\n", f.Message)
	if f.Suggestion != "" {
		fmt.Fprintf(&b, "\n**Suggestion**: %s\n", f.Suggestion)
	}
	if f.RuleID != "" {
		fmt.Fprintf(&b, "\n<sub>Rule: `%s`</sub>", f.RuleID)
	} else {
		fmt.Fprintf(&b, "\n<sub>AI Review (%s confidence)</sub>", f.Confidence)
	}
	return b.String()
}

func writeFooter(b *strings.Builder, res *review.Result) {
	if n := len(res.Suppressed()); n > 0 {
		fmt.Fprintf(b, "\n<sub>%d low-priority issue(s) suppressed.</sub>\n", n)
	}
	if res.RunID != "" {
		fmt.Fprintf(b, "\n<sub>Run ID: `%s`</sub>\n", shortID(res.RunID))
	}
}
