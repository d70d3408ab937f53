package output

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/dshills/sift/internal/finding"
	"github.com/dshills/sift/internal/review"
)

// Formats lists the supported output formats.
var Formats = []string{"text", "json", "markdown", "sarif"}

// Writer writes a result in one format.
type Writer interface {
	Write(w io.Writer, res *review.Result) error
}

// GetWriter returns the writer for format. color only affects text.
func GetWriter(format string, color bool) (Writer, error) {
	switch format {
	case "text":
		return &TextWriter{Color: color}, nil
	case "json":
		return &JSONWriter{}, nil
	case "markdown", "md":
		return &MarkdownWriter{}, nil
	case "sarif":
		return &SARIFWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// ColorEnabled reports whether f is a terminal that should get colour.
// NO_COLOR disables colour everywhere.
func ColorEnabled(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// WriteReport writes res to outPath, or to stdout when outPath is empty.
func WriteReport(res *review.Result, format, outPath string) error {
	if outPath == "" {
		writer, err := GetWriter(format, ColorEnabled(os.Stdout))
		if err != nil {
			return err
		}
		return writer.Write(os.Stdout, res)
	}

	writer, err := GetWriter(format, false)
	if err != nil {
		return err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := writer.Write(f, res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

var severityOrder = []finding.Severity{
	finding.SeverityBlock, finding.SeverityHigh, finding.SeverityMedium, finding.SeverityLow,
}

var severityEmoji = map[finding.Severity]string{
	finding.SeverityBlock:  "🚫",
	finding.SeverityHigh:   "🔴",
	finding.SeverityMedium: "🟡",
	finding.SeverityLow:    "🔵",
}

var categoryEmoji = map[finding.Category]string{
	finding.CategorySecurity:        "🔒",
	finding.CategoryBug:             "🐛",
	finding.CategoryPerf:            "⚡",
	finding.CategoryStyle:           "🎨",
	finding.CategoryMaintainability: "🧹",
}

// SeverityEmoji returns the badge for s.
func SeverityEmoji(s finding.Severity) string {
	if e, ok := severityEmoji[s]; ok {
		return e
	}
	return "⚪"
}

// CategoryEmoji returns the badge for c.
func CategoryEmoji(c finding.Category) string {
	if e, ok := categoryEmoji[c]; ok {
		return e
	}
	return "📝"
}

func groupBySeverity(findings []*finding.Finding) map[finding.Severity][]*finding.Finding {
	m := make(map[finding.Severity][]*finding.Finding)
	for _, f := range findings {
		m[f.Severity] = append(m[f.Severity], f)
	}
	return m
}

func lineLabel(f *finding.Finding) string {
	if f.LineStart == nil {
		return "?"
	}
	if f.LineEnd != nil && *f.LineEnd > *f.LineStart {
		return fmt.Sprintf("%d-%d", *f.LineStart, *f.LineEnd)
	}
	return fmt.Sprintf("%d", *f.LineStart)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
