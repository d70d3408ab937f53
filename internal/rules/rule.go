package rules

import (
	"regexp"
	"slices"
	"strings"

	"github.com/dshills/sift/internal/diff"
	"github.com/dshills/sift/internal/finding"
)

// Meta is the static description of a rule.
type Meta struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Category    finding.Category   `json:"category"`
	Severity    finding.Severity   `json:"severity"`
	Confidence  finding.Confidence `json:"confidence"`
	Languages   []string           `json:"languages,omitempty"`
}

// AppliesTo reports whether the rule runs on files of language.
// An empty language list means every language.
func (m Meta) AppliesTo(language string) bool {
	return len(m.Languages) == 0 || slices.Contains(m.Languages, language)
}

// Rule checks one added line. It returns nil when the line is clean.
type Rule interface {
	Meta() Meta
	Check(file *diff.File, hunk *diff.Hunk, line int, text string) *finding.RawFinding
}

// report is the text a rule attaches to a hit.
type report struct {
	title      string
	message    string
	suggestion string
	snippet    string
}

func (m Meta) hit(file *diff.File, line int, r report) *finding.RawFinding {
	return &finding.RawFinding{
		RuleID:      m.ID,
		RuleName:    m.Name,
		FilePath:    file.Path,
		LineStart:   line,
		LineEnd:     line,
		Category:    m.Category,
		Severity:    m.Severity,
		Confidence:  m.Confidence,
		Title:       r.title,
		Message:     r.message,
		Suggestion:  r.suggestion,
		CodeSnippet: r.snippet,
	}
}

// snippetLen caps code snippets for most rules.
const snippetLen = 100

// patternRule fires when any of its patterns matches the line.
type patternRule struct {
	meta       Meta
	patterns   []*regexp.Regexp
	title      string
	message    string
	suggestion string
	// maxSnippet of 0 keeps the whole trimmed line.
	maxSnippet int
	// skip suppresses the rule for lines that are already guarded.
	skip func(text string) bool
	// prepare rewrites the line before matching.
	prepare func(text string) string
}

func (r *patternRule) Meta() Meta { return r.meta }

func (r *patternRule) Check(file *diff.File, _ *diff.Hunk, line int, text string) *finding.RawFinding {
	if r.skip != nil && r.skip(text) {
		return nil
	}
	subject := text
	if r.prepare != nil {
		subject = r.prepare(text)
	}
	if !matchAny(r.patterns, subject) {
		return nil
	}
	return r.meta.hit(file, line, report{
		title:      r.title,
		message:    r.message,
		suggestion: r.suggestion,
		snippet:    finding.Snippet(text, r.maxSnippet),
	})
}

func matchAny(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// addedBlock joins a hunk's added lines for multi-line heuristics.
func addedBlock(hunk *diff.Hunk) string {
	if hunk == nil {
		return ""
	}
	lines := make([]string, len(hunk.Additions))
	for i, l := range hunk.Additions {
		lines[i] = l.Text
	}
	return strings.Join(lines, "\n")
}
