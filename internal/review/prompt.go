package review

import (
	"fmt"
	"strings"

	"github.com/dshills/sift/internal/diff"
	"github.com/dshills/sift/internal/finding"
	"github.com/dshills/sift/internal/redact"
)

const (
	maxDescriptionLen = 500
	maxHunkPromptLen  = 500
	maxSignals        = 5
	maxOutlineInline  = 5
	charsPerToken     = 4
)

const systemPrompt = `You are an expert code reviewer. Analyze the code changes and identify real issues.

Focus on:
- Bugs and logic errors
- Security vulnerabilities
- Performance problems
- Maintainability concerns

Do NOT comment on:
- Style preferences
- Minor naming suggestions
- Trivial improvements

You MUST respond with ONLY a JSON array of findings. No markdown, no preamble.

Each finding must have this structure:
{
  "file": "relative/file/path",
  "line_start": 1,
  "line_end": 1,
  "category": "bug|security|perf|maintainability",
  "severity": "block|high|medium|low",
  "confidence": "high|medium|low",
  "title": "Brief issue title",
  "message": "What is wrong and why it matters",
  "suggestion": "Specific fix recommendation",
  "reasoning": "Optional: how you reached this conclusion"
}

Use line numbers from the new version of the file, as shown next to added lines.
If there are no issues, respond with an empty array: []`

// SystemPrompt returns the reviewer instructions sent with every request.
func SystemPrompt() string {
	return systemPrompt
}

// PromptInput is everything a user prompt is built from.
type PromptInput struct {
	Title       string
	Description string
	Files       []FileContext
	Hunks       []diff.ExtractedHunk
	Signals     []finding.RawFinding
	// MaxTokens bounds the prompt at roughly four characters per token.
	// Zero means unbounded.
	MaxTokens int
	Redactor  *redact.Redactor
	// RedactSecrets scrubs hunk text with the secret patterns. Withheld
	// paths are always replaced.
	RedactSecrets bool
}

// BuildUserPrompt renders the change under review.
func BuildUserPrompt(in PromptInput) string {
	var b strings.Builder

	if in.Title != "" {
		fmt.Fprintf(&b, "## PR: %s\n", in.Title)
	}
	if in.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", finding.Truncate(in.Description, maxDescriptionLen))
	}

	if len(in.Files) > 0 {
		b.WriteString("\n## Changed Files\n")
		for _, fc := range in.Files {
			fmt.Fprintf(&b, "\n### %s (%s)\n", fc.Path, fc.Language)
			if len(fc.Imports) > 0 {
				fmt.Fprintf(&b, "Imports: %s\n", strings.Join(limit(fc.Imports, maxOutlineInline), ", "))
			}
			if len(fc.Types) > 0 {
				fmt.Fprintf(&b, "Types: %s\n", strings.Join(fc.Types, "; "))
			}
			if len(fc.Functions) > 0 {
				fmt.Fprintf(&b, "Functions: %s\n", strings.Join(limit(fc.Functions, maxOutlineInline), "; "))
			}
		}
	}

	b.WriteString("\n## Code Changes\n")
	budget := in.MaxTokens * charsPerToken
	for i, h := range in.Hunks {
		text := h.Format()
		if in.Redactor.Withheld(h.FilePath) {
			text = in.Redactor.Text(h.FilePath, text)
		} else if in.RedactSecrets {
			text = redact.Secrets(text)
		}
		section := "\n" + finding.Truncate(text, maxHunkPromptLen) + "\n"
		// The first hunk is always sent.
		if budget > 0 && i > 0 && b.Len()+len(section) > budget {
			b.WriteString("\n[Additional hunks truncated...]\n")
			break
		}
		b.WriteString(section)
	}

	if len(in.Signals) > 0 {
		b.WriteString("\n## Static Analysis Signals\n")
		for _, s := range limitRaw(in.Signals, maxSignals) {
			fmt.Fprintf(&b, "- %s at %s:%d\n", s.Title, s.FilePath, s.LineStart)
		}
	}
	return b.String()
}

func limitRaw(s []finding.RawFinding, n int) []finding.RawFinding {
	if len(s) > n {
		return s[:n]
	}
	return s
}
