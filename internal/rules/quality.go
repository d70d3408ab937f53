package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dshills/sift/internal/diff"
	"github.com/dshills/sift/internal/finding"
)

var qualityRules = []Rule{
	&patternRule{
		meta: Meta{
			ID:          "QUAL001",
			Name:        "TODO/FIXME Comment",
			Description: "Detects TODO, FIXME, HACK comments that may need attention",
			Category:    finding.CategoryMaintainability,
			Severity:    finding.SeverityLow,
			Confidence:  finding.ConfidenceHigh,
		},
		patterns:   compile(`TODO[:\s]`, `FIXME[:\s]`, `HACK[:\s]`, `XXX[:\s]`),
		prepare:    strings.ToUpper,
		title:      "TODO/FIXME comment found",
		message:    "This comment indicates incomplete or temporary code that may need follow-up.",
		suggestion: "Create a tracking issue if this requires future work, or address it now if possible.",
		maxSnippet: snippetLen,
	},
	&patternRule{
		meta: Meta{
			ID:          "QUAL002",
			Name:        "Debug Code",
			Description: "Detects debug statements that may have been left accidentally",
			Category:    finding.CategoryMaintainability,
			Severity:    finding.SeverityMedium,
			Confidence:  finding.ConfidenceMedium,
			Languages:   []string{"python", "javascript", "typescript"},
		},
		patterns: compile(
			`(?i)console\.log\s*\(`,
			`(?i)console\.debug\s*\(`,
			`(?i)debugger;`,
			`(?i)print\s*\(["']debug`,
			`(?i)pdb\.set_trace\s*\(`,
			`(?i)breakpoint\s*\(`,
		),
		title:      "Debug code detected",
		message:    "Debug statements should typically be removed before merging to production.",
		suggestion: "Remove debug code or use a proper logging framework instead.",
		maxSnippet: snippetLen,
	},
	&magicNumberRule{
		meta: Meta{
			ID:          "QUAL003",
			Name:        "Magic Number",
			Description: "Detects hardcoded numbers that may be better as named constants",
			Category:    finding.CategoryMaintainability,
			Severity:    finding.SeverityLow,
			Confidence:  finding.ConfidenceLow,
			Languages:   []string{"python", "javascript", "typescript", "java"},
		},
		number: regexp.MustCompile(`[=<>]\s*(\d{3,})\b`),
		exempt: map[int64]bool{0: true, 1: true, 2: true, 10: true, 100: true, 1000: true},
	},
}

// magicNumberRule flags literals of three or more digits in comparisons and
// assignments, apart from a few round values.
type magicNumberRule struct {
	meta   Meta
	number *regexp.Regexp
	exempt map[int64]bool
}

func (r *magicNumberRule) Meta() Meta { return r.meta }

func (r *magicNumberRule) Check(file *diff.File, _ *diff.Hunk, line int, text string) *finding.RawFinding {
	for _, m := range r.number.FindAllStringSubmatch(text, -1) {
		literal := m[1]
		if n, err := strconv.ParseInt(literal, 10, 64); err == nil {
			if r.exempt[n] {
				continue
			}
			literal = strconv.FormatInt(n, 10)
		}
		return r.meta.hit(file, line, report{
			title:      fmt.Sprintf("Magic number %s detected", literal),
			message:    "Hardcoded numbers can be unclear. Consider using a named constant.",
			suggestion: fmt.Sprintf("Extract %s to a named constant that explains its meaning.", literal),
			snippet:    finding.Snippet(text, snippetLen),
		})
	}
	return nil
}
