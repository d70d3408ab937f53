package rules

import (
	"regexp"
	"strings"

	"github.com/dshills/sift/internal/diff"
	"github.com/dshills/sift/internal/finding"
)

var performanceRules = []Rule{
	&nPlusOneRule{
		meta: Meta{
			ID:          "PERF001",
			Name:        "Potential N+1 Query",
			Description: "Detects potential N+1 query patterns",
			Category:    finding.CategoryPerf,
			Severity:    finding.SeverityMedium,
			Confidence:  finding.ConfidenceLow,
			Languages:   []string{"python", "javascript", "typescript", "ruby"},
		},
		block: compile(
			`(?m)for\s+.*\s+in\s+.*:\s*\n.*\.query\(`,
			`(?m)\.forEach\s*\([^)]*\)\s*=>\s*\{[^}]*\.find`,
			`(?m)\.map\s*\([^)]*\)\s*=>\s*\{[^}]*await.*\.get`,
		),
		call: regexp.MustCompile(`\.(query|find\w*|get)\s*\(`),
	},
	&nestedLoopRule{
		meta: Meta{
			ID:          "PERF002",
			Name:        "Nested Loop",
			Description: "Detects deeply nested loops that may cause performance issues",
			Category:    finding.CategoryPerf,
			Severity:    finding.SeverityMedium,
			Confidence:  finding.ConfidenceLow,
			Languages:   []string{"python", "javascript", "typescript", "java"},
		},
		loops: compile(
			`for\s+.*:`,   // python
			`for\s*\(`,    // c-like
			`while\s+.*:`, // python
			`while\s*\(`,  // c-like
		),
	},
	&concatInLoopRule{
		meta: Meta{
			ID:          "PERF003",
			Name:        "String Concatenation in Loop",
			Description: "Detects inefficient string building patterns",
			Category:    finding.CategoryPerf,
			Severity:    finding.SeverityMedium,
			Confidence:  finding.ConfidenceMedium,
			Languages:   []string{"python", "javascript", "java"},
		},
		loopHints: compile(`for\s`, `while\s`, `\.forEach`, `\.map\(`),
		concat:    compile(`\+=\s*["']`, "\\+=\\s*`", `\.concat\s*\(`),
	},
	&patternRule{
		meta: Meta{
			ID:          "PERF004",
			Name:        "Unbounded Query",
			Description: "Detects database queries that may return too many results",
			Category:    finding.CategoryPerf,
			Severity:    finding.SeverityMedium,
			Confidence:  finding.ConfidenceLow,
			Languages:   []string{"python", "javascript", "typescript", "java"},
		},
		patterns: compile(
			`(?i)\.find\s*\(\s*\)`,
			`(?i)\.findAll\s*\(\s*\)`,
			`(?i)SELECT\s+\*\s+FROM`,
			`(?i)\.all\s*\(\s*\)`,
		),
		skip: func(text string) bool {
			lower := strings.ToLower(text)
			return strings.Contains(lower, "limit") || strings.Contains(lower, "take")
		},
		title:      "Potentially unbounded database query",
		message:    "Queries without limits can cause performance and memory issues at scale.",
		suggestion: "Add a LIMIT clause or use pagination for potentially large result sets.",
		maxSnippet: snippetLen,
	},
}

// nPlusOneRule looks for a query issued from inside a loop body within the
// hunk's added block, and reports the line making the call.
type nPlusOneRule struct {
	meta  Meta
	block []*regexp.Regexp
	call  *regexp.Regexp
}

func (r *nPlusOneRule) Meta() Meta { return r.meta }

func (r *nPlusOneRule) Check(file *diff.File, hunk *diff.Hunk, line int, text string) *finding.RawFinding {
	if !r.call.MatchString(text) || !matchAny(r.block, addedBlock(hunk)) {
		return nil
	}
	return r.meta.hit(file, line, report{
		title:      "Potential N+1 query pattern",
		message:    "Database query inside a loop may cause performance issues at scale.",
		suggestion: "Consider using batch queries, joins, or eager loading.",
		snippet:    finding.Snippet(text, 0),
	})
}

// nestedLoopRule flags a loop line when the added block holds two or more loops.
type nestedLoopRule struct {
	meta  Meta
	loops []*regexp.Regexp
}

func (r *nestedLoopRule) Meta() Meta { return r.meta }

func (r *nestedLoopRule) Check(file *diff.File, hunk *diff.Hunk, line int, text string) *finding.RawFinding {
	if !matchAny(r.loops, text) {
		return nil
	}
	block := addedBlock(hunk)
	count := 0
	for _, re := range r.loops {
		count += len(re.FindAllStringIndex(block, -1))
	}
	if count < 2 {
		return nil
	}
	return r.meta.hit(file, line, report{
		title:      "Nested loops detected",
		message:    "Nested loops can lead to O(n²) or worse time complexity.",
		suggestion: "Consider using maps/sets for lookups, or restructuring the algorithm.",
		snippet:    finding.Snippet(text, snippetLen),
	})
}

// concatInLoopRule flags string building when the added block contains a loop.
type concatInLoopRule struct {
	meta      Meta
	loopHints []*regexp.Regexp
	concat    []*regexp.Regexp
}

func (r *concatInLoopRule) Meta() Meta { return r.meta }

func (r *concatInLoopRule) Check(file *diff.File, hunk *diff.Hunk, line int, text string) *finding.RawFinding {
	if !matchAny(r.concat, text) || !matchAny(r.loopHints, addedBlock(hunk)) {
		return nil
	}
	return r.meta.hit(file, line, report{
		title:      "String concatenation in loop",
		message:    "String concatenation in loops creates many intermediate strings.",
		suggestion: "Use array join() or StringBuilder. In Python, use list append with join.",
		snippet:    finding.Snippet(text, snippetLen),
	})
}
