package rules

import (
	"strings"

	"github.com/dshills/sift/internal/finding"
)

var bugRules = []Rule{
	&patternRule{
		meta: Meta{
			ID:          "BUG001",
			Name:        "Missing Null Check",
			Description: "Detects potential null/undefined dereferences",
			Category:    finding.CategoryBug,
			Severity:    finding.SeverityMedium,
			Confidence:  finding.ConfidenceLow,
			Languages:   []string{"javascript", "typescript"},
		},
		patterns: compile(
			`\.length\s*[><=]`,
			`\[\d+\]`,
			`\.map\s*\(`,
			`\.filter\s*\(`,
			`\.forEach\s*\(`,
		),
		skip: func(text string) bool {
			return strings.Contains(text, "?.") ||
				strings.Contains(text, "!= null") ||
				strings.Contains(text, "!== null")
		},
		title:      "Potential null/undefined access",
		message:    "This line accesses properties that may cause errors if the value is null or undefined.",
		suggestion: "Consider using optional chaining (?.) or adding a null check.",
	},
	&patternRule{
		meta: Meta{
			ID:          "BUG002",
			Name:        "Swallowed Exception",
			Description: "Detects empty catch blocks that swallow exceptions",
			Category:    finding.CategoryBug,
			Severity:    finding.SeverityMedium,
			Confidence:  finding.ConfidenceHigh,
			Languages:   []string{"python", "javascript", "typescript", "java"},
		},
		patterns: compile(
			`except\s*:\s*pass`,
			`catch\s*\([^)]*\)\s*\{\s*\}`,
			`catch\s*\([^)]*\)\s*\{\s*//.*\s*\}`,
		),
		title:      "Exception silently swallowed",
		message:    "Empty catch block silently ignores errors, making debugging difficult.",
		suggestion: "At minimum, log the error. Consider re-throwing or handling appropriately.",
	},
}
