package output

import (
	"github.com/dshills/sift/internal/classify"
	"github.com/dshills/sift/internal/finding"
	"github.com/dshills/sift/internal/review"
)

func intPtr(n int) *int { return &n }

func sampleResult() *review.Result {
	findings := []*finding.Finding{
		{
			FilePath:   "app/auth.py",
			LineStart:  intPtr(12),
			LineEnd:    intPtr(12),
			Source:     finding.SourceStatic,
			Category:   finding.CategorySecurity,
			Severity:   finding.SeverityHigh,
			Confidence: finding.ConfidenceHigh,
			Title:      "Hardcoded secret",
			Message:    "A credential is assigned to a literal.",
			Suggestion: "Load it from the environment.",
			RuleID:     "SEC001",
		},
		{
			FilePath:   "app/views.py",
			LineStart:  intPtr(40),
			LineEnd:    intPtr(44),
			Source:     finding.SourceAI,
			Category:   finding.CategoryBug,
			Severity:   finding.SeverityMedium,
			Confidence: finding.ConfidenceMedium,
			Title:      "Missing nil check",
			Message:    "The response may be empty.",
			AIModel:    "gpt-4o-mini",
		},
		{
			FilePath:          "app/util.py",
			Source:            finding.SourceAI,
			Category:          finding.CategoryStyle,
			Severity:          finding.SeverityLow,
			Confidence:        finding.ConfidenceLow,
			Title:             "Naming",
			Message:           "Consider a clearer name.",
			Suppressed:        true,
			SuppressionReason: "low_confidence_ai",
		},
	}
	return &review.Result{
		Tool:        review.Tool,
		Version:     review.Version,
		RunID:       "0123456789abcdef",
		Status:      review.StatusCompleted,
		Repo:        "acme/api",
		PR:          7,
		Source:      "pr",
		MaxComments: 5,
		Findings:    findings,
		Stats:       classify.Stats{Total: 3, Static: 1, AI: 2, Suppressed: 1, Active: 2},
		Metrics:     review.Metrics{FilesAnalyzed: 3, HunksAnalyzed: 4, DurationMs: 15},
	}
}
