package finding

import "strings"

// Severity is the urgency of a finding.
type Severity string

const (
	SeverityBlock  Severity = "block"
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Rank orders severities: block 4, high 3, medium 2, low 1, anything else 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityBlock:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Valid reports whether s is one of the four severities.
func (s Severity) Valid() bool { return s.Rank() > 0 }

// Category classifies what kind of problem a finding describes.
type Category string

const (
	CategorySecurity        Category = "security"
	CategoryBug             Category = "bug"
	CategoryPerf            Category = "perf"
	CategoryStyle           Category = "style"
	CategoryMaintainability Category = "maintainability"
)

// Confidence is how sure the producer is about a finding.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Source tells which analyzer produced a finding.
type Source string

const (
	SourceStatic Source = "static"
	SourceAI     Source = "ai"
)

var severityAliases = map[string]Severity{
	"critical":   SeverityBlock,
	"blocking":   SeverityBlock,
	"block":      SeverityBlock,
	"high":       SeverityHigh,
	"major":      SeverityHigh,
	"medium":     SeverityMedium,
	"moderate":   SeverityMedium,
	"warning":    SeverityMedium,
	"low":        SeverityLow,
	"minor":      SeverityLow,
	"info":       SeverityLow,
	"suggestion": SeverityLow,
}

var categoryAliases = map[string]Category{
	"security":        CategorySecurity,
	"sec":             CategorySecurity,
	"vulnerability":   CategorySecurity,
	"bug":             CategoryBug,
	"error":           CategoryBug,
	"logic":           CategoryBug,
	"perf":            CategoryPerf,
	"performance":     CategoryPerf,
	"efficiency":      CategoryPerf,
	"style":           CategoryStyle,
	"formatting":      CategoryStyle,
	"lint":            CategoryStyle,
	"maintainability": CategoryMaintainability,
	"readability":     CategoryMaintainability,
	"complexity":      CategoryMaintainability,
}

var confidenceAliases = map[string]Confidence{
	"high":      ConfidenceHigh,
	"certain":   ConfidenceHigh,
	"definite":  ConfidenceHigh,
	"medium":    ConfidenceMedium,
	"moderate":  ConfidenceMedium,
	"probable":  ConfidenceMedium,
	"low":       ConfidenceLow,
	"uncertain": ConfidenceLow,
	"possible":  ConfidenceLow,
}

// ParseSeverity folds model-produced severity words. Unknown values become medium.
func ParseSeverity(s string) Severity {
	if v, ok := severityAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return v
	}
	return SeverityMedium
}

// ParseCategory folds model-produced category words. Unknown values become bug.
func ParseCategory(s string) Category {
	if v, ok := categoryAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return v
	}
	return CategoryBug
}

// ParseConfidence folds model-produced confidence words. Unknown values become medium.
func ParseConfidence(s string) Confidence {
	if v, ok := confidenceAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return v
	}
	return ConfidenceMedium
}

// Finding is a normalized issue report.
type Finding struct {
	RunID             string     `json:"runId"`
	FilePath          string     `json:"filePath"`
	LineStart         *int       `json:"lineStart"`
	LineEnd           *int       `json:"lineEnd"`
	Source            Source     `json:"source"`
	Category          Category   `json:"category"`
	Severity          Severity   `json:"severity"`
	Confidence        Confidence `json:"confidence"`
	Title             string     `json:"title"`
	Message           string     `json:"message"`
	Suggestion        string     `json:"suggestion,omitempty"`
	CodeSnippet       string     `json:"codeSnippet,omitempty"`
	RuleID            string     `json:"ruleId,omitempty"`
	AIReasoning       string     `json:"aiReasoning,omitempty"`
	AIModel           string     `json:"aiModel,omitempty"`
	Suppressed        bool       `json:"suppressed"`
	SuppressionReason string     `json:"suppressionReason,omitempty"`
	Fingerprint       string     `json:"fingerprint"`
}

// Line returns the start line, or 0 when the finding has no line.
func (f *Finding) Line() int {
	if f.LineStart == nil {
		return 0
	}
	return *f.LineStart
}

// Suppress marks the finding as suppressed with reason.
func (f *Finding) Suppress(reason string) {
	f.Suppressed = true
	f.SuppressionReason = reason
}

// Active filters out suppressed findings, keeping order.
func Active(findings []*Finding) []*Finding {
	out := make([]*Finding, 0, len(findings))
	for _, f := range findings {
		if !f.Suppressed {
			out = append(out, f)
		}
	}
	return out
}
