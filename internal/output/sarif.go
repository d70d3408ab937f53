package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/dshills/sift/internal/finding"
	"github.com/dshills/sift/internal/review"
	"github.com/dshills/sift/internal/rules"
)

const informationURI = "https://github.com/dshills/sift"

// SARIFWriter outputs active findings as SARIF 2.1.0.
type SARIFWriter struct{}

func (s *SARIFWriter) Write(w io.Writer, res *review.Result) error {
	report, err := BuildSARIF(res)
	if err != nil {
		return err
	}
	if err := report.PrettyWrite(w); err != nil {
		return fmt.Errorf("writing SARIF: %w", err)
	}
	return nil
}

// BuildSARIF converts the active findings of res into a SARIF report. Static
// findings use their rule id; AI findings are grouped under AI-<category>.
func BuildSARIF(res *review.Result) (*sarif.Report, error) {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return nil, fmt.Errorf("creating SARIF report: %w", err)
	}
	run := sarif.NewRunWithInformationURI(review.Tool, informationURI)
	catalogue := rules.Default()

	for _, f := range res.Active() {
		ruleID, description := sarifRule(f, catalogue)
		rule := run.AddRule(ruleID).
			WithDescription(description).
			WithDefaultConfiguration(&sarif.ReportingConfiguration{
				Level: sarifLevel(f.Severity),
			})

		physical := sarif.NewPhysicalLocation().
			WithArtifactLocation(sarif.NewArtifactLocation().WithUri(f.FilePath))
		if f.LineStart != nil {
			region := sarif.NewRegion().WithStartLine(*f.LineStart)
			if f.LineEnd != nil && *f.LineEnd >= *f.LineStart {
				region.WithEndLine(*f.LineEnd)
			}
			physical.WithRegion(region)
		}
		location := sarif.NewLocation().WithPhysicalLocation(physical)

		text := f.Title + ": " + f.Message
		if f.Suggestion != "" {
			text += " Suggestion: " + f.Suggestion
		}
		result := sarif.NewRuleResult(rule.ID).
			WithMessage(sarif.NewTextMessage(text)).
			WithLevel(sarifLevel(f.Severity)).
			WithLocations([]*sarif.Location{location})
		run.AddResult(result)
	}
	report.AddRun(run)
	return report, nil
}

func sarifRule(f *finding.Finding, catalogue *rules.Registry) (string, string) {
	if f.RuleID != "" {
		if r, ok := catalogue.Get(f.RuleID); ok {
			return r.Meta().ID, r.Meta().Description
		}
		return f.RuleID, f.Title
	}
	return "AI-" + strings.ToUpper(string(f.Category)), "AI review: " + string(f.Category) + " issue"
}

func sarifLevel(s finding.Severity) string {
	switch s {
	case finding.SeverityBlock, finding.SeverityHigh:
		return "error"
	case finding.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}
