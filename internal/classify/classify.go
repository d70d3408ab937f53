package classify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dshills/sift/internal/finding"
)

// Suppression reasons.
const (
	ReasonLowConfidenceAI = "Low confidence AI finding for non-critical issue"
	ReasonVague           = "Vague low-severity suggestion"
	ReasonCapExceeded     = "Exceeded maximum findings limit"
	ReasonAlreadyReported = "Already reported in previous run"
)

// DefaultMaxFindings is the active-finding cap when none is configured.
const DefaultMaxFindings = 50

var vaguePhrases = []string{"consider", "might want to", "could be improved", "you may"}

// Options configures FilterAndClassify.
type Options struct {
	MinSeverity finding.Severity
	// MaxFindings caps active findings; zero or less disables the cap.
	MaxFindings int
}

// DefaultOptions returns a low severity floor and the default cap.
func DefaultOptions() Options {
	return Options{MinSeverity: finding.SeverityLow, MaxFindings: DefaultMaxFindings}
}

// Stats summarizes a classified run.
type Stats struct {
	Total      int  `json:"total"`
	Static     int  `json:"static"`
	AI         int  `json:"ai"`
	Suppressed int  `json:"suppressed"`
	Active     int  `json:"active"`
	Limited    bool `json:"limited"`
}

// FilterAndClassify normalizes, dedupes, suppresses, sorts and caps findings.
// It returns every surviving finding, suppressed ones included.
func FilterAndClassify(static []finding.RawFinding, ai []finding.AIRawFinding, runID string, opts Options) ([]*finding.Finding, Stats) {
	all := make([]*finding.Finding, 0, len(static)+len(ai))
	for _, raw := range static {
		all = append(all, finding.NormalizeStatic(raw, runID))
	}
	for _, raw := range ai {
		all = append(all, finding.NormalizeAI(raw, runID))
	}

	findings := Dedupe(all)
	for _, f := range findings {
		if suppress, reason := SuppressionFor(f, opts.MinSeverity); suppress {
			f.Suppress(reason)
		}
	}
	Sort(findings)
	limited := Cap(findings, opts.MaxFindings)
	return findings, Summarize(findings, limited)
}

// Dedupe keeps the first finding for each fingerprint, in order.
func Dedupe(findings []*finding.Finding) []*finding.Finding {
	seen := make(map[string]struct{}, len(findings))
	out := make([]*finding.Finding, 0, len(findings))
	for _, f := range findings {
		if _, ok := seen[f.Fingerprint]; ok {
			continue
		}
		seen[f.Fingerprint] = struct{}{}
		out = append(out, f)
	}
	return out
}

// SuppressionFor returns the first suppression reason that applies to f.
// An unrecognised floor suppresses nothing.
func SuppressionFor(f *finding.Finding, minSeverity finding.Severity) (bool, string) {
	if f.Severity.Rank() < minSeverity.Rank() {
		return true, fmt.Sprintf("Below minimum severity (%s)", minSeverity)
	}
	if f.Source == finding.SourceAI && f.Confidence == finding.ConfidenceLow &&
		(f.Severity == finding.SeverityLow || f.Severity == finding.SeverityMedium) {
		return true, ReasonLowConfidenceAI
	}
	if f.Severity == finding.SeverityLow && containsAny(strings.ToLower(f.Message), vaguePhrases) {
		return true, ReasonVague
	}
	return false, ""
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// Sort orders findings: active before suppressed, then block to low, static
// before AI, then path and line. Equal keys keep their input order.
func Sort(findings []*finding.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		return less(findings[i], findings[j])
	})
}

func less(a, b *finding.Finding) bool {
	if a.Suppressed != b.Suppressed {
		return !a.Suppressed
	}
	if ra, rb := a.Severity.Rank(), b.Severity.Rank(); ra != rb {
		return ra > rb
	}
	if sa, sb := sourceOrder(a.Source), sourceOrder(b.Source); sa != sb {
		return sa < sb
	}
	if a.FilePath != b.FilePath {
		return a.FilePath < b.FilePath
	}
	return a.Line() < b.Line()
}

func sourceOrder(s finding.Source) int {
	if s == finding.SourceStatic {
		return 0
	}
	return 1
}

// Cap suppresses active findings beyond the first limit, walking in the
// given order. It reports whether anything was suppressed.
func Cap(findings []*finding.Finding, limit int) bool {
	if limit <= 0 {
		return false
	}
	limited := false
	active := 0
	for _, f := range findings {
		if f.Suppressed {
			continue
		}
		active++
		if active > limit {
			f.Suppress(ReasonCapExceeded)
			limited = true
		}
	}
	return limited
}

// Summarize counts findings by source and suppression state.
func Summarize(findings []*finding.Finding, limited bool) Stats {
	s := Stats{Total: len(findings), Limited: limited}
	for _, f := range findings {
		if f.Source == finding.SourceStatic {
			s.Static++
		} else {
			s.AI++
		}
		if f.Suppressed {
			s.Suppressed++
		} else {
			s.Active++
		}
	}
	return s
}
