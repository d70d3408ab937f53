package review

import (
	"context"

	"github.com/dshills/sift/internal/classify"
	"github.com/dshills/sift/internal/finding"
	"github.com/dshills/sift/internal/store"
)

// Run statuses.
const (
	StatusCompleted = "completed"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// ReasonNoAnalyzableFiles is the skip reason when a diff has nothing to review.
const ReasonNoAnalyzableFiles = "No analyzable files in diff"

// FindingStore persists runs and answers cross-run dedup queries.
type FindingStore interface {
	PriorFingerprints(ctx context.Context, repo string, pr int, excludeRunID string) (classify.FingerprintSet, error)
	SaveRun(ctx context.Context, run *store.Run) error
}

// Publisher posts a finished review to where its readers are.
type Publisher interface {
	Publish(ctx context.Context, res *Result) error
}

// Metrics describes the work a run did.
type Metrics struct {
	FilesAnalyzed      int    `json:"filesAnalyzed"`
	LinesAnalyzed      int    `json:"linesAnalyzed"`
	HunksAnalyzed      int    `json:"hunksAnalyzed"`
	FindingsTotal      int    `json:"findingsTotal"`
	FindingsStatic     int    `json:"findingsStatic"`
	FindingsAI         int    `json:"findingsAI"`
	FindingsSuppressed int    `json:"findingsSuppressed"`
	NoiseFiltered      int    `json:"noiseFiltered"`
	AlreadyReported    int    `json:"alreadyReported"`
	AIChunks           int    `json:"aiChunks,omitempty"`
	AIFailures         int    `json:"aiFailures,omitempty"`
	AIParseErrors      int    `json:"aiParseErrors,omitempty"`
	AIDropped          int    `json:"aiDropped,omitempty"`
	CacheHits          int    `json:"cacheHits,omitempty"`
	TokensIn           int    `json:"tokensIn,omitempty"`
	TokensOut          int    `json:"tokensOut,omitempty"`
	Model              string `json:"model,omitempty"`
	Tier               string `json:"tier,omitempty"`
	DiffError          string `json:"diffError,omitempty"`
	DurationMs         int64  `json:"durationMs"`
}

// Result is the outcome of one run.
type Result struct {
	Tool        string             `json:"tool"`
	Version     string             `json:"version"`
	RunID       string             `json:"runId"`
	Status      string             `json:"status"`
	Reason      string             `json:"reason,omitempty"`
	Error       string             `json:"error,omitempty"`
	Repo        string             `json:"repo,omitempty"`
	PR          int                `json:"pr,omitempty"`
	Source      string             `json:"source,omitempty"`
	ShadowMode  bool               `json:"shadowMode"`
	MaxComments int                `json:"maxComments"`
	Findings    []*finding.Finding `json:"findings"`
	Stats       classify.Stats     `json:"stats"`
	Metrics     Metrics            `json:"metrics"`
	Posted      bool               `json:"posted"`
}

// Active returns the findings that were not suppressed.
func (r *Result) Active() []*finding.Finding {
	return finding.Active(r.Findings)
}

// Suppressed returns the suppressed findings.
func (r *Result) Suppressed() []*finding.Finding {
	var out []*finding.Finding
	for _, f := range r.Findings {
		if f.Suppressed {
			out = append(out, f)
		}
	}
	return out
}

// InlineCandidates returns the active findings that may be posted as line
// comments: at most MaxComments, each with a line.
func (r *Result) InlineCandidates() []*finding.Finding {
	active := r.Active()
	if r.MaxComments > 0 && len(active) > r.MaxComments {
		active = active[:r.MaxComments]
	}
	var out []*finding.Finding
	for _, f := range active {
		if f.LineStart != nil {
			out = append(out, f)
		}
	}
	return out
}

// HighestSeverity returns the most severe active severity, or "" when there
// are no active findings.
func (r *Result) HighestSeverity() finding.Severity {
	var top finding.Severity
	for _, f := range r.Active() {
		if f.Severity.Rank() > top.Rank() {
			top = f.Severity
		}
	}
	return top
}

// MeetsThreshold reports whether any active finding is at or above
// threshold. "none" and "" never match.
func (r *Result) MeetsThreshold(threshold string) bool {
	if threshold == "" || threshold == "none" {
		return false
	}
	want := finding.Severity(threshold)
	if !want.Valid() {
		return false
	}
	return r.HighestSeverity().Rank() >= want.Rank()
}
