package review

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/dshills/sift/internal/classify"
	"github.com/dshills/sift/internal/config"
	"github.com/dshills/sift/internal/diff"
	"github.com/dshills/sift/internal/finding"
	"github.com/dshills/sift/internal/providers"
	"github.com/dshills/sift/internal/rules"
	"github.com/dshills/sift/internal/store"
)

// Tool and Version identify sift in reports.
const (
	Tool    = "sift"
	Version = "0.3.0"
)

// Input is the change under review.
type Input struct {
	Diff        string
	Repo        string
	PR          int
	Ref         string
	Title       string
	Description string
	// Source describes where the diff came from, e.g. "staged" or "pr".
	Source string
	Config config.AnalysisConfig
}

// Deps are the collaborators a run may use. Every field is optional; a nil
// collaborator disables the step that needs it.
type Deps struct {
	Rules     *rules.Engine
	AI        *AIReviewer
	Models    providers.Models
	Fetcher   FileFetcher
	Store     FindingStore
	Publisher Publisher
	Logger    hclog.Logger
}

// Run reviews one diff: parse, static rules, AI review, classification,
// noise filtering, cross-run dedup, persistence and publishing.
//
// Recoverable problems (a malformed diff, an unparseable model reply, a
// failed chunk, a store outage) are logged and reflected in Metrics. Run
// returns an error only for failures that invalidate the whole review, in
// which case the Result has StatusFailed.
func Run(ctx context.Context, in Input, deps Deps) (*Result, error) {
	start := time.Now()
	logger := deps.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	cfg := in.Config
	res := &Result{
		Tool:        Tool,
		Version:     Version,
		RunID:       uuid.NewString(),
		Repo:        in.Repo,
		PR:          in.PR,
		Source:      in.Source,
		ShadowMode:  cfg.ShadowMode,
		MaxComments: cfg.MaxComments,
		Findings:    []*finding.Finding{},
	}
	logger = logger.With("run_id", res.RunID)
	logger.Info("starting analysis", "repo", in.Repo, "pr", in.PR, "source", in.Source)

	files, err := diff.Parse(in.Diff, cfg.ExcludedPatterns)
	if err != nil {
		logger.Warn("diff could not be parsed", "error", err)
		res.Metrics.DiffError = err.Error()
	}

	analyzable := 0
	for _, f := range files {
		res.Metrics.LinesAnalyzed += f.Additions + f.Deletions
		res.Metrics.HunksAnalyzed += len(f.Hunks)
		if f.Analyzable() {
			analyzable++
		}
	}
	res.Metrics.FilesAnalyzed = len(files)

	if analyzable == 0 {
		logger.Info("no analyzable files in diff")
		res.Status = StatusSkipped
		res.Reason = ReasonNoAnalyzableFiles
		res.Metrics.DurationMs = time.Since(start).Milliseconds()
		persist(ctx, deps.Store, in, res, start, logger)
		return res, nil
	}

	var static []finding.RawFinding
	if cfg.EnableStatic && deps.Rules != nil {
		static = deps.Rules.Run(files, rules.Selection{Enabled: cfg.EnabledRules, Disabled: cfg.DisabledRules})
		logger.Debug("static analysis complete", "findings", len(static))
	}

	var ai []finding.AIRawFinding
	if cfg.EnableAI && deps.AI != nil {
		outcome, err := reviewWithAI(ctx, in, deps, files, static, logger)
		res.Metrics.Model = outcome.Model
		res.Metrics.Tier = string(outcome.tier)
		res.Metrics.AIChunks = outcome.Chunks
		res.Metrics.AIFailures = outcome.Failures
		res.Metrics.AIParseErrors = outcome.ParseErrors
		res.Metrics.AIDropped = outcome.Dropped
		res.Metrics.CacheHits = outcome.CacheHits
		res.Metrics.TokensIn = outcome.TokensIn
		res.Metrics.TokensOut = outcome.TokensOut
		if err != nil {
			return fail(ctx, deps.Store, in, res, start, logger, fmt.Errorf("AI review: %w", err))
		}
		ai = outcome.Findings
	}

	findings, stats := classify.FilterAndClassify(static, ai, res.RunID, classify.Options{
		MinSeverity: finding.Severity(cfg.MinSeverity),
		MaxFindings: cfg.MaxFindings(),
	})

	if cfg.NoiseFilter {
		before := len(finding.Active(findings))
		classify.FilterNoise(findings, cfg.NoiseThreshold)
		res.Metrics.NoiseFiltered = before - len(finding.Active(findings))
	}

	if cfg.CrossRunDedup && deps.Store != nil && in.Repo != "" {
		prior, err := deps.Store.PriorFingerprints(ctx, in.Repo, in.PR, res.RunID)
		if err != nil {
			logger.Warn("could not load prior fingerprints", "error", err)
		} else {
			for _, f := range findings {
				if !f.Suppressed && prior.Has(f.Fingerprint) {
					res.Metrics.AlreadyReported++
				}
			}
			classify.DedupeAcrossRuns(findings, prior)
		}
	}

	classify.Sort(findings)
	res.Findings = findings
	res.Stats = classify.Summarize(findings, stats.Limited)
	res.Status = StatusCompleted
	res.Metrics.FindingsTotal = res.Stats.Total
	res.Metrics.FindingsStatic = res.Stats.Static
	res.Metrics.FindingsAI = res.Stats.AI
	res.Metrics.FindingsSuppressed = res.Stats.Suppressed
	res.Metrics.DurationMs = time.Since(start).Milliseconds()

	persist(ctx, deps.Store, in, res, start, logger)

	if cfg.ShadowMode {
		logger.Info("shadow mode, not publishing")
	} else if deps.Publisher != nil {
		if err := deps.Publisher.Publish(ctx, res); err != nil {
			res.Error = err.Error()
			return res, fmt.Errorf("publishing review: %w", err)
		}
		res.Posted = true
	}

	logger.Info("analysis completed", "duration_ms", res.Metrics.DurationMs,
		"findings_total", res.Stats.Total, "findings_active", res.Stats.Active, "posted", res.Posted)
	return res, nil
}

type aiOutcome struct {
	AIOutcome
	tier providers.Tier
}

func reviewWithAI(ctx context.Context, in Input, deps Deps, files []diff.File, static []finding.RawFinding, logger hclog.Logger) (aiOutcome, error) {
	cfg := in.Config
	selected := providers.SelectTier(files)
	model, tier := providers.ResolveModel(deps.Models, selected, cfg.AIMode, cfg.ModelOverride)
	logger.Debug("selected model", "model", model, "tier", tier, "mode", cfg.AIMode)

	hunks := diff.FilterForAnalysis(diff.Extract(files), cfg.MinAdditions, cfg.MaxHunks)
	outcome, err := deps.AI.Review(ctx, AIRequest{
		Model:       model,
		Title:       in.Title,
		Description: in.Description,
		Groups:      diff.GroupByFile(hunks),
		Files:       BuildFileContext(ctx, deps.Fetcher, files, in.Ref, logger),
		Signals:     static,
	})
	return aiOutcome{AIOutcome: outcome, tier: tier}, err
}

func fail(ctx context.Context, st FindingStore, in Input, res *Result, start time.Time, logger hclog.Logger, err error) (*Result, error) {
	logger.Error("analysis failed", "error", err)
	res.Status = StatusFailed
	res.Error = err.Error()
	res.Findings = []*finding.Finding{}
	res.Metrics.DurationMs = time.Since(start).Milliseconds()
	persist(ctx, st, in, res, start, logger)
	return res, err
}

func persist(ctx context.Context, st FindingStore, in Input, res *Result, start time.Time, logger hclog.Logger) {
	if st == nil {
		return
	}
	run := &store.Run{
		ID:         res.RunID,
		Repo:       in.Repo,
		PR:         in.PR,
		Ref:        in.Ref,
		Status:     res.Status,
		Reason:     res.Reason + res.Error,
		StartedAt:  start,
		FinishedAt: time.Now(),
		Model:      res.Metrics.Model,
		Tier:       res.Metrics.Tier,
		Stats:      res.Stats,
		Findings:   res.Findings,
	}
	if err := st.SaveRun(ctx, run); err != nil {
		logger.Warn("could not save run", "error", err)
	}
}
