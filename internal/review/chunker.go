package review

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/dshills/sift/internal/cache"
	"github.com/dshills/sift/internal/diff"
	"github.com/dshills/sift/internal/finding"
	"github.com/dshills/sift/internal/providers"
	"github.com/dshills/sift/internal/redact"
)

const (
	defaultConcurrency = 4
	// DefaultPromptTokens bounds each chunk's user prompt.
	DefaultPromptTokens = 8000
)

// Chunk is a set of file groups reviewed in one model call.
type Chunk struct {
	Index  int
	Groups []diff.FileGroup
}

// Paths lists the files in the chunk.
func (c Chunk) Paths() []string {
	paths := make([]string, len(c.Groups))
	for i, g := range c.Groups {
		paths[i] = g.Path
	}
	return paths
}

// SplitIntoChunks packs file groups into chunks whose formatted hunks stay
// under maxBytes. A single oversized file gets a chunk of its own.
func SplitIntoChunks(groups []diff.FileGroup, maxBytes int) []Chunk {
	if maxBytes <= 0 {
		maxBytes = DefaultPromptTokens * charsPerToken
	}
	var chunks []Chunk
	var current []diff.FileGroup
	size := 0
	for _, g := range groups {
		n := groupSize(g)
		if len(current) > 0 && size+n > maxBytes {
			chunks = append(chunks, Chunk{Index: len(chunks), Groups: current})
			current = nil
			size = 0
		}
		current = append(current, g)
		size += n
	}
	if len(current) > 0 {
		chunks = append(chunks, Chunk{Index: len(chunks), Groups: current})
	}
	return chunks
}

func groupSize(g diff.FileGroup) int {
	n := 0
	for _, h := range g.Hunks {
		n += min(len(h.Format()), maxHunkPromptLen)
	}
	return n
}

// AIOptions configures an AIReviewer.
type AIOptions struct {
	Cache          *cache.Cache
	Redactor       *redact.Redactor
	RedactSecrets  bool
	MaxConcurrency int
	// MaxTokens is the response budget passed to the provider.
	MaxTokens int
	// PromptTokens bounds each chunk's prompt.
	PromptTokens int
}

// AIReviewer sends chunks of a change to a model and parses the replies.
type AIReviewer struct {
	provider providers.Reviewer
	opts     AIOptions
	logger   hclog.Logger
}

// NewAIReviewer wraps provider.
func NewAIReviewer(provider providers.Reviewer, opts AIOptions, logger hclog.Logger) *AIReviewer {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = defaultConcurrency
	}
	if opts.PromptTokens <= 0 {
		opts.PromptTokens = DefaultPromptTokens
	}
	return &AIReviewer{provider: provider, opts: opts, logger: logger.Named("ai")}
}

// Provider returns the provider name.
func (r *AIReviewer) Provider() string {
	return r.provider.Name()
}

// AIRequest is one change to review.
type AIRequest struct {
	Model       string
	Title       string
	Description string
	Groups      []diff.FileGroup
	Files       []FileContext
	Signals     []finding.RawFinding
}

// AIOutcome aggregates every chunk's result.
type AIOutcome struct {
	Findings    []finding.AIRawFinding
	Model       string
	Chunks      int
	CacheHits   int
	Failures    int
	ParseErrors int
	Dropped     int
	TokensIn    int
	TokensOut   int
}

type chunkResult struct {
	findings  []finding.AIRawFinding
	model     string
	meta      ParseMeta
	cached    bool
	tokensIn  int
	tokensOut int
	err       error
}

// Review runs every chunk with bounded concurrency and merges the findings
// in chunk order. Credential failures and cancellation abort the review;
// any other chunk failure is logged and counted.
func (r *AIReviewer) Review(ctx context.Context, req AIRequest) (AIOutcome, error) {
	chunks := SplitIntoChunks(req.Groups, r.opts.PromptTokens*charsPerToken)
	out := AIOutcome{Model: req.Model, Chunks: len(chunks)}
	if len(chunks) == 0 {
		return out, nil
	}

	results := make([]chunkResult, len(chunks))
	var wg sync.WaitGroup
	sem := make(chan struct{}, r.opts.MaxConcurrency)

	for i, chunk := range chunks {
		wg.Add(1)
		go func(i int, chunk Chunk) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			if err := ctx.Err(); err != nil {
				results[i] = chunkResult{err: err}
				return
			}
			results[i] = r.reviewChunk(ctx, req, chunk)
		}(i, chunk)
	}
	wg.Wait()

	for i, res := range results {
		if res.err != nil {
			if providers.IsAuthError(res.err) || errors.Is(res.err, context.Canceled) || errors.Is(res.err, context.DeadlineExceeded) {
				return out, fmt.Errorf("chunk %d: %w", i, res.err)
			}
			r.logger.Warn("chunk review failed", "chunk", i, "error", res.err)
			out.Failures++
			continue
		}
		if res.cached {
			out.CacheHits++
		}
		if res.meta.ParseError {
			out.ParseErrors++
		}
		if res.model != "" {
			out.Model = res.model
		}
		out.Dropped += res.meta.Dropped
		out.TokensIn += res.tokensIn
		out.TokensOut += res.tokensOut
		out.Findings = append(out.Findings, res.findings...)
	}
	r.logger.Info("AI review complete", "model", out.Model, "chunks", out.Chunks,
		"findings", len(out.Findings), "tokens_in", out.TokensIn, "tokens_out", out.TokensOut)
	return out, nil
}

func (r *AIReviewer) reviewChunk(ctx context.Context, req AIRequest, chunk Chunk) chunkResult {
	paths := make(map[string]bool, len(chunk.Groups))
	var hunks []diff.ExtractedHunk
	for _, g := range chunk.Groups {
		paths[g.Path] = true
		hunks = append(hunks, g.Hunks...)
	}
	var files []FileContext
	for _, fc := range req.Files {
		if paths[fc.Path] {
			files = append(files, fc)
		}
	}
	var signals []finding.RawFinding
	for _, s := range req.Signals {
		if paths[s.FilePath] {
			signals = append(signals, s)
		}
	}

	user := BuildUserPrompt(PromptInput{
		Title:         req.Title,
		Description:   req.Description,
		Files:         files,
		Hunks:         hunks,
		Signals:       signals,
		MaxTokens:     r.opts.PromptTokens,
		Redactor:      r.opts.Redactor,
		RedactSecrets: r.opts.RedactSecrets,
	})
	sys := SystemPrompt()
	key := cache.BuildKey(r.provider.Name(), req.Model, sys, user)

	if cached, ok := r.opts.Cache.Get(key); ok {
		r.logger.Debug("cache hit", "chunk", chunk.Index)
		found, meta := ParseAIResponse(cached, req.Model)
		return chunkResult{findings: found, model: req.Model, meta: meta, cached: true}
	}

	resp, err := r.provider.Review(ctx, providers.ReviewRequest{
		Model:        req.Model,
		SystemPrompt: sys,
		UserPrompt:   user,
		MaxTokens:    r.opts.MaxTokens,
	})
	if err != nil {
		return chunkResult{err: err}
	}
	res := chunkResult{model: resp.Model, tokensIn: resp.TokensIn, tokensOut: resp.TokensOut}
	res.findings, res.meta = ParseAIResponse(resp.Content, resp.Model)

	if res.meta.ParseError {
		repair := fmt.Sprintf(
			"Your previous response was not valid JSON.\n\nPlease fix it and respond with ONLY a valid JSON array of findings.\n\nYour previous response was:\n%s",
			resp.Content,
		)
		resp2, err := r.provider.Review(ctx, providers.ReviewRequest{
			Model:        req.Model,
			SystemPrompt: sys,
			UserPrompt:   repair,
			MaxTokens:    r.opts.MaxTokens,
		})
		if err != nil {
			if providers.IsAuthError(err) {
				return chunkResult{err: err}
			}
			r.logger.Warn("repair request failed", "chunk", chunk.Index, "error", err)
			return res
		}
		res.tokensIn += resp2.TokensIn
		res.tokensOut += resp2.TokensOut
		res.findings, res.meta = ParseAIResponse(resp2.Content, resp2.Model)
		if res.meta.ParseError {
			r.logger.Warn("unparseable model response after repair", "chunk", chunk.Index, "bytes", len(resp2.Content))
			return res
		}
		resp = resp2
	}

	if err := r.opts.Cache.Put(key, resp.Model, resp.Content); err != nil {
		r.logger.Debug("cache write failed", "error", err)
	}
	if res.meta.Dropped > 0 {
		r.logger.Debug("dropped incomplete AI findings", "chunk", chunk.Index, "dropped", res.meta.Dropped)
	}
	return res
}
