package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/sift/internal/classify"
	"github.com/dshills/sift/internal/finding"
	"github.com/dshills/sift/internal/output"
	"github.com/dshills/sift/internal/review"
	"github.com/dshills/sift/internal/rules"
)

func registerTools(s *server.MCPServer, opts Options) {
	s.AddTool(
		mcplib.NewTool("analyze_diff",
			mcplib.WithDescription("Run sift's static rules over a unified diff and return ranked, deduplicated findings"),
			mcplib.WithString("diff",
				mcplib.Required(),
				mcplib.Description("Unified diff text, as produced by git diff"),
			),
			mcplib.WithString("min_severity", mcplib.Description("Suppress findings below this severity: block, high, medium or low")),
			mcplib.WithNumber("max_findings", mcplib.Description("Maximum number of active findings (default 50)")),
			mcplib.WithString("format", mcplib.Description("Output format: json or markdown (default: json)")),
		),
		handleAnalyzeDiff(opts),
	)

	s.AddTool(
		mcplib.NewTool("list_rules",
			mcplib.WithDescription("List the static rules with their category, default severity and languages"),
		),
		handleListRules(opts),
	)
}

func handleAnalyzeDiff(opts Options) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		text, err := request.RequireString("diff")
		if err != nil {
			return errorResult(err.Error()), nil
		}
		args := request.GetArguments()

		cfg := opts.Analysis
		cfg.EnableStatic = true
		cfg.EnableAI = false
		cfg.ShadowMode = true
		cfg.CrossRunDedup = false
		if sev, _ := args["min_severity"].(string); sev != "" {
			if !finding.Severity(sev).Valid() {
				return errorResult(fmt.Sprintf("invalid min_severity %q", sev)), nil
			}
			cfg.MinSeverity = sev
		}
		if n, ok := args["max_findings"].(float64); ok && n > 0 {
			// MaxFindings is derived from MaxComments.
			cfg.MaxComments = (int(n) + 4) / 5
		}

		res, err := review.Run(ctx, review.Input{Diff: text, Source: "mcp", Config: cfg}, review.Deps{
			Rules:  rules.NewEngine(opts.Registry, opts.Logger),
			Logger: opts.Logger,
		})
		if err != nil {
			return errorResult(fmt.Sprintf("analysis failed: %v", err)), nil
		}
		if n, ok := args["max_findings"].(float64); ok && n > 0 {
			limited := classify.Cap(res.Findings, int(n))
			classify.Sort(res.Findings)
			res.Stats = classify.Summarize(res.Findings, limited || res.Stats.Limited)
		}

		if format, _ := args["format"].(string); format == "markdown" || format == "md" {
			return textResult(output.FullReport(res)), nil
		}
		return jsonResult(res)
	}
}

func handleListRules(opts Options) server.ToolHandlerFunc {
	return func(_ context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		metas := make([]rules.Meta, 0, opts.Registry.Len())
		for _, r := range opts.Registry.Rules() {
			metas = append(metas, r.Meta())
		}
		return jsonResult(metas)
	}
}

func jsonResult(v interface{}) (*mcplib.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return textResult(string(data)), nil
}

func textResult(text string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(text)},
	}
}

func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(msg)},
		IsError: true,
	}
}
