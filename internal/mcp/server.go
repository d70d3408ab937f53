package mcp

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/sift/internal/config"
	"github.com/dshills/sift/internal/review"
	"github.com/dshills/sift/internal/rules"
)

// Options configures the tool server.
type Options struct {
	// Analysis supplies defaults for analyze_diff; AI review is always off.
	Analysis config.AnalysisConfig
	Registry *rules.Registry
	Logger   hclog.Logger
}

// NewServer creates an MCP server with the sift tools registered.
func NewServer(opts Options) *server.MCPServer {
	opts = withDefaults(opts)
	s := server.NewMCPServer(
		review.Tool,
		review.Version,
		server.WithToolCapabilities(true),
	)
	registerTools(s, opts)
	return s
}

// Serve runs the server on stdin and stdout until the client disconnects.
func Serve(opts Options) error {
	return server.ServeStdio(NewServer(opts))
}

func withDefaults(opts Options) Options {
	if opts.Registry == nil {
		opts.Registry = rules.Default()
	}
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}
	opts.Logger = opts.Logger.Named("mcp")
	return opts
}
