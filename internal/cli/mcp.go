package cli

import (
	"github.com/spf13/cobra"

	"github.com/dshills/sift/internal/config"
	"github.com/dshills/sift/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the static review tools over MCP on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig, nil)
		if err != nil {
			return err
		}
		// stdout carries the protocol; logs go to stderr.
		return mcp.Serve(mcp.Options{
			Analysis: cfg.Analysis,
			Logger:   newLogger(cmd, cfg),
		})
	},
}
