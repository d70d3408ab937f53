package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/sift/internal/review"
)

const (
	ExitSuccess      = 0
	ExitFindings     = 1
	ExitUsageError   = 2
	ExitRuntimeError = 3
)

// Persistent flags
var (
	flagConfig   string
	flagLogLevel string
	flagLogJSON  bool
)

var rootCmd = &cobra.Command{
	Use:   "sift",
	Short: "Diff-local code review: static rules plus optional AI review",
	Long: "sift reviews a unified diff with pattern rules and, optionally, a language model, " +
		"then deduplicates, ranks and suppresses findings before reporting them.",
	SilenceUsage: true,
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	exitCode = ExitSuccess
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error
		return ExitUsageError
	}
	return exitCode
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print sift version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", review.Tool, review.Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default $XDG_CONFIG_HOME/sift/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&flagLogJSON, "log-json", false, "Write logs as JSON")

	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(prCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(hookCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
}
