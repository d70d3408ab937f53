package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/sift/internal/classify"
	"github.com/dshills/sift/internal/config"
	"github.com/dshills/sift/internal/review"
	"github.com/dshills/sift/internal/store"
)

var (
	flagHistoryRepo  string
	flagHistoryLimit int
	flagOlderThan    time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and prune recorded review runs",
}

// openStore opens the run history named by the effective config.
func openStore() (*store.DB, config.Config, error) {
	cfg, err := config.Load(flagConfig, nil)
	if err != nil {
		return nil, cfg, err
	}
	path, err := cfg.StorePath()
	if err != nil {
		return nil, cfg, err
	}
	db, err := store.Open(path)
	return db, cfg, err
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openStore()
		if err != nil {
			runtimeError(cmd, err)
			return nil
		}
		defer db.Close()

		rows, err := db.ListRuns(context.Background(), flagHistoryRepo, flagHistoryLimit)
		if err != nil {
			runtimeError(cmd, err)
			return nil
		}
		w := cmd.OutOrStdout()
		if len(rows) == 0 {
			fmt.Fprintln(w, "No runs recorded.")
			return nil
		}
		for _, r := range rows {
			target := r.Repo
			if r.PR > 0 {
				target = fmt.Sprintf("%s#%d", r.Repo, r.PR)
			}
			fmt.Fprintf(w, "%s  %s  %-9s  %3d active / %3d total  %s\n",
				r.ID, r.StartedAt.Local().Format("2006-01-02 15:04"), r.Status, r.Active, r.Findings, target)
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Render a recorded run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, cfg, err := openStore()
		if err != nil {
			runtimeError(cmd, err)
			return nil
		}
		defer db.Close()

		run, err := db.LoadRun(context.Background(), args[0])
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		if err != nil {
			runtimeError(cmd, err)
			return nil
		}

		format := cfg.Format
		if flagFormat != "" {
			format = flagFormat
		}
		if err := writeResult(cmd.OutOrStdout(), resultFromRun(run), format); err != nil {
			runtimeError(cmd, err)
		}
		return nil
	},
}

// resultFromRun rebuilds a Result from a stored run for rendering.
func resultFromRun(run *store.Run) *review.Result {
	res := &review.Result{
		Tool:     review.Tool,
		Version:  review.Version,
		RunID:    run.ID,
		Status:   run.Status,
		Reason:   run.Reason,
		Repo:     run.Repo,
		PR:       run.PR,
		Source:   "history",
		Findings: run.Findings,
		Stats:    run.Stats,
	}
	if res.Stats.Total == 0 && len(run.Findings) > 0 {
		res.Stats = classify.Summarize(run.Findings, false)
	}
	res.Metrics.Model = run.Model
	res.Metrics.Tier = run.Tier
	if !run.FinishedAt.IsZero() {
		res.Metrics.DurationMs = run.FinishedAt.Sub(run.StartedAt).Milliseconds()
	}
	return res
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete runs older than --older-than",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagOlderThan <= 0 {
			return fmt.Errorf("--older-than must be positive")
		}
		db, _, err := openStore()
		if err != nil {
			runtimeError(cmd, err)
			return nil
		}
		defer db.Close()

		n, err := db.DeleteRunsBefore(context.Background(), time.Now().Add(-flagOlderThan))
		if err != nil {
			runtimeError(cmd, err)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d run(s).\n", n)
		return nil
	},
}

func init() {
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyPruneCmd)
	historyListCmd.Flags().StringVar(&flagHistoryRepo, "repo", "", "Only list runs for this repository")
	historyListCmd.Flags().IntVar(&flagHistoryLimit, "limit", 20, "Maximum runs to list")
	historyShowCmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, json, markdown, sarif)")
	historyPruneCmd.Flags().DurationVar(&flagOlderThan, "older-than", 30*24*time.Hour, "Age threshold, e.g. 720h")
}
