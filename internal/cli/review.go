package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dshills/sift/internal/config"
	"github.com/dshills/sift/internal/gitctx"
	"github.com/dshills/sift/internal/github"
	"github.com/dshills/sift/internal/review"
)

// localChange collects a diff from the repository in the working directory.
type localChange func(ctx context.Context, repo *gitctx.Repo) (string, error)

// runLocal opens the repository, collects a diff and reviews it.
func runLocal(cmd *cobra.Command, source, ref string, collect localChange) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	repo, err := gitctx.Open(".")
	if err != nil {
		runtimeError(cmd, err)
		return nil
	}
	text, err := collect(ctx, repo)
	if err != nil {
		runtimeError(cmd, err)
		return nil
	}

	in := review.Input{
		Diff:   text,
		Repo:   repoLabel(repo),
		Ref:    ref,
		Source: source,
	}
	runReview(cmd, cfg, in, repo)
	return nil
}

// repoLabel names the repository by its origin remote, falling back to
// the directory name.
func repoLabel(repo *gitctx.Repo) string {
	if remote, err := repo.RemoteURL("origin"); err == nil {
		if r, err := github.ParseRemoteURL(remote); err == nil {
			return r.String()
		}
	}
	return filepath.Base(repo.Root())
}

// runReview runs one review with the session's collaborators and reports it.
// fetcher may be nil.
func runReview(cmd *cobra.Command, cfg config.Config, in review.Input, fetcher review.FileFetcher) {
	if !cfg.Privacy.RedactSecrets && cfg.Analysis.EnableAI {
		fmt.Fprintln(cmd.ErrOrStderr(), "WARNING: secret redaction is disabled")
	}

	s, err := newSession(cmd, cfg)
	if err != nil {
		runtimeError(cmd, err)
		return
	}
	defer s.Close()

	in.Config = cfg.Analysis
	deps := s.deps
	if fetcher != nil {
		deps.Fetcher = fetcher
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := review.Run(ctx, in, deps)
	if err != nil {
		runtimeError(cmd, err)
		return
	}
	s.report(cmd, res)
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review code changes",
	Long:  "Review code changes with static rules and, with --ai, a language model. Use subcommands to pick the change.",
}

var reviewStagedCmd = &cobra.Command{
	Use:   "staged",
	Short: "Review staged changes (index vs HEAD)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLocal(cmd, "staged", "", func(ctx context.Context, repo *gitctx.Repo) (string, error) {
			return repo.Staged(ctx)
		})
	},
}

var reviewUnstagedCmd = &cobra.Command{
	Use:   "unstaged",
	Short: "Review unstaged changes (working tree vs index)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLocal(cmd, "unstaged", "", func(ctx context.Context, repo *gitctx.Repo) (string, error) {
			return repo.Unstaged(ctx)
		})
	},
}

var reviewCommitCmd = &cobra.Command{
	Use:   "commit <rev>",
	Short: "Review a single commit against its first parent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rev := args[0]
		return runLocal(cmd, "commit", rev, func(ctx context.Context, repo *gitctx.Repo) (string, error) {
			return repo.CommitDiff(ctx, rev)
		})
	},
}

var reviewRangeCmd = &cobra.Command{
	Use:   "range <base..head>",
	Short: "Review a revision range (e.g. origin/main..HEAD, or main...HEAD for the merge base)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec := args[0]
		return runLocal(cmd, "range", "", func(ctx context.Context, repo *gitctx.Repo) (string, error) {
			return repo.RangeDiff(ctx, spec)
		})
	},
}

var reviewDiffCmd = &cobra.Command{
	Use:   "diff [file]",
	Short: "Review a unified diff from a file, or from stdin when the file is omitted or -",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		var data []byte
		if len(args) == 0 || args[0] == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			runtimeError(cmd, fmt.Errorf("reading diff: %w", err))
			return nil
		}
		runReview(cmd, cfg, review.Input{
			Diff:   string(data),
			Repo:   flagRepo,
			Source: "diff",
		}, nil)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{reviewStagedCmd, reviewUnstagedCmd, reviewCommitCmd, reviewRangeCmd, reviewDiffCmd} {
		addReviewFlags(c)
		reviewCmd.AddCommand(c)
	}
	reviewDiffCmd.Flags().StringVar(&flagRepo, "repo", "", "Repository label recorded with the run (owner/name)")
}
