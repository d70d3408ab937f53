package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dshills/sift/internal/gitctx"
	"github.com/dshills/sift/internal/github"
	"github.com/dshills/sift/internal/review"
)

var (
	flagRepo   string
	flagDryRun bool
)

var prCmd = &cobra.Command{
	Use:   "pr <number>",
	Short: "Review a GitHub pull request and post the results",
	Long: "Fetch a pull request diff from GitHub, review it and post a summary review with inline comments. " +
		"--dry-run and --shadow compute the review without posting.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := strconv.Atoi(args[0])
		if err != nil || number <= 0 {
			return fmt.Errorf("invalid pull request number %q", args[0])
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		repo, err := resolveRepo(flagRepo)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		client, err := github.NewClient(cfg.GitHub.ResolveToken(), cfg.GitHub.APIURL, newLogger(cmd, cfg))
		if err != nil {
			runtimeError(cmd, err)
			return nil
		}
		pr, err := client.PullRequest(ctx, repo, number)
		if err != nil {
			runtimeError(cmd, err)
			return nil
		}
		text, err := client.PullRequestDiff(ctx, repo, number)
		if err != nil {
			runtimeError(cmd, err)
			return nil
		}

		in := review.Input{
			Diff:        text,
			Repo:        repo.String(),
			PR:          number,
			Ref:         pr.HeadSHA,
			Title:       pr.Title,
			Description: pr.Body,
			Source:      "pr",
			Config:      cfg.Analysis,
		}

		s, err := newSession(cmd, cfg)
		if err != nil {
			runtimeError(cmd, err)
			return nil
		}
		defer s.Close()

		deps := s.deps
		deps.Fetcher = client.Files(repo)
		if !flagDryRun {
			deps.Publisher = &github.Publisher{Client: client, Repo: repo, Number: number, CommitID: pr.HeadSHA}
		}

		res, err := review.Run(ctx, in, deps)
		if err != nil {
			runtimeError(cmd, err)
			return nil
		}
		s.report(cmd, res)
		return nil
	},
}

// resolveRepo parses flag, or derives owner/name from the origin remote.
func resolveRepo(flag string) (github.Repo, error) {
	if flag != "" {
		return github.ParseRepo(flag)
	}
	local, err := gitctx.Open(".")
	if err != nil {
		return github.Repo{}, fmt.Errorf("--repo is required outside a git repository")
	}
	remote, err := local.RemoteURL("origin")
	if err != nil {
		return github.Repo{}, fmt.Errorf("--repo is required without an origin remote")
	}
	return github.ParseRemoteURL(remote)
}

func init() {
	addReviewFlags(prCmd)
	prCmd.Flags().StringVar(&flagRepo, "repo", "", "Repository as owner/name (default: from the origin remote)")
	prCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Review without posting to GitHub")
}
