package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/dshills/sift/internal/cache"
	"github.com/dshills/sift/internal/config"
	"github.com/dshills/sift/internal/logging"
	"github.com/dshills/sift/internal/output"
	"github.com/dshills/sift/internal/providers"
	"github.com/dshills/sift/internal/redact"
	"github.com/dshills/sift/internal/review"
	"github.com/dshills/sift/internal/rules"
	"github.com/dshills/sift/internal/store"
)

// Shared review flags
var (
	flagFormat      string
	flagOut         string
	flagFailOn      string
	flagMinSeverity string
	flagMaxComments int
	flagAI          bool
	flagNoStatic    bool
	flagProvider    string
	flagModel       string
	flagMode        string
	flagExclude     string
	flagRules       string
	flagSkipRules   string
	flagNoRedact    bool
	flagShadow      bool
	flagNoHistory   bool
)

func addReviewFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, json, markdown, sarif)")
	cmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&flagFailOn, "fail-on", "", "Exit 1 when a finding meets this severity (none, low, medium, high, block)")
	cmd.Flags().StringVar(&flagMinSeverity, "min-severity", "", "Suppress findings below this severity")
	cmd.Flags().IntVar(&flagMaxComments, "max-comments", 0, "Maximum inline comments; findings are capped at five times this")
	cmd.Flags().BoolVar(&flagAI, "ai", false, "Enable AI review")
	cmd.Flags().BoolVar(&flagNoStatic, "no-static", false, "Disable static rules")
	cmd.Flags().StringVar(&flagProvider, "provider", "", "AI provider (openai, anthropic, openrouter, ollama)")
	cmd.Flags().StringVar(&flagModel, "model", "", "Model name, overriding tier selection")
	cmd.Flags().StringVar(&flagMode, "mode", "", "AI mode (fast, balanced, thorough)")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "Extra path patterns to skip (comma-separated regular expressions)")
	cmd.Flags().StringVar(&flagRules, "rules", "", "Only run these rule ids (comma-separated)")
	cmd.Flags().StringVar(&flagSkipRules, "skip-rules", "", "Rule ids to disable (comma-separated)")
	cmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
	cmd.Flags().BoolVar(&flagShadow, "shadow", false, "Compute and record results without posting them")
	cmd.Flags().BoolVar(&flagNoHistory, "no-history", false, "Do not record the run or dedup against earlier runs")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagFailOn != "" {
		m["fail_on"] = flagFailOn
	}
	if flagMinSeverity != "" {
		m["analysis.min_severity"] = flagMinSeverity
	}
	if flagMaxComments > 0 {
		m["analysis.max_comments"] = strconv.Itoa(flagMaxComments)
	}
	if flagAI {
		m["analysis.enable_ai"] = "true"
	}
	if flagNoStatic {
		m["analysis.enable_static"] = "false"
	}
	if flagProvider != "" {
		m["provider.name"] = flagProvider
	}
	if flagModel != "" {
		m["analysis.model_override"] = flagModel
	}
	if flagMode != "" {
		m["analysis.ai_mode"] = flagMode
	}
	if flagExclude != "" {
		m["analysis.excluded_patterns"] = flagExclude
	}
	if flagRules != "" {
		m["analysis.enabled_rules"] = flagRules
	}
	if flagSkipRules != "" {
		m["analysis.disabled_rules"] = flagSkipRules
	}
	if flagNoRedact {
		m["privacy.redact_secrets"] = "false"
	}
	if flagShadow {
		m["analysis.shadow_mode"] = "true"
	}
	if flagNoHistory {
		m["store.enabled"] = "false"
	}
	if flagLogLevel != "" {
		m["log.level"] = flagLogLevel
	}
	if flagLogJSON {
		m["log.json"] = "true"
	}
	return m
}

func loadConfig() (config.Config, error) {
	return config.Load(flagConfig, buildOverrides())
}

func newLogger(cmd *cobra.Command, cfg config.Config) hclog.Logger {
	return logging.New(logging.Options{
		Name:   review.Tool,
		Level:  cfg.Log.Level,
		JSON:   cfg.Log.JSON,
		Output: cmd.ErrOrStderr(),
	})
}

// session holds the collaborators of one review command.
type session struct {
	cfg    config.Config
	logger hclog.Logger
	deps   review.Deps
	db     *store.DB
}

func newSession(cmd *cobra.Command, cfg config.Config) (*session, error) {
	logger := newLogger(cmd, cfg)
	s := &session{cfg: cfg, logger: logger}
	s.deps = review.Deps{
		Rules:  rules.NewEngine(rules.Default(), logger),
		Logger: logger,
	}

	if cfg.Analysis.EnableAI {
		if err := s.setupAI(); err != nil {
			return nil, err
		}
	}

	if cfg.Store.Enabled {
		path, err := cfg.StorePath()
		if err != nil {
			return nil, err
		}
		db, err := store.Open(path)
		if err != nil {
			// History is optional; the review still runs.
			logger.Warn("run history unavailable", "path", path, "error", err)
		} else {
			s.db = db
			s.deps.Store = db
		}
	}
	return s, nil
}

func (s *session) setupAI() error {
	cfg := s.cfg
	models := providers.DefaultModels(cfg.Provider.Name)
	if cfg.Provider.Tier1Model != "" {
		models.Tier1 = cfg.Provider.Tier1Model
	}
	if cfg.Provider.Tier2Model != "" {
		models.Tier2 = cfg.Provider.Tier2Model
	}

	provider, err := providers.New(providers.Options{
		Name:       cfg.Provider.Name,
		BaseURL:    cfg.Provider.BaseURL,
		APIKey:     cfg.Provider.ResolveAPIKey(),
		Model:      models.Tier1,
		Timeout:    cfg.Provider.Timeout,
		MaxRetries: cfg.Provider.MaxRetries,
	}, s.logger)
	if err != nil {
		return err
	}

	responses, err := cache.New(cfg.Cache.Enabled, cfg.Cache.Dir, cfg.Cache.TTL, s.logger)
	if err != nil {
		s.logger.Warn("response cache unavailable", "error", err)
	}

	s.deps.AI = review.NewAIReviewer(provider, review.AIOptions{
		Cache:          responses,
		Redactor:       redact.New(cfg.Privacy.RedactPaths),
		RedactSecrets:  cfg.Privacy.RedactSecrets,
		MaxConcurrency: cfg.Provider.MaxConcurrency,
		MaxTokens:      cfg.Provider.MaxTokens,
	}, s.logger)
	s.deps.Models = models
	return nil
}

func (s *session) Close() {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Warn("closing run history", "error", err)
		}
	}
}

// report writes res and sets the exit code from the fail-on threshold.
func (s *session) report(cmd *cobra.Command, res *review.Result) {
	if err := writeResult(cmd.OutOrStdout(), res, s.cfg.Format); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error writing output: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}
	if res.MeetsThreshold(s.cfg.FailOn) {
		exitCode = ExitFindings
	}
}

func writeResult(w io.Writer, res *review.Result, format string) error {
	if flagOut != "" {
		return output.WriteReport(res, format, flagOut)
	}
	color := false
	if f, ok := w.(*os.File); ok {
		color = output.ColorEnabled(f)
	}
	writer, err := output.GetWriter(format, color)
	if err != nil {
		return err
	}
	return writer.Write(w, res)
}

func runtimeError(cmd *cobra.Command, err error) {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	exitCode = ExitRuntimeError
}
