package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/sift/internal/config"
	"github.com/dshills/sift/internal/finding"
	"github.com/dshills/sift/internal/review"
	"github.com/dshills/sift/internal/rules"
)

const sampleDiff = `diff --git a/app.py b/app.py
new file mode 100644
--- /dev/null
+++ b/app.py
@@ -0,0 +1,3 @@
+password = "hunter2secret!"
+breakpoint()
+# TODO: tidy this up
`

// resetFlags restores every package-level flag variable to its default.
func resetFlags() {
	flagConfig = ""
	flagLogLevel = ""
	flagLogJSON = false

	flagFormat = ""
	flagOut = ""
	flagFailOn = ""
	flagMinSeverity = ""
	flagMaxComments = 0
	flagAI = false
	flagNoStatic = false
	flagProvider = ""
	flagModel = ""
	flagMode = ""
	flagExclude = ""
	flagRules = ""
	flagSkipRules = ""
	flagNoRedact = false
	flagShadow = false
	flagNoHistory = false

	flagRepo = ""
	flagDryRun = false
	flagRulesJSON = false
	flagHistoryRepo = ""
	flagHistoryLimit = 20
	flagOlderThan = 30 * 24 * time.Hour

	hookFailOn = "high"
	hookMinSeverity = "low"
	hookAI = false
}

// isolate points every sift directory at a fresh temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	for _, k := range []string{"SIFT_FORMAT", "SIFT_FAIL_ON", "SIFT_ENABLE_AI", "SIFT_PROVIDER", "SIFT_DB", "SIFT_LOG_LEVEL", "GITHUB_TOKEN", "GH_TOKEN"} {
		t.Setenv(k, "")
	}
	return dir
}

// execute runs the command tree with args and captures its output.
func execute(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	return executeWithInput(t, "", args...)
}

func executeWithInput(t *testing.T, stdin string, args ...string) (string, string, int) {
	t.Helper()
	resetFlags()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	})
	code := Execute()
	return stdout.String(), stderr.String(), code
}

func writeDiff(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "change.diff")
	require.NoError(t, os.WriteFile(path, []byte(sampleDiff), 0o644))
	return path
}

func decodeResult(t *testing.T, s string) review.Result {
	t.Helper()
	var res review.Result
	require.NoError(t, json.Unmarshal([]byte(s), &res), "output: %s", s)
	return res
}

func TestBuildOverrides_NoFlags(t *testing.T) {
	resetFlags()
	m := buildOverrides()
	if len(m) != 0 {
		t.Errorf("buildOverrides() with no flags = %v, want empty map", m)
	}
}

func TestBuildOverrides_Flags(t *testing.T) {
	resetFlags()
	flagFormat = "json"
	flagFailOn = "high"
	flagMinSeverity = "medium"
	flagMaxComments = 3
	flagAI = true
	flagProvider = "anthropic"
	flagModel = "claude-x"
	flagExclude = `\.gen\.go$`
	flagSkipRules = "QUAL001,QUAL003"
	flagNoRedact = true
	flagNoHistory = true
	defer resetFlags()

	tests := map[string]string{
		"format":                     "json",
		"fail_on":                    "high",
		"analysis.min_severity":      "medium",
		"analysis.max_comments":      "3",
		"analysis.enable_ai":         "true",
		"provider.name":              "anthropic",
		"analysis.model_override":    "claude-x",
		"analysis.excluded_patterns": `\.gen\.go$`,
		"analysis.disabled_rules":    "QUAL001,QUAL003",
		"privacy.redact_secrets":     "false",
		"store.enabled":              "false",
	}
	m := buildOverrides()
	for key, want := range tests {
		if got := m[key]; got != want {
			t.Errorf("buildOverrides()[%q] = %q, want %q", key, got, want)
		}
	}

	// Every override must be a key the config layer accepts.
	cfg := config.Default()
	for key, value := range m {
		if err := config.SetField(&cfg, key, value); err != nil {
			t.Errorf("SetField(%q, %q) = %v", key, value, err)
		}
	}
	assert.Equal(t, []string{"QUAL001", "QUAL003"}, cfg.Analysis.DisabledRules)
}

func TestVersion(t *testing.T) {
	isolate(t)
	stdout, _, code := execute(t, "version")
	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, "sift version "+review.Version+"\n", stdout)
}

func TestUnknownCommand(t *testing.T) {
	isolate(t)
	_, _, code := execute(t, "frobnicate")
	assert.Equal(t, ExitUsageError, code)
}

func TestReviewDiff_FailOn(t *testing.T) {
	tests := []struct {
		name   string
		failOn string
		want   int
	}{
		{"none", "none", ExitSuccess},
		{"high threshold met by secret", "high", ExitFindings},
		{"block threshold met by secret", "block", ExitFindings},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			path := writeDiff(t)
			stdout, stderr, code := execute(t, "review", "diff", path, "--format", "json", "--fail-on", tt.failOn, "--no-history")
			if code != tt.want {
				t.Fatalf("exit code = %d, want %d (stderr: %s)", code, tt.want, stderr)
			}
			res := decodeResult(t, stdout)
			assert.Equal(t, review.StatusCompleted, res.Status)
			assert.Equal(t, "diff", res.Source)
			assert.NotEmpty(t, res.Active())
		})
	}
}

func TestReviewDiff_Stdin(t *testing.T) {
	isolate(t)
	stdout, stderr, code := executeWithInput(t, sampleDiff, "review", "diff", "--format", "json", "--no-history")
	require.Equal(t, ExitSuccess, code, stderr)

	res := decodeResult(t, stdout)
	ids := make(map[string]bool)
	for _, f := range res.Active() {
		ids[f.RuleID] = true
	}
	assert.True(t, ids["SEC002"], "expected hardcoded secret finding, got %v", ids)
	assert.True(t, ids["QUAL002"], "expected debug statement finding, got %v", ids)
}

func TestReviewDiff_MinSeverity(t *testing.T) {
	isolate(t)
	path := writeDiff(t)
	stdout, _, code := execute(t, "review", "diff", path, "--format", "json", "--min-severity", "high", "--no-history")
	require.Equal(t, ExitSuccess, code)

	res := decodeResult(t, stdout)
	for _, f := range res.Active() {
		assert.GreaterOrEqual(t, f.Severity.Rank(), finding.SeverityHigh.Rank(), "finding %s", f.RuleID)
	}
	assert.NotEmpty(t, res.Suppressed())
}

func TestReviewDiff_OutFile(t *testing.T) {
	isolate(t)
	path := writeDiff(t)
	out := filepath.Join(t.TempDir(), "report.sarif")
	stdout, _, code := execute(t, "review", "diff", path, "--format", "sarif", "--out", out, "--no-history")
	require.Equal(t, ExitSuccess, code)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var report map[string]any
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, "2.1.0", report["version"])
}

func TestReviewDiff_MissingFile(t *testing.T) {
	isolate(t)
	_, stderr, code := execute(t, "review", "diff", filepath.Join(t.TempDir(), "nope.diff"))
	assert.Equal(t, ExitRuntimeError, code)
	assert.Contains(t, stderr, "reading diff")
}

func TestReviewDiff_InvalidSeverity(t *testing.T) {
	isolate(t)
	path := writeDiff(t)
	_, _, code := execute(t, "review", "diff", path, "--min-severity", "critical")
	assert.Equal(t, ExitUsageError, code)
}

func TestRulesList(t *testing.T) {
	isolate(t)
	stdout, _, code := execute(t, "rules", "list", "--json")
	require.Equal(t, ExitSuccess, code)

	var metas []rules.Meta
	require.NoError(t, json.Unmarshal([]byte(stdout), &metas))
	require.Equal(t, rules.Default().Len(), len(metas))
	assert.Equal(t, "SEC001", metas[0].ID)

	stdout, _, code = execute(t, "rules", "list")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "SEC002")
	assert.Contains(t, stdout, "QUAL001")
}

func TestConfigCommands(t *testing.T) {
	dir := isolate(t)
	wantPath := filepath.Join(dir, "config", "sift", "config.yaml")

	stdout, _, code := execute(t, "config", "path")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, wantPath+"\n", stdout)

	stdout, _, code = execute(t, "config", "init")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, wantPath)
	_, err := os.Stat(wantPath)
	require.NoError(t, err)

	_, stderr, code := execute(t, "config", "init")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stderr, "already exists")

	stdout, _, code = execute(t, "config", "set", "analysis.min_severity", "high")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "Set analysis.min_severity = high")

	stdout, _, code = execute(t, "config", "show")
	require.Equal(t, ExitSuccess, code)
	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(stdout), &cfg))
	assert.Equal(t, "high", cfg.Analysis.MinSeverity)
	assert.Equal(t, config.Default().Analysis.MaxComments, cfg.Analysis.MaxComments)
}

func TestConfigSet_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown key", "analysis.colour", "blue"},
		{"bad integer", "analysis.max_comments", "many"},
		{"fails validation", "format", "html"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			_, _, code := execute(t, "config", "set", tt.key, tt.value)
			assert.Equal(t, ExitUsageError, code)
		})
	}
}

func TestConfigKeys(t *testing.T) {
	isolate(t)
	stdout, _, code := execute(t, "config", "keys")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, config.Keys(), strings.Fields(stdout))
}

func TestModelsList(t *testing.T) {
	isolate(t)
	stdout, _, code := execute(t, "models", "list")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "openai:")
	assert.Contains(t, stdout, "anthropic:")
	assert.Contains(t, stdout, "tier1: gpt-4o-mini")
}

func TestModelsDoctor_NoKey(t *testing.T) {
	isolate(t)
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("SIFT_API_KEY", "")
	_, stderr, code := execute(t, "models", "doctor", "--provider", "openai")
	assert.Equal(t, ExitRuntimeError, code)
	assert.Contains(t, stderr, "FAIL")
}

func TestCacheCommands(t *testing.T) {
	isolate(t)
	stdout, _, code := execute(t, "cache", "stats")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, `"enabled": true`)

	stdout, _, code = execute(t, "cache", "clear")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "Cache cleared (0 entries removed)")
}

func TestHistory(t *testing.T) {
	isolate(t)
	path := writeDiff(t)

	stdout, stderr, code := execute(t, "review", "diff", path, "--format", "json", "--repo", "acme/api")
	require.Equal(t, ExitSuccess, code, stderr)
	res := decodeResult(t, stdout)
	require.NotEmpty(t, res.RunID)

	stdout, _, code = execute(t, "history", "list", "--repo", "acme/api")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, res.RunID)
	assert.Contains(t, stdout, "acme/api")

	stdout, _, code = execute(t, "history", "show", res.RunID, "--format", "json")
	require.Equal(t, ExitSuccess, code)
	shown := decodeResult(t, stdout)
	assert.Equal(t, res.RunID, shown.RunID)
	assert.Len(t, shown.Findings, len(res.Findings))

	stdout, _, code = execute(t, "history", "list", "--repo", "other/repo")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "No runs recorded.")

	stdout, _, code = execute(t, "history", "prune", "--older-than", "1h")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "Pruned 0 run(s).")
}

func TestHistoryShow_NotFound(t *testing.T) {
	isolate(t)
	_, _, code := execute(t, "history", "show", "missing")
	assert.Equal(t, ExitUsageError, code)
}

// fakeGitHub serves one pull request and records posted reviews.
type fakeGitHub struct {
	mu      sync.Mutex
	reviews []map[string]any
}

func (g *fakeGitHub) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/api/pulls/7", func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.Header.Get("Accept"), "diff") {
			io.WriteString(w, sampleDiff)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"number":7,"title":"Add app","body":"First cut","head":{"sha":"abc123"},"base":{"ref":"main"}}`)
	})
	mux.HandleFunc("/repos/acme/api/contents/app.py", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/repos/acme/api/pulls/7/reviews", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding review: %v", err)
		}
		g.mu.Lock()
		g.reviews = append(g.reviews, body)
		g.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":1}`)
	})
	return mux
}

func TestPR(t *testing.T) {
	isolate(t)
	fake := &fakeGitHub{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()
	t.Setenv("SIFT_GITHUB_API_URL", srv.URL)
	t.Setenv("GITHUB_TOKEN", "test-token")

	stdout, stderr, code := execute(t, "pr", "7", "--repo", "acme/api", "--format", "json")
	require.Equal(t, ExitSuccess, code, stderr)

	res := decodeResult(t, stdout)
	assert.Equal(t, "acme/api", res.Repo)
	assert.Equal(t, 7, res.PR)
	assert.Equal(t, "pr", res.Source)
	assert.True(t, res.Posted)

	require.Len(t, fake.reviews, 1)
	assert.Equal(t, "abc123", fake.reviews[0]["commit_id"])
	assert.Equal(t, "COMMENT", fake.reviews[0]["event"])
}

func TestPR_DryRun(t *testing.T) {
	isolate(t)
	fake := &fakeGitHub{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()
	t.Setenv("SIFT_GITHUB_API_URL", srv.URL)

	stdout, stderr, code := execute(t, "pr", "7", "--repo", "acme/api", "--format", "json", "--dry-run", "--no-history")
	require.Equal(t, ExitSuccess, code, stderr)

	res := decodeResult(t, stdout)
	assert.False(t, res.Posted)
	assert.Empty(t, fake.reviews)
}

func TestPR_InvalidNumber(t *testing.T) {
	isolate(t)
	_, _, code := execute(t, "pr", "seven", "--repo", "acme/api")
	assert.Equal(t, ExitUsageError, code)
}
