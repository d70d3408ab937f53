package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dshills/sift/internal/finding"
	"github.com/dshills/sift/internal/logging"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full sift configuration.
type Config struct {
	Format   string         `yaml:"format" json:"format"`
	FailOn   string         `yaml:"fail_on" json:"failOn"`
	Analysis AnalysisConfig `yaml:"analysis" json:"analysis"`
	Provider ProviderConfig `yaml:"provider" json:"provider"`
	Cache    CacheConfig    `yaml:"cache" json:"cache"`
	Store    StoreConfig    `yaml:"store" json:"store"`
	GitHub   GitHubConfig   `yaml:"github" json:"github"`
	Privacy  PrivacyConfig  `yaml:"privacy" json:"privacy"`
	Log      LogConfig      `yaml:"log" json:"log"`
}

// AnalysisConfig controls what a run looks for and how much it reports.
type AnalysisConfig struct {
	MaxComments      int      `yaml:"max_comments" json:"maxComments"`
	MinSeverity      string   `yaml:"min_severity" json:"minSeverity"`
	ShadowMode       bool     `yaml:"shadow_mode" json:"shadowMode"`
	EnableStatic     bool     `yaml:"enable_static" json:"enableStatic"`
	EnableAI         bool     `yaml:"enable_ai" json:"enableAI"`
	AIMode           string   `yaml:"ai_mode" json:"aiMode"`
	ModelOverride    string   `yaml:"model_override,omitempty" json:"modelOverride,omitempty"`
	ExcludedPatterns []string `yaml:"excluded_patterns,omitempty" json:"excludedPatterns,omitempty"`
	EnabledRules     []string `yaml:"enabled_rules,omitempty" json:"enabledRules,omitempty"`
	DisabledRules    []string `yaml:"disabled_rules,omitempty" json:"disabledRules,omitempty"`
	NoiseFilter      bool     `yaml:"noise_filter" json:"noiseFilter"`
	NoiseThreshold   float64  `yaml:"noise_threshold" json:"noiseThreshold"`
	CrossRunDedup    bool     `yaml:"cross_run_dedup" json:"crossRunDedup"`
	MaxHunks         int      `yaml:"max_hunks" json:"maxHunks"`
	MinAdditions     int      `yaml:"min_additions" json:"minAdditions"`
}

// MaxFindings is the active-finding cap derived from MaxComments.
func (a AnalysisConfig) MaxFindings() int { return a.MaxComments * 5 }

// ProviderConfig selects and tunes the model provider.
type ProviderConfig struct {
	Name           string        `yaml:"name" json:"name"`
	BaseURL        string        `yaml:"base_url,omitempty" json:"baseURL,omitempty"`
	APIKey         string        `yaml:"api_key,omitempty" json:"-"`
	Tier1Model     string        `yaml:"tier1_model,omitempty" json:"tier1Model,omitempty"`
	Tier2Model     string        `yaml:"tier2_model,omitempty" json:"tier2Model,omitempty"`
	Timeout        time.Duration `yaml:"timeout" json:"timeout"`
	MaxRetries     int           `yaml:"max_retries" json:"maxRetries"`
	MaxConcurrency int           `yaml:"max_concurrency" json:"maxConcurrency"`
	MaxTokens      int           `yaml:"max_tokens" json:"maxTokens"`
}

// apiKeyEnv names the conventional key variable for each provider.
var apiKeyEnv = map[string]string{
	"openai":     "OPENAI_API_KEY",
	"anthropic":  "ANTHROPIC_API_KEY",
	"openrouter": "OPENROUTER_API_KEY",
}

// ResolveAPIKey returns the configured key or the provider's conventional
// environment variable.
func (p ProviderConfig) ResolveAPIKey() string {
	if p.APIKey != "" {
		return p.APIKey
	}
	if env, ok := apiKeyEnv[p.Name]; ok {
		return os.Getenv(env)
	}
	return ""
}

// CacheConfig controls the on-disk model response cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" json:"enabled"`
	Dir     string        `yaml:"dir,omitempty" json:"dir,omitempty"`
	TTL     time.Duration `yaml:"ttl" json:"ttl"`
}

// StoreConfig controls the run history database.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path,omitempty" json:"path,omitempty"`
}

// GitHubConfig holds pull request access settings.
type GitHubConfig struct {
	Token  string `yaml:"token,omitempty" json:"-"`
	APIURL string `yaml:"api_url,omitempty" json:"apiURL,omitempty"`
}

// ResolveToken returns the configured token or GITHUB_TOKEN / GH_TOKEN.
func (g GitHubConfig) ResolveToken() string {
	if g.Token != "" {
		return g.Token
	}
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		return v
	}
	return os.Getenv("GH_TOKEN")
}

// PrivacyConfig controls what is withheld from model prompts.
type PrivacyConfig struct {
	RedactSecrets bool     `yaml:"redact_secrets" json:"redactSecrets"`
	RedactPaths   []string `yaml:"redact_paths,omitempty" json:"redactPaths,omitempty"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level string `yaml:"level,omitempty" json:"level,omitempty"`
	JSON  bool   `yaml:"json" json:"json"`
}

// Default returns a Config with every default applied.
func Default() Config {
	return Config{
		Format: "text",
		FailOn: "none",
		Analysis: AnalysisConfig{
			MaxComments:    10,
			MinSeverity:    string(finding.SeverityLow),
			EnableStatic:   true,
			AIMode:         "balanced",
			NoiseFilter:    true,
			NoiseThreshold: 0.6,
			CrossRunDedup:  true,
			MaxHunks:       50,
			MinAdditions:   1,
		},
		Provider: ProviderConfig{
			Name:           "openai",
			Timeout:        60 * time.Second,
			MaxRetries:     3,
			MaxConcurrency: 4,
			MaxTokens:      4096,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
		},
		Store: StoreConfig{Enabled: true},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
			RedactPaths:   []string{"**/.env", "**/.env.*", "**/*.pem", "**/*.key", "**/*secrets*"},
		},
	}
}

// ConfigDir returns the platform config directory for sift.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "sift"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "sift"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "sift"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "sift"), nil
	default:
		return filepath.Join(home, ".config", "sift"), nil
	}
}

// DataDir returns the directory holding the run history database.
func DataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "sift"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "sift"), nil
}

// ConfigPath returns the default config file location.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// StorePath returns the configured database path or the default one.
func (c Config) StorePath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sift.db"), nil
}

// LoadFile overlays the YAML file at path onto cfg. A missing file is not an error.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// Save writes cfg as YAML to path, creating parent directories.
func Save(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// Load builds the effective config: defaults <- file <- env <- overrides.
// An empty path means ConfigPath.
func Load(path string, overrides map[string]string) (Config, error) {
	cfg := Default()
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = p
	}
	if err := LoadFile(path, &cfg); err != nil {
		return Config{}, err
	}
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}
	for key, value := range overrides {
		if value == "" {
			continue
		}
		if err := SetField(&cfg, key, value); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envKeys maps environment variables onto config keys.
var envKeys = []struct{ env, key string }{
	{"SIFT_FORMAT", "format"},
	{"SIFT_FAIL_ON", "fail_on"},
	{"SIFT_MIN_SEVERITY", "analysis.min_severity"},
	{"SIFT_MAX_COMMENTS", "analysis.max_comments"},
	{"SIFT_SHADOW_MODE", "analysis.shadow_mode"},
	{"SIFT_ENABLE_STATIC", "analysis.enable_static"},
	{"SIFT_ENABLE_AI", "analysis.enable_ai"},
	{"SIFT_AI_MODE", "analysis.ai_mode"},
	{"SIFT_MODEL", "analysis.model_override"},
	{"SIFT_PROVIDER", "provider.name"},
	{"SIFT_BASE_URL", "provider.base_url"},
	{"SIFT_API_KEY", "provider.api_key"},
	{"SIFT_CACHE", "cache.enabled"},
	{"SIFT_DB", "store.path"},
	{"SIFT_GITHUB_API_URL", "github.api_url"},
	{"SIFT_LOG_LEVEL", "log.level"},
	{"SIFT_LOG_JSON", "log.json"},
}

func mergeEnv(cfg *Config) error {
	for _, e := range envKeys {
		v := os.Getenv(e.env)
		if v == "" {
			continue
		}
		if err := SetField(cfg, e.key, v); err != nil {
			return fmt.Errorf("%s: %w", e.env, err)
		}
	}
	return nil
}

// Validate reports the first setting the pipeline cannot act on.
func (c Config) Validate() error {
	if !oneOf(c.Format, "text", "json", "markdown", "sarif") {
		return fmt.Errorf("%w: format %q (want text, json, markdown or sarif)", ErrInvalid, c.Format)
	}
	if c.FailOn != "none" && !finding.Severity(c.FailOn).Valid() {
		return fmt.Errorf("%w: fail_on %q (want none, low, medium, high or block)", ErrInvalid, c.FailOn)
	}
	if !finding.Severity(c.Analysis.MinSeverity).Valid() {
		return fmt.Errorf("%w: analysis.min_severity %q", ErrInvalid, c.Analysis.MinSeverity)
	}
	if c.Analysis.MaxComments < 1 {
		return fmt.Errorf("%w: analysis.max_comments must be at least 1", ErrInvalid)
	}
	if !oneOf(c.Analysis.AIMode, "fast", "balanced", "thorough") {
		return fmt.Errorf("%w: analysis.ai_mode %q (want fast, balanced or thorough)", ErrInvalid, c.Analysis.AIMode)
	}
	if c.Analysis.NoiseThreshold < 0 || c.Analysis.NoiseThreshold > 1 {
		return fmt.Errorf("%w: analysis.noise_threshold must be between 0 and 1", ErrInvalid)
	}
	if c.Analysis.MinAdditions < 0 || c.Analysis.MaxHunks < 0 {
		return fmt.Errorf("%w: analysis.min_additions and analysis.max_hunks must not be negative", ErrInvalid)
	}
	if !oneOf(c.Provider.Name, "openai", "anthropic", "openrouter", "ollama") {
		return fmt.Errorf("%w: provider.name %q (want openai, anthropic, openrouter or ollama)", ErrInvalid, c.Provider.Name)
	}
	if c.Provider.MaxConcurrency < 1 {
		return fmt.Errorf("%w: provider.max_concurrency must be at least 1", ErrInvalid)
	}
	if !logging.ValidLevel(c.Log.Level) {
		return fmt.Errorf("%w: log.level %q", ErrInvalid, c.Log.Level)
	}
	return nil
}

func oneOf(v string, options ...string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}
