package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

type setter func(cfg *Config, value string) error

func str(field func(*Config) *string) setter {
	return func(cfg *Config, v string) error {
		*field(cfg) = v
		return nil
	}
}

func integer(field func(*Config) *int) setter {
	return func(cfg *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("must be an integer: %w", err)
		}
		*field(cfg) = n
		return nil
	}
}

func boolean(field func(*Config) *bool) setter {
	return func(cfg *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("must be true or false: %w", err)
		}
		*field(cfg) = b
		return nil
	}
}

func float(field func(*Config) *float64) setter {
	return func(cfg *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("must be a number: %w", err)
		}
		*field(cfg) = f
		return nil
	}
}

func duration(field func(*Config) *time.Duration) setter {
	return func(cfg *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("must be a duration such as 30s: %w", err)
		}
		*field(cfg) = d
		return nil
	}
}

func list(field func(*Config) *[]string) setter {
	return func(cfg *Config, v string) error {
		var out []string
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		*field(cfg) = out
		return nil
	}
}

var fields = map[string]setter{
	"format":                     str(func(c *Config) *string { return &c.Format }),
	"fail_on":                    str(func(c *Config) *string { return &c.FailOn }),
	"analysis.max_comments":      integer(func(c *Config) *int { return &c.Analysis.MaxComments }),
	"analysis.min_severity":      str(func(c *Config) *string { return &c.Analysis.MinSeverity }),
	"analysis.shadow_mode":       boolean(func(c *Config) *bool { return &c.Analysis.ShadowMode }),
	"analysis.enable_static":     boolean(func(c *Config) *bool { return &c.Analysis.EnableStatic }),
	"analysis.enable_ai":         boolean(func(c *Config) *bool { return &c.Analysis.EnableAI }),
	"analysis.ai_mode":           str(func(c *Config) *string { return &c.Analysis.AIMode }),
	"analysis.model_override":    str(func(c *Config) *string { return &c.Analysis.ModelOverride }),
	"analysis.excluded_patterns": list(func(c *Config) *[]string { return &c.Analysis.ExcludedPatterns }),
	"analysis.enabled_rules":     list(func(c *Config) *[]string { return &c.Analysis.EnabledRules }),
	"analysis.disabled_rules":    list(func(c *Config) *[]string { return &c.Analysis.DisabledRules }),
	"analysis.noise_filter":      boolean(func(c *Config) *bool { return &c.Analysis.NoiseFilter }),
	"analysis.noise_threshold":   float(func(c *Config) *float64 { return &c.Analysis.NoiseThreshold }),
	"analysis.cross_run_dedup":   boolean(func(c *Config) *bool { return &c.Analysis.CrossRunDedup }),
	"analysis.max_hunks":         integer(func(c *Config) *int { return &c.Analysis.MaxHunks }),
	"analysis.min_additions":     integer(func(c *Config) *int { return &c.Analysis.MinAdditions }),
	"provider.name":              str(func(c *Config) *string { return &c.Provider.Name }),
	"provider.base_url":          str(func(c *Config) *string { return &c.Provider.BaseURL }),
	"provider.api_key":           str(func(c *Config) *string { return &c.Provider.APIKey }),
	"provider.tier1_model":       str(func(c *Config) *string { return &c.Provider.Tier1Model }),
	"provider.tier2_model":       str(func(c *Config) *string { return &c.Provider.Tier2Model }),
	"provider.timeout":           duration(func(c *Config) *time.Duration { return &c.Provider.Timeout }),
	"provider.max_retries":       integer(func(c *Config) *int { return &c.Provider.MaxRetries }),
	"provider.max_concurrency":   integer(func(c *Config) *int { return &c.Provider.MaxConcurrency }),
	"provider.max_tokens":        integer(func(c *Config) *int { return &c.Provider.MaxTokens }),
	"cache.enabled":              boolean(func(c *Config) *bool { return &c.Cache.Enabled }),
	"cache.dir":                  str(func(c *Config) *string { return &c.Cache.Dir }),
	"cache.ttl":                  duration(func(c *Config) *time.Duration { return &c.Cache.TTL }),
	"store.enabled":              boolean(func(c *Config) *bool { return &c.Store.Enabled }),
	"store.path":                 str(func(c *Config) *string { return &c.Store.Path }),
	"github.token":               str(func(c *Config) *string { return &c.GitHub.Token }),
	"github.api_url":             str(func(c *Config) *string { return &c.GitHub.APIURL }),
	"privacy.redact_secrets":     boolean(func(c *Config) *bool { return &c.Privacy.RedactSecrets }),
	"privacy.redact_paths":       list(func(c *Config) *[]string { return &c.Privacy.RedactPaths }),
	"log.level":                  str(func(c *Config) *string { return &c.Log.Level }),
	"log.json":                   boolean(func(c *Config) *bool { return &c.Log.JSON }),
}

// SetField sets one dotted key. Unknown keys are an error.
func SetField(cfg *Config, key, value string) error {
	set, ok := fields[key]
	if !ok {
		return fmt.Errorf("%w: unknown config key %q", ErrInvalid, key)
	}
	if err := set(cfg, value); err != nil {
		return fmt.Errorf("%w: %s %v", ErrInvalid, key, err)
	}
	return nil
}

// Keys lists every settable key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
