// Package config loads and merges sift configuration.
//
// Precedence (highest to lowest):
//  1. CLI flags, passed to [Load] as dotted-key overrides
//  2. Environment variables (SIFT_PROVIDER, SIFT_MIN_SEVERITY, ...)
//  3. Config file ($XDG_CONFIG_HOME/sift/config.yaml)
//  4. Built-in defaults
//
// Keys use the YAML names joined with dots, e.g. "analysis.min_severity".
// [SetField] updates one key and [Config.Validate] rejects values the
// pipeline cannot act on.
package config
