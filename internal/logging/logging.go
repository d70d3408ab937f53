package logging

import (
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// EnvLevel overrides the log level when configuration does not set one.
const EnvLevel = "SIFT_LOG_LEVEL"

// Options configures New.
type Options struct {
	Name   string
	Level  string
	JSON   bool
	Output io.Writer
}

// New returns a logger for opts. An empty level falls back to SIFT_LOG_LEVEL,
// then to warn.
func New(opts Options) hclog.Logger {
	level := opts.Level
	if level == "" {
		level = os.Getenv(EnvLevel)
	}
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:        opts.Name,
		DisableTime: true,
		Output:      out,
		Level:       ParseLevel(level),
		JSONFormat:  opts.JSON,
	})
}

// ParseLevel maps a level name to an hclog level. Unknown names mean warn.
func ParseLevel(s string) hclog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return hclog.Trace
	case "DEBUG":
		return hclog.Debug
	case "INFO":
		return hclog.Info
	case "WARN", "WARNING":
		return hclog.Warn
	case "ERROR":
		return hclog.Error
	case "OFF":
		return hclog.Off
	default:
		return hclog.Warn
	}
}

// ValidLevel reports whether s names a level ParseLevel understands.
func ValidLevel(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "TRACE", "DEBUG", "INFO", "WARN", "WARNING", "ERROR", "OFF":
		return true
	}
	return false
}
