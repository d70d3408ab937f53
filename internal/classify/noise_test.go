package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/sift/internal/finding"
)

func TestNoiseScore(t *testing.T) {
	tests := []struct {
		name string
		f    finding.Finding
		want float64
	}{
		{"clean", finding.Finding{Severity: finding.SeverityHigh, Confidence: finding.ConfidenceHigh, Source: finding.SourceStatic, FilePath: "main.go"}, 0},
		{"low and low", finding.Finding{Severity: finding.SeverityLow, Confidence: finding.ConfidenceLow, FilePath: "main.go"}, 0.6},
		{"ai phrase", finding.Finding{Severity: finding.SeverityHigh, Source: finding.SourceAI, Message: "Trailing space here", FilePath: "main.go"}, 0.3},
		{"static phrase ignored", finding.Finding{Severity: finding.SeverityHigh, Source: finding.SourceStatic, Message: "whitespace", FilePath: "main.go"}, 0},
		{"noisy file and style", finding.Finding{Severity: finding.SeverityHigh, Category: finding.CategoryStyle, FilePath: "web/button.test.ts"}, 0.4},
		{"capped", finding.Finding{Severity: finding.SeverityLow, Confidence: finding.ConfidenceLow, Source: finding.SourceAI, Message: "consider using x", Category: finding.CategoryStyle, FilePath: "fixtures/a.json"}, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.f
			if got := NoiseScore(&f); got != tt.want {
				t.Errorf("NoiseScore = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsNoisyFile(t *testing.T) {
	noisy := []string{"a.test.js", "a.spec.ts", "pkg/foo_test.py", "tests/test_api.py", "src/__mocks__/x.js", "fixtures/data.json", "Button.stories.tsx", "vite.config.mjs"}
	for _, p := range noisy {
		assert.True(t, IsNoisyFile(p), p)
	}
	for _, p := range []string{"main.go", "src/api.ts", "config.yaml"} {
		assert.False(t, IsNoisyFile(p), p)
	}
}

func TestFilterNoise(t *testing.T) {
	noisy := &finding.Finding{Severity: finding.SeverityLow, Confidence: finding.ConfidenceLow, FilePath: "a.go"}
	clean := &finding.Finding{Severity: finding.SeverityHigh, Confidence: finding.ConfidenceHigh, FilePath: "a.go"}
	earlier := &finding.Finding{Severity: finding.SeverityLow, Confidence: finding.ConfidenceLow, FilePath: "a.go"}
	earlier.Suppress("Below minimum severity (medium)")

	kept, filtered := FilterNoise([]*finding.Finding{noisy, clean, earlier}, DefaultNoiseThreshold)
	require.Len(t, kept, 1)
	assert.Same(t, clean, kept[0])
	require.Len(t, filtered, 2)
	assert.Equal(t, "Noise filter (score: 0.60)", noisy.SuppressionReason)
	assert.Equal(t, "Below minimum severity (medium)", earlier.SuppressionReason)
	assert.False(t, clean.Suppressed)
}

func TestFilterNoise_NeverUnsuppresses(t *testing.T) {
	f := &finding.Finding{Severity: finding.SeverityBlock, Confidence: finding.ConfidenceHigh}
	f.Suppress(ReasonCapExceeded)
	kept, _ := FilterNoise([]*finding.Finding{f}, DefaultNoiseThreshold)
	require.Len(t, kept, 1)
	assert.True(t, kept[0].Suppressed)
}
