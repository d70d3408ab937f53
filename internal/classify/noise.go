package classify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dshills/sift/internal/finding"
)

// DefaultNoiseThreshold is the score at which a finding counts as noise.
const DefaultNoiseThreshold = 0.6

var noisePhrases = []string{
	"consider using",
	"consider",
	"might want to",
	"you could",
	"could be improved",
	"you may",
	"it would be better",
	"style preference",
	"naming convention",
	"whitespace",
	"trailing space",
	"missing newline",
	"line too long",
	"indentation",
}

var noisyFiles = []*regexp.Regexp{
	regexp.MustCompile(`\.test\.(js|ts|py)$`),
	regexp.MustCompile(`\.spec\.(js|ts)$`),
	regexp.MustCompile(`_test\.py$`),
	regexp.MustCompile(`test_.*\.py$`),
	regexp.MustCompile(`__mocks__/`),
	regexp.MustCompile(`fixtures/`),
	regexp.MustCompile(`\.stories\.(js|ts|tsx)$`),
	regexp.MustCompile(`\.config\.(js|ts|mjs)$`),
}

// NoiseScore rates how likely f is to be noise, from 0 to 1.
func NoiseScore(f *finding.Finding) float64 {
	// Tenths keep the sum exact.
	tenths := 0
	if f.Severity == finding.SeverityLow {
		tenths += 3
	}
	if f.Confidence == finding.ConfidenceLow {
		tenths += 3
	}
	if f.Source == finding.SourceAI && containsAny(strings.ToLower(f.Message), noisePhrases) {
		tenths += 3
	}
	if IsNoisyFile(f.FilePath) {
		tenths += 2
	}
	if f.Category == finding.CategoryStyle {
		tenths += 2
	}
	if tenths > 10 {
		tenths = 10
	}
	return float64(tenths) / 10
}

// IsNoisyFile reports whether path is a test, fixture, story or config file.
func IsNoisyFile(path string) bool {
	for _, re := range noisyFiles {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// FilterNoise splits findings by noise score. Findings at or above threshold
// are suppressed, unless already suppressed, and returned as filtered.
func FilterNoise(findings []*finding.Finding, threshold float64) (kept, filtered []*finding.Finding) {
	for _, f := range findings {
		score := NoiseScore(f)
		if score < threshold {
			kept = append(kept, f)
			continue
		}
		if !f.Suppressed {
			f.Suppress(fmt.Sprintf("Noise filter (score: %.2f)", score))
		}
		filtered = append(filtered, f)
	}
	return kept, filtered
}
