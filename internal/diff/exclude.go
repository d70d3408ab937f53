package diff

import "regexp"

// DefaultExcludePatterns lists paths that are never worth reviewing.
var DefaultExcludePatterns = []string{
	`package-lock\.json$`,
	`yarn\.lock$`,
	`pnpm-lock\.yaml$`,
	`Gemfile\.lock$`,
	`poetry\.lock$`,
	`composer\.lock$`,
	`Cargo\.lock$`,
	`\.min\.js$`,
	`\.min\.css$`,
	`\.map$`,
	`\.d\.ts$`,
	`__pycache__/`,
	`node_modules/`,
	`vendor/`,
	`\.git/`,
	`\.svn/`,
	`dist/`,
	`build/`,
	`\.next/`,
	`coverage/`,
}

var defaultExcludes = compilePatterns(DefaultExcludePatterns)

// Excluder decides whether a path is dropped from analysis.
type Excluder struct {
	patterns []*regexp.Regexp
}

// NewExcluder combines the default exclusions with caller patterns.
// A pattern that is not a valid regular expression matches literally.
func NewExcluder(extra []string) *Excluder {
	patterns := make([]*regexp.Regexp, 0, len(defaultExcludes)+len(extra))
	patterns = append(patterns, defaultExcludes...)
	patterns = append(patterns, compilePatterns(extra)...)
	return &Excluder{patterns: patterns}
}

// Excluded reports whether path matches any exclusion pattern.
func (e *Excluder) Excluded(path string) bool {
	for _, re := range e.patterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

func compilePatterns(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if p == "" {
			continue
		}
		re, err := regexp.Compile(p)
		if err != nil {
			re = regexp.MustCompile(regexp.QuoteMeta(p))
		}
		out = append(out, re)
	}
	return out
}
