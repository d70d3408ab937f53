package redact

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Placeholder replaces any text judged to be a secret.
const Placeholder = "[REDACTED]"

// DefaultPaths are withheld from model prompts unless configuration says otherwise.
var DefaultPaths = []string{"**/.env", "**/.env.*", "**/*.pem", "**/*.key", "**/id_rsa"}

var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)\s*[:=]\s*["']?[A-Za-z0-9/+=_-]{16,}["']?`),
	regexp.MustCompile(`(?i)(secret|token|password|passwd|pwd|credential)\s*[:=]\s*["'][^"']{6,}["']`),
	regexp.MustCompile(`(?i)(aws_secret|aws_access)[a-z_]*\s*[:=]\s*["']?[A-Za-z0-9/+=]{20,}["']?`),
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`),
	regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`),
	regexp.MustCompile(`-----BEGIN (?:RSA |DSA |EC |OPENSSH )?PRIVATE KEY-----`),
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`),
	regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`),
	regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`),
	regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`),
}

// Secrets replaces every detected secret in text with Placeholder.
func Secrets(text string) string {
	for _, re := range secretPatterns {
		text = re.ReplaceAllLiteralString(text, Placeholder)
	}
	return text
}

// Redactor withholds secrets and whole files from outbound text.
type Redactor struct {
	paths []string
}

// New returns a Redactor that withholds files matching any of paths.
func New(paths []string) *Redactor {
	return &Redactor{paths: paths}
}

// Withheld reports whether a file's content must not be sent anywhere.
func (r *Redactor) Withheld(path string) bool {
	if r == nil {
		return false
	}
	for _, pattern := range r.paths {
		if ok, err := filepath.Match(pattern, path); err == nil && ok {
			return true
		}
		// "**/x" matches x at any depth.
		if rest, found := strings.CutPrefix(pattern, "**/"); found {
			if ok, err := filepath.Match(rest, filepath.Base(path)); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// Text redacts secrets in content belonging to path.
func (r *Redactor) Text(path, content string) string {
	if r.Withheld(path) {
		return Placeholder + " (withheld by path policy)\n"
	}
	return Secrets(content)
}
