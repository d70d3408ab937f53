package rules

import (
	"fmt"
	"regexp"

	"github.com/dshills/sift/internal/diff"
	"github.com/dshills/sift/internal/finding"
	"github.com/dshills/sift/internal/redact"
)

var securityRules = []Rule{
	&patternRule{
		meta: Meta{
			ID:          "SEC001",
			Name:        "Potential SQL Injection",
			Description: "Detects potential SQL injection vulnerabilities",
			Category:    finding.CategorySecurity,
			Severity:    finding.SeverityHigh,
			Confidence:  finding.ConfidenceMedium,
			Languages:   []string{"python", "javascript", "typescript", "java", "php"},
		},
		patterns: compile(
			`(?i)execute\s*\(\s*["'].*%s`,
			`(?i)execute\s*\(\s*f["']`,
			`(?i)execute\s*\(\s*["'].*\+`,
			`(?i)query\s*\(\s*["'].*\$\{`,
			`(?i)raw\s*\(\s*["'].*\+`,
			"(?i)\\.query\\s*\\(\\s*`.*\\$\\{",
		),
		title:      "Potential SQL injection vulnerability",
		message:    "String concatenation or interpolation in SQL query may allow SQL injection attacks.",
		suggestion: "Use parameterized queries or prepared statements instead of string concatenation.",
	},
	newSecretRule(),
	&patternRule{
		meta: Meta{
			ID:          "SEC003",
			Name:        "Insecure Hash Algorithm",
			Description: "Detects use of weak hash algorithms",
			Category:    finding.CategorySecurity,
			Severity:    finding.SeverityHigh,
			Confidence:  finding.ConfidenceHigh,
			Languages:   []string{"python", "javascript", "typescript", "java"},
		},
		patterns: compile(
			`(?i)hashlib\.md5`,
			`(?i)hashlib\.sha1`,
			`(?i)crypto\.createHash\s*\(\s*["']md5["']`,
			`(?i)crypto\.createHash\s*\(\s*["']sha1["']`,
			`(?i)MessageDigest\.getInstance\s*\(\s*["']MD5["']`,
			`(?i)MessageDigest\.getInstance\s*\(\s*["']SHA-1["']`,
		),
		title:      "Use of weak hash algorithm",
		message:    "MD5 and SHA1 are cryptographically weak. Use SHA-256 or better for security-sensitive hashing.",
		suggestion: "Replace with SHA-256 or SHA-3 for cryptographic purposes, or bcrypt/argon2 for passwords.",
	},
	&patternRule{
		meta: Meta{
			ID:          "SEC004",
			Name:        "Command Injection",
			Description: "Detects potential command injection via shell execution",
			Category:    finding.CategorySecurity,
			Severity:    finding.SeverityHigh,
			Confidence:  finding.ConfidenceMedium,
			Languages:   []string{"python", "javascript", "typescript", "ruby"},
		},
		patterns: compile(
			`(?i)os\.system\s*\(`,
			`(?i)subprocess\.call\s*\([^)]*shell\s*=\s*True`,
			`(?i)subprocess\.Popen\s*\([^)]*shell\s*=\s*True`,
			`(?i)exec\s*\([^)]*\$\{`,
			`(?i)child_process\.exec\s*\(`,
			"(?i)`\\$\\{.*\\}`",
		),
		title:      "Potential command injection vulnerability",
		message:    "User input may be passed to shell execution. This can allow arbitrary command execution.",
		suggestion: "Use subprocess with a list of arguments instead of shell=True. Validate and sanitize all user input.",
		maxSnippet: snippetLen,
	},
	&patternRule{
		meta: Meta{
			ID:          "SEC005",
			Name:        "Path Traversal",
			Description: "Detects potential path traversal/directory traversal attacks",
			Category:    finding.CategorySecurity,
			Severity:    finding.SeverityHigh,
			Confidence:  finding.ConfidenceMedium,
			Languages:   []string{"python", "javascript", "typescript", "java", "php"},
		},
		patterns: compile(
			`open\s*\([^)]*\+`,
			`fs\.readFile\s*\([^)]*\+`,
			`readFileSync\s*\([^)]*\+`,
			`\.\./`,
			`path\.join\s*\([^)]*req\.`,
		),
		title:      "Potential path traversal vulnerability",
		message:    "File path constructed with user input may allow access to unauthorized files.",
		suggestion: "Validate that resolved paths stay within expected directories. Use path.resolve() and compare with base path.",
		maxSnippet: snippetLen,
	},
	&patternRule{
		meta: Meta{
			ID:          "SEC006",
			Name:        "Cross-Site Scripting (XSS)",
			Description: "Detects potential XSS via unsafe HTML rendering",
			Category:    finding.CategorySecurity,
			Severity:    finding.SeverityHigh,
			Confidence:  finding.ConfidenceMedium,
			Languages:   []string{"javascript", "typescript", "python"},
		},
		patterns: compile(
			`dangerouslySetInnerHTML`,
			`\.innerHTML\s*=`,
			`\.outerHTML\s*=`,
			`document\.write\s*\(`,
			`\|safe\s*\}\}`, // Jinja2
			`v-html\s*=`,    // Vue
		),
		title:      "Potential XSS vulnerability",
		message:    "Rendering unescaped HTML can allow script injection attacks.",
		suggestion: "Sanitize HTML content before rendering. Use DOMPurify or similar library.",
		maxSnippet: snippetLen,
	},
}

type secretKind struct {
	re   *regexp.Regexp
	name string
}

// secretRule reports hardcoded credentials without echoing them.
type secretRule struct {
	meta  Meta
	kinds []secretKind
}

func newSecretRule() *secretRule {
	return &secretRule{
		meta: Meta{
			ID:          "SEC002",
			Name:        "Hardcoded Secret",
			Description: "Detects hardcoded secrets and API keys",
			Category:    finding.CategorySecurity,
			Severity:    finding.SeverityBlock,
			Confidence:  finding.ConfidenceMedium,
		},
		kinds: []secretKind{
			{regexp.MustCompile(`(?i)(?:api[_-]?key|apikey)\s*[=:]\s*["'][a-zA-Z0-9]{16,}["']`), "API key"},
			{regexp.MustCompile(`(?i)(?:password|passwd|pwd)\s*[=:]\s*["'][^"']{6,}["']`), "password"},
			{regexp.MustCompile(`(?i)(?:secret|token)\s*[=:]\s*["'][a-zA-Z0-9]{16,}["']`), "secret/token"},
			{regexp.MustCompile(`(?i)(?:aws_secret|aws_access)\s*[=:]\s*["'][A-Za-z0-9/+=]{20,}["']`), "AWS credential"},
			{regexp.MustCompile(`(?i)-----BEGIN (?:RSA |DSA |EC )?PRIVATE KEY-----`), "private key"},
		},
	}
}

func (r *secretRule) Meta() Meta { return r.meta }

func (r *secretRule) Check(file *diff.File, _ *diff.Hunk, line int, text string) *finding.RawFinding {
	for _, k := range r.kinds {
		if !k.re.MatchString(text) {
			continue
		}
		return r.meta.hit(file, line, report{
			title:      fmt.Sprintf("Hardcoded %s detected", k.name),
			message:    fmt.Sprintf("A hardcoded %s was found. This is a security risk and should be moved to environment variables.", k.name),
			suggestion: "Use environment variables or a secrets manager instead of hardcoding credentials.",
			snippet:    redact.Placeholder,
		})
	}
	return nil
}
