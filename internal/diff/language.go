package diff

import "strings"

// UnknownLanguage is reported for paths with no recognised extension.
const UnknownLanguage = "unknown"

var languageBySuffix = map[string]string{
	".py":    "python",
	".js":    "javascript",
	".jsx":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".java":  "java",
	".go":    "go",
	".rs":    "rust",
	".rb":    "ruby",
	".php":   "php",
	".cs":    "csharp",
	".cpp":   "cpp",
	".hpp":   "cpp",
	".c":     "c",
	".h":     "c",
	".swift": "swift",
	".kt":    "kotlin",
	".scala": "scala",
	".sql":   "sql",
	".html":  "html",
	".css":   "css",
	".scss":  "scss",
	".json":  "json",
	".yaml":  "yaml",
	".yml":   "yaml",
	".md":    "markdown",
	".sh":    "shell",
	".bash":  "shell",
}

// DetectLanguage maps a path to a language tag using the longest matching
// extension suffix.
func DetectLanguage(path string) string {
	best := ""
	for suffix := range languageBySuffix {
		if strings.HasSuffix(path, suffix) && len(suffix) > len(best) {
			best = suffix
		}
	}
	if best == "" {
		return UnknownLanguage
	}
	return languageBySuffix[best]
}
