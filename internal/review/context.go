package review

import (
	"context"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/dshills/sift/internal/diff"
	"github.com/dshills/sift/internal/finding"
)

const (
	maxContextFiles     = 10
	outlineScanLines    = 100
	maxOutlineImports   = 10
	maxOutlineTypes     = 5
	maxOutlineFunctions = 10
	maxSignatureLen     = 80
)

// FileFetcher reads a file's content at a ref.
type FileFetcher interface {
	FileContent(ctx context.Context, path, ref string) (string, error)
}

// FileContext is a compact outline of one changed file.
type FileContext struct {
	Path      string   `json:"path"`
	Language  string   `json:"language"`
	Imports   []string `json:"imports,omitempty"`
	Types     []string `json:"types,omitempty"`
	Functions []string `json:"functions,omitempty"`
}

// BuildFileContext outlines the files with the most additions. Fetch failures
// are logged and the file is skipped.
func BuildFileContext(ctx context.Context, fetcher FileFetcher, files []diff.File, ref string, logger hclog.Logger) []FileContext {
	if fetcher == nil {
		return nil
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	ranked := make([]diff.File, len(files))
	copy(ranked, files)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Additions > ranked[j].Additions })
	if len(ranked) > maxContextFiles {
		ranked = ranked[:maxContextFiles]
	}

	var out []FileContext
	for _, f := range ranked {
		if f.IsBinary || f.Status == diff.StatusDeleted {
			continue
		}
		content, err := fetcher.FileContent(ctx, f.Path, ref)
		if err != nil {
			logger.Warn("failed to fetch file context", "file", f.Path, "error", err)
			continue
		}
		out = append(out, Outline(f.Path, f.Language, content))
	}
	logger.Debug("built file context", "files", len(out))
	return out
}

// Outline collects imports, type and function declarations from the head of
// content.
func Outline(path, language, content string) FileContext {
	fc := FileContext{Path: path, Language: language}
	lines := strings.Split(content, "\n")
	if len(lines) > outlineScanLines {
		lines = lines[:outlineScanLines]
	}
	for _, line := range lines {
		l := strings.TrimSpace(line)
		if l == "" {
			continue
		}
		switch language {
		case "python":
			switch {
			case strings.HasPrefix(l, "import "), strings.HasPrefix(l, "from "):
				fc.Imports = append(fc.Imports, l)
			case strings.HasPrefix(l, "class "):
				fc.Types = append(fc.Types, l)
			case strings.HasPrefix(l, "def "), strings.HasPrefix(l, "async def "):
				fc.Functions = append(fc.Functions, l)
			}
		case "javascript", "typescript":
			switch {
			case strings.Contains(l, "import "), strings.Contains(l, "require("):
				fc.Imports = append(fc.Imports, l)
			case strings.Contains(l, "class "):
				fc.Types = append(fc.Types, l)
			case strings.Contains(l, "function "), strings.Contains(l, "=>"):
				fc.Functions = append(fc.Functions, finding.Truncate(l, maxSignatureLen))
			}
		case "go":
			switch {
			case strings.HasPrefix(l, "import "), strings.HasPrefix(l, `"`) && strings.HasSuffix(l, `"`):
				fc.Imports = append(fc.Imports, l)
			case strings.HasPrefix(l, "type "):
				fc.Types = append(fc.Types, l)
			case strings.HasPrefix(l, "func "):
				fc.Functions = append(fc.Functions, finding.Truncate(l, maxSignatureLen))
			}
		}
	}
	fc.Imports = limit(fc.Imports, maxOutlineImports)
	fc.Types = limit(fc.Types, maxOutlineTypes)
	fc.Functions = limit(fc.Functions, maxOutlineFunctions)
	return fc
}

func limit(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
