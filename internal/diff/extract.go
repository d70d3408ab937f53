package diff

import (
	"fmt"
	"sort"
	"strings"
)

// contextWindow is how many context lines are kept on each side of a hunk's changes.
const contextWindow = 3

// ExtractedHunk is a hunk flattened out of its file for analysis.
type ExtractedHunk struct {
	FilePath      string   `json:"filePath"`
	Language      string   `json:"language"`
	Index         int      `json:"hunkIndex"`
	StartLine     int      `json:"startLine"`
	EndLine       int      `json:"endLine"`
	Added         []Line   `json:"addedLines"`
	Removed       []Line   `json:"removedLines"`
	ContextBefore []string `json:"contextBefore"`
	ContextAfter  []string `json:"contextAfter"`
	Raw           string   `json:"raw"`
}

// FileGroup holds the extracted hunks of one file.
type FileGroup struct {
	Path     string
	Language string
	Hunks    []ExtractedHunk
}

// Extract flattens the hunks of every analyzable file. Binary and deleted
// files contribute nothing.
func Extract(files []File) []ExtractedHunk {
	var out []ExtractedHunk
	for _, f := range files {
		if f.IsBinary || f.Status == StatusDeleted {
			continue
		}
		for i, h := range f.Hunks {
			out = append(out, extractHunk(f, i, h))
		}
	}
	return out
}

func extractHunk(f File, index int, h Hunk) ExtractedHunk {
	var before, after []string
	for _, c := range h.Context {
		if c.Number < h.NewStart {
			before = append(before, c.Text)
		} else {
			after = append(after, c.Text)
		}
	}
	if len(before) > contextWindow {
		before = before[len(before)-contextWindow:]
	}
	if len(after) > contextWindow {
		after = after[:contextWindow]
	}
	return ExtractedHunk{
		FilePath:      f.Path,
		Language:      f.Language,
		Index:         index,
		StartLine:     h.NewStart,
		EndLine:       h.NewStart + h.NewLines - 1,
		Added:         h.Additions,
		Removed:       h.Deletions,
		ContextBefore: before,
		ContextAfter:  after,
		Raw:           h.Raw,
	}
}

// FilterForAnalysis drops hunks with fewer than minAdditions added lines,
// orders the rest by descending addition count and keeps the first maxHunks.
// Ties keep their original order. A maxHunks of zero or less disables the limit.
func FilterForAnalysis(hunks []ExtractedHunk, minAdditions, maxHunks int) []ExtractedHunk {
	out := make([]ExtractedHunk, 0, len(hunks))
	for _, h := range hunks {
		if len(h.Added) >= minAdditions {
			out = append(out, h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].Added) > len(out[j].Added)
	})
	if maxHunks > 0 && len(out) > maxHunks {
		out = out[:maxHunks]
	}
	return out
}

// GroupByFile groups hunks by path in first-seen order.
func GroupByFile(hunks []ExtractedHunk) []FileGroup {
	var groups []FileGroup
	index := make(map[string]int)
	for _, h := range hunks {
		i, ok := index[h.FilePath]
		if !ok {
			i = len(groups)
			index[h.FilePath] = i
			groups = append(groups, FileGroup{Path: h.FilePath, Language: h.Language})
		}
		groups[i].Hunks = append(groups[i].Hunks, h)
	}
	return groups
}

// Format renders a hunk for inclusion in a model prompt: a "### path (lines
// a-b)" header, the language, context lines indented by two spaces, removed
// lines as "- text" and added lines as "+ N: text" with their new line numbers.
func (h ExtractedHunk) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "### %s (lines %d-%d)\n", h.FilePath, h.StartLine, h.EndLine)
	if h.Language != "" {
		fmt.Fprintf(&b, "Language: %s\n", h.Language)
	}
	for _, c := range h.ContextBefore {
		fmt.Fprintf(&b, "  %s\n", c)
	}
	for _, r := range h.Removed {
		fmt.Fprintf(&b, "- %s\n", r.Text)
	}
	for _, a := range h.Added {
		fmt.Fprintf(&b, "+ %d: %s\n", a.Number, a.Text)
	}
	for _, c := range h.ContextAfter {
		fmt.Fprintf(&b, "  %s\n", c)
	}
	return b.String()
}
