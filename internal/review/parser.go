package review

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/dshills/sift/internal/finding"
)

var (
	fencedBlock = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")
	objectArray = regexp.MustCompile(`\[\s*\{[\s\S]*\}\s*\]`)
)

// ParseMeta describes how a model response was parsed.
type ParseMeta struct {
	// ParseError is set when no JSON could be extracted at all.
	ParseError bool `json:"parseError"`
	// Raw is the number of candidate findings in the response.
	Raw int `json:"raw"`
	// Dropped counts candidates missing a file path, title or message.
	Dropped int `json:"dropped"`
}

// ParseAIResponse extracts findings from a model response. It tries a fenced
// code block, then the first array of objects, then the whole text, and
// accepts either a bare array or an object with a "findings" array.
func ParseAIResponse(text, model string) ([]finding.AIRawFinding, ParseMeta) {
	var meta ParseMeta
	items, ok := extractJSON(text)
	if !ok {
		meta.ParseError = true
		return nil, meta
	}
	meta.Raw = len(items)

	out := make([]finding.AIRawFinding, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			meta.Dropped++
			continue
		}
		raw, ok := toAIRaw(obj, model)
		if !ok {
			meta.Dropped++
			continue
		}
		out = append(out, raw)
	}
	return out, meta
}

func extractJSON(text string) ([]any, bool) {
	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		if items, ok := decodeFindings(strings.TrimSpace(m[1])); ok {
			return items, true
		}
	}
	if m := objectArray.FindString(text); m != "" {
		if items, ok := decodeFindings(m); ok {
			return items, true
		}
	}
	return decodeFindings(strings.TrimSpace(text))
}

func decodeFindings(s string) ([]any, bool) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	switch t := v.(type) {
	case []any:
		return t, true
	case map[string]any:
		if list, ok := t["findings"].([]any); ok {
			return list, true
		}
	}
	return nil, false
}

func toAIRaw(obj map[string]any, model string) (finding.AIRawFinding, bool) {
	raw := finding.AIRawFinding{
		FilePath:   firstString(obj, "file_path", "path", "file"),
		LineStart:  firstInt(obj, "line_start", "line", "start_line"),
		LineEnd:    firstInt(obj, "line_end", "end_line"),
		Category:   firstString(obj, "category"),
		Severity:   firstString(obj, "severity"),
		Confidence: confidenceValue(obj["confidence"]),
		Title:      firstString(obj, "title"),
		Message:    firstString(obj, "message", "description"),
		Suggestion: firstString(obj, "suggestion", "fix", "recommendation"),
		Reasoning:  firstString(obj, "reasoning", "ai_reasoning"),
		Model:      model,
	}
	if raw.FilePath == "" || raw.Title == "" || raw.Message == "" {
		return raw, false
	}
	if raw.LineEnd == nil && raw.LineStart != nil {
		end := *raw.LineStart
		raw.LineEnd = &end
	}
	return raw, true
}

func firstString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

func firstInt(obj map[string]any, keys ...string) *int {
	for _, k := range keys {
		switch v := obj[k].(type) {
		case float64:
			n := int(v)
			if n > 0 {
				return &n
			}
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
				return &n
			}
		}
	}
	return nil
}

// confidenceValue accepts a label or a 0-1 score.
func confidenceValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return confidenceFromScore(t)
	}
	return ""
}

func confidenceFromScore(v float64) string {
	switch {
	case v >= 0.8:
		return string(finding.ConfidenceHigh)
	case v >= 0.5:
		return string(finding.ConfidenceMedium)
	default:
		return string(finding.ConfidenceLow)
	}
}
