package finding

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// RawFinding is a static rule hit before normalization.
type RawFinding struct {
	RuleID      string
	RuleName    string
	FilePath    string
	LineStart   int
	LineEnd     int
	Category    Category
	Severity    Severity
	Confidence  Confidence
	Title       string
	Message     string
	Suggestion  string
	CodeSnippet string
}

// AIRawFinding is a validated model finding before normalization.
// Enumerated fields hold whatever the model said; they are folded later.
type AIRawFinding struct {
	FilePath   string
	LineStart  *int
	LineEnd    *int
	Category   string
	Severity   string
	Confidence string
	Title      string
	Message    string
	Suggestion string
	Reasoning  string
	Model      string
}

// titleKeyLen bounds how much of a title contributes to a fingerprint.
const titleKeyLen = 50

// Fingerprint derives a stable identity for an issue from its location,
// source, rule and title prefix.
func Fingerprint(filePath string, lineStart *int, source Source, ruleID, title string) string {
	line := 0
	if lineStart != nil {
		line = *lineStart
	}
	key := fmt.Sprintf("%s|%d|%s|%s|%s", filePath, line, source, ruleID, truncateRunes(title, titleKeyLen))
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:32]
}

// NormalizeStatic converts a static rule hit into a Finding.
func NormalizeStatic(raw RawFinding, runID string) *Finding {
	start, end := raw.LineStart, raw.LineEnd
	f := &Finding{
		RunID:       runID,
		FilePath:    raw.FilePath,
		LineStart:   &start,
		LineEnd:     &end,
		Source:      SourceStatic,
		Category:    raw.Category,
		Severity:    raw.Severity,
		Confidence:  raw.Confidence,
		Title:       raw.Title,
		Message:     raw.Message,
		Suggestion:  raw.Suggestion,
		CodeSnippet: raw.CodeSnippet,
		RuleID:      raw.RuleID,
	}
	f.Fingerprint = Fingerprint(f.FilePath, f.LineStart, f.Source, f.RuleID, f.Title)
	return f
}

// NormalizeAI converts a model finding into a Finding, folding its
// enumerated fields.
func NormalizeAI(raw AIRawFinding, runID string) *Finding {
	f := &Finding{
		RunID:       runID,
		FilePath:    raw.FilePath,
		LineStart:   copyInt(raw.LineStart),
		LineEnd:     copyInt(raw.LineEnd),
		Source:      SourceAI,
		Category:    ParseCategory(raw.Category),
		Severity:    ParseSeverity(raw.Severity),
		Confidence:  ParseConfidence(raw.Confidence),
		Title:       raw.Title,
		Message:     raw.Message,
		Suggestion:  raw.Suggestion,
		AIReasoning: raw.Reasoning,
		AIModel:     raw.Model,
	}
	f.Fingerprint = Fingerprint(f.FilePath, f.LineStart, f.Source, "", f.Title)
	return f
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	return truncateRunes(s, n)
}

// Snippet trims a source line and caps it at n runes. n <= 0 means no cap.
func Snippet(line string, n int) string {
	s := strings.TrimSpace(line)
	if n <= 0 {
		return s
	}
	return truncateRunes(s, n)
}
