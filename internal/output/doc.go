// Package output renders review results.
//
// Formats:
//   - text: terminal output, styled with lipgloss when stdout is a terminal
//   - json: the full [review.Result]
//   - markdown: a report with a severity table and per-file sections
//   - sarif: SARIF 2.1.0 for code-scanning upload
//
// [SummaryComment] and [InlineComment] produce the bodies posted on pull
// requests. They are pure functions of the findings.
package output
