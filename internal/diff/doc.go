// Package diff turns unified diff text into per-file, per-hunk structures.
//
// [Parse] accepts the output of git diff (or a pull request .diff) and returns
// one [File] per changed path with its status, language, line counts and
// hunks. Every added, removed and context line carries the line number it has
// in the image it belongs to. Files matching the built-in exclusion list
// (lockfiles, minified bundles, vendored trees) or any caller pattern are
// dropped before they reach analysis.
//
// [Extract] flattens parsed files into [ExtractedHunk] values with up to three
// lines of surrounding context on each side, and [FilterForAnalysis] keeps the
// largest hunks when a change set is too big to review in full.
package diff
