// Sift reviews code changes with pattern rules and, optionally, a language
// model, then ranks, deduplicates and suppresses the findings so that only
// a handful of useful comments reach the reader.
//
// It reviews staged, unstaged, commit, range and raw unified diffs locally,
// and GitHub pull requests end to end, with deterministic exit codes suitable
// for CI gating and git hooks.
//
// Usage:
//
//	sift review staged                     # review staged changes
//	sift review unstaged                   # review working tree changes
//	sift review commit <rev>               # review a single commit
//	sift review range origin/main..HEAD    # review a revision range
//	sift review diff change.patch          # review a diff file (or - for stdin)
//	sift pr 42 --repo owner/name           # review and comment on a pull request
//	sift mcp                               # serve the static tools over MCP
//
// Exit codes: 0 success, 1 findings at or above --fail-on, 2 usage or config
// error, 3 runtime error.
package main
