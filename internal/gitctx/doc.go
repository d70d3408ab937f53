// Package gitctx reads diffs and metadata from a local git repository.
//
// Commit and range diffs, file contents at a revision, HEAD and remote
// metadata come from go-git. Staged and unstaged diffs shell out to the git
// binary because they depend on the index and working tree state.
package gitctx
