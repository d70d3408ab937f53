// Package github talks to the GitHub REST API on behalf of sift: it fetches
// pull request diffs and metadata, reads files at a ref for prompt context,
// and posts review results as a single pull request review with a summary
// body and inline comments.
package github
