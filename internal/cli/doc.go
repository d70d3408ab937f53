// Package cli implements the sift command tree.
//
// Exit codes: 0 success, 1 findings at or above --fail-on, 2 usage or
// configuration error, 3 runtime error.
package cli
