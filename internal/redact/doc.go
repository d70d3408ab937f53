// Package redact scrubs credentials out of diff text before any of it leaves
// the process for a model provider, and supplies the placeholder that the
// hardcoded-secret rule prints instead of the offending line.
//
// A [Redactor] combines the built-in secret heuristics with path globs: files
// matching a glob (".env", "**/secrets/*") are withheld from the model
// entirely.
package redact
