// Package review orchestrates a sift run.
//
// [Run] parses a unified diff, runs the static rule engine, optionally asks a
// model provider for a review, then classifies, noise-filters and dedupes the
// combined findings against earlier runs before persisting and publishing
// them. Collaborators (rule engine, AI reviewer, store, publisher, file
// fetcher) are passed in [Deps]; any of them may be nil.
//
// The AI side packs per-file hunk groups into chunks and reviews them in
// parallel with bounded concurrency. Replies are parsed leniently by
// [ParseAIResponse]: JSON is pulled out of code fences or surrounding prose,
// field aliases are folded, and incomplete findings are dropped. A reply with
// no usable JSON gets one repair request before it is counted as a parse
// error.
package review
