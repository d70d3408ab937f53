// Package cache stores raw model responses on disk so an unchanged prompt is
// not sent twice.
//
// Entries are JSON files named by the SHA-256 of the provider, model and
// prompt text. Prompts are redacted before they reach the cache, so nothing
// stored here contains a detected secret. Expired entries are dropped on read
// and counted by [Cache.Stats].
package cache
