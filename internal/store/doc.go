// Package store persists review runs and their findings in SQLite.
//
// The database is a single file opened through the pure-Go modernc driver.
// Each run is stored whole as JSON alongside a normalized findings table that
// answers the one query the pipeline needs: which fingerprints were already
// reported for a repository and pull request.
package store
