// Package logging builds the hclog loggers used across sift.
//
// Level comes from configuration first and SIFT_LOG_LEVEL second. Logs go to
// stderr so that report output on stdout stays machine readable.
package logging
