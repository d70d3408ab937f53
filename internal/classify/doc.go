// Package classify decides which findings of a run are surfaced.
//
// [FilterAndClassify] normalizes static and AI findings, drops duplicate
// fingerprints, applies the severity floor and low-value suppression, sorts
// deterministically and caps the number of active findings. [FilterNoise]
// and [DedupeAcrossRuns] are optional later passes. Suppressed findings are
// kept with a reason rather than removed.
package classify
