// Package finding defines the normalized issue record shared by the static
// rules, the AI reviewer and every downstream stage.
//
// Raw static and AI findings are converted with [NormalizeStatic] and
// [NormalizeAI]. Both stamp a run ID and a [Fingerprint] that stays stable
// across runs for the same issue at the same place.
package finding
