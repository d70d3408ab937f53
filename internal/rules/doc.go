// Package rules is the static pattern engine that scans added diff lines.
//
// Each [Rule] carries fixed metadata (id, category, default severity and
// confidence, applicable languages) and a Check method that looks at one
// added line, with its file and hunk available for multi-line heuristics.
// Rules compile their patterns once and hold no state between calls.
//
// The built-in catalogue covers security (SEC001-SEC006), bugs (BUG001-BUG002),
// performance (PERF001-PERF004) and maintainability (QUAL001-QUAL003).
// New rules are added with [Registry.Register]; the [Engine] never changes.
package rules
