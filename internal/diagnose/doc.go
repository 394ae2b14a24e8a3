// Package diagnose classifies raw command failure output into typed diagnoses.
//
// Classification is a pure function over the captured output of a failed
// command: an ordered table of category patterns is scanned and the first
// match wins. The category order is a correctness invariant (ambiguous text
// resolves to the earliest matching category), so the table is an ordered
// slice, never a map.
//
// The package performs no I/O and holds no state; enrichment of a Diagnosis
// with model-generated text is the session orchestrator's job.
package diagnose
