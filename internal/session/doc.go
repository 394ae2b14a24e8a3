// Package session owns debugging session state and the orchestration of one
// debugging attempt: classify, enrich, synthesize fixes, apply.
//
// A session moves through created → classified → fixes_ready → applied.
// Diagnosis and fixes are write-once; out-of-order calls are contract
// violations surfaced immediately as sentinel errors, never retried.
//
// Sessions live only in memory, keyed by UUID, and are owned exclusively by
// the Store. The store's map is guarded by a single lock so embedding code
// may call from more than one goroutine, but operations are expected to be
// driven one at a time.
package session
