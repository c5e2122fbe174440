// Package pprof profiles the pestrie querier process itself: Go CPU/heap/
// goroutine (and optionally block/mutex/allocs) profiles of the binary
// answering queries, orthogonal to the query command's own --profile flag
// (which reports PesTrie index statistics, not Go runtime profiles).
//
// File mode takes periodic snapshots for the lifetime of a single query
// run; HTTP mode exposes the standard net/http/pprof endpoints plus a
// snapshot-to-file variant, for attaching a profiler to a long simulation
// run already in progress.
package pprof
