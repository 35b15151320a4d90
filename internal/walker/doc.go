// Package walker builds the aggregated Node tree for a set of roots.
//
// Each directory expansion is an independent unit of work on a bounded
// goroutine pool. A unit lists its directory, measures the entries, submits
// its subdirectories as new units and merges their subtrees once they have
// finished. When the pool is saturated a unit runs inline on the goroutine
// that submitted it, so a parent waiting on its children never starves the
// pool. Per-entry failures are recorded on the shared progress.Tracker and
// never abort the walk.
package walker
