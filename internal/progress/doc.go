// Package progress provides the state shared by all walker goroutines:
// a lock-free tally of items and bytes seen, an append-only failure sink
// and the ticker loop that reports the tally while a walk runs.
package progress
