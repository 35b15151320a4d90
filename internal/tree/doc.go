// Package tree holds the data model shared by the walker and the filter:
// the tagged Size metric, the aggregated Node tree and its DisplayNode projection.
package tree
