// Package dutree builds aggregated disk usage trees and reduces them to the
// largest entries.
//
// BuildDirectoryTree walks one or more paths concurrently and returns a Node
// per root whose sizes include everything below it. LargestNodes projects
// that forest onto the n largest entries of each level.
package dutree

import (
	"github.com/idelchi/dutree/internal/filter"
	"github.com/idelchi/dutree/internal/paths"
	"github.com/idelchi/dutree/internal/tree"
	"github.com/idelchi/dutree/internal/walker"
)

type (
	// Node is an aggregated entry of a walked tree.
	Node = tree.Node
	// DisplayNode is a bounded, sorted projection of a Node.
	DisplayNode = tree.DisplayNode
)

// BuildDirectoryTree walks dirs and returns one Node per distinct root,
// measuring allocated disk size. Overlapping paths are reduced to their
// common ancestors first. Unreadable entries are skipped.
func BuildDirectoryTree(dirs []string, ignoreHidden bool) ([]*Node, error) {
	roots, err := paths.Simplify(dirs)
	if err != nil {
		return nil, err
	}

	return walker.Walk(roots, walker.Config{IgnoreHidden: ignoreHidden})
}

// LargestNodes returns the n largest entries of every level of nodes, at any
// depth, with full paths. Several roots are wrapped under a "(total)" node.
func LargestNodes(nodes []*Node, n int) (*DisplayNode, error) {
	return filter.GetBiggest(nodes, filter.AggregateData{
		NumberOfLines: n,
		Depth:         -1,
	}, filter.Options{})
}
