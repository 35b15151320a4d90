package tree

import (
	"path/filepath"
	"slices"
)

// Node is one filesystem entry after aggregation.
//
// Root nodes carry the full normalized path in Name, all other nodes carry a
// single path component. A directory exclusively owns its children.
type Node struct {
	// Name is the path component, or the full path for roots.
	Name string `json:"name"`
	// Size is the aggregated metric of the entry.
	Size Size `json:"size"`
	// Children are the retained entries of a directory.
	Children []*Node `json:"children,omitempty"`
	// Dir reports whether the entry is a directory.
	Dir bool `json:"dir"`
	// Dev is the filesystem identifier of the entry.
	Dev uint64 `json:"-"`
	// Inode is the inode number of the entry.
	Inode uint64 `json:"-"`
	// Links is the hard link count of the entry.
	Links uint64 `json:"-"`
}

// Aggregate recomputes the size of n from its children, adding own on top.
func (n *Node) Aggregate(own Size) {
	total := own
	for _, child := range n.Children {
		total = total.Add(child.Size)
	}

	n.Size = total
}

// Walk calls fn for n and every descendant in depth-first order with the
// cumulative path of each node. Siblings are visited by ascending name.
func (n *Node) Walk(fn func(path string, node *Node)) {
	n.walk(n.Name, fn)
}

func (n *Node) walk(path string, fn func(string, *Node)) {
	fn(path, n)

	for _, child := range n.SortedByName() {
		child.walk(filepath.Join(path, child.Name), fn)
	}
}

// SortedByName returns the children ordered by name without reordering n.
func (n *Node) SortedByName() []*Node {
	sorted := slices.Clone(n.Children)
	slices.SortFunc(sorted, func(a, b *Node) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		default:
			return 0
		}
	})

	return sorted
}

// Total combines the sizes of a forest.
func Total(kind Kind, forest []*Node) Size {
	total := Zero(kind)
	for _, n := range forest {
		total = total.Add(n.Size)
	}

	return total
}
