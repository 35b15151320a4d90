package tree

// DisplayNode is a bounded, sorted projection of a Node for presentation.
// It never aliases the Node it was built from.
type DisplayNode struct {
	// Name is the cumulative path or the basename of the entry.
	Name string `json:"name"`
	// Size is copied from the originating Node and unaffected by pruning.
	Size Size `json:"size"`
	// Dir reports whether the entry is a directory.
	Dir bool `json:"dir"`
	// Children holds the selected children, largest first.
	Children []*DisplayNode `json:"children,omitempty"`
}

// Less orders display nodes by descending size, ties broken by ascending name.
func Less(a, b *DisplayNode) bool {
	if a.Size.Value != b.Size.Value {
		return a.Size.Value > b.Size.Value
	}

	return a.Name < b.Name
}

// Flatten returns n and all its descendants with their depth, parents first.
func (n *DisplayNode) Flatten() []Line {
	var lines []Line

	var visit func(*DisplayNode, int)

	visit = func(node *DisplayNode, depth int) {
		lines = append(lines, Line{Node: node, Depth: depth})

		for _, child := range node.Children {
			visit(child, depth+1)
		}
	}

	visit(n, 0)

	return lines
}

// Line is a display node together with its depth below the result root.
type Line struct {
	Node  *DisplayNode
	Depth int
}
