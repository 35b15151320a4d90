package walker

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/idelchi/dutree/internal/platform"
	"github.com/idelchi/dutree/internal/progress"
	"github.com/idelchi/dutree/internal/tree"
)

// identity is the (device, inode) pair of a filesystem object.
type identity struct {
	dev, ino uint64
}

func identityOf(info platform.Info) identity {
	return identity{dev: info.Dev, ino: info.Inode}
}

// ancestry is the immutable chain of directories from a root down to the
// directory being expanded. Each unit extends it without touching its parent's view.
type ancestry struct {
	id     identity
	parent *ancestry
}

func (a *ancestry) push(info platform.Info) *ancestry {
	return &ancestry{id: identityOf(info), parent: a}
}

// contains reports whether info's identity is already on the chain.
// Entries without an inode number (platforms without one) never match.
func (a *ancestry) contains(info platform.Info) bool {
	if info.Inode == 0 {
		return false
	}

	id := identityOf(info)

	for cur := a; cur != nil; cur = cur.parent {
		if cur.id == id {
			return true
		}
	}

	return false
}

func nodeIdentity(n *tree.Node) identity {
	return identity{dev: n.Dev, ino: n.Inode}
}

func cycleError() error {
	return fmt.Errorf("%w: leads back into a directory being walked", progress.ErrSymlinkCycle)
}

func duplicateError(first string) error {
	return fmt.Errorf("%w through %s", progress.ErrDuplicateTarget, first)
}

// dropRevisits removes directories that followed symlinks reached more than
// once. Roots are visited in order and siblings by name, so the first
// occurrence in that order is kept whatever order the units finished in.
// Every removed directory is recorded once as a Duplicate failure.
func (w *walker) dropRevisits(forest []*tree.Node) {
	seen := make(map[identity]string)

	for _, root := range forest {
		if root.Dir {
			w.dropRevisitsBelow(root, root.Name, seen)
		}
	}
}

func (w *walker) dropRevisitsBelow(n *tree.Node, path string, seen map[identity]string) {
	if n.Inode != 0 {
		if _, ok := seen[nodeIdentity(n)]; !ok {
			seen[nodeIdentity(n)] = path
		}
	}

	own := ownShare(n)
	dropped := make(map[*tree.Node]struct{})

	for _, child := range n.SortedByName() {
		if !child.Dir {
			continue
		}

		childPath := filepath.Join(path, child.Name)

		if first, ok := seen[nodeIdentity(child)]; ok && child.Inode != 0 {
			dropped[child] = struct{}{}
			w.fail(progress.Classify(childPath, duplicateError(first), progress.Duplicate))

			continue
		}

		w.dropRevisitsBelow(child, childPath, seen)
	}

	if len(dropped) > 0 {
		n.Children = slices.DeleteFunc(n.Children, func(c *tree.Node) bool {
			_, ok := dropped[c]

			return ok
		})
	}

	n.Aggregate(own)
}

// ownShare is the part of a directory's size not coming from its children.
func ownShare(n *tree.Node) tree.Size {
	if n.Size.Kind == tree.Time {
		return tree.Zero(tree.Time)
	}

	var children uint64
	for _, child := range n.Children {
		children += child.Size.Value
	}

	return tree.Of(n.Size.Kind, n.Size.Value-children)
}

// dedupeHardLinks counts every multiply linked file once across the forest.
// Roots are visited in order and siblings by name, so the surviving copy does
// not depend on scheduling. Later copies are zeroed and the directories above
// them shrink accordingly.
func dedupeHardLinks(forest []*tree.Node) {
	seen := make(map[identity]struct{})

	for _, root := range forest {
		dedupe(root, seen)
	}
}

// dedupe returns the amount removed below n.
func dedupe(n *tree.Node, seen map[identity]struct{}) uint64 {
	if !n.Dir {
		if n.Links < 2 || n.Inode == 0 {
			return 0
		}

		id := nodeIdentity(n)
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}

			return 0
		}

		removed := n.Size.Value
		n.Size = tree.Zero(n.Size.Kind)

		return removed
	}

	var removed uint64

	for _, child := range n.SortedByName() {
		removed += dedupe(child, seen)
	}

	n.Size.Value -= removed

	return removed
}
