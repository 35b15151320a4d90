// Package filter reduces an aggregated Node forest to a bounded DisplayNode
// tree: the largest entries per level, down to a maximum depth, optionally
// restricted by entry type, size threshold or name pattern.
//
// Filtering only decides what is shown. Sizes are copied from the walked
// tree and never recomputed, so a directory whose children are hidden still
// displays its full aggregate.
package filter

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"slices"

	"github.com/idelchi/dutree/internal/tree"
)

// TotalName is the name of the synthetic node wrapping several roots.
const TotalName = "(total)"

// ErrInvalidLines is returned for a negative NumberOfLines.
var ErrInvalidLines = errors.New("number of lines cannot be negative")

// AggregateData configures the projection.
type AggregateData struct {
	// MinSize hides entries below this value unless they lead to a match (0 = off).
	MinSize uint64
	// OnlyDir shows directories only. It wins over OnlyFile.
	OnlyDir bool
	// OnlyFile makes files the only matches; directories remain as ancestors.
	OnlyFile bool
	// NumberOfLines caps the children shown per level.
	NumberOfLines int
	// Depth is the maximum depth expanded below each root (negative = unlimited).
	Depth int
	// UsingAFilter hides zero-sized entries; set when the walk filtered files.
	UsingAFilter bool
	// ShortPaths names entries by basename instead of cumulative path.
	ShortPaths bool
}

// Validate rejects configurations that cannot be projected.
func (a AggregateData) Validate() error {
	if a.NumberOfLines < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLines, a.NumberOfLines)
	}

	return nil
}

// Options holds the display-time selections that are not part of AggregateData.
type Options struct {
	// NamePattern keeps entries whose full path matches, plus their ancestors.
	NamePattern *regexp.Regexp
	// Collapse holds cumulative paths that are shown but never expanded.
	Collapse map[string]struct{}
}

// GetBiggest projects forest into a DisplayNode tree. Several roots are
// wrapped under a synthetic TotalName node, a single root becomes the result
// root. It returns nil when the forest is empty or nothing survives filtering;
// the error only reports an invalid configuration.
func GetBiggest(forest []*tree.Node, agg AggregateData, opts Options) (*tree.DisplayNode, error) {
	if err := agg.Validate(); err != nil {
		return nil, err
	}

	if agg.OnlyDir {
		agg.OnlyFile = false
	}

	if len(forest) == 0 {
		return nil, nil //nolint:nilnil // An empty forest is a normal outcome
	}

	p := projector{agg: agg, opts: opts}

	if len(forest) == 1 {
		return p.project(forest[0], forest[0].Name, 0), nil
	}

	var roots []*tree.DisplayNode

	for _, root := range sortBySize(forest) {
		if len(roots) >= agg.NumberOfLines {
			break
		}

		if d := p.project(root, root.Name, 0); d != nil {
			roots = append(roots, d)
		}
	}

	if len(roots) == 0 {
		return nil, nil //nolint:nilnil // Everything was filtered out
	}

	return &tree.DisplayNode{
		Name:     TotalName,
		Size:     tree.Total(forest[0].Size.Kind, forest),
		Dir:      true,
		Children: roots,
	}, nil
}

type projector struct {
	agg  AggregateData
	opts Options
}

// project returns the display node for n at the given depth below its root,
// or nil when neither n nor any of its shown descendants match.
func (p projector) project(n *tree.Node, path string, depth int) *tree.DisplayNode {
	if p.agg.OnlyDir && !n.Dir {
		return nil
	}

	var children []*tree.DisplayNode

	expand := p.expandable(path, depth)

	if expand {
		for _, child := range sortBySize(n.Children) {
			if len(children) >= p.agg.NumberOfLines {
				break
			}

			if d := p.project(child, filepath.Join(path, child.Name), depth+1); d != nil {
				children = append(children, d)
			}
		}
	}

	// A node that is not expanded still stands for the matches below it.
	if len(children) == 0 && !p.matches(n, path) && (expand || !p.leadsToMatch(n, path)) {
		return nil
	}

	name := path
	if p.agg.ShortPaths && depth > 0 {
		name = n.Name
	}

	return &tree.DisplayNode{
		Name:     name,
		Size:     n.Size,
		Dir:      n.Dir,
		Children: children,
	}
}

func (p projector) expandable(path string, depth int) bool {
	if p.agg.Depth >= 0 && depth >= p.agg.Depth {
		return false
	}

	_, collapsed := p.opts.Collapse[path]

	return !collapsed
}

// leadsToMatch reports whether any descendant of n qualifies. It only
// searches and builds no display nodes.
func (p projector) leadsToMatch(n *tree.Node, path string) bool {
	for _, child := range n.Children {
		if p.agg.OnlyDir && !child.Dir {
			continue
		}

		childPath := filepath.Join(path, child.Name)
		if p.matches(child, childPath) || p.leadsToMatch(child, childPath) {
			return true
		}
	}

	return false
}

// matches reports whether n qualifies on its own. Size threshold and name
// pattern are alternatives: when both are set, either one is enough.
func (p projector) matches(n *tree.Node, path string) bool {
	if p.agg.OnlyFile && n.Dir {
		return false
	}

	if p.agg.UsingAFilter && n.Size.IsZero() {
		return false
	}

	bySize := p.agg.MinSize > 0
	byName := p.opts.NamePattern != nil

	if !bySize && !byName {
		return true
	}

	return (bySize && n.Size.Value >= p.agg.MinSize) ||
		(byName && p.opts.NamePattern.MatchString(filepath.ToSlash(path)))
}

// sortBySize orders nodes by descending size, ties broken by name.
func sortBySize(nodes []*tree.Node) []*tree.Node {
	out := slices.Clone(nodes)
	slices.SortStableFunc(out, func(a, b *tree.Node) int {
		switch {
		case a.Size.Value > b.Size.Value:
			return -1
		case a.Size.Value < b.Size.Value:
			return 1
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		default:
			return 0
		}
	})

	return out
}
