package filetypes

import (
	"cmp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/idelchi/dutree/internal/tree"
)

// NoExtension labels files without an extension.
const NoExtension = "(none)"

// ExtStat represents statistics for a file extension.
type ExtStat struct {
	// Extension is the lower-cased suffix including the dot.
	Extension string `json:"extension"`
	// Count is the number of files with this extension.
	Count int64 `json:"count"`
	// Size is the combined metric of those files.
	Size tree.Size `json:"size"`
}

// Stats holds the per-extension summary of a walk.
type Stats struct {
	// Files is the number of files analyzed.
	Files int64 `json:"files"`
	// Total is the combined metric of all analyzed files.
	Total tree.Size `json:"total"`
	// Extensions holds the largest extensions, largest first.
	Extensions []ExtStat `json:"extensions"`
	// Errors is the number of entries that could not be read.
	Errors int64 `json:"errors"`
	// Elapsed is the total time taken for analysis.
	Elapsed time.Duration `json:"elapsed"`
}

// Display converts the summary into a one-level display tree.
func (s *Stats) Display() *tree.DisplayNode {
	root := &tree.DisplayNode{Name: "(file types)", Size: s.Total, Dir: true}

	for _, ext := range s.Extensions {
		root.Children = append(root.Children, &tree.DisplayNode{Name: ext.Extension, Size: ext.Size})
	}

	return root
}

// collector aggregates statistics from concurrent fastwalk callbacks using a mutex.
type collector struct {
	mu     sync.Mutex // Protect concurrent access
	kind   tree.Kind
	topN   int
	exts   map[string]ExtStat
	files  int64
	total  tree.Size
	errors int64
}

func newCollector(kind tree.Kind, topN int) *collector {
	return &collector{
		kind:  kind,
		topN:  topN,
		exts:  make(map[string]ExtStat),
		total: tree.Zero(kind),
	}
}

// addError increments the error counter.
func (c *collector) addError() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.errors++
}

// add records one file under ext.
func (c *collector) add(ext string, size tree.Size) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.files++
	c.total = c.total.Add(size)

	stat, ok := c.exts[ext]
	if !ok {
		stat = ExtStat{Extension: ext, Size: tree.Zero(c.kind)}
	}

	stat.Count++
	stat.Size = stat.Size.Add(size)
	c.exts[ext] = stat
}

// finalize sorts extensions by size, largest first, ties by name, and trims to top N.
func (c *collector) finalize() *Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	exts := make([]ExtStat, 0, len(c.exts))
	for _, stat := range c.exts {
		exts = append(exts, stat)
	}

	slices.SortFunc(exts, func(a, b ExtStat) int {
		if a.Size.Value != b.Size.Value {
			return cmp.Compare(b.Size.Value, a.Size.Value)
		}

		return strings.Compare(a.Extension, b.Extension)
	})

	if len(exts) > c.topN {
		exts = exts[:c.topN]
	}

	return &Stats{
		Files:      c.files,
		Total:      c.total,
		Extensions: exts,
		Errors:     c.errors,
	}
}
