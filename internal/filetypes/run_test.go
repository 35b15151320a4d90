package filetypes

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idelchi/dutree/internal/progress"
	"github.com/idelchi/dutree/internal/tree"
)

func writeFiles(t *testing.T, root string, files map[string]int) {
	t.Helper()

	for rel, size := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, make([]byte, size), 0o600))
	}
}

func TestRun_GroupsByExtension(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]int{
		"a.go":         100,
		"pkg/b.GO":     50,
		"README.md":    30,
		"Makefile":     5,
		"docs/x.md":    30,
		".hidden/c.go": 1000,
	})

	tracker := progress.New()

	stats, err := Run(Options{Roots: []string{root}, Kind: tree.Apparent, IgnoreHidden: true, Tracker: tracker})
	require.NoError(t, err)

	assert.Equal(t, int64(5), stats.Files)
	assert.Equal(t, tree.Of(tree.Apparent, 215), stats.Total)
	require.Len(t, stats.Extensions, 3)

	assert.Equal(t, ExtStat{Extension: ".go", Count: 2, Size: tree.Of(tree.Apparent, 150)}, stats.Extensions[0])
	assert.Equal(t, ExtStat{Extension: ".md", Count: 2, Size: tree.Of(tree.Apparent, 60)}, stats.Extensions[1])
	assert.Equal(t, NoExtension, stats.Extensions[2].Extension)

	assert.Equal(t, int64(5), tracker.Snapshot().Items)
	assert.Zero(t, stats.Errors)
}

func TestRun_TopNAndCount(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]int{"a.x": 1, "b.x": 1, "c.y": 1, "d.z": 1})

	stats, err := Run(Options{Roots: []string{root}, Kind: tree.Count, TopN: 1})
	require.NoError(t, err)

	require.Len(t, stats.Extensions, 1)
	assert.Equal(t, ".x", stats.Extensions[0].Extension)
	assert.Equal(t, tree.Of(tree.Count, 4), stats.Total)
}

func TestRun_RegexAndIgnore(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]int{
		"keep/a.go":      10,
		"keep/a_test.go": 20,
		"vendor/v.go":    40,
	})

	stats, err := Run(Options{
		Roots:             []string{root},
		Kind:              tree.Apparent,
		IgnoreDirectories: map[string]struct{}{filepath.Join(root, "vendor"): {}},
		InvertFilterRegex: []*regexp.Regexp{regexp.MustCompile(`_test\.go$`)},
	})
	require.NoError(t, err)

	assert.Equal(t, tree.Of(tree.Apparent, 10), stats.Total)
}

func TestRun_NoRoots(t *testing.T) {
	_, err := Run(Options{})
	assert.ErrorIs(t, err, ErrNoRoots)
}

func TestStats_Display(t *testing.T) {
	stats := &Stats{
		Total: tree.Of(tree.Disk, 30),
		Extensions: []ExtStat{
			{Extension: ".go", Size: tree.Of(tree.Disk, 20)},
			{Extension: ".md", Size: tree.Of(tree.Disk, 10)},
		},
	}

	display := stats.Display()

	assert.Equal(t, uint64(30), display.Size.Value)
	require.Len(t, display.Children, 2)
	assert.Equal(t, ".go", display.Children[0].Name)
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".go", extension("/x/main.go"))
	assert.Equal(t, ".gz", extension("/x/a.tar.GZ"))
	assert.Equal(t, NoExtension, extension("/x/Makefile"))
	assert.Equal(t, NoExtension, extension("/x/.bashrc"))
}
