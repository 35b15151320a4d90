package filter

import (
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idelchi/dutree/internal/tree"
)

const kb = 1024

func file(name string, size uint64) *tree.Node {
	return &tree.Node{Name: name, Size: tree.Of(tree.Apparent, size)}
}

func dir(name string, children ...*tree.Node) *tree.Node {
	n := &tree.Node{Name: name, Dir: true, Children: children}
	n.Aggregate(tree.Zero(tree.Apparent))

	return n
}

func names(nodes []*tree.DisplayNode) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Name)
	}

	return out
}

func values(nodes []*tree.DisplayNode) []uint64 {
	out := make([]uint64, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Size.Value)
	}

	return out
}

func unlimited() AggregateData {
	return AggregateData{NumberOfLines: 100, Depth: -1, ShortPaths: true}
}

func TestGetBiggest_EmptyForest(t *testing.T) {
	got, err := GetBiggest(nil, unlimited(), Options{})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetBiggest_TopKWithNameTieBreak(t *testing.T) {
	root := dir("/r", file("d", 1), file("b", 5), file("a", 10), file("c", 5))

	agg := unlimited()
	agg.NumberOfLines = 2

	got, err := GetBiggest([]*tree.Node{root}, agg, Options{})
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, []uint64{10, 5}, values(got.Children))
	assert.Equal(t, []string{"a", "b"}, names(got.Children))
	assert.Equal(t, uint64(21), got.Size.Value, "capping never alters totals")
}

func TestGetBiggest_DepthZero(t *testing.T) {
	root := dir("/r", dir("x", file("f", 7)), file("g", 3))

	agg := unlimited()
	agg.Depth = 0

	got, err := GetBiggest([]*tree.Node{root}, agg, Options{})
	require.NoError(t, err)

	assert.Empty(t, got.Children)
	assert.Equal(t, uint64(10), got.Size.Value)
	assert.Equal(t, "/r", got.Name)
}

func TestGetBiggest_DepthKeepsFullAggregate(t *testing.T) {
	root := dir("/r", dir("x", dir("y", file("f", 7)), file("g", 2)))

	agg := unlimited()
	agg.Depth = 1

	got, err := GetBiggest([]*tree.Node{root}, agg, Options{})
	require.NoError(t, err)

	require.Len(t, got.Children, 1)
	x := got.Children[0]
	assert.Empty(t, x.Children)
	assert.Equal(t, uint64(9), x.Size.Value)
}

func TestGetBiggest_MinSizePreservesAncestors(t *testing.T) {
	big := file("big", 1024*kb)
	d5 := dir("d5", big, file("s5", 100*kb))
	d4 := dir("d4", d5, file("s4", 100*kb))
	d3 := dir("d3", d4, file("s3", 100*kb))
	d2 := dir("d2", d3, file("s2", 100*kb))
	d1 := dir("d1", d2, file("s1", 100*kb))
	root := dir("/r", d1)

	agg := unlimited()
	agg.MinSize = 500 * kb

	got, err := GetBiggest([]*tree.Node{root}, agg, Options{})
	require.NoError(t, err)
	require.NotNil(t, got)

	node := got
	for _, want := range []*tree.Node{d1, d2, d3, d4, d5} {
		require.Len(t, node.Children, 1, "below %s", node.Name)
		node = node.Children[0]
		assert.Equal(t, want.Name, node.Name)
		assert.Equal(t, want.Size, node.Size, "full aggregate of %s", want.Name)
	}

	require.Len(t, node.Children, 1)
	assert.Equal(t, "big", node.Children[0].Name)
}

func TestGetBiggest_MinSizeAncestorBelowThreshold(t *testing.T) {
	// Sizes are set by hand so a match sits below ancestors that miss the threshold.
	match := &tree.Node{Name: "hit", Size: tree.Of(tree.Apparent, 600)}
	parent := &tree.Node{Name: "p", Dir: true, Size: tree.Of(tree.Apparent, 100), Children: []*tree.Node{match}}
	root := &tree.Node{Name: "/r", Dir: true, Size: tree.Of(tree.Apparent, 100), Children: []*tree.Node{parent, file("small", 50)}}

	agg := unlimited()
	agg.MinSize = 500

	got, err := GetBiggest([]*tree.Node{root}, agg, Options{})
	require.NoError(t, err)

	require.Equal(t, []string{"p"}, names(got.Children))
	assert.Equal(t, uint64(100), got.Children[0].Size.Value, "force-kept ancestor shows its own aggregate")
	assert.Equal(t, []string{"hit"}, names(got.Children[0].Children))
}

func TestGetBiggest_NamePatternPreservesAncestors(t *testing.T) {
	root := dir("/r",
		dir("src", dir("pkg", file("main.go", 10), file("big.bin", 900))),
		dir("assets", file("logo.png", 500)),
	)

	opts := Options{NamePattern: regexp.MustCompile(`\.go$`)}

	got, err := GetBiggest([]*tree.Node{root}, unlimited(), opts)
	require.NoError(t, err)

	require.Equal(t, []string{"src"}, names(got.Children))
	pkg := got.Children[0].Children[0]
	assert.Equal(t, "pkg", pkg.Name)
	assert.Equal(t, uint64(910), pkg.Size.Value)
	assert.Equal(t, []string{"main.go"}, names(pkg.Children))
}

func TestGetBiggest_MinSizeAndNamePatternUnion(t *testing.T) {
	root := dir("/r",
		dir("a", file("tiny.go", 1), file("noise", 2)),
		dir("b", file("huge.bin", 1000), file("mid.bin", 20)),
	)

	agg := unlimited()
	agg.MinSize = 500
	opts := Options{NamePattern: regexp.MustCompile(`\.go$`)}

	got, err := GetBiggest([]*tree.Node{root}, agg, opts)
	require.NoError(t, err)

	require.Equal(t, []string{"b", "a"}, names(got.Children))
	assert.Equal(t, []string{"huge.bin"}, names(got.Children[0].Children), "size match without name match")
	assert.Equal(t, []string{"tiny.go"}, names(got.Children[1].Children), "name match without size match")
}

func TestGetBiggest_FullyFilteredOut(t *testing.T) {
	root := dir("/r", file("a", 1), file("b", 2))

	agg := unlimited()
	agg.MinSize = 100

	got, err := GetBiggest([]*tree.Node{root}, agg, Options{})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetBiggest_OnlyDir(t *testing.T) {
	root := dir("/r", file("f", 100), dir("d", file("g", 5)), dir("e"))

	agg := unlimited()
	agg.OnlyDir = true
	agg.OnlyFile = true

	got, err := GetBiggest([]*tree.Node{root}, agg, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"d", "e"}, names(got.Children))
	assert.Empty(t, got.Children[0].Children)
	assert.Equal(t, uint64(105), got.Size.Value)
}

func TestGetBiggest_OnlyFile(t *testing.T) {
	root := dir("/r", file("f", 100), dir("d", file("g", 5)), dir("empty"))

	agg := unlimited()
	agg.OnlyFile = true

	got, err := GetBiggest([]*tree.Node{root}, agg, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"f", "d"}, names(got.Children))
	assert.Equal(t, []string{"g"}, names(got.Children[1].Children))
}

// logTree holds a match two levels below the root and a shallow non-match.
func logTree() *tree.Node {
	return dir("/r", dir("a", dir("b", file("x.log", 100))), file("y.txt", 5))
}

func TestGetBiggest_NamePatternBeyondDepthKeepsAncestor(t *testing.T) {
	agg := unlimited()
	agg.Depth = 1

	got, err := GetBiggest([]*tree.Node{logTree()}, agg, Options{NamePattern: regexp.MustCompile(`\.log$`)})
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, []string{"a"}, names(got.Children))
	assert.Empty(t, got.Children[0].Children, "the depth bound still limits expansion")
	assert.Equal(t, uint64(100), got.Children[0].Size.Value)
}

func TestGetBiggest_OnlyFileBeyondDepthKeepsAncestor(t *testing.T) {
	agg := unlimited()
	agg.Depth = 1
	agg.OnlyFile = true

	got, err := GetBiggest([]*tree.Node{logTree()}, agg, Options{})
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, []string{"a", "y.txt"}, names(got.Children))
	assert.Equal(t, []uint64{100, 5}, values(got.Children))
}

func TestGetBiggest_BeyondDepthWithoutMatchIsDropped(t *testing.T) {
	agg := unlimited()
	agg.Depth = 1

	got, err := GetBiggest([]*tree.Node{logTree()}, agg, Options{NamePattern: regexp.MustCompile(`\.txt$`)})
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, []string{"y.txt"}, names(got.Children))
}

func TestGetBiggest_CollapsedAncestorOfMatch(t *testing.T) {
	opts := Options{
		NamePattern: regexp.MustCompile(`\.log$`),
		Collapse:    map[string]struct{}{filepath.Join("/r", "a"): {}},
	}

	got, err := GetBiggest([]*tree.Node{logTree()}, unlimited(), opts)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, []string{"a"}, names(got.Children))
	assert.Empty(t, got.Children[0].Children)
}

func TestGetBiggest_UsingAFilterHidesEmpty(t *testing.T) {
	root := dir("/r", dir("none", file("zero", 0)), dir("some", file("one", 1)))

	agg := unlimited()
	agg.UsingAFilter = true

	got, err := GetBiggest([]*tree.Node{root}, agg, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"some"}, names(got.Children))
}

func TestGetBiggest_MultipleRoots(t *testing.T) {
	a := dir("/a", file("x", 5))
	b := dir("/b", file("y", 50))

	got, err := GetBiggest([]*tree.Node{a, b}, unlimited(), Options{})
	require.NoError(t, err)

	assert.Equal(t, TotalName, got.Name)
	assert.Equal(t, uint64(55), got.Size.Value)
	assert.Equal(t, []string{"/b", "/a"}, names(got.Children))
	assert.Equal(t, []string{"y"}, names(got.Children[0].Children))
}

func TestGetBiggest_MultipleRootsAllFiltered(t *testing.T) {
	a := dir("/a", file("x", 5))
	b := dir("/b", file("y", 6))

	agg := unlimited()
	agg.MinSize = 100

	got, err := GetBiggest([]*tree.Node{a, b}, agg, Options{})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetBiggest_FullPaths(t *testing.T) {
	root := dir("/r", dir("x", file("f", 1)))

	agg := unlimited()
	agg.ShortPaths = false

	got, err := GetBiggest([]*tree.Node{root}, agg, Options{})
	require.NoError(t, err)

	x := got.Children[0]
	assert.Equal(t, filepath.Join("/r", "x"), x.Name)
	assert.Equal(t, filepath.Join("/r", "x", "f"), x.Children[0].Name)
}

func TestGetBiggest_Collapse(t *testing.T) {
	root := dir("/r", dir("x", file("f", 1)), dir("y", file("g", 1)))

	opts := Options{Collapse: map[string]struct{}{filepath.Join("/r", "x"): {}}}

	got, err := GetBiggest([]*tree.Node{root}, unlimited(), opts)
	require.NoError(t, err)

	require.Equal(t, []string{"x", "y"}, names(got.Children))
	assert.Empty(t, got.Children[0].Children)
	assert.Len(t, got.Children[1].Children, 1)
}

func TestGetBiggest_DoesNotMutateSource(t *testing.T) {
	root := dir("/r", file("a", 3), file("b", 2), file("c", 1))

	agg := unlimited()
	agg.NumberOfLines = 1
	agg.MinSize = 2

	_, err := GetBiggest([]*tree.Node{root}, agg, Options{})
	require.NoError(t, err)

	assert.Len(t, root.Children, 3)
	assert.Equal(t, "a", root.Children[0].Name)
	assert.Equal(t, uint64(6), root.Size.Value)
}

func TestGetBiggest_LevelsBoundedAndSorted(t *testing.T) {
	var top []*tree.Node

	for i := range 12 {
		var leaves []*tree.Node
		for j := range 9 {
			leaves = append(leaves, file(string(rune('a'+j)), uint64((i*7+j*3)%11)))
		}

		top = append(top, dir(string(rune('A'+i)), leaves...))
	}

	agg := unlimited()
	agg.NumberOfLines = 4

	got, err := GetBiggest([]*tree.Node{dir("/r", top...)}, agg, Options{})
	require.NoError(t, err)

	for _, line := range got.Flatten() {
		children := line.Node.Children
		assert.LessOrEqual(t, len(children), 4)

		for i := 1; i < len(children); i++ {
			assert.True(t, tree.Less(children[i-1], children[i]) || children[i-1].Size == children[i].Size,
				"children of %s out of order", line.Node.Name)
		}
	}
}

func TestAggregateData_Validate(t *testing.T) {
	_, err := GetBiggest([]*tree.Node{file("/f", 1)}, AggregateData{NumberOfLines: -1}, Options{})
	assert.ErrorIs(t, err, ErrInvalidLines)
}
