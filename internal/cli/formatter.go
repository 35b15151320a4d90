package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/taigrr/colorhash"

	"github.com/idelchi/dutree/internal/progress"
	"github.com/idelchi/dutree/internal/tree"
)

const (
	// TabSpacing is the number of spaces between tabwriter columns.
	TabSpacing = 2
	// DefaultBarWidth is the number of cells of the percentage bar.
	DefaultBarWidth = 20
	// TimeLayout formats timestamps in filetime mode.
	TimeLayout = "2006-01-02 15:04"
)

// Report is the JSON document printed with --output json.
type Report struct {
	Root     *tree.DisplayNode  `json:"root"`
	Failures []progress.Failure `json:"failures,omitempty"`
}

// Style controls table rendering.
type Style struct {
	// Color enables colored bars and file names.
	Color bool
	// BarWidth is the bar length in cells; no bar is drawn when zero.
	BarWidth int
}

// Bar colors use three-digit codes so every colored row has the same byte width.
//
//nolint:gochecknoglobals // Palette
var (
	largeShare  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mediumShare = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	smallShare  = lipgloss.NewStyle().Foreground(lipgloss.Color("112"))
)

// Extension colors are picked from the 6x6x6 cube of the 256 color palette.
const (
	cubeStart = 16
	cubeSize  = 216
)

// PrintJSON outputs the result tree and failures in JSON format.
func PrintJSON(report Report, writer io.Writer) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}

	if _, err := fmt.Fprintln(writer, string(data)); err != nil {
		return err
	}

	return nil
}

// PrintTable outputs the result tree as a table of size, a bar showing each
// entry's share of the root, and the indented name.
func PrintTable(root *tree.DisplayNode, writer io.Writer, style Style) error {
	w := tabwriter.NewWriter(writer, 0, 4, TabSpacing, ' ', 0)

	if root == nil {
		fmt.Fprintln(w, "No entries matched.")

		return w.Flush()
	}

	for _, row := range rows(root) {
		fmt.Fprintf(w, "%s\t%s\t%s%s\n",
			FormatSize(row.node.Size), style.bar(row.node.Size, root.Size), row.prefix, style.name(row.node))
	}

	return w.Flush()
}

// FormatSize renders a metric value for humans.
func FormatSize(s tree.Size) string {
	switch s.Kind {
	case tree.Count:
		return humanize.Comma(int64(min(s.Value, math.MaxInt64)))
	case tree.Time:
		if s.Value == 0 {
			return "-"
		}

		return s.Timestamp().Format(TimeLayout)
	default:
		return humanize.IBytes(s.Value)
	}
}

// Share returns the fraction of total that s represents, in [0, 1].
// Timestamps have no share.
func Share(s, total tree.Size) (float64, bool) {
	if s.Kind == tree.Time || total.Value == 0 {
		return 0, false
	}

	return min(float64(s.Value)/float64(total.Value), 1), true
}

func (s Style) bar(size, total tree.Size) string {
	share, ok := Share(size, total)
	if !ok || s.BarWidth <= 0 {
		return ""
	}

	filled := int(math.Round(share * float64(s.BarWidth)))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", s.BarWidth-filled)

	if s.Color {
		switch {
		case share >= 0.5:
			bar = largeShare.Render(bar)
		case share >= 0.2:
			bar = mediumShare.Render(bar)
		default:
			bar = smallShare.Render(bar)
		}
	}

	return fmt.Sprintf("%s %3.0f%%", bar, share*100)
}

// name colors files by extension, so entries of one type share a color.
func (s Style) name(n *tree.DisplayNode) string {
	if !s.Color || n.Dir {
		return n.Name
	}

	return lipgloss.NewStyle().Foreground(lipgloss.Color(extensionColor(n.Name))).Render(n.Name)
}

// extensionColor returns a stable 256 color code for the extension of name,
// or for name itself when it has none.
func extensionColor(name string) string {
	key := strings.ToLower(filepath.Ext(name))
	if key == "" {
		key = name
	}

	code := colorhash.HashString(key) % cubeSize
	if code < 0 {
		code += cubeSize
	}

	return strconv.Itoa(cubeStart + code)
}

type row struct {
	prefix string
	node   *tree.DisplayNode
}

// rows flattens the tree, drawing branch prefixes for every level below the root.
func rows(root *tree.DisplayNode) []row {
	out := []row{{node: root}}

	var visit func(n *tree.DisplayNode, indent string)

	visit = func(n *tree.DisplayNode, indent string) {
		for i, child := range n.Children {
			last := i == len(n.Children)-1

			branch, next := "├─ ", "│  "
			if last {
				branch, next = "└─ ", "   "
			}

			out = append(out, row{prefix: indent + branch, node: child})
			visit(child, indent+next)
		}
	}

	visit(root, "")

	return out
}
