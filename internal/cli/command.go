// Package cli implements the dutree command line: flag parsing, config file
// defaults, running the walk and rendering the result.
package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

// CLI represents the command-line interface.
type CLI struct {
	version string
}

// New creates a new CLI instance with the given version.
func New(version string) CLI {
	return CLI{version: version}
}

// Defaults for the display flags.
const (
	DefaultDepth         = 2
	DefaultNumberOfLines = 10
)

//nolint:gochecknoglobals // Config constant
var allowedOutputs = []string{"table", "json"}

// Options holds everything the command line can set.
type Options struct {
	// Paths are the roots to analyze.
	Paths []string
	// Depth is the maximum display depth (negative = unlimited).
	Depth int
	// NumberOfLines caps the entries shown per level.
	NumberOfLines int
	// FullPaths shows cumulative paths instead of basenames.
	FullPaths bool
	// IgnoreDirectories are paths excluded from the walk.
	IgnoreDirectories []string
	// LimitFilesystem restricts the walk to the filesystems of the roots.
	LimitFilesystem bool
	// OneFilesystem prunes entries on another filesystem than their parent.
	OneFilesystem bool
	// SkipPseudo excludes mount points of pseudo filesystems.
	SkipPseudo bool
	// ApparentSize measures logical length instead of allocated blocks.
	ApparentSize bool
	// FileCount counts files instead of measuring bytes.
	FileCount bool
	// FileTime records a timestamp (modified, accessed, changed) instead of bytes.
	FileTime string
	// IgnoreHidden skips dot entries.
	IgnoreHidden bool
	// Filter keeps only files whose path matches one of these regexes.
	Filter []string
	// InvertFilter drops files whose path matches one of these regexes.
	InvertFilter []string
	// NameMatch shows only entries whose path matches, plus their ancestors.
	NameMatch string
	// Collapse lists paths that are shown but never expanded.
	Collapse []string
	// OnlyDir shows directories only.
	OnlyDir bool
	// OnlyFile shows files only.
	OnlyFile bool
	// MinSize hides entries below this size (e.g. 1MB).
	MinSize string
	// ModifiedWithin, AccessedWithin and ChangedWithin zero files older than the window.
	ModifiedWithin time.Duration
	AccessedWithin time.Duration
	ChangedWithin  time.Duration
	// FollowLinks descends into symlinked directories.
	FollowLinks bool
	// FileTypes summarizes by extension instead of showing the tree.
	FileTypes bool
	// Threads bounds the walker pool (0 = auto).
	Threads int
	// NoColors disables colored bars.
	NoColors bool
	// NoProgress disables the progress line.
	NoProgress bool
	// Output represents output format (table or json).
	Output string
	// Debug indicates whether debug output is enabled.
	Debug bool
	// Config is the path of the config file.
	Config string
}

func help() string {
	return heredoc.Doc(`
		dutree shows where disk space goes.

		It walks the given paths in parallel, aggregates the size of every
		directory and prints the largest entries of each level as a tree.

		By default sizes are allocated disk blocks. Use --apparent-size for
		logical file lengths, --filecount to count files, or --filetime to
		show the newest timestamp below each entry.

		Flag defaults can be set in a TOML config file whose keys are the long
		flag names, e.g.:

		  depth = 3
		  number-of-lines = 15
		  ignore-directory = ["/proc", "/sys"]
	`)
}

// Command builds the root command.
func (c CLI) Command() *cobra.Command {
	var options Options

	cmd := &cobra.Command{
		Use:     "dutree [flags] [path...]",
		Short:   "Show the largest entries of a directory tree",
		Long:    help(),
		Version: c.version,
		Args:    cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd.Flags(), options.Config); err != nil {
				return err
			}

			if len(args) == 0 {
				options.Paths = []string{"."}
			} else {
				options.Paths = args
			}

			if err := options.validate(); err != nil {
				return err
			}

			return logic(cmd.Context(), options, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
		SilenceUsage: true,
	}

	flags := cmd.Flags()
	flags.SortFlags = false

	flags.IntVarP(&options.Depth, "depth", "d", DefaultDepth, "Maximum display depth (-1 = unlimited)")
	flags.IntVarP(&options.NumberOfLines, "number-of-lines", "n", DefaultNumberOfLines, "Entries shown per level")
	flags.BoolVarP(&options.FullPaths, "full-paths", "p", false, "Show cumulative paths instead of names")
	flags.StringSliceVarP(&options.IgnoreDirectories, "ignore-directory", "X", nil, "Paths to exclude from the walk")
	flags.BoolVarP(&options.LimitFilesystem, "limit-filesystem", "x", false, "Only count entries on the filesystems of the given paths")
	flags.BoolVar(&options.OneFilesystem, "one-filesystem", false, "Do not cross into another filesystem below a path")
	flags.BoolVar(&options.SkipPseudo, "skip-pseudo", false, "Exclude mount points of pseudo filesystems (proc, sysfs, tmpfs, ...)")
	flags.BoolVarP(&options.ApparentSize, "apparent-size", "s", false, "Use file length instead of allocated blocks")
	flags.BoolVarP(&options.FileCount, "filecount", "f", false, "Count files instead of measuring size")
	flags.StringVar(&options.FileTime, "filetime", "", "Show the newest timestamp: modified, accessed or changed")
	flags.BoolVarP(&options.IgnoreHidden, "ignore-hidden", "i", false, "Skip entries starting with a dot")
	flags.StringSliceVarP(&options.Filter, "filter", "e", nil, "Only count files whose path matches one of these regexes")
	flags.StringSliceVarP(&options.InvertFilter, "invert-filter", "v", nil, "Do not count files whose path matches one of these regexes")
	flags.StringVarP(&options.NameMatch, "name-match", "m", "", "Only show entries whose path matches this regex, plus their parents")
	flags.StringSliceVar(&options.Collapse, "collapse", nil, "Paths shown but never expanded")
	flags.BoolVarP(&options.OnlyDir, "only-dir", "D", false, "Only show directories")
	flags.BoolVarP(&options.OnlyFile, "only-file", "F", false, "Only show files")
	flags.StringVarP(&options.MinSize, "min-size", "z", "0", "Hide entries smaller than this (e.g. 1MB)")
	flags.DurationVar(&options.ModifiedWithin, "modified-within", 0, "Only count files modified within this duration")
	flags.DurationVar(&options.AccessedWithin, "accessed-within", 0, "Only count files accessed within this duration")
	flags.DurationVar(&options.ChangedWithin, "changed-within", 0, "Only count files changed within this duration")
	flags.BoolVarP(&options.FollowLinks, "dereference-links", "L", false, "Follow symbolic links")
	flags.BoolVarP(&options.FileTypes, "file-types", "t", false, "Summarize by file extension")
	flags.IntVarP(&options.Threads, "threads", "T", 0, "Number of concurrent directory readers (0 = auto)")
	flags.BoolVarP(&options.NoColors, "no-colors", "c", false, "Disable colors")
	flags.BoolVarP(&options.NoProgress, "no-progress", "P", false, "Disable the progress line")
	flags.StringVarP(&options.Output, "output", "o", "table", "Output format: table or json")
	flags.BoolVar(&options.Debug, "debug", false, "Enable debug output")
	flags.StringVar(&options.Config, "config", "", "Config file (default $XDG_CONFIG_HOME/dutree/config.toml)")

	return cmd
}

// Execute runs the CLI with the process arguments.
func (c CLI) Execute() error {
	return fang.Execute(context.Background(), c.Command())
}

// validate rejects unusable combinations and normalizes the output format.
func (o *Options) validate() error {
	o.Output = strings.ToLower(o.Output)

	if !slices.Contains(allowedOutputs, o.Output) {
		return fmt.Errorf("invalid output format %q: must be one of %v", o.Output, allowedOutputs)
	}

	if o.NumberOfLines < 0 {
		return errors.New("number of lines cannot be negative")
	}

	if o.FileCount && o.FileTime != "" {
		return errors.New("--filecount and --filetime cannot be combined")
	}

	if o.FileTypes && o.FileTime != "" {
		return errors.New("--file-types summarizes sizes or counts and cannot be combined with --filetime")
	}

	for name, d := range map[string]time.Duration{
		"modified-within": o.ModifiedWithin,
		"accessed-within": o.AccessedWithin,
		"changed-within":  o.ChangedWithin,
	} {
		if d < 0 {
			return fmt.Errorf("--%s cannot be negative", name)
		}
	}

	return nil
}
