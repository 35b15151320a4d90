package walker

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/idelchi/dutree/internal/platform"
	"github.com/idelchi/dutree/internal/progress"
	"github.com/idelchi/dutree/internal/tree"
)

var (
	// ErrNoRoots is returned when Walk is called without roots.
	ErrNoRoots = errors.New("no roots to walk")
	// ErrConflictingMetrics is returned when more than one metric mode is selected.
	ErrConflictingMetrics = errors.New("file count and file time modes are mutually exclusive")
)

// FileTime selects the timestamp used by the file time metric.
type FileTime uint8

const (
	// NoFileTime disables the file time metric.
	NoFileTime FileTime = iota
	// Modified selects the modification time.
	Modified
	// Accessed selects the access time.
	Accessed
	// Changed selects the status change time.
	Changed
)

// ParseFileTime parses a timestamp selector: "m"/"modified", "a"/"accessed"
// or "c"/"changed". The empty string selects NoFileTime.
func ParseFileTime(s string) (FileTime, error) {
	switch strings.ToLower(s) {
	case "":
		return NoFileTime, nil
	case "m", "mtime", "modified":
		return Modified, nil
	case "a", "atime", "accessed":
		return Accessed, nil
	case "c", "ctime", "changed":
		return Changed, nil
	default:
		return NoFileTime, fmt.Errorf("invalid file time %q: must be one of modified, accessed, changed", s)
	}
}

// Of returns the selected timestamp of info.
func (f FileTime) Of(info platform.Info) time.Time {
	switch f {
	case Accessed:
		return info.AccessTime
	case Changed:
		return info.ChangeTime
	default:
		return info.ModTime
	}
}

// Config configures a walk. The zero value walks everything and measures disk usage.
type Config struct {
	// IgnoreDirectories holds absolute, clean paths that are skipped.
	IgnoreDirectories map[string]struct{}
	// FilterRegex keeps only files whose full path matches one of the patterns.
	FilterRegex []*regexp.Regexp
	// InvertFilterRegex drops files whose full path matches one of the patterns.
	InvertFilterRegex []*regexp.Regexp
	// AllowedFilesystems restricts the walk to these filesystem ids when non-empty.
	AllowedFilesystems map[uint64]struct{}
	// OneFilesystem prunes entries on a different filesystem than their parent.
	OneFilesystem bool
	// FilterModifiedTime zeroes files modified before it, when set.
	FilterModifiedTime time.Time
	// FilterAccessedTime zeroes files accessed before it, when set.
	FilterAccessedTime time.Time
	// FilterChangedTime zeroes files changed before it, when set.
	FilterChangedTime time.Time
	// UseApparentSize measures logical length instead of allocated blocks.
	UseApparentSize bool
	// ByFileCount counts files instead of measuring bytes.
	ByFileCount bool
	// ByFileTime records the selected timestamp instead of measuring bytes.
	ByFileTime FileTime
	// IgnoreHidden skips entries whose name starts with a dot.
	IgnoreHidden bool
	// FollowLinks descends into symlinked directories.
	FollowLinks bool
	// Workers bounds the number of concurrent units (0 = auto).
	Workers int
	// Tracker receives progress and failures. A fresh tracker is used when nil.
	Tracker *progress.Tracker
	// Prober reads metadata. The local filesystem is used when nil.
	Prober platform.Prober
	// Logger receives debug output. Nothing is logged when nil.
	Logger *slog.Logger
}

// Kind returns the metric selected by the config.
func (c Config) Kind() (tree.Kind, error) {
	switch {
	case c.ByFileCount && c.ByFileTime != NoFileTime:
		return 0, ErrConflictingMetrics
	case c.ByFileTime != NoFileTime:
		return tree.Time, nil
	case c.ByFileCount:
		return tree.Count, nil
	case c.UseApparentSize:
		return tree.Apparent, nil
	default:
		return tree.Disk, nil
	}
}

// IgnoreSet turns user supplied paths into the set used by IgnoreDirectories.
func IgnoreSet(paths []string) (map[string]struct{}, error) {
	set := make(map[string]struct{}, len(paths))

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolving ignored path %q: %w", p, err)
		}

		set[filepath.Clean(abs)] = struct{}{}
	}

	return set, nil
}

// CompilePatterns compiles regular expressions in order.
func CompilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))

	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compiling pattern %q: %w", p, err)
		}

		compiled = append(compiled, re)
	}

	return compiled, nil
}

func (c Config) withDefaults() Config {
	if c.Tracker == nil {
		c.Tracker = progress.New()
	}

	if c.Prober == nil {
		c.Prober = platform.OS{}
	}

	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}

	if c.Workers <= 0 {
		c.Workers = max(2, runtime.NumCPU())
	}

	return c
}
