package filetypes

import (
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/charlievieth/fastwalk"

	"github.com/idelchi/dutree/internal/platform"
	"github.com/idelchi/dutree/internal/progress"
	"github.com/idelchi/dutree/internal/tree"
)

// DefaultTopN is the number of extensions kept when Options.TopN is not positive.
const DefaultTopN = 20

// ErrNoRoots is returned when Run is called without roots.
var ErrNoRoots = errors.New("no roots to summarize")

// Options configures an extension summary.
type Options struct {
	// Roots are the normalized paths to walk.
	Roots []string
	// Kind is the metric to aggregate; Time is not supported and falls back to Disk.
	Kind tree.Kind
	// TopN is the number of extensions to keep.
	TopN int
	// IgnoreHidden skips entries whose name starts with a dot.
	IgnoreHidden bool
	// IgnoreDirectories holds absolute, clean paths that are skipped.
	IgnoreDirectories map[string]struct{}
	// FilterRegex keeps only files whose full path matches one of the patterns.
	FilterRegex []*regexp.Regexp
	// InvertFilterRegex drops files whose full path matches one of the patterns.
	InvertFilterRegex []*regexp.Regexp
	// Workers is the number of fastwalk workers (0 = fastwalk default).
	Workers int
	// Tracker receives progress and failures. A fresh tracker is used when nil.
	Tracker *progress.Tracker
	// Prober reads metadata. The local filesystem is used when nil.
	Prober platform.Prober
	// Logger receives debug output. Nothing is logged when nil.
	Logger *slog.Logger
}

// Run walks every root and aggregates regular files by extension.
// Unreadable entries are recorded on the tracker and skipped.
func Run(opt Options) (*Stats, error) {
	if len(opt.Roots) == 0 {
		return nil, ErrNoRoots
	}

	if opt.Kind == tree.Time {
		opt.Kind = tree.Disk
	}

	if opt.TopN <= 0 {
		opt.TopN = DefaultTopN
	}

	if opt.Tracker == nil {
		opt.Tracker = progress.New()
	}

	if opt.Prober == nil {
		opt.Prober = platform.OS{}
	}

	log := opt.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	collector := newCollector(opt.Kind, opt.TopN)
	start := time.Now()

	conf := &fastwalk.Config{
		Follow:     false, // Don't follow symlinks
		NumWorkers: opt.Workers,
	}

	for _, root := range opt.Roots {
		//nolint:varnamelen // d is standard for DirEntry
		walkErr := fastwalk.Walk(conf, root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				collector.addError()
				opt.Tracker.Record(progress.Classify(path, err, progress.ReadDir))
				log.Debug("error accessing path", "path", path, "error", err)

				return nil
			}

			if path != root && skipped(path, d.Name(), opt) {
				log.Debug("skipping entry", "path", path)

				if d.IsDir() {
					return filepath.SkipDir
				}

				return nil
			}

			if !d.Type().IsRegular() {
				return nil
			}

			if pattern := excludedBy(path, opt.FilterRegex, opt.InvertFilterRegex); pattern != nil {
				log.Debug("excluding file", "path", filepath.ToSlash(path), "pattern", pattern.String())

				return nil
			}

			info, err := opt.Prober.Lstat(path)
			if err != nil {
				collector.addError()
				opt.Tracker.Record(progress.Classify(path, err, progress.Metadata))

				return nil //nolint:nilerr // Intentionally skip errors during walk
			}

			size := measure(opt.Kind, info)
			collector.add(extension(path), size)
			opt.Tracker.Add(1, size.Value)

			return nil
		})
		if walkErr != nil {
			return nil, walkErr
		}
	}

	stats := collector.finalize()
	stats.Elapsed = time.Since(start)

	return stats, nil
}

func skipped(path, name string, opt Options) bool {
	if opt.IgnoreHidden && strings.HasPrefix(name, ".") {
		return true
	}

	_, ignored := opt.IgnoreDirectories[path]

	return ignored
}

func measure(kind tree.Kind, info platform.Info) tree.Size {
	switch kind {
	case tree.Count:
		return tree.Of(kind, 1)
	case tree.Apparent:
		return tree.Of(kind, info.ApparentSize())
	default:
		return tree.Of(kind, info.DiskSize())
	}
}

// extension returns the lower-cased extension of path, or NoExtension.
func extension(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" || ext == filepath.Base(path) {
		return NoExtension
	}

	return ext
}

// excludedBy returns the pattern responsible for excluding path, or nil if it is kept.
// A file that matches none of the include patterns is reported with the first one.
func excludedBy(path string, include, exclude []*regexp.Regexp) *regexp.Regexp {
	fPath := filepath.ToSlash(path)

	if len(include) > 0 && !slicesMatch(fPath, include) {
		return include[0]
	}

	for _, re := range exclude {
		if re.MatchString(fPath) {
			return re
		}
	}

	return nil
}

func slicesMatch(path string, patterns []*regexp.Regexp) bool {
	for _, re := range patterns {
		if re.MatchString(path) {
			return true
		}
	}

	return false
}
