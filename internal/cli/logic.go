package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/idelchi/dutree/internal/filetypes"
	"github.com/idelchi/dutree/internal/filter"
	"github.com/idelchi/dutree/internal/paths"
	"github.com/idelchi/dutree/internal/platform"
	"github.com/idelchi/dutree/internal/progress"
	"github.com/idelchi/dutree/internal/tree"
	"github.com/idelchi/dutree/internal/walker"
)

// plan is the fully resolved work for one invocation.
type plan struct {
	roots   []string
	walk    walker.Config
	agg     filter.AggregateData
	display filter.Options
}

func newLogger(debug bool, w io.Writer) *slog.Logger {
	if !debug {
		return slog.New(slog.DiscardHandler)
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && isatty.IsTerminal(f.Fd())
}

func logic(ctx context.Context, options Options, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	log := newLogger(options.Debug, stderr)

	p, err := options.plan(ctx, log)
	if err != nil {
		return err
	}

	enableProgress := options.Output != "json" &&
		!options.NoProgress &&
		!options.Debug &&
		isTerminal(stderr)

	tracker := p.walk.Tracker

	if enableProgress {
		// Hide cursor for in-place updates; restore on exit.
		fmt.Fprint(stderr, "\033[?25l")
		defer fmt.Fprint(stderr, "\033[?25h")

		tracker.Start(ctx, progress.DefaultInterval, func(s progress.Snapshot) {
			msg := fmt.Sprintf("Scanning… %d entries, %s", s.Items, humanize.IBytes(s.Bytes))
			fmt.Fprintf(stderr, "\r\033[2K%s\r", msg)
		})
	}

	root, err := options.run(p)

	// Stop blocks until the reporter exited, so the line can be cleared safely.
	tracker.Stop()

	if enableProgress {
		fmt.Fprint(stderr, "\r\033[2K\r")
	}

	if err != nil {
		return err
	}

	switch options.Output {
	case "json":
		err = PrintJSON(Report{Root: root, Failures: tracker.Failures()}, stdout)
	default:
		err = PrintTable(root, stdout, Style{Color: !options.NoColors && isTerminal(stdout), BarWidth: DefaultBarWidth})
	}

	if err != nil {
		return err
	}

	reportFailures(stderr, tracker)

	return nil
}

func (o Options) run(p plan) (*tree.DisplayNode, error) {
	if o.FileTypes {
		kind, err := p.walk.Kind()
		if err != nil {
			return nil, err
		}

		stats, err := filetypes.Run(filetypes.Options{
			Roots:             p.roots,
			Kind:              kind,
			TopN:              p.agg.NumberOfLines,
			IgnoreHidden:      p.walk.IgnoreHidden,
			IgnoreDirectories: p.walk.IgnoreDirectories,
			FilterRegex:       p.walk.FilterRegex,
			InvertFilterRegex: p.walk.InvertFilterRegex,
			Workers:           p.walk.Workers,
			Tracker:           p.walk.Tracker,
			Logger:            p.walk.Logger,
		})
		if err != nil {
			return nil, err
		}

		return stats.Display(), nil
	}

	forest, err := walker.Walk(p.roots, p.walk)
	if err != nil {
		return nil, err
	}

	return filter.GetBiggest(forest, p.agg, p.display)
}

// plan resolves paths, patterns and sizes into walker and filter configuration.
//
//nolint:funlen // Flat mapping of options
func (o Options) plan(ctx context.Context, log *slog.Logger) (plan, error) {
	roots, err := paths.Simplify(o.Paths)
	if err != nil {
		return plan{}, err
	}

	ignored := slices.Clone(o.IgnoreDirectories)

	if o.SkipPseudo {
		mounts, err := platform.PseudoMounts(ctx)
		if err != nil {
			log.Warn("could not list pseudo filesystems", "error", err)
		}

		ignored = append(ignored, mounts...)
	}

	ignoreSet, err := walker.IgnoreSet(ignored)
	if err != nil {
		return plan{}, err
	}

	include, err := walker.CompilePatterns(o.Filter)
	if err != nil {
		return plan{}, err
	}

	exclude, err := walker.CompilePatterns(o.InvertFilter)
	if err != nil {
		return plan{}, err
	}

	fileTime, err := walker.ParseFileTime(o.FileTime)
	if err != nil {
		return plan{}, err
	}

	minSize, err := humanize.ParseBytes(o.MinSize)
	if err != nil {
		return plan{}, fmt.Errorf("invalid min-size: %w", err)
	}

	var nameMatch *regexp.Regexp

	if o.NameMatch != "" {
		nameMatch, err = regexp.Compile(o.NameMatch)
		if err != nil {
			return plan{}, fmt.Errorf("compiling name-match pattern %q: %w", o.NameMatch, err)
		}
	}

	collapse, err := walker.IgnoreSet(o.Collapse)
	if err != nil {
		return plan{}, err
	}

	now := time.Now()

	cfg := walker.Config{
		IgnoreDirectories:  ignoreSet,
		FilterRegex:        include,
		InvertFilterRegex:  exclude,
		AllowedFilesystems: o.allowedFilesystems(roots, log),
		OneFilesystem:      o.OneFilesystem,
		FilterModifiedTime: windowStart(now, o.ModifiedWithin),
		FilterAccessedTime: windowStart(now, o.AccessedWithin),
		FilterChangedTime:  windowStart(now, o.ChangedWithin),
		UseApparentSize:    o.ApparentSize,
		ByFileCount:        o.FileCount,
		ByFileTime:         fileTime,
		IgnoreHidden:       o.IgnoreHidden,
		FollowLinks:        o.FollowLinks,
		Workers:            o.Threads,
		Tracker:            progress.New(),
		Logger:             log,
	}

	usingAFilter := len(include) > 0 || len(exclude) > 0 ||
		o.ModifiedWithin > 0 || o.AccessedWithin > 0 || o.ChangedWithin > 0

	log.Debug("resolved roots", "roots", roots)
	log.Debug("exclusions", "ignored", ignored, "include", o.Filter, "exclude", o.InvertFilter)

	return plan{
		roots: roots,
		walk:  cfg,
		agg: filter.AggregateData{
			MinSize:       minSize,
			OnlyDir:       o.OnlyDir,
			OnlyFile:      o.OnlyFile,
			NumberOfLines: o.NumberOfLines,
			Depth:         o.Depth,
			UsingAFilter:  usingAFilter,
			ShortPaths:    !o.FullPaths,
		},
		display: filter.Options{
			NamePattern: nameMatch,
			Collapse:    collapse,
		},
	}, nil
}

// allowedFilesystems returns the filesystem ids of the roots when the walk is
// limited to them.
func (o Options) allowedFilesystems(roots []string, log *slog.Logger) map[uint64]struct{} {
	if !o.LimitFilesystem {
		return nil
	}

	allowed := make(map[uint64]struct{}, len(roots))

	for _, root := range roots {
		info, err := platform.OS{}.Stat(root)
		if err != nil {
			log.Debug("cannot determine filesystem", "path", root, "error", err)

			continue
		}

		allowed[info.FilesystemID()] = struct{}{}
	}

	return allowed
}

func windowStart(now time.Time, within time.Duration) time.Time {
	if within <= 0 {
		return time.Time{}
	}

	return now.Add(-within)
}

// reportFailures prints a one-line summary of unreadable entries.
func reportFailures(w io.Writer, tracker *progress.Tracker) {
	summary := tracker.Summary()
	if len(summary) == 0 {
		return
	}

	reasons := make([]progress.Reason, 0, len(summary))
	total := 0

	for reason, count := range summary {
		reasons = append(reasons, reason)
		total += count
	}

	slices.Sort(reasons)

	parts := make([]string, 0, len(reasons))
	for _, reason := range reasons {
		parts = append(parts, fmt.Sprintf("%s: %d", reason, summary[reason]))
	}

	fmt.Fprintf(w, "warning: %d entries could not be read (%s)\n", total, strings.Join(parts, ", "))
}
