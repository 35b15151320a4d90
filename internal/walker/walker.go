package walker

import (
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/idelchi/dutree/internal/platform"
	"github.com/idelchi/dutree/internal/progress"
	"github.com/idelchi/dutree/internal/tree"
)

// walker holds the state shared by all units of one walk.
type walker struct {
	cfg   Config
	kind  tree.Kind
	group errgroup.Group
}

// subdir is a directory waiting to be expanded by its own unit.
type subdir struct {
	path  string
	name  string
	info  platform.Info
	chain *ancestry
}

// Walk builds one Node per root, in the order of roots. Roots should be
// normalized with paths.Simplify first. Per-entry failures are recorded on
// cfg.Tracker; the returned error only reports invalid input.
func Walk(roots []string, cfg Config) ([]*tree.Node, error) {
	if len(roots) == 0 {
		return nil, ErrNoRoots
	}

	kind, err := cfg.Kind()
	if err != nil {
		return nil, err
	}

	w := &walker{cfg: cfg.withDefaults(), kind: kind}
	w.group.SetLimit(w.cfg.Workers)

	nodes := make([]*tree.Node, len(roots))

	var wg sync.WaitGroup

	for i, root := range roots {
		wg.Add(1)
		w.spawn(func() {
			defer wg.Done()

			nodes[i] = w.walkRoot(root)
		})
	}

	wg.Wait()
	_ = w.group.Wait() // Units never fail

	if w.cfg.FollowLinks {
		w.dropRevisits(nodes)
	}

	if kind == tree.Disk {
		dedupeHardLinks(nodes)
	}

	return nodes, nil
}

// spawn runs fn on the pool, or inline when the pool is full.
func (w *walker) spawn(fn func()) {
	if !w.group.TryGo(func() error { fn(); return nil }) {
		fn()
	}
}

func (w *walker) walkRoot(root string) *tree.Node {
	info, err := w.cfg.Prober.Lstat(root)
	if err == nil && info.IsSymlink() {
		if target, statErr := w.cfg.Prober.Stat(root); statErr == nil {
			info = target
		}
	}

	if err != nil {
		w.fail(progress.Classify(root, err, progress.Metadata))

		return &tree.Node{Name: root, Size: tree.Zero(w.kind)}
	}

	if !info.IsDir() {
		leaf := w.leaf(root, info)
		w.cfg.Tracker.Add(1, w.tally(leaf.Size))

		return leaf
	}

	return w.expand(subdir{
		path:  root,
		name:  root,
		info:  info,
		chain: (*ancestry)(nil).push(info),
	}, true)
}

// expand is one unit of work: it lists a directory, measures its entries and
// merges the subtrees of its subdirectories once their units have finished.
func (w *walker) expand(dir subdir, root bool) *tree.Node {
	node := &tree.Node{
		Name:  dir.name,
		Dir:   true,
		Dev:   dir.info.Dev,
		Inode: dir.info.Inode,
		Links: dir.info.Links,
	}

	own := w.overhead(dir.info)

	names, err := w.cfg.Prober.ReadDir(dir.path)
	if err != nil {
		w.fail(progress.Classify(dir.path, err, progress.ReadDir))

		if root && len(names) == 0 {
			node.Size = tree.Zero(w.kind)

			return node
		}
	}

	if root {
		w.cfg.Tracker.Add(1, w.tally(own))
	}

	children := make([]*tree.Node, len(names))

	var wg sync.WaitGroup

	for i, name := range names {
		leaf, sub := w.visit(dir, name)

		switch {
		case leaf != nil:
			children[i] = leaf
			w.cfg.Tracker.Add(1, w.tally(leaf.Size))
		case sub != nil:
			w.cfg.Tracker.Add(1, w.tally(w.overhead(sub.info)))

			wg.Add(1)
			w.spawn(func() {
				defer wg.Done()

				children[i] = w.expand(*sub, false)
			})
		}
	}

	wg.Wait()

	node.Children = compact(children)
	node.Aggregate(own)

	return node
}

// visit decides what happens to a single entry of dir: it is dropped
// (both results nil), measured as a leaf, or returned as a subdirectory.
func (w *walker) visit(dir subdir, name string) (*tree.Node, *subdir) {
	path := filepath.Join(dir.path, name)
	log := w.cfg.Logger

	if w.cfg.IgnoreHidden && strings.HasPrefix(name, ".") {
		log.Debug("skipping hidden entry", "path", path)

		return nil, nil
	}

	if _, ignored := w.cfg.IgnoreDirectories[path]; ignored {
		log.Debug("skipping ignored path", "path", path)

		return nil, nil
	}

	info, err := w.cfg.Prober.Lstat(path)
	if err != nil {
		w.fail(progress.Classify(path, err, progress.Metadata))

		return nil, nil
	}

	if w.cfg.FollowLinks && info.IsSymlink() {
		// Broken links stay leaves measured by their own metadata.
		if target, statErr := w.cfg.Prober.Stat(path); statErr == nil {
			info = target
		}
	}

	if !w.allowedDevice(dir.info.Dev, info.Dev) {
		log.Debug("skipping entry on another filesystem", "path", path, "dev", info.Dev)

		return nil, nil
	}

	if !info.IsDir() {
		if pattern := excludedBy(path, w.cfg.FilterRegex, w.cfg.InvertFilterRegex); pattern != "" {
			log.Debug("excluding file", "path", path, "pattern", pattern)

			return nil, nil
		}

		return w.leaf(name, info), nil
	}

	if dir.chain.contains(info) {
		w.fail(progress.Classify(path, cycleError(), progress.Cycle))

		return nil, nil
	}

	return nil, &subdir{path: path, name: name, info: info, chain: dir.chain.push(info)}
}

// leaf measures a file, a symlink that is not followed, or a special file.
func (w *walker) leaf(name string, info platform.Info) *tree.Node {
	node := &tree.Node{
		Name:  name,
		Dev:   info.Dev,
		Inode: info.Inode,
		Links: info.Links,
	}

	if w.outsideWindow(info) {
		node.Size = tree.Zero(w.kind)

		return node
	}

	switch w.kind {
	case tree.Count:
		node.Size = tree.Of(w.kind, 1)
	case tree.Time:
		node.Size = tree.Of(w.kind, unixSeconds(w.cfg.ByFileTime.Of(info).Unix()))
	case tree.Apparent:
		node.Size = tree.Of(w.kind, info.ApparentSize())
	default:
		node.Size = tree.Of(w.kind, info.DiskSize())
	}

	return node
}

// overhead is what a directory contributes on its own.
func (w *walker) overhead(info platform.Info) tree.Size {
	if w.kind == tree.Disk {
		return tree.Of(w.kind, info.DiskSize())
	}

	return tree.Zero(w.kind)
}

// outsideWindow reports whether a file is older than any active time bound.
func (w *walker) outsideWindow(info platform.Info) bool {
	bounds := []struct {
		bound  time.Time
		actual time.Time
	}{
		{w.cfg.FilterModifiedTime, info.ModTime},
		{w.cfg.FilterAccessedTime, info.AccessTime},
		{w.cfg.FilterChangedTime, info.ChangeTime},
	}

	for _, b := range bounds {
		if !b.bound.IsZero() && b.actual.Before(b.bound) {
			return true
		}
	}

	return false
}

func (w *walker) allowedDevice(parent, dev uint64) bool {
	if len(w.cfg.AllowedFilesystems) > 0 {
		if _, ok := w.cfg.AllowedFilesystems[dev]; !ok {
			return false
		}
	}

	return !w.cfg.OneFilesystem || parent == dev
}

// tally converts a size into the byte counter of the tracker.
func (w *walker) tally(s tree.Size) uint64 {
	if w.kind == tree.Disk || w.kind == tree.Apparent {
		return s.Value
	}

	return 0
}

func (w *walker) fail(f progress.Failure) {
	w.cfg.Logger.Debug("walk failure", "path", f.Path, "reason", f.Reason.String(), "error", f.Err)
	w.cfg.Tracker.Record(f)
}

// excludedBy returns the pattern that excludes path, or "" if it is kept.
func excludedBy(path string, include, exclude []*regexp.Regexp) string {
	if len(include) == 0 && len(exclude) == 0 {
		return ""
	}

	fPath := filepath.ToSlash(path)

	if len(include) > 0 && matchingPattern(fPath, include) == nil {
		return "(no include pattern matched)"
	}

	if re := matchingPattern(fPath, exclude); re != nil {
		return re.String()
	}

	return ""
}

func matchingPattern(path string, patterns []*regexp.Regexp) *regexp.Regexp {
	for _, re := range patterns {
		if re.MatchString(path) {
			return re
		}
	}

	return nil
}

func compact(nodes []*tree.Node) []*tree.Node {
	kept := nodes[:0]

	for _, n := range nodes {
		if n != nil {
			kept = append(kept, n)
		}
	}

	return kept
}

func unixSeconds(s int64) uint64 {
	if s < 0 {
		return 0
	}

	return uint64(s)
}
