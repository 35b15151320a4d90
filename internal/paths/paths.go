// Package paths normalizes the root paths handed to the walker.
package paths

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// ErrNoPaths is returned when no path was given.
var ErrNoPaths = errors.New("no paths given")

// Simplify makes every path absolute and clean, removes duplicates and lets
// ancestors absorb their descendants so no subtree is counted twice.
// First-seen order is kept; an ancestor takes the slot of the earliest path
// it absorbs.
func Simplify(raw []string) ([]string, error) {
	if len(raw) == 0 {
		return nil, ErrNoPaths
	}

	var roots []string

	for _, p := range raw {
		if p == "" {
			p = "."
		}

		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolving absolute path %q: %w", p, err)
		}

		roots = absorb(roots, filepath.Clean(abs))
	}

	return roots, nil
}

func absorb(roots []string, candidate string) []string {
	slot := -1
	kept := roots[:0:0]

	for _, root := range roots {
		if IsAncestor(root, candidate) {
			return roots
		}

		if IsAncestor(candidate, root) {
			if slot < 0 {
				slot = len(kept)
			}

			continue
		}

		kept = append(kept, root)
	}

	if slot < 0 {
		return append(kept, candidate)
	}

	return slices.Insert(kept, slot, candidate)
}

// IsAncestor reports whether parent equals path or contains it.
// Both paths must be clean.
func IsAncestor(parent, path string) bool {
	if parent == path {
		return true
	}

	prefix := parent
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}

	return strings.HasPrefix(path, prefix)
}
