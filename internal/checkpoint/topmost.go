package checkpoint

import (
	"path/filepath"

	"github.com/lumipallolabs/textscan/internal/exclude"
)

// ComputeTopmost reduces a processed-directory set to its minimal
// covering subset: a directory is retained only when no other input
// directory is a strict ancestor of it. Ancestry uses boundary-aware
// prefix comparison, so "/data" never swallows "/database". Input order
// of retained entries is preserved and duplicates are dropped, which
// makes the result deterministic for a given input sequence.
//
// Quadratic over the input, which is fine for checkpoint-sized batches.
func ComputeTopmost(dirs []string) []string {
	cleaned := make([]string, 0, len(dirs))
	seen := make(map[string]bool, len(dirs))
	for _, d := range dirs {
		c := filepath.Clean(d)
		if !seen[c] {
			seen[c] = true
			cleaned = append(cleaned, c)
		}
	}

	topmost := make([]string, 0, len(cleaned))
	for _, d := range cleaned {
		covered := false
		for _, other := range cleaned {
			if other != d && exclude.UnderRoot(d, other) {
				covered = true
				break
			}
		}
		if !covered {
			topmost = append(topmost, d)
		}
	}
	return topmost
}

// CoverSet answers "was this subtree already fully processed?" against
// a loaded topmost set.
type CoverSet struct {
	dirs []string
}

// NewCoverSet builds a cover set from a (topmost) directory list.
func NewCoverSet(dirs []string) *CoverSet {
	cleaned := make([]string, 0, len(dirs))
	for _, d := range dirs {
		cleaned = append(cleaned, filepath.Clean(d))
	}
	return &CoverSet{dirs: cleaned}
}

// Covers reports whether path is a member of the set or lies under one.
// A covered directory was exhaustively processed by an earlier run and
// must not be re-enumerated.
func (c *CoverSet) Covers(path string) bool {
	clean := filepath.Clean(path)
	for _, d := range c.dirs {
		if exclude.UnderRoot(clean, d) {
			return true
		}
	}
	return false
}

// Len returns the number of directories in the set.
func (c *CoverSet) Len() int {
	return len(c.dirs)
}
