// Package exclude decides which directory subtrees a scan must prune:
// configured system roots and anything with a hidden (dot-prefixed)
// path segment.
package exclude

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Filter is a pure predicate over paths. Zero value excludes nothing
// but hidden segments; build one with New.
type Filter struct {
	systemRoots []string
}

// New builds a filter over the given system roots. Roots are cleaned;
// empty entries are dropped.
func New(systemRoots []string) *Filter {
	roots := make([]string, 0, len(systemRoots))
	for _, r := range systemRoots {
		if r == "" {
			continue
		}
		roots = append(roots, filepath.Clean(r))
	}
	return &Filter{systemRoots: roots}
}

// DefaultSystemRoots returns the conventional system directories for
// the current platform.
func DefaultSystemRoots() []string {
	if runtime.GOOS == "windows" {
		sysRoot := os.Getenv("SystemRoot")
		if sysRoot == "" {
			sysRoot = `C:\Windows`
		}
		return []string{
			sysRoot,
			`C:\Program Files`,
			`C:\Program Files (x86)`,
			`C:\$Recycle.Bin`,
			`C:\Users\All Users`,
			`C:\ProgramData`,
		}
	}
	return []string{"/proc", "/sys", "/dev", "/run", "/tmp", "/var/run"}
}

// IsExcluded reports whether path lies under a system root or has any
// hidden path segment. Callers prune the subtree when true.
func (f *Filter) IsExcluded(path string) bool {
	clean := filepath.Clean(path)
	for _, root := range f.systemRoots {
		if UnderRoot(clean, root) {
			return true
		}
	}
	return hasHiddenSegment(clean)
}

// UnderRoot reports whether path equals root or lies below it. The
// comparison is boundary aware: "/database" is not under "/data".
func UnderRoot(path, root string) bool {
	if path == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}

func hasHiddenSegment(path string) bool {
	vol := filepath.VolumeName(path)
	for _, part := range strings.Split(path[len(vol):], string(filepath.Separator)) {
		if len(part) > 1 && part[0] == '.' {
			return true
		}
	}
	return false
}
