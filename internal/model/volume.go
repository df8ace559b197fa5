package model

import (
	"path/filepath"
	"strings"
)

// VolumeState tracks where a volume is in the scan lifecycle.
type VolumeState int

const (
	VolumePending VolumeState = iota
	VolumeScanning
	VolumeCompleted
)

// String returns a human-readable state name
func (s VolumeState) String() string {
	switch s {
	case VolumePending:
		return "pending"
	case VolumeScanning:
		return "scanning"
	case VolumeCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Volume represents a scan root, usually a mounted drive
type Volume struct {
	ID         string // sanitized identifier, used in record file names
	Path       string // scan root, e.g. "/" or "C:\\"
	Label      string
	TotalBytes uint64
	UsedBytes  uint64
	IsSystem   bool // hosts the operating system
	State      VolumeState
}

// IDForPath derives the record-file identifier for a scan root: path
// separators and drive colons removed, the root volume mapping to
// "root".
func IDForPath(path string) string {
	id := strings.NewReplacer(":", "", "\\", "", "/", "").Replace(filepath.Clean(path))
	if id == "" {
		return "root"
	}
	return id
}

// DetectedFile is a file classified as text during a scan.
type DetectedFile struct {
	Path string
	Size int64
	MIME string // sample MIME label, reporting only
}
