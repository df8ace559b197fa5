package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
)

const trackingName = "drive_tracking.json"

// VolumeTracking carries per-volume progress continuity across resume:
// how far the last run got and the largest denominator it displayed, so
// a resumed run starts from a sensible offset instead of zero.
type VolumeTracking struct {
	FilesProcessed int64  `json:"files_processed"`
	StartOffset    int64  `json:"start_offset"`
	MaxEstimate    int64  `json:"max_estimate"`
	Status         string `json:"status"`
}

// SaveTracking overwrites the drive-tracking snapshot, keyed by volume
// identifier.
func (s *Store) SaveTracking(tracking map[string]VolumeTracking) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create record dir: %w", err)
	}
	return writeJSON(filepath.Join(s.dir, trackingName), tracking)
}

// LoadTracking reads the drive-tracking snapshot. A missing or
// unreadable snapshot is an empty one.
func (s *Store) LoadTracking() map[string]VolumeTracking {
	tracking := make(map[string]VolumeTracking)
	if err := readJSON(filepath.Join(s.dir, trackingName), &tracking); err != nil {
		return make(map[string]VolumeTracking)
	}
	return tracking
}
