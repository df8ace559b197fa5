// Package estimate maintains historical file-count estimates and the
// counting walker that refreshes them. Estimates only drive the
// progress denominator; scan correctness never depends on them.
package estimate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Validity is how long a cached count is trusted before it goes stale.
const Validity = 24 * time.Hour

const (
	countName   = "file_counts.json"
	countPrefix = "file_counts."
)

// ErrMissing means no cached estimate exists.
var ErrMissing = errors.New("no cached estimate")

// VolumeEstimate is a historical file count for one volume.
type VolumeEstimate struct {
	Count     int64     `json:"count"`
	Timestamp time.Time `json:"timestamp"`
	VolumeID  string    `json:"volume_id"`
}

// Age returns how old the estimate is.
func (e VolumeEstimate) Age() time.Duration {
	return time.Since(e.Timestamp)
}

// Stale reports whether the estimate is past its validity window.
func (e VolumeEstimate) Stale() bool {
	return e.Age() >= Validity
}

// GlobalEstimate is the single historical total with no per-volume
// breakdown, used only to seed volumes that have no per-volume cache.
type GlobalEstimate struct {
	Count     int64     `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

// Stale reports whether the aggregate is past its validity window.
func (e GlobalEstimate) Stale() bool {
	return time.Since(e.Timestamp) >= Validity
}

// Cache reads and writes count records in a single directory.
type Cache struct {
	dir string
}

// NewCache creates a cache rooted at dir.
func NewCache(dir string) *Cache {
	return &Cache{dir: dir}
}

func (c *Cache) volumePath(volID string) string {
	return filepath.Join(c.dir, countPrefix+volID+".json")
}

// Volume returns the cached estimate for a volume, or ErrMissing.
func (c *Cache) Volume(volID string) (VolumeEstimate, error) {
	var est VolumeEstimate
	if err := readCount(c.volumePath(volID), &est); err != nil {
		return VolumeEstimate{}, ErrMissing
	}
	return est, nil
}

// SaveVolume records a fresh per-volume count. A real count written
// here permanently supersedes any split-from-aggregate value for the
// volume.
func (c *Cache) SaveVolume(volID string, count int64) error {
	est := VolumeEstimate{Count: count, Timestamp: time.Now(), VolumeID: volID}
	return c.write(c.volumePath(volID), est)
}

// Global returns the historical aggregate estimate, or ErrMissing.
func (c *Cache) Global() (GlobalEstimate, error) {
	var est GlobalEstimate
	if err := readCount(filepath.Join(c.dir, countName), &est); err != nil {
		return GlobalEstimate{}, ErrMissing
	}
	return est, nil
}

// SaveGlobal records a fresh aggregate total.
func (c *Cache) SaveGlobal(count int64) error {
	est := GlobalEstimate{Count: count, Timestamp: time.Now()}
	return c.write(filepath.Join(c.dir, countName), est)
}

func (c *Cache) write(path string, v any) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func readCount(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
