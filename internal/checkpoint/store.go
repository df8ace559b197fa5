// Package checkpoint persists per-volume scan progress: the detected
// text files and the processed-directory cover set a later run resumes
// from.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	resultsName    = "detected_text_files.json"
	parsedDirsName = "parsed_directories.json"
	progressSuffix = ".progress"
)

// ErrNotFound means a volume has no usable checkpoint.
var ErrNotFound = errors.New("checkpoint not found")

// Checkpoint is one volume's persisted progress.
type Checkpoint struct {
	Files []string // detected text files, in detection order
	Dirs  []string // compacted processed-directory set
}

// Store reads and writes checkpoint records in a single directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// DefaultDir returns the default record directory
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".textscan"
	}
	return filepath.Join(home, ".textscan")
}

// Dir returns the directory the store writes into.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) volumeFilesPath(volID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s.%s%s", resultsName, volID, progressSuffix))
}

func (s *Store) volumeDirsPath(volID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s.%s%s", parsedDirsName, volID, progressSuffix))
}

// Save overwrites the volume's two record files. The directory set is
// compacted to its topmost form before writing, so a record never grows
// beyond the cover set needed for resume.
func (s *Store) Save(volID string, files, dirs []string) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create record dir: %w", err)
	}
	if err := writeJSON(s.volumeFilesPath(volID), files); err != nil {
		return fmt.Errorf("save detected files: %w", err)
	}
	if err := writeJSON(s.volumeDirsPath(volID), ComputeTopmost(dirs)); err != nil {
		return fmt.Errorf("save processed dirs: %w", err)
	}
	return nil
}

// Load reads the volume's checkpoint. A volume with only one of its two
// record files present, or with an unreadable record, has no
// checkpoint: both cases return ErrNotFound so the caller falls back to
// a full scan.
func (s *Store) Load(volID string) (Checkpoint, error) {
	var cp Checkpoint
	if err := readJSON(s.volumeFilesPath(volID), &cp.Files); err != nil {
		return Checkpoint{}, ErrNotFound
	}
	if err := readJSON(s.volumeDirsPath(volID), &cp.Dirs); err != nil {
		return Checkpoint{}, ErrNotFound
	}
	return cp, nil
}

// SaveResults writes the final global records: the full detected-file
// list and the compacted processed-directory list across all volumes.
func (s *Store) SaveResults(files, dirs []string) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create record dir: %w", err)
	}
	if err := writeJSON(filepath.Join(s.dir, resultsName), files); err != nil {
		return fmt.Errorf("save results: %w", err)
	}
	if err := writeJSON(filepath.Join(s.dir, parsedDirsName), ComputeTopmost(dirs)); err != nil {
		return fmt.Errorf("save result dirs: %w", err)
	}
	return nil
}

// writeJSON writes v as indented JSON with write-then-replace
// semantics: an interrupted write never corrupts an existing record.
func writeJSON(path string, v any) error {
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

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
