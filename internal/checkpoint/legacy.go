package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lumipallolabs/textscan/internal/model"
)

// ImportLegacy converts the old combined-record format (one detected
// list and one directory list for all volumes) into per-volume records.
// Entries are grouped by their path's volume root, per-volume records
// are written, and the originals are renamed to timestamped backups so
// nothing is ever deleted. Returns false without error when no legacy
// records exist; both legacy files must be present for a migration to
// run.
func (s *Store) ImportLegacy() (bool, error) {
	legacyFiles := filepath.Join(s.dir, resultsName+progressSuffix)
	legacyDirs := filepath.Join(s.dir, parsedDirsName+progressSuffix)

	if !fileExists(legacyFiles) || !fileExists(legacyDirs) {
		return false, nil
	}

	var allFiles, allDirs []string
	if err := readJSON(legacyFiles, &allFiles); err != nil {
		return false, fmt.Errorf("read legacy detected files: %w", err)
	}
	if err := readJSON(legacyDirs, &allDirs); err != nil {
		return false, fmt.Errorf("read legacy parsed dirs: %w", err)
	}

	filesByVol := groupByVolume(allFiles)
	dirsByVol := groupByVolume(allDirs)

	volIDs := make(map[string]bool)
	for id := range filesByVol {
		volIDs[id] = true
	}
	for id := range dirsByVol {
		volIDs[id] = true
	}

	// A volume mentioned in either list gets both record files, so the
	// migrated checkpoint is loadable.
	for id := range volIDs {
		if err := writeJSON(s.volumeFilesPath(id), orEmpty(filesByVol[id])); err != nil {
			return false, fmt.Errorf("write records for volume %s: %w", id, err)
		}
		if err := writeJSON(s.volumeDirsPath(id), orEmpty(dirsByVol[id])); err != nil {
			return false, fmt.Errorf("write records for volume %s: %w", id, err)
		}
	}

	stamp := time.Now().Format("20060102_150405")
	if err := os.Rename(legacyFiles, legacyFiles+".backup_"+stamp); err != nil {
		return false, fmt.Errorf("back up legacy records: %w", err)
	}
	if err := os.Rename(legacyDirs, legacyDirs+".backup_"+stamp); err != nil {
		return false, fmt.Errorf("back up legacy records: %w", err)
	}
	return true, nil
}

// groupByVolume buckets paths by the identifier of their volume root:
// the drive component on Windows, the filesystem root elsewhere.
func groupByVolume(paths []string) map[string][]string {
	grouped := make(map[string][]string)
	for _, p := range paths {
		root := filepath.VolumeName(p)
		if root == "" {
			root = "/"
		} else {
			root += string(filepath.Separator)
		}
		id := model.IDForPath(root)
		grouped[id] = append(grouped[id], p)
	}
	return grouped
}

func orEmpty(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
