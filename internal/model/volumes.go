package model

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/disk"
)

// virtual filesystem types that are never worth scanning
var skipFstypes = map[string]bool{
	"proc": true, "sysfs": true, "devtmpfs": true, "devfs": true,
	"tmpfs": true, "overlay": true, "squashfs": true, "cgroup": true,
	"cgroup2": true, "autofs": true, "fusectl": true, "securityfs": true,
}

// Enumerate returns the host's mounted volumes as scan roots, system
// volume first. Virtual filesystems are skipped.
func Enumerate() ([]Volume, error) {
	parts, err := disk.Partitions(false)
	if err != nil {
		return nil, fmt.Errorf("list partitions: %w", err)
	}

	var volumes []Volume
	for _, p := range parts {
		if skipFstypes[p.Fstype] {
			continue
		}
		v, err := VolumeForPath(p.Mountpoint)
		if err != nil {
			continue
		}
		volumes = append(volumes, v)
	}

	// System volume first so it seeds weighted splits deterministically.
	for i, v := range volumes {
		if v.IsSystem && i != 0 {
			volumes[0], volumes[i] = volumes[i], volumes[0]
			break
		}
	}
	return volumes, nil
}

// VolumeForPath builds a Volume for an arbitrary scan root, querying
// used and total bytes from the filesystem backing it.
func VolumeForPath(path string) (Volume, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Volume{}, err
	}

	v := Volume{
		ID:       IDForPath(abs),
		Path:     abs,
		Label:    filepath.Base(abs),
		IsSystem: isSystemRoot(abs),
		State:    VolumePending,
	}

	if usage, err := disk.Usage(abs); err == nil {
		v.TotalBytes = usage.Total
		v.UsedBytes = usage.Used
	}
	return v, nil
}

func isSystemRoot(path string) bool {
	if runtime.GOOS == "windows" {
		sysDrive := os.Getenv("SystemDrive")
		if sysDrive == "" {
			sysDrive = "C:"
		}
		return strings.EqualFold(filepath.VolumeName(path)+`\`, sysDrive+`\`) &&
			filepath.Dir(path) == path
	}
	return path == "/"
}
