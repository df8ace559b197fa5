package model

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDForPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		assert.Equal(t, "C", IDForPath(`C:\`))
		assert.Equal(t, "D", IDForPath(`D:\`))
		return
	}
	assert.Equal(t, "root", IDForPath("/"))
	assert.Equal(t, "mntdata", IDForPath("/mnt/data"))
	// Trailing separators do not change the identity.
	assert.Equal(t, IDForPath("/mnt/data"), IDForPath("/mnt/data/"))
}

func TestVolumeStateString(t *testing.T) {
	assert.Equal(t, "pending", VolumePending.String())
	assert.Equal(t, "scanning", VolumeScanning.String())
	assert.Equal(t, "completed", VolumeCompleted.String())
}

func TestVolumeForPath(t *testing.T) {
	tmp := t.TempDir()
	v, err := VolumeForPath(tmp)
	assert.NoError(t, err)
	assert.Equal(t, tmp, v.Path)
	assert.Equal(t, IDForPath(tmp), v.ID)
	assert.Equal(t, VolumePending, v.State)
}
