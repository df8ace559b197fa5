package estimate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVolumeCacheRoundTrip(t *testing.T) {
	c := NewCache(t.TempDir())

	require.NoError(t, c.SaveVolume("root", 123456))

	est, err := c.Volume("root")
	require.NoError(t, err)
	assert.Equal(t, int64(123456), est.Count)
	assert.Equal(t, "root", est.VolumeID)
	assert.False(t, est.Stale())
}

func TestVolumeCacheMissing(t *testing.T) {
	c := NewCache(t.TempDir())
	_, err := c.Volume("root")
	assert.ErrorIs(t, err, ErrMissing)
}

func TestGlobalCacheRoundTrip(t *testing.T) {
	c := NewCache(t.TempDir())

	_, err := c.Global()
	assert.ErrorIs(t, err, ErrMissing)

	require.NoError(t, c.SaveGlobal(999))
	est, err := c.Global()
	require.NoError(t, err)
	assert.Equal(t, int64(999), est.Count)
}

func TestVolumeCachesAreIndependent(t *testing.T) {
	c := NewCache(t.TempDir())
	require.NoError(t, c.SaveVolume("C", 10))
	require.NoError(t, c.SaveVolume("D", 20))

	est, err := c.Volume("C")
	require.NoError(t, err)
	assert.Equal(t, int64(10), est.Count)

	est, err = c.Volume("D")
	require.NoError(t, err)
	assert.Equal(t, int64(20), est.Count)
}

func TestStaleness(t *testing.T) {
	fresh := VolumeEstimate{Count: 1, Timestamp: time.Now().Add(-23 * time.Hour)}
	assert.False(t, fresh.Stale())

	old := VolumeEstimate{Count: 1, Timestamp: time.Now().Add(-25 * time.Hour)}
	assert.True(t, old.Stale())
}

func TestSaveVolumeSupersedes(t *testing.T) {
	c := NewCache(t.TempDir())
	require.NoError(t, c.SaveVolume("root", 100))
	require.NoError(t, c.SaveVolume("root", 200))

	est, err := c.Volume("root")
	require.NoError(t, err)
	assert.Equal(t, int64(200), est.Count)
}
