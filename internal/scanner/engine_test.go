package scanner

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumipallolabs/textscan/internal/checkpoint"
	"github.com/lumipallolabs/textscan/internal/exclude"
	"github.com/lumipallolabs/textscan/internal/model"
)

func testConfig() Config {
	return Config{
		MinFileSize:    256,
		SaveBatch:      100,
		SaveInterval:   30 * time.Second,
		EstimateBuffer: 100,
		Log:            log.New(io.Discard, "", 0),
	}
}

func writeText(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{'a'}, size), 0644))
}

func writeBinary(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{0x00}, size), 0644))
}

func drainEvents(e *Engine) []Event {
	var events []Event
	for ev := range e.Events() {
		events = append(events, ev)
	}
	return events
}

func TestEngineFullScan(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(tmp, "sub"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(tmp, ".hidden"), 0755))

	writeText(t, filepath.Join(tmp, "doc.txt"), 300)
	writeText(t, filepath.Join(tmp, "tiny.txt"), 4) // below size gate
	writeBinary(t, filepath.Join(tmp, "blob.bin"), 300)
	writeText(t, filepath.Join(tmp, "sub", "nested.txt"), 300)
	writeText(t, filepath.Join(tmp, ".hidden", "secret.txt"), 300) // pruned

	store := checkpoint.NewStore(t.TempDir())
	e := New(testConfig(), exclude.New(nil), store)

	res, err := e.Run(context.Background(), []model.Volume{{ID: "test", Path: tmp}}, false)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, e.State())

	assert.ElementsMatch(t, []string{
		filepath.Join(tmp, "doc.txt"),
		filepath.Join(tmp, "sub", "nested.txt"),
	}, res.Files)

	// Detected entries carry size and a MIME label.
	require.Len(t, res.Detected, 2)
	for _, d := range res.Detected {
		assert.Equal(t, int64(300), d.Size)
		assert.NotEmpty(t, d.MIME)
	}

	// The compacted directory set covers the whole walked tree.
	cover := checkpoint.NewCoverSet(res.Dirs)
	assert.True(t, cover.Covers(tmp))

	// The final per-volume checkpoint is loadable and complete.
	cp, err := store.Load("test")
	require.NoError(t, err)
	assert.ElementsMatch(t, res.Files, cp.Files)
}

func TestEngineResumeSkipsCoveredSubtrees(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(tmp, "a", "b"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(tmp, "d"), 0755))
	writeText(t, filepath.Join(tmp, "a", "b", "file.txt"), 300)
	writeText(t, filepath.Join(tmp, "d", "file.txt"), 300)

	store := checkpoint.NewStore(t.TempDir())
	prevFile := filepath.Join(tmp, "a", "prev.txt")
	require.NoError(t, store.Save("test", []string{prevFile}, []string{filepath.Join(tmp, "a")}))

	e := New(testConfig(), exclude.New(nil), store)
	res, err := e.Run(context.Background(), []model.Volume{{ID: "test", Path: tmp}}, true)
	require.NoError(t, err)

	// The covered subtree was not re-walked: its file is absent from
	// this run's detections, while the carried-over checkpoint entry
	// and the newly walked subtree are both present.
	assert.ElementsMatch(t, []string{prevFile, filepath.Join(tmp, "d", "file.txt")}, res.Files)
	for _, d := range res.Detected {
		assert.NotContains(t, d.Path, filepath.Join("a", "b"))
	}
}

func TestEngineResumeWithoutCheckpointScansFully(t *testing.T) {
	tmp := t.TempDir()
	writeText(t, filepath.Join(tmp, "doc.txt"), 300)

	store := checkpoint.NewStore(t.TempDir())
	e := New(testConfig(), exclude.New(nil), store)

	res, err := e.Run(context.Background(), []model.Volume{{ID: "test", Path: tmp}}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(tmp, "doc.txt")}, res.Files)
}

func TestEngineAbort(t *testing.T) {
	tmp := t.TempDir()
	writeText(t, filepath.Join(tmp, "doc.txt"), 300)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := New(testConfig(), exclude.New(nil), checkpoint.NewStore(t.TempDir()))
	res, err := e.Run(ctx, []model.Volume{{ID: "test", Path: tmp}}, false)

	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateAborted, e.State())

	events := drainEvents(e)
	_, isAborted := events[len(events)-1].(AbortedEvent)
	assert.True(t, isAborted, "last event should be the abort")
}

func TestEngineRejectsSecondRun(t *testing.T) {
	tmp := t.TempDir()
	store := checkpoint.NewStore(t.TempDir())
	e := New(testConfig(), exclude.New(nil), store)

	_, err := e.Run(context.Background(), []model.Volume{{ID: "test", Path: tmp}}, false)
	require.NoError(t, err)

	_, err = e.Run(context.Background(), []model.Volume{{ID: "test", Path: tmp}}, false)
	assert.ErrorIs(t, err, ErrEngineUsed)
}

func TestEngineRejectsRunAfterAbort(t *testing.T) {
	tmp := t.TempDir()
	writeText(t, filepath.Join(tmp, "doc.txt"), 300)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := New(testConfig(), exclude.New(nil), checkpoint.NewStore(t.TempDir()))
	_, err := e.Run(ctx, []model.Volume{{ID: "test", Path: tmp}}, false)
	require.ErrorIs(t, err, context.Canceled)

	_, err = e.Run(context.Background(), []model.Volume{{ID: "test", Path: tmp}}, false)
	assert.ErrorIs(t, err, ErrEngineUsed)
}

func TestEngineProgressDenominatorNonDecreasing(t *testing.T) {
	tmp := t.TempDir()
	for _, name := range []string{"a", "b", "c", "d"} {
		require.NoError(t, os.MkdirAll(filepath.Join(tmp, name), 0755))
		writeText(t, filepath.Join(tmp, name, "f.txt"), 300)
	}

	e := New(testConfig(), exclude.New(nil), checkpoint.NewStore(t.TempDir()))
	e.PrimeTotal(2)

	_, err := e.Run(context.Background(), []model.Volume{{ID: "test", Path: tmp}}, false)
	require.NoError(t, err)

	var last int64
	for _, ev := range drainEvents(e) {
		p, ok := ev.(ProgressEvent)
		if !ok {
			continue
		}
		assert.GreaterOrEqual(t, p.TotalEstimate, last, "denominator decreased")
		assert.GreaterOrEqual(t, p.TotalEstimate, p.FilesProcessed, "denominator fell below numerator")
		last = p.TotalEstimate
	}
}

type fixedTotal int64

func (f fixedTotal) Current() int64 { return int64(f) }

func TestEngineUsesTotalSource(t *testing.T) {
	tmp := t.TempDir()
	writeText(t, filepath.Join(tmp, "doc.txt"), 300)

	e := New(testConfig(), exclude.New(nil), checkpoint.NewStore(t.TempDir()))
	e.SetTotalSource(fixedTotal(5000))

	_, err := e.Run(context.Background(), []model.Volume{{ID: "test", Path: tmp}}, false)
	require.NoError(t, err)

	var sawEstimate bool
	for _, ev := range drainEvents(e) {
		if p, ok := ev.(ProgressEvent); ok && p.TotalEstimate == 5000 {
			sawEstimate = true
		}
	}
	assert.True(t, sawEstimate)
}

func TestEngineFinalTotalSupersedes(t *testing.T) {
	tmp := t.TempDir()
	for _, name := range []string{"a", "b"} {
		require.NoError(t, os.MkdirAll(filepath.Join(tmp, name), 0755))
		writeText(t, filepath.Join(tmp, name, "f.txt"), 300)
	}

	e := New(testConfig(), exclude.New(nil), checkpoint.NewStore(t.TempDir()))
	e.PrimeTotal(9000)
	e.SetFinalTotal(250)

	_, err := e.Run(context.Background(), []model.Volume{{ID: "test", Path: tmp}}, false)
	require.NoError(t, err)

	events := drainEvents(e)
	var lastProgress *ProgressEvent
	for _, ev := range events {
		if p, ok := ev.(ProgressEvent); ok {
			lastProgress = &p
		}
	}
	require.NotNil(t, lastProgress)
	assert.Equal(t, int64(250), lastProgress.TotalEstimate)
}

func TestResultMIMECounts(t *testing.T) {
	res := &Result{Detected: []model.DetectedFile{
		{Path: "/a.txt", MIME: "text/plain; charset=utf-8"},
		{Path: "/b.txt", MIME: "text/plain; charset=utf-8"},
		{Path: "/c.csv", MIME: "text/csv"},
		{Path: "/d.xml", MIME: "text/xml; charset=utf-8"},
	}}

	counts := res.MIMECounts()
	require.Len(t, counts, 3)
	assert.Equal(t, MIMECount{Label: "text/plain; charset=utf-8", Count: 2}, counts[0])
	// Equal counts order alphabetically.
	assert.Equal(t, "text/csv", counts[1].Label)
	assert.Equal(t, "text/xml; charset=utf-8", counts[2].Label)

	assert.Empty(t, (&Result{}).MIMECounts())
}

func TestEngineScanYieldsMIMESummary(t *testing.T) {
	tmp := t.TempDir()
	writeText(t, filepath.Join(tmp, "one.txt"), 300)
	writeText(t, filepath.Join(tmp, "two.txt"), 300)

	e := New(testConfig(), exclude.New(nil), checkpoint.NewStore(t.TempDir()))
	res, err := e.Run(context.Background(), []model.Volume{{ID: "test", Path: tmp}}, false)
	require.NoError(t, err)

	counts := res.MIMECounts()
	require.Len(t, counts, 1)
	assert.Equal(t, 2, counts[0].Count)
	assert.Contains(t, counts[0].Label, "text/plain")
}

func TestEngineTrackingPersisted(t *testing.T) {
	tmp := t.TempDir()
	writeText(t, filepath.Join(tmp, "doc.txt"), 300)

	store := checkpoint.NewStore(t.TempDir())
	e := New(testConfig(), exclude.New(nil), store)

	_, err := e.Run(context.Background(), []model.Volume{{ID: "test", Path: tmp}}, false)
	require.NoError(t, err)

	tracking := store.LoadTracking()
	tr, ok := tracking["test"]
	require.True(t, ok)
	assert.Equal(t, int64(1), tr.FilesProcessed)
	assert.Equal(t, model.VolumeCompleted.String(), tr.Status)
}
