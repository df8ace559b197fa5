package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lumipallolabs/textscan/internal/core"
	"github.com/lumipallolabs/textscan/internal/model"
	"github.com/lumipallolabs/textscan/internal/scanner"
)

func TestViewCompletionShowsMIMEBreakdown(t *testing.T) {
	a := NewApp(nil, nil)
	a.apply(core.ScanStartedEvent{Volumes: 1})
	a.apply(core.ScanCompletedEvent{Result: &scanner.Result{
		Files: []string{"/a.txt", "/b.txt", "/c.csv"},
		Detected: []model.DetectedFile{
			{Path: "/a.txt", MIME: "text/plain; charset=utf-8"},
			{Path: "/b.txt", MIME: "text/plain; charset=utf-8"},
			{Path: "/c.csv", MIME: "text/csv"},
		},
	}})

	view := a.View()
	assert.Contains(t, view, "Scan complete")
	assert.Contains(t, view, "text/plain; charset=utf-8")
	assert.Contains(t, view, "text/csv")
}

func TestViewVolumeHeaderClampsAtTotal(t *testing.T) {
	a := NewApp(nil, nil)
	a.apply(core.ScanStartedEvent{Volumes: 2})
	a.apply(core.VolumeStartedEvent{Volume: model.Volume{ID: "v2", Path: "/data"}})
	a.apply(core.VolumeCompletedEvent{VolumeID: "v1", Files: 1})
	a.apply(core.VolumeCompletedEvent{VolumeID: "v2", Files: 1})

	// Both volumes are done but the result has not arrived yet.
	assert.Contains(t, a.View(), "Volume 2/2")
}
