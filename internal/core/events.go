package core

import (
	"github.com/lumipallolabs/textscan/internal/model"
	"github.com/lumipallolabs/textscan/internal/scanner"
)

// Event represents a state change from the controller. Events are FIFO
// per emitter; there is no ordering guarantee between the scan walker's
// events and the counting walker's.
type Event interface {
	isEvent()
}

// ScanStartedEvent is emitted when a scan begins.
type ScanStartedEvent struct {
	Volumes int
	Resume  bool
}

func (ScanStartedEvent) isEvent() {}

// VolumeStartedEvent is emitted when a volume's walk begins.
type VolumeStartedEvent struct {
	Volume  model.Volume
	Resumed bool
}

func (VolumeStartedEvent) isEvent() {}

// ProgressEvent is emitted during scanning.
type ProgressEvent struct {
	CurrentPath    string
	FilesProcessed int64
	TotalEstimate  int64
	VolumeID       string
}

func (ProgressEvent) isEvent() {}

// CheckpointSavedEvent is emitted after a periodic checkpoint write.
type CheckpointSavedEvent struct {
	VolumeID string
	Files    int
	Dirs     int
}

func (CheckpointSavedEvent) isEvent() {}

// VolumeCompletedEvent is emitted when a volume's walk finishes.
type VolumeCompletedEvent struct {
	VolumeID string
	Files    int
}

func (VolumeCompletedEvent) isEvent() {}

// EstimateUpdatedEvent is emitted when the counting walker finishes a
// volume and the running total grows.
type EstimateUpdatedEvent struct {
	VolumeID string
	Total    int64
}

func (EstimateUpdatedEvent) isEvent() {}

// CountCompletedEvent is emitted when the counting walker has measured
// all of its assigned volumes. Its total supersedes every provisional
// estimate.
type CountCompletedEvent struct {
	Total int64
}

func (CountCompletedEvent) isEvent() {}

// ScanCompletedEvent carries the final accumulated result.
type ScanCompletedEvent struct {
	Result *scanner.Result
}

func (ScanCompletedEvent) isEvent() {}

// ScanAbortedEvent is emitted when the scan stops on cancellation.
type ScanAbortedEvent struct{}

func (ScanAbortedEvent) isEvent() {}
