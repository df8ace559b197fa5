package scanner

import "github.com/lumipallolabs/textscan/internal/model"

// Event represents a notification from the scan engine
type Event interface {
	isEvent()
}

// StartedEvent is emitted once when the walk begins.
type StartedEvent struct {
	Volumes int
	Resume  bool
}

func (StartedEvent) isEvent() {}

// VolumeStartedEvent is emitted when a volume's walk begins.
type VolumeStartedEvent struct {
	Volume  model.Volume
	Resumed bool // a checkpoint was loaded for this volume
}

func (VolumeStartedEvent) isEvent() {}

// ProgressEvent is emitted after each completed directory and
// periodically during file enumeration.
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

// CompletedEvent carries the full accumulated result of the run.
type CompletedEvent struct {
	Result *Result
}

func (CompletedEvent) isEvent() {}

// AbortedEvent is emitted when the walk stops on cancellation. The
// last periodic checkpoint stands; nothing else is saved.
type AbortedEvent struct{}

func (AbortedEvent) isEvent() {}
