// Package scanner holds the classification walker: a depth-first,
// checkpointed descent over each volume that classifies eligible files
// as text and survives interruption.
package scanner

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"time"

	"github.com/lumipallolabs/textscan/internal/checkpoint"
	"github.com/lumipallolabs/textscan/internal/classify"
	"github.com/lumipallolabs/textscan/internal/exclude"
	"github.com/lumipallolabs/textscan/internal/model"
)

// ErrScanActive is returned when a walk is started on an engine that
// is currently running. ErrEngineUsed is returned when Run is called
// again on a finished engine; one engine runs exactly one scan.
var (
	ErrScanActive = errors.New("scan already running")
	ErrEngineUsed = errors.New("engine already finished a scan")
)

// emission cadence during file enumeration
const (
	earlyEmitFiles  = 10
	emitEveryNFiles = 50
)

// State is the engine lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateAborted
)

// Config carries the immutable knobs for one engine.
type Config struct {
	MinFileSize    int64         // size gate applied before sampling
	SaveBatch      int           // checkpoint after this many directories
	SaveInterval   time.Duration // or after this much time, whichever first
	EstimateBuffer int64         // headroom when the estimate falls behind
	Log            *log.Logger
}

// TotalSource answers non-blocking "current best total" snapshot
// requests. Satisfied by estimate.Counter.
type TotalSource interface {
	Current() int64
}

// Result is the full accumulated outcome of a run, including files and
// directories carried over from resumed checkpoints.
type Result struct {
	Files    []string             // every detected file, all volumes
	Dirs     []string             // compacted processed-directory set
	Detected []model.DetectedFile // files detected by this run, with MIME labels
}

// MIMECount is one line of the detection summary.
type MIMECount struct {
	Label string
	Count int
}

// MIMECounts aggregates the run's detections by MIME label, most
// common first. Ties break alphabetically so the ordering is stable.
// Files carried over from resumed checkpoints have no label and are
// not counted.
func (r *Result) MIMECounts() []MIMECount {
	byLabel := make(map[string]int)
	for _, d := range r.Detected {
		byLabel[d.MIME]++
	}
	counts := make([]MIMECount, 0, len(byLabel))
	for label, n := range byLabel {
		counts = append(counts, MIMECount{Label: label, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Label < counts[j].Label
	})
	return counts
}

// Engine walks volumes depth-first, classifying files and writing
// periodic checkpoints. One engine runs one scan.
type Engine struct {
	cfg    Config
	filter *exclude.Filter
	store  *checkpoint.Store
	total  TotalSource

	den      *denominator
	events   chan Event
	status   atomic.Int32
	tracking map[string]checkpoint.VolumeTracking

	// final recount, installed from the estimator's goroutine
	finalTotal atomic.Int64
	finalSet   atomic.Bool
}

// New creates an idle engine.
func New(cfg Config, filter *exclude.Filter, store *checkpoint.Store) *Engine {
	return &Engine{
		cfg:      cfg,
		filter:   filter,
		store:    store,
		den:      newDenominator(cfg.EstimateBuffer),
		events:   make(chan Event, 256),
		tracking: make(map[string]checkpoint.VolumeTracking),
	}
}

// SetTotalSource wires the counting walker's snapshot endpoint.
func (e *Engine) SetTotalSource(src TotalSource) {
	e.total = src
}

// PrimeTotal seeds the progress denominator before the walk starts.
func (e *Engine) PrimeTotal(n int64) {
	e.den.apply(n)
}

// SetFinalTotal installs a completed recount. Safe to call from
// another goroutine; the walker picks it up at its next emission.
func (e *Engine) SetFinalTotal(total int64) {
	e.finalTotal.Store(total)
	e.finalSet.Store(true)
}

// Events returns the notification channel. Closed when Run returns.
func (e *Engine) Events() <-chan Event {
	return e.events
}

// State returns the engine lifecycle state.
func (e *Engine) State() State {
	return State(e.status.Load())
}

// Run walks the volumes in order and returns the accumulated result.
// With resume set, each volume's loaded checkpoint prunes the walk:
// any directory covered by the checkpoint's topmost set is skipped
// without enumeration. Cancellation is cooperative, observed at
// directory and file boundaries; an aborted run returns ctx.Err() and
// leaves the last periodic checkpoint as the resume point.
func (e *Engine) Run(ctx context.Context, volumes []model.Volume, resume bool) (*Result, error) {
	if !e.status.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		if e.State() == StateRunning {
			return nil, ErrScanActive
		}
		return nil, ErrEngineUsed
	}
	defer close(e.events)

	e.tracking = e.store.LoadTracking()
	e.emitSync(StartedEvent{Volumes: len(volumes), Resume: resume})

	res := &Result{}
	for i := range volumes {
		if err := e.scanVolume(ctx, &volumes[i], resume, res); err != nil {
			e.status.Store(int32(StateAborted))
			e.emitSync(AbortedEvent{})
			return nil, err
		}
	}

	if err := e.store.SaveResults(res.Files, res.Dirs); err != nil {
		e.cfg.Log.Printf("save final results: %v", err)
	}
	e.status.Store(int32(StateCompleted))
	e.emitSync(CompletedEvent{Result: res})
	return res, nil
}

// volumeScan is the mutable walk state for one volume.
type volumeScan struct {
	vol           *model.Volume
	cover         *checkpoint.CoverSet
	files         []string
	detected      []model.DetectedFile
	dirs          []string
	offset        int64 // files processed by previous runs
	filesWalked   int64 // files processed by this run, this volume
	dirsSinceSave int
	lastSave      time.Time
}

func (e *Engine) scanVolume(ctx context.Context, vol *model.Volume, resume bool, res *Result) error {
	vs := &volumeScan{
		vol:      vol,
		cover:    checkpoint.NewCoverSet(nil),
		lastSave: time.Now(),
	}

	resumed := false
	if resume {
		if cp, err := e.store.Load(vol.ID); err == nil {
			vs.files = cp.Files
			vs.dirs = cp.Dirs
			vs.cover = checkpoint.NewCoverSet(cp.Dirs)
			resumed = true
		}
		tr := e.tracking[vol.ID]
		vs.offset = tr.FilesProcessed
		e.den.addProcessed(vs.offset)
		if tr.MaxEstimate > 0 {
			e.den.apply(tr.MaxEstimate)
		}
	}

	vol.State = model.VolumeScanning
	e.recordTracking(vs)
	e.emitSync(VolumeStartedEvent{Volume: *vol, Resumed: resumed})

	if err := e.walkDir(ctx, vs, vol.Path); err != nil {
		// No forced save: the last periodic checkpoint stands.
		return err
	}

	vol.State = model.VolumeCompleted
	e.checkpointNow(vs)

	res.Files = append(res.Files, vs.files...)
	res.Dirs = append(res.Dirs, vs.dirs...)
	res.Detected = append(res.Detected, vs.detected...)
	e.emitSync(VolumeCompletedEvent{VolumeID: vol.ID, Files: len(vs.files)})
	return nil
}

// walkDir processes dir and then descends, pre-order: direct files are
// evaluated and the directory marked processed before any child is
// entered, so a checkpointed directory certifies its own files.
func (e *Engine) walkDir(ctx context.Context, vs *volumeScan, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.filter.IsExcluded(dir) {
		return nil // prune
	}
	if vs.cover.Covers(dir) {
		return nil // subtree fully processed by an earlier run
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		// Unreadable directory: skipped and not marked processed, so
		// the next full scan retries it.
		e.cfg.Log.Printf("read dir %s: %v", dir, err)
		return nil
	}

	nfiles := 0
	for _, ent := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if ent.IsDir() || !ent.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, ent.Name())
		if e.processFile(vs, path, ent) {
			nfiles++
			if nfiles <= earlyEmitFiles || nfiles%emitEveryNFiles == 0 {
				e.emitProgress(vs, path)
			}
		}
	}

	vs.dirs = append(vs.dirs, dir)
	vs.dirsSinceSave++
	e.emitProgress(vs, dir)
	e.maybeCheckpoint(vs)

	for _, ent := range entries {
		if !ent.IsDir() {
			continue
		}
		if err := e.walkDir(ctx, vs, filepath.Join(dir, ent.Name())); err != nil {
			return err
		}
	}
	return nil
}

// processFile evaluates one file. Returns whether the file passed the
// size gate and counted toward progress. Per-file errors are logged
// and skipped; they never abort the walk.
func (e *Engine) processFile(vs *volumeScan, path string, ent os.DirEntry) bool {
	info, err := ent.Info()
	if err != nil {
		e.cfg.Log.Printf("stat %s: %v", path, err)
		return false
	}
	if info.Size() < e.cfg.MinFileSize {
		return false
	}

	vs.filesWalked++
	e.den.addProcessed(1)

	if isText, label := classify.SniffFile(path); isText {
		vs.files = append(vs.files, path)
		vs.detected = append(vs.detected, model.DetectedFile{
			Path: path,
			Size: info.Size(),
			MIME: label,
		})
	}
	return true
}

// maybeCheckpoint saves when either the directory batch or the time
// interval has been reached; both reset on save, bounding lost work
// and staleness independently.
func (e *Engine) maybeCheckpoint(vs *volumeScan) {
	if vs.dirsSinceSave < e.cfg.SaveBatch && time.Since(vs.lastSave) < e.cfg.SaveInterval {
		return
	}
	e.checkpointNow(vs)
}

func (e *Engine) checkpointNow(vs *volumeScan) {
	// The in-memory set is recompacted at every persist, matching what
	// the record holds.
	vs.dirs = checkpoint.ComputeTopmost(vs.dirs)

	if err := e.store.Save(vs.vol.ID, vs.files, vs.dirs); err != nil {
		// Not fatal: a later save may succeed.
		e.cfg.Log.Printf("checkpoint %s: %v", vs.vol.ID, err)
	} else {
		e.emit(CheckpointSavedEvent{VolumeID: vs.vol.ID, Files: len(vs.files), Dirs: len(vs.dirs)})
	}

	e.recordTracking(vs)
	vs.dirsSinceSave = 0
	vs.lastSave = time.Now()
}

func (e *Engine) recordTracking(vs *volumeScan) {
	e.tracking[vs.vol.ID] = checkpoint.VolumeTracking{
		FilesProcessed: vs.offset + vs.filesWalked,
		StartOffset:    vs.offset,
		MaxEstimate:    e.den.value(),
		Status:         vs.vol.State.String(),
	}
	if err := e.store.SaveTracking(e.tracking); err != nil {
		e.cfg.Log.Printf("save tracking: %v", err)
	}
}

func (e *Engine) emitProgress(vs *volumeScan, current string) {
	e.refreshEstimate()
	e.emit(ProgressEvent{
		CurrentPath:    current,
		FilesProcessed: e.den.processed,
		TotalEstimate:  e.den.value(),
		VolumeID:       vs.vol.ID,
	})
}

// refreshEstimate pulls the counting walker's snapshot. The exchange
// is one atomic read; neither walker ever waits on the other.
func (e *Engine) refreshEstimate() {
	if e.finalSet.Load() {
		e.den.setFinal(e.finalTotal.Load())
		return
	}
	if e.total != nil {
		e.den.apply(e.total.Current())
	}
	if e.den.nearExhausted() {
		// The snapshot could not move the bar. Grow the denominator
		// ahead of the numerator rather than letting it stall or
		// overflow.
		e.den.apply(e.den.processed + e.den.buffer)
	}
}

// emit drops progress-grade events when the consumer lags.
func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
	}
}

// emitSync delivers lifecycle events even to a slow consumer.
func (e *Engine) emitSync(ev Event) {
	e.events <- ev
}
