// Package core wires the classification walker and the counting walker
// into one resumable scan and exposes their merged event stream.
package core

import (
	"context"
	"sync"

	"github.com/lumipallolabs/textscan/internal/checkpoint"
	"github.com/lumipallolabs/textscan/internal/estimate"
	"github.com/lumipallolabs/textscan/internal/exclude"
	"github.com/lumipallolabs/textscan/internal/model"
	"github.com/lumipallolabs/textscan/internal/scanner"
)

// ErrScanActive is returned when a scan is started while one runs.
// New scans are rejected, never queued.
var ErrScanActive = scanner.ErrScanActive

// Controller manages scan runs without any UI dependency.
type Controller struct {
	cfg    Config
	store  *checkpoint.Store
	cache  *estimate.Cache
	filter *exclude.Filter

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
}

// NewController creates a controller from an immutable configuration.
func NewController(cfg Config) *Controller {
	return &Controller{
		cfg:    cfg,
		store:  checkpoint.NewStore(cfg.RecordDir),
		cache:  estimate.NewCache(cfg.RecordDir),
		filter: exclude.New(cfg.SystemRoots),
	}
}

// Store exposes the record store, for the legacy import path.
func (c *Controller) Store() *checkpoint.Store {
	return c.store
}

// IsRunning reports whether a scan is active.
func (c *Controller) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Abort cancels the active scan, if any. Cooperative: the walkers stop
// at their next boundary and whatever was checkpointed stays valid.
func (c *Controller) Abort() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

// estimatePlan is the outcome of resolving cached estimates against
// the stale policy: what to display immediately, what the counter
// already knows for volumes it will not walk, and which volumes it
// must walk.
type estimatePlan struct {
	initial int64 // sum of cached, policy-kept and split-seeded counts
	seed    int64 // counter seed: trusted counts for unwalked volumes
	toCount []model.Volume
}

func (c *Controller) planEstimates(volumes []model.Volume) estimatePlan {
	var plan estimatePlan
	var noCache []model.Volume

	display := make(map[string]int64, len(volumes))
	for _, v := range volumes {
		est, err := c.cache.Volume(v.ID)
		if err != nil {
			// Never measured: seeded from the aggregate below, and
			// counted so a real value exists next time.
			noCache = append(noCache, v)
			plan.toCount = append(plan.toCount, v)
			continue
		}
		if !est.Stale() {
			display[v.ID] = est.Count
			plan.seed += est.Count
			continue
		}
		switch c.cfg.Policy(v, est) {
		case estimate.UseCached:
			display[v.ID] = est.Count
			plan.seed += est.Count
		case estimate.UseCachedAsSeed:
			// Shown right away, replaced by the recount.
			display[v.ID] = est.Count
			plan.toCount = append(plan.toCount, v)
		case estimate.DiscardDefault:
			noCache = append(noCache, v)
		case estimate.DiscardDefaultThenRecount:
			noCache = append(noCache, v)
			plan.toCount = append(plan.toCount, v)
		}
	}

	// The historical aggregate seeds only volumes with no usable
	// per-volume value, split by the weight model.
	if len(noCache) > 0 {
		if g, err := c.cache.Global(); err == nil {
			shares := estimate.SplitGlobal(g.Count, volumes)
			for _, v := range noCache {
				display[v.ID] = shares[v.ID]
			}
		}
	}

	for _, n := range display {
		plan.initial += n
	}
	return plan
}

// Start begins a scan over the volumes, resuming from checkpoints when
// resume is set. It returns the merged event channel, closed when both
// walkers are done. Only one scan may be active at a time.
func (c *Controller) Start(ctx context.Context, volumes []model.Volume, resume bool) (<-chan Event, error) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil, ErrScanActive
	}
	c.running = true
	ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()

	plan := c.planEstimates(volumes)

	engine := scanner.New(scanner.Config{
		MinFileSize:    c.cfg.MinFileSize,
		SaveBatch:      c.cfg.SaveBatch,
		SaveInterval:   c.cfg.SaveInterval,
		EstimateBuffer: c.cfg.EstimateBuffer,
		Log:            c.cfg.Log,
	}, c.filter, c.store)
	engine.PrimeTotal(plan.initial)

	var counter *estimate.Counter
	if len(plan.toCount) > 0 {
		counter = estimate.NewCounter(c.filter, c.cfg.MinFileSize, c.cfg.Log)
		counter.Seed(plan.seed)
		engine.SetTotalSource(counter)
		go counter.Run(ctx, plan.toCount)
	}

	events := make(chan Event, 256)
	go c.merge(engine, counter, events)
	go func() {
		_, _ = engine.Run(ctx, volumes, resume)
	}()

	return events, nil
}

// merge forwards both walkers' events into one channel until both are
// done, then closes it and releases the run slot.
func (c *Controller) merge(engine *scanner.Engine, counter *estimate.Counter, out chan<- Event) {
	defer func() {
		close(out)
		c.mu.Lock()
		c.running = false
		c.cancel = nil
		c.mu.Unlock()
	}()

	scanCh := engine.Events()
	var countCh <-chan estimate.Event
	if counter != nil {
		countCh = counter.Events()
	}

	for scanCh != nil || countCh != nil {
		select {
		case ev, ok := <-scanCh:
			if !ok {
				scanCh = nil
				continue
			}
			if t := c.translateScan(ev); t != nil {
				out <- t
			}
		case ev, ok := <-countCh:
			if !ok {
				countCh = nil
				continue
			}
			if t := c.translateCount(ev, engine); t != nil {
				out <- t
			}
		}
	}
}

func (c *Controller) translateScan(ev scanner.Event) Event {
	switch e := ev.(type) {
	case scanner.StartedEvent:
		return ScanStartedEvent{Volumes: e.Volumes, Resume: e.Resume}
	case scanner.VolumeStartedEvent:
		return VolumeStartedEvent{Volume: e.Volume, Resumed: e.Resumed}
	case scanner.ProgressEvent:
		return ProgressEvent{
			CurrentPath:    e.CurrentPath,
			FilesProcessed: e.FilesProcessed,
			TotalEstimate:  e.TotalEstimate,
			VolumeID:       e.VolumeID,
		}
	case scanner.CheckpointSavedEvent:
		return CheckpointSavedEvent{VolumeID: e.VolumeID, Files: e.Files, Dirs: e.Dirs}
	case scanner.VolumeCompletedEvent:
		return VolumeCompletedEvent{VolumeID: e.VolumeID, Files: e.Files}
	case scanner.CompletedEvent:
		return ScanCompletedEvent{Result: e.Result}
	case scanner.AbortedEvent:
		return ScanAbortedEvent{}
	default:
		return nil
	}
}

func (c *Controller) translateCount(ev estimate.Event, engine *scanner.Engine) Event {
	switch e := ev.(type) {
	case estimate.VolumeCountedEvent:
		return EstimateUpdatedEvent{VolumeID: e.VolumeID, Total: e.Running}
	case estimate.DoneEvent:
		// The completed recount supersedes every provisional value and
		// refreshes the caches for the measured volumes.
		engine.SetFinalTotal(e.Total)
		for id, n := range e.PerVolume {
			if err := c.cache.SaveVolume(id, n); err != nil {
				c.cfg.Log.Printf("save count cache for %s: %v", id, err)
			}
		}
		if err := c.cache.SaveGlobal(e.Total); err != nil {
			c.cfg.Log.Printf("save global count cache: %v", err)
		}
		return CountCompletedEvent{Total: e.Total}
	default:
		return nil
	}
}
