package estimate

import (
	"context"
	"io/fs"
	"log"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"

	"github.com/lumipallolabs/textscan/internal/exclude"
	"github.com/lumipallolabs/textscan/internal/model"
)

// Event is a counting-walker notification.
type Event interface {
	isEvent()
}

// VolumeCountedEvent is emitted when one assigned volume has been
// fully counted.
type VolumeCountedEvent struct {
	VolumeID string
	Count    int64 // files counted on this volume
	Running  int64 // running total including seeds
}

func (VolumeCountedEvent) isEvent() {}

// DoneEvent is emitted once after all assigned volumes are counted.
// Its total supersedes every provisional estimate.
type DoneEvent struct {
	Total     int64
	PerVolume map[string]int64 // measured volumes only
}

func (DoneEvent) isEvent() {}

// Counter walks volumes that lack a valid cached count, accumulating a
// running file total. It applies the same directory exclusions and
// size gate as the classification walker but never reads file content,
// so it runs far ahead of it.
//
// The running total is a single atomic scalar: the scanning side reads
// it through Current at any time without blocking either walker.
type Counter struct {
	filter  *exclude.Filter
	minSize int64
	log     *log.Logger

	running atomic.Int64
	events  chan Event
}

// NewCounter creates a counting walker.
func NewCounter(filter *exclude.Filter, minSize int64, logger *log.Logger) *Counter {
	return &Counter{
		filter:  filter,
		minSize: minSize,
		log:     logger,
		events:  make(chan Event, 16),
	}
}

// Seed adds counts already known from caches or splits for volumes the
// counter will not walk, so Current reflects the whole volume set.
func (c *Counter) Seed(n int64) {
	c.running.Add(n)
}

// Current returns the best total known right now. Non-blocking; never
// a recount.
func (c *Counter) Current() int64 {
	return c.running.Load()
}

// Events returns the notification channel. Closed when Run returns.
func (c *Counter) Events() <-chan Event {
	return c.events
}

// Run counts the assigned volumes in order and closes the event
// channel when done. Cancellation stops the walk at the next entry
// boundary; no DoneEvent is emitted in that case.
func (c *Counter) Run(ctx context.Context, volumes []model.Volume) {
	defer close(c.events)

	perVolume := make(map[string]int64, len(volumes))
	for _, v := range volumes {
		if ctx.Err() != nil {
			return
		}
		n := c.countVolume(ctx, v)
		if ctx.Err() != nil {
			return
		}
		perVolume[v.ID] = n
		c.events <- VolumeCountedEvent{VolumeID: v.ID, Count: n, Running: c.running.Load()}
	}

	c.events <- DoneEvent{Total: c.running.Load(), PerVolume: perVolume}
}

func (c *Counter) countVolume(ctx context.Context, vol model.Volume) int64 {
	var count atomic.Int64

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, vol.Path, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return fs.SkipAll
		}
		if err != nil {
			return nil // unreadable entry, skip
		}
		if d.IsDir() {
			if c.filter.IsExcluded(path) {
				return fastwalk.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Size() < c.minSize {
			return nil
		}
		count.Add(1)
		c.running.Add(1)
		return nil
	})
	if err != nil && ctx.Err() == nil {
		c.log.Printf("count walk of %s: %v", vol.Path, err)
	}
	return count.Load()
}
