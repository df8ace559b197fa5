package estimate

import "github.com/lumipallolabs/textscan/internal/model"

// StalePolicy is the decision taken when a volume's cached count is
// past its validity window.
type StalePolicy int

const (
	// UseCached keeps the stale count as if it were valid.
	UseCached StalePolicy = iota
	// UseCachedAsSeed keeps the stale count as a provisional value and
	// schedules a recount to replace it.
	UseCachedAsSeed
	// DiscardDefault drops the stale count; the volume falls back to a
	// split-from-aggregate seed, if any.
	DiscardDefault
	// DiscardDefaultThenRecount drops the stale count and schedules a
	// recount.
	DiscardDefaultThenRecount
)

// PolicyResolver decides what to do with a stale cached count. The core
// never blocks on presentation: an interactive front end resolves the
// question ahead of the scan and hands the answer in here.
type PolicyResolver func(vol model.Volume, est VolumeEstimate) StalePolicy

// DefaultPolicy keeps the stale value for immediate feedback and
// refreshes it in the background.
func DefaultPolicy(model.Volume, VolumeEstimate) StalePolicy {
	return UseCachedAsSeed
}
