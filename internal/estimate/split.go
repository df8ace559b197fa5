package estimate

import "github.com/lumipallolabs/textscan/internal/model"

// systemWeight is the fixed baseline weight for the OS volume. The OS
// volume holds disproportionately many small files relative to its
// used bytes, so it gets a fixed share instead of a proportional one.
const systemWeight = 3.0

// SplitWeights assigns a relative weight to every volume: the system
// volume gets the fixed baseline, every other volume is weighted by its
// used bytes relative to the baseline volume's. When no system volume
// is identifiable the first volume acts as baseline.
func SplitWeights(volumes []model.Volume) map[string]float64 {
	if len(volumes) == 0 {
		return nil
	}

	baseline := -1
	for i, v := range volumes {
		if v.IsSystem {
			baseline = i
			break
		}
	}
	if baseline < 0 {
		baseline = 0
	}

	baseUsed := float64(volumes[baseline].UsedBytes)
	weights := make(map[string]float64, len(volumes))
	for i, v := range volumes {
		if i == baseline {
			weights[v.ID] = systemWeight
			continue
		}
		if baseUsed > 0 {
			weights[v.ID] = float64(v.UsedBytes) / baseUsed
		} else {
			weights[v.ID] = 1.0
		}
	}
	return weights
}

// SplitGlobal distributes a historical aggregate count across volumes
// in proportion to their weights, flooring each share. The sum of the
// shares never exceeds total; rounding loss is bounded by the volume
// count.
func SplitGlobal(total int64, volumes []model.Volume) map[string]int64 {
	weights := SplitWeights(volumes)
	if len(weights) == 0 {
		return nil
	}

	var sum float64
	for _, w := range weights {
		sum += w
	}

	shares := make(map[string]int64, len(weights))
	if sum <= 0 {
		return shares
	}
	for id, w := range weights {
		shares[id] = int64(float64(total) * (w / sum))
	}
	return shares
}
