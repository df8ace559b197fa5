package scanner

// nearExhaustionPct is the numerator/denominator ratio past which the
// engine asks for a refreshed total instead of letting the bar stall.
const nearExhaustionPct = 95

// denominator tracks the progress-bar maximum for one run. Two rules
// keep the display sane while better counts trickle in:
//
//  1. the denominator never falls below work already confirmed
//     processed; a too-small candidate is replaced with
//     processed+buffer, and
//  2. a candidate is only displayed if it strictly exceeds the current
//     maximum, so the denominator is monotonically non-decreasing.
//
// The single exception is a completed full recount, whose total
// supersedes every provisional value.
type denominator struct {
	processed int64
	max       int64
	buffer    int64
	final     bool
}

func newDenominator(buffer int64) *denominator {
	return &denominator{buffer: buffer}
}

func (d *denominator) addProcessed(n int64) {
	d.processed += n
	// Even a final total never shows a numerator past the bar.
	if d.final && d.processed > d.max {
		d.max = d.processed
	}
}

// apply offers a provisional total. Ignored after a final total.
func (d *denominator) apply(candidate int64) {
	if d.final {
		return
	}
	if candidate < d.processed {
		candidate = d.processed + d.buffer
	}
	if candidate > d.max {
		d.max = candidate
	}
}

// setFinal installs a completed recount, superseding provisional
// values even downward. Still clamped to the confirmed numerator.
func (d *denominator) setFinal(total int64) {
	if total < d.processed {
		total = d.processed
	}
	d.max = total
	d.final = true
}

func (d *denominator) value() int64 {
	return d.max
}

func (d *denominator) nearExhausted() bool {
	return d.max > 0 && d.processed*100 >= d.max*nearExhaustionPct
}
