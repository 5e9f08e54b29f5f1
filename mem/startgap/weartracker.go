package startgap

import (
	"math"
)

// WearTracker counts writes per physical line. NumLines is known when the
// device is set up, so the counters live in one flat slice.
type WearTracker struct {
	counts []uint64
	total  uint64
}

// NewWearTracker allocates counters for numLines physical lines.
func NewWearTracker(numLines uint64) *WearTracker {
	return &WearTracker{
		counts: make([]uint64, numLines),
	}
}

// RecordWrite adds one write to a physical line. Counters saturate at
// math.MaxUint64 rather than wrap.
func (t *WearTracker) RecordWrite(physicalLine uint64) {
	if t.counts[physicalLine] != math.MaxUint64 {
		t.counts[physicalLine]++
	}

	if t.total != math.MaxUint64 {
		t.total++
	}
}

// Wear returns the writes recorded against a physical line.
func (t *WearTracker) Wear(physicalLine uint64) uint64 {
	return t.counts[physicalLine]
}

// TotalWrites returns the number of RecordWrite calls, saturated.
func (t *WearTracker) TotalWrites() uint64 {
	return t.total
}

// NumLines returns the number of tracked lines.
func (t *WearTracker) NumLines() uint64 {
	return uint64(len(t.counts))
}

// Counts returns a copy of all counters, indexed by physical line.
func (t *WearTracker) Counts() []uint64 {
	c := make([]uint64, len(t.counts))
	copy(c, t.counts)

	return c
}
