package startgap

import (
	"math"
)

// StatsSnapshot summarizes how evenly the writes so far are spread over the
// physical lines. Only lines with at least one write take part in the wear
// figures.
type StatsSnapshot struct {
	TotalWrites        uint64
	TotalReads         uint64
	TotalRotations     uint64
	UniqueLinesWritten uint64

	MaxWear     uint64
	MinWear     uint64
	AverageWear float64

	// UniformityRatio is MaxWear/MinWear. 1.0 means perfectly even wear and 0
	// means nothing has been written yet.
	UniformityRatio float64

	// EstimatedLifetimeMultiplier is EnduranceLimit/MaxWear: how many more
	// times the observed traffic can repeat before the most worn line hits
	// its endurance limit. It is only meaningful when HasLifetimeEstimate is
	// set, which requires at least one write.
	EstimatedLifetimeMultiplier float64
	HasLifetimeEstimate         bool

	StartReg uint64
	GapReg   uint64
}

// Snapshot derives the wear statistics from per-line write counts. It does
// not modify counts.
func Snapshot(counts []uint64, enduranceLimit uint64) StatsSnapshot {
	s := StatsSnapshot{}

	var sum float64
	minWear := uint64(math.MaxUint64)

	for _, c := range counts {
		if c == 0 {
			continue
		}

		s.UniqueLinesWritten++
		sum += float64(c)

		if c > s.MaxWear {
			s.MaxWear = c
		}

		if c < minWear {
			minWear = c
		}
	}

	if s.UniqueLinesWritten == 0 {
		return s
	}

	s.MinWear = minWear
	s.AverageWear = sum / float64(s.UniqueLinesWritten)
	s.UniformityRatio = float64(s.MaxWear) / float64(s.MinWear)
	s.EstimatedLifetimeMultiplier =
		float64(enduranceLimit) / float64(s.MaxWear)
	s.HasLifetimeEstimate = true

	return s
}

// MaxToAverage is the uniformity ratio measured against the average line
// instead of the least worn one. It returns 0 for an empty snapshot.
func (s StatsSnapshot) MaxToAverage() float64 {
	if s.AverageWear == 0 {
		return 0
	}

	return float64(s.MaxWear) / s.AverageWear
}
