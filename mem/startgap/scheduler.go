package startgap

// RotationCounter counts writes since the last gap movement.
type RotationCounter struct {
	WritesSinceRotation uint64
	RotationInterval    uint64
}

// GapScheduler owns the translation registers and moves the gap by one line
// every RotationInterval writes.
type GapScheduler struct {
	State   TranslationState
	Counter RotationCounter

	disabled       bool
	totalRotations uint64
}

// NewGapScheduler creates a scheduler in the initial (0, NumLines) state.
func NewGapScheduler(state TranslationState, psi uint64) *GapScheduler {
	return &GapScheduler{
		State:   state,
		Counter: RotationCounter{RotationInterval: psi},
	}
}

// DisableRotation keeps the registers fixed. OnWrite then leaves the counter
// alone and never rotates.
func (s *GapScheduler) DisableRotation() {
	s.disabled = true
}

// RotationEnabled tells whether OnWrite can ever move the gap.
func (s *GapScheduler) RotationEnabled() bool {
	return !s.disabled
}

// TotalRotations returns the number of gap movements so far.
func (s *GapScheduler) TotalRotations() uint64 {
	return s.totalRotations
}

// OnWrite accounts for one write and reports whether it moved the gap.
func (s *GapScheduler) OnWrite() bool {
	if s.disabled {
		return false
	}

	s.Counter.WritesSinceRotation++
	if s.Counter.WritesSinceRotation < s.Counter.RotationInterval {
		return false
	}

	s.Rotate()
	s.Counter.WritesSinceRotation = 0

	return true
}

// Rotate moves the gap down by one line. When the gap has already reached
// line 0 it jumps back to NumLines and the start register advances, which
// ends one epoch.
func (s *GapScheduler) Rotate() {
	if s.State.GapReg == 0 {
		s.State.GapReg = s.State.NumLines
		s.State.StartReg = (s.State.StartReg + 1) % s.State.NumLines
	} else {
		s.State.GapReg--
	}

	s.totalRotations++
}
