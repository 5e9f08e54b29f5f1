package startgap

// TranslationState is the register file of the Start-Gap remapper. The start
// register rotates the whole logical space by one line per epoch. The gap
// register names the one physical line that no logical line maps to; it is
// NumLines when no line is gapped.
type TranslationState struct {
	StartReg      uint64
	GapReg        uint64
	NumLines      uint64
	LineSizeBytes uint64
	Wrap          WrapPolicy
}

// NewTranslationState returns the initial state, (start 0, gap NumLines).
func NewTranslationState(
	numLines, lineSizeBytes uint64,
	wrap WrapPolicy,
) TranslationState {
	return TranslationState{
		StartReg:      0,
		GapReg:        numLines,
		NumLines:      numLines,
		LineSizeBytes: lineSizeBytes,
		Wrap:          wrap,
	}
}

// LineIndex returns the logical line an address falls into.
func (s TranslationState) LineIndex(logicalAddr uint64) uint64 {
	return (logicalAddr / s.LineSizeBytes) % s.NumLines
}

// PhysicalLine maps a logical line index in [0, NumLines) to a physical line.
func (s TranslationState) PhysicalLine(lineIndex uint64) uint64 {
	n := s.NumLines
	p := (lineIndex%n + s.StartReg) % n

	if p < s.GapReg {
		return p
	}

	p++
	if p < n {
		return p
	}

	return s.wrapTarget()
}

// wrapTarget is where a line that was pushed past the end by the gap skip
// lands. It never returns the gap unless there is only one line.
func (s TranslationState) wrapTarget() uint64 {
	target := uint64(0)
	if s.Wrap == WrapToStart {
		target = s.StartReg
	}

	if target == s.GapReg {
		target = (target + 1) % s.NumLines
	}

	return target
}

// LogicalToPhysical translates a byte address. The offset within the line
// is preserved.
func (s TranslationState) LogicalToPhysical(logicalAddr uint64) uint64 {
	offset := logicalAddr % s.LineSizeBytes
	physicalLine := s.PhysicalLine(s.LineIndex(logicalAddr))

	return physicalLine*s.LineSizeBytes + offset
}
