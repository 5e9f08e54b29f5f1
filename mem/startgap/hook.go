package startgap

import (
	"github.com/sarchlab/startgap/sim"
)

// Hook positions a Comp invokes.
var (
	// HookPosWrite fires after every recorded write. Item is a WriteDetail.
	HookPosWrite = &sim.HookPos{Name: "StartGapWrite"}

	// HookPosRotate fires after each gap movement. Item is a RotationDetail.
	HookPosRotate = &sim.HookPos{Name: "StartGapRotate"}

	// HookPosShutdown fires once, from Shutdown. Item is the final
	// StatsSnapshot.
	HookPosShutdown = &sim.HookPos{Name: "StartGapShutdown"}
)

// WriteDetail describes one recorded write.
type WriteDetail struct {
	// Seq is the 1-based index of the write on this device.
	Seq          uint64
	LogicalAddr  uint64
	PhysicalAddr uint64
	LogicalLine  uint64
	PhysicalLine uint64

	// LineWear is the physical line's write count including this write.
	LineWear uint64
}

// RotationDetail describes the registers right after a gap movement.
type RotationDetail struct {
	Rotation    uint64
	StartReg    uint64
	GapReg      uint64
	EpochEnded  bool
	TotalWrites uint64
}
