package startgap

import (
	"log"

	"github.com/sarchlab/startgap/sim"
)

// A LogHook prints device activity with a standard logger. Wrap it in a
// SampledHook to keep write logging affordable.
type LogHook struct {
	*log.Logger
}

// NewLogHook creates a LogHook writing to logger.
func NewLogHook(logger *log.Logger) *LogHook {
	return &LogHook{Logger: logger}
}

// Func prints the event.
func (h *LogHook) Func(ctx sim.HookCtx) {
	name := ""
	if c, ok := ctx.Domain.(*Comp); ok {
		name = c.Name()
	}

	switch item := ctx.Item.(type) {
	case WriteDetail:
		h.Printf("[%s] write #%d addr=0x%x -> 0x%x line %d -> %d wear=%d",
			name, item.Seq, item.LogicalAddr, item.PhysicalAddr,
			item.LogicalLine, item.PhysicalLine, item.LineWear)
	case RotationDetail:
		h.Printf("[%s] gap moved, rotations=%d gap=%d start=%d epoch_end=%t",
			name, item.Rotation, item.GapReg, item.StartReg, item.EpochEnded)
	case StatsSnapshot:
		h.Printf("[%s] shutdown, writes=%d rotations=%d max=%d min=%d "+
			"uniformity=%.4f",
			name, item.TotalWrites, item.TotalRotations,
			item.MaxWear, item.MinWear, item.UniformityRatio)
	}
}
