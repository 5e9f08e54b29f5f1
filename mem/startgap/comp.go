package startgap

import (
	"sync"
	"sync/atomic"

	"github.com/sarchlab/startgap/sim"
)

// A WearLeveler remaps accesses to a write-limited memory and reports on the
// resulting wear. It is the only surface a host memory controller needs.
type WearLeveler interface {
	// ProcessAddress returns the physical address to use for an access.
	// Writes are recorded as wear and may move the gap.
	ProcessAddress(logicalAddr uint64, isWrite bool) uint64

	// GetSnapshot returns the current wear statistics.
	GetSnapshot() StatsSnapshot

	// Shutdown freezes the device and returns the final statistics.
	Shutdown() StatsSnapshot
}

// Comp is a Start-Gap wear-leveled device. All methods are safe for
// concurrent use. Each write is translated, recorded, and counted towards
// the next gap movement as one step; no caller sees a half-moved gap.
//
// Hooks must be registered before the device is shared between goroutines.
// They run after the device lock is released.
type Comp struct {
	sim.HookableBase

	name   string
	config Config

	lock      sync.RWMutex
	scheduler *GapScheduler
	tracker   *WearTracker
	reads     atomic.Uint64

	isShutdown    bool
	finalSnapshot StatsSnapshot
}

// Initialize creates a device from a flat configuration. It is equivalent to
// MakeBuilder().WithConfig(cfg).Build(name).
func Initialize(name string, cfg Config) (*Comp, error) {
	return MakeBuilder().WithConfig(cfg).Build(name)
}

// Name returns the name of the device.
func (c *Comp) Name() string {
	return c.name
}

// Config returns the configuration the device was built with.
func (c *Comp) Config() Config {
	return c.config
}

// ProcessAddress translates an access. Reads are returned untouched unless
// the device was built with read translation, and never count as wear.
//
// After Shutdown, writes are translated with the frozen registers but no
// longer recorded.
func (c *Comp) ProcessAddress(logicalAddr uint64, isWrite bool) uint64 {
	if !isWrite {
		return c.read(logicalAddr)
	}

	c.lock.Lock()

	if c.isShutdown {
		physicalAddr := c.scheduler.State.LogicalToPhysical(logicalAddr)
		c.lock.Unlock()

		return physicalAddr
	}

	state := c.scheduler.State
	logicalLine := state.LineIndex(logicalAddr)
	physicalLine := state.PhysicalLine(logicalLine)
	physicalAddr := physicalLine*state.LineSizeBytes +
		logicalAddr%state.LineSizeBytes

	c.tracker.RecordWrite(physicalLine)
	rotated := c.scheduler.OnWrite()

	write := WriteDetail{
		Seq:          c.tracker.TotalWrites(),
		LogicalAddr:  logicalAddr,
		PhysicalAddr: physicalAddr,
		LogicalLine:  logicalLine,
		PhysicalLine: physicalLine,
		LineWear:     c.tracker.Wear(physicalLine),
	}

	var rotation RotationDetail
	if rotated {
		rotation = RotationDetail{
			Rotation:    c.scheduler.TotalRotations(),
			StartReg:    c.scheduler.State.StartReg,
			GapReg:      c.scheduler.State.GapReg,
			EpochEnded:  c.scheduler.State.GapReg == state.NumLines,
			TotalWrites: write.Seq,
		}
	}

	c.lock.Unlock()

	if c.NumHooks() > 0 {
		c.InvokeHook(sim.HookCtx{Domain: c, Pos: HookPosWrite, Item: write})

		if rotated {
			c.InvokeHook(sim.HookCtx{
				Domain: c, Pos: HookPosRotate, Item: rotation,
			})
		}
	}

	return physicalAddr
}

func (c *Comp) read(logicalAddr uint64) uint64 {
	c.reads.Add(1)

	if !c.config.TranslateReads {
		return logicalAddr
	}

	c.lock.RLock()
	physicalAddr := c.scheduler.State.LogicalToPhysical(logicalAddr)
	c.lock.RUnlock()

	return physicalAddr
}

// GetSnapshot returns the current statistics. The counters are copied under
// a read lock and summarized outside of it, so writers only wait for the
// copy. After Shutdown it returns the final snapshot.
func (c *Comp) GetSnapshot() StatsSnapshot {
	c.lock.RLock()

	if c.isShutdown {
		s := c.finalSnapshot
		c.lock.RUnlock()

		return s
	}

	counts := c.tracker.Counts()
	total := c.tracker.TotalWrites()
	rotations := c.scheduler.TotalRotations()
	state := c.scheduler.State

	c.lock.RUnlock()

	return c.summarize(counts, total, rotations, state)
}

func (c *Comp) summarize(
	counts []uint64,
	total, rotations uint64,
	state TranslationState,
) StatsSnapshot {
	s := Snapshot(counts, c.config.EnduranceLimit)
	s.TotalWrites = total
	s.TotalReads = c.reads.Load()
	s.TotalRotations = rotations
	s.StartReg = state.StartReg
	s.GapReg = state.GapReg

	return s
}

// Shutdown freezes the device, emits the final snapshot to the hooks at
// HookPosShutdown, and returns it. Calling it again returns the same snapshot
// without invoking the hooks.
func (c *Comp) Shutdown() StatsSnapshot {
	c.lock.Lock()

	if c.isShutdown {
		s := c.finalSnapshot
		c.lock.Unlock()

		return s
	}

	c.finalSnapshot = c.summarize(
		c.tracker.Counts(),
		c.tracker.TotalWrites(),
		c.scheduler.TotalRotations(),
		c.scheduler.State,
	)
	c.isShutdown = true
	s := c.finalSnapshot

	c.lock.Unlock()

	c.InvokeHook(sim.HookCtx{Domain: c, Pos: HookPosShutdown, Item: s})

	return s
}

// IsShutdown tells whether Shutdown has been called.
func (c *Comp) IsShutdown() bool {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.isShutdown
}

// State returns a copy of the translation registers and rotation counter.
func (c *Comp) State() (TranslationState, RotationCounter) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.scheduler.State, c.scheduler.Counter
}

// WearCounts returns a copy of the per-physical-line write counts.
func (c *Comp) WearCounts() []uint64 {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.tracker.Counts()
}
