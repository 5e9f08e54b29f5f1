// Package replay drives a memory trace through a wear-leveled device on the
// discrete event engine.
package replay

import (
	"fmt"
	"io"

	"github.com/sarchlab/startgap/mem/startgap"
	"github.com/sarchlab/startgap/sim"
	"github.com/sarchlab/startgap/workload"
)

// A Source yields trace records. *workload.Generator satisfies it directly
// and FromReader adapts a *workload.Reader.
type Source interface {
	Next() (workload.Record, bool)
}

// A ProgressTracker is told about every access issued and completed.
type ProgressTracker interface {
	IncrementInProgress(amount uint64)
	MoveInProgressToFinished(amount uint64)
}

// AccessEvent delivers one trace record to the Replayer.
type AccessEvent struct {
	*sim.EventBase
	Record workload.Record
}

// A Replayer schedules one AccessEvent per trace record at the record's
// cycle and hands each one to the device when the engine reaches it.
//
// Records are pulled from the source lazily: only the next access sits in
// the event queue, so traces of any length replay in constant memory.
type Replayer struct {
	engine   sim.Engine
	freq     sim.Freq
	device   startgap.WearLeveler
	source   Source
	progress ProgressTracker

	lastCycle uint64
	accesses  uint64
	writes    uint64

	final startgap.StatsSnapshot
	done  bool
}

// Builder creates Replayers.
type Builder struct {
	engine   sim.Engine
	freq     sim.Freq
	progress ProgressTracker
}

// MakeBuilder creates a builder replaying at 1 GHz on a new serial engine.
func MakeBuilder() Builder {
	return Builder{
		freq: 1 * sim.GHz,
	}
}

// WithEngine sets the engine the accesses are scheduled on.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency used to turn trace cycles into time.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithProgressTracker reports progress to p while replaying.
func (b Builder) WithProgressTracker(p ProgressTracker) Builder {
	b.progress = p
	return b
}

// Build creates a Replayer feeding source into device.
func (b Builder) Build(device startgap.WearLeveler, source Source) *Replayer {
	if device == nil || source == nil {
		panic("a replayer needs a device and a source")
	}

	engine := b.engine
	if engine == nil {
		engine = sim.NewSerialEngine()
	}

	r := &Replayer{
		engine:   engine,
		freq:     b.freq,
		device:   device,
		source:   source,
		progress: b.progress,
	}

	engine.RegisterSimulationEndHandler(shutdownOnEnd{r})

	return r
}

// Engine returns the engine the Replayer schedules on.
func (r *Replayer) Engine() sim.Engine {
	return r.engine
}

// Run replays the whole trace, then shuts the device down and returns the
// final snapshot.
func (r *Replayer) Run() (startgap.StatsSnapshot, error) {
	err := r.scheduleNext()
	if err != nil {
		return startgap.StatsSnapshot{}, err
	}

	err = r.engine.Run()
	if err != nil {
		return startgap.StatsSnapshot{}, err
	}

	r.engine.Finished()

	return r.Finish(), nil
}

func (r *Replayer) scheduleNext() error {
	rec, ok := r.source.Next()
	if !ok {
		return nil
	}

	if rec.Cycle < r.lastCycle {
		return fmt.Errorf("trace goes back in time: cycle %d after %d",
			rec.Cycle, r.lastCycle)
	}
	r.lastCycle = rec.Cycle

	evt := &AccessEvent{
		EventBase: sim.NewEventBase(r.freq.CycleTime(rec.Cycle), r),
		Record:    rec,
	}
	r.engine.Schedule(evt)

	if r.progress != nil {
		r.progress.IncrementInProgress(1)
	}

	return nil
}

// Handle processes an AccessEvent and schedules the following record.
func (r *Replayer) Handle(e sim.Event) error {
	evt, ok := e.(*AccessEvent)
	if !ok {
		return fmt.Errorf("replayer cannot handle %T", e)
	}

	r.device.ProcessAddress(evt.Record.Address, evt.Record.IsWrite())

	r.accesses++
	if evt.Record.IsWrite() {
		r.writes++
	}

	if r.progress != nil {
		r.progress.MoveInProgressToFinished(1)
	}

	return r.scheduleNext()
}

// Finish shuts the device down and keeps its final snapshot. Only the first
// call has an effect.
func (r *Replayer) Finish() startgap.StatsSnapshot {
	if !r.done {
		r.final = r.device.Shutdown()
		r.done = true
	}

	return r.final
}

type shutdownOnEnd struct {
	r *Replayer
}

func (h shutdownOnEnd) Handle(_ sim.VTimeInSec) {
	h.r.Finish()
}

// Accesses returns the number of records replayed so far.
func (r *Replayer) Accesses() uint64 {
	return r.accesses
}

// Writes returns the number of write records replayed so far.
func (r *Replayer) Writes() uint64 {
	return r.writes
}

// ReaderSource is a Source over a trace reader.
type ReaderSource struct {
	r   *workload.Reader
	err error
}

// FromReader adapts a trace reader. Reading stops at the first malformed
// record; Err reports it once the replay is over.
func FromReader(r *workload.Reader) *ReaderSource {
	return &ReaderSource{r: r}
}

// Next returns the next record of the trace.
func (s *ReaderSource) Next() (workload.Record, bool) {
	if s.err != nil {
		return workload.Record{}, false
	}

	rec, err := s.r.Next()
	if err == io.EOF {
		return workload.Record{}, false
	}

	if err != nil {
		s.err = err
		return workload.Record{}, false
	}

	return rec, true
}

// Err returns the parse error that stopped the replay, if any.
func (s *ReaderSource) Err() error {
	return s.err
}
