// Package weartrace provides hooks that record the wear of Start-Gap devices
// into a database.
package weartrace

import (
	"sync"

	"github.com/sarchlab/startgap/datarecording"
	"github.com/sarchlab/startgap/mem/startgap"
	"github.com/sarchlab/startgap/sim"
)

// Table names used by the DBTracer.
const (
	RotationTable = "startgap_rotation"
	SnapshotTable = "startgap_snapshot"
	WearTable     = "startgap_wear"
)

type rotationEntry struct {
	Device      string
	Time        float64
	Rotation    uint64
	StartReg    uint64
	GapReg      uint64
	EpochEnded  bool
	TotalWrites uint64
}

type snapshotEntry struct {
	Device                      string
	Time                        float64
	Final                       bool
	TotalWrites                 uint64
	TotalReads                  uint64
	TotalRotations              uint64
	UniqueLinesWritten          uint64
	MaxWear                     uint64
	MinWear                     uint64
	AverageWear                 float64
	UniformityRatio             float64
	EstimatedLifetimeMultiplier float64
	HasLifetimeEstimate         bool
	StartReg                    uint64
	GapReg                      uint64
}

type wearEntry struct {
	Device string
	Line   uint64
	Writes uint64
}

// A DBTracer is a hook that records gap movements, snapshots, and the final
// per-line wear of the devices it is attached to.
type DBTracer struct {
	timeTeller   sim.TimeTeller
	dataRecorder datarecording.DataRecorder

	lock sync.Mutex
	err  error
}

// NewDBTracer creates the tables and returns the tracer. timeTeller may be
// nil, in which case every record is stamped with time 0.
func NewDBTracer(
	dataRecorder datarecording.DataRecorder,
	timeTeller sim.TimeTeller,
) (*DBTracer, error) {
	t := &DBTracer{
		timeTeller:   timeTeller,
		dataRecorder: dataRecorder,
	}

	tables := []struct {
		name   string
		sample any
	}{
		{RotationTable, rotationEntry{}},
		{SnapshotTable, snapshotEntry{}},
		{WearTable, wearEntry{}},
	}

	for _, tbl := range tables {
		err := dataRecorder.CreateTable(tbl.name, tbl.sample)
		if err != nil {
			return nil, err
		}
	}

	return t, nil
}

// Func records rotation and shutdown events. Other events are ignored.
// Failures are kept and reported by Err.
func (t *DBTracer) Func(ctx sim.HookCtx) {
	device, ok := ctx.Domain.(*startgap.Comp)
	if !ok {
		return
	}

	switch item := ctx.Item.(type) {
	case startgap.RotationDetail:
		t.keep(t.dataRecorder.InsertData(RotationTable, rotationEntry{
			Device:      device.Name(),
			Time:        t.now(),
			Rotation:    item.Rotation,
			StartReg:    item.StartReg,
			GapReg:      item.GapReg,
			EpochEnded:  item.EpochEnded,
			TotalWrites: item.TotalWrites,
		}))
	case startgap.StatsSnapshot:
		t.keep(t.insertSnapshot(device.Name(), item, true))
		t.keep(t.insertWear(device))
	}
}

// RecordSnapshot stores an intermediate snapshot.
func (t *DBTracer) RecordSnapshot(
	device string,
	s startgap.StatsSnapshot,
) error {
	err := t.insertSnapshot(device, s, false)
	t.keep(err)

	return err
}

// Err returns the first error met while recording from the hook.
func (t *DBTracer) Err() error {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.err
}

func (t *DBTracer) keep(err error) {
	if err == nil {
		return
	}

	t.lock.Lock()
	if t.err == nil {
		t.err = err
	}
	t.lock.Unlock()
}

func (t *DBTracer) now() float64 {
	if t.timeTeller == nil {
		return 0
	}

	return float64(t.timeTeller.CurrentTime())
}

func (t *DBTracer) insertSnapshot(
	device string,
	s startgap.StatsSnapshot,
	final bool,
) error {
	return t.dataRecorder.InsertData(SnapshotTable, snapshotEntry{
		Device:                      device,
		Time:                        t.now(),
		Final:                       final,
		TotalWrites:                 s.TotalWrites,
		TotalReads:                  s.TotalReads,
		TotalRotations:              s.TotalRotations,
		UniqueLinesWritten:          s.UniqueLinesWritten,
		MaxWear:                     s.MaxWear,
		MinWear:                     s.MinWear,
		AverageWear:                 s.AverageWear,
		UniformityRatio:             s.UniformityRatio,
		EstimatedLifetimeMultiplier: s.EstimatedLifetimeMultiplier,
		HasLifetimeEstimate:         s.HasLifetimeEstimate,
		StartReg:                    s.StartReg,
		GapReg:                      s.GapReg,
	})
}

// insertWear stores one row per written line. Unwritten lines are skipped to
// keep large devices cheap.
func (t *DBTracer) insertWear(device *startgap.Comp) error {
	for line, writes := range device.WearCounts() {
		if writes == 0 {
			continue
		}

		err := t.dataRecorder.InsertData(WearTable, wearEntry{
			Device: device.Name(),
			Line:   uint64(line),
			Writes: writes,
		})
		if err != nil {
			return err
		}
	}

	return nil
}
