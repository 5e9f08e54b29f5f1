package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/sarchlab/startgap/datarecording"
	"github.com/sarchlab/startgap/mem/startgap"
	"github.com/sarchlab/startgap/mem/weartrace"
	"github.com/sarchlab/startgap/monitoring"
	"github.com/sarchlab/startgap/replay"
	"github.com/sarchlab/startgap/sim"
	"github.com/sarchlab/startgap/workload"
)

// deviceFlags are the device settings shared by the commands that replay a
// trace.
type deviceFlags struct {
	config startgap.Config
	wrap   string
	freq   float64
}

func (f *deviceFlags) register(flags *pflag.FlagSet) {
	f.config = startgap.DefaultConfig()

	flags.Uint64Var(&f.config.NumLines, "lines", f.config.NumLines,
		"number of physical lines the logical space maps onto")
	flags.Uint64Var(&f.config.LineSizeBytes, "line-size",
		f.config.LineSizeBytes, "line size in bytes")
	flags.Uint64Var(&f.config.RotationInterval, "psi",
		f.config.RotationInterval, "writes between two gap movements")
	flags.Uint64Var(&f.config.EnduranceLimit, "endurance",
		f.config.EnduranceLimit, "writes a line survives")
	flags.StringVar(&f.wrap, "wrap", f.config.Wrap.String(),
		"where a line pushed past the end lands: zero or start")
	flags.BoolVar(&f.config.TranslateReads, "translate-reads", false,
		"remap reads as well as writes")
	flags.Float64Var(&f.freq, "freq", float64(1*sim.GHz),
		"frequency in Hz used to time the trace cycles")
}

func (f *deviceFlags) deviceConfig() (startgap.Config, error) {
	cfg := f.config

	wrap, err := startgap.ParseWrapPolicy(f.wrap)
	if err != nil {
		return cfg, err
	}
	cfg.Wrap = wrap

	if f.freq <= 0 {
		return cfg, fmt.Errorf("frequency must be positive, got %g", f.freq)
	}

	return cfg, nil
}

// simulation is one trace replay with its optional instruments.
type simulation struct {
	name   string
	config startgap.Config
	freq   sim.Freq

	logSample     uint64
	snapshotEvery uint64
	dbPath        string
	monitor       bool

	// openDB opens the recorder behind dbPath. nil means openRecorder.
	openDB func(string) (datarecording.DataRecorder, error)
}

type simulationResult struct {
	snapshot startgap.StatsSnapshot
	device   *startgap.Comp
}

func (s simulation) run(tracePath string) (result simulationResult, err error) {
	trace, err := os.Open(tracePath)
	if err != nil {
		return simulationResult{}, err
	}
	defer trace.Close()

	engine := sim.NewSerialEngine()
	builder := startgap.MakeBuilder().WithConfig(s.config)

	if s.logSample > 0 {
		logger := log.New(os.Stderr, "", 0)
		builder = builder.WithHook(startgap.NewSampledHook(
			startgap.NewLogHook(logger),
			startgap.SamplingPolicy{Head: 20, Every: s.logSample},
		))
	}

	var (
		recorder datarecording.DataRecorder
		tracer   *weartrace.DBTracer
	)
	if s.dbPath != "" {
		open := s.openDB
		if open == nil {
			open = openRecorder
		}

		recorder, err = open(s.dbPath)
		if err != nil {
			return simulationResult{}, err
		}
		defer func() {
			closeErr := recorder.Close()
			if err == nil && closeErr != nil {
				result, err = simulationResult{}, closeErr
			}
		}()

		tracer, err = weartrace.NewDBTracer(recorder, engine)
		if err != nil {
			return simulationResult{}, err
		}

		builder = builder.WithHook(tracer)
		if s.snapshotEvery > 0 {
			builder = builder.WithHook(&periodicSnapshot{
				tracer: tracer,
				every:  s.snapshotEvery,
			})
		}
	}

	device, err := builder.Build(s.name)
	if err != nil {
		return simulationResult{}, err
	}

	replayBuilder := replay.MakeBuilder().
		WithEngine(engine).
		WithFreq(s.freq)

	if s.monitor {
		m := monitoring.NewMonitor()
		m.RegisterEngine(engine)
		m.RegisterDevice(device)
		bar := m.CreateProgressBar(s.name, 0)
		defer m.CompleteProgressBar(bar)
		m.StartServer()
		defer m.StopServer()

		replayBuilder = replayBuilder.WithProgressTracker(bar)
	}

	source := replay.FromReader(workload.NewReader(trace))
	snapshot, err := replayBuilder.Build(device, source).Run()
	if err != nil {
		return simulationResult{}, err
	}

	if source.Err() != nil {
		return simulationResult{}, fmt.Errorf("%s: %w", tracePath, source.Err())
	}

	if tracer != nil && tracer.Err() != nil {
		return simulationResult{}, tracer.Err()
	}

	return simulationResult{snapshot: snapshot, device: device}, nil
}

// periodicSnapshot stores a snapshot every few writes.
type periodicSnapshot struct {
	tracer *weartrace.DBTracer
	every  uint64
}

func (h *periodicSnapshot) Func(ctx sim.HookCtx) {
	write, ok := ctx.Item.(startgap.WriteDetail)
	if !ok || write.Seq%h.every != 0 {
		return
	}

	device := ctx.Domain.(*startgap.Comp)
	_ = h.tracer.RecordSnapshot(device.Name(), device.GetSnapshot())
}

// openRecorder opens a ClickHouse recorder for clickhouse:// URLs and a
// SQLite file otherwise.
func openRecorder(db string) (datarecording.DataRecorder, error) {
	if !strings.HasPrefix(db, "clickhouse://") {
		return datarecording.New(db)
	}

	cfg, err := datarecording.ParseClickHouseURL(db)
	if err != nil {
		return nil, err
	}

	return datarecording.NewClickHouse(cfg)
}
