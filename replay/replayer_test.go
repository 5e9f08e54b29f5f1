package replay

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/startgap/mem/startgap"
	"github.com/sarchlab/startgap/sim"
	"github.com/sarchlab/startgap/workload"
)

type sliceSource struct {
	records []workload.Record
}

func (s *sliceSource) Next() (workload.Record, bool) {
	if len(s.records) == 0 {
		return workload.Record{}, false
	}

	r := s.records[0]
	s.records = s.records[1:]
	return r, true
}

type countingProgress struct {
	inProgress uint64
	finished   uint64
	peak       uint64
}

func (p *countingProgress) IncrementInProgress(amount uint64) {
	p.inProgress += amount
	if p.inProgress > p.peak {
		p.peak = p.inProgress
	}
}

func (p *countingProgress) MoveInProgressToFinished(amount uint64) {
	p.inProgress -= amount
	p.finished += amount
}

var _ = Describe("Replayer", func() {
	var (
		mockCtrl *gomock.Controller
		device   *MockWearLeveler
		engine   *sim.SerialEngine
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		device = NewMockWearLeveler(mockCtrl)
		engine = sim.NewSerialEngine()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should deliver every record in trace order", func() {
		source := &sliceSource{records: []workload.Record{
			{Cycle: 0, Op: workload.Write, Address: 0x100},
			{Cycle: 5, Op: workload.Read, Address: 0x200},
			{Cycle: 5, Op: workload.Write, Address: 0x300},
		}}
		final := startgap.StatsSnapshot{TotalWrites: 2}

		gomock.InOrder(
			device.EXPECT().ProcessAddress(uint64(0x100), true),
			device.EXPECT().ProcessAddress(uint64(0x200), false),
			device.EXPECT().ProcessAddress(uint64(0x300), true),
			device.EXPECT().Shutdown().Return(final),
		)

		r := MakeBuilder().
			WithEngine(engine).
			WithFreq(sim.GHz).
			Build(device, source)

		snapshot, err := r.Run()

		Expect(err).ToNot(HaveOccurred())
		Expect(snapshot).To(Equal(final))
		Expect(r.Accesses()).To(Equal(uint64(3)))
		Expect(r.Writes()).To(Equal(uint64(2)))
		Expect(engine.CurrentTime()).To(BeNumerically("~", 5e-9, 1e-15))
	})

	It("should convert cycles to time with the frequency", func() {
		source := &sliceSource{records: []workload.Record{
			{Cycle: 2000, Op: workload.Write, Address: 0},
		}}
		device.EXPECT().ProcessAddress(gomock.Any(), true)
		device.EXPECT().Shutdown()

		r := MakeBuilder().
			WithEngine(engine).
			WithFreq(sim.KHz).
			Build(device, source)

		_, err := r.Run()

		Expect(err).ToNot(HaveOccurred())
		Expect(engine.CurrentTime()).To(BeNumerically("~", 2.0, 1e-12))
	})

	It("should shut the device down once", func() {
		device.EXPECT().Shutdown().Times(1)

		r := MakeBuilder().
			WithEngine(engine).
			Build(device, &sliceSource{})

		_, err := r.Run()
		Expect(err).ToNot(HaveOccurred())

		engine.Finished()
		r.Finish()
	})

	It("should reject a trace that goes back in time", func() {
		source := &sliceSource{records: []workload.Record{
			{Cycle: 10, Op: workload.Write, Address: 0},
			{Cycle: 3, Op: workload.Write, Address: 0},
		}}
		device.EXPECT().ProcessAddress(gomock.Any(), true)

		r := MakeBuilder().WithEngine(engine).Build(device, source)

		_, err := r.Run()

		Expect(err).To(MatchError(ContainSubstring("back in time")))
	})

	It("should keep one access in flight", func() {
		source := &sliceSource{records: make([]workload.Record, 10)}
		for i := range source.records {
			source.records[i] = workload.Record{
				Cycle:   uint64(i),
				Op:      workload.Write,
				Address: uint64(i) * 64,
			}
		}
		progress := &countingProgress{}

		device.EXPECT().ProcessAddress(gomock.Any(), true).Times(10)
		device.EXPECT().Shutdown()

		r := MakeBuilder().
			WithEngine(engine).
			WithProgressTracker(progress).
			Build(device, source)

		_, err := r.Run()

		Expect(err).ToNot(HaveOccurred())
		Expect(progress.finished).To(Equal(uint64(10)))
		Expect(progress.inProgress).To(Equal(uint64(0)))
		Expect(progress.peak).To(Equal(uint64(1)))
	})

	It("should panic without a device", func() {
		Expect(func() {
			MakeBuilder().Build(nil, &sliceSource{})
		}).To(Panic())
	})
})

var _ = Describe("Replaying a trace", func() {
	It("should level a generated hotspot trace", func() {
		cfg := workload.DefaultGeneratorConfig()
		cfg.NumWrites = 20000
		cfg.NumAddresses = 100
		cfg.Stride = 256
		gen, err := workload.NewGenerator(cfg)
		Expect(err).ToNot(HaveOccurred())

		device, err := startgap.MakeBuilder().
			WithNumLines(100).
			WithLineSize(256).
			WithRotationInterval(10).
			WithWrapPolicy(startgap.WrapToStart).
			Build("PCM")
		Expect(err).ToNot(HaveOccurred())

		r := MakeBuilder().Build(device, gen)
		snapshot, err := r.Run()

		Expect(err).ToNot(HaveOccurred())
		Expect(snapshot.TotalWrites).To(Equal(uint64(20000)))
		Expect(snapshot.TotalRotations).To(Equal(uint64(2000)))
		Expect(device.IsShutdown()).To(BeTrue())
	})

	It("should replay a text trace", func() {
		trace := strings.Join([]string{
			"# cycle op address data thread",
			"0 W 0x0 00 0",
			"10 W 0x100 00 0",
			"20 R 0x0 00 1",
		}, "\n")
		device, err := startgap.MakeBuilder().
			WithNumLines(4).
			WithLineSize(256).
			WithRotationInterval(1).
			Build("PCM")
		Expect(err).ToNot(HaveOccurred())

		source := FromReader(workload.NewReader(strings.NewReader(trace)))
		snapshot, err := MakeBuilder().Build(device, source).Run()

		Expect(err).ToNot(HaveOccurred())
		Expect(source.Err()).ToNot(HaveOccurred())
		Expect(snapshot.TotalWrites).To(Equal(uint64(2)))
		Expect(snapshot.TotalReads).To(Equal(uint64(1)))
		Expect(snapshot.TotalRotations).To(Equal(uint64(2)))
	})

	It("should stop at a malformed record", func() {
		trace := "0 W 0x0 00 0\nnot a record\n5 W 0x0 00 0\n"
		device, err := startgap.MakeBuilder().
			WithNumLines(4).
			WithLineSize(256).
			Build("PCM")
		Expect(err).ToNot(HaveOccurred())

		source := FromReader(workload.NewReader(strings.NewReader(trace)))
		snapshot, err := MakeBuilder().Build(device, source).Run()

		Expect(err).ToNot(HaveOccurred())
		Expect(source.Err()).To(MatchError(ContainSubstring("line 2")))
		Expect(snapshot.TotalWrites).To(Equal(uint64(1)))
	})
})
