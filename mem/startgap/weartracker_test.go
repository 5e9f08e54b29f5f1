package startgap

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("WearTracker", func() {
	var tracker *WearTracker

	BeforeEach(func() {
		tracker = NewWearTracker(4)
	})

	It("should start with all lines unworn", func() {
		Expect(tracker.NumLines()).To(Equal(uint64(4)))
		Expect(tracker.Counts()).To(Equal([]uint64{0, 0, 0, 0}))
		Expect(tracker.TotalWrites()).To(Equal(uint64(0)))
	})

	It("should count writes per line", func() {
		tracker.RecordWrite(1)
		tracker.RecordWrite(1)
		tracker.RecordWrite(3)

		Expect(tracker.Wear(1)).To(Equal(uint64(2)))
		Expect(tracker.Wear(3)).To(Equal(uint64(1)))
		Expect(tracker.Wear(0)).To(Equal(uint64(0)))
		Expect(tracker.TotalWrites()).To(Equal(uint64(3)))
	})

	It("should hand out copies of the counters", func() {
		tracker.RecordWrite(0)

		counts := tracker.Counts()
		counts[0] = 100

		Expect(tracker.Wear(0)).To(Equal(uint64(1)))
	})

	It("should saturate instead of overflowing", func() {
		tracker.counts[2] = math.MaxUint64
		tracker.total = math.MaxUint64

		tracker.RecordWrite(2)

		Expect(tracker.Wear(2)).To(Equal(uint64(math.MaxUint64)))
		Expect(tracker.TotalWrites()).To(Equal(uint64(math.MaxUint64)))
	})
})
