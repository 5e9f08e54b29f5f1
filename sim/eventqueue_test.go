package sim

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("EventQueueImpl", func() {
	var (
		mockCtrl *gomock.Controller
		queue    *EventQueueImpl
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		queue = NewEventQueue()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should pop in order", func() {
		numEvents := 100
		for i := 0; i < numEvents; i++ {
			event := NewMockEvent(mockCtrl)
			event.EXPECT().
				Time().
				Return(VTimeInSec(rand.Float64() / 1e8)).
				AnyTimes()
			queue.Push(event)
		}

		Expect(queue.Len()).To(Equal(numEvents))

		now := VTimeInSec(-1)
		for i := 0; i < numEvents; i++ {
			event := queue.Pop()
			Expect(event.Time() >= now).To(BeTrue())
			now = event.Time()
		}

		Expect(queue.Len()).To(Equal(0))
	})

	It("should pop events of the same time in push order", func() {
		events := make([]*MockEvent, 50)
		for i := range events {
			events[i] = NewMockEvent(mockCtrl)
			events[i].EXPECT().
				Time().
				Return(VTimeInSec(i % 3)).
				AnyTimes()
			queue.Push(events[i])
		}

		for t := 0; t < 3; t++ {
			for i := t; i < len(events); i += 3 {
				Expect(queue.Pop()).To(BeIdenticalTo(events[i]))
			}
		}
	})

	It("should peek without removing", func() {
		event := NewMockEvent(mockCtrl)
		event.EXPECT().Time().Return(VTimeInSec(1)).AnyTimes()
		queue.Push(event)

		Expect(queue.Peek()).To(BeIdenticalTo(event))
		Expect(queue.Len()).To(Equal(1))
	})
})
