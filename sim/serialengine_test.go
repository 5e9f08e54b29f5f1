package sim

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("SerialEngine", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *SerialEngine
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = NewSerialEngine()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	mockEvent := func(t VTimeInSec, h Handler) *MockEvent {
		evt := NewMockEvent(mockCtrl)
		evt.EXPECT().Time().Return(t).AnyTimes()
		evt.EXPECT().Handler().Return(h).AnyTimes()
		return evt
	}

	It("should schedule events", func() {
		handler1 := NewMockHandler(mockCtrl)
		handler2 := NewMockHandler(mockCtrl)
		evt1 := mockEvent(4.0, handler1)
		evt2 := mockEvent(2.0, handler2)
		evt3 := mockEvent(3.0, handler1)
		evt4 := mockEvent(5.0, handler1)

		handleEvt2 := handler2.EXPECT().Handle(evt2).DoAndReturn(
			func(e Event) error {
				engine.Schedule(evt3)
				engine.Schedule(evt4)
				return nil
			})
		handleEvt3 := handler1.EXPECT().Handle(evt3).After(handleEvt2)
		handleEvt1 := handler1.EXPECT().Handle(evt1).After(handleEvt3)
		handler1.EXPECT().Handle(evt4).After(handleEvt1)

		engine.Schedule(evt1)
		engine.Schedule(evt2)

		Expect(engine.Run()).To(Succeed())
		Expect(engine.CurrentTime()).To(Equal(VTimeInSec(5.0)))
	})

	It("should keep the scheduling order of simultaneous events", func() {
		handler := NewMockHandler(mockCtrl)
		evt1 := mockEvent(1.0, handler)
		evt2 := mockEvent(1.0, handler)
		evt3 := mockEvent(1.0, handler)

		gomock.InOrder(
			handler.EXPECT().Handle(evt1),
			handler.EXPECT().Handle(evt2),
			handler.EXPECT().Handle(evt3),
		)

		engine.Schedule(evt1)
		engine.Schedule(evt2)
		engine.Schedule(evt3)

		Expect(engine.Run()).To(Succeed())
	})

	It("should stop at the first handler error", func() {
		handler := NewMockHandler(mockCtrl)
		evt1 := mockEvent(1.0, handler)
		evt2 := mockEvent(2.0, handler)
		boom := errors.New("boom")

		handler.EXPECT().Handle(evt1).Return(boom)

		engine.Schedule(evt1)
		engine.Schedule(evt2)

		err := engine.Run()

		Expect(err).To(MatchError(boom))
		Expect(engine.CurrentTime()).To(Equal(VTimeInSec(1.0)))
	})

	It("should panic when scheduling into the past", func() {
		handler := NewMockHandler(mockCtrl)
		evt1 := mockEvent(2.0, handler)
		evt2 := mockEvent(1.0, handler)

		handler.EXPECT().Handle(evt1).DoAndReturn(func(e Event) error {
			Expect(func() { engine.Schedule(evt2) }).To(Panic())
			return nil
		})

		engine.Schedule(evt1)

		Expect(engine.Run()).To(Succeed())
	})

	It("should invoke hooks around each event", func() {
		handler := NewMockHandler(mockCtrl)
		hook := NewMockHook(mockCtrl)
		evt := mockEvent(1.0, handler)
		engine.AcceptHook(hook)

		gomock.InOrder(
			hook.EXPECT().Func(HookCtx{
				Domain: engine, Pos: HookPosBeforeEvent, Item: evt,
			}),
			handler.EXPECT().Handle(evt),
			hook.EXPECT().Func(HookCtx{
				Domain: engine, Pos: HookPosAfterEvent, Item: evt,
			}),
		)

		engine.Schedule(evt)

		Expect(engine.Run()).To(Succeed())
	})

	It("should call the simulation end handlers with the final time", func() {
		handler := NewMockHandler(mockCtrl)
		endHandler := NewMockSimulationEndHandler(mockCtrl)
		evt := mockEvent(3.0, handler)

		handler.EXPECT().Handle(evt)
		endHandler.EXPECT().Handle(VTimeInSec(3.0))

		engine.RegisterSimulationEndHandler(endHandler)
		engine.Schedule(evt)

		Expect(engine.Run()).To(Succeed())
		engine.Finished()
	})
})
