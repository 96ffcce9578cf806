package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type countingTicker struct {
	budget int
	ticks  int
}

func (t *countingTicker) Tick() bool {
	if t.ticks >= t.budget {
		return false
	}

	t.ticks++
	return true
}

var _ = Describe("TickingComponent", func() {
	var (
		engine *SerialEngine
		ticker *countingTicker
		comp   *TickingComponent
	)

	BeforeEach(func() {
		engine = NewSerialEngine()
		ticker = &countingTicker{budget: 4}
		comp = NewTickingComponent("Comp", engine, 1*GHz, ticker)
	})

	It("should keep ticking while progress is made", func() {
		comp.TickNow()

		engine.Run()

		// One extra tick observes no progress and stops.
		Expect(ticker.ticks).To(Equal(4))
		Expect(engine.CurrentTime()).To(
			BeNumerically("~", 4e-9, 1e-15))
	})

	It("should resume ticking after a notify", func() {
		comp.TickNow()
		engine.Run()

		ticker.budget = 6
		comp.NotifyRecv(nil)
		engine.Run()

		Expect(ticker.ticks).To(Equal(6))
	})

	It("should not schedule duplicate ticks for the same cycle", func() {
		comp.TickNow()
		comp.TickNow()
		comp.TickLater()

		engine.Run()

		Expect(ticker.ticks).To(Equal(4))
	})
})
