package stream_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/slaclab/surfsim/sim"
	"github.com/slaclab/surfsim/sim/directconnection"
	"github.com/slaclab/surfsim/stream"
)

var _ = Describe("Source and Sink", func() {
	var (
		engine *sim.SerialEngine
		source *stream.Source
		sink   *stream.Sink
	)

	BeforeEach(func() {
		engine = sim.NewSerialEngine()

		sink = stream.MakeSinkBuilder().
			WithEngine(engine).
			Build("Sink")
		source = stream.MakeSourceBuilder().
			WithEngine(engine).
			WithTarget(sink.In()).
			Build("Source")

		conn := directconnection.MakeBuilder().
			WithEngine(engine).
			WithFreq(1 * sim.GHz).
			Build("Conn")
		conn.PlugIn(source.Out())
		conn.PlugIn(sink.In())
	})

	It("should deliver frames in order", func() {
		for i := 0; i < 5; i++ {
			source.Schedule(stream.FrameBuilder{}.
				WithPayload([]byte{byte(i)}).
				WithStreamID(uint8(i)).
				Build())
		}

		engine.Run()

		Expect(source.NumSent()).To(Equal(5))
		Expect(sink.Received()).To(HaveLen(5))
		for i, f := range sink.Received() {
			Expect(f.Payload).To(Equal([]byte{byte(i)}))
			Expect(f.StreamID).To(Equal(uint8(i)))
		}
	})

	It("should mark error frames through the last-beat user field", func() {
		frame := stream.FrameBuilder{}.
			WithPayload([]byte{1}).
			WithLastUser(stream.ErrorFlagMask).
			Build()

		Expect(frame.HasError()).To(BeTrue())

		clean := stream.FrameBuilder{}.WithPayload([]byte{1}).Build()
		Expect(clean.HasError()).To(BeFalse())
	})
})
