package dmafifo_test

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/slaclab/surfsim/dmaengine"
	"github.com/slaclab/surfsim/dmafifo"
	"github.com/slaclab/surfsim/mem"
	"github.com/slaclab/surfsim/sim"
	"github.com/slaclab/surfsim/sim/directconnection"
	"github.com/slaclab/surfsim/stream"
)

type testSystem struct {
	engine  *sim.SerialEngine
	storage *mem.Storage
	fifo    *dmafifo.Comp
	source  *stream.Source
	sink    *stream.Sink
}

type systemConfig struct {
	bufferWidth   uint
	maxFrameWidth uint
	startOffline  bool
	dropOnError   bool
	zeroLatency   bool
	errorInjector func(*stream.Frame) bool
}

func buildSystem(cfg systemConfig) *testSystem {
	if cfg.bufferWidth == 0 {
		cfg.bufferWidth = 10
	}
	if cfg.maxFrameWidth == 0 {
		cfg.maxFrameWidth = 6
	}

	latency := 2
	if cfg.zeroLatency {
		latency = 0
	}

	sys := &testSystem{}
	sys.engine = sim.NewSerialEngine()
	sys.storage = mem.NewStorage(1 * mem.MB)

	sys.sink = stream.MakeSinkBuilder().
		WithEngine(sys.engine).
		Build("Sink")

	readEngine := dmaengine.MakeReadEngineBuilder().
		WithEngine(sys.engine).
		WithStorage(sys.storage).
		WithLatency(latency).
		WithStreamTarget(sys.sink.In()).
		Build("ReadEngine")

	writeEngine := dmaengine.MakeWriteEngineBuilder().
		WithEngine(sys.engine).
		WithStorage(sys.storage).
		WithLatency(latency).
		WithErrorInjector(cfg.errorInjector).
		Build("WriteEngine")

	sys.fifo = dmafifo.MakeBuilder().
		WithEngine(sys.engine).
		WithBufferWidth(cfg.bufferWidth).
		WithMaxFrameWidth(cfg.maxFrameWidth).
		WithStartOnline(!cfg.startOffline).
		WithDropOnError(cfg.dropOnError).
		WithWriteEngine(writeEngine.CtrlPort()).
		WithReadEngine(readEngine.CtrlPort()).
		Build("FIFO")

	sys.source = stream.MakeSourceBuilder().
		WithEngine(sys.engine).
		WithTarget(writeEngine.StreamPort()).
		Build("Source")

	conn := directconnection.MakeBuilder().
		WithEngine(sys.engine).
		WithFreq(1 * sim.GHz).
		Build("Conn")
	conn.PlugIn(sys.source.Out())
	conn.PlugIn(sys.sink.In())
	conn.PlugIn(writeEngine.StreamPort())
	conn.PlugIn(writeEngine.CtrlPort())
	conn.PlugIn(readEngine.StreamPort())
	conn.PlugIn(readEngine.CtrlPort())
	conn.PlugIn(sys.fifo.WriteCtrlPort())
	conn.PlugIn(sys.fifo.ReadCtrlPort())

	return sys
}

func (s *testSystem) scheduleFrame(i int) {
	s.source.Schedule(stream.FrameBuilder{}.
		WithPayload([]byte{byte(i), byte(i * 2), byte(i * 3)}).
		WithFirstUser(0x02).
		WithDest(uint8(i % 4)).
		WithStreamID(uint8(i)).
		Build())
}

func (s *testSystem) readReg(offset uint64) uint32 {
	v, err := s.fifo.RegRead(offset)
	Expect(err).To(BeNil())
	return v
}

func (s *testSystem) setOnline(online bool) {
	v := s.readReg(dmafifo.RegControl)
	if online {
		v |= 1 << 8
	} else {
		v &^= 1 << 8
	}
	Expect(s.fifo.RegWrite(dmafifo.RegControl, v)).To(Succeed())
}

var _ = Describe("Comp", func() {
	It("should carry frames through the buffer in order", func() {
		sys := buildSystem(systemConfig{})

		for i := 0; i < 10; i++ {
			sys.scheduleFrame(i)
		}

		sys.engine.Run()

		received := sys.sink.Received()
		Expect(received).To(HaveLen(10))
		for i, f := range received {
			Expect(f.Payload).To(
				Equal([]byte{byte(i), byte(i * 2), byte(i * 3)}),
				fmt.Sprintf("frame %d payload", i))
			Expect(f.StreamID).To(Equal(uint8(i)))
			Expect(f.Dest).To(Equal(uint8(i % 4)))
			Expect(f.FirstUser).To(Equal(uint8(0x02)))
			Expect(f.HasError()).To(BeFalse())
		}

		Expect(sys.readReg(dmafifo.RegFrameCount)).To(Equal(uint32(0)))
		Expect(sys.readReg(dmafifo.RegErrorCount)).To(Equal(uint32(0)))
		Expect(sys.readReg(dmafifo.RegPeakFrameCount)).To(
			BeNumerically(">=", 1))
	})

	It("should stall issuance while the slot ring is full", func() {
		// 4 slots of 64 bytes; three times as many frames as slots.
		sys := buildSystem(systemConfig{
			bufferWidth:   8,
			maxFrameWidth: 6,
		})

		for i := 0; i < 12; i++ {
			sys.scheduleFrame(i)
		}

		sys.engine.Run()

		received := sys.sink.Received()
		Expect(received).To(HaveLen(12))
		for i, f := range received {
			Expect(f.StreamID).To(Equal(uint8(i)))
		}

		Expect(sys.readReg(dmafifo.RegFrameCount)).To(Equal(uint32(0)))
		Expect(sys.readReg(dmafifo.RegErrorCount)).To(Equal(uint32(0)))
		Expect(sys.readReg(dmafifo.RegPeakFrameCount)).To(
			BeNumerically("<=", 3))
	})

	It("should carry frames through zero-latency engines", func() {
		sys := buildSystem(systemConfig{zeroLatency: true})

		for i := 0; i < 8; i++ {
			sys.scheduleFrame(i)
		}

		sys.engine.Run()

		received := sys.sink.Received()
		Expect(received).To(HaveLen(8))
		for i, f := range received {
			Expect(f.StreamID).To(Equal(uint8(i)))
			Expect(f.Payload).To(
				Equal([]byte{byte(i), byte(i * 2), byte(i * 3)}))
		}

		Expect(sys.readReg(dmafifo.RegFrameCount)).To(Equal(uint32(0)))
	})

	It("should drop errored frames when dropping is enabled", func() {
		sys := buildSystem(systemConfig{
			dropOnError: true,
			errorInjector: func(f *stream.Frame) bool {
				return f.StreamID == 2
			},
		})

		for i := 0; i < 5; i++ {
			sys.scheduleFrame(i)
		}

		sys.engine.Run()

		received := sys.sink.Received()
		Expect(received).To(HaveLen(4))

		var ids []uint8
		for _, f := range received {
			ids = append(ids, f.StreamID)
			Expect(f.HasError()).To(BeFalse())
		}
		Expect(ids).To(Equal([]uint8{0, 1, 3, 4}))

		Expect(sys.readReg(dmafifo.RegErrorCount)).To(Equal(uint32(1)))
		Expect(sys.readReg(dmafifo.RegFrameCount)).To(Equal(uint32(0)))
	})

	It("should forward errored frames with the error flag when dropping is disabled", func() {
		sys := buildSystem(systemConfig{
			errorInjector: func(f *stream.Frame) bool {
				return f.StreamID == 2
			},
		})

		for i := 0; i < 5; i++ {
			sys.scheduleFrame(i)
		}

		sys.engine.Run()

		received := sys.sink.Received()
		Expect(received).To(HaveLen(5))
		for i, f := range received {
			Expect(f.StreamID).To(Equal(uint8(i)))
			Expect(f.HasError()).To(Equal(i == 2))
		}

		Expect(sys.readReg(dmafifo.RegErrorCount)).To(Equal(uint32(1)))
	})

	It("should truncate frames longer than the slot size", func() {
		sys := buildSystem(systemConfig{
			bufferWidth:   8,
			maxFrameWidth: 4,
		})

		payload := make([]byte, 20)
		for i := range payload {
			payload[i] = byte(i + 1)
		}
		sys.source.Schedule(stream.FrameBuilder{}.
			WithPayload(payload).
			Build())

		sys.engine.Run()

		received := sys.sink.Received()
		Expect(received).To(HaveLen(1))
		Expect(received[0].Payload).To(Equal(payload[:16]))
		Expect(received[0].HasError()).To(BeTrue())
		Expect(sys.readReg(dmafifo.RegErrorCount)).To(Equal(uint32(1)))
	})

	It("should reset the status counters with a self-clearing pulse", func() {
		sys := buildSystem(systemConfig{
			dropOnError:   true,
			errorInjector: func(*stream.Frame) bool { return true },
		})

		for i := 0; i < 3; i++ {
			sys.scheduleFrame(i)
		}
		sys.engine.Run()

		Expect(sys.sink.Received()).To(BeEmpty())
		Expect(sys.readReg(dmafifo.RegErrorCount)).To(Equal(uint32(3)))

		Expect(sys.fifo.RegWrite(dmafifo.RegResetCounters, 1)).To(Succeed())
		Expect(sys.readReg(dmafifo.RegResetCounters)).To(Equal(uint32(1)))

		sys.engine.Run()

		Expect(sys.readReg(dmafifo.RegResetCounters)).To(Equal(uint32(0)))
		Expect(sys.readReg(dmafifo.RegErrorCount)).To(Equal(uint32(0)))
		Expect(sys.readReg(dmafifo.RegPeakFrameCount)).To(Equal(uint32(0)))
	})

	It("should hold traffic while offline and resume when brought online", func() {
		sys := buildSystem(systemConfig{startOffline: true})

		for i := 0; i < 3; i++ {
			sys.scheduleFrame(i)
		}
		sys.engine.Run()

		Expect(sys.sink.Received()).To(BeEmpty())
		Expect(sys.readReg(dmafifo.RegFrameCount)).To(Equal(uint32(0)))

		sys.setOnline(true)
		sys.engine.Run()

		Expect(sys.sink.Received()).To(HaveLen(3))
	})

	It("should abandon in-flight work when taken offline", func() {
		sys := buildSystem(systemConfig{})

		for i := 0; i < 4; i++ {
			sys.scheduleFrame(i)
		}
		sys.engine.Run()
		Expect(sys.sink.Received()).To(HaveLen(4))

		sys.setOnline(false)
		sys.scheduleFrame(4)
		sys.scheduleFrame(5)
		sys.engine.Run()

		// Frame 4 is absorbed by the request that was armed before the
		// offline transition and its completion is discarded.
		Expect(sys.sink.Received()).To(HaveLen(4))
		Expect(sys.readReg(dmafifo.RegFrameCount)).To(Equal(uint32(0)))

		sys.setOnline(true)
		sys.engine.Run()

		received := sys.sink.Received()
		Expect(received).To(HaveLen(5))
		Expect(received[4].StreamID).To(Equal(uint8(5)))
	})

	It("should clamp the maximum frame size to the slot size", func() {
		sys := buildSystem(systemConfig{maxFrameWidth: 6})

		Expect(sys.readReg(dmafifo.RegMaxFrameSize)).To(Equal(uint32(64)))

		Expect(sys.fifo.RegWrite(
			dmafifo.RegMaxFrameSize, 0xFFFFFFFF)).To(Succeed())
		sys.engine.Run()

		Expect(sys.readReg(dmafifo.RegMaxFrameSize)).To(Equal(uint32(64)))
	})

	It("should relocate the buffer through the base address registers", func() {
		sys := buildSystem(systemConfig{})

		Expect(sys.fifo.RegWrite(
			dmafifo.RegBaseAddrLow, 0x8000)).To(Succeed())
		Expect(sys.readReg(dmafifo.RegBaseAddrLow)).To(Equal(uint32(0x8000)))
		Expect(sys.readReg(dmafifo.RegBaseAddrHigh)).To(Equal(uint32(0)))

		sys.scheduleFrame(1)
		sys.engine.Run()

		Expect(sys.sink.Received()).To(HaveLen(1))

		stored, err := sys.storage.Read(0x8000, 3)
		Expect(err).To(BeNil())
		Expect(stored).To(Equal([]byte{1, 2, 3}))
	})

	It("should report the build configuration", func() {
		sys := buildSystem(systemConfig{
			bufferWidth:   10,
			maxFrameWidth: 6,
		})

		ctrl := sys.readReg(dmafifo.RegControl)
		Expect(ctrl & 0x1).To(Equal(uint32(1)))
		Expect((ctrl >> 20) & 0x3).To(Equal(uint32(1)))

		streamCfg := sys.readReg(dmafifo.RegStreamConfig)
		Expect(streamCfg).To(Equal(uint32(0x08080808)))

		memCfg := sys.readReg(dmafifo.RegMemoryConfig)
		Expect(memCfg).To(Equal(uint32(0x40100408)))

		bufCfg := sys.readReg(dmafifo.RegBufferConfig)
		Expect(bufCfg & 0xFF).To(Equal(uint32(6)))
		Expect((bufCfg >> 8) & 0xFF).To(Equal(uint32(10)))
	})

	It("should reject accesses to unmapped offsets", func() {
		sys := buildSystem(systemConfig{})

		_, err := sys.fifo.RegRead(0x08)
		Expect(err).To(MatchError(dmafifo.ErrDecode))

		Expect(sys.fifo.RegWrite(0x08, 0)).To(
			MatchError(dmafifo.ErrDecode))
	})

	It("should panic when the buffer cannot hold at least two slots", func() {
		Expect(func() {
			dmafifo.MakeBuilder().
				WithEngine(sim.NewSerialEngine()).
				WithBufferWidth(6).
				WithMaxFrameWidth(6).
				Build("FIFO")
		}).To(Panic())
	})
})
