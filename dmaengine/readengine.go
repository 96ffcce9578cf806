package dmaengine

import (
	"log"
	"reflect"

	"github.com/slaclab/surfsim/mem"
	"github.com/slaclab/surfsim/sim"
	"github.com/slaclab/surfsim/stream"
)

type readDoneEvent struct {
	*sim.EventBase
	frame *stream.Frame
	ack   *ReadAck
}

func newReadDoneEvent(
	time sim.VTimeInSec,
	handler sim.Handler,
	frame *stream.Frame,
	ack *ReadAck,
) *readDoneEvent {
	return &readDoneEvent{sim.NewEventBase(time, handler), frame, ack}
}

// A ReadEngine drains a buffered frame back out of memory as one outbound
// stream frame, then acknowledges the transfer.
type ReadEngine struct {
	*sim.TickingComponent

	ctrlPort   sim.Port
	streamPort sim.Port

	storage      *mem.Storage
	latency      int
	streamTarget sim.Port

	req       *ReadReq
	busy      bool
	frameSent bool
}

// CtrlPort returns the port that requests and acks travel on.
func (e *ReadEngine) CtrlPort() sim.Port {
	return e.ctrlPort
}

// StreamPort returns the port that outbound frames leave from.
func (e *ReadEngine) StreamPort() sim.Port {
	return e.streamPort
}

// Handle processes events scheduled on the engine.
func (e *ReadEngine) Handle(evt sim.Event) error {
	switch evt := evt.(type) {
	case *readDoneEvent:
		return e.handleReadDoneEvent(evt)
	case sim.TickEvent:
		return e.TickingComponent.Handle(evt)
	default:
		log.Panicf("cannot handle event of type %s", reflect.TypeOf(evt))
	}

	return nil
}

// Tick updates the engine state.
func (e *ReadEngine) Tick() bool {
	madeProgress := false

	madeProgress = e.startTransfer() || madeProgress
	madeProgress = e.acceptRequest() || madeProgress

	return madeProgress
}

func (e *ReadEngine) acceptRequest() bool {
	if e.req != nil {
		return false
	}

	msg := e.ctrlPort.RetrieveIncoming()
	if msg == nil {
		return false
	}

	req, ok := msg.(*ReadReq)
	if !ok {
		log.Panicf("cannot handle request of type %s", reflect.TypeOf(msg))
	}

	e.req = req

	return true
}

func (e *ReadEngine) startTransfer() bool {
	if e.req == nil || e.busy {
		return false
	}

	data, err := e.storage.Read(e.req.Address, uint64(e.req.Size))
	if err != nil {
		log.Panic(err)
	}

	frame := stream.FrameBuilder{}.
		WithSrc(e.streamPort).
		WithDst(e.streamTarget).
		WithPayload(data).
		WithFirstUser(e.req.FirstUser).
		WithLastUser(e.req.LastUser).
		WithDest(e.req.Dest).
		WithStreamID(e.req.StreamID).
		Build()

	ack := ReadAckBuilder{}.
		WithSrc(e.ctrlPort).
		WithDst(e.req.Src).
		WithRspTo(e.req.ID).
		Build()

	now := e.CurrentTime()
	e.Engine.Schedule(
		newReadDoneEvent(e.Freq.NCyclesLater(e.latency, now), e, frame, ack))
	e.busy = true

	return true
}

func (e *ReadEngine) handleReadDoneEvent(evt *readDoneEvent) error {
	if !e.frameSent {
		err := e.streamPort.Send(evt.frame)
		if err != nil {
			e.rescheduleReadDone(evt)
			return nil
		}

		e.frameSent = true
	}

	err := e.ctrlPort.Send(evt.ack)
	if err != nil {
		e.rescheduleReadDone(evt)
		return nil
	}

	e.req = nil
	e.busy = false
	e.frameSent = false
	e.TickLater()

	return nil
}

func (e *ReadEngine) rescheduleReadDone(evt *readDoneEvent) {
	retry := newReadDoneEvent(e.Freq.NextTick(evt.Time()), e, evt.frame, evt.ack)
	e.Engine.Schedule(retry)
}
