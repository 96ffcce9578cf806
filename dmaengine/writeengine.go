package dmaengine

import (
	"log"
	"reflect"

	"github.com/slaclab/surfsim/mem"
	"github.com/slaclab/surfsim/sim"
	"github.com/slaclab/surfsim/stream"
)

type writeDoneEvent struct {
	*sim.EventBase
	ack *WriteAck
}

func newWriteDoneEvent(
	time sim.VTimeInSec,
	handler sim.Handler,
	ack *WriteAck,
) *writeDoneEvent {
	return &writeDoneEvent{sim.NewEventBase(time, handler), ack}
}

// A WriteEngine absorbs one inbound stream frame per armed request, stores
// the payload into memory, and acknowledges the transfer after a fixed
// latency.
type WriteEngine struct {
	*sim.TickingComponent

	ctrlPort   sim.Port
	streamPort sim.Port

	storage *mem.Storage
	latency int

	// errorInjector lets tests and the harness force WriteError on selected
	// frames. A nil injector never reports an error.
	errorInjector func(*stream.Frame) bool

	req   *WriteReq
	frame *stream.Frame
	busy  bool
}

// CtrlPort returns the port that requests and acks travel on.
func (e *WriteEngine) CtrlPort() sim.Port {
	return e.ctrlPort
}

// StreamPort returns the port that inbound frames arrive at.
func (e *WriteEngine) StreamPort() sim.Port {
	return e.streamPort
}

// Handle processes events scheduled on the engine.
func (e *WriteEngine) Handle(evt sim.Event) error {
	switch evt := evt.(type) {
	case *writeDoneEvent:
		return e.handleWriteDoneEvent(evt)
	case sim.TickEvent:
		return e.TickingComponent.Handle(evt)
	default:
		log.Panicf("cannot handle event of type %s", reflect.TypeOf(evt))
	}

	return nil
}

// Tick updates the engine state.
func (e *WriteEngine) Tick() bool {
	madeProgress := false

	madeProgress = e.startTransfer() || madeProgress
	madeProgress = e.acceptFrame() || madeProgress
	madeProgress = e.acceptRequest() || madeProgress

	return madeProgress
}

func (e *WriteEngine) acceptRequest() bool {
	if e.req != nil {
		return false
	}

	msg := e.ctrlPort.RetrieveIncoming()
	if msg == nil {
		return false
	}

	req, ok := msg.(*WriteReq)
	if !ok {
		log.Panicf("cannot handle request of type %s", reflect.TypeOf(msg))
	}

	e.req = req

	return true
}

// acceptFrame consumes an inbound frame only when a request is armed. An
// unarmed engine leaves the frame in the port buffer, which backpressures
// the upstream source.
func (e *WriteEngine) acceptFrame() bool {
	if e.req == nil || e.frame != nil || e.busy {
		return false
	}

	msg := e.streamPort.RetrieveIncoming()
	if msg == nil {
		return false
	}

	e.frame = msg.(*stream.Frame)

	return true
}

func (e *WriteEngine) startTransfer() bool {
	if e.req == nil || e.frame == nil || e.busy {
		return false
	}

	payload := e.frame.Payload
	size := uint32(len(payload))
	overflow := false

	if size > e.req.MaxSize {
		size = e.req.MaxSize
		overflow = true
	}

	err := e.storage.Write(e.req.Address, payload[:size])
	if err != nil {
		log.Panic(err)
	}

	writeError := false
	if e.errorInjector != nil {
		writeError = e.errorInjector(e.frame)
	}

	ack := WriteAckBuilder{}.
		WithSrc(e.ctrlPort).
		WithDst(e.req.Src).
		WithRspTo(e.req.ID).
		WithSize(size).
		WithFirstUser(e.frame.FirstUser).
		WithLastUser(e.frame.LastUser).
		WithDest(e.frame.Dest).
		WithStreamID(e.frame.StreamID).
		WithOverflow(overflow).
		WithWriteError(writeError).
		Build()

	now := e.CurrentTime()
	e.Engine.Schedule(newWriteDoneEvent(e.Freq.NCyclesLater(e.latency, now), e, ack))
	e.busy = true

	return true
}

func (e *WriteEngine) handleWriteDoneEvent(evt *writeDoneEvent) error {
	err := e.ctrlPort.Send(evt.ack)
	if err != nil {
		retry := newWriteDoneEvent(e.Freq.NextTick(evt.Time()), e, evt.ack)
		e.Engine.Schedule(retry)
		return nil
	}

	e.req = nil
	e.frame = nil
	e.busy = false
	e.TickLater()

	return nil
}
