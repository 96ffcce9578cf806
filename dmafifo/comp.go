// Package dmafifo models the control plane of the stream-to-memory buffering
// FIFO. The component coordinates a write DMA engine and a read DMA engine
// over a ring of fixed-size buffer slots, bridging write completions to read
// requests through a bounded request queue.
package dmafifo

import (
	"log"
	"reflect"

	"github.com/slaclab/surfsim/dmaengine"
	"github.com/slaclab/surfsim/sim"
	"github.com/slaclab/surfsim/stream"
	"github.com/slaclab/surfsim/tracing"
)

// Identity fields reported by the read-only configuration registers.
const (
	versionNumber = 1

	streamDestBits  = 8
	streamIDBits    = 8
	streamUserBits  = 8
	streamDataBytes = 8

	memLenBits    = 8
	memIDBits     = 4
	memDataBytes  = 16
	memAddrWidth  = 64
	burstTypeIncr = 1
)

// Comp is the DMA FIFO controller.
//
// Inbound frames are absorbed slot by slot by the write channel; every write
// completion is turned into a queued read request; the read channel drains
// the same slot back out. Both channels hold at most one request in flight.
type Comp struct {
	*sim.TickingComponent

	writeCtrlPort sim.Port
	readCtrlPort  sim.Port

	writeEngine sim.Port
	readEngine  sim.Port

	bufferWidth   uint
	maxFrameWidth uint
	slotCount     uint64

	regs *RegFile

	// Control state, mutated only through register writes.
	online       bool
	dropOnError  bool
	baseAddr     uint64
	maxFrameSize uint32
	cacheAttr    uint32
	resetPulse   bool

	// Power-on defaults, read-only after build.
	onlineDefault bool
	dropDefault   bool
	cacheDefault  uint32

	// Channel state.
	wrIndex        uint64
	rdIndex        uint64
	pendingWriteID string
	pendingReadID  string
	reqQueue       sim.Buffer

	// Status state.
	errorCount     uint32
	frameCount     uint32
	peakFrameCount uint32
}

// WriteCtrlPort returns the port that talks to the write engine.
func (c *Comp) WriteCtrlPort() sim.Port {
	return c.writeCtrlPort
}

// ReadCtrlPort returns the port that talks to the read engine.
func (c *Comp) ReadCtrlPort() sim.Port {
	return c.readCtrlPort
}

// RegRead performs one 32-bit register read transaction.
func (c *Comp) RegRead(offset uint64) (uint32, error) {
	return c.regs.Read(offset)
}

// RegWrite performs one 32-bit register write transaction. The written value
// takes effect on the next cycle.
func (c *Comp) RegWrite(offset uint64, value uint32) error {
	err := c.regs.Write(offset, value)
	if err != nil {
		return err
	}

	c.TickLater()

	return nil
}

// Tick updates the controller state for one cycle. Every helper observes the
// state left by the previous cycle; the phase order makes sure a channel
// never reacts to a value produced in the same cycle.
func (c *Comp) Tick() bool {
	madeProgress := false

	madeProgress = c.clampMaxFrameSize() || madeProgress
	madeProgress = c.applyCounterReset() || madeProgress

	if !c.online {
		madeProgress = c.applyOffline() || madeProgress
		c.updateAccounting()

		return madeProgress
	}

	madeProgress = c.issueWriteReq() || madeProgress
	madeProgress = c.completeWrite() || madeProgress
	madeProgress = c.issueReadReq() || madeProgress
	madeProgress = c.completeRead() || madeProgress

	c.updateAccounting()

	return madeProgress
}

// clampMaxFrameSize enforces the build-time frame size ceiling. The clamp is
// applied every cycle, not just on register writes.
func (c *Comp) clampMaxFrameSize() bool {
	ceiling := uint32(1) << c.maxFrameWidth
	if c.maxFrameSize <= ceiling {
		return false
	}

	c.maxFrameSize = ceiling

	return true
}

// applyCounterReset carries out the self-clearing reset pulse one cycle
// after it was armed.
func (c *Comp) applyCounterReset() bool {
	if !c.resetPulse {
		return false
	}

	c.errorCount = 0
	c.peakFrameCount = 0
	c.resetPulse = false

	return true
}

// applyOffline forces both channels back to idle, resets the slot indices,
// and clears the request queue. Acknowledgements of abandoned requests are
// drained and ignored.
func (c *Comp) applyOffline() bool {
	madeProgress := false

	for c.writeCtrlPort.RetrieveIncoming() != nil {
		madeProgress = true
	}

	for c.readCtrlPort.RetrieveIncoming() != nil {
		madeProgress = true
	}

	if c.pendingWriteID == "" && c.pendingReadID == "" &&
		c.wrIndex == 0 && c.rdIndex == 0 && c.reqQueue.Size() == 0 {
		return madeProgress
	}

	c.pendingWriteID = ""
	c.pendingReadID = ""
	c.wrIndex = 0
	c.rdIndex = 0
	c.reqQueue.Clear()

	return true
}

// issueWriteReq arms the write engine with the next buffer slot. Issuance
// stalls while the request queue is near full or while the slot ring cannot
// take another unread frame.
func (c *Comp) issueWriteReq() bool {
	if c.pendingWriteID != "" {
		return false
	}

	if !c.reqQueue.CanPush() {
		return false
	}

	if uint64(c.frameCount) >= c.slotCount-1 {
		return false
	}

	req := dmaengine.WriteReqBuilder{}.
		WithSrc(c.writeCtrlPort).
		WithDst(c.writeEngine).
		WithAddress(c.slotAddress(c.wrIndex)).
		WithMaxSize(c.maxFrameSize).
		Build()

	err := c.writeCtrlPort.Send(req)
	if err != nil {
		return false
	}

	c.pendingWriteID = req.ID
	tracing.StartTask(req.ID, "", c, "frame", "buffer", nil)

	return true
}

// completeWrite consumes one write acknowledgement, applies the error and
// drop policy, and turns the completion into a queued read request.
func (c *Comp) completeWrite() bool {
	msg := c.writeCtrlPort.PeekIncoming()
	if msg == nil {
		return false
	}

	ack, ok := msg.(*dmaengine.WriteAck)
	if !ok {
		log.Panicf("cannot handle message of type %s", reflect.TypeOf(msg))
	}

	c.writeCtrlPort.RetrieveIncoming()

	if ack.RespondTo != c.pendingWriteID {
		// Ack of a request abandoned by a previous offline period.
		return true
	}

	c.pendingWriteID = ""
	tracing.EndTask(ack.RespondTo, c)

	frameError := ack.Overflow || ack.WriteError
	if frameError {
		c.errorCount++
	}

	if frameError && c.dropOnError {
		// The slot is discarded and reused; wrIndex does not advance.
		return true
	}

	lastUser := ack.LastUser
	if frameError {
		lastUser |= stream.ErrorFlagMask
	}

	rdReq := dmaengine.ReadReqBuilder{}.
		WithAddress(c.slotAddress(c.wrIndex)).
		WithSize(ack.Size).
		WithFirstUser(ack.FirstUser).
		WithLastUser(lastUser).
		WithDest(ack.Dest).
		WithStreamID(ack.StreamID).
		Build()

	c.reqQueue.Push(rdReq)
	c.wrIndex = (c.wrIndex + 1) % c.slotCount

	return true
}

// issueReadReq dequeues one pending read request and issues it against the
// slot at rdIndex. The slot address is recomputed locally so that slot
// addressing stays authoritative in one place.
func (c *Comp) issueReadReq() bool {
	if c.pendingReadID != "" {
		return false
	}

	item := c.reqQueue.Peek()
	if item == nil {
		return false
	}

	req := item.(*dmaengine.ReadReq)
	req.Src = c.readCtrlPort
	req.Dst = c.readEngine
	req.Address = c.slotAddress(c.rdIndex)

	err := c.readCtrlPort.Send(req)
	if err != nil {
		return false
	}

	c.reqQueue.Pop()
	c.pendingReadID = req.ID
	tracing.StartTask(req.ID, "", c, "frame", "drain", nil)

	return true
}

// completeRead consumes one read acknowledgement and frees the slot.
func (c *Comp) completeRead() bool {
	msg := c.readCtrlPort.PeekIncoming()
	if msg == nil {
		return false
	}

	ack, ok := msg.(*dmaengine.ReadAck)
	if !ok {
		log.Panicf("cannot handle message of type %s", reflect.TypeOf(msg))
	}

	c.readCtrlPort.RetrieveIncoming()

	if ack.RespondTo != c.pendingReadID {
		return true
	}

	c.pendingReadID = ""
	c.rdIndex = (c.rdIndex + 1) % c.slotCount
	tracing.EndTask(ack.RespondTo, c)

	return true
}

// updateAccounting derives the in-flight frame count from the slot indices
// and tracks its peak.
func (c *Comp) updateAccounting() {
	c.frameCount = uint32((c.wrIndex + c.slotCount - c.rdIndex) % c.slotCount)

	if c.frameCount > c.peakFrameCount {
		c.peakFrameCount = c.frameCount
	}
}

func (c *Comp) slotAddress(index uint64) uint64 {
	return c.baseAddr + (index << c.maxFrameWidth)
}

func (c *Comp) initRegFile() {
	r := NewRegFile()

	r.AddConst(RegControl, 0, 1, versionNumber)
	r.AddRW(RegControl, 8, 1,
		func() uint32 { return boolToReg(c.online) },
		func(v uint32) { c.online = v != 0 })
	r.AddRW(RegControl, 9, 1,
		func() uint32 { return boolToReg(c.dropOnError) },
		func(v uint32) { c.dropOnError = v != 0 })
	r.AddRO(RegControl, 10, 1,
		func() uint32 { return boolToReg(c.onlineDefault) })
	r.AddRO(RegControl, 11, 1,
		func() uint32 { return boolToReg(c.dropDefault) })
	r.AddRO(RegControl, 12, 4,
		func() uint32 { return c.cacheDefault })
	r.AddRW(RegControl, 16, 4,
		func() uint32 { return c.cacheAttr },
		func(v uint32) { c.cacheAttr = v })
	r.AddConst(RegControl, 20, 2, burstTypeIncr)

	r.AddRW(RegMaxFrameSize, 0, 32,
		func() uint32 { return c.maxFrameSize },
		func(v uint32) { c.maxFrameSize = v })

	r.AddRW(RegBaseAddrLow, 0, 32,
		func() uint32 { return uint32(c.baseAddr) },
		func(v uint32) {
			c.baseAddr = c.baseAddr&^uint64(0xFFFFFFFF) | uint64(v)
		})
	r.AddRW(RegBaseAddrHigh, 0, 32,
		func() uint32 { return uint32(c.baseAddr >> 32) },
		func(v uint32) {
			c.baseAddr = c.baseAddr&uint64(0xFFFFFFFF) | uint64(v)<<32
		})

	// The rest of the base address window reads as zero.
	for offset := uint64(0x28); offset <= 0x3C; offset += 4 {
		r.AddConst(offset, 0, 32, 0)
	}

	r.AddRO(RegFrameCount, 0, 32,
		func() uint32 { return c.frameCount })
	r.AddRO(RegErrorCount, 0, 32,
		func() uint32 { return c.errorCount })
	r.AddRO(RegPeakFrameCount, 0, 32,
		func() uint32 { return c.peakFrameCount })

	r.AddConst(RegStreamConfig, 0, 8, streamDestBits)
	r.AddConst(RegStreamConfig, 8, 8, streamIDBits)
	r.AddConst(RegStreamConfig, 16, 8, streamUserBits)
	r.AddConst(RegStreamConfig, 24, 8, streamDataBytes)

	r.AddConst(RegMemoryConfig, 0, 8, memLenBits)
	r.AddConst(RegMemoryConfig, 8, 8, memIDBits)
	r.AddConst(RegMemoryConfig, 16, 8, memDataBytes)
	r.AddConst(RegMemoryConfig, 24, 8, memAddrWidth)

	r.AddConst(RegBufferConfig, 0, 8, uint32(c.maxFrameWidth))
	r.AddConst(RegBufferConfig, 8, 8, uint32(c.bufferWidth))

	r.AddRW(RegResetCounters, 0, 1,
		func() uint32 { return boolToReg(c.resetPulse) },
		func(v uint32) {
			if v != 0 {
				c.resetPulse = true
			}
		})

	c.regs = r
}

func boolToReg(b bool) uint32 {
	if b {
		return 1
	}

	return 0
}
