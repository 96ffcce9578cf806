// Package dmaengine models the write and read DMA engines that the FIFO
// controller drives. The engines accept one request at a time, perform the
// transfer against a Storage after a configurable latency, and answer with a
// single acknowledgement.
package dmaengine

import "github.com/slaclab/surfsim/sim"

// A WriteReq arms the write engine to absorb one inbound frame into memory.
type WriteReq struct {
	sim.MsgMeta

	Address uint64
	MaxSize uint32
}

// Meta returns the meta data of the message.
func (r *WriteReq) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// WriteReqBuilder can build write requests.
type WriteReqBuilder struct {
	src, dst sim.Port
	address  uint64
	maxSize  uint32
}

// WithSrc sets the source of the request to build.
func (b WriteReqBuilder) WithSrc(src sim.Port) WriteReqBuilder {
	b.src = src
	return b
}

// WithDst sets the destination of the request to build.
func (b WriteReqBuilder) WithDst(dst sim.Port) WriteReqBuilder {
	b.dst = dst
	return b
}

// WithAddress sets the target address of the request to build.
func (b WriteReqBuilder) WithAddress(address uint64) WriteReqBuilder {
	b.address = address
	return b
}

// WithMaxSize sets the maximum number of payload bytes accepted.
func (b WriteReqBuilder) WithMaxSize(maxSize uint32) WriteReqBuilder {
	b.maxSize = maxSize
	return b
}

// Build creates a new WriteReq.
func (b WriteReqBuilder) Build() *WriteReq {
	r := &WriteReq{}
	r.ID = sim.GetIDGenerator().Generate()
	r.Src = b.src
	r.Dst = b.dst
	r.Address = b.address
	r.MaxSize = b.maxSize

	return r
}

// A WriteAck is the terminal signal of one write transfer.
type WriteAck struct {
	sim.MsgMeta

	RespondTo string

	Size       uint32
	FirstUser  uint8
	LastUser   uint8
	Dest       uint8
	StreamID   uint8
	Overflow   bool
	WriteError bool
}

// Meta returns the meta data of the message.
func (a *WriteAck) Meta() *sim.MsgMeta {
	return &a.MsgMeta
}

// GetRspTo returns the ID of the request that the ack responds to.
func (a *WriteAck) GetRspTo() string {
	return a.RespondTo
}

// WriteAckBuilder can build write acknowledgements.
type WriteAckBuilder struct {
	src, dst   sim.Port
	rspTo      string
	size       uint32
	firstUser  uint8
	lastUser   uint8
	dest       uint8
	streamID   uint8
	overflow   bool
	writeError bool
}

// WithSrc sets the source of the ack to build.
func (b WriteAckBuilder) WithSrc(src sim.Port) WriteAckBuilder {
	b.src = src
	return b
}

// WithDst sets the destination of the ack to build.
func (b WriteAckBuilder) WithDst(dst sim.Port) WriteAckBuilder {
	b.dst = dst
	return b
}

// WithRspTo sets the ID of the request that the ack responds to.
func (b WriteAckBuilder) WithRspTo(id string) WriteAckBuilder {
	b.rspTo = id
	return b
}

// WithSize sets the number of bytes actually written.
func (b WriteAckBuilder) WithSize(size uint32) WriteAckBuilder {
	b.size = size
	return b
}

// WithFirstUser sets the first-beat user field observed on the frame.
func (b WriteAckBuilder) WithFirstUser(firstUser uint8) WriteAckBuilder {
	b.firstUser = firstUser
	return b
}

// WithLastUser sets the last-beat user field observed on the frame.
func (b WriteAckBuilder) WithLastUser(lastUser uint8) WriteAckBuilder {
	b.lastUser = lastUser
	return b
}

// WithDest sets the destination tag observed on the frame.
func (b WriteAckBuilder) WithDest(dest uint8) WriteAckBuilder {
	b.dest = dest
	return b
}

// WithStreamID sets the stream ID observed on the frame.
func (b WriteAckBuilder) WithStreamID(streamID uint8) WriteAckBuilder {
	b.streamID = streamID
	return b
}

// WithOverflow marks that the frame was longer than the armed maximum size.
func (b WriteAckBuilder) WithOverflow(overflow bool) WriteAckBuilder {
	b.overflow = overflow
	return b
}

// WithWriteError marks that the memory write failed.
func (b WriteAckBuilder) WithWriteError(writeError bool) WriteAckBuilder {
	b.writeError = writeError
	return b
}

// Build creates a new WriteAck.
func (b WriteAckBuilder) Build() *WriteAck {
	a := &WriteAck{}
	a.ID = sim.GetIDGenerator().Generate()
	a.Src = b.src
	a.Dst = b.dst
	a.RespondTo = b.rspTo
	a.Size = b.size
	a.FirstUser = b.firstUser
	a.LastUser = b.lastUser
	a.Dest = b.dest
	a.StreamID = b.streamID
	a.Overflow = b.overflow
	a.WriteError = b.writeError

	return a
}

// A ReadReq asks the read engine to drain one buffered frame back out as a
// stream frame.
type ReadReq struct {
	sim.MsgMeta

	Address   uint64
	Size      uint32
	FirstUser uint8
	LastUser  uint8
	Dest      uint8
	StreamID  uint8
}

// Meta returns the meta data of the message.
func (r *ReadReq) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// ReadReqBuilder can build read requests.
type ReadReqBuilder struct {
	src, dst  sim.Port
	address   uint64
	size      uint32
	firstUser uint8
	lastUser  uint8
	dest      uint8
	streamID  uint8
}

// WithSrc sets the source of the request to build.
func (b ReadReqBuilder) WithSrc(src sim.Port) ReadReqBuilder {
	b.src = src
	return b
}

// WithDst sets the destination of the request to build.
func (b ReadReqBuilder) WithDst(dst sim.Port) ReadReqBuilder {
	b.dst = dst
	return b
}

// WithAddress sets the source address of the request to build.
func (b ReadReqBuilder) WithAddress(address uint64) ReadReqBuilder {
	b.address = address
	return b
}

// WithSize sets the number of bytes to read back out.
func (b ReadReqBuilder) WithSize(size uint32) ReadReqBuilder {
	b.size = size
	return b
}

// WithFirstUser sets the first-beat user field of the outbound frame.
func (b ReadReqBuilder) WithFirstUser(firstUser uint8) ReadReqBuilder {
	b.firstUser = firstUser
	return b
}

// WithLastUser sets the last-beat user field of the outbound frame.
func (b ReadReqBuilder) WithLastUser(lastUser uint8) ReadReqBuilder {
	b.lastUser = lastUser
	return b
}

// WithDest sets the destination tag of the outbound frame.
func (b ReadReqBuilder) WithDest(dest uint8) ReadReqBuilder {
	b.dest = dest
	return b
}

// WithStreamID sets the stream ID of the outbound frame.
func (b ReadReqBuilder) WithStreamID(streamID uint8) ReadReqBuilder {
	b.streamID = streamID
	return b
}

// Build creates a new ReadReq.
func (b ReadReqBuilder) Build() *ReadReq {
	r := &ReadReq{}
	r.ID = sim.GetIDGenerator().Generate()
	r.Src = b.src
	r.Dst = b.dst
	r.Address = b.address
	r.Size = b.size
	r.FirstUser = b.firstUser
	r.LastUser = b.lastUser
	r.Dest = b.dest
	r.StreamID = b.streamID

	return r
}

// A ReadAck is the terminal signal of one read transfer.
type ReadAck struct {
	sim.MsgMeta

	RespondTo string
}

// Meta returns the meta data of the message.
func (a *ReadAck) Meta() *sim.MsgMeta {
	return &a.MsgMeta
}

// GetRspTo returns the ID of the request that the ack responds to.
func (a *ReadAck) GetRspTo() string {
	return a.RespondTo
}

// ReadAckBuilder can build read acknowledgements.
type ReadAckBuilder struct {
	src, dst sim.Port
	rspTo    string
}

// WithSrc sets the source of the ack to build.
func (b ReadAckBuilder) WithSrc(src sim.Port) ReadAckBuilder {
	b.src = src
	return b
}

// WithDst sets the destination of the ack to build.
func (b ReadAckBuilder) WithDst(dst sim.Port) ReadAckBuilder {
	b.dst = dst
	return b
}

// WithRspTo sets the ID of the request that the ack responds to.
func (b ReadAckBuilder) WithRspTo(id string) ReadAckBuilder {
	b.rspTo = id
	return b
}

// Build creates a new ReadAck.
func (b ReadAckBuilder) Build() *ReadAck {
	a := &ReadAck{}
	a.ID = sim.GetIDGenerator().Generate()
	a.Src = b.src
	a.Dst = b.dst
	a.RespondTo = b.rspTo

	return a
}
