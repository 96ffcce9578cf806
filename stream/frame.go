// Package stream models the tagged byte-stream interfaces at the boundary of
// the DMA FIFO. A Frame carries one complete inbound or outbound transfer
// together with its sideband metadata.
package stream

import "github.com/slaclab/surfsim/sim"

// ErrorFlagMask is the bit of the last-beat user field that marks a frame
// that suffered an error on its way through the buffering pipeline.
const ErrorFlagMask = 0x01

// A Frame is one tagged frame on a stream interface.
type Frame struct {
	sim.MsgMeta

	Payload   []byte
	FirstUser uint8
	LastUser  uint8
	Dest      uint8
	StreamID  uint8
}

// Meta returns the meta data of the message.
func (f *Frame) Meta() *sim.MsgMeta {
	return &f.MsgMeta
}

// HasError reports whether the error flag is set in the last-beat user field.
func (f *Frame) HasError() bool {
	return f.LastUser&ErrorFlagMask != 0
}

// FrameBuilder can build stream frames.
type FrameBuilder struct {
	src, dst  sim.Port
	payload   []byte
	firstUser uint8
	lastUser  uint8
	dest      uint8
	streamID  uint8
}

// WithSrc sets the source port of the frame to build.
func (b FrameBuilder) WithSrc(src sim.Port) FrameBuilder {
	b.src = src
	return b
}

// WithDst sets the destination port of the frame to build.
func (b FrameBuilder) WithDst(dst sim.Port) FrameBuilder {
	b.dst = dst
	return b
}

// WithPayload sets the payload bytes of the frame to build.
func (b FrameBuilder) WithPayload(payload []byte) FrameBuilder {
	b.payload = payload
	return b
}

// WithFirstUser sets the first-beat user field of the frame to build.
func (b FrameBuilder) WithFirstUser(firstUser uint8) FrameBuilder {
	b.firstUser = firstUser
	return b
}

// WithLastUser sets the last-beat user field of the frame to build.
func (b FrameBuilder) WithLastUser(lastUser uint8) FrameBuilder {
	b.lastUser = lastUser
	return b
}

// WithDest sets the destination tag of the frame to build.
func (b FrameBuilder) WithDest(dest uint8) FrameBuilder {
	b.dest = dest
	return b
}

// WithStreamID sets the stream ID of the frame to build.
func (b FrameBuilder) WithStreamID(streamID uint8) FrameBuilder {
	b.streamID = streamID
	return b
}

// Build creates a new Frame.
func (b FrameBuilder) Build() *Frame {
	f := &Frame{}
	f.ID = sim.GetIDGenerator().Generate()
	f.Src = b.src
	f.Dst = b.dst
	f.TrafficBytes = len(b.payload)
	f.Payload = b.payload
	f.FirstUser = b.firstUser
	f.LastUser = b.lastUser
	f.Dest = b.dest
	f.StreamID = b.streamID

	return f
}
