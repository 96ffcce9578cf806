package stream

import "github.com/slaclab/surfsim/sim"

// A Sink absorbs frames from a stream interface and records them in arrival
// order for inspection.
type Sink struct {
	*sim.TickingComponent

	in sim.Port

	received []*Frame
}

// In returns the input port of the sink.
func (s *Sink) In() sim.Port {
	return s.in
}

// Received returns the frames absorbed so far, in arrival order.
func (s *Sink) Received() []*Frame {
	return s.received
}

// Tick absorbs at most one frame per cycle.
func (s *Sink) Tick() bool {
	msg := s.in.RetrieveIncoming()
	if msg == nil {
		return false
	}

	s.received = append(s.received, msg.(*Frame))

	return true
}

// SinkBuilder can build stream sinks.
type SinkBuilder struct {
	engine sim.Engine
	freq   sim.Freq
}

// MakeSinkBuilder creates a SinkBuilder with default parameters.
func MakeSinkBuilder() SinkBuilder {
	return SinkBuilder{freq: 1 * sim.GHz}
}

// WithEngine sets the engine that the sink uses.
func (b SinkBuilder) WithEngine(e sim.Engine) SinkBuilder {
	b.engine = e
	return b
}

// WithFreq sets the frequency that the sink runs at.
func (b SinkBuilder) WithFreq(f sim.Freq) SinkBuilder {
	b.freq = f
	return b
}

// Build creates a new Sink.
func (b SinkBuilder) Build(name string) *Sink {
	s := new(Sink)
	s.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, s)

	s.in = sim.NewPort(s, 1, 1, name+".In")
	s.AddPort("In", s.in)

	return s
}
