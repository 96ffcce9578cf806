package stream

import "github.com/slaclab/surfsim/sim"

// A Source feeds a scripted sequence of frames into a stream interface, one
// frame per cycle, respecting downstream backpressure.
type Source struct {
	*sim.TickingComponent

	out    sim.Port
	target sim.Port

	pending []*Frame
	sent    int
}

// Schedule queues a frame description to be sent. The frame's source and
// destination ports are filled in when the frame is issued.
func (s *Source) Schedule(f *Frame) {
	s.pending = append(s.pending, f)
	s.TickLater()
}

// Out returns the output port of the source.
func (s *Source) Out() sim.Port {
	return s.out
}

// NumSent returns the number of frames that have been issued so far.
func (s *Source) NumSent() int {
	return s.sent
}

// Tick issues at most one pending frame per cycle.
func (s *Source) Tick() bool {
	if len(s.pending) == 0 {
		return false
	}

	f := s.pending[0]
	f.Src = s.out
	f.Dst = s.target

	err := s.out.Send(f)
	if err != nil {
		return false
	}

	s.pending = s.pending[1:]
	s.sent++

	return true
}

// SourceBuilder can build stream sources.
type SourceBuilder struct {
	engine sim.Engine
	freq   sim.Freq
	target sim.Port
}

// MakeSourceBuilder creates a SourceBuilder with default parameters.
func MakeSourceBuilder() SourceBuilder {
	return SourceBuilder{freq: 1 * sim.GHz}
}

// WithEngine sets the engine that the source uses.
func (b SourceBuilder) WithEngine(e sim.Engine) SourceBuilder {
	b.engine = e
	return b
}

// WithFreq sets the frequency that the source runs at.
func (b SourceBuilder) WithFreq(f sim.Freq) SourceBuilder {
	b.freq = f
	return b
}

// WithTarget sets the port that the frames are sent to.
func (b SourceBuilder) WithTarget(p sim.Port) SourceBuilder {
	b.target = p
	return b
}

// Build creates a new Source.
func (b SourceBuilder) Build(name string) *Source {
	s := new(Source)
	s.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, s)
	s.target = b.target

	s.out = sim.NewPort(s, 1, 1, name+".Out")
	s.AddPort("Out", s.out)

	return s
}
