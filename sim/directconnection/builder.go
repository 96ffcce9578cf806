package directconnection

import "github.com/slaclab/surfsim/sim"

// Builder can help build direct connections.
type Builder struct {
	engine sim.Engine
	freq   sim.Freq
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{}
}

// WithEngine sets the engine that the connection uses.
func (b Builder) WithEngine(e sim.Engine) Builder {
	b.engine = e
	return b
}

// WithFreq sets the frequency that the connection delivers messages at.
func (b Builder) WithFreq(f sim.Freq) Builder {
	b.freq = f
	return b
}

// Build creates a new direct connection.
func (b Builder) Build(name string) *Comp {
	c := new(Comp)
	c.TickingComponent = sim.NewSecondaryTickingComponent(
		name, b.engine, b.freq, c)

	return c
}
