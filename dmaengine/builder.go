package dmaengine

import (
	"github.com/slaclab/surfsim/mem"
	"github.com/slaclab/surfsim/sim"
	"github.com/slaclab/surfsim/stream"
)

// WriteEngineBuilder can build write engines.
type WriteEngineBuilder struct {
	engine        sim.Engine
	freq          sim.Freq
	storage       *mem.Storage
	latency       int
	errorInjector func(*stream.Frame) bool
}

// MakeWriteEngineBuilder creates a WriteEngineBuilder with default
// parameters.
func MakeWriteEngineBuilder() WriteEngineBuilder {
	return WriteEngineBuilder{freq: 1 * sim.GHz}
}

// WithEngine sets the event engine that the write engine uses.
func (b WriteEngineBuilder) WithEngine(e sim.Engine) WriteEngineBuilder {
	b.engine = e
	return b
}

// WithFreq sets the frequency that the write engine runs at.
func (b WriteEngineBuilder) WithFreq(f sim.Freq) WriteEngineBuilder {
	b.freq = f
	return b
}

// WithStorage sets the memory that the write engine stores payloads into.
func (b WriteEngineBuilder) WithStorage(s *mem.Storage) WriteEngineBuilder {
	b.storage = s
	return b
}

// WithLatency sets the number of cycles between a transfer starting and its
// acknowledgement. Zero-latency completion is allowed.
func (b WriteEngineBuilder) WithLatency(latency int) WriteEngineBuilder {
	b.latency = latency
	return b
}

// WithErrorInjector sets the predicate that forces WriteError on selected
// frames.
func (b WriteEngineBuilder) WithErrorInjector(
	injector func(*stream.Frame) bool,
) WriteEngineBuilder {
	b.errorInjector = injector
	return b
}

// Build creates a new WriteEngine.
func (b WriteEngineBuilder) Build(name string) *WriteEngine {
	e := new(WriteEngine)
	e.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, e)
	e.storage = b.storage
	e.latency = b.latency
	e.errorInjector = b.errorInjector

	e.ctrlPort = sim.NewPort(e, 1, 1, name+".Ctrl")
	e.streamPort = sim.NewPort(e, 1, 1, name+".Stream")
	e.AddPort("Ctrl", e.ctrlPort)
	e.AddPort("Stream", e.streamPort)

	return e
}

// ReadEngineBuilder can build read engines.
type ReadEngineBuilder struct {
	engine       sim.Engine
	freq         sim.Freq
	storage      *mem.Storage
	latency      int
	streamTarget sim.Port
}

// MakeReadEngineBuilder creates a ReadEngineBuilder with default parameters.
func MakeReadEngineBuilder() ReadEngineBuilder {
	return ReadEngineBuilder{freq: 1 * sim.GHz}
}

// WithEngine sets the event engine that the read engine uses.
func (b ReadEngineBuilder) WithEngine(e sim.Engine) ReadEngineBuilder {
	b.engine = e
	return b
}

// WithFreq sets the frequency that the read engine runs at.
func (b ReadEngineBuilder) WithFreq(f sim.Freq) ReadEngineBuilder {
	b.freq = f
	return b
}

// WithStorage sets the memory that the read engine drains payloads from.
func (b ReadEngineBuilder) WithStorage(s *mem.Storage) ReadEngineBuilder {
	b.storage = s
	return b
}

// WithLatency sets the number of cycles between a transfer starting and its
// acknowledgement.
func (b ReadEngineBuilder) WithLatency(latency int) ReadEngineBuilder {
	b.latency = latency
	return b
}

// WithStreamTarget sets the port that outbound frames are delivered to.
func (b ReadEngineBuilder) WithStreamTarget(p sim.Port) ReadEngineBuilder {
	b.streamTarget = p
	return b
}

// Build creates a new ReadEngine.
func (b ReadEngineBuilder) Build(name string) *ReadEngine {
	e := new(ReadEngine)
	e.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, e)
	e.storage = b.storage
	e.latency = b.latency
	e.streamTarget = b.streamTarget

	e.ctrlPort = sim.NewPort(e, 1, 1, name+".Ctrl")
	e.streamPort = sim.NewPort(e, 1, 1, name+".Stream")
	e.AddPort("Ctrl", e.ctrlPort)
	e.AddPort("Stream", e.streamPort)

	return e
}
