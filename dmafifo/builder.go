package dmafifo

import "github.com/slaclab/surfsim/sim"

// Builder can build DMA FIFO controllers.
type Builder struct {
	engine        sim.Engine
	freq          sim.Freq
	bufferWidth   uint
	maxFrameWidth uint
	baseAddr      uint64
	startOnline   bool
	dropOnError   bool
	cacheAttr     uint32
	writeEngine   sim.Port
	readEngine    sim.Port
}

// MakeBuilder creates a Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		freq:          1 * sim.GHz,
		bufferWidth:   16,
		maxFrameWidth: 12,
		startOnline:   true,
	}
}

// WithEngine sets the event engine that the controller uses.
func (b Builder) WithEngine(e sim.Engine) Builder {
	b.engine = e
	return b
}

// WithFreq sets the frequency that the controller runs at.
func (b Builder) WithFreq(f sim.Freq) Builder {
	b.freq = f
	return b
}

// WithBufferWidth sets the log2 of the total circular buffer size in bytes.
func (b Builder) WithBufferWidth(w uint) Builder {
	b.bufferWidth = w
	return b
}

// WithMaxFrameWidth sets the log2 of the buffer slot size in bytes. The slot
// size is the build-time ceiling of the runtime maximum frame size.
func (b Builder) WithMaxFrameWidth(w uint) Builder {
	b.maxFrameWidth = w
	return b
}

// WithBaseAddress sets the power-on base address of the circular buffer.
func (b Builder) WithBaseAddress(addr uint64) Builder {
	b.baseAddr = addr
	return b
}

// WithStartOnline sets whether the controller comes up online.
func (b Builder) WithStartOnline(online bool) Builder {
	b.startOnline = online
	return b
}

// WithDropOnError sets the power-on drop-on-error policy.
func (b Builder) WithDropOnError(drop bool) Builder {
	b.dropOnError = drop
	return b
}

// WithCacheAttr sets the power-on software cache attribute.
func (b Builder) WithCacheAttr(attr uint32) Builder {
	b.cacheAttr = attr & 0xF
	return b
}

// WithWriteEngine sets the control port of the write DMA engine.
func (b Builder) WithWriteEngine(p sim.Port) Builder {
	b.writeEngine = p
	return b
}

// WithReadEngine sets the control port of the read DMA engine.
func (b Builder) WithReadEngine(p sim.Port) Builder {
	b.readEngine = p
	return b
}

// Build creates a new controller.
func (b Builder) Build(name string) *Comp {
	if b.bufferWidth <= b.maxFrameWidth {
		panic("buffer width must be larger than the max frame width")
	}

	c := new(Comp)
	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)

	c.bufferWidth = b.bufferWidth
	c.maxFrameWidth = b.maxFrameWidth
	c.slotCount = 1 << (b.bufferWidth - b.maxFrameWidth)

	c.baseAddr = b.baseAddr
	c.online = b.startOnline
	c.dropOnError = b.dropOnError
	c.cacheAttr = b.cacheAttr
	c.maxFrameSize = 1 << b.maxFrameWidth

	c.onlineDefault = b.startOnline
	c.dropDefault = b.dropOnError
	c.cacheDefault = b.cacheAttr

	c.writeEngine = b.writeEngine
	c.readEngine = b.readEngine

	c.writeCtrlPort = sim.NewPort(c, 2, 2, name+".WriteCtrl")
	c.readCtrlPort = sim.NewPort(c, 2, 2, name+".ReadCtrl")
	c.AddPort("WriteCtrl", c.writeCtrlPort)
	c.AddPort("ReadCtrl", c.readCtrlPort)

	c.reqQueue = sim.NewBuffer(name+".ReqQueue", int(c.slotCount))

	c.initRegFile()
	c.TickNow()

	return c
}
