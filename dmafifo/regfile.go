package dmafifo

import "errors"

// ErrDecode is returned for accesses to unmapped register offsets.
var ErrDecode = errors.New("register decode error")

// Register map byte offsets.
const (
	RegControl        = 0x00
	RegMaxFrameSize   = 0x04
	RegBaseAddrLow    = 0x20
	RegBaseAddrHigh   = 0x24
	RegFrameCount     = 0x40
	RegErrorCount     = 0x80
	RegPeakFrameCount = 0x84
	RegStreamConfig   = 0xC0
	RegMemoryConfig   = 0xC4
	RegBufferConfig   = 0xC8
	RegResetCounters  = 0xFC
)

// AccessMode tells whether software can mutate a register field.
type AccessMode int

// Access modes of register fields.
const (
	AccessRO AccessMode = iota
	AccessRW
)

type regField struct {
	lsb   uint
	width uint
	mode  AccessMode
	read  func() uint32
	write func(uint32)
}

// A RegFile is a byte-addressable bank of 32-bit registers built from a
// declarative table of fields. Multiple fields may share one register word.
type RegFile struct {
	words map[uint64][]regField
}

// NewRegFile creates an empty register file.
func NewRegFile() *RegFile {
	return &RegFile{words: make(map[uint64][]regField)}
}

// AddRW maps a writable field at the given word offset and bit position.
func (r *RegFile) AddRW(
	offset uint64,
	lsb, width uint,
	read func() uint32,
	write func(uint32),
) {
	r.addField(offset, regField{lsb, width, AccessRW, read, write})
}

// AddRO maps a read-only field at the given word offset and bit position.
func (r *RegFile) AddRO(offset uint64, lsb, width uint, read func() uint32) {
	r.addField(offset, regField{lsb, width, AccessRO, read, nil})
}

// AddConst maps a read-only field with a fixed value.
func (r *RegFile) AddConst(offset uint64, lsb, width uint, value uint32) {
	r.AddRO(offset, lsb, width, func() uint32 { return value })
}

func (r *RegFile) addField(offset uint64, f regField) {
	if offset%4 != 0 {
		panic("register offset must be 32-bit aligned")
	}

	if f.lsb+f.width > 32 {
		panic("register field does not fit in a 32-bit word")
	}

	r.words[offset] = append(r.words[offset], f)
}

// Read performs one 32-bit read transaction. All fields mapped at the offset
// are composed into the returned word.
func (r *RegFile) Read(offset uint64) (uint32, error) {
	fields, ok := r.words[offset]
	if !ok {
		return 0, ErrDecode
	}

	var v uint32
	for _, f := range fields {
		v |= (f.read() & f.mask()) << f.lsb
	}

	return v, nil
}

// Write performs one 32-bit write transaction. Writable fields mapped at the
// offset take the corresponding bits of the value; read-only fields are left
// untouched.
func (r *RegFile) Write(offset uint64, value uint32) error {
	fields, ok := r.words[offset]
	if !ok {
		return ErrDecode
	}

	for _, f := range fields {
		if f.mode != AccessRW {
			continue
		}

		f.write((value >> f.lsb) & f.mask())
	}

	return nil
}

func (f regField) mask() uint32 {
	if f.width == 32 {
		return 0xFFFFFFFF
	}

	return (1 << f.width) - 1
}
