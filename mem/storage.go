// Package mem provides the backing storage that the DMA engines transfer
// data in and out of.
package mem

import "errors"

// Common capacity units.
const (
	KB uint64 = 1 << 10
	MB uint64 = 1 << 20
	GB uint64 = 1 << 30
)

// A Storage keeps the data of the modeled memory.
//
// The storage is managed in units. Units that are never touched by Read or
// Write are not allocated.
type Storage struct {
	unitSize uint64
	capacity uint64
	units    map[uint64][]byte
}

// NewStorage creates a storage object with the given capacity in bytes.
func NewStorage(capacity uint64) *Storage {
	return &Storage{
		unitSize: 4096,
		capacity: capacity,
		units:    make(map[uint64][]byte),
	}
}

// Capacity returns the number of bytes that the storage can hold.
func (s *Storage) Capacity() uint64 {
	return s.capacity
}

// Read returns a copy of the bytes in [address, address+size).
func (s *Storage) Read(address, size uint64) ([]byte, error) {
	if address+size > s.capacity {
		return nil, errors.New("read beyond the storage capacity")
	}

	data := make([]byte, size)
	offset := uint64(0)

	for offset < size {
		unit := s.unit(address + offset)
		inUnit := (address + offset) % s.unitSize

		n := copy(data[offset:], unit[inUnit:])
		offset += uint64(n)
	}

	return data, nil
}

// Write stores the given bytes starting at the given address.
func (s *Storage) Write(address uint64, data []byte) error {
	if address+uint64(len(data)) > s.capacity {
		return errors.New("write beyond the storage capacity")
	}

	offset := uint64(0)

	for offset < uint64(len(data)) {
		unit := s.unit(address + offset)
		inUnit := (address + offset) % s.unitSize

		n := copy(unit[inUnit:], data[offset:])
		offset += uint64(n)
	}

	return nil
}

func (s *Storage) unit(address uint64) []byte {
	base := address - address%s.unitSize

	unit, ok := s.units[base]
	if !ok {
		unit = make([]byte, s.unitSize)
		s.units[base] = unit
	}

	return unit
}
