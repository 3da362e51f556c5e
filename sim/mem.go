package sim

import (
	"encoding/binary"
	"fmt"
)

// RAM is flat byte-addressable storage. Flash is modelled as RAM too.
type RAM struct {
	name string
	data []byte
}

func NewRAM(name string, size uint32) *RAM {
	return &RAM{name: name, data: make([]byte, size)}
}

func (m *RAM) Name() string { return m.name }

func (m *RAM) Size() uint32 { return uint32(len(m.data)) }

func (m *RAM) Read8(off uint32) (uint8, bool) {
	if uint64(off) >= uint64(len(m.data)) {
		return 0, false
	}
	return m.data[off], true
}

func (m *RAM) Write8(off uint32, v uint8) bool {
	if uint64(off) >= uint64(len(m.data)) {
		return false
	}
	m.data[off] = v
	return true
}

func (m *RAM) Read32(off uint32) (uint32, bool) {
	if uint64(off)+4 > uint64(len(m.data)) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(m.data[off:]), true
}

func (m *RAM) Write32(off uint32, v uint32) bool {
	if uint64(off)+4 > uint64(len(m.data)) {
		return false
	}
	binary.LittleEndian.PutUint32(m.data[off:], v)
	return true
}

// WriteBytes copies p to offset off.
func (m *RAM) WriteBytes(off uint32, p []byte) error {
	if uint64(off)+uint64(len(p)) > uint64(len(m.data)) {
		return fmt.Errorf("%s: %d bytes @0x%x exceed size 0x%x", m.name, len(p), off, len(m.data))
	}
	copy(m.data[off:], p)
	return nil
}
