package sim

import (
	"errors"
	"fmt"
	"sort"
)

// Device is anything that can sit on the bus. Offsets are relative to the
// base address the device was mapped at.
type Device interface {
	Name() string
	Read8(off uint32) (uint8, bool)
	Write8(off uint32, v uint8) bool
}

// wordDevice is implemented by devices whose registers must see a word
// access as a single operation (a UART TX store prints one byte, not four).
type wordDevice interface {
	Read32(off uint32) (uint32, bool)
	Write32(off uint32, v uint32) bool
}

var (
	ErrUnmapped = errors.New("address not mapped")
	ErrOverlap  = errors.New("device window overlaps")
)

type region struct {
	base uint32
	size uint32
	dev  Device
}

func (r region) contains(addr uint32) bool {
	return addr >= r.base && addr-r.base < r.size
}

type Bus struct {
	regions []region
}

func NewBus() *Bus { return &Bus{} }

// AddDevice maps dev at [base, base+size).
func (b *Bus) AddDevice(base, size uint32, dev Device) error {
	if size == 0 {
		return fmt.Errorf("map %s: empty window", dev.Name())
	}
	if uint64(base)+uint64(size) > 1<<32 {
		return fmt.Errorf("map %s @0x%08x: window wraps the address space", dev.Name(), base)
	}
	nr := region{base: base, size: size, dev: dev}
	for _, r := range b.regions {
		if uint64(nr.base) < uint64(r.base)+uint64(r.size) && uint64(r.base) < uint64(nr.base)+uint64(nr.size) {
			return fmt.Errorf("map %s @0x%08x: %w %s", dev.Name(), base, ErrOverlap, r.dev.Name())
		}
	}
	b.regions = append(b.regions, nr)
	sort.Slice(b.regions, func(i, j int) bool { return b.regions[i].base < b.regions[j].base })
	return nil
}

func (b *Bus) find(addr uint32) (region, bool) {
	for _, r := range b.regions {
		if r.contains(addr) {
			return r, true
		}
	}
	return region{}, false
}

// DeviceAt returns the device mapped at addr, if any.
func (b *Bus) DeviceAt(addr uint32) (Device, bool) {
	r, ok := b.find(addr)
	return r.dev, ok
}

func (b *Bus) Read8(addr uint32) (uint8, bool) {
	r, ok := b.find(addr)
	if !ok {
		return 0, false
	}
	return r.dev.Read8(addr - r.base)
}

func (b *Bus) Write8(addr uint32, v uint8) bool {
	r, ok := b.find(addr)
	if !ok {
		return false
	}
	return r.dev.Write8(addr-r.base, v)
}

func (b *Bus) Read16(addr uint32) (uint16, bool) {
	lo, ok := b.Read8(addr)
	if !ok {
		return 0, false
	}
	hi, ok := b.Read8(addr + 1)
	if !ok {
		return 0, false
	}
	return uint16(lo) | uint16(hi)<<8, true
}

func (b *Bus) Write16(addr uint32, v uint16) bool {
	return b.Write8(addr, uint8(v)) && b.Write8(addr+1, uint8(v>>8))
}

func (b *Bus) Read32(addr uint32) (uint32, bool) {
	r, ok := b.find(addr)
	if !ok {
		return 0, false
	}
	if wd, isWord := r.dev.(wordDevice); isWord && r.contains(addr+3) {
		return wd.Read32(addr - r.base)
	}
	// Compose 4 bytes via Read8 (may straddle devices)
	var w uint32
	for i := uint32(0); i < 4; i++ {
		v, ok := b.Read8(addr + i)
		if !ok {
			return 0, false
		}
		w |= uint32(v) << (8 * i)
	}
	return w, true
}

func (b *Bus) Write32(addr uint32, v uint32) bool {
	r, ok := b.find(addr)
	if !ok {
		return false
	}
	if wd, isWord := r.dev.(wordDevice); isWord && r.contains(addr+3) {
		return wd.Write32(addr-r.base, v)
	}
	return b.Write8(addr, uint8(v)) &&
		b.Write8(addr+1, uint8(v>>8)) &&
		b.Write8(addr+2, uint8(v>>16)) &&
		b.Write8(addr+3, uint8(v>>24))
}

// WriteBytes copies p to addr. Used by the loaders.
func (b *Bus) WriteBytes(addr uint32, p []byte) error {
	for i, v := range p {
		a := addr + uint32(i)
		if !b.Write8(a, v) {
			return fmt.Errorf("write 0x%08x: %w", a, ErrUnmapped)
		}
	}
	return nil
}
