package sim

import "encoding/binary"

// CLINT register offsets (single hart).
const (
	CLINTMsip     = 0x0000
	CLINTMtimecmp = 0x4000
	CLINTMtime    = 0xBFF8
)

// CLINT keeps msip, mtimecmp and mtime as plain storage. Interrupts are not
// delivered; mtime advances once per retired instruction via Tick.
type CLINT struct {
	msip     uint32
	mtimecmp uint64
	mtime    uint64
}

func NewCLINT() *CLINT { return &CLINT{mtimecmp: ^uint64(0)} }

func (c *CLINT) Name() string { return "CLINT" }

func (c *CLINT) Tick() { c.mtime++ }

func (c *CLINT) Mtime() uint64 { return c.mtime }

func (c *CLINT) reg(off uint32) ([]byte, bool) {
	var b [8]byte
	switch {
	case off < CLINTMsip+4:
		binary.LittleEndian.PutUint32(b[:], c.msip)
		return b[off-CLINTMsip : 4], true
	case off >= CLINTMtimecmp && off < CLINTMtimecmp+8:
		binary.LittleEndian.PutUint64(b[:], c.mtimecmp)
		return b[off-CLINTMtimecmp:], true
	case off >= CLINTMtime && off < CLINTMtime+8:
		binary.LittleEndian.PutUint64(b[:], c.mtime)
		return b[off-CLINTMtime:], true
	}
	return nil, false
}

func (c *CLINT) Read8(off uint32) (uint8, bool) {
	b, ok := c.reg(off)
	if !ok {
		return 0, true // unimplemented space reads as zero
	}
	return b[0], true
}

func (c *CLINT) Write8(off uint32, v uint8) bool {
	set := func(word uint64, at uint32) uint64 {
		shift := 8 * at
		return word&^(0xFF<<shift) | uint64(v)<<shift
	}
	switch {
	case off < CLINTMsip+4:
		c.msip = uint32(set(uint64(c.msip), off-CLINTMsip)) & 1
	case off >= CLINTMtimecmp && off < CLINTMtimecmp+8:
		c.mtimecmp = set(c.mtimecmp, off-CLINTMtimecmp)
	case off >= CLINTMtime && off < CLINTMtime+8:
		c.mtime = set(c.mtime, off-CLINTMtime)
	}
	return true
}
