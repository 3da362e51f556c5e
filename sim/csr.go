package sim

import "fmt"

// Machine-mode CSR addresses implemented by the emulator.
const (
	CSRMstatus   = 0x300
	CSRMisa      = 0x301
	CSRMie       = 0x304
	CSRMtvec     = 0x305
	CSRMscratch  = 0x340
	CSRMepc      = 0x341
	CSRMcause    = 0x342
	CSRMtval     = 0x343
	CSRMip       = 0x344
	CSRMcycle    = 0xB00
	CSRMinstret  = 0xB02
	CSRMcycleh   = 0xB80
	CSRMinstreth = 0xB82
	CSRMvendorid = 0xF11
	CSRMarchid   = 0xF12
	CSRMimpid    = 0xF13
	CSRMhartid   = 0xF14
)

// misa: MXL=1 (32-bit), extensions I and M.
const misaRV32IM = 1<<30 | 1<<12 | 1<<8

// Exception causes (mcause with the interrupt bit clear).
const (
	CauseMisalignedFetch = 0
	CauseFetchFault      = 1
	CauseIllegal         = 2
	CauseBreakpoint      = 3
	CauseLoadFault       = 5
	CauseStoreFault      = 7
	CauseEcallM          = 11
)

var causeNames = map[uint32]string{
	CauseMisalignedFetch: "instruction address misaligned",
	CauseFetchFault:      "instruction access fault",
	CauseIllegal:         "illegal instruction",
	CauseBreakpoint:      "breakpoint",
	CauseLoadFault:       "load access fault",
	CauseStoreFault:      "store access fault",
	CauseEcallM:          "environment call from M-mode",
}

// Trap describes a synchronous exception.
type Trap struct {
	Cause uint32
	PC    uint32
	Tval  uint32
}

func (t *Trap) Error() string {
	name, ok := causeNames[t.Cause]
	if !ok {
		name = fmt.Sprintf("cause %d", t.Cause)
	}
	return fmt.Sprintf("%s at pc=0x%08x (tval=0x%08x)", name, t.PC, t.Tval)
}

type csrFile struct {
	mstatus  uint32
	mie      uint32
	mtvec    uint32
	mscratch uint32
	mepc     uint32
	mcause   uint32
	mtval    uint32
	mip      uint32
}

// readCSR returns the value and whether the CSR exists.
func (c *CPU) readCSR(addr uint32) (uint32, bool) {
	switch addr {
	case CSRMstatus:
		return c.csr.mstatus, true
	case CSRMisa:
		return misaRV32IM, true
	case CSRMie:
		return c.csr.mie, true
	case CSRMtvec:
		return c.csr.mtvec, true
	case CSRMscratch:
		return c.csr.mscratch, true
	case CSRMepc:
		return c.csr.mepc, true
	case CSRMcause:
		return c.csr.mcause, true
	case CSRMtval:
		return c.csr.mtval, true
	case CSRMip:
		return c.csr.mip, true
	case CSRMcycle, CSRMinstret:
		return uint32(c.Retired), true
	case CSRMcycleh, CSRMinstreth:
		return uint32(c.Retired >> 32), true
	case CSRMvendorid, CSRMarchid, CSRMimpid, CSRMhartid:
		return 0, true
	}
	return 0, false
}

// writeCSR reports false for unknown or read-only CSRs.
func (c *CPU) writeCSR(addr, v uint32) bool {
	switch addr {
	case CSRMstatus:
		c.csr.mstatus = v
	case CSRMie:
		c.csr.mie = v
	case CSRMtvec:
		c.csr.mtvec = v &^ 3 // direct mode only
	case CSRMscratch:
		c.csr.mscratch = v
	case CSRMepc:
		c.csr.mepc = v &^ 3
	case CSRMcause:
		c.csr.mcause = v
	case CSRMtval:
		c.csr.mtval = v
	case CSRMip:
		c.csr.mip = v
	case CSRMisa:
		// WARL, writes ignored
	default:
		return false
	}
	return true
}
