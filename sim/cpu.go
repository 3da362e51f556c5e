package sim

import (
	"fmt"
	"io"

	"rvcheck/internal/logger"
)

// RV32IM + Zicsr, machine mode only. Exceptions vector through mtvec; with
// mtvec unset the first exception halts the hart. An ECALL with a7 == 93 is
// the firmware's exit(a0) and halts as well.

type CPU struct {
	Reg     [32]uint32
	PC      uint32
	Bus     *Bus
	Trace   io.Writer // one "pc (inst)" line per instruction when set
	Log     *logger.Logger
	Retired uint64

	csr      csrFile
	halted   bool
	exited   bool
	exitCode int32
	fault    *Trap
}

func NewCPU(bus *Bus) *CPU { return &CPU{Bus: bus} }

// Exited returns the code passed to exit and whether the firmware exited.
func (c *CPU) Exited() (int32, bool) { return c.exitCode, c.exited }

// Fault returns the exception that stopped the hart, if any.
func (c *CPU) Fault() *Trap { return c.fault }

func (c *CPU) Halted() bool { return c.halted }

func (c *CPU) readReg(i uint32) uint32 {
	if i == 0 {
		return 0
	}
	return c.Reg[i]
}

func (c *CPU) writeReg(i uint32, v uint32) {
	if i != 0 {
		c.Reg[i] = v
	}
}

func (c *CPU) fetch() (uint32, bool) { return c.Bus.Read32(c.PC) }

// Step executes one instruction. It returns false once the hart has halted.
func (c *CPU) Step() bool {
	if c.halted {
		return false
	}
	if c.PC&3 != 0 {
		return c.trap(&Trap{Cause: CauseMisalignedFetch, PC: c.PC, Tval: c.PC})
	}
	inst, ok := c.fetch()
	if !ok {
		return c.trap(&Trap{Cause: CauseFetchFault, PC: c.PC, Tval: c.PC})
	}
	if c.Trace != nil {
		fmt.Fprintf(c.Trace, "0x%08x (0x%08x)\n", c.PC, inst)
	}
	if c.Log.Enabled(logger.LevelTrace) {
		c.Log.Trace("exec", map[string]any{"pc": fmt.Sprintf("0x%08x", c.PC), "inst": fmt.Sprintf("0x%08x", inst)})
	}

	nextPC, t := c.execute(decode(inst))
	c.Reg[0] = 0
	if t != nil {
		return c.trap(t)
	}
	c.Retired++
	c.PC = nextPC
	return true
}

func (c *CPU) trap(t *Trap) bool {
	if t.Cause == CauseEcallM && c.readReg(regA7) == sysExit {
		c.exitCode = int32(c.readReg(regA0))
		c.exited = true
		c.halted = true
		c.Retired++
		c.Log.Info("firmware exit", map[string]any{"code": c.exitCode, "pc": fmt.Sprintf("0x%08x", t.PC)})
		return false
	}
	if c.csr.mtvec == 0 {
		c.fault = t
		c.halted = true
		c.Log.Error("unhandled trap", map[string]any{"trap": t.Error()})
		return false
	}
	c.Log.Debug("trap", map[string]any{"trap": t.Error(), "mtvec": fmt.Sprintf("0x%08x", c.csr.mtvec)})

	// MPIE <- MIE, MIE <- 0, MPP <- M
	const mie, mpie, mpp = 1 << 3, 1 << 7, 3 << 11
	st := c.csr.mstatus &^ (mpie | mie)
	if c.csr.mstatus&mie != 0 {
		st |= mpie
	}
	c.csr.mstatus = st | mpp
	c.csr.mepc = t.PC
	c.csr.mcause = t.Cause
	c.csr.mtval = t.Tval
	c.PC = c.csr.mtvec
	return true
}

func (c *CPU) illegal(d decoded) (uint32, *Trap) {
	return 0, &Trap{Cause: CauseIllegal, PC: c.PC, Tval: d.raw}
}

// misaligned traps at the jump itself; rd is left untouched.
func (c *CPU) misaligned(target uint32) (uint32, *Trap) {
	return 0, &Trap{Cause: CauseMisalignedFetch, PC: c.PC, Tval: target}
}

func (c *CPU) execute(d decoded) (uint32, *Trap) {
	nextPC := c.PC + 4

	switch d.op {
	case opLUI:
		c.writeReg(d.rd, uint32(d.immU()))
	case opAUIPC:
		c.writeReg(d.rd, c.PC+uint32(d.immU()))
	case opJAL:
		tgt := c.PC + uint32(d.immJ())
		if tgt&3 != 0 {
			return c.misaligned(tgt)
		}
		c.writeReg(d.rd, c.PC+4)
		nextPC = tgt
	case opJALR:
		tgt := (c.readReg(d.rs1) + uint32(d.immI())) &^ 1
		if tgt&3 != 0 {
			return c.misaligned(tgt)
		}
		c.writeReg(d.rd, c.PC+4)
		nextPC = tgt

	case opBranch:
		a := c.readReg(d.rs1)
		b := c.readReg(d.rs2)
		var taken bool
		switch d.f3 {
		case 0x0: // BEQ
			taken = a == b
		case 0x1: // BNE
			taken = a != b
		case 0x4: // BLT
			taken = int32(a) < int32(b)
		case 0x5: // BGE
			taken = int32(a) >= int32(b)
		case 0x6: // BLTU
			taken = a < b
		case 0x7: // BGEU
			taken = a >= b
		default:
			return c.illegal(d)
		}
		if taken {
			nextPC = c.PC + uint32(d.immB())
			if nextPC&3 != 0 {
				return c.misaligned(nextPC)
			}
		}

	case opLoad:
		addr := c.readReg(d.rs1) + uint32(d.immI())
		var v uint32
		var ok bool
		switch d.f3 {
		case 0x0: // LB
			var b uint8
			b, ok = c.Bus.Read8(addr)
			v = uint32(int32(int8(b)))
		case 0x1: // LH
			var h uint16
			h, ok = c.Bus.Read16(addr)
			v = uint32(int32(int16(h)))
		case 0x2: // LW
			v, ok = c.Bus.Read32(addr)
		case 0x4: // LBU
			var b uint8
			b, ok = c.Bus.Read8(addr)
			v = uint32(b)
		case 0x5: // LHU
			var h uint16
			h, ok = c.Bus.Read16(addr)
			v = uint32(h)
		default:
			return c.illegal(d)
		}
		if !ok {
			return 0, &Trap{Cause: CauseLoadFault, PC: c.PC, Tval: addr}
		}
		c.writeReg(d.rd, v)

	case opStore:
		addr := c.readReg(d.rs1) + uint32(d.immS())
		v := c.readReg(d.rs2)
		var ok bool
		switch d.f3 {
		case 0x0: // SB
			ok = c.Bus.Write8(addr, uint8(v))
		case 0x1: // SH
			ok = c.Bus.Write16(addr, uint16(v))
		case 0x2: // SW
			ok = c.Bus.Write32(addr, v)
		default:
			return c.illegal(d)
		}
		if !ok {
			return 0, &Trap{Cause: CauseStoreFault, PC: c.PC, Tval: addr}
		}

	case opOpImm:
		a := c.readReg(d.rs1)
		imm := uint32(d.immI())
		switch d.f3 {
		case 0x0: // ADDI
			c.writeReg(d.rd, a+imm)
		case 0x2: // SLTI
			c.writeReg(d.rd, boolToReg(int32(a) < int32(imm)))
		case 0x3: // SLTIU
			c.writeReg(d.rd, boolToReg(a < imm))
		case 0x4: // XORI
			c.writeReg(d.rd, a^imm)
		case 0x6: // ORI
			c.writeReg(d.rd, a|imm)
		case 0x7: // ANDI
			c.writeReg(d.rd, a&imm)
		case 0x1: // SLLI
			if d.f7 != 0 {
				return c.illegal(d)
			}
			c.writeReg(d.rd, a<<(imm&0x1F))
		case 0x5:
			switch d.f7 {
			case 0x00: // SRLI
				c.writeReg(d.rd, a>>(imm&0x1F))
			case 0x20: // SRAI
				c.writeReg(d.rd, uint32(int32(a)>>(imm&0x1F)))
			default:
				return c.illegal(d)
			}
		}

	case opOp:
		a := c.readReg(d.rs1)
		b := c.readReg(d.rs2)
		switch d.f7 {
		case 0x00, 0x20:
			v, ok := aluOp(d.f3, d.f7, a, b)
			if !ok {
				return c.illegal(d)
			}
			c.writeReg(d.rd, v)
		case 0x01:
			c.writeReg(d.rd, mulDivOp(d.f3, a, b))
		default:
			return c.illegal(d)
		}

	case opMisc:
		// FENCE / FENCE.I: single hart, no caches

	case opSystem:
		return c.system(d, nextPC)

	default:
		return c.illegal(d)
	}

	return nextPC, nil
}

func (c *CPU) system(d decoded, nextPC uint32) (uint32, *Trap) {
	if d.f3 == 0 {
		switch d.raw {
		case 0x00000073: // ECALL
			return 0, &Trap{Cause: CauseEcallM, PC: c.PC}
		case 0x00100073: // EBREAK
			return 0, &Trap{Cause: CauseBreakpoint, PC: c.PC, Tval: c.PC}
		case 0x30200073: // MRET
			const mie, mpie = 1 << 3, 1 << 7
			st := c.csr.mstatus &^ mie
			if st&mpie != 0 {
				st |= mie
			}
			c.csr.mstatus = st | mpie
			return c.csr.mepc, nil
		case 0x10500073: // WFI
			return nextPC, nil
		}
		return c.illegal(d)
	}

	addr := d.csr()
	old, ok := c.readCSR(addr)
	if !ok {
		return c.illegal(d)
	}
	src := c.readReg(d.rs1)
	if d.f3&0x4 != 0 {
		src = d.rs1 // zimm
	}
	var next uint32
	write := true
	switch d.f3 & 0x3 {
	case 0x1: // CSRRW(I)
		next = src
	case 0x2: // CSRRS(I)
		next = old | src
		write = d.rs1 != 0
	case 0x3: // CSRRC(I)
		next = old &^ src
		write = d.rs1 != 0
	default:
		return c.illegal(d)
	}
	if write && !c.writeCSR(addr, next) {
		return c.illegal(d)
	}
	c.writeReg(d.rd, old)
	return nextPC, nil
}

func aluOp(f3, f7, a, b uint32) (uint32, bool) {
	if f7 == 0x20 && f3 != 0x0 && f3 != 0x5 {
		return 0, false
	}
	switch f3 {
	case 0x0:
		if f7 == 0x20 { // SUB
			return a - b, true
		}
		return a + b, true // ADD
	case 0x1: // SLL
		return a << (b & 0x1F), true
	case 0x2: // SLT
		return boolToReg(int32(a) < int32(b)), true
	case 0x3: // SLTU
		return boolToReg(a < b), true
	case 0x4: // XOR
		return a ^ b, true
	case 0x5: // SRL/SRA
		if f7 == 0x20 {
			return uint32(int32(a) >> (b & 0x1F)), true
		}
		return a >> (b & 0x1F), true
	case 0x6: // OR
		return a | b, true
	case 0x7: // AND
		return a & b, true
	}
	return 0, false
}

// mulDivOp implements the M extension, including the defined results for
// division by zero and signed overflow.
func mulDivOp(f3, a, b uint32) uint32 {
	sa, sb := int32(a), int32(b)
	switch f3 {
	case 0x0: // MUL
		return a * b
	case 0x1: // MULH
		return uint32((int64(sa) * int64(sb)) >> 32)
	case 0x2: // MULHSU
		return uint32((int64(sa) * int64(uint64(b))) >> 32)
	case 0x3: // MULHU
		return uint32((uint64(a) * uint64(b)) >> 32)
	case 0x4: // DIV
		switch {
		case b == 0:
			return ^uint32(0)
		case sa == -1<<31 && sb == -1:
			return a
		}
		return uint32(sa / sb)
	case 0x5: // DIVU
		if b == 0 {
			return ^uint32(0)
		}
		return a / b
	case 0x6: // REM
		switch {
		case b == 0:
			return a
		case sa == -1<<31 && sb == -1:
			return 0
		}
		return uint32(sa % sb)
	default: // REMU
		if b == 0 {
			return a
		}
		return a % b
	}
}

func boolToReg(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}
