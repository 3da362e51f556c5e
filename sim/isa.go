package sim

// Major opcodes (inst[6:0]).
const (
	opLoad   = 0x03
	opMisc   = 0x0F // FENCE, FENCE.I
	opOpImm  = 0x13
	opAUIPC  = 0x17
	opStore  = 0x23
	opOp     = 0x33
	opLUI    = 0x37
	opBranch = 0x63
	opJALR   = 0x67
	opJAL    = 0x6F
	opSystem = 0x73
)

// Register ABI numbers the emulator cares about.
const (
	regA0 = 10
	regA7 = 17
)

// sysExit is the newlib/Linux exit syscall number passed in a7.
const sysExit = 93

type decoded struct {
	raw uint32
	op  uint32
	rd  uint32
	f3  uint32
	rs1 uint32
	rs2 uint32
	f7  uint32
}

func decode(inst uint32) decoded {
	return decoded{
		raw: inst,
		op:  inst & 0x7F,
		rd:  (inst >> 7) & 0x1F,
		f3:  (inst >> 12) & 0x7,
		rs1: (inst >> 15) & 0x1F,
		rs2: (inst >> 20) & 0x1F,
		f7:  (inst >> 25) & 0x7F,
	}
}

func signExtend(v uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}

func (d decoded) immI() int32 { return signExtend(d.raw>>20, 12) }

func (d decoded) immS() int32 {
	return signExtend(d.f7<<5|d.rd, 12)
}

func (d decoded) immB() int32 {
	// [12|10:5|4:1|11] << 1
	imm := ((d.raw>>31)&1)<<12 |
		((d.raw>>25)&0x3F)<<5 |
		((d.raw>>8)&0xF)<<1 |
		((d.raw>>7)&1)<<11
	return signExtend(imm, 13)
}

func (d decoded) immU() int32 { return int32(d.raw & 0xFFFFF000) }

func (d decoded) immJ() int32 {
	// [20|10:1|11|19:12] << 1
	imm := ((d.raw>>31)&1)<<20 |
		((d.raw>>21)&0x3FF)<<1 |
		((d.raw>>20)&1)<<11 |
		((d.raw>>12)&0xFF)<<12
	return signExtend(imm, 21)
}

// csr is the CSR address of a SYSTEM instruction.
func (d decoded) csr() uint32 { return d.raw >> 20 }
