package sim

import (
	"bytes"
	"io"
	"os"
)

// SiFive FE310-G002 UART register offsets.
const (
	UARTTxData = 0x00
	UARTRxData = 0x04
	UARTTxCtrl = 0x08
	UARTRxCtrl = 0x0C
	UARTIE     = 0x10
	UARTIP     = 0x14
	UARTDiv    = 0x18

	uartRegCount = 7

	// rxdata bit 31: receive FIFO empty. Nothing is ever received here.
	uartRxEmpty = 1 << 31
)

// UART is a transmit-only serial port. Bytes are collected per line and each
// completed line goes to the console as "[NAME] line\n".
type UART struct {
	name string
	out  io.Writer
	regs [uartRegCount]uint32
	line []byte
	sent bytes.Buffer
}

// NewUART writes to os.Stdout when out is nil.
func NewUART(name string, out io.Writer) *UART {
	if out == nil {
		out = os.Stdout
	}
	u := &UART{name: name, out: out}
	u.regs[UARTRxData/4] = uartRxEmpty
	return u
}

func (u *UART) Name() string { return u.name }

// Tx transmits one byte.
func (u *UART) Tx(b uint8) {
	u.sent.WriteByte(b)
	u.line = append(u.line, b)
	if b == '\n' {
		u.Flush()
	}
}

// Flush writes out a pending partial line.
func (u *UART) Flush() {
	if len(u.line) == 0 {
		return
	}
	var head bytes.Buffer
	head.WriteByte('[')
	head.WriteString(u.name)
	head.WriteString("] ")
	head.Write(u.line)
	if u.line[len(u.line)-1] != '\n' {
		head.WriteByte('\n')
	}
	_, _ = u.out.Write(head.Bytes())
	u.line = u.line[:0]
}

// Transmitted returns every byte sent since the UART was created.
func (u *UART) Transmitted() []byte { return bytes.Clone(u.sent.Bytes()) }

func (u *UART) Read32(off uint32) (uint32, bool) {
	if off%4 != 0 || off/4 >= uartRegCount {
		return 0, false
	}
	if off == UARTTxData {
		return 0, true // never full
	}
	return u.regs[off/4], true
}

func (u *UART) Write32(off uint32, v uint32) bool {
	if off%4 != 0 || off/4 >= uartRegCount {
		return false
	}
	switch off {
	case UARTTxData:
		u.Tx(uint8(v & 0xFF))
	case UARTRxData, UARTIP:
		// read-only
	default:
		u.regs[off/4] = v
	}
	return true
}

func (u *UART) Read8(off uint32) (uint8, bool) {
	w, ok := u.Read32(off &^ 3)
	if !ok {
		return 0, false
	}
	return uint8(w >> (8 * (off & 3))), true
}

func (u *UART) Write8(off uint32, v uint8) bool {
	if off == UARTTxData {
		u.Tx(v)
		return true
	}
	reg := off &^ 3
	w, ok := u.Read32(reg)
	if !ok || reg == UARTTxData {
		return ok
	}
	shift := 8 * (off & 3)
	w = w&^(0xFF<<shift) | uint32(v)<<shift
	return u.Write32(reg, w)
}
