// Package platform is the only place that knows how a byte reaches the
// outside world. Everything above it talks to a Sink.
//
// Two variants exist. MMIO stores the byte into the transmit-data register
// of the first serial controller; Host hands it to the host console. Which
// one a binary uses by default is fixed at build time by the hw build tag
// (see DefaultKind); New assembles the chosen variant once at start-up.
package platform

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// UART0TxData is the transmit-data register of UART0 on the FE310-G002.
const UART0TxData uint32 = 0x10013000

// Sink transmits one byte. There is no failure channel: a byte that cannot
// be delivered is lost.
type Sink interface {
	EmitByte(c byte)
}

// Bus is the handle MMIO stores through. *sim.Bus satisfies it.
type Bus interface {
	Write8(addr uint32, v uint8) bool
}

type Kind int

const (
	KindHost Kind = iota
	KindMMIO
)

func (k Kind) String() string {
	switch k {
	case KindHost:
		return "host"
	case KindMMIO:
		return "mmio"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts "host" and "mmio" ("hw" is an alias for mmio).
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "host":
		return KindHost, nil
	case "mmio", "hw":
		return KindMMIO, nil
	}
	return DefaultKind, fmt.Errorf("unknown platform %q (want host or mmio)", s)
}

var ErrNoBus = errors.New("mmio sink needs a bus")

// New builds the sink for kind. bus is used by KindMMIO, console by KindHost
// (nil means os.Stdout).
func New(kind Kind, bus Bus, console io.Writer) (Sink, error) {
	switch kind {
	case KindMMIO:
		if bus == nil {
			return nil, ErrNoBus
		}
		return NewMMIO(bus), nil
	case KindHost:
		return NewHost(console), nil
	}
	return nil, fmt.Errorf("platform: unsupported kind %v", kind)
}

// MMIO writes each byte to a fixed device register. The store is
// unconditional: no ready bit is polled and nothing is read back.
type MMIO struct {
	bus  Bus
	addr uint32
}

func NewMMIO(bus Bus) *MMIO { return &MMIO{bus: bus, addr: UART0TxData} }

func (m *MMIO) EmitByte(c byte) { _ = m.bus.Write8(m.addr, c) }

// Host forwards bytes to the host console unbuffered, like putchar on a
// terminal.
type Host struct {
	w io.Writer
}

func NewHost(w io.Writer) *Host {
	if w == nil {
		w = os.Stdout
	}
	return &Host{w: w}
}

func (h *Host) EmitByte(c byte) {
	b := [1]byte{c}
	_, _ = h.w.Write(b[:])
}

// Recorder captures bytes instead of sending them anywhere.
type Recorder struct {
	buf   []byte
	calls int
}

func (r *Recorder) EmitByte(c byte) {
	r.buf = append(r.buf, c)
	r.calls++
}

// Bytes returns everything emitted so far.
func (r *Recorder) Bytes() []byte { return r.buf }

func (r *Recorder) String() string { return string(r.buf) }

// Calls is the number of EmitByte invocations.
func (r *Recorder) Calls() int { return r.calls }

func (r *Recorder) Reset() {
	r.buf = r.buf[:0]
	r.calls = 0
}
