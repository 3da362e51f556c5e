package sim

import (
	"fmt"
	"io"
	"time"

	"rvcheck/internal/logger"
)

// Layout is the physical address map of the emulated board.
type Layout struct {
	FlashBase uint32
	FlashSize uint32
	RAMBase   uint32
	RAMSize   uint32
	CLINTBase uint32
	CLINTSize uint32
	UARTBase  uint32
	UARTSize  uint32
	UARTName  string
}

// FE310 returns the SiFive FE310-G002 style map the self-test firmware is
// linked for.
//
//	CLINT  0x0200_0000 .. 0x0200_FFFF
//	UART0  0x1001_3000 .. 0x1001_3FFF (txdata at +0x00, rxdata at +0x04)
//	FLASH  0x8000_0000 .. 0x8007_FFFF
//	RAM    0x8008_0000 .. 0x800F_FFFF
func FE310() Layout {
	return Layout{
		FlashBase: 0x80000000,
		FlashSize: 512 * 1024,
		RAMBase:   0x80080000,
		RAMSize:   512 * 1024,
		CLINTBase: 0x02000000,
		CLINTSize: 0x10000,
		UARTBase:  0x10013000,
		UARTSize:  0x1000,
		UARTName:  "UART0",
	}
}

type Machine struct {
	Layout Layout
	Bus    *Bus
	Flash  *RAM
	RAM    *RAM
	CLINT  *CLINT
	UART   *UART
	CPU    *CPU
	log    *logger.Logger
}

// NewMachine wires the devices of l onto a fresh bus. UART lines go to
// console; log may be nil.
func NewMachine(l Layout, console io.Writer, log *logger.Logger) (*Machine, error) {
	m := &Machine{
		Layout: l,
		Bus:    NewBus(),
		Flash:  NewRAM("FLASH", l.FlashSize),
		RAM:    NewRAM("RAM", l.RAMSize),
		CLINT:  NewCLINT(),
		UART:   NewUART(l.UARTName, console),
		log:    log,
	}
	maps := []struct {
		base, size uint32
		dev        Device
	}{
		{l.FlashBase, l.FlashSize, m.Flash},
		{l.RAMBase, l.RAMSize, m.RAM},
		{l.CLINTBase, l.CLINTSize, m.CLINT},
		{l.UARTBase, l.UARTSize, m.UART},
	}
	for _, mp := range maps {
		if err := m.Bus.AddDevice(mp.base, mp.size, mp.dev); err != nil {
			return nil, err
		}
		log.Debug("device mapped", map[string]any{
			"device": mp.dev.Name(),
			"base":   fmt.Sprintf("0x%08x", mp.base),
			"size":   fmt.Sprintf("0x%x", mp.size),
		})
	}
	m.CPU = NewCPU(m.Bus)
	m.CPU.Log = log
	m.CPU.PC = l.FlashBase
	return m, nil
}

// Load places an ELF or flat image. Flat images go to the start of flash and
// run from entry (flash base when entry is 0). ELF images run from their own
// entry point.
func (m *Machine) Load(path string, entry uint32) error {
	isELF, err := IsELF(path)
	if err != nil {
		return err
	}
	if isELF {
		e, err := LoadELF(path, m.Bus)
		if err != nil {
			return err
		}
		m.CPU.PC = e
		m.log.Info("elf loaded", map[string]any{"path": path, "entry": fmt.Sprintf("0x%08x", e)})
		return nil
	}
	if err := LoadBin(path, m.Bus, m.Layout.FlashBase); err != nil {
		return err
	}
	if entry == 0 {
		entry = m.Layout.FlashBase
	}
	m.CPU.PC = entry
	m.log.Info("bin loaded", map[string]any{"path": path, "entry": fmt.Sprintf("0x%08x", entry)})
	return nil
}

type RunResult struct {
	ExitCode int32
	Exited   bool
	Fault    *Trap
	Retired  uint64
	Elapsed  time.Duration
}

// Run steps the hart until it halts or maxSteps instructions have been
// attempted (0 means no limit).
func (m *Machine) Run(maxSteps uint64) RunResult {
	start := time.Now()
	for n := uint64(0); maxSteps == 0 || n < maxSteps; n++ {
		m.CLINT.Tick()
		if !m.CPU.Step() {
			break
		}
	}
	m.UART.Flush()

	res := RunResult{Retired: m.CPU.Retired, Elapsed: time.Since(start), Fault: m.CPU.Fault()}
	res.ExitCode, res.Exited = m.CPU.Exited()
	if !res.Exited && res.Fault == nil {
		m.log.Warn("step limit reached", map[string]any{"steps": maxSteps, "pc": fmt.Sprintf("0x%08x", m.CPU.PC)})
	}
	return res
}
