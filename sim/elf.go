package sim

import (
	"bytes"
	"debug/elf"
	"errors"
	"fmt"
	"io"
	"os"
)

var ErrNotELF = errors.New("not a RV32 little-endian ELF")

// IsELF sniffs the ELF magic at the start of path.
func IsELF(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	var magic [4]byte
	if _, err := io.ReadFull(f, magic[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	return bytes.Equal(magic[:], []byte(elf.ELFMAG)), nil
}

// LoadELF copies PT_LOAD segments through the bus at their vaddr (identity
// mapping) and zero-fills the bss tail. Returns the entry address.
func LoadELF(path string, bus *Bus) (entry uint32, err error) {
	f, err := elf.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if f.Class != elf.ELFCLASS32 || f.Data != elf.ELFDATA2LSB || f.Machine != elf.EM_RISCV {
		return 0, fmt.Errorf("%s: %w (class=%v data=%v machine=%v)", path, ErrNotELF, f.Class, f.Data, f.Machine)
	}

	for _, ph := range f.Progs {
		if ph.Type != elf.PT_LOAD || ph.Memsz == 0 {
			continue
		}
		if ph.Filesz > ph.Memsz {
			return 0, fmt.Errorf("%s: segment filesz 0x%x > memsz 0x%x: %w", path, ph.Filesz, ph.Memsz, ErrNotELF)
		}
		if ph.Vaddr+ph.Memsz > 1<<32 || ph.Vaddr+ph.Memsz < ph.Vaddr {
			return 0, fmt.Errorf("%s: segment @0x%x+0x%x leaves the 32-bit address space: %w", path, ph.Vaddr, ph.Memsz, ErrNotELF)
		}
		buf := make([]byte, ph.Memsz)
		if ph.Filesz > 0 {
			if _, err := ph.ReadAt(buf[:ph.Filesz], 0); err != nil {
				return 0, fmt.Errorf("read segment: %w", err)
			}
		}
		addr := uint32(ph.Vaddr)
		if err := bus.WriteBytes(addr, buf); err != nil {
			return 0, fmt.Errorf("map segment @0x%x: %w", addr, err)
		}
	}

	return uint32(f.Entry), nil
}

// LoadBin copies a flat image to base through the bus.
func LoadBin(path string, bus *Bus, base uint32) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := bus.WriteBytes(base, b); err != nil {
		return fmt.Errorf("load %s @0x%x: %w", path, base, err)
	}
	return nil
}
