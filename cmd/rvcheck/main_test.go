package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func rvcheck(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errb bytes.Buffer
	code = run(args, &out, &errb)
	return code, out.String(), errb.String()
}

// writeBin stores little-endian instruction words as a flat image.
func writeBin(t *testing.T, words ...uint32) string {
	t.Helper()
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[4*i:], w)
	}
	p := filepath.Join(t.TempDir(), "fw.bin")
	require.NoError(t, os.WriteFile(p, buf, 0o644))
	return p
}

const (
	luiT0UART  = 0x100132B7 // lui  t0, 0x10013
	liT1A      = 0x04100313 // addi t1, x0, 'A'
	liT1NL     = 0x00A00313 // addi t1, x0, '\n'
	sbT1T0     = 0x00628023 // sb   t1, 0(t0)
	liA0Seven  = 0x00700513 // addi a0, x0, 7
	liA7Exit   = 0x05D00893 // addi a7, x0, 93
	ecall      = 0x00000073
	jalSelf    = 0x0000006F // jal  x0, 0
	illegalNop = 0x00000000
)

func TestSelftestHost(t *testing.T) {
	code, out, _ := rvcheck(t, "selftest", "--platform", "host")
	require.Equal(t, exitOK, code)
	require.Equal(t, "Check MD5 sum SUCCESS\n", out)
}

func TestSelftestMMIO(t *testing.T) {
	code, out, _ := rvcheck(t, "selftest", "--platform", "mmio", "--drain", "clamp")
	require.Equal(t, exitOK, code)
	require.Equal(t, "[UART0] Check MD5 sum SUCCESS\n", out)
}

func TestSelftestPlatformFromEnv(t *testing.T) {
	t.Setenv("RVCHECK_PLATFORM", "mmio")
	code, out, _ := rvcheck(t, "selftest")
	require.Equal(t, exitOK, code)
	require.True(t, strings.HasPrefix(out, "[UART0] "))
}

func TestSelftestPlatformFromConfigFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "rvcheck.yaml")
	require.NoError(t, os.WriteFile(p, []byte("platform: mmio\nuart_name: SERIAL0\n"), 0o644))

	code, out, _ := rvcheck(t, "--config", p, "selftest")
	require.Equal(t, exitOK, code)
	require.Equal(t, "[SERIAL0] Check MD5 sum SUCCESS\n", out)
}

func TestUsageErrors(t *testing.T) {
	for _, args := range [][]string{
		{"selftest", "--platform", "fpga"},
		{"selftest", "--drain", "spill"},
		{"--log-level", "loud", "selftest"},
		{"--config", "/nonexistent/rvcheck.yaml", "selftest"},
		{"frobnicate"},
		{"run"},
		{"run", "fw.bin", "--entry", "nowhere"},
	} {
		code, _, stderr := rvcheck(t, args...)
		require.Equal(t, exitUsage, code, "%v", args)
		require.Contains(t, stderr, "Error:", "%v", args)
	}
}

func TestRunFlatBinaryPassesExitCode(t *testing.T) {
	p := writeBin(t, luiT0UART, liT1A, sbT1T0, liT1NL, sbT1T0, liA0Seven, liA7Exit, ecall)

	code, out, _ := rvcheck(t, "run", p, "--entry", "0x80000000")
	require.Equal(t, 7, code)
	require.True(t, strings.HasPrefix(out, "[UART0] A\n"), out)
	require.Contains(t, out, "Target application exit code: 7\n")
	require.Contains(t, out, "Simulation statistics:\n")
	require.Contains(t, out, "\tInstructions: 8 in ")
}

func TestRunWritesTrace(t *testing.T) {
	p := writeBin(t, liA0Seven, liA7Exit, ecall)
	trace := filepath.Join(t.TempDir(), "trace.log")

	code, out, _ := rvcheck(t, "run", p, "--trace", trace, "--no-stats")
	require.Equal(t, 7, code)
	require.Empty(t, out)

	b, err := os.ReadFile(trace)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "0x80000000 (0x00700513)", lines[0])
}

func TestRunFaultAndStepLimit(t *testing.T) {
	code, _, stderr := rvcheck(t, "run", writeBin(t, illegalNop), "--no-stats", "--no-ansi")
	require.Equal(t, exitFault, code)
	require.Contains(t, stderr, "illegal instruction")

	code, out, _ := rvcheck(t, "run", writeBin(t, jalSelf), "--steps", "10")
	require.Equal(t, exitSteps, code)
	require.Contains(t, out, "Target application did not exit\n")
}

func TestRunMissingFile(t *testing.T) {
	code, _, stderr := rvcheck(t, "run", filepath.Join(t.TempDir(), "none.elf"))
	require.Equal(t, exitSetup, code)
	require.Contains(t, stderr, "load ")
}

func TestFirmwareStatus(t *testing.T) {
	for code, want := range map[int32]int{
		0:   0,
		7:   7,
		255: 255,
		256: exitFault,
		-1:  exitFault,
		64:  exitFault,
		70:  exitFault,
		72:  exitFault,
		73:  73,
	} {
		require.Equal(t, want, firmwareStatus(code), "code %d", code)
	}
}

func TestRunFirmwareExit256IsNotSuccess(t *testing.T) {
	// addi a0, x0, 256
	p := writeBin(t, 0x10000513, liA7Exit, ecall)
	code, _, stderr := rvcheck(t, "run", p, "--no-stats", "--no-ansi")
	require.Equal(t, exitFault, code)
	require.Contains(t, stderr, "firmware exit code not representable")
}

func TestTraceLogLevel(t *testing.T) {
	code, _, stderr := rvcheck(t, "--log-level", "trace", "--no-ansi", "selftest", "--platform", "host")
	require.Equal(t, exitOK, code)
	require.Contains(t, stderr, "[TRACE] starting")
}
