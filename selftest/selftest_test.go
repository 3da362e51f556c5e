package selftest

import (
	"bytes"
	"encoding/hex"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"rvcheck/digest"
	"rvcheck/internal/logger"
	"rvcheck/platform"
	"rvcheck/report"
	"rvcheck/sim"
)

func TestRunSucceedsOnBuiltInInput(t *testing.T) {
	var rec platform.Recorder
	r := New(report.New(&rec), logger.Discard())

	sum := r.Compute()
	require.Equal(t, "6d8d0b2c6a06f88e13167fffacb1b74e", hex.EncodeToString(sum[:]))
	require.Equal(t, 0, r.Run())
	require.Equal(t, "Check MD5 sum SUCCESS\n", rec.String())
}

func TestRunReportsFirstMismatch(t *testing.T) {
	for _, idx := range []int{0, 7, 15} {
		var rec platform.Recorder
		r := New(report.New(&rec), nil)
		r.Expected[idx] ^= 0xFF

		verdict := r.Run()
		require.Equal(t, idx+1, verdict)
		require.Equal(t, "Check MD5 sum FAILURE: "+strconv.Itoa(idx+1)+"\n", rec.String())
	}
}

func TestRunWithDifferentInputFails(t *testing.T) {
	var rec platform.Recorder
	r := New(report.New(&rec), nil)
	r.Input = "abc"

	// md5("abc") = 90 01 50 ... differs at the first byte
	require.Equal(t, 1, r.Run())
}

func TestRunIsRepeatable(t *testing.T) {
	var rec platform.Recorder
	r := New(report.New(&rec), nil)
	first := r.Run()
	second := r.Run()
	require.Equal(t, first, second)
	require.Equal(t, "Check MD5 sum SUCCESS\nCheck MD5 sum SUCCESS\n", rec.String())
}

func TestCompare(t *testing.T) {
	var a, b [digest.Size]byte
	require.Equal(t, 0, Compare(a, b))
	b[15] = 1
	require.Equal(t, 16, Compare(a, b))
	b[3] = 1
	require.Equal(t, 4, Compare(a, b))
}

func TestRunOverEmulatedUART(t *testing.T) {
	var console bytes.Buffer
	m, err := sim.NewMachine(sim.FE310(), &console, nil)
	require.NoError(t, err)

	sink, err := platform.New(platform.KindMMIO, m.Bus, nil)
	require.NoError(t, err)

	require.Equal(t, 0, New(report.New(sink), nil).Run())
	require.Equal(t, "[UART0] Check MD5 sum SUCCESS\n", console.String())
	require.Equal(t, []byte("Check MD5 sum SUCCESS\n"), m.UART.Transmitted())
}

func TestComputeLogsContextPhases(t *testing.T) {
	var logs bytes.Buffer
	log := logger.New(false, logger.WithOutput(&logs), logger.WithLevel(logger.LevelDebug))
	var rec platform.Recorder

	New(report.New(&rec), log).Run()

	out := logs.String()
	require.Contains(t, out, "After md5Init()")
	require.Contains(t, out, "After md5Update()")
	require.Contains(t, out, "After md5Finalize()")
	require.Contains(t, out, "6d8d0b2c6a06f88e13167fffacb1b74e")
}
