package platform

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"rvcheck/sim"
)

type store struct {
	addr uint32
	v    uint8
}

// fakeBus records every store and never reads.
type fakeBus struct {
	stores []store
	ok     bool
}

func (b *fakeBus) Write8(addr uint32, v uint8) bool {
	b.stores = append(b.stores, store{addr, v})
	return b.ok
}

func TestMMIOStoresEachByteToTxData(t *testing.T) {
	bus := &fakeBus{ok: true}
	s := NewMMIO(bus)
	for _, c := range []byte("hi\n") {
		s.EmitByte(c)
	}
	require.Equal(t, []store{
		{UART0TxData, 'h'},
		{UART0TxData, 'i'},
		{UART0TxData, '\n'},
	}, bus.stores)
}

func TestMMIOIgnoresRejectedStore(t *testing.T) {
	bus := &fakeBus{ok: false}
	s := NewMMIO(bus)
	s.EmitByte('x')
	require.Len(t, bus.stores, 1)
}

func TestMMIOReachesEmulatedUART(t *testing.T) {
	var console bytes.Buffer
	m, err := sim.NewMachine(sim.FE310(), &console, nil)
	require.NoError(t, err)

	s := NewMMIO(m.Bus)
	for _, c := range []byte("boot ok\n") {
		s.EmitByte(c)
	}
	require.Equal(t, "[UART0] boot ok\n", console.String())
	require.Equal(t, []byte("boot ok\n"), m.UART.Transmitted())
}

// oneByteWriter fails the test if a write carries more than one byte.
type oneByteWriter struct {
	t   *testing.T
	out bytes.Buffer
}

func (w *oneByteWriter) Write(p []byte) (int, error) {
	require.Len(w.t, p, 1)
	return w.out.Write(p)
}

func TestHostWritesOneByteAtATime(t *testing.T) {
	w := &oneByteWriter{t: t}
	s := NewHost(w)
	for _, c := range []byte("abc") {
		s.EmitByte(c)
	}
	require.Equal(t, "abc", w.out.String())
}

func TestRecorder(t *testing.T) {
	var r Recorder
	r.EmitByte('a')
	r.EmitByte(0)
	require.Equal(t, []byte{'a', 0}, r.Bytes())
	require.Equal(t, 2, r.Calls())
	r.Reset()
	require.Empty(t, r.String())
	require.Zero(t, r.Calls())
}

func TestNewSelectsVariant(t *testing.T) {
	s, err := New(KindHost, nil, &bytes.Buffer{})
	require.NoError(t, err)
	require.IsType(t, &Host{}, s)

	s, err = New(KindMMIO, &fakeBus{}, nil)
	require.NoError(t, err)
	require.IsType(t, &MMIO{}, s)

	_, err = New(KindMMIO, nil, nil)
	require.True(t, errors.Is(err, ErrNoBus))

	_, err = New(Kind(9), nil, nil)
	require.Error(t, err)
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"host": KindHost, "MMIO": KindMMIO, " hw ": KindMMIO} {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
		require.NotEmpty(t, got.String())
	}
	_, err := ParseKind("jtag")
	require.Error(t, err)
	require.Equal(t, "Kind(7)", Kind(7).String())
}
