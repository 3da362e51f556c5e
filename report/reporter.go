// Package report formats printf-style messages into a fixed buffer and
// drains them through a platform.Sink one byte at a time.
package report

import (
	"fmt"
	"strings"

	"rvcheck/platform"
)

// Drain decides how many bytes Printf sends once rendering is done.
type Drain int

const (
	// DrainTrust sends as many bytes as Render reported, even when that is
	// more than the buffer holds. Positions past the buffer go out as 0x00.
	DrainTrust Drain = iota
	// DrainClamp sends only what was actually stored in the buffer.
	DrainClamp
)

func (d Drain) String() string {
	switch d {
	case DrainTrust:
		return "trust"
	case DrainClamp:
		return "clamp"
	}
	return fmt.Sprintf("Drain(%d)", int(d))
}

func ParseDrain(s string) (Drain, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "trust":
		return DrainTrust, nil
	case "clamp":
		return DrainClamp, nil
	}
	return DrainTrust, fmt.Errorf("unknown drain policy %q (want trust or clamp)", s)
}

type Reporter struct {
	sink  platform.Sink
	drain Drain
}

type Option func(*Reporter)

func WithDrain(d Drain) Option { return func(r *Reporter) { r.drain = d } }

func New(sink platform.Sink, opts ...Option) *Reporter {
	r := &Reporter{sink: sink}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Printf renders format into a BufferSize buffer and hands the result to the
// sink byte by byte before returning. It returns what Render returned.
func (r *Reporter) Printf(format string, args ...Value) int {
	var buf [BufferSize]byte
	ret := Render(buf[:], format, args...)

	n := ret
	if r.drain == DrainClamp && n > len(buf)-1 {
		n = len(buf) - 1
	}
	for i := 0; i < n; i++ {
		var c byte
		if i < len(buf) {
			c = buf[i]
		}
		r.sink.EmitByte(c)
	}
	return ret
}
