// Package digest is the MD5 engine the self-test checks. It mirrors the
// streaming shape of a firmware C library: the caller owns a Context, calls
// Init, feeds it with Update and reads Digest after Finalize.
package digest

import (
	"encoding/binary"
	"encoding/hex"
	"math/bits"
)

const (
	Size      = 16
	BlockSize = 64
)

// Context is the running state. The zero value must be passed to Init
// before use.
type Context struct {
	Size   uint64    // bytes consumed so far
	Buffer [4]uint32 // A, B, C, D
	Input  [BlockSize]byte
	Digest [Size]byte
}

var shifts = [64]uint32{
	7, 12, 17, 22, 7, 12, 17, 22, 7, 12, 17, 22, 7, 12, 17, 22,
	5, 9, 14, 20, 5, 9, 14, 20, 5, 9, 14, 20, 5, 9, 14, 20,
	4, 11, 16, 23, 4, 11, 16, 23, 4, 11, 16, 23, 4, 11, 16, 23,
	6, 10, 15, 21, 6, 10, 15, 21, 6, 10, 15, 21, 6, 10, 15, 21,
}

// table[i] = floor(2^32 * abs(sin(i + 1)))
var table = [64]uint32{
	0xd76aa478, 0xe8c7b756, 0x242070db, 0xc1bdceee,
	0xf57c0faf, 0x4787c62a, 0xa8304613, 0xfd469501,
	0x698098d8, 0x8b44f7af, 0xffff5bb1, 0x895cd7be,
	0x6b901122, 0xfd987193, 0xa679438e, 0x49b40821,
	0xf61e2562, 0xc040b340, 0x265e5a51, 0xe9b6c7aa,
	0xd62f105d, 0x02441453, 0xd8a1e681, 0xe7d3fbc8,
	0x21e1cde6, 0xc33707d6, 0xf4d50d87, 0x455a14ed,
	0xa9e3e905, 0xfcefa3f8, 0x676f02d9, 0x8d2a4c8a,
	0xfffa3942, 0x8771f681, 0x6d9d6122, 0xfde5380c,
	0xa4beea44, 0x4bdecfa9, 0xf6bb4b60, 0xbebfbc70,
	0x289b7ec6, 0xeaa127fa, 0xd4ef3085, 0x04881d05,
	0xd9d4d039, 0xe6db99e5, 0x1fa27cf8, 0xc4ac5665,
	0xf4292244, 0x432aff97, 0xab9423a7, 0xfc93a039,
	0x655b59c3, 0x8f0ccc92, 0xffeff47d, 0x85845dd1,
	0x6fa87e4f, 0xfe2ce6e0, 0xa3014314, 0x4e0811a1,
	0xf7537e82, 0xbd3af235, 0x2ad7d2bb, 0xeb86d391,
}

func (c *Context) Init() {
	c.Size = 0
	c.Buffer = [4]uint32{0x67452301, 0xefcdab89, 0x98badcfe, 0x10325476}
	c.Input = [BlockSize]byte{}
	c.Digest = [Size]byte{}
}

// Update feeds p into the context.
func (c *Context) Update(p []byte) {
	off := int(c.Size % BlockSize)
	c.Size += uint64(len(p))
	for _, b := range p {
		c.Input[off] = b
		off++
		if off == BlockSize {
			c.step()
			off = 0
		}
	}
}

// Finalize pads the message, folds in the bit length and fills Digest.
func (c *Context) Finalize() {
	bitLen := c.Size * 8
	off := int(c.Size % BlockSize)
	padLen := 56 - off
	if off >= 56 {
		padLen = 56 + BlockSize - off
	}
	var pad [BlockSize + 8]byte
	pad[0] = 0x80
	binary.LittleEndian.PutUint64(pad[padLen:], bitLen)

	size := c.Size
	c.Update(pad[:padLen+8])
	c.Size = size

	for i, w := range c.Buffer {
		binary.LittleEndian.PutUint32(c.Digest[i*4:], w)
	}
}

func (c *Context) step() {
	var x [16]uint32
	for i := range x {
		x[i] = binary.LittleEndian.Uint32(c.Input[i*4:])
	}
	a, b, cc, d := c.Buffer[0], c.Buffer[1], c.Buffer[2], c.Buffer[3]
	for i := 0; i < 64; i++ {
		var f uint32
		var g int
		switch i / 16 {
		case 0:
			f = (b & cc) | (^b & d)
			g = i
		case 1:
			f = (b & d) | (cc & ^d)
			g = (5*i + 1) % 16
		case 2:
			f = b ^ cc ^ d
			g = (3*i + 5) % 16
		default:
			f = cc ^ (b | ^d)
			g = (7 * i) % 16
		}
		f += a + table[i] + x[g]
		a, d, cc = d, cc, b
		b += bits.RotateLeft32(f, int(shifts[i]))
	}
	c.Buffer[0] += a
	c.Buffer[1] += b
	c.Buffer[2] += cc
	c.Buffer[3] += d
}

// Fields is a loggable snapshot of the context.
func (c *Context) Fields() map[string]any {
	return map[string]any{
		"size":   c.Size,
		"buffer": []string{hexWord(c.Buffer[0]), hexWord(c.Buffer[1]), hexWord(c.Buffer[2]), hexWord(c.Buffer[3])},
		"input":  hex.EncodeToString(c.Input[:]),
		"digest": hex.EncodeToString(c.Digest[:]),
	}
}

func hexWord(w uint32) string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], w)
	return hex.EncodeToString(b[:])
}

// Sum returns the MD5 digest of p.
func Sum(p []byte) [Size]byte {
	var c Context
	c.Init()
	c.Update(p)
	c.Finalize()
	return c.Digest
}
