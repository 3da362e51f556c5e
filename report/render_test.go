package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func render(format string, args ...Value) string {
	var buf [BufferSize]byte
	n := Render(buf[:], format, args...)
	if n > BufferSize-1 {
		n = BufferSize - 1
	}
	return string(buf[:n])
}

func TestRenderConversions(t *testing.T) {
	cases := []struct {
		name   string
		format string
		args   []Value
		want   string
	}{
		{"literal", "Check MD5 sum SUCCESS\n", nil, "Check MD5 sum SUCCESS\n"},
		{"empty", "", nil, ""},
		{"percent", "100%%", nil, "100%"},
		{"decimal", "Check MD5 sum FAILURE: %d\n", []Value{Int(3)}, "Check MD5 sum FAILURE: 3\n"},
		{"negative", "%d|%i", []Value{Int(-42), Int(7)}, "-42|7"},
		{"plus and space", "%+d|% d|%+d", []Value{Int(5), Int(5), Int(-5)}, "+5| 5|-5"},
		{"width", "[%5d][%-5d]", []Value{Int(42), Int(42)}, "[   42][42   ]"},
		{"zero pad", "[%05d][%05d]", []Value{Int(42), Int(-42)}, "[00042][-0042]"},
		{"zero ignored with minus", "[%-05d]", []Value{Int(7)}, "[7    ]"},
		{"precision", "[%.3d][%8.3d]", []Value{Int(7), Int(-7)}, "[007][    -007]"},
		{"zero precision zero value", "[%.0d]", []Value{Int(0)}, "[]"},
		{"star width", "[%*d][%*d]", []Value{Int(4), Int(1), Int(-4), Int(1)}, "[   1][1   ]"},
		{"star precision", "[%.*s]", []Value{Int(2), Str("abcdef")}, "[ab]"},
		{"negative star precision", "[%.*s]", []Value{Int(-1), Str("abc")}, "[abc]"},
		{"unsigned of negative int", "%u", []Value{Int(-1)}, "4294967295"},
		{"hex", "%x %X %08x", []Value{Uint(0xbeef), Uint(0xbeef), Uint(0x2c)}, "beef BEEF 0000002c"},
		{"hex alt", "%#x %#X %#x", []Value{Uint(255), Uint(255), Uint(0)}, "0xff 0XFF 0"},
		{"hex of negative int", "%x", []Value{Int(-1)}, "ffffffff"},
		{"long long", "%lld %llx", []Value{Int64(-1 << 40), Uint64(1 << 40)}, "-1099511627776 10000000000"},
		{"long is 32 bit", "%ld", []Value{Int64(1 << 32)}, "0"},
		{"char modifier", "%hhd %hhu", []Value{Int(255), Int(-1)}, "-1 255"},
		{"short modifier", "%hd %hx", []Value{Int(65535), Int(-1)}, "-1 ffff"},
		{"size_t", "%zu", []Value{Uint(12)}, "12"},
		{"octal", "%o %#o %#o", []Value{Uint(8), Uint(8), Uint(0)}, "10 010 0"},
		{"char", "%c%c%3c", []Value{Char('o'), Int('k'), Char('!')}, "ok  !"},
		{"string", "%s|%8s|%-8s|", []Value{Str("md5"), Str("md5"), Str("md5")}, "md5|     md5|md5     |"},
		{"string precision", "%.3s", []Value{Str("abcdef")}, "abc"},
		{"pointer", "%p %p", []Value{Ptr(0x10013000), Ptr(0)}, "0x10013000 (nil)"},
		{"missing", "%d and %s", []Value{Int(1)}, "1 and %!s(MISSING)"},
		{"wrong kind for s", "%s", []Value{Int(5)}, "%!s(int=5)"},
		{"wrong kind for d", "%d", []Value{Str("x")}, "%!d(string=x)"},
		{"wrong kind for p", "%p", []Value{Uint(1)}, "%!p(uint=1)"},
		{"invalid value", "%d", []Value{{}}, "%!d(invalid)"},
		{"unknown verb copied", "%q %5y", []Value{Int(1)}, "%q %5y"},
		{"dangling percent", "50%", nil, "50%"},
		{"dangling directive", "x%-5", nil, "x%-5"},
		{"extra args ignored", "%d", []Value{Int(1), Int(2)}, "1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, render(tc.format, tc.args...))
		})
	}
}

func TestRenderReturnsUntruncatedLength(t *testing.T) {
	buf := make([]byte, 4)
	n := Render(buf, "hello %s", Str("world"))
	require.Equal(t, 11, n)
	require.Equal(t, []byte("hel\x00"), buf)
}

func TestRenderTerminates(t *testing.T) {
	buf := []byte("xxxxxxxx")
	n := Render(buf, "ab")
	require.Equal(t, 2, n)
	require.Equal(t, []byte("ab\x00xxxxx"), buf)
}

func TestRenderWithEmptyBuffer(t *testing.T) {
	require.Equal(t, 5, Render(nil, "%05d", Int(1)))
	require.Equal(t, 3, Render([]byte{}, "abc"))
}

func TestRenderLongField(t *testing.T) {
	long := strings.Repeat("z", 2000)
	var buf [BufferSize]byte
	n := Render(buf[:], "%s!", Str(long))
	require.Equal(t, 2001, n)
	require.Equal(t, strings.Repeat("z", BufferSize-1), string(buf[:BufferSize-1]))
	require.Zero(t, buf[BufferSize-1])
}

func TestValueKinds(t *testing.T) {
	require.Equal(t, KindInt, Int(1).Kind())
	require.Equal(t, KindUint, Uint(1).Kind())
	require.Equal(t, KindStr, Str("").Kind())
	require.Equal(t, KindChar, Char('a').Kind())
	require.Equal(t, KindPtr, Ptr(1).Kind())
	require.Equal(t, KindInvalid, Value{}.Kind())
	require.Equal(t, "char='a'", Char('a').String())
	require.Equal(t, "ptr=0x10", Ptr(16).String())
}
