package report

// BufferSize is the capacity of the format buffer, terminator included.
const BufferSize = 1024

// lengthMod follows the ILP32 model of the RV32 target: int and long are
// 32 bits, long long is 64.
type lengthMod uint8

const (
	lenInt lengthMod = iota
	lenChar
	lenShort
	lenLong
	lenLongLong
)

func (l lengthMod) signed(n uint64) int64 {
	switch l {
	case lenChar:
		return int64(int8(n))
	case lenShort:
		return int64(int16(n))
	case lenLongLong:
		return int64(n)
	}
	return int64(int32(n))
}

func (l lengthMod) unsigned(n uint64) uint64 {
	switch l {
	case lenChar:
		return uint64(uint8(n))
	case lenShort:
		return uint64(uint16(n))
	case lenLongLong:
		return n
	}
	return uint64(uint32(n))
}

type directive struct {
	minus, plus, space, sharp, zero bool
	width                           int
	prec                            int // -1 when absent
	size                            lengthMod
}

// printer stores what fits and counts everything.
type printer struct {
	buf []byte
	n   int
}

func (p *printer) put(c byte) {
	if p.n < len(p.buf)-1 {
		p.buf[p.n] = c
	}
	p.n++
}

func (p *printer) puts(s string) {
	for i := 0; i < len(s); i++ {
		p.put(s[i])
	}
}

func (p *printer) pad(c byte, n int) {
	for ; n > 0; n-- {
		p.put(c)
	}
}

// Render formats into buf with snprintf semantics: at most len(buf)-1 bytes
// are stored followed by a NUL, and the return value is the length the
// output would have had without the limit.
//
// Supported: %% and the conversions d i u x X o c s p, flags "-+ #0", width
// and precision (digits or *), and the length modifiers hh h l ll z j t.
// Unknown conversions are copied through as written. A conversion with no
// argument left renders as %!d(MISSING); an argument of the wrong kind as
// %!s(int=5).
func Render(buf []byte, format string, args ...Value) int {
	p := printer{buf: buf}
	next := 0
	arg := func() (Value, bool) {
		if next >= len(args) {
			return Value{}, false
		}
		next++
		return args[next-1], true
	}
	number := func(v Value) int {
		n, _ := v.integer()
		return int(int32(n))
	}

	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			p.put(c)
			continue
		}
		start := i
		i++

		sp := directive{prec: -1}
	flags:
		for ; i < len(format); i++ {
			switch format[i] {
			case '-':
				sp.minus = true
			case '+':
				sp.plus = true
			case ' ':
				sp.space = true
			case '#':
				sp.sharp = true
			case '0':
				sp.zero = true
			default:
				break flags
			}
		}

		if i < len(format) && format[i] == '*' {
			i++
			v, _ := arg()
			sp.width = number(v)
			if sp.width < 0 {
				sp.minus = true
				sp.width = -sp.width
			}
		} else {
			for ; i < len(format) && isDigit(format[i]); i++ {
				sp.width = sp.width*10 + int(format[i]-'0')
			}
		}

		if i < len(format) && format[i] == '.' {
			i++
			sp.prec = 0
			if i < len(format) && format[i] == '*' {
				i++
				v, _ := arg()
				if sp.prec = number(v); sp.prec < 0 {
					sp.prec = -1
				}
			} else {
				for ; i < len(format) && isDigit(format[i]); i++ {
					sp.prec = sp.prec*10 + int(format[i]-'0')
				}
			}
		}

	length:
		for ; i < len(format); i++ {
			switch format[i] {
			case 'h':
				if sp.size == lenShort {
					sp.size = lenChar
				} else {
					sp.size = lenShort
				}
			case 'l':
				if sp.size == lenLong {
					sp.size = lenLongLong
				} else {
					sp.size = lenLong
				}
			case 'z', 't':
				sp.size = lenLong
			case 'j':
				sp.size = lenLongLong
			default:
				break length
			}
		}

		if i >= len(format) {
			p.puts(format[start:])
			break
		}

		verb := format[i]
		switch verb {
		case '%':
			p.put('%')
		case 'd', 'i', 'u', 'x', 'X', 'o', 'c', 's', 'p':
			v, ok := arg()
			if !ok {
				p.puts("%!")
				p.put(verb)
				p.puts("(MISSING)")
				continue
			}
			p.convert(verb, sp, v)
		default:
			p.puts(format[start : i+1])
		}
	}

	if len(buf) > 0 {
		end := p.n
		if end > len(buf)-1 {
			end = len(buf) - 1
		}
		buf[end] = 0
	}
	return p.n
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func (p *printer) bad(verb byte, v Value) {
	p.puts("%!")
	p.put(verb)
	p.put('(')
	p.puts(v.String())
	p.put(')')
}

func (p *printer) convert(verb byte, sp directive, v Value) {
	switch verb {
	case 'd', 'i':
		n, ok := v.integer()
		if !ok {
			p.bad(verb, v)
			return
		}
		s := sp.size.signed(n)
		mag := uint64(s)
		if s < 0 {
			mag = -mag
		}
		p.integer(sp, verb, mag, s < 0, true)
	case 'u', 'x', 'X', 'o':
		n, ok := v.integer()
		if !ok {
			p.bad(verb, v)
			return
		}
		p.integer(sp, verb, sp.size.unsigned(n), false, false)
	case 'c':
		n, ok := v.integer()
		if !ok {
			p.bad(verb, v)
			return
		}
		p.field(sp, string([]byte{byte(n)}))
	case 's':
		s, ok := v.str()
		if !ok {
			p.bad(verb, v)
			return
		}
		if sp.prec >= 0 && sp.prec < len(s) {
			s = s[:sp.prec]
		}
		p.field(sp, s)
	case 'p':
		if v.kind != KindPtr {
			p.bad(verb, v)
			return
		}
		if v.n == 0 {
			p.field(sp, "(nil)")
			return
		}
		sp.sharp = true
		p.integer(sp, 'x', uint64(uint32(v.n)), false, false)
	}
}

// field pads s to the width with spaces.
func (p *printer) field(sp directive, s string) {
	if !sp.minus {
		p.pad(' ', sp.width-len(s))
	}
	p.puts(s)
	if sp.minus {
		p.pad(' ', sp.width-len(s))
	}
}

func (p *printer) integer(sp directive, verb byte, mag uint64, neg, signed bool) {
	base := uint64(10)
	digits := "0123456789abcdef"
	switch verb {
	case 'x':
		base = 16
	case 'X':
		base = 16
		digits = "0123456789ABCDEF"
	case 'o':
		base = 8
	}

	var tmp [24]byte
	i := len(tmp)
	for v := mag; v > 0; v /= base {
		i--
		tmp[i] = digits[v%base]
	}
	if mag == 0 && sp.prec != 0 {
		i--
		tmp[i] = '0'
	}
	num := tmp[i:]

	zeros := 0
	if sp.prec > len(num) {
		zeros = sp.prec - len(num)
	}

	var prefix string
	switch {
	case neg:
		prefix = "-"
	case signed && sp.plus:
		prefix = "+"
	case signed && sp.space:
		prefix = " "
	}
	if sp.sharp {
		switch verb {
		case 'o':
			if zeros == 0 && (len(num) == 0 || num[0] != '0') {
				zeros = 1
			}
		case 'x':
			if mag != 0 {
				prefix = "0x"
			}
		case 'X':
			if mag != 0 {
				prefix = "0X"
			}
		}
	}

	total := len(prefix) + zeros + len(num)
	if sp.zero && !sp.minus && sp.prec < 0 && sp.width > total {
		zeros += sp.width - total
		total = sp.width
	}

	if !sp.minus {
		p.pad(' ', sp.width-total)
	}
	p.puts(prefix)
	p.pad('0', zeros)
	for _, c := range num {
		p.put(c)
	}
	if sp.minus {
		p.pad(' ', sp.width-total)
	}
}
