package report

import "strconv"

// Kind tags the payload carried by a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt
	KindUint
	KindStr
	KindChar
	KindPtr
)

// Value is one formatting argument. Build it with Int, Uint, Str, Char or
// Ptr; the zero Value is invalid and renders as a bad-argument marker.
type Value struct {
	kind Kind
	n    uint64
	s    string
}

func Int(v int) Value       { return Int64(int64(v)) }
func Int64(v int64) Value   { return Value{kind: KindInt, n: uint64(v)} }
func Uint(v uint) Value     { return Uint64(uint64(v)) }
func Uint64(v uint64) Value { return Value{kind: KindUint, n: v} }
func Str(s string) Value    { return Value{kind: KindStr, s: s} }
func Char(c byte) Value     { return Value{kind: KindChar, n: uint64(c)} }
func Ptr(p uintptr) Value   { return Value{kind: KindPtr, n: uint64(p)} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return "int=" + strconv.FormatInt(int64(v.n), 10)
	case KindUint:
		return "uint=" + strconv.FormatUint(v.n, 10)
	case KindStr:
		return "string=" + v.s
	case KindChar:
		return "char=" + strconv.QuoteRuneToASCII(rune(byte(v.n)))
	case KindPtr:
		return "ptr=0x" + strconv.FormatUint(v.n, 16)
	}
	return "invalid"
}

// integer returns the value as a machine word for the integer conversions.
func (v Value) integer() (uint64, bool) {
	switch v.kind {
	case KindInt, KindUint, KindChar, KindPtr:
		return v.n, true
	}
	return 0, false
}

func (v Value) str() (string, bool) {
	if v.kind != KindStr {
		return "", false
	}
	return v.s, true
}
