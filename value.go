package tl

import (
	"math"
	"time"
)

// Kind identifies which field of a Value is meaningful. Value is a closed
// sum type over the host-visible value tree spec.md §1 describes:
// booleans, null, integers, floats, dates, byte strings, UTF-8 strings,
// ordered sequences, and string-keyed maps, plus an escape hatch for
// extension-decoded payloads (spec.md §9 Design Notes recommends exactly
// this shape for strongly-typed targets).
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindUint
	KindFloat32
	KindFloat64
	KindDate
	KindBytes
	KindString
	KindVector
	KindMap
	KindCustom
)

// Value is an immutable node in the dynamically-typed value tree the codec
// converts to and from bytes. Construct one with the Bool/Int/Uint/... etc.
// helpers below; the zero Value is Null.
type Value struct {
	kind Kind

	b   bool
	i   int64
	u   uint64
	f32 float32
	f64 float64
	t   time.Time
	bs      []byte
	s       string
	vec     []Value
	dynamic bool // true when vec was built with VectorDynamic, not Vector
	m       map[string]Value

	// custom carries the payload an extension produced on decode, or that
	// the host wants an extension to claim on encode.
	custom interface{}
}

// Kind reports which accessor on v is meaningful.
func (v Value) Kind() Kind { return v.kind }

func Null() Value                   { return Value{kind: KindNull} }
func Bool(b bool) Value             { return Value{kind: KindBool, b: b} }
func Int(i int64) Value             { return Value{kind: KindInt, i: i} }
func Uint(u uint64) Value           { return Value{kind: KindUint, u: u} }
func Float32(f float32) Value       { return Value{kind: KindFloat32, f32: f} }
func Double(f float64) Value        { return Value{kind: KindFloat64, f64: f} }
func DateValue(t time.Time) Value   { return Value{kind: KindDate, t: t} }
func Bytes(b []byte) Value          { return Value{kind: KindBytes, bs: b} }
func String(s string) Value         { return Value{kind: KindString, s: s} }
func Vector(vs []Value) Value       { return Value{kind: KindVector, vec: vs} }

// VectorDynamic builds a sequence encoded with the VectorDynamic tag (spec
// §3, §4.3.3) instead of the length-prefixed Vector tag: a terminator
// follows the elements rather than an up-front count. Semantically
// equivalent to Vector; the wire shape differs.
func VectorDynamic(vs []Value) Value { return Value{kind: KindVector, vec: vs, dynamic: true} }

func Map(m map[string]Value) Value  { return Value{kind: KindMap, m: m} }
func Custom(data interface{}) Value { return Value{kind: KindCustom, custom: data} }

func (v Value) AsBool() bool                 { return v.b }
// AsInt returns v's integer value; a KindUint value (which is what a
// non-negative integer decodes to) is converted to int64.
func (v Value) AsInt() int64 {
	if v.kind == KindUint {
		return int64(v.u)
	}
	return v.i
}

func (v Value) AsUint() uint64               { return v.u }
func (v Value) AsFloat32() float32           { return v.f32 }
func (v Value) AsFloat64() float64           { return v.f64 }
func (v Value) AsDate() time.Time            { return v.t }
func (v Value) AsBytes() []byte              { return v.bs }
func (v Value) AsString() string             { return v.s }
func (v Value) AsVector() []Value            { return v.vec }
func (v Value) AsMap() map[string]Value      { return v.m }
func (v Value) AsCustom() interface{}        { return v.custom }

// IsNull reports whether v holds no value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsDynamicVector reports whether a KindVector value was built with
// VectorDynamic rather than Vector.
func (v Value) IsDynamicVector() bool { return v.kind == KindVector && v.dynamic }

// scalarEqual implements the repeat-compression equality rule (spec §3,
// "Repeat state"): only immutable scalars participate, and container
// values are never equal for this purpose even if structurally identical.
func scalarEqual(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindInt:
		return a.i == b.i
	case KindUint:
		return a.u == b.u
	case KindFloat32:
		return a.f32 == b.f32
	case KindFloat64:
		return a.f64 == b.f64
	case KindDate:
		return a.t.Equal(b.t)
	case KindString:
		return a.s == b.s
	case KindBytes:
		return string(a.bs) == string(b.bs)
	default:
		// Vector, Map, Custom: never trigger repeat compression.
		return false
	}
}

// intTagFor picks the narrowest core integer tag for a signed magnitude,
// per spec §4.5: smallest of UInt8/UInt16/UInt32/Int8/Int16/Int32 that
// fits, else Double (the caller substitutes a Double write on that result).
// Unsigned is preferred over signed whenever both fit, which is why a
// non-negative i is routed through uintTagFor first.
func intTagFor(i int64) tag {
	if i >= 0 {
		return uintTagFor(uint64(i))
	}
	switch {
	case i >= -128:
		return tagInt8
	case i >= -32768:
		return tagInt16
	case i >= -2147483648:
		return tagInt32
	default:
		return tagDouble
	}
}

func uintTagFor(u uint64) tag {
	switch {
	case u <= math.MaxUint8:
		return tagUInt8
	case u <= math.MaxUint16:
		return tagUInt16
	case u <= math.MaxUint32:
		return tagUInt32
	default:
		return tagDouble
	}
}

// coreTagFor infers the constructor tag for v per spec §4.5. It returns
// tagNone when v matches no core type (KindCustom), signalling the caller
// to try extension dispatch. The zero Value is KindNull and gets tagNull.
func coreTagFor(v Value) tag {
	switch v.kind {
	case KindNull:
		return tagNull
	case KindBool:
		if v.b {
			return tagBoolTrue
		}
		return tagBoolFalse
	case KindString:
		return tagString
	case KindBytes:
		return tagBinary
	case KindDate:
		return tagDate
	case KindVector:
		if v.dynamic {
			return tagVectorDynamic
		}
		return tagVector
	case KindMap:
		return tagMap
	case KindFloat32:
		return tagFloat
	case KindFloat64:
		return tagDouble
	case KindInt:
		return intTagFor(v.i)
	case KindUint:
		if v.u <= math.MaxInt64 {
			return intTagFor(int64(v.u))
		}
		return uintTagFor(v.u)
	default:
		return tagNone
	}
}
