// Package datalog defines the core value, entity and datom types shared by
// every other package in the module.
package datalog

import (
	"fmt"
	"math"
)

// ValueType identifies the variant carried by a Value. The numeric value is
// also the type tag written as the first byte of an encoded Value (see
// EncodeValue in encoding.go), so reordering these constants changes the
// on-disk key order.
type ValueType byte

const (
	TypeNil ValueType = iota
	TypeI64
	TypeU64
	TypeDecimal
	TypeStr
	TypeRef
)

func (t ValueType) String() string {
	switch t {
	case TypeNil:
		return "nil"
	case TypeI64:
		return "i64"
	case TypeU64:
		return "u64"
	case TypeDecimal:
		return "decimal"
	case TypeStr:
		return "str"
	case TypeRef:
		return "ref"
	default:
		return fmt.Sprintf("unknown-type(%d)", byte(t))
	}
}

// EntityID is a non-zero, monotonically allocated identifier. Entities and
// attributes (attributes are themselves entities) share this id space.
type EntityID uint64

func (e EntityID) String() string {
	return fmt.Sprintf("#%d", uint64(e))
}

// Decimal is a fixed-point 128-bit number represented as a floor and a
// fractional numerator over a fixed 10^Scale denominator: the value is
// always Int + Frac/scaleDivisor, with Frac held in [0, scaleDivisor)
// regardless of Int's sign (so -1.1 is Int=-2, Frac=900000000, not
// Int=-1, Frac=100000000). Scale is shared across the whole database (see
// scaleDivisor below) so that two Decimals can always be compared by
// (Int, Frac) alone — lexicographic order on the pair matches numeric
// order exactly because Frac is never sign-magnitude.
type Decimal struct {
	Int  int64  // floor of the value
	Frac uint64 // fractional part above the floor, always non-negative, < scaleDivisor
}

// DecimalScale is the number of decimal digits kept in Decimal.Frac.
const DecimalScale = 9

var scaleDivisor = func() uint64 {
	d := uint64(1)
	for i := 0; i < DecimalScale; i++ {
		d *= 10
	}
	return d
}()

// NewDecimal builds a Decimal from a float64. It is a convenience for tests
// and demo data; the transactor and codec never require float64 themselves.
func NewDecimal(f float64) Decimal {
	whole := int64(math.Floor(f))
	frac := uint64(math.Round((f - math.Floor(f)) * float64(scaleDivisor)))
	if frac >= scaleDivisor {
		whole++
		frac -= scaleDivisor
	}
	return Decimal{Int: whole, Frac: frac}
}

// Float64 returns an approximate float64 representation, for display only.
func (d Decimal) Float64() float64 {
	return float64(d.Int) + float64(d.Frac)/float64(scaleDivisor)
}

func (d Decimal) String() string {
	if d.Int >= 0 || d.Frac == 0 {
		return fmt.Sprintf("%d.%0*d", d.Int, DecimalScale, d.Frac)
	}
	// Int<0 with a non-zero Frac is a floor representation of a value
	// strictly between Int and Int+1; print it in the sign-magnitude form
	// a reader expects (e.g. Int=-2,Frac=900000000 prints as "-1.100000000").
	whole := -(d.Int + 1)
	frac := scaleDivisor - d.Frac
	return fmt.Sprintf("-%d.%0*d", whole, DecimalScale, frac)
}

// Value is a tagged union over the six variants the database can store:
// Nil, I64, U64, Decimal, Str and Ref. It is intentionally a plain struct
// rather than an interface{} — every Value carries its own Type so storage
// code never needs a type switch keyed on the Go runtime type to decide how
// to encode it.
type Value struct {
	typ ValueType
	i64 int64
	u64 uint64
	dec Decimal
	str string
	ref EntityID
}

// Nil is the zero Value.
var Nil = Value{typ: TypeNil}

// I64 constructs an I64 value from any signed integer width.
func I64(v int64) Value { return Value{typ: TypeI64, i64: v} }

// I32 coerces to I64, per §4.1: only four numeric variants are stored.
func I32(v int32) Value { return I64(int64(v)) }

// U64 constructs a U64 value from any unsigned integer width.
func U64(v uint64) Value { return Value{typ: TypeU64, u64: v} }

// U32 coerces to U64.
func U32(v uint32) Value { return U64(uint64(v)) }

// DecimalValue constructs a Decimal value.
func DecimalValue(d Decimal) Value { return Value{typ: TypeDecimal, dec: d} }

// Str constructs a Str value.
func Str(s string) Value { return Value{typ: TypeStr, str: s} }

// Ref constructs a Ref value pointing at the given entity.
func Ref(e EntityID) Value { return Value{typ: TypeRef, ref: e} }

// Type returns the Value's variant.
func (v Value) Type() ValueType { return v.typ }

// AsI64 returns the I64 payload; callers must check Type() first.
func (v Value) AsI64() int64 { return v.i64 }

// AsU64 returns the U64 payload.
func (v Value) AsU64() uint64 { return v.u64 }

// AsDecimal returns the Decimal payload.
func (v Value) AsDecimal() Decimal { return v.dec }

// AsStr returns the Str payload.
func (v Value) AsStr() string { return v.str }

// AsRef returns the Ref payload.
func (v Value) AsRef() EntityID { return v.ref }

func (v Value) String() string {
	switch v.typ {
	case TypeNil:
		return "nil"
	case TypeI64:
		return fmt.Sprintf("%d", v.i64)
	case TypeU64:
		return fmt.Sprintf("%d", v.u64)
	case TypeDecimal:
		return v.dec.String()
	case TypeStr:
		return fmt.Sprintf("%q", v.str)
	case TypeRef:
		return v.ref.String()
	default:
		return "<invalid value>"
	}
}

// Compare gives Value its total order: first by tag, then by a
// tag-specific payload comparison. This must stay consistent with the
// key codec's byte ordering (datalog/storage/keycodec.go) — it is what the
// codec's ordering property is checked against in tests.
func (v Value) Compare(other Value) int {
	if v.typ != other.typ {
		if v.typ < other.typ {
			return -1
		}
		return 1
	}
	switch v.typ {
	case TypeNil:
		return 0
	case TypeI64:
		return compareInt64(v.i64, other.i64)
	case TypeU64:
		return compareUint64(v.u64, other.u64)
	case TypeDecimal:
		if c := compareInt64(v.dec.Int, other.dec.Int); c != 0 {
			return c
		}
		return compareUint64(v.dec.Frac, other.dec.Frac)
	case TypeStr:
		switch {
		case v.str < other.str:
			return -1
		case v.str > other.str:
			return 1
		default:
			return 0
		}
	case TypeRef:
		return compareUint64(uint64(v.ref), uint64(other.ref))
	default:
		return 0
	}
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
