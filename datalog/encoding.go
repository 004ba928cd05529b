package datalog

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"
)

// Fixed-width, order-preserving encodings for each Value payload. These are
// shared by every index's key codec (datalog/storage/keycodec.go): the
// codec only needs to concatenate them in the right order per index, never
// re-derive the byte-level representation itself.

// EncodeU64 big-endian encodes u, preserving numeric order directly.
func EncodeU64(u uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, u)
	return buf
}

// DecodeU64 is the inverse of EncodeU64.
func DecodeU64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("datalog: u64 payload must be 8 bytes, got %d", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

// EncodeI64 flips the sign bit before big-endian encoding so that the
// resulting byte order matches signed numeric order (negative numbers sort
// before non-negative ones, and within each sign the usual order holds).
func EncodeI64(i int64) []byte {
	biased := uint64(i) ^ (1 << 63)
	return EncodeU64(biased)
}

// DecodeI64 is the inverse of EncodeI64.
func DecodeI64(b []byte) (int64, error) {
	u, err := DecodeU64(b)
	if err != nil {
		return 0, err
	}
	return int64(u ^ (1 << 63)), nil
}

// EncodeDecimal produces a fixed 16-byte order-preserving representation:
// the sign-biased floor (Decimal.Int) followed by the fractional numerator
// (Decimal.Frac), which is always non-negative and floor-relative (never
// sign-magnitude) so the two fields compare directly in that order.
func EncodeDecimal(d Decimal) []byte {
	buf := make([]byte, 16)
	copy(buf[0:8], EncodeI64(d.Int))
	copy(buf[8:16], EncodeU64(d.Frac))
	return buf
}

// DecodeDecimal is the inverse of EncodeDecimal.
func DecodeDecimal(b []byte) (Decimal, error) {
	if len(b) != 16 {
		return Decimal{}, fmt.Errorf("datalog: decimal payload must be 16 bytes, got %d", len(b))
	}
	whole, err := DecodeI64(b[0:8])
	if err != nil {
		return Decimal{}, err
	}
	frac, err := DecodeU64(b[8:16])
	if err != nil {
		return Decimal{}, err
	}
	return Decimal{Int: whole, Frac: frac}, nil
}

// EncodeStr appends a terminating NUL so that a string prefix never
// collides with a longer string sharing that prefix ("ab\x00" < "abc\x00").
// Embedded NUL bytes are rejected by the caller before this is invoked
// (see EncodeValue) since they would break that invariant.
func EncodeStr(s string) []byte {
	buf := make([]byte, len(s)+1)
	copy(buf, s)
	buf[len(s)] = 0x00
	return buf
}

// DecodeStr strips the terminating NUL written by EncodeStr.
func DecodeStr(b []byte) (string, error) {
	if len(b) == 0 || b[len(b)-1] != 0x00 {
		return "", fmt.Errorf("datalog: str payload missing NUL terminator")
	}
	return string(b[:len(b)-1]), nil
}

// ErrEmbeddedNUL is returned when a Str value contains a NUL byte, which
// would corrupt the order-preserving termination scheme in EncodeStr.
var ErrEmbeddedNUL = fmt.Errorf("datalog: string value contains embedded NUL byte")

// EncodeValue writes a Value as a 1-byte type tag followed by its
// tag-specific payload. Tag-then-payload ordering is what makes Value.Compare
// (different-typed values order purely by tag) match the byte order here.
func EncodeValue(v Value) ([]byte, error) {
	tag := byte(v.Type())
	switch v.Type() {
	case TypeNil:
		return []byte{tag}, nil
	case TypeI64:
		return append([]byte{tag}, EncodeI64(v.AsI64())...), nil
	case TypeU64:
		return append([]byte{tag}, EncodeU64(v.AsU64())...), nil
	case TypeDecimal:
		return append([]byte{tag}, EncodeDecimal(v.AsDecimal())...), nil
	case TypeStr:
		s := v.AsStr()
		for i := 0; i < len(s); i++ {
			if s[i] == 0x00 {
				return nil, ErrEmbeddedNUL
			}
		}
		return append([]byte{tag}, EncodeStr(s)...), nil
	case TypeRef:
		return append([]byte{tag}, EncodeU64(uint64(v.AsRef()))...), nil
	default:
		return nil, fmt.Errorf("datalog: cannot encode value of type %s", v.Type())
	}
}

// DecodeValue is the inverse of EncodeValue. Errors surface malformed
// input (bad length, bad tag, invalid UTF-8) as a ReadError at the
// storage layer; this function only reports the raw cause.
func DecodeValue(b []byte) (Value, int, error) {
	if len(b) == 0 {
		return Value{}, 0, fmt.Errorf("datalog: empty value encoding")
	}
	tag := ValueType(b[0])
	payload := b[1:]
	switch tag {
	case TypeNil:
		return Nil, 1, nil
	case TypeI64:
		if len(payload) < 8 {
			return Value{}, 0, fmt.Errorf("datalog: i64 value truncated")
		}
		n, err := DecodeI64(payload[:8])
		if err != nil {
			return Value{}, 0, err
		}
		return I64(n), 9, nil
	case TypeU64:
		if len(payload) < 8 {
			return Value{}, 0, fmt.Errorf("datalog: u64 value truncated")
		}
		n, err := DecodeU64(payload[:8])
		if err != nil {
			return Value{}, 0, err
		}
		return U64(n), 9, nil
	case TypeDecimal:
		if len(payload) < 16 {
			return Value{}, 0, fmt.Errorf("datalog: decimal value truncated")
		}
		d, err := DecodeDecimal(payload[:16])
		if err != nil {
			return Value{}, 0, err
		}
		return DecimalValue(d), 17, nil
	case TypeStr:
		idx := indexByte(payload, 0x00)
		if idx < 0 {
			return Value{}, 0, fmt.Errorf("datalog: str value missing NUL terminator")
		}
		if !utf8.Valid(payload[:idx]) {
			return Value{}, 0, fmt.Errorf("datalog: str value is not valid UTF-8")
		}
		s, err := DecodeStr(payload[:idx+1])
		if err != nil {
			return Value{}, 0, err
		}
		return Str(s), idx + 2, nil
	case TypeRef:
		if len(payload) < 8 {
			return Value{}, 0, fmt.Errorf("datalog: ref value truncated")
		}
		n, err := DecodeU64(payload[:8])
		if err != nil {
			return Value{}, 0, err
		}
		return Ref(EntityID(n)), 9, nil
	default:
		return Value{}, 0, fmt.Errorf("datalog: unknown value type tag %d", tag)
	}
}

func indexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}

