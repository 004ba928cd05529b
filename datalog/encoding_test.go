package datalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeU64RoundTrip(t *testing.T) {
	for _, u := range []uint64{0, 1, 42, 1 << 63, ^uint64(0)} {
		b := EncodeU64(u)
		got, err := DecodeU64(b)
		require.NoError(t, err)
		assert.Equal(t, u, got)
	}
}

func TestEncodeU64PreservesOrder(t *testing.T) {
	values := []uint64{0, 1, 2, 1000, 1 << 40, ^uint64(0)}
	for i := 1; i < len(values); i++ {
		a, b := EncodeU64(values[i-1]), EncodeU64(values[i])
		assert.Negative(t, bytesCompare(a, b))
	}
}

func TestEncodeI64RoundTripAndOrder(t *testing.T) {
	values := []int64{-1 << 62, -1000, -1, 0, 1, 1000, 1 << 62}
	var encoded [][]byte
	for _, v := range values {
		b := EncodeI64(v)
		got, err := DecodeI64(b)
		require.NoError(t, err)
		assert.Equal(t, v, got)
		encoded = append(encoded, b)
	}
	for i := 1; i < len(encoded); i++ {
		assert.Negative(t, bytesCompare(encoded[i-1], encoded[i]), "index %d", i)
	}
}

func TestEncodeDecimalRoundTrip(t *testing.T) {
	d := Decimal{Int: -42, Frac: 500000000}
	b := EncodeDecimal(d)
	require.Len(t, b, 16)
	got, err := DecodeDecimal(b)
	require.NoError(t, err)
	assert.Equal(t, d, got)
}

func TestEncodeStrRoundTrip(t *testing.T) {
	for _, s := range []string{"", "a", "hello world", "unicode: 日本語"} {
		b := EncodeStr(s)
		got, err := DecodeStr(b)
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
}

func TestEncodeStrPreservesPrefixOrder(t *testing.T) {
	a := EncodeStr("ab")
	b := EncodeStr("abc")
	assert.Negative(t, bytesCompare(a, b))
}

func TestEncodeValueRejectsEmbeddedNUL(t *testing.T) {
	_, err := EncodeValue(Str("a\x00b"))
	assert.ErrorIs(t, err, ErrEmbeddedNUL)
}

func TestEncodeDecodeValueRoundTrip(t *testing.T) {
	values := []Value{
		Nil,
		I64(-1),
		I64(0),
		I64(42),
		U64(0),
		U64(1 << 40),
		DecimalValue(Decimal{Int: -3, Frac: 140000000}),
		Str("hello"),
		Ref(7),
	}
	for _, v := range values {
		b, err := EncodeValue(v)
		require.NoError(t, err)
		got, n, err := DecodeValue(b)
		require.NoError(t, err)
		assert.Equal(t, len(b), n)
		assert.Equal(t, 0, v.Compare(got), "value %s round-tripped as %s", v, got)
	}
}

// TestValueOrderMatchesByteOrder is the key testable property from spec.md
// §8: encoding two Values and comparing their byte strings must agree with
// Value.Compare.
func TestValueOrderMatchesByteOrder(t *testing.T) {
	values := []Value{
		Nil,
		I64(-100),
		I64(-1),
		I64(0),
		I64(100),
		U64(0),
		U64(100),
		DecimalValue(Decimal{Int: -2, Frac: 100000000}), // -1.9
		DecimalValue(Decimal{Int: -2, Frac: 900000000}), // -1.1
		DecimalValue(Decimal{Int: -1, Frac: 0}),
		DecimalValue(Decimal{Int: 0, Frac: 0}),
		DecimalValue(Decimal{Int: 0, Frac: 500000000}),
		Str("a"),
		Str("ab"),
		Str("b"),
		Ref(1),
		Ref(2),
	}
	for i := range values {
		for j := range values {
			enc := func(v Value) []byte {
				b, err := EncodeValue(v)
				require.NoError(t, err)
				return b
			}
			bi, bj := enc(values[i]), enc(values[j])
			wantCompare := values[i].Compare(values[j])
			gotCompare := bytesCompare(bi, bj)
			assert.Equal(t, sign(wantCompare), sign(gotCompare),
				"Compare(%s,%s)=%d but byte order gives %d", values[i], values[j], wantCompare, gotCompare)
		}
	}
}

// TestDecimalCompareMatchesFloat64Order guards against the floor/sign-magnitude
// mismatch this type is prone to: two Decimals with the same negative Int and
// different non-zero Fracs must compare the same way their Float64 values do.
func TestDecimalCompareMatchesFloat64Order(t *testing.T) {
	smaller := Decimal{Int: -2, Frac: 100000000} // -1.9
	bigger := Decimal{Int: -2, Frac: 900000000}  // -1.1
	assert.Less(t, smaller.Float64(), bigger.Float64())
	assert.Negative(t, DecimalValue(smaller).Compare(DecimalValue(bigger)))
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

func bytesCompare(a, b []byte) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}
