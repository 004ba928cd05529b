package storage

import (
	"bytes"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lstoll/datomdb/datalog"
)

func TestEncodeDecodeKeyRoundTrip(t *testing.T) {
	d := datalog.Datom{E: 7, A: 2, V: datalog.Str("hello"), T: 9, Op: datalog.Assert}
	for _, idx := range []IndexType{EAVT, AEVT, AVET} {
		t.Run(idx.String(), func(t *testing.T) {
			key, err := EncodeKey(idx, d)
			require.NoError(t, err)
			got, err := DecodeKey(idx, key)
			require.NoError(t, err)
			assert.Equal(t, d.E, got.E)
			assert.Equal(t, d.A, got.A)
			assert.Equal(t, 0, d.V.Compare(got.V))
			assert.Equal(t, d.T, got.T)
			assert.Equal(t, d.Op, got.Op)
		})
	}
}

func TestDecodeKeyRejectsWrongPrefix(t *testing.T) {
	d := datalog.Datom{E: 1, A: 1, V: datalog.I64(1), T: 1, Op: datalog.Assert}
	key, err := EncodeKey(EAVT, d)
	require.NoError(t, err)
	_, err = DecodeKey(AEVT, key)
	assert.Error(t, err)
}

// TestEAVTKeyOrdersByEntityFirst checks the EAVT index's ordering property:
// after sorting the encoded keys, the smallest one must decode to the datom
// that is smallest by (E,A,V,T) (spec.md §4.2).
func TestEAVTKeyOrdersByEntityFirst(t *testing.T) {
	datoms := []datalog.Datom{
		{E: 2, A: 1, V: datalog.I64(1), T: 1, Op: datalog.Assert},
		{E: 1, A: 5, V: datalog.I64(1), T: 1, Op: datalog.Assert},
		{E: 1, A: 1, V: datalog.I64(2), T: 1, Op: datalog.Assert},
		{E: 1, A: 1, V: datalog.I64(1), T: 2, Op: datalog.Assert},
		{E: 1, A: 1, V: datalog.I64(1), T: 1, Op: datalog.Assert},
	}
	var keys [][]byte
	for _, d := range datoms {
		k, err := EncodeKey(EAVT, d)
		require.NoError(t, err)
		keys = append(keys, k)
	}
	sorted := make([][]byte, len(keys))
	copy(sorted, keys)
	sort.Slice(sorted, func(i, j int) bool { return bytes.Compare(sorted[i], sorted[j]) < 0 })

	// The lexicographically smallest key should decode to (E=1,A=1,V=1,T=1).
	got, err := DecodeKey(EAVT, sorted[0])
	require.NoError(t, err)
	assert.Equal(t, datalog.EntityID(1), got.E)
	assert.Equal(t, datalog.EntityID(1), got.A)
	assert.Equal(t, uint64(1), got.T)
}

func TestAVETOrdersByAttributeThenValue(t *testing.T) {
	a1v1, err := EncodeKey(AVET, datalog.Datom{E: 1, A: 1, V: datalog.I64(1), T: 1})
	require.NoError(t, err)
	a1v2, err := EncodeKey(AVET, datalog.Datom{E: 1, A: 1, V: datalog.I64(2), T: 1})
	require.NoError(t, err)
	a2v0, err := EncodeKey(AVET, datalog.Datom{E: 1, A: 2, V: datalog.I64(0), T: 1})
	require.NoError(t, err)

	assert.True(t, bytes.Compare(a1v1, a1v2) < 0)
	assert.True(t, bytes.Compare(a1v2, a2v0) < 0)
}

func TestPrefixRangeIsHalfOpen(t *testing.T) {
	prefix := []byte{0x01, 0x02, 0x03}
	start, end := PrefixRange(prefix)
	assert.Equal(t, prefix, start)
	assert.Equal(t, []byte{0x01, 0x02, 0x04}, end)

	withinRange := []byte{0x01, 0x02, 0x03, 0xFF}
	assert.True(t, bytes.Compare(withinRange, start) >= 0)
	assert.True(t, bytes.Compare(withinRange, end) < 0)

	outsideRange := []byte{0x01, 0x02, 0x04}
	assert.False(t, bytes.Compare(outsideRange, end) < 0)
}

func TestPrefixRangeAllFF(t *testing.T) {
	prefix := []byte{0xFF, 0xFF}
	_, end := PrefixRange(prefix)
	assert.Nil(t, end)
}

func TestIndexTypeString(t *testing.T) {
	assert.Equal(t, "EAVT", EAVT.String())
	assert.Equal(t, "AEVT", AEVT.String())
	assert.Equal(t, "AVET", AVET.String())
}
