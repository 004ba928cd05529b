package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lstoll/datomdb/datalog"
	"github.com/lstoll/datomdb/datalog/storage"
	"github.com/lstoll/datomdb/datalog/storage/memory"
)

func TestBootstrapIsSelfDescribing(t *testing.T) {
	datoms := Bootstrap()
	require.NotEmpty(t, datoms)

	store := storage.NewFinder(memory.New())
	require.NoError(t, store.Write(datoms))

	r := NewResolver(store, 0)
	attr, err := r.ResolveIdent("db/ident")
	require.NoError(t, err)
	assert.Equal(t, AttrIdent, attr.ID)
	assert.Equal(t, datalog.TypeStr, attr.ValueType)
	assert.Equal(t, CardinalityOne, attr.Cardinality)
}

func TestBootstrapDefinesAllReservedAttributes(t *testing.T) {
	store := storage.NewFinder(memory.New())
	require.NoError(t, store.Write(Bootstrap()))
	r := NewResolver(store, 0)

	for _, ident := range []string{"db/ident", "db/value-type", "db/cardinality", "db/unique", "db/tx-instant"} {
		attr, err := r.ResolveIdent(ident)
		require.NoError(t, err, "ident %q should resolve", ident)
		assert.Equal(t, ident, attr.Ident)
	}
}

func TestResolveIdentNotFound(t *testing.T) {
	store := storage.NewFinder(memory.New())
	require.NoError(t, store.Write(Bootstrap()))
	r := NewResolver(store, 0)

	_, err := r.ResolveIdent("nope/nope")
	require.Error(t, err)
	var notFound *IdentNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestResolveIDNotAnAttribute(t *testing.T) {
	store := storage.NewFinder(memory.New())
	require.NoError(t, store.Write(Bootstrap()))
	r := NewResolver(store, 0)

	_, err := r.ResolveID(9999)
	require.Error(t, err)
	var notAttr *NotAnAttribute
	assert.ErrorAs(t, err, &notAttr)
}

func TestResolverCachesByIdentAndID(t *testing.T) {
	store := storage.NewFinder(memory.New())
	require.NoError(t, store.Write(Bootstrap()))
	r := NewResolver(store, 0)

	first, err := r.ResolveIdent("db/ident")
	require.NoError(t, err)
	second, err := r.ResolveID(AttrIdent)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestValueTypeEnumRoundTrip(t *testing.T) {
	for _, vt := range []datalog.ValueType{datalog.TypeNil, datalog.TypeI64, datalog.TypeU64, datalog.TypeDecimal, datalog.TypeStr, datalog.TypeRef} {
		e := ValueTypeEnum(vt)
		got, ok := enumToValueType(e)
		require.True(t, ok)
		assert.Equal(t, vt, got)
	}
}

func TestCardinalityEnumRoundTrip(t *testing.T) {
	assert.Equal(t, CardinalityOne, enumToCardinality(CardinalityEnum(CardinalityOne)))
	assert.Equal(t, CardinalityMany, enumToCardinality(CardinalityEnum(CardinalityMany)))
}

func TestFirstUserEntityLeavesRoomForBootstrap(t *testing.T) {
	assert.Greater(t, uint64(FirstUserEntity()), uint64(AttrTxInstant))
}
