package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lstoll/datomdb/datalog"
	"github.com/lstoll/datomdb/datalog/schema"
	"github.com/lstoll/datomdb/datalog/storage/memory"
	"github.com/lstoll/datomdb/datalog/transactor"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	database, err := Create(memory.New())
	require.NoError(t, err)
	return database
}

func defAttr(t *testing.T, database *Database, label, ident string, vt datalog.ValueType, card schema.Cardinality) {
	t.Helper()
	tx := transactor.Transaction{}
	e := transactor.TempID(label)
	tx.Assert(e, "db/ident", datalog.Str(ident))
	tx.Assert(e, "db/value-type", datalog.Ref(schema.ValueTypeEnum(vt)))
	tx.Assert(e, "db/cardinality", datalog.Ref(schema.CardinalityEnum(card)))
	_, err := database.Transact(tx)
	require.NoError(t, err)
}

func TestCreateBootstrapsEmptyDatabase(t *testing.T) {
	database := newTestDatabase(t)
	assert.Equal(t, uint64(0), database.BasisTx())

	rows, err := database.Current().Query(`:find ?e :where [?e "db/ident" "db/ident"]`)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestQueryAgainstCurrentSnapshot(t *testing.T) {
	database := newTestDatabase(t)
	defAttr(t, database, "name", "person/name", datalog.TypeStr, schema.CardinalityOne)

	tx := transactor.Transaction{}
	tx.Assert(transactor.New(), "person/name", datalog.Str("Alice"))
	_, err := database.Transact(tx)
	require.NoError(t, err)

	rows, err := database.Current().Query(`:find ?name :where [?e "person/name" ?name]`)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Alice", rows[0][0].AsStr())
}

func TestAsOfReturnsHistoricalView(t *testing.T) {
	database := newTestDatabase(t)
	defAttr(t, database, "age", "person/age", datalog.TypeI64, schema.CardinalityOne)

	alice := transactor.TempID("alice")
	tx1 := transactor.Transaction{}
	tx1.Assert(alice, "person/age", datalog.I64(30))
	r1, err := database.Transact(tx1)
	require.NoError(t, err)

	var e datalog.EntityID
	for _, d := range r1.Datoms {
		if d.A != schema.AttrTxInstant {
			e = d.E
		}
	}

	tx2 := transactor.Transaction{}
	tx2.Assert(transactor.ID(e), "person/age", datalog.I64(31))
	_, err = database.Transact(tx2)
	require.NoError(t, err)

	// As of the first transaction, age is still 30, even though the
	// database's current basis reflects the second transaction.
	rows, err := database.AsOf(r1.TxID).Query(`:find ?age :where [?e "person/age" ?age]`)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(30), rows[0][0].AsI64())

	current, err := database.Current().Query(`:find ?age :where [?e "person/age" ?age]`)
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.Equal(t, int64(31), current[0][0].AsI64())
}

func TestEntityProjectsAllAttributesByIdent(t *testing.T) {
	database := newTestDatabase(t)
	defAttr(t, database, "name", "person/name", datalog.TypeStr, schema.CardinalityOne)
	defAttr(t, database, "age", "person/age", datalog.TypeI64, schema.CardinalityOne)

	alice := transactor.TempID("alice")
	tx := transactor.Transaction{}
	tx.Assert(alice, "person/name", datalog.Str("Alice"))
	tx.Assert(alice, "person/age", datalog.I64(30))
	result, err := database.Transact(tx)
	require.NoError(t, err)

	var e datalog.EntityID
	for _, d := range result.Datoms {
		if d.A != schema.AttrTxInstant {
			e = d.E
			break
		}
	}

	attrs, err := database.Current().Entity(e)
	require.NoError(t, err)
	assert.Equal(t, "Alice", attrs["person/name"].AsStr())
	assert.Equal(t, int64(30), attrs["person/age"].AsI64())
}

func TestStatsCountsLiveDatomsAndEntities(t *testing.T) {
	database := newTestDatabase(t)
	defAttr(t, database, "name", "person/name", datalog.TypeStr, schema.CardinalityOne)

	before, err := database.Stats()
	require.NoError(t, err)

	tx := transactor.Transaction{}
	tx.Assert(transactor.New(), "person/name", datalog.Str("Alice"))
	tx.Assert(transactor.New(), "person/name", datalog.Str("Bob"))
	_, err = database.Transact(tx)
	require.NoError(t, err)

	after, err := database.Stats()
	require.NoError(t, err)

	// Two new entities (Alice, Bob) each assert one datom, plus the tx
	// entity's own tx-instant datom: exactly 3 new live datoms and 3 new
	// distinct entities.
	assert.Equal(t, int64(3), after.LiveDatoms-before.LiveDatoms)
	assert.Equal(t, int64(3), after.Entities-before.Entities)
}

func TestTransactRejectionDoesNotAffectSnapshots(t *testing.T) {
	database := newTestDatabase(t)
	before := database.BasisTx()

	tx := transactor.Transaction{}
	tx.Assert(transactor.New(), "no/such/attr", datalog.Str("x"))
	_, err := database.Transact(tx)
	require.Error(t, err)

	assert.Equal(t, before, database.BasisTx())
}
