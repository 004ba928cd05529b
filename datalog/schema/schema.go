// Package schema defines attribute metadata and the ident→attribute
// resolver (spec.md §4.5), plus the bootstrap datoms every database must
// have before any user schema is transacted (spec.md §3 invariant 5).
package schema

import "github.com/lstoll/datomdb/datalog"

// Cardinality is per-attribute: at most one live value per entity, or many.
type Cardinality int

const (
	CardinalityOne Cardinality = iota
	CardinalityMany
)

// Reserved attribute ids. These must exist before any user schema is
// transacted; Bootstrap writes their self-describing datoms directly
// (there is no earlier schema to validate them against, so the transactor
// is not involved).
const (
	AttrIdent        datalog.EntityID = 1
	AttrValueType    datalog.EntityID = 2
	AttrCardinality  datalog.EntityID = 3
	AttrUnique       datalog.EntityID = 4
	AttrTxInstant    datalog.EntityID = 5
	firstUserEntity  datalog.EntityID = 100
)

// FirstUserEntity is the first id the transactor's allocator should hand
// out, leaving room below it for the reserved schema described above.
func FirstUserEntity() datalog.EntityID { return firstUserEntity }

// Enum entities used as the Ref payload for db/value-type, db/cardinality
// and db/unique (spec.md §3 invariant 5: "bool represented as ref/enum").
const (
	valueTypeNilEnum     datalog.EntityID = 10
	valueTypeI64Enum     datalog.EntityID = 11
	valueTypeU64Enum     datalog.EntityID = 12
	valueTypeDecimalEnum datalog.EntityID = 13
	valueTypeStrEnum     datalog.EntityID = 14
	valueTypeRefEnum     datalog.EntityID = 15

	cardinalityOneEnum  datalog.EntityID = 20
	cardinalityManyEnum datalog.EntityID = 21

	uniqueTrueEnum datalog.EntityID = 30
)

func valueTypeToEnum(t datalog.ValueType) datalog.EntityID {
	switch t {
	case datalog.TypeNil:
		return valueTypeNilEnum
	case datalog.TypeI64:
		return valueTypeI64Enum
	case datalog.TypeU64:
		return valueTypeU64Enum
	case datalog.TypeDecimal:
		return valueTypeDecimalEnum
	case datalog.TypeStr:
		return valueTypeStrEnum
	case datalog.TypeRef:
		return valueTypeRefEnum
	default:
		return 0
	}
}

func enumToValueType(e datalog.EntityID) (datalog.ValueType, bool) {
	switch e {
	case valueTypeNilEnum:
		return datalog.TypeNil, true
	case valueTypeI64Enum:
		return datalog.TypeI64, true
	case valueTypeU64Enum:
		return datalog.TypeU64, true
	case valueTypeDecimalEnum:
		return datalog.TypeDecimal, true
	case valueTypeStrEnum:
		return datalog.TypeStr, true
	case valueTypeRefEnum:
		return datalog.TypeRef, true
	default:
		return 0, false
	}
}

func cardinalityToEnum(c Cardinality) datalog.EntityID {
	if c == CardinalityMany {
		return cardinalityManyEnum
	}
	return cardinalityOneEnum
}

func enumToCardinality(e datalog.EntityID) Cardinality {
	if e == cardinalityManyEnum {
		return CardinalityMany
	}
	return CardinalityOne
}

// ValueTypeEnum exposes the Ref enum entity for a ValueType, for callers
// transacting new attribute definitions (db/value-type is itself a Ref).
func ValueTypeEnum(t datalog.ValueType) datalog.EntityID { return valueTypeToEnum(t) }

// CardinalityEnum exposes the Ref enum entity for a Cardinality.
func CardinalityEnum(c Cardinality) datalog.EntityID { return cardinalityToEnum(c) }

// UniqueTrueEnum is the Ref enum entity meaning "db/unique is true".
func UniqueTrueEnum() datalog.EntityID { return uniqueTrueEnum }

// Attribute is the resolved metadata for one attribute entity.
type Attribute struct {
	ID          datalog.EntityID
	Ident       string
	ValueType   datalog.ValueType
	Cardinality Cardinality
	Unique      bool
}

// Bootstrap returns the datoms that make reserved attributes
// self-describing (spec.md §3 invariant 5). They are stamped with T=0,
// the one transaction id the transactor's own allocator never hands out
// (idalloc.Counter starts at 1), so Bootstrap's datoms are visible at
// every basis_tx >= 0 without competing with user transactions.
func Bootstrap() []datalog.Datom {
	const bootstrapTx = 0
	mk := func(e datalog.EntityID, ident string, vt datalog.ValueType, card Cardinality) []datalog.Datom {
		return []datalog.Datom{
			{E: e, A: AttrIdent, V: datalog.Str(ident), T: bootstrapTx, Op: datalog.Assert},
			{E: e, A: AttrValueType, V: datalog.Ref(valueTypeToEnum(vt)), T: bootstrapTx, Op: datalog.Assert},
			{E: e, A: AttrCardinality, V: datalog.Ref(cardinalityToEnum(card)), T: bootstrapTx, Op: datalog.Assert},
		}
	}
	var out []datalog.Datom
	out = append(out, mk(AttrIdent, "db/ident", datalog.TypeStr, CardinalityOne)...)
	out = append(out, mk(AttrValueType, "db/value-type", datalog.TypeRef, CardinalityOne)...)
	out = append(out, mk(AttrCardinality, "db/cardinality", datalog.TypeRef, CardinalityOne)...)
	out = append(out, mk(AttrUnique, "db/unique", datalog.TypeRef, CardinalityOne)...)
	out = append(out, mk(AttrTxInstant, "db/tx-instant", datalog.TypeDecimal, CardinalityOne)...)
	return out
}
