// Package transactor implements the sole writer (spec.md §4.6): it
// validates a Transaction against the schema, resolves entity ids,
// expands attribute operations into datoms (emitting retractions for
// cardinality-one replacement), enforces uniqueness, stamps a
// transaction id and wall-clock timestamp, and atomically commits the
// resulting batch.
package transactor

import (
	"fmt"
	"sync/atomic"

	"github.com/lstoll/datomdb/datalog"
)

// entityRefKind distinguishes the three ways a Statement can name the
// entity it applies to. OnNew from spec.md §4.6 step 2 is implemented as
// an auto-generated, uniquely-prefixed temp id (see New below) rather
// than as a fourth kind: that gives it identical "fresh on first sight,
// same mapping on reuse" semantics as OnTempId for free.
type entityRefKind int

const (
	kindID entityRefKind = iota
	kindTempID
	kindLookupRef
)

// EntityRef names the entity a Statement's attribute operation applies
// to: a permanent id, a temporary id scoped to one Transaction, a brand
// new entity, or a lookup by a unique attribute's value.
type EntityRef struct {
	kind        entityRefKind
	id          datalog.EntityID
	tempID      string
	lookupAttr  string
	lookupValue datalog.Value
}

var anonCounter atomic.Int64

// ID references an already-allocated, existing entity.
func ID(id datalog.EntityID) EntityRef {
	return EntityRef{kind: kindID, id: id}
}

// TempID references an entity by a caller-chosen label that is scoped to
// a single Transaction: every Statement using the same label (even across
// separate calls to TempID) resolves to the same freshly allocated id.
func TempID(label string) EntityRef {
	return EntityRef{kind: kindTempID, tempID: label}
}

// New allocates a brand new entity, never reused even if called again
// with what looks like the same intent — callers must hold onto the
// returned EntityRef and reuse it across Statements to refer to the same
// new entity.
func New() EntityRef {
	n := anonCounter.Add(1)
	return EntityRef{kind: kindTempID, tempID: fmt.Sprintf("\x00new\x00%d", n)}
}

// LookupRef references the single entity currently holding value v for
// the unique attribute named by ident, resolved at the transaction's
// basis (spec.md §4.6 step 2, OnLookupRef).
func LookupRef(ident string, v datalog.Value) EntityRef {
	return EntityRef{kind: kindLookupRef, lookupAttr: ident, lookupValue: v}
}

// Statement is one attribute operation within a Transaction.
type Statement struct {
	Entity EntityRef
	Attr   string // ident, resolved through the schema resolver
	Value  datalog.Value
	Op     datalog.Op
}

// Transaction is the input to Transactor.Transact: an ordered batch of
// attribute operations (spec.md §4.6).
type Transaction struct {
	Statements []Statement
}

// Assert appends an assertion statement and returns the Transaction for
// chaining.
func (t *Transaction) Assert(e EntityRef, attr string, v datalog.Value) *Transaction {
	t.Statements = append(t.Statements, Statement{Entity: e, Attr: attr, Value: v, Op: datalog.Assert})
	return t
}

// Retract appends a retraction statement and returns the Transaction for
// chaining.
func (t *Transaction) Retract(e EntityRef, attr string, v datalog.Value) *Transaction {
	t.Statements = append(t.Statements, Statement{Entity: e, Attr: attr, Value: v, Op: datalog.Retract})
	return t
}

// TransactionResult is returned by a successful Transact call.
type TransactionResult struct {
	TxID      uint64
	TxInstant datalog.Decimal
	Datoms    []datalog.Datom
}
