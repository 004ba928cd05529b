package transactor

import (
	"errors"
	"fmt"
	"sync"

	"github.com/lstoll/datomdb/datalog"
	"github.com/lstoll/datomdb/datalog/clock"
	"github.com/lstoll/datomdb/datalog/idalloc"
	"github.com/lstoll/datomdb/datalog/schema"
	"github.com/lstoll/datomdb/datalog/storage"
)

// Transactor is the single writer (spec.md §5: "one write lock serializes
// the transactor"). A process must never run two Transactors over the same
// Store concurrently; Transact itself serializes calls made to one
// Transactor with an internal mutex, but that only protects against
// concurrent callers within this process, not against a second process
// opening the same store.
type Transactor struct {
	store storage.Store
	alloc idalloc.Allocator
	clock clock.Clock

	mu      sync.Mutex
	basisTx uint64
}

// New creates a Transactor. basisTx is the last transaction already
// reflected in store (0 for a freshly bootstrapped database).
func New(store storage.Store, alloc idalloc.Allocator, clk clock.Clock, basisTx uint64) *Transactor {
	return &Transactor{store: store, alloc: alloc, clock: clk, basisTx: basisTx}
}

// BasisTx returns the id of the most recently committed transaction.
func (t *Transactor) BasisTx() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.basisTx
}

// Transact runs the full pipeline from spec.md §4.6: allocate a tx id,
// resolve entity references, validate and expand each statement into
// datoms (including auto-retraction for cardinality-one replacement),
// stamp tx metadata, and commit atomically. The whole pipeline runs under
// the Transactor's lock, so no two calls interleave.
func (t *Transactor) Transact(tx Transaction) (*TransactionResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	txID := t.alloc.Next()
	basis := storage.AsOfSnapshot(t.basisTx)
	resolver := schema.NewResolver(t.store, t.basisTx)

	tempIDs := make(map[string]datalog.EntityID)

	resolveEntity := func(ref EntityRef) (datalog.EntityID, error) {
		switch ref.kind {
		case kindID:
			return ref.id, nil
		case kindTempID:
			if id, ok := tempIDs[ref.tempID]; ok {
				return id, nil
			}
			id := datalog.EntityID(t.alloc.Next())
			tempIDs[ref.tempID] = id
			return id, nil
		case kindLookupRef:
			attr, err := resolver.ResolveIdent(ref.lookupAttr)
			if err != nil {
				return 0, err
			}
			e, err := t.findUnique(basis, attr.ID, ref.lookupValue)
			if err != nil {
				if errors.Is(err, errAmbiguousUnique) {
					return 0, &TransactionError{Kind: LookupRefAmbiguous, Attr: ref.lookupAttr, Value: ref.lookupValue}
				}
				return 0, &TransactionError{Kind: Storage, Err: err}
			}
			if e == nil {
				return 0, &TransactionError{Kind: LookupRefAmbiguous, Attr: ref.lookupAttr, Value: ref.lookupValue}
			}
			return *e, nil
		default:
			return 0, fmt.Errorf("transactor: unknown entity reference kind %d", ref.kind)
		}
	}

	var datoms []datalog.Datom

	for _, stmt := range tx.Statements {
		e, err := resolveEntity(stmt.Entity)
		if err != nil {
			return nil, err
		}

		attr, err := resolver.ResolveIdent(stmt.Attr)
		if err != nil {
			if _, ok := err.(*schema.IdentNotFound); ok {
				return nil, &TransactionError{Kind: UnknownAttribute, Attr: stmt.Attr}
			}
			return nil, &TransactionError{Kind: Storage, Err: err}
		}

		if stmt.Value.Type() != attr.ValueType {
			return nil, &TransactionError{
				Kind:         InvalidValueType,
				Attr:         stmt.Attr,
				ExpectedType: attr.ValueType,
				GotType:      stmt.Value.Type(),
			}
		}

		switch stmt.Op {
		case datalog.Assert:
			if attr.Cardinality == schema.CardinalityOne {
				existing, err := t.readLive(basis, e, attr.ID)
				if err != nil {
					return nil, &TransactionError{Kind: Storage, Err: err}
				}
				if existing != nil && existing.Compare(stmt.Value) != 0 {
					datoms = append(datoms, datalog.Datom{E: e, A: attr.ID, V: *existing, T: txID, Op: datalog.Retract})
				} else if existing != nil && existing.Compare(stmt.Value) == 0 {
					// Already holds this exact value: nothing to do.
					continue
				}
			}

			if attr.Unique {
				holder, err := t.findUnique(basis, attr.ID, stmt.Value)
				if err != nil {
					if errors.Is(err, errAmbiguousUnique) {
						return nil, &TransactionError{Kind: UniquenessViolation, Attr: stmt.Attr, Value: stmt.Value}
					}
					return nil, &TransactionError{Kind: Storage, Err: err}
				}
				if holder != nil && *holder != e {
					return nil, &TransactionError{
						Kind:           UniquenessViolation,
						Attr:           stmt.Attr,
						Value:          stmt.Value,
						ExistingEntity: *holder,
					}
				}
			}

			datoms = append(datoms, datalog.Datom{E: e, A: attr.ID, V: stmt.Value, T: txID, Op: datalog.Assert})

		case datalog.Retract:
			existing, err := t.readLiveValue(basis, e, attr.ID, stmt.Value)
			if err != nil {
				return nil, &TransactionError{Kind: Storage, Err: err}
			}
			if !existing {
				return nil, &TransactionError{Kind: RetractNonExistent, Attr: stmt.Attr, Value: stmt.Value}
			}
			datoms = append(datoms, datalog.Datom{E: e, A: attr.ID, V: stmt.Value, T: txID, Op: datalog.Retract})

		default:
			return nil, fmt.Errorf("transactor: unknown op %v", stmt.Op)
		}
	}

	instant := t.clock.Now()
	datoms = append(datoms, datalog.Datom{
		E:  datalog.EntityID(txID),
		A:  schema.AttrTxInstant,
		V:  datalog.DecimalValue(instant),
		T:  txID,
		Op: datalog.Assert,
	})

	if err := t.store.Write(datoms); err != nil {
		return nil, &TransactionError{Kind: Storage, Err: err}
	}

	t.basisTx = txID

	return &TransactionResult{TxID: txID, TxInstant: instant, Datoms: datoms}, nil
}

// readLive returns the single live value of (e, a) at basis, or nil.
func (t *Transactor) readLive(basis storage.Restricts, e, a datalog.EntityID) (*datalog.Value, error) {
	r := basis
	r.Entity = &e
	r.Attribute = &a

	it, err := t.store.Find(r)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	if it.Next() {
		v := it.Datom().V
		return &v, it.Err()
	}
	return nil, it.Err()
}

// readLiveValue reports whether (e, a, v) is currently live at basis.
func (t *Transactor) readLiveValue(basis storage.Restricts, e, a datalog.EntityID, v datalog.Value) (bool, error) {
	r := basis
	r.Entity = &e
	r.Attribute = &a
	r.Value = &v

	it, err := t.store.Find(r)
	if err != nil {
		return false, err
	}
	defer it.Close()

	found := it.Next()
	if err := it.Err(); err != nil {
		return false, err
	}
	return found, nil
}

// findUnique returns the entity currently holding value v for attribute a,
// or nil if none does. It is used both for uniqueness enforcement and for
// resolving a LookupRef, and in both cases more than one match is an error
// (spec.md §4.6 step 2: "fail if 0 or >1 matches") — mirrors the
// ambiguous-match loop in schema.Resolver.ResolveIdent.
func (t *Transactor) findUnique(basis storage.Restricts, a datalog.EntityID, v datalog.Value) (*datalog.EntityID, error) {
	r := basis
	r.Attribute = &a
	r.Value = &v

	it, err := t.store.Find(r)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var found *datalog.EntityID
	for it.Next() {
		if found != nil {
			return nil, errAmbiguousUnique
		}
		e := it.Datom().E
		found = &e
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return found, nil
}
