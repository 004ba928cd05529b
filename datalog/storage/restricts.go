package storage

import (
	"github.com/lstoll/datomdb/datalog"
)

// TxRestrictKind selects how Restricts.TxFilter bounds the transactions a
// scan may see.
type TxRestrictKind int

const (
	// AtMost makes every datom with T <= the bound visible — the normal
	// "as of this snapshot" query.
	AtMost TxRestrictKind = iota
	// Exactly makes only datoms from exactly one transaction visible —
	// used to inspect what a single transaction wrote.
	Exactly
)

// TxRestrict is the transaction-time filter half of a Restricts (see the
// ambiguity note in spec.md §9: TxFilter governs the snapshot bound,
// Restricts.Tx is a strict equality constraint on the datom's own T).
type TxRestrict struct {
	Kind TxRestrictKind
	T    uint64
}

// Restricts describes a partial datom pattern plus the snapshot it should
// be evaluated against (spec.md §4.3).
type Restricts struct {
	Entity    *datalog.EntityID
	Attribute *datalog.EntityID
	Value     *datalog.Value
	Tx        *uint64 // strict equality on the datom's own T, rarely set
	BasisTx   uint64  // inclusive upper bound: T > BasisTx is never visible
	TxFilter  TxRestrict
}

// AsOfSnapshot builds the Restricts transaction-time fields for a query at
// basis, all other fields left for the caller to fill in.
func AsOfSnapshot(basis uint64) Restricts {
	return Restricts{
		BasisTx:  basis,
		TxFilter: TxRestrict{Kind: AtMost, T: basis},
	}
}

// selectIndex implements the "first match wins" rule from spec.md §4.3 and
// returns the chosen index plus the byte prefix to scan. The prefix is a
// scan-efficiency heuristic only: Find always re-checks every bound field
// against the decoded datom (see find_iterator.go), so an overly loose prefix here
// is never a correctness bug, only a slower scan.
func (r Restricts) selectIndex() (IndexType, []byte) {
	switch {
	case r.Attribute != nil && r.Value != nil:
		v, err := datalog.EncodeValue(*r.Value)
		if err != nil {
			// Malformed constant value: fall back to a full AVET scan for
			// that attribute: find_iterator.go's residual check will then reject
			// every datom, correctly yielding nothing instead of failing.
			return AVET, EncodePrefix(AVET, datalog.EncodeU64(uint64(*r.Attribute)))
		}
		return AVET, EncodePrefix(AVET, datalog.EncodeU64(uint64(*r.Attribute)), v)

	case r.Attribute != nil:
		parts := [][]byte{datalog.EncodeU64(uint64(*r.Attribute))}
		if r.Entity != nil {
			parts = append(parts, datalog.EncodeU64(uint64(*r.Entity)))
		}
		return AEVT, EncodePrefix(AEVT, parts...)

	case r.Entity != nil:
		parts := [][]byte{datalog.EncodeU64(uint64(*r.Entity))}
		if r.Attribute != nil {
			parts = append(parts, datalog.EncodeU64(uint64(*r.Attribute)))
		}
		return EAVT, EncodePrefix(EAVT, parts...)

	default:
		return AEVT, EncodePrefix(AEVT)
	}
}

// matches re-checks every bound field of r against a decoded datom. It is
// the correctness backstop behind selectIndex's scan-range heuristic.
func (r Restricts) matches(d datalog.Datom) bool {
	if r.Entity != nil && d.E != *r.Entity {
		return false
	}
	if r.Attribute != nil && d.A != *r.Attribute {
		return false
	}
	if r.Value != nil && d.V.Compare(*r.Value) != 0 {
		return false
	}
	if r.Tx != nil && d.T != *r.Tx {
		return false
	}
	return true
}

// txVisible applies BasisTx and TxFilter to a candidate transaction id.
func (r Restricts) txVisible(t uint64) bool {
	if t > r.BasisTx {
		return false
	}
	switch r.TxFilter.Kind {
	case Exactly:
		return t == r.TxFilter.T
	default: // AtMost
		return t <= r.TxFilter.T
	}
}
