package datalog

import "fmt"

// Op records whether a datom begins ("asserts") or ends ("retracts") a fact.
// It is never part of a key's ordered prefix — see keycodec.go — so that a
// prefix scan over (E,A,V,T) always yields both the assert and any matching
// retract together.
type Op byte

const (
	Assert Op = iota
	Retract
)

func (o Op) String() string {
	if o == Retract {
		return "retract"
	}
	return "assert"
}

// Datom is the immutable 5-tuple (E,A,V,T,Op) described in spec.md §3.
// Once committed, a Datom is never mutated; the transactor only ever
// appends new ones, including retraction datoms for superseded facts.
type Datom struct {
	E  EntityID
	A  EntityID // attributes are themselves entities
	V  Value
	T  uint64
	Op Op
}

func (d Datom) String() string {
	return fmt.Sprintf("(%s %s %s %d %s)", d.E, d.A, d.V, d.T, d.Op)
}

// Live reports whether this datom, taken alone, represents an asserted
// (as opposed to retracted) fact. Whether it is actually visible at a
// given basis_tx, and whether a later retraction in the index shadows it,
// is the iterator's job (datalog/storage), not the Datom's.
func (d Datom) Live() bool { return d.Op == Assert }
