// Package storage defines the ordered key-value storage contract the
// transactor and query engine run against, the order-preserving key codec
// for the three indexes (EAVT/AEVT/AVET), and Restricts-driven range scans.
// Concrete backends live in the storage/memory and storage/badgerstore
// subpackages.
package storage

import (
	"fmt"

	"github.com/lstoll/datomdb/datalog"
)

// IndexType names one of the three maintained orderings. The numeric value
// is the 1-byte key prefix written by the codec, so it must stay stable
// once data has been persisted under it.
type IndexType uint8

const (
	// EAVT orders by (Entity, Attribute, Value, Tx): "facts about entity e".
	EAVT IndexType = iota
	// AEVT orders by (Attribute, Entity, Value, Tx): "all values of attribute a".
	AEVT
	// AVET orders by (Attribute, Value, Entity, Tx): "who has value v for a",
	// and the index uniqueness checks probe.
	AVET
)

func (i IndexType) String() string {
	switch i {
	case EAVT:
		return "EAVT"
	case AEVT:
		return "AEVT"
	case AVET:
		return "AVET"
	default:
		return fmt.Sprintf("IndexType(%d)", uint8(i))
	}
}

// Store is the storage contract in spec.md §4.3/§6. Implementations must
// write every datom into all three indexes atomically and must hide
// retracted datoms during Find (§4.3).
type Store interface {
	// Write atomically inserts keys for each datom into all three indexes.
	Write(batch []datalog.Datom) error

	// Find returns a lazy, forward-only iterator over datoms satisfying
	// restricts, in ascending key order of the index Restricts selects.
	Find(restricts Restricts) (Iterator, error)

	// Close releases the backend's resources.
	Close() error
}

// Iterator is a lazy, finite, forward-only sequence of datoms. Dropping an
// iterator (calling Close without exhausting it) must release all storage
// resources it borrowed; it must never be used after Close.
type Iterator interface {
	// Next advances the iterator and reports whether a datom is available.
	Next() bool

	// Datom returns the datom at the iterator's current position. It is
	// only valid after a call to Next that returned true.
	Datom() datalog.Datom

	// Err returns the first error encountered, if any. It should be
	// checked after Next returns false.
	Err() error

	// Close releases resources. Safe to call multiple times.
	Close() error
}

// StorageError wraps a backend I/O failure. It is not recovered from —
// callers propagate it (spec.md §7).
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NewStorageError wraps err with the operation that failed (e.g. "write",
// "scan").
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}
