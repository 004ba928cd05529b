// Package badgerstore implements the datalog/storage backend over an
// embedded LSM key-value store (spec.md §4.4's "disk backend"). It stores
// nothing but the encoded index keys themselves — a datom is fully
// recoverable from its key (spec.md §6) — written with an empty value, and
// maps every badger failure to a DiskStorageError.
package badgerstore

import (
	"bytes"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/lstoll/datomdb/datalog/storage"
)

// DiskStorageError wraps a badger I/O failure.
type DiskStorageError struct {
	Op  string
	Err error
}

func (e *DiskStorageError) Error() string {
	return fmt.Sprintf("badgerstore: %s: %v", e.Op, e.Err)
}

func (e *DiskStorageError) Unwrap() error { return e.Err }

// Store is a storage.RawStore backed by BadgerDB.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) a BadgerDB database at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // the CLI/transactor's own logger covers this (internal/dlog)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, &DiskStorageError{Op: "open", Err: err}
	}
	return &Store{db: db}, nil
}

// WriteKeys implements storage.RawStore as one atomic badger transaction
// per call — the whole batch commits or none of it does (spec.md §4.6
// step 5, atomicity).
func (s *Store) WriteKeys(keys [][]byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Set(k, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &DiskStorageError{Op: "write", Err: err}
	}
	return nil
}

// Scan implements storage.RawStore as a prefix-ordered badger iterator
// pinned to a read-only transaction; closing the returned iterator
// discards that transaction.
func (s *Store) Scan(index storage.IndexType, start, end []byte) (storage.RawIterator, error) {
	txn := s.db.NewTransaction(false)

	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false // every datom is recoverable from the key alone

	it := txn.NewIterator(opts)
	it.Seek(start)

	return &iterator{txn: txn, it: it, end: end, started: false}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return &DiskStorageError{Op: "close", Err: err}
	}
	return nil
}

type iterator struct {
	txn     *badger.Txn
	it      *badger.Iterator
	end     []byte
	started bool
	key     []byte
}

func (it *iterator) Next() bool {
	if it.started {
		it.it.Next()
	}
	it.started = true
	if !it.it.Valid() {
		return false
	}
	k := it.it.Item().KeyCopy(nil)
	if it.end != nil && bytes.Compare(k, it.end) >= 0 {
		return false
	}
	it.key = k
	return true
}

func (it *iterator) Key() []byte { return it.key }
func (it *iterator) Err() error  { return nil }

func (it *iterator) Close() error {
	it.it.Close()
	it.txn.Discard()
	return nil
}
