package storage

import "github.com/lstoll/datomdb/datalog"

// RawStore is the narrow interface a concrete backend (storage/memory,
// storage/badgerstore) must satisfy. Find's index selection, visibility
// filtering, and retraction-hiding (spec.md §4.3) are implemented once,
// generically, on top of it by Finder below and groupingIterator
// (find_iterator.go) — backends only need to provide
// ordered byte-key writes and range scans.
type RawStore interface {
	// WriteKeys atomically inserts every key in keys (already encoded by
	// EncodeKey for all three indexes) into the backend.
	WriteKeys(keys [][]byte) error

	// Scan returns a RawIterator over keys in [start, end) (end == nil
	// means "no upper bound") within the given index, in ascending order.
	Scan(index IndexType, start, end []byte) (RawIterator, error)

	Close() error
}

// RawIterator yields raw encoded keys in ascending order. Since a datom is
// fully recoverable from its key alone (spec.md §6, "persisted state
// layout"), no value payload is needed.
type RawIterator interface {
	Next() bool
	Key() []byte
	Err() error
	Close() error
}

// Finder implements Store on top of any RawStore.
type Finder struct {
	raw RawStore
}

// NewFinder wraps raw with the shared Restricts-driven Find logic.
func NewFinder(raw RawStore) *Finder {
	return &Finder{raw: raw}
}

// Write encodes d into all three indexes and writes them as one atomic
// batch.
func (f *Finder) Write(batch []datalog.Datom) error {
	keys := make([][]byte, 0, len(batch)*3)
	for _, d := range batch {
		for _, idx := range [...]IndexType{EAVT, AEVT, AVET} {
			k, err := EncodeKey(idx, d)
			if err != nil {
				return err
			}
			keys = append(keys, k)
		}
	}
	if err := f.raw.WriteKeys(keys); err != nil {
		return NewStorageError("write", err)
	}
	return nil
}

func (f *Finder) Close() error { return f.raw.Close() }

// Find implements the index selection, snapshot filtering and
// retraction-hiding rules of spec.md §4.3.
func (f *Finder) Find(restricts Restricts) (Iterator, error) {
	index, prefix := restricts.selectIndex()
	start, end := PrefixRange(prefix)
	raw, err := f.raw.Scan(index, start, end)
	if err != nil {
		return nil, NewStorageError("scan", err)
	}
	return newGroupingIterator(index, restricts, raw), nil
}
