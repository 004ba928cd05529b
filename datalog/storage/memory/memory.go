// Package memory implements the reference datalog/storage backend: three
// ordered sets of encoded keys, one per index, held behind atomic pointers
// so that readers always see a consistent, frozen snapshot without ever
// blocking the single writer (spec.md §4.4, §5).
package memory

import (
	"bytes"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/lstoll/datomdb/datalog/storage"
)

// Store is the in-memory reference backend. Writes are serialized by mu;
// each write builds a brand new sorted slice and atomically swaps it in,
// so a reader that already grabbed the old slice pointer keeps iterating
// over an unchanged, consistent view — a "cheap clone" of the ordered set
// at the moment it started reading.
type Store struct {
	mu   sync.Mutex // serializes writers; readers never take it
	eavt atomic.Pointer[[][]byte]
	aevt atomic.Pointer[[][]byte]
	avet atomic.Pointer[[][]byte]
}

// New creates an empty in-memory store.
func New() *Store {
	s := &Store{}
	empty := [][]byte{}
	s.eavt.Store(&empty)
	aevtEmpty := [][]byte{}
	s.aevt.Store(&aevtEmpty)
	avetEmpty := [][]byte{}
	s.avet.Store(&avetEmpty)
	return s
}

func (s *Store) bucket(index storage.IndexType) *atomic.Pointer[[][]byte] {
	switch index {
	case storage.EAVT:
		return &s.eavt
	case storage.AEVT:
		return &s.aevt
	case storage.AVET:
		return &s.avet
	default:
		return nil
	}
}

// WriteKeys implements storage.RawStore. keys may span all three indexes;
// each is routed to its bucket by its 1-byte index prefix.
func (s *Store) WriteKeys(keys [][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byIndex := map[storage.IndexType][][]byte{}
	for _, k := range keys {
		if len(k) == 0 {
			continue
		}
		idx := storage.IndexType(k[0])
		byIndex[idx] = append(byIndex[idx], k)
	}

	for idx, newKeys := range byIndex {
		b := s.bucket(idx)
		if b == nil {
			continue
		}
		old := *b.Load()
		merged := make([][]byte, 0, len(old)+len(newKeys))
		merged = append(merged, old...)
		merged = append(merged, newKeys...)
		sort.Slice(merged, func(i, j int) bool {
			return bytes.Compare(merged[i], merged[j]) < 0
		})
		b.Store(&merged)
	}
	return nil
}

// Scan implements storage.RawStore with a binary search over the current
// snapshot of the requested index.
func (s *Store) Scan(index storage.IndexType, start, end []byte) (storage.RawIterator, error) {
	b := s.bucket(index)
	if b == nil {
		return nil, nil
	}
	snapshot := *b.Load()
	from := sort.Search(len(snapshot), func(i int) bool {
		return bytes.Compare(snapshot[i], start) >= 0
	})
	to := len(snapshot)
	if end != nil {
		to = sort.Search(len(snapshot), func(i int) bool {
			return bytes.Compare(snapshot[i], end) >= 0
		})
	}
	return &iterator{keys: snapshot[from:to], pos: -1}, nil
}

// Close is a no-op: there is nothing to release.
func (s *Store) Close() error { return nil }

type iterator struct {
	keys [][]byte
	pos  int
}

func (it *iterator) Next() bool {
	it.pos++
	return it.pos < len(it.keys)
}

func (it *iterator) Key() []byte { return it.keys[it.pos] }
func (it *iterator) Err() error  { return nil }
func (it *iterator) Close() error { return nil }
