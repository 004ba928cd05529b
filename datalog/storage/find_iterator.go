package storage

import "github.com/lstoll/datomdb/datalog"

// groupingIterator turns a raw, ascending key scan into the Iterator
// contract of spec.md §4.3: datoms outside the snapshot are dropped, and
// each consecutive (E,A,V) group collapses to its latest visible Op —
// nothing is yielded if that Op is Retract.
//
// It holds at most one decoded-but-unconsumed raw datom at a time (buf),
// so callers can stop pulling at any point without the iterator having
// materialized anything beyond what it needed to decide the current group.
type groupingIterator struct {
	index      IndexType
	restricts  Restricts
	raw        RawIterator
	buf        *datalog.Datom
	bufValid   bool
	current    datalog.Datom
	err        error
	exhausted  bool
}

func newGroupingIterator(index IndexType, restricts Restricts, raw RawIterator) *groupingIterator {
	return &groupingIterator{index: index, restricts: restricts, raw: raw}
}

// fill advances the raw iterator until it finds the next key that passes
// both the snapshot visibility check and the residual Restricts match, or
// the raw iterator is exhausted.
func (g *groupingIterator) fill() {
	for g.raw.Next() {
		d, err := DecodeKey(g.index, g.raw.Key())
		if err != nil {
			g.err = err
			g.buf = nil
			g.bufValid = false
			return
		}
		if !g.restricts.txVisible(d.T) {
			continue
		}
		if !g.restricts.matches(d) {
			continue
		}
		g.buf = &d
		g.bufValid = true
		return
	}
	if err := g.raw.Err(); err != nil {
		g.err = NewStorageError("scan", err)
	}
	g.buf = nil
	g.bufValid = false
}

func sameGroup(a, b datalog.Datom) bool {
	return a.E == b.E && a.A == b.A && a.V.Compare(b.V) == 0
}

// Next implements Iterator.
func (g *groupingIterator) Next() bool {
	if g.err != nil || g.exhausted {
		return false
	}
	if !g.bufValid {
		g.fill()
	}
	for g.bufValid {
		group := *g.buf
		latest := group
		g.fill()
		for g.bufValid && sameGroup(*g.buf, group) {
			latest = *g.buf
			g.fill()
		}
		if latest.Op == datalog.Assert {
			g.current = latest
			return true
		}
		// Whole group is retracted as of this snapshot: nothing to yield,
		// continue with the next group (g.buf already holds its head, or
		// is empty if the scan is exhausted).
	}
	g.exhausted = true
	if g.err != nil {
		return false
	}
	return false
}

// Datom implements Iterator.
func (g *groupingIterator) Datom() datalog.Datom { return g.current }

// Err implements Iterator.
func (g *groupingIterator) Err() error { return g.err }

// Close implements Iterator.
func (g *groupingIterator) Close() error { return g.raw.Close() }
