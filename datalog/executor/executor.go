// Package executor resolves a query.Query against a storage.Store: a
// depth-first nested-loop join over the where clauses (spec.md §4.7),
// predicate pruning as soon as every variable a predicate needs is bound,
// and a final grouping/aggregation pass (spec.md §4.8).
package executor

import (
	"fmt"

	"github.com/lstoll/datomdb/datalog"
	"github.com/lstoll/datomdb/datalog/query"
	"github.com/lstoll/datomdb/datalog/storage"
)

// Binding maps logic variables to the value they are currently assigned
// within one branch of the join.
type Binding map[query.Var]datalog.Value

// Executor runs queries against a single store snapshot.
type Executor struct {
	store storage.Store
	basis storage.Restricts
}

// New creates an Executor reading store as of basisTx.
func New(store storage.Store, basisTx uint64) *Executor {
	return &Executor{store: store, basis: storage.AsOfSnapshot(basisTx)}
}

// Run executes q and returns its projected rows in find-clause column
// order (spec.md §4.7/§4.8). Row order is otherwise unspecified: the join
// is depth-first over storage order, not sorted for the caller.
func (ex *Executor) Run(q query.Query) ([][]datalog.Value, error) {
	var assignments []Binding

	appliedInit := make(map[int]bool)
	err := ex.join(q.Clauses, 0, Binding{}, q.Predicates, appliedInit, func(b Binding) error {
		cp := make(Binding, len(b))
		for k, v := range b {
			cp[k] = v
		}
		assignments = append(assignments, cp)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !q.HasAggregates() {
		rows := make([][]datalog.Value, 0, len(assignments))
		for _, a := range assignments {
			row, err := project(q.Find, a)
			if err != nil {
				return nil, err
			}
			rows = append(rows, row)
		}
		return rows, nil
	}

	return aggregate(q, assignments)
}

// join walks clauses depth-first starting at index idx, extending binding
// one clause at a time and invoking emit for every complete assignment
// that satisfies all predicates.
func (ex *Executor) join(clauses []query.Clause, idx int, binding Binding, predicates []query.Predicate, applied map[int]bool, emit func(Binding) error) error {
	if idx == len(clauses) {
		return emit(binding)
	}

	clause := clauses[idx]
	restricts := ex.basis
	var entity *datalog.EntityID
	var attribute *datalog.EntityID
	var value *datalog.Value

	if v, ok := boundValue(clause.Entity, binding); ok {
		e := v.AsRef()
		entity = &e
	}
	if v, ok := boundValue(clause.Attribute, binding); ok {
		a := v.AsRef()
		attribute = &a
	}
	if v, ok := boundValue(clause.Value, binding); ok {
		value = &v
	}
	restricts.Entity = entity
	restricts.Attribute = attribute
	restricts.Value = value

	it, err := ex.store.Find(restricts)
	if err != nil {
		return err
	}
	defer it.Close()

	for it.Next() {
		d := it.Datom()

		next, ok := extend(binding, clause, d)
		if !ok {
			continue
		}

		nextApplied := applied
		ok, newlyApplied, err := evalReady(predicates, applied, next)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if len(newlyApplied) > 0 {
			nextApplied = mergeApplied(applied, newlyApplied)
		}

		if err := ex.join(clauses, idx+1, next, predicates, nextApplied, emit); err != nil {
			return err
		}
	}
	return it.Err()
}

// boundValue returns the Value a PatternElem resolves to under binding, if
// it is already determined (a Constant, or a Var already bound).
func boundValue(elem query.PatternElem, binding Binding) (datalog.Value, bool) {
	switch e := elem.(type) {
	case query.Constant:
		return e.Value, true
	case query.Var:
		v, ok := binding[e]
		return v, ok
	default: // query.Blank
		return datalog.Nil, false
	}
}

// extend binds any unbound variables in clause against datom d, and
// rejects d if a Constant or already-bound Var in clause disagrees with d.
func extend(binding Binding, clause query.Clause, d datalog.Datom) (Binding, bool) {
	next := binding

	bind := func(elem query.PatternElem, v datalog.Value) bool {
		switch e := elem.(type) {
		case query.Constant:
			return e.Value.Compare(v) == 0
		case query.Var:
			if existing, ok := next[e]; ok {
				return existing.Compare(v) == 0
			}
			if next == binding {
				cp := make(Binding, len(binding)+3)
				for k, vv := range binding {
					cp[k] = vv
				}
				next = cp
			}
			next[e] = v
			return true
		default: // Blank
			return true
		}
	}

	if !bind(clause.Entity, datalog.Ref(d.E)) {
		return binding, false
	}
	if !bind(clause.Attribute, datalog.Ref(d.A)) {
		return binding, false
	}
	if !bind(clause.Value, d.V) {
		return binding, false
	}
	return next, true
}

// evalReady evaluates every predicate whose variable just became bound and
// was not already applied earlier in this branch. It returns false as soon
// as one fails, implementing spec.md §4.7's early pruning: a predicate
// never waits past the clause that binds its variable.
func evalReady(predicates []query.Predicate, applied map[int]bool, binding Binding) (bool, []int, error) {
	var newlyApplied []int
	for i, p := range predicates {
		if applied[i] {
			continue
		}
		v, ok := binding[p.Var]
		if !ok {
			continue
		}
		if !p.Eval(v) {
			return false, nil, nil
		}
		newlyApplied = append(newlyApplied, i)
	}
	return true, newlyApplied, nil
}

func mergeApplied(applied map[int]bool, newly []int) map[int]bool {
	out := make(map[int]bool, len(applied)+len(newly))
	for k := range applied {
		out[k] = true
	}
	for _, i := range newly {
		out[i] = true
	}
	return out
}

// project reads the find columns out of a complete binding, in order.
func project(find []query.FindSpec, binding Binding) ([]datalog.Value, error) {
	row := make([]datalog.Value, len(find))
	for i, f := range find {
		v, ok := binding[f.Var]
		if !ok {
			return nil, fmt.Errorf("executor: find variable %s is never bound by any clause", f.Var)
		}
		row[i] = v
	}
	return row, nil
}
