// Package query defines the Datalog query AST: find specifications,
// pattern clauses and predicates. It has no storage dependency; resolving
// a Query against a database is datalog/executor's job.
package query

import (
	"fmt"

	"github.com/lstoll/datomdb/datalog"
)

// Var names a logic variable, e.g. "?e". Two PatternElems with the same
// Var name in the same query must bind to the same value.
type Var string

func (v Var) String() string { return string(v) }

// PatternElem is one slot of a Clause: a bound Var, a literal Constant, or
// Blank (matches anything, binds nothing).
type PatternElem interface {
	patternElem()
	String() string
}

// Constant is a literal value appearing directly in a clause.
type Constant struct{ Value datalog.Value }

func (Constant) patternElem()      {}
func (c Constant) String() string  { return c.Value.String() }

// Blank matches any value in its slot without binding a variable.
type Blank struct{}

func (Blank) patternElem()     {}
func (Blank) String() string   { return "_" }

func (Var) patternElem() {}

// Clause is one (entity attribute value) pattern in a query's where clause.
// Attribute is almost always a Constant naming an ident, since attribute
// idents are resolved once per query rather than per row.
type Clause struct {
	Entity    PatternElem
	Attribute PatternElem
	Value     PatternElem
}

func (c Clause) String() string {
	return fmt.Sprintf("[%s %s %s]", c.Entity, c.Attribute, c.Value)
}

// ComparisonOp is the operator half of a Predicate.
type ComparisonOp int

const (
	OpLess ComparisonOp = iota
	OpLessOrEqual
	OpGreater
	OpGreaterOrEqual
	OpEqual
	OpNotEqual
)

func (op ComparisonOp) String() string {
	switch op {
	case OpLess:
		return "<"
	case OpLessOrEqual:
		return "<="
	case OpGreater:
		return ">"
	case OpGreaterOrEqual:
		return ">="
	case OpEqual:
		return "="
	case OpNotEqual:
		return "!="
	default:
		return "?"
	}
}

// Predicate filters rows on a bound variable against a constant, e.g.
// [(> ?age 21)]. It can only be evaluated once every variable it mentions
// is bound, which the executor enforces by only applying a predicate after
// the clause that binds its variable (spec.md §4.7 "early/late pruning").
type Predicate struct {
	Var Var
	Op  ComparisonOp
	Rhs datalog.Value
}

func (p Predicate) String() string {
	return fmt.Sprintf("[(%s %s %s)]", p.Op, p.Var, p.Rhs)
}

// Eval applies the predicate to a bound value.
func (p Predicate) Eval(v datalog.Value) bool {
	c := v.Compare(p.Rhs)
	switch p.Op {
	case OpLess:
		return c < 0
	case OpLessOrEqual:
		return c <= 0
	case OpGreater:
		return c > 0
	case OpGreaterOrEqual:
		return c >= 0
	case OpEqual:
		return c == 0
	case OpNotEqual:
		return c != 0
	default:
		return false
	}
}

// AggregateKind enumerates the aggregation functions spec.md §4.8 names.
type AggregateKind int

const (
	Count AggregateKind = iota
	CountDistinct
	Min
	Max
	Sum
	Avg
)

func (k AggregateKind) String() string {
	switch k {
	case Count:
		return "count"
	case CountDistinct:
		return "count-distinct"
	case Min:
		return "min"
	case Max:
		return "max"
	case Sum:
		return "sum"
	case Avg:
		return "avg"
	default:
		return "?"
	}
}

// FindSpec is one column of a query's find clause: either a plain variable
// projection or an aggregate over a variable.
type FindSpec struct {
	Var       Var
	Aggregate *AggregateKind // nil for a plain projection
}

// FindVar builds a plain projection column.
func FindVar(v Var) FindSpec { return FindSpec{Var: v} }

// FindAggregate builds an aggregation column.
func FindAggregate(kind AggregateKind, v Var) FindSpec {
	return FindSpec{Var: v, Aggregate: &kind}
}

func (f FindSpec) String() string {
	if f.Aggregate == nil {
		return string(f.Var)
	}
	return fmt.Sprintf("(%s %s)", *f.Aggregate, f.Var)
}

// Query is a complete Datalog query: spec.md §4.7/§4.8.
type Query struct {
	Find       []FindSpec
	Clauses    []Clause
	Predicates []Predicate
}

// GroupVars returns the non-aggregate find variables, which the executor
// groups rows by before computing any aggregate columns (spec.md §4.8).
func (q Query) GroupVars() []Var {
	var out []Var
	for _, f := range q.Find {
		if f.Aggregate == nil {
			out = append(out, f.Var)
		}
	}
	return out
}

// HasAggregates reports whether any find column is an aggregate.
func (q Query) HasAggregates() bool {
	for _, f := range q.Find {
		if f.Aggregate != nil {
			return true
		}
	}
	return false
}
