package executor

import (
	"fmt"
	"strings"

	"github.com/lstoll/datomdb/datalog"
	"github.com/lstoll/datomdb/datalog/query"
)

// aggregate groups assignments by the query's non-aggregate find variables
// and computes each aggregate find column over every group (spec.md §4.8).
func aggregate(q query.Query, assignments []Binding) ([][]datalog.Value, error) {
	groupVars := q.GroupVars()

	type group struct {
		key    []datalog.Value
		values map[query.Var][]datalog.Value
	}

	order := []string{}
	groups := make(map[string]*group)

	for _, a := range assignments {
		key := make([]datalog.Value, len(groupVars))
		for i, v := range groupVars {
			key[i] = a[v]
		}
		k := groupKeyString(key)

		g, ok := groups[k]
		if !ok {
			g = &group{key: key, values: make(map[query.Var][]datalog.Value)}
			groups[k] = g
			order = append(order, k)
		}
		for _, f := range q.Find {
			if f.Aggregate != nil {
				if v, ok := a[f.Var]; ok {
					g.values[f.Var] = append(g.values[f.Var], v)
				}
			}
		}
	}

	rows := make([][]datalog.Value, 0, len(order))
	for _, k := range order {
		g := groups[k]
		row := make([]datalog.Value, len(q.Find))
		gi := 0
		for i, f := range q.Find {
			if f.Aggregate == nil {
				row[i] = g.key[gi]
				gi++
				continue
			}
			v, err := applyAggregate(*f.Aggregate, g.values[f.Var])
			if err != nil {
				return nil, err
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func groupKeyString(key []datalog.Value) string {
	var sb strings.Builder
	for _, v := range key {
		sb.WriteString(v.String())
		sb.WriteByte(0)
	}
	return sb.String()
}

func applyAggregate(kind query.AggregateKind, values []datalog.Value) (datalog.Value, error) {
	switch kind {
	case query.Count:
		return datalog.U64(uint64(len(values))), nil

	case query.CountDistinct:
		seen := make(map[string]bool, len(values))
		n := 0
		for _, v := range values {
			k := v.String()
			if !seen[k] {
				seen[k] = true
				n++
			}
		}
		return datalog.U64(uint64(n)), nil

	case query.Min:
		if len(values) == 0 {
			return datalog.Nil, nil
		}
		min := values[0]
		for _, v := range values[1:] {
			if v.Compare(min) < 0 {
				min = v
			}
		}
		return min, nil

	case query.Max:
		if len(values) == 0 {
			return datalog.Nil, nil
		}
		max := values[0]
		for _, v := range values[1:] {
			if v.Compare(max) > 0 {
				max = v
			}
		}
		return max, nil

	case query.Sum:
		if len(values) == 0 {
			return datalog.I64(0), nil
		}
		kind, err := classifyNumeric(values)
		if err != nil {
			return datalog.Nil, err
		}
		switch kind {
		case numericI64:
			var sum int64
			for _, v := range values {
				sum += v.AsI64()
			}
			return datalog.I64(sum), nil
		case numericU64:
			var sum uint64
			for _, v := range values {
				sum += v.AsU64()
			}
			return datalog.U64(sum), nil
		default:
			sum, err := sumNumeric(values)
			if err != nil {
				return datalog.Nil, err
			}
			return datalog.DecimalValue(datalog.NewDecimal(sum)), nil
		}

	case query.Avg:
		if len(values) == 0 {
			return datalog.DecimalValue(datalog.NewDecimal(0)), nil
		}
		kind, err := classifyNumeric(values)
		if err != nil {
			return datalog.Nil, err
		}
		var total float64
		switch kind {
		case numericI64:
			var sum int64
			for _, v := range values {
				sum += v.AsI64()
			}
			total = float64(sum)
		case numericU64:
			var sum uint64
			for _, v := range values {
				sum += v.AsU64()
			}
			total = float64(sum)
		default:
			total, err = sumNumeric(values)
			if err != nil {
				return datalog.Nil, err
			}
		}
		// The division is generically fractional, so Avg always reports a
		// Decimal (matching the teacher's AvgAggregate, which never
		// preserves an integer type) — but the sum above accumulates in
		// the column's native integer width rather than float64, so it
		// doesn't lose precision before the one unavoidable float division.
		return datalog.DecimalValue(datalog.NewDecimal(total / float64(len(values)))), nil

	default:
		return datalog.Nil, fmt.Errorf("executor: unknown aggregate function %v", kind)
	}
}

// numericKind classifies a column of aggregated values for Sum/Avg's
// promotion rule (spec.md §4.8): homogeneous I64 or U64 columns keep their
// type, while any column mixing I64 and U64, or containing a Decimal,
// promotes to Decimal.
type numericKind int

const (
	numericI64 numericKind = iota
	numericU64
	numericMixed
)

// classifyNumeric rejects non-numeric values and reports which numericKind
// the column belongs to.
func classifyNumeric(values []datalog.Value) (numericKind, error) {
	var sawI64, sawU64, sawDecimal bool
	for _, v := range values {
		switch v.Type() {
		case datalog.TypeI64:
			sawI64 = true
		case datalog.TypeU64:
			sawU64 = true
		case datalog.TypeDecimal:
			sawDecimal = true
		default:
			return 0, fmt.Errorf("executor: cannot sum/average a %s value", v.Type())
		}
	}
	switch {
	case sawDecimal || (sawI64 && sawU64):
		return numericMixed, nil
	case sawU64:
		return numericU64, nil
	default:
		return numericI64, nil
	}
}

// sumNumeric coerces I64/U64/Decimal values to float64 and sums them. Used
// only for columns classifyNumeric has already determined are mixed —
// homogeneous I64/U64 columns sum in their native integer width instead.
func sumNumeric(values []datalog.Value) (float64, error) {
	var sum float64
	for _, v := range values {
		switch v.Type() {
		case datalog.TypeI64:
			sum += float64(v.AsI64())
		case datalog.TypeU64:
			sum += float64(v.AsU64())
		case datalog.TypeDecimal:
			sum += v.AsDecimal().Float64()
		default:
			return 0, fmt.Errorf("executor: cannot sum/average a %s value", v.Type())
		}
	}
	return sum, nil
}
