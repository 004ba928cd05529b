// Package parser reads the small textual query syntax used by cmd/datomdb
// and turns it into a query.Query. It is a thin, hand-written convenience
// for the CLI and demo data, not a core subsystem: a real embedding
// application is expected to build query.Query values directly.
//
// Syntax, modeled on the teacher's EDN-vector query shape but tokenized by
// hand instead of through a full EDN reader:
//
//	:find ?e ?name (count ?friend)
//	:where [?e "person/name" ?name] [?e "person/friend" ?friend]
//	       [(> ?age 21)]
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lstoll/datomdb/datalog"
	"github.com/lstoll/datomdb/datalog/query"
)

// AttrResolver resolves an attribute ident string to its entity id, so the
// parser can encode attribute positions as Constant(Ref) like any other
// resolved value.
type AttrResolver func(ident string) (datalog.EntityID, error)

// ParseQuery parses input into a query.Query, resolving attribute idents
// through resolve.
func ParseQuery(input string, resolve AttrResolver) (query.Query, error) {
	toks, err := tokenize(input)
	if err != nil {
		return query.Query{}, err
	}
	p := &parser{toks: toks, resolve: resolve}
	return p.parseQuery()
}

type parser struct {
	toks    []string
	pos     int
	resolve AttrResolver
}

func (p *parser) peek() (string, bool) {
	if p.pos >= len(p.toks) {
		return "", false
	}
	return p.toks[p.pos], true
}

func (p *parser) next() (string, bool) {
	t, ok := p.peek()
	if ok {
		p.pos++
	}
	return t, ok
}

func (p *parser) parseQuery() (query.Query, error) {
	var q query.Query

	for {
		tok, ok := p.peek()
		if !ok {
			break
		}
		switch tok {
		case ":find":
			p.pos++
			for {
				tok, ok := p.peek()
				if !ok || strings.HasPrefix(tok, ":") {
					break
				}
				spec, err := p.parseFindSpec()
				if err != nil {
					return query.Query{}, err
				}
				q.Find = append(q.Find, spec)
			}
		case ":where":
			p.pos++
			for {
				tok, ok := p.peek()
				if !ok || tok != "[" {
					break
				}
				clauseOrPred, isPred, err := p.parseWhereElement()
				if err != nil {
					return query.Query{}, err
				}
				if isPred {
					q.Predicates = append(q.Predicates, clauseOrPred.(query.Predicate))
				} else {
					q.Clauses = append(q.Clauses, clauseOrPred.(query.Clause))
				}
			}
		default:
			return query.Query{}, fmt.Errorf("parser: unexpected token %q", tok)
		}
	}

	if len(q.Find) == 0 {
		return query.Query{}, fmt.Errorf("parser: query has no :find columns")
	}
	if len(q.Clauses) == 0 {
		return query.Query{}, fmt.Errorf("parser: query has no :where clauses")
	}
	return q, nil
}

// parseFindSpec parses one :find column: either "?var" or "(fn ?var)".
func (p *parser) parseFindSpec() (query.FindSpec, error) {
	tok, ok := p.next()
	if !ok {
		return query.FindSpec{}, fmt.Errorf("parser: unexpected end of query in :find")
	}
	if tok == "(" {
		fn, ok := p.next()
		if !ok {
			return query.FindSpec{}, fmt.Errorf("parser: unexpected end of query in aggregate")
		}
		kind, err := aggregateKind(fn)
		if err != nil {
			return query.FindSpec{}, err
		}
		v, ok := p.next()
		if !ok || !isVar(v) {
			return query.FindSpec{}, fmt.Errorf("parser: aggregate %s requires a variable argument", fn)
		}
		if close, ok := p.next(); !ok || close != ")" {
			return query.FindSpec{}, fmt.Errorf("parser: expected ) to close aggregate")
		}
		return query.FindAggregate(kind, query.Var(v)), nil
	}
	if !isVar(tok) {
		return query.FindSpec{}, fmt.Errorf("parser: expected variable in :find, got %q", tok)
	}
	return query.FindVar(query.Var(tok)), nil
}

func aggregateKind(name string) (query.AggregateKind, error) {
	switch name {
	case "count":
		return query.Count, nil
	case "count-distinct":
		return query.CountDistinct, nil
	case "min":
		return query.Min, nil
	case "max":
		return query.Max, nil
	case "sum":
		return query.Sum, nil
	case "avg":
		return query.Avg, nil
	default:
		return 0, fmt.Errorf("parser: unknown aggregate function %q", name)
	}
}

// parseWhereElement parses one [...] group: either a data pattern
// [e a v] or a predicate [(op ?var const)].
func (p *parser) parseWhereElement() (interface{}, bool, error) {
	if _, ok := p.next(); !ok { // consume "["
		return nil, false, fmt.Errorf("parser: unexpected end of query in :where")
	}

	if tok, ok := p.peek(); ok && tok == "(" {
		pred, err := p.parsePredicate()
		if err != nil {
			return nil, false, err
		}
		if close, ok := p.next(); !ok || close != "]" {
			return nil, false, fmt.Errorf("parser: expected ] to close predicate clause")
		}
		return pred, true, nil
	}

	e, err := p.parsePatternElem(false)
	if err != nil {
		return nil, false, err
	}
	a, err := p.parsePatternElem(true)
	if err != nil {
		return nil, false, err
	}
	v, err := p.parsePatternElem(false)
	if err != nil {
		return nil, false, err
	}
	if close, ok := p.next(); !ok || close != "]" {
		return nil, false, fmt.Errorf("parser: expected ] to close data pattern")
	}
	return query.Clause{Entity: e, Attribute: a, Value: v}, false, nil
}

// parsePatternElem parses one clause slot: "_", "?var", or a literal.
// isAttr controls whether a quoted string literal is resolved through the
// AttrResolver rather than kept as a literal string.
func (p *parser) parsePatternElem(isAttr bool) (query.PatternElem, error) {
	tok, ok := p.next()
	if !ok {
		return nil, fmt.Errorf("parser: unexpected end of query in data pattern")
	}
	if tok == "_" {
		return query.Blank{}, nil
	}
	if isVar(tok) {
		return query.Var(tok), nil
	}
	v, err := parseLiteral(tok)
	if err != nil {
		return nil, err
	}
	if isAttr && v.Type() == datalog.TypeStr {
		if p.resolve == nil {
			return nil, fmt.Errorf("parser: no attribute resolver configured for ident %q", v.AsStr())
		}
		id, err := p.resolve(v.AsStr())
		if err != nil {
			return nil, err
		}
		return query.Constant{Value: datalog.Ref(id)}, nil
	}
	return query.Constant{Value: v}, nil
}

func (p *parser) parsePredicate() (query.Predicate, error) {
	if _, ok := p.next(); !ok { // consume "("
		return query.Predicate{}, fmt.Errorf("parser: unexpected end of query in predicate")
	}
	opTok, ok := p.next()
	if !ok {
		return query.Predicate{}, fmt.Errorf("parser: unexpected end of query in predicate operator")
	}
	op, err := parseOp(opTok)
	if err != nil {
		return query.Predicate{}, err
	}
	varTok, ok := p.next()
	if !ok || !isVar(varTok) {
		return query.Predicate{}, fmt.Errorf("parser: predicate must start with a variable, got %q", varTok)
	}
	rhsTok, ok := p.next()
	if !ok {
		return query.Predicate{}, fmt.Errorf("parser: predicate missing right-hand side")
	}
	rhs, err := parseLiteral(rhsTok)
	if err != nil {
		return query.Predicate{}, err
	}
	if close, ok := p.next(); !ok || close != ")" {
		return query.Predicate{}, fmt.Errorf("parser: expected ) to close predicate")
	}
	return query.Predicate{Var: query.Var(varTok), Op: op, Rhs: rhs}, nil
}

func parseOp(tok string) (query.ComparisonOp, error) {
	switch tok {
	case "<":
		return query.OpLess, nil
	case "<=":
		return query.OpLessOrEqual, nil
	case ">":
		return query.OpGreater, nil
	case ">=":
		return query.OpGreaterOrEqual, nil
	case "=":
		return query.OpEqual, nil
	case "!=":
		return query.OpNotEqual, nil
	default:
		return 0, fmt.Errorf("parser: unknown comparison operator %q", tok)
	}
}

func isVar(tok string) bool {
	return strings.HasPrefix(tok, "?") && len(tok) > 1
}

// parseLiteral parses a quoted string, an integer, or a decimal into a
// Value. Idents used as attribute names arrive here as quoted strings too;
// parsePatternElem decides whether to resolve them.
func parseLiteral(tok string) (datalog.Value, error) {
	if strings.HasPrefix(tok, `"`) && strings.HasSuffix(tok, `"`) && len(tok) >= 2 {
		return datalog.Str(tok[1 : len(tok)-1]), nil
	}
	if strings.Contains(tok, ".") {
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return datalog.Nil, fmt.Errorf("parser: invalid decimal literal %q: %w", tok, err)
		}
		return datalog.DecimalValue(datalog.NewDecimal(f)), nil
	}
	if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return datalog.I64(n), nil
	}
	return datalog.Nil, fmt.Errorf("parser: unrecognized literal %q", tok)
}

// tokenize splits input into brackets, parens, and whitespace-delimited
// words, keeping double-quoted strings intact.
func tokenize(input string) ([]string, error) {
	var toks []string
	var sb strings.Builder
	flush := func() {
		if sb.Len() > 0 {
			toks = append(toks, sb.String())
			sb.Reset()
		}
	}

	inString := false
	for i := 0; i < len(input); i++ {
		c := input[i]
		switch {
		case inString:
			sb.WriteByte(c)
			if c == '"' {
				inString = false
				flush()
			}
		case c == '"':
			flush()
			inString = true
			sb.WriteByte(c)
		case c == '[' || c == ']' || c == '(' || c == ')':
			flush()
			toks = append(toks, string(c))
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			flush()
		default:
			sb.WriteByte(c)
		}
	}
	if inString {
		return nil, fmt.Errorf("parser: unterminated string literal")
	}
	flush()
	return toks, nil
}
