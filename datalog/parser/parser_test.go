package parser

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lstoll/datomdb/datalog"
	"github.com/lstoll/datomdb/datalog/query"
)

func identResolver(idents map[string]datalog.EntityID) AttrResolver {
	return func(ident string) (datalog.EntityID, error) {
		if id, ok := idents[ident]; ok {
			return id, nil
		}
		return 0, fmt.Errorf("unknown ident %q", ident)
	}
}

func TestParseSimpleDataPattern(t *testing.T) {
	resolve := identResolver(map[string]datalog.EntityID{"person/name": 100})
	q, err := ParseQuery(`:find ?e ?name :where [?e "person/name" ?name]`, resolve)
	require.NoError(t, err)

	require.Len(t, q.Find, 2)
	assert.Equal(t, query.Var("?e"), q.Find[0].Var)
	assert.Equal(t, query.Var("?name"), q.Find[1].Var)

	require.Len(t, q.Clauses, 1)
	c := q.Clauses[0]
	assert.Equal(t, query.Var("?e"), c.Entity)
	attrConst, ok := c.Attribute.(query.Constant)
	require.True(t, ok)
	assert.Equal(t, datalog.TypeRef, attrConst.Value.Type())
	assert.Equal(t, datalog.EntityID(100), attrConst.Value.AsRef())
	assert.Equal(t, query.Var("?name"), c.Value)
}

func TestParseMultipleClauses(t *testing.T) {
	resolve := identResolver(map[string]datalog.EntityID{
		"person/name":   100,
		"person/friend": 101,
	})
	q, err := ParseQuery(
		`:find ?fname :where [?e "person/name" "Alice"] [?e "person/friend" ?f] [?f "person/name" ?fname]`,
		resolve)
	require.NoError(t, err)
	assert.Len(t, q.Clauses, 3)
}

func TestParsePredicateClause(t *testing.T) {
	resolve := identResolver(map[string]datalog.EntityID{"person/age": 101})
	q, err := ParseQuery(`:find ?age :where [?e "person/age" ?age] [(> ?age 21)]`, resolve)
	require.NoError(t, err)

	require.Len(t, q.Predicates, 1)
	p := q.Predicates[0]
	assert.Equal(t, query.Var("?age"), p.Var)
	assert.Equal(t, query.OpGreater, p.Op)
	assert.Equal(t, int64(21), p.Rhs.AsI64())
}

func TestParseAggregateFindSpec(t *testing.T) {
	resolve := identResolver(map[string]datalog.EntityID{"person/name": 100})
	q, err := ParseQuery(`:find (count ?e) :where [?e "person/name" ?name]`, resolve)
	require.NoError(t, err)

	require.Len(t, q.Find, 1)
	require.NotNil(t, q.Find[0].Aggregate)
	assert.Equal(t, query.Count, *q.Find[0].Aggregate)
	assert.Equal(t, query.Var("?e"), q.Find[0].Var)
}

func TestParseBlankInDataPattern(t *testing.T) {
	resolve := identResolver(map[string]datalog.EntityID{"person/name": 100})
	q, err := ParseQuery(`:find ?e :where [?e "person/name" _]`, resolve)
	require.NoError(t, err)
	_, isBlank := q.Clauses[0].Value.(query.Blank)
	assert.True(t, isBlank)
}

func TestParseDecimalLiteral(t *testing.T) {
	resolve := identResolver(map[string]datalog.EntityID{"account/balance": 100})
	q, err := ParseQuery(`:find ?e :where [?e "account/balance" ?b] [(> ?b 3.14)]`, resolve)
	require.NoError(t, err)
	assert.Equal(t, datalog.TypeDecimal, q.Predicates[0].Rhs.Type())
}

func TestParseRejectsMissingFind(t *testing.T) {
	resolve := identResolver(nil)
	_, err := ParseQuery(`:where [?e "person/name" ?name]`, resolve)
	assert.Error(t, err)
}

func TestParseRejectsMissingWhere(t *testing.T) {
	resolve := identResolver(nil)
	_, err := ParseQuery(`:find ?e`, resolve)
	assert.Error(t, err)
}

func TestParseRejectsUnterminatedString(t *testing.T) {
	resolve := identResolver(nil)
	_, err := ParseQuery(`:find ?e :where [?e "person/name ?name]`, resolve)
	assert.Error(t, err)
}

func TestParseRejectsUnknownAggregate(t *testing.T) {
	resolve := identResolver(map[string]datalog.EntityID{"person/name": 100})
	_, err := ParseQuery(`:find (median ?e) :where [?e "person/name" ?name]`, resolve)
	assert.Error(t, err)
}

func TestParseRejectsUnknownIdent(t *testing.T) {
	resolve := identResolver(map[string]datalog.EntityID{})
	_, err := ParseQuery(`:find ?e :where [?e "no/such" ?v]`, resolve)
	assert.Error(t, err)
}
