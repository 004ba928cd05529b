package main

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/lstoll/datomdb/datalog"
	"github.com/lstoll/datomdb/datalog/schema"
	"github.com/lstoll/datomdb/datalog/transactor"
	"github.com/lstoll/datomdb/db"
)

// seedDemoData transacts a small user schema plus three people, then runs
// the query set the teacher's demo mode printed (spec.md's "six concrete
// scenarios" are exercised in the executor/transactor test suites; this is
// just a human-facing walkthrough).
func seedDemoData(database *db.Database) {
	if _, err := database.Transact(*seedSchema()); err != nil {
		fmt.Printf("seed schema failed: %v\n", err)
		return
	}

	dataTx := &transactor.Transaction{}
	alice := transactor.New()
	bob := transactor.New()
	charlie := transactor.New()

	dataTx.
		Assert(alice, "person/name", datalog.Str("Alice")).
		Assert(alice, "person/age", datalog.I64(30)).
		Assert(bob, "person/name", datalog.Str("Bob")).
		Assert(bob, "person/age", datalog.I64(25)).
		Assert(charlie, "person/name", datalog.Str("Charlie")).
		Assert(charlie, "person/age", datalog.I64(35)).
		Assert(alice, "person/uuid", datalog.Str(uuid.NewString())).
		Assert(bob, "person/uuid", datalog.Str(uuid.NewString())).
		Assert(charlie, "person/uuid", datalog.Str(uuid.NewString()))

	result, err := database.Transact(*dataTx)
	if err != nil {
		fmt.Printf("seed data failed: %v\n", err)
		return
	}
	fmt.Printf("committed demo data in tx %d (%d datoms)\n", result.TxID, len(result.Datoms))

	queries := []string{
		`:find ?name ?age :where [?p "person/name" ?name] [?p "person/age" ?age]`,
		`:find ?name :where [?p "person/name" ?name] [(> ?p 0)]`,
	}
	for _, q := range queries {
		fmt.Printf("\nquery: %s\n", q)
		rows, err := database.Current().Query(q)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		printTable(rows)
	}
}

// seedSchema defines the three attributes the demo data uses.
func seedSchema() *transactor.Transaction {
	t := &transactor.Transaction{}

	defAttr := func(label, ident string, valueType datalog.ValueType, card schema.Cardinality) {
		e := transactor.TempID(label)
		t.Assert(e, "db/ident", datalog.Str(ident))
		t.Assert(e, "db/value-type", datalog.Ref(schema.ValueTypeEnum(valueType)))
		t.Assert(e, "db/cardinality", datalog.Ref(schema.CardinalityEnum(card)))
	}

	defAttr("person/name", "person/name", datalog.TypeStr, schema.CardinalityOne)
	defAttr("person/age", "person/age", datalog.TypeI64, schema.CardinalityOne)
	defAttr("person/uuid", "person/uuid", datalog.TypeStr, schema.CardinalityOne)

	return t
}
