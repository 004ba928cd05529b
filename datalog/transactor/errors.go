package transactor

import (
	"errors"
	"fmt"

	"github.com/lstoll/datomdb/datalog"
)

// errAmbiguousUnique is returned by findUnique when a value restricted to
// hold at most one entity (spec.md §4.6 step 2) actually holds more than
// one. Call sites translate it into the TransactionError kind appropriate
// to why they were looking the value up.
var errAmbiguousUnique = errors.New("transactor: value is held by more than one entity")

// TransactionError is the taxonomy from spec.md §7. Exactly one of the
// Kind-specific fields is meaningful for a given Kind.
type TransactionError struct {
	Kind TransactionErrorKind

	Attr             string
	ExpectedType     datalog.ValueType
	GotType          datalog.ValueType
	Value            datalog.Value
	ExistingEntity   datalog.EntityID
	TempID           string
	Err              error // wrapped storage error, for Kind == Storage
}

// TransactionErrorKind enumerates the ways a transaction can be rejected.
type TransactionErrorKind int

const (
	UnknownAttribute TransactionErrorKind = iota
	InvalidValueType
	UniquenessViolation
	RetractNonExistent
	TempIdConflict
	LookupRefAmbiguous
	Storage
)

func (e *TransactionError) Error() string {
	switch e.Kind {
	case UnknownAttribute:
		return fmt.Sprintf("transactor: unknown attribute %q", e.Attr)
	case InvalidValueType:
		return fmt.Sprintf("transactor: attribute %q expects %s, got %s", e.Attr, e.ExpectedType, e.GotType)
	case UniquenessViolation:
		return fmt.Sprintf("transactor: uniqueness violation on %q value %s: already held by entity %s", e.Attr, e.Value, e.ExistingEntity)
	case RetractNonExistent:
		return fmt.Sprintf("transactor: cannot retract %q = %s: no such live datom", e.Attr, e.Value)
	case TempIdConflict:
		return fmt.Sprintf("transactor: temp id %q used inconsistently within transaction", e.TempID)
	case LookupRefAmbiguous:
		return fmt.Sprintf("transactor: lookup ref on %q = %s did not resolve to exactly one entity", e.Attr, e.Value)
	case Storage:
		return fmt.Sprintf("transactor: storage failure: %v", e.Err)
	default:
		return "transactor: transaction failed"
	}
}

func (e *TransactionError) Unwrap() error { return e.Err }
