package schema

import (
	"fmt"

	"github.com/lstoll/datomdb/datalog"
	"github.com/lstoll/datomdb/datalog/storage"
)

// NotAnAttribute is returned when the resolved entity has no
// db/value-type datom.
type NotAnAttribute struct{ Entity datalog.EntityID }

func (e *NotAnAttribute) Error() string {
	return fmt.Sprintf("schema: entity %s is not an attribute", e.Entity)
}

// IdentNotFound is returned when a string ident has no db/ident datom.
type IdentNotFound struct{ Ident string }

func (e *IdentNotFound) Error() string {
	return fmt.Sprintf("schema: ident %q not found", e.Ident)
}

// Resolver caches ident→id and attribute metadata for the lifetime of one
// query or one transaction (spec.md §4.5, §5 "shared-resource policy").
// It is not safe for concurrent use by multiple goroutines, matching the
// single-writer / per-snapshot-reader model of the rest of the core.
type Resolver struct {
	store   storage.Store
	basisTx uint64

	byIdent map[string]datalog.EntityID
	byID    map[datalog.EntityID]*Attribute
}

// NewResolver creates a Resolver reading through store at basisTx.
func NewResolver(store storage.Store, basisTx uint64) *Resolver {
	return &Resolver{
		store:   store,
		basisTx: basisTx,
		byIdent: make(map[string]datalog.EntityID),
		byID:    make(map[datalog.EntityID]*Attribute),
	}
}

// ResolveID looks up attribute metadata by numeric entity id (spec.md
// §4.5 step 1).
func (r *Resolver) ResolveID(id datalog.EntityID) (*Attribute, error) {
	if a, ok := r.byID[id]; ok {
		return a, nil
	}

	vt, err := r.readOne(id, AttrValueType)
	if err != nil {
		return nil, err
	}
	if vt == nil {
		return nil, &NotAnAttribute{Entity: id}
	}
	valueType, ok := enumToValueType(vt.AsRef())
	if !ok {
		return nil, fmt.Errorf("schema: attribute %s has unrecognized db/value-type enum %s", id, vt.AsRef())
	}

	card := CardinalityOne
	if cv, err := r.readOne(id, AttrCardinality); err != nil {
		return nil, err
	} else if cv != nil {
		card = enumToCardinality(cv.AsRef())
	}

	unique := false
	if uv, err := r.readOne(id, AttrUnique); err != nil {
		return nil, err
	} else if uv != nil {
		unique = uv.AsRef() == uniqueTrueEnum
	}

	ident := ""
	if iv, err := r.readOne(id, AttrIdent); err != nil {
		return nil, err
	} else if iv != nil {
		ident = iv.AsStr()
	}

	attr := &Attribute{ID: id, Ident: ident, ValueType: valueType, Cardinality: card, Unique: unique}
	r.byID[id] = attr
	if ident != "" {
		r.byIdent[ident] = id
	}
	return attr, nil
}

// ResolveIdent looks up attribute metadata by ident string, probing AVET
// for the owning entity first (spec.md §4.5 step 2).
func (r *Resolver) ResolveIdent(ident string) (*Attribute, error) {
	if id, ok := r.byIdent[ident]; ok {
		return r.ResolveID(id)
	}

	v := datalog.Str(ident)
	a := AttrIdent
	restricts := storage.AsOfSnapshot(r.basisTx)
	restricts.Attribute = &a
	restricts.Value = &v

	it, err := r.store.Find(restricts)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var found *datalog.EntityID
	for it.Next() {
		d := it.Datom()
		if found != nil {
			return nil, &IdentNotFound{Ident: ident} // ambiguous ident: treat as not found
		}
		e := d.E
		found = &e
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	if found == nil {
		return nil, &IdentNotFound{Ident: ident}
	}
	return r.ResolveID(*found)
}

// readOne returns the single live value of (e, a) at this resolver's
// basis, or nil if there isn't one. Schema attributes are always
// cardinality-one by construction (schema.Bootstrap, and the transactor
// enforces it for user-defined ones too), so at most one datom should
// ever be visible.
func (r *Resolver) readOne(e, a datalog.EntityID) (*datalog.Value, error) {
	restricts := storage.AsOfSnapshot(r.basisTx)
	restricts.Entity = &e
	restricts.Attribute = &a

	it, err := r.store.Find(restricts)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	if it.Next() {
		v := it.Datom().V
		if err := it.Err(); err != nil {
			return nil, err
		}
		return &v, nil
	}
	return nil, it.Err()
}
