package storage

import (
	"github.com/lstoll/datomdb/datalog"
)

// entitySize/txSize are the widths of the two fixed-size uint64 components
// that appear in every index key. Attributes are entities too, so they use
// the same width.
const (
	entitySize = 8
	txSize     = 8
	opSize     = 1
)

// EncodeKey builds the full index key for a committed datom: every
// component is encoded once and concatenated in the order that index uses,
// with Op appended as a trailing byte outside the ordered prefix (spec.md
// §4.2) so a prefix scan over (E,A,V,T) sees both an assert and its
// matching retract.
func EncodeKey(index IndexType, d datalog.Datom) ([]byte, error) {
	e := datalog.EncodeU64(uint64(d.E))
	a := datalog.EncodeU64(uint64(d.A))
	v, err := datalog.EncodeValue(d.V)
	if err != nil {
		return nil, err
	}
	t := datalog.EncodeU64(d.T)
	op := []byte{byte(d.Op)}

	var parts [][]byte
	switch index {
	case EAVT:
		parts = [][]byte{e, a, v, t}
	case AEVT:
		parts = [][]byte{a, e, v, t}
	case AVET:
		parts = [][]byte{a, v, e, t}
	default:
		return nil, datalog.NewReadError("EncodeKey", errUnknownIndex(index))
	}
	return concat(append([][]byte{{byte(index)}}, append(parts, op)...)...), nil
}

// DecodeKey reconstructs a Datom from one of its index keys. The Value is
// variable-length, so decoding always starts from whichever end of the key
// it abuts: EAVT/AEVT have E+A as a fixed 16-byte prefix before V, while
// AVET has only A (8 bytes) before V — in every case the remaining fixed
// suffix (the other entity-sized component, Tx and Op) is sliced from the
// back once V's length is known.
func DecodeKey(index IndexType, key []byte) (datalog.Datom, error) {
	if len(key) < 1 || IndexType(key[0]) != index {
		return datalog.Datom{}, datalog.NewReadError("DecodeKey", errBadIndexPrefix(index, key))
	}
	body := key[1:]

	var e, a uint64
	var v datalog.Value
	var t uint64
	var err error

	switch index {
	case EAVT, AEVT:
		if len(body) < 2*entitySize+txSize+opSize {
			return datalog.Datom{}, datalog.NewReadError(index.String()+" key", errTooShort)
		}
		first, err1 := datalog.DecodeU64(body[0:entitySize])
		if err1 != nil {
			return datalog.Datom{}, datalog.NewReadError(index.String()+" key", err1)
		}
		second, err2 := datalog.DecodeU64(body[entitySize : 2*entitySize])
		if err2 != nil {
			return datalog.Datom{}, datalog.NewReadError(index.String()+" key", err2)
		}
		rest := body[2*entitySize:]
		v, t, err = decodeValueThenTx(rest)
		if err != nil {
			return datalog.Datom{}, err
		}
		if index == EAVT {
			e, a = first, second
		} else {
			a, e = first, second
		}
	case AVET:
		if len(body) < entitySize+entitySize+txSize+opSize {
			return datalog.Datom{}, datalog.NewReadError("AVET key", errTooShort)
		}
		aVal, err1 := datalog.DecodeU64(body[0:entitySize])
		if err1 != nil {
			return datalog.Datom{}, datalog.NewReadError("AVET key", err1)
		}
		a = aVal
		rest := body[entitySize:]
		// rest = V(variable) + E(8) + T(8) + Op(1)
		var consumed int
		v, consumed, err = datalog.DecodeValue(rest)
		if err != nil {
			return datalog.Datom{}, datalog.NewReadError("AVET key", err)
		}
		tail := rest[consumed:]
		if len(tail) != entitySize+txSize+opSize {
			return datalog.Datom{}, datalog.NewReadError("AVET key", errTooShort)
		}
		e, err = datalog.DecodeU64(tail[0:entitySize])
		if err != nil {
			return datalog.Datom{}, datalog.NewReadError("AVET key", err)
		}
		t, err = datalog.DecodeU64(tail[entitySize : entitySize+txSize])
		if err != nil {
			return datalog.Datom{}, datalog.NewReadError("AVET key", err)
		}
	default:
		return datalog.Datom{}, datalog.NewReadError("DecodeKey", errUnknownIndex(index))
	}

	op := datalog.Op(key[len(key)-1])
	return datalog.Datom{E: datalog.EntityID(e), A: datalog.EntityID(a), V: v, T: t, Op: op}, nil
}

// decodeValueThenTx decodes rest = V(variable) + Tx(8) + Op(1), used by
// EAVT and AEVT where V is followed directly by Tx and Op.
func decodeValueThenTx(rest []byte) (datalog.Value, uint64, error) {
	v, consumed, err := datalog.DecodeValue(rest)
	if err != nil {
		return datalog.Value{}, 0, datalog.NewReadError("key value", err)
	}
	tail := rest[consumed:]
	if len(tail) != txSize+opSize {
		return datalog.Value{}, 0, datalog.NewReadError("key tail", errTooShort)
	}
	t, err := datalog.DecodeU64(tail[0:txSize])
	if err != nil {
		return datalog.Value{}, 0, datalog.NewReadError("key tx", err)
	}
	return v, t, nil
}

// EncodePrefix builds a scan prefix for index out of already-encoded
// components (see Restricts.scanBounds), with no Tx/Op component — a
// prefix scan is over everything that starts with these bytes.
func EncodePrefix(index IndexType, parts ...[]byte) []byte {
	return concat(append([][]byte{{byte(index)}}, parts...)...)
}

// PrefixRange turns a prefix into a half-open [start, end) byte range
// suitable for an ordered range scan: end is prefix with its last byte
// incremented (carrying as needed), so it is the first key that is NOT a
// continuation of prefix.
func PrefixRange(prefix []byte) (start, end []byte) {
	start = prefix
	end = make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xFF {
			end[i]++
			return start, end[:i+1]
		}
	}
	// prefix was all 0xFF bytes (or empty): no finite successor, scan to
	// the end of the index's key space.
	return start, nil
}

func concat(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	buf := make([]byte, 0, n)
	for _, p := range parts {
		buf = append(buf, p...)
	}
	return buf
}
