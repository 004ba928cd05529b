package storage

import "fmt"

var errTooShort = fmt.Errorf("storage: key too short")

func errUnknownIndex(index IndexType) error {
	return fmt.Errorf("storage: unknown index type %v", index)
}

func errBadIndexPrefix(want IndexType, key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("storage: empty key, expected %v prefix", want)
	}
	return fmt.Errorf("storage: key has prefix %d, expected %v", key[0], want)
}
