// Package kv defines the ordered, byte-keyed store the ledger is
// persisted to, and a goleveldb-backed implementation of it.
//
// The store is an external collaborator of the ledger: it only has
// to provide ordered iteration and atomic batch writes.
package kv

// Getter defines methods to read kv.
type Getter interface {
	// Get value for given key.
	// An error returned if key not found. It can be checked via IsNotFound.
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	IsNotFound(err error) bool
}

// Putter defines methods to write kv.
type Putter interface {
	Put(key, val []byte) error
	Delete(key []byte) error
}

// Batch collects writes that are applied all-or-nothing by Write.
type Batch interface {
	Putter

	Len() int
	Write() error
}

// Range is the key range.
type Range struct {
	Start []byte // start of key range (included)
	Limit []byte // limit of key range (excluded)
}

// Store defines the full functional kv store.
type Store interface {
	Getter
	Putter

	NewBatch() Batch
	// Iterate calls fn for every pair in r in ascending key order
	// until fn returns false. Key and value slices are only valid
	// during the call.
	Iterate(r Range, fn func(key, val []byte) bool) error
	Close() error
}

// PrefixRange returns the range covering every key with prefix.
func PrefixRange(prefix []byte) Range {
	var limit []byte
	for i := len(prefix) - 1; i >= 0; i-- {
		if prefix[i] < 0xff {
			limit = make([]byte, i+1)
			copy(limit, prefix)
			limit[i]++
			break
		}
	}
	return Range{Start: prefix, Limit: limit}
}
