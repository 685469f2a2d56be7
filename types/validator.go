package types

import (
	"bytes"
	"encoding/hex"
)

// KeyType identifies a cryptographic key algorithm.
type KeyType uint8

const (
	KeyTypeEd25519   KeyType = 1
	KeyTypeSecp256k1 KeyType = 2
)

// PublicKey represents a validator's consensus identity.
type PublicKey struct {
	Type KeyType `cramberry:"1"`
	Data []byte  `cramberry:"2"`
}

// Identity is the canonical byte form of a validator's consensus
// key. All validator iteration is ordered by these bytes.
type Identity string

// Identity returns the canonical identity of the key: the key
// type byte followed by the raw key data.
func (pk PublicKey) Identity() Identity {
	b := make([]byte, 0, 1+len(pk.Data))
	b = append(b, byte(pk.Type))
	b = append(b, pk.Data...)
	return Identity(b)
}

// Equal reports whether two keys are identical.
func (pk PublicKey) Equal(other PublicKey) bool {
	return pk.Type == other.Type && bytes.Equal(pk.Data, other.Data)
}

// String returns a short hex rendering for logs.
func (pk PublicKey) String() string { return hex.EncodeToString(pk.Data) }

// Bytes returns the identity as a byte slice.
func (id Identity) Bytes() []byte { return []byte(id) }

// PublicKey reconstructs the consensus key from its identity.
func (id Identity) PublicKey() PublicKey {
	if len(id) == 0 {
		return PublicKey{}
	}
	return PublicKey{Type: KeyType(id[0]), Data: []byte(id[1:])}
}

// String returns the hex encoding of the identity.
func (id Identity) String() string { return hex.EncodeToString([]byte(id)) }

// ValidatorUpdate represents a change to the validator set.
// Power = 0 means removal of the validator.
type ValidatorUpdate struct {
	PubKey PublicKey `cramberry:"1"`
	Power  uint64    `cramberry:"2"`
}
