// Package types defines the wire types exchanged between the
// consensus engine and the stakeledger application.
//
// These are plain Go structs with cramberry struct tags for
// deterministic binary serialization. Transport concerns
// (gRPC codec registration) are handled in the transport packages.
package types

import "encoding/hex"

// Hash is a 32-byte cryptographic hash.
type Hash [32]byte

// StateRoot is the deterministic digest of the entire ledger
// state after a block has been applied.
type StateRoot [32]byte

// String returns the hex encoding of the root.
func (r StateRoot) String() string { return hex.EncodeToString(r[:]) }

// IsZero reports whether the root is unset.
func (r StateRoot) IsZero() bool { return r == StateRoot{} }

// Tx is an opaque transaction as delivered by consensus.
// The consensus engine never inspects its contents.
type Tx []byte

// QueryPath is a structured key for state queries
// (e.g., "/balance").
type QueryPath string

// BlockID uniquely identifies a committed point in the chain.
type BlockID struct {
	Height    uint64    `cramberry:"1"`
	StateRoot StateRoot `cramberry:"2"`
}
