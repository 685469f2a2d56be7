// Package crypto provides account keys, addresses and the hash
// function used throughout the ledger.
//
// Account keys are secp256k1; addresses are the first 20 bytes of
// the BLAKE3-256 digest of the compressed public key.
package crypto

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"lukechampine.com/blake3"
)

// AddressLength is the byte length of an account address.
const AddressLength = 20

// PubKeyLength is the byte length of a compressed public key.
const PubKeyLength = secp256k1.PubKeyBytesLenCompressed

var (
	ErrInvalidPubKey    = errors.New("crypto: invalid public key")
	ErrInvalidSignature = errors.New("crypto: invalid signature")
	ErrInvalidAddress   = errors.New("crypto: invalid address")
)

// Address identifies an account.
type Address [AddressLength]byte

// String returns the hex encoding of the address.
func (a Address) String() string { return hex.EncodeToString(a[:]) }

// Bytes returns the address as a slice.
func (a Address) Bytes() []byte { return a[:] }

// IsZero reports whether the address is all zeros.
func (a Address) IsZero() bool { return a == Address{} }

// ParseAddress decodes a hex-encoded address.
func ParseAddress(s string) (Address, error) {
	var a Address
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != AddressLength {
		return a, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	copy(a[:], b)
	return a, nil
}

// Hash returns the BLAKE3-256 digest of data.
func Hash(data ...[]byte) [32]byte {
	if len(data) == 1 {
		return blake3.Sum256(data[0])
	}
	h := blake3.New(32, nil)
	for _, d := range data {
		h.Write(d)
	}
	var out [32]byte
	h.Sum(out[:0])
	return out
}

// AddressFromPubKey derives the account address of a compressed
// public key.
func AddressFromPubKey(pub []byte) Address {
	var a Address
	h := blake3.Sum256(pub)
	copy(a[:], h[:AddressLength])
	return a
}

// PrivateKey is an account signing key.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// GenerateKey creates a fresh random account key.
func GenerateKey() (*PrivateKey, error) {
	k, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("crypto: generate key: %w", err)
	}
	return &PrivateKey{key: k}, nil
}

// KeyFromSeed derives a key deterministically from seed bytes.
// It is intended for tests and devnets.
func KeyFromSeed(seed []byte) *PrivateKey {
	h := blake3.Sum256(seed)
	return &PrivateKey{key: secp256k1.PrivKeyFromBytes(h[:])}
}

// PrivKeyFromBytes loads a key from its 32-byte scalar.
func PrivKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != secp256k1.PrivKeyBytesLen {
		return nil, fmt.Errorf("crypto: private key must be %d bytes", secp256k1.PrivKeyBytesLen)
	}
	return &PrivateKey{key: secp256k1.PrivKeyFromBytes(b)}, nil
}

// Bytes returns the 32-byte scalar.
func (k *PrivateKey) Bytes() []byte { return k.key.Serialize() }

// PubKey returns the compressed public key.
func (k *PrivateKey) PubKey() []byte { return k.key.PubKey().SerializeCompressed() }

// Address returns the account address of the key.
func (k *PrivateKey) Address() Address { return AddressFromPubKey(k.PubKey()) }

// Sign signs the BLAKE3 digest of msg and returns a DER signature.
// RFC6979 nonces make the signature deterministic.
func (k *PrivateKey) Sign(msg []byte) []byte {
	digest := blake3.Sum256(msg)
	return ecdsa.Sign(k.key, digest[:]).Serialize()
}

// Verify checks a DER signature by pub over msg.
func Verify(pub, msg, sig []byte) error {
	pk, err := secp256k1.ParsePubKey(pub)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPubKey, err)
	}
	s, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	digest := blake3.Sum256(msg)
	if !s.Verify(digest[:], pk) {
		return ErrInvalidSignature
	}
	return nil
}
