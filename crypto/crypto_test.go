package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerify(t *testing.T) {
	k := KeyFromSeed([]byte("alice"))
	msg := []byte("transfer 10")

	sig := k.Sign(msg)
	require.NoError(t, Verify(k.PubKey(), msg, sig))

	assert.ErrorIs(t, Verify(k.PubKey(), []byte("transfer 11"), sig), ErrInvalidSignature)

	other := KeyFromSeed([]byte("bob"))
	assert.ErrorIs(t, Verify(other.PubKey(), msg, sig), ErrInvalidSignature)
	assert.ErrorIs(t, Verify([]byte{1, 2, 3}, msg, sig), ErrInvalidPubKey)
}

func TestKeyFromSeedDeterministic(t *testing.T) {
	a := KeyFromSeed([]byte("validator-1"))
	b := KeyFromSeed([]byte("validator-1"))
	assert.Equal(t, a.Bytes(), b.Bytes())
	assert.Equal(t, a.Address(), b.Address())
	assert.NotEqual(t, a.Address(), KeyFromSeed([]byte("validator-2")).Address())
}

func TestParseAddress(t *testing.T) {
	addr := KeyFromSeed([]byte("carol")).Address()
	got, err := ParseAddress(addr.String())
	require.NoError(t, err)
	assert.Equal(t, addr, got)

	_, err = ParseAddress("zz")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestHashMultipart(t *testing.T) {
	assert.Equal(t, Hash([]byte("ab")), Hash([]byte("a"), []byte("b")))
}
