package tx

import (
	"github.com/blockberries/stakeledger/crypto"
	"github.com/blockberries/stakeledger/types"
)

// Builder assembles and signs transactions.
type Builder struct {
	key  *crypto.PrivateKey
	body Body
}

// NewBuilder starts a transaction signed by key for chainID.
func NewBuilder(chainID string, key *crypto.PrivateKey) *Builder {
	return &Builder{key: key, body: Body{ChainID: chainID}}
}

// Sequence sets the sender sequence.
func (b *Builder) Sequence(seq uint64) *Builder {
	b.body.Sequence = seq
	return b
}

// Fee sets the fee paid in the staking asset.
func (b *Builder) Fee(fee uint64) *Builder {
	b.body.Fee = fee
	return b
}

// Add appends operations in order.
func (b *Builder) Add(ops ...Op) *Builder {
	for _, op := range ops {
		b.body.Ops = append(b.body.Ops, Wrap(op))
	}
	return b
}

// Build signs the body and returns the wire bytes.
func (b *Builder) Build() (types.Tx, error) {
	t, err := Sign(b.body, b.key)
	if err != nil {
		return nil, err
	}
	return t.Encode()
}
