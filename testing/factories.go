package ledgertest

import (
	"encoding/hex"
	"testing"

	"github.com/blockberries/stakeledger/config"
	"github.com/blockberries/stakeledger/crypto"
	"github.com/blockberries/stakeledger/tx"
	"github.com/blockberries/stakeledger/types"
)

// ChainID is the chain id of DefaultGenesis.
const ChainID = "test-chain"

// Key returns the deterministic account key for name.
func Key(name string) *crypto.PrivateKey {
	return crypto.KeyFromSeed([]byte(name))
}

// ValidatorKey returns a deterministic ed25519 consensus key whose
// identity sorts by b.
func ValidatorKey(b byte) types.PublicKey {
	data := make([]byte, 32)
	data[0] = b
	data[31] = 0x5a
	return types.PublicKey{Type: types.KeyTypeEd25519, Data: data}
}

// GenesisBuilder assembles a genesis document.
type GenesisBuilder struct {
	g config.Genesis
}

// NewGenesis starts a genesis for chainID with default params and a
// transferable staking asset.
func NewGenesis(chainID string) *GenesisBuilder {
	b := &GenesisBuilder{g: config.Genesis{
		ChainID:       chainID,
		InitialHeight: 1,
		Params:        config.DefaultGenesisParams(),
	}}
	b.g.Assets = append(b.g.Assets, config.GenesisAsset{
		Code:         b.g.Params.StakingAsset,
		Transferable: true,
	})
	return b
}

// Params edits the chain parameters.
func (b *GenesisBuilder) Params(fn func(*config.GenesisParams)) *GenesisBuilder {
	fn(&b.g.Params)
	return b
}

// InitialHeight sets the first block height.
func (b *GenesisBuilder) InitialHeight(h uint64) *GenesisBuilder {
	b.g.InitialHeight = h
	return b
}

// Asset adds an asset definition.
func (b *GenesisBuilder) Asset(a config.GenesisAsset) *GenesisBuilder {
	b.g.Assets = append(b.g.Assets, a)
	return b
}

// Fund credits amount of asset to addr.
func (b *GenesisBuilder) Fund(addr crypto.Address, asset string, amount uint64) *GenesisBuilder {
	b.g.Balances = append(b.g.Balances, config.GenesisBalance{
		Address: addr.String(),
		Asset:   asset,
		Amount:  amount,
	})
	return b
}

// Validator registers pk operated by operator, self-bonding selfBond.
// The operator must be funded with at least selfBond.
func (b *GenesisBuilder) Validator(pk types.PublicKey, operator crypto.Address, selfBond uint64) *GenesisBuilder {
	b.g.Validators = append(b.g.Validators, config.GenesisValidator{
		PubKey:   hex.EncodeToString(pk.Data),
		Operator: operator.String(),
		SelfBond: selfBond,
	})
	return b
}

// Build returns the document.
func (b *GenesisBuilder) Build() *config.Genesis {
	g := b.g
	return &g
}

// DefaultGenesis returns a small genesis suitable for testing: alice
// and bob hold 1,000,000 STAKE each and alice operates a single
// validator bonded with 10,000.
func DefaultGenesis() *config.Genesis {
	alice := Key("alice").Address()
	return NewGenesis(ChainID).
		Fund(alice, "STAKE", 1_000_000).
		Fund(Key("bob").Address(), "STAKE", 1_000_000).
		Validator(ValidatorKey(1), alice, 10_000).
		Build()
}

// SignTx builds a transaction for ChainID signed by key with a fee
// of one unit.
func SignTx(t testing.TB, key *crypto.PrivateKey, seq uint64, ops ...tx.Op) types.Tx {
	t.Helper()
	raw, err := tx.NewBuilder(ChainID, key).Sequence(seq).Fee(1).Add(ops...).Build()
	if err != nil {
		t.Fatalf("build tx: %v", err)
	}
	return raw
}

// MakeBlock creates a FinalizedBlock at the given height with
// the provided transactions.
func MakeBlock(height uint64, txs ...types.Tx) types.FinalizedBlock {
	return types.FinalizedBlock{
		Height:   height,
		Proposer: ValidatorKey(1),
		Txs:      txs,
	}
}

// MakeEmptyBlock creates an empty FinalizedBlock at the given height.
func MakeEmptyBlock(height uint64) types.FinalizedBlock {
	return MakeBlock(height)
}

// DuplicateVote returns evidence that pk double-signed at height.
func DuplicateVote(pk types.PublicKey, height uint64) types.Evidence {
	return types.Evidence{
		Type:      types.EvidenceTypeDuplicateVote,
		Validator: pk,
		Height:    height,
	}
}
