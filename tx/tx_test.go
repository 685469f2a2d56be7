package tx

import (
	"testing"

	"github.com/blockberries/cramberry/pkg/cramberry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockberries/stakeledger/crypto"
	"github.com/blockberries/stakeledger/ledger"
	"github.com/blockberries/stakeledger/types"
)

func edKey(b byte) types.PublicKey {
	data := make([]byte, 32)
	data[0] = b
	return types.PublicKey{Type: types.KeyTypeEd25519, Data: data}
}

func TestBuildDecodeVerify(t *testing.T) {
	key := crypto.KeyFromSeed([]byte("alice"))
	raw, err := NewBuilder("test-chain", key).
		Sequence(3).
		Fee(2).
		Add(Transfer{To: crypto.Address{9}, Asset: "STAKE", Amount: 10}, Bond{Validator: edKey(1), Amount: 100}).
		Build()
	require.NoError(t, err)

	got, err := Decode(raw)
	require.NoError(t, err)
	require.NoError(t, got.Verify())
	assert.Equal(t, key.Address(), got.Body.SenderAddress())
	assert.Equal(t, uint64(3), got.Body.Sequence)

	ops, err := got.Body.Operations()
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, Transfer{To: crypto.Address{9}, Asset: "STAKE", Amount: 10}, ops[0])
	assert.Equal(t, "bond", ops[1].Kind())
}

func TestEncodingIsDeterministic(t *testing.T) {
	key := crypto.KeyFromSeed([]byte("bob"))
	build := func() types.Tx {
		raw, err := NewBuilder("c", key).Sequence(1).Fee(1).Add(ClaimReward{}).Build()
		require.NoError(t, err)
		return raw
	}
	assert.Equal(t, build(), build())
}

func TestTamperedBodyFailsVerification(t *testing.T) {
	key := crypto.KeyFromSeed([]byte("carol"))
	signed, err := Sign(Body{ChainID: "c", Sequence: 0, Fee: 1, Ops: []Envelope{Wrap(ClaimReward{})}}, key)
	require.NoError(t, err)
	require.NoError(t, signed.Verify())

	signed.Body.Fee = 0
	assert.ErrorIs(t, signed.Verify(), crypto.ErrInvalidSignature)
}

func TestDecodeRejectsEmpty(t *testing.T) {
	_, err := Decode(nil)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestEnvelopeMustCarryOneOp(t *testing.T) {
	_, err := Envelope{}.Op()
	assert.ErrorIs(t, err, ErrMalformed)

	e := Wrap(ClaimReward{})
	e.Bond = &Bond{Validator: edKey(1), Amount: 1}
	_, err = e.Op()
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = Envelope{Type: TypeBond, ClaimReward: &ClaimReward{}}.Op()
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = Envelope{Type: 42}.Op()
	assert.ErrorIs(t, err, ErrMalformed)

	op, err := Envelope{Type: TypeClaimReward}.Op()
	require.NoError(t, err)
	assert.Equal(t, ClaimReward{}, op)
}

// Every operation kind, at zero or optional field values, must come
// back from the wire intact and still verify.
func TestZeroValuedOperationsSurviveTheWire(t *testing.T) {
	key := crypto.KeyFromSeed([]byte("dave"))
	cases := []Op{
		Transfer{},
		DefineAsset{},
		IssueAsset{},
		CreateValidator{},
		Bond{},
		Unbond{},
		Unbond{Validator: edKey(1)},
		ClaimReward{},
		ClaimReward{Amount: 5},
		UpdateValidator{},
		UpdateValidator{Validator: edKey(1), SetMemo: true},
		UpdateValidator{Validator: edKey(1), SetCommission: true},
		UpdateValidator{Validator: edKey(1), Unjail: true},
	}
	for _, op := range cases {
		t.Run(op.Kind(), func(t *testing.T) {
			raw, err := NewBuilder("c", key).Fee(1).Add(op).Build()
			require.NoError(t, err)

			got, err := Decode(raw)
			require.NoError(t, err)
			require.NoError(t, got.Verify())

			ops, err := got.Body.Operations()
			require.NoError(t, err)
			require.Len(t, ops, 1)
			assert.Equal(t, op.Kind(), ops[0].Kind())
			assert.Equal(t, encodeOp(t, op), encodeOp(t, ops[0]))
		})
	}
}

func encodeOp(t *testing.T, op Op) []byte {
	t.Helper()
	e := Wrap(op)
	data, err := cramberry.Marshal(&e)
	require.NoError(t, err)
	return data
}

func TestDecodedTxReencodesToItsOwnBytes(t *testing.T) {
	key := crypto.KeyFromSeed([]byte("erin"))
	raw, err := NewBuilder("c", key).Fee(1).Add(ClaimReward{}, UpdateValidator{Validator: edKey(2), SetMemo: true}).Build()
	require.NoError(t, err)

	got, err := Decode(raw)
	require.NoError(t, err)
	again, err := got.Encode()
	require.NoError(t, err)
	assert.Equal(t, raw, again)
}

func TestValidateBasic(t *testing.T) {
	cases := []struct {
		name string
		op   Op
		ok   bool
	}{
		{"transfer", Transfer{Asset: "ABC", Amount: 1}, true},
		{"transfer zero", Transfer{Asset: "ABC"}, false},
		{"transfer bad code", Transfer{Asset: "abc", Amount: 1}, false},
		{"define", DefineAsset{Code: "GOLD", Decimals: 6}, true},
		{"define decimals", DefineAsset{Code: "GOLD", Decimals: 20}, false},
		{"issue zero", IssueAsset{Code: "GOLD"}, false},
		{"create", CreateValidator{PubKey: edKey(1), CommissionBps: 500, SelfBond: 100}, true},
		{"create commission", CreateValidator{PubKey: edKey(1), CommissionBps: 10_001, SelfBond: 100}, false},
		{"create short key", CreateValidator{PubKey: types.PublicKey{Type: types.KeyTypeEd25519, Data: []byte{1}}, SelfBond: 1}, false},
		{"bond", Bond{Validator: edKey(1), Amount: 1}, true},
		{"unbond all", Unbond{Validator: edKey(1)}, true},
		{"update nothing", UpdateValidator{Validator: edKey(1)}, false},
		{"update memo", UpdateValidator{Validator: edKey(1), SetMemo: true, Memo: ledger.ValidatorMemo{Moniker: "v"}}, true},
		{"clear memo", UpdateValidator{Validator: edKey(1), SetMemo: true}, true},
		{"claim", ClaimReward{}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.op.ValidateBasic()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrMalformed)
			}
		})
	}
}
