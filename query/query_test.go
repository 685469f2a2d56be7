package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockberries/stakeledger/crypto"
	"github.com/blockberries/stakeledger/ledger"
	"github.com/blockberries/stakeledger/types"
)

func addr(b byte) crypto.Address {
	var a crypto.Address
	a[0] = b
	return a
}

func valKey(b byte) types.PublicKey {
	data := make([]byte, 32)
	data[0] = b
	return types.PublicKey{Type: types.KeyTypeEd25519, Data: data}
}

func fixture(t *testing.T) *ledger.State {
	t.Helper()
	s := ledger.New()
	s.SetParams(ledger.DefaultParams())
	s.SetAsset(ledger.Asset{Code: "STAKE", Supply: 1500, Transferable: true})
	require.NoError(t, s.AddBalance(addr(1), "STAKE", 1000))
	v := ledger.Validator{PubKey: valKey(1), Operator: addr(1), Status: ledger.StatusBonded, BondedTotal: 500, Power: 500}
	s.SetValidator(v)
	s.SetDelegation(ledger.Delegation{Validator: v.PubKey, Delegator: addr(1), Amount: 500})
	return s
}

func newService(t *testing.T, retain int) *Service {
	t.Helper()
	svc, err := New(retain)
	require.NoError(t, err)
	return svc
}

func TestQueryBeforePublish(t *testing.T) {
	svc := newService(t, 2)
	res := svc.Query(types.StateQuery{Path: PathFeePool})
	assert.Equal(t, types.QueryNotFound, res.Code)
}

func TestQueryPaths(t *testing.T) {
	s := fixture(t)
	svc := newService(t, 2)
	snap := s.Snapshot(1)
	svc.Publish(snap)

	res := svc.Query(types.StateQuery{Path: PathBalance, Data: []byte(addr(1).String() + "/STAKE")})
	bal, err := Decode[BalanceResponse](res)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), bal.Amount)
	assert.Equal(t, uint64(1), res.Height)

	res = svc.Query(types.StateQuery{Path: PathValidator, Data: []byte(valKey(1).Identity().String())})
	v, err := Decode[ledger.Validator](res)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), v.BondedTotal)

	res = svc.Query(types.StateQuery{Path: PathDelegations, Data: []byte(addr(1).String())})
	byDelegator, err := Decode[DelegationsResponse](res)
	require.NoError(t, err)
	require.Len(t, byDelegator.Delegations, 1)

	res = svc.Query(types.StateQuery{Path: PathDelegations, Data: []byte(valKey(1).Identity().String())})
	byValidator, err := Decode[DelegationsResponse](res)
	require.NoError(t, err)
	assert.Equal(t, byDelegator, byValidator)

	res = svc.Query(types.StateQuery{Path: PathSupply, Data: []byte("STAKE")})
	supply, err := Decode[SupplyResponse](res)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), supply.Holdings.Spendable)
	assert.Equal(t, uint64(500), supply.Holdings.Bonded)

	res = svc.Query(types.StateQuery{Path: PathRoot})
	id, err := Decode[types.BlockID](res)
	require.NoError(t, err)
	assert.Equal(t, snap.Root(), id.StateRoot)
}

func TestQueryErrors(t *testing.T) {
	svc := newService(t, 2)
	svc.Publish(fixture(t).Snapshot(1))

	cases := []struct {
		name string
		req  types.StateQuery
		code uint32
	}{
		{"unknown path", types.StateQuery{Path: "/nope"}, types.QueryBadPath},
		{"bad address", types.StateQuery{Path: PathAccount, Data: []byte("zz")}, types.QueryBadData},
		{"balance without asset", types.StateQuery{Path: PathBalance, Data: []byte(addr(1).String())}, types.QueryBadData},
		{"unknown asset", types.StateQuery{Path: PathAsset, Data: []byte("GOLD")}, types.QueryNotFound},
		{"unknown validator", types.StateQuery{Path: PathValidator, Data: []byte(valKey(9).Identity().String())}, types.QueryNotFound},
		{"pruned height", types.StateQuery{Path: PathFeePool, Height: 99}, types.QueryPruned},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := svc.Query(tc.req)
			assert.Equal(t, tc.code, res.Code, res.Info)
		})
	}
}

func TestGenerationsAreRetained(t *testing.T) {
	s := fixture(t)
	svc := newService(t, 2)

	svc.Publish(s.Snapshot(1))
	require.NoError(t, s.AddBalance(addr(1), "STAKE", 1))
	svc.Publish(s.Snapshot(2))
	require.NoError(t, s.AddBalance(addr(1), "STAKE", 1))
	svc.Publish(s.Snapshot(3))

	balance := func(height uint64) types.StateQueryResult {
		return svc.Query(types.StateQuery{Path: PathBalance, Data: []byte(addr(1).String() + "/STAKE"), Height: height})
	}

	bal, err := Decode[BalanceResponse](balance(0))
	require.NoError(t, err)
	assert.Equal(t, uint64(1002), bal.Amount)

	bal, err = Decode[BalanceResponse](balance(2))
	require.NoError(t, err)
	assert.Equal(t, uint64(1001), bal.Amount, "older generation must not see later writes")

	assert.Equal(t, types.QueryPruned, balance(1).Code, "generation 1 is evicted")
}
