package query

import (
	"fmt"

	"github.com/blockberries/cramberry/pkg/cramberry"

	"github.com/blockberries/stakeledger/crypto"
	"github.com/blockberries/stakeledger/ledger"
	"github.com/blockberries/stakeledger/types"
)

// BalanceResponse answers PathBalance.
type BalanceResponse struct {
	Address crypto.Address   `cramberry:"1"`
	Asset   ledger.AssetCode `cramberry:"2"`
	Amount  uint64           `cramberry:"3"`
}

// SupplyResponse answers PathSupply.
type SupplyResponse struct {
	Asset    ledger.AssetCode `cramberry:"1"`
	Supply   uint64           `cramberry:"2"`
	Holdings ledger.Holdings  `cramberry:"3"`
}

// ValidatorsResponse answers PathValidators, in identity order.
type ValidatorsResponse struct {
	Validators []ledger.Validator `cramberry:"1"`
}

// DelegationsResponse answers PathDelegations.
type DelegationsResponse struct {
	Delegations []ledger.Delegation `cramberry:"1"`
}

// UnbondingsResponse answers PathUnbondings, in maturity order.
type UnbondingsResponse struct {
	Entries []ledger.UnbondingEntry `cramberry:"1"`
}

// RewardResponse answers PathRewards.
type RewardResponse struct {
	Address crypto.Address `cramberry:"1"`
	Amount  uint64         `cramberry:"2"`
}

// AmountResponse answers PathFeePool.
type AmountResponse struct {
	Amount uint64 `cramberry:"1"`
}

// Decode unpacks the value of a successful query result.
func Decode[T any](res types.StateQueryResult) (T, error) {
	var v T
	if res.Code != types.QueryOK {
		return v, fmt.Errorf("query failed with code %d: %s", res.Code, res.Info)
	}
	if err := cramberry.Unmarshal(res.Value, &v); err != nil {
		return v, fmt.Errorf("decode %T: %w", v, err)
	}
	return v, nil
}
