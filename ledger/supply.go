package ledger

import (
	"fmt"

	"github.com/blockberries/stakeledger/crypto"
	"github.com/blockberries/stakeledger/types"
)

// Holdings is the breakdown of where an asset's supply currently
// sits.
type Holdings struct {
	Spendable uint64 `cramberry:"1"`
	Bonded    uint64 `cramberry:"2"`
	Unbonding uint64 `cramberry:"3"`
	Rewards   uint64 `cramberry:"4"`
	FeePool   uint64 `cramberry:"5"`
}

// Total returns the sum of every bucket.
func (h Holdings) Total() (uint64, error) {
	var total uint64
	for _, v := range []uint64{h.Spendable, h.Bonded, h.Unbonding, h.Rewards, h.FeePool} {
		var err error
		if total, err = SafeAdd(total, v); err != nil {
			return 0, err
		}
	}
	return total, nil
}

// SupplyError reports a mismatch found by AuditSupply.
type SupplyError struct {
	Asset    AssetCode
	Supply   uint64
	Holdings Holdings
	Reason   string
}

func (e *SupplyError) Error() string {
	return fmt.Sprintf("supply invariant broken for %s: %s (supply=%d holdings=%+v)",
		e.Asset, e.Reason, e.Supply, e.Holdings)
}

// Holdings sums every balance of code. Staking buckets are only
// counted for the staking asset.
func (r reader) Holdings(code AssetCode) (Holdings, error) {
	var (
		h   Holdings
		err error
	)
	r.iterate([]byte{prefixBalance}, func(key string, val []byte) bool {
		if AssetCode(key[1+crypto.AddressLength:]) == code {
			h.Spendable, err = SafeAdd(h.Spendable, decodeUint(val))
		}
		return err == nil
	})
	if err != nil || code != r.Params().StakingAsset {
		return h, err
	}
	r.Validators(func(v Validator) bool {
		if h.Bonded, err = SafeAdd(h.Bonded, v.BondedTotal); err != nil {
			return false
		}
		h.Unbonding, err = SafeAdd(h.Unbonding, v.UnbondingTotal)
		return err == nil
	})
	if err != nil {
		return h, err
	}
	r.Rewards(func(_ crypto.Address, amount uint64) bool {
		h.Rewards, err = SafeAdd(h.Rewards, amount)
		return err == nil
	})
	h.FeePool = r.FeePool()
	return h, err
}

// AuditSupply verifies that every asset's recorded supply equals its
// holdings, and that each validator's totals equal the sum of its
// delegations and pending unbonding entries.
func (r reader) AuditSupply() error {
	if err := r.auditValidators(); err != nil {
		return err
	}
	var err error
	r.Assets(func(a Asset) bool {
		var h Holdings
		if h, err = r.Holdings(a.Code); err != nil {
			err = &SupplyError{Asset: a.Code, Supply: a.Supply, Holdings: h, Reason: err.Error()}
			return false
		}
		total, terr := h.Total()
		switch {
		case terr != nil:
			err = &SupplyError{Asset: a.Code, Supply: a.Supply, Holdings: h, Reason: terr.Error()}
		case total != a.Supply:
			err = &SupplyError{Asset: a.Code, Supply: a.Supply, Holdings: h, Reason: "holdings differ from supply"}
		case a.MaxUnits != 0 && a.Supply > a.MaxUnits:
			err = &SupplyError{Asset: a.Code, Supply: a.Supply, Holdings: h, Reason: "supply exceeds max units"}
		}
		return err == nil
	})
	return err
}

func (r reader) auditValidators() error {
	unbonding := make(map[types.Identity]uint64)
	var err error
	r.Unbondings(func(e UnbondingEntry) bool {
		id := e.Validator.Identity()
		if _, ok := r.Validator(id); !ok {
			err = fmt.Errorf("unbonding entry of %d for unknown validator %s", e.Amount, id)
			return false
		}
		unbonding[id], err = SafeAdd(unbonding[id], e.Amount)
		return err == nil
	})
	if err != nil {
		return err
	}
	r.Validators(func(v Validator) bool {
		id := v.Identity()
		var bonded uint64
		r.Delegations(id, func(d Delegation) bool {
			bonded, err = SafeAdd(bonded, d.Amount)
			return err == nil
		})
		switch {
		case err != nil:
		case bonded != v.BondedTotal:
			err = fmt.Errorf("validator %s bonded total %d, delegations sum %d", id, v.BondedTotal, bonded)
		case unbonding[id] != v.UnbondingTotal:
			err = fmt.Errorf("validator %s unbonding total %d, entries sum %d", id, v.UnbondingTotal, unbonding[id])
		}
		return err == nil
	})
	return err
}
