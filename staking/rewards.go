package staking

import (
	"github.com/blockberries/stakeledger/crypto"
	"github.com/blockberries/stakeledger/ledger"
	"github.com/blockberries/stakeledger/types"
)

// ValidatorReward is one validator's part of an epoch distribution.
type ValidatorReward struct {
	Validator  types.Identity
	Reward     uint64
	Commission uint64
}

// Distribution is the outcome of DistributeRewards.
type Distribution struct {
	Pool        uint64
	Distributed uint64
	Validators  []ValidatorReward
}

// DistributeRewards pays the whole epoch fee pool out to the active
// validators, in proportion to their voting power. Each validator's
// reward first pays commission to its operator; the rest is split
// across its delegations in proportion to their amounts. Both splits
// use largest remainder apportionment so nothing is lost to rounding.
// All payouts land in reward records. When no validator holds power
// the pool carries over to the next epoch.
func (l *Ledger) DistributeRewards(s *ledger.State) (Distribution, error) {
	dist := Distribution{Pool: s.FeePool()}
	if dist.Pool == 0 {
		return dist, nil
	}

	var active []ledger.Validator
	s.Validators(func(v ledger.Validator) bool {
		if v.Status == ledger.StatusBonded && v.Power > 0 {
			active = append(active, v)
		}
		return true
	})
	if len(active) == 0 {
		l.log.Info("no active validators, fee pool carried over", "pool", dist.Pool)
		return dist, nil
	}

	powers := make([]uint64, len(active))
	for i, v := range active {
		powers[i] = v.Power
	}
	shares, err := apportion(dist.Pool, powers)
	if err != nil {
		return dist, err
	}

	for i, v := range active {
		vr, err := l.payValidator(s, v, shares[i])
		if err != nil {
			return dist, err
		}
		dist.Validators = append(dist.Validators, vr)
		dist.Distributed += shares[i]
	}
	if dist.Distributed != dist.Pool {
		panic("staking: reward apportionment lost units")
	}
	s.SetFeePool(0)

	l.log.Info("distributed epoch rewards", "pool", dist.Pool, "validators", len(active))
	return dist, nil
}

func (l *Ledger) payValidator(s *ledger.State, v ledger.Validator, reward uint64) (ValidatorReward, error) {
	vr := ValidatorReward{Validator: v.Identity(), Reward: reward}
	if reward == 0 {
		return vr, nil
	}
	commission, err := bpsOf(reward, v.CommissionBps)
	if err != nil {
		return vr, err
	}
	vr.Commission = commission

	var (
		delegators []crypto.Address
		amounts    []uint64
	)
	s.Delegations(vr.Validator, func(d ledger.Delegation) bool {
		delegators = append(delegators, d.Delegator)
		amounts = append(amounts, d.Amount)
		return true
	})
	rest := reward - commission
	if len(delegators) == 0 {
		commission, rest = reward, 0
	}
	parts, err := apportion(rest, amounts)
	if err != nil {
		return vr, err
	}

	if err := credit(s, v.Operator, commission); err != nil {
		return vr, err
	}
	for i, addr := range delegators {
		if err := credit(s, addr, parts[i]); err != nil {
			return vr, err
		}
	}
	return vr, nil
}

func credit(s *ledger.State, addr crypto.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	total, err := ledger.SafeAdd(s.Reward(addr), amount)
	if err != nil {
		return err
	}
	s.SetReward(addr, total)
	return nil
}
