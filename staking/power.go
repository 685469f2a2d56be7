package staking

import (
	"sort"

	"github.com/blockberries/stakeledger/ledger"
	"github.com/blockberries/stakeledger/types"
)

// RecomputeVotingPowers selects the active set: the MaxValidators
// non-jailed validators with the largest bonded totals, ties going to
// the lower identity. Active validators get power equal to their
// bonded total, all others zero. Statuses follow the selection, jailed
// validators stay jailed. The returned delta lists every validator
// whose power changed, in identity order; power zero means removal.
func (l *Ledger) RecomputeVotingPowers(s *ledger.State) []types.ValidatorUpdate {
	var all []ledger.Validator
	s.Validators(func(v ledger.Validator) bool {
		all = append(all, v)
		return true
	})

	candidates := make([]int, 0, len(all))
	for i, v := range all {
		if v.Status != ledger.StatusJailed && v.BondedTotal > 0 {
			candidates = append(candidates, i)
		}
	}
	// all is in identity order, so a stable sort breaks ties by identity
	sort.SliceStable(candidates, func(a, b int) bool {
		return all[candidates[a]].BondedTotal > all[candidates[b]].BondedTotal
	})
	if limit := int(l.params.MaxValidators); len(candidates) > limit {
		candidates = candidates[:limit]
	}
	active := make([]bool, len(all))
	for _, i := range candidates {
		active[i] = true
	}

	var delta []types.ValidatorUpdate
	for i, v := range all {
		power, status := uint64(0), v.Status
		switch {
		case active[i]:
			power, status = v.BondedTotal, ledger.StatusBonded
		case v.Status == ledger.StatusJailed:
		case v.UnbondingTotal > 0:
			status = ledger.StatusUnbonding
		default:
			status = ledger.StatusUnbonded
		}
		if power == v.Power && status == v.Status {
			continue
		}
		if power != v.Power {
			delta = append(delta, types.ValidatorUpdate{PubKey: v.PubKey, Power: power})
		}
		v.Power, v.Status = power, status
		s.SetValidator(v)
	}
	return delta
}
