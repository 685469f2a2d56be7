package staking

import (
	"fmt"

	"github.com/blockberries/stakeledger/ledger"
	"github.com/blockberries/stakeledger/types"
)

// SlashResult describes the effect of one slash.
type SlashResult struct {
	Validator types.Identity
	Burned    uint64
	Jailed    bool
}

// FractionFor returns the slash fraction in basis points for an
// evidence type.
func (l *Ledger) FractionFor(t types.EvidenceType) (uint32, bool) {
	switch t {
	case types.EvidenceTypeDuplicateVote:
		return l.params.DoubleSignSlashBps, true
	case types.EvidenceTypeLightClient:
		return l.params.LightClientSlashBps, true
	default:
		return 0, false
	}
}

// Slash cuts every delegation to validator id by floor(amount*bps/10000)
// and burns the total from the staking asset supply. Unbonding
// entries are not touched. The validator is jailed until
// height+JailPeriod when bps reaches the jail threshold. The
// infraction at evidenceHeight is recorded so it is never punished
// twice.
func (l *Ledger) Slash(s *ledger.State, id types.Identity, bps uint32, evidenceHeight, height uint64) (SlashResult, error) {
	res := SlashResult{Validator: id}
	if bps > ledger.BpsDenominator {
		return res, fmt.Errorf("slash fraction %d bps above 100%%", bps)
	}
	v, ok := s.Validator(id)
	if !ok {
		return res, fmt.Errorf("%w: %s", ErrUnknownValidator, id)
	}

	var cuts []ledger.Delegation
	var err error
	s.Delegations(id, func(d ledger.Delegation) bool {
		var cut uint64
		if cut, err = bpsOf(d.Amount, bps); err != nil {
			return false
		}
		if cut > 0 {
			d.Amount -= cut
			cuts = append(cuts, d)
			res.Burned, err = ledger.SafeAdd(res.Burned, cut)
		}
		return err == nil
	})
	if err != nil {
		return res, err
	}
	if res.Burned > v.BondedTotal {
		return res, fmt.Errorf("validator %s slash %d exceeds bonded %d", id, res.Burned, v.BondedTotal)
	}

	asset, ok := s.Asset(l.params.StakingAsset)
	if !ok {
		return res, fmt.Errorf("staking asset %s not defined", l.params.StakingAsset)
	}
	if asset.Supply, err = ledger.SafeSub(asset.Supply, res.Burned); err != nil {
		return res, fmt.Errorf("burn %d from supply %d: %w", res.Burned, asset.Supply, err)
	}
	for _, d := range cuts {
		s.SetDelegation(d)
	}
	v.BondedTotal -= res.Burned
	if bps >= l.params.JailThresholdBps {
		v.Status = ledger.StatusJailed
		if v.JailedUntil, err = ledger.SafeAdd(height, l.params.JailPeriod); err != nil {
			return res, err
		}
		res.Jailed = true
	}
	s.SetValidator(v)
	s.SetAsset(asset)
	s.MarkEvidence(id, evidenceHeight, height)

	l.log.Info("slashed validator",
		"validator", id,
		"bps", bps,
		"burned", res.Burned,
		"jailed", res.Jailed,
		"evidence_height", evidenceHeight)
	return res, nil
}
