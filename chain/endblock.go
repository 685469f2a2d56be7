package chain

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/blockberries/stakeledger/ledger"
	"github.com/blockberries/stakeledger/types"
)

// blockEffects accumulates what EndBlock did, for events and metrics.
type blockEffects struct {
	events  []types.Event
	burned  uint64
	matured uint64
	rewards uint64
}

// EndBlock applies the block-boundary rules in a single canonical
// pass: slashing, unbonding maturity, epoch rewards, pruning and
// voting power recomputation. It returns the validator set delta.
func (a *App) EndBlock(_ context.Context, height uint64) (types.EndBlockResult, error) {
	a.expect("EndBlock", phaseOpen)
	if height != a.height {
		panic(fmt.Sprintf("stakeledger: EndBlock(%d) does not match open block %d", height, a.height))
	}
	eng := a.engine.Load()
	s := a.working
	var fx blockEffects

	for _, ev := range sortEvidence(a.evidence) {
		if err := a.punish(eng, s, ev, &fx); err != nil {
			return types.EndBlockResult{}, a.halt(height, "slash %s: %v", ev.Validator.Identity(), err)
		}
	}

	matured, err := eng.staking.MatureUnbondings(s, height)
	if err != nil {
		return types.EndBlockResult{}, a.halt(height, "mature unbondings: %v", err)
	}
	for _, e := range matured {
		fx.matured += e.Amount
		fx.events = append(fx.events, types.NewEvent("unbonding_matured",
			"validator", e.Validator.Identity().String(),
			"delegator", e.Delegator.String(),
			"amount", types.Uint(e.Amount)))
	}

	if height%eng.params.EpochLength == 0 {
		dist, err := eng.staking.DistributeRewards(s)
		if err != nil {
			return types.EndBlockResult{}, a.halt(height, "distribute rewards: %v", err)
		}
		fx.rewards = dist.Distributed
		for _, vr := range dist.Validators {
			fx.events = append(fx.events, types.NewEvent("rewards",
				"validator", vr.Validator.String(),
				"amount", types.Uint(vr.Reward),
				"commission", types.Uint(vr.Commission)))
		}
	}

	for _, id := range eng.staking.Prune(s, height) {
		fx.events = append(fx.events, types.NewEvent("validator_pruned", "validator", id.String()))
	}

	updates := eng.staking.RecomputeVotingPowers(s)

	if a.audit {
		if err := s.AuditSupply(); err != nil {
			return types.EndBlockResult{}, a.halt(height, "%v", err)
		}
	}

	a.observe(s, len(updates), fx)
	a.phase = phaseClosing
	return types.EndBlockResult{ValidatorUpdates: updates, Events: fx.events}, nil
}

// punish slashes the validator named by ev unless the evidence is
// unusable: unknown type, from the future, older than MaxEvidenceAge,
// against an unknown validator or already punished.
func (a *App) punish(eng *engine, s *ledger.State, ev types.Evidence, fx *blockEffects) error {
	id := ev.Validator.Identity()
	skip := func(reason string) error {
		a.log.Info("ignoring evidence",
			"validator", id,
			"type", ev.Type,
			"height", ev.Height,
			"reason", reason)
		return nil
	}

	bps, ok := eng.staking.FractionFor(ev.Type)
	switch {
	case !ok:
		return skip("unknown evidence type")
	case ev.Height > a.height:
		return skip("evidence from the future")
	case a.height-ev.Height > eng.params.MaxEvidenceAge:
		return skip("expired")
	case s.HasEvidence(id, ev.Height):
		return skip("already punished")
	}
	if _, ok := s.Validator(id); !ok {
		return skip("unknown validator")
	}

	res, err := eng.staking.Slash(s, id, bps, ev.Height, a.height)
	if err != nil {
		return err
	}
	fx.burned += res.Burned
	fx.events = append(fx.events, types.NewEvent("slash",
		"validator", id.String(),
		"type", ev.Type.String(),
		"infraction_height", types.Uint(ev.Height),
		"burned", types.Uint(res.Burned),
		"jailed", fmt.Sprint(res.Jailed),
		"total_voting_power", types.Uint(ev.TotalVotingPower)))
	return nil
}

// sortEvidence orders evidence by validator identity, then infraction
// height, then type.
func sortEvidence(evidence []types.Evidence) []types.Evidence {
	sorted := append([]types.Evidence(nil), evidence...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if c := bytes.Compare(a.Validator.Identity().Bytes(), b.Validator.Identity().Bytes()); c != 0 {
			return c < 0
		}
		if a.Height != b.Height {
			return a.Height < b.Height
		}
		return a.Type < b.Type
	})
	return sorted
}

func (a *App) observe(s *ledger.State, updates int, fx blockEffects) {
	if a.metrics == nil {
		return
	}
	var (
		active int
		bonded uint64
	)
	s.Validators(func(v ledger.Validator) bool {
		if v.Power > 0 {
			active++
			bonded += v.Power
		}
		return true
	})
	a.metrics.ObserveEndBlock(updates, active, bonded, fx.burned, fx.rewards, fx.matured)
}
