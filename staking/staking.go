// Package staking implements the proof-of-stake bookkeeping on top of
// the ledger state: bonding, unbonding, slashing, reward distribution
// and the selection of the active validator set.
//
// Every pass over validators or delegations follows the canonical
// key order of the ledger, so results are identical on every node.
package staking

import (
	"fmt"
	"log/slog"

	"github.com/blockberries/stakeledger/crypto"
	"github.com/blockberries/stakeledger/ledger"
	"github.com/blockberries/stakeledger/types"
)

// Ledger applies staking rules under fixed chain parameters.
type Ledger struct {
	params ledger.Params
	log    *slog.Logger
}

// New returns a staking ledger for params.
func New(params ledger.Params, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{params: params, log: logger.With("pkg", "staking")}
}

// Params returns the chain parameters in force.
func (l *Ledger) Params() ledger.Params { return l.params }

// CreateValidator registers a validator operated by operator and
// bonds selfBond to it from the operator's spendable balance.
func (l *Ledger) CreateValidator(s *ledger.State, operator crypto.Address, pk types.PublicKey,
	commissionBps uint32, memo ledger.ValidatorMemo, selfBond uint64, height uint64) error {
	id := pk.Identity()
	if _, ok := s.Validator(id); ok {
		return fmt.Errorf("%w: %s", ErrValidatorExists, id)
	}
	if commissionBps > l.params.MaxCommissionBps {
		return fmt.Errorf("%w: commission %d bps above max %d", ErrInvalidStakeAmount, commissionBps, l.params.MaxCommissionBps)
	}
	if s.Balance(operator, l.params.StakingAsset) < selfBond {
		return fmt.Errorf("%w: self bond %d", ledger.ErrInsufficientBalance, selfBond)
	}
	if selfBond < l.params.MinBond {
		return fmt.Errorf("%w: self bond %d below minimum %d", ErrInvalidStakeAmount, selfBond, l.params.MinBond)
	}
	s.SetValidator(ledger.Validator{
		PubKey:        pk,
		Operator:      operator,
		Status:        ledger.StatusUnbonded,
		CommissionBps: commissionBps,
		Memo:          memo,
		CreatedHeight: height,
	})
	return l.Bond(s, operator, id, selfBond)
}

// UpdateValidator changes the commission, memo or jail status of a
// validator on behalf of its operator. A nil memo keeps the current
// one.
func (l *Ledger) UpdateValidator(s *ledger.State, operator crypto.Address, id types.Identity,
	commissionBps *uint32, memo *ledger.ValidatorMemo, unjail bool, height uint64) error {
	v, ok := s.Validator(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownValidator, id)
	}
	if v.Operator != operator {
		return fmt.Errorf("%w: %s", ErrNotOperator, id)
	}
	if commissionBps != nil {
		if *commissionBps > l.params.MaxCommissionBps {
			return fmt.Errorf("%w: commission %d bps above max %d", ErrInvalidStakeAmount, *commissionBps, l.params.MaxCommissionBps)
		}
		v.CommissionBps = *commissionBps
	}
	if memo != nil {
		v.Memo = *memo
	}
	if unjail {
		if v.Status != ledger.StatusJailed {
			return fmt.Errorf("%w: validator %s is not jailed", ErrInvalidStakeAmount, id)
		}
		if height < v.JailedUntil {
			return fmt.Errorf("%w: validator %s jailed until %d", ErrInvalidStakeAmount, id, v.JailedUntil)
		}
		v.Status = ledger.StatusUnbonded
		v.JailedUntil = 0
	}
	s.SetValidator(v)
	return nil
}

// Bond moves amount of the staking asset from delegator's spendable
// balance into a delegation to validator id.
func (l *Ledger) Bond(s *ledger.State, delegator crypto.Address, id types.Identity, amount uint64) error {
	asset := l.params.StakingAsset
	if s.Balance(delegator, asset) < amount {
		return fmt.Errorf("%w: bond %d", ledger.ErrInsufficientBalance, amount)
	}
	if amount < l.params.MinBond {
		return fmt.Errorf("%w: bond %d below minimum %d", ErrInvalidStakeAmount, amount, l.params.MinBond)
	}
	v, ok := s.Validator(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownValidator, id)
	}
	if v.Status == ledger.StatusJailed {
		return fmt.Errorf("%w: validator %s is jailed", ErrInvalidStakeAmount, id)
	}

	d, _ := s.Delegation(id, delegator)
	d.Validator, d.Delegator = v.PubKey, delegator
	var err error
	if d.Amount, err = ledger.SafeAdd(d.Amount, amount); err != nil {
		return err
	}
	if v.BondedTotal, err = ledger.SafeAdd(v.BondedTotal, amount); err != nil {
		return err
	}
	if err := s.SubBalance(delegator, asset, amount); err != nil {
		return err
	}
	s.SetDelegation(d)
	s.SetValidator(v)
	return nil
}

// Unbond removes amount from the delegation of delegator to id and
// queues it for release at height+UnbondingPeriod. A zero amount
// unbonds the whole delegation. The returned entry is the queued
// entry after merging with any entry maturing at the same height.
func (l *Ledger) Unbond(s *ledger.State, delegator crypto.Address, id types.Identity, amount, height uint64) (ledger.UnbondingEntry, error) {
	v, ok := s.Validator(id)
	if !ok {
		return ledger.UnbondingEntry{}, fmt.Errorf("%w: %s", ErrUnknownValidator, id)
	}
	d, ok := s.Delegation(id, delegator)
	if !ok {
		return ledger.UnbondingEntry{}, fmt.Errorf("%w: no delegation to %s", ledger.ErrInsufficientBalance, id)
	}
	if amount == 0 {
		amount = d.Amount
	}
	if amount > d.Amount {
		return ledger.UnbondingEntry{}, fmt.Errorf("%w: unbond %d exceeds bonded %d", ledger.ErrInsufficientBalance, amount, d.Amount)
	}

	maturity, err := ledger.SafeAdd(height, l.params.UnbondingPeriod)
	if err != nil {
		return ledger.UnbondingEntry{}, err
	}
	e, ok := s.UnbondingEntry(maturity, id, delegator)
	if !ok {
		e = ledger.UnbondingEntry{
			Validator:      v.PubKey,
			Delegator:      delegator,
			CreationHeight: height,
			MaturityHeight: maturity,
		}
	}
	if e.Amount, err = ledger.SafeAdd(e.Amount, amount); err != nil {
		return ledger.UnbondingEntry{}, err
	}
	if v.UnbondingTotal, err = ledger.SafeAdd(v.UnbondingTotal, amount); err != nil {
		return ledger.UnbondingEntry{}, err
	}
	d.Amount -= amount
	v.BondedTotal -= amount

	s.SetDelegation(d)
	s.SetValidator(v)
	s.SetUnbondingEntry(e)
	return e, nil
}

// ClaimReward moves amount of accumulated rewards of addr into its
// spendable balance. A zero amount claims everything. It returns the
// amount claimed.
func (l *Ledger) ClaimReward(s *ledger.State, addr crypto.Address, amount uint64) (uint64, error) {
	avail := s.Reward(addr)
	if amount == 0 {
		amount = avail
	}
	if amount == 0 || amount > avail {
		return 0, fmt.Errorf("%w: claim %d of %d available", ledger.ErrInsufficientBalance, amount, avail)
	}
	if err := s.AddBalance(addr, l.params.StakingAsset, amount); err != nil {
		return 0, err
	}
	s.SetReward(addr, avail-amount)
	return amount, nil
}

// MatureUnbondings releases every unbonding entry due at height back
// to its delegator's spendable balance. Each entry is deleted as it
// is paid. An error means the state is inconsistent.
func (l *Ledger) MatureUnbondings(s *ledger.State, height uint64) ([]ledger.UnbondingEntry, error) {
	due := s.DueUnbondings(height)
	for _, e := range due {
		id := e.Validator.Identity()
		v, ok := s.Validator(id)
		if !ok {
			return nil, fmt.Errorf("unbonding entry for unknown validator %s", id)
		}
		if e.Amount > v.UnbondingTotal {
			return nil, fmt.Errorf("validator %s unbonding total %d below entry %d", id, v.UnbondingTotal, e.Amount)
		}
		if err := s.AddBalance(e.Delegator, l.params.StakingAsset, e.Amount); err != nil {
			return nil, err
		}
		v.UnbondingTotal -= e.Amount
		s.SetValidator(v)
		s.DeleteUnbondingEntry(e)
	}
	if len(due) > 0 {
		l.log.Debug("matured unbondings", "height", height, "entries", len(due))
	}
	return due, nil
}

// Prune deletes validators that carry no stake, hold no voting power
// and are not serving a jail term. It returns the pruned identities.
func (l *Ledger) Prune(s *ledger.State, height uint64) []types.Identity {
	var pruned []types.Identity
	s.Validators(func(v ledger.Validator) bool {
		if v.Prunable() && v.Power == 0 && (v.Status != ledger.StatusJailed || height >= v.JailedUntil) {
			pruned = append(pruned, v.Identity())
		}
		return true
	})
	for _, id := range pruned {
		s.DeleteValidator(id)
	}
	return pruned
}
