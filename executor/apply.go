package executor

import (
	"fmt"

	"github.com/blockberries/stakeledger/crypto"
	"github.com/blockberries/stakeledger/ledger"
	"github.com/blockberries/stakeledger/tx"
	"github.com/blockberries/stakeledger/types"
)

// apply runs one operation. The switch is exhaustive over tx.Op.
func (e *Executor) apply(s *ledger.State, sender crypto.Address, op tx.Op, height uint64) ([]types.Event, error) {
	switch op := op.(type) {
	case tx.Transfer:
		return e.transfer(s, sender, op)
	case tx.DefineAsset:
		return e.defineAsset(s, sender, op)
	case tx.IssueAsset:
		return e.issueAsset(s, sender, op)
	case tx.CreateValidator:
		if err := e.staking.CreateValidator(s, sender, op.PubKey, op.CommissionBps, op.Memo, op.SelfBond, height); err != nil {
			return nil, err
		}
		return []types.Event{types.NewEvent("create_validator",
			"validator", op.PubKey.Identity().String(),
			"operator", sender.String(),
			"self_bond", types.Uint(op.SelfBond))}, nil
	case tx.Bond:
		if err := e.staking.Bond(s, sender, op.Validator.Identity(), op.Amount); err != nil {
			return nil, err
		}
		return []types.Event{types.NewEvent("bond",
			"validator", op.Validator.Identity().String(),
			"delegator", sender.String(),
			"amount", types.Uint(op.Amount))}, nil
	case tx.Unbond:
		entry, err := e.staking.Unbond(s, sender, op.Validator.Identity(), op.Amount, height)
		if err != nil {
			return nil, err
		}
		return []types.Event{types.NewEvent("unbond",
			"validator", op.Validator.Identity().String(),
			"delegator", sender.String(),
			"amount", types.Uint(entry.Amount),
			"maturity_height", types.Uint(entry.MaturityHeight))}, nil
	case tx.ClaimReward:
		claimed, err := e.staking.ClaimReward(s, sender, op.Amount)
		if err != nil {
			return nil, err
		}
		return []types.Event{types.NewEvent("claim_reward",
			"address", sender.String(),
			"amount", types.Uint(claimed))}, nil
	case tx.UpdateValidator:
		var rate *uint32
		if op.SetCommission {
			rate = &op.CommissionBps
		}
		var memo *ledger.ValidatorMemo
		if op.SetMemo {
			memo = &op.Memo
		}
		if err := e.staking.UpdateValidator(s, sender, op.Validator.Identity(), rate, memo, op.Unjail, height); err != nil {
			return nil, err
		}
		return []types.Event{types.NewEvent("update_validator",
			"validator", op.Validator.Identity().String())}, nil
	default:
		panic(fmt.Sprintf("executor: unhandled operation %T", op))
	}
}

func (e *Executor) transfer(s *ledger.State, sender crypto.Address, op tx.Transfer) ([]types.Event, error) {
	asset, ok := s.Asset(op.Asset)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errUnknownAsset, op.Asset)
	}
	if !asset.Transferable && sender != asset.Issuer {
		return nil, fmt.Errorf("%w: %s", errNotTransferable, op.Asset)
	}
	if err := s.SubBalance(sender, op.Asset, op.Amount); err != nil {
		return nil, fmt.Errorf("transfer %d %s: %w", op.Amount, op.Asset, err)
	}
	if err := s.AddBalance(op.To, op.Asset, op.Amount); err != nil {
		return nil, err
	}
	return []types.Event{types.NewEvent("transfer",
		"sender", sender.String(),
		"recipient", op.To.String(),
		"asset", string(op.Asset),
		"amount", types.Uint(op.Amount))}, nil
}

func (e *Executor) defineAsset(s *ledger.State, sender crypto.Address, op tx.DefineAsset) ([]types.Event, error) {
	if _, ok := s.Asset(op.Code); ok {
		return nil, fmt.Errorf("%w: %s", errAssetExists, op.Code)
	}
	s.SetAsset(ledger.Asset{
		Code:         op.Code,
		Issuer:       sender,
		Decimals:     op.Decimals,
		MaxUnits:     op.MaxUnits,
		Transferable: op.Transferable,
		Memo:         op.Memo,
	})
	return []types.Event{types.NewEvent("define_asset",
		"asset", string(op.Code),
		"issuer", sender.String())}, nil
}

func (e *Executor) issueAsset(s *ledger.State, sender crypto.Address, op tx.IssueAsset) ([]types.Event, error) {
	asset, ok := s.Asset(op.Code)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errUnknownAsset, op.Code)
	}
	if asset.Issuer != sender {
		return nil, fmt.Errorf("%w: %s", errNotIssuer, op.Code)
	}
	supply, err := ledger.SafeAdd(asset.Supply, op.Amount)
	if err != nil {
		return nil, err
	}
	if asset.MaxUnits != 0 && supply > asset.MaxUnits {
		return nil, fmt.Errorf("%w: %d > %d", errMaxUnits, supply, asset.MaxUnits)
	}
	if err := s.AddBalance(op.To, op.Code, op.Amount); err != nil {
		return nil, err
	}
	asset.Supply = supply
	s.SetAsset(asset)
	return []types.Event{types.NewEvent("issue_asset",
		"asset", string(op.Code),
		"recipient", op.To.String(),
		"amount", types.Uint(op.Amount))}, nil
}
