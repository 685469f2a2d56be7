package chain

import (
	"context"
	"fmt"

	"github.com/blockberries/stakeledger/config"
	"github.com/blockberries/stakeledger/crypto"
	"github.com/blockberries/stakeledger/ledger"
	"github.com/blockberries/stakeledger/types"
)

// InitChain applies the YAML genesis document in req.AppState to an
// empty store and commits it at InitialHeight-1. Panics if the chain
// already holds committed state.
func (a *App) InitChain(_ context.Context, req types.InitChainRequest) (types.InitChainResponse, error) {
	a.expect("InitChain", phaseIdle)
	if a.queries.Latest() != nil {
		panic("stakeledger: InitChain called on an initialized chain")
	}

	g, err := config.ParseGenesis(req.AppState)
	if err != nil {
		return types.InitChainResponse{}, err
	}
	if req.ChainID != "" && req.ChainID != g.ChainID {
		return types.InitChainResponse{}, fmt.Errorf("genesis chain id %q does not match %q", g.ChainID, req.ChainID)
	}

	height := g.InitialHeight - 1
	eng := a.bind(g.Params.LedgerParams(g.ChainID))
	s, err := applyGenesis(eng, g, height)
	if err != nil {
		return types.InitChainResponse{}, fmt.Errorf("apply genesis: %w", err)
	}

	updates := eng.staking.RecomputeVotingPowers(s)
	if err := s.AuditSupply(); err != nil {
		return types.InitChainResponse{}, fmt.Errorf("genesis: %w", err)
	}
	snap, err := ledger.Commit(a.store, s, height)
	if err != nil {
		return types.InitChainResponse{}, a.halt(height, "commit genesis: %v", err)
	}
	a.queries.Publish(snap)

	a.log.Info("initialized chain",
		"chain_id", g.ChainID,
		"height", height,
		"validators", len(updates),
		"root", snap.Root())
	return types.InitChainResponse{
		Validators: updates,
		StateRoot:  snap.Root(),
		Height:     height,
	}, nil
}

// applyGenesis builds the genesis state. Asset supplies are the sums
// of the genesis balances; validators self-bond from their operators'
// balances.
func applyGenesis(eng *engine, g *config.Genesis, height uint64) (*ledger.State, error) {
	s := ledger.New()
	s.SetParams(eng.params)

	for _, ga := range g.Assets {
		asset := ledger.Asset{
			Code:         ledger.AssetCode(ga.Code),
			Decimals:     ga.Decimals,
			MaxUnits:     ga.MaxUnits,
			Transferable: ga.Transferable,
			Memo:         ga.Memo,
		}
		if ga.Issuer != "" {
			issuer, err := crypto.ParseAddress(ga.Issuer)
			if err != nil {
				return nil, err
			}
			asset.Issuer = issuer
		}
		s.SetAsset(asset)
	}

	for i, gb := range g.Balances {
		addr, err := crypto.ParseAddress(gb.Address)
		if err != nil {
			return nil, err
		}
		code := ledger.AssetCode(gb.Asset)
		asset, _ := s.Asset(code)
		if asset.Supply, err = ledger.SafeAdd(asset.Supply, gb.Amount); err != nil {
			return nil, fmt.Errorf("balances[%d]: %w", i, err)
		}
		if asset.MaxUnits != 0 && asset.Supply > asset.MaxUnits {
			return nil, fmt.Errorf("balances[%d]: %s supply %d exceeds max units %d", i, code, asset.Supply, asset.MaxUnits)
		}
		if err := s.AddBalance(addr, code, gb.Amount); err != nil {
			return nil, fmt.Errorf("balances[%d]: %w", i, err)
		}
		s.SetAsset(asset)
	}

	for i, gv := range g.Validators {
		pk, err := gv.Key()
		if err != nil {
			return nil, err
		}
		operator, err := crypto.ParseAddress(gv.Operator)
		if err != nil {
			return nil, err
		}
		memo := ledger.ValidatorMemo{Moniker: gv.Moniker}
		if err := eng.staking.CreateValidator(s, operator, pk, gv.CommissionBps, memo, gv.SelfBond, height); err != nil {
			return nil, fmt.Errorf("validators[%d]: %w", i, err)
		}
	}
	return s, nil
}
