// Package query serves reads of committed ledger state.
//
// Every Commit publishes an immutable snapshot. Readers pick a
// snapshot with a single atomic load and never observe a block that
// is still being executed. A bounded number of recent generations is
// retained for height-pinned queries.
package query

import (
	"encoding/hex"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/blockberries/cramberry/pkg/cramberry"
	lru "github.com/hashicorp/golang-lru"

	"github.com/blockberries/stakeledger/crypto"
	"github.com/blockberries/stakeledger/ledger"
	"github.com/blockberries/stakeledger/types"
)

// Query paths.
const (
	PathAccount     types.QueryPath = "/account"
	PathBalance     types.QueryPath = "/balance"
	PathAsset       types.QueryPath = "/asset"
	PathSupply      types.QueryPath = "/supply"
	PathValidators  types.QueryPath = "/validators"
	PathValidator   types.QueryPath = "/validator"
	PathDelegations types.QueryPath = "/delegations"
	PathUnbondings  types.QueryPath = "/unbondings"
	PathRewards     types.QueryPath = "/rewards"
	PathFeePool     types.QueryPath = "/fee_pool"
	PathParams      types.QueryPath = "/params"
	PathRoot        types.QueryPath = "/root"
)

// DefaultRetain is the number of generations kept when none is
// configured.
const DefaultRetain = 16

// Service publishes committed snapshots and answers queries
// against them. It is safe for concurrent use.
type Service struct {
	latest      atomic.Pointer[ledger.Snapshot]
	generations *lru.Cache
}

// New creates a service retaining the last retain generations.
func New(retain int) (*Service, error) {
	if retain <= 0 {
		retain = DefaultRetain
	}
	cache, err := lru.New(retain)
	if err != nil {
		return nil, err
	}
	return &Service{generations: cache}, nil
}

// Publish makes snap the latest committed generation.
func (s *Service) Publish(snap *ledger.Snapshot) {
	s.generations.Add(snap.Height(), snap)
	s.latest.Store(snap)
}

// Latest returns the latest committed generation, or nil before
// the first Publish.
func (s *Service) Latest() *ledger.Snapshot {
	return s.latest.Load()
}

// At returns the generation committed at height, if still retained.
// Height 0 selects the latest.
func (s *Service) At(height uint64) (*ledger.Snapshot, bool) {
	if latest := s.latest.Load(); latest != nil && (height == 0 || height == latest.Height()) {
		return latest, true
	}
	if height == 0 {
		return nil, false
	}
	v, ok := s.generations.Get(height)
	if !ok {
		return nil, false
	}
	return v.(*ledger.Snapshot), true
}

// Query answers req against the selected generation.
func (s *Service) Query(req types.StateQuery) types.StateQueryResult {
	snap, ok := s.At(req.Height)
	if !ok {
		if s.latest.Load() == nil {
			return types.StateQueryResult{Code: types.QueryNotFound, Info: "no committed state"}
		}
		return types.StateQueryResult{
			Code:   types.QueryPruned,
			Height: req.Height,
			Info:   fmt.Sprintf("height %d is not retained", req.Height),
		}
	}

	res := types.StateQueryResult{Key: req.Data, Height: snap.Height()}
	v, code, err := route(snap, req.Path, string(req.Data))
	if err != nil {
		res.Code = code
		res.Info = err.Error()
		return res
	}
	b, err := cramberry.Marshal(v)
	if err != nil {
		res.Code = types.QueryBadData
		res.Info = err.Error()
		return res
	}
	res.Value = b
	return res
}

func route(snap *ledger.Snapshot, path types.QueryPath, data string) (any, uint32, error) {
	switch path {
	case PathAccount:
		addr, err := crypto.ParseAddress(data)
		if err != nil {
			return nil, types.QueryBadData, err
		}
		return snap.Account(addr), types.QueryOK, nil

	case PathBalance:
		addrHex, code, ok := strings.Cut(data, "/")
		if !ok {
			return nil, types.QueryBadData, fmt.Errorf("expected <address>/<asset>, got %q", data)
		}
		addr, err := crypto.ParseAddress(addrHex)
		if err != nil {
			return nil, types.QueryBadData, err
		}
		return BalanceResponse{
			Address: addr,
			Asset:   ledger.AssetCode(code),
			Amount:  snap.Balance(addr, ledger.AssetCode(code)),
		}, types.QueryOK, nil

	case PathAsset:
		a, ok := snap.Asset(ledger.AssetCode(data))
		if !ok {
			return nil, types.QueryNotFound, fmt.Errorf("unknown asset %q", data)
		}
		return a, types.QueryOK, nil

	case PathSupply:
		a, ok := snap.Asset(ledger.AssetCode(data))
		if !ok {
			return nil, types.QueryNotFound, fmt.Errorf("unknown asset %q", data)
		}
		h, err := snap.Holdings(a.Code)
		if err != nil {
			return nil, types.QueryBadData, err
		}
		return SupplyResponse{Asset: a.Code, Supply: a.Supply, Holdings: h}, types.QueryOK, nil

	case PathValidators:
		var out ValidatorsResponse
		snap.Validators(func(v ledger.Validator) bool {
			out.Validators = append(out.Validators, v)
			return true
		})
		return out, types.QueryOK, nil

	case PathValidator:
		id, err := parseIdentity(data)
		if err != nil {
			return nil, types.QueryBadData, err
		}
		v, ok := snap.Validator(id)
		if !ok {
			return nil, types.QueryNotFound, fmt.Errorf("unknown validator %s", data)
		}
		return v, types.QueryOK, nil

	case PathDelegations:
		var out DelegationsResponse
		if len(data) == 2*crypto.AddressLength {
			addr, err := crypto.ParseAddress(data)
			if err != nil {
				return nil, types.QueryBadData, err
			}
			out.Delegations = snap.DelegationsByDelegator(addr)
			return out, types.QueryOK, nil
		}
		id, err := parseIdentity(data)
		if err != nil {
			return nil, types.QueryBadData, err
		}
		snap.Delegations(id, func(d ledger.Delegation) bool {
			out.Delegations = append(out.Delegations, d)
			return true
		})
		return out, types.QueryOK, nil

	case PathUnbondings:
		addr, err := crypto.ParseAddress(data)
		if err != nil {
			return nil, types.QueryBadData, err
		}
		return UnbondingsResponse{Entries: snap.UnbondingsByDelegator(addr)}, types.QueryOK, nil

	case PathRewards:
		addr, err := crypto.ParseAddress(data)
		if err != nil {
			return nil, types.QueryBadData, err
		}
		return RewardResponse{Address: addr, Amount: snap.Reward(addr)}, types.QueryOK, nil

	case PathFeePool:
		return AmountResponse{Amount: snap.FeePool()}, types.QueryOK, nil

	case PathParams:
		return snap.Params(), types.QueryOK, nil

	case PathRoot:
		return types.BlockID{Height: snap.Height(), StateRoot: snap.Root()}, types.QueryOK, nil
	}
	return nil, types.QueryBadPath, fmt.Errorf("unknown path %q", path)
}

func parseIdentity(s string) (types.Identity, error) {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) < 2 {
		return "", fmt.Errorf("invalid validator identity %q", s)
	}
	return types.Identity(b), nil
}
