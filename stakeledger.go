// Package stakeledger defines the boundary between a BFT consensus
// engine and the staking ledger application.
//
// The engine drives each height through BeginBlock, DeliverTx for
// every transaction in order, EndBlock and Commit. Calling them out of
// order is a programming error and panics. Fatal conditions (store
// failures, broken economic invariants) surface as *HaltError and the
// node must stop.
package stakeledger

import (
	"context"

	"github.com/blockberries/stakeledger/types"
)

// Lifecycle is the interface the consensus engine drives.
//
// The engine guarantees the following call order:
//  1. Info is called on every startup. If it reports no last block,
//     InitChain is called exactly once before anything else.
//  2. For every height h: BeginBlock(h), DeliverTx for each
//     transaction, EndBlock(h), Commit.
//  3. CheckTx and Query may be called concurrently at any time after
//     the chain is initialized.
type Lifecycle interface {
	// Info reports the last committed block, or nil LastBlock for
	// an empty store.
	Info(ctx context.Context) (types.InfoResponse, error)

	// InitChain loads the genesis state into an empty store and
	// commits it at InitialHeight-1.
	InitChain(ctx context.Context, req types.InitChainRequest) (types.InitChainResponse, error)

	// BeginBlock opens height req.Height on a working copy of the
	// last committed state and records the evidence to punish at
	// EndBlock.
	BeginBlock(ctx context.Context, req types.BeginBlockRequest) error

	// DeliverTx executes one transaction. A rejected transaction
	// yields a non-zero result code and leaves no effects; it never
	// aborts the block.
	DeliverTx(ctx context.Context, tx types.Tx) (types.TxResult, error)

	// EndBlock applies slashing, unbonding maturity, reward
	// distribution and voting power recomputation, and returns the
	// validator set delta.
	EndBlock(ctx context.Context, height uint64) (types.EndBlockResult, error)

	// Commit persists the block atomically and returns the new
	// state root. Readers observe the new state only after Commit
	// returns.
	Commit(ctx context.Context) (types.CommitResult, error)

	// CheckTx dry-runs a transaction against the last committed
	// state for mempool admission. Safe for concurrent use.
	CheckTx(ctx context.Context, tx types.Tx) (types.GateVerdict, error)

	// Query reads committed state. Safe for concurrent use,
	// including concurrently with block processing.
	Query(ctx context.Context, req types.StateQuery) (types.StateQueryResult, error)
}

// Connection represents a transport-agnostic connection to an
// application. Both gRPC clients and in-process adapters implement
// this.
type Connection interface {
	Lifecycle

	// Close terminates the connection.
	Close() error
}

// ExecuteBlock drives a decided block through BeginBlock, DeliverTx
// and EndBlock on l. Commit is left to the caller.
func ExecuteBlock(ctx context.Context, l Lifecycle, block types.FinalizedBlock) (types.BlockOutcome, error) {
	var out types.BlockOutcome
	err := l.BeginBlock(ctx, types.BeginBlockRequest{
		Height:   block.Height,
		Proposer: block.Proposer,
		Evidence: block.Evidence,
	})
	if err != nil {
		return out, err
	}
	out.TxResults = make([]types.TxResult, 0, len(block.Txs))
	for _, tx := range block.Txs {
		res, err := l.DeliverTx(ctx, tx)
		if err != nil {
			return out, err
		}
		out.TxResults = append(out.TxResults, res)
	}
	out.EndBlock, err = l.EndBlock(ctx, block.Height)
	return out, err
}
