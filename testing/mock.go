// Package ledgertest provides test utilities for stakeledger
// applications and transports, including a configurable mock, a test
// harness, deterministic factories and a lifecycle compliance suite.
package ledgertest

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/blockberries/stakeledger"
	"github.com/blockberries/stakeledger/types"
)

// Compile-time check that MockApp satisfies the lifecycle.
var _ stakeledger.Lifecycle = (*MockApp)(nil)

// MockApp is a configurable mock application for transport and
// engine testing. All methods are configurable via function fields.
// Unconfigured methods behave like an application with no state that
// accepts everything and commits at increasing heights.
type MockApp struct {
	mu     sync.Mutex
	height uint64
	txs    uint32

	// Configurable handlers. If nil, defaults are used.
	InfoFn       func(context.Context) (types.InfoResponse, error)
	InitChainFn  func(context.Context, types.InitChainRequest) (types.InitChainResponse, error)
	BeginBlockFn func(context.Context, types.BeginBlockRequest) error
	DeliverTxFn  func(context.Context, types.Tx) (types.TxResult, error)
	EndBlockFn   func(context.Context, uint64) (types.EndBlockResult, error)
	CommitFn     func(context.Context) (types.CommitResult, error)
	CheckTxFn    func(context.Context, types.Tx) (types.GateVerdict, error)
	QueryFn      func(context.Context, types.StateQuery) (types.StateQueryResult, error)

	// Call counters (atomic for concurrent access).
	InitChainCalls  atomic.Int64
	BeginBlockCalls atomic.Int64
	DeliverTxCalls  atomic.Int64
	EndBlockCalls   atomic.Int64
	CommitCalls     atomic.Int64
	CheckTxCalls    atomic.Int64
	QueryCalls      atomic.Int64
}

func (m *MockApp) Info(ctx context.Context) (types.InfoResponse, error) {
	if m.InfoFn != nil {
		return m.InfoFn(ctx)
	}
	return types.InfoResponse{}, nil
}

func (m *MockApp) InitChain(ctx context.Context, req types.InitChainRequest) (types.InitChainResponse, error) {
	m.InitChainCalls.Add(1)
	if m.InitChainFn != nil {
		return m.InitChainFn(ctx, req)
	}
	return types.InitChainResponse{StateRoot: types.StateRoot{0x01}}, nil
}

func (m *MockApp) BeginBlock(ctx context.Context, req types.BeginBlockRequest) error {
	m.BeginBlockCalls.Add(1)
	if m.BeginBlockFn != nil {
		return m.BeginBlockFn(ctx, req)
	}
	m.mu.Lock()
	m.height = req.Height
	m.txs = 0
	m.mu.Unlock()
	return nil
}

func (m *MockApp) DeliverTx(ctx context.Context, tx types.Tx) (types.TxResult, error) {
	m.DeliverTxCalls.Add(1)
	if m.DeliverTxFn != nil {
		return m.DeliverTxFn(ctx, tx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	res := types.TxResult{Index: m.txs}
	m.txs++
	return res, nil
}

func (m *MockApp) EndBlock(ctx context.Context, height uint64) (types.EndBlockResult, error) {
	m.EndBlockCalls.Add(1)
	if m.EndBlockFn != nil {
		return m.EndBlockFn(ctx, height)
	}
	return types.EndBlockResult{}, nil
}

func (m *MockApp) Commit(ctx context.Context) (types.CommitResult, error) {
	m.CommitCalls.Add(1)
	if m.CommitFn != nil {
		return m.CommitFn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return types.CommitResult{Height: m.height, StateRoot: types.StateRoot{0x01}}, nil
}

func (m *MockApp) CheckTx(ctx context.Context, tx types.Tx) (types.GateVerdict, error) {
	m.CheckTxCalls.Add(1)
	if m.CheckTxFn != nil {
		return m.CheckTxFn(ctx, tx)
	}
	return types.GateVerdict{Code: 0}, nil
}

func (m *MockApp) Query(ctx context.Context, req types.StateQuery) (types.StateQueryResult, error) {
	m.QueryCalls.Add(1)
	if m.QueryFn != nil {
		return m.QueryFn(ctx, req)
	}
	return types.StateQueryResult{}, nil
}
