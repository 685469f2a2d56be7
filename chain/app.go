// Package chain is the block lifecycle controller of the staking
// ledger. It drives the executor and the staking rules through
// BeginBlock, DeliverTx, EndBlock and Commit, and publishes every
// committed generation to the query service.
package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blockberries/stakeledger"
	"github.com/blockberries/stakeledger/executor"
	"github.com/blockberries/stakeledger/kv"
	"github.com/blockberries/stakeledger/ledger"
	"github.com/blockberries/stakeledger/metrics"
	"github.com/blockberries/stakeledger/query"
	"github.com/blockberries/stakeledger/staking"
	"github.com/blockberries/stakeledger/types"
)

// ErrNotInitialized is returned by CheckTx before InitChain.
var ErrNotInitialized = errors.New("chain: not initialized")

// Options configures an App.
type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.ChainMetrics
	// Retain is the number of committed generations kept for
	// height-pinned queries.
	Retain int
	// SkipInvariants disables the supply audit at EndBlock.
	SkipInvariants bool
}

type phase uint8

const (
	phaseIdle phase = iota
	phaseOpen
	phaseClosing
	phaseHalted
)

func (p phase) String() string {
	switch p {
	case phaseIdle:
		return "Idle"
	case phaseOpen:
		return "BlockOpen"
	case phaseClosing:
		return "BlockClosing"
	case phaseHalted:
		return "Halted"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(p))
	}
}

// engine bundles the rule sets bound to the chain parameters.
type engine struct {
	params  ledger.Params
	staking *staking.Ledger
	exec    *executor.Executor
}

// App implements stakeledger.Lifecycle.
type App struct {
	store   kv.Store
	log     *slog.Logger
	metrics *metrics.ChainMetrics
	queries *query.Service
	audit   bool

	engine atomic.Pointer[engine]

	haltOnce sync.Once
	halted   chan struct{}
	haltErr  atomic.Pointer[stakeledger.HaltError]

	// Block state, owned by the lifecycle caller.
	phase    phase
	working  *ledger.State
	height   uint64
	proposer types.PublicKey
	evidence []types.Evidence
	txIndex  uint32
}

var _ stakeledger.Lifecycle = (*App)(nil)

// New opens the application over store, restoring the last committed
// state if there is one.
func New(store kv.Store, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	queries, err := query.New(opts.Retain)
	if err != nil {
		return nil, err
	}
	a := &App{
		store:   store,
		log:     logger.With("pkg", "chain"),
		metrics: opts.Metrics,
		queries: queries,
		audit:   !opts.SkipInvariants,
		halted:  make(chan struct{}),
	}

	snap, err := ledger.Load(store)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	if snap != nil {
		a.bind(snap.Params())
		queries.Publish(snap)
		a.log.Info("restored committed state",
			"height", snap.Height(),
			"root", snap.Root(),
			"chain_id", snap.Params().ChainID)
	}
	return a, nil
}

func (a *App) bind(params ledger.Params) *engine {
	st := staking.New(params, a.log)
	e := &engine{
		params:  params,
		staking: st,
		exec:    executor.New(params.ChainID, st, a.log),
	}
	a.engine.Store(e)
	return e
}

// expect panics unless the app is in phase want.
func (a *App) expect(call string, want phase) {
	if a.phase != want {
		panic(fmt.Sprintf("stakeledger: %s called in phase %s (expected %s)", call, a.phase, want))
	}
}

// halt moves the app to the terminal phase and returns the error
// reported to consensus.
func (a *App) halt(height uint64, format string, args ...any) error {
	a.phase = phaseHalted
	err := stakeledger.Haltf(height, format, args...)
	a.log.Error("halting", "height", height, "err", err)
	a.haltOnce.Do(func() {
		a.haltErr.Store(err)
		close(a.halted)
	})
	return err
}

// Halted is closed once the application halts.
func (a *App) Halted() <-chan struct{} { return a.halted }

// Err returns the HaltError that stopped the application, or nil.
func (a *App) Err() error {
	if h := a.haltErr.Load(); h != nil {
		return h
	}
	return nil
}

// Latest returns the last committed snapshot, or nil before
// InitChain.
func (a *App) Latest() *ledger.Snapshot { return a.queries.Latest() }

// Queries returns the read-side service.
func (a *App) Queries() *query.Service { return a.queries }

// Info reports the last committed block.
func (a *App) Info(_ context.Context) (types.InfoResponse, error) {
	snap := a.queries.Latest()
	if snap == nil {
		return types.InfoResponse{}, nil
	}
	return types.InfoResponse{
		LastBlock: &types.BlockID{Height: snap.Height(), StateRoot: snap.Root()},
		ChainID:   snap.Params().ChainID,
	}, nil
}

// BeginBlock opens req.Height on a working copy of the committed
// state. Panics unless req.Height follows the last committed height.
func (a *App) BeginBlock(_ context.Context, req types.BeginBlockRequest) error {
	a.expect("BeginBlock", phaseIdle)
	snap := a.queries.Latest()
	if snap == nil {
		panic("stakeledger: BeginBlock called before InitChain")
	}
	if req.Height != snap.Height()+1 {
		panic(fmt.Sprintf("stakeledger: BeginBlock(%d) after committed height %d", req.Height, snap.Height()))
	}

	a.working = snap.Working()
	a.height = req.Height
	a.proposer = req.Proposer
	a.evidence = append([]types.Evidence(nil), req.Evidence...)
	a.txIndex = 0
	a.phase = phaseOpen

	a.log.Debug("begin block", "height", req.Height, "proposer", req.Proposer.Identity(), "evidence", len(req.Evidence))
	return nil
}

// DeliverTx executes raw against the working copy. A rejection is
// reported in the result and leaves no effects.
func (a *App) DeliverTx(_ context.Context, raw types.Tx) (types.TxResult, error) {
	a.expect("DeliverTx", phaseOpen)
	eng := a.engine.Load()

	res := types.TxResult{Index: a.txIndex}
	a.txIndex++

	fx, rej := eng.exec.Execute(a.working, raw, a.height)
	if rej != nil {
		res.Code = uint32(rej.Code)
		res.Log = rej.Error()
		a.metrics.ObserveTx(rej.Code.String())
		return res, nil
	}
	res.Events = fx.Events
	a.metrics.ObserveTx(executor.CodeOK.String())
	return res, nil
}

// Commit persists the closed block in one atomic write and publishes
// the new generation. A store failure halts the chain.
func (a *App) Commit(_ context.Context) (types.CommitResult, error) {
	a.expect("Commit", phaseClosing)
	start := time.Now()

	snap, err := ledger.Commit(a.store, a.working, a.height)
	if err != nil {
		return types.CommitResult{}, a.halt(a.height, "commit: %v", err)
	}
	a.queries.Publish(snap)
	a.working = nil
	a.evidence = nil
	a.phase = phaseIdle

	took := time.Since(start)
	a.metrics.ObserveCommit(snap.Height(), took)
	a.log.Info("committed block",
		"height", snap.Height(),
		"root", snap.Root(),
		"proposer", a.proposer.Identity(),
		"txs", a.txIndex,
		"took", took)
	return types.CommitResult{Height: snap.Height(), StateRoot: snap.Root()}, nil
}

// CheckTx dry-runs raw against a throwaway copy of the committed
// state, as if it were the first transaction of the next block.
func (a *App) CheckTx(_ context.Context, raw types.Tx) (types.GateVerdict, error) {
	if a.haltErr.Load() != nil {
		return types.GateVerdict{}, stakeledger.ErrHalted
	}
	snap := a.queries.Latest()
	eng := a.engine.Load()
	if snap == nil || eng == nil {
		return types.GateVerdict{}, ErrNotInitialized
	}
	fx, rej := eng.exec.Execute(snap.Working(), raw, snap.Height()+1)
	if rej != nil {
		return types.GateVerdict{Code: uint32(rej.Code), Info: rej.Error()}, nil
	}
	return types.GateVerdict{Sender: fx.Sender.String(), Sequence: fx.Sequence}, nil
}

// Query reads committed state. A halted application answers nothing.
func (a *App) Query(_ context.Context, req types.StateQuery) (types.StateQueryResult, error) {
	if a.haltErr.Load() != nil {
		return types.StateQueryResult{}, stakeledger.ErrHalted
	}
	return a.queries.Query(req), nil
}
