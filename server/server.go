package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/blockberries/stakeledger"
	"github.com/blockberries/stakeledger/types"
)

// Server wraps a stakeledger application with lifecycle enforcement.
// The consensus engine interacts with the application exclusively
// through this server.
type Server struct {
	app   stakeledger.Lifecycle
	guard *LifecycleGuard

	// Outcome of the open block (held between BeginBlock and Commit).
	mu      sync.Mutex
	height  uint64
	pending *types.BlockOutcome
}

// New creates a new Server wrapping the given application.
func New(app stakeledger.Lifecycle) *Server {
	return &Server{
		app:   app,
		guard: NewLifecycleGuard(),
	}
}

// Info reports the application's last committed block. If the
// application already holds committed state, the guard skips
// InitChain and moves straight to Idle.
func (s *Server) Info(ctx context.Context) (types.InfoResponse, error) {
	resp, err := s.app.Info(ctx)
	if err != nil {
		return resp, err
	}
	if resp.LastBlock != nil {
		s.guard.Resume()
	}
	return resp, nil
}

// InitChain loads the genesis state. It may only be called once, on
// an empty application.
func (s *Server) InitChain(ctx context.Context, req types.InitChainRequest) (types.InitChainResponse, error) {
	s.guard.AcquireInit()

	resp, err := s.app.InitChain(ctx, req)
	if err != nil {
		s.fail(err)
		return resp, err
	}

	s.guard.CompleteInit()
	return resp, nil
}

// BeginBlock opens a new height.
func (s *Server) BeginBlock(ctx context.Context, req types.BeginBlockRequest) error {
	s.guard.AcquireBegin()

	if err := s.app.BeginBlock(ctx, req); err != nil {
		s.fail(err)
		return err
	}

	s.mu.Lock()
	s.height = req.Height
	s.pending = &types.BlockOutcome{}
	s.mu.Unlock()

	s.guard.CompleteBegin()
	return nil
}

// DeliverTx executes one transaction of the open block.
func (s *Server) DeliverTx(ctx context.Context, tx types.Tx) (types.TxResult, error) {
	s.guard.AcquireDeliver()

	res, err := s.app.DeliverTx(ctx, tx)
	if err != nil {
		s.fail(err)
		return res, err
	}

	s.mu.Lock()
	s.pending.TxResults = append(s.pending.TxResults, res)
	s.mu.Unlock()

	s.guard.CompleteDeliver()
	return res, nil
}

// EndBlock closes the open block. Panics if height is not the height
// passed to BeginBlock.
func (s *Server) EndBlock(ctx context.Context, height uint64) (types.EndBlockResult, error) {
	s.guard.AcquireEnd()

	s.mu.Lock()
	open := s.height
	s.mu.Unlock()
	if height != open {
		s.guard.Abort()
		panic(fmt.Sprintf("stakeledger: EndBlock(%d) does not match open block %d", height, open))
	}

	res, err := s.app.EndBlock(ctx, height)
	if err != nil {
		s.fail(err)
		return res, err
	}

	s.mu.Lock()
	s.pending.EndBlock = res
	s.mu.Unlock()

	s.guard.CompleteEnd()
	return res, nil
}

// Commit persists the closed block.
func (s *Server) Commit(ctx context.Context) (types.CommitResult, error) {
	s.guard.AcquireCommit()

	result, err := s.app.Commit(ctx)
	if err != nil {
		s.fail(err)
		return result, err
	}

	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()

	s.guard.CompleteCommit()
	return result, nil
}

// CheckTx gate-checks a transaction for mempool admission.
// Safe for concurrent use.
func (s *Server) CheckTx(ctx context.Context, tx types.Tx) (types.GateVerdict, error) {
	if err := s.guard.CheckConcurrent(); err != nil {
		return types.GateVerdict{}, err
	}
	return s.app.CheckTx(ctx, tx)
}

// Query reads application state. Safe for concurrent use.
func (s *Server) Query(ctx context.Context, req types.StateQuery) (types.StateQueryResult, error) {
	if err := s.guard.CheckConcurrent(); err != nil {
		return types.StateQueryResult{}, err
	}
	return s.app.Query(ctx, req)
}

// LastOutcome returns the outcome of the open block so far (between
// BeginBlock and Commit). Returns nil if no block is open.
func (s *Server) LastOutcome() *types.BlockOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return nil
	}
	out := *s.pending
	out.TxResults = append([]types.TxResult(nil), s.pending.TxResults...)
	return &out
}

// Halted reports whether the application returned a fatal error.
func (s *Server) Halted() bool { return s.guard.IsHalted() }

// Close is a no-op for the server wrapper.
func (s *Server) Close() error { return nil }

// fail releases the guard after a failed sequential call. A halt is
// terminal; anything else leaves the state as it was so the call can
// be retried.
func (s *Server) fail(err error) {
	if _, ok := stakeledger.IsHalt(err); ok {
		s.guard.Halt()
		return
	}
	s.guard.Abort()
}
