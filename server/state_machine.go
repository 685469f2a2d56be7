// Package server provides the engine-side wrapper that enforces the
// block lifecycle state machine in front of an application.
package server

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/blockberries/stakeledger"
)

// lifecycleState represents a state in the lifecycle state machine.
type lifecycleState uint32

const (
	// stateInit: waiting for InitChain, or for Info to report an
	// existing chain. No block calls allowed.
	stateInit lifecycleState = iota
	// stateIdle: the last block is committed. BeginBlock is the only
	// valid sequential call. Concurrent calls allowed: CheckTx, Query.
	stateIdle
	// stateBlockOpen: BeginBlock returned. DeliverTx and EndBlock
	// are valid.
	stateBlockOpen
	// stateBlockClosing: EndBlock returned. Commit is the only valid
	// next sequential call.
	stateBlockClosing
	// stateCommitting: Commit has been called. Waiting for it to
	// return.
	stateCommitting
	// stateHalted: the application reported a fatal error. Nothing
	// is allowed any more.
	stateHalted
)

func (s lifecycleState) String() string {
	switch s {
	case stateInit:
		return "Init"
	case stateIdle:
		return "Idle"
	case stateBlockOpen:
		return "BlockOpen"
	case stateBlockClosing:
		return "BlockClosing"
	case stateCommitting:
		return "Committing"
	case stateHalted:
		return "Halted"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// LifecycleGuard enforces the lifecycle state machine.
// The engine wraps the application with this guard to ensure
// correct call ordering.
type LifecycleGuard struct {
	state atomic.Uint32
	// Mutex for sequential calls (InitChain, BeginBlock, DeliverTx,
	// EndBlock, Commit).
	seqMu sync.Mutex
	// Tracks whether the chain is initialized (for concurrent call
	// gating).
	ready atomic.Bool
	// state observed by the last acquire, restored by Abort
	held lifecycleState
}

// NewLifecycleGuard creates a guard in the Init state.
func NewLifecycleGuard() *LifecycleGuard {
	g := &LifecycleGuard{}
	g.state.Store(uint32(stateInit))
	return g
}

// State returns the current lifecycle state.
func (g *LifecycleGuard) State() string {
	return lifecycleState(g.state.Load()).String()
}

// acquire takes the sequence lock and checks the state is want.
// Panics otherwise.
func (g *LifecycleGuard) acquire(call string, want lifecycleState) {
	g.seqMu.Lock()
	if state := lifecycleState(g.state.Load()); state != want {
		g.seqMu.Unlock()
		panic(fmt.Sprintf("stakeledger: %s called in state %s (expected %s)", call, state, want))
	}
	g.held = want
}

// release moves to next and drops the sequence lock.
func (g *LifecycleGuard) release(next lifecycleState) {
	g.state.Store(uint32(next))
	g.seqMu.Unlock()
}

// AcquireInit locks for InitChain. Panics if not in Init state.
func (g *LifecycleGuard) AcquireInit() { g.acquire("InitChain", stateInit) }

// CompleteInit transitions Init → Idle and enables concurrent calls.
func (g *LifecycleGuard) CompleteInit() {
	g.ready.Store(true)
	g.release(stateIdle)
}

// Resume transitions Init → Idle for an application that already
// holds committed state. It is a no-op in any other state.
func (g *LifecycleGuard) Resume() {
	if g.state.CompareAndSwap(uint32(stateInit), uint32(stateIdle)) {
		g.ready.Store(true)
	}
}

// AcquireBegin locks for BeginBlock. Panics if not Idle.
func (g *LifecycleGuard) AcquireBegin() { g.acquire("BeginBlock", stateIdle) }

// CompleteBegin transitions Idle → BlockOpen.
func (g *LifecycleGuard) CompleteBegin() { g.release(stateBlockOpen) }

// AcquireDeliver locks for DeliverTx. Panics if no block is open.
func (g *LifecycleGuard) AcquireDeliver() { g.acquire("DeliverTx", stateBlockOpen) }

// CompleteDeliver keeps the block open.
func (g *LifecycleGuard) CompleteDeliver() { g.release(stateBlockOpen) }

// AcquireEnd locks for EndBlock. Panics if no block is open.
func (g *LifecycleGuard) AcquireEnd() { g.acquire("EndBlock", stateBlockOpen) }

// CompleteEnd transitions BlockOpen → BlockClosing.
func (g *LifecycleGuard) CompleteEnd() { g.release(stateBlockClosing) }

// AcquireCommit transitions BlockClosing → Committing.
// Panics if not in BlockClosing state.
func (g *LifecycleGuard) AcquireCommit() {
	g.acquire("Commit", stateBlockClosing)
	g.state.Store(uint32(stateCommitting))
}

// CompleteCommit transitions Committing → Idle.
func (g *LifecycleGuard) CompleteCommit() { g.release(stateIdle) }

// Abort restores the state held before the last acquire and drops
// the sequence lock, allowing the call to be retried.
func (g *LifecycleGuard) Abort() { g.release(g.held) }

// Halt moves to the terminal Halted state and drops the sequence
// lock. Every later sequential call panics.
func (g *LifecycleGuard) Halt() { g.release(stateHalted) }

// CheckConcurrent verifies that concurrent calls are allowed (any
// state after initialization). Panics before initialization and
// returns stakeledger.ErrHalted once halted.
func (g *LifecycleGuard) CheckConcurrent() error {
	if !g.ready.Load() {
		panic("stakeledger: concurrent call before the chain is initialized")
	}
	if g.IsHalted() {
		return stakeledger.ErrHalted
	}
	return nil
}

// IsIdle returns true if the guard is in the Idle state.
func (g *LifecycleGuard) IsIdle() bool {
	return lifecycleState(g.state.Load()) == stateIdle
}

// IsHalted returns true once a fatal error was reported.
func (g *LifecycleGuard) IsHalted() bool {
	return lifecycleState(g.state.Load()) == stateHalted
}
