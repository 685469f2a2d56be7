package ledgertest

import (
	"context"
	"testing"

	"github.com/blockberries/stakeledger"
	"github.com/blockberries/stakeledger/config"
	"github.com/blockberries/stakeledger/query"
	"github.com/blockberries/stakeledger/server"
	"github.com/blockberries/stakeledger/types"
)

// Harness provides a convenient test harness that drives an
// application through the lifecycle state machine, one height at a
// time.
type Harness struct {
	t      *testing.T
	srv    *server.Server
	height uint64
}

// NewHarness creates a test harness wrapping the given application.
// It calls Info, so an application with committed state resumes at
// its last height.
func NewHarness(t *testing.T, app stakeledger.Lifecycle) *Harness {
	t.Helper()
	h := &Harness{t: t, srv: server.New(app)}
	info, err := h.srv.Info(context.Background())
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if info.LastBlock != nil {
		h.height = info.LastBlock.Height
	}
	return h
}

// Server returns the underlying server for direct access.
func (h *Harness) Server() *server.Server {
	return h.srv
}

// Height returns the last committed height.
func (h *Harness) Height() uint64 { return h.height }

// Genesis initializes the chain with g.
func (h *Harness) Genesis(g *config.Genesis) types.InitChainResponse {
	h.t.Helper()
	doc, err := g.Marshal()
	if err != nil {
		h.t.Fatalf("marshal genesis: %v", err)
	}
	resp, err := h.srv.InitChain(context.Background(), types.InitChainRequest{
		ChainID:  g.ChainID,
		AppState: doc,
	})
	if err != nil {
		h.t.Fatalf("InitChain failed: %v", err)
	}
	h.height = resp.Height
	return resp
}

// GenesisDefault initializes the chain with DefaultGenesis.
func (h *Harness) GenesisDefault() types.InitChainResponse {
	h.t.Helper()
	return h.Genesis(DefaultGenesis())
}

// ExecuteBlock runs block through BeginBlock, DeliverTx and EndBlock
// without committing.
func (h *Harness) ExecuteBlock(block types.FinalizedBlock) types.BlockOutcome {
	h.t.Helper()
	outcome, err := stakeledger.ExecuteBlock(context.Background(), h.srv, block)
	if err != nil {
		h.t.Fatalf("ExecuteBlock (height=%d) failed: %v", block.Height, err)
	}
	return outcome
}

// Commit commits the last executed block.
func (h *Harness) Commit() types.CommitResult {
	h.t.Helper()
	result, err := h.srv.Commit(context.Background())
	if err != nil {
		h.t.Fatalf("Commit failed: %v", err)
	}
	h.height = result.Height
	return result
}

// ExecuteAndCommit is a convenience that executes a block and
// commits, returning the block outcome and the commit result.
func (h *Harness) ExecuteAndCommit(block types.FinalizedBlock) (types.BlockOutcome, types.CommitResult) {
	h.t.Helper()
	outcome := h.ExecuteBlock(block)
	return outcome, h.Commit()
}

// Next executes and commits txs at the next height.
func (h *Harness) Next(txs ...types.Tx) (types.BlockOutcome, types.CommitResult) {
	h.t.Helper()
	return h.ExecuteAndCommit(MakeBlock(h.height+1, txs...))
}

// AdvanceTo commits empty blocks until height is committed.
func (h *Harness) AdvanceTo(height uint64) {
	h.t.Helper()
	for h.height < height {
		h.Next()
	}
}

// CheckTx submits a transaction for mempool gate-checking.
func (h *Harness) CheckTx(tx types.Tx) types.GateVerdict {
	h.t.Helper()
	verdict, err := h.srv.CheckTx(context.Background(), tx)
	if err != nil {
		h.t.Fatalf("CheckTx failed: %v", err)
	}
	return verdict
}

// Query reads application state at the latest height.
func (h *Harness) Query(path types.QueryPath, data []byte) types.StateQueryResult {
	h.t.Helper()
	result, err := h.srv.Query(context.Background(), types.StateQuery{
		Path: path,
		Data: data,
	})
	if err != nil {
		h.t.Fatalf("Query failed: %v", err)
	}
	return result
}

// QueryAs reads and decodes a successful query result.
func QueryAs[T any](h *Harness, path types.QueryPath, data string) T {
	h.t.Helper()
	v, err := query.Decode[T](h.Query(path, []byte(data)))
	if err != nil {
		h.t.Fatalf("Query %s %q: %v", path, data, err)
	}
	return v
}

// MustAcceptTx asserts that a transaction is accepted.
func (h *Harness) MustAcceptTx(tx types.Tx) {
	h.t.Helper()
	v := h.CheckTx(tx)
	if !v.Accepted() {
		h.t.Fatalf("expected tx accepted, got code=%d info=%q", v.Code, v.Info)
	}
}

// MustRejectTx asserts that a transaction is rejected.
func (h *Harness) MustRejectTx(tx types.Tx) {
	h.t.Helper()
	v := h.CheckTx(tx)
	if v.Accepted() {
		h.t.Fatal("expected tx rejected, got accepted")
	}
}
