package server

import (
	"context"
	"errors"
	"testing"

	"github.com/blockberries/stakeledger"
	"github.com/blockberries/stakeledger/types"
)

// testApp is a minimal mock of the application lifecycle that avoids
// an import cycle with the chain package.
type testApp struct {
	committed  uint64
	failBegin  error
	failCommit error
	delivered  int
}

var _ stakeledger.Lifecycle = (*testApp)(nil)

func (a *testApp) Info(_ context.Context) (types.InfoResponse, error) {
	if a.committed == 0 {
		return types.InfoResponse{}, nil
	}
	return types.InfoResponse{LastBlock: &types.BlockID{Height: a.committed}}, nil
}

func (a *testApp) InitChain(_ context.Context, req types.InitChainRequest) (types.InitChainResponse, error) {
	return types.InitChainResponse{}, nil
}

func (a *testApp) BeginBlock(_ context.Context, _ types.BeginBlockRequest) error {
	if a.failBegin != nil {
		err := a.failBegin
		a.failBegin = nil
		return err
	}
	return nil
}

func (a *testApp) DeliverTx(_ context.Context, tx types.Tx) (types.TxResult, error) {
	idx := a.delivered
	a.delivered++
	return types.TxResult{Index: uint32(idx)}, nil
}

func (a *testApp) EndBlock(_ context.Context, _ uint64) (types.EndBlockResult, error) {
	return types.EndBlockResult{}, nil
}

func (a *testApp) Commit(_ context.Context) (types.CommitResult, error) {
	if a.failCommit != nil {
		return types.CommitResult{}, a.failCommit
	}
	a.committed++
	a.delivered = 0
	return types.CommitResult{Height: a.committed, StateRoot: types.StateRoot{0x01}}, nil
}

func (a *testApp) CheckTx(_ context.Context, _ types.Tx) (types.GateVerdict, error) {
	return types.GateVerdict{Code: 0}, nil
}

func (a *testApp) Query(_ context.Context, _ types.StateQuery) (types.StateQueryResult, error) {
	return types.StateQueryResult{}, nil
}

// --- Tests ---

func initServer(t *testing.T, app *testApp) *Server {
	t.Helper()
	srv := New(app)
	if _, err := srv.Info(context.Background()); err != nil {
		t.Fatalf("info failed: %v", err)
	}
	if _, err := srv.InitChain(context.Background(), types.InitChainRequest{ChainID: "test"}); err != nil {
		t.Fatalf("init chain failed: %v", err)
	}
	return srv
}

func TestServer_BlockCycle(t *testing.T) {
	ctx := context.Background()
	srv := initServer(t, &testApp{})

	if err := srv.BeginBlock(ctx, types.BeginBlockRequest{Height: 1}); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := srv.DeliverTx(ctx, types.Tx{0x01}); err != nil {
			t.Fatalf("deliver failed: %v", err)
		}
	}
	if _, err := srv.EndBlock(ctx, 1); err != nil {
		t.Fatalf("end failed: %v", err)
	}

	out := srv.LastOutcome()
	if out == nil {
		t.Fatal("expected non-nil LastOutcome between EndBlock and Commit")
	}
	if len(out.TxResults) != 2 {
		t.Errorf("expected 2 tx results, got %d", len(out.TxResults))
	}

	res, err := srv.Commit(ctx)
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if res.Height != 1 {
		t.Errorf("expected height 1, got %d", res.Height)
	}
	if srv.LastOutcome() != nil {
		t.Error("expected nil LastOutcome after commit")
	}
}

func TestServer_ResumeSkipsInitChain(t *testing.T) {
	srv := New(&testApp{committed: 7})
	if _, err := srv.Info(context.Background()); err != nil {
		t.Fatalf("info failed: %v", err)
	}
	if err := srv.BeginBlock(context.Background(), types.BeginBlockRequest{Height: 8}); err != nil {
		t.Fatalf("begin after resume failed: %v", err)
	}
	expectPanic(t, "expected panic on InitChain after resume", func() {
		srv.InitChain(context.Background(), types.InitChainRequest{})
	})
}

func TestServer_OutOfOrderPanics(t *testing.T) {
	ctx := context.Background()
	srv := initServer(t, &testApp{})

	expectPanic(t, "expected panic on DeliverTx without BeginBlock", func() {
		srv.DeliverTx(ctx, types.Tx{0x01})
	})
	expectPanic(t, "expected panic on Commit without EndBlock", func() {
		srv.Commit(ctx)
	})

	if err := srv.BeginBlock(ctx, types.BeginBlockRequest{Height: 1}); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	expectPanic(t, "expected panic on EndBlock for a different height", func() {
		srv.EndBlock(ctx, 2)
	})
	if _, err := srv.EndBlock(ctx, 1); err != nil {
		t.Fatalf("end failed after rejected EndBlock: %v", err)
	}
}

func TestServer_ConcurrentBeforeInitPanics(t *testing.T) {
	srv := New(&testApp{})
	expectPanic(t, "expected panic on CheckTx before init", func() {
		srv.CheckTx(context.Background(), types.Tx{0x01})
	})
}

func TestServer_RetryAfterError(t *testing.T) {
	ctx := context.Background()
	app := &testApp{}
	srv := initServer(t, app)

	app.failBegin = errors.New("transient")
	if err := srv.BeginBlock(ctx, types.BeginBlockRequest{Height: 1}); err == nil {
		t.Fatal("expected BeginBlock error")
	}
	if srv.Halted() {
		t.Fatal("plain error must not halt")
	}
	if err := srv.BeginBlock(ctx, types.BeginBlockRequest{Height: 1}); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
}

func TestServer_HaltIsTerminal(t *testing.T) {
	ctx := context.Background()
	app := &testApp{failCommit: stakeledger.NewHaltError(1, "disk full")}
	srv := initServer(t, app)

	srv.BeginBlock(ctx, types.BeginBlockRequest{Height: 1})
	srv.EndBlock(ctx, 1)
	_, err := srv.Commit(ctx)
	if _, ok := stakeledger.IsHalt(err); !ok {
		t.Fatalf("expected HaltError, got %v", err)
	}
	if !srv.Halted() {
		t.Fatal("expected server to be halted")
	}
	expectPanic(t, "expected panic on BeginBlock after halt", func() {
		srv.BeginBlock(ctx, types.BeginBlockRequest{Height: 2})
	})
}

func TestServer_HaltRefusesReads(t *testing.T) {
	ctx := context.Background()
	app := &testApp{failCommit: stakeledger.NewHaltError(1, "disk full")}
	srv := initServer(t, app)

	srv.BeginBlock(ctx, types.BeginBlockRequest{Height: 1})
	srv.EndBlock(ctx, 1)
	srv.Commit(ctx)

	if _, err := srv.CheckTx(ctx, types.Tx{0x01}); !errors.Is(err, stakeledger.ErrHalted) {
		t.Fatalf("expected ErrHalted from CheckTx, got %v", err)
	}
	if _, err := srv.Query(ctx, types.StateQuery{Path: "/height"}); !errors.Is(err, stakeledger.ErrHalted) {
		t.Fatalf("expected ErrHalted from Query, got %v", err)
	}
}

func TestServer_CheckTxConcurrent(t *testing.T) {
	srv := initServer(t, &testApp{})

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			_, err := srv.CheckTx(context.Background(), types.Tx{0x01})
			if err != nil {
				t.Errorf("CheckTx error: %v", err)
			}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
}
