package ledgertest

import (
	"context"
	"sync"
	"testing"

	"github.com/blockberries/stakeledger"
	"github.com/blockberries/stakeledger/query"
	"github.com/blockberries/stakeledger/tx"
	"github.com/blockberries/stakeledger/types"
)

// RunComplianceSuite runs a standard compliance test suite against
// a stakeledger application to verify correct lifecycle behavior.
//
// The factory function should return a fresh, empty application
// instance for each call.
func RunComplianceSuite(t *testing.T, factory func() stakeledger.Lifecycle) {
	t.Helper()

	alice, bob := Key("alice"), Key("bob")
	transfer := func(seq, amount uint64) types.Tx {
		return SignTx(t, alice, seq, tx.Transfer{To: bob.Address(), Asset: "STAKE", Amount: amount})
	}

	t.Run("genesis_returns_root_and_validators", func(t *testing.T) {
		h := NewHarness(t, factory())
		resp := h.GenesisDefault()
		if resp.StateRoot.IsZero() {
			t.Error("InitChain should return a non-zero state root")
		}
		if len(resp.Validators) != 1 || resp.Validators[0].Power != 10_000 {
			t.Errorf("unexpected genesis validator set: %+v", resp.Validators)
		}
		if resp.Height != 0 {
			t.Errorf("genesis committed at height %d, want 0", resp.Height)
		}
	})

	t.Run("info_reports_genesis", func(t *testing.T) {
		h := NewHarness(t, factory())
		resp := h.GenesisDefault()
		info, err := h.Server().Info(context.Background())
		if err != nil {
			t.Fatalf("Info failed: %v", err)
		}
		if info.LastBlock == nil || info.LastBlock.StateRoot != resp.StateRoot {
			t.Errorf("Info does not report the genesis block: %+v", info.LastBlock)
		}
		if info.ChainID != ChainID {
			t.Errorf("chain id %q, want %q", info.ChainID, ChainID)
		}
	})

	t.Run("execute_commit_cycle", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.GenesisDefault()

		for i := uint64(1); i <= 5; i++ {
			_, res := h.Next()
			if res.Height != i {
				t.Errorf("committed height %d, want %d", res.Height, i)
			}
			if res.StateRoot.IsZero() {
				t.Errorf("height %d: zero state root", i)
			}
		}
	})

	t.Run("empty_blocks_deterministic", func(t *testing.T) {
		h1 := NewHarness(t, factory())
		h1.GenesisDefault()
		h2 := NewHarness(t, factory())
		h2.GenesisDefault()

		for i := uint64(1); i <= 3; i++ {
			_, r1 := h1.Next()
			_, r2 := h2.Next()
			if r1.StateRoot != r2.StateRoot {
				t.Errorf("height %d: non-deterministic: %s != %s", i, r1.StateRoot, r2.StateRoot)
			}
		}
	})

	t.Run("deterministic_with_txs", func(t *testing.T) {
		h1 := NewHarness(t, factory())
		h1.GenesisDefault()
		h2 := NewHarness(t, factory())
		h2.GenesisDefault()

		block := MakeBlock(1, transfer(0, 100), transfer(1, 200))
		o1, r1 := h1.ExecuteAndCommit(block)
		o2, r2 := h2.ExecuteAndCommit(block)

		if r1.StateRoot != r2.StateRoot {
			t.Errorf("non-deterministic with txs: %s != %s", r1.StateRoot, r2.StateRoot)
		}
		if len(o1.TxResults) != len(o2.TxResults) {
			t.Errorf("result count mismatch: %d != %d", len(o1.TxResults), len(o2.TxResults))
		}
	})

	t.Run("rejected_tx_leaves_no_effects", func(t *testing.T) {
		h1 := NewHarness(t, factory())
		h1.GenesisDefault()
		h2 := NewHarness(t, factory())
		h2.GenesisDefault()

		o1, r1 := h1.ExecuteAndCommit(MakeBlock(1, transfer(0, 5_000_000)))
		_, r2 := h2.Next()

		if o1.TxResults[0].OK() {
			t.Fatal("overdrawn transfer was accepted")
		}
		if r1.StateRoot != r2.StateRoot {
			t.Errorf("rejected tx changed state: %s != %s", r1.StateRoot, r2.StateRoot)
		}
	})

	t.Run("tx_result_indices", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.GenesisDefault()

		outcome, _ := h.Next(transfer(0, 1), transfer(1, 1), transfer(2, 1))
		if len(outcome.TxResults) != 3 {
			t.Fatalf("expected 3 tx results, got %d", len(outcome.TxResults))
		}
		for i, r := range outcome.TxResults {
			if r.Index != uint32(i) {
				t.Errorf("tx %d: expected index %d, got %d", i, i, r.Index)
			}
			if !r.OK() {
				t.Errorf("tx %d: rejected: %s", i, r.Log)
			}
		}
	})

	t.Run("checktx_uses_committed_state", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.GenesisDefault()

		h.MustAcceptTx(transfer(0, 1))
		h.MustRejectTx(transfer(1, 1))
		h.Next(transfer(0, 1))
		h.MustRejectTx(transfer(0, 1))
		h.MustAcceptTx(transfer(1, 1))
	})

	t.Run("concurrent_checktx_after_genesis", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.GenesisDefault()
		raw := transfer(0, 1)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := h.Server().CheckTx(context.Background(), raw)
				if err != nil {
					t.Errorf("concurrent CheckTx failed: %v", err)
					return
				}
				if !v.Accepted() {
					t.Errorf("concurrent CheckTx rejected: %s", v.Info)
				}
			}()
		}
		wg.Wait()
	})

	t.Run("concurrent_query_during_block", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.GenesisDefault()
		h.ExecuteBlock(MakeBlock(1, transfer(0, 100)))

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, err := h.Server().Query(context.Background(), types.StateQuery{
					Path: query.PathBalance,
					Data: []byte(bob.Address().String() + "/STAKE"),
				})
				if err != nil {
					t.Errorf("concurrent Query failed: %v", err)
					return
				}
				bal, err := query.Decode[query.BalanceResponse](res)
				if err != nil {
					t.Errorf("decode: %v", err)
					return
				}
				if bal.Amount != 1_000_000 {
					t.Errorf("query observed uncommitted state: %d", bal.Amount)
				}
			}()
		}
		wg.Wait()
		h.Commit()
	})

	t.Run("query_returns_height", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.GenesisDefault()

		h.Next()
		h.Next()

		result := h.Query(query.PathRoot, nil)
		if result.Height != 2 {
			t.Errorf("query height should be 2 after two commits, got %d", result.Height)
		}
	})

	t.Run("out_of_order_calls_panic", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.GenesisDefault()

		defer func() {
			if recover() == nil {
				t.Error("DeliverTx without BeginBlock should panic")
			}
		}()
		h.Server().DeliverTx(context.Background(), transfer(0, 1))
	})
}
