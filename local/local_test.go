package local

import (
	"context"
	"testing"

	"github.com/blockberries/stakeledger"
	"github.com/blockberries/stakeledger/chain"
	"github.com/blockberries/stakeledger/kv"
	"github.com/blockberries/stakeledger/logging"
	"github.com/blockberries/stakeledger/query"
	ledgertest "github.com/blockberries/stakeledger/testing"
	"github.com/blockberries/stakeledger/tx"
	"github.com/blockberries/stakeledger/types"
)

func newChain(t *testing.T) *chain.App {
	t.Helper()
	store, err := kv.NewMem(kv.Options{})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	app, err := chain.New(store, chain.Options{Logger: logging.Discard()})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return app
}

func TestLocalConnection_FullCycle(t *testing.T) {
	ctx := context.Background()
	conn := NewConnection(newChain(t))
	defer conn.Close()

	if _, err := conn.Info(ctx); err != nil {
		t.Fatalf("info failed: %v", err)
	}
	doc, err := ledgertest.DefaultGenesis().Marshal()
	if err != nil {
		t.Fatalf("marshal genesis: %v", err)
	}
	if _, err := conn.InitChain(ctx, types.InitChainRequest{ChainID: ledgertest.ChainID, AppState: doc}); err != nil {
		t.Fatalf("init chain failed: %v", err)
	}

	bob := ledgertest.Key("bob").Address()
	raw := ledgertest.SignTx(t, ledgertest.Key("alice"), 0, tx.Transfer{To: bob, Asset: "STAKE", Amount: 42})
	outcome, err := stakeledger.ExecuteBlock(ctx, conn, ledgertest.MakeBlock(1, raw))
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if !outcome.TxResults[0].OK() {
		t.Fatalf("tx failed: %s", outcome.TxResults[0].Log)
	}
	if _, err := conn.Commit(ctx); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	result, err := conn.Query(ctx, types.StateQuery{
		Path: query.PathBalance,
		Data: []byte(bob.String() + "/STAKE"),
	})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	bal, err := query.Decode[query.BalanceResponse](result)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if bal.Amount != 1_000_042 {
		t.Errorf("expected balance 1000042, got %d", bal.Amount)
	}
}

func TestLocalConnection_CheckTxConcurrent(t *testing.T) {
	conn := NewConnection(&ledgertest.MockApp{})

	if _, err := conn.InitChain(context.Background(), types.InitChainRequest{ChainID: "test"}); err != nil {
		t.Fatalf("init chain failed: %v", err)
	}

	done := make(chan struct{})
	for i := 0; i < 20; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			_, err := conn.CheckTx(context.Background(), types.Tx{0x01})
			if err != nil {
				t.Errorf("CheckTx error: %v", err)
			}
		}()
	}
	for i := 0; i < 20; i++ {
		<-done
	}
}

func TestLocalConnection_Compliance(t *testing.T) {
	ledgertest.RunComplianceSuite(t, func() stakeledger.Lifecycle {
		return NewConnection(newChain(t))
	})
}
