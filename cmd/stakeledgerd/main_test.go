package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blockberries/stakeledger"
	"github.com/blockberries/stakeledger/config"
)

func TestInitWritesLoadableFiles(t *testing.T) {
	home := t.TempDir()
	validator := "0100000000000000000000000000000000000000000000000000000000000001"

	err := newApp().Run([]string{"stakeledgerd", "--home", home, "init", "--chain-id", "devnet", "--validator-key", validator})
	require.NoError(t, err)

	cfg, err := config.Load(filepath.Join(home, config.ConfigFile))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, "data"), cfg.DataDir)

	g, err := config.LoadGenesis(cfg.GenesisFile)
	require.NoError(t, err)
	require.Equal(t, "devnet", g.ChainID)
	require.Len(t, g.Validators, 1)
	require.Equal(t, g.Balances[0].Address, g.Validators[0].Operator)

	err = newApp().Run([]string{"stakeledgerd", "--home", home, "init"})
	require.Error(t, err, "init must not overwrite without --force")

	err = newApp().Run([]string{"stakeledgerd", "--home", home, "genesis", "validate"})
	require.NoError(t, err)
}

func TestGenesisValidateRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chain_id: [\n"), 0o644))

	err := newApp().Run([]string{"stakeledgerd", "genesis", "validate", path})
	require.Error(t, err)
}

type fakeHalter struct {
	ch  chan struct{}
	err error
}

func (f *fakeHalter) Halted() <-chan struct{} { return f.ch }
func (f *fakeHalter) Err() error              { return f.err }

func TestWatchHaltReturnsTheHaltError(t *testing.T) {
	f := &fakeHalter{ch: make(chan struct{}), err: stakeledger.NewHaltError(4, "commit: disk full")}
	close(f.ch)

	err := watchHalt(context.Background(), f)
	h, ok := stakeledger.IsHalt(err)
	require.True(t, ok, "expected a halt error, got %v", err)
	require.Equal(t, uint64(4), h.Height)
}

func TestWatchHaltStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, watchHalt(ctx, &fakeHalter{ch: make(chan struct{})}))
}
