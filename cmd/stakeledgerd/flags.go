package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/blockberries/stakeledger/config"
)

func defaultHome() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".stakeledger")
	}
	return ".stakeledger"
}

var (
	homeFlag = &cli.StringFlag{
		Name:    "home",
		Usage:   "node home directory",
		Value:   defaultHome(),
		EnvVars: []string{"STAKELEDGER_HOME"},
	}
	chainIDFlag = &cli.StringFlag{
		Name:  "chain-id",
		Usage: "chain id written to the genesis document",
		Value: "stakeledger-local",
	}
	validatorKeyFlag = &cli.StringFlag{
		Name:  "validator-key",
		Usage: "hex ed25519 consensus key of the genesis validator",
	}
	selfBondFlag = &cli.Uint64Flag{
		Name:  "self-bond",
		Usage: "self-bond of the genesis validator",
		Value: 1_000_000,
	}
	fundFlag = &cli.Uint64Flag{
		Name:  "fund",
		Usage: "staking asset credited to the generated operator account",
		Value: 1_000_000_000,
	}
	forceFlag = &cli.BoolFlag{
		Name:  "force",
		Usage: "overwrite existing files",
	}
	privateKeyFlag = &cli.StringFlag{
		Name:  "private-key",
		Usage: "hex secp256k1 private key",
	}
)

func configPath(ctx *cli.Context) string {
	return filepath.Join(ctx.String(homeFlag.Name), config.ConfigFile)
}
