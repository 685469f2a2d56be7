package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/blockberries/stakeledger/config"
	"github.com/blockberries/stakeledger/crypto"
)

var commandInit = &cli.Command{
	Name:  "init",
	Usage: "write a default config and a single-validator genesis",
	Description: `
Creates config.toml and genesis.yaml in the home directory. A fresh
operator key funds the genesis validator; its private key is printed
once and not stored.
`,
	Flags: []cli.Flag{chainIDFlag, validatorKeyFlag, selfBondFlag, fundFlag, forceFlag},
	Action: func(ctx *cli.Context) error {
		home := ctx.String(homeFlag.Name)
		cfg := config.Default(home)
		cfgPath := configPath(ctx)

		if !ctx.Bool(forceFlag.Name) {
			for _, p := range []string{cfgPath, cfg.GenesisFile} {
				if _, err := os.Stat(p); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", p)
				}
			}
		}

		operator, err := crypto.GenerateKey()
		if err != nil {
			return errors.Wrap(err, "generate operator key")
		}
		g, err := buildGenesis(ctx, operator.Address())
		if err != nil {
			return err
		}
		doc, err := g.Marshal()
		if err != nil {
			return errors.Wrap(err, "encode genesis")
		}

		if err := config.Save(cfgPath, cfg); err != nil {
			return errors.Wrap(err, "write config")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.GenesisFile), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(cfg.GenesisFile, doc, 0o644); err != nil {
			return errors.Wrap(err, "write genesis")
		}

		fmt.Println("config: ", cfgPath)
		fmt.Println("genesis:", cfg.GenesisFile)
		fmt.Println("operator address:    ", operator.Address())
		fmt.Println("operator private key:", hex.EncodeToString(operator.Bytes()))
		return nil
	},
}

func buildGenesis(ctx *cli.Context, operator crypto.Address) (*config.Genesis, error) {
	params := config.DefaultGenesisParams()
	g := &config.Genesis{
		ChainID:       ctx.String(chainIDFlag.Name),
		InitialHeight: 1,
		Params:        params,
		Assets: []config.GenesisAsset{{
			Code:         params.StakingAsset,
			Transferable: true,
		}},
		Balances: []config.GenesisBalance{{
			Address: operator.String(),
			Asset:   params.StakingAsset,
			Amount:  ctx.Uint64(fundFlag.Name),
		}},
	}
	if key := ctx.String(validatorKeyFlag.Name); key != "" {
		g.Validators = append(g.Validators, config.GenesisValidator{
			PubKey:   key,
			Operator: operator.String(),
			SelfBond: ctx.Uint64(selfBondFlag.Name),
			Moniker:  "genesis",
		})
	}
	if err := g.Validate(); err != nil {
		return nil, errors.Wrap(err, "genesis")
	}
	return g, nil
}
