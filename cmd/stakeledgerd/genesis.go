package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/blockberries/stakeledger/config"
)

var commandGenesis = &cli.Command{
	Name:  "genesis",
	Usage: "genesis document tools",
	Subcommands: []*cli.Command{
		{
			Name:      "validate",
			Usage:     "parse and validate a genesis document",
			ArgsUsage: "[ <genesis.yaml> ]",
			Action: func(ctx *cli.Context) error {
				path := ctx.Args().First()
				if path == "" {
					cfg, err := config.Load(configPath(ctx))
					if err != nil {
						return err
					}
					path = cfg.GenesisFile
				}
				g, err := config.LoadGenesis(path)
				if err != nil {
					return errors.Wrapf(err, "genesis %s", path)
				}
				fmt.Printf("%s: chain %s, %d accounts, %d validators\n",
					path, g.ChainID, len(g.Balances), len(g.Validators))
				return nil
			},
		},
	},
}
