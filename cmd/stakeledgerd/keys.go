package main

import (
	"encoding/hex"
	"fmt"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/blockberries/stakeledger/crypto"
)

var commandKeys = &cli.Command{
	Name:  "keys",
	Usage: "account key tools",
	Subcommands: []*cli.Command{
		{
			Name:  "generate",
			Usage: "generate a secp256k1 account key",
			Action: func(ctx *cli.Context) error {
				key, err := crypto.GenerateKey()
				if err != nil {
					return err
				}
				fmt.Println("address:    ", key.Address())
				fmt.Println("public key: ", hex.EncodeToString(key.PubKey()))
				fmt.Println("private key:", hex.EncodeToString(key.Bytes()))
				return nil
			},
		},
		{
			Name:  "show",
			Usage: "print the address of a private key",
			Flags: []cli.Flag{privateKeyFlag},
			Action: func(ctx *cli.Context) error {
				raw, err := hex.DecodeString(ctx.String(privateKeyFlag.Name))
				if err != nil {
					return errors.Wrap(err, "--private-key")
				}
				key, err := crypto.PrivKeyFromBytes(raw)
				if err != nil {
					return errors.Wrap(err, "--private-key")
				}
				fmt.Println("address:   ", key.Address())
				fmt.Println("public key:", hex.EncodeToString(key.PubKey()))
				return nil
			},
		},
	},
}
