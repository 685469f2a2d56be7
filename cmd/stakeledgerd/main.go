// stakeledgerd runs the staking ledger application and serves it to a
// consensus engine over gRPC.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Set via linker flags.
var (
	version   = "dev"
	gitCommit = ""
)

func newApp() *cli.App {
	return &cli.App{
		Name:    "stakeledgerd",
		Usage:   "proof-of-stake staking ledger application",
		Version: fmt.Sprintf("%s-%s", version, gitCommit),
		Flags:   []cli.Flag{homeFlag},
		Commands: []*cli.Command{
			commandInit,
			commandStart,
			commandGenesis,
			commandKeys,
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
