package main

import (
	"fmt"
	"os"

	"github.com/nspcc-dev/feeledger-contract/common"
	"github.com/urfave/cli"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "feeledger"
	app.Usage = "Fee ledger: deposits with per-deposit fee and withdrawals"
	app.Version = version()
	app.Commands = []cli.Command{
		localCommands(),
		remoteCommands(),
	}
	return app
}

// action converts action errors to the exit errors.
func action(f func(c *cli.Context) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		if err := f(c); err != nil {
			return cli.NewExitError(err, 1)
		}
		return nil
	}
}

// version formats the contract version the tool is built with.
func version() string {
	return fmt.Sprintf("%d.%d.%d",
		common.Version/1_000_000, common.Version/1_000%1_000, common.Version%1_000)
}
