package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/nspcc-dev/feeledger-contract/contracts"
	"github.com/nspcc-dev/feeledger-contract/rpc/feeledger"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/invoker"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/management"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
	"github.com/urfave/cli"
)

// walletPasswordEnv is the environment variable holding wallet password.
const walletPasswordEnv = "FEELEDGER_WALLET_PASSWORD"

var (
	endpointFlag = cli.StringFlag{
		Name:  "rpc-endpoint, r",
		Usage: "Neo RPC server address",
	}
	contractFlag = cli.StringFlag{
		Name:  "contract",
		Usage: "FeeLedger contract address or script hash",
	}
	walletFlag = cli.StringFlag{
		Name:  "wallet, w",
		Usage: "Path to the wallet, password is read from " + walletPasswordEnv,
	}
	addressFlag = cli.StringFlag{
		Name:  "address",
		Usage: "Wallet account to sign with, the first one by default",
	}
)

func remoteCommands() cli.Command {
	readFlags := func(fs ...cli.Flag) []cli.Flag {
		return append([]cli.Flag{endpointFlag, contractFlag}, fs...)
	}
	writeFlags := func(fs ...cli.Flag) []cli.Flag {
		return append(readFlags(walletFlag, addressFlag), fs...)
	}

	return cli.Command{
		Name:  "remote",
		Usage: "Operate FeeLedger contract deployed on the Neo chain",
		Subcommands: []cli.Command{
			{
				Name:  "deploy",
				Usage: "Deploy the contract, sender becomes its owner",
				Flags: []cli.Flag{endpointFlag, walletFlag, addressFlag,
					cli.StringFlag{Name: "in", Value: "contracts/feeledger", Usage: "Directory with compiled contract.nef and manifest.json"},
					cli.StringFlag{Name: "fee", Value: "0", Usage: "Initial fee in GAS"},
				},
				Action: action(remoteDeploy),
			},
			{
				Name:   "set-fee",
				Usage:  "Change the fee charged on deposits",
				Flags:  writeFlags(cli.StringFlag{Name: "fee", Usage: "New fee in GAS"}),
				Action: action(remoteSetFee),
			},
			{
				Name:  "deposit",
				Usage: "Transfer GAS to the contract for the receiver",
				Flags: writeFlags(
					cli.StringFlag{Name: "to", Usage: "Receiver, the sender by default"},
					cli.StringFlag{Name: "amount", Usage: "Payment in GAS"},
				),
				Action: action(remoteDeposit),
			},
			{
				Name:   "withdraw",
				Usage:  "Withdraw the sender's reserve and, for the owner, collected fees",
				Flags:  writeFlags(),
				Action: action(remoteWithdraw),
			},
			{
				Name:  "fee",
				Usage: "Print current fee",
				Flags: readFlags(),
				Action: action(func(c *cli.Context) error {
					return withReader(c, func(r *feeledger.ContractReader) error {
						return printGAS(c, r.Fee)
					})
				}),
			},
			{
				Name:  "collected-fees",
				Usage: "Print fees collected since the last owner withdrawal",
				Flags: readFlags(),
				Action: action(func(c *cli.Context) error {
					return withReader(c, func(r *feeledger.ContractReader) error {
						return printGAS(c, r.CollectedFees)
					})
				}),
			},
			{
				Name:   "reserve",
				Usage:  "Print the reserve of the address",
				Flags:  readFlags(cli.StringFlag{Name: "address", Usage: "Account"}),
				Action: action(remoteReserve),
			},
			{
				Name:   "reserves",
				Usage:  "Print non-zero reserves",
				Flags:  readFlags(cli.IntFlag{Name: "max", Value: 1000, Usage: "Maximum number of reserves"}),
				Action: action(remoteReserves),
			},
			{
				Name:  "owner",
				Usage: "Print the contract owner",
				Flags: readFlags(),
				Action: action(func(c *cli.Context) error {
					return withReader(c, func(r *feeledger.ContractReader) error {
						owner, err := r.Owner()
						if err != nil {
							return err
						}
						fmt.Fprintln(c.App.Writer, formatAccount(owner))
						return nil
					})
				}),
			},
		},
	}
}

func newClient(c *cli.Context) (*rpcclient.Client, error) {
	endpoint := c.String("rpc-endpoint")
	if endpoint == "" {
		return nil, errors.New("missing RPC endpoint")
	}

	cl, err := rpcclient.New(context.Background(), endpoint, rpcclient.Options{})
	if err != nil {
		return nil, fmt.Errorf("create RPC client: %w", err)
	}

	if err := cl.Init(); err != nil {
		cl.Close()
		return nil, fmt.Errorf("init RPC client: %w", err)
	}

	return cl, nil
}

func withReader(c *cli.Context, f func(*feeledger.ContractReader) error) error {
	hash, err := accountFlag(c, "contract")
	if err != nil {
		return err
	}

	cl, err := newClient(c)
	if err != nil {
		return err
	}
	defer cl.Close()

	return f(feeledger.NewReader(invoker.New(cl, nil), hash))
}

func newActor(c *cli.Context, cl *rpcclient.Client) (*actor.Actor, error) {
	w, err := wallet.NewWalletFromFile(c.String("wallet"))
	if err != nil {
		return nil, fmt.Errorf("open wallet: %w", err)
	}
	defer w.Close()

	var acc *wallet.Account
	if s := c.String("address"); s != "" {
		u, err := parseAccount(s)
		if err != nil {
			return nil, fmt.Errorf("--address: %w", err)
		}
		acc = w.GetAccount(u)
	} else if len(w.Accounts) > 0 {
		acc = w.Accounts[0]
	}
	if acc == nil {
		return nil, errors.New("no account to sign with")
	}

	if err := acc.Decrypt(os.Getenv(walletPasswordEnv), w.Scrypt); err != nil {
		return nil, fmt.Errorf("decrypt account %s: %w", acc.Address, err)
	}

	return actor.NewSimple(cl, acc)
}

func withActor(c *cli.Context, f func(*actor.Actor) (util.Uint256, uint32, error)) error {
	cl, err := newClient(c)
	if err != nil {
		return err
	}
	defer cl.Close()

	act, err := newActor(c, cl)
	if err != nil {
		return err
	}

	aer, err := act.Wait(f(act))
	if err != nil {
		return err
	}

	if aer.VMState != vmstate.Halt {
		return fmt.Errorf("transaction %s failed: %s", aer.Container.StringLE(), aer.FaultException)
	}

	fmt.Fprintln(c.App.Writer, aer.Container.StringLE())
	return nil
}

func withContract(c *cli.Context, f func(*actor.Actor, util.Uint160) (util.Uint256, uint32, error)) error {
	hash, err := accountFlag(c, "contract")
	if err != nil {
		return err
	}

	return withActor(c, func(act *actor.Actor) (util.Uint256, uint32, error) {
		return f(act, hash)
	})
}

func remoteDeploy(c *cli.Context) error {
	fee, err := gasFlag(c, "fee")
	if err != nil {
		return err
	}

	ctr, err := contracts.ReadFeeLedger(os.DirFS(c.String("in")))
	if err != nil {
		return fmt.Errorf("read compiled contract: %w", err)
	}

	return withActor(c, func(act *actor.Actor) (util.Uint256, uint32, error) {
		fmt.Fprintln(c.App.Writer, "contract:", state.CreateContractHash(act.Sender(), ctr.NEF.Checksum, ctr.Manifest.Name).StringLE())
		return management.New(act).Deploy(&ctr.NEF, &ctr.Manifest, []any{fee})
	})
}

func remoteSetFee(c *cli.Context) error {
	fee, err := gasFlag(c, "fee")
	if err != nil {
		return err
	}

	return withContract(c, func(act *actor.Actor, hash util.Uint160) (util.Uint256, uint32, error) {
		return feeledger.New(act, hash).SetFee(fee)
	})
}

func remoteDeposit(c *cli.Context) error {
	amount, err := gasFlag(c, "amount")
	if err != nil {
		return err
	}

	return withContract(c, func(act *actor.Actor, hash util.Uint160) (util.Uint256, uint32, error) {
		to := act.Sender()
		if c.String("to") != "" {
			var err error
			if to, err = accountFlag(c, "to"); err != nil {
				return util.Uint256{}, 0, err
			}
		}

		return feeledger.NewDepositor(act, hash).Deposit(act.Sender(), to, amount)
	})
}

func remoteWithdraw(c *cli.Context) error {
	return withContract(c, func(act *actor.Actor, hash util.Uint160) (util.Uint256, uint32, error) {
		return feeledger.New(act, hash).Withdraw(act.Sender())
	})
}

func remoteReserve(c *cli.Context) error {
	addr, err := accountFlag(c, "address")
	if err != nil {
		return err
	}

	return withReader(c, func(r *feeledger.ContractReader) error {
		return printGAS(c, func() (*big.Int, error) { return r.ReserveOf(addr) })
	})
}

func remoteReserves(c *cli.Context) error {
	return withReader(c, func(r *feeledger.ContractReader) error {
		items, err := r.IterateReservesExpanded(c.Int("max"))
		if err != nil {
			return err
		}

		rs, err := feeledger.ParseReserves(items)
		if err != nil {
			return err
		}

		printReserves(c, rs, formatGAS)
		return nil
	})
}

func printGAS(c *cli.Context, get func() (*big.Int, error)) error {
	v, err := get()
	if err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, formatGAS(v))
	return nil
}
