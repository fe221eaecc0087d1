package main

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"github.com/nspcc-dev/feeledger-contract/host"
	"github.com/nspcc-dev/feeledger-contract/internal/config"
	"github.com/nspcc-dev/feeledger-contract/internal/kafka"
	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

var configFlag = cli.StringFlag{
	Name:  "config",
	Value: "feeledger.yml",
	Usage: "Path to the configuration file",
}

func localCommands() cli.Command {
	withConfig := func(fs ...cli.Flag) []cli.Flag {
		return append([]cli.Flag{configFlag}, fs...)
	}

	return cli.Command{
		Name:  "local",
		Usage: "Operate the ledger kept in the local store",
		Subcommands: []cli.Command{
			{
				Name:  "deploy",
				Usage: "Initialize the ledger",
				Flags: withConfig(
					cli.StringFlag{Name: "owner", Usage: "Ledger owner"},
					cli.StringFlag{Name: "fee", Value: "0", Usage: "Initial fee"},
				),
				Action: action(localDeploy),
			},
			{
				Name:  "set-fee",
				Usage: "Change the fee charged on deposits",
				Flags: withConfig(
					cli.StringFlag{Name: "caller", Usage: "Calling account"},
					cli.StringFlag{Name: "fee", Usage: "New fee"},
				),
				Action: action(localSetFee),
			},
			{
				Name:  "deposit",
				Usage: "Pay to the ledger for the receiver",
				Flags: withConfig(
					cli.StringFlag{Name: "from", Usage: "Paying account"},
					cli.StringFlag{Name: "to", Usage: "Receiver"},
					cli.StringFlag{Name: "amount", Usage: "Payment"},
				),
				Action: action(localDeposit),
			},
			{
				Name:  "withdraw",
				Usage: "Withdraw the caller's reserve and, for the owner, collected fees",
				Flags: withConfig(
					cli.StringFlag{Name: "caller", Usage: "Calling account"},
				),
				Action: action(localWithdraw),
			},
			{
				Name:  "mint",
				Usage: "Credit native currency to the account",
				Flags: withConfig(
					cli.StringFlag{Name: "to", Usage: "Account"},
					cli.StringFlag{Name: "amount", Usage: "Amount"},
				),
				Action: action(localMint),
			},
			{
				Name:   "fee",
				Usage:  "Print current fee",
				Flags:  withConfig(),
				Action: action(localFee),
			},
			{
				Name:   "collected-fees",
				Usage:  "Print fees collected since the last owner withdrawal",
				Flags:  withConfig(),
				Action: action(localCollectedFees),
			},
			{
				Name:  "reserve",
				Usage: "Print the reserve of the address",
				Flags: withConfig(
					cli.StringFlag{Name: "address", Usage: "Account"},
				),
				Action: action(localReserve),
			},
			{
				Name:   "reserves",
				Usage:  "Print all non-zero reserves",
				Flags:  withConfig(),
				Action: action(localReserves),
			},
			{
				Name:  "balance",
				Usage: "Print native currency balance of the address",
				Flags: withConfig(
					cli.StringFlag{Name: "address", Usage: "Account"},
				),
				Action: action(localBalance),
			},
		},
	}
}

// withHost opens Host configured by --config for the duration of f.
func withHost(c *cli.Context, f func(*host.Host) error) error {
	cfg, err := config.Load(c.String(configFlag.Name))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := cfg.Logger.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	st, err := storage.NewStore(cfg.Storage)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Storage.Type, err)
	}

	opts := []host.Option{host.WithLogger(log)}

	if len(cfg.Kafka.Brokers) > 0 {
		pub := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() {
			if err := pub.Close(); err != nil {
				log.Warn("can't close publisher", zap.Error(err))
			}
		}()

		opts = append(opts, host.WithPublisher(pub))
	}

	h := host.New(st, opts...)
	defer func() {
		if err := h.Close(); err != nil {
			log.Warn("can't close store", zap.Error(err))
		}
	}()

	return f(h)
}

func localDeploy(c *cli.Context) error {
	owner, err := accountFlag(c, "owner")
	if err != nil {
		return err
	}
	fee, err := integerFlag(c, "fee")
	if err != nil {
		return err
	}

	return withHost(c, func(h *host.Host) error {
		return h.Deploy(context.Background(), owner, fee)
	})
}

func localSetFee(c *cli.Context) error {
	caller, err := accountFlag(c, "caller")
	if err != nil {
		return err
	}
	fee, err := integerFlag(c, "fee")
	if err != nil {
		return err
	}

	return withHost(c, func(h *host.Host) error {
		return h.SetFee(context.Background(), caller, fee)
	})
}

func localDeposit(c *cli.Context) error {
	from, err := accountFlag(c, "from")
	if err != nil {
		return err
	}
	to, err := accountFlag(c, "to")
	if err != nil {
		return err
	}
	amount, err := integerFlag(c, "amount")
	if err != nil {
		return err
	}

	return withHost(c, func(h *host.Host) error {
		return h.Deposit(context.Background(), from, to, amount)
	})
}

func localWithdraw(c *cli.Context) error {
	caller, err := accountFlag(c, "caller")
	if err != nil {
		return err
	}

	return withHost(c, func(h *host.Host) error {
		return h.Withdraw(context.Background(), caller)
	})
}

func localMint(c *cli.Context) error {
	to, err := accountFlag(c, "to")
	if err != nil {
		return err
	}
	amount, err := integerFlag(c, "amount")
	if err != nil {
		return err
	}

	return withHost(c, func(h *host.Host) error {
		return h.Mint(context.Background(), to, amount)
	})
}

func localFee(c *cli.Context) error {
	return withHost(c, func(h *host.Host) error {
		return printInt(c, h.Fee)
	})
}

func localCollectedFees(c *cli.Context) error {
	return withHost(c, func(h *host.Host) error {
		return printInt(c, h.CollectedFees)
	})
}

func localReserve(c *cli.Context) error {
	addr, err := accountFlag(c, "address")
	if err != nil {
		return err
	}

	return withHost(c, func(h *host.Host) error {
		return printInt(c, func() (*big.Int, error) { return h.ReserveOf(addr) })
	})
}

func localBalance(c *cli.Context) error {
	addr, err := accountFlag(c, "address")
	if err != nil {
		return err
	}

	return withHost(c, func(h *host.Host) error {
		return printInt(c, func() (*big.Int, error) { return h.NativeBalance(addr) })
	})
}

func localReserves(c *cli.Context) error {
	return withHost(c, func(h *host.Host) error {
		rs, err := h.Reserves()
		if err != nil {
			return err
		}

		printReserves(c, rs, (*big.Int).String)
		return nil
	})
}

func printInt(c *cli.Context, get func() (*big.Int, error)) error {
	v, err := get()
	if err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, v)
	return nil
}

// printReserves prints reserves sorted by address.
func printReserves(c *cli.Context, rs map[util.Uint160]*big.Int, format func(*big.Int) string) {
	lines := make([]string, 0, len(rs))
	for acc, v := range rs {
		lines = append(lines, formatAccount(acc)+" "+format(v))
	}

	sort.Strings(lines)

	for i := range lines {
		fmt.Fprintln(c.App.Writer, lines[i])
	}
}
