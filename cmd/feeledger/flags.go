package main

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/encoding/fixedn"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/urfave/cli"
)

// gasDecimals is the precision of GAS amounts.
const gasDecimals = 8

// parseAccount accepts Neo address or hex-encoded LE script hash with
// optional 0x prefix.
func parseAccount(s string) (util.Uint160, error) {
	if s == "" {
		return util.Uint160{}, fmt.Errorf("empty account")
	}

	if u, err := address.StringToUint160(s); err == nil {
		return u, nil
	}

	u, err := util.Uint160DecodeStringLE(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return util.Uint160{}, fmt.Errorf("invalid account %q: neither address nor script hash", s)
	}

	return u, nil
}

func accountFlag(c *cli.Context, name string) (util.Uint160, error) {
	u, err := parseAccount(c.String(name))
	if err != nil {
		return u, fmt.Errorf("--%s: %w", name, err)
	}
	return u, nil
}

// integerFlag parses the flag as an integer in base units.
func integerFlag(c *cli.Context, name string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(c.String(name), 10)
	if !ok {
		return nil, fmt.Errorf("--%s: invalid integer %q", name, c.String(name))
	}
	return v, nil
}

// gasFlag parses the flag as a decimal GAS amount.
func gasFlag(c *cli.Context, name string) (*big.Int, error) {
	v, err := fixedn.FromString(c.String(name), gasDecimals)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return v, nil
}

func formatAccount(u util.Uint160) string {
	return address.Uint160ToString(u)
}

func formatGAS(v *big.Int) string {
	return fixedn.ToString(v, gasDecimals)
}
