package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nspcc-dev/feeledger-contract/internal/config"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

type cliEnv struct {
	cfg string
	out *bytes.Buffer
}

func newCLIEnv(t *testing.T) *cliEnv {
	cli.OsExiter = func(int) {}
	cli.ErrWriter = io.Discard

	dir := t.TempDir()
	cfg := config.Default(filepath.Join(dir, "ledger.db"))
	cfg.Logger.Level = "error"

	p := filepath.Join(dir, "feeledger.yml")
	require.NoError(t, config.Write(p, cfg))

	return &cliEnv{cfg: p, out: new(bytes.Buffer)}
}

func (e *cliEnv) run(args ...string) (string, error) {
	e.out.Reset()

	app := newApp()
	app.Writer = e.out
	app.ErrWriter = io.Discard

	full := append([]string{"feeledger", "local", args[0], "--config", e.cfg}, args[1:]...)
	err := app.Run(full)
	return strings.TrimSpace(e.out.String()), err
}

func (e *cliEnv) mustRun(t *testing.T, args ...string) string {
	out, err := e.run(args...)
	require.NoError(t, err, strings.Join(args, " "))
	return out
}

func TestLocal(t *testing.T) {
	var (
		owner    = address.Uint160ToString(util.Uint160{1})
		address1 = address.Uint160ToString(util.Uint160{2})
		address2 = "0x" + util.Uint160{3}.StringLE()
		receiver = address.Uint160ToString(util.Uint160{4})
	)

	e := newCLIEnv(t)

	e.mustRun(t, "deploy", "--owner", owner, "--fee", "1")
	e.mustRun(t, "mint", "--to", owner, "--amount", "4")
	e.mustRun(t, "mint", "--to", address1, "--amount", "5")
	e.mustRun(t, "mint", "--to", address2, "--amount", "6")

	e.mustRun(t, "deposit", "--from", address1, "--to", receiver, "--amount", "3")
	e.mustRun(t, "deposit", "--from", address2, "--to", receiver, "--amount", "4")
	e.mustRun(t, "deposit", "--from", owner, "--to", address1, "--amount", "2")

	require.Equal(t, "1", e.mustRun(t, "fee"))
	require.Equal(t, "3", e.mustRun(t, "collected-fees"))
	require.Equal(t, "5", e.mustRun(t, "reserve", "--address", receiver))
	require.Equal(t, "0", e.mustRun(t, "reserve", "--address", address2))
	require.Len(t, strings.Split(e.mustRun(t, "reserves"), "\n"), 2)

	_, err := e.run("deposit", "--from", address1, "--to", receiver, "--amount", "1")
	require.ErrorContains(t, err, "Payments must be greater than fee")

	_, err = e.run("set-fee", "--caller", address1, "--fee", "2")
	require.ErrorContains(t, err, "Endpoint can only be called by owner")

	_, err = e.run("withdraw", "--caller", address2)
	require.ErrorContains(t, err, "Nothing to claim")

	e.mustRun(t, "withdraw", "--caller", receiver)
	require.Equal(t, "5", e.mustRun(t, "balance", "--address", receiver))

	e.mustRun(t, "withdraw", "--caller", owner)
	require.Equal(t, "5", e.mustRun(t, "balance", "--address", owner))
	require.Equal(t, "0", e.mustRun(t, "collected-fees"))

	e.mustRun(t, "set-fee", "--caller", owner, "--fee", "2")
	require.Equal(t, "2", e.mustRun(t, "fee"))

	t.Run("invalid arguments", func(t *testing.T) {
		_, err := e.run("deposit", "--from", "bad", "--to", receiver, "--amount", "3")
		require.Error(t, err)

		_, err = e.run("deposit", "--from", address1, "--to", receiver, "--amount", "x")
		require.Error(t, err)
	})
}

func TestParseAccount(t *testing.T) {
	u := util.Uint160{1, 2, 3}

	for _, s := range []string{
		address.Uint160ToString(u),
		u.StringLE(),
		"0x" + u.StringLE(),
	} {
		res, err := parseAccount(s)
		require.NoError(t, err, s)
		require.Equal(t, u, res)
	}

	for _, s := range []string{"", "NotAnAddress", "0x01"} {
		_, err := parseAccount(s)
		require.Error(t, err, s)
	}
}

func TestVersion(t *testing.T) {
	v, err := os.ReadFile("../../VERSION")
	require.NoError(t, err)
	require.Equal(t, strings.TrimPrefix(strings.TrimSpace(string(v)), "v"), newApp().Version)
}

func TestRemote(t *testing.T) {
	cli.OsExiter = func(int) {}
	cli.ErrWriter = io.Discard

	run := func(args ...string) error {
		app := newApp()
		app.Writer = io.Discard
		app.ErrWriter = io.Discard
		return app.Run(append([]string{"feeledger", "remote"}, args...))
	}

	contract := util.Uint160{7}.StringLE()

	err := run("fee", "--contract", contract)
	require.ErrorContains(t, err, "missing RPC endpoint")

	err = run("fee")
	require.Error(t, err)

	err = run("withdraw", "--contract", contract)
	require.ErrorContains(t, err, "missing RPC endpoint")

	err = run("deploy", "--in", t.TempDir())
	require.ErrorContains(t, err, "read compiled contract")

	err = run("deploy", "--fee", "x")
	require.Error(t, err)
}
