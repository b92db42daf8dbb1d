// Package cli is the txpager command line: one-shot page commands, an
// interactive pager and cursor maintenance.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/gabapcia/txpager/internal/pagination"
	"github.com/gabapcia/txpager/internal/pkg/validator"
)

// ErrNoChainHead is returned when "latest" is used on a network without a
// JSON-RPC endpoint.
var ErrNoChainHead = errors.New("no chain head reader for network")

// ChainHead reads the latest block number of one network.
type ChainHead interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
}

type app struct {
	session *pagination.Session
	heads   map[string]ChainHead
	out     io.Writer
	in      io.Reader
}

// Run parses args (os.Args shaped) and executes the selected command
// against session, writing to stdout and reading browse input from stdin.
func Run(ctx context.Context, session *pagination.Session, heads map[string]ChainHead, args []string) error {
	a := &app{session: session, heads: heads, out: os.Stdout, in: os.Stdin}
	return a.command().Run(ctx, args)
}

func (a *app) command() *cli.Command {
	return &cli.Command{
		EnableShellCompletion: true,
		Name:                  "txpager",
		Description:           "Random-access pagination over cursor-only transaction listings of an EVM explorer.",
		Usage:                 "txpager [--network NAME] [command] [flags]",
		Writer:                a.out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "network",
				Usage: "network to query (mainnet, testnet); overrides TXPAGER_NETWORK",
			},
		},
		Commands: []*cli.Command{
			a.addressCommand(),
			a.blockCommand(),
			a.browseCommand(),
			a.forgetCommand(),
			a.headCommand(),
		},
	}
}

// selectNetwork applies --network to the session before any key is built.
func (a *app) selectNetwork(c *cli.Command) error {
	network := c.String("network")
	if network == "" || network == a.session.Network() {
		return nil
	}

	if err := validator.ValidateVar(network, "network"); err != nil {
		return fmt.Errorf("--network %q: %w", network, err)
	}

	return a.session.SwitchNetwork(network)
}

func (a *app) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}
