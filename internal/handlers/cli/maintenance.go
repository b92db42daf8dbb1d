package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func (a *app) forgetCommand() *cli.Command {
	return &cli.Command{
		Name:        "forget",
		Description: "Drop the cached cursors of an address or block listing.",
		Usage:       "txpager forget (--address 0x... [--filter to|from] | --block N|0xHASH)",
		Flags:       []cli.Flag{addressFlag(false), filterFlag(), blockFlag(false)},
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := a.selectNetwork(c); err != nil {
				return err
			}

			key, err := a.entityKey(ctx, c)
			if err != nil {
				return err
			}

			if err := a.session.Forget(ctx, key); err != nil {
				return err
			}

			a.printf("forgot cursors of %s\n", key)
			return nil
		},
	}
}

func (a *app) headCommand() *cli.Command {
	return &cli.Command{
		Name:        "head",
		Description: "Print the latest block number of the selected network.",
		Usage:       "txpager [--network NAME] head",
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := a.selectNetwork(c); err != nil {
				return err
			}

			network := a.session.Network()
			head, ok := a.heads[network]
			if !ok {
				return fmt.Errorf("%w: %s", ErrNoChainHead, network)
			}

			number, err := head.LatestBlockNumber(ctx)
			if err != nil {
				return err
			}

			a.printf("%s %d\n", network, number)
			return nil
		},
	}
}
