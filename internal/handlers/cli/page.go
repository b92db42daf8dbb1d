package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

func (a *app) addressCommand() *cli.Command {
	return &cli.Command{
		Name:        "address",
		Description: "Print one page of the transactions sent or received by an address.",
		Usage:       "txpager address --address 0x... [--filter to|from] [--page N]",
		Flags:       []cli.Flag{addressFlag(true), filterFlag(), pageFlag()},
		Action:      a.printPage,
	}
}

func (a *app) blockCommand() *cli.Command {
	return &cli.Command{
		Name:        "block",
		Description: "Print one page of the transactions included in a block.",
		Usage:       "txpager block --block N|0xHASH|latest [--page N]",
		Flags:       []cli.Flag{blockFlag(true), pageFlag()},
		Action:      a.printPage,
	}
}

func (a *app) printPage(ctx context.Context, c *cli.Command) error {
	if err := a.selectNetwork(c); err != nil {
		return err
	}

	page, err := parsePage(c.String("page"))
	if err != nil {
		return err
	}

	key, err := a.entityKey(ctx, c)
	if err != nil {
		return err
	}

	view, err := a.session.Open(key)
	if err != nil {
		return err
	}

	state, err := view.Load(ctx, page)
	if err != nil {
		return err
	}

	a.printf("%s", renderPage(state.Result))
	return nil
}
