package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/gabapcia/txpager/internal/pagination"
)

const latestBlock = "latest"

var errEntityRequired = errors.New("exactly one of --address or --block is required")

func addressFlag(required bool) *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "address",
		Usage:    "account or contract address (0x...)",
		Required: required,
	}
}

func filterFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "filter",
		Usage: "only transactions sent \"from\" or received \"to\" the address",
	}
}

func blockFlag(required bool) *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "block",
		Usage:    "block number, block hash or \"latest\"",
		Required: required,
	}
}

func pageFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "page",
		Usage: "1-based page number",
		Value: "1",
	}
}

func parsePage(raw string) (int, error) {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || page < 1 {
		return 0, fmt.Errorf("%w: %q", pagination.ErrInvalidPage, raw)
	}

	return page, nil
}

// blockID resolves "latest" through the chain head of the session network.
func (a *app) blockID(ctx context.Context, block string) (string, error) {
	if !strings.EqualFold(strings.TrimSpace(block), latestBlock) {
		return block, nil
	}

	network := a.session.Network()
	head, ok := a.heads[network]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoChainHead, network)
	}

	number, err := head.LatestBlockNumber(ctx)
	if err != nil {
		return "", fmt.Errorf("read latest block: %w", err)
	}

	return strconv.FormatUint(number, 10), nil
}

// entityKey builds the key from --address/--filter or --block.
func (a *app) entityKey(ctx context.Context, c *cli.Command) (pagination.EntityKey, error) {
	address, block := c.String("address"), c.String("block")

	switch {
	case address != "" && block == "":
		return pagination.NewAddressKey(a.session.Network(), address, c.String("filter"))
	case block != "" && address == "":
		id, err := a.blockID(ctx, block)
		if err != nil {
			return pagination.EntityKey{}, err
		}
		return pagination.NewBlockKey(a.session.Network(), id)
	default:
		return pagination.EntityKey{}, errEntityRequired
	}
}
