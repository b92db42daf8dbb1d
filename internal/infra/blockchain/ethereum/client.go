// Package ethereum reads the chain head of an EVM node over JSON-RPC.
package ethereum

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/gabapcia/txpager/internal/pkg/transport/jsonrpc"
)

type client struct {
	conn jsonrpc.Client
}

func NewClient(conn jsonrpc.Client) *client {
	return &client{conn: conn}
}

// LatestBlockNumber calls eth_blockNumber.
func (c *client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	data, err := c.conn.Fetch(ctx, "eth_blockNumber")
	if err != nil {
		return 0, err
	}

	var number hexutil.Uint64
	if err := json.Unmarshal(data, &number); err != nil {
		return 0, fmt.Errorf("decode eth_blockNumber: %w", err)
	}

	return uint64(number), nil
}
