// Package explorer is the client for the Blockscout v2 style indexing API
// that serves transaction listings and their counters.
package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/gabapcia/txpager/internal/pagination"
	"github.com/gabapcia/txpager/internal/pkg/logger"
	httptransport "github.com/gabapcia/txpager/internal/pkg/transport/http"
)

var (
	// ErrUnexpectedStatus is returned for any non-200 response other than 404.
	ErrUnexpectedStatus = errors.New("unexpected http status")

	// ErrNotFound is returned when the API does not know the address or block.
	ErrNotFound = errors.New("entity not found")
)

type Client struct {
	baseURL    *url.URL
	httpClient *retryablehttp.Client
}

var _ pagination.Explorer = (*Client)(nil)

// NewClient targets the API rooted at baseURL. opts tune the retrying HTTP
// transport.
func NewClient(baseURL string, opts ...httptransport.Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid explorer url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid explorer url: %q is not absolute", baseURL)
	}

	return &Client{
		baseURL:    u,
		httpClient: httptransport.NewClient(opts...),
	}, nil
}

func (c *Client) get(ctx context.Context, query url.Values, out any, path ...string) error {
	u := c.baseURL.JoinPath(append([]string{"api", "v2"}, path...)...)
	u.RawQuery = query.Encode()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	logger.Debug(ctx, "explorer request", "url", u.String())

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, u.Path)
	default:
		return fmt.Errorf("%w: %s", ErrUnexpectedStatus, res.Status)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", u.Path, err)
	}

	return nil
}

// listQuery replays cursor verbatim and pins the page size.
func listQuery(cursor pagination.Cursor) url.Values {
	query := url.Values{}
	for name, value := range cursor {
		query.Set(name, value)
	}
	query.Set("limit", strconv.Itoa(pagination.PageSize))

	return query
}

func (c *Client) listTransactions(ctx context.Context, query url.Values, path ...string) (pagination.Page, error) {
	var list transactionList
	if err := c.get(ctx, query, &list, path...); err != nil {
		return pagination.Page{}, err
	}

	return list.toDomain()
}

// AddressTransactions lists the transactions of address. filter is "to",
// "from" or empty for both directions.
func (c *Client) AddressTransactions(ctx context.Context, address, filter string, cursor pagination.Cursor) (pagination.Page, error) {
	query := listQuery(cursor)
	if filter != "" {
		query.Set("filter", filter)
	}

	return c.listTransactions(ctx, query, "addresses", address, "transactions")
}

func (c *Client) AddressTransactionCount(ctx context.Context, address string) (int64, error) {
	var counters addressCounters
	if err := c.get(ctx, nil, &counters, "addresses", address, "counters"); err != nil {
		return 0, err
	}

	return int64(counters.TransactionsCount), nil
}

// BlockTransactions lists the transactions of a block given by number or
// hash.
func (c *Client) BlockTransactions(ctx context.Context, block string, cursor pagination.Cursor) (pagination.Page, error) {
	return c.listTransactions(ctx, listQuery(cursor), "blocks", block, "transactions")
}

func (c *Client) BlockTransactionCount(ctx context.Context, id string) (int64, error) {
	var b block
	if err := c.get(ctx, nil, &b, "blocks", id); err != nil {
		return 0, err
	}

	return b.count(), nil
}
