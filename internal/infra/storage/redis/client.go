// Package redis persists pagination cursors in Redis so that browsing
// sessions survive process restarts until the cursors expire.
package redis

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Options configures the connection and the lifetime of stored cursors.
type Options struct {
	Addr     string
	Username string
	Password string
	DB       int

	// TTL is refreshed on every write to a listing. Zero keeps cursors
	// until they are cleared.
	TTL time.Duration
}

type client struct {
	conn *redis.Client
	ttl  time.Duration
}

func (c *client) Close() error {
	return c.conn.Close()
}

// NewClient connects and pings the server. The connection is closed when
// the ping fails.
func NewClient(ctx context.Context, opts Options) (*client, error) {
	conn := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Username: opts.Username,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := conn.Ping(ctx).Err(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &client{
		conn: conn,
		ttl:  opts.TTL,
	}, nil
}
