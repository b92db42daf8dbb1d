package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gabapcia/txpager/internal/config"
	"github.com/gabapcia/txpager/internal/handlers/cli"
	"github.com/gabapcia/txpager/internal/infra/blockchain/ethereum"
	"github.com/gabapcia/txpager/internal/infra/explorer"
	"github.com/gabapcia/txpager/internal/infra/storage/memory"
	"github.com/gabapcia/txpager/internal/infra/storage/pebble"
	"github.com/gabapcia/txpager/internal/infra/storage/redis"
	"github.com/gabapcia/txpager/internal/pagination"
	"github.com/gabapcia/txpager/internal/pkg/logger"
	"github.com/gabapcia/txpager/internal/pkg/resilience/retry"
	"github.com/gabapcia/txpager/internal/pkg/telemetry"
	httptransport "github.com/gabapcia/txpager/internal/pkg/transport/http"
	"github.com/gabapcia/txpager/internal/pkg/transport/jsonrpc"
)

const shutdownTimeout = 5 * time.Second

type closableStore interface {
	pagination.CursorStore
	Close() error
}

func newCursorStore(ctx context.Context, cfg config.Config) (pagination.CursorStore, func() error, error) {
	switch cfg.CursorBackend {
	case config.BackendMemory:
		store, err := memory.NewStore(cfg.CursorCacheEntities)
		return store, func() error { return nil }, err
	case config.BackendDisk:
		if err := os.MkdirAll(cfg.CursorDir, 0o700); err != nil {
			return nil, nil, fmt.Errorf("create cursor dir: %w", err)
		}

		store, err := pebble.Open(cfg.CursorDir, cfg.CursorTTL)
		if err != nil {
			return nil, nil, err
		}

		return store, store.Close, nil
	}

	var store closableStore
	err := retry.New(retry.WithName("redis connect")).Execute(ctx, func() error {
		client, err := redis.NewClient(ctx, redis.Options{
			Addr:     cfg.RedisAddr,
			Username: cfg.RedisUsername,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CursorTTL,
		})
		if err != nil {
			return err
		}

		store = client
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
	}

	return store, store.Close, nil
}

// upstreams builds one lister and one chain head reader per configured
// network.
func upstreams(cfg config.Config) (map[string]pagination.Lister, map[string]cli.ChainHead, error) {
	var (
		listers = make(map[string]pagination.Lister)
		heads   = make(map[string]cli.ChainHead)
		opts    = []httptransport.Option{
			httptransport.WithTimeout(cfg.HTTPTimeout),
			httptransport.WithRetryMax(cfg.HTTPRetryMax),
		}
	)

	for network := range cfg.Networks() {
		endpoints, err := cfg.Endpoints(network)
		if err != nil {
			return nil, nil, err
		}

		api, err := explorer.NewClient(endpoints.APIURL, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", network, err)
		}

		listers[network] = pagination.NewLister(api)
		heads[network] = ethereum.NewClient(jsonrpc.NewClient(endpoints.RPCURL, opts...))
	}

	return listers, heads, nil
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.TelemetryEnabled {
		shutdown, err := telemetry.Init(ctx, cfg.ServiceName)
		if err != nil {
			return fmt.Errorf("init telemetry: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = shutdown(ctx)
		}()
	}

	if err := logger.Init(cfg.LogLevel); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	store, closeStore, err := newCursorStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	listers, heads, err := upstreams(cfg)
	if err != nil {
		return err
	}

	session, err := pagination.NewSession(cfg.Network, store, listers,
		pagination.WithCountCacheSize(cfg.CursorCacheEntities),
	)
	if err != nil {
		return err
	}
	defer session.Close()

	return cli.Run(ctx, session, heads, os.Args)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "txpager:", err)
		stop()
		os.Exit(1)
	}
}
