// Package config loads the process configuration from TXPAGER_* environment
// variables, after an optional .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/gabapcia/txpager/internal/pkg/validator"
)

const prefix = "TXPAGER"

const (
	Mainnet = "mainnet"
	Testnet = "testnet"
)

// Cursor store backends.
const (
	BackendDisk   = "disk"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// ErrNetworkNotConfigured is returned by Endpoints for a network without an
// explorer API URL.
var ErrNetworkNotConfigured = errors.New("network not configured")

// Endpoints are the upstreams of one network.
type Endpoints struct {
	APIURL string `validate:"required,url"`
	RPCURL string `validate:"required,url"`
}

type Config struct {
	Network  string `envconfig:"NETWORK" default:"mainnet" validate:"oneof=mainnet testnet"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	MainnetAPIURL string `envconfig:"MAINNET_API_URL" default:"https://hyperscan.gas.zip/" validate:"omitempty,url"`
	MainnetRPCURL string `envconfig:"MAINNET_RPC_URL" default:"https://rpc.hyperliquid.xyz/evm" validate:"omitempty,url"`
	TestnetAPIURL string `envconfig:"TESTNET_API_URL" validate:"omitempty,url"`
	TestnetRPCURL string `envconfig:"TESTNET_RPC_URL" default:"https://rpc.hyperliquid-testnet.xyz/evm" validate:"omitempty,url"`

	HTTPTimeout  time.Duration `envconfig:"HTTP_TIMEOUT" default:"5s" validate:"gt=0"`
	HTTPRetryMax int           `envconfig:"HTTP_RETRY_MAX" default:"2" validate:"min=0"`

	CursorBackend string `envconfig:"CURSOR_BACKEND" default:"disk" validate:"oneof=disk redis memory"`
	CursorDir     string `envconfig:"CURSOR_DIR"`

	RedisAddr     string `envconfig:"REDIS_ADDR" validate:"required_if=CursorBackend redis"`
	RedisUsername string `envconfig:"REDIS_USERNAME"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0" validate:"min=0"`

	CursorTTL           time.Duration `envconfig:"CURSOR_TTL" default:"30m" validate:"min=0"`
	CursorCacheEntities int           `envconfig:"CURSOR_CACHE_ENTITIES" default:"256" validate:"min=1"`

	TelemetryEnabled bool   `envconfig:"TELEMETRY_ENABLED" default:"false"`
	ServiceName      string `envconfig:"SERVICE_NAME" default:"txpager" validate:"required"`
}

// Load reads .env when present, then the environment, and validates the
// result. Variables already set in the environment win over .env entries.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := validator.Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	if cfg.CursorBackend == BackendDisk && cfg.CursorDir == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve cursor dir: %w", err)
		}
		cfg.CursorDir = filepath.Join(dir, "txpager", "cursors")
	}

	return cfg, nil
}

// Networks lists every network with an explorer API configured.
func (c Config) Networks() map[string]Endpoints {
	networks := make(map[string]Endpoints, 2)
	if c.MainnetAPIURL != "" {
		networks[Mainnet] = Endpoints{APIURL: c.MainnetAPIURL, RPCURL: c.MainnetRPCURL}
	}
	if c.TestnetAPIURL != "" {
		networks[Testnet] = Endpoints{APIURL: c.TestnetAPIURL, RPCURL: c.TestnetRPCURL}
	}

	return networks
}

// Endpoints returns the upstreams of network.
func (c Config) Endpoints(network string) (Endpoints, error) {
	endpoints, ok := c.Networks()[network]
	if !ok {
		return Endpoints{}, fmt.Errorf("%w: %s", ErrNetworkNotConfigured, network)
	}

	if err := validator.Validate(endpoints); err != nil {
		return Endpoints{}, fmt.Errorf("%w: %s: %w", ErrNetworkNotConfigured, network, err)
	}

	return endpoints, nil
}
