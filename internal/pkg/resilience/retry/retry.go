// Package retry runs startup connectivity checks and other idempotent
// operations with exponential backoff on top of avast/retry-go.
package retry

import (
	"context"
	"errors"
	"time"

	retry "github.com/avast/retry-go/v4"

	"github.com/gabapcia/txpager/internal/pkg/logger"
)

// Retry executes an operation until it succeeds, the attempts run out or
// ctx is done.
type Retry interface {
	Execute(ctx context.Context, operation func() error) error
}

type config struct {
	name     string
	attempts uint
	delay    time.Duration
	maxDelay time.Duration
}

type Option func(*config)

type retrier struct {
	cfg config
}

var _ Retry = (*retrier)(nil)

// New defaults to 3 attempts starting at a 1s delay capped at 5s.
func New(opts ...Option) Retry {
	cfg := config{
		name:     "operation",
		attempts: 3,
		delay:    time.Second,
		maxDelay: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &retrier{cfg: cfg}
}

// Execute returns the last error when every attempt fails. Context errors
// returned by the operation stop the loop immediately.
func (r *retrier) Execute(ctx context.Context, operation func() error) error {
	return retry.Do(
		operation,
		retry.Attempts(r.cfg.attempts),
		retry.Delay(r.cfg.delay),
		retry.MaxDelay(r.cfg.maxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn(ctx, "retrying after failure", "operation", r.cfg.name, "attempt", n+1, "error", err)
		}),
	)
}

// WithName labels retry log lines.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithAttempts sets the total number of attempts, the first one included.
func WithAttempts(n uint) Option {
	return func(c *config) {
		c.attempts = n
	}
}

func WithDelay(d time.Duration) Option {
	return func(c *config) {
		c.delay = d
	}
}

func WithMaxDelay(d time.Duration) Option {
	return func(c *config) {
		c.maxDelay = d
	}
}
