package ratelimiter

import (
	"context"
	"fmt"
	"time"
)

// Limiter admits or rejects attempts identified by key.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
	AllowN(ctx context.Context, key string, n int) (Result, error)
}

// Store keeps bucket state. Take removes n tokens when the bucket holds at least n and
// reports what is left; on a denial nothing is removed and remaining is negative.
type Store interface {
	Take(ctx context.Context, key string, n int, cfg Config) (remaining int, resetAt time.Time, err error)
	Reset(ctx context.Context, key string) error
}

// Config describes one bucket.
type Config struct {
	Capacity       int           `env:"CHECKOUT_RATE_CAPACITY" envDefault:"5"`  // Capacity is the burst size.
	RefillRate     int           `env:"CHECKOUT_RATE_REFILL" envDefault:"1"`    // RefillRate is the tokens added per interval.
	RefillInterval time.Duration `env:"CHECKOUT_RATE_INTERVAL" envDefault:"1m"` // RefillInterval is how often tokens are added.
}

func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidConfig, c.Capacity)
	}
	if c.RefillRate <= 0 {
		return fmt.Errorf("%w: refill rate must be positive, got %d", ErrInvalidConfig, c.RefillRate)
	}
	if c.RefillInterval <= 0 {
		return fmt.Errorf("%w: refill interval must be positive, got %v", ErrInvalidConfig, c.RefillInterval)
	}
	return nil
}

// fullAfter is how long an untouched bucket takes to refill completely.
func (c Config) fullAfter() time.Duration {
	intervals := (c.Capacity + c.RefillRate - 1) / c.RefillRate
	return time.Duration(intervals) * c.RefillInterval
}

// Result is the outcome of one attempt.
type Result struct {
	Limit     int
	Remaining int
	ResetAt   time.Time // next refill
}

func (r Result) Allowed() bool {
	return r.Remaining >= 0
}

// RetryAfter is zero for an admitted attempt and at least one second otherwise.
func (r Result) RetryAfter() time.Duration {
	if r.Allowed() {
		return 0
	}
	return max(time.Until(r.ResetAt).Round(time.Second), time.Second)
}

// Bucket is a token bucket Limiter over a Store.
type Bucket struct {
	store  Store
	config Config
}

func NewBucket(store Store, config Config) (*Bucket, error) {
	if store == nil {
		panic("ratelimiter: store is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Bucket{store: store, config: config}, nil
}

func (b *Bucket) Allow(ctx context.Context, key string) (Result, error) {
	return b.AllowN(ctx, key, 1)
}

func (b *Bucket) AllowN(ctx context.Context, key string, n int) (Result, error) {
	if key == "" {
		return Result{}, ErrEmptyKey
	}
	if n <= 0 || n > b.config.Capacity {
		return Result{}, fmt.Errorf("%w: must be within 1..%d, got %d", ErrInvalidTokenCount, b.config.Capacity, n)
	}

	remaining, resetAt, err := b.store.Take(ctx, key, n, b.config)
	if err != nil {
		return Result{}, err
	}
	return Result{Limit: b.config.Capacity, Remaining: remaining, ResetAt: resetAt}, nil
}

// Status reports the bucket without consuming a token.
func (b *Bucket) Status(ctx context.Context, key string) (Result, error) {
	if key == "" {
		return Result{}, ErrEmptyKey
	}
	remaining, resetAt, err := b.store.Take(ctx, key, 0, b.config)
	if err != nil {
		return Result{}, err
	}
	return Result{Limit: b.config.Capacity, Remaining: remaining, ResetAt: resetAt}, nil
}

func (b *Bucket) Reset(ctx context.Context, key string) error {
	return b.store.Reset(ctx, key)
}
