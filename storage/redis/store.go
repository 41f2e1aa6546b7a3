// Package redis keeps the local membership copy in Redis as JSON documents with a TTL.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/membership/svc/membership"
)

// DefaultTTL keeps cached records for a month of inactivity.
const DefaultTTL = 30 * 24 * time.Hour

// Store implements membership.Store on top of a go-redis client.
type Store struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithKeyPrefix namespaces the keys, e.g. "membership:".
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// WithTTL sets the expiry of every write. Zero keeps keys forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl >= 0 {
			s.ttl = ttl
		}
	}
}

func NewStore(client redis.UniversalClient, opts ...Option) *Store {
	if client == nil {
		panic("redis: client is required")
	}
	s := &Store{client: client, ttl: DefaultTTL}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Get(ctx context.Context, userID string) (*membership.Record, error) {
	raw, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, membership.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cached membership: %w", err)
	}

	var rec membership.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode cached membership: %w", err)
	}
	return &rec, nil
}

func (s *Store) Save(ctx context.Context, rec *membership.Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode membership: %w", err)
	}
	if err := s.client.Set(ctx, s.key(rec.UserID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("cache membership: %w", err)
	}
	return nil
}

func (s *Store) key(userID string) string {
	return s.prefix + "record:" + userID
}
