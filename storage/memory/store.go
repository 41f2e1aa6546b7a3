package memory

import (
	"context"
	"time"

	"github.com/dmitrymomot/membership/pkg/cache"
	"github.com/dmitrymomot/membership/svc/membership"
)

// DefaultCapacity bounds the number of cached records.
const DefaultCapacity = 10_000

// Store implements membership.Store. Records are cloned on the way in and out so callers
// never share state with the cache.
type Store struct {
	lru *cache.LRUCache[string, *membership.Record]
}

func NewStore(capacity int, ttl time.Duration) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{lru: cache.NewLRUCache[string, *membership.Record](capacity, cache.WithTTL(ttl))}
}

func (s *Store) Get(_ context.Context, userID string) (*membership.Record, error) {
	rec, ok := s.lru.Get(userID)
	if !ok {
		return nil, membership.ErrRecordNotFound
	}
	return rec.Clone(), nil
}

func (s *Store) Save(_ context.Context, rec *membership.Record) error {
	s.lru.Put(rec.UserID, rec.Clone())
	return nil
}

func (s *Store) Len() int {
	return s.lru.Len()
}
