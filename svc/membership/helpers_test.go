package membership_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/membership/pkg/logger"
	"github.com/dmitrymomot/membership/svc/membership"
)

// fakeStore is a map-backed Store that counts writes and can be made to fail.
type fakeStore struct {
	mu      sync.Mutex
	recs    map[string]*membership.Record
	saves   int
	getErr  error
	saveErr error
}

func newFakeStore(recs ...*membership.Record) *fakeStore {
	s := &fakeStore{recs: make(map[string]*membership.Record)}
	for _, r := range recs {
		s.recs[r.UserID] = r.Clone()
	}
	return s
}

func (s *fakeStore) Get(_ context.Context, userID string) (*membership.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	rec, ok := s.recs[userID]
	if !ok {
		return nil, membership.ErrRecordNotFound
	}
	return rec.Clone(), nil
}

func (s *fakeStore) Save(_ context.Context, rec *membership.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.recs[rec.UserID] = rec.Clone()
	return nil
}

func (s *fakeStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *fakeStore) stored(userID string) *membership.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recs[userID].Clone()
}

func (s *fakeStore) ListExpired(_ context.Context, before time.Time, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for id, r := range s.recs {
		if r.Tier != membership.TierFree && r.ExpiresAt != nil && r.ExpiresAt.Before(before) {
			ids = append(ids, id)
		}
		if len(ids) == limit {
			break
		}
	}
	return ids, nil
}

// 2 April 2025, 10:00 UTC
var testNow = time.Date(2025, time.April, 2, 10, 0, 0, 0, time.UTC)

func today() time.Time     { return time.Date(2025, time.April, 2, 0, 0, 0, 0, time.UTC) }
func yesterday() time.Time { return today().AddDate(0, 0, -1) }

type fixture struct {
	svc    membership.Service
	remote *fakeStore
	local  *fakeStore
}

func newFixture(t *testing.T, remote, local *fakeStore) fixture {
	t.Helper()
	if remote == nil {
		remote = newFakeStore()
	}
	if local == nil {
		local = newFakeStore()
	}
	syncer := membership.NewSyncer(remote, local, membership.WithSyncLogger(logger.Nop()))
	svc := membership.NewService(membership.MustDefaultCatalog(), syncer,
		membership.WithClock(func() time.Time { return testNow }),
		membership.WithLogger(logger.Nop()),
	)
	require.NotNil(t, svc)
	return fixture{svc: svc, remote: remote, local: local}
}

// record builds a record whose quotas were already granted today and this month.
func record(userID string, tier membership.Tier) *membership.Record {
	def, err := membership.MustDefaultCatalog().Definition(tier)
	if err != nil {
		panic(err)
	}
	rec := membership.NewRecord(userID)
	rec.Tier = tier
	for _, f := range membership.DailyFeatures {
		rec.DailyRemaining[f] = def.DailyLimit(f)
	}
	for _, a := range membership.MonthlyAllowances {
		rec.MonthlyAllowances[a] = def.MonthlyGrant(a)
	}
	rec.LastDailyReset = today()
	rec.LastMonthlyGrant = today()
	if tier != membership.TierFree {
		exp := testNow.AddDate(0, 1, 0)
		rec.ExpiresAt = &exp
		rec.Premium = true
	}
	return rec
}
