package membership_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/membership/pkg/logger"
	"github.com/dmitrymomot/membership/svc/membership"
)

func TestSweeper_DowngradesExpiredRecords(t *testing.T) {
	t.Parallel()

	remote := newFakeStore()
	for i := range 5 {
		rec := record(fmt.Sprintf("expired-%d", i), membership.TierGold)
		exp := yesterday()
		rec.ExpiresAt = &exp
		remote.recs[rec.UserID] = rec
	}
	remote.recs["active"] = record("active", membership.TierSilver)

	f := newFixture(t, remote, nil)
	sweeper := membership.NewSweeper(f.svc, remote, 2, logger.Nop())

	n, err := sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	for i := range 5 {
		assert.Equal(t, membership.TierFree, remote.stored(fmt.Sprintf("expired-%d", i)).Tier)
	}
	assert.Equal(t, membership.TierSilver, remote.stored("active").Tier)
}

func TestSweeper_StopsWhenWritesFail(t *testing.T) {
	t.Parallel()

	rec := record("stuck", membership.TierGold)
	exp := yesterday()
	rec.ExpiresAt = &exp
	remote := newFakeStore(rec)
	remote.saveErr = assert.AnError

	f := newFixture(t, remote, nil)
	sweeper := membership.NewSweeper(f.svc, remote, 1, logger.Nop())

	n, err := sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
