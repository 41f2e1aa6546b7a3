package membership

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/membership/pkg/logger"
)

// Sweeper downgrades expired paid records in batches. Loads already downgrade lazily;
// the sweeper keeps the authoritative store tidy for users who stopped using the app.
type Sweeper struct {
	svc       Service
	lister    ExpiredLister
	batchSize int
	now       func() time.Time
	log       *slog.Logger
}

// NewSweeper panics if svc or lister is nil.
func NewSweeper(svc Service, lister ExpiredLister, batchSize int, log *slog.Logger) *Sweeper {
	if svc == nil || lister == nil {
		panic("membership: sweeper requires a service and an expired lister")
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if log == nil {
		log = slog.Default()
	}
	return &Sweeper{
		svc:       svc,
		lister:    lister,
		batchSize: batchSize,
		now:       time.Now,
		log:       log.With(logger.Component("membership.sweeper")),
	}
}

// Run sweeps until no expired records remain and returns how many were downgraded.
// A batch that only yields already-visited users stops the run, so a store that
// rejects writes cannot loop it forever.
func (s *Sweeper) Run(ctx context.Context) (int, error) {
	seen := make(map[string]bool)
	swept := 0

	for {
		if err := ctx.Err(); err != nil {
			return swept, err
		}

		ids, err := s.lister.ListExpired(ctx, s.now(), s.batchSize)
		if err != nil {
			return swept, err
		}

		progressed := false
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			progressed = true

			if _, err := s.svc.Get(ctx, id); err != nil {
				if errors.Is(err, context.Canceled) {
					return swept, err
				}
				s.log.ErrorContext(ctx, "failed to sweep membership", logger.UserID(id), logger.Error(err))
				continue
			}
			swept++
		}

		if len(ids) < s.batchSize || !progressed {
			s.log.InfoContext(ctx, "expiration sweep finished", slog.Int("downgraded", swept))
			return swept, nil
		}
	}
}
