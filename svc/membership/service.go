package membership

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/membership/pkg/logger"
)

// Service defines the entitlement operations exposed to clients and to the payment flow.
type Service interface {
	// Get loads the record, applying expiry and rollovers.
	Get(ctx context.Context, userID string) (Result, error)

	UseDaily(ctx context.Context, userID string, feature Feature) (Result, error)
	UseCredit(ctx context.Context, userID string, kind CreditKind) (Result, error)
	AddCredits(ctx context.Context, userID string, kind CreditKind, amount int64) (Result, error)
	UseBoost(ctx context.Context, userID string) (Result, error)
	UseSuperLike(ctx context.Context, userID string) (Result, error)

	// UpgradeTier switches the tier for one month. Moving to free is a cancellation.
	UpgradeTier(ctx context.Context, userID string, tier Tier) (Result, error)
	// Cancel reverts the user to free immediately.
	Cancel(ctx context.Context, userID string) (Result, error)

	// ApplyPayment grants tier for months starting now. The expiry is set, never extended,
	// so applying the same payment twice leaves one grant. Authoritative write errors are returned.
	ApplyPayment(ctx context.Context, userID string, tier Tier, months int) (*Record, error)

	Catalog() *Catalog
}

type service struct {
	catalog  *Catalog
	sync     *Syncer
	locks    *keyedMutex
	log      *slog.Logger
	recorder Recorder
	now      func() time.Time
	loc      *time.Location
}

// NewService creates the membership service. Panics if catalog or syncer is nil.
func NewService(catalog *Catalog, syncer *Syncer, opts ...ServiceOption) Service {
	if catalog == nil {
		panic("membership: Catalog is required")
	}
	if syncer == nil {
		panic("membership: Syncer is required")
	}

	s := &service{
		catalog:  catalog,
		sync:     syncer,
		locks:    newKeyedMutex(),
		log:      slog.Default(),
		recorder: nopRecorder{},
		now:      time.Now,
		loc:      time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("membership"))
	return s
}

func (s *service) Catalog() *Catalog {
	return s.catalog
}

// mutation evaluates a request against a refreshed record.
// It reports whether the request is allowed and whether rec changed.
type mutation func(rec *Record, now time.Time) (allowed, changed bool, err error)

func (s *service) Get(ctx context.Context, userID string) (Result, error) {
	return s.apply(ctx, userID, func(*Record, time.Time) (bool, bool, error) {
		return true, false, nil
	})
}

func (s *service) UseDaily(ctx context.Context, userID string, feature Feature) (Result, error) {
	if !feature.Valid() {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownFeature, feature)
	}
	res, err := s.apply(ctx, userID, func(rec *Record, _ time.Time) (bool, bool, error) {
		allowed, changed := consumeDaily(rec, s.catalog.def(rec.Tier), feature)
		return allowed, changed, nil
	})
	if err == nil {
		s.recorder.EntitlementChecked("daily", string(feature), res.Allowed)
	}
	return res, err
}

func (s *service) UseCredit(ctx context.Context, userID string, kind CreditKind) (Result, error) {
	if !kind.Valid() {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownCreditKind, kind)
	}
	res, err := s.apply(ctx, userID, func(rec *Record, _ time.Time) (bool, bool, error) {
		allowed, changed := useCredit(rec, s.catalog.def(rec.Tier), kind)
		return allowed, changed, nil
	})
	if err == nil {
		s.recorder.EntitlementChecked("credit", string(kind), res.Allowed)
	}
	return res, err
}

func (s *service) AddCredits(ctx context.Context, userID string, kind CreditKind, amount int64) (Result, error) {
	if !kind.Valid() {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownCreditKind, kind)
	}
	if amount <= 0 {
		return Result{}, ErrInvalidAmount
	}
	return s.apply(ctx, userID, func(rec *Record, _ time.Time) (bool, bool, error) {
		if err := addCredits(rec, kind, amount); err != nil {
			return false, false, err
		}
		return true, true, nil
	})
}

func (s *service) UseBoost(ctx context.Context, userID string) (Result, error) {
	return s.useMonthly(ctx, userID, AllowanceBoosts)
}

func (s *service) UseSuperLike(ctx context.Context, userID string) (Result, error) {
	return s.useMonthly(ctx, userID, AllowanceSuperLikes)
}

func (s *service) useMonthly(ctx context.Context, userID string, a Allowance) (Result, error) {
	res, err := s.apply(ctx, userID, func(rec *Record, _ time.Time) (bool, bool, error) {
		allowed, changed := consumeMonthly(rec, s.catalog.def(rec.Tier), a)
		return allowed, changed, nil
	})
	if err == nil {
		s.recorder.EntitlementChecked("monthly", string(a), res.Allowed)
	}
	return res, err
}

func (s *service) UpgradeTier(ctx context.Context, userID string, tier Tier) (Result, error) {
	if !s.catalog.Has(tier) {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownTier, tier)
	}
	if tier == TierFree {
		return s.Cancel(ctx, userID)
	}
	return s.apply(ctx, userID, func(rec *Record, now time.Time) (bool, bool, error) {
		s.grant(rec, tier, 1, now)
		return true, true, nil
	})
}

func (s *service) Cancel(ctx context.Context, userID string) (Result, error) {
	return s.apply(ctx, userID, func(rec *Record, _ time.Time) (bool, bool, error) {
		if rec.Tier == TierFree && rec.ExpiresAt == nil && !rec.Premium {
			return true, false, nil
		}
		downgrade(s.catalog, rec)
		return true, true, nil
	})
}

func (s *service) ApplyPayment(ctx context.Context, userID string, tier Tier, months int) (*Record, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	if !s.catalog.IsPaid(tier) {
		return nil, fmt.Errorf("%w: %q is not a paid tier", ErrUnknownTier, tier)
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	now := s.now()
	rec, _ := s.sync.Load(ctx, userID)
	s.refresh(ctx, rec, now)
	s.grant(rec, tier, months, now)
	rec.UpdatedAt = now

	if err := s.sync.PersistStrict(ctx, rec); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "membership granted",
		logger.UserID(userID), logger.Tier(string(tier)), slog.Time("expires_at", *rec.ExpiresAt))
	return rec.Clone(), nil
}

// grant sets tier with a fresh expiry of months calendar months from now.
func (s *service) grant(rec *Record, tier Tier, months int, now time.Time) {
	if months < 1 {
		months = 1
	}
	changeTier(s.catalog, rec, tier)
	exp := now.AddDate(0, months, 0)
	rec.ExpiresAt = &exp
	rec.Premium = true
}

// apply runs m under the user's lock: load, refresh, evaluate, persist if anything changed.
func (s *service) apply(ctx context.Context, userID string, m mutation) (Result, error) {
	if userID == "" {
		return Result{}, ErrMissingUserID
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	now := s.now()
	rec, source := s.sync.Load(ctx, userID)
	dirty := s.refresh(ctx, rec, now)

	allowed, changed, err := m(rec, now)
	if err != nil {
		return Result{}, err
	}

	switch {
	case dirty || changed || source != SourceRemote:
		rec.UpdatedAt = now
		s.sync.Persist(ctx, rec)
	default:
		s.sync.Cache(ctx, rec)
	}

	return Result{Allowed: allowed, Membership: rec.Clone(), Source: source}, nil
}

// refresh applies lazy expiry, then the daily reset and the monthly grant, in that order,
// so limits are always derived from the effective tier.
func (s *service) refresh(ctx context.Context, rec *Record, now time.Time) bool {
	dirty := false

	if _, expired := Expire(rec.Tier, rec.ExpiresAt, now); expired {
		s.log.InfoContext(ctx, "membership expired, downgrading to free",
			logger.UserID(rec.UserID), logger.Tier(string(rec.Tier)))
		downgrade(s.catalog, rec)
		dirty = true
	}

	def := s.catalog.def(rec.Tier)
	if resetDaily(rec, def, now, s.loc) {
		dirty = true
	}
	if grantMonthly(rec, def, now, s.loc) {
		dirty = true
	}
	return dirty
}
