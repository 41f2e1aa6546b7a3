package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/dmitrymomot/membership/pkg/pg"
	"github.com/dmitrymomot/membership/svc/membership"
)

const membershipsTable = "memberships"

var membershipColumns = []string{
	"user_id", "tier", "expires_at", "premium", "credits", "daily_remaining",
	"monthly_allowances", "last_daily_reset", "last_monthly_grant", "updated_at",
}

// MembershipStore implements membership.Store and membership.ExpiredLister.
type MembershipStore struct {
	db pg.DB
}

func NewMembershipStore(db pg.DB) *MembershipStore {
	if db == nil {
		panic("postgres: DB is required")
	}
	return &MembershipStore{db: db}
}

func (s *MembershipStore) Get(ctx context.Context, userID string) (*membership.Record, error) {
	query, args, err := psql.Select(membershipColumns...).
		From(membershipsTable).
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build membership query: %w", err)
	}

	var (
		rec                     membership.Record
		credits, daily, monthly []byte
		lastReset, lastGrant    *time.Time
		tier                    string
	)
	err = s.db.QueryRow(ctx, query, args...).Scan(
		&rec.UserID, &tier, &rec.ExpiresAt, &rec.Premium, &credits, &daily,
		&monthly, &lastReset, &lastGrant, &rec.UpdatedAt,
	)
	if pg.IsNotFoundError(err) {
		return nil, membership.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get membership: %w", err)
	}

	rec.Tier = membership.Tier(tier)
	if err := errors.Join(
		unmarshalMap(credits, &rec.Credits),
		unmarshalMap(daily, &rec.DailyRemaining),
		unmarshalMap(monthly, &rec.MonthlyAllowances),
	); err != nil {
		return nil, fmt.Errorf("decode membership counters: %w", err)
	}
	if lastReset != nil {
		rec.LastDailyReset = *lastReset
	}
	if lastGrant != nil {
		rec.LastMonthlyGrant = *lastGrant
	}
	return &rec, nil
}

// Save upserts rec.
func (s *MembershipStore) Save(ctx context.Context, rec *membership.Record) error {
	credits, err := json.Marshal(rec.Credits)
	if err != nil {
		return err
	}
	daily, err := json.Marshal(rec.DailyRemaining)
	if err != nil {
		return err
	}
	monthly, err := json.Marshal(rec.MonthlyAllowances)
	if err != nil {
		return err
	}

	query, args, err := psql.Insert(membershipsTable).
		Columns(membershipColumns...).
		Values(
			rec.UserID, string(rec.Tier), rec.ExpiresAt, rec.Premium, string(credits), string(daily),
			string(monthly), nullTime(rec.LastDailyReset), nullTime(rec.LastMonthlyGrant), rec.UpdatedAt,
		).
		Suffix(`ON CONFLICT (user_id) DO UPDATE SET
			tier = EXCLUDED.tier,
			expires_at = EXCLUDED.expires_at,
			premium = EXCLUDED.premium,
			credits = EXCLUDED.credits,
			daily_remaining = EXCLUDED.daily_remaining,
			monthly_allowances = EXCLUDED.monthly_allowances,
			last_daily_reset = EXCLUDED.last_daily_reset,
			last_monthly_grant = EXCLUDED.last_monthly_grant,
			updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build membership upsert: %w", err)
	}

	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("save membership: %w", err)
	}
	return nil
}

// ListExpired returns users on a paid tier whose expiry is before the given time, oldest first.
func (s *MembershipStore) ListExpired(ctx context.Context, before time.Time, limit int) ([]string, error) {
	query, args, err := psql.Select("user_id").
		From(membershipsTable).
		Where(squirrel.And{
			squirrel.NotEq{"tier": string(membership.TierFree)},
			squirrel.Lt{"expires_at": before},
		}).
		OrderBy("expires_at").
		Limit(uint64(max(limit, 1))).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build expired query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expired memberships: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan expired membership: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func unmarshalMap[K ~string](raw []byte, dst *map[K]int64) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
