package membership

import (
	"maps"
	"time"
)

// Record is the per-user entitlement state.
type Record struct {
	UserID            string               `json:"user_id" bson:"_id"`
	Tier              Tier                 `json:"tier" bson:"tier"`
	ExpiresAt         *time.Time           `json:"expires_at,omitempty" bson:"expires_at,omitempty"`
	Premium           bool                 `json:"premium" bson:"premium"`
	Credits           map[CreditKind]int64 `json:"credits" bson:"credits"`
	DailyRemaining    map[Feature]int64    `json:"daily_remaining" bson:"daily_remaining"`
	MonthlyAllowances map[Allowance]int64  `json:"monthly_allowances" bson:"monthly_allowances"`
	LastDailyReset    time.Time            `json:"last_daily_reset" bson:"last_daily_reset"`
	LastMonthlyGrant  time.Time            `json:"last_monthly_grant" bson:"last_monthly_grant"`
	UpdatedAt         time.Time            `json:"updated_at" bson:"updated_at"`
}

// NewRecord returns the implicit free-tier record of a user seen for the first time.
// Its zero reset dates make the first check grant the daily and monthly quotas.
func NewRecord(userID string) *Record {
	return &Record{
		UserID:            userID,
		Tier:              TierFree,
		Credits:           make(map[CreditKind]int64),
		DailyRemaining:    make(map[Feature]int64),
		MonthlyAllowances: make(map[Allowance]int64),
	}
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	cp := *r
	if r.ExpiresAt != nil {
		exp := *r.ExpiresAt
		cp.ExpiresAt = &exp
	}
	cp.Credits = maps.Clone(r.Credits)
	cp.DailyRemaining = maps.Clone(r.DailyRemaining)
	cp.MonthlyAllowances = maps.Clone(r.MonthlyAllowances)
	cp.normalize()
	return &cp
}

// normalize replaces nil maps left by decoders.
func (r *Record) normalize() {
	if r.Tier == "" {
		r.Tier = TierFree
	}
	if r.Credits == nil {
		r.Credits = make(map[CreditKind]int64)
	}
	if r.DailyRemaining == nil {
		r.DailyRemaining = make(map[Feature]int64)
	}
	if r.MonthlyAllowances == nil {
		r.MonthlyAllowances = make(map[Allowance]int64)
	}
}

// Result is returned by every entitlement operation.
type Result struct {
	Allowed    bool    `json:"allowed"`
	Membership *Record `json:"membership"`
	Source     Source  `json:"source"`
}
