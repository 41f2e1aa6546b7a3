package membership

import (
	"maps"
	"slices"
)

// TierDefinition holds the immutable limits of one tier.
type TierDefinition struct {
	Name       Tier                `json:"name" yaml:"name"`
	Rank       int                 `json:"rank" yaml:"rank"`
	Price      int64               `json:"price" yaml:"price"`
	Daily      map[Feature]int64   `json:"daily" yaml:"daily"`
	Monthly    map[Allowance]int64 `json:"monthly" yaml:"monthly"`
	CreditPass []CreditKind        `json:"credit_pass,omitempty" yaml:"credit_pass"`
	// PriceRef is the gateway catalog reference for the tier, when the gateway has one.
	PriceRef string `json:"-" yaml:"price_ref"`
}

// DailyLimit returns the daily limit for f, or Unlimited.
func (d TierDefinition) DailyLimit(f Feature) int64 {
	return d.Daily[f]
}

// MonthlyGrant returns the monthly grant for a.
func (d TierDefinition) MonthlyGrant(a Allowance) int64 {
	return d.Monthly[a]
}

// HasCreditPass reports whether the tier consumes kind without spending credits.
func (d TierDefinition) HasCreditPass(kind CreditKind) bool {
	return slices.Contains(d.CreditPass, kind)
}

func (d TierDefinition) clone() TierDefinition {
	d.Daily = maps.Clone(d.Daily)
	d.Monthly = maps.Clone(d.Monthly)
	d.CreditPass = slices.Clone(d.CreditPass)
	return d
}

// DefaultTiers returns the built-in catalog. Prices are monthly, in whole currency units.
func DefaultTiers() []TierDefinition {
	return []TierDefinition{
		{
			Name: TierFree, Rank: 0, Price: 0,
			Daily: map[Feature]int64{
				FeatureMessages: 10, FeatureViews: 20, FeatureRightSwipes: 25, FeatureCompliments: 1,
			},
			Monthly: map[Allowance]int64{AllowanceBoosts: 0, AllowanceSuperLikes: 0},
		},
		{
			Name: TierSilver, Rank: 1, Price: 500,
			Daily: map[Feature]int64{
				FeatureMessages: 30, FeatureViews: 100, FeatureRightSwipes: 100, FeatureCompliments: 3,
			},
			Monthly: map[Allowance]int64{AllowanceBoosts: 1, AllowanceSuperLikes: 5},
		},
		{
			Name: TierGold, Rank: 2, Price: 1500,
			Daily: map[Feature]int64{
				FeatureMessages: 100, FeatureViews: Unlimited, FeatureRightSwipes: Unlimited, FeatureCompliments: 10,
			},
			Monthly: map[Allowance]int64{AllowanceBoosts: 2, AllowanceSuperLikes: 10},
		},
		{
			Name: TierVIP, Rank: 3, Price: 3000,
			Daily: map[Feature]int64{
				FeatureMessages: Unlimited, FeatureViews: Unlimited, FeatureRightSwipes: Unlimited, FeatureCompliments: Unlimited,
			},
			Monthly:    map[Allowance]int64{AllowanceBoosts: 5, AllowanceSuperLikes: 25},
			CreditPass: []CreditKind{CreditBoosts, CreditUnlocks},
		},
	}
}
