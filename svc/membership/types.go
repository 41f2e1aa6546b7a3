package membership

// Tier is a named membership level.
type Tier string

const (
	TierFree   Tier = "free"
	TierSilver Tier = "silver"
	TierGold   Tier = "gold"
	TierVIP    Tier = "vip"
)

func (t Tier) String() string { return string(t) }

// Feature is a quota reset every calendar day.
type Feature string

const (
	FeatureMessages    Feature = "messages"
	FeatureViews       Feature = "views"
	FeatureRightSwipes Feature = "right_swipes"
	FeatureCompliments Feature = "compliments"
)

// DailyFeatures lists every daily feature in display order.
var DailyFeatures = []Feature{FeatureMessages, FeatureViews, FeatureRightSwipes, FeatureCompliments}

func (f Feature) Valid() bool {
	switch f {
	case FeatureMessages, FeatureViews, FeatureRightSwipes, FeatureCompliments:
		return true
	}
	return false
}

// Allowance is a quota granted once per calendar month. Leftovers do not carry over.
type Allowance string

const (
	AllowanceBoosts     Allowance = "boosts"
	AllowanceSuperLikes Allowance = "super_likes"
)

var MonthlyAllowances = []Allowance{AllowanceBoosts, AllowanceSuperLikes}

// CreditKind is a purchasable, non-expiring unit.
type CreditKind string

const (
	CreditMessages    CreditKind = "messages"
	CreditBoosts      CreditKind = "boosts"
	CreditSuperLikes  CreditKind = "super_likes"
	CreditCompliments CreditKind = "compliments"
	CreditUnlocks     CreditKind = "unlocks"
)

var CreditKinds = []CreditKind{CreditMessages, CreditBoosts, CreditSuperLikes, CreditCompliments, CreditUnlocks}

func (k CreditKind) Valid() bool {
	switch k {
	case CreditMessages, CreditBoosts, CreditSuperLikes, CreditCompliments, CreditUnlocks:
		return true
	}
	return false
}

// creditFor maps a monthly allowance to the credit kind consumed once the allowance is spent.
func creditFor(a Allowance) CreditKind {
	if a == AllowanceBoosts {
		return CreditBoosts
	}
	return CreditSuperLikes
}

// Unlimited marks a limit that is never counted down.
const Unlimited int64 = -1

// Source tells where a loaded record came from.
type Source string

const (
	SourceRemote  Source = "remote"
	SourceLocal   Source = "local"
	SourceDefault Source = "default"
)
