package membership

import "time"

// Expire returns the effective tier for the stored tier and expiry at now.
// The boolean is true only when a downgrade to free applies.
func Expire(tier Tier, expiresAt *time.Time, now time.Time) (Tier, bool) {
	if tier == TierFree || expiresAt == nil {
		return tier, false
	}
	if now.Before(*expiresAt) {
		return tier, false
	}
	return TierFree, true
}

// changeTier moves rec to tier, rebasing counters against the catalog limits.
func changeTier(c *Catalog, rec *Record, tier Tier) {
	from := c.def(rec.Tier)
	rec.Tier = tier
	rebase(rec, from, c.def(tier))
}

// downgrade reverts rec to free, clearing expiry and the premium flag.
func downgrade(c *Catalog, rec *Record) {
	changeTier(c, rec, TierFree)
	rec.ExpiresAt = nil
	rec.Premium = false
}
