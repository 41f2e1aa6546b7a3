package membership

import "time"

// dateOf truncates t to midnight in loc.
func dateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

func sameMonth(a, b time.Time, loc *time.Location) bool {
	ay, am, _ := a.In(loc).Date()
	by, bm, _ := b.In(loc).Date()
	return ay == by && am == bm
}

// resetDaily refills every daily counter to the tier limit once per calendar day.
func resetDaily(rec *Record, def TierDefinition, now time.Time, loc *time.Location) bool {
	if !rec.LastDailyReset.IsZero() && sameDay(rec.LastDailyReset, now, loc) {
		return false
	}
	for _, f := range DailyFeatures {
		rec.DailyRemaining[f] = def.DailyLimit(f)
	}
	rec.LastDailyReset = dateOf(now, loc)
	return true
}

// grantMonthly overwrites the monthly allowances once per calendar month. Leftovers are discarded.
func grantMonthly(rec *Record, def TierDefinition, now time.Time, loc *time.Location) bool {
	if !rec.LastMonthlyGrant.IsZero() && sameMonth(rec.LastMonthlyGrant, now, loc) {
		return false
	}
	for _, a := range MonthlyAllowances {
		rec.MonthlyAllowances[a] = def.MonthlyGrant(a)
	}
	rec.LastMonthlyGrant = dateOf(now, loc)
	return true
}

// consumeDaily decrements the counter for f unless the tier has no limit for it.
func consumeDaily(rec *Record, def TierDefinition, f Feature) (allowed, changed bool) {
	if def.DailyLimit(f) == Unlimited {
		return true, false
	}
	if rec.DailyRemaining[f] > 0 {
		rec.DailyRemaining[f]--
		return true, true
	}
	return false, false
}

// consumeMonthly spends the monthly allowance first and then the matching credit.
func consumeMonthly(rec *Record, def TierDefinition, a Allowance) (allowed, changed bool) {
	if rec.MonthlyAllowances[a] > 0 {
		rec.MonthlyAllowances[a]--
		return true, true
	}
	return useCredit(rec, def, creditFor(a))
}

// rebase moves counters from the limits of one tier to another after a tier change
// within the current day and month. Raising a limit adds the difference to what is
// left; lowering it caps what is left.
func rebase(rec *Record, from, to TierDefinition) {
	for _, f := range DailyFeatures {
		rec.DailyRemaining[f] = rebaseCounter(rec.DailyRemaining[f], from.DailyLimit(f), to.DailyLimit(f))
	}
	for _, a := range MonthlyAllowances {
		rec.MonthlyAllowances[a] = rebaseCounter(rec.MonthlyAllowances[a], from.MonthlyGrant(a), to.MonthlyGrant(a))
	}
}

func rebaseCounter(remaining, oldLimit, newLimit int64) int64 {
	switch {
	case newLimit == Unlimited:
		return Unlimited
	case oldLimit == Unlimited:
		return newLimit
	}
	if remaining < 0 {
		remaining = 0
	}
	if newLimit > oldLimit {
		remaining += newLimit - oldLimit
	}
	return min(remaining, newLimit)
}
