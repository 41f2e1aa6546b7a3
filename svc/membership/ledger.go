package membership

import (
	"fmt"
	"math"
)

// useCredit spends one unit of kind. Tiers holding a credit pass for kind never spend.
func useCredit(rec *Record, def TierDefinition, kind CreditKind) (allowed, changed bool) {
	if def.HasCreditPass(kind) {
		return true, false
	}
	if rec.Credits[kind] > 0 {
		rec.Credits[kind]--
		return true, true
	}
	return false, false
}

// addCredits refuses a top-up that would overflow the balance.
func addCredits(rec *Record, kind CreditKind, amount int64) error {
	if balance := rec.Credits[kind]; amount > math.MaxInt64-balance {
		return fmt.Errorf("%w: %s balance %d cannot take %d more", ErrInvalidAmount, kind, balance, amount)
	}
	rec.Credits[kind] += amount
	return nil
}
