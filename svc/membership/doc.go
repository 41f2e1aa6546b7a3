// Package membership grants and enforces tier-based usage entitlements.
//
// A user's Record holds their tier, optional expiry, per-day quotas
// (messages, profile views, right-swipes, compliments), per-month allowances
// (boosts, super-likes) and purchasable credit balances. Every operation
// loads the record through the Syncer, applies lazy expiry and the daily and
// monthly rollovers, evaluates the request and persists the result to both
// the authoritative store and the local cache.
//
// Running out of quota is not an error: operations return Result.Allowed=false
// so the caller can present an upgrade prompt. Errors are reserved for misuse
// such as a missing user ID or an unknown feature.
//
// Store failures on the entitlement path are logged and swallowed so checks
// keep working on local state when the authoritative store is unreachable.
// ApplyPayment is the exception: it reports a failed authoritative write so
// payment notifications can be redelivered.
package membership
