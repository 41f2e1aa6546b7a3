// Package ratelimiter throttles actions per key with a token bucket.
//
// A bucket holds up to Capacity tokens and regains RefillRate tokens every
// RefillInterval. A denied attempt consumes nothing, so a client that keeps retrying
// is admitted as soon as enough tokens have been refilled.
//
//	limiter, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(), cfg)
//	if err != nil {
//	    return err
//	}
//	res, err := limiter.Allow(ctx, "checkout:"+userID)
//	if err == nil && !res.Allowed() {
//	    w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter().Seconds())))
//	}
//
// MemoryStore serves a single process. RedisStore shares the buckets between
// replicas and evaluates each attempt atomically in a Lua script.
package ratelimiter
