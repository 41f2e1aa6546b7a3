package ratelimiter

import "errors"

var (
	ErrInvalidConfig     = errors.New("invalid rate limit configuration")
	ErrInvalidTokenCount = errors.New("invalid token count")
	ErrEmptyKey          = errors.New("rate limit key is empty")
	ErrStoreUnavailable  = errors.New("rate limit store unavailable")
)
