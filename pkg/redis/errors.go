package redis

import "errors"

var (
	ErrEmptyConnectionURL   = errors.New("redis: connection URL is empty, set REDIS_URL")
	ErrInvalidConnectionURL = errors.New("redis: invalid connection URL")
	ErrNotReady             = errors.New("redis: server did not answer before the connect deadline")
	ErrUnhealthy            = errors.New("redis: healthcheck failed")
)
