package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Healthcheck returns a readiness check. Any reply other than PONG fails it.
func Healthcheck(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		pong, err := client.Ping(ctx).Result()
		if err == nil && pong != "PONG" {
			err = fmt.Errorf("unexpected ping reply %q", pong)
		}
		if err != nil {
			return errors.Join(ErrUnhealthy, err)
		}
		return nil
	}
}
