// Package redis connects go-redis/v9 clients with retry and exposes a readiness check.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//	ready := redis.Healthcheck(client)
package redis
