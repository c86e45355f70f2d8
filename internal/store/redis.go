package store

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// NewSessionCache connects the Redis instance backing the token
// denylist and the login rate limiter. Both are small keyspaces with
// TTL-bound entries, so one shared client covers them.
func NewSessionCache(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:       addr,
		Password:   password,
		ClientName: "shelfscape-sessions",
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return rdb, nil
}
