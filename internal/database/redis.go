package database

import (
	"context"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"purchase_manager_backend/pkg/utils"
)

// OpenRedis connects to Redis and builds a lock client on top of it.
// An empty address disables Redis; callers then get nil clients and must
// work without cross-instance locking.
func OpenRedis(ctx context.Context, addr, password string) (*redis.Client, *redislock.Client, error) {
	if addr == "" {
		utils.LogWarn("REDIS_ADDRESS not set; running without redis locks")
		return nil, nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
		PoolSize: 20,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}

	utils.LogInfo("Connected to redis", map[string]interface{}{"addr": addr})
	return rdb, redislock.New(rdb), nil
}
