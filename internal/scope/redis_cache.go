package scope

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	rdb    *redis.Client
	prefix string
}

type cachedSession struct {
	UserID string `json:"user_id"`
}

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb, prefix: "session:"}
}

func (c *RedisCache) Get(ctx context.Context, token string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, c.prefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	var entry cachedSession
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		return "", false, err
	}
	return entry.UserID, entry.UserID != "", nil
}

func (c *RedisCache) Set(ctx context.Context, token, userID string, ttl time.Duration) error {
	b, err := json.Marshal(cachedSession{UserID: userID})
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.prefix+token, b, ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, token string) error {
	return c.rdb.Del(ctx, c.prefix+token).Err()
}
