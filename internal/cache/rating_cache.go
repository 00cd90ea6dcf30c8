package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const ratingKeyPrefix = "rating:"

// RatingCache keeps computed average ratings in Redis under rating:<productID>.
type RatingCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRatingCache(client *redis.Client, ttl time.Duration) *RatingCache {
	return &RatingCache{client: client, ttl: ttl}
}

// Dial connects to addr and pings it so a misconfigured cache fails at startup.
func Dial(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func (c *RatingCache) Get(ctx context.Context, productID string) (float64, bool, error) {
	v, err := c.client.Get(ctx, ratingKeyPrefix+productID).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	avg, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false, err
	}
	return avg, true, nil
}

func (c *RatingCache) Set(ctx context.Context, productID string, avg float64) error {
	return c.client.Set(ctx, ratingKeyPrefix+productID, strconv.FormatFloat(avg, 'f', 1, 64), c.ttl).Err()
}

func (c *RatingCache) Invalidate(ctx context.Context, productIDs ...string) error {
	if len(productIDs) == 0 {
		return nil
	}
	keys := make([]string, len(productIDs))
	for i, id := range productIDs {
		keys[i] = ratingKeyPrefix + id
	}
	return c.client.Del(ctx, keys...).Err()
}
