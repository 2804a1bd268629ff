package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache struct {
	client redis.UniversalClient // works with both single and cluster
}

func New(addrs []string, password string, useCluster bool) *Cache {
	var rdb redis.UniversalClient

	if useCluster && len(addrs) > 1 {
		rdb = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:    addrs,
			Password: password,
		})
	} else {
		rdb = redis.NewClient(&redis.Options{
			Addr:     addrs[0],
			Password: password,
			DB:       0,
		})
	}

	return &Cache{client: rdb}
}

func (c *Cache) Set(ctx context.Context, namespace, key string, value interface{}, ttl time.Duration) error {
	return c.client.Set(ctx, namespace+":"+key, value, ttl).Err()
}

func (c *Cache) Get(ctx context.Context, namespace, key string) (string, error) {
	return c.client.Get(ctx, namespace+":"+key).Result()
}

func (c *Cache) Delete(ctx context.Context, namespace, key string) error {
	return c.client.Del(ctx, namespace+":"+key).Err()
}

func (c *Cache) GetTTL(ctx context.Context, namespace, key string) (time.Duration, error) {
	return c.client.TTL(ctx, namespace+":"+key).Result()
}

func (c *Cache) IncrWithExpire(ctx context.Context, namespace, key string, window time.Duration) (int64, error) {
	countKey := namespace + ":" + key

	cnt, err := c.client.Incr(ctx, countKey).Result()
	if err != nil {
		return 0, err
	}

	// First increment owns the window TTL
	if cnt == 1 {
		_ = c.client.Expire(ctx, countKey, window).Err()
	}

	return cnt, nil
}

// Outcomes of CompareAndDelete.
const (
	CADMissing  = 0 // key absent: never set, expired, or already consumed
	CADMismatch = 1 // key present but value differs; entry kept
	CADDeleted  = 2 // value matched and the entry was consumed
)

// compare-and-delete must be atomic so that two concurrent verifications of
// the same code cannot both succeed.
var cadScript = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if v == false then
	return 0
end
if v ~= ARGV[1] then
	return 1
end
redis.call('DEL', KEYS[1])
return 2
`)

func (c *Cache) CompareAndDelete(ctx context.Context, namespace, key, expected string) (int, error) {
	res, err := cadScript.Run(ctx, c.client, []string{namespace + ":" + key}, expected).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return CADMissing, err
	}
	return res, nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}
