package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/imaker-dev/restro-backend-sub002/config"
)

// Client Redis wrapper
// Used for the token blacklist, rate limiting, floor view caching and floor event fan-out.
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient connects and pings
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connect: %w", err)
	}

	logger.Info("redis connected", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// NewFromClient wraps an existing go-redis client
func NewFromClient(rdb *goredis.Client, logger *zap.Logger) *Client {
	return &Client{rdb: rdb, logger: logger}
}

// ── token blacklist ──

const blacklistPrefix = "token:blacklist:"

// BlacklistToken revokes a JWT ID for the token's remaining lifetime
func (c *Client) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // already expired
	}
	return c.rdb.Set(ctx, blacklistPrefix+jti, "1", ttl).Err()
}

// IsBlacklisted reports whether a JWT ID was revoked
func (c *Client) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := c.rdb.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ── rate limit ──

// CheckRateLimit sliding window counter on a sorted set. Returns false once limit is reached.
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	min := strconv.FormatInt(now.Add(-window).UnixNano(), 10)

	pipe := c.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", min)
	count := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	if count.Val() >= int64(limit) {
		return false, nil
	}

	pipe = c.rdb.TxPipeline()
	pipe.ZAdd(ctx, key, goredis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// ── cache ──

// HGet reads one field of a cached hash. ok is false on a miss.
func (c *Client) HGet(ctx context.Context, key, field string) (string, bool, error) {
	v, err := c.rdb.HGet(ctx, key, field).Result()
	if err == goredis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// cacheGenPrefix per-key generation counter, bumped by InvalidateCache
const cacheGenPrefix = "cache:gen:"

// cacheGenTTL outlives any read-through load; an expired counter reads as 0 and only drops writes
const cacheGenTTL = 24 * time.Hour

// hsetIfGen KEYS[1] hash, KEYS[2] generation counter; ARGV gen, field, value, ttl ms
var hsetIfGen = goredis.NewScript(`
local gen = redis.call('GET', KEYS[2]) or '0'
if gen ~= ARGV[1] then
  return 0
end
redis.call('HSET', KEYS[1], ARGV[2], ARGV[3])
if tonumber(ARGV[4]) > 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[4])
end
return 1
`)

// CacheGeneration current generation of key; 0 if it was never invalidated
func (c *Client) CacheGeneration(ctx context.Context, key string) (int64, error) {
	n, err := c.rdb.Get(ctx, cacheGenPrefix+key).Int64()
	if err == goredis.Nil {
		return 0, nil
	}
	return n, err
}

// HSetIfGeneration writes one field of a cached hash unless key was invalidated after gen was read.
// Reports whether the write happened.
func (c *Client) HSetIfGeneration(ctx context.Context, key, field, value string, gen int64, ttl time.Duration) (bool, error) {
	n, err := hsetIfGen.Run(ctx, c.rdb,
		[]string{key, cacheGenPrefix + key},
		gen, field, value, ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// InvalidateCache deletes cached hashes and bumps their generations in one transaction
func (c *Client) InvalidateCache(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, keys...)
	for _, k := range keys {
		pipe.Incr(ctx, cacheGenPrefix+k)
		pipe.Expire(ctx, cacheGenPrefix+k, cacheGenTTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// ── pub/sub ──

// Publish sends a message to a channel
func (c *Client) Publish(ctx context.Context, channel string, payload []byte) error {
	return c.rdb.Publish(ctx, channel, payload).Err()
}

// PSubscribe subscribes to channels matching pattern. Caller closes the returned PubSub.
func (c *Client) PSubscribe(ctx context.Context, pattern string) *goredis.PubSub {
	return c.rdb.PSubscribe(ctx, pattern)
}

// Close closes the connection
func (c *Client) Close() error {
	return c.rdb.Close()
}
