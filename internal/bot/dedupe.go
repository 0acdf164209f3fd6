package bot

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// Deduper reports whether an update id is seen for the first time. Telegram
// redelivers webhook updates it considers unanswered.
type Deduper interface {
	FirstSeen(ctx context.Context, updateID int64) (bool, error)
}

// updateMarker is the persistence call StoreDeduper uses.
type updateMarker interface {
	MarkUpdateProcessed(ctx context.Context, updateID int64) (bool, error)
}

// StoreDeduper records update ids in the bot database.
type StoreDeduper struct {
	Store updateMarker
}

// FirstSeen inserts updateID and reports whether it was new.
func (d StoreDeduper) FirstSeen(ctx context.Context, updateID int64) (bool, error) {
	return d.Store.MarkUpdateProcessed(ctx, updateID)
}

// setNXer is the redis call RedisDeduper uses.
type setNXer interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// RedisDeduper shares seen update ids between replicas with SETNX and a TTL.
type RedisDeduper struct {
	Client setNXer
	TTL    time.Duration
	Prefix string
}

// NewRedisDeduper returns a RedisDeduper with the "tgbot:update:" prefix.
func NewRedisDeduper(c *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{Client: c, TTL: ttl, Prefix: "tgbot:update:"}
}

// FirstSeen sets the key of updateID if absent.
func (d *RedisDeduper) FirstSeen(ctx context.Context, updateID int64) (bool, error) {
	return d.Client.SetNX(ctx, d.Prefix+strconv.FormatInt(updateID, 10), 1, d.TTL).Result()
}

// NewRedisClient accepts either a redis:// URL or a bare host:port in
// rawURL. password and db override what the URL carries when set.
func NewRedisClient(rawURL, password string, db int) (*redis.Client, error) {
	opts := &redis.Options{Addr: rawURL}
	if strings.Contains(rawURL, "://") {
		parsed, err := redis.ParseURL(rawURL)
		if err != nil {
			return nil, err
		}
		opts = parsed
	}
	if password != "" {
		opts.Password = password
	}
	if db > 0 {
		opts.DB = db
	}
	return redis.NewClient(opts), nil
}
