package bot

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
)

type fakeRedis struct {
	keys map[string]time.Duration
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.BoolCmd {
	if f.keys == nil {
		f.keys = make(map[string]time.Duration)
	}
	if _, ok := f.keys[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.keys[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func TestRedisDeduper(t *testing.T) {
	fr := &fakeRedis{}
	d := &RedisDeduper{Client: fr, TTL: time.Hour, Prefix: "tgbot:update:"}
	ctx := context.Background()

	first, err := d.FirstSeen(ctx, 42)
	if err != nil || !first {
		t.Fatalf("first = %v, %v", first, err)
	}
	again, err := d.FirstSeen(ctx, 42)
	if err != nil || again {
		t.Fatalf("again = %v, %v", again, err)
	}
	if ttl, ok := fr.keys["tgbot:update:42"]; !ok || ttl != time.Hour {
		t.Fatalf("keys = %v", fr.keys)
	}
}

func TestStoreDeduper(t *testing.T) {
	h := newHarness(t)
	d := StoreDeduper{Store: h.store}
	ctx := context.Background()

	if first, err := d.FirstSeen(ctx, 7); err != nil || !first {
		t.Fatalf("first = %v, %v", first, err)
	}
	if again, err := d.FirstSeen(ctx, 7); err != nil || again {
		t.Fatalf("again = %v, %v", again, err)
	}
}

func TestNewRedisClient(t *testing.T) {
	c, err := NewRedisClient("localhost:6379", "secret", 2)
	if err != nil {
		t.Fatalf("NewRedisClient: %v", err)
	}
	defer c.Close()
	if o := c.Options(); o.Addr != "localhost:6379" || o.Password != "secret" || o.DB != 2 {
		t.Fatalf("options = %+v", o)
	}

	c, err = NewRedisClient("redis://:pw@cache:6380/3", "", 0)
	if err != nil {
		t.Fatalf("NewRedisClient(url): %v", err)
	}
	defer c.Close()
	if o := c.Options(); o.Addr != "cache:6380" || o.Password != "pw" || o.DB != 3 {
		t.Fatalf("url options = %+v", o)
	}

	if _, err := NewRedisClient("redis://%zz", "", 0); err == nil {
		t.Fatal("expected parse error")
	}
}
