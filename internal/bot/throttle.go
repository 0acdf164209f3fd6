package bot

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttle keeps one token bucket per user.
type Throttle struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	buckets   map[int64]*bucket
	lastSwept time.Time
	idle      time.Duration
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewThrottle allows rps sustained updates per user with bursts of burst.
// rps <= 0 disables throttling (returns nil; a nil Throttle allows all).
func NewThrottle(rps float64, burst int) *Throttle {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &Throttle{
		limit:   rate.Limit(rps),
		burst:   burst,
		buckets: make(map[int64]*bucket),
		idle:    10 * time.Minute,
	}
}

// Allow consumes one token of userID.
func (t *Throttle) Allow(userID int64) bool {
	if t == nil {
		return true
	}
	now := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	if now.Sub(t.lastSwept) > t.idle {
		for id, b := range t.buckets {
			if now.Sub(b.seen) > t.idle {
				delete(t.buckets, id)
			}
		}
		t.lastSwept = now
	}
	b, ok := t.buckets[userID]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(t.limit, t.burst)}
		t.buckets[userID] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}
