package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const defaultIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Keyed hands out one token bucket per key. Buckets idle for longer than the
// TTL are dropped on the next sweep.
type Keyed struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	ttl      time.Duration
	now      func() time.Time
	lastGC   time.Time
}

func NewKeyed(rps float64, burst int) *Keyed {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &Keyed{
		visitors: make(map[string]*visitor),
		limit:    limit,
		burst:    burst,
		ttl:      defaultIdleTTL,
		now:      time.Now,
	}
}

func (k *Keyed) Allow(key string) bool {
	return k.limiter(key).AllowN(k.now(), 1)
}

func (k *Keyed) limiter(key string) *rate.Limiter {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()
	if now.Sub(k.lastGC) > k.ttl {
		for key, v := range k.visitors {
			if now.Sub(v.lastSeen) > k.ttl {
				delete(k.visitors, key)
			}
		}
		k.lastGC = now
	}

	v, ok := k.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(k.limit, k.burst)}
		k.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

func (k *Keyed) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.visitors)
}
