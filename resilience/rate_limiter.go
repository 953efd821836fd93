package resilience

import (
	"math"
	"sync"
	"time"
)

// RateLimiterConfig configures a token bucket.
type RateLimiterConfig struct {
	// Rate is the number of tokens added per second.
	Rate float64
	// Burst is the bucket size. Zero means ceil(Rate).
	Burst int
}

// RateLimiter is a token bucket. It is safe for concurrent use.
type RateLimiter struct {
	rate  float64
	burst float64
	now   func() time.Time

	mu       sync.Mutex
	tokens   float64
	lastSeen time.Time
}

// NewRateLimiter creates a full bucket.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	return newRateLimiter(config, time.Now)
}

func newRateLimiter(config RateLimiterConfig, now func() time.Time) *RateLimiter {
	if config.Rate <= 0 {
		config.Rate = 1
	}
	if config.Burst <= 0 {
		config.Burst = int(math.Ceil(config.Rate))
	}
	return &RateLimiter{
		rate:     config.Rate,
		burst:    float64(config.Burst),
		now:      now,
		tokens:   float64(config.Burst),
		lastSeen: now(),
	}
}

// Allow takes one token if available.
func (rl *RateLimiter) Allow() bool {
	ok, _ := rl.Reserve(1)
	return ok
}

// Reserve takes n tokens if available. Otherwise nothing is taken and the
// returned duration is the wait until n tokens are.
func (rl *RateLimiter) Reserve(n int) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()
	need := float64(n)
	if rl.tokens >= need {
		rl.tokens -= need
		return true, 0
	}
	if need > rl.burst {
		return false, time.Duration(math.MaxInt64)
	}
	wait := (need - rl.tokens) / rl.rate
	return false, time.Duration(wait * float64(time.Second))
}

// Tokens returns the number of tokens currently in the bucket.
func (rl *RateLimiter) Tokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refill()
	return rl.tokens
}

// full reports whether the bucket has refilled completely.
func (rl *RateLimiter) full() bool {
	return rl.Tokens() >= rl.burst
}

func (rl *RateLimiter) refill() {
	now := rl.now()
	elapsed := now.Sub(rl.lastSeen).Seconds()
	rl.lastSeen = now
	if elapsed <= 0 {
		return
	}
	rl.tokens = math.Min(rl.burst, rl.tokens+elapsed*rl.rate)
}

// KeyedRateLimiter keeps one bucket per key, typically a client address.
// Buckets that have refilled completely are dropped on the next sweep.
type KeyedRateLimiter struct {
	config RateLimiterConfig
	now    func() time.Time

	mu        sync.Mutex
	buckets   map[string]*RateLimiter
	lastSweep time.Time
	sweep     time.Duration
}

// NewKeyedRateLimiter creates a per-key limiter. Every key gets its own
// bucket configured by config.
func NewKeyedRateLimiter(config RateLimiterConfig) *KeyedRateLimiter {
	return newKeyedRateLimiter(config, time.Now)
}

func newKeyedRateLimiter(config RateLimiterConfig, now func() time.Time) *KeyedRateLimiter {
	return &KeyedRateLimiter{
		config:    config,
		now:       now,
		buckets:   make(map[string]*RateLimiter),
		lastSweep: now(),
		sweep:     time.Minute,
	}
}

// Allow takes one token from the bucket of key. When it is empty the
// returned duration is the wait until the next token.
func (k *KeyedRateLimiter) Allow(key string) (bool, time.Duration) {
	return k.bucket(key).Reserve(1)
}

// Len returns the number of live buckets.
func (k *KeyedRateLimiter) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.buckets)
}

func (k *KeyedRateLimiter) bucket(key string) *RateLimiter {
	k.mu.Lock()
	defer k.mu.Unlock()

	if now := k.now(); now.Sub(k.lastSweep) >= k.sweep {
		for name, b := range k.buckets {
			if b.full() {
				delete(k.buckets, name)
			}
		}
		k.lastSweep = now
	}

	b, ok := k.buckets[key]
	if !ok {
		b = newRateLimiter(k.config, k.now)
		k.buckets[key] = b
	}
	return b
}
