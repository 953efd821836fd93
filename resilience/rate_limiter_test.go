package resilience

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time           { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func TestRateLimiter_Burst(t *testing.T) {
	clock := newClock()
	rl := newRateLimiter(RateLimiterConfig{Rate: 10, Burst: 3}, clock.now)

	for i := 0; i < 3; i++ {
		if !rl.Allow() {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	ok, wait := rl.Reserve(1)
	if ok {
		t.Fatal("request over the burst should be rejected")
	}
	if wait != 100*time.Millisecond {
		t.Errorf("wait = %v, want 100ms", wait)
	}
}

func TestRateLimiter_Refill(t *testing.T) {
	clock := newClock()
	rl := newRateLimiter(RateLimiterConfig{Rate: 2, Burst: 2}, clock.now)

	rl.Allow()
	rl.Allow()
	if rl.Allow() {
		t.Fatal("bucket should be empty")
	}

	clock.advance(500 * time.Millisecond)
	if !rl.Allow() {
		t.Fatal("one token should have been added")
	}

	clock.advance(time.Hour)
	if got := rl.Tokens(); got != 2 {
		t.Errorf("tokens = %v, want capped at 2", got)
	}
}

func TestRateLimiter_ReserveMoreThanBurst(t *testing.T) {
	rl := newRateLimiter(RateLimiterConfig{Rate: 1, Burst: 1}, newClock().now)

	ok, _ := rl.Reserve(2)
	if ok {
		t.Fatal("a reservation larger than the bucket can never succeed")
	}
	if got := rl.Tokens(); got != 1 {
		t.Errorf("a failed reservation must not take tokens, have %v", got)
	}
}

func TestRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 2.5})
	if rl.burst != 3 {
		t.Errorf("burst = %v, want ceil(rate) = 3", rl.burst)
	}
	rl = NewRateLimiter(RateLimiterConfig{})
	if rl.rate != 1 || rl.burst != 1 {
		t.Errorf("rate, burst = %v, %v; want 1, 1", rl.rate, rl.burst)
	}
}

func TestKeyedRateLimiter(t *testing.T) {
	clock := newClock()
	k := newKeyedRateLimiter(RateLimiterConfig{Rate: 1, Burst: 1}, clock.now)

	if ok, _ := k.Allow("a"); !ok {
		t.Fatal("first request of a should pass")
	}
	if ok, wait := k.Allow("a"); ok || wait != time.Second {
		t.Fatalf("second request of a = %v, %v; want false, 1s", ok, wait)
	}
	if ok, _ := k.Allow("b"); !ok {
		t.Fatal("b has its own bucket")
	}
	if k.Len() != 2 {
		t.Fatalf("len = %d, want 2", k.Len())
	}

	clock.advance(2 * time.Minute)
	if ok, _ := k.Allow("c"); !ok {
		t.Fatal("first request of c should pass")
	}
	if k.Len() != 1 {
		t.Errorf("refilled buckets should be swept, len = %d", k.Len())
	}
}
