package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Policy describes one limited action: Burst events, refilled one every Every.
type Policy struct {
	Burst int
	Every time.Duration
}

var (
	// OTP sends per phone: burst of three, then one per minute.
	PolicySendOTP = Policy{Burst: 3, Every: time.Minute}
	// Login and verify attempts per client IP.
	PolicyAuth = Policy{Burst: 20, Every: 3 * time.Second}
	// Offer submissions per provider.
	PolicyCreateOffer = Policy{Burst: 10, Every: 6 * time.Second}
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per key and action.
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*entry
	policies map[string]Policy
	fallback Policy
	idleTTL  time.Duration
	now      func() time.Time
}

func NewRateLimiter(policies map[string]Policy) *RateLimiter {
	if policies == nil {
		policies = map[string]Policy{}
	}
	return &RateLimiter{
		buckets:  make(map[string]*entry),
		policies: policies,
		fallback: Policy{Burst: 20, Every: 3 * time.Second},
		idleTTL:  time.Hour,
		now:      time.Now,
	}
}

// Allow consumes a token for key under action. When denied it returns the
// wait until the next token.
func (rl *RateLimiter) Allow(key, action string) (bool, time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	e, ok := rl.buckets[action+":"+key]
	if !ok {
		p, found := rl.policies[action]
		if !found {
			p = rl.fallback
		}
		e = &entry{limiter: rate.NewLimiter(rate.Every(p.Every), p.Burst)}
		rl.buckets[action+":"+key] = e
	}
	e.lastSeen = now
	rl.mu.Unlock()

	r := e.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, 0
	}
	if wait := r.DelayFrom(now); wait > 0 {
		r.CancelAt(now)
		return false, wait
	}
	return true, 0
}

// Cleanup drops buckets idle longer than the idle TTL.
func (rl *RateLimiter) Cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for key, e := range rl.buckets {
		if now.Sub(e.lastSeen) > rl.idleTTL {
			delete(rl.buckets, key)
			removed++
		}
	}
	return removed
}

func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// StartCleanupRoutine sweeps idle buckets until ctx is done.
func (rl *RateLimiter) StartCleanupRoutine(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.Cleanup()
			}
		}
	}()
}
