package superdense

import (
	"sync"
	"time"
)

/*
RateLimiter is a token-bucket Regulator that caps how many transmissions a
Pool accepts. Hosted quantum backends meter job submissions, and the limiter
keeps a pool inside such a quota: each accepted job spends one token, and one
token comes back every interval, up to burst.
*/
type RateLimiter struct {
	mu         sync.Mutex
	tokens     int
	burst      int
	interval   time.Duration
	lastRefill time.Time
	metrics    *Metrics
}

/*
NewRateLimiter returns a limiter holding a full bucket.

Parameters:
  - burst: tokens available at once
  - interval: time for one token to return; zero or less never limits
*/
func NewRateLimiter(burst int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:     burst,
		burst:      burst,
		interval:   interval,
		lastRefill: time.Now(),
	}
}

func (rl *RateLimiter) Observe(metrics *Metrics) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.metrics = metrics
}

// Limit spends a token if one is available and reports true when none is.
func (rl *RateLimiter) Limit() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill(time.Now())
	if rl.tokens > 0 {
		rl.tokens--
		return false
	}
	return true
}

// Release returns a token spent on a job the pool did not accept after all.
func (rl *RateLimiter) Release() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.tokens = min(rl.tokens+1, rl.burst)
}

func (rl *RateLimiter) Renormalize() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refill(time.Now())
}

// refill credits whole elapsed intervals; the caller holds mu.
func (rl *RateLimiter) refill(now time.Time) {
	if rl.interval <= 0 {
		rl.tokens = rl.burst
		return
	}

	periods := int(now.Sub(rl.lastRefill) / rl.interval)
	if periods <= 0 {
		return
	}

	rl.tokens = min(rl.burst, rl.tokens+periods)
	rl.lastRefill = rl.lastRefill.Add(time.Duration(periods) * rl.interval)
}
