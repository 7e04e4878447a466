package web

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/conorfennell/flashlearn/internal/domain"
)

// limiterIdle is how long a user's bucket is kept after its last request.
const limiterIdle = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter keeps one token bucket per user.
type rateLimiter struct {
	mu        sync.Mutex
	limits    map[domain.UserID]*limiterEntry
	every     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

func newRateLimiter(perMinute int) *rateLimiter {
	return &rateLimiter{
		limits: make(map[domain.UserID]*limiterEntry),
		every:  rate.Every(time.Minute / time.Duration(perMinute)),
		burst:  perMinute,
		now:    time.Now,
	}
}

// getLimiter gets or creates a limiter for the given user.
func (rl *rateLimiter) getLimiter(id domain.UserID) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweep(now)

	if e, ok := rl.limits[id]; ok {
		e.lastSeen = now
		return e.limiter
	}
	limiter := rate.NewLimiter(rl.every, rl.burst)
	rl.limits[id] = &limiterEntry{limiter: limiter, lastSeen: now}
	return limiter
}

// sweep drops buckets idle for longer than limiterIdle, at most once per
// limiterIdle. rl.mu must be held.
func (rl *rateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < limiterIdle {
		return
	}
	for id, e := range rl.limits {
		if now.Sub(e.lastSeen) > limiterIdle {
			delete(rl.limits, id)
		}
	}
	rl.lastSweep = now
}

// allow checks if a request is allowed for the given user.
func (rl *rateLimiter) allow(id domain.UserID) bool {
	return rl.getLimiter(id).AllowN(rl.now(), 1)
}
