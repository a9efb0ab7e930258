package signal

import (
	"sync"
	"time"

	"github.com/dkeye/CodeRoom/internal/domain"
)

// RoomRateLimiter is a sliding-window limiter keyed by connection.
type RoomRateLimiter struct {
	mu       sync.Mutex
	history  map[domain.ConnectionID][]time.Time
	limit    int
	interval time.Duration
	now      func() time.Time
}

func NewRoomRateLimiter(limit int, interval time.Duration) *RoomRateLimiter {
	return &RoomRateLimiter{
		history:  make(map[domain.ConnectionID][]time.Time),
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

// Allow records an attempt and reports whether it fits in the window.
// A nil limiter or a non-positive limit allows everything.
func (rl *RoomRateLimiter) Allow(cid domain.ConnectionID) bool {
	if rl == nil || rl.limit <= 0 {
		return true
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[cid]
	fresh := make([]time.Time, 0, len(attempts)+1)
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[cid] = fresh
		return false
	}

	rl.history[cid] = append(fresh, now)
	return true
}

func (rl *RoomRateLimiter) Forget(cid domain.ConnectionID) {
	if rl == nil {
		return
	}
	rl.mu.Lock()
	delete(rl.history, cid)
	rl.mu.Unlock()
}
