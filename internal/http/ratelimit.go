package http

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultWriteLimit  = 60
	defaultLimitWindow = time.Minute
)

// rateLimiter counts writes per client IP in fixed windows.
type rateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	now     func() time.Time
	clients map[string]*clientWindow

	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientWindow struct {
	started  time.Time
	lastSeen time.Time
	count    int
}

func newRateLimiter() *rateLimiter {
	rl := newWindowLimiter(defaultWriteLimit, defaultLimitWindow, time.Now)
	go rl.startCleanup(5 * time.Minute)
	return rl
}

// newWindowLimiter builds a limiter without the cleanup goroutine.
func newWindowLimiter(limit int, window time.Duration, now func() time.Time) *rateLimiter {
	return &rateLimiter{
		limit:       limit,
		window:      window,
		now:         now,
		clients:     make(map[string]*clientWindow),
		stopCleanup: make(chan struct{}),
	}
}

func (rl *rateLimiter) startCleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictIdle(10 * rl.window)
		case <-rl.stopCleanup:
			return
		}
	}
}

// evictIdle drops clients not seen for idle and reports how many went.
func (rl *rateLimiter) evictIdle(idle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-idle)
	n := 0
	for ip, c := range rl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(rl.clients, ip)
			n++
		}
	}
	return n
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

// allow records one write from clientIP and reports whether it fits in the
// client's current window.
func (rl *rateLimiter) allow(clientIP string, metrics *securityMetrics) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	c, ok := rl.clients[clientIP]
	if !ok || now.Sub(c.started) >= rl.window {
		rl.clients[clientIP] = &clientWindow{started: now, lastSeen: now, count: 1}
		return true
	}

	c.count++
	c.lastSeen = now
	if c.count > rl.limit {
		if metrics != nil {
			atomic.AddInt64(&metrics.rateLimitHits, 1)
		}
		return false
	}
	return true
}
