package ratelimit

import (
    "sync"
    "time"

    "golang.org/x/time/rate"
)

type entry struct {
    lim  *rate.Limiter
    seen time.Time
}

// Limiter keeps one token bucket per key, e.g. per client IP.
type Limiter struct {
    mu    sync.Mutex
    m     map[string]*entry
    limit rate.Limit
    burst int
    idle  time.Duration
    swept time.Time
}

// New creates a keyed limiter allowing rps events per second with the given
// burst. Keys unused for idle are forgotten.
func New(rps float64, burst int, idle time.Duration) *Limiter {
    if burst < 1 {
        burst = 1
    }
    if idle <= 0 {
        idle = 10 * time.Minute
    }
    return &Limiter{m: make(map[string]*entry), limit: rate.Limit(rps), burst: burst, idle: idle, swept: time.Now()}
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
    return l.get(key, time.Now()).Allow()
}

func (l *Limiter) get(key string, now time.Time) *rate.Limiter {
    l.mu.Lock()
    defer l.mu.Unlock()
    // amortized: at most one full pass per idle period
    if now.Sub(l.swept) > l.idle {
        l.sweepLocked(now)
    }
    e, ok := l.m[key]
    if !ok {
        e = &entry{lim: rate.NewLimiter(l.limit, l.burst)}
        l.m[key] = e
    }
    e.seen = now
    return e.lim
}

// Sweep drops keys idle for longer than the configured idle time and
// returns how many were removed.
func (l *Limiter) Sweep(now time.Time) int {
    l.mu.Lock()
    defer l.mu.Unlock()
    return l.sweepLocked(now)
}

func (l *Limiter) sweepLocked(now time.Time) int {
    l.swept = now
    n := 0
    for k, e := range l.m {
        if now.Sub(e.seen) > l.idle {
            delete(l.m, k)
            n++
        }
    }
    return n
}

// Len is the number of tracked keys.
func (l *Limiter) Len() int {
    l.mu.Lock()
    defer l.mu.Unlock()
    return len(l.m)
}
