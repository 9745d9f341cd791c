package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a fixed-window request counter keyed by an opaque string,
// typically "<endpoint>:<clientIP>". State is held in process memory, so
// limits are enforced per instance only. That is a known limitation at
// this scale, not something to paper over with a shared store.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	done    chan struct{}
}

type entry struct {
	count     int
	resetTime time.Time
}

// Config holds the limits for one endpoint class.
type Config struct {
	MaxRequests int
	Window      time.Duration
}

// Result reports the outcome of a single admission check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetTime time.Time
}

// Per-endpoint limits.
var (
	Analyze       = Config{MaxRequests: 10, Window: time.Minute}
	ParseDocument = Config{MaxRequests: 20, Window: time.Minute}
	Checkout      = Config{MaxRequests: 5, Window: time.Minute}
)

// New creates a limiter and starts a background sweep that drops expired
// entries every sweepInterval to bound memory growth. Call Stop to end it.
func New(sweepInterval time.Duration) *Limiter {
	l := &Limiter{
		entries: make(map[string]*entry),
		done:    make(chan struct{}),
	}

	go l.sweepLoop(sweepInterval)

	return l
}

// Check admits or rejects one request for key. It never fails: an unknown
// client identity should be mapped to a shared "unknown" key by the caller.
func (l *Limiter) Check(key string, cfg Config) Result {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || now.After(e.resetTime) {
		e = &entry{count: 1, resetTime: now.Add(cfg.Window)}
		l.entries[key] = e
		return Result{Allowed: true, Remaining: cfg.MaxRequests - 1, ResetTime: e.resetTime}
	}

	if e.count >= cfg.MaxRequests {
		return Result{Allowed: false, Remaining: 0, ResetTime: e.resetTime}
	}

	e.count++
	return Result{Allowed: true, Remaining: cfg.MaxRequests - e.count, ResetTime: e.resetTime}
}

// Stop terminates the background sweep goroutine.
func (l *Limiter) Stop() {
	close(l.done)
}

func (l *Limiter) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.sweep(time.Now())
		case <-l.done:
			return
		}
	}
}

func (l *Limiter) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, e := range l.entries {
		if now.After(e.resetTime) {
			delete(l.entries, key)
		}
	}
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
