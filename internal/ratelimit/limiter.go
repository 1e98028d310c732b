package ratelimit

import (
	"sync"
	"time"
)

// Limiter enforces a minimum interval between requests to the same host
type Limiter struct {
	mu          sync.Mutex
	hosts       map[string]time.Time
	minInterval time.Duration
}

// New creates a limiter with the given minimum per-host interval
func New(minInterval time.Duration) *Limiter {
	return &Limiter{
		hosts:       make(map[string]time.Time),
		minInterval: minInterval,
	}
}

// Allow reports whether a request to host may proceed now, recording
// the attempt when it may.
func (l *Limiter) Allow(host string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	last, ok := l.hosts[host]
	if ok && time.Since(last) < l.minInterval {
		return false
	}
	l.hosts[host] = time.Now()
	return true
}

// Wait blocks until a request to host may proceed, then records it
func (l *Limiter) Wait(host string) {
	for {
		l.mu.Lock()
		last, ok := l.hosts[host]
		if !ok || time.Since(last) >= l.minInterval {
			l.hosts[host] = time.Now()
			l.mu.Unlock()
			return
		}
		sleep := l.minInterval - time.Since(last)
		l.mu.Unlock()
		time.Sleep(sleep)
	}
}
