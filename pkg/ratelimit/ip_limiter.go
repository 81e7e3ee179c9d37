package ratelimit

import (
	"sync"
	"time"
)

// IPRateLimiter keeps one token bucket per client IP. Idle buckets are
// dropped periodically so the map doesn't grow without bound.
type IPRateLimiter struct {
	mu         sync.Mutex
	limiters   map[string]*ipBucket
	maxTokens  float64
	refillRate float64
	cleanup    *time.Ticker
	stopChan   chan struct{}
}

type ipBucket struct {
	bucket   *TokenBucket
	lastSeen time.Time
}

// NewIPRateLimiter creates a new IPRateLimiter
func NewIPRateLimiter(maxTokens, refillRate float64) *IPRateLimiter {
	l := &IPRateLimiter{
		limiters:   make(map[string]*ipBucket),
		maxTokens:  maxTokens,
		refillRate: refillRate,
		cleanup:    time.NewTicker(10 * time.Minute),
		stopChan:   make(chan struct{}),
	}

	go l.cleanupLoop()

	return l
}

// Allow consumes a token from the bucket belonging to ip
func (l *IPRateLimiter) Allow(ip string) bool {
	l.mu.Lock()

	entry, exists := l.limiters[ip]
	if !exists {
		entry = &ipBucket{bucket: NewTokenBucket(l.maxTokens, l.refillRate)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = time.Now()

	l.mu.Unlock()

	return entry.bucket.Allow()
}

// Stop terminates the background cleanup goroutine
func (l *IPRateLimiter) Stop() {
	close(l.stopChan)
	l.cleanup.Stop()
}

func (l *IPRateLimiter) cleanupLoop() {
	for {
		select {
		case <-l.cleanup.C:
			l.evictIdle(30 * time.Minute)
		case <-l.stopChan:
			return
		}
	}
}

func (l *IPRateLimiter) evictIdle(idle time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-idle)
	for ip, entry := range l.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(l.limiters, ip)
		}
	}
}
