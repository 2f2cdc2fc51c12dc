package intervals

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// intervals.icu does not publish quotas in headers. It answers 429 with a
// Retry-After when a client goes too fast, so we pace requests ourselves:
// - 600 requests per minute
// - 20000 requests per day

// RateLimiter paces requests to the intervals.icu API
type RateLimiter struct {
	mu sync.Mutex

	// 1-minute window
	shortLimit    int
	shortUsage    int
	shortResetsAt time.Time

	// Daily window
	dailyLimit    int
	dailyUsage    int
	dailyResetsAt time.Time

	// Minimum interval between requests
	minInterval time.Duration
	lastRequest time.Time

	// Set from a 429 Retry-After
	blockedUntil time.Time
}

// NewRateLimiter creates a rate limiter with the default intervals.icu limits
func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithLimits(600, 20000, 100*time.Millisecond)
}

// NewRateLimiterWithLimits creates a rate limiter with explicit limits
func NewRateLimiterWithLimits(perMinute, perDay int, minInterval time.Duration) *RateLimiter {
	now := time.Now()
	return &RateLimiter{
		shortLimit:    perMinute,
		shortResetsAt: now.Add(time.Minute),
		dailyLimit:    perDay,
		dailyResetsAt: now.Truncate(24 * time.Hour).Add(24 * time.Hour),
		minInterval:   minInterval,
	}
}

// Wait blocks until a request can be made without exceeding rate limits
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()

	if now.After(r.shortResetsAt) {
		r.shortUsage = 0
		r.shortResetsAt = now.Add(time.Minute)
	}
	if now.After(r.dailyResetsAt) {
		r.dailyUsage = 0
		r.dailyResetsAt = now.Truncate(24 * time.Hour).Add(24 * time.Hour)
	}

	if wait := time.Until(r.blockedUntil); wait > 0 {
		if err := r.sleep(ctx, wait); err != nil {
			return err
		}
	}

	if r.shortUsage >= r.shortLimit {
		if err := r.sleep(ctx, time.Until(r.shortResetsAt)); err != nil {
			return err
		}
		r.shortUsage = 0
		r.shortResetsAt = time.Now().Add(time.Minute)
	}

	if r.dailyUsage >= r.dailyLimit {
		if err := r.sleep(ctx, time.Until(r.dailyResetsAt)); err != nil {
			return err
		}
		r.dailyUsage = 0
		r.dailyResetsAt = time.Now().Truncate(24 * time.Hour).Add(24 * time.Hour)
	}

	if elapsed := time.Since(r.lastRequest); elapsed < r.minInterval {
		if err := r.sleep(ctx, r.minInterval-elapsed); err != nil {
			return err
		}
	}

	r.shortUsage++
	r.dailyUsage++
	r.lastRequest = time.Now()

	return nil
}

// sleep releases the lock while waiting. Callers must hold r.mu.
func (r *RateLimiter) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Unlock()
	defer r.mu.Lock()
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// UpdateFromResponse backs off after a 429 using the Retry-After header
func (r *RateLimiter) UpdateFromResponse(statusCode int, h http.Header) {
	if statusCode != http.StatusTooManyRequests {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	wait := 60 * time.Second
	if s := h.Get("Retry-After"); s != "" {
		if secs, err := strconv.Atoi(s); err == nil && secs >= 0 {
			wait = time.Duration(secs) * time.Second
		}
	}
	r.blockedUntil = time.Now().Add(wait)
}

// Status returns current rate limit status
func (r *RateLimiter) Status() (shortRemaining, dailyRemaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shortLimit - r.shortUsage, r.dailyLimit - r.dailyUsage
}

// Usage returns current usage counts
func (r *RateLimiter) Usage() (shortUsage, dailyUsage int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shortUsage, r.dailyUsage
}
