package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket is one refillable budget for a single user+action pair.
type TokenBucket struct {
	tokens     int
	maxTokens  int
	refillRate int           // Tokens added per refill interval
	refillTime time.Duration // Refill interval
	lastRefill time.Time
	mutex      sync.Mutex
}

func NewTokenBucket(maxTokens, refillRate int, refillTime time.Duration) *TokenBucket {
	return &TokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		refillTime: refillTime,
		lastRefill: time.Now(),
	}
}

// Allow consumes a token if one is available. When the bucket is empty it
// returns the wait until the next token instead.
func (tb *TokenBucket) Allow() (bool, time.Duration) {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	now := time.Now()

	elapsed := now.Sub(tb.lastRefill)
	tokensToAdd := int(elapsed/tb.refillTime) * tb.refillRate
	if tokensToAdd > 0 {
		tb.tokens += tokensToAdd
		if tb.tokens > tb.maxTokens {
			tb.tokens = tb.maxTokens
		}
		tb.lastRefill = now
	}

	if tb.tokens > 0 {
		tb.tokens--
		return true, 0
	}

	return false, tb.lastRefill.Add(tb.refillTime).Sub(now)
}

// RateLimiter keys token buckets by user and action so one noisy sender
// cannot starve anyone else.
type RateLimiter struct {
	buckets map[string]*TokenBucket
	mutex   sync.RWMutex
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*TokenBucket),
	}
}

// Allow reports whether the user may perform the action now.
func (rl *RateLimiter) Allow(userID, action string) (bool, time.Duration) {
	key := userID + ":" + action

	rl.mutex.RLock()
	bucket, exists := rl.buckets[key]
	rl.mutex.RUnlock()

	if !exists {
		rl.mutex.Lock()
		if bucket, exists = rl.buckets[key]; !exists {
			bucket = newBucketFor(action)
			rl.buckets[key] = bucket
		}
		rl.mutex.Unlock()
	}

	return bucket.Allow()
}

func newBucketFor(action string) *TokenBucket {
	switch action {
	case "send_message":
		// 20 messages per minute, refilling one every 3 seconds
		return NewTokenBucket(20, 1, 3*time.Second)
	case "create_chat":
		// 10 new conversations per hour
		return NewTokenBucket(10, 1, 6*time.Minute)
	case "typing":
		// Typing indicators are cheap but chatty
		return NewTokenBucket(30, 1, 2*time.Second)
	default:
		return NewTokenBucket(20, 1, 3*time.Second)
	}
}

// Cleanup drops buckets that have been idle for over an hour.
func (rl *RateLimiter) Cleanup() {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := time.Now()
	for key, bucket := range rl.buckets {
		bucket.mutex.Lock()
		idle := now.Sub(bucket.lastRefill) > time.Hour
		bucket.mutex.Unlock()
		if idle {
			delete(rl.buckets, key)
		}
	}
}

// StartCleanupRoutine prunes idle buckets in the background.
func (rl *RateLimiter) StartCleanupRoutine() {
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			rl.Cleanup()
		}
	}()
}
