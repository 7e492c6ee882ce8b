package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucketExhaustion(t *testing.T) {
	tb := NewTokenBucket(3, 1, time.Minute)

	for i := 0; i < 3; i++ {
		allowed, _ := tb.Allow()
		assert.True(t, allowed, "token %d should be allowed", i)
	}

	allowed, wait := tb.Allow()
	assert.False(t, allowed)
	assert.Greater(t, wait, time.Duration(0))
}

func TestTokenBucketRefill(t *testing.T) {
	tb := NewTokenBucket(1, 1, 10*time.Millisecond)

	allowed, _ := tb.Allow()
	assert.True(t, allowed)

	allowed, _ = tb.Allow()
	assert.False(t, allowed)

	time.Sleep(20 * time.Millisecond)

	allowed, _ = tb.Allow()
	assert.True(t, allowed)
}

func TestRateLimiterIsolatesUsers(t *testing.T) {
	rl := NewRateLimiter()

	for {
		allowed, _ := rl.Allow("alice", "send_message")
		if !allowed {
			break
		}
	}

	allowed, _ := rl.Allow("bob", "send_message")
	assert.True(t, allowed, "one user's exhaustion must not affect another")
}

func TestRateLimiterIsolatesActions(t *testing.T) {
	rl := NewRateLimiter()

	for {
		allowed, _ := rl.Allow("alice", "create_chat")
		if !allowed {
			break
		}
	}

	allowed, _ := rl.Allow("alice", "send_message")
	assert.True(t, allowed, "actions have independent budgets")
}

func TestCleanupDropsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter()
	rl.Allow("alice", "send_message")

	rl.mutex.Lock()
	for _, bucket := range rl.buckets {
		bucket.lastRefill = time.Now().Add(-2 * time.Hour)
	}
	rl.mutex.Unlock()

	rl.Cleanup()

	rl.mutex.RLock()
	defer rl.mutex.RUnlock()
	assert.Empty(t, rl.buckets)
}
