package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedRateLimiter_ClientIPBurst(t *testing.T) {
	tests := []struct {
		name     string
		burst    int
		writes   int
		wantPass int
	}{
		{"writes within burst", 3, 3, 3},
		{"writes past burst are refused", 2, 5, 2},
		{"single token", 1, 4, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := New(0.01, tt.burst)
			defer rl.Stop()

			passed := 0
			for range tt.writes {
				if rl.Allow("203.0.113.7") {
					passed++
				}
			}
			assert.Equal(t, tt.wantPass, passed)
		})
	}
}

func TestKeyedRateLimiter_ClientsAreIndependent(t *testing.T) {
	rl := New(0.01, 1)
	defer rl.Stop()

	require.True(t, rl.Allow("203.0.113.7"))
	assert.False(t, rl.Allow("203.0.113.7"))

	assert.True(t, rl.Allow("198.51.100.20"))
	assert.True(t, rl.Allow("2001:db8::1"))
	assert.Equal(t, 3, rl.Len())
}

func TestKeyedRateLimiter_HostWaitSpacesFetches(t *testing.T) {
	rl := New(10, 1)
	defer rl.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	require.NoError(t, rl.Wait(ctx, "example.com"))
	assert.Less(t, time.Since(start), 50*time.Millisecond)

	// A second fetch to the same host waits for the next token (~100ms).
	start = time.Now()
	require.NoError(t, rl.Wait(ctx, "example.com"))
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 80*time.Millisecond)
	assert.Less(t, elapsed, 300*time.Millisecond)

	// Other hosts are not held up.
	start = time.Now()
	require.NoError(t, rl.Wait(ctx, "news.example.org"))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestKeyedRateLimiter_HostWaitRespectsDeadline(t *testing.T) {
	rl := New(0.1, 1)
	defer rl.Stop()

	require.True(t, rl.Allow("slow.example.com"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	assert.Error(t, rl.Wait(ctx, "slow.example.com"))
	assert.Less(t, time.Since(start), time.Second)
}

func TestKeyedRateLimiter_EvictsIdleKeys(t *testing.T) {
	rl := NewWithTTL(0.01, 1, time.Minute)
	defer rl.Stop()

	now := time.Now()
	rl.now = func() time.Time { return now }

	require.True(t, rl.Allow("203.0.113.7"))
	now = now.Add(50 * time.Second)
	require.True(t, rl.Allow("example.com"))

	now = now.Add(30 * time.Second)
	rl.evictIdle()
	require.Equal(t, 1, rl.Len())

	// An evicted client starts over with a full bucket.
	assert.True(t, rl.Allow("203.0.113.7"))
	assert.False(t, rl.Allow("example.com"))
}

func TestKeyedRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := New(1, 1)
	rl.Stop()
	assert.NotPanics(t, rl.Stop)
}
