package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlidingWindowLimiter(t *testing.T) {
	ctx := context.Background()

	t.Run("denies past the limit", func(t *testing.T) {
		limiter := NewSlidingWindowLimiter(3, time.Minute)

		for i := 0; i < 3; i++ {
			ok, err := limiter.Allow(ctx, "k")
			require.NoError(t, err)
			assert.True(t, ok)
		}
		ok, err := limiter.Allow(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("keys are independent", func(t *testing.T) {
		limiter := NewSlidingWindowLimiter(1, time.Minute)

		ok, _ := limiter.Allow(ctx, "a")
		assert.True(t, ok)
		ok, _ = limiter.Allow(ctx, "a")
		assert.False(t, ok)
		ok, _ = limiter.Allow(ctx, "b")
		assert.True(t, ok)
	})

	t.Run("window expires", func(t *testing.T) {
		limiter := NewSlidingWindowLimiter(1, 20*time.Millisecond)

		ok, _ := limiter.Allow(ctx, "k")
		require.True(t, ok)
		ok, _ = limiter.Allow(ctx, "k")
		require.False(t, ok)

		time.Sleep(30 * time.Millisecond)
		ok, _ = limiter.Allow(ctx, "k")
		assert.True(t, ok)
	})

	t.Run("reset clears the key", func(t *testing.T) {
		limiter := NewSlidingWindowLimiter(1, time.Minute)

		ok, _ := limiter.Allow(ctx, "k")
		require.True(t, ok)
		require.NoError(t, limiter.Reset(ctx, "k"))

		ok, _ = limiter.Allow(ctx, "k")
		assert.True(t, ok)
	})
}

func TestScopedLimiters(t *testing.T) {
	ctx := context.Background()

	ips := NewIPRateLimiter(1)
	users := NewUserRateLimiter(1)

	ok, err := ips.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = ips.Allow(ctx, "10.0.0.1")
	assert.False(t, ok)

	ok, err = users.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)
}
