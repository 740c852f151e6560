package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/craftkart/identity/internal/logging"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute, logging.NewSafeLogger(nil))
	ctx := context.Background()

	assert.True(t, rl.Allow(ctx, "send_code"))
	assert.True(t, rl.Allow(ctx, "send_code"))
	assert.True(t, rl.Allow(ctx, "send_code"))
	assert.False(t, rl.Allow(ctx, "send_code"), "bucket should be empty")

	tokens, max := rl.GetStatus()
	assert.Equal(t, 0, tokens)
	assert.Equal(t, 3, max)
}

func TestRateLimiter_Refill(t *testing.T) {
	rl := NewRateLimiter(2, 10*time.Millisecond, logging.NewSafeLogger(nil))
	ctx := context.Background()

	assert.True(t, rl.Allow(ctx, "send_code"))
	assert.True(t, rl.Allow(ctx, "send_code"))
	assert.False(t, rl.Allow(ctx, "send_code"))

	time.Sleep(25 * time.Millisecond)
	assert.True(t, rl.Allow(ctx, "send_code"), "tokens should have refilled")
}

func TestRateLimiter_RefillCapped(t *testing.T) {
	rl := NewRateLimiter(1, time.Millisecond, logging.NewSafeLogger(nil))
	ctx := context.Background()

	time.Sleep(20 * time.Millisecond)

	// Only one token despite many refill intervals elapsing
	assert.True(t, rl.Allow(ctx, "send_code"))
	assert.False(t, rl.Allow(ctx, "send_code"))
}
