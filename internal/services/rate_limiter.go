package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/craftkart/identity/internal/config"
	"github.com/craftkart/identity/internal/logging"
	"github.com/craftkart/identity/internal/models"
	"github.com/craftkart/identity/internal/observability"
)

// RateLimiter implements a token bucket rate limiter
type RateLimiter struct {
	tokens     int
	maxTokens  int
	refillRate time.Duration
	lastRefill time.Time
	mutex      sync.Mutex
	logger     *logging.SafeLogger
}

// NewRateLimiter creates a new token bucket rate limiter
func NewRateLimiter(maxTokens int, refillRate time.Duration, logger *logging.SafeLogger) *RateLimiter {
	return &RateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
		logger:     logger,
	}
}

// Allow checks if a request should be allowed based on rate limiting
func (rl *RateLimiter) Allow(ctx context.Context, operation string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := time.Now()
	elapsed := now.Sub(rl.lastRefill)

	tokensToAdd := int(elapsed / rl.refillRate)
	if tokensToAdd > 0 {
		rl.tokens += tokensToAdd
		if rl.tokens > rl.maxTokens {
			rl.tokens = rl.maxTokens
		}
		rl.lastRefill = now
	}

	if rl.tokens > 0 {
		rl.tokens--
		return true
	}

	rl.logger.Warn("rate limiter rejected request",
		zap.String("operation", operation),
		zap.Int("max_tokens", rl.maxTokens))
	return false
}

// GetStatus returns the current and maximum token counts
func (rl *RateLimiter) GetStatus() (int, int) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	return rl.tokens, rl.maxTokens
}

// SendCodeLimiter combines a process-wide token bucket with per-identifier
// limits in Redis: a resend cooldown and an hourly cap. Repeated send-code
// calls within the cooldown window are rejected with RateLimited.
type SendCodeLimiter struct {
	global *RateLimiter
	logger *logging.SafeLogger
}

// SendLimiter is the global send-code limiter instance
var SendLimiter *SendCodeLimiter

// InitSendCodeLimiter initializes the global send-code limiter
func InitSendCodeLimiter(maxRequestsPerMinute int) {
	logger := logging.Logger.With(zap.String("service", "send_code_limiter"))
	refillRate := time.Minute / time.Duration(maxRequestsPerMinute)

	SendLimiter = &SendCodeLimiter{
		global: NewRateLimiter(maxRequestsPerMinute, refillRate, logger),
		logger: logger,
	}
	logger.Info("send-code rate limiter initialized",
		zap.Int("max_requests_per_minute", maxRequestsPerMinute))
}

// Allow reports whether a code may be sent to the identifier now. The
// returned reason is empty when allowed.
func (l *SendCodeLimiter) Allow(ctx context.Context, channel models.Channel, identifier string) (bool, string) {
	if !l.global.Allow(ctx, "send_code") {
		observability.RateLimited.WithLabelValues(string(channel)).Inc()
		return false, "too many code requests, try again shortly"
	}

	cooldownKey := fmt.Sprintf("auth:cooldown:%s", identifier)
	ok, err := config.Redis.SetNX(ctx, cooldownKey, "1", config.AppConfig.SendCodeCooldown).Result()
	if err != nil {
		// Redis trouble must not lock everyone out of auth
		l.logger.Warn("cooldown check failed, allowing request", zap.Error(err))
		return true, ""
	}
	if !ok {
		observability.RateLimited.WithLabelValues(string(channel)).Inc()
		l.logger.Debug("resend cooldown active",
			zap.String("identifier", observability.MaskIdentifier(identifier)))
		return false, "a code was sent recently, wait before requesting another"
	}

	countKey := fmt.Sprintf("auth:sends:%s", identifier)
	n, err := config.Redis.Incr(ctx, countKey).Result()
	if err != nil {
		l.logger.Warn("hourly counter failed, allowing request", zap.Error(err))
		return true, ""
	}
	if n == 1 {
		if err := config.Redis.Expire(ctx, countKey, time.Hour).Err(); err != nil {
			l.logger.Warn("failed to set hourly counter expiry", zap.Error(err))
		}
	}
	if int(n) > config.AppConfig.SendCodeHourlyMax {
		observability.RateLimited.WithLabelValues(string(channel)).Inc()
		return false, "hourly code limit reached for this identifier"
	}

	return true, ""
}

// GetGlobalStatus returns the global bucket's token counts
func (l *SendCodeLimiter) GetGlobalStatus() (int, int) {
	return l.global.GetStatus()
}
