package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/craftkart/identity/internal/config"
	"github.com/craftkart/identity/internal/logging"
	"github.com/craftkart/identity/internal/models"
	"github.com/craftkart/identity/internal/observability"
	"github.com/craftkart/identity/internal/utils"
)

// CodeService issues and checks one-time verification codes. Codes live in
// Redis under a key scoped by actor, channel, action and identifier, so a
// code requested for an enquiry verification can never satisfy a login.
type CodeService struct {
	logger *logging.SafeLogger
}

// Codes is the global code service instance
var Codes *CodeService

// InitCodeService initializes the global code service
func InitCodeService() {
	Codes = &CodeService{
		logger: logging.Logger.With(zap.String("service", "codes")),
	}
}

func codeKey(actor models.ActorKind, channel models.Channel, mode models.Mode, identifier string) string {
	return fmt.Sprintf("auth:code:%s:%s:%s:%s", actor, channel, mode, identifier)
}

func verifiedKey(actor models.ActorKind, channel models.Channel, identifier string) string {
	return fmt.Sprintf("auth:verified:%s:%s:%s", actor, channel, identifier)
}

// Issue generates a fresh code for the identifier and stores it with the
// configured TTL. Re-issuing replaces any previous code; requestCode is
// deliberately not idempotent.
func (s *CodeService) Issue(ctx context.Context, actor models.ActorKind, channel models.Channel, mode models.Mode, identifier string) (string, error) {
	code := utils.GenerateVerificationCode()
	entry := models.CodeEntry{
		Code:     code,
		IssuedAt: time.Now(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("failed to marshal code entry: %w", err)
	}

	key := codeKey(actor, channel, mode, identifier)
	if err := config.Redis.Set(ctx, key, data, config.AppConfig.VerificationCodeTTL).Err(); err != nil {
		s.logger.Error("failed to store verification code", zap.Error(err))
		return "", fmt.Errorf("failed to store verification code: %w", err)
	}

	observability.CodesIssued.WithLabelValues(string(channel), string(mode)).Inc()
	s.logger.Debug("verification code issued",
		zap.String("channel", string(channel)),
		zap.String("action", string(mode)),
		zap.String("identifier", observability.MaskIdentifier(identifier)))

	return code, nil
}

// Verify checks a submitted code. A match consumes the code (a verified
// session is terminal for that identifier) and leaves a short-lived
// verified marker for the registration step to consume. A miss counts
// against the attempt budget; exhausting it destroys the code.
func (s *CodeService) Verify(ctx context.Context, actor models.ActorKind, channel models.Channel, mode models.Mode, identifier, code string) error {
	key := codeKey(actor, channel, mode, identifier)

	data, err := config.Redis.Get(ctx, key).Result()
	if err == redis.Nil {
		observability.CodeVerifications.WithLabelValues(string(channel), "expired").Inc()
		return models.ErrCodeExpired
	}
	if err != nil {
		return fmt.Errorf("failed to load verification code: %w", err)
	}

	var entry models.CodeEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return fmt.Errorf("failed to decode code entry: %w", err)
	}

	if entry.Code != code {
		entry.Attempts++
		if entry.Attempts >= models.MaxVerificationAttempts {
			if err := config.Redis.Del(ctx, key).Err(); err != nil {
				s.logger.Warn("failed to delete exhausted code", zap.Error(err))
			}
			s.logger.Info("verification attempts exhausted",
				zap.String("identifier", observability.MaskIdentifier(identifier)))
		} else if remaining, ttlErr := config.Redis.TTL(ctx, key).Result(); ttlErr == nil && remaining > 0 {
			if updated, mErr := json.Marshal(entry); mErr == nil {
				if err := config.Redis.Set(ctx, key, updated, remaining).Err(); err != nil {
					s.logger.Warn("failed to record failed attempt", zap.Error(err))
				}
			}
		}
		observability.CodeVerifications.WithLabelValues(string(channel), "rejected").Inc()
		return models.ErrInvalidCode
	}

	// Match: the code is single-use. Delete it and write the verified
	// marker in one round trip so a crash between the two cannot leave a
	// reusable code behind.
	pipe := config.Redis.Pipeline()
	pipe.Del(ctx, key)
	pipe.Set(ctx, verifiedKey(actor, channel, identifier), "1", config.AppConfig.VerifiedMarkerTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store verified marker: %w", err)
	}

	observability.CodeVerifications.WithLabelValues(string(channel), "verified").Inc()
	return nil
}

// ConsumeVerified atomically claims the verified marker for an identifier.
// Registration requires it; claiming it twice fails.
func (s *CodeService) ConsumeVerified(ctx context.Context, actor models.ActorKind, channel models.Channel, identifier string) (bool, error) {
	n, err := config.Redis.Del(ctx, verifiedKey(actor, channel, identifier)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to consume verified marker: %w", err)
	}
	return n > 0, nil
}
