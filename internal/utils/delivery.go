package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/craftkart/identity/internal/config"
	"github.com/craftkart/identity/internal/logging"
	"github.com/craftkart/identity/internal/models"
	"github.com/craftkart/identity/internal/observability"
	"github.com/craftkart/identity/internal/utils/httpclient"
)

type smsRequest struct {
	To       string `json:"to"`
	Template string `json:"template"`
	Code     string `json:"code"`
}

type emailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Code    string `json:"code"`
}

type gatewayError struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// SendVerificationCode delivers a verification code over the addressed
// channel. Without a configured gateway (local development) the code is
// logged at debug level instead of delivered.
func SendVerificationCode(ctx context.Context, channel models.Channel, identifier, code string) error {
	if channel == models.ChannelEmail {
		return sendEmailCode(ctx, identifier, code)
	}
	return sendSMSCode(ctx, identifier, code)
}

func sendSMSCode(ctx context.Context, phone, code string) error {
	if config.AppConfig.SMSGatewayURL == "" {
		logging.Logger.Debug("sms gateway not configured, skipping delivery",
			zap.String("phone", observability.MaskIdentifier(phone)),
			zap.String("code", code))
		return nil
	}

	body := smsRequest{To: phone, Template: "otp", Code: code}
	return postToGateway(ctx, models.ChannelPhone,
		config.AppConfig.SMSGatewayURL+"/messages",
		config.AppConfig.SMSGatewayKey, body)
}

func sendEmailCode(ctx context.Context, email, code string) error {
	if config.AppConfig.EmailGatewayURL == "" {
		logging.Logger.Debug("email gateway not configured, skipping delivery",
			zap.String("email", observability.MaskIdentifier(email)),
			zap.String("code", code))
		return nil
	}

	body := emailRequest{To: email, Subject: "Your verification code", Code: code}
	return postToGateway(ctx, models.ChannelEmail,
		config.AppConfig.EmailGatewayURL+"/send",
		config.AppConfig.EmailGatewayKey, body)
}

func postToGateway(ctx context.Context, channel models.Channel, url, apiKey string, body interface{}) error {
	logger := logging.Logger.With(
		zap.String("operation", "code_delivery"),
		zap.String("channel", string(channel)))

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal delivery request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create delivery request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	client := httpclient.GetGlobalPool().Get()
	defer httpclient.GetGlobalPool().Put(client)

	resp, err := client.Do(req)
	if err != nil {
		observability.DeliveryFailures.WithLabelValues(string(channel)).Inc()
		logger.Error("failed to reach delivery gateway", zap.Error(err))
		return fmt.Errorf("failed to reach delivery gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		observability.DeliveryFailures.WithLabelValues(string(channel)).Inc()

		var gwErr gatewayError
		respBody, _ := io.ReadAll(resp.Body)
		if err := json.Unmarshal(respBody, &gwErr); err == nil && gwErr.Message != "" {
			logger.Error("delivery gateway rejected request",
				zap.Int("status", resp.StatusCode),
				zap.String("message", gwErr.Message))
			return fmt.Errorf("delivery gateway error: %s", gwErr.Message)
		}

		logger.Error("delivery gateway rejected request", zap.Int("status", resp.StatusCode))
		return fmt.Errorf("delivery gateway returned status %d", resp.StatusCode)
	}

	logger.Debug("verification code dispatched")
	return nil
}
