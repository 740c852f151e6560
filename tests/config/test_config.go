package config

import "os"

// TestConfig holds configuration for E2E/smoke tests against a running
// identity API with real Mongo and Redis behind it.
type TestConfig struct {
	BaseURL string // e.g. "http://localhost:8080"

	// TestCode is the code the verification gateway is stubbed to accept.
	// Leave empty when the backend logs codes instead of delivering them.
	TestCode string

	// Test timeouts
	HealthCheckTimeout int // seconds
	APICallTimeout     int // seconds
}

// LoadTestConfig loads configuration from environment variables.
func LoadTestConfig() *TestConfig {
	baseURL := os.Getenv("TEST_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	return &TestConfig{
		BaseURL:            baseURL,
		TestCode:           os.Getenv("TEST_VERIFICATION_CODE"),
		HealthCheckTimeout: 30,
		APICallTimeout:     10,
	}
}
