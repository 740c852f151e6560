package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values
type Config struct {
	// Server configuration
	Port        int    `json:"port"`
	Environment string `json:"environment"`

	// MongoDB configuration
	MongoURI        string `json:"mongo_uri"`
	MongoDatabase   string `json:"mongo_database"`
	UsersCollection string `json:"mongo_users_collection"`
	AuditCollection string `json:"mongo_audit_collection"`

	// Redis configuration
	RedisURI      string `json:"redis_uri"`
	RedisPassword string `json:"redis_password"`
	RedisDB       int    `json:"redis_db"`

	// Session configuration
	JWTSecret    string        `json:"-"`
	SessionTTL   time.Duration `json:"session_ttl"`
	CookieName   string        `json:"cookie_name"`
	CookieDomain string        `json:"cookie_domain"`
	CookieSecure bool          `json:"cookie_secure"`

	// Verification code configuration. SendCodeHourlyMax caps one
	// identifier; SendCodeGlobalPerMinute caps the whole process.
	VerificationCodeTTL     time.Duration `json:"verification_code_ttl"`
	VerifiedMarkerTTL       time.Duration `json:"verified_marker_ttl"`
	SendCodeCooldown        time.Duration `json:"send_code_cooldown"`
	SendCodeHourlyMax       int           `json:"send_code_hourly_max"`
	SendCodeGlobalPerMinute int           `json:"send_code_global_per_minute"`

	// Code delivery gateways
	SMSGatewayURL   string `json:"sms_gateway_url"`
	SMSGatewayKey   string `json:"-"`
	EmailGatewayURL string `json:"email_gateway_url"`
	EmailGatewayKey string `json:"-"`

	// Tracing configuration
	TracingEnabled  bool   `json:"tracing_enabled"`
	TracingEndpoint string `json:"tracing_endpoint"`
}

var (
	AppConfig *Config
)

// LoadConfig loads configuration from environment variables
func LoadConfig() error {
	port, err := strconv.Atoi(getEnvOrDefault("PORT", "8080"))
	if err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnvOrDefault("REDIS_DB", "0"))
	if err != nil {
		return fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}

	sessionTTL, err := time.ParseDuration(getEnvOrDefault("SESSION_TTL", "720h"))
	if err != nil {
		return fmt.Errorf("invalid SESSION_TTL: %w", err)
	}

	codeTTL, err := time.ParseDuration(getEnvOrDefault("VERIFICATION_CODE_TTL", "5m"))
	if err != nil {
		return fmt.Errorf("invalid VERIFICATION_CODE_TTL: %w", err)
	}

	markerTTL, err := time.ParseDuration(getEnvOrDefault("VERIFIED_MARKER_TTL", "10m"))
	if err != nil {
		return fmt.Errorf("invalid VERIFIED_MARKER_TTL: %w", err)
	}

	cooldown, err := time.ParseDuration(getEnvOrDefault("SEND_CODE_COOLDOWN", "60s"))
	if err != nil {
		return fmt.Errorf("invalid SEND_CODE_COOLDOWN: %w", err)
	}

	hourlyMax, err := strconv.Atoi(getEnvOrDefault("SEND_CODE_HOURLY_MAX", "5"))
	if err != nil {
		return fmt.Errorf("invalid SEND_CODE_HOURLY_MAX: %w", err)
	}

	globalPerMinute, err := strconv.Atoi(getEnvOrDefault("SEND_CODE_GLOBAL_PER_MINUTE", "60"))
	if err != nil || globalPerMinute < 1 {
		return fmt.Errorf("invalid SEND_CODE_GLOBAL_PER_MINUTE: %v", getEnvOrDefault("SEND_CODE_GLOBAL_PER_MINUTE", "60"))
	}

	AppConfig = &Config{
		// Server configuration
		Port:        port,
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),

		// MongoDB configuration
		MongoURI:        getEnvOrDefault("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:   getEnvOrDefault("MONGODB_DATABASE", "identity"),
		UsersCollection: getEnvOrDefault("MONGODB_USERS_COLLECTION", "users"),
		AuditCollection: getEnvOrDefault("MONGODB_AUDIT_COLLECTION", "auth_audit_logs"),

		// Redis configuration
		RedisURI:      getEnvOrDefault("REDIS_URI", "localhost:6379"),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),
		RedisDB:       redisDB,

		// Session configuration
		JWTSecret:    jwtSecret,
		SessionTTL:   sessionTTL,
		CookieName:   getEnvOrDefault("SESSION_COOKIE_NAME", "ck_session"),
		CookieDomain: getEnvOrDefault("SESSION_COOKIE_DOMAIN", ""),
		CookieSecure: getEnvOrDefault("SESSION_COOKIE_SECURE", "false") == "true",

		// Verification code configuration
		VerificationCodeTTL:     codeTTL,
		VerifiedMarkerTTL:       markerTTL,
		SendCodeCooldown:        cooldown,
		SendCodeHourlyMax:       hourlyMax,
		SendCodeGlobalPerMinute: globalPerMinute,

		// Code delivery gateways
		SMSGatewayURL:   getEnvOrDefault("SMS_GATEWAY_URL", ""),
		SMSGatewayKey:   getEnvOrDefault("SMS_GATEWAY_KEY", ""),
		EmailGatewayURL: getEnvOrDefault("EMAIL_GATEWAY_URL", ""),
		EmailGatewayKey: getEnvOrDefault("EMAIL_GATEWAY_KEY", ""),

		// Tracing configuration
		TracingEnabled:  getEnvOrDefault("TRACING_ENABLED", "false") == "true",
		TracingEndpoint: getEnvOrDefault("TRACING_ENDPOINT", "localhost:4317"),
	}

	return nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
