// Package config provides environment configuration for the site server and
// the terminal chat widget.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the API server.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// LLM settings
	LLMProvider     string
	LLMGatewayURL   string
	LLMAPIKey       string
	AnthropicAPIKey string
	LLMModel        string
	LLMMaxTokens    int

	// Mail settings
	ResendAPIKey string
	MailFrom     string
	MailTo       string

	// NATS settings, empty URL disables the lead stream
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// JWT settings, empty secret disables auth
	JWTSecret string

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// CORS
	CORSAllowedOrigins []string

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),

		// LLM
		LLMProvider:     getEnv("LLM_PROVIDER", "openai"),
		LLMGatewayURL:   getEnv("LLM_GATEWAY_URL", "https://ai.gateway.lovable.dev/v1"),
		LLMAPIKey:       getEnv("LLM_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		LLMModel:        getEnv("LLM_MODEL", ""),
		LLMMaxTokens:    getIntEnv("LLM_MAX_TOKENS", 1024),

		// Mail
		ResendAPIKey: getEnv("RESEND_API_KEY", ""),
		MailFrom:     getEnv("MAIL_FROM", "Zyora AI <onboarding@resend.dev>"),
		MailTo:       getEnv("MAIL_TO", "ZyoraAIAgency@outlook.com"),

		// NATS
		NATSURL:      getEnv("NATS_URL", ""),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", ""),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 30),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// CORS
		CORSAllowedOrigins: getListEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

// WidgetConfig holds configuration for the terminal chat widget.
type WidgetConfig struct {
	APIURL            string
	APIKey            string
	FallbackEmail     string
	ReplyDelay        time.Duration
	BookingStartDelay time.Duration
	NavigateDelay     time.Duration
	LogLevel          string
}

// LoadWidget reads widget configuration from environment variables.
func LoadWidget() *WidgetConfig {
	return &WidgetConfig{
		APIURL:            getEnv("WIDGET_API_URL", "http://localhost:8080"),
		APIKey:            getEnv("WIDGET_API_KEY", ""),
		FallbackEmail:     getEnv("WIDGET_FALLBACK_EMAIL", "ZyoraAIAgency@outlook.com"),
		ReplyDelay:        getDurationEnv("WIDGET_REPLY_DELAY", 800*time.Millisecond),
		BookingStartDelay: getDurationEnv("WIDGET_BOOKING_DELAY", time.Second),
		NavigateDelay:     getDurationEnv("WIDGET_NAVIGATE_DELAY", 1500*time.Millisecond),
		LogLevel:          getEnv("LOG_LEVEL", "warn"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
