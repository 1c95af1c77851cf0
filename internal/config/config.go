package config

import (
	"os"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Port     string
	MongoURI string
	RedisURL string

	// JWT configuration
	JWTSecret          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration

	// Assistant provider (OpenAI-compatible). Empty BaseURL disables the
	// provider and the assistant answers locally.
	AssistantBaseURL string
	AssistantAPIKey  string
	AssistantModel   string

	// Board templates file (default columns for new projects)
	BoardTemplatesPath string

	// Background job schedules (cron expressions, UTC)
	RebalanceCron string
	DueSoonCron   string

	// CORS
	AllowedOrigins []string
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	origins := getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	allowedOrigins := strings.Split(origins, ",")
	for i := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(allowedOrigins[i])
	}

	return &Config{
		Port:     getEnv("PORT", "3001"),
		MongoURI: getEnv("MONGODB_URI", "mongodb://localhost:27017/momentum"),
		RedisURL: getEnv("REDIS_URL", ""),

		JWTSecret:          getEnv("JWT_SECRET", ""),
		AccessTokenExpiry:  getDurationEnv("ACCESS_TOKEN_EXPIRY", 15*time.Minute),
		RefreshTokenExpiry: getDurationEnv("REFRESH_TOKEN_EXPIRY", 7*24*time.Hour),

		AssistantBaseURL: getEnv("ASSISTANT_BASE_URL", ""),
		AssistantAPIKey:  getEnv("ASSISTANT_API_KEY", ""),
		AssistantModel:   getEnv("ASSISTANT_MODEL", "gpt-4o-mini"),

		BoardTemplatesPath: getEnv("BOARD_TEMPLATES_PATH", "board-templates.yaml"),

		RebalanceCron: getEnv("REBALANCE_CRON", "0 3 * * *"),
		DueSoonCron:   getEnv("DUE_SOON_CRON", "0 * * * *"),

		AllowedOrigins: allowedOrigins,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
