package middleware

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RateLimitConfig holds rate limiting settings.
type RateLimitConfig struct {
	// Global limits (per IP) for all /api routes
	GlobalAPIMax        int
	GlobalAPIExpiration time.Duration

	// Auth endpoint limits (per IP) - login/register are brute-force targets
	AuthMax        int
	AuthExpiration time.Duration

	// Assistant limits (per user) - provider calls are expensive
	AssistantMax        int
	AssistantExpiration time.Duration
}

// DefaultRateLimitConfig returns production-safe defaults.
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		GlobalAPIMax:        200,
		GlobalAPIExpiration: 1 * time.Minute,

		AuthMax:        10,
		AuthExpiration: 15 * time.Minute,

		AssistantMax:        20,
		AssistantExpiration: 1 * time.Minute,
	}
}

// LoadRateLimitConfig reads rate limit overrides from the environment.
func LoadRateLimitConfig() *RateLimitConfig {
	cfg := DefaultRateLimitConfig()

	if v := envInt("RATE_LIMIT_GLOBAL_MAX"); v > 0 {
		cfg.GlobalAPIMax = v
	}
	if v := envInt("RATE_LIMIT_AUTH_MAX"); v > 0 {
		cfg.AuthMax = v
	}
	if v := envInt("RATE_LIMIT_ASSISTANT_MAX"); v > 0 {
		cfg.AssistantMax = v
	}

	return cfg
}

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("⚠️  Invalid %s=%q, using default", key, v)
		return 0
	}
	return parsed
}

// GlobalAPIRateLimiter limits all API requests per IP.
func GlobalAPIRateLimiter(cfg *RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        cfg.GlobalAPIMax,
		Expiration: cfg.GlobalAPIExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: tooManyRequests,
	})
}

// AuthRateLimiter limits login/register attempts per IP.
func AuthRateLimiter(cfg *RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        cfg.AuthMax,
		Expiration: cfg.AuthExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "auth:" + c.IP()
		},
		LimitReached: tooManyRequests,
	})
}

// AssistantRateLimiter limits assistant turns per authenticated user.
func AssistantRateLimiter(cfg *RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        cfg.AssistantMax,
		Expiration: cfg.AssistantExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			if id := UserID(c); id != "" {
				return "assistant:" + id
			}
			return "assistant:" + c.IP()
		},
		LimitReached: tooManyRequests,
	})
}

func tooManyRequests(c *fiber.Ctx) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"success": false,
		"message": "too many requests, slow down",
	})
}
