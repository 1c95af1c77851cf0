package middleware

import (
	"momentum/internal/apperr"
	"momentum/pkg/auth"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware verifies JWT access tokens and stores the user identity in
// request locals. Supports both the Authorization header and a token query
// parameter (for WebSocket connections, which cannot set headers).
func AuthMiddleware(jwtAuth *auth.JWTAuth) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var token string

		if authHeader := c.Get("Authorization"); authHeader != "" {
			extracted, err := auth.ExtractToken(authHeader)
			if err == nil {
				token = extracted
			}
		}

		// WebSocket clients pass the token as a query parameter.
		if token == "" {
			token = c.Query("token")
		}

		// HTTP-only cookie fallback.
		if token == "" {
			token = c.Cookies("access_token")
		}

		if token == "" {
			return apperr.Unauthorized("missing or invalid authorization token")
		}

		user, err := jwtAuth.VerifyAccessToken(token)
		if err != nil {
			return apperr.Unauthorized("invalid or expired token")
		}

		c.Locals("user_id", user.ID)
		c.Locals("user_email", user.Email)
		c.Locals("user_role", user.Role)

		return c.Next()
	}
}

// UserID returns the authenticated user ID from request locals, or empty.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}
