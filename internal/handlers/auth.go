package handlers

import (
	"log"
	"strings"
	"time"

	"momentum/internal/apperr"
	"momentum/internal/models"
	"momentum/internal/services"
	"momentum/pkg/auth"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuthHandler handles registration, login and the token lifecycle.
type AuthHandler struct {
	jwtAuth     *auth.JWTAuth
	userService *services.UserService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(jwtAuth *auth.JWTAuth, userService *services.UserService) *AuthHandler {
	return &AuthHandler{
		jwtAuth:     jwtAuth,
		userService: userService,
	}
}

// RegisterRequest is the request body for registration
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"fullName,omitempty"`
	Password string `json:"password"`
}

// LoginRequest is the request body for login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshTokenRequest is the request body for token refresh
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse is the response for successful authentication
type AuthResponse struct {
	AccessToken string              `json:"access_token"`
	User        models.UserResponse `json:"user"`
	ExpiresIn   int                 `json:"expires_in"` // seconds
}

// Register creates a new user account
// POST /api/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return apperr.Validation("valid email address is required", apperr.FieldError{Field: "email", Message: "must be a valid email address"})
	}
	if req.Username == "" {
		return apperr.Validation("username is required", apperr.FieldError{Field: "username", Message: "cannot be empty"})
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		return apperr.Validation(err.Error(), apperr.FieldError{Field: "password", Message: err.Error()})
	}

	if existing, _ := h.userService.GetByEmail(c.Context(), req.Email); existing != nil {
		return apperr.Conflict("a user with this email already exists")
	}
	if existing, _ := h.userService.GetByUsername(c.Context(), req.Username); existing != nil {
		return apperr.Conflict("this username is already taken")
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return apperr.Internal(err)
	}

	// First account gets the site admin role.
	role := "user"
	if count, err := h.userService.Count(c.Context()); err == nil && count == 0 {
		role = "admin"
		log.Printf("🎉 Creating first user as admin: %s", req.Email)
	}

	now := time.Now()
	user := &models.User{
		ID:           primitive.NewObjectID(),
		Email:        req.Email,
		Username:     req.Username,
		FullName:     strings.TrimSpace(req.FullName),
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		LastLoginAt:  now,
	}
	if err := h.userService.Create(c.Context(), user); err != nil {
		return apperr.Internal(err)
	}

	return h.issueTokens(c, user, fiber.StatusCreated)
}

// Login authenticates a user with email and password
// POST /api/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	user, err := h.userService.GetByEmail(c.Context(), strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		// Same response as a bad password, so emails cannot be probed.
		return apperr.Unauthorized("invalid email or password")
	}

	valid, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil || !valid {
		return apperr.Unauthorized("invalid email or password")
	}

	user.LastLoginAt = time.Now()
	if err := h.userService.Update(c.Context(), user); err != nil {
		log.Printf("⚠️ Failed to update last login: %v", err)
	}

	return h.issueTokens(c, user, fiber.StatusOK)
}

// Refresh exchanges a valid refresh token for a new token pair
// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	refreshToken := c.Cookies("refresh_token")
	if refreshToken == "" {
		var req RefreshTokenRequest
		if err := c.BodyParser(&req); err == nil {
			refreshToken = req.RefreshToken
		}
	}
	if refreshToken == "" {
		return apperr.Unauthorized("refresh token is required")
	}

	claims, err := h.jwtAuth.VerifyRefreshToken(refreshToken)
	if err != nil {
		return apperr.Unauthorized("invalid or expired refresh token")
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return apperr.Unauthorized("invalid refresh token")
	}
	user, err := h.userService.GetByID(c.Context(), userID)
	if err != nil {
		return apperr.Unauthorized("user no longer exists")
	}
	// Logout bumps the version; older refresh tokens die here.
	if claims.TokenVersion != user.RefreshTokenVersion {
		return apperr.Unauthorized("refresh token has been revoked")
	}

	return h.issueTokens(c, user, fiber.StatusOK)
}

// Logout revokes all refresh tokens and clears the cookie
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if userID := userID(c); userID != "" {
		if id, err := primitive.ObjectIDFromHex(userID); err == nil {
			if err := h.userService.IncrementTokenVersion(c.Context(), id); err != nil {
				log.Printf("⚠️ Failed to revoke refresh tokens: %v", err)
			}
		}
	}
	c.ClearCookie("refresh_token")
	return Message(c, "logged out")
}

func (h *AuthHandler) issueTokens(c *fiber.Ctx, user *models.User, status int) error {
	accessToken, refreshToken, err := h.jwtAuth.GenerateTokens(user.ID.Hex(), user.Email, user.Role, user.RefreshTokenVersion)
	if err != nil {
		return apperr.Internal(err)
	}

	// Refresh token travels only in an httpOnly cookie.
	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Expires:  time.Now().Add(h.jwtAuth.RefreshTokenExpiry),
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/api/auth",
	})

	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data": AuthResponse{
			AccessToken: accessToken,
			User:        user.ToResponse(),
			ExpiresIn:   int(h.jwtAuth.AccessTokenExpiry.Seconds()),
		},
	})
}

// userID pulls the authenticated user id out of request locals.
func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}
