package handlers

import (
	"momentum/internal/apperr"
	"momentum/internal/models"
	"momentum/internal/services"
	"momentum/pkg/auth"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserHandler handles the authenticated user's profile.
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// ChangePasswordRequest is the request body for a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Me returns the authenticated user's profile
// GET /api/users/me
func (h *UserHandler) Me(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}
	return OK(c, user.ToResponse())
}

// UpdateProfile updates username and/or full name
// PATCH /api/users/me
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	var req models.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if req.Username != nil && *req.Username == "" {
		return apperr.Validation("username cannot be empty", apperr.FieldError{Field: "username", Message: "cannot be empty"})
	}

	id, err := primitive.ObjectIDFromHex(userID(c))
	if err != nil {
		return apperr.Unauthorized("invalid session")
	}
	user, err := h.userService.UpdateProfile(c.Context(), id, &req)
	if err != nil {
		return err
	}
	return OK(c, user.ToResponse())
}

// ChangePassword verifies the current password and sets a new one. All
// refresh tokens are revoked afterwards.
// POST /api/users/me/password
func (h *UserHandler) ChangePassword(c *fiber.Ctx) error {
	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	user, err := h.currentUser(c)
	if err != nil {
		return err
	}

	valid, err := auth.VerifyPassword(user.PasswordHash, req.CurrentPassword)
	if err != nil || !valid {
		return apperr.Unauthorized("current password is incorrect")
	}
	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		return apperr.Validation(err.Error(), apperr.FieldError{Field: "newPassword", Message: err.Error()})
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return apperr.Internal(err)
	}
	user.PasswordHash = hash
	if err := h.userService.Update(c.Context(), user); err != nil {
		return apperr.Internal(err)
	}
	if err := h.userService.IncrementTokenVersion(c.Context(), user.ID); err != nil {
		return apperr.Internal(err)
	}

	return Message(c, "password changed")
}

func (h *UserHandler) currentUser(c *fiber.Ctx) (*models.User, error) {
	id, err := primitive.ObjectIDFromHex(userID(c))
	if err != nil {
		return nil, apperr.Unauthorized("invalid session")
	}
	user, err := h.userService.GetByID(c.Context(), id)
	if err != nil {
		return nil, apperr.Unauthorized("user no longer exists")
	}
	return user, nil
}
