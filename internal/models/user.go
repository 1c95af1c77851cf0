package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents an account in the local auth system.
type User struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email               string             `bson:"email" json:"email"`
	Username            string             `bson:"username" json:"username"`
	FullName            string             `bson:"fullName,omitempty" json:"fullName,omitempty"`
	PasswordHash        string             `bson:"passwordHash,omitempty" json:"-"` // Argon2id hash, never exposed in API
	Role                string             `bson:"role,omitempty" json:"role,omitempty"` // "admin" or "user" (site-wide, not board role)
	RefreshTokenVersion int                `bson:"refreshTokenVersion" json:"-"`    // Incremented on logout to invalidate tokens

	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	LastLoginAt time.Time `bson:"lastLoginAt" json:"lastLoginAt"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"fullName,omitempty"`
	Role     string `json:"role,omitempty"`
}

// ToResponse converts a User to its public representation.
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:       u.ID.Hex(),
		Email:    u.Email,
		Username: u.Username,
		FullName: u.FullName,
		Role:     u.Role,
	}
}

// UpdateProfileRequest is the request body for profile updates.
type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty"`
	FullName *string `json:"fullName,omitempty"`
}
