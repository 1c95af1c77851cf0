package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Team groups users for shared project access.
type Team struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name    string             `bson:"name" json:"name"`
	OwnerID string             `bson:"ownerId" json:"ownerId"`

	Members []TeamMember `bson:"members" json:"members"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// TeamMember represents a member of a team.
type TeamMember struct {
	UserID  string    `bson:"userId" json:"userId"`
	Role    string    `bson:"role" json:"role"`
	AddedAt time.Time `bson:"addedAt" json:"addedAt"`
	AddedBy string    `bson:"addedBy" json:"addedBy"`
}

// IsOwner checks if a user is the team owner.
func (t *Team) IsOwner(userID string) bool {
	return t.OwnerID == userID
}

// MemberRole returns the role of a member (empty if not a member).
func (t *Team) MemberRole(userID string) string {
	if t.OwnerID == userID {
		return RoleOwner
	}
	for _, m := range t.Members {
		if m.UserID == userID {
			return m.Role
		}
	}
	return ""
}

// HasMember checks if a user is a team member.
func (t *Team) HasMember(userID string) bool {
	return t.MemberRole(userID) != ""
}

// Can reports whether the user may perform the action on this team.
func (t *Team) Can(userID string, action Action) bool {
	return CanPerform(t.MemberRole(userID), action)
}

// CreateTeamRequest is the request body for creating a team.
type CreateTeamRequest struct {
	Name string `json:"name"`
}

// UpdateTeamRequest is the request body for renaming a team.
type UpdateTeamRequest struct {
	Name *string `json:"name,omitempty"`
}

// TeamListItem is a lightweight team representation for list views.
type TeamListItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Role        string `json:"role"` // Current user's role
	MemberCount int    `json:"memberCount"`
}
