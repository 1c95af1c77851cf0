package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Project owns an ordered collection of task groups and carries its own
// membership list. Members are embedded the same way team members are.
type Project struct {
	ID      primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name    string              `bson:"name" json:"name"`
	TeamID  *primitive.ObjectID `bson:"teamId,omitempty" json:"teamId,omitempty"`
	OwnerID string              `bson:"ownerId" json:"ownerId"`

	Members []ProjectMember `bson:"members" json:"members"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ProjectMember links a user to a project with a role.
type ProjectMember struct {
	UserID  string    `bson:"userId" json:"userId"`
	Role    string    `bson:"role" json:"role"`
	AddedAt time.Time `bson:"addedAt" json:"addedAt"`
	AddedBy string    `bson:"addedBy" json:"addedBy"`
}

// IsOwner checks if a user is the project owner.
func (p *Project) IsOwner(userID string) bool {
	return p.OwnerID == userID
}

// MemberRole returns the role of a member (empty if not a member). The owner
// always has the owner role even without an explicit membership record.
func (p *Project) MemberRole(userID string) string {
	if p.OwnerID == userID {
		return RoleOwner
	}
	for _, m := range p.Members {
		if m.UserID == userID {
			return m.Role
		}
	}
	return ""
}

// HasMember checks if a user belongs to the project.
func (p *Project) HasMember(userID string) bool {
	return p.MemberRole(userID) != ""
}

// Can reports whether the user may perform the action on this project.
func (p *Project) Can(userID string, action Action) bool {
	return CanPerform(p.MemberRole(userID), action)
}

// CreateProjectRequest is the request body for creating a project.
type CreateProjectRequest struct {
	Name   string `json:"name"`
	TeamID string `json:"teamId,omitempty"`
}

// UpdateProjectRequest is the request body for renaming a project.
type UpdateProjectRequest struct {
	Name *string `json:"name,omitempty"`
}

// AddMemberRequest is the request body for adding a project or team member.
type AddMemberRequest struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// UpdateMemberRequest changes an existing member's role.
type UpdateMemberRequest struct {
	Role string `json:"role"`
}

// Board is the full read model for a project: groups sorted by position,
// each with its tasks sorted by position.
type Board struct {
	Project Project      `json:"project"`
	Groups  []BoardGroup `json:"groups"`
}

// BoardGroup is a task group with its ordered tasks attached.
type BoardGroup struct {
	TaskGroup `bson:",inline"`
	Tasks     []Task `json:"tasks"`
}
