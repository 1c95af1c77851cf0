package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskGroup is a named, ordered column on a project's board. Position is a
// sparse integer key: readers sort by position ascending with createdAt then
// _id as tie-break, so gaps left by deletes are harmless.
type TaskGroup struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProjectID primitive.ObjectID `bson:"projectId" json:"projectId"`
	Name      string             `bson:"name" json:"name"`
	Position  int                `bson:"position" json:"position"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// CreateTaskGroupRequest is the request body for creating a task group.
// Position, when set, is the target index among the project's groups;
// omitted means append at the end.
type CreateTaskGroupRequest struct {
	ProjectID string `json:"projectId"`
	Name      string `json:"name"`
	Position  *int   `json:"position,omitempty"`
}

// UpdateTaskGroupRequest renames and/or repositions a task group. Position is
// the target index among siblings.
type UpdateTaskGroupRequest struct {
	Name     *string `json:"name,omitempty"`
	Position *int    `json:"position,omitempty"`
}
