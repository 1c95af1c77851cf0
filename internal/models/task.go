package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task priority levels.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// ValidPriority reports whether p is a known priority (empty means unset).
func ValidPriority(p string) bool {
	return p == "" || p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Label is a colored tag attached to a task.
type Label struct {
	Name  string `bson:"name" json:"name"`
	Color string `bson:"color" json:"color"`
}

// Task is a single board card. TaskGroupID changes only through an explicit
// move, which atomically updates both the parent reference and position.
type Task struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TaskGroupID primitive.ObjectID `bson:"taskGroupId" json:"taskGroupId"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Position    int                `bson:"position" json:"position"`

	Complete    bool       `bson:"complete" json:"complete"`
	CompletedAt *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	DueDate     *time.Time `bson:"dueDate,omitempty" json:"dueDate,omitempty"`
	HasTime     bool       `bson:"hasTime" json:"hasTime"` // due date carries a time component
	DueSoon     bool       `bson:"dueSoon" json:"dueSoon"` // set by the hourly reminder sweep
	Priority    string     `bson:"priority,omitempty" json:"priority,omitempty"`

	Assigned []string `bson:"assigned,omitempty" json:"assigned,omitempty"` // user IDs
	Labels   []Label  `bson:"labels,omitempty" json:"labels,omitempty"`

	CreatedBy string    `bson:"createdBy" json:"createdBy"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// CreateTaskRequest is the request body for creating a task. Position, when
// set, is the target index within the group; omitted means append.
type CreateTaskRequest struct {
	TaskGroupID string     `json:"taskGroupId"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	HasTime     bool       `json:"hasTime,omitempty"`
	Position    *int       `json:"position,omitempty"`
}

// UpdateTaskRequest is the request body for updating a task. Setting
// TaskGroupID moves the task to another group; Position is the target index
// within the (possibly new) group's siblings.
type UpdateTaskRequest struct {
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	TaskGroupID *string    `json:"taskGroupId,omitempty"`
	Position    *int       `json:"position,omitempty"`
	Complete    *bool      `json:"complete,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	ClearDue    bool       `json:"clearDue,omitempty"`
	HasTime     *bool      `json:"hasTime,omitempty"`
	Assigned    *[]string  `json:"assigned,omitempty"`
	Labels      *[]Label   `json:"labels,omitempty"`
}
