package models

import "time"

// Board event types pushed to WebSocket subscribers after successful
// mutations.
const (
	EventTaskCreated  = "task_created"
	EventTaskUpdated  = "task_updated"
	EventTaskMoved    = "task_moved"
	EventTaskDeleted  = "task_deleted"
	EventGroupCreated = "group_created"
	EventGroupUpdated = "group_updated"
	EventGroupDeleted = "group_deleted"
)

// BoardEvent describes a change to a project's board. Payload holds the
// affected entity (or its ID for deletes).
type BoardEvent struct {
	Type       string      `json:"type"`
	ProjectID  string      `json:"projectId"`
	ActorID    string      `json:"actorId"`
	InstanceID string      `json:"instanceId,omitempty"` // source instance, for pub/sub loop suppression
	Payload    interface{} `json:"payload,omitempty"`
	At         time.Time   `json:"at"`
}
