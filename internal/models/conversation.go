package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Assistant message roles, matching the OpenAI-compatible wire format.
const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
	MessageRoleSystem    = "system"
)

// AssistantMessage is a single turn in an assistant conversation.
type AssistantMessage struct {
	Role      string    `bson:"role" json:"role"`
	Content   string    `bson:"content" json:"content"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Conversation stores an assistant chat thread per user, optionally scoped
// to a project so the assistant can be given board context.
type Conversation struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID    string              `bson:"userId" json:"userId"`
	ProjectID *primitive.ObjectID `bson:"projectId,omitempty" json:"projectId,omitempty"`
	Title     string              `bson:"title" json:"title"`
	Messages  []AssistantMessage  `bson:"messages" json:"messages"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ChatRequest is the request body for an assistant turn.
type ChatRequest struct {
	ConversationID string `json:"conversationId,omitempty"` // omitted starts a new conversation
	ProjectID      string `json:"projectId,omitempty"`
	Message        string `json:"message"`
}

// ChatResponse carries the assistant's reply and the conversation it landed in.
type ChatResponse struct {
	ConversationID string           `json:"conversationId"`
	Reply          AssistantMessage `json:"reply"`
}
