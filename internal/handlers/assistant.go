package handlers

import (
	"momentum/internal/apperr"
	"momentum/internal/models"
	"momentum/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AssistantHandler handles the project assistant chat endpoints.
type AssistantHandler struct {
	assistantService *services.AssistantService
}

// NewAssistantHandler creates a new assistant handler
func NewAssistantHandler(assistantService *services.AssistantService) *AssistantHandler {
	return &AssistantHandler{assistantService: assistantService}
}

// Chat sends a message and returns the assistant's reply
// POST /api/assistant/chat
func (h *AssistantHandler) Chat(c *fiber.Ctx) error {
	var req models.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	response, err := h.assistantService.Chat(c.Context(), userID(c), &req)
	if err != nil {
		return err
	}
	return OK(c, response)
}

// ListConversations returns the user's conversation index
// GET /api/assistant/conversations
func (h *AssistantHandler) ListConversations(c *fiber.Ctx) error {
	conversations, err := h.assistantService.ListConversations(c.Context(), userID(c))
	if err != nil {
		return err
	}
	return OK(c, conversations)
}

// GetConversation returns one conversation with full history
// GET /api/assistant/conversations/:id
func (h *AssistantHandler) GetConversation(c *fiber.Ctx) error {
	id, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}
	conversation, err := h.assistantService.GetConversation(c.Context(), userID(c), id)
	if err != nil {
		return err
	}
	return OK(c, conversation)
}

// DeleteConversation removes a conversation
// DELETE /api/assistant/conversations/:id
func (h *AssistantHandler) DeleteConversation(c *fiber.Ctx) error {
	id, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.assistantService.DeleteConversation(c.Context(), userID(c), id); err != nil {
		return err
	}
	return Message(c, "conversation deleted")
}
