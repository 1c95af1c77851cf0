package handlers

import (
	"context"
	"log"
	"time"

	"momentum/internal/models"
	"momentum/internal/services"

	"github.com/gofiber/contrib/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BoardWebSocketHandler streams board events for one project to connected
// clients. Clients reconcile their optimistic state from these events.
type BoardWebSocketHandler struct {
	projectService *services.ProjectService
	events         *services.BoardEventService
	metrics        *services.Metrics
}

// NewBoardWebSocketHandler creates a new board WebSocket handler
func NewBoardWebSocketHandler(projectService *services.ProjectService, events *services.BoardEventService, metrics *services.Metrics) *BoardWebSocketHandler {
	return &BoardWebSocketHandler{
		projectService: projectService,
		events:         events,
		metrics:        metrics,
	}
}

// wsServerMessage is the envelope for messages pushed to the client.
type wsServerMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Handle is the WebSocket handler for /ws/projects/:id
func (h *BoardWebSocketHandler) Handle(c *websocket.Conn) {
	userID, ok := c.Locals("user_id").(string)
	if !ok || userID == "" {
		c.WriteJSON(wsServerMessage{Type: "error", Data: map[string]string{"message": "unauthorized"}})
		return
	}

	projectID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		c.WriteJSON(wsServerMessage{Type: "error", Data: map[string]string{"message": "invalid project id"}})
		return
	}

	ctx := context.Background()
	if _, err := h.projectService.Authorize(ctx, projectID, userID, models.ActionView); err != nil {
		c.WriteJSON(wsServerMessage{Type: "error", Data: map[string]string{"message": "project not found"}})
		return
	}

	eventCh, cancel := h.events.Subscribe(projectID.Hex())
	defer cancel()

	if h.metrics != nil {
		h.metrics.WebSocketConnections.Inc()
		defer h.metrics.WebSocketConnections.Dec()
	}
	log.Printf("🔌 Board socket opened: project %s (user %s)", projectID.Hex(), userID)
	defer log.Printf("🔌 Board socket closed: project %s (user %s)", projectID.Hex(), userID)

	// Read loop in a goroutine: its only job is detecting disconnects.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	c.WriteJSON(wsServerMessage{Type: "connected", Data: map[string]string{"projectId": projectID.Hex()}})

	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case <-done:
			return
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			if err := c.WriteJSON(wsServerMessage{Type: "board_event", Data: event}); err != nil {
				return
			}
		case <-pingTicker.C:
			if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
