package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"momentum/internal/apperr"
	"momentum/internal/database"
	"momentum/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when a user exceeds their assistant quota.
var ErrRateLimited = errors.New("assistant rate limit exceeded")

const assistantSystemPrompt = `You are Momentum's project assistant. You help users organize kanban boards: ` +
	`suggesting task breakdowns, summarizing board state, and drafting task descriptions. ` +
	`Keep answers short and practical.`

// AssistantService runs the chatbot: conversations persisted in MongoDB,
// replies generated by an OpenAI-compatible provider when one is configured.
type AssistantService struct {
	conversations *mongo.Collection
	projects      *ProjectService
	metrics       *Metrics

	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client

	mu       sync.Mutex
	limiters map[string]*rate.Limiter // per-user
}

// NewAssistantService creates the assistant. baseURL may be empty; the
// assistant then answers with a canned local reply instead of calling out.
func NewAssistantService(db *database.MongoDB, projects *ProjectService, metrics *Metrics, baseURL, apiKey, model string) *AssistantService {
	return &AssistantService{
		conversations: db.Collection(database.CollectionConversations),
		projects:      projects,
		metrics:       metrics,
		baseURL:       strings.TrimRight(baseURL, "/"),
		apiKey:        apiKey,
		model:         model,
		httpClient:    &http.Client{Timeout: 60 * time.Second},
		limiters:      make(map[string]*rate.Limiter),
	}
}

// Chat appends a user turn to a conversation (creating one if needed) and
// returns the assistant's reply.
func (s *AssistantService) Chat(ctx context.Context, userID string, req *models.ChatRequest) (*models.ChatResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, apperr.Validation("message is required", apperr.FieldError{Field: "message", Message: "cannot be empty"})
	}
	if !s.limiter(userID).Allow() {
		return nil, ErrRateLimited
	}

	start := time.Now()
	if s.metrics != nil {
		s.metrics.AssistantRequests.Inc()
		defer func() {
			s.metrics.AssistantRequestLatency.Observe(time.Since(start).Seconds())
		}()
	}

	conversation, err := s.loadOrCreate(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	userTurn := models.AssistantMessage{Role: models.MessageRoleUser, Content: req.Message, CreatedAt: now}
	conversation.Messages = append(conversation.Messages, userTurn)

	boardContext, err := s.boardContext(ctx, userID, conversation)
	if err != nil {
		return nil, err
	}

	replyText, err := s.complete(ctx, conversation.Messages, boardContext)
	if err != nil {
		if s.metrics != nil {
			s.metrics.AssistantErrors.WithLabelValues("provider").Inc()
		}
		log.Printf("⚠️ Assistant provider error: %v", err)
		replyText = "I couldn't reach the assistant backend just now. Please try again in a moment."
	}

	reply := models.AssistantMessage{Role: models.MessageRoleAssistant, Content: replyText, CreatedAt: time.Now()}
	conversation.Messages = append(conversation.Messages, reply)
	conversation.UpdatedAt = time.Now()

	if _, err := s.conversations.UpdateOne(ctx,
		bson.M{"_id": conversation.ID},
		bson.M{"$set": bson.M{"messages": conversation.Messages, "updatedAt": conversation.UpdatedAt, "title": conversation.Title}},
	); err != nil {
		return nil, fmt.Errorf("failed to save conversation: %w", err)
	}

	return &models.ChatResponse{ConversationID: conversation.ID.Hex(), Reply: reply}, nil
}

// ListConversations returns the user's conversations, newest first, without
// message bodies.
func (s *AssistantService) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: -1}}).
		SetProjection(bson.M{"messages": 0})
	cursor, err := s.conversations.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer cursor.Close(ctx)

	conversations := []models.Conversation{}
	if err := cursor.All(ctx, &conversations); err != nil {
		return nil, fmt.Errorf("failed to decode conversations: %w", err)
	}
	return conversations, nil
}

// GetConversation loads one of the user's conversations with full history.
func (s *AssistantService) GetConversation(ctx context.Context, userID string, conversationID primitive.ObjectID) (*models.Conversation, error) {
	var conversation models.Conversation
	err := s.conversations.FindOne(ctx, bson.M{"_id": conversationID, "userId": userID}).Decode(&conversation)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.NotFound("conversation")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	return &conversation, nil
}

// DeleteConversation removes one of the user's conversations.
func (s *AssistantService) DeleteConversation(ctx context.Context, userID string, conversationID primitive.ObjectID) error {
	result, err := s.conversations.DeleteOne(ctx, bson.M{"_id": conversationID, "userId": userID})
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	if result.DeletedCount == 0 {
		return apperr.NotFound("conversation")
	}
	return nil
}

func (s *AssistantService) loadOrCreate(ctx context.Context, userID string, req *models.ChatRequest) (*models.Conversation, error) {
	if req.ConversationID != "" {
		id, err := primitive.ObjectIDFromHex(req.ConversationID)
		if err != nil {
			return nil, apperr.Validation("invalid conversation id", apperr.FieldError{Field: "conversationId", Message: "must be a valid id"})
		}
		return s.GetConversation(ctx, userID, id)
	}

	now := time.Now()
	conversation := &models.Conversation{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Title:     conversationTitle(req.Message),
		Messages:  []models.AssistantMessage{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.ProjectID != "" {
		projectID, err := primitive.ObjectIDFromHex(req.ProjectID)
		if err != nil {
			return nil, apperr.Validation("invalid project id", apperr.FieldError{Field: "projectId", Message: "must be a valid id"})
		}
		// Board-scoped chats require at least view access.
		if _, err := s.projects.Authorize(ctx, projectID, userID, models.ActionView); err != nil {
			return nil, err
		}
		conversation.ProjectID = &projectID
	}

	if _, err := s.conversations.InsertOne(ctx, conversation); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conversation, nil
}

// boardContext renders the linked project's board as a compact text summary
// for the system prompt. Returns empty when the chat has no project.
func (s *AssistantService) boardContext(ctx context.Context, userID string, conversation *models.Conversation) (string, error) {
	if conversation.ProjectID == nil {
		return "", nil
	}

	project, err := s.projects.Authorize(ctx, *conversation.ProjectID, userID, models.ActionView)
	if err != nil {
		return "", err
	}
	board, err := s.projects.Board(ctx, project)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Current board for project %q:\n", project.Name)
	for _, group := range board.Groups {
		fmt.Fprintf(&b, "- %s (%d tasks)\n", group.Name, len(group.Tasks))
		for _, task := range group.Tasks {
			status := "open"
			if task.Complete {
				status = "done"
			}
			fmt.Fprintf(&b, "  - %s [%s]\n", task.Name, status)
		}
	}
	return b.String(), nil
}

// complete calls the OpenAI-compatible chat completions endpoint. With no
// provider configured it answers locally so the feature still works offline.
func (s *AssistantService) complete(ctx context.Context, history []models.AssistantMessage, boardContext string) (string, error) {
	if s.baseURL == "" {
		return localReply(history), nil
	}

	systemPrompt := assistantSystemPrompt
	if boardContext != "" {
		systemPrompt += "\n\n" + boardContext
	}

	messages := []map[string]string{{"role": models.MessageRoleSystem, "content": systemPrompt}}
	// Keep the request bounded: only the most recent turns go upstream.
	start := 0
	if len(history) > 20 {
		start = len(history) - 20
	}
	for _, m := range history[start:] {
		messages = append(messages, map[string]string{"role": m.Role, "content": m.Content})
	}

	payload, err := json.Marshal(map[string]interface{}{
		"model":    s.model,
		"messages": messages,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read completion response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion request returned status %d", resp.StatusCode)
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion response contained no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// localReply is the offline fallback when no provider is configured.
func localReply(history []models.AssistantMessage) string {
	last := ""
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == models.MessageRoleUser {
			last = history[i].Content
			break
		}
	}
	return fmt.Sprintf("The assistant backend is not configured, so I can't generate a full answer to %q. "+
		"A good next step is usually to break the work into small tasks and order them in your To Do column.", truncate(last, 120))
}

func (s *AssistantService) limiter(userID string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[userID]
	if !ok {
		// Sustained 1 request per 3s with small bursts.
		l = rate.NewLimiter(rate.Every(3*time.Second), 5)
		s.limiters[userID] = l
	}
	return l
}

func conversationTitle(message string) string {
	return truncate(strings.TrimSpace(message), 60)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Cut on runes so a multi-byte character is never split.
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
