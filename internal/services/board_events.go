package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"momentum/internal/models"

	"github.com/google/uuid"
)

const boardEventsChannel = "momentum:board_events"

// BoardEventService fans board change events out to local WebSocket
// subscribers and, when Redis is configured, bridges them across instances.
type BoardEventService struct {
	instanceID string
	redis      *RedisService
	metrics    *Metrics

	mu          sync.RWMutex
	subscribers map[string]map[string]chan models.BoardEvent // projectID -> subID -> chan
}

// NewBoardEventService creates the event hub. redisService may be nil for
// single-instance deployments.
func NewBoardEventService(redisService *RedisService, metrics *Metrics) *BoardEventService {
	return &BoardEventService{
		instanceID:  uuid.New().String(),
		redis:       redisService,
		metrics:     metrics,
		subscribers: make(map[string]map[string]chan models.BoardEvent),
	}
}

// InstanceID returns the identifier this instance stamps on published events.
func (s *BoardEventService) InstanceID() string {
	return s.instanceID
}

// Subscribe registers a listener for one project's events. The returned
// cancel func must be called when the listener goes away.
func (s *BoardEventService) Subscribe(projectID string) (<-chan models.BoardEvent, func()) {
	subID := uuid.New().String()
	ch := make(chan models.BoardEvent, 32)

	s.mu.Lock()
	if s.subscribers[projectID] == nil {
		s.subscribers[projectID] = make(map[string]chan models.BoardEvent)
	}
	s.subscribers[projectID][subID] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if subs, ok := s.subscribers[projectID]; ok {
			if c, ok := subs[subID]; ok {
				delete(subs, subID)
				close(c)
			}
			if len(subs) == 0 {
				delete(s.subscribers, projectID)
			}
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// Publish stamps the event and delivers it locally plus over Redis.
func (s *BoardEventService) Publish(ctx context.Context, event models.BoardEvent) {
	event.InstanceID = s.instanceID
	if event.At.IsZero() {
		event.At = time.Now()
	}

	if s.metrics != nil {
		s.metrics.BoardEvents.WithLabelValues(event.Type).Inc()
	}

	s.deliverLocal(event)

	if s.redis == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("⚠️ Failed to marshal board event: %v", err)
		return
	}
	if err := s.redis.Publish(ctx, boardEventsChannel, payload); err != nil {
		log.Printf("⚠️ Failed to publish board event to Redis: %v", err)
	}
}

func (s *BoardEventService) deliverLocal(event models.BoardEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subscribers[event.ProjectID] {
		select {
		case ch <- event:
		default:
			// Slow consumer: drop rather than block the publisher.
		}
	}
}

// StartBridge consumes the Redis channel and re-delivers events that
// originated on other instances. Blocks until ctx is cancelled.
func (s *BoardEventService) StartBridge(ctx context.Context) {
	if s.redis == nil {
		return
	}

	sub := s.redis.Subscribe(ctx, boardEventsChannel)
	defer sub.Close()

	log.Printf("📡 Board event bridge started (instance %s)", s.instanceID)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			var event models.BoardEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Printf("⚠️ Failed to decode board event: %v", err)
				continue
			}
			// Our own events were already delivered locally on publish.
			if event.InstanceID == s.instanceID {
				continue
			}
			s.deliverLocal(event)
		}
	}
}
