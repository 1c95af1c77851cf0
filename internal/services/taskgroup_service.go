package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"momentum/internal/apperr"
	"momentum/internal/database"
	"momentum/internal/models"
	"momentum/internal/ordering"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// TaskGroupService handles board columns: create, rename, reposition, delete.
type TaskGroupService struct {
	db      *database.MongoDB
	groups  *mongo.Collection
	tasks   *mongo.Collection
	events  *BoardEventService
	metrics *Metrics
}

// NewTaskGroupService creates a new task group service
func NewTaskGroupService(db *database.MongoDB, events *BoardEventService, metrics *Metrics) *TaskGroupService {
	return &TaskGroupService{
		db:      db,
		groups:  db.Collection(database.CollectionTaskGroups),
		tasks:   db.Collection(database.CollectionTasks),
		events:  events,
		metrics: metrics,
	}
}

// Get loads a task group by id.
func (s *TaskGroupService) Get(ctx context.Context, groupID primitive.ObjectID) (*models.TaskGroup, error) {
	var group models.TaskGroup
	err := s.groups.FindOne(ctx, bson.M{"_id": groupID}).Decode(&group)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.NotFound("task group")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load task group: %w", err)
	}
	return &group, nil
}

// Create adds a column to the project's board. req.Position, when set, is the
// target index among the existing groups; omitted appends at the end.
func (s *TaskGroupService) Create(ctx context.Context, project *models.Project, actorID string, req *models.CreateTaskGroupRequest) (*models.TaskGroup, error) {
	now := time.Now()
	group := &models.TaskGroup{
		ID:        primitive.NewObjectID(),
		ProjectID: project.ID,
		Name:      req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if req.Position == nil {
		pos, err := nextAppendPosition(ctx, s.groups, "projectId", project.ID)
		if err != nil {
			return nil, err
		}
		group.Position = pos
		if _, err := s.groups.InsertOne(ctx, group); err != nil {
			return nil, fmt.Errorf("failed to create task group: %w", err)
		}
	} else {
		siblings, err := loadSiblings(ctx, s.groups, "projectId", project.ID)
		if err != nil {
			return nil, err
		}
		plan := ordering.PlanMove(siblings, group.ID.Hex(), *req.Position)
		group.Position = positionOf(plan, group.ID.Hex())

		if err := s.insertWithPlan(ctx, group, plan); err != nil {
			return nil, err
		}
	}

	s.publish(ctx, models.EventGroupCreated, project.ID.Hex(), actorID, group)
	return group, nil
}

// Update renames and/or repositions a group. Position is the target index
// among the project's groups.
func (s *TaskGroupService) Update(ctx context.Context, project *models.Project, group *models.TaskGroup, actorID string, req *models.UpdateTaskGroupRequest) (*models.TaskGroup, error) {
	if req.Name != nil {
		if _, err := s.groups.UpdateOne(ctx,
			bson.M{"_id": group.ID},
			bson.M{"$set": bson.M{"name": *req.Name, "updatedAt": time.Now()}},
		); err != nil {
			return nil, fmt.Errorf("failed to rename task group: %w", err)
		}
	}

	if req.Position != nil {
		siblings, err := loadSiblings(ctx, s.groups, "projectId", project.ID)
		if err != nil {
			return nil, err
		}
		plan := ordering.PlanMove(siblings, group.ID.Hex(), *req.Position)
		if plan.Renumber && s.metrics != nil {
			s.metrics.PositionRenumbers.WithLabelValues("task_group").Inc()
		}
		if err := applyMovePlan(ctx, s.db, s.groups, plan, group.ID, nil); err != nil {
			return nil, err
		}
	}

	updated, err := s.Get(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, models.EventGroupUpdated, project.ID.Hex(), actorID, updated)
	return updated, nil
}

// Delete removes a group and all its tasks in one transaction. Remaining
// groups keep their keys; the gap left behind is harmless.
func (s *TaskGroupService) Delete(ctx context.Context, project *models.Project, group *models.TaskGroup, actorID string) error {
	err := s.db.WithTransaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := s.tasks.DeleteMany(sc, bson.M{"taskGroupId": group.ID}); err != nil {
			return fmt.Errorf("failed to delete group tasks: %w", err)
		}
		result, err := s.groups.DeleteOne(sc, bson.M{"_id": group.ID})
		if err != nil {
			return fmt.Errorf("failed to delete task group: %w", err)
		}
		if result.DeletedCount == 0 {
			return apperr.NotFound("task group")
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("🗑️ Task group deleted: %s (%s)", group.Name, group.ID.Hex())
	s.publish(ctx, models.EventGroupDeleted, project.ID.Hex(), actorID, bson.M{"id": group.ID.Hex()})
	return nil
}

// insertWithPlan inserts a new group honoring a move plan. A renumber plan
// rewrites the existing siblings in the same transaction as the insert.
func (s *TaskGroupService) insertWithPlan(ctx context.Context, group *models.TaskGroup, plan ordering.Plan) error {
	if !plan.Renumber {
		if _, err := s.groups.InsertOne(ctx, group); err != nil {
			return fmt.Errorf("failed to create task group: %w", err)
		}
		return nil
	}

	if s.metrics != nil {
		s.metrics.PositionRenumbers.WithLabelValues("task_group").Inc()
	}
	return s.db.WithTransaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := s.groups.InsertOne(sc, group); err != nil {
			return fmt.Errorf("failed to create task group: %w", err)
		}
		for _, w := range plan.Writes {
			if w.ID == group.ID.Hex() {
				continue
			}
			id, err := primitive.ObjectIDFromHex(w.ID)
			if err != nil {
				return fmt.Errorf("invalid sibling id %q: %w", w.ID, err)
			}
			if _, err := s.groups.UpdateOne(sc, bson.M{"_id": id}, bson.M{"$set": bson.M{"position": w.Position}}); err != nil {
				return fmt.Errorf("failed to renumber sibling: %w", err)
			}
		}
		return nil
	})
}

func (s *TaskGroupService) publish(ctx context.Context, eventType, projectID, actorID string, payload interface{}) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, models.BoardEvent{
		Type:      eventType,
		ProjectID: projectID,
		ActorID:   actorID,
		Payload:   payload,
	})
}

// positionOf returns the planned position for the given id.
func positionOf(plan ordering.Plan, id string) int {
	for _, w := range plan.Writes {
		if w.ID == id {
			return w.Position
		}
	}
	return 0
}
