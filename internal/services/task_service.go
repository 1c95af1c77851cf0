package services

import (
	"context"
	"fmt"
	"time"

	"momentum/internal/apperr"
	"momentum/internal/database"
	"momentum/internal/models"
	"momentum/internal/ordering"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// TaskService handles board cards: create, edit, move, complete, delete.
type TaskService struct {
	db      *database.MongoDB
	tasks   *mongo.Collection
	groups  *mongo.Collection
	events  *BoardEventService
	metrics *Metrics
}

// NewTaskService creates a new task service
func NewTaskService(db *database.MongoDB, events *BoardEventService, metrics *Metrics) *TaskService {
	return &TaskService{
		db:      db,
		tasks:   db.Collection(database.CollectionTasks),
		groups:  db.Collection(database.CollectionTaskGroups),
		events:  events,
		metrics: metrics,
	}
}

// Get loads a task by id.
func (s *TaskService) Get(ctx context.Context, taskID primitive.ObjectID) (*models.Task, error) {
	var task models.Task
	err := s.tasks.FindOne(ctx, bson.M{"_id": taskID}).Decode(&task)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.NotFound("task")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	return &task, nil
}

// Create adds a task to a group. req.Position, when set, is the target index
// within the group; omitted appends at the end.
func (s *TaskService) Create(ctx context.Context, project *models.Project, group *models.TaskGroup, actorID string, req *models.CreateTaskRequest) (*models.Task, error) {
	now := time.Now()
	task := &models.Task{
		ID:          primitive.NewObjectID(),
		TaskGroupID: group.ID,
		Name:        req.Name,
		Description: req.Description,
		DueDate:     req.DueDate,
		HasTime:     req.HasTime,
		CreatedBy:   actorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if req.Position == nil {
		pos, err := nextAppendPosition(ctx, s.tasks, "taskGroupId", group.ID)
		if err != nil {
			return nil, err
		}
		task.Position = pos
		if _, err := s.tasks.InsertOne(ctx, task); err != nil {
			return nil, fmt.Errorf("failed to create task: %w", err)
		}
	} else {
		siblings, err := loadSiblings(ctx, s.tasks, "taskGroupId", group.ID)
		if err != nil {
			return nil, err
		}
		plan := ordering.PlanMove(siblings, task.ID.Hex(), *req.Position)
		task.Position = positionOf(plan, task.ID.Hex())
		if err := s.insertWithPlan(ctx, task, plan); err != nil {
			return nil, err
		}
	}

	if s.metrics != nil {
		s.metrics.TasksCreated.Inc()
	}
	s.publish(ctx, models.EventTaskCreated, project.ID.Hex(), actorID, task)
	return task, nil
}

// Update applies field edits and/or a move. Setting TaskGroupID moves the
// task across groups; Position is the target index within the destination
// group's siblings.
func (s *TaskService) Update(ctx context.Context, project *models.Project, task *models.Task, actorID string, req *models.UpdateTaskRequest) (*models.Task, error) {
	set := bson.M{"updatedAt": time.Now()}
	unset := bson.M{}

	if req.Name != nil {
		set["name"] = *req.Name
	}
	if req.Description != nil {
		set["description"] = *req.Description
	}
	if req.Priority != nil {
		if !models.ValidPriority(*req.Priority) {
			return nil, apperr.Validation("invalid priority", apperr.FieldError{Field: "priority", Message: "must be low, medium or high"})
		}
		if *req.Priority == "" {
			unset["priority"] = ""
		} else {
			set["priority"] = *req.Priority
		}
	}
	if req.Complete != nil {
		set["complete"] = *req.Complete
		if *req.Complete {
			set["completedAt"] = time.Now()
		} else {
			unset["completedAt"] = ""
		}
	}
	if req.ClearDue {
		unset["dueDate"] = ""
		set["hasTime"] = false
		set["dueSoon"] = false
	} else if req.DueDate != nil {
		set["dueDate"] = *req.DueDate
		// A changed due date restarts the reminder cycle.
		set["dueSoon"] = false
	}
	if req.HasTime != nil && !req.ClearDue {
		set["hasTime"] = *req.HasTime
	}
	if req.Assigned != nil {
		for _, userID := range *req.Assigned {
			if !project.HasMember(userID) {
				return nil, apperr.Validation("assignee is not a project member", apperr.FieldError{Field: "assigned", Message: userID + " is not a member of this project"})
			}
		}
		set["assigned"] = *req.Assigned
	}
	if req.Labels != nil {
		set["labels"] = *req.Labels
	}

	// Resolve the move target before writing anything: a rejected move must
	// not leave the field edits behind.
	wantsMove := req.TaskGroupID != nil || req.Position != nil
	targetGroupID := task.TaskGroupID
	if wantsMove {
		var err error
		targetGroupID, err = s.moveTarget(ctx, project, task, req)
		if err != nil {
			return nil, err
		}
		wantsMove = moveRequested(task, targetGroupID, req)
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	if _, err := s.tasks.UpdateOne(ctx, bson.M{"_id": task.ID}, update); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	moved := false
	if wantsMove {
		if err := s.move(ctx, task, targetGroupID, req); err != nil {
			return nil, err
		}
		moved = true
	}

	updated, err := s.Get(ctx, task.ID)
	if err != nil {
		return nil, err
	}

	eventType := models.EventTaskUpdated
	if moved {
		eventType = models.EventTaskMoved
	}
	s.publish(ctx, eventType, project.ID.Hex(), actorID, updated)
	return updated, nil
}

// moveTarget resolves and validates the destination group of a move request.
func (s *TaskService) moveTarget(ctx context.Context, project *models.Project, task *models.Task, req *models.UpdateTaskRequest) (primitive.ObjectID, error) {
	targetGroupID := task.TaskGroupID
	if req.TaskGroupID != nil {
		id, err := primitive.ObjectIDFromHex(*req.TaskGroupID)
		if err != nil {
			return primitive.NilObjectID, apperr.Validation("invalid task group id", apperr.FieldError{Field: "taskGroupId", Message: "must be a valid id"})
		}
		targetGroupID = id
	}

	if targetGroupID != task.TaskGroupID {
		// The destination must be a column of the same board.
		var group models.TaskGroup
		err := s.groups.FindOne(ctx, bson.M{"_id": targetGroupID}).Decode(&group)
		if err == mongo.ErrNoDocuments {
			return primitive.NilObjectID, apperr.NotFound("task group")
		}
		if err != nil {
			return primitive.NilObjectID, fmt.Errorf("failed to load target group: %w", err)
		}
		if group.ProjectID != project.ID {
			return primitive.NilObjectID, apperr.Validation("task group belongs to another project", apperr.FieldError{Field: "taskGroupId", Message: "must belong to the same project"})
		}
	}
	return targetGroupID, nil
}

// moveRequested reports whether the request actually changes the task's
// placement. Naming the task's current group without an index is not a move.
func moveRequested(task *models.Task, targetGroupID primitive.ObjectID, req *models.UpdateTaskRequest) bool {
	return targetGroupID != task.TaskGroupID || req.Position != nil
}

// move repositions a task within targetGroupID, which moveTarget has already
// validated.
func (s *TaskService) move(ctx context.Context, task *models.Task, targetGroupID primitive.ObjectID, req *models.UpdateTaskRequest) error {
	siblings, err := loadSiblings(ctx, s.tasks, "taskGroupId", targetGroupID)
	if err != nil {
		return err
	}

	newIndex := len(siblings) // cross-group move without an index appends
	if req.Position != nil {
		newIndex = *req.Position
	}

	plan := ordering.PlanMove(siblings, task.ID.Hex(), newIndex)
	if plan.Renumber && s.metrics != nil {
		s.metrics.PositionRenumbers.WithLabelValues("task").Inc()
	}

	var movedSet bson.M
	if targetGroupID != task.TaskGroupID {
		movedSet = bson.M{"taskGroupId": targetGroupID}
	}
	if err := applyMovePlan(ctx, s.db, s.tasks, plan, task.ID, movedSet); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.TaskMoves.Inc()
	}
	return nil
}

// Delete removes a task. Sibling keys are left untouched.
func (s *TaskService) Delete(ctx context.Context, project *models.Project, task *models.Task, actorID string) error {
	result, err := s.tasks.DeleteOne(ctx, bson.M{"_id": task.ID})
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if result.DeletedCount == 0 {
		return apperr.NotFound("task")
	}
	s.publish(ctx, models.EventTaskDeleted, project.ID.Hex(), actorID, bson.M{"id": task.ID.Hex()})
	return nil
}

// MarkDueSoon flags incomplete tasks whose due date falls within the window.
// Called by the hourly reminder sweep; returns how many tasks were flagged.
func (s *TaskService) MarkDueSoon(ctx context.Context, window time.Duration) (int64, error) {
	now := time.Now()
	result, err := s.tasks.UpdateMany(ctx,
		bson.M{
			"complete": false,
			"dueSoon":  false,
			"dueDate":  bson.M{"$gte": now, "$lte": now.Add(window)},
		},
		bson.M{"$set": bson.M{"dueSoon": true}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to flag due-soon tasks: %w", err)
	}
	return result.ModifiedCount, nil
}

// insertWithPlan inserts a new task honoring a move plan, renumbering the
// existing siblings in the same transaction when required.
func (s *TaskService) insertWithPlan(ctx context.Context, task *models.Task, plan ordering.Plan) error {
	if !plan.Renumber {
		if _, err := s.tasks.InsertOne(ctx, task); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		return nil
	}

	if s.metrics != nil {
		s.metrics.PositionRenumbers.WithLabelValues("task").Inc()
	}
	return s.db.WithTransaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := s.tasks.InsertOne(sc, task); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		for _, w := range plan.Writes {
			if w.ID == task.ID.Hex() {
				continue
			}
			id, err := primitive.ObjectIDFromHex(w.ID)
			if err != nil {
				return fmt.Errorf("invalid sibling id %q: %w", w.ID, err)
			}
			if _, err := s.tasks.UpdateOne(sc, bson.M{"_id": id}, bson.M{"$set": bson.M{"position": w.Position}}); err != nil {
				return fmt.Errorf("failed to renumber sibling: %w", err)
			}
		}
		return nil
	})
}

func (s *TaskService) publish(ctx context.Context, eventType, projectID, actorID string, payload interface{}) {
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
