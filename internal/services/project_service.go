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
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProjectService handles project CRUD, membership and board assembly.
type ProjectService struct {
	db         *database.MongoDB
	projects   *mongo.Collection
	taskGroups *mongo.Collection
	tasks      *mongo.Collection
	teams      *mongo.Collection
	cache      *projectCache
}

// NewProjectService creates a new project service
func NewProjectService(db *database.MongoDB) *ProjectService {
	return &ProjectService{
		db:         db,
		projects:   db.Collection(database.CollectionProjects),
		taskGroups: db.Collection(database.CollectionTaskGroups),
		tasks:      db.Collection(database.CollectionTasks),
		teams:      db.Collection(database.CollectionTeams),
		cache:      newProjectCache(),
	}
}

// Create inserts a new project owned by ownerID and seeds its default
// task groups from the given column names.
func (s *ProjectService) Create(ctx context.Context, ownerID string, req *models.CreateProjectRequest, columns []string) (*models.Project, error) {
	now := time.Now()
	project := &models.Project{
		ID:        primitive.NewObjectID(),
		Name:      req.Name,
		OwnerID:   ownerID,
		Members:   []models.ProjectMember{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if req.TeamID != "" {
		teamID, err := primitive.ObjectIDFromHex(req.TeamID)
		if err != nil {
			return nil, apperr.Validation("invalid team id", apperr.FieldError{Field: "teamId", Message: "must be a valid id"})
		}
		var team models.Team
		if err := s.teams.FindOne(ctx, bson.M{"_id": teamID}).Decode(&team); err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, apperr.NotFound("team")
			}
			return nil, fmt.Errorf("failed to load team: %w", err)
		}
		if !team.HasMember(ownerID) {
			return nil, apperr.Forbidden("you are not a member of this team")
		}
		project.TeamID = &teamID
	}

	groups := make([]interface{}, 0, len(columns))
	for i, name := range columns {
		groups = append(groups, &models.TaskGroup{
			ID:        primitive.NewObjectID(),
			ProjectID: project.ID,
			Name:      name,
			Position:  i * ordering.Gap,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	err := s.db.WithTransaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := s.projects.InsertOne(sc, project); err != nil {
			return fmt.Errorf("failed to create project: %w", err)
		}
		if len(groups) > 0 {
			if _, err := s.taskGroups.InsertMany(sc, groups); err != nil {
				return fmt.Errorf("failed to create default task groups: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Project created: %s (%s)", project.Name, project.ID.Hex())
	return project, nil
}

// List returns every project the user owns or is a member of.
func (s *ProjectService) List(ctx context.Context, userID string) ([]models.Project, error) {
	filter := bson.M{"$or": []bson.M{
		{"ownerId": userID},
		{"members.userId": userID},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cursor, err := s.projects.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer cursor.Close(ctx)

	projects := []models.Project{}
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, fmt.Errorf("failed to decode projects: %w", err)
	}
	return projects, nil
}

// Get loads a project by id, serving from the short-lived cache when possible.
func (s *ProjectService) Get(ctx context.Context, projectID primitive.ObjectID) (*models.Project, error) {
	if cached, ok := s.cache.Get(projectID.Hex()); ok {
		return cached, nil
	}

	var project models.Project
	err := s.projects.FindOne(ctx, bson.M{"_id": projectID}).Decode(&project)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.NotFound("project")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	s.cache.Set(&project)
	return &project, nil
}

// Authorize loads the project and verifies the user's role allows the action.
func (s *ProjectService) Authorize(ctx context.Context, projectID primitive.ObjectID, userID string, action models.Action) (*models.Project, error) {
	project, err := s.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	role := project.MemberRole(userID)
	if role == "" {
		// Hide existence of projects the user has no access to.
		return nil, apperr.NotFound("project")
	}
	if !models.CanPerform(role, action) {
		return nil, apperr.Forbidden("your role does not allow this action")
	}
	return project, nil
}

// Update renames a project.
func (s *ProjectService) Update(ctx context.Context, projectID primitive.ObjectID, req *models.UpdateProjectRequest) (*models.Project, error) {
	updateFields := bson.M{"updatedAt": time.Now()}
	if req.Name != nil {
		updateFields["name"] = *req.Name
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var project models.Project
	err := s.projects.FindOneAndUpdate(ctx, bson.M{"_id": projectID}, bson.M{"$set": updateFields}, opts).Decode(&project)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.NotFound("project")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	s.cache.Invalidate(projectID.Hex())
	return &project, nil
}

// Delete removes the project and everything in it atomically.
func (s *ProjectService) Delete(ctx context.Context, projectID primitive.ObjectID) error {
	groupIDs, err := s.groupIDs(ctx, projectID)
	if err != nil {
		return err
	}

	err = s.db.WithTransaction(ctx, func(sc mongo.SessionContext) error {
		if len(groupIDs) > 0 {
			if _, err := s.tasks.DeleteMany(sc, bson.M{"taskGroupId": bson.M{"$in": groupIDs}}); err != nil {
				return fmt.Errorf("failed to delete tasks: %w", err)
			}
		}
		if _, err := s.taskGroups.DeleteMany(sc, bson.M{"projectId": projectID}); err != nil {
			return fmt.Errorf("failed to delete task groups: %w", err)
		}
		result, err := s.projects.DeleteOne(sc, bson.M{"_id": projectID})
		if err != nil {
			return fmt.Errorf("failed to delete project: %w", err)
		}
		if result.DeletedCount == 0 {
			return apperr.NotFound("project")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(projectID.Hex())
	log.Printf("🗑️ Project deleted: %s", projectID.Hex())
	return nil
}

// AddMember adds a user to the project with the given role.
func (s *ProjectService) AddMember(ctx context.Context, project *models.Project, addedBy string, req *models.AddMemberRequest) (*models.Project, error) {
	if _, err := primitive.ObjectIDFromHex(req.UserID); err != nil {
		return nil, apperr.Validation("invalid user id", apperr.FieldError{Field: "userId", Message: "must be a valid id"})
	}
	if !models.ValidRole(req.Role) || req.Role == models.RoleOwner {
		return nil, apperr.Validation("invalid role", apperr.FieldError{Field: "role", Message: "must be admin, member or observer"})
	}
	if project.HasMember(req.UserID) {
		return nil, apperr.Conflict("user is already a member of this project")
	}

	member := models.ProjectMember{
		UserID:  req.UserID,
		Role:    req.Role,
		AddedAt: time.Now(),
		AddedBy: addedBy,
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Project
	err := s.projects.FindOneAndUpdate(ctx,
		bson.M{"_id": project.ID},
		bson.M{"$push": bson.M{"members": member}, "$set": bson.M{"updatedAt": time.Now()}},
		opts,
	).Decode(&updated)
	if err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	s.cache.Invalidate(project.ID.Hex())
	return &updated, nil
}

// UpdateMemberRole changes an existing member's role.
func (s *ProjectService) UpdateMemberRole(ctx context.Context, project *models.Project, memberID, role string) (*models.Project, error) {
	if !models.ValidRole(role) || role == models.RoleOwner {
		return nil, apperr.Validation("invalid role", apperr.FieldError{Field: "role", Message: "must be admin, member or observer"})
	}
	if project.IsOwner(memberID) {
		return nil, apperr.Conflict("the project owner's role cannot be changed")
	}
	if !project.HasMember(memberID) {
		return nil, apperr.NotFound("member")
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Project
	err := s.projects.FindOneAndUpdate(ctx,
		bson.M{"_id": project.ID, "members.userId": memberID},
		bson.M{"$set": bson.M{"members.$.role": role, "updatedAt": time.Now()}},
		opts,
	).Decode(&updated)
	if err != nil {
		return nil, fmt.Errorf("failed to update member role: %w", err)
	}

	s.cache.Invalidate(project.ID.Hex())
	return &updated, nil
}

// RemoveMember removes a member from the project. The owner cannot be removed.
func (s *ProjectService) RemoveMember(ctx context.Context, project *models.Project, memberID string) (*models.Project, error) {
	if project.IsOwner(memberID) {
		return nil, apperr.Conflict("the project owner cannot be removed")
	}
	if !project.HasMember(memberID) {
		return nil, apperr.NotFound("member")
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Project
	err := s.projects.FindOneAndUpdate(ctx,
		bson.M{"_id": project.ID},
		bson.M{"$pull": bson.M{"members": bson.M{"userId": memberID}}, "$set": bson.M{"updatedAt": time.Now()}},
		opts,
	).Decode(&updated)
	if err != nil {
		return nil, fmt.Errorf("failed to remove member: %w", err)
	}

	s.cache.Invalidate(project.ID.Hex())
	return &updated, nil
}

// Board assembles the full board: groups and their tasks in display order.
func (s *ProjectService) Board(ctx context.Context, project *models.Project) (*models.Board, error) {
	groups, err := s.Groups(ctx, project.ID)
	if err != nil {
		return nil, err
	}

	board := &models.Board{
		Project: *project,
		Groups:  make([]models.BoardGroup, 0, len(groups)),
	}
	if len(groups) == 0 {
		return board, nil
	}

	groupIDs := make([]primitive.ObjectID, 0, len(groups))
	for _, g := range groups {
		groupIDs = append(groupIDs, g.ID)
	}

	opts := options.Find().SetSort(siblingSort)
	cursor, err := s.tasks.Find(ctx, bson.M{"taskGroupId": bson.M{"$in": groupIDs}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	defer cursor.Close(ctx)

	tasksByGroup := make(map[primitive.ObjectID][]models.Task)
	for cursor.Next(ctx) {
		var task models.Task
		if err := cursor.Decode(&task); err != nil {
			return nil, fmt.Errorf("failed to decode task: %w", err)
		}
		tasksByGroup[task.TaskGroupID] = append(tasksByGroup[task.TaskGroupID], task)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tasks: %w", err)
	}

	for _, g := range groups {
		tasks := tasksByGroup[g.ID]
		if tasks == nil {
			tasks = []models.Task{}
		}
		board.Groups = append(board.Groups, models.BoardGroup{TaskGroup: g, Tasks: tasks})
	}
	return board, nil
}

// Groups returns the project's task groups in display order.
func (s *ProjectService) Groups(ctx context.Context, projectID primitive.ObjectID) ([]models.TaskGroup, error) {
	opts := options.Find().SetSort(siblingSort)
	cursor, err := s.taskGroups.Find(ctx, bson.M{"projectId": projectID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load task groups: %w", err)
	}
	defer cursor.Close(ctx)

	groups := []models.TaskGroup{}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("failed to decode task groups: %w", err)
	}
	return groups, nil
}

// InvalidateCache drops the cached copy of a project after external mutation.
func (s *ProjectService) InvalidateCache(projectID primitive.ObjectID) {
	s.cache.Invalidate(projectID.Hex())
}

func (s *ProjectService) groupIDs(ctx context.Context, projectID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cursor, err := s.taskGroups.Find(ctx, bson.M{"projectId": projectID},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to load task group ids: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode task group ids: %w", err)
	}
	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

// siblingSort is the canonical display order: position, then creation time,
// then id as the final tie break.
var siblingSort = bson.D{
	{Key: "position", Value: 1},
	{Key: "createdAt", Value: 1},
	{Key: "_id", Value: 1},
}
