package services

import (
	"context"
	"fmt"
	"time"

	"momentum/internal/apperr"
	"momentum/internal/database"
	"momentum/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TeamService handles team CRUD and team membership.
type TeamService struct {
	teams    *mongo.Collection
	projects *mongo.Collection
}

// NewTeamService creates a new team service
func NewTeamService(db *database.MongoDB) *TeamService {
	return &TeamService{
		teams:    db.Collection(database.CollectionTeams),
		projects: db.Collection(database.CollectionProjects),
	}
}

// Create inserts a new team owned by ownerID.
func (s *TeamService) Create(ctx context.Context, ownerID string, req *models.CreateTeamRequest) (*models.Team, error) {
	now := time.Now()
	team := &models.Team{
		ID:        primitive.NewObjectID(),
		Name:      req.Name,
		OwnerID:   ownerID,
		Members:   []models.TeamMember{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.teams.InsertOne(ctx, team); err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return team, nil
}

// List returns every team the user owns or belongs to.
func (s *TeamService) List(ctx context.Context, userID string) ([]models.TeamListItem, error) {
	filter := bson.M{"$or": []bson.M{
		{"ownerId": userID},
		{"members.userId": userID},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cursor, err := s.teams.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer cursor.Close(ctx)

	teams := []models.Team{}
	if err := cursor.All(ctx, &teams); err != nil {
		return nil, fmt.Errorf("failed to decode teams: %w", err)
	}

	items := make([]models.TeamListItem, 0, len(teams))
	for _, team := range teams {
		items = append(items, models.TeamListItem{
			ID:          team.ID.Hex(),
			Name:        team.Name,
			Role:        team.MemberRole(userID),
			MemberCount: len(team.Members) + 1, // owner is implicit
		})
	}
	return items, nil
}

// Get loads a team by id.
func (s *TeamService) Get(ctx context.Context, teamID primitive.ObjectID) (*models.Team, error) {
	var team models.Team
	err := s.teams.FindOne(ctx, bson.M{"_id": teamID}).Decode(&team)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.NotFound("team")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load team: %w", err)
	}
	return &team, nil
}

// Authorize loads the team and verifies the user's role allows the action.
func (s *TeamService) Authorize(ctx context.Context, teamID primitive.ObjectID, userID string, action models.Action) (*models.Team, error) {
	team, err := s.Get(ctx, teamID)
	if err != nil {
		return nil, err
	}
	role := team.MemberRole(userID)
	if role == "" {
		return nil, apperr.NotFound("team")
	}
	if !models.CanPerform(role, action) {
		return nil, apperr.Forbidden("your role does not allow this action")
	}
	return team, nil
}

// Update renames a team.
func (s *TeamService) Update(ctx context.Context, teamID primitive.ObjectID, req *models.UpdateTeamRequest) (*models.Team, error) {
	updateFields := bson.M{"updatedAt": time.Now()}
	if req.Name != nil {
		updateFields["name"] = *req.Name
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var team models.Team
	err := s.teams.FindOneAndUpdate(ctx, bson.M{"_id": teamID}, bson.M{"$set": updateFields}, opts).Decode(&team)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.NotFound("team")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update team: %w", err)
	}
	return &team, nil
}

// Delete removes a team. Projects linked to it are detached, not deleted.
func (s *TeamService) Delete(ctx context.Context, teamID primitive.ObjectID) error {
	if _, err := s.projects.UpdateMany(ctx,
		bson.M{"teamId": teamID},
		bson.M{"$unset": bson.M{"teamId": ""}},
	); err != nil {
		return fmt.Errorf("failed to detach team projects: %w", err)
	}

	result, err := s.teams.DeleteOne(ctx, bson.M{"_id": teamID})
	if err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}
	if result.DeletedCount == 0 {
		return apperr.NotFound("team")
	}
	return nil
}

// AddMember adds a user to the team with the given role.
func (s *TeamService) AddMember(ctx context.Context, team *models.Team, addedBy string, req *models.AddMemberRequest) (*models.Team, error) {
	if _, err := primitive.ObjectIDFromHex(req.UserID); err != nil {
		return nil, apperr.Validation("invalid user id", apperr.FieldError{Field: "userId", Message: "must be a valid id"})
	}
	if !models.ValidRole(req.Role) || req.Role == models.RoleOwner {
		return nil, apperr.Validation("invalid role", apperr.FieldError{Field: "role", Message: "must be admin, member or observer"})
	}
	if team.HasMember(req.UserID) {
		return nil, apperr.Conflict("user is already a member of this team")
	}

	member := models.TeamMember{
		UserID:  req.UserID,
		Role:    req.Role,
		AddedAt: time.Now(),
		AddedBy: addedBy,
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Team
	err := s.teams.FindOneAndUpdate(ctx,
		bson.M{"_id": team.ID},
		bson.M{"$push": bson.M{"members": member}, "$set": bson.M{"updatedAt": time.Now()}},
		opts,
	).Decode(&updated)
	if err != nil {
		return nil, fmt.Errorf("failed to add team member: %w", err)
	}
	return &updated, nil
}

// UpdateMemberRole changes an existing member's role.
func (s *TeamService) UpdateMemberRole(ctx context.Context, team *models.Team, memberID, role string) (*models.Team, error) {
	if !models.ValidRole(role) || role == models.RoleOwner {
		return nil, apperr.Validation("invalid role", apperr.FieldError{Field: "role", Message: "must be admin, member or observer"})
	}
	if team.IsOwner(memberID) {
		return nil, apperr.Conflict("the team owner's role cannot be changed")
	}
	if !team.HasMember(memberID) {
		return nil, apperr.NotFound("member")
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Team
	err := s.teams.FindOneAndUpdate(ctx,
		bson.M{"_id": team.ID, "members.userId": memberID},
		bson.M{"$set": bson.M{"members.$.role": role, "updatedAt": time.Now()}},
		opts,
	).Decode(&updated)
	if err != nil {
		return nil, fmt.Errorf("failed to update team member role: %w", err)
	}
	return &updated, nil
}

// RemoveMember removes a member from the team. The owner cannot be removed.
func (s *TeamService) RemoveMember(ctx context.Context, team *models.Team, memberID string) (*models.Team, error) {
	if team.IsOwner(memberID) {
		return nil, apperr.Conflict("the team owner cannot be removed")
	}
	if !team.HasMember(memberID) {
		return nil, apperr.NotFound("member")
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Team
	err := s.teams.FindOneAndUpdate(ctx,
		bson.M{"_id": team.ID},
		bson.M{"$pull": bson.M{"members": bson.M{"userId": memberID}}, "$set": bson.M{"updatedAt": time.Now()}},
		opts,
	).Decode(&updated)
	if err != nil {
		return nil, fmt.Errorf("failed to remove team member: %w", err)
	}
	return &updated, nil
}
