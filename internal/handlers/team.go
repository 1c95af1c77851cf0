package handlers

import (
	"strings"

	"momentum/internal/apperr"
	"momentum/internal/models"
	"momentum/internal/services"

	"github.com/gofiber/fiber/v2"
)

// TeamHandler handles team CRUD and team membership.
type TeamHandler struct {
	teamService *services.TeamService
}

// NewTeamHandler creates a new team handler
func NewTeamHandler(teamService *services.TeamService) *TeamHandler {
	return &TeamHandler{teamService: teamService}
}

// Create creates a team
// POST /api/teams
func (h *TeamHandler) Create(c *fiber.Ctx) error {
	var req models.CreateTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return apperr.Validation("team name is required", apperr.FieldError{Field: "name", Message: "cannot be empty"})
	}

	team, err := h.teamService.Create(c.Context(), userID(c), &req)
	if err != nil {
		return err
	}
	return Created(c, team)
}

// List returns the user's teams
// GET /api/teams
func (h *TeamHandler) List(c *fiber.Ctx) error {
	teams, err := h.teamService.List(c.Context(), userID(c))
	if err != nil {
		return err
	}
	return OK(c, teams)
}

// Get returns one team
// GET /api/teams/:id
func (h *TeamHandler) Get(c *fiber.Ctx) error {
	team, err := h.authorize(c, models.ActionView)
	if err != nil {
		return err
	}
	return OK(c, team)
}

// Update renames a team
// PATCH /api/teams/:id
func (h *TeamHandler) Update(c *fiber.Ctx) error {
	var req models.UpdateTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return apperr.Validation("team name cannot be empty", apperr.FieldError{Field: "name", Message: "cannot be empty"})
	}

	team, err := h.authorize(c, models.ActionManageMembers)
	if err != nil {
		return err
	}
	updated, err := h.teamService.Update(c.Context(), team.ID, &req)
	if err != nil {
		return err
	}
	return OK(c, updated)
}

// Delete removes a team, detaching its projects
// DELETE /api/teams/:id
func (h *TeamHandler) Delete(c *fiber.Ctx) error {
	team, err := h.authorize(c, models.ActionDeleteProject)
	if err != nil {
		return err
	}
	if err := h.teamService.Delete(c.Context(), team.ID); err != nil {
		return err
	}
	return Message(c, "team deleted")
}

// AddMember adds a member to the team
// POST /api/teams/:id/members
func (h *TeamHandler) AddMember(c *fiber.Ctx) error {
	var req models.AddMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	team, err := h.authorize(c, models.ActionManageMembers)
	if err != nil {
		return err
	}
	updated, err := h.teamService.AddMember(c.Context(), team, userID(c), &req)
	if err != nil {
		return err
	}
	return Created(c, updated)
}

// UpdateMember changes a member's role
// PATCH /api/teams/:id/members/:userID
func (h *TeamHandler) UpdateMember(c *fiber.Ctx) error {
	var req models.UpdateMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	team, err := h.authorize(c, models.ActionManageMembers)
	if err != nil {
		return err
	}
	updated, err := h.teamService.UpdateMemberRole(c.Context(), team, c.Params("userID"), req.Role)
	if err != nil {
		return err
	}
	return OK(c, updated)
}

// RemoveMember removes a member from the team
// DELETE /api/teams/:id/members/:userID
func (h *TeamHandler) RemoveMember(c *fiber.Ctx) error {
	memberID := c.Params("userID")

	action := models.ActionManageMembers
	if memberID == userID(c) {
		action = models.ActionView
	}
	team, err := h.authorize(c, action)
	if err != nil {
		return err
	}
	updated, err := h.teamService.RemoveMember(c.Context(), team, memberID)
	if err != nil {
		return err
	}
	return OK(c, updated)
}

func (h *TeamHandler) authorize(c *fiber.Ctx, action models.Action) (*models.Team, error) {
	teamID, err := objectIDParam(c, "id")
	if err != nil {
		return nil, err
	}
	return h.teamService.Authorize(c.Context(), teamID, userID(c), action)
}
