package handlers

import (
	"strings"

	"momentum/internal/apperr"
	"momentum/internal/models"
	"momentum/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskGroupHandler handles board columns.
type TaskGroupHandler struct {
	projectService   *services.ProjectService
	taskGroupService *services.TaskGroupService
}

// NewTaskGroupHandler creates a new task group handler
func NewTaskGroupHandler(projectService *services.ProjectService, taskGroupService *services.TaskGroupService) *TaskGroupHandler {
	return &TaskGroupHandler{
		projectService:   projectService,
		taskGroupService: taskGroupService,
	}
}

// Create adds a column to a board
// POST /api/task-groups
func (h *TaskGroupHandler) Create(c *fiber.Ctx) error {
	var req models.CreateTaskGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return apperr.Validation("task group name is required", apperr.FieldError{Field: "name", Message: "cannot be empty"})
	}
	projectID, err := primitive.ObjectIDFromHex(req.ProjectID)
	if err != nil {
		return apperr.Validation("invalid project id", apperr.FieldError{Field: "projectId", Message: "must be a valid id"})
	}

	project, err := h.projectService.Authorize(c.Context(), projectID, userID(c), models.ActionEditTasks)
	if err != nil {
		return err
	}
	group, err := h.taskGroupService.Create(c.Context(), project, userID(c), &req)
	if err != nil {
		return err
	}
	return Created(c, group)
}

// Update renames and/or repositions a column
// PATCH /api/task-groups/:id
func (h *TaskGroupHandler) Update(c *fiber.Ctx) error {
	var req models.UpdateTaskGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return apperr.Validation("task group name cannot be empty", apperr.FieldError{Field: "name", Message: "cannot be empty"})
	}

	project, group, err := h.authorize(c, models.ActionEditTasks)
	if err != nil {
		return err
	}
	updated, err := h.taskGroupService.Update(c.Context(), project, group, userID(c), &req)
	if err != nil {
		return err
	}
	return OK(c, updated)
}

// Delete removes a column and all of its tasks
// DELETE /api/task-groups/:id
func (h *TaskGroupHandler) Delete(c *fiber.Ctx) error {
	project, group, err := h.authorize(c, models.ActionDeleteGroup)
	if err != nil {
		return err
	}
	if err := h.taskGroupService.Delete(c.Context(), project, group, userID(c)); err != nil {
		return err
	}
	return Message(c, "task group deleted")
}

// authorize resolves the group from the route, then checks the action against
// the owning project.
func (h *TaskGroupHandler) authorize(c *fiber.Ctx, action models.Action) (*models.Project, *models.TaskGroup, error) {
	groupID, err := objectIDParam(c, "id")
	if err != nil {
		return nil, nil, err
	}
	group, err := h.taskGroupService.Get(c.Context(), groupID)
	if err != nil {
		return nil, nil, err
	}
	project, err := h.projectService.Authorize(c.Context(), group.ProjectID, userID(c), action)
	if err != nil {
		return nil, nil, err
	}
	return project, group, nil
}
