package handlers

import (
	"strings"

	"momentum/internal/apperr"
	"momentum/internal/models"
	"momentum/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskHandler handles board cards.
type TaskHandler struct {
	projectService   *services.ProjectService
	taskGroupService *services.TaskGroupService
	taskService      *services.TaskService
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(projectService *services.ProjectService, taskGroupService *services.TaskGroupService, taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		projectService:   projectService,
		taskGroupService: taskGroupService,
		taskService:      taskService,
	}
}

// Create adds a task to a group
// POST /api/tasks
func (h *TaskHandler) Create(c *fiber.Ctx) error {
	var req models.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return apperr.Validation("task name is required", apperr.FieldError{Field: "name", Message: "cannot be empty"})
	}
	groupID, err := primitive.ObjectIDFromHex(req.TaskGroupID)
	if err != nil {
		return apperr.Validation("invalid task group id", apperr.FieldError{Field: "taskGroupId", Message: "must be a valid id"})
	}

	group, err := h.taskGroupService.Get(c.Context(), groupID)
	if err != nil {
		return err
	}
	project, err := h.projectService.Authorize(c.Context(), group.ProjectID, userID(c), models.ActionEditTasks)
	if err != nil {
		return err
	}

	task, err := h.taskService.Create(c.Context(), project, group, userID(c), &req)
	if err != nil {
		return err
	}
	return Created(c, task)
}

// Get returns one task
// GET /api/tasks/:id
func (h *TaskHandler) Get(c *fiber.Ctx) error {
	_, task, err := h.authorize(c, models.ActionView)
	if err != nil {
		return err
	}
	return OK(c, task)
}

// Update edits fields and/or moves the task
// PATCH /api/tasks/:id
func (h *TaskHandler) Update(c *fiber.Ctx) error {
	var req models.UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return apperr.Validation("task name cannot be empty", apperr.FieldError{Field: "name", Message: "cannot be empty"})
	}

	project, task, err := h.authorize(c, models.ActionEditTasks)
	if err != nil {
		return err
	}
	updated, err := h.taskService.Update(c.Context(), project, task, userID(c), &req)
	if err != nil {
		return err
	}
	return OK(c, updated)
}

// Delete removes a task
// DELETE /api/tasks/:id
func (h *TaskHandler) Delete(c *fiber.Ctx) error {
	project, task, err := h.authorize(c, models.ActionEditTasks)
	if err != nil {
		return err
	}
	if err := h.taskService.Delete(c.Context(), project, task, userID(c)); err != nil {
		return err
	}
	return Message(c, "task deleted")
}

// PreviewDescription renders a Markdown description to HTML
// POST /api/tasks/preview
func (h *TaskHandler) PreviewDescription(c *fiber.Ctx) error {
	var req struct {
		Markdown string `json:"markdown"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	html, err := services.RenderMarkdown(req.Markdown)
	if err != nil {
		return apperr.Internal(err)
	}
	return OK(c, fiber.Map{"html": html})
}

// authorize resolves the task from the route, then checks the action against
// the project that owns its group.
func (h *TaskHandler) authorize(c *fiber.Ctx, action models.Action) (*models.Project, *models.Task, error) {
	taskID, err := objectIDParam(c, "id")
	if err != nil {
		return nil, nil, err
	}
	task, err := h.taskService.Get(c.Context(), taskID)
	if err != nil {
		return nil, nil, err
	}
	group, err := h.taskGroupService.Get(c.Context(), task.TaskGroupID)
	if err != nil {
		return nil, nil, err
	}
	project, err := h.projectService.Authorize(c.Context(), group.ProjectID, userID(c), action)
	if err != nil {
		return nil, nil, err
	}
	return project, task, nil
}
