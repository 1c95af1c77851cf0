package handlers

import (
	"strings"

	"momentum/internal/apperr"
	"momentum/internal/config"
	"momentum/internal/models"
	"momentum/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProjectHandler handles project CRUD, membership and board reads.
type ProjectHandler struct {
	projectService *services.ProjectService
	exportService  *services.ExportService
	templates      *config.TemplateStore
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projectService *services.ProjectService, exportService *services.ExportService, templates *config.TemplateStore) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		exportService:  exportService,
		templates:      templates,
	}
}

// Create creates a project with its default columns
// POST /api/projects
func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	var req models.CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return apperr.Validation("project name is required", apperr.FieldError{Field: "name", Message: "cannot be empty"})
	}

	columns := h.templates.Columns(c.Query("template"))
	project, err := h.projectService.Create(c.Context(), userID(c), &req, columns)
	if err != nil {
		return err
	}
	return Created(c, project)
}

// List returns the user's projects
// GET /api/projects
func (h *ProjectHandler) List(c *fiber.Ctx) error {
	projects, err := h.projectService.List(c.Context(), userID(c))
	if err != nil {
		return err
	}
	return OK(c, projects)
}

// Get returns one project (without its board)
// GET /api/projects/:id
func (h *ProjectHandler) Get(c *fiber.Ctx) error {
	project, err := h.authorize(c, models.ActionView)
	if err != nil {
		return err
	}
	return OK(c, project)
}

// Board returns the project with groups and tasks in display order
// GET /api/projects/:id/board
func (h *ProjectHandler) Board(c *fiber.Ctx) error {
	project, err := h.authorize(c, models.ActionView)
	if err != nil {
		return err
	}
	board, err := h.projectService.Board(c.Context(), project)
	if err != nil {
		return err
	}
	return OK(c, board)
}

// Update renames a project
// PATCH /api/projects/:id
func (h *ProjectHandler) Update(c *fiber.Ctx) error {
	var req models.UpdateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return apperr.Validation("project name cannot be empty", apperr.FieldError{Field: "name", Message: "cannot be empty"})
	}

	project, err := h.authorize(c, models.ActionEditTasks)
	if err != nil {
		return err
	}
	updated, err := h.projectService.Update(c.Context(), project.ID, &req)
	if err != nil {
		return err
	}
	return OK(c, updated)
}

// Delete removes a project and all of its contents
// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *fiber.Ctx) error {
	project, err := h.authorize(c, models.ActionDeleteProject)
	if err != nil {
		return err
	}
	if err := h.projectService.Delete(c.Context(), project.ID); err != nil {
		return err
	}
	return Message(c, "project deleted")
}

// AddMember adds a member to the project
// POST /api/projects/:id/members
func (h *ProjectHandler) AddMember(c *fiber.Ctx) error {
	var req models.AddMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	project, err := h.authorize(c, models.ActionManageMembers)
	if err != nil {
		return err
	}
	updated, err := h.projectService.AddMember(c.Context(), project, userID(c), &req)
	if err != nil {
		return err
	}
	return Created(c, updated)
}

// UpdateMember changes a member's role
// PATCH /api/projects/:id/members/:userID
func (h *ProjectHandler) UpdateMember(c *fiber.Ctx) error {
	var req models.UpdateMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	project, err := h.authorize(c, models.ActionManageMembers)
	if err != nil {
		return err
	}
	updated, err := h.projectService.UpdateMemberRole(c.Context(), project, c.Params("userID"), req.Role)
	if err != nil {
		return err
	}
	return OK(c, updated)
}

// RemoveMember removes a member from the project
// DELETE /api/projects/:id/members/:userID
func (h *ProjectHandler) RemoveMember(c *fiber.Ctx) error {
	memberID := c.Params("userID")

	// Any member may leave on their own; removing others needs the
	// manage-members action.
	action := models.ActionManageMembers
	if memberID == userID(c) {
		action = models.ActionView
	}
	project, err := h.authorize(c, action)
	if err != nil {
		return err
	}
	updated, err := h.projectService.RemoveMember(c.Context(), project, memberID)
	if err != nil {
		return err
	}
	return OK(c, updated)
}

// Export streams the board as an .xlsx workbook
// GET /api/projects/:id/export
func (h *ProjectHandler) Export(c *fiber.Ctx) error {
	project, err := h.authorize(c, models.ActionView)
	if err != nil {
		return err
	}
	data, filename, err := h.exportService.BoardXLSX(c.Context(), project)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(data)
}

func (h *ProjectHandler) authorize(c *fiber.Ctx, action models.Action) (*models.Project, error) {
	projectID, err := objectIDParam(c, "id")
	if err != nil {
		return nil, err
	}
	return h.projectService.Authorize(c.Context(), projectID, userID(c), action)
}

// objectIDParam parses a route parameter as a MongoDB ObjectID.
func objectIDParam(c *fiber.Ctx, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Params(name))
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("invalid "+name, apperr.FieldError{Field: name, Message: "must be a valid id"})
	}
	return id, nil
}
