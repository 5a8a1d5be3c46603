package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/skillmatrix-api/internal/models"
	"github.com/noah-isme/skillmatrix-api/internal/service"
	"github.com/noah-isme/skillmatrix-api/pkg/response"
)

type assignmentService interface {
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.TrainingAssignmentDetail, *models.Pagination, error)
	Create(ctx context.Context, req service.CreateAssignmentRequest, actor *models.Actor) (*models.TrainingAssignment, error)
	UpdateStatus(ctx context.Context, id string, req service.UpdateAssignmentStatusRequest, actor *models.Actor) (*models.TrainingAssignment, error)
	Remind(ctx context.Context, id string, actor *models.Actor) (*models.TrainingAssignment, error)
}

// AssignmentHandler manages planned training.
type AssignmentHandler struct {
	service assignmentService
}

// NewAssignmentHandler constructs the handler.
func NewAssignmentHandler(svc assignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: svc}
}

// List godoc
// @Summary List training assignments
// @Tags Assignments
// @Produce json
// @Param employee_id query string false "Employee ID"
// @Param skill_id query string false "Skill ID"
// @Param status query string false "PENDING, IN_PROGRESS or COMPLETED"
// @Success 200 {object} response.Envelope
// @Router /assignments [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	filter := models.AssignmentFilter{
		EmployeeID: c.Query("employee_id"),
		SkillID:    c.Query("skill_id"),
		Status:     models.AssignmentStatus(strings.ToUpper(c.Query("status"))),
	}
	filter.Page, filter.PageSize = pageQuery(c)
	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Page(c, items, pagination)
}

// Create godoc
// @Summary Assign training
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body service.CreateAssignmentRequest true "Assignment"
// @Success 201 {object} response.Envelope
// @Router /assignments [post]
func (h *AssignmentHandler) Create(c *gin.Context) {
	var req service.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "assignment"))
		return
	}
	assignment, err := h.service.Create(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// UpdateStatus godoc
// @Summary Change assignment status
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body service.UpdateAssignmentStatusRequest true "Status"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/status [patch]
func (h *AssignmentHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateAssignmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "status"))
		return
	}
	req.Status = strings.ToUpper(strings.TrimSpace(req.Status))
	assignment, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, assignment)
}

// Remind godoc
// @Summary Record a reminder for an assignment
// @Tags Assignments
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/remind [post]
func (h *AssignmentHandler) Remind(c *gin.Context) {
	assignment, err := h.service.Remind(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, assignment)
}
