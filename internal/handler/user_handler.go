package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/skillmatrix-api/internal/models"
	"github.com/noah-isme/skillmatrix-api/internal/service"
	"github.com/noah-isme/skillmatrix-api/pkg/response"
)

type userService interface {
	List(ctx context.Context, filter models.UserFilter, actor *models.Actor) ([]models.User, *models.Pagination, error)
	Create(ctx context.Context, req service.CreateUserRequest, actor *models.Actor) (*models.User, error)
	AuditLogs(ctx context.Context, filter models.AuditFilter, actor *models.Actor) ([]models.AuditLog, *models.Pagination, error)
	UploadHistory(ctx context.Context, uploadType models.UploadType, page, size int, actor *models.Actor) ([]models.UploadLog, *models.Pagination, error)
}

// UserHandler handles accounts and the administrative trails.
type UserHandler struct {
	service userService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(svc userService) *UserHandler {
	return &UserHandler{service: svc}
}

// List godoc
// @Summary List users
// @Tags Users
// @Produce json
// @Param role query string false "Role filter"
// @Param search query string false "Username search"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	filter := models.UserFilter{Search: strings.TrimSpace(c.Query("search"))}
	if role := strings.ToUpper(c.Query("role")); role != "" {
		r := models.UserRole(role)
		filter.Role = &r
	}
	filter.Page, filter.PageSize = pageQuery(c)

	users, pagination, err := h.service.List(c.Request.Context(), filter, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Page(c, users, pagination)
}

// Create godoc
// @Summary Create user
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body service.CreateUserRequest true "User payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "user"))
		return
	}
	user, err := h.service.Create(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

// AuditLogs godoc
// @Summary Audit trail
// @Tags Users
// @Produce json
// @Param action query string false "Action"
// @Param resource query string false "Resource"
// @Param user_id query string false "User ID"
// @Success 200 {object} response.Envelope
// @Router /audit-logs [get]
func (h *UserHandler) AuditLogs(c *gin.Context) {
	filter := models.AuditFilter{
		Action:   strings.ToUpper(c.Query("action")),
		Resource: c.Query("resource"),
		UserID:   c.Query("user_id"),
	}
	filter.Page, filter.PageSize = pageQuery(c)
	logs, pagination, err := h.service.AuditLogs(c.Request.Context(), filter, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Page(c, logs, pagination)
}

// Uploads godoc
// @Summary Bulk upload history
// @Tags Imports
// @Produce json
// @Param type query string false "EMPLOYEE or SKILL"
// @Success 200 {object} response.Envelope
// @Router /imports/history [get]
func (h *UserHandler) Uploads(c *gin.Context) {
	page, size := pageQuery(c)
	logs, pagination, err := h.service.UploadHistory(c.Request.Context(), models.UploadType(strings.ToUpper(c.Query("type"))), page, size, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Page(c, logs, pagination)
}
