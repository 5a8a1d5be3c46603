package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/skillmatrix-api/internal/models"
	"github.com/noah-isme/skillmatrix-api/internal/service"
	"github.com/noah-isme/skillmatrix-api/pkg/response"
)

type skillService interface {
	List(ctx context.Context, filter models.SkillFilter) ([]models.Skill, *models.Pagination, error)
	Projects(ctx context.Context) ([]string, error)
	Get(ctx context.Context, code string) (*service.SkillDetail, error)
	Create(ctx context.Context, req service.CreateSkillRequest, actor *models.Actor, document *service.FileUpload) (*models.Skill, error)
	PublishRevision(ctx context.Context, code string, req service.PublishRevisionRequest, actor *models.Actor, document *service.FileUpload) (*service.PublishRevisionResult, error)
}

// SkillHandler exposes skill specifications and revisions.
type SkillHandler struct {
	service   skillService
	maxUpload int64
}

// NewSkillHandler constructs the handler.
func NewSkillHandler(svc skillService, maxUpload int64) *SkillHandler {
	return &SkillHandler{service: svc, maxUpload: maxUpload}
}

// List godoc
// @Summary List skills
// @Tags Skills
// @Produce json
// @Param q query string false "Code or name search"
// @Param project query string false "Project"
// @Success 200 {object} response.Envelope
// @Router /skills [get]
func (h *SkillHandler) List(c *gin.Context) {
	filter := models.SkillFilter{
		Query:   strings.TrimSpace(c.Query("q")),
		Project: strings.TrimSpace(c.Query("project")),
	}
	filter.Page, filter.PageSize = pageQuery(c)
	skills, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Page(c, skills, pagination)
}

// Projects godoc
// @Summary List projects in use
// @Tags Skills
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /skills/projects [get]
func (h *SkillHandler) Projects(c *gin.Context) {
	projects, err := h.service.Projects(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, projects)
}

// Get godoc
// @Summary Skill detail with revision history
// @Tags Skills
// @Produce json
// @Param code path string true "Skill code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /skills/{code} [get]
func (h *SkillHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, detail)
}

// Create godoc
// @Summary Register skill
// @Description Creates the skill and its first revision. An SOP document may be attached as "document".
// @Tags Skills
// @Accept json,mpfd
// @Produce json
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /skills [post]
func (h *SkillHandler) Create(c *gin.Context) {
	var req service.CreateSkillRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, bindError(err, "skill"))
		return
	}
	document, err := readUpload(c, "document", h.maxUpload)
	if err != nil {
		response.Error(c, err)
		return
	}
	skill, err := h.service.Create(c.Request.Context(), req, actorFromContext(c), document)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, skill)
}

// PublishRevision godoc
// @Summary Publish a new skill revision
// @Description Commits the revision, then opens retraining assignments for every qualified employee.
// @Tags Skills
// @Accept json,mpfd
// @Produce json
// @Param code path string true "Skill code"
// @Success 201 {object} response.Envelope
// @Router /skills/{code}/revisions [post]
func (h *SkillHandler) PublishRevision(c *gin.Context) {
	var req service.PublishRevisionRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, bindError(err, "revision"))
		return
	}
	document, err := readUpload(c, "document", h.maxUpload)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.PublishRevision(c.Request.Context(), c.Param("code"), req, actorFromContext(c), document)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}
