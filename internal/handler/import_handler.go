package handler

import (
	"bytes"
	"context"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/skillmatrix-api/internal/dto"
	"github.com/noah-isme/skillmatrix-api/internal/models"
	appErrors "github.com/noah-isme/skillmatrix-api/pkg/errors"
	"github.com/noah-isme/skillmatrix-api/pkg/response"
)

type importService interface {
	ImportEmployees(ctx context.Context, r io.Reader, actor *models.Actor) (*dto.BulkResult, error)
	ImportSkills(ctx context.Context, r io.Reader, actor *models.Actor) (*dto.BulkResult, error)
}

// ImportHandler accepts CSV uploads for bulk registration.
type ImportHandler struct {
	service   importService
	maxUpload int64
}

// NewImportHandler constructs the handler.
func NewImportHandler(svc importService, maxUpload int64) *ImportHandler {
	return &ImportHandler{service: svc, maxUpload: maxUpload}
}

// Employees godoc
// @Summary Bulk import employees
// @Description CSV columns: name, employeeNumber, department, dateHired (YYYY-MM-DD), shift
// @Tags Imports
// @Accept mpfd
// @Produce json
// @Param file formData file true "CSV file"
// @Success 200 {object} response.Envelope
// @Router /imports/employees [post]
func (h *ImportHandler) Employees(c *gin.Context) {
	h.run(c, h.service.ImportEmployees)
}

// Skills godoc
// @Summary Bulk import skills
// @Description CSV columns: code, name, description, project, validityMonths, recertReminderDays
// @Tags Imports
// @Accept mpfd
// @Produce json
// @Param file formData file true "CSV file"
// @Success 200 {object} response.Envelope
// @Router /imports/skills [post]
func (h *ImportHandler) Skills(c *gin.Context) {
	h.run(c, h.service.ImportSkills)
}

func (h *ImportHandler) run(c *gin.Context, importFn func(context.Context, io.Reader, *models.Actor) (*dto.BulkResult, error)) {
	upload, err := readUpload(c, "file", h.maxUpload)
	if err != nil {
		response.Error(c, err)
		return
	}
	if upload == nil {
		response.Error(c, appErrors.Validation("invalid upload", map[string]string{"file": "is required"}))
		return
	}
	result, err := importFn(c.Request.Context(), bytes.NewReader(upload.Data), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}
