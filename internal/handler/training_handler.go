package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/skillmatrix-api/internal/models"
	"github.com/noah-isme/skillmatrix-api/internal/service"
	"github.com/noah-isme/skillmatrix-api/pkg/response"
)

type trainingService interface {
	Validate(ctx context.Context, req service.ValidateTrainingRequest, actor *models.Actor, evidence *service.FileUpload) (*service.ValidationResult, error)
	History(ctx context.Context, employeeID string) ([]models.TrainingRecordDetail, error)
}

// TrainingHandler records trainer validations.
type TrainingHandler struct {
	service   trainingService
	maxUpload int64
}

// NewTrainingHandler constructs the handler.
func NewTrainingHandler(svc trainingService, maxUpload int64) *TrainingHandler {
	return &TrainingHandler{service: svc, maxUpload: maxUpload}
}

// Validate godoc
// @Summary Validate an employee on a skill
// @Description Creates or updates the single record for the employee and skill. Evidence may be attached as "evidence".
// @Tags Training
// @Accept json,mpfd
// @Produce json
// @Success 201 {object} response.Envelope "record created"
// @Success 200 {object} response.Envelope "record updated"
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /training/validate [post]
func (h *TrainingHandler) Validate(c *gin.Context) {
	var req service.ValidateTrainingRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, bindError(err, "training"))
		return
	}
	evidence, err := readUpload(c, "evidence", h.maxUpload)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.Validate(c.Request.Context(), req, actorFromContext(c), evidence)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	response.JSON(c, status, result)
}

// History godoc
// @Summary Training history of an employee
// @Tags Training
// @Produce json
// @Param id path string true "Employee ID"
// @Success 200 {object} response.Envelope
// @Router /training/employees/{id} [get]
func (h *TrainingHandler) History(c *gin.Context) {
	records, err := h.service.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, records)
}
