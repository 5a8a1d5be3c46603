package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/skillmatrix-api/internal/dto"
	"github.com/noah-isme/skillmatrix-api/internal/middleware"
	"github.com/noah-isme/skillmatrix-api/internal/models"
	"github.com/noah-isme/skillmatrix-api/internal/service"
	appErrors "github.com/noah-isme/skillmatrix-api/pkg/errors"
	"github.com/noah-isme/skillmatrix-api/pkg/response"
)

type complianceService interface {
	ActionNeeded(ctx context.Context, filter service.ComplianceFilter) (*dto.ComplianceReport, error)
}

// ComplianceHandler serves the recertification action list.
type ComplianceHandler struct {
	service complianceService
}

// NewComplianceHandler constructs the handler.
func NewComplianceHandler(svc complianceService) *ComplianceHandler {
	return &ComplianceHandler{service: svc}
}

// ActionNeeded godoc
// @Summary Records due soon or overdue for recertification
// @Tags Compliance
// @Produce json
// @Param department query string false "Department"
// @Param status query string false "DUE_SOON or OVERDUE"
// @Success 200 {object} response.Envelope
// @Router /compliance/action-needed [get]
func (h *ComplianceHandler) ActionNeeded(c *gin.Context) {
	filter := service.ComplianceFilter{Department: strings.TrimSpace(c.Query("department"))}
	if strings.EqualFold(filter.Department, "all") {
		filter.Department = ""
	}
	if raw := strings.ToUpper(strings.TrimSpace(c.Query("status"))); raw != "" {
		status := models.RecertStatus(raw)
		if status != models.RecertDueSoon && status != models.RecertOverdue {
			response.Error(c, appErrors.Validation("invalid compliance filter", map[string]string{"status": "must be one of DUE_SOON OVERDUE"}))
			return
		}
		filter.Status = status
	}
	report, err := h.service.ActionNeeded(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, report, middleware.ResponseMeta(c))
}
