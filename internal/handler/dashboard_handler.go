package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/skillmatrix-api/internal/dto"
	"github.com/noah-isme/skillmatrix-api/internal/middleware"
	appErrors "github.com/noah-isme/skillmatrix-api/pkg/errors"
	"github.com/noah-isme/skillmatrix-api/pkg/response"
)

type dashboardService interface {
	Stats(ctx context.Context) (*dto.DashboardStats, bool, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Stats godoc
// @Summary Headline counts for the home dashboard
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	stats, cacheHit, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.OK(c, stats, middleware.ResponseMeta(c))
}
