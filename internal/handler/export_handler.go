package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/skillmatrix-api/internal/dto"
	"github.com/noah-isme/skillmatrix-api/internal/service"
	"github.com/noah-isme/skillmatrix-api/pkg/response"
)

type exportService interface {
	Matrix(ctx context.Context, filter dto.MatrixFilter) (*dto.SkillMatrix, error)
	SkillMatrixCSV(ctx context.Context, filter dto.MatrixFilter) (*service.ExportFile, error)
	TrainingHistoryCSV(ctx context.Context, employeeNumber string) (*service.ExportFile, error)
	QualificationCard(ctx context.Context, employeeNumber string) (*service.ExportFile, error)
}

// ExportHandler serves the skill matrix and file downloads.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(svc exportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

func matrixFilter(c *gin.Context) dto.MatrixFilter {
	return dto.MatrixFilter{
		Query:      c.Query("q"),
		Department: c.Query("department"),
		Shift:      c.Query("shift"),
	}
}

// Matrix godoc
// @Summary Skill matrix
// @Tags Matrix
// @Produce json
// @Param q query string false "Employee search"
// @Param department query string false "Department or all"
// @Param shift query string false "DAY or NIGHT"
// @Success 200 {object} response.Envelope
// @Router /matrix [get]
func (h *ExportHandler) Matrix(c *gin.Context) {
	matrix, err := h.service.Matrix(c.Request.Context(), matrixFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, matrix)
}

// MatrixCSV godoc
// @Summary Download the skill matrix as CSV
// @Tags Exports
// @Produce text/csv
// @Success 200 {file} file
// @Router /exports/matrix.csv [get]
func (h *ExportHandler) MatrixCSV(c *gin.Context) {
	h.send(c, func(ctx context.Context) (*service.ExportFile, error) {
		return h.service.SkillMatrixCSV(ctx, matrixFilter(c))
	})
}

// TrainingHistory godoc
// @Summary Download an employee's training history as CSV
// @Tags Exports
// @Produce text/csv
// @Param number path string true "Employee number"
// @Success 200 {file} file
// @Router /exports/employees/{number}/training.csv [get]
func (h *ExportHandler) TrainingHistory(c *gin.Context) {
	h.send(c, func(ctx context.Context) (*service.ExportFile, error) {
		return h.service.TrainingHistoryCSV(ctx, c.Param("number"))
	})
}

// QualificationCard godoc
// @Summary Download an employee's qualification card
// @Tags Exports
// @Produce application/pdf
// @Param number path string true "Employee number"
// @Success 200 {file} file
// @Router /exports/employees/{number}/qualification-card.pdf [get]
func (h *ExportHandler) QualificationCard(c *gin.Context) {
	h.send(c, func(ctx context.Context) (*service.ExportFile, error) {
		return h.service.QualificationCard(ctx, c.Param("number"))
	})
}

func (h *ExportHandler) send(c *gin.Context, render func(context.Context) (*service.ExportFile, error)) {
	file, err := render(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
