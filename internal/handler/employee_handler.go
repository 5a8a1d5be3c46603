package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/skillmatrix-api/internal/models"
	"github.com/noah-isme/skillmatrix-api/internal/service"
	"github.com/noah-isme/skillmatrix-api/pkg/response"
)

type employeeService interface {
	List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, *models.Pagination, error)
	Departments(ctx context.Context) ([]string, error)
	Profile(ctx context.Context, number string) (*service.EmployeeProfile, error)
	Create(ctx context.Context, req service.CreateEmployeeRequest, actor *models.Actor, photo *service.FileUpload) (*models.Employee, error)
	Update(ctx context.Context, number string, req service.UpdateEmployeeRequest, actor *models.Actor, photo *service.FileUpload) (*models.Employee, error)
	AddNote(ctx context.Context, number string, req service.AddNoteRequest, actor *models.Actor) (*models.EmployeeNote, error)
}

// EmployeeHandler exposes employee records and profiles.
type EmployeeHandler struct {
	service   employeeService
	maxUpload int64
}

// NewEmployeeHandler constructs the handler.
func NewEmployeeHandler(svc employeeService, maxUpload int64) *EmployeeHandler {
	return &EmployeeHandler{service: svc, maxUpload: maxUpload}
}

// List godoc
// @Summary List employees
// @Tags Employees
// @Produce json
// @Param q query string false "Name or number search"
// @Param department query string false "Department"
// @Param shift query string false "DAY or NIGHT"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /employees [get]
func (h *EmployeeHandler) List(c *gin.Context) {
	filter := models.EmployeeFilter{
		Query:      strings.TrimSpace(c.Query("q")),
		Department: strings.TrimSpace(c.Query("department")),
		Shift:      models.Shift(strings.ToUpper(c.Query("shift"))),
		SortBy:     c.Query("sort_by"),
		SortOrder:  c.Query("sort_order"),
	}
	filter.Page, filter.PageSize = pageQuery(c)

	employees, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Page(c, employees, pagination)
}

// Departments godoc
// @Summary List departments in use
// @Tags Employees
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /employees/departments [get]
func (h *EmployeeHandler) Departments(c *gin.Context) {
	departments, err := h.service.Departments(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, departments)
}

// Profile godoc
// @Summary Employee profile with training records and notes
// @Tags Employees
// @Produce json
// @Param number path string true "Employee number"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /employees/{number} [get]
func (h *EmployeeHandler) Profile(c *gin.Context) {
	profile, err := h.service.Profile(c.Request.Context(), c.Param("number"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, profile)
}

// Create godoc
// @Summary Register employee
// @Description Accepts JSON or multipart form data with an optional photo file
// @Tags Employees
// @Accept json,mpfd
// @Produce json
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /employees [post]
func (h *EmployeeHandler) Create(c *gin.Context) {
	var req service.CreateEmployeeRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, bindError(err, "employee"))
		return
	}
	photo, err := readUpload(c, "photo", h.maxUpload)
	if err != nil {
		response.Error(c, err)
		return
	}
	employee, err := h.service.Create(c.Request.Context(), req, actorFromContext(c), photo)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, employee)
}

// Update godoc
// @Summary Update employee
// @Tags Employees
// @Accept json,mpfd
// @Produce json
// @Param number path string true "Employee number"
// @Success 200 {object} response.Envelope
// @Router /employees/{number} [put]
func (h *EmployeeHandler) Update(c *gin.Context) {
	var req service.UpdateEmployeeRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, bindError(err, "employee"))
		return
	}
	photo, err := readUpload(c, "photo", h.maxUpload)
	if err != nil {
		response.Error(c, err)
		return
	}
	employee, err := h.service.Update(c.Request.Context(), c.Param("number"), req, actorFromContext(c), photo)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, employee)
}

// AddNote godoc
// @Summary Add profile note
// @Tags Employees
// @Accept json
// @Produce json
// @Param number path string true "Employee number"
// @Param payload body service.AddNoteRequest true "Note"
// @Success 201 {object} response.Envelope
// @Router /employees/{number}/notes [post]
func (h *EmployeeHandler) AddNote(c *gin.Context) {
	var req service.AddNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "note"))
		return
	}
	note, err := h.service.AddNote(c.Request.Context(), c.Param("number"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, note)
}
