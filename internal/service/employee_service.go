package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/skillmatrix-api/internal/models"
	"github.com/noah-isme/skillmatrix-api/internal/repository"
	appErrors "github.com/noah-isme/skillmatrix-api/pkg/errors"
	"github.com/noah-isme/skillmatrix-api/pkg/identifier"
)

const profileNoteLimit = 10

type employeeRepository interface {
	List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, int, error)
	FindByID(ctx context.Context, id string) (*models.Employee, error)
	FindByNumber(ctx context.Context, number string) (*models.Employee, error)
	ExistsByNumber(ctx context.Context, number, excludeID string) (bool, error)
	Create(ctx context.Context, employee *models.Employee) error
	Update(ctx context.Context, employee *models.Employee) error
	Departments(ctx context.Context) ([]string, error)
	AddNote(ctx context.Context, note *models.EmployeeNote) error
	ListNotes(ctx context.Context, employeeID string, limit int) ([]models.EmployeeNote, error)
}

type employeeRecordLister interface {
	ListByEmployee(ctx context.Context, employeeID string) ([]models.TrainingRecordDetail, error)
}

// CreateEmployeeRequest holds payload for registering an employee.
type CreateEmployeeRequest struct {
	Name           string    `json:"name" form:"name" validate:"required,max=200"`
	EmployeeNumber string    `json:"employee_number" form:"employee_number" validate:"required,max=64"`
	Department     string    `json:"department" form:"department" validate:"max=120"`
	Shift          string    `json:"shift" form:"shift" validate:"omitempty,oneof=DAY NIGHT"`
	DateHired      time.Time `json:"date_hired" form:"date_hired" time_format:"2006-01-02" validate:"required"`
}

// UpdateEmployeeRequest holds payload for editing an employee profile.
type UpdateEmployeeRequest = CreateEmployeeRequest

// AddNoteRequest is the body of a profile note.
type AddNoteRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// RecordStatus pairs a training record with its recertification state.
type RecordStatus struct {
	models.TrainingRecordDetail
	Recertification *models.RecertificationResult `json:"recertification,omitempty"`
}

// EmployeeProfile is the detail view of an employee.
type EmployeeProfile struct {
	Employee models.Employee       `json:"employee"`
	Records  []RecordStatus        `json:"records"`
	Notes    []models.EmployeeNote `json:"notes"`
}

// EmployeeServiceParams groups EmployeeService dependencies.
type EmployeeServiceParams struct {
	Repo      employeeRepository
	Records   employeeRecordLister
	Storage   fileStore
	Audit     auditRecorder
	Cache     cacheInvalidator
	Validator *validator.Validate
	Logger    *zap.Logger
}

// EmployeeService handles employee records and profile notes.
type EmployeeService struct {
	repo      employeeRepository
	records   employeeRecordLister
	storage   fileStore
	audit     auditRecorder
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewEmployeeService constructs the employee service.
func NewEmployeeService(params EmployeeServiceParams) *EmployeeService {
	if params.Validator == nil {
		params.Validator = validator.New()
	}
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	return &EmployeeService{
		repo:      params.Repo,
		records:   params.Records,
		storage:   params.Storage,
		audit:     params.Audit,
		cache:     params.Cache,
		validator: params.Validator,
		logger:    params.Logger,
		now:       time.Now,
	}
}

// List returns employees and pagination metadata.
func (s *EmployeeService) List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, *models.Pagination, error) {
	employees, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list employees")
	}
	page, size := pageMeta(filter.Page, filter.PageSize)
	return employees, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Departments returns departments currently in use.
func (s *EmployeeService) Departments(ctx context.Context) ([]string, error) {
	departments, err := s.repo.Departments(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list departments")
	}
	return departments, nil
}

// GetByNumber loads an employee by employee number.
func (s *EmployeeService) GetByNumber(ctx context.Context, number string) (*models.Employee, error) {
	normalized, err := identifier.Normalize(number)
	if err != nil {
		return nil, appErrors.Validation("invalid employee number", map[string]string{"employeeNumber": "is required"})
	}
	employee, err := s.repo.FindByNumber(ctx, normalized)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}
	return employee, nil
}

// Profile returns the employee with evaluated training records and the latest notes.
func (s *EmployeeService) Profile(ctx context.Context, number string) (*EmployeeProfile, error) {
	employee, err := s.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	profile := &EmployeeProfile{Employee: *employee}
	if s.records != nil {
		records, err := s.records.ListByEmployee(ctx, employee.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load training records")
		}
		now := s.now()
		profile.Records = make([]RecordStatus, 0, len(records))
		for _, record := range records {
			profile.Records = append(profile.Records, RecordStatus{TrainingRecordDetail: record, Recertification: EvaluateRecord(record, now)})
		}
	}
	notes, err := s.repo.ListNotes(ctx, employee.ID, profileNoteLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notes")
	}
	profile.Notes = notes
	return profile, nil
}

// Create registers a new employee. A supplied photo must be stored before the
// employee is written.
func (s *EmployeeService) Create(ctx context.Context, req CreateEmployeeRequest, actor *models.Actor, photo *FileUpload) (*models.Employee, error) {
	if err := authorize(actor, employeeManagers...); err != nil {
		return nil, err
	}
	return s.create(ctx, req, actor, photo)
}

// create runs employee creation once the caller has been authorized.
func (s *EmployeeService) create(ctx context.Context, req CreateEmployeeRequest, actor *models.Actor, photo *FileUpload) (*models.Employee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.FromValidator(err, "invalid employee payload")
	}
	number, err := identifier.Normalize(req.EmployeeNumber)
	if err != nil {
		return nil, appErrors.Validation("invalid employee payload", map[string]string{"employeeNumber": "is required"})
	}
	exists, err := s.repo.ExistsByNumber(ctx, number, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate employee number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("employee number %s already exists", number))
	}

	photoURL, err := storeFile(ctx, s.storage, photo, "employee photo")
	if err != nil {
		return nil, err
	}

	employee := &models.Employee{
		Name:           req.Name,
		EmployeeNumber: number,
		Department:     optionalString(req.Department),
		Shift:          shiftOrDefault(req.Shift),
		DateHired:      req.DateHired,
		PhotoURL:       photoURL,
	}
	if err := s.repo.Create(ctx, employee); err != nil {
		discardFile(s.storage, photoURL, s.logger)
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("employee number %s already exists", number))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create employee")
	}

	recordAudit(ctx, s.audit, s.logger, actor, auditEntry{
		Action:     models.AuditActionEmployeeCreate,
		Resource:   "employee",
		ResourceID: employee.ID,
		Details:    fmt.Sprintf("Created employee %s (%s)", employee.Name, employee.EmployeeNumber),
		Values:     employee,
	})
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, dashboardCachePattern)
	}
	return employee, nil
}

// Update edits an employee profile. A new photo replaces the previous one.
func (s *EmployeeService) Update(ctx context.Context, number string, req UpdateEmployeeRequest, actor *models.Actor, photo *FileUpload) (*models.Employee, error) {
	if err := authorize(actor, employeeManagers...); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.FromValidator(err, "invalid employee payload")
	}
	employee, err := s.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	newNumber, err := identifier.Normalize(req.EmployeeNumber)
	if err != nil {
		return nil, appErrors.Validation("invalid employee payload", map[string]string{"employeeNumber": "is required"})
	}
	exists, err := s.repo.ExistsByNumber(ctx, newNumber, employee.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate employee number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("employee number %s already exists", newNumber))
	}

	photoURL, err := storeFile(ctx, s.storage, photo, "employee photo")
	if err != nil {
		return nil, err
	}

	employee.Name = req.Name
	employee.EmployeeNumber = newNumber
	employee.Department = optionalString(req.Department)
	employee.Shift = shiftOrDefault(req.Shift)
	employee.DateHired = req.DateHired
	if photoURL != nil {
		employee.PhotoURL = photoURL
	}
	if err := s.repo.Update(ctx, employee); err != nil {
		discardFile(s.storage, photoURL, s.logger)
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("employee number %s already exists", newNumber))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update employee")
	}

	recordAudit(ctx, s.audit, s.logger, actor, auditEntry{
		Action:     models.AuditActionEmployeeUpdate,
		Resource:   "employee",
		ResourceID: employee.ID,
		Details:    fmt.Sprintf("Updated employee %s (%s)", employee.Name, employee.EmployeeNumber),
		Values:     employee,
	})
	return employee, nil
}

// AddNote attaches a note to an employee profile.
func (s *EmployeeService) AddNote(ctx context.Context, number string, req AddNoteRequest, actor *models.Actor) (*models.EmployeeNote, error) {
	if err := authorize(actor, models.RoleAdmin, models.RoleHR, models.RoleTrainer); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.FromValidator(err, "invalid note payload")
	}
	employee, err := s.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	note := &models.EmployeeNote{
		EmployeeID:     employee.ID,
		AuthorID:       actor.ID,
		AuthorUsername: actor.Username,
		Content:        req.Content,
	}
	if err := s.repo.AddNote(ctx, note); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add note")
	}
	recordAudit(ctx, s.audit, s.logger, actor, auditEntry{
		Action:     models.AuditActionEmployeeNote,
		Resource:   "employee",
		ResourceID: employee.ID,
		Details:    fmt.Sprintf("Added note to %s (%s)", employee.Name, employee.EmployeeNumber),
	})
	return note, nil
}

func shiftOrDefault(raw string) models.Shift {
	if models.Shift(raw) == models.ShiftNight {
		return models.ShiftNight
	}
	return models.ShiftDay
}
