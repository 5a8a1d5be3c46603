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
)

type assignmentRepository interface {
	Create(ctx context.Context, a *models.TrainingAssignment) error
	FindByID(ctx context.Context, id string) (*models.TrainingAssignment, error)
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.TrainingAssignmentDetail, int, error)
	UpdateStatus(ctx context.Context, id string, status models.AssignmentStatus) error
	MarkReminderSent(ctx context.Context, id string, at time.Time) error
}

// CreateAssignmentRequest holds payload for planning a training goal.
type CreateAssignmentRequest struct {
	EmployeeID  string    `json:"employee_id" validate:"required"`
	SkillID     string    `json:"skill_id" validate:"required"`
	TargetLevel int       `json:"target_level" validate:"required,min=1,max=4"`
	DueDate     time.Time `json:"due_date" validate:"required"`
	Notes       string    `json:"notes" validate:"max=2000"`
}

// UpdateAssignmentStatusRequest moves an assignment through its lifecycle.
type UpdateAssignmentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING IN_PROGRESS COMPLETED"`
}

// AssignmentService manages manually planned training assignments.
type AssignmentService struct {
	repo      assignmentRepository
	employees employeeReader
	skills    skillReader
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAssignmentService constructs the assignment service.
func NewAssignmentService(repo assignmentRepository, employees employeeReader, skills skillReader, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{repo: repo, employees: employees, skills: skills, audit: audit, validator: validate, logger: logger, now: time.Now}
}

// List returns assignments and pagination metadata.
func (s *AssignmentService) List(ctx context.Context, filter models.AssignmentFilter) ([]models.TrainingAssignmentDetail, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	page, size := pageMeta(filter.Page, filter.PageSize)
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Create plans a new training assignment.
func (s *AssignmentService) Create(ctx context.Context, req CreateAssignmentRequest, actor *models.Actor) (*models.TrainingAssignment, error) {
	if err := authorize(actor, assignmentOwners...); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.FromValidator(err, "invalid assignment payload")
	}
	employee, err := s.employees.FindByID(ctx, req.EmployeeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}
	skill, err := s.skills.FindByID(ctx, req.SkillID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "skill not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load skill")
	}

	assignment := &models.TrainingAssignment{
		EmployeeID:   employee.ID,
		SkillID:      skill.ID,
		TargetLevel:  req.TargetLevel,
		DueDate:      req.DueDate.UTC(),
		Status:       models.AssignmentPending,
		Notes:        optionalString(req.Notes),
		AssignedByID: actor.ID,
	}
	if err := s.repo.Create(ctx, assignment); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "an open assignment already exists for this employee and skill")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	recordAudit(ctx, s.audit, s.logger, actor, auditEntry{
		Action:     models.AuditActionAssignmentCreate,
		Resource:   "training_assignment",
		ResourceID: assignment.ID,
		Details:    fmt.Sprintf("Assigned %s to %s (%s) at level %d", skill.Code, employee.Name, employee.EmployeeNumber, assignment.TargetLevel),
		Values:     assignment,
	})
	return assignment, nil
}

// UpdateStatus changes an assignment's status.
func (s *AssignmentService) UpdateStatus(ctx context.Context, id string, req UpdateAssignmentStatusRequest, actor *models.Actor) (*models.TrainingAssignment, error) {
	if err := authorize(actor, assignmentOwners...); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.FromValidator(err, "invalid status payload")
	}
	assignment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	status := models.AssignmentStatus(req.Status)
	if err := s.repo.UpdateStatus(ctx, assignment.ID, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment")
	}
	assignment.Status = status
	if status == models.AssignmentCompleted {
		recordAudit(ctx, s.audit, s.logger, actor, auditEntry{
			Action:     models.AuditActionAssignmentComplete,
			Resource:   "training_assignment",
			ResourceID: assignment.ID,
			Details:    "Marked assignment completed",
		})
	}
	return assignment, nil
}

// Remind stamps the assignment's last reminder time.
func (s *AssignmentService) Remind(ctx context.Context, id string, actor *models.Actor) (*models.TrainingAssignment, error) {
	if err := authorize(actor, assignmentOwners...); err != nil {
		return nil, err
	}
	assignment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if assignment.Status == models.AssignmentCompleted {
		return nil, appErrors.Clone(appErrors.ErrConflict, "assignment already completed")
	}
	at := s.now().UTC()
	if err := s.repo.MarkReminderSent(ctx, assignment.ID, at); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record reminder")
	}
	assignment.LastReminderSentAt = &at
	recordAudit(ctx, s.audit, s.logger, actor, auditEntry{
		Action:     models.AuditActionAssignmentRemind,
		Resource:   "training_assignment",
		ResourceID: assignment.ID,
		Details:    "Sent assignment reminder",
	})
	return assignment, nil
}

func (s *AssignmentService) load(ctx context.Context, id string) (*models.TrainingAssignment, error) {
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	return assignment, nil
}
