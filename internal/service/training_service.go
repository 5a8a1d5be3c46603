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
	appErrors "github.com/noah-isme/skillmatrix-api/pkg/errors"
)

type trainingRecordRepository interface {
	Upsert(ctx context.Context, record *models.TrainingRecord) (bool, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]models.TrainingRecordDetail, error)
}

type employeeReader interface {
	FindByID(ctx context.Context, id string) (*models.Employee, error)
}

type skillReader interface {
	FindByID(ctx context.Context, id string) (*models.Skill, error)
}

// ValidateTrainingRequest is the payload a trainer submits to certify an
// employee on a skill.
type ValidateTrainingRequest struct {
	EmployeeID string `json:"employee_id" form:"employee_id" validate:"required"`
	SkillID    string `json:"skill_id" form:"skill_id" validate:"required"`
	Level      int    `json:"level" form:"level" validate:"required,min=1,max=4"`
	Notes      string `json:"notes" form:"notes" validate:"max=2000"`
}

// ValidationResult reports the stored record and whether it was new.
type ValidationResult struct {
	Record  *models.TrainingRecord `json:"record"`
	Created bool                   `json:"created"`
}

// TrainingServiceParams groups TrainingService dependencies.
type TrainingServiceParams struct {
	Records   trainingRecordRepository
	Employees employeeReader
	Skills    skillReader
	Storage   fileStore
	Audit     auditRecorder
	Cache     cacheInvalidator
	Validator *validator.Validate
	Logger    *zap.Logger
}

// TrainingService records qualifications, keeping one record per employee and skill.
type TrainingService struct {
	records   trainingRecordRepository
	employees employeeReader
	skills    skillReader
	storage   fileStore
	audit     auditRecorder
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewTrainingService constructs the training service.
func NewTrainingService(params TrainingServiceParams) *TrainingService {
	if params.Validator == nil {
		params.Validator = validator.New()
	}
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	return &TrainingService{
		records:   params.Records,
		employees: params.Employees,
		skills:    params.Skills,
		storage:   params.Storage,
		audit:     params.Audit,
		cache:     params.Cache,
		validator: params.Validator,
		logger:    params.Logger,
		now:       time.Now,
	}
}

// Validate certifies an employee on a skill at the requested level. The
// record for the pair is created on first validation and updated in place
// afterwards, pinned to the skill's current revision. Evidence, when given,
// is stored first and a storage failure aborts the whole operation.
func (s *TrainingService) Validate(ctx context.Context, req ValidateTrainingRequest, actor *models.Actor, evidence *FileUpload) (*ValidationResult, error) {
	if err := authorize(actor, certifiers...); err != nil {
		return nil, err
	}
	if req.Level < models.MinTrainingLevel || req.Level > models.MaxTrainingLevel {
		return nil, appErrors.Validation("invalid training payload", map[string]string{
			"level": fmt.Sprintf("must be between %d and %d", models.MinTrainingLevel, models.MaxTrainingLevel),
		})
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.FromValidator(err, "invalid training payload")
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

	evidenceURL, err := storeFile(ctx, s.storage, evidence, "training evidence")
	if err != nil {
		return nil, err
	}

	record := &models.TrainingRecord{
		EmployeeID:      employee.ID,
		SkillID:         skill.ID,
		Level:           req.Level,
		ValidatorID:     actor.ID,
		DateValidated:   s.now().UTC(),
		ValidatorNotes:  optionalString(req.Notes),
		EvidenceURL:     evidenceURL,
		SkillRevisionID: skill.CurrentRevisionID,
	}
	created, err := s.records.Upsert(ctx, record)
	if err != nil {
		discardFile(s.storage, evidenceURL, s.logger)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record training")
	}

	recordAudit(ctx, s.audit, s.logger, actor, auditEntry{
		Action:     models.AuditActionTrainingValidate,
		Resource:   "training_record",
		ResourceID: record.ID,
		Details: fmt.Sprintf("%s validated %s (%s) on %s at level %d",
			actor.Username, employee.Name, employee.EmployeeNumber, skill.Code, record.Level),
		Values: map[string]interface{}{
			"validator_id": actor.ID,
			"employee_id":  employee.ID,
			"skill_id":     skill.ID,
			"level":        record.Level,
			"created":      created,
		},
	})
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, complianceCachePattern, dashboardCachePattern)
	}
	return &ValidationResult{Record: record, Created: created}, nil
}

// History returns an employee's training records.
func (s *TrainingService) History(ctx context.Context, employeeID string) ([]models.TrainingRecordDetail, error) {
	records, err := s.records.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load training history")
	}
	return records, nil
}
