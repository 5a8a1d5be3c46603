package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/skillmatrix-api/internal/dto"
	"github.com/noah-isme/skillmatrix-api/internal/models"
	appErrors "github.com/noah-isme/skillmatrix-api/pkg/errors"
	"github.com/noah-isme/skillmatrix-api/pkg/identifier"
)

// DefaultRetrainingTargetLevel is the level cascade-created assignments aim for.
const DefaultRetrainingTargetLevel = 3

type retrainingSkillReader interface {
	FindByCode(ctx context.Context, code string) (*models.Skill, error)
}

type qualifiedEmployeeLister interface {
	EmployeeIDsForSkill(ctx context.Context, skillID string) ([]string, error)
}

type openAssignmentWriter interface {
	UpsertOpen(ctx context.Context, a *models.TrainingAssignment) (bool, error)
}

// RetrainingService turns a newly published revision into retraining
// assignments for every employee already qualified on the skill.
type RetrainingService struct {
	skills      retrainingSkillReader
	records     qualifiedEmployeeLister
	assignments openAssignmentWriter
	metrics     *MetricsService
	logger      *zap.Logger
	targetLevel int
	now         func() time.Time
}

// NewRetrainingService constructs the cascade service. A non-positive
// targetLevel falls back to DefaultRetrainingTargetLevel.
func NewRetrainingService(skills retrainingSkillReader, records qualifiedEmployeeLister, assignments openAssignmentWriter, metrics *MetricsService, logger *zap.Logger, targetLevel int) *RetrainingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if targetLevel <= 0 {
		targetLevel = DefaultRetrainingTargetLevel
	}
	return &RetrainingService{
		skills:      skills,
		records:     records,
		assignments: assignments,
		metrics:     metrics,
		logger:      logger,
		targetLevel: targetLevel,
		now:         time.Now,
	}
}

// RetrainingNote is the note written on assignments created or reset by a cascade.
func RetrainingNote(skillCode string, revisionNumber int) string {
	return fmt.Sprintf("Retraining required: %s revision %d published", skillCode, revisionNumber)
}

// Cascade resets or creates one open assignment per qualified employee. Each
// employee is handled independently; failures are collected in the result and
// never stop the loop. An error is returned only when the skill or the set of
// affected employees cannot be loaded.
func (s *RetrainingService) Cascade(ctx context.Context, skillCode string, revisionNumber int, actor *models.Actor) (*dto.CascadeResult, error) {
	if err := authorize(actor, skillManagers...); err != nil {
		return nil, err
	}
	code, err := identifier.Normalize(skillCode)
	if err != nil {
		return nil, appErrors.Validation("invalid skill code", map[string]string{"code": "is required"})
	}
	skill, err := s.skills.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "skill not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load skill")
	}
	employeeIDs, err := s.records.EmployeeIDsForSkill(ctx, skill.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load qualified employees")
	}

	dueDate := s.now().UTC().AddDate(0, 0, skill.ReminderDays())
	note := RetrainingNote(skill.Code, revisionNumber)

	result := &dto.CascadeResult{
		SkillCode:      skill.Code,
		RevisionNumber: revisionNumber,
		Total:          len(employeeIDs),
		Items:          make([]dto.CascadeItem, 0, len(employeeIDs)),
	}
	for _, employeeID := range employeeIDs {
		item := dto.CascadeItem{EmployeeID: employeeID}
		assignment := &models.TrainingAssignment{
			EmployeeID:   employeeID,
			SkillID:      skill.ID,
			TargetLevel:  s.targetLevel,
			DueDate:      dueDate,
			Status:       models.AssignmentPending,
			Notes:        &note,
			AssignedByID: actor.ID,
		}
		created, err := s.assignments.UpsertOpen(ctx, assignment)
		if err != nil {
			item.Status = dto.OutcomeFailed
			item.Message = err.Error()
			result.Failed++
			s.logger.Warn("retraining assignment failed",
				zap.String("skill_code", skill.Code),
				zap.Int("revision", revisionNumber),
				zap.String("employee_id", employeeID),
				zap.Error(err))
		} else {
			item.Status = dto.OutcomeSuccess
			item.AssignmentID = assignment.ID
			item.Created = created
			result.Succeeded++
		}
		result.Items = append(result.Items, item)
	}

	s.metrics.RecordCascade(result.Succeeded, result.Failed)
	s.logger.Info("retraining cascade finished",
		zap.String("skill_code", skill.Code),
		zap.Int("revision", revisionNumber),
		zap.Int("total", result.Total),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed))
	return result, nil
}
