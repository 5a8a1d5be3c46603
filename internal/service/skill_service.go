package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/skillmatrix-api/internal/dto"
	"github.com/noah-isme/skillmatrix-api/internal/models"
	"github.com/noah-isme/skillmatrix-api/internal/repository"
	appErrors "github.com/noah-isme/skillmatrix-api/pkg/errors"
	"github.com/noah-isme/skillmatrix-api/pkg/identifier"
)

type skillRepository interface {
	List(ctx context.Context, filter models.SkillFilter) ([]models.Skill, int, error)
	FindByCode(ctx context.Context, code string) (*models.Skill, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	CreateWithRevision(ctx context.Context, skill *models.Skill, createdBy *string) (*models.SkillRevision, error)
	PublishRevision(ctx context.Context, skillID string, spec models.SkillSpec, createdBy *string) (*models.Skill, *models.SkillRevision, error)
	ListRevisions(ctx context.Context, skillID string) ([]models.SkillRevision, error)
	Projects(ctx context.Context) ([]string, error)
}

type retrainingCascader interface {
	Cascade(ctx context.Context, skillCode string, revisionNumber int, actor *models.Actor) (*dto.CascadeResult, error)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, patterns ...string) error
}

// CreateSkillRequest holds payload for registering a skill.
type CreateSkillRequest struct {
	Code               string `json:"code" form:"code" validate:"required,max=64"`
	Name               string `json:"name" form:"name" validate:"required,max=200"`
	Project            string `json:"project" form:"project" validate:"max=120"`
	Description        string `json:"description" form:"description"`
	ValidityMonths     *int   `json:"validity_months" form:"validity_months" validate:"omitempty,min=1,max=240"`
	RecertReminderDays *int   `json:"recert_reminder_days" form:"recert_reminder_days" validate:"omitempty,min=0,max=365"`
}

// PublishRevisionRequest holds the specification of a new skill revision.
type PublishRevisionRequest struct {
	Name               string `json:"name" form:"name" validate:"required,max=200"`
	Project            string `json:"project" form:"project" validate:"max=120"`
	Description        string `json:"description" form:"description"`
	ValidityMonths     *int   `json:"validity_months" form:"validity_months" validate:"omitempty,min=1,max=240"`
	RecertReminderDays *int   `json:"recert_reminder_days" form:"recert_reminder_days" validate:"omitempty,min=0,max=365"`
}

// PublishRevisionResult reports the committed revision and the retraining it
// triggered. CascadeError is set when the cascade could not run at all.
type PublishRevisionResult struct {
	Skill        *models.Skill         `json:"skill"`
	Revision     *models.SkillRevision `json:"revision"`
	Cascade      *dto.CascadeResult    `json:"cascade,omitempty"`
	CascadeError string                `json:"cascade_error,omitempty"`
}

// SkillDetail is a skill together with its revision history.
type SkillDetail struct {
	models.Skill
	Revisions []models.SkillRevision `json:"revisions"`
}

// SkillServiceParams groups SkillService dependencies.
type SkillServiceParams struct {
	Repo      skillRepository
	Cascade   retrainingCascader
	Storage   fileStore
	Audit     auditRecorder
	Cache     cacheInvalidator
	Metrics   *MetricsService
	Validator *validator.Validate
	Logger    *zap.Logger
}

// SkillService manages skill specifications and their revisions.
type SkillService struct {
	repo      skillRepository
	cascade   retrainingCascader
	storage   fileStore
	audit     auditRecorder
	cache     cacheInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSkillService constructs the skill service.
func NewSkillService(params SkillServiceParams) *SkillService {
	if params.Validator == nil {
		params.Validator = validator.New()
	}
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	return &SkillService{
		repo:      params.Repo,
		cascade:   params.Cascade,
		storage:   params.Storage,
		audit:     params.Audit,
		cache:     params.Cache,
		metrics:   params.Metrics,
		validator: params.Validator,
		logger:    params.Logger,
	}
}

// List returns skills and pagination metadata.
func (s *SkillService) List(ctx context.Context, filter models.SkillFilter) ([]models.Skill, *models.Pagination, error) {
	skills, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list skills")
	}
	page, size := pageMeta(filter.Page, filter.PageSize)
	return skills, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Projects returns the project groupings in use.
func (s *SkillService) Projects(ctx context.Context) ([]string, error) {
	projects, err := s.repo.Projects(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list projects")
	}
	return projects, nil
}

// Get returns a skill and its revision history.
func (s *SkillService) Get(ctx context.Context, code string) (*SkillDetail, error) {
	skill, err := s.findByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	revisions, err := s.repo.ListRevisions(ctx, skill.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load revisions")
	}
	return &SkillDetail{Skill: *skill, Revisions: revisions}, nil
}

// Create registers a skill and its first revision atomically.
func (s *SkillService) Create(ctx context.Context, req CreateSkillRequest, actor *models.Actor, document *FileUpload) (*models.Skill, error) {
	if err := authorize(actor, skillManagers...); err != nil {
		return nil, err
	}
	return s.create(ctx, req, actor, document)
}

// create runs skill creation once the caller has been authorized.
func (s *SkillService) create(ctx context.Context, req CreateSkillRequest, actor *models.Actor, document *FileUpload) (*models.Skill, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.FromValidator(err, "invalid skill payload")
	}
	code, err := identifier.Normalize(req.Code)
	if err != nil {
		return nil, appErrors.Validation("invalid skill payload", map[string]string{"code": "is required"})
	}
	exists, err := s.repo.ExistsByCode(ctx, code)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate skill code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("skill code %s already exists", code))
	}

	documentURL, err := storeFile(ctx, s.storage, document, "skill document")
	if err != nil {
		return nil, err
	}

	skill := &models.Skill{
		Code:               code,
		Name:               req.Name,
		Project:            optionalString(req.Project),
		Description:        optionalString(req.Description),
		ValidityMonths:     req.ValidityMonths,
		RecertReminderDays: req.RecertReminderDays,
		DocumentURL:        documentURL,
	}
	if _, err := s.repo.CreateWithRevision(ctx, skill, &actor.ID); err != nil {
		discardFile(s.storage, documentURL, s.logger)
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("skill code %s already exists", code))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create skill")
	}

	recordAudit(ctx, s.audit, s.logger, actor, auditEntry{
		Action:     models.AuditActionSkillCreate,
		Resource:   "skill",
		ResourceID: skill.ID,
		Details:    fmt.Sprintf("Created skill %s - %s", skill.Code, skill.Name),
		Values:     skill,
	})
	s.invalidate(ctx)
	return skill, nil
}

// PublishRevision appends the next numbered revision to the skill identified
// by code and then runs the retraining cascade for it. A failed cascade is
// reported in the result and never undoes the committed revision.
func (s *SkillService) PublishRevision(ctx context.Context, code string, req PublishRevisionRequest, actor *models.Actor, document *FileUpload) (*PublishRevisionResult, error) {
	if err := authorize(actor, skillManagers...); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.FromValidator(err, "invalid revision payload")
	}
	current, err := s.findByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	documentURL, err := storeFile(ctx, s.storage, document, "revision document")
	if err != nil {
		return nil, err
	}

	spec := models.SkillSpec{
		Name:               req.Name,
		Project:            optionalString(req.Project),
		Description:        optionalString(req.Description),
		DocumentURL:        documentURL,
		ValidityMonths:     req.ValidityMonths,
		RecertReminderDays: req.RecertReminderDays,
	}
	skill, revision, err := s.repo.PublishRevision(ctx, current.ID, spec, &actor.ID)
	if err != nil {
		discardFile(s.storage, documentURL, s.logger)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "skill not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish revision")
	}
	s.metrics.RecordRevisionPublished()
	s.logger.Info("skill revision published",
		zap.String("skill_code", skill.Code),
		zap.Int("revision", revision.RevisionNumber),
		zap.String("actor_id", actor.ID))

	recordAudit(ctx, s.audit, s.logger, actor, auditEntry{
		Action:     models.AuditActionSkillRevision,
		Resource:   "skill",
		ResourceID: skill.ID,
		Details:    fmt.Sprintf("Published revision %d of skill %s", revision.RevisionNumber, skill.Code),
		Values:     revision,
	})

	result := &PublishRevisionResult{Skill: skill, Revision: revision}
	if s.cascade != nil {
		cascade, err := s.cascade.Cascade(ctx, skill.Code, revision.RevisionNumber, actor)
		if err != nil {
			s.logger.Error("retraining cascade failed",
				zap.String("skill_code", skill.Code),
				zap.Int("revision", revision.RevisionNumber),
				zap.Error(err))
			result.CascadeError = err.Error()
		}
		result.Cascade = cascade
	}
	s.invalidate(ctx)
	return result, nil
}

func (s *SkillService) findByCode(ctx context.Context, raw string) (*models.Skill, error) {
	code, err := identifier.Normalize(raw)
	if err != nil {
		return nil, appErrors.Validation("invalid skill code", map[string]string{"code": "is required"})
	}
	skill, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "skill not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load skill")
	}
	return skill, nil
}

func (s *SkillService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Invalidate(ctx, complianceCachePattern, dashboardCachePattern)
}

func pageMeta(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}
