package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/skillmatrix-api/internal/models"
	"github.com/noah-isme/skillmatrix-api/internal/repository"
	appErrors "github.com/noah-isme/skillmatrix-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	Create(ctx context.Context, user *models.User) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
	ListAuditLogs(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, int, error)
	CountByRole(ctx context.Context, role models.UserRole) (int, error)
}

type uploadLogLister interface {
	List(ctx context.Context, uploadType models.UploadType, page, size int) ([]models.UploadLog, int, error)
}

// CreateUserRequest represents payload for creating users.
type CreateUserRequest struct {
	Username string          `json:"username" validate:"required,min=3,max=64"`
	Password string          `json:"password" validate:"required,min=8"`
	Role     models.UserRole `json:"role" validate:"required,oneof=ADMIN TRAINER HR DCC VIEWER"`
}

// UserService handles account management and the audit trail views.
type UserService struct {
	repo      userRepository
	uploads   uploadLogLister
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, uploads uploadLogLister, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, uploads: uploads, validator: validate, logger: logger}
}

// List returns paginated users.
func (s *UserService) List(ctx context.Context, filter models.UserFilter, actor *models.Actor) ([]models.User, *models.Pagination, error) {
	if err := authorize(actor, userManagers...); err != nil {
		return nil, nil, err
	}
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	page, size := pageMeta(filter.Page, filter.PageSize)
	return users, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Create adds a new account. Only ADMIN may create users.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest, actor *models.Actor) (*models.User, error) {
	if err := authorize(actor, userManagers...); err != nil {
		return nil, err
	}
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.FromValidator(err, "invalid create user payload")
	}

	user, err := s.insert(ctx, req)
	if err != nil {
		return nil, err
	}

	recordAudit(ctx, s.repo, s.logger, actor, auditEntry{
		Action:     models.AuditActionUserCreate,
		Resource:   "users",
		ResourceID: user.ID,
		Details:    "Created user " + user.Username + " with role " + string(user.Role),
		Values:     map[string]interface{}{"id": user.ID, "username": user.Username, "role": user.Role},
	})
	return user, nil
}

// Bootstrap creates the first ADMIN account. It refuses once any ADMIN exists
// so it cannot be used to mint extra administrators.
func (s *UserService) Bootstrap(ctx context.Context, username, password string) (*models.User, error) {
	admins, err := s.repo.CountByRole(ctx, models.RoleAdmin)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count administrators")
	}
	if admins > 0 {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an administrator already exists")
	}
	req := CreateUserRequest{Username: strings.ToLower(strings.TrimSpace(username)), Password: password, Role: models.RoleAdmin}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.FromValidator(err, "invalid bootstrap payload")
	}
	user, err := s.insert(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logger.Info("administrator bootstrapped", zap.String("username", user.Username))
	return user, nil
}

func (s *UserService) insert(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	user := &models.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         req.Role,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "username already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}
	return user, nil
}

// AuditLogs lists the audit trail newest first.
func (s *UserService) AuditLogs(ctx context.Context, filter models.AuditFilter, actor *models.Actor) ([]models.AuditLog, *models.Pagination, error) {
	if err := authorize(actor, userManagers...); err != nil {
		return nil, nil, err
	}
	logs, total, err := s.repo.ListAuditLogs(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit logs")
	}
	page, size := pageMeta(filter.Page, filter.PageSize)
	return logs, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// UploadHistory lists bulk import runs, optionally for one upload type.
func (s *UserService) UploadHistory(ctx context.Context, uploadType models.UploadType, page, size int, actor *models.Actor) ([]models.UploadLog, *models.Pagination, error) {
	if err := authorize(actor, models.RoleAdmin, models.RoleHR, models.RoleDCC); err != nil {
		return nil, nil, err
	}
	if uploadType != "" && uploadType != models.UploadTypeEmployee && uploadType != models.UploadTypeSkill {
		return nil, nil, appErrors.Validation("invalid upload type", map[string]string{"type": "must be one of EMPLOYEE SKILL"})
	}
	logs, total, err := s.uploads.List(ctx, uploadType, page, size)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list upload logs")
	}
	page, size = pageMeta(page, size)
	return logs, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}
