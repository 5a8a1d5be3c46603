package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/skillmatrix-api/internal/models"
	"github.com/noah-isme/skillmatrix-api/internal/repository"
	"github.com/noah-isme/skillmatrix-api/internal/service"
	"github.com/noah-isme/skillmatrix-api/pkg/config"
	"github.com/noah-isme/skillmatrix-api/pkg/database"
	"github.com/noah-isme/skillmatrix-api/pkg/logger"
	"github.com/noah-isme/skillmatrix-api/pkg/storage"
)

// app holds the services a command needs. Caching is left disabled so
// reports always read the database.
type app struct {
	logger     *zap.Logger
	db         *sqlx.DB
	users      *repository.UserRepository
	userSvc    *service.UserService
	imports    *service.ImportService
	compliance *service.ComplianceService
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	files, err := storage.NewLocalStorage(cfg.Uploads.Dir, cfg.Uploads.BaseURL)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open uploads: %w", err)
	}

	validate := validator.New()
	metrics := service.NewMetricsService()
	employeeRepo := repository.NewEmployeeRepository(db)
	skillRepo := repository.NewSkillRepository(db)
	recordRepo := repository.NewTrainingRecordRepository(db)
	assignmentRepo := repository.NewTrainingAssignmentRepository(db)
	userRepo := repository.NewUserRepository(db)

	employees := service.NewEmployeeService(service.EmployeeServiceParams{
		Repo:      employeeRepo,
		Records:   recordRepo,
		Storage:   files,
		Audit:     userRepo,
		Validator: validate,
		Logger:    logr,
	})
	skills := service.NewSkillService(service.SkillServiceParams{
		Repo:      skillRepo,
		Cascade:   service.NewRetrainingService(skillRepo, recordRepo, assignmentRepo, metrics, logr, cfg.Compliance.RetrainingTargetLevel),
		Storage:   files,
		Audit:     userRepo,
		Metrics:   metrics,
		Validator: validate,
		Logger:    logr,
	})

	return &app{
		logger:     logr,
		db:         db,
		users:      userRepo,
		userSvc:    service.NewUserService(userRepo, repository.NewUploadLogRepository(db), validate, logr),
		imports:    service.NewImportService(employees, skills, repository.NewUploadLogRepository(db), userRepo, metrics, logr, cfg.Import.DetailLimit),
		compliance: service.NewComplianceService(recordRepo, nil, 0, logr),
	}, nil
}

func (a *app) Close() {
	_ = a.logger.Sync()
	_ = a.db.Close()
}

type userFinder interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

// resolveActor maps --as onto a stored account so services can apply the
// same role checks and audit attribution as the HTTP API.
func resolveActor(ctx context.Context, users userFinder, username string) (*models.Actor, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, errors.New("--as is required for this command")
	}
	user, err := users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %q not found", username)
		}
		return nil, err
	}
	return &models.Actor{ID: user.ID, Username: user.Username, Role: user.Role}, nil
}
