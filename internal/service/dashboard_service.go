package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/skillmatrix-api/internal/dto"
	"github.com/noah-isme/skillmatrix-api/internal/models"
	appErrors "github.com/noah-isme/skillmatrix-api/pkg/errors"
)

const (
	dashboardStatsKey   = "dashboard:stats"
	dashboardRecentSize = 5
)

type counter interface {
	Count(ctx context.Context) (int, error)
}

type roleCounter interface {
	CountByRole(ctx context.Context, role models.UserRole) (int, error)
}

type openAssignmentCounter interface {
	CountOpen(ctx context.Context) (int, error)
}

type dashboardRecordReader interface {
	Count(ctx context.Context) (int, error)
	ListTracked(ctx context.Context) ([]models.TrainingRecordDetail, error)
	Recent(ctx context.Context, limit int) ([]models.TrainingRecordDetail, error)
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Employees   counter
	Skills      counter
	Records     dashboardRecordReader
	Users       roleCounter
	Assignments openAssignmentCounter
	Cache       payloadCache
	CacheTTL    time.Duration
	Logger      *zap.Logger
}

// DashboardService composes the headline statistics for the home page.
type DashboardService struct {
	employees   counter
	skills      counter
	records     dashboardRecordReader
	users       roleCounter
	assignments openAssignmentCounter
	cache       payloadCache
	ttl         time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	if params.CacheTTL <= 0 {
		params.CacheTTL = time.Minute
	}
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	return &DashboardService{
		employees:   params.Employees,
		skills:      params.Skills,
		records:     params.Records,
		users:       params.Users,
		assignments: params.Assignments,
		cache:       params.Cache,
		ttl:         params.CacheTTL,
		logger:      params.Logger,
		now:         time.Now,
	}
}

// Stats returns the dashboard counts and whether they came from cache.
func (s *DashboardService) Stats(ctx context.Context) (*dto.DashboardStats, bool, error) {
	if s.cache != nil {
		var cached dto.DashboardStats
		if hit, err := s.cache.Get(ctx, dashboardStatsKey, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	now := s.now().UTC()
	stats := &dto.DashboardStats{GeneratedAt: now, RecentlyValidated: []dto.RecentTraining{}}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		stats.Employees, err = s.employees.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Skills, err = s.skills.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TrainingRecords, err = s.records.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Trainers, err = s.users.CountByRole(gctx, models.RoleTrainer)
		return err
	})
	g.Go(func() (err error) {
		stats.OpenAssignments, err = s.assignments.CountOpen(gctx)
		return err
	})
	g.Go(func() error {
		tracked, err := s.records.ListTracked(gctx)
		if err != nil {
			return err
		}
		stats.Compliance = BuildComplianceReport(tracked, ComplianceFilter{}, now).Summary
		return nil
	})
	g.Go(func() error {
		recent, err := s.records.Recent(gctx, dashboardRecentSize)
		if err != nil {
			return err
		}
		for _, r := range recent {
			stats.RecentlyValidated = append(stats.RecentlyValidated, dto.RecentTraining{
				EmployeeName:  r.EmployeeName,
				SkillCode:     r.SkillCode,
				Level:         r.Level,
				DateValidated: r.DateValidated,
			})
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute dashboard stats")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardStatsKey, stats, s.ttl); err != nil {
			s.logger.Debug("dashboard cache write skipped", zap.Error(err))
		}
	}
	return stats, false, nil
}
