package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/skillmatrix-api/internal/dto"
	"github.com/noah-isme/skillmatrix-api/internal/models"
	appErrors "github.com/noah-isme/skillmatrix-api/pkg/errors"
)

const (
	complianceCachePattern = "compliance:*"
	complianceTrackedKey   = "compliance:tracked-records"
	dashboardCachePattern  = "dashboard:*"
)

type trackedRecordLister interface {
	ListTracked(ctx context.Context) ([]models.TrainingRecordDetail, error)
}

type payloadCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// ComplianceFilter narrows the action-needed report.
type ComplianceFilter struct {
	Department string
	Status     models.RecertStatus
}

// ComplianceService projects training records through the recertification
// evaluator to build the action-needed view.
type ComplianceService struct {
	records trackedRecordLister
	cache   payloadCache
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewComplianceService constructs the compliance service.
func NewComplianceService(records trackedRecordLister, cache payloadCache, ttl time.Duration, logger *zap.Logger) *ComplianceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComplianceService{records: records, cache: cache, ttl: ttl, logger: logger, now: time.Now}
}

// ActionNeeded returns DUE_SOON and OVERDUE records ordered by ascending
// expiration date, plus a per-status summary of every tracked record. Only
// the tracked records are cached; classification always runs against the
// current time.
func (s *ComplianceService) ActionNeeded(ctx context.Context, filter ComplianceFilter) (*dto.ComplianceReport, error) {
	records, err := s.trackedRecords(ctx)
	if err != nil {
		return nil, err
	}
	return BuildComplianceReport(records, filter, s.now().UTC()), nil
}

func (s *ComplianceService) trackedRecords(ctx context.Context) ([]models.TrainingRecordDetail, error) {
	if s.cache != nil {
		var cached []models.TrainingRecordDetail
		if hit, err := s.cache.Get(ctx, complianceTrackedKey, &cached); err == nil && hit {
			return cached, nil
		}
	}

	records, err := s.records.ListTracked(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load training records")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, complianceTrackedKey, records, s.ttl); err != nil {
			s.logger.Debug("compliance cache write skipped", zap.Error(err))
		}
	}
	return records, nil
}

// BuildComplianceReport evaluates records as of now.
func BuildComplianceReport(records []models.TrainingRecordDetail, filter ComplianceFilter, now time.Time) *dto.ComplianceReport {
	report := &dto.ComplianceReport{GeneratedAt: now, Items: []dto.ComplianceItem{}}
	for _, record := range records {
		if filter.Department != "" && !strings.EqualFold(derefString(record.Department), filter.Department) {
			continue
		}
		result := EvaluateRecord(record, now)
		if result == nil {
			continue
		}
		report.Summary.Tracked++
		switch result.Status {
		case models.RecertCurrent:
			report.Summary.Current++
			continue
		case models.RecertDueSoon:
			report.Summary.DueSoon++
		case models.RecertOverdue:
			report.Summary.Overdue++
		}
		if filter.Status != "" && filter.Status != result.Status {
			continue
		}
		report.Items = append(report.Items, dto.ComplianceItem{
			RecordID:         record.ID,
			EmployeeID:       record.EmployeeID,
			EmployeeName:     record.EmployeeName,
			EmployeeNumber:   record.EmployeeNumber,
			Department:       record.Department,
			SkillID:          record.SkillID,
			SkillCode:        record.SkillCode,
			SkillName:        record.SkillName,
			Level:            record.Level,
			DateValidated:    record.DateValidated,
			ExpirationDate:   result.ExpirationDate,
			ReminderDate:     result.ReminderDate,
			Status:           result.Status,
			RevisionMismatch: result.RevisionMismatch,
		})
	}
	sort.SliceStable(report.Items, func(i, j int) bool {
		return report.Items[i].ExpirationDate.Before(report.Items[j].ExpirationDate)
	})
	return report
}
