package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/skillmatrix-api/internal/dto"
	"github.com/noah-isme/skillmatrix-api/internal/models"
	appErrors "github.com/noah-isme/skillmatrix-api/pkg/errors"
	"github.com/noah-isme/skillmatrix-api/pkg/identifier"
	"github.com/noah-isme/skillmatrix-api/pkg/tabular"
)

// DefaultImportDetailLimit bounds how many row outcomes an upload log keeps.
const DefaultImportDetailLimit = 50

// Column names recognised by the bulk importers.
const (
	ColumnName               = "name"
	ColumnEmployeeNumber     = "employeeNumber"
	ColumnDepartment         = "department"
	ColumnDateHired          = "dateHired"
	ColumnShift              = "shift"
	ColumnCode               = "code"
	ColumnDescription        = "description"
	ColumnProject            = "project"
	ColumnValidityMonths     = "validityMonths"
	ColumnRecertReminderDays = "recertReminderDays"
)

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006/01/02"}

type employeeCreator interface {
	Create(ctx context.Context, req CreateEmployeeRequest, actor *models.Actor, photo *FileUpload) (*models.Employee, error)
}

type skillCreator interface {
	Create(ctx context.Context, req CreateSkillRequest, actor *models.Actor, document *FileUpload) (*models.Skill, error)
}

type uploadLogWriter interface {
	Create(ctx context.Context, log *models.UploadLog) error
}

// parsedRow is the result of parsing one import row: exactly one of the
// request pointers is set when errs is empty.
type parsedRow struct {
	index      int
	identifier string
	employee   *CreateEmployeeRequest
	skill      *CreateSkillRequest
	errs       map[string]string
}

func (p parsedRow) valid() bool {
	return len(p.errs) == 0
}

// ImportService runs row-by-row bulk imports of employees and skills.
type ImportService struct {
	employees   employeeCreator
	skills      skillCreator
	uploads     uploadLogWriter
	audit       auditRecorder
	metrics     *MetricsService
	logger      *zap.Logger
	detailLimit int
}

// NewImportService constructs the import pipeline.
func NewImportService(employees employeeCreator, skills skillCreator, uploads uploadLogWriter, audit auditRecorder, metrics *MetricsService, logger *zap.Logger, detailLimit int) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if detailLimit <= 0 {
		detailLimit = DefaultImportDetailLimit
	}
	return &ImportService{
		employees:   employees,
		skills:      skills,
		uploads:     uploads,
		audit:       audit,
		metrics:     metrics,
		logger:      logger,
		detailLimit: detailLimit,
	}
}

// ImportEmployees reads a CSV document and imports each row as an employee.
func (s *ImportService) ImportEmployees(ctx context.Context, r io.Reader, actor *models.Actor) (*dto.BulkResult, error) {
	return s.importCSV(ctx, models.UploadTypeEmployee, r, actor)
}

// ImportSkills reads a CSV document and imports each row as a skill.
func (s *ImportService) ImportSkills(ctx context.Context, r io.Reader, actor *models.Actor) (*dto.BulkResult, error) {
	return s.importCSV(ctx, models.UploadTypeSkill, r, actor)
}

func (s *ImportService) importCSV(ctx context.Context, kind models.UploadType, r io.Reader, actor *models.Actor) (*dto.BulkResult, error) {
	if err := authorizeImport(kind, actor); err != nil {
		return nil, err
	}
	rows, err := tabular.ReadCSV(r)
	if err != nil {
		if errors.Is(err, tabular.ErrNoHeader) {
			return nil, appErrors.Validation("invalid upload", map[string]string{"file": "missing header row"})
		}
		return nil, appErrors.Validation("invalid upload", map[string]string{"file": err.Error()})
	}
	return s.ImportRows(ctx, kind, rows, actor)
}

// ImportRows validates and applies each row independently. A failing row
// never aborts the batch; every row gets an outcome in input order.
func (s *ImportService) ImportRows(ctx context.Context, kind models.UploadType, rows []tabular.Row, actor *models.Actor) (*dto.BulkResult, error) {
	if err := authorizeImport(kind, actor); err != nil {
		return nil, err
	}

	parsed := make([]parsedRow, 0, len(rows))
	for _, row := range rows {
		if row.Err != nil {
			parsed = append(parsed, parsedRow{index: row.Index, errs: map[string]string{"row": row.Err.Error()}})
			continue
		}
		if row.Blank() {
			continue
		}
		if kind == models.UploadTypeEmployee {
			parsed = append(parsed, parseEmployeeRow(row))
		} else {
			parsed = append(parsed, parseSkillRow(row))
		}
	}

	result := &dto.BulkResult{Type: kind, TotalRows: len(parsed), Rows: make([]dto.RowOutcome, 0, len(parsed))}
	for _, row := range parsed {
		outcome := dto.RowOutcome{Index: row.index, Identifier: row.identifier}
		if !row.valid() {
			outcome.Status = dto.OutcomeFailed
			outcome.Message = appErrors.Validation("invalid row", row.errs).Error()
		} else if err := s.apply(ctx, row, actor); err != nil {
			outcome.Status = dto.OutcomeFailed
			outcome.Message = appErrors.FromError(err).Error()
		} else {
			outcome.Status = dto.OutcomeSuccess
			outcome.Message = "created"
			result.SuccessCount++
		}
		if outcome.Status == dto.OutcomeFailed {
			s.logger.Debug("import row failed", zap.String("type", string(kind)), zap.Int("row", row.index), zap.String("reason", outcome.Message))
		}
		result.Rows = append(result.Rows, outcome)
	}
	result.FailureCount = result.TotalRows - result.SuccessCount
	result.Status = DeriveUploadStatus(result.TotalRows, result.SuccessCount)

	s.persistLog(ctx, result, actor)
	s.metrics.RecordImport(string(kind), result.SuccessCount, result.FailureCount)

	action := models.AuditActionBulkUploadEmployees
	noun := "employees"
	if kind == models.UploadTypeSkill {
		action = models.AuditActionBulkUploadSkills
		noun = "skills"
	}
	recordAudit(ctx, s.audit, s.logger, actor, auditEntry{
		Action:     action,
		Resource:   strings.ToLower(string(kind)),
		ResourceID: result.UploadID,
		Details:    fmt.Sprintf("Bulk uploaded %d of %d %s", result.SuccessCount, result.TotalRows, noun),
		Values: map[string]interface{}{
			"status":        result.Status,
			"total_rows":    result.TotalRows,
			"success_count": result.SuccessCount,
			"failure_count": result.FailureCount,
		},
	})
	s.logger.Info("bulk import finished",
		zap.String("type", string(kind)),
		zap.String("status", string(result.Status)),
		zap.Int("total", result.TotalRows),
		zap.Int("succeeded", result.SuccessCount),
		zap.Int("failed", result.FailureCount))
	return result, nil
}

// DeriveUploadStatus maps row counts onto the aggregate upload status.
func DeriveUploadStatus(total, succeeded int) models.UploadStatus {
	switch {
	case succeeded == total:
		return models.UploadStatusSuccess
	case succeeded == 0:
		return models.UploadStatusFailed
	default:
		return models.UploadStatusPartial
	}
}

func (s *ImportService) apply(ctx context.Context, row parsedRow, actor *models.Actor) error {
	switch {
	case row.employee != nil:
		_, err := s.employees.Create(ctx, *row.employee, actor, nil)
		return err
	case row.skill != nil:
		_, err := s.skills.Create(ctx, *row.skill, actor, nil)
		return err
	default:
		return appErrors.Clone(appErrors.ErrInternal, "row has no payload")
	}
}

func (s *ImportService) persistLog(ctx context.Context, result *dto.BulkResult, actor *models.Actor) {
	if s.uploads == nil {
		return
	}
	details := result.Rows
	if len(details) > s.detailLimit {
		details = details[:s.detailLimit]
	}
	payload, err := json.Marshal(details)
	if err != nil {
		payload = []byte("[]")
	}
	log := &models.UploadLog{
		Type:         result.Type,
		Status:       result.Status,
		TotalRows:    result.TotalRows,
		SuccessCount: result.SuccessCount,
		FailureCount: result.FailureCount,
		Details:      payload,
		UserID:       actor.ID,
	}
	if err := s.uploads.Create(ctx, log); err != nil {
		s.logger.Error("failed to persist upload log", zap.String("type", string(result.Type)), zap.Error(err))
		result.LogError = "upload log could not be saved"
		return
	}
	result.UploadID = log.ID
}

func authorizeImport(kind models.UploadType, actor *models.Actor) error {
	switch kind {
	case models.UploadTypeEmployee:
		return authorize(actor, employeeManagers...)
	case models.UploadTypeSkill:
		return authorize(actor, skillManagers...)
	default:
		return appErrors.Validation("invalid upload", map[string]string{"type": "must be EMPLOYEE or SKILL"})
	}
}

func parseEmployeeRow(row tabular.Row) parsedRow {
	out := parsedRow{index: row.Index, errs: map[string]string{}}
	req := &CreateEmployeeRequest{
		Name:       row.Get(ColumnName),
		Department: row.Get(ColumnDepartment),
	}

	number, err := identifier.Normalize(row.Get(ColumnEmployeeNumber))
	if err != nil {
		out.errs[ColumnEmployeeNumber] = "is required"
	}
	req.EmployeeNumber = number
	out.identifier = number
	if out.identifier == "" {
		out.identifier = req.Name
	}

	if req.Name == "" {
		out.errs[ColumnName] = "is required"
	}

	if raw := row.Get(ColumnDateHired); raw == "" {
		out.errs[ColumnDateHired] = "is required"
	} else if hired, ok := parseDate(raw); ok {
		req.DateHired = hired
	} else {
		out.errs[ColumnDateHired] = fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", raw)
	}

	if raw := strings.ToUpper(row.Get(ColumnShift)); raw != "" {
		if raw != string(models.ShiftDay) && raw != string(models.ShiftNight) {
			out.errs[ColumnShift] = "must be DAY or NIGHT"
		}
		req.Shift = raw
	}

	if len(out.errs) == 0 {
		out.employee = req
	}
	return out
}

func parseSkillRow(row tabular.Row) parsedRow {
	out := parsedRow{index: row.Index, errs: map[string]string{}}
	req := &CreateSkillRequest{
		Name:        row.Get(ColumnName),
		Description: row.Get(ColumnDescription),
		Project:     row.Get(ColumnProject),
	}

	code, err := identifier.Normalize(row.Get(ColumnCode))
	if err != nil {
		out.errs[ColumnCode] = "is required"
	}
	req.Code = code
	out.identifier = code
	if out.identifier == "" {
		out.identifier = req.Name
	}

	if req.Name == "" {
		out.errs[ColumnName] = "is required"
	}
	if v, msg := parseOptionalInt(row.Get(ColumnValidityMonths), 1); msg != "" {
		out.errs[ColumnValidityMonths] = msg
	} else {
		req.ValidityMonths = v
	}
	if v, msg := parseOptionalInt(row.Get(ColumnRecertReminderDays), 0); msg != "" {
		out.errs[ColumnRecertReminderDays] = msg
	} else {
		req.RecertReminderDays = v
	}

	if len(out.errs) == 0 {
		out.skill = req
	}
	return out
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func parseOptionalInt(raw string, floor int) (*int, string) {
	if raw == "" {
		return nil, ""
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Sprintf("invalid number %q", raw)
	}
	if v < floor {
		return nil, fmt.Sprintf("must be at least %d", floor)
	}
	return &v, ""
}
