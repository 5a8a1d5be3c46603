package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/skillmatrix-api/internal/dto"
	"github.com/noah-isme/skillmatrix-api/internal/models"
	appErrors "github.com/noah-isme/skillmatrix-api/pkg/errors"
	"github.com/noah-isme/skillmatrix-api/pkg/export"
)

const (
	csvContentType = "text/csv; charset=utf-8"
	pdfContentType = "application/pdf"
	exportDate     = "2006-01-02"
)

type matrixEmployeeLister interface {
	ListAll(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, error)
}

type matrixSkillLister interface {
	ListAll(ctx context.Context) ([]models.Skill, error)
}

type matrixRecordLister interface {
	ListForEmployees(ctx context.Context, employeeIDs []string) ([]models.TrainingRecordDetail, error)
}

type profileReader interface {
	Profile(ctx context.Context, number string) (*EmployeeProfile, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(card export.Card) ([]byte, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportServiceParams groups ExportService dependencies.
type ExportServiceParams struct {
	Employees matrixEmployeeLister
	Skills    matrixSkillLister
	Records   matrixRecordLister
	Profiles  profileReader
	CSV       csvRenderer
	PDF       pdfRenderer
	Logger    *zap.Logger
}

// ExportService builds the skill matrix and renders CSV and PDF downloads.
type ExportService struct {
	employees matrixEmployeeLister
	skills    matrixSkillLister
	records   matrixRecordLister
	profiles  profileReader
	csv       csvRenderer
	pdf       pdfRenderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(params ExportServiceParams) *ExportService {
	if params.CSV == nil {
		params.CSV = export.NewCSVExporter()
	}
	if params.PDF == nil {
		params.PDF = export.NewPDFExporter()
	}
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	return &ExportService{
		employees: params.Employees,
		skills:    params.Skills,
		records:   params.Records,
		profiles:  params.Profiles,
		csv:       params.CSV,
		pdf:       params.PDF,
		logger:    params.Logger,
		now:       time.Now,
	}
}

// Matrix returns every skill as a column and every matching employee as a row
// holding the level per skill code.
func (s *ExportService) Matrix(ctx context.Context, filter dto.MatrixFilter) (*dto.SkillMatrix, error) {
	empFilter := models.EmployeeFilter{Query: strings.TrimSpace(filter.Query)}
	if dept := strings.TrimSpace(filter.Department); dept != "" && !strings.EqualFold(dept, "all") {
		empFilter.Department = dept
	}
	switch shift := models.Shift(strings.ToUpper(filter.Shift)); shift {
	case models.ShiftDay, models.ShiftNight:
		empFilter.Shift = shift
	}

	skills, err := s.skills.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load skills")
	}
	employees, err := s.employees.ListAll(ctx, empFilter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employees")
	}
	ids := make([]string, len(employees))
	for i, e := range employees {
		ids[i] = e.ID
	}
	records, err := s.records.ListForEmployees(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load training records")
	}

	levels := make(map[string]map[string]int, len(employees))
	for _, r := range records {
		if levels[r.EmployeeID] == nil {
			levels[r.EmployeeID] = make(map[string]int)
		}
		levels[r.EmployeeID][r.SkillCode] = r.Level
	}

	matrix := &dto.SkillMatrix{
		Skills: make([]dto.MatrixSkill, len(skills)),
		Rows:   make([]dto.MatrixRow, len(employees)),
	}
	for i, sk := range skills {
		matrix.Skills[i] = dto.MatrixSkill{Code: sk.Code, Name: sk.Name}
	}
	for i, e := range employees {
		row := levels[e.ID]
		if row == nil {
			row = map[string]int{}
		}
		matrix.Rows[i] = dto.MatrixRow{
			EmployeeID:     e.ID,
			EmployeeName:   e.Name,
			EmployeeNumber: e.EmployeeNumber,
			Department:     derefString(e.Department),
			Shift:          string(e.Shift),
			Levels:         row,
		}
	}
	return matrix, nil
}

// SkillMatrixCSV renders the filtered matrix with one L<level> cell per skill.
func (s *ExportService) SkillMatrixCSV(ctx context.Context, filter dto.MatrixFilter) (*ExportFile, error) {
	matrix, err := s.Matrix(ctx, filter)
	if err != nil {
		return nil, err
	}
	headers := []string{"Employee Number", "Employee Name"}
	columns := make([]string, len(matrix.Skills))
	for i, sk := range matrix.Skills {
		columns[i] = fmt.Sprintf("%s (%s)", sk.Code, sk.Name)
	}
	headers = append(headers, columns...)

	data := export.Dataset{Headers: headers, Rows: make([]map[string]string, 0, len(matrix.Rows))}
	for _, row := range matrix.Rows {
		line := map[string]string{
			"Employee Number": row.EmployeeNumber,
			"Employee Name":   row.EmployeeName,
		}
		for i, sk := range matrix.Skills {
			if level, ok := row.Levels[sk.Code]; ok {
				line[columns[i]] = "L" + strconv.Itoa(level)
			}
		}
		data.Rows = append(data.Rows, line)
	}
	return s.renderCSV("skill-matrix-export.csv", data)
}

var historyHeaders = []string{"Employee Number", "Employee Name", "Skill Code", "Skill Name", "Level", "Validator", "Date Validated", "Expiration Date", "Status", "Notes"}

// TrainingHistoryCSV renders every training record of one employee.
func (s *ExportService) TrainingHistoryCSV(ctx context.Context, employeeNumber string) (*ExportFile, error) {
	profile, err := s.profiles.Profile(ctx, employeeNumber)
	if err != nil {
		return nil, err
	}
	data := export.Dataset{Headers: historyHeaders, Rows: make([]map[string]string, 0, len(profile.Records))}
	for _, rec := range profile.Records {
		row := map[string]string{
			"Employee Number": profile.Employee.EmployeeNumber,
			"Employee Name":   profile.Employee.Name,
			"Skill Code":      rec.SkillCode,
			"Skill Name":      rec.SkillName,
			"Level":           strconv.Itoa(rec.Level),
			"Validator":       derefString(rec.ValidatorUsername),
			"Date Validated":  rec.DateValidated.UTC().Format(time.RFC3339),
			"Notes":           derefString(rec.ValidatorNotes),
		}
		if rec.Recertification != nil {
			row["Expiration Date"] = rec.Recertification.ExpirationDate.Format(exportDate)
			row["Status"] = string(rec.Recertification.Status)
		}
		data.Rows = append(data.Rows, row)
	}
	return s.renderCSV(profile.Employee.EmployeeNumber+"-training.csv", data)
}

// QualificationCard renders a printable PDF listing the employee's
// qualifications and their recertification state.
func (s *ExportService) QualificationCard(ctx context.Context, employeeNumber string) (*ExportFile, error) {
	profile, err := s.profiles.Profile(ctx, employeeNumber)
	if err != nil {
		return nil, err
	}
	card := export.Card{
		Title: "Qualification Card",
		Fields: [][2]string{
			{"Name", profile.Employee.Name},
			{"Employee Number", profile.Employee.EmployeeNumber},
			{"Department", derefString(profile.Employee.Department)},
			{"Shift", string(profile.Employee.Shift)},
			{"Date Hired", profile.Employee.DateHired.Format(exportDate)},
			{"Issued", s.now().UTC().Format(exportDate)},
		},
		Table: export.Dataset{Headers: []string{"Skill", "Name", "Level", "Validated", "Expires", "Status"}},
	}
	for _, rec := range profile.Records {
		row := map[string]string{
			"Skill":     rec.SkillCode,
			"Name":      rec.SkillName,
			"Level":     "L" + strconv.Itoa(rec.Level),
			"Validated": rec.DateValidated.Format(exportDate),
			"Expires":   "-",
			"Status":    "-",
		}
		if rec.Recertification != nil {
			row["Expires"] = rec.Recertification.ExpirationDate.Format(exportDate)
			row["Status"] = string(rec.Recertification.Status)
		}
		card.Table.Rows = append(card.Table.Rows, row)
	}
	body, err := s.pdf.Render(card)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render qualification card")
	}
	return &ExportFile{Filename: profile.Employee.EmployeeNumber + "-qualification-card.pdf", ContentType: pdfContentType, Body: body}, nil
}

func (s *ExportService) renderCSV(filename string, data export.Dataset) (*ExportFile, error) {
	body, err := s.csv.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	s.logger.Debug("csv rendered", zap.String("file", filename), zap.Int("rows", len(data.Rows)))
	return &ExportFile{Filename: filename, ContentType: csvContentType, Body: body}, nil
}
