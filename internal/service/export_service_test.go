package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skillmatrix-api/internal/dto"
	"github.com/noah-isme/skillmatrix-api/internal/models"
	appErrors "github.com/noah-isme/skillmatrix-api/pkg/errors"
	"github.com/noah-isme/skillmatrix-api/pkg/export"
)

type stubMatrixEmployees struct {
	employees []models.Employee
	filter    models.EmployeeFilter
}

func (s *stubMatrixEmployees) ListAll(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, error) {
	s.filter = filter
	return s.employees, nil
}

type stubMatrixSkills struct {
	skills []models.Skill
}

func (s stubMatrixSkills) ListAll(context.Context) ([]models.Skill, error) { return s.skills, nil }

type stubMatrixRecords struct {
	records []models.TrainingRecordDetail
}

func (s stubMatrixRecords) ListForEmployees(ctx context.Context, ids []string) ([]models.TrainingRecordDetail, error) {
	return s.records, nil
}

type stubProfiles struct {
	profile *EmployeeProfile
}

func (s stubProfiles) Profile(ctx context.Context, number string) (*EmployeeProfile, error) {
	if s.profile == nil || s.profile.Employee.EmployeeNumber != number {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
	}
	return s.profile, nil
}

type capturePDF struct {
	card export.Card
}

func (c *capturePDF) Render(card export.Card) ([]byte, error) {
	c.card = card
	return []byte("%PDF-1.3"), nil
}

func matrixRecord(employeeID, code string, level int) models.TrainingRecordDetail {
	return models.TrainingRecordDetail{
		TrainingRecord: models.TrainingRecord{EmployeeID: employeeID, Level: level},
		SkillCode:      code,
	}
}

func newTestExportService(employees *stubMatrixEmployees, profile *EmployeeProfile, pdf *capturePDF) *ExportService {
	params := ExportServiceParams{
		Employees: employees,
		Skills:    stubMatrixSkills{skills: []models.Skill{{Code: "WLD-01", Name: "Welding"}, {Code: "PNT-01", Name: "Painting"}}},
		Records:   stubMatrixRecords{records: []models.TrainingRecordDetail{matrixRecord("e1", "WLD-01", 3), matrixRecord("e2", "PNT-01", 1)}},
		Profiles:  stubProfiles{profile: profile},
	}
	if pdf != nil {
		params.PDF = pdf
	}
	svc := NewExportService(params)
	svc.now = func() time.Time { return date(2024, 6, 1) }
	return svc
}

func TestExportMatrixFilterAndLevels(t *testing.T) {
	employees := &stubMatrixEmployees{employees: []models.Employee{
		{ID: "e1", Name: "Ana", EmployeeNumber: "E-001", Shift: models.ShiftDay},
		{ID: "e2", Name: "Budi", EmployeeNumber: "E-002", Shift: models.ShiftNight},
	}}
	svc := newTestExportService(employees, nil, nil)

	matrix, err := svc.Matrix(context.Background(), dto.MatrixFilter{Department: "All", Shift: "night"})
	require.NoError(t, err)
	assert.Empty(t, employees.filter.Department)
	assert.Equal(t, models.ShiftNight, employees.filter.Shift)
	require.Len(t, matrix.Skills, 2)
	require.Len(t, matrix.Rows, 2)
	assert.Equal(t, 3, matrix.Rows[0].Levels["WLD-01"])
	assert.NotContains(t, matrix.Rows[0].Levels, "PNT-01")

	_, err = svc.Matrix(context.Background(), dto.MatrixFilter{Department: "Paint", Shift: "evening"})
	require.NoError(t, err)
	assert.Equal(t, "Paint", employees.filter.Department)
	assert.Empty(t, employees.filter.Shift)
}

func TestExportSkillMatrixCSV(t *testing.T) {
	employees := &stubMatrixEmployees{employees: []models.Employee{
		{ID: "e1", Name: "Ana", EmployeeNumber: "E-001"},
		{ID: "e2", Name: "Budi", EmployeeNumber: "E-002"},
	}}
	svc := newTestExportService(employees, nil, nil)

	file, err := svc.SkillMatrixCSV(context.Background(), dto.MatrixFilter{})
	require.NoError(t, err)
	assert.Equal(t, "skill-matrix-export.csv", file.Filename)
	assert.Equal(t, csvContentType, file.ContentType)

	lines := strings.Split(strings.TrimSpace(string(file.Body)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `"Employee Number","Employee Name","WLD-01 (Welding)","PNT-01 (Painting)"`, lines[0])
	assert.Equal(t, `"E-001","Ana","L3",""`, lines[1])
	assert.Equal(t, `"E-002","Budi","","L1"`, lines[2])
}

func exportProfile() *EmployeeProfile {
	validator := "trainer-1"
	return &EmployeeProfile{
		Employee: models.Employee{ID: "e1", Name: "Ana", EmployeeNumber: "E-001", Shift: models.ShiftDay, DateHired: date(2022, 2, 1)},
		Records: []RecordStatus{
			{
				TrainingRecordDetail: models.TrainingRecordDetail{
					TrainingRecord:    models.TrainingRecord{Level: 3, DateValidated: date(2024, 1, 15)},
					SkillCode:         "WLD-01",
					SkillName:         "Welding",
					ValidatorUsername: &validator,
				},
				Recertification: &models.RecertificationResult{ExpirationDate: date(2025, 1, 15), Status: models.RecertCurrent},
			},
			{
				TrainingRecordDetail: models.TrainingRecordDetail{
					TrainingRecord: models.TrainingRecord{Level: 1, DateValidated: date(2023, 9, 1)},
					SkillCode:      "PNT-01",
					SkillName:      "Painting",
				},
			},
		},
	}
}

func TestExportTrainingHistoryCSV(t *testing.T) {
	svc := newTestExportService(&stubMatrixEmployees{}, exportProfile(), nil)

	file, err := svc.TrainingHistoryCSV(context.Background(), "E-001")
	require.NoError(t, err)
	assert.Equal(t, "E-001-training.csv", file.Filename)

	body := string(file.Body)
	assert.True(t, strings.HasPrefix(body, `"Employee Number","Employee Name","Skill Code"`))
	assert.Contains(t, body, `"E-001","Ana","WLD-01","Welding","3","trainer-1","2024-01-15T00:00:00Z","2025-01-15","CURRENT",""`)
	assert.Contains(t, body, `"PNT-01","Painting","1","","2023-09-01T00:00:00Z","","",""`)

	_, err = svc.TrainingHistoryCSV(context.Background(), "E-404")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestExportQualificationCard(t *testing.T) {
	pdf := &capturePDF{}
	svc := newTestExportService(&stubMatrixEmployees{}, exportProfile(), pdf)

	file, err := svc.QualificationCard(context.Background(), "E-001")
	require.NoError(t, err)
	assert.Equal(t, "E-001-qualification-card.pdf", file.Filename)
	assert.Equal(t, pdfContentType, file.ContentType)
	assert.Equal(t, "Qualification Card", pdf.card.Title)
	assert.Contains(t, pdf.card.Fields, [2]string{"Issued", "2024-06-01"})
	require.Len(t, pdf.card.Table.Rows, 2)
	assert.Equal(t, "L3", pdf.card.Table.Rows[0]["Level"])
	assert.Equal(t, "-", pdf.card.Table.Rows[1]["Expires"])
}

func TestExportQualificationCardRendersRealPDF(t *testing.T) {
	svc := newTestExportService(&stubMatrixEmployees{}, exportProfile(), nil)

	file, err := svc.QualificationCard(context.Background(), "E-001")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(file.Body), "%PDF"))
}
