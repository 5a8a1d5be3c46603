package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skillmatrix-api/internal/dto"
	"github.com/noah-isme/skillmatrix-api/internal/middleware"
	"github.com/noah-isme/skillmatrix-api/internal/models"
	"github.com/noah-isme/skillmatrix-api/internal/service"
	appErrors "github.com/noah-isme/skillmatrix-api/pkg/errors"
)

type responseEnvelope struct {
	Data  json.RawMessage        `json:"data"`
	Meta  map[string]interface{} `json:"meta"`
	Error *appErrors.Error       `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var env responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func multipartBody(t *testing.T, fields map[string]string, fileField, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileField != "" {
		part, err := w.CreateFormFile(fileField, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func withActor(c *gin.Context, role models.UserRole) {
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-" + string(role), Username: "user", Role: role})
}

type fakeTrainingSrv struct {
	req      service.ValidateTrainingRequest
	actor    *models.Actor
	evidence *service.FileUpload
	created  bool
}

func (f *fakeTrainingSrv) Validate(ctx context.Context, req service.ValidateTrainingRequest, actor *models.Actor, evidence *service.FileUpload) (*service.ValidationResult, error) {
	f.req, f.actor, f.evidence = req, actor, evidence
	return &service.ValidationResult{Record: &models.TrainingRecord{ID: "rec-1", Level: req.Level}, Created: f.created}, nil
}

func (f *fakeTrainingSrv) History(ctx context.Context, employeeID string) ([]models.TrainingRecordDetail, error) {
	return nil, nil
}

func TestTrainingValidateMultipart(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeTrainingSrv{created: true}
	h := NewTrainingHandler(srv, 0)

	body, contentType := multipartBody(t, map[string]string{"employee_id": "e1", "skill_id": "sk1", "level": "3", "notes": "ok"}, "evidence", "cert.jpg", []byte("jpeg"))
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/training/validate", body)
	c.Request.Header.Set("Content-Type", contentType)
	withActor(c, models.RoleTrainer)

	h.Validate(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 3, srv.req.Level)
	assert.Equal(t, "u-TRAINER", srv.actor.ID)
	require.NotNil(t, srv.evidence)
	assert.Equal(t, "cert.jpg", srv.evidence.Filename)
	assert.Equal(t, []byte("jpeg"), srv.evidence.Data)
}

func TestTrainingValidateJSONUpdate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeTrainingSrv{}
	h := NewTrainingHandler(srv, 0)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/training/validate", bytes.NewBufferString(`{"employee_id":"e1","skill_id":"sk1","level":2}`))
	c.Request.Header.Set("Content-Type", "application/json")
	withActor(c, models.RoleTrainer)

	h.Validate(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, srv.evidence)
}

func TestReadUploadRejectsOversizedFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	body, contentType := multipartBody(t, nil, "photo", "big.png", bytes.Repeat([]byte("x"), 64))
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/", body)
	c.Request.Header.Set("Content-Type", contentType)

	_, err := readUpload(c, "photo", 16)
	require.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Contains(t, appErrors.FromError(err).Fields, "photo")
}

type fakeImportSrv struct {
	content string
}

func (f *fakeImportSrv) ImportEmployees(ctx context.Context, r io.Reader, actor *models.Actor) (*dto.BulkResult, error) {
	raw, _ := io.ReadAll(r)
	f.content = string(raw)
	return &dto.BulkResult{Type: models.UploadTypeEmployee, Status: models.UploadStatusSuccess, TotalRows: 1, SuccessCount: 1}, nil
}

func (f *fakeImportSrv) ImportSkills(ctx context.Context, r io.Reader, actor *models.Actor) (*dto.BulkResult, error) {
	return f.ImportEmployees(ctx, r, actor)
}

func TestImportHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeImportSrv{}
	h := NewImportHandler(srv, 0)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/imports/employees", nil)
	h.Employees(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec).Error.Fields, "file")

	csv := "name,employeeNumber,dateHired\nAna,E-1,2024-01-01\n"
	body, contentType := multipartBody(t, nil, "file", "employees.csv", []byte(csv))
	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/imports/employees", body)
	c.Request.Header.Set("Content-Type", contentType)
	withActor(c, models.RoleHR)
	h.Employees(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, csv, srv.content)
}

type fakeExportSrv struct{}

func (fakeExportSrv) Matrix(ctx context.Context, filter dto.MatrixFilter) (*dto.SkillMatrix, error) {
	return &dto.SkillMatrix{Skills: []dto.MatrixSkill{{Code: "WLD-01"}}}, nil
}

func (fakeExportSrv) SkillMatrixCSV(ctx context.Context, filter dto.MatrixFilter) (*service.ExportFile, error) {
	return &service.ExportFile{Filename: "skill-matrix-export.csv", ContentType: "text/csv; charset=utf-8", Body: []byte(`"a"` + "\n")}, nil
}

func (fakeExportSrv) TrainingHistoryCSV(ctx context.Context, number string) (*service.ExportFile, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
}

func (fakeExportSrv) QualificationCard(ctx context.Context, number string) (*service.ExportFile, error) {
	return &service.ExportFile{Filename: number + "-qualification-card.pdf", ContentType: "application/pdf", Body: []byte("%PDF")}, nil
}

func TestExportHandlerDownloads(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewExportHandler(fakeExportSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/exports/matrix.csv?department=all", nil)
	h.MatrixCSV(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="skill-matrix-export.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/exports/employees/E-404/training.csv", nil)
	c.Params = gin.Params{{Key: "number", Value: "E-404"}}
	h.TrainingHistory(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type fakeDashboardSrv struct {
	hit bool
}

func (f fakeDashboardSrv) Stats(context.Context) (*dto.DashboardStats, bool, error) {
	return &dto.DashboardStats{Employees: 12}, f.hit, nil
}

func TestDashboardHandlerReportsCacheHit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewDashboardHandler(fakeDashboardSrv{hit: true})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	h.Stats(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.Contains(t, env.Meta, "processing_time_ms")
	assert.JSONEq(t, "12", string(extractField(t, env.Data, "employees")))
}

func extractField(t *testing.T, raw json.RawMessage, key string) json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &m))
	return m[key]
}

type fakeComplianceSrv struct {
	filter service.ComplianceFilter
}

func (f *fakeComplianceSrv) ActionNeeded(ctx context.Context, filter service.ComplianceFilter) (*dto.ComplianceReport, error) {
	f.filter = filter
	return &dto.ComplianceReport{Items: []dto.ComplianceItem{}}, nil
}

func TestComplianceHandlerFilters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeComplianceSrv{}
	h := NewComplianceHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/compliance/action-needed?status=current", nil)
	h.ActionNeeded(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/compliance/action-needed?status=overdue&department=All", nil)
	h.ActionNeeded(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.RecertOverdue, srv.filter.Status)
	assert.Empty(t, srv.filter.Department)
}
