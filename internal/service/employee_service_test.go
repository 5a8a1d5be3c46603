package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skillmatrix-api/internal/models"
	"github.com/noah-isme/skillmatrix-api/internal/repository"
	appErrors "github.com/noah-isme/skillmatrix-api/pkg/errors"
)

type memoryEmployees struct {
	byID      map[string]*models.Employee
	notes     []models.EmployeeNote
	createErr error
}

func newMemoryEmployees() *memoryEmployees {
	return &memoryEmployees{byID: map[string]*models.Employee{}}
}

func (m *memoryEmployees) List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, int, error) {
	out := make([]models.Employee, 0, len(m.byID))
	for _, e := range m.byID {
		out = append(out, *e)
	}
	return out, len(out), nil
}

func (m *memoryEmployees) FindByID(ctx context.Context, id string) (*models.Employee, error) {
	if e, ok := m.byID[id]; ok {
		copied := *e
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memoryEmployees) FindByNumber(ctx context.Context, number string) (*models.Employee, error) {
	for _, e := range m.byID {
		if e.EmployeeNumber == number {
			copied := *e
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memoryEmployees) ExistsByNumber(ctx context.Context, number, excludeID string) (bool, error) {
	for id, e := range m.byID {
		if e.EmployeeNumber == number && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryEmployees) Create(ctx context.Context, employee *models.Employee) error {
	if m.createErr != nil {
		return m.createErr
	}
	employee.ID = fmt.Sprintf("emp-%d", len(m.byID)+1)
	copied := *employee
	m.byID[employee.ID] = &copied
	return nil
}

func (m *memoryEmployees) Update(ctx context.Context, employee *models.Employee) error {
	copied := *employee
	m.byID[employee.ID] = &copied
	return nil
}

func (m *memoryEmployees) Departments(ctx context.Context) ([]string, error) {
	return []string{"Assembly"}, nil
}

func (m *memoryEmployees) AddNote(ctx context.Context, note *models.EmployeeNote) error {
	note.ID = fmt.Sprintf("note-%d", len(m.notes)+1)
	m.notes = append(m.notes, *note)
	return nil
}

func (m *memoryEmployees) ListNotes(ctx context.Context, employeeID string, limit int) ([]models.EmployeeNote, error) {
	var out []models.EmployeeNote
	for i := len(m.notes) - 1; i >= 0 && len(out) < limit; i-- {
		if m.notes[i].EmployeeID == employeeID {
			out = append(out, m.notes[i])
		}
	}
	return out, nil
}

func newTestEmployeeService(repo *memoryEmployees, records employeeRecordLister, store *fakeStore, audit *fakeAudit) *EmployeeService {
	return NewEmployeeService(EmployeeServiceParams{Repo: repo, Records: records, Storage: store, Audit: audit})
}

func TestEmployeeServiceCreate(t *testing.T) {
	repo := newMemoryEmployees()
	audit := &fakeAudit{}
	store := &fakeStore{}
	svc := newTestEmployeeService(repo, nil, store, audit)

	req := CreateEmployeeRequest{Name: "Ana", EmployeeNumber: " E-001 ", Department: "Assembly", Shift: "NIGHT", DateHired: date(2023, 1, 10)}
	employee, err := svc.Create(context.Background(), req, hrActor, &FileUpload{Filename: "ana.png", Data: []byte("png")})
	require.NoError(t, err)
	assert.Equal(t, "E-001", employee.EmployeeNumber)
	assert.Equal(t, models.ShiftNight, employee.Shift)
	assert.Equal(t, "/uploads/ana.png", *employee.PhotoURL)
	assert.Equal(t, []string{models.AuditActionEmployeeCreate}, audit.actions())

	req.Shift = ""
	req.EmployeeNumber = "E-002"
	employee, err = svc.Create(context.Background(), req, adminActor, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ShiftDay, employee.Shift)
	assert.Nil(t, employee.PhotoURL)
}

func TestEmployeeServiceCreateRejections(t *testing.T) {
	repo := newMemoryEmployees()
	svc := newTestEmployeeService(repo, nil, &fakeStore{}, &fakeAudit{})
	ctx := context.Background()
	req := CreateEmployeeRequest{Name: "Ana", EmployeeNumber: "E-001", DateHired: date(2023, 1, 10)}

	_, err := svc.Create(ctx, req, trainerActor, nil)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.Create(ctx, CreateEmployeeRequest{EmployeeNumber: "E-009"}, hrActor, nil)
	require.ErrorIs(t, err, appErrors.ErrValidation)
	fields := appErrors.FromError(err).Fields
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "dateHired")

	_, err = svc.Create(ctx, req, hrActor, nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, req, hrActor, nil)
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	repo.createErr = repository.ErrDuplicate
	req.EmployeeNumber = "E-002"
	_, err = svc.Create(ctx, req, hrActor, nil)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestEmployeeServiceCreatePhotoFailureWritesNothing(t *testing.T) {
	repo := newMemoryEmployees()
	audit := &fakeAudit{}
	svc := newTestEmployeeService(repo, nil, &fakeStore{err: errors.New("disk full")}, audit)

	req := CreateEmployeeRequest{Name: "Ana", EmployeeNumber: "E-001", DateHired: date(2023, 1, 10)}
	_, err := svc.Create(context.Background(), req, hrActor, &FileUpload{Filename: "ana.png", Data: []byte("png")})
	assert.ErrorIs(t, err, appErrors.ErrStorage)
	assert.Empty(t, repo.byID)
	assert.Empty(t, audit.logs)
}

func TestEmployeeServiceUpdate(t *testing.T) {
	repo := newMemoryEmployees()
	svc := newTestEmployeeService(repo, nil, &fakeStore{}, &fakeAudit{})
	ctx := context.Background()

	base := CreateEmployeeRequest{Name: "Ana", EmployeeNumber: "E-001", DateHired: date(2023, 1, 10)}
	_, err := svc.Create(ctx, base, hrActor, &FileUpload{Filename: "old.png", Data: []byte("x")})
	require.NoError(t, err)
	other := base
	other.EmployeeNumber = "E-002"
	_, err = svc.Create(ctx, other, hrActor, nil)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "E-001", UpdateEmployeeRequest{Name: "Ana Maria", EmployeeNumber: "E-001", Department: "Paint", DateHired: date(2023, 1, 10)}, hrActor, nil)
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", updated.Name)
	assert.Equal(t, "/uploads/old.png", *updated.PhotoURL)

	_, err = svc.Update(ctx, "E-001", UpdateEmployeeRequest{Name: "Ana", EmployeeNumber: "E-002", DateHired: date(2023, 1, 10)}, hrActor, nil)
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = svc.Update(ctx, "E-404", base, hrActor, nil)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestEmployeeServiceProfile(t *testing.T) {
	repo := newMemoryEmployees()
	records := newMemoryRecords()
	svc := newTestEmployeeService(repo, records, &fakeStore{}, &fakeAudit{})
	svc.now = func() time.Time { return date(2024, 6, 1) }
	ctx := context.Background()

	employee, err := svc.Create(ctx, CreateEmployeeRequest{Name: "Ana", EmployeeNumber: "E-001", DateHired: date(2023, 1, 10)}, hrActor, nil)
	require.NoError(t, err)
	_, err = records.Upsert(ctx, &models.TrainingRecord{EmployeeID: employee.ID, SkillID: "sk1", Level: 2, DateValidated: date(2024, 1, 1)})
	require.NoError(t, err)

	note, err := svc.AddNote(ctx, "E-001", AddNoteRequest{Content: "Prefers night shift"}, trainerActor)
	require.NoError(t, err)
	assert.Equal(t, "trainer-1", note.AuthorID)

	_, err = svc.AddNote(ctx, "E-001", AddNoteRequest{Content: "x"}, dccActor)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	_, err = svc.AddNote(ctx, "E-001", AddNoteRequest{}, trainerActor)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	profile, err := svc.Profile(ctx, "E-001")
	require.NoError(t, err)
	assert.Equal(t, "Ana", profile.Employee.Name)
	require.Len(t, profile.Records, 1)
	assert.Nil(t, profile.Records[0].Recertification)
	require.Len(t, profile.Notes, 1)
	assert.Equal(t, "Prefers night shift", profile.Notes[0].Content)

	_, err = svc.Profile(ctx, "   ")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
