package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skillmatrix-api/internal/models"
	"github.com/noah-isme/skillmatrix-api/internal/repository"
	appErrors "github.com/noah-isme/skillmatrix-api/pkg/errors"
)

type memoryAssignmentRepo struct {
	items    map[string]*models.TrainingAssignment
	reminded map[string]time.Time
}

func newMemoryAssignmentRepo() *memoryAssignmentRepo {
	return &memoryAssignmentRepo{items: map[string]*models.TrainingAssignment{}, reminded: map[string]time.Time{}}
}

func (m *memoryAssignmentRepo) Create(ctx context.Context, a *models.TrainingAssignment) error {
	for _, existing := range m.items {
		if existing.EmployeeID == a.EmployeeID && existing.SkillID == a.SkillID && existing.Status != models.AssignmentCompleted {
			return repository.ErrDuplicate
		}
	}
	a.ID = fmt.Sprintf("asg-%d", len(m.items)+1)
	copied := *a
	m.items[a.ID] = &copied
	return nil
}

func (m *memoryAssignmentRepo) FindByID(ctx context.Context, id string) (*models.TrainingAssignment, error) {
	if a, ok := m.items[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memoryAssignmentRepo) List(ctx context.Context, filter models.AssignmentFilter) ([]models.TrainingAssignmentDetail, int, error) {
	var out []models.TrainingAssignmentDetail
	for _, a := range m.items {
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		out = append(out, models.TrainingAssignmentDetail{TrainingAssignment: *a})
	}
	return out, len(out), nil
}

func (m *memoryAssignmentRepo) UpdateStatus(ctx context.Context, id string, status models.AssignmentStatus) error {
	m.items[id].Status = status
	return nil
}

func (m *memoryAssignmentRepo) MarkReminderSent(ctx context.Context, id string, at time.Time) error {
	m.reminded[id] = at
	return nil
}

func newTestAssignmentService(repo *memoryAssignmentRepo, audit *fakeAudit) *AssignmentService {
	employees := &stubEmployeeReader{employees: map[string]*models.Employee{"e1": {ID: "e1", Name: "Ana", EmployeeNumber: "E-001"}}}
	skills := &stubSkillReader{skills: map[string]*models.Skill{"sk1": {ID: "sk1", Code: "WLD-01"}}}
	svc := NewAssignmentService(repo, employees, skills, audit, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestAssignmentLifecycle(t *testing.T) {
	repo := newMemoryAssignmentRepo()
	audit := &fakeAudit{}
	svc := newTestAssignmentService(repo, audit)
	ctx := context.Background()

	assignment, err := svc.Create(ctx, CreateAssignmentRequest{EmployeeID: "e1", SkillID: "sk1", TargetLevel: 3, DueDate: date(2024, 5, 1)}, trainerActor)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentPending, assignment.Status)
	assert.Equal(t, "trainer-1", assignment.AssignedByID)

	reminded, err := svc.Remind(ctx, assignment.ID, adminActor)
	require.NoError(t, err)
	require.NotNil(t, reminded.LastReminderSentAt)
	assert.Equal(t, time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC), repo.reminded[assignment.ID])

	done, err := svc.UpdateStatus(ctx, assignment.ID, UpdateAssignmentStatusRequest{Status: "COMPLETED"}, trainerActor)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentCompleted, done.Status)

	_, err = svc.Remind(ctx, assignment.ID, adminActor)
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	assert.Equal(t, []string{
		models.AuditActionAssignmentCreate,
		models.AuditActionAssignmentRemind,
		models.AuditActionAssignmentComplete,
	}, audit.actions())

	items, page, err := svc.List(ctx, models.AssignmentFilter{Status: models.AssignmentCompleted})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, page.TotalCount)
}

func TestAssignmentRejections(t *testing.T) {
	repo := newMemoryAssignmentRepo()
	svc := newTestAssignmentService(repo, &fakeAudit{})
	ctx := context.Background()
	valid := CreateAssignmentRequest{EmployeeID: "e1", SkillID: "sk1", TargetLevel: 2, DueDate: date(2024, 5, 1)}

	_, err := svc.Create(ctx, valid, hrActor)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	bad := valid
	bad.TargetLevel = 7
	_, err = svc.Create(ctx, bad, adminActor)
	require.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Contains(t, appErrors.FromError(err).Fields, "targetLevel")

	missing := valid
	missing.SkillID = "nope"
	_, err = svc.Create(ctx, missing, adminActor)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.UpdateStatus(ctx, "asg-404", UpdateAssignmentStatusRequest{Status: "IN_PROGRESS"}, adminActor)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.UpdateStatus(ctx, "asg-404", UpdateAssignmentStatusRequest{Status: "DONE"}, adminActor)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	assert.Empty(t, repo.items)
}

func TestAssignmentCreateRejectsSecondOpenAssignment(t *testing.T) {
	repo := newMemoryAssignmentRepo()
	svc := newTestAssignmentService(repo, &fakeAudit{})
	ctx := context.Background()
	req := CreateAssignmentRequest{EmployeeID: "e1", SkillID: "sk1", TargetLevel: 2, DueDate: date(2024, 5, 1)}

	first, err := svc.Create(ctx, req, trainerActor)
	require.NoError(t, err)
	_, err = svc.Create(ctx, req, trainerActor)
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = svc.UpdateStatus(ctx, first.ID, UpdateAssignmentStatusRequest{Status: "COMPLETED"}, trainerActor)
	require.NoError(t, err)
	_, err = svc.Create(ctx, req, trainerActor)
	assert.NoError(t, err)
}
