package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skillmatrix-api/internal/dto"
	"github.com/noah-isme/skillmatrix-api/internal/models"
	"github.com/noah-isme/skillmatrix-api/internal/repository"
	appErrors "github.com/noah-isme/skillmatrix-api/pkg/errors"
)

// memorySkills mirrors the transactional repository: a skill and its
// revisions change together or not at all.
type memorySkills struct {
	skills    map[string]*models.Skill
	revisions map[string][]models.SkillRevision
	createErr error
}

func newMemorySkills() *memorySkills {
	return &memorySkills{skills: map[string]*models.Skill{}, revisions: map[string][]models.SkillRevision{}}
}

func (m *memorySkills) List(ctx context.Context, filter models.SkillFilter) ([]models.Skill, int, error) {
	out := make([]models.Skill, 0, len(m.skills))
	for _, s := range m.skills {
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (m *memorySkills) FindByCode(ctx context.Context, code string) (*models.Skill, error) {
	for _, s := range m.skills {
		if s.Code == code {
			copied := *s
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memorySkills) ExistsByCode(ctx context.Context, code string) (bool, error) {
	_, err := m.FindByCode(ctx, code)
	return err == nil, nil
}

func (m *memorySkills) CreateWithRevision(ctx context.Context, skill *models.Skill, createdBy *string) (*models.SkillRevision, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	skill.ID = fmt.Sprintf("sk-%d", len(m.skills)+1)
	rev := models.SkillRevision{ID: skill.ID + "-r1", SkillID: skill.ID, RevisionNumber: 1, Name: skill.Name, CreatedBy: createdBy}
	skill.CurrentRevisionNumber = 1
	skill.CurrentRevisionID = &rev.ID
	copied := *skill
	m.skills[skill.ID] = &copied
	m.revisions[skill.ID] = []models.SkillRevision{rev}
	return &rev, nil
}

func (m *memorySkills) PublishRevision(ctx context.Context, skillID string, spec models.SkillSpec, createdBy *string) (*models.Skill, *models.SkillRevision, error) {
	skill, ok := m.skills[skillID]
	if !ok {
		return nil, nil, sql.ErrNoRows
	}
	next := skill.CurrentRevisionNumber + 1
	rev := models.SkillRevision{
		ID:             fmt.Sprintf("%s-r%d", skillID, next),
		SkillID:        skillID,
		RevisionNumber: next,
		Name:           spec.Name,
		ValidityMonths: spec.ValidityMonths,
		CreatedBy:      createdBy,
	}
	skill.Name = spec.Name
	skill.ValidityMonths = spec.ValidityMonths
	skill.CurrentRevisionNumber = next
	skill.CurrentRevisionID = &rev.ID
	m.revisions[skillID] = append(m.revisions[skillID], rev)
	copied := *skill
	return &copied, &rev, nil
}

func (m *memorySkills) ListRevisions(ctx context.Context, skillID string) ([]models.SkillRevision, error) {
	revs := m.revisions[skillID]
	out := make([]models.SkillRevision, len(revs))
	for i := range revs {
		out[i] = revs[len(revs)-1-i]
	}
	return out, nil
}

func (m *memorySkills) Projects(ctx context.Context) ([]string, error) {
	return []string{"Assembly"}, nil
}

type stubCascader struct {
	calls  int
	result *dto.CascadeResult
	err    error
}

func (s *stubCascader) Cascade(ctx context.Context, skillCode string, revisionNumber int, actor *models.Actor) (*dto.CascadeResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.result != nil {
		return s.result, nil
	}
	return &dto.CascadeResult{SkillCode: skillCode, RevisionNumber: revisionNumber}, nil
}

func newTestSkillService(repo *memorySkills, cascade retrainingCascader, store *fakeStore, audit *fakeAudit, cache *fakeInvalidator) *SkillService {
	return NewSkillService(SkillServiceParams{Repo: repo, Cascade: cascade, Storage: store, Audit: audit, Cache: cache})
}

// assertRevisionInvariant checks that the pointer refers to the highest
// numbered revision and that numbers run 1..n without gaps.
func assertRevisionInvariant(t *testing.T, repo *memorySkills, skillID string) {
	t.Helper()
	skill := repo.skills[skillID]
	revs := repo.revisions[skillID]
	require.NotEmpty(t, revs)
	for i, r := range revs {
		assert.Equal(t, i+1, r.RevisionNumber)
	}
	last := revs[len(revs)-1]
	assert.Equal(t, last.RevisionNumber, skill.CurrentRevisionNumber)
	require.NotNil(t, skill.CurrentRevisionID)
	assert.Equal(t, last.ID, *skill.CurrentRevisionID)
}

func TestSkillServiceCreate(t *testing.T) {
	repo := newMemorySkills()
	audit := &fakeAudit{}
	store := &fakeStore{}
	cache := &fakeInvalidator{}
	svc := newTestSkillService(repo, nil, store, audit, cache)

	skill, err := svc.Create(context.Background(), CreateSkillRequest{Code: "  WLD-01 ", Name: "Welding", ValidityMonths: intPtr(12)}, dccActor, &FileUpload{Filename: "sop.pdf", Data: []byte("%PDF")})
	require.NoError(t, err)
	assert.Equal(t, "WLD-01", skill.Code)
	assert.Equal(t, "/uploads/sop.pdf", *skill.DocumentURL)
	assertRevisionInvariant(t, repo, skill.ID)
	assert.Equal(t, []string{models.AuditActionSkillCreate}, audit.actions())
	assert.ElementsMatch(t, []string{complianceCachePattern, dashboardCachePattern}, cache.patterns)
}

func TestSkillServiceCreateRejections(t *testing.T) {
	repo := newMemorySkills()
	svc := newTestSkillService(repo, nil, &fakeStore{}, &fakeAudit{}, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateSkillRequest{Code: "A", Name: "A"}, trainerActor, nil)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.Create(ctx, CreateSkillRequest{Code: "A"}, adminActor, nil)
	require.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Contains(t, appErrors.FromError(err).Fields, "name")

	_, err = svc.Create(ctx, CreateSkillRequest{Code: "A", Name: "A"}, adminActor, nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateSkillRequest{Code: "A", Name: "Again"}, adminActor, nil)
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	repo.createErr = repository.ErrDuplicate
	_, err = svc.Create(ctx, CreateSkillRequest{Code: "B", Name: "Race"}, adminActor, nil)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestSkillServiceCreateStorageFailureWritesNothing(t *testing.T) {
	repo := newMemorySkills()
	svc := newTestSkillService(repo, nil, &fakeStore{err: errors.New("disk full")}, &fakeAudit{}, nil)

	_, err := svc.Create(context.Background(), CreateSkillRequest{Code: "A", Name: "A"}, adminActor, &FileUpload{Filename: "sop.pdf", Data: []byte("x")})
	assert.ErrorIs(t, err, appErrors.ErrStorage)
	assert.Empty(t, repo.skills)
}

func TestSkillServicePublishRevisionKeepsInvariant(t *testing.T) {
	repo := newMemorySkills()
	cascade := &stubCascader{}
	audit := &fakeAudit{}
	metrics := NewMetricsService()
	svc := NewSkillService(SkillServiceParams{Repo: repo, Cascade: cascade, Storage: &fakeStore{}, Audit: audit, Metrics: metrics})
	ctx := context.Background()

	skill, err := svc.Create(ctx, CreateSkillRequest{Code: "WLD-01", Name: "Welding"}, adminActor, nil)
	require.NoError(t, err)

	for i := 2; i <= 4; i++ {
		res, err := svc.PublishRevision(ctx, "WLD-01", PublishRevisionRequest{Name: fmt.Sprintf("Welding v%d", i), ValidityMonths: intPtr(6)}, dccActor, nil)
		require.NoError(t, err)
		assert.Equal(t, i, res.Revision.RevisionNumber)
		assert.Equal(t, i, res.Skill.CurrentRevisionNumber)
		require.NotNil(t, res.Cascade)
		assert.Equal(t, i, res.Cascade.RevisionNumber)
		assert.Empty(t, res.CascadeError)
		assertRevisionInvariant(t, repo, skill.ID)
	}
	assert.Equal(t, 3, cascade.calls)
	assert.Equal(t, uint64(3), metrics.Snapshot().RevisionsPublished)

	detail, err := svc.Get(ctx, "WLD-01")
	require.NoError(t, err)
	require.Len(t, detail.Revisions, 4)
	assert.Equal(t, 4, detail.Revisions[0].RevisionNumber)
}

func TestSkillServicePublishRevisionCascadeFailureKeepsRevision(t *testing.T) {
	repo := newMemorySkills()
	cascade := &stubCascader{err: errors.New("employees unavailable")}
	audit := &fakeAudit{}
	svc := newTestSkillService(repo, cascade, &fakeStore{}, audit, nil)
	ctx := context.Background()

	skill, err := svc.Create(ctx, CreateSkillRequest{Code: "WLD-01", Name: "Welding"}, adminActor, nil)
	require.NoError(t, err)

	res, err := svc.PublishRevision(ctx, "WLD-01", PublishRevisionRequest{Name: "Welding v2"}, adminActor, nil)
	require.NoError(t, err)
	assert.Equal(t, "employees unavailable", res.CascadeError)
	assert.Nil(t, res.Cascade)
	assert.Equal(t, 2, repo.skills[skill.ID].CurrentRevisionNumber)
	assertRevisionInvariant(t, repo, skill.ID)
	assert.Equal(t, []string{models.AuditActionSkillCreate, models.AuditActionSkillRevision}, audit.actions())
}

func TestSkillServicePublishRevisionRejections(t *testing.T) {
	repo := newMemorySkills()
	svc := newTestSkillService(repo, &stubCascader{}, &fakeStore{err: errors.New("disk full")}, &fakeAudit{}, nil)
	ctx := context.Background()

	_, err := svc.PublishRevision(ctx, "NOPE", PublishRevisionRequest{Name: "x"}, adminActor, nil)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.PublishRevision(ctx, "NOPE", PublishRevisionRequest{Name: "x"}, viewerActor, nil)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	skill, err := svc.Create(ctx, CreateSkillRequest{Code: "WLD-01", Name: "Welding"}, adminActor, nil)
	require.NoError(t, err)
	_, err = svc.PublishRevision(ctx, "WLD-01", PublishRevisionRequest{Name: "v2"}, adminActor, &FileUpload{Filename: "v2.pdf", Data: []byte("x")})
	assert.ErrorIs(t, err, appErrors.ErrStorage)
	assert.Equal(t, 1, repo.skills[skill.ID].CurrentRevisionNumber)
}

func TestPageMeta(t *testing.T) {
	page, size := pageMeta(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, size)
	page, size = pageMeta(3, 50)
	assert.Equal(t, 3, page)
	assert.Equal(t, 50, size)
}

func TestSkillServiceCreateRemovesDocumentWhenInsertFails(t *testing.T) {
	repo := newMemorySkills()
	repo.createErr = errors.New("db down")
	store := &fakeStore{}
	svc := newTestSkillService(repo, nil, store, &fakeAudit{}, nil)

	_, err := svc.Create(context.Background(), CreateSkillRequest{Code: "A", Name: "A"}, adminActor, &FileUpload{Filename: "sop.pdf", Data: []byte("x")})
	assert.ErrorIs(t, err, appErrors.ErrInternal)
	assert.Equal(t, []string{"/uploads/sop.pdf"}, store.deleted)
}
