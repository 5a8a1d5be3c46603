package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/skillmatrix-api/internal/models"
	"github.com/noah-isme/skillmatrix-api/pkg/database"
)

const skillColumns = "id, code, name, project, description, validity_months, recert_reminder_days, document_url, current_revision_number, current_revision_id, created_at, updated_at"

const revisionColumns = "id, skill_id, skill_code, revision_number, name, project, description, document_url, validity_months, recert_reminder_days, created_by, created_at"

// SkillRepository manages skills and their immutable revisions.
type SkillRepository struct {
	db *sqlx.DB
}

// NewSkillRepository constructs a SkillRepository.
func NewSkillRepository(db *sqlx.DB) *SkillRepository {
	return &SkillRepository{db: db}
}

// List returns skills matching the filter and the total count.
func (r *SkillRepository) List(ctx context.Context, filter models.SkillFilter) ([]models.Skill, int, error) {
	conditions := []string{"1=1"}
	var args []interface{}
	if filter.Query != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(code) LIKE $%d OR LOWER(name) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Query)+"%")
	}
	if filter.Project != "" {
		conditions = append(conditions, fmt.Sprintf("project = $%d", len(args)+1))
		args = append(args, filter.Project)
	}
	where := strings.Join(conditions, " AND ")
	page, size := normalizePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s FROM skills WHERE %s ORDER BY code ASC LIMIT %d OFFSET %d", skillColumns, where, size, (page-1)*size)
	var skills []models.Skill
	if err := r.db.SelectContext(ctx, &skills, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list skills: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM skills WHERE "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count skills: %w", err)
	}
	return skills, total, nil
}

// ListAll returns every skill ordered by code.
func (r *SkillRepository) ListAll(ctx context.Context) ([]models.Skill, error) {
	var skills []models.Skill
	if err := r.db.SelectContext(ctx, &skills, "SELECT "+skillColumns+" FROM skills ORDER BY code ASC"); err != nil {
		return nil, fmt.Errorf("list all skills: %w", err)
	}
	return skills, nil
}

// FindByCode fetches a skill by its code.
func (r *SkillRepository) FindByCode(ctx context.Context, code string) (*models.Skill, error) {
	var skill models.Skill
	if err := r.db.GetContext(ctx, &skill, "SELECT "+skillColumns+" FROM skills WHERE code = $1", code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find skill by code: %w", err)
	}
	return &skill, nil
}

// FindByID fetches a skill by internal id.
func (r *SkillRepository) FindByID(ctx context.Context, id string) (*models.Skill, error) {
	var skill models.Skill
	if err := r.db.GetContext(ctx, &skill, "SELECT "+skillColumns+" FROM skills WHERE id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find skill: %w", err)
	}
	return &skill, nil
}

// ExistsByCode reports whether a skill code is already registered.
func (r *SkillRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM skills WHERE code = $1 LIMIT 1", code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check skill code: %w", err)
	}
	return true, nil
}

// CreateWithRevision inserts the skill, its first revision and the pointer to
// it in a single transaction.
func (r *SkillRepository) CreateWithRevision(ctx context.Context, skill *models.Skill, createdBy *string) (*models.SkillRevision, error) {
	if skill.ID == "" {
		skill.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	skill.CreatedAt = now
	skill.UpdatedAt = now
	skill.CurrentRevisionNumber = 1

	revision := &models.SkillRevision{
		ID:                 uuid.NewString(),
		SkillID:            skill.ID,
		SkillCode:          skill.Code,
		RevisionNumber:     1,
		Name:               skill.Name,
		Project:            skill.Project,
		Description:        skill.Description,
		DocumentURL:        skill.DocumentURL,
		ValidityMonths:     skill.ValidityMonths,
		RecertReminderDays: skill.RecertReminderDays,
		CreatedBy:          createdBy,
		CreatedAt:          now,
	}

	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const insertSkill = `INSERT INTO skills (id, code, name, project, description, validity_months, recert_reminder_days, document_url, current_revision_number, created_at, updated_at)
        VALUES (:id, :code, :name, :project, :description, :validity_months, :recert_reminder_days, :document_url, :current_revision_number, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, insertSkill, skill); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("insert skill: %w", err)
		}
		if err := insertRevision(ctx, tx, revision); err != nil {
			return err
		}
		const point = `UPDATE skills SET current_revision_id = $1 WHERE id = $2`
		if _, err := tx.ExecContext(ctx, point, revision.ID, skill.ID); err != nil {
			return fmt.Errorf("set current revision: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	skill.CurrentRevisionID = &revision.ID
	return revision, nil
}

// PublishRevision locks the skill, appends revision current+1 with the given
// spec and moves the skill's live fields and pointer to it. When spec carries
// no document the document of the revision being superseded is reused.
func (r *SkillRepository) PublishRevision(ctx context.Context, skillID string, spec models.SkillSpec, createdBy *string) (*models.Skill, *models.SkillRevision, error) {
	var (
		skill    models.Skill
		revision *models.SkillRevision
	)
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &skill, "SELECT "+skillColumns+" FROM skills WHERE id = $1 FOR UPDATE", skillID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return err
			}
			return fmt.Errorf("lock skill: %w", err)
		}

		documentURL := spec.DocumentURL
		if documentURL == nil && skill.CurrentRevisionID != nil {
			var prior sql.NullString
			const priorDoc = `SELECT document_url FROM skill_revisions WHERE id = $1`
			if err := tx.GetContext(ctx, &prior, priorDoc, *skill.CurrentRevisionID); err != nil && !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("load prior revision document: %w", err)
			}
			if prior.Valid {
				documentURL = &prior.String
			}
		}

		now := time.Now().UTC()
		revision = &models.SkillRevision{
			ID:                 uuid.NewString(),
			SkillID:            skill.ID,
			SkillCode:          skill.Code,
			RevisionNumber:     skill.CurrentRevisionNumber + 1,
			Name:               spec.Name,
			Project:            spec.Project,
			Description:        spec.Description,
			DocumentURL:        documentURL,
			ValidityMonths:     spec.ValidityMonths,
			RecertReminderDays: spec.RecertReminderDays,
			CreatedBy:          createdBy,
			CreatedAt:          now,
		}
		if err := insertRevision(ctx, tx, revision); err != nil {
			return err
		}

		skill.Name = spec.Name
		skill.Project = spec.Project
		skill.Description = spec.Description
		skill.ValidityMonths = spec.ValidityMonths
		skill.RecertReminderDays = spec.RecertReminderDays
		skill.DocumentURL = documentURL
		skill.CurrentRevisionID = &revision.ID
		skill.CurrentRevisionNumber = revision.RevisionNumber
		skill.UpdatedAt = now

		const update = `UPDATE skills SET name = :name, project = :project, description = :description, validity_months = :validity_months,
        recert_reminder_days = :recert_reminder_days, document_url = :document_url, current_revision_id = :current_revision_id,
        current_revision_number = :current_revision_number, updated_at = :updated_at WHERE id = :id`
		if _, err := tx.NamedExecContext(ctx, update, &skill); err != nil {
			return fmt.Errorf("update skill pointer: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &skill, revision, nil
}

func insertRevision(ctx context.Context, tx *sqlx.Tx, revision *models.SkillRevision) error {
	const query = `INSERT INTO skill_revisions (id, skill_id, skill_code, revision_number, name, project, description, document_url, validity_months, recert_reminder_days, created_by, created_at)
        VALUES (:id, :skill_id, :skill_code, :revision_number, :name, :project, :description, :document_url, :validity_months, :recert_reminder_days, :created_by, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, revision); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert skill revision: %w", err)
	}
	return nil
}

// ListRevisions returns a skill's revisions, newest first.
func (r *SkillRepository) ListRevisions(ctx context.Context, skillID string) ([]models.SkillRevision, error) {
	var revisions []models.SkillRevision
	query := "SELECT " + revisionColumns + " FROM skill_revisions WHERE skill_id = $1 ORDER BY revision_number DESC"
	if err := r.db.SelectContext(ctx, &revisions, query, skillID); err != nil {
		return nil, fmt.Errorf("list skill revisions: %w", err)
	}
	return revisions, nil
}

// Projects returns the distinct project groupings in use.
func (r *SkillRepository) Projects(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT project FROM skills WHERE project IS NOT NULL AND project <> '' ORDER BY project`
	var projects []string
	if err := r.db.SelectContext(ctx, &projects, query); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// Count returns the number of skills.
func (r *SkillRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM skills"); err != nil {
		return 0, fmt.Errorf("count skills: %w", err)
	}
	return total, nil
}
