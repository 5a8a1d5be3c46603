package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/skillmatrix-api/internal/models"
)

const recordDetailSelect = `SELECT tr.id, tr.employee_id, tr.skill_id, tr.level, tr.validator_id, tr.date_validated, tr.validator_notes,
        tr.evidence_url, tr.skill_revision_id, tr.created_at, tr.updated_at,
        e.name AS employee_name, e.employee_number, e.department, e.shift,
        s.code AS skill_code, s.name AS skill_name, s.project, s.validity_months, s.recert_reminder_days,
        s.current_revision_id, s.current_revision_number, sr.revision_number, u.username AS validator_username
        FROM training_records tr
        JOIN employees e ON e.id = tr.employee_id
        JOIN skills s ON s.id = tr.skill_id
        LEFT JOIN skill_revisions sr ON sr.id = tr.skill_revision_id
        LEFT JOIN users u ON u.id = tr.validator_id`

// TrainingRecordRepository persists the single qualification record kept per
// employee and skill.
type TrainingRecordRepository struct {
	db *sqlx.DB
}

// NewTrainingRecordRepository constructs a TrainingRecordRepository.
func NewTrainingRecordRepository(db *sqlx.DB) *TrainingRecordRepository {
	return &TrainingRecordRepository{db: db}
}

// Upsert writes the record for its (employee, skill) pair. An existing row is
// updated in place and keeps its evidence when record.EvidenceURL is nil. The
// returned flag is true when a new row was inserted.
func (r *TrainingRecordRepository) Upsert(ctx context.Context, record *models.TrainingRecord) (bool, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	const query = `INSERT INTO training_records (id, employee_id, skill_id, level, validator_id, date_validated, validator_notes, evidence_url, skill_revision_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        ON CONFLICT (employee_id, skill_id) DO UPDATE SET
            level = EXCLUDED.level,
            validator_id = EXCLUDED.validator_id,
            date_validated = EXCLUDED.date_validated,
            validator_notes = EXCLUDED.validator_notes,
            evidence_url = COALESCE(EXCLUDED.evidence_url, training_records.evidence_url),
            skill_revision_id = EXCLUDED.skill_revision_id,
            updated_at = EXCLUDED.updated_at
        RETURNING id, evidence_url, created_at, (xmax = 0) AS inserted`

	var out struct {
		ID          string         `db:"id"`
		EvidenceURL sql.NullString `db:"evidence_url"`
		CreatedAt   time.Time      `db:"created_at"`
		Inserted    bool           `db:"inserted"`
	}
	err := r.db.GetContext(ctx, &out, query,
		record.ID, record.EmployeeID, record.SkillID, record.Level, record.ValidatorID, record.DateValidated,
		record.ValidatorNotes, record.EvidenceURL, record.SkillRevisionID, record.CreatedAt, record.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("upsert training record: %w", err)
	}
	record.ID = out.ID
	record.CreatedAt = out.CreatedAt
	if out.EvidenceURL.Valid {
		record.EvidenceURL = &out.EvidenceURL.String
	}
	return out.Inserted, nil
}

// ListTracked returns records whose skill has a validity period.
func (r *TrainingRecordRepository) ListTracked(ctx context.Context) ([]models.TrainingRecordDetail, error) {
	query := recordDetailSelect + " WHERE s.validity_months IS NOT NULL ORDER BY tr.date_validated ASC"
	var records []models.TrainingRecordDetail
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("list tracked training records: %w", err)
	}
	return records, nil
}

// ListByEmployee returns an employee's records ordered by skill code.
func (r *TrainingRecordRepository) ListByEmployee(ctx context.Context, employeeID string) ([]models.TrainingRecordDetail, error) {
	query := recordDetailSelect + " WHERE tr.employee_id = $1 ORDER BY s.code ASC"
	var records []models.TrainingRecordDetail
	if err := r.db.SelectContext(ctx, &records, query, employeeID); err != nil {
		return nil, fmt.Errorf("list employee training records: %w", err)
	}
	return records, nil
}

// ListForEmployees returns the records held by the given employees.
func (r *TrainingRecordRepository) ListForEmployees(ctx context.Context, employeeIDs []string) ([]models.TrainingRecordDetail, error) {
	if len(employeeIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(recordDetailSelect+" WHERE tr.employee_id IN (?) ORDER BY e.name ASC, s.code ASC", employeeIDs)
	if err != nil {
		return nil, fmt.Errorf("build matrix query: %w", err)
	}
	var records []models.TrainingRecordDetail
	if err := r.db.SelectContext(ctx, &records, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list matrix training records: %w", err)
	}
	return records, nil
}

// EmployeeIDsForSkill returns the distinct employees holding a record for the skill.
func (r *TrainingRecordRepository) EmployeeIDsForSkill(ctx context.Context, skillID string) ([]string, error) {
	const query = `SELECT DISTINCT employee_id FROM training_records WHERE skill_id = $1 ORDER BY employee_id`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, skillID); err != nil {
		return nil, fmt.Errorf("list qualified employees: %w", err)
	}
	return ids, nil
}

// Recent returns the latest validations.
func (r *TrainingRecordRepository) Recent(ctx context.Context, limit int) ([]models.TrainingRecordDetail, error) {
	if limit <= 0 {
		limit = 5
	}
	query := recordDetailSelect + " ORDER BY tr.date_validated DESC LIMIT $1"
	var records []models.TrainingRecordDetail
	if err := r.db.SelectContext(ctx, &records, query, limit); err != nil {
		return nil, fmt.Errorf("list recent training records: %w", err)
	}
	return records, nil
}

// Count returns the number of training records.
func (r *TrainingRecordRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM training_records"); err != nil {
		return 0, fmt.Errorf("count training records: %w", err)
	}
	return total, nil
}
