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
)

const assignmentColumns = "id, employee_id, skill_id, target_level, due_date, status, notes, assigned_by_id, last_reminder_sent_at, created_at, updated_at"

// TrainingAssignmentRepository persists planned qualification goals.
type TrainingAssignmentRepository struct {
	db *sqlx.DB
}

// NewTrainingAssignmentRepository constructs a TrainingAssignmentRepository.
func NewTrainingAssignmentRepository(db *sqlx.DB) *TrainingAssignmentRepository {
	return &TrainingAssignmentRepository{db: db}
}

// UpsertOpen keeps a single open assignment per (employee, skill) pair. The
// newest assignment that is not COMPLETED is locked and overwritten with the
// status, due date, notes and assigner from a; when none exists a is inserted.
// The returned flag is true for an insert.
func (r *TrainingAssignmentRepository) UpsertOpen(ctx context.Context, a *models.TrainingAssignment) (created bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin assignment transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	var current models.TrainingAssignment
	const selectQuery = `SELECT ` + assignmentColumns + ` FROM training_assignments
        WHERE employee_id = $1 AND skill_id = $2 AND status <> $3 ORDER BY created_at DESC LIMIT 1 FOR UPDATE`
	err = tx.GetContext(ctx, &current, selectQuery, a.EmployeeID, a.SkillID, models.AssignmentCompleted)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		a.CreatedAt = now
		a.UpdatedAt = now
		const insertQuery = `INSERT INTO training_assignments (id, employee_id, skill_id, target_level, due_date, status, notes, assigned_by_id, created_at, updated_at)
        VALUES (:id, :employee_id, :skill_id, :target_level, :due_date, :status, :notes, :assigned_by_id, :created_at, :updated_at)`
		if _, err = tx.NamedExecContext(ctx, insertQuery, a); err != nil {
			return false, fmt.Errorf("insert training assignment: %w", err)
		}
		created = true
	case err != nil:
		return false, fmt.Errorf("lock training assignment: %w", err)
	default:
		a.ID = current.ID
		a.TargetLevel = current.TargetLevel
		a.CreatedAt = current.CreatedAt
		a.LastReminderSentAt = current.LastReminderSentAt
		a.UpdatedAt = now
		const updateQuery = `UPDATE training_assignments SET status = $1, due_date = $2, notes = $3, assigned_by_id = $4, updated_at = $5 WHERE id = $6`
		if _, err = tx.ExecContext(ctx, updateQuery, a.Status, a.DueDate, a.Notes, a.AssignedByID, now, current.ID); err != nil {
			return false, fmt.Errorf("update training assignment: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit training assignment: %w", err)
	}
	return created, nil
}

// Create inserts a manually planned assignment.
func (r *TrainingAssignmentRepository) Create(ctx context.Context, a *models.TrainingAssignment) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	const query = `INSERT INTO training_assignments (id, employee_id, skill_id, target_level, due_date, status, notes, assigned_by_id, created_at, updated_at)
        VALUES (:id, :employee_id, :skill_id, :target_level, :due_date, :status, :notes, :assigned_by_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, a); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create training assignment: %w", err)
	}
	return nil
}

// FindByID fetches an assignment.
func (r *TrainingAssignmentRepository) FindByID(ctx context.Context, id string) (*models.TrainingAssignment, error) {
	var a models.TrainingAssignment
	if err := r.db.GetContext(ctx, &a, "SELECT "+assignmentColumns+" FROM training_assignments WHERE id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find training assignment: %w", err)
	}
	return &a, nil
}

// List returns assignments matching the filter with the total count.
func (r *TrainingAssignmentRepository) List(ctx context.Context, filter models.AssignmentFilter) ([]models.TrainingAssignmentDetail, int, error) {
	conditions := []string{"1=1"}
	var args []interface{}
	if filter.EmployeeID != "" {
		conditions = append(conditions, fmt.Sprintf("ta.employee_id = $%d", len(args)+1))
		args = append(args, filter.EmployeeID)
	}
	if filter.SkillID != "" {
		conditions = append(conditions, fmt.Sprintf("ta.skill_id = $%d", len(args)+1))
		args = append(args, filter.SkillID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("ta.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	where := strings.Join(conditions, " AND ")
	page, size := normalizePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT ta.id, ta.employee_id, ta.skill_id, ta.target_level, ta.due_date, ta.status, ta.notes, ta.assigned_by_id,
        ta.last_reminder_sent_at, ta.created_at, ta.updated_at,
        e.name AS employee_name, e.employee_number, s.code AS skill_code, s.name AS skill_name
        FROM training_assignments ta
        JOIN employees e ON e.id = ta.employee_id
        JOIN skills s ON s.id = ta.skill_id
        WHERE %s ORDER BY ta.due_date ASC LIMIT %d OFFSET %d`, where, size, (page-1)*size)
	var items []models.TrainingAssignmentDetail
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list training assignments: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM training_assignments ta WHERE "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count training assignments: %w", err)
	}
	return items, total, nil
}

// UpdateStatus moves an assignment to a new status.
func (r *TrainingAssignmentRepository) UpdateStatus(ctx context.Context, id string, status models.AssignmentStatus) error {
	const query = `UPDATE training_assignments SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update assignment status: %w", err)
	}
	return nil
}

// MarkReminderSent stamps the time a reminder went out.
func (r *TrainingAssignmentRepository) MarkReminderSent(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE training_assignments SET last_reminder_sent_at = $2, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, at); err != nil {
		return fmt.Errorf("mark assignment reminder: %w", err)
	}
	return nil
}

// CountOpen returns the number of assignments not yet completed.
func (r *TrainingAssignmentRepository) CountOpen(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM training_assignments WHERE status <> $1", models.AssignmentCompleted); err != nil {
		return 0, fmt.Errorf("count open assignments: %w", err)
	}
	return total, nil
}
