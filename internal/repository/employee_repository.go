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

const employeeColumns = "id, name, employee_number, department, shift, date_hired, photo_url, created_at, updated_at"

// EmployeeRepository manages persistence for employee records and notes.
type EmployeeRepository struct {
	db *sqlx.DB
}

// NewEmployeeRepository constructs an EmployeeRepository.
func NewEmployeeRepository(db *sqlx.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// List returns employees matching the filter together with the total count.
func (r *EmployeeRepository) List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, int, error) {
	where, args := employeeConditions(filter)

	allowedSorts := map[string]string{
		"name":            "name",
		"employee_number": "employee_number",
		"date_hired":      "date_hired",
		"created_at":      "created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page, size := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM employees WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d", employeeColumns, where, column, order, size, offset)
	var employees []models.Employee
	if err := r.db.SelectContext(ctx, &employees, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list employees: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM employees WHERE "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count employees: %w", err)
	}
	return employees, total, nil
}

// ListAll returns every employee matching the filter without pagination.
func (r *EmployeeRepository) ListAll(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, error) {
	where, args := employeeConditions(filter)
	query := fmt.Sprintf("SELECT %s FROM employees WHERE %s ORDER BY name ASC", employeeColumns, where)
	var employees []models.Employee
	if err := r.db.SelectContext(ctx, &employees, query, args...); err != nil {
		return nil, fmt.Errorf("list all employees: %w", err)
	}
	return employees, nil
}

func employeeConditions(filter models.EmployeeFilter) (string, []interface{}) {
	conditions := []string{"1=1"}
	var args []interface{}
	if filter.Query != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(employee_number) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Query)+"%")
	}
	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Shift != "" {
		conditions = append(conditions, fmt.Sprintf("shift = $%d", len(args)+1))
		args = append(args, filter.Shift)
	}
	return strings.Join(conditions, " AND "), args
}

// FindByID fetches an employee by internal id.
func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*models.Employee, error) {
	var employee models.Employee
	query := "SELECT " + employeeColumns + " FROM employees WHERE id = $1"
	if err := r.db.GetContext(ctx, &employee, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find employee: %w", err)
	}
	return &employee, nil
}

// FindByNumber fetches an employee by employee number.
func (r *EmployeeRepository) FindByNumber(ctx context.Context, number string) (*models.Employee, error) {
	var employee models.Employee
	query := "SELECT " + employeeColumns + " FROM employees WHERE employee_number = $1"
	if err := r.db.GetContext(ctx, &employee, query, number); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find employee by number: %w", err)
	}
	return &employee, nil
}

// ExistsByNumber checks if an employee number is taken, optionally ignoring one id.
func (r *EmployeeRepository) ExistsByNumber(ctx context.Context, number, excludeID string) (bool, error) {
	query := "SELECT 1 FROM employees WHERE employee_number = $1"
	args := []interface{}{number}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check employee number: %w", err)
	}
	return true, nil
}

// Create inserts a new employee.
func (r *EmployeeRepository) Create(ctx context.Context, employee *models.Employee) error {
	if employee.ID == "" {
		employee.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if employee.CreatedAt.IsZero() {
		employee.CreatedAt = now
	}
	employee.UpdatedAt = now
	const query = `INSERT INTO employees (id, name, employee_number, department, shift, date_hired, photo_url, created_at, updated_at)
        VALUES (:id, :name, :employee_number, :department, :shift, :date_hired, :photo_url, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, employee); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create employee: %w", err)
	}
	return nil
}

// Update modifies an existing employee.
func (r *EmployeeRepository) Update(ctx context.Context, employee *models.Employee) error {
	employee.UpdatedAt = time.Now().UTC()
	const query = `UPDATE employees SET name = :name, employee_number = :employee_number, department = :department, shift = :shift,
        date_hired = :date_hired, photo_url = :photo_url, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, employee); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update employee: %w", err)
	}
	return nil
}

// Departments returns the distinct non-empty departments in use.
func (r *EmployeeRepository) Departments(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT department FROM employees WHERE department IS NOT NULL AND department <> '' ORDER BY department`
	var departments []string
	if err := r.db.SelectContext(ctx, &departments, query); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

// Count returns the number of employees.
func (r *EmployeeRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM employees"); err != nil {
		return 0, fmt.Errorf("count employees: %w", err)
	}
	return total, nil
}

// AddNote stores a note on an employee profile.
func (r *EmployeeRepository) AddNote(ctx context.Context, note *models.EmployeeNote) error {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO employee_notes (id, employee_id, author_id, content, created_at) VALUES (:id, :employee_id, :author_id, :content, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, note); err != nil {
		return fmt.Errorf("add employee note: %w", err)
	}
	return nil
}

// ListNotes returns the latest notes for an employee, newest first.
func (r *EmployeeRepository) ListNotes(ctx context.Context, employeeID string, limit int) ([]models.EmployeeNote, error) {
	if limit <= 0 {
		limit = 10
	}
	const query = `SELECT n.id, n.employee_id, n.author_id, COALESCE(u.username, '') AS author_username, n.content, n.created_at
        FROM employee_notes n LEFT JOIN users u ON u.id = n.author_id
        WHERE n.employee_id = $1 ORDER BY n.created_at DESC LIMIT $2`
	var notes []models.EmployeeNote
	if err := r.db.SelectContext(ctx, &notes, query, employeeID, limit); err != nil {
		return nil, fmt.Errorf("list employee notes: %w", err)
	}
	return notes, nil
}
