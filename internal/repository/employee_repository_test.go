package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skillmatrix-api/internal/models"
)

func TestEmployeeRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(columns(employeeColumns)).
		AddRow("e1", "Ana", "E-001", "Assembly", "DAY", now, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM employees WHERE 1=1 AND (LOWER(name) LIKE $1 OR LOWER(employee_number) LIKE $1) AND department = $2 AND shift = $3 ORDER BY name ASC LIMIT 20 OFFSET 0")).
		WithArgs("%ana%", "Assembly", models.ShiftDay).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM employees WHERE 1=1")).
		WithArgs("%ana%", "Assembly", models.ShiftDay).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	items, total, err := repo.List(context.Background(), models.EmployeeFilter{Query: "Ana", Department: "Assembly", Shift: models.ShiftDay})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "E-001", items[0].EmployeeNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepositoryExistsByNumber(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM employees WHERE employee_number = $1 AND id <> $2 LIMIT 1")).
		WithArgs("E-001", "e1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}))

	exists, err := repo.ExistsByNumber(context.Background(), "E-001", "e1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	mock.ExpectExec("INSERT INTO employees").WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.Employee{Name: "Ana", EmployeeNumber: "E-001", Shift: models.ShiftDay, DateHired: time.Now()})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepositoryListNotes(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	rows := sqlmock.NewRows([]string{"id", "employee_id", "author_id", "author_username", "content", "created_at"}).
		AddRow("n1", "e1", "u1", "hr1", "Moved to night shift", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE n.employee_id = $1 ORDER BY n.created_at DESC LIMIT $2")).
		WithArgs("e1", 10).
		WillReturnRows(rows)

	notes, err := repo.ListNotes(context.Background(), "e1", 0)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "hr1", notes[0].AuthorUsername)
	assert.NoError(t, mock.ExpectationsWereMet())
}
