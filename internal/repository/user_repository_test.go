package repository

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skillmatrix-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "postgres")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func columns(list string) []string {
	return strings.Split(list, ", ")
}

func TestFindByUsername(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "username", "password_hash", "role", "created_at", "updated_at"}).
		AddRow("1", "trainer1", "hash", string(models.RoleTrainer), now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, username, password_hash, role, created_at, updated_at FROM users WHERE username = $1 LIMIT 1")).
		WithArgs("trainer1").
		WillReturnRows(rows)

	user, err := repo.FindByUsername(context.Background(), "trainer1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleTrainer, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserDuplicate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.User{Username: "admin", PasswordHash: "hash", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAuditLogsFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "username", "action", "resource", "resource_id", "details", "new_values", "ip_address", "user_agent", "created_at"}).
		AddRow("a1", "u1", "trainer1", models.AuditActionTrainingValidate, "training_record", "r1", "level 3", []byte(`{}`), "", "", now)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND a.action = $1 ORDER BY a.created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs(models.AuditActionTrainingValidate).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM audit_logs a WHERE 1=1 AND a.action = $1")).
		WithArgs(models.AuditActionTrainingValidate).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	logs, total, err := repo.ListAuditLogs(context.Background(), models.AuditFilter{Action: models.AuditActionTrainingValidate})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "trainer1", *logs[0].Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}
