package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/skillmatrix-api/internal/models"
)

// UploadLogRepository stores bulk import audit records.
type UploadLogRepository struct {
	db *sqlx.DB
}

// NewUploadLogRepository constructs an UploadLogRepository.
func NewUploadLogRepository(db *sqlx.DB) *UploadLogRepository {
	return &UploadLogRepository{db: db}
}

// Create inserts an upload log.
func (r *UploadLogRepository) Create(ctx context.Context, log *models.UploadLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO upload_logs (id, type, status, total_rows, success_count, failure_count, details, user_id, created_at)
        VALUES (:id, :type, :status, :total_rows, :success_count, :failure_count, :details, :user_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create upload log: %w", err)
	}
	return nil
}

// List returns upload logs newest first.
func (r *UploadLogRepository) List(ctx context.Context, uploadType models.UploadType, page, size int) ([]models.UploadLog, int, error) {
	page, size = normalizePage(page, size)
	where := "1=1"
	var args []interface{}
	if uploadType != "" {
		where = "type = $1"
		args = append(args, uploadType)
	}
	query := fmt.Sprintf(`SELECT id, type, status, total_rows, success_count, failure_count, details, user_id, created_at
        FROM upload_logs WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, where, size, (page-1)*size)
	var logs []models.UploadLog
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list upload logs: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM upload_logs WHERE "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count upload logs: %w", err)
	}
	return logs, total, nil
}
