package models

import (
	"encoding/json"
	"time"
)

// UploadType identifies which entity a bulk import created.
type UploadType string

const (
	UploadTypeEmployee UploadType = "EMPLOYEE"
	UploadTypeSkill    UploadType = "SKILL"
)

// UploadStatus is the derived aggregate outcome of a bulk import.
type UploadStatus string

const (
	UploadStatusSuccess UploadStatus = "SUCCESS"
	UploadStatusPartial UploadStatus = "PARTIAL"
	UploadStatusFailed  UploadStatus = "FAILED"
)

// UploadLog records one bulk import execution. Rows are never updated.
type UploadLog struct {
	ID           string          `db:"id" json:"id"`
	Type         UploadType      `db:"type" json:"type"`
	Status       UploadStatus    `db:"status" json:"status"`
	TotalRows    int             `db:"total_rows" json:"total_rows"`
	SuccessCount int             `db:"success_count" json:"success_count"`
	FailureCount int             `db:"failure_count" json:"failure_count"`
	Details      json.RawMessage `db:"details" json:"details"`
	UserID       string          `db:"user_id" json:"user_id"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}
