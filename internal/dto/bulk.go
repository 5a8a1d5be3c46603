package dto

import "github.com/noah-isme/skillmatrix-api/internal/models"

// Row outcome statuses reported by bulk operations.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// RowOutcome describes what happened to one imported row.
type RowOutcome struct {
	Index      int    `json:"index"`
	Identifier string `json:"identifier"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

// BulkResult aggregates the outcome of a bulk import.
type BulkResult struct {
	UploadID     string              `json:"uploadId,omitempty"`
	Type         models.UploadType   `json:"type"`
	Status       models.UploadStatus `json:"status"`
	TotalRows    int                 `json:"totalRows"`
	SuccessCount int                 `json:"successCount"`
	FailureCount int                 `json:"failureCount"`
	Rows         []RowOutcome        `json:"rows"`
	LogError     string              `json:"logError,omitempty"`
}

// CascadeItem reports the assignment write for one affected employee.
type CascadeItem struct {
	EmployeeID   string `json:"employeeId"`
	AssignmentID string `json:"assignmentId,omitempty"`
	Created      bool   `json:"created"`
	Status       string `json:"status"`
	Message      string `json:"message,omitempty"`
}

// CascadeResult aggregates a retraining cascade.
type CascadeResult struct {
	SkillCode      string        `json:"skillCode"`
	RevisionNumber int           `json:"revisionNumber"`
	Total          int           `json:"total"`
	Succeeded      int           `json:"succeeded"`
	Failed         int           `json:"failed"`
	Items          []CascadeItem `json:"items"`
}
