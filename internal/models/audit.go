package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin               = "LOGIN"
	AuditActionUserCreate          = "CREATE_USER"
	AuditActionEmployeeCreate      = "CREATE_EMPLOYEE"
	AuditActionEmployeeUpdate      = "UPDATE_EMPLOYEE"
	AuditActionEmployeeNote        = "ADD_EMPLOYEE_NOTE"
	AuditActionSkillCreate         = "CREATE_SKILL"
	AuditActionSkillRevision       = "SKILL_REVISION_PUBLISH"
	AuditActionTrainingValidate    = "TRAINING_VALIDATE"
	AuditActionAssignmentCreate    = "ASSIGN_TRAINING"
	AuditActionAssignmentComplete  = "COMPLETE_ASSIGNMENT"
	AuditActionAssignmentRemind    = "REMIND_ASSIGNMENT"
	AuditActionBulkUploadEmployees = "BULK_UPLOAD_EMPLOYEES"
	AuditActionBulkUploadSkills    = "BULK_UPLOAD_SKILLS"
	AuditActionExport              = "EXPORT_REPORT"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Username   *string   `db:"username" json:"username,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	Details    string    `db:"details" json:"details"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent  string    `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AuditFilter narrows audit log listings.
type AuditFilter struct {
	Action   string
	Resource string
	UserID   string
	Page     int
	PageSize int
}
