package models

import "time"

// Qualification levels accepted for a training record.
const (
	MinTrainingLevel = 1
	MaxTrainingLevel = 4
)

// TrainingRecord is an employee's qualification state for one skill. At most
// one record exists per (employee, skill) pair.
type TrainingRecord struct {
	ID              string    `db:"id" json:"id"`
	EmployeeID      string    `db:"employee_id" json:"employee_id"`
	SkillID         string    `db:"skill_id" json:"skill_id"`
	Level           int       `db:"level" json:"level"`
	ValidatorID     string    `db:"validator_id" json:"validator_id"`
	DateValidated   time.Time `db:"date_validated" json:"date_validated"`
	ValidatorNotes  *string   `db:"validator_notes" json:"validator_notes,omitempty"`
	EvidenceURL     *string   `db:"evidence_url" json:"evidence_url,omitempty"`
	SkillRevisionID *string   `db:"skill_revision_id" json:"skill_revision_id,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// TrainingRecordDetail joins a record with the employee, skill and validator
// columns needed by listings and reports.
type TrainingRecordDetail struct {
	TrainingRecord
	EmployeeName          string  `db:"employee_name" json:"employee_name"`
	EmployeeNumber        string  `db:"employee_number" json:"employee_number"`
	Department            *string `db:"department" json:"department,omitempty"`
	Shift                 Shift   `db:"shift" json:"shift"`
	SkillCode             string  `db:"skill_code" json:"skill_code"`
	SkillName             string  `db:"skill_name" json:"skill_name"`
	Project               *string `db:"project" json:"project,omitempty"`
	ValidityMonths        *int    `db:"validity_months" json:"validity_months,omitempty"`
	RecertReminderDays    *int    `db:"recert_reminder_days" json:"recert_reminder_days,omitempty"`
	CurrentRevisionID     *string `db:"current_revision_id" json:"current_revision_id,omitempty"`
	RevisionNumber        *int    `db:"revision_number" json:"revision_number,omitempty"`
	CurrentRevisionNumber int     `db:"current_revision_number" json:"current_revision_number"`
	ValidatorUsername     *string `db:"validator_username" json:"validator_username,omitempty"`
}

// AssignmentStatus is the lifecycle state of a training assignment.
type AssignmentStatus string

const (
	AssignmentPending    AssignmentStatus = "PENDING"
	AssignmentInProgress AssignmentStatus = "IN_PROGRESS"
	AssignmentCompleted  AssignmentStatus = "COMPLETED"
)

// Valid reports whether s is a known assignment status.
func (s AssignmentStatus) Valid() bool {
	switch s {
	case AssignmentPending, AssignmentInProgress, AssignmentCompleted:
		return true
	}
	return false
}

// TrainingAssignment is a planned qualification goal for an employee.
type TrainingAssignment struct {
	ID                 string           `db:"id" json:"id"`
	EmployeeID         string           `db:"employee_id" json:"employee_id"`
	SkillID            string           `db:"skill_id" json:"skill_id"`
	TargetLevel        int              `db:"target_level" json:"target_level"`
	DueDate            time.Time        `db:"due_date" json:"due_date"`
	Status             AssignmentStatus `db:"status" json:"status"`
	Notes              *string          `db:"notes" json:"notes,omitempty"`
	AssignedByID       string           `db:"assigned_by_id" json:"assigned_by_id"`
	LastReminderSentAt *time.Time       `db:"last_reminder_sent_at" json:"last_reminder_sent_at,omitempty"`
	CreatedAt          time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time        `db:"updated_at" json:"updated_at"`
}

// TrainingAssignmentDetail adds display columns to an assignment.
type TrainingAssignmentDetail struct {
	TrainingAssignment
	EmployeeName   string `db:"employee_name" json:"employee_name"`
	EmployeeNumber string `db:"employee_number" json:"employee_number"`
	SkillCode      string `db:"skill_code" json:"skill_code"`
	SkillName      string `db:"skill_name" json:"skill_name"`
}

// AssignmentFilter narrows assignment listings.
type AssignmentFilter struct {
	EmployeeID string
	SkillID    string
	Status     AssignmentStatus
	Page       int
	PageSize   int
}
