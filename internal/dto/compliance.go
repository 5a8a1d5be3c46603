package dto

import (
	"time"

	"github.com/noah-isme/skillmatrix-api/internal/models"
)

// ComplianceItem pairs a training record with its recertification state.
type ComplianceItem struct {
	RecordID         string              `json:"recordId"`
	EmployeeID       string              `json:"employeeId"`
	EmployeeName     string              `json:"employeeName"`
	EmployeeNumber   string              `json:"employeeNumber"`
	Department       *string             `json:"department,omitempty"`
	SkillID          string              `json:"skillId"`
	SkillCode        string              `json:"skillCode"`
	SkillName        string              `json:"skillName"`
	Level            int                 `json:"level"`
	DateValidated    time.Time           `json:"dateValidated"`
	ExpirationDate   time.Time           `json:"expirationDate"`
	ReminderDate     time.Time           `json:"reminderDate"`
	Status           models.RecertStatus `json:"status"`
	RevisionMismatch bool                `json:"revisionMismatch"`
}

// ComplianceSummary counts tracked records per status.
type ComplianceSummary struct {
	Tracked int `json:"tracked"`
	Current int `json:"current"`
	DueSoon int `json:"dueSoon"`
	Overdue int `json:"overdue"`
}

// ComplianceReport is the action-needed view returned to callers.
type ComplianceReport struct {
	GeneratedAt time.Time         `json:"generatedAt"`
	Summary     ComplianceSummary `json:"summary"`
	Items       []ComplianceItem  `json:"items"`
}
