package models

import "time"

// DefaultRecertReminderDays applies when a skill does not define its own
// reminder window.
const DefaultRecertReminderDays = 30

// Skill is a qualifiable competency whose specification is versioned through
// SkillRevision rows.
type Skill struct {
	ID                    string    `db:"id" json:"id"`
	Code                  string    `db:"code" json:"code"`
	Name                  string    `db:"name" json:"name"`
	Project               *string   `db:"project" json:"project,omitempty"`
	Description           *string   `db:"description" json:"description,omitempty"`
	ValidityMonths        *int      `db:"validity_months" json:"validity_months,omitempty"`
	RecertReminderDays    *int      `db:"recert_reminder_days" json:"recert_reminder_days,omitempty"`
	DocumentURL           *string   `db:"document_url" json:"document_url,omitempty"`
	CurrentRevisionNumber int       `db:"current_revision_number" json:"current_revision_number"`
	CurrentRevisionID     *string   `db:"current_revision_id" json:"current_revision_id,omitempty"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time `db:"updated_at" json:"updated_at"`
}

// ReminderDays returns the configured reminder window or the default.
func (s *Skill) ReminderDays() int {
	if s == nil || s.RecertReminderDays == nil {
		return DefaultRecertReminderDays
	}
	return *s.RecertReminderDays
}

// SkillRevision is an immutable snapshot of a skill specification.
type SkillRevision struct {
	ID                 string    `db:"id" json:"id"`
	SkillID            string    `db:"skill_id" json:"skill_id"`
	SkillCode          string    `db:"skill_code" json:"skill_code"`
	RevisionNumber     int       `db:"revision_number" json:"revision_number"`
	Name               string    `db:"name" json:"name"`
	Project            *string   `db:"project" json:"project,omitempty"`
	Description        *string   `db:"description" json:"description,omitempty"`
	DocumentURL        *string   `db:"document_url" json:"document_url,omitempty"`
	ValidityMonths     *int      `db:"validity_months" json:"validity_months,omitempty"`
	RecertReminderDays *int      `db:"recert_reminder_days" json:"recert_reminder_days,omitempty"`
	CreatedBy          *string   `db:"created_by" json:"created_by,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

// SkillSpec carries the mutable specification fields written to both the
// skill row and a new revision snapshot.
type SkillSpec struct {
	Name               string
	Project            *string
	Description        *string
	DocumentURL        *string
	ValidityMonths     *int
	RecertReminderDays *int
}

// SkillFilter narrows skill listings.
type SkillFilter struct {
	Query    string
	Project  string
	Page     int
	PageSize int
}
