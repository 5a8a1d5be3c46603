package models

import "time"

// RecertStatus classifies a training record against its skill's validity.
type RecertStatus string

const (
	RecertCurrent RecertStatus = "CURRENT"
	RecertDueSoon RecertStatus = "DUE_SOON"
	RecertOverdue RecertStatus = "OVERDUE"
)

// RecertificationResult is the computed compliance state of one record.
type RecertificationResult struct {
	ExpirationDate   time.Time    `json:"expiration_date"`
	ReminderDate     time.Time    `json:"reminder_date"`
	Status           RecertStatus `json:"status"`
	RevisionMismatch bool         `json:"revision_mismatch"`
}
