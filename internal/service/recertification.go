package service

import (
	"time"

	"github.com/noah-isme/skillmatrix-api/internal/models"
)

// RecertificationInput carries everything the evaluator needs about one record.
type RecertificationInput struct {
	DateValidated      time.Time
	SkillRevisionID    *string
	ValidityMonths     *int
	RecertReminderDays *int
	CurrentRevisionID  *string
	Now                time.Time
}

// AddMonths adds calendar months to t. The day of month is kept and clamped
// to the last day of the target month, so Jan 31 + 1 month is Feb 28 (or 29).
func AddMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()

	total := int(month) - 1 + months
	targetYear := year + total/12
	targetMonth := total % 12
	if targetMonth < 0 {
		targetMonth += 12
		targetYear--
	}
	lastDay := daysIn(time.Month(targetMonth+1), targetYear)
	if day > lastDay {
		day = lastDay
	}
	return time.Date(targetYear, time.Month(targetMonth+1), day, hour, minute, sec, t.Nanosecond(), t.Location())
}

func daysIn(month time.Month, year int) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Evaluate classifies a training record as of in.Now. It returns nil when the
// skill has no validity period. A record validated against a superseded
// revision is always OVERDUE; otherwise the record is OVERDUE from its
// expiration instant onward, DUE_SOON from the reminder date, and CURRENT
// before that.
func Evaluate(in RecertificationInput) *models.RecertificationResult {
	if in.ValidityMonths == nil {
		return nil
	}
	reminderDays := models.DefaultRecertReminderDays
	if in.RecertReminderDays != nil {
		reminderDays = *in.RecertReminderDays
	}

	expiration := AddMonths(in.DateValidated, *in.ValidityMonths)
	reminder := expiration.AddDate(0, 0, -reminderDays)
	mismatch := in.CurrentRevisionID != nil && in.SkillRevisionID != nil && *in.CurrentRevisionID != *in.SkillRevisionID

	status := models.RecertCurrent
	switch {
	case mismatch:
		status = models.RecertOverdue
	case !in.Now.Before(expiration):
		status = models.RecertOverdue
	case !in.Now.Before(reminder):
		status = models.RecertDueSoon
	}

	return &models.RecertificationResult{
		ExpirationDate:   expiration,
		ReminderDate:     reminder,
		Status:           status,
		RevisionMismatch: mismatch,
	}
}

// EvaluateRecord runs Evaluate for a joined training record detail.
func EvaluateRecord(record models.TrainingRecordDetail, now time.Time) *models.RecertificationResult {
	return Evaluate(RecertificationInput{
		DateValidated:      record.DateValidated,
		SkillRevisionID:    record.SkillRevisionID,
		ValidityMonths:     record.ValidityMonths,
		RecertReminderDays: record.RecertReminderDays,
		CurrentRevisionID:  record.CurrentRevisionID,
		Now:                now,
	})
}
