package models

import "time"

// Shift enumerates the work shifts an employee may be rostered on.
type Shift string

const (
	ShiftDay   Shift = "DAY"
	ShiftNight Shift = "NIGHT"
)

// Employee is the identity record for a member of the workforce.
type Employee struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	EmployeeNumber string    `db:"employee_number" json:"employee_number"`
	Department     *string   `db:"department" json:"department,omitempty"`
	Shift          Shift     `db:"shift" json:"shift"`
	DateHired      time.Time `db:"date_hired" json:"date_hired"`
	PhotoURL       *string   `db:"photo_url" json:"photo_url,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// EmployeeFilter narrows employee listings.
type EmployeeFilter struct {
	Query      string
	Department string
	Shift      Shift
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// EmployeeNote is a free-text remark attached to an employee profile.
type EmployeeNote struct {
	ID             string    `db:"id" json:"id"`
	EmployeeID     string    `db:"employee_id" json:"employee_id"`
	AuthorID       string    `db:"author_id" json:"author_id"`
	AuthorUsername string    `db:"author_username" json:"author_username"`
	Content        string    `db:"content" json:"content"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
