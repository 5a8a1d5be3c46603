package dto

import "time"

// DashboardStats captures headline counts for the home dashboard.
type DashboardStats struct {
	Employees         int               `json:"employees"`
	Skills            int               `json:"skills"`
	TrainingRecords   int               `json:"trainingRecords"`
	Trainers          int               `json:"trainers"`
	OpenAssignments   int               `json:"openAssignments"`
	Compliance        ComplianceSummary `json:"compliance"`
	RecentlyValidated []RecentTraining  `json:"recentlyValidated"`
	GeneratedAt       time.Time         `json:"generatedAt"`
}

// RecentTraining is a compact entry for the latest validations.
type RecentTraining struct {
	EmployeeName  string    `json:"employeeName"`
	SkillCode     string    `json:"skillCode"`
	Level         int       `json:"level"`
	DateValidated time.Time `json:"dateValidated"`
}
