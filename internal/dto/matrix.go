package dto

// MatrixFilter narrows the skill matrix to a subset of employees.
type MatrixFilter struct {
	Query      string
	Department string
	Shift      string
}

// MatrixSkill is one skill column of the matrix.
type MatrixSkill struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// MatrixRow is one employee line of the skill matrix keyed by skill code.
type MatrixRow struct {
	EmployeeID     string         `json:"employeeId"`
	EmployeeName   string         `json:"employeeName"`
	EmployeeNumber string         `json:"employeeNumber"`
	Department     string         `json:"department"`
	Shift          string         `json:"shift"`
	Levels         map[string]int `json:"levels"`
}

// SkillMatrix lists the skill columns and employee rows of the matrix.
type SkillMatrix struct {
	Skills []MatrixSkill `json:"skills"`
	Rows   []MatrixRow   `json:"rows"`
}
