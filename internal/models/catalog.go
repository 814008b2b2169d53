package models

// Program is a degree program a student can plan against.
type Program struct {
	ID          string  `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description,omitempty"`
}

// Course is a catalog course with its credit weight.
type Course struct {
	Code        string  `db:"code" json:"code"`
	Name        string  `db:"name" json:"name"`
	Credits     float64 `db:"credits" json:"credits"`
	Description *string `db:"description" json:"description,omitempty"`
}
