package model

import "database/sql"

// Agency represents a government body capable of receiving records requests.
// It is an immutable snapshot fetched from the records platform; the core
// never mutates it.
type Agency struct {
	ID                  int
	Name                string
	Jurisdiction        string
	AverageResponseDays int
	// Fee metadata the agency publishes, if any. Jurisdiction-level defaults
	// apply when these are not set.
	PerPageRate       sql.NullFloat64
	FreePageAllowance sql.NullInt64
	SuccessRate       float64
}

// Organization represents a filing organization the authenticated user
// belongs to. Immutable snapshot per session.
type Organization struct {
	ID   int
	Name string
}
