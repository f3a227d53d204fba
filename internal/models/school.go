package models

import "time"

// School is one establishment served by collaborators and substitutes.
// ReplaceAfterDays is the per-school replacement deadline in days; nil means
// the school imposes no deadline and absences there never become urgent.
type School struct {
	ID               string    `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	City             string    `db:"city" json:"city"`
	ReplaceAfterDays *int      `db:"replace_after_days" json:"replace_after_days"`
	Active           bool      `db:"active" json:"active"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// SchoolFilter describes query params for listing schools.
type SchoolFilter struct {
	Search   string
	Active   *bool
	Page     int
	PageSize int
}

// SchoolVacation is a holiday window during which a school is closed. Days
// inside a window are force-marked as vacation upstream of the availability
// resolver.
type SchoolVacation struct {
	ID        string    `db:"id" json:"id"`
	SchoolID  string    `db:"school_id" json:"school_id"`
	Label     string    `db:"label" json:"label"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
