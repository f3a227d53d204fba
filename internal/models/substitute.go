package models

import "time"

// Substitute is a person available to temporarily cover an absent
// collaborator.
type Substitute struct {
	ID        string    `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone"`
	Active    bool      `db:"active" json:"active"`
	Notes     *string   `db:"notes" json:"notes"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SubstituteFilter describes query params for listing substitutes.
type SubstituteFilter struct {
	Search   string
	Active   *bool
	Page     int
	PageSize int
}

// RecurringAvailability is a stored availability period for one substitute:
// a date range plus a weekly schedule in the same JSON-text format used for
// collaborator presence.
type RecurringAvailability struct {
	ID           string    `db:"id" json:"id"`
	SubstituteID string    `db:"substitute_id" json:"substitute_id"`
	StartDate    time.Time `db:"start_date" json:"start_date"`
	EndDate      time.Time `db:"end_date" json:"end_date"`
	Schedule     *string   `db:"schedule" json:"schedule"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// AvailabilityOverride pins one concrete date and period as available or
// unavailable, overriding any recurring period.
type AvailabilityOverride struct {
	ID           string    `db:"id" json:"id"`
	SubstituteID string    `db:"substitute_id" json:"substitute_id"`
	Date         time.Time `db:"date" json:"date"`
	Period       string    `db:"period" json:"period"`
	Available    bool      `db:"available" json:"available"`
	Note         *string   `db:"note" json:"note"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
