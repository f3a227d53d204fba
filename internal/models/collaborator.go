package models

import "time"

// Collaborator is a staff member with a regular weekly presence at one or
// more schools.
type Collaborator struct {
	ID        string    `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CollaboratorFilter describes query params for listing collaborators.
type CollaboratorFilter struct {
	Search   string
	SchoolID string
	Active   *bool
	Page     int
	PageSize int
}

// CollaboratorSchool links a collaborator to a school together with the
// stored weekly schedule. Schedule is the legacy JSON-text column; it is
// parsed tolerantly at the service boundary and malformed text counts as
// "no pattern data".
type CollaboratorSchool struct {
	CollaboratorID   string  `db:"collaborator_id" json:"collaborator_id"`
	CollaboratorName string  `db:"collaborator_name" json:"collaborator_name"`
	SchoolID         string  `db:"school_id" json:"school_id"`
	SchoolName       string  `db:"school_name" json:"school_name"`
	Schedule         *string `db:"schedule" json:"schedule"`
	ReplaceAfterDays *int    `db:"replace_after_days" json:"replace_after_days"`
}
