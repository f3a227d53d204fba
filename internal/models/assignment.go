package models

import "time"

// Assignment is a substitute-to-collaborator coverage record for a date
// range and period at one school. AbsenceID links back to the absence the
// assignment was created for when known.
type Assignment struct {
	ID             string    `db:"id" json:"id"`
	SubstituteID   string    `db:"substitute_id" json:"substitute_id"`
	CollaboratorID string    `db:"collaborator_id" json:"collaborator_id"`
	SchoolID       string    `db:"school_id" json:"school_id"`
	AbsenceID      *string   `db:"absence_id" json:"absence_id"`
	StartDate      time.Time `db:"start_date" json:"start_date"`
	EndDate        time.Time `db:"end_date" json:"end_date"`
	Period         string    `db:"period" json:"period"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// AssignmentDetail joins the display names needed by the board.
type AssignmentDetail struct {
	Assignment
	SubstituteName   string `db:"substitute_name" json:"substitute_name"`
	CollaboratorName string `db:"collaborator_name" json:"collaborator_name"`
	SchoolName       string `db:"school_name" json:"school_name"`
}
