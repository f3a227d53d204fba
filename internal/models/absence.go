package models

import "time"

// AbsenceReason is the closed set of declared absence reasons.
type AbsenceReason string

const (
	AbsenceReasonSickness AbsenceReason = "SICKNESS"
	AbsenceReasonTraining AbsenceReason = "TRAINING"
	AbsenceReasonPersonal AbsenceReason = "PERSONAL"
	AbsenceReasonOther    AbsenceReason = "OTHER"
)

// Valid reports whether r is a known reason code.
func (r AbsenceReason) Valid() bool {
	switch r {
	case AbsenceReasonSickness, AbsenceReasonTraining, AbsenceReasonPersonal, AbsenceReasonOther:
		return true
	default:
		return false
	}
}

// Absence is a declared unavailability for a collaborator over an inclusive
// date range and period. The affected schools are derived from the
// collaborator's standing school relationships, not stored here.
type Absence struct {
	ID             string        `db:"id" json:"id"`
	CollaboratorID string        `db:"collaborator_id" json:"collaborator_id"`
	StartDate      time.Time     `db:"start_date" json:"start_date"`
	EndDate        time.Time     `db:"end_date" json:"end_date"`
	Period         string        `db:"period" json:"period"`
	Reason         AbsenceReason `db:"reason" json:"reason"`
	Notes          *string       `db:"notes" json:"notes"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// AbsenceFilter describes query params for the absence board.
type AbsenceFilter struct {
	From     *time.Time
	To       *time.Time
	SchoolID string
	Reason   string
	Page     int
	PageSize int
}
