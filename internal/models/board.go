package models

import (
	"time"

	"github.com/ecolenet/remplacement-api/internal/engine"
)

// SchoolCoverage is the coverage and urgency picture for one absence at one
// of the collaborator's schools.
type SchoolCoverage struct {
	SchoolID        string                `json:"school_id"`
	SchoolName      string                `json:"school_name"`
	Coverage        engine.CoverageResult `json:"coverage"`
	Urgency         engine.UrgencyResult  `json:"urgency"`
	FallbackApplied bool                  `json:"fallback_applied"`
}

// BoardRow is one enriched absence on the dispatch board: the declared
// absence plus per-school coverage, the pooled coverage across schools, and
// the single most urgent triage result used for sorting.
type BoardRow struct {
	Absence
	CollaboratorName string                `json:"collaborator_name"`
	Schools          []SchoolCoverage      `json:"schools"`
	Coverage         engine.CoverageResult `json:"coverage"`
	Urgency          engine.UrgencyResult  `json:"urgency"`
	Assignments      []AssignmentDetail    `json:"assignments"`
}

// BoardPage is a sorted page of the dispatch board.
type BoardPage struct {
	Rows        []BoardRow `json:"rows"`
	Total       int        `json:"total"`
	Page        int        `json:"page"`
	PageSize    int        `json:"page_size"`
	GeneratedAt time.Time  `json:"generated_at"`
}

// CalendarSlot is one resolved half-day on a substitute's calendar.
type CalendarSlot struct {
	Date   string            `json:"date"`
	Period engine.Period     `json:"period"`
	Status engine.SlotStatus `json:"status"`
}

// SubstituteCalendar is the resolved half-day grid for one substitute over a
// requested window. Weekend dates are omitted.
type SubstituteCalendar struct {
	SubstituteID string         `json:"substitute_id"`
	From         string         `json:"from"`
	To           string         `json:"to"`
	Slots        []CalendarSlot `json:"slots"`
}
