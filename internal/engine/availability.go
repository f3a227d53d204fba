package engine

import "time"

// SlotStatus is the resolved state of one substitute for one half-day slot.
type SlotStatus string

const (
	StatusUnavailable          SlotStatus = "UNAVAILABLE"
	StatusAvailableRecurring   SlotStatus = "AVAILABLE_RECURRING"
	StatusAvailableSpecific    SlotStatus = "AVAILABLE_SPECIFIC"
	StatusUnavailableException SlotStatus = "UNAVAILABLE_EXCEPTION"
	StatusAssigned             SlotStatus = "ASSIGNED"
	// StatusVacation is applied by the availability service for dates inside
	// a school holiday window, before the resolver runs. The resolver itself
	// has no holiday awareness.
	StatusVacation SlotStatus = "VACATION"
)

// RecurringPeriod is a date range during which a substitute is normally free
// according to a weekly pattern. Periods may overlap; the resolver does not
// assume exclusivity.
type RecurringPeriod struct {
	StartDate time.Time
	EndDate   time.Time
	Pattern   WeeklyPattern
}

// OverrideEntry pins availability for one concrete date and period, taking
// precedence over any recurring period covering the same slot.
type OverrideEntry struct {
	Date      time.Time
	Period    Period
	Available bool
}

// AssignmentSpan is the calendar footprint of one replacement assignment.
type AssignmentSpan struct {
	SubstituteID   string
	CollaboratorID string
	SchoolID       string
	StartDate      time.Time
	EndDate        time.Time
	Period         Period
}

// Slots expands the assignment's date range and period into atomic half-day
// slots, weekdays only, honoring the FULL_DAY merge rule.
func (a AssignmentSpan) Slots() []Slot {
	var slots []Slot
	for d := DateOnly(a.StartDate); !d.After(DateOnly(a.EndDate)); d = d.AddDate(0, 0, 1) {
		if _, ok := WeekdayOf(d); !ok {
			continue
		}
		for _, half := range a.Period.Halves() {
			slots = append(slots, Slot{Date: d, Period: half})
		}
	}
	return slots
}

// Covers reports whether the assignment touches the given date and period.
func (a AssignmentSpan) Covers(date time.Time, period Period) bool {
	return DateWithin(date, a.StartDate, a.EndDate) && a.Period.Overlaps(period)
}

// AvailabilityFacts bundles the already-fetched calendar rows for one
// substitute. The resolver never mutates them.
type AvailabilityFacts struct {
	Recurring   []RecurringPeriod
	Overrides   []OverrideEntry
	Assignments []AssignmentSpan
}

// ResolveSlot returns exactly one status for the given date and period.
// Precedence, highest first: assigned, override (either polarity), recurring
// availability, default unavailable. Weekend dates resolve to unavailable
// without consulting any rule.
func ResolveSlot(facts AvailabilityFacts, date time.Time, period Period) SlotStatus {
	if _, ok := WeekdayOf(date); !ok {
		return StatusUnavailable
	}
	if !period.Valid() {
		return StatusUnavailable
	}

	for _, assignment := range facts.Assignments {
		if assignment.Covers(date, period) {
			return StatusAssigned
		}
	}

	for _, override := range facts.Overrides {
		if SameSlot(override.Date, override.Period, date, period) {
			if override.Available {
				return StatusAvailableSpecific
			}
			return StatusUnavailableException
		}
	}

	weekday, _ := WeekdayOf(date)
	for _, recurring := range facts.Recurring {
		if !DateWithin(date, recurring.StartDate, recurring.EndDate) {
			continue
		}
		if recurring.Pattern == nil {
			continue
		}
		if free, ok := recurring.Pattern[weekday]; ok && free.Overlaps(period) {
			return StatusAvailableRecurring
		}
	}

	return StatusUnavailable
}
