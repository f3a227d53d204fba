// Package engine holds the pure availability/coverage reconciliation logic
// shared by every endpoint: slot algebra, presence expansion, per-slot
// availability resolution, coverage classification and urgency triage.
// Nothing in this package performs I/O or reads the clock; callers fetch the
// calendar facts and pass them in, together with an explicit "today".
package engine

import "time"

// ISODate is the wire format for all calendar dates.
const ISODate = "2006-01-02"

// Period is the sub-day granularity of the planning calendar. FULL_DAY is
// shorthand for both halves, not an independent third slot.
type Period string

const (
	PeriodMorning   Period = "MORNING"
	PeriodAfternoon Period = "AFTERNOON"
	PeriodFullDay   Period = "FULL_DAY"
)

// Valid reports whether p is one of the three known periods.
func (p Period) Valid() bool {
	switch p {
	case PeriodMorning, PeriodAfternoon, PeriodFullDay:
		return true
	default:
		return false
	}
}

// Halves returns the atomic half-day periods p stands for.
func (p Period) Halves() []Period {
	switch p {
	case PeriodFullDay:
		return []Period{PeriodMorning, PeriodAfternoon}
	case PeriodMorning, PeriodAfternoon:
		return []Period{p}
	default:
		return nil
	}
}

// Overlaps reports whether two periods share at least one half-day.
// FULL_DAY overlaps both halves and itself.
func (p Period) Overlaps(other Period) bool {
	if !p.Valid() || !other.Valid() {
		return false
	}
	return p == other || p == PeriodFullDay || other == PeriodFullDay
}

// Weekday is a school weekday. Weekend dates never map to one.
type Weekday string

const (
	WeekdayMonday    Weekday = "MONDAY"
	WeekdayTuesday   Weekday = "TUESDAY"
	WeekdayWednesday Weekday = "WEDNESDAY"
	WeekdayThursday  Weekday = "THURSDAY"
	WeekdayFriday    Weekday = "FRIDAY"
)

// Valid reports whether w is one of the five school weekdays.
func (w Weekday) Valid() bool {
	switch w {
	case WeekdayMonday, WeekdayTuesday, WeekdayWednesday, WeekdayThursday, WeekdayFriday:
		return true
	default:
		return false
	}
}

// WeekdayOf maps a date to its school weekday. ok is false for Sat/Sun;
// downstream expansion silently drops those dates.
func WeekdayOf(date time.Time) (Weekday, bool) {
	switch date.Weekday() {
	case time.Monday:
		return WeekdayMonday, true
	case time.Tuesday:
		return WeekdayTuesday, true
	case time.Wednesday:
		return WeekdayWednesday, true
	case time.Thursday:
		return WeekdayThursday, true
	case time.Friday:
		return WeekdayFriday, true
	default:
		return "", false
	}
}

// DateOnly strips the time-of-day component so two dates compare by calendar day.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDate reports whether a and b fall on the same calendar day.
func SameDate(a, b time.Time) bool {
	return DateOnly(a).Equal(DateOnly(b))
}

// RangesOverlap implements inclusive interval overlap on calendar dates.
func RangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !DateOnly(aStart).After(DateOnly(bEnd)) && !DateOnly(aEnd).Before(DateOnly(bStart))
}

// DateWithin reports whether date falls inside the inclusive range.
func DateWithin(date, start, end time.Time) bool {
	d := DateOnly(date)
	return !d.Before(DateOnly(start)) && !d.After(DateOnly(end))
}

// Slot is one concrete half-day on the calendar. Period is always MORNING or
// AFTERNOON; FULL_DAY entries are expanded before a Slot is built.
type Slot struct {
	Date   time.Time `json:"date"`
	Period Period    `json:"period"`
}

// Key returns a stable identity for set membership.
func (s Slot) Key() string {
	return s.Date.Format(ISODate) + "|" + string(s.Period)
}

// SameSlot reports whether two (date, period) pairs refer to overlapping
// calendar time, honoring the FULL_DAY merge rule.
func SameSlot(dateA time.Time, periodA Period, dateB time.Time, periodB Period) bool {
	return SameDate(dateA, dateB) && periodA.Overlaps(periodB)
}

// SlotSet is a set of half-day slots keyed by Slot.Key.
type SlotSet map[string]Slot

// NewSlotSet builds a set from the given slots.
func NewSlotSet(slots []Slot) SlotSet {
	set := make(SlotSet, len(slots))
	for _, s := range slots {
		set[s.Key()] = s
	}
	return set
}

// Add inserts a slot into the set.
func (s SlotSet) Add(slot Slot) {
	s[slot.Key()] = slot
}

// Contains reports membership.
func (s SlotSet) Contains(slot Slot) bool {
	_, ok := s[slot.Key()]
	return ok
}

// IntersectCount returns how many slots of s are present in other.
func (s SlotSet) IntersectCount(other SlotSet) int {
	n := 0
	for key := range s {
		if _, ok := other[key]; ok {
			n++
		}
	}
	return n
}
