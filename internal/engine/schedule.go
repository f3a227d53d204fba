package engine

import (
	"encoding/json"
	"strings"
	"time"
)

// PatternEntry is one weekday/period pair from a stored weekly schedule row.
type PatternEntry struct {
	Weekday Weekday `json:"weekday"`
	Period  Period  `json:"period"`
}

// WeeklyPattern maps each weekday to the period a person is normally present
// (or free, for substitutes). A nil pattern means "no schedule data at all",
// which is different from an empty pattern: the expander falls back to
// treating every weekday as covered when the pattern is nil, so missing data
// never hides required coverage.
type WeeklyPattern map[Weekday]Period

// NewWeeklyPattern normalizes raw entries into a pattern. Duplicates collapse,
// a morning plus an afternoon entry for the same weekday become FULL_DAY, and
// entries with unknown weekdays or periods are skipped.
func NewWeeklyPattern(entries []PatternEntry) WeeklyPattern {
	pattern := make(WeeklyPattern, len(entries))
	for _, e := range entries {
		weekday := Weekday(strings.ToUpper(strings.TrimSpace(string(e.Weekday))))
		period := Period(strings.ToUpper(strings.TrimSpace(string(e.Period))))
		if !weekday.Valid() || !period.Valid() {
			continue
		}
		existing, ok := pattern[weekday]
		switch {
		case !ok:
			pattern[weekday] = period
		case existing == period:
			// duplicate row
		default:
			// any two distinct periods on the same weekday merge to a full day
			pattern[weekday] = PeriodFullDay
		}
	}
	return pattern
}

// ParseWeeklyPattern decodes the legacy JSON-text schedule column. The second
// return value is false when the text carries no usable schedule data, in
// which case callers apply the conservative full-presence fallback. Malformed
// text is never an error, and neither is well-formed JSON whose entries all
// normalize away (an empty list, or rows with unknown weekday or period
// values): an unusable schedule must not hide required coverage.
func ParseWeeklyPattern(raw string) (WeeklyPattern, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return nil, false
	}
	var entries []PatternEntry
	if err := json.Unmarshal([]byte(trimmed), &entries); err != nil {
		return nil, false
	}
	pattern := NewWeeklyPattern(entries)
	if len(pattern) == 0 {
		return nil, false
	}
	return pattern, true
}

// Entries returns the pattern as normalized entries in weekday order,
// suitable for re-serialization.
func (p WeeklyPattern) Entries() []PatternEntry {
	if p == nil {
		return nil
	}
	order := []Weekday{WeekdayMonday, WeekdayTuesday, WeekdayWednesday, WeekdayThursday, WeekdayFriday}
	entries := make([]PatternEntry, 0, len(p))
	for _, weekday := range order {
		if period, ok := p[weekday]; ok {
			entries = append(entries, PatternEntry{Weekday: weekday, Period: period})
		}
	}
	return entries
}

// ExpandPresence turns a weekly pattern into the concrete half-day slots that
// fall inside the inclusive [start, end] window, intersected with the
// window's own period. Weekends never produce slots. A nil pattern triggers
// the fallback: every weekday in range counts as covered by the window period.
func ExpandPresence(start, end time.Time, period Period, pattern WeeklyPattern) []Slot {
	if !period.Valid() {
		return nil
	}
	var slots []Slot
	for d := DateOnly(start); !d.After(DateOnly(end)); d = d.AddDate(0, 0, 1) {
		weekday, ok := WeekdayOf(d)
		if !ok {
			continue
		}
		present := period
		if pattern != nil {
			present, ok = pattern[weekday]
			if !ok {
				continue
			}
		}
		for _, half := range period.Halves() {
			if present.Overlaps(half) {
				slots = append(slots, Slot{Date: d, Period: half})
			}
		}
	}
	return slots
}
