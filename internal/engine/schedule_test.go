package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWeeklyPatternNormalization(t *testing.T) {
	pattern := NewWeeklyPattern([]PatternEntry{
		{Weekday: WeekdayMonday, Period: PeriodMorning},
		{Weekday: WeekdayMonday, Period: PeriodAfternoon},
		{Weekday: WeekdayTuesday, Period: PeriodMorning},
		{Weekday: WeekdayTuesday, Period: PeriodMorning},
		{Weekday: "monday", Period: "full_day"},
		{Weekday: "SUNDAY", Period: PeriodMorning},
		{Weekday: WeekdayFriday, Period: "EVENING"},
	})

	// morning + afternoon collapse to a full day, duplicates are absorbed
	assert.Equal(t, PeriodFullDay, pattern[WeekdayMonday])
	assert.Equal(t, PeriodMorning, pattern[WeekdayTuesday])
	_, ok := pattern[WeekdayFriday]
	assert.False(t, ok, "invalid period entry must be skipped")
	assert.Len(t, pattern, 2)
}

func TestParseWeeklyPatternTolerant(t *testing.T) {
	pattern, ok := ParseWeeklyPattern(`[{"weekday":"MONDAY","period":"MORNING"},{"weekday":"WEDNESDAY","period":"FULL_DAY"}]`)
	require.True(t, ok)
	assert.Equal(t, PeriodMorning, pattern[WeekdayMonday])
	assert.Equal(t, PeriodFullDay, pattern[WeekdayWednesday])

	for _, raw := range []string{"", "null", "not json", `{"weekday":1}`, "[{broken", "[]"} {
		pattern, ok := ParseWeeklyPattern(raw)
		assert.False(t, ok, "raw %q must yield no pattern data", raw)
		assert.Nil(t, pattern)
	}
}

func TestParseWeeklyPatternAllEntriesInvalid(t *testing.T) {
	// Rows that decode but carry unknown enum values normalize to nothing.
	// That must read as "no schedule data" so the full-presence fallback
	// applies instead of an empty pattern that expands to zero slots.
	pattern, ok := ParseWeeklyPattern(`[{"weekday":"LUNDI","period":"MATIN"}]`)
	assert.False(t, ok)
	assert.Nil(t, pattern)

	monday := date(t, "2025-09-01")
	slots := ExpandPresence(monday, monday, PeriodFullDay, pattern)
	assert.NotEmpty(t, slots, "unusable schedule data must not hide required coverage")
}

func TestExpandPresenceRoundTrip(t *testing.T) {
	// {Mon, full-day} over a single Monday with a full-day window yields
	// exactly the two half slots.
	monday := date(t, "2025-09-01")
	pattern := NewWeeklyPattern([]PatternEntry{{Weekday: WeekdayMonday, Period: PeriodFullDay}})

	slots := ExpandPresence(monday, monday, PeriodFullDay, pattern)
	require.Len(t, slots, 2)
	assert.Equal(t, Slot{Date: monday, Period: PeriodMorning}, slots[0])
	assert.Equal(t, Slot{Date: monday, Period: PeriodAfternoon}, slots[1])
}

func TestExpandPresenceHalfDayIntersection(t *testing.T) {
	monday := date(t, "2025-09-01")
	morningOnly := NewWeeklyPattern([]PatternEntry{{Weekday: WeekdayMonday, Period: PeriodMorning}})

	// full-day window against a morning-only pattern emits just the morning
	slots := ExpandPresence(monday, monday, PeriodFullDay, morningOnly)
	require.Len(t, slots, 1)
	assert.Equal(t, PeriodMorning, slots[0].Period)

	// afternoon window against a morning-only pattern emits nothing
	assert.Empty(t, ExpandPresence(monday, monday, PeriodAfternoon, morningOnly))

	// morning window against a full-day pattern emits the morning
	fullDay := NewWeeklyPattern([]PatternEntry{{Weekday: WeekdayMonday, Period: PeriodFullDay}})
	slots = ExpandPresence(monday, monday, PeriodMorning, fullDay)
	require.Len(t, slots, 1)
	assert.Equal(t, PeriodMorning, slots[0].Period)
}

func TestExpandPresenceSkipsWeekendsAndMissingWeekdays(t *testing.T) {
	// Mon 2025-09-01 .. Sun 2025-09-07, pattern only covers Tuesday
	pattern := NewWeeklyPattern([]PatternEntry{{Weekday: WeekdayTuesday, Period: PeriodFullDay}})
	slots := ExpandPresence(date(t, "2025-09-01"), date(t, "2025-09-07"), PeriodFullDay, pattern)
	require.Len(t, slots, 2)
	for _, s := range slots {
		assert.Equal(t, date(t, "2025-09-02"), s.Date)
	}
}

func TestExpandPresenceNoPatternFallback(t *testing.T) {
	// missing schedule data treats every weekday as covered by the window period
	monday := date(t, "2025-09-01")
	slots := ExpandPresence(monday, monday, PeriodFullDay, nil)
	require.Len(t, slots, 2)

	slots = ExpandPresence(monday, monday, PeriodMorning, nil)
	require.Len(t, slots, 1)
	assert.Equal(t, PeriodMorning, slots[0].Period)

	// a week-long window under fallback covers all five weekdays
	slots = ExpandPresence(date(t, "2025-09-01"), date(t, "2025-09-07"), PeriodFullDay, nil)
	assert.Len(t, slots, 10)
}

func TestExpandPresenceWeekendOnlyWindow(t *testing.T) {
	saturday := date(t, "2025-09-06")
	assert.Empty(t, ExpandPresence(saturday, saturday, PeriodFullDay, nil))
}

func TestWeeklyPatternEntriesOrdered(t *testing.T) {
	pattern := NewWeeklyPattern([]PatternEntry{
		{Weekday: WeekdayFriday, Period: PeriodMorning},
		{Weekday: WeekdayMonday, Period: PeriodAfternoon},
	})
	entries := pattern.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, WeekdayMonday, entries[0].Weekday)
	assert.Equal(t, WeekdayFriday, entries[1].Weekday)
}
