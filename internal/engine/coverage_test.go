package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeCoverageScenarioFullViaFullDayAssignment(t *testing.T) {
	// absence Mon 2025-09-01 full-day, pattern {Mon, morning}: required is the
	// single morning slot; a full-day assignment covers it entirely.
	monday := date(t, "2025-09-01")
	pattern := NewWeeklyPattern([]PatternEntry{{Weekday: WeekdayMonday, Period: PeriodMorning}})
	required := ExpandPresence(monday, monday, PeriodFullDay, pattern)
	require.Equal(t, []Slot{{Date: monday, Period: PeriodMorning}}, required)

	result := ComputeCoverage(required, []AssignmentSpan{
		{StartDate: monday, EndDate: monday, Period: PeriodFullDay},
	})
	assert.Equal(t, 1, result.Covered)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, CoverageFull, result.Classification)
	assert.False(t, result.Degenerate)
}

func TestComputeCoverageScenarioFallbackUncovered(t *testing.T) {
	// same absence, but no pattern data at all: fallback requires both halves
	// and no assignment exists.
	monday := date(t, "2025-09-01")
	required := ExpandPresence(monday, monday, PeriodFullDay, nil)
	require.Len(t, required, 2)

	result := ComputeCoverage(required, nil)
	assert.Equal(t, 0, result.Covered)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, CoverageNone, result.Classification)
	assert.False(t, result.Degenerate)
}

func TestComputeCoveragePartial(t *testing.T) {
	pattern := NewWeeklyPattern([]PatternEntry{
		{Weekday: WeekdayMonday, Period: PeriodFullDay},
		{Weekday: WeekdayTuesday, Period: PeriodFullDay},
	})
	required := ExpandPresence(date(t, "2025-09-01"), date(t, "2025-09-02"), PeriodFullDay, pattern)
	require.Len(t, required, 4)

	result := ComputeCoverage(required, []AssignmentSpan{
		{StartDate: date(t, "2025-09-01"), EndDate: date(t, "2025-09-01"), Period: PeriodMorning},
	})
	assert.Equal(t, 1, result.Covered)
	assert.Equal(t, 4, result.Total)
	assert.Equal(t, CoveragePartial, result.Classification)
}

func TestComputeCoverageDegenerate(t *testing.T) {
	// a Saturday-only absence yields zero required slots: flagged, not "full"
	saturday := date(t, "2025-09-06")
	required := ExpandPresence(saturday, saturday, PeriodFullDay, nil)
	require.Empty(t, required)

	result := ComputeCoverage(required, []AssignmentSpan{
		{StartDate: saturday, EndDate: saturday, Period: PeriodFullDay},
	})
	assert.Equal(t, CoverageNone, result.Classification)
	assert.True(t, result.Degenerate)
	assert.False(t, result.IsCovered())
}

func TestComputeCoverageInvariants(t *testing.T) {
	pattern := NewWeeklyPattern([]PatternEntry{
		{Weekday: WeekdayMonday, Period: PeriodFullDay},
		{Weekday: WeekdayWednesday, Period: PeriodMorning},
		{Weekday: WeekdayFriday, Period: PeriodAfternoon},
	})
	required := ExpandPresence(date(t, "2025-09-01"), date(t, "2025-09-12"), PeriodFullDay, pattern)
	assignments := []AssignmentSpan{
		{StartDate: date(t, "2025-09-01"), EndDate: date(t, "2025-09-05"), Period: PeriodFullDay},
		{StartDate: date(t, "2025-09-08"), EndDate: date(t, "2025-09-08"), Period: PeriodMorning},
	}

	result := ComputeCoverage(required, assignments)
	assert.LessOrEqual(t, result.Covered, result.Total)
	assert.Equal(t, result.Covered == result.Total && result.Total > 0, result.Classification == CoverageFull)

	// idempotence: identical inputs, identical outputs
	again := ComputeCoverage(required, assignments)
	assert.Equal(t, result, again)
}

func TestComputeCoverageOverlappingAssignmentsCountOnce(t *testing.T) {
	monday := date(t, "2025-09-01")
	required := ExpandPresence(monday, monday, PeriodFullDay, nil)

	// two assignments covering the same morning must not double-count
	result := ComputeCoverage(required, []AssignmentSpan{
		{StartDate: monday, EndDate: monday, Period: PeriodMorning},
		{StartDate: monday, EndDate: monday, Period: PeriodMorning},
	})
	assert.Equal(t, 1, result.Covered)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, CoveragePartial, result.Classification)
}
