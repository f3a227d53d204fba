package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(ISODate, value)
	require.NoError(t, err)
	return parsed
}

func TestPeriodOverlaps(t *testing.T) {
	cases := []struct {
		a, b Period
		want bool
	}{
		{PeriodMorning, PeriodMorning, true},
		{PeriodAfternoon, PeriodAfternoon, true},
		{PeriodMorning, PeriodAfternoon, false},
		{PeriodAfternoon, PeriodMorning, false},
		{PeriodFullDay, PeriodMorning, true},
		{PeriodFullDay, PeriodAfternoon, true},
		{PeriodMorning, PeriodFullDay, true},
		{PeriodFullDay, PeriodFullDay, true},
		{Period("EVENING"), PeriodMorning, false},
		{PeriodMorning, Period(""), false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.a.Overlaps(tc.b), "%s vs %s", tc.a, tc.b)
	}
}

func TestPeriodHalves(t *testing.T) {
	assert.Equal(t, []Period{PeriodMorning, PeriodAfternoon}, PeriodFullDay.Halves())
	assert.Equal(t, []Period{PeriodMorning}, PeriodMorning.Halves())
	assert.Equal(t, []Period{PeriodAfternoon}, PeriodAfternoon.Halves())
	assert.Nil(t, Period("BOGUS").Halves())
}

func TestWeekdayOf(t *testing.T) {
	monday := date(t, "2025-09-01")
	weekday, ok := WeekdayOf(monday)
	require.True(t, ok)
	assert.Equal(t, WeekdayMonday, weekday)

	friday := date(t, "2025-09-05")
	weekday, ok = WeekdayOf(friday)
	require.True(t, ok)
	assert.Equal(t, WeekdayFriday, weekday)

	saturday := date(t, "2025-09-06")
	_, ok = WeekdayOf(saturday)
	assert.False(t, ok)

	sunday := date(t, "2025-09-07")
	_, ok = WeekdayOf(sunday)
	assert.False(t, ok)
}

func TestRangesOverlapInclusive(t *testing.T) {
	start := date(t, "2025-09-01")
	end := date(t, "2025-09-05")

	assert.True(t, RangesOverlap(start, end, date(t, "2025-09-05"), date(t, "2025-09-10")), "touching end boundary")
	assert.True(t, RangesOverlap(start, end, date(t, "2025-08-20"), date(t, "2025-09-01")), "touching start boundary")
	assert.True(t, RangesOverlap(start, end, date(t, "2025-08-01"), date(t, "2025-12-31")), "containing")
	assert.False(t, RangesOverlap(start, end, date(t, "2025-09-06"), date(t, "2025-09-10")))
	assert.False(t, RangesOverlap(start, end, date(t, "2025-08-01"), date(t, "2025-08-31")))
}

func TestSameSlotHonorsFullDayMerge(t *testing.T) {
	monday := date(t, "2025-09-01")
	assert.True(t, SameSlot(monday, PeriodFullDay, monday, PeriodMorning))
	assert.True(t, SameSlot(monday, PeriodMorning, monday, PeriodFullDay))
	assert.False(t, SameSlot(monday, PeriodMorning, monday, PeriodAfternoon))
	assert.False(t, SameSlot(monday, PeriodMorning, date(t, "2025-09-02"), PeriodMorning))
}

func TestSlotSetIntersectCount(t *testing.T) {
	monday := date(t, "2025-09-01")
	tuesday := date(t, "2025-09-02")
	required := NewSlotSet([]Slot{
		{Date: monday, Period: PeriodMorning},
		{Date: monday, Period: PeriodAfternoon},
		{Date: tuesday, Period: PeriodMorning},
	})
	covered := NewSlotSet([]Slot{
		{Date: monday, Period: PeriodMorning},
		{Date: tuesday, Period: PeriodAfternoon},
	})
	assert.Equal(t, 1, required.IntersectCount(covered))
	assert.True(t, required.Contains(Slot{Date: monday, Period: PeriodAfternoon}))
	assert.False(t, covered.Contains(Slot{Date: monday, Period: PeriodAfternoon}))
}
