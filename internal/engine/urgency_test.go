package engine

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestComputeUrgencyOverdue(t *testing.T) {
	// threshold 2 days, absence started 3 days ago: one day past the deadline
	result := ComputeUrgency(date(t, "2025-09-04"), date(t, "2025-09-01"), intPtr(2), false)
	assert.Equal(t, TierDueOrOverdue, result.Tier)
	require.NotNil(t, result.DaysRemaining)
	assert.Equal(t, -1, *result.DaysRemaining)
}

func TestComputeUrgencyTierBoundaries(t *testing.T) {
	start := date(t, "2025-09-01")
	threshold := intPtr(5)
	cases := []struct {
		today     string
		tier      UrgencyTier
		remaining int
	}{
		{"2025-09-01", TierPlentyOfTime, 5},
		{"2025-09-02", TierPlentyOfTime, 4},
		{"2025-09-03", TierPlentyOfTime, 3},
		{"2025-09-04", TierApproaching, 2},
		{"2025-09-05", TierApproaching, 1},
		{"2025-09-06", TierApproaching, 0},
		{"2025-09-07", TierDueOrOverdue, -1},
	}
	for _, tc := range cases {
		result := ComputeUrgency(date(t, tc.today), start, threshold, false)
		assert.Equal(t, tc.tier, result.Tier, "today=%s", tc.today)
		require.NotNil(t, result.DaysRemaining)
		assert.Equal(t, tc.remaining, *result.DaysRemaining, "today=%s", tc.today)
	}
}

func TestComputeUrgencyCoveredAndNoDeadline(t *testing.T) {
	today := date(t, "2025-09-10")
	start := date(t, "2025-09-01")

	covered := ComputeUrgency(today, start, intPtr(2), true)
	assert.Equal(t, TierCovered, covered.Tier)
	require.NotNil(t, covered.DaysRemaining, "days remaining still reported for display")

	noDeadline := ComputeUrgency(today, start, nil, false)
	assert.Equal(t, TierNoDeadline, noDeadline.Tier)
	assert.Nil(t, noDeadline.DaysRemaining)

	// covered wins over the missing threshold
	coveredNoDeadline := ComputeUrgency(today, start, nil, true)
	assert.Equal(t, TierCovered, coveredNoDeadline.Tier)
	assert.Nil(t, coveredNoDeadline.DaysRemaining)
}

func TestWorstTierReduction(t *testing.T) {
	assert.Equal(t, TierDueOrOverdue, WorstTier([]UrgencyTier{TierCovered, TierDueOrOverdue, TierPlentyOfTime}))
	assert.Equal(t, TierApproaching, WorstTier([]UrgencyTier{TierNoDeadline, TierApproaching}))
	assert.Equal(t, TierCovered, WorstTier([]UrgencyTier{TierCovered, TierNoDeadline}))
	assert.Equal(t, TierNoDeadline, WorstTier(nil))
}

func TestLessUrgentSortOrder(t *testing.T) {
	type entry struct {
		name   string
		result UrgencyResult
		start  time.Time
	}
	entries := []entry{
		{"no-deadline", UrgencyResult{Tier: TierNoDeadline}, date(t, "2025-09-01")},
		{"covered", UrgencyResult{Tier: TierCovered}, date(t, "2025-09-01")},
		{"plenty", UrgencyResult{Tier: TierPlentyOfTime, DaysRemaining: intPtr(6)}, date(t, "2025-09-01")},
		{"approaching-late", UrgencyResult{Tier: TierApproaching, DaysRemaining: intPtr(2)}, date(t, "2025-09-01")},
		{"approaching-soon", UrgencyResult{Tier: TierApproaching, DaysRemaining: intPtr(0)}, date(t, "2025-09-01")},
		{"overdue", UrgencyResult{Tier: TierDueOrOverdue, DaysRemaining: intPtr(-3)}, date(t, "2025-09-01")},
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return LessUrgent(entries[i].result, entries[j].result, entries[i].start, entries[j].start)
	})

	got := make([]string, len(entries))
	for i, e := range entries {
		got[i] = e.name
	}
	assert.Equal(t, []string{"overdue", "approaching-soon", "approaching-late", "plenty", "covered", "no-deadline"}, got)
}

func TestLessUrgentTiebreakers(t *testing.T) {
	tier := UrgencyResult{Tier: TierApproaching, DaysRemaining: intPtr(1)}
	noRemaining := UrgencyResult{Tier: TierApproaching}

	// nil days-remaining sorts after a concrete value within the same tier
	assert.True(t, LessUrgent(tier, noRemaining, date(t, "2025-09-01"), date(t, "2025-09-01")))
	assert.False(t, LessUrgent(noRemaining, tier, date(t, "2025-09-01"), date(t, "2025-09-01")))

	// equal tier and days remaining: later start date first
	assert.True(t, LessUrgent(tier, tier, date(t, "2025-09-10"), date(t, "2025-09-01")))
	assert.False(t, LessUrgent(tier, tier, date(t, "2025-09-01"), date(t, "2025-09-10")))
}
