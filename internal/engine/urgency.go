package engine

import "time"

// UrgencyTier triages how badly an uncovered absence needs attention.
type UrgencyTier string

const (
	TierDueOrOverdue UrgencyTier = "DUE_TODAY_OR_OVERDUE"
	TierApproaching  UrgencyTier = "APPROACHING"
	TierPlentyOfTime UrgencyTier = "PLENTY_OF_TIME"
	TierCovered      UrgencyTier = "COVERED"
	TierNoDeadline   UrgencyTier = "NO_DEADLINE"
)

// rank defines the total sort order: most urgent first. Covered sorts before
// no-deadline; a resolved absence still carries more signal than one that can
// never become urgent.
func (t UrgencyTier) rank() int {
	switch t {
	case TierDueOrOverdue:
		return 0
	case TierApproaching:
		return 1
	case TierPlentyOfTime:
		return 2
	case TierCovered:
		return 3
	case TierNoDeadline:
		return 4
	default:
		return 5
	}
}

// MoreUrgentThan reports whether t outranks other in severity.
func (t UrgencyTier) MoreUrgentThan(other UrgencyTier) bool {
	return t.rank() < other.rank()
}

// UrgencyResult is the tier for one school plus the remaining days until the
// school's replacement deadline. DaysRemaining is nil when the school has no
// deadline configured.
type UrgencyResult struct {
	Tier          UrgencyTier `json:"tier"`
	DaysRemaining *int        `json:"days_remaining"`
}

// ComputeUrgency derives the tier for one absence at one school. today is an
// explicit parameter so the computation stays clock-free and testable.
// thresholdDays nil means the school imposes no replacement deadline.
func ComputeUrgency(today, absenceStart time.Time, thresholdDays *int, covered bool) UrgencyResult {
	var daysRemaining *int
	if thresholdDays != nil {
		elapsed := int(DateOnly(today).Sub(DateOnly(absenceStart)).Hours() / 24)
		remaining := *thresholdDays - elapsed
		daysRemaining = &remaining
	}

	if covered {
		return UrgencyResult{Tier: TierCovered, DaysRemaining: daysRemaining}
	}
	if daysRemaining == nil {
		return UrgencyResult{Tier: TierNoDeadline}
	}
	switch {
	case *daysRemaining > 2:
		return UrgencyResult{Tier: TierPlentyOfTime, DaysRemaining: daysRemaining}
	case *daysRemaining >= 0:
		return UrgencyResult{Tier: TierApproaching, DaysRemaining: daysRemaining}
	default:
		return UrgencyResult{Tier: TierDueOrOverdue, DaysRemaining: daysRemaining}
	}
}

// WorstTier reduces per-school tiers to the single most urgent one. An empty
// input resolves to no-deadline.
func WorstTier(tiers []UrgencyTier) UrgencyTier {
	worst := TierNoDeadline
	for _, tier := range tiers {
		if tier.MoreUrgentThan(worst) {
			worst = tier
		}
	}
	return worst
}

// LessUrgent is the total order used for board sorting: tier severity first,
// then days remaining ascending with nils last, then absence start date
// descending so recent absences surface first within equal urgency.
func LessUrgent(a, b UrgencyResult, startA, startB time.Time) bool {
	if a.Tier.rank() != b.Tier.rank() {
		return a.Tier.rank() < b.Tier.rank()
	}
	switch {
	case a.DaysRemaining != nil && b.DaysRemaining != nil:
		if *a.DaysRemaining != *b.DaysRemaining {
			return *a.DaysRemaining < *b.DaysRemaining
		}
	case a.DaysRemaining != nil:
		return true
	case b.DaysRemaining != nil:
		return false
	}
	return DateOnly(startA).After(DateOnly(startB))
}
