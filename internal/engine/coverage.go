package engine

// Classification summarises how much of an absence's required presence is
// matched by assignments.
type Classification string

const (
	CoverageNone    Classification = "NONE"
	CoveragePartial Classification = "PARTIAL"
	CoverageFull    Classification = "FULL"
)

// CoverageResult carries the slot counts behind a classification. Degenerate
// marks the total == 0 case: nothing was required, so nothing is covered, and
// operators should treat it as a data-quality signal rather than success.
type CoverageResult struct {
	Covered        int            `json:"covered"`
	Total          int            `json:"total"`
	Classification Classification `json:"classification"`
	Degenerate     bool           `json:"degenerate"`
}

// IsCovered reports full coverage of a non-degenerate requirement.
func (r CoverageResult) IsCovered() bool {
	return r.Classification == CoverageFull
}

// ComputeCoverage intersects the required slot set with the slots covered by
// the given assignments. Both sides are atomic half-day slots; assignment
// FULL_DAY spans count for both halves. The result is deterministic and the
// inputs are never mutated.
func ComputeCoverage(required []Slot, assignments []AssignmentSpan) CoverageResult {
	requiredSet := NewSlotSet(required)
	total := len(requiredSet)
	if total == 0 {
		return CoverageResult{Classification: CoverageNone, Degenerate: true}
	}

	covered := make(SlotSet, total)
	for _, assignment := range assignments {
		for _, slot := range assignment.Slots() {
			covered.Add(slot)
		}
	}

	hit := requiredSet.IntersectCount(covered)
	result := CoverageResult{Covered: hit, Total: total}
	switch {
	case hit >= total:
		result.Classification = CoverageFull
	case hit > 0:
		result.Classification = CoveragePartial
	default:
		result.Classification = CoverageNone
	}
	return result
}
