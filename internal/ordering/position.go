// Package ordering assigns sparse integer position keys to sibling entities
// (task groups within a project, tasks within a group). Keys only need to
// preserve relative order, not be contiguous: appends and most moves write a
// single record, and a full renumber happens only when the gap between two
// neighbors is exhausted.
package ordering

// Gap is the spacing between freshly assigned position keys. Sparse keys let
// a move write only the moved entity in the common case.
const Gap = 1 << 10

// RebalanceThreshold is the minimum adjacent gap below which a sibling set
// should be renumbered by the maintenance job.
const RebalanceThreshold = 2

// Sibling is the minimal view of an ordered entity the planner needs.
type Sibling struct {
	ID       string
	Position int
}

// Append returns the position key for a new entity added after the current
// maximum sibling position. For an empty sibling set pass hasSiblings=false.
func Append(maxPos int, hasSiblings bool) int {
	if !hasSiblings {
		return 0
	}
	return maxPos + Gap
}

// Between returns a key strictly ordering an entity between prev and next.
// ok is false when no integer key exists between them.
func Between(prev, next int) (pos int, ok bool) {
	if next-prev < 2 {
		return 0, false
	}
	return prev + (next-prev)/2, true
}

// Write is a single position assignment produced by a plan.
type Write struct {
	ID       string
	Position int
}

// Plan describes the writes needed to realize a move. When Renumber is false
// the plan contains exactly one write (the moved entity). When Renumber is
// true every sibling is rewritten and the plan must be applied atomically.
type Plan struct {
	Renumber bool
	Writes   []Write
}

// PlanMove computes the writes that place movedID at newIndex within
// siblings. siblings must be sorted by position ascending with deterministic
// tie-break and must contain movedID. newIndex is clamped to the valid range.
func PlanMove(siblings []Sibling, movedID string, newIndex int) Plan {
	ordered := make([]Sibling, 0, len(siblings))
	var moved Sibling
	found := false
	for _, s := range siblings {
		if s.ID == movedID {
			moved = s
			found = true
			continue
		}
		ordered = append(ordered, s)
	}
	if !found {
		// Cross-parent move: the entity joins a sibling set it is not yet
		// part of. Treat it as an insert.
		moved = Sibling{ID: movedID}
	}

	if newIndex < 0 {
		newIndex = 0
	}
	if newIndex > len(ordered) {
		newIndex = len(ordered)
	}

	// Edge slots never need a renumber: there is always room before the
	// first key and after the last.
	switch {
	case len(ordered) == 0:
		return Plan{Writes: []Write{{ID: movedID, Position: 0}}}
	case newIndex == 0:
		return Plan{Writes: []Write{{ID: movedID, Position: ordered[0].Position - Gap}}}
	case newIndex == len(ordered):
		return Plan{Writes: []Write{{ID: movedID, Position: ordered[len(ordered)-1].Position + Gap}}}
	default:
		prev := ordered[newIndex-1].Position
		next := ordered[newIndex].Position
		if pos, ok := Between(prev, next); ok {
			return Plan{Writes: []Write{{ID: movedID, Position: pos}}}
		}
		return renumberPlan(ordered, moved, newIndex)
	}
}

// renumberPlan rewrites every sibling at Gap spacing with the moved entity
// inserted at newIndex. The caller must apply these writes atomically.
func renumberPlan(ordered []Sibling, moved Sibling, newIndex int) Plan {
	final := make([]Sibling, 0, len(ordered)+1)
	final = append(final, ordered[:newIndex]...)
	final = append(final, moved)
	final = append(final, ordered[newIndex:]...)

	writes := make([]Write, len(final))
	for i, s := range final {
		writes[i] = Write{ID: s.ID, Position: i * Gap}
	}
	return Plan{Renumber: true, Writes: writes}
}

// NeedsRebalance reports whether any adjacent pair in the sorted sibling set
// has a gap below RebalanceThreshold. Used by the maintenance sweep.
func NeedsRebalance(siblings []Sibling) bool {
	for i := 1; i < len(siblings); i++ {
		if siblings[i].Position-siblings[i-1].Position < RebalanceThreshold {
			return true
		}
	}
	return false
}

// Renumber returns fresh sparse keys for the sibling set in its current
// order.
func Renumber(siblings []Sibling) []Write {
	writes := make([]Write, len(siblings))
	for i, s := range siblings {
		writes[i] = Write{ID: s.ID, Position: i * Gap}
	}
	return writes
}
