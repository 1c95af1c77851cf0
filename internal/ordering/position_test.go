package ordering

import (
	"sort"
	"testing"
)

func sortSiblings(s []Sibling) {
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].Position < s[j].Position
	})
}

func applyPlan(siblings []Sibling, movedID string, plan Plan) []Sibling {
	byID := make(map[string]int, len(siblings)+1)
	out := make([]Sibling, len(siblings))
	copy(out, siblings)
	for i, s := range out {
		byID[s.ID] = i
	}
	for _, w := range plan.Writes {
		if i, ok := byID[w.ID]; ok {
			out[i].Position = w.Position
		} else {
			out = append(out, Sibling{ID: w.ID, Position: w.Position})
		}
	}
	sortSiblings(out)
	return out
}

func orderOf(siblings []Sibling) []string {
	ids := make([]string, len(siblings))
	for i, s := range siblings {
		ids[i] = s.ID
	}
	return ids
}

func TestAppend(t *testing.T) {
	if got := Append(0, false); got != 0 {
		t.Errorf("first sibling position = %d, want 0", got)
	}
	if got := Append(0, true); got != Gap {
		t.Errorf("second sibling position = %d, want %d", got, Gap)
	}
	if got := Append(5*Gap, true); got != 6*Gap {
		t.Errorf("append after %d = %d, want %d", 5*Gap, got, 6*Gap)
	}
}

func TestBetween(t *testing.T) {
	tests := []struct {
		prev, next int
		want       int
		ok         bool
	}{
		{0, Gap, Gap / 2, true},
		{0, 2, 1, true},
		{0, 1, 0, false},
		{5, 5, 0, false},
		{-Gap, 0, -Gap / 2, true},
	}
	for _, tc := range tests {
		got, ok := Between(tc.prev, tc.next)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Errorf("Between(%d, %d) = (%d, %v), want (%d, %v)",
				tc.prev, tc.next, got, ok, tc.want, tc.ok)
		}
		if ok && (got <= tc.prev || got >= tc.next) {
			t.Errorf("Between(%d, %d) = %d is not strictly between", tc.prev, tc.next, got)
		}
	}
}

func TestPlanMoveSingleWrite(t *testing.T) {
	siblings := []Sibling{
		{ID: "a", Position: 0},
		{ID: "b", Position: Gap},
		{ID: "c", Position: 2 * Gap},
	}

	// Drag "c" above "a" — the UI's "move to top".
	plan := PlanMove(siblings, "c", 0)
	if plan.Renumber {
		t.Fatal("move to front should not renumber")
	}
	if len(plan.Writes) != 1 {
		t.Fatalf("expected 1 write, got %d", len(plan.Writes))
	}
	after := applyPlan(siblings, "c", plan)
	want := []string{"c", "a", "b"}
	got := orderOf(after)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order after move = %v, want %v", got, want)
		}
	}
}

func TestPlanMoveMiddle(t *testing.T) {
	siblings := []Sibling{
		{ID: "a", Position: 0},
		{ID: "b", Position: Gap},
		{ID: "c", Position: 2 * Gap},
	}
	plan := PlanMove(siblings, "a", 1)
	if plan.Renumber || len(plan.Writes) != 1 {
		t.Fatalf("expected single-write plan, got %+v", plan)
	}
	after := applyPlan(siblings, "a", plan)
	got := orderOf(after)
	want := []string{"b", "a", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestPlanMoveGapExhausted(t *testing.T) {
	// Adjacent keys: no slot between b and c.
	siblings := []Sibling{
		{ID: "a", Position: 0},
		{ID: "b", Position: 1},
		{ID: "c", Position: 2},
	}
	plan := PlanMove(siblings, "a", 2)
	if !plan.Renumber {
		t.Fatal("expected renumber plan when gap is exhausted")
	}
	if len(plan.Writes) != 3 {
		t.Fatalf("renumber should rewrite all siblings, got %d writes", len(plan.Writes))
	}
	after := applyPlan(siblings, "a", plan)
	got := orderOf(after)
	want := []string{"b", "a", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
	// Renumbered keys regain sparse spacing.
	for i := 1; i < len(after); i++ {
		if after[i].Position-after[i-1].Position != Gap {
			t.Errorf("renumbered gap = %d, want %d", after[i].Position-after[i-1].Position, Gap)
		}
	}
}

func TestPlanMoveCrossParentInsert(t *testing.T) {
	// "x" is not in the sibling set: a task arriving from another group.
	siblings := []Sibling{
		{ID: "a", Position: 0},
		{ID: "b", Position: Gap},
	}
	plan := PlanMove(siblings, "x", 1)
	after := applyPlan(siblings, "x", plan)
	got := orderOf(after)
	want := []string{"a", "x", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestPlanMoveClampsIndex(t *testing.T) {
	siblings := []Sibling{
		{ID: "a", Position: 0},
		{ID: "b", Position: Gap},
	}
	plan := PlanMove(siblings, "a", 99)
	after := applyPlan(siblings, "a", plan)
	if got := orderOf(after); got[len(got)-1] != "a" {
		t.Errorf("clamped move should land at the end, got %v", got)
	}
	plan = PlanMove(siblings, "b", -5)
	after = applyPlan(siblings, "b", plan)
	if got := orderOf(after); got[0] != "b" {
		t.Errorf("clamped move should land at the front, got %v", got)
	}
}

// TestOrderPreservation runs a randomized-looking but fixed operation
// sequence and checks the resulting order matches a plain slice model.
func TestOrderPreservation(t *testing.T) {
	type op struct {
		kind  string // append, move, delete
		id    string
		index int
	}
	ops := []op{
		{kind: "append", id: "t1"},
		{kind: "append", id: "t2"},
		{kind: "append", id: "t3"},
		{kind: "move", id: "t3", index: 0},
		{kind: "append", id: "t4"},
		{kind: "move", id: "t1", index: 3},
		{kind: "delete", id: "t2"},
		{kind: "append", id: "t5"},
		{kind: "move", id: "t5", index: 1},
		{kind: "move", id: "t4", index: 0},
	}

	var siblings []Sibling
	var model []string

	removeFromModel := func(id string) {
		for i, m := range model {
			if m == id {
				model = append(model[:i], model[i+1:]...)
				return
			}
		}
	}

	for _, o := range ops {
		switch o.kind {
		case "append":
			maxPos := 0
			for _, s := range siblings {
				if s.Position > maxPos {
					maxPos = s.Position
				}
			}
			siblings = append(siblings, Sibling{ID: o.id, Position: Append(maxPos, len(siblings) > 0)})
			sortSiblings(siblings)
			model = append(model, o.id)
		case "move":
			plan := PlanMove(siblings, o.id, o.index)
			siblings = applyPlan(siblings, o.id, plan)
			removeFromModel(o.id)
			idx := o.index
			if idx > len(model) {
				idx = len(model)
			}
			model = append(model[:idx], append([]string{o.id}, model[idx:]...)...)
		case "delete":
			// Deletes leave a gap; no renumbering.
			for i, s := range siblings {
				if s.ID == o.id {
					siblings = append(siblings[:i], siblings[i+1:]...)
					break
				}
			}
			removeFromModel(o.id)
		}

		got := orderOf(siblings)
		if len(got) != len(model) {
			t.Fatalf("length mismatch after %+v: got %v, want %v", o, got, model)
		}
		for i := range model {
			if got[i] != model[i] {
				t.Fatalf("order mismatch after %+v: got %v, want %v", o, got, model)
			}
		}
	}
}

func TestNeedsRebalance(t *testing.T) {
	healthy := []Sibling{{ID: "a", Position: 0}, {ID: "b", Position: Gap}}
	if NeedsRebalance(healthy) {
		t.Error("sparse set should not need rebalance")
	}
	tight := []Sibling{{ID: "a", Position: 0}, {ID: "b", Position: 1}}
	if !NeedsRebalance(tight) {
		t.Error("adjacent keys should trigger rebalance")
	}
	if NeedsRebalance(nil) {
		t.Error("empty set never needs rebalance")
	}
}

func TestRenumber(t *testing.T) {
	siblings := []Sibling{
		{ID: "a", Position: 3},
		{ID: "b", Position: 4},
		{ID: "c", Position: 5},
	}
	writes := Renumber(siblings)
	for i, w := range writes {
		if w.Position != i*Gap {
			t.Errorf("write %d position = %d, want %d", i, w.Position, i*Gap)
		}
		if w.ID != siblings[i].ID {
			t.Errorf("renumber must preserve order, write %d is %s", i, w.ID)
		}
	}
}
