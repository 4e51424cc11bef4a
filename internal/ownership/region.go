package ownership

import "aetherc/internal/diagnostics"

// DropEntry is a local whose scope-exit requires a Drop statement to be
// inserted by the MIR lowering pass (§3.5, §4.2 "exit_region").
type DropEntry struct {
	Local LocalRef
	Name  string
}

// enterRegion pushes a new region (§4.2 "enter_region").
func (a *Analyzer) enterRegion() RegionID {
	r := &region{id: newRegionID(), strategy: make(map[LocalRef]AllocationStrategy)}
	a.regions = append(a.regions, r)
	return r.id
}

// EnterRegion is the public entry point used by MIR lowering when a new
// lexical block is opened.
func (a *Analyzer) EnterRegion() RegionID { return a.enterRegion() }

// ExitRegion pops the innermost region and returns the locals that need a
// Drop inserted: those still Owned whose type requires destruction. Locals in MovedFrom are never dropped (§4.2).
func (a *Analyzer) ExitRegion() []DropEntry {
	n := len(a.regions)
	if n == 0 {
		panic("ownership: ExitRegion called with no active region")
	}
	top := a.regions[n-1]
	a.regions = a.regions[:n-1]

	var drops []DropEntry
	for _, ref := range top.locals {
		ls := a.locals[ref]
		if ls.State != Owned {
			continue
		}
		if int(ref) >= len(a.traits) || !a.traits[ref].RequiresDrop {
			continue
		}
		drops = append(drops, DropEntry{Local: ref, Name: a.name(ref)})
	}
	return drops
}

// CurrentRegion returns the innermost active region's ID.
func (a *Analyzer) CurrentRegion() RegionID {
	return a.regions[len(a.regions)-1].id
}

// Snapshot captures the ownership state of every local, for saving and
// restoring at a control-flow branch point.
type Snapshot struct {
	states []LocalState
}

// Snapshot returns a copy of the current per-local state, safe to mutate
// independently via Restore.
func (a *Analyzer) Snapshot() Snapshot {
	states := make([]LocalState, len(a.locals))
	copy(states, a.locals)
	return Snapshot{states: states}
}

// Restore resets the analyzer's per-local state to a previously captured
// Snapshot, used before walking an alternate branch from the same join
// point (e.g. the else-branch after having walked then-branch).
func (a *Analyzer) Restore(s Snapshot) {
	copy(a.locals, s.states)
}

// MergeResult reports what happened when two branch-end snapshots were
// combined at a join point, including any conditional-move warnings
// emitted per §4.2 "Control-flow merge".
type MergeResult struct {
	Warnings []string
}

// Merge combines two branch-end snapshots into the analyzer's live state,
// implementing §4.2's join-point rules:
//
//	MovedFrom ⊔ Owned = MovedFrom, with a conditional-move warning
//	ImmutablyBorrowed(a) ⊔ ImmutablyBorrowed(b) = ImmutablyBorrowed(max(a,b))
//	any other disagreement is an error
//
// a and b must describe the same number of locals (both captured from
// this Analyzer via Snapshot after diverging at the same point).
func (a *Analyzer) Merge(line, col int, branches ...Snapshot) MergeResult {
	var result MergeResult
	if len(branches) == 0 {
		return result
	}
	n := len(branches[0].states)
	merged := make([]LocalState, n)
	copy(merged, branches[0].states)

	for _, br := range branches[1:] {
		for i := 0; i < n; i++ {
			left := merged[i]
			right := br.states[i]
			merged[i] = a.mergeOne(i, left, right, &result)
		}
	}
	copy(a.locals, merged)
	return result
}

func (a *Analyzer) mergeOne(idx int, left, right LocalState, result *MergeResult) LocalState {
	if left.State == right.State {
		if left.State == ImmutablyBorrowed {
			count := left.BorrowCount
			if right.BorrowCount > count {
				count = right.BorrowCount
			}
			left.BorrowCount = count
		}
		return left
	}

	// MovedFrom on one side, Owned on the other: conditionally-moved,
	// warn and treat as MovedFrom (the conservative outcome — a later
	// read on the path that didn't move would otherwise be unsound).
	if (left.State == MovedFrom && right.State == Owned) ||
		(left.State == Owned && right.State == MovedFrom) {
		result.Warnings = append(result.Warnings,
			conditionalMoveWarning(a.name(LocalRef(idx))))
		moved := left
		if left.State != MovedFrom {
			moved = right
		}
		return moved
	}

	// Any other disagreement is a hard error recorded against the merge
	// site; the analyzer still needs to return *some* state so downstream
	// lowering can proceed — MovedFrom is the safe choice since it
	// refuses further unchecked reads.
	a.diags.Errorf(
		diagnostics.KindOwnershipConflict,
		a.span(line, col),
		"ownership states disagree at control-flow join for %q: %s vs %s",
		a.name(LocalRef(idx)), left.State, right.State,
	)
	return LocalState{State: MovedFrom}
}

func conditionalMoveWarning(name string) string {
	return "value " + name + " may have been moved on one branch; using it afterwards is unsound on that path"
}
