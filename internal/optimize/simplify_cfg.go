package optimize

import "aetherc/internal/mir"

// SimplifyCFG removes trivial-goto blocks — a block with no statements
// whose only terminator is an unconditional Goto — by redirecting every
// predecessor straight to its target, grounded on the surge compiler's
// mir.SimplifyCFG (proven there against exactly this "bb0 -> bb1(trivial)
// -> bb2" shape). The trivial block itself is left for DeadBlockElimination
// to remove once nothing points to it anymore.
type SimplifyCFG struct{}

func (SimplifyCFG) Name() string { return "simplify_cfg" }

func (SimplifyCFG) Apply(fn *mir.Function) bool {
	trivial := make(map[mir.BlockID]mir.BlockID) // trivial block -> its goto target
	for _, id := range fn.BlockIDs() {
		blk, ok := fn.Block(id)
		if !ok || id == fn.Entry {
			continue
		}
		if len(blk.Statements) == 0 && blk.Terminator.Kind == mir.TermGoto {
			trivial[id] = blk.Terminator.Target
		}
	}
	if len(trivial) == 0 {
		return false
	}

	resolve := func(target mir.BlockID) mir.BlockID {
		seen := map[mir.BlockID]bool{}
		for {
			next, ok := trivial[target]
			if !ok || seen[target] {
				return target
			}
			seen[target] = true
			target = next
		}
	}

	changed := false
	for _, id := range fn.BlockIDs() {
		blk, ok := fn.Block(id)
		if !ok {
			continue
		}
		if retarget(&blk.Terminator, resolve) {
			changed = true
		}
	}
	return changed
}

func retarget(term *mir.Terminator, resolve func(mir.BlockID) mir.BlockID) bool {
	changed := false
	redirect := func(target *mir.BlockID) {
		if resolved := resolve(*target); resolved != *target {
			*target = resolved
			changed = true
		}
	}

	switch term.Kind {
	case mir.TermGoto:
		redirect(&term.Target)
	case mir.TermSwitchInt:
		for i := range term.Targets.Targets {
			redirect(&term.Targets.Targets[i])
		}
		redirect(&term.Targets.Otherwise)
	case mir.TermCall:
		redirect(&term.NormalTarget)
		if term.UnwindTarget != nil {
			redirect(term.UnwindTarget)
		}
	case mir.TermAssert:
		redirect(&term.AssertTarget)
		if term.AssertUnwind != nil {
			redirect(term.AssertUnwind)
		}
	}
	return changed
}
