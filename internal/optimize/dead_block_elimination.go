package optimize

import (
	"aetherc/internal/cfg"
	"aetherc/internal/mir"
)

// DeadBlockElimination removes any basic block unreachable from the
// entry, after earlier passes may have turned a conditional branch into
// an unconditional one (constant-folded SwitchInt discriminants become
// dead-otherwise-arm candidates for a future pass; this one only removes
// blocks the CFG itself no longer reaches).
type DeadBlockElimination struct{}

func (DeadBlockElimination) Name() string { return "dead_block_elimination" }

func (DeadBlockElimination) Apply(fn *mir.Function) bool {
	g := cfg.Build(fn)
	reachable := make(map[mir.BlockID]bool)
	for _, id := range g.Blocks() {
		reachable[id] = true
	}

	changed := false
	for _, id := range fn.BlockIDs() {
		if !reachable[id] {
			fn.RemoveBlock(id)
			changed = true
		}
	}
	return changed
}
