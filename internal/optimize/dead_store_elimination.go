package optimize

import (
	"aetherc/internal/cfg"
	"aetherc/internal/mir"
)

// DeadStoreElimination removes an Assign to a plain local (no projection)
// whose result is never live immediately afterward, using the same
// backward-liveness dataflow the MIR dataflow framework exposes for other
// consumers (§4.6, §4.8). A store to a local that is later dropped (in the
// same block or a later one), or marked StorageDead later in the same
// block, is never considered dead by this pass; only genuinely unread
// computed values are removed.
type DeadStoreElimination struct{}

func (DeadStoreElimination) Name() string { return "dead_store_elimination" }

func (DeadStoreElimination) Apply(fn *mir.Function) bool {
	changed := false
	liveness := cfg.Liveness(fn)

	for _, id := range fn.BlockIDs() {
		blk, ok := fn.Block(id)
		if !ok {
			continue
		}
		live := liveness.Out[id].Clone()

		kept := blk.Statements[:0]
		for i := len(blk.Statements) - 1; i >= 0; i-- {
			stmt := blk.Statements[i]
			if stmt.Kind == mir.StmtAssign && len(stmt.Place.Projection) == 0 {
				if _, isLive := live[stmt.Place.Local]; !isLive && !hasSideEffect(stmt.Rvalue) {
					changed = true
					continue // drop this statement
				}
			}
			updateLiveBackward(stmt, live)
			kept = append(kept, stmt)
		}

		// kept was built in reverse; restore program order.
		for l, r := 0, len(kept)-1; l < r; l, r = l+1, r-1 {
			kept[l], kept[r] = kept[r], kept[l]
		}
		blk.Statements = kept
	}
	return changed
}

// hasSideEffect reports whether an Rvalue must be kept even if its result
// is unused; MIR's Rvalue variants are all pure expressions (calls are
// terminators, not rvalues), so none currently qualify, but the hook is
// kept explicit rather than silently assuming purity.
func hasSideEffect(mir.Rvalue) bool { return false }

func updateLiveBackward(stmt mir.Statement, live cfg.Set) {
	if stmt.Kind == mir.StmtAssign {
		delete(live, stmt.Place.Local)
		for _, op := range rvalueOperandsFor(stmt.Rvalue) {
			if op.Kind == mir.OpCopy || op.Kind == mir.OpMove {
				live[op.Place.Local] = struct{}{}
			}
		}
	}
	if stmt.Kind == mir.StmtDrop || stmt.Kind == mir.StmtStorageDead {
		live[stmt.Local] = struct{}{}
	}
}

func rvalueOperandsFor(rv mir.Rvalue) []mir.Operand {
	switch rv.Kind {
	case mir.RvalUse:
		return []mir.Operand{rv.Operand}
	case mir.RvalBinaryOp:
		return []mir.Operand{rv.Left, rv.Right}
	case mir.RvalUnaryOp:
		return []mir.Operand{rv.Un}
	case mir.RvalCast:
		return []mir.Operand{rv.CastOp}
	case mir.RvalAggregate:
		return rv.AggElems
	default:
		return nil
	}
}
