package optimize

import "aetherc/internal/mir"

// CopyPropagation replaces a Copy-of-a-local operand with that local's
// most recent single assignment source within the block, when that source
// is itself a Copy or Constant operand. Sources are recorded after they
// have themselves been propagated, so a chain of copies within one block
// collapses in a single pass.
type CopyPropagation struct{}

func (CopyPropagation) Name() string { return "copy_propagation" }

func (CopyPropagation) Apply(fn *mir.Function) bool {
	changed := false
	for _, blk := range fn.Blocks {
		copies := make(map[mir.LocalID]mir.Operand)
		for i, stmt := range blk.Statements {
			if stmt.Kind == mir.StmtStorageDead || stmt.Kind == mir.StmtDrop {
				delete(copies, stmt.Local)
				continue
			}
			if stmt.Kind != mir.StmtAssign {
				continue
			}

			if propagateRvalue(&blk.Statements[i].Rvalue, copies) {
				changed = true
			}

			// A plain `dst = Use(src)` where src is itself a copy/const
			// operand records dst as propagatable for later reads, and
			// invalidates any prior record for dst.
			delete(copies, stmt.Place.Local)
			if len(stmt.Place.Projection) == 0 && blk.Statements[i].Rvalue.Kind == mir.RvalUse {
				src := blk.Statements[i].Rvalue.Operand
				if src.Kind == mir.OpCopy || src.Kind == mir.OpConstant {
					copies[stmt.Place.Local] = src
				}
			}
		}
	}
	return changed
}

func propagateRvalue(rv *mir.Rvalue, copies map[mir.LocalID]mir.Operand) bool {
	changed := false
	replace := func(op *mir.Operand) {
		if op.Kind != mir.OpCopy || len(op.Place.Projection) != 0 {
			return
		}
		if src, ok := copies[op.Place.Local]; ok {
			*op = src
			changed = true
		}
	}

	switch rv.Kind {
	case mir.RvalUse:
		replace(&rv.Operand)
	case mir.RvalBinaryOp:
		replace(&rv.Left)
		replace(&rv.Right)
	case mir.RvalUnaryOp:
		replace(&rv.Un)
	case mir.RvalCast:
		replace(&rv.CastOp)
	case mir.RvalAggregate:
		for i := range rv.AggElems {
			replace(&rv.AggElems[i])
		}
	}
	return changed
}
