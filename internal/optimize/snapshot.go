package optimize

import "aetherc/internal/mir"

// Snapshot deep-copies the mutable parts of fn (locals and block contents)
// so a pass's effects can be reverted if they fail validation. Types
// themselves are never copied: they are interned, so sharing the pointer
// is correct and cheap.
func Snapshot(fn *mir.Function) *mir.Function {
	locals := make([]mir.Local, len(fn.Locals))
	copy(locals, fn.Locals)

	blocks := make(map[mir.BlockID]*mir.BasicBlock, len(fn.Blocks))
	for id, blk := range fn.Blocks {
		stmts := make([]mir.Statement, len(blk.Statements))
		copy(stmts, blk.Statements)
		for i := range stmts {
			stmts[i].Rvalue.AggElems = append(stmts[i].Rvalue.AggElems[:0:0], stmts[i].Rvalue.AggElems...)
		}
		term := blk.Terminator
		term.Targets.Values = append(term.Targets.Values[:0:0], term.Targets.Values...)
		term.Targets.Targets = append(term.Targets.Targets[:0:0], term.Targets.Targets...)
		term.CallArgs = append(term.CallArgs[:0:0], term.CallArgs...)
		if term.UnwindTarget != nil {
			u := *term.UnwindTarget
			term.UnwindTarget = &u
		}
		if term.AssertUnwind != nil {
			u := *term.AssertUnwind
			term.AssertUnwind = &u
		}
		blocks[id] = &mir.BasicBlock{ID: blk.ID, Statements: stmts, Terminator: term}
	}

	return &mir.Function{
		Name:       fn.Name,
		Params:     fn.Params,
		ReturnType: fn.ReturnType,
		Locals:     locals,
		Blocks:     blocks,
		Entry:      fn.Entry,
	}
}

// Restore overwrites fn's mutable state with a previously captured
// Snapshot, undoing any in-place edits a reverted pass made.
func Restore(fn *mir.Function, snapshot *mir.Function) {
	fn.Locals = snapshot.Locals
	fn.Blocks = snapshot.Blocks
	fn.Entry = snapshot.Entry
}
