// Package mirbuilder implements the MIR builder surface of spec.md §4.5
// (start_function/new_local/new_block/switch_to_block/push_statement/
// set_terminator/finish_function) and the AST→MIR lowering rules table.
//
// The builder's imperative, "current block" style mirrors the teacher's
// internal/compiler.Compiler (a visitor that appends bytecode to a single
// growing chunk) generalized from one flat instruction stream to a
// structured CFG of basic blocks that can be switched between.
package mirbuilder

import (
	"aetherc/internal/mir"
	"aetherc/internal/types"
)

// Builder constructs one mir.Function at a time.
type Builder struct {
	fn      *mir.Function
	current mir.BlockID
}

// StartFunction begins building a new function, matching §4.5's
// start_function(name, params, ret).
func StartFunction(name string, params []mir.Param, ret *types.Type) *Builder {
	fn := mir.NewFunction(name, params, ret)
	b := &Builder{fn: fn}
	b.current = fn.NewBlock() // entry block, always 0 (§3.4 invariant)
	return b
}

// NewLocal declares a fresh local and returns its id.
func (b *Builder) NewLocal(ty *types.Type, mutable bool, debugName string) mir.LocalID {
	return b.fn.AddLocal(mir.Local{Type: ty, Mutable: mutable, DebugName: debugName})
}

// NewBlock allocates a new, not-yet-current basic block.
func (b *Builder) NewBlock() mir.BlockID { return b.fn.NewBlock() }

// SwitchToBlock changes which block subsequent PushStatement/SetTerminator
// calls apply to.
func (b *Builder) SwitchToBlock(id mir.BlockID) { b.current = id }

// CurrentBlock returns the block currently being appended to.
func (b *Builder) CurrentBlock() mir.BlockID { return b.current }

// PushStatement appends a statement to the current block.
func (b *Builder) PushStatement(stmt mir.Statement) {
	blk := b.fn.Blocks[b.current]
	blk.Statements = append(blk.Statements, stmt)
}

// SetTerminator sets the current block's terminator. Each block must end
// in exactly one terminator (§3.4 invariant); calling this twice on the
// same block without an intervening SwitchToBlock simply replaces it,
// which lowering never does by construction.
func (b *Builder) SetTerminator(term mir.Terminator) {
	b.fn.Blocks[b.current].Terminator = term
}

// HasTerminator reports whether the current block already ended.
func (b *Builder) HasTerminator() bool {
	return b.fn.Blocks[b.current].HasTerminator()
}

// FinishFunction returns the completed mir.Function. Any block left
// without a terminator (a logic error in lowering, not user input) is
// closed with Unreachable so the §3.4 invariant always holds on output.
func (b *Builder) FinishFunction() *mir.Function {
	for _, id := range b.fn.BlockIDs() {
		blk := b.fn.Blocks[id]
		if !blk.HasTerminator() {
			blk.Terminator = mir.UnreachableTerm()
		}
	}
	return b.fn
}

// Function exposes the in-progress function, e.g. so lowering can inspect
// local types while still building.
func (b *Builder) Function() *mir.Function { return b.fn }
