package optimize

import (
	"testing"

	"aetherc/internal/mir"
	"aetherc/internal/mirvalidate"
	"aetherc/internal/types"
)

func TestConstantFoldingEvaluatesBinaryOp(t *testing.T) {
	table := types.New()
	intTy := table.Primitive(types.Integer)
	fn := mir.NewFunction("f", nil, intTy)
	result := fn.AddLocal(mir.Local{Type: intTy})
	entry := fn.NewBlock()

	two := mir.ConstOperand(mir.Constant{Type: intTy, Value: mir.ConstantValue{Kind: mir.ConstInt, Int: 2}})
	three := mir.ConstOperand(mir.Constant{Type: intTy, Value: mir.ConstantValue{Kind: mir.ConstInt, Int: 3}})
	fn.Blocks[entry].Statements = []mir.Statement{
		mir.Assign(mir.SimplePlace(result), mir.BinaryOpRvalue(mir.BinAdd, two, three)),
	}
	fn.Blocks[entry].Terminator = mir.ReturnTerm()

	pass := ConstantFolding{}
	if !pass.Apply(fn) {
		t.Fatalf("expected constant folding to report a change")
	}
	rv := fn.Blocks[entry].Statements[0].Rvalue
	if rv.Kind != mir.RvalUse || rv.Operand.Kind != mir.OpConstant || rv.Operand.Constant.Value.Int != 5 {
		t.Fatalf("expected folded constant 5, got %+v", rv)
	}
}

func TestCopyPropagationCollapsesChain(t *testing.T) {
	table := types.New()
	intTy := table.Primitive(types.Integer)
	fn := mir.NewFunction("f", nil, intTy)
	a := fn.AddLocal(mir.Local{Type: intTy})
	b := fn.AddLocal(mir.Local{Type: intTy})
	c := fn.AddLocal(mir.Local{Type: intTy})
	entry := fn.NewBlock()

	one := mir.ConstOperand(mir.Constant{Type: intTy, Value: mir.ConstantValue{Kind: mir.ConstInt, Int: 1}})
	fn.Blocks[entry].Statements = []mir.Statement{
		mir.Assign(mir.SimplePlace(a), mir.UseRvalue(one)),
		mir.Assign(mir.SimplePlace(b), mir.UseRvalue(mir.CopyOf(mir.SimplePlace(a)))),
		mir.Assign(mir.SimplePlace(c), mir.UseRvalue(mir.CopyOf(mir.SimplePlace(b)))),
	}
	fn.Blocks[entry].Terminator = mir.ReturnTerm()

	pass := CopyPropagation{}
	if !pass.Apply(fn) {
		t.Fatalf("expected a change")
	}
	finalSrc := fn.Blocks[entry].Statements[2].Rvalue.Operand
	if finalSrc.Kind != mir.OpConstant || finalSrc.Constant.Value.Int != 1 {
		t.Fatalf("expected c's source to collapse to constant 1, got %+v", finalSrc)
	}
}

func TestDeadStoreEliminationDropsUnreadTemp(t *testing.T) {
	table := types.New()
	intTy := table.Primitive(types.Integer)
	fn := mir.NewFunction("f", nil, intTy)
	dead := fn.AddLocal(mir.Local{Type: intTy})
	entry := fn.NewBlock()

	one := mir.ConstOperand(mir.Constant{Type: intTy, Value: mir.ConstantValue{Kind: mir.ConstInt, Int: 1}})
	fn.Blocks[entry].Statements = []mir.Statement{
		mir.Assign(mir.SimplePlace(dead), mir.UseRvalue(one)),
	}
	fn.Blocks[entry].Terminator = mir.ReturnTerm()

	pass := DeadStoreElimination{}
	if !pass.Apply(fn) {
		t.Fatalf("expected the unread store to be eliminated")
	}
	if len(fn.Blocks[entry].Statements) != 0 {
		t.Fatalf("expected the block to be empty, got %v", fn.Blocks[entry].Statements)
	}
}

func TestSimplifyCFGRemovesTrivialGoto(t *testing.T) {
	table := types.New()
	intTy := table.Primitive(types.Integer)
	fn := mir.NewFunction("f", nil, intTy)
	entry := fn.NewBlock()
	trivial := fn.NewBlock()
	exit := fn.NewBlock()

	fn.Blocks[entry].Terminator = mir.GotoTerm(trivial)
	fn.Blocks[trivial].Terminator = mir.GotoTerm(exit)
	fn.Blocks[exit].Terminator = mir.ReturnTerm()

	pass := SimplifyCFG{}
	if !pass.Apply(fn) {
		t.Fatalf("expected simplify_cfg to retarget the entry's goto")
	}
	if fn.Blocks[entry].Terminator.Target != exit {
		t.Fatalf("expected entry to jump directly to exit, got %v", fn.Blocks[entry].Terminator.Target)
	}

	dbe := DeadBlockElimination{}
	dbe.Apply(fn)
	if _, ok := fn.Block(trivial); ok {
		t.Fatalf("expected the now-unreachable trivial block to be removed")
	}
}

func TestPipelineDoesNotRevertValidPass(t *testing.T) {
	table := types.New()
	intTy := table.Primitive(types.Integer)
	fn := mir.NewFunction("f", nil, intTy)
	a := fn.AddLocal(mir.Local{Type: intTy})
	entry := fn.NewBlock()
	two := mir.ConstOperand(mir.Constant{Type: intTy, Value: mir.ConstantValue{Kind: mir.ConstInt, Int: 2}})
	fn.Blocks[entry].Statements = []mir.Statement{
		mir.Assign(mir.SimplePlace(a), mir.UseRvalue(two)),
	}
	fn.Blocks[entry].Terminator = mir.ReturnTerm()

	p := &Pipeline{Validate: func(fn *mir.Function) []string { return mirvalidate.Validate(fn, nil) }}
	p.Add(&ConstantFolding{}, RunOnce)
	report := p.Run(fn)
	if len(report.Entries) == 0 {
		t.Fatalf("expected at least one pipeline entry recorded")
	}
	for _, e := range report.Entries {
		if e.Reverted {
			t.Fatalf("did not expect a revert for a trivially valid function: %+v", e)
		}
	}
}
