package mirvalidate

import (
	"testing"

	"aetherc/internal/mir"
	"aetherc/internal/types"
)

func validFunction() *mir.Function {
	table := types.New()
	intTy := table.Primitive(types.Integer)

	fn := mir.NewFunction("add", []mir.Param{{Name: "a", Type: intTy}, {Name: "b", Type: intTy}}, intTy)
	result := fn.AddLocal(mir.Local{Type: intTy, DebugName: "result"})
	entry := fn.NewBlock()

	fn.Blocks[entry].Statements = []mir.Statement{
		mir.Assign(mir.SimplePlace(result), mir.BinaryOpRvalue(mir.BinAdd,
			mir.CopyOf(mir.SimplePlace(0)), mir.CopyOf(mir.SimplePlace(1)))),
	}
	fn.Blocks[entry].Terminator = mir.ReturnTerm()
	_ = entry
	return fn
}

func TestValidFunctionHasNoProblems(t *testing.T) {
	fn := validFunction()
	if problems := Validate(fn, nil); len(problems) != 0 {
		t.Fatalf("expected no problems, got %v", problems)
	}
}

func TestMissingTerminatorIsReported(t *testing.T) {
	fn := validFunction()
	entry := fn.Entry
	fn.Blocks[entry].Terminator = mir.Terminator{}
	problems := Validate(fn, nil)
	if len(problems) == 0 {
		t.Fatalf("expected a missing-terminator problem")
	}
}

func TestUndeclaredLocalIsReported(t *testing.T) {
	fn := validFunction()
	entry := fn.Entry
	fn.Blocks[entry].Statements = append(fn.Blocks[entry].Statements,
		mir.Assign(mir.SimplePlace(mir.LocalID(99)), mir.UseRvalue(mir.CopyOf(mir.SimplePlace(0)))))
	problems := Validate(fn, nil)
	if len(problems) == 0 {
		t.Fatalf("expected an undeclared-local problem")
	}
}

func TestUnreachableBlockIsReported(t *testing.T) {
	fn := validFunction()
	fn.NewBlock() // allocated but never linked into the CFG
	problems := Validate(fn, nil)
	found := false
	for _, p := range problems {
		if p != "" {
			found = true
		}
	}
	if !found || len(problems) == 0 {
		t.Fatalf("expected an unreachable-block problem, got %v", problems)
	}
}

func TestSwitchIntDuplicateValuesReported(t *testing.T) {
	table := types.New()
	boolTy := table.Primitive(types.Boolean)
	intTy := table.Primitive(types.Integer)
	fn := mir.NewFunction("f", nil, intTy)
	entry := fn.NewBlock()
	a := fn.NewBlock()
	b := fn.NewBlock()
	c := fn.NewBlock()
	cond := fn.AddLocal(mir.Local{Type: boolTy})
	fn.Blocks[entry].Terminator = mir.SwitchIntTerm(mir.CopyOf(mir.SimplePlace(cond)), boolTy, mir.SwitchTargets{
		Values: []int64{1, 1}, Targets: []mir.BlockID{a, b}, Otherwise: c,
	})
	fn.Blocks[a].Terminator = mir.ReturnTerm()
	fn.Blocks[b].Terminator = mir.ReturnTerm()
	fn.Blocks[c].Terminator = mir.ReturnTerm()

	problems := Validate(fn, nil)
	if len(problems) == 0 {
		t.Fatalf("expected a duplicate-SwitchInt-value problem")
	}
}

// fakeSignatures is a minimal CalleeSignatures double for tests that need
// to exercise the Call-destination-type check without a real
// semantic.Analyzer.
type fakeSignatures map[string]*types.Type

func (f fakeSignatures) Signature(name string) (*types.Type, bool) {
	ty, ok := f[name]
	return ty, ok
}

// callFunction builds a single-block function whose entry terminates in a
// Call to "callee", with destType as the destination local's declared
// type — the shape internal/mirbuilder.VisitCall produces.
func callFunction(destType *types.Type) *mir.Function {
	table := types.New()
	intTy := table.Primitive(types.Integer)
	fn := mir.NewFunction("caller", nil, intTy)
	dest := fn.AddLocal(mir.Local{Type: destType})
	entry := fn.Entry
	normal := fn.NewBlock()
	fn.Blocks[entry].Terminator = mir.CallTerm("callee", nil, ptrPlace(mir.SimplePlace(dest)), normal, nil)
	fn.Blocks[normal].Terminator = mir.ReturnTerm()
	return fn
}

func ptrPlace(p mir.Place) *mir.Place { return &p }

func TestCallDestinationMatchingCalleeReturnHasNoProblem(t *testing.T) {
	table := types.New()
	intTy := table.Primitive(types.Integer)
	fn := callFunction(intTy)
	problems := Validate(fn, fakeSignatures{"callee": intTy})
	if len(problems) != 0 {
		t.Fatalf("expected no problems, got %v", problems)
	}
}

func TestCallDestinationMismatchedWithCalleeReturnIsReported(t *testing.T) {
	table := types.New()
	intTy := table.Primitive(types.Integer)
	voidTy := table.Primitive(types.Void)
	fn := callFunction(voidTy)
	problems := Validate(fn, fakeSignatures{"callee": intTy})
	if len(problems) == 0 {
		t.Fatalf("expected a Call-destination-type mismatch problem")
	}
}

func TestCallDestinationCheckSkippedWithoutSignatures(t *testing.T) {
	table := types.New()
	intTy := table.Primitive(types.Integer)
	voidTy := table.Primitive(types.Void)
	fn := callFunction(voidTy)
	if problems := Validate(fn, nil); len(problems) != 0 {
		t.Fatalf("expected no problems with a nil signature lookup, got %v", problems)
	}
}
