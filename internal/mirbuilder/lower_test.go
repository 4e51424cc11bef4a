package mirbuilder

import (
	"testing"

	"aetherc/internal/ast"
	"aetherc/internal/cfg"
	"aetherc/internal/diagnostics"
	"aetherc/internal/mir"
	"aetherc/internal/types"
)

func intSpec() *ast.TypeSpec { return &ast.TypeSpec{Name: "integer"} }

func varRef(name string) *ast.VarRef { return &ast.VarRef{Name: name} }

func intLit(v int64) *ast.IntLiteral { return &ast.IntLiteral{Value: v} }

// buildFactorial constructs the AST spec.md §8 scenario 4 names explicitly:
//
//	function factorial(n: integer) -> integer {
//	    let result = 1
//	    while n > 0 {
//	        result = result * n
//	        n = n - 1
//	    }
//	    return result
//	}
func buildFactorial() *ast.Function {
	return &ast.Function{
		Name:   "factorial",
		Params: []*ast.Param{{Name: "n", Type: intSpec(), Mutable: true}},
		Return: intSpec(),
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.LetStmt{Name: "result", Mutable: true, Value: intLit(1)},
			&ast.WhileStmt{
				Cond: &ast.BinaryExpr{Op: ">", Left: varRef("n"), Right: intLit(0)},
				Body: &ast.Block{Stmts: []ast.Stmt{
					&ast.AssignStmt{Target: varRef("result"), Value: &ast.BinaryExpr{Op: "*", Left: varRef("result"), Right: varRef("n")}},
					&ast.AssignStmt{Target: varRef("n"), Value: &ast.BinaryExpr{Op: "-", Left: varRef("n"), Right: intLit(1)}},
				}},
			},
			&ast.ReturnStmt{Value: varRef("result")},
		}},
	}
}

// TestLowerFactorialProducesFourBlockShape pins down spec.md §8 scenario 4
// exactly: entry, loop-head, loop-body, loop-exit, with loop-head's
// predecessors being {entry, loop-body} and its successors {loop-body,
// loop-exit}.
func TestLowerFactorialProducesFourBlockShape(t *testing.T) {
	table := types.New()
	diags := &diagnostics.Bag{}
	fn := LowerFunction(buildFactorial(), table, nil, nil, diags, "factorial.aether")

	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Sorted())
	}

	ids := fn.BlockIDs()
	if len(ids) != 4 {
		t.Fatalf("expected exactly 4 blocks, got %d: %v", len(ids), ids)
	}

	entry := fn.Entry
	head := ids[1]
	body := ids[2]
	exit := ids[3]

	g := cfg.Build(fn)
	preds := g.Predecessors(head)
	if len(preds) != 2 || !containsBlock(preds, entry) || !containsBlock(preds, body) {
		t.Fatalf("expected loop-head predecessors {entry, loop-body}, got %v", preds)
	}
	succs := g.Successors(head)
	if len(succs) != 2 || !containsBlock(succs, body) || !containsBlock(succs, exit) {
		t.Fatalf("expected loop-head successors {loop-body, loop-exit}, got %v", succs)
	}

	headBlk, _ := fn.Block(head)
	if headBlk.Terminator.Kind != mir.TermSwitchInt {
		t.Fatalf("expected loop-head to end in SwitchInt, got %v", headBlk.Terminator.Kind)
	}
	exitBlk, _ := fn.Block(exit)
	if exitBlk.Terminator.Kind != mir.TermReturn {
		t.Fatalf("expected loop-exit to end in Return, got %v", exitBlk.Terminator.Kind)
	}
}

func containsBlock(ids []mir.BlockID, want mir.BlockID) bool {
	for _, id := range ids {
		if id == want {
			return true
		}
	}
	return false
}

// stubSignatures is a minimal SignatureLookup double for tests that lower
// a call without running the full semantic analyzer.
type stubSignatures map[string]*types.Type

func (s stubSignatures) Signature(name string) (*types.Type, bool) {
	ty, ok := s[name]
	return ty, ok
}

// TestLowerCallDestinationGetsCalleeReturnType guards against the
// call-destination-type regression: the destination local of a Call to a
// function returning integer must itself be typed integer, not Void, and
// the codegen-facing place must carry no projections.
func TestLowerCallDestinationGetsCalleeReturnType(t *testing.T) {
	table := types.New()
	intTy := table.Primitive(types.Integer)
	diags := &diagnostics.Bag{}

	caller := &ast.Function{
		Name:   "caller",
		Return: intSpec(),
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.ReturnStmt{Value: &ast.CallExpr{Callee: "helper", Args: []ast.Expr{intLit(21)}}},
		}},
	}

	fn := LowerFunction(caller, table, nil, stubSignatures{"helper": intTy}, diags, "caller.aether")
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Sorted())
	}

	var callTerm *mir.Terminator
	for _, id := range fn.BlockIDs() {
		blk, _ := fn.Block(id)
		if blk.Terminator.Kind == mir.TermCall {
			term := blk.Terminator
			callTerm = &term
		}
	}
	if callTerm == nil {
		t.Fatalf("expected a Call terminator")
	}
	if callTerm.CallDestination == nil {
		t.Fatalf("expected a call destination place for a non-void callee")
	}
	destLocal := fn.Locals[callTerm.CallDestination.Local]
	if !types.Equal(destLocal.Type, intTy) {
		t.Fatalf("expected call destination typed %s, got %s", intTy, destLocal.Type)
	}
}

// TestLowerVoidCallHasNoDestination guards the companion fix: a call to a
// void-returning (or unresolvable) callee must not allocate a destination
// place at all, since codegen cannot store a void value into one.
func TestLowerVoidCallHasNoDestination(t *testing.T) {
	table := types.New()
	diags := &diagnostics.Bag{}

	caller := &ast.Function{
		Name:   "caller",
		Return: &ast.TypeSpec{Name: "void"},
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.ExprStmt{Value: &ast.CallExpr{Callee: "log", Args: nil}},
			&ast.ReturnStmt{},
		}},
	}

	fn := LowerFunction(caller, table, nil, nil, diags, "caller.aether")
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Sorted())
	}

	found := false
	for _, id := range fn.BlockIDs() {
		blk, _ := fn.Block(id)
		if blk.Terminator.Kind == mir.TermCall {
			found = true
			if blk.Terminator.CallDestination != nil {
				t.Fatalf("expected no call destination for a void callee")
			}
		}
	}
	if !found {
		t.Fatalf("expected a Call terminator")
	}
}

// TestLowerPreconditionEmitsAssertAtEntry checks §4.3/§9: a precondition
// becomes an Assert terminator on the function's entry block, guarding
// every later block.
func TestLowerPreconditionEmitsAssertAtEntry(t *testing.T) {
	table := types.New()
	diags := &diagnostics.Bag{}

	fn := &ast.Function{
		Name:   "guarded",
		Params: []*ast.Param{{Name: "n", Type: intSpec()}},
		Return: intSpec(),
		Metadata: ast.FunctionMetadata{
			Preconditions: []ast.Condition{{
				Name:      "n_positive",
				Predicate: &ast.BinaryExpr{Op: ">", Left: varRef("n"), Right: intLit(0)},
			}},
		},
		Body: &ast.Block{Stmts: []ast.Stmt{&ast.ReturnStmt{Value: varRef("n")}}},
	}

	lowered := LowerFunction(fn, table, nil, nil, diags, "guarded.aether")
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Sorted())
	}

	entryBlk, _ := lowered.Block(lowered.Entry)
	if entryBlk.Terminator.Kind != mir.TermAssert {
		t.Fatalf("expected entry block to end in an Assert terminator, got %v", entryBlk.Terminator.Kind)
	}
	if entryBlk.Terminator.AssertMsg == "" {
		t.Fatalf("expected a non-empty Assert diagnostic message")
	}
}

// TestLowerPostconditionSeesReturnValue checks §4.3/§9: a postcondition
// referencing RETURN_VALUE must be lowered after the return value is
// assigned, as an Assert terminator that still precedes the Return.
func TestLowerPostconditionSeesReturnValue(t *testing.T) {
	table := types.New()
	diags := &diagnostics.Bag{}

	fn := &ast.Function{
		Name:   "nonneg",
		Params: []*ast.Param{{Name: "n", Type: intSpec()}},
		Return: intSpec(),
		Metadata: ast.FunctionMetadata{
			Postconditions: []ast.Condition{{
				Name: "result_nonneg",
				Predicate: &ast.BinaryExpr{Op: ">=",
					Left: &ast.Intrinsic{Kind: ast.ReturnValue}, Right: intLit(0)},
			}},
		},
		Body: &ast.Block{Stmts: []ast.Stmt{&ast.ReturnStmt{Value: varRef("n")}}},
	}

	lowered := LowerFunction(fn, table, nil, nil, diags, "nonneg.aether")
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Sorted())
	}

	sawAssert, sawReturn := false, false
	for _, id := range lowered.BlockIDs() {
		blk, _ := lowered.Block(id)
		switch blk.Terminator.Kind {
		case mir.TermAssert:
			sawAssert = true
		case mir.TermReturn:
			sawReturn = true
		}
	}
	if !sawAssert {
		t.Fatalf("expected a postcondition Assert terminator")
	}
	if !sawReturn {
		t.Fatalf("expected the function to still end in Return")
	}
}
