package semantic

import (
	"testing"

	"aetherc/internal/ast"
	"aetherc/internal/diagnostics"
	"aetherc/internal/types"
)

func intSpec() *ast.TypeSpec  { return &ast.TypeSpec{Name: "integer"} }
func boolSpec() *ast.TypeSpec { return &ast.TypeSpec{Name: "boolean"} }

// buildAddProgram constructs the AST for:
//
//	function add(a: integer, b: integer) -> integer { return a + b; }
func buildAddProgram() *ast.Program {
	fn := &ast.Function{
		Name: "add",
		Params: []*ast.Param{
			{Name: "a", Type: intSpec()},
			{Name: "b", Type: intSpec()},
		},
		Return: intSpec(),
		Pure:   true,
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.ReturnStmt{Value: &ast.BinaryExpr{
				Op:    "+",
				Left:  &ast.VarRef{Name: "a"},
				Right: &ast.VarRef{Name: "b"},
			}},
		}},
	}
	return &ast.Program{Modules: []*ast.Module{{Name: "m", Functions: []*ast.Function{fn}}}}
}

func TestAnalyzeCleanFunctionIsAnnotated(t *testing.T) {
	table := types.New()
	diags := &diagnostics.Bag{}
	a := New(table, diags, "add.aether")

	out := a.Analyze(buildAddProgram())

	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Sorted())
	}
	if len(out.Functions) != 1 || out.Functions[0].Name != "add" {
		t.Fatalf("expected add to be annotated, got %+v", out.Functions)
	}
}

func TestAnalyzeReturnTypeMismatchIsDiagnosedAndFunctionDropped(t *testing.T) {
	fn := &ast.Function{
		Name:   "bad",
		Params: nil,
		Return: intSpec(),
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.ReturnStmt{Value: &ast.StringLiteral{Value: "nope"}},
		}},
	}
	prog := &ast.Program{Modules: []*ast.Module{{Name: "m", Functions: []*ast.Function{fn}}}}

	table := types.New()
	diags := &diagnostics.Bag{}
	a := New(table, diags, "bad.aether")
	out := a.Analyze(prog)

	if !diags.HasErrors() {
		t.Fatalf("expected a type mismatch diagnostic")
	}
	if len(out.Functions) != 0 {
		t.Fatalf("expected bad to be dropped from the annotated program, got %+v", out.Functions)
	}
}

func TestAnalyzeOneBadFunctionDoesNotMaskOthers(t *testing.T) {
	good := &ast.Function{
		Name: "good", Return: intSpec(),
		Body: &ast.Block{Stmts: []ast.Stmt{&ast.ReturnStmt{Value: &ast.IntLiteral{Value: 1}}}},
	}
	bad := &ast.Function{
		Name: "bad", Return: intSpec(),
		Body: &ast.Block{Stmts: []ast.Stmt{&ast.ReturnStmt{Value: &ast.StringLiteral{Value: "x"}}}},
	}
	prog := &ast.Program{Modules: []*ast.Module{{Name: "m", Functions: []*ast.Function{bad, good}}}}

	table := types.New()
	diags := &diagnostics.Bag{}
	a := New(table, diags, "mix.aether")
	out := a.Analyze(prog)

	if len(out.Functions) != 1 || out.Functions[0].Name != "good" {
		t.Fatalf("expected only good to survive, got %+v", out.Functions)
	}
}

func TestAnalyzeUndefinedSymbolReported(t *testing.T) {
	fn := &ast.Function{
		Name: "f", Return: intSpec(),
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.ReturnStmt{Value: &ast.VarRef{Name: "nope"}},
		}},
	}
	prog := &ast.Program{Modules: []*ast.Module{{Name: "m", Functions: []*ast.Function{fn}}}}

	table := types.New()
	diags := &diagnostics.Bag{}
	a := New(table, diags, "f.aether")
	a.Analyze(prog)

	found := false
	for _, d := range diags.Sorted() {
		if d.Kind == diagnostics.KindUndefinedSymbol {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an undefined_symbol diagnostic, got %v", diags.Sorted())
	}
}

func TestAnalyzeImpurePreconditionRejected(t *testing.T) {
	impure := &ast.Function{Name: "effectful", Return: &ast.TypeSpec{Name: "void"}, Pure: false,
		Body: &ast.Block{Stmts: []ast.Stmt{&ast.ReturnStmt{}}}}
	guarded := &ast.Function{
		Name: "guarded", Return: intSpec(),
		Metadata: ast.FunctionMetadata{
			Preconditions: []ast.Condition{{
				Name:      "calls_effectful",
				Predicate: &ast.CallExpr{Callee: "effectful"},
			}},
		},
		Body: &ast.Block{Stmts: []ast.Stmt{&ast.ReturnStmt{Value: &ast.IntLiteral{Value: 0}}}},
	}
	prog := &ast.Program{Modules: []*ast.Module{{Name: "m", Functions: []*ast.Function{impure, guarded}}}}

	table := types.New()
	diags := &diagnostics.Bag{}
	a := New(table, diags, "c.aether")
	a.Analyze(prog)

	found := false
	for _, d := range diags.Sorted() {
		if d.Kind == diagnostics.KindImpurityInPredicate {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an impurity_in_predicate diagnostic, got %v", diags.Sorted())
	}
}

func TestAnalyzeLetAndIfUnification(t *testing.T) {
	fn := &ast.Function{
		Name:   "choose",
		Params: []*ast.Param{{Name: "flag", Type: boolSpec()}},
		Return: intSpec(),
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.LetStmt{Name: "x", Type: intSpec(), Value: &ast.IntLiteral{Value: 1}},
			&ast.ReturnStmt{Value: &ast.IfExpr{
				Cond:       &ast.VarRef{Name: "flag"},
				ThenBranch: &ast.Block{Stmts: []ast.Stmt{&ast.ExprStmt{Value: &ast.VarRef{Name: "x"}}}},
				ElseBranch: &ast.Block{Stmts: []ast.Stmt{&ast.ExprStmt{Value: &ast.IntLiteral{Value: 2}}}},
			}},
		}},
	}
	prog := &ast.Program{Modules: []*ast.Module{{Name: "m", Functions: []*ast.Function{fn}}}}

	table := types.New()
	diags := &diagnostics.Bag{}
	a := New(table, diags, "choose.aether")
	out := a.Analyze(prog)

	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Sorted())
	}
	if len(out.Functions) != 1 {
		t.Fatalf("expected choose to be annotated cleanly, got %+v", out.Functions)
	}
}

func TestAnalyzeRejectsMalformedImportConstraint(t *testing.T) {
	prog := &ast.Program{Modules: []*ast.Module{{
		Name:    "m",
		Imports: []ast.Import{{Path: "collections", Constraint: "latest"}},
	}}}

	table := types.New()
	diags := &diagnostics.Bag{}
	a := New(table, diags, "m.aether")
	a.Analyze(prog)

	if !diags.HasErrors() {
		t.Fatalf("expected a diagnostic for the malformed version constraint")
	}
	found := false
	for _, d := range diags.Sorted() {
		if d.Kind == diagnostics.KindInvalidVersionConstraint {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected KindInvalidVersionConstraint, got %v", diags.Sorted())
	}
}

func TestAnalyzeAcceptsWellFormedImportConstraint(t *testing.T) {
	prog := &ast.Program{Modules: []*ast.Module{{
		Name:    "m",
		Imports: []ast.Import{{Path: "collections", Constraint: "v1.2.0"}},
	}}}

	table := types.New()
	diags := &diagnostics.Bag{}
	a := New(table, diags, "m.aether")
	a.Analyze(prog)

	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Sorted())
	}
}
