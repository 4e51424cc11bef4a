package parser

import (
	"testing"

	"aetherc/internal/ast"
	"aetherc/internal/diagnostics"
	"aetherc/internal/lexer"
)

// parseString tokenizes and parses input, returning the resulting
// program and any diagnostics recorded along the way — mirroring the
// teacher's parseString helper, but built around *diagnostics.Bag instead
// of a panic-recovered []error, since that is how this parser reports
// syntax errors (see parseTopLevelForm's per-form recover).
func parseString(input string) (*ast.Program, *diagnostics.Bag) {
	diags := &diagnostics.Bag{}
	scanner := lexer.NewScanner(input, "test.aether")
	tokens := scanner.ScanTokens()
	p := NewParser(tokens, "test.aether", diags)
	return p.Parse(), diags
}

func assertParseSuccess(t *testing.T, input, description string) *ast.Program {
	t.Helper()
	prog, diags := parseString(input)
	if diags.HasErrors() {
		t.Fatalf("%s: parsing failed with diagnostics: %v", description, diags.Sorted())
	}
	return prog
}

func assertParseError(t *testing.T, input, description string) {
	t.Helper()
	_, diags := parseString(input)
	if !diags.HasErrors() {
		t.Fatalf("%s: expected parsing to fail but it succeeded", description)
	}
}

func TestParseMinimalModule(t *testing.T) {
	prog := assertParseSuccess(t, `(module m (function f (( integer x )) integer (+ x 1)))`, "minimal module")
	if len(prog.Modules) != 1 || prog.Modules[0].Name != "m" {
		t.Fatalf("expected one module named m, got %+v", prog.Modules)
	}
	fn := prog.Modules[0].Functions[0]
	if fn.Name != "f" || len(fn.Params) != 1 || fn.Params[0].Name != "x" {
		t.Fatalf("unexpected function shape: %+v", fn)
	}
	ret, ok := fn.Body.Stmts[0].(*ast.ReturnStmt)
	if !ok {
		t.Fatalf("expected the trailing (+ x 1) to become an implicit return, got %T", fn.Body.Stmts[0])
	}
	if _, ok := ret.Value.(*ast.BinaryExpr); !ok {
		t.Fatalf("expected a binary expression, got %T", ret.Value)
	}
}

func TestParseOwnershipSigils(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want ast.OwnershipKind
	}{
		{"owned", `(module m (function f ((^integer x)) void (return)))`, ast.OwnedKind},
		{"shared", `(module m (function f ((~integer x)) void (return)))`, ast.SharedKind},
		{"borrowed", `(module m (function f ((&integer x)) void (return)))`, ast.BorrowedKind},
		{"borrowed-mut", `(module m (function f ((& mut integer x)) void (return)))`, ast.BorrowedMutKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := assertParseSuccess(t, tt.src, tt.name)
			ty := prog.Modules[0].Functions[0].Params[0].Type
			if !ty.HasOwnership || ty.Ownership != tt.want {
				t.Fatalf("expected ownership %v, got %+v", tt.want, ty)
			}
			if ty.Inner == nil || ty.Inner.Name != "integer" {
				t.Fatalf("expected inner type integer, got %+v", ty.Inner)
			}
		})
	}
}

func TestParseLetWithAndWithoutTypeAnnotation(t *testing.T) {
	prog := assertParseSuccess(t, `
		(module m (function f () integer
			(let ((x 1)))
			(let ((mut y integer 2)))
			(set y 3)
			y))`, "let forms")
	fn := prog.Modules[0].Functions[0]
	let1 := fn.Body.Stmts[0].(*ast.LetStmt)
	if let1.Name != "x" || let1.Type != nil || let1.Mutable {
		t.Fatalf("unexpected inferred let: %+v", let1)
	}
	let2 := fn.Body.Stmts[1].(*ast.LetStmt)
	if let2.Name != "y" || let2.Type == nil || let2.Type.Name != "integer" || !let2.Mutable {
		t.Fatalf("unexpected typed mutable let: %+v", let2)
	}
	if _, ok := fn.Body.Stmts[2].(*ast.AssignStmt); !ok {
		t.Fatalf("expected a set/assign statement, got %T", fn.Body.Stmts[2])
	}
	if _, ok := fn.Body.Stmts[3].(*ast.ReturnStmt); !ok {
		t.Fatalf("expected trailing y to become an implicit return, got %T", fn.Body.Stmts[3])
	}
}

func TestParseIfExpressionBranches(t *testing.T) {
	prog := assertParseSuccess(t, `
		(module m (function choose ((boolean flag)) integer
			(if flag (1) (2))))`, "if expression")
	ret := prog.Modules[0].Functions[0].Body.Stmts[0].(*ast.ReturnStmt)
	ifExpr, ok := ret.Value.(*ast.IfExpr)
	if !ok {
		t.Fatalf("expected an if expression, got %T", ret.Value)
	}
	if ifExpr.ElseBranch == nil {
		t.Fatalf("expected an else branch")
	}
}

func TestParseUnaryMinusVsBinarySubtraction(t *testing.T) {
	prog := assertParseSuccess(t, `(module m (function f ((integer a)) integer (- (- a) 1)))`, "unary vs binary minus")
	ret := prog.Modules[0].Functions[0].Body.Stmts[0].(*ast.ReturnStmt)
	bin, ok := ret.Value.(*ast.BinaryExpr)
	if !ok || bin.Op != "-" {
		t.Fatalf("expected an outer binary subtraction, got %+v", ret.Value)
	}
	if _, ok := bin.Left.(*ast.UnaryExpr); !ok {
		t.Fatalf("expected the left operand to be a unary negation, got %T", bin.Left)
	}
}

func TestParseFunctionMetadata(t *testing.T) {
	prog := assertParseSuccess(t, `
		(module m (function safe_divide ((integer a) (integer b)) integer
			(metadata
				(intent "divide two integers")
				(algorithm-hint "single division instruction")
				(precondition nonzero_divisor (!= b 0) "divisor must not be zero" assert-fail)
				(postcondition result_matches (== (return-value) (/ a b)))
				(complexity "O(1)")
				(performance latency_ms 1.0 "hot path")
				(thread-safe true)
				(may-block false))
			(/ a b)))`, "function metadata")
	fn := prog.Modules[0].Functions[0]
	if fn.Metadata.Intent == "" || fn.Metadata.AlgorithmHint == "" {
		t.Fatalf("expected intent and algorithm hint to be populated: %+v", fn.Metadata)
	}
	if len(fn.Metadata.Preconditions) != 1 || fn.Metadata.Preconditions[0].Name != "nonzero_divisor" {
		t.Fatalf("unexpected preconditions: %+v", fn.Metadata.Preconditions)
	}
	if fn.Metadata.Preconditions[0].FailureAction != ast.AssertFail {
		t.Fatalf("expected assert-fail, got %v", fn.Metadata.Preconditions[0].FailureAction)
	}
	if len(fn.Metadata.Postconditions) != 1 {
		t.Fatalf("expected one postcondition, got %+v", fn.Metadata.Postconditions)
	}
	if _, ok := fn.Metadata.Postconditions[0].Predicate.(*ast.BinaryExpr); !ok {
		t.Fatalf("expected the postcondition predicate to parse as a binary expression")
	}
	if fn.Metadata.ComplexityExpectation == nil || fn.Metadata.ComplexityExpectation.Value != "O(1)" {
		t.Fatalf("unexpected complexity expectation: %+v", fn.Metadata.ComplexityExpectation)
	}
	if fn.Metadata.PerformanceExpectation == nil || fn.Metadata.PerformanceExpectation.Metric != "latency_ms" {
		t.Fatalf("unexpected performance expectation: %+v", fn.Metadata.PerformanceExpectation)
	}
	if !fn.Metadata.ThreadSafe || fn.Metadata.MayBlock {
		t.Fatalf("unexpected thread-safe/may-block flags: %+v", fn.Metadata)
	}
}

func TestParseWhileLoop(t *testing.T) {
	prog := assertParseSuccess(t, `
		(module m (function count_down ((integer n mut)) void
			(while (> n 0)
				(set n (- n 1)))
			(return)))`, "while loop")
	while := prog.Modules[0].Functions[0].Body.Stmts[0].(*ast.WhileStmt)
	if _, ok := while.Cond.(*ast.BinaryExpr); !ok {
		t.Fatalf("expected a binary condition, got %T", while.Cond)
	}
	if len(while.Body.Stmts) != 1 {
		t.Fatalf("expected one statement in the while body, got %d", len(while.Body.Stmts))
	}
}

func TestParseExternAndConst(t *testing.T) {
	prog := assertParseSuccess(t, `
		(module m
			(extern raw_alloc ((integer size)) integer)
			(const limit integer 100)
			(function f () integer limit))`, "extern and const")
	mod := prog.Modules[0]
	if len(mod.Externs) != 1 || mod.Externs[0].Name != "raw_alloc" {
		t.Fatalf("unexpected externs: %+v", mod.Externs)
	}
	if len(mod.Constants) != 1 || mod.Constants[0].Name != "limit" {
		t.Fatalf("unexpected constants: %+v", mod.Constants)
	}
}

func TestParseArrayAndFieldForms(t *testing.T) {
	prog := assertParseSuccess(t, `
		(module m (function f ((^(array integer) xs)) integer
			(at xs (array-length xs))))`, "array forms")
	fn := prog.Modules[0].Functions[0]
	if fn.Params[0].Type.Inner.Elem == nil || fn.Params[0].Type.Inner.Elem.Name != "integer" {
		t.Fatalf("unexpected array param type: %+v", fn.Params[0].Type)
	}
	ret := fn.Body.Stmts[0].(*ast.ReturnStmt)
	access, ok := ret.Value.(*ast.ArrayAccessExpr)
	if !ok {
		t.Fatalf("expected an array access expression, got %T", ret.Value)
	}
	if _, ok := access.Index.(*ast.Intrinsic); !ok {
		t.Fatalf("expected array-length intrinsic as the index, got %T", access.Index)
	}
}

func TestParseMalformedFunctionIsRecoveredPerForm(t *testing.T) {
	prog, diags := parseString(`
		(module bad (function broken ((  )) integer 1))
		(module good (function f () integer 1))`)
	if !diags.HasErrors() {
		t.Fatalf("expected the malformed module to produce a diagnostic")
	}
	found := false
	for _, m := range prog.Modules {
		if m.Name == "good" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the well-formed module after the broken one to still parse, got %+v", prog.Modules)
	}
}

func TestParseErrorOnUnknownModuleMember(t *testing.T) {
	assertParseError(t, `(module m (bogus x y))`, "unknown module member keyword")
}
