package contracts

import (
	"testing"

	"aetherc/internal/ast"
	"aetherc/internal/diagnostics"
	"aetherc/internal/types"
)

type stubPurity map[string]bool

func (s stubPurity) IsPure(name string) (bool, bool) {
	pure, known := s[name]
	return pure, known
}

func boolTypeOf(table *types.Table) TypeOfExpr {
	return func(e ast.Expr, allowReturn bool) (*types.Type, error) {
		return table.Primitive(types.Boolean), nil
	}
}

func TestPreconditionRejectsImpureCall(t *testing.T) {
	var bag diagnostics.Bag
	table := types.New()
	v := New(&bag, stubPurity{"log": false}, boolTypeOf(table), table, "f.aether")

	fn := &ast.Function{
		Name:   "safe_divide",
		Params: []*ast.Param{{Name: "b"}},
		Metadata: ast.FunctionMetadata{
			Preconditions: []ast.Condition{{
				Name: "non_zero",
				Predicate: &ast.CallExpr{
					Callee: "log",
					Args:   []ast.Expr{&ast.VarRef{Name: "b"}},
				},
			}},
		},
	}
	v.ValidateFunction(fn)
	if !bag.HasErrors() || bag.Sorted()[0].Kind != diagnostics.KindImpurityInPredicate {
		t.Fatalf("expected impurity_in_predicate, got %v", bag.Sorted())
	}
}

func TestPreconditionRejectsUnknownReference(t *testing.T) {
	var bag diagnostics.Bag
	table := types.New()
	v := New(&bag, stubPurity{}, boolTypeOf(table), table, "f.aether")

	fn := &ast.Function{
		Name:   "f",
		Params: []*ast.Param{{Name: "a"}},
		Metadata: ast.FunctionMetadata{
			Preconditions: []ast.Condition{{
				Name:      "cond",
				Predicate: &ast.VarRef{Name: "nonexistent"},
			}},
		},
	}
	v.ValidateFunction(fn)
	if !bag.HasErrors() || bag.Sorted()[0].Kind != diagnostics.KindUnknownPredicateRef {
		t.Fatalf("expected unknown_predicate_reference, got %v", bag.Sorted())
	}
}

func TestPostconditionAllowsReturnValue(t *testing.T) {
	var bag diagnostics.Bag
	table := types.New()
	v := New(&bag, stubPurity{}, boolTypeOf(table), table, "f.aether")

	fn := &ast.Function{
		Name: "abs",
		Metadata: ast.FunctionMetadata{
			Postconditions: []ast.Condition{{
				Name:      "non_negative",
				Predicate: &ast.Intrinsic{Kind: ast.ReturnValue},
			}},
		},
	}
	v.ValidateFunction(fn)
	if bag.HasErrors() {
		t.Fatalf("expected no errors, RETURN_VALUE is valid in postconditions, got %v", bag.Sorted())
	}
}

func TestPreconditionRejectsReturnValue(t *testing.T) {
	var bag diagnostics.Bag
	table := types.New()
	v := New(&bag, stubPurity{}, boolTypeOf(table), table, "f.aether")

	fn := &ast.Function{
		Name: "f",
		Metadata: ast.FunctionMetadata{
			Preconditions: []ast.Condition{{
				Name:      "bogus",
				Predicate: &ast.Intrinsic{Kind: ast.ReturnValue},
			}},
		},
	}
	v.ValidateFunction(fn)
	if !bag.HasErrors() || bag.Sorted()[0].Kind != diagnostics.KindUnknownPredicateRef {
		t.Fatalf("expected unknown_predicate_reference for RETURN_VALUE in a precondition, got %v", bag.Sorted())
	}
}

func TestPerformanceExpectationRejectsNegativeTarget(t *testing.T) {
	var bag diagnostics.Bag
	table := types.New()
	v := New(&bag, stubPurity{}, boolTypeOf(table), table, "f.aether")

	fn := &ast.Function{
		Name: "f",
		Metadata: ast.FunctionMetadata{
			PerformanceExpectation: &ast.PerformanceExpectation{Metric: "latency_ms", TargetValue: -1},
		},
	}
	v.ValidateFunction(fn)
	if !bag.HasErrors() {
		t.Fatalf("expected a diagnostic for a negative performance target")
	}
}
