// Package contracts implements the contract/metadata validator of
// spec.md §4.3: precondition and postcondition predicates must be pure,
// reference only visible parameters (plus RETURN_VALUE in postconditions),
// and type-check to boolean; complexity hints are opaque strings;
// performance expectations require a non-negative target value.
package contracts

import (
	"aetherc/internal/ast"
	"aetherc/internal/diagnostics"
	"aetherc/internal/types"
)

// PurityOracle answers whether a named function is marked pure, so the
// validator can reject predicates that call effectful functions. The
// semantic analyzer supplies the concrete implementation backed by its
// function table.
type PurityOracle interface {
	IsPure(name string) (pure bool, known bool)
}

// TypeOfExpr resolves the static type of a predicate expression within a
// function's parameter scope. The semantic analyzer's expression
// type-checker implements this; the contract validator doesn't duplicate
// type inference, it only demands the final type be boolean.
type TypeOfExpr func(e ast.Expr, allowReturnValue bool) (*types.Type, error)

// Validator checks FunctionMetadata blocks.
type Validator struct {
	diags  *diagnostics.Bag
	purity PurityOracle
	typeOf TypeOfExpr
	table  *types.Table
	file   string
}

// New constructs a Validator.
func New(diags *diagnostics.Bag, purity PurityOracle, typeOf TypeOfExpr, table *types.Table, file string) *Validator {
	return &Validator{diags: diags, purity: purity, typeOf: typeOf, table: table, file: file}
}

func (v *Validator) span(loc ast.SourceLocation) diagnostics.SourceSpan {
	return diagnostics.SourceSpan{File: v.file, Line: loc.Line, Column: loc.Column}
}

// visibleNames is the set of parameter names visible to a precondition;
// postconditions additionally permit RETURN_VALUE (enforced by allowReturn).
type visibleNames map[string]bool

// ValidateFunction checks every precondition, postcondition, and the
// performance/complexity expectations of fn's metadata.
func (v *Validator) ValidateFunction(fn *ast.Function) {
	params := make(visibleNames, len(fn.Params))
	for _, p := range fn.Params {
		params[p.Name] = true
	}

	for _, cond := range fn.Metadata.Preconditions {
		v.validateCondition(fn, cond, params, false)
	}
	for _, cond := range fn.Metadata.Postconditions {
		v.validateCondition(fn, cond, params, true)
	}
	if pe := fn.Metadata.PerformanceExpectation; pe != nil {
		if pe.TargetValue < 0 {
			v.diags.Errorf(diagnostics.KindPredicateNotBoolean, v.span(fn.Location),
				"performance_expectation target_value must be >= 0, got %v", pe.TargetValue)
		}
	}
	// complexity_expectation.value is opaque by design (§4.3): no
	// validation beyond "it parsed as a string" is performed here.
	// thread_safe and may_block are recorded verbatim by the semantic
	// analyzer's annotated program; the contract validator has no
	// cross-function implication to check for them (§4.3).
}

func (v *Validator) validateCondition(fn *ast.Function, cond ast.Condition, params visibleNames, allowReturn bool) {
	if !v.checkPurity(cond.Predicate) {
		v.diags.Errorf(diagnostics.KindImpurityInPredicate, v.span(cond.Location),
			"%s predicate %q on %s calls a non-pure function", conditionKind(allowReturn), cond.Name, fn.Name)
	}
	if err := v.checkReferences(cond.Predicate, params, allowReturn); err != nil {
		v.diags.Errorf(diagnostics.KindUnknownPredicateRef, v.span(cond.Location),
			"%s predicate %q on %s: %s", conditionKind(allowReturn), cond.Name, fn.Name, err.Error())
	}
	if v.typeOf != nil {
		ty, err := v.typeOf(cond.Predicate, allowReturn)
		if err != nil {
			return // the expression type-checker already reported this
		}
		if ty.Kind() != types.Boolean {
			v.diags.Errorf(diagnostics.KindPredicateNotBoolean, v.span(cond.Location),
				"%s predicate %q on %s must be boolean, got %s", conditionKind(allowReturn), cond.Name, fn.Name, ty)
		}
	}
}

func conditionKind(allowReturn bool) string {
	if allowReturn {
		return "postcondition"
	}
	return "precondition"
}
