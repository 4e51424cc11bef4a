package contracts

import (
	"fmt"

	"aetherc/internal/ast"
)

// checkPurity reports whether every call reachable from e is itself pure.
// Intrinsics (RETURN_VALUE, ARRAY_LENGTH) and operators are always pure.
func (v *Validator) checkPurity(e ast.Expr) bool {
	checker := &purityWalker{oracle: v.purity, pure: true}
	e.Accept(checker)
	return checker.pure
}

type purityWalker struct {
	oracle PurityOracle
	pure   bool
}

func (w *purityWalker) VisitIntLiteral(*ast.IntLiteral) interface{}       { return nil }
func (w *purityWalker) VisitFloatLiteral(*ast.FloatLiteral) interface{}   { return nil }
func (w *purityWalker) VisitBoolLiteral(*ast.BoolLiteral) interface{}     { return nil }
func (w *purityWalker) VisitStringLiteral(*ast.StringLiteral) interface{} { return nil }
func (w *purityWalker) VisitVarRef(*ast.VarRef) interface{}               { return nil }

func (w *purityWalker) VisitIntrinsic(n *ast.Intrinsic) interface{} {
	if n.Operand != nil {
		n.Operand.Accept(w)
	}
	return nil
}

func (w *purityWalker) VisitBinary(n *ast.BinaryExpr) interface{} {
	n.Left.Accept(w)
	n.Right.Accept(w)
	return nil
}

func (w *purityWalker) VisitUnary(n *ast.UnaryExpr) interface{} {
	n.Operand.Accept(w)
	return nil
}

func (w *purityWalker) VisitCall(n *ast.CallExpr) interface{} {
	if w.oracle != nil {
		if pure, known := w.oracle.IsPure(n.Callee); !known || !pure {
			w.pure = false
		}
	} else {
		w.pure = false
	}
	for _, a := range n.Args {
		a.Accept(w)
	}
	return nil
}

func (w *purityWalker) VisitIf(n *ast.IfExpr) interface{} {
	n.Cond.Accept(w)
	// Contract predicates are expressions, not statement blocks; if/else
	// branches inside a predicate are still walked for nested calls.
	walkBlockForPurity(n.ThenBranch, w)
	if n.ElseBranch != nil {
		walkBlockForPurity(n.ElseBranch, w)
	}
	return nil
}

func (w *purityWalker) VisitFieldAccess(n *ast.FieldAccessExpr) interface{} {
	n.Object.Accept(w)
	return nil
}

func (w *purityWalker) VisitArrayAccess(n *ast.ArrayAccessExpr) interface{} {
	n.Array.Accept(w)
	n.Index.Accept(w)
	return nil
}

func walkBlockForPurity(b *ast.Block, w *purityWalker) {
	for _, s := range b.Stmts {
		if es, ok := s.(*ast.ExprStmt); ok {
			es.Value.Accept(w)
		}
	}
}

// checkReferences reports an error if e references any variable other
// than a visible parameter (or RETURN_VALUE, when allowReturn is set).
func (v *Validator) checkReferences(e ast.Expr, params visibleNames, allowReturn bool) error {
	checker := &refWalker{params: params, allowReturn: allowReturn}
	e.Accept(checker)
	return checker.err
}

type refWalker struct {
	params      visibleNames
	allowReturn bool
	err         error
}

func (w *refWalker) fail(msg string) {
	if w.err == nil {
		w.err = fmt.Errorf("%s", msg)
	}
}

func (w *refWalker) VisitIntLiteral(*ast.IntLiteral) interface{}       { return nil }
func (w *refWalker) VisitFloatLiteral(*ast.FloatLiteral) interface{}   { return nil }
func (w *refWalker) VisitBoolLiteral(*ast.BoolLiteral) interface{}     { return nil }
func (w *refWalker) VisitStringLiteral(*ast.StringLiteral) interface{} { return nil }

func (w *refWalker) VisitVarRef(n *ast.VarRef) interface{} {
	if !w.params[n.Name] {
		w.fail(fmt.Sprintf("references %q, which is not a visible parameter", n.Name))
	}
	return nil
}

func (w *refWalker) VisitIntrinsic(n *ast.Intrinsic) interface{} {
	if n.Kind == ast.ReturnValue && !w.allowReturn {
		w.fail("references RETURN_VALUE outside a postcondition")
	}
	if n.Operand != nil {
		n.Operand.Accept(w)
	}
	return nil
}

func (w *refWalker) VisitBinary(n *ast.BinaryExpr) interface{} {
	n.Left.Accept(w)
	n.Right.Accept(w)
	return nil
}

func (w *refWalker) VisitUnary(n *ast.UnaryExpr) interface{} {
	n.Operand.Accept(w)
	return nil
}

func (w *refWalker) VisitCall(n *ast.CallExpr) interface{} {
	for _, a := range n.Args {
		a.Accept(w)
	}
	return nil
}

func (w *refWalker) VisitIf(n *ast.IfExpr) interface{} {
	n.Cond.Accept(w)
	for _, b := range []*ast.Block{n.ThenBranch, n.ElseBranch} {
		if b == nil {
			continue
		}
		for _, s := range b.Stmts {
			if es, ok := s.(*ast.ExprStmt); ok {
				es.Value.Accept(w)
			}
		}
	}
	return nil
}

func (w *refWalker) VisitFieldAccess(n *ast.FieldAccessExpr) interface{} {
	n.Object.Accept(w)
	return nil
}

func (w *refWalker) VisitArrayAccess(n *ast.ArrayAccessExpr) interface{} {
	n.Array.Accept(w)
	n.Index.Accept(w)
	return nil
}
