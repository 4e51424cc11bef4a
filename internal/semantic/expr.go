package semantic

import (
	"aetherc/internal/ast"
	"aetherc/internal/diagnostics"
	"aetherc/internal/types"
)

// typeOfExpr resolves e's static type, reporting diagnostics for any
// mismatch along the way. It returns nil when e does not type-check, which
// callers treat as "already diagnosed" rather than attempting their own
// error on top of it — mirroring mirbuilder's exprLowerer in structure
// (one ast.ExprVisitor implementation per call) but computing a *types.Type
// instead of emitting MIR.
func (a *Analyzer) typeOfExpr(e ast.Expr, allowReturnValue bool) *types.Type {
	ec := &exprChecker{a: a, allowReturnValue: allowReturnValue}
	result, _ := e.Accept(ec).(*types.Type)
	return result
}

type exprChecker struct {
	a                *Analyzer
	allowReturnValue bool
}

func (c *exprChecker) VisitIntLiteral(*ast.IntLiteral) interface{} {
	return c.a.table.Primitive(types.Integer)
}

func (c *exprChecker) VisitFloatLiteral(*ast.FloatLiteral) interface{} {
	return c.a.table.Primitive(types.Float)
}

func (c *exprChecker) VisitBoolLiteral(*ast.BoolLiteral) interface{} {
	return c.a.table.Primitive(types.Boolean)
}

func (c *exprChecker) VisitStringLiteral(*ast.StringLiteral) interface{} {
	return c.a.table.Primitive(types.String)
}

func (c *exprChecker) VisitVarRef(n *ast.VarRef) interface{} {
	sym, ok := c.a.syms.Lookup(n.Name)
	if !ok {
		c.a.diags.Errorf(diagnostics.KindUndefinedSymbol, c.a.span(n.Location), "undefined symbol %q", n.Name)
		return nil
	}
	return sym.Type
}

func (c *exprChecker) VisitIntrinsic(n *ast.Intrinsic) interface{} {
	switch n.Kind {
	case ast.ReturnValue:
		if !c.allowReturnValue || c.a.curFunc == nil {
			c.a.diags.Errorf(diagnostics.KindUnknownPredicateRef, c.a.span(n.Location),
				"RETURN_VALUE is only valid in a postcondition")
			return nil
		}
		return c.a.funcs[c.a.curFunc.Name].ret
	case ast.ArrayLength:
		if n.Operand == nil {
			return c.a.table.Primitive(types.Integer)
		}
		arrTy := c.a.typeOfExpr(n.Operand, c.allowReturnValue)
		if arrTy != nil && arrTy.Kind() != types.Array {
			c.a.diags.Errorf(diagnostics.KindTypeMismatch, c.a.span(n.Location),
				"ARRAY_LENGTH requires an array operand, got %s", arrTy)
		}
		return c.a.table.Primitive(types.Integer)
	default:
		return nil
	}
}

// comparisonOps always produce boolean; logicalOps require boolean
// operands and produce boolean; every other binary operator is arithmetic
// and requires matching numeric operand types, preserving that type.
var comparisonOps = map[string]bool{"==": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true}
var logicalOps = map[string]bool{"&&": true, "||": true}

func (c *exprChecker) VisitBinary(n *ast.BinaryExpr) interface{} {
	lt := c.a.typeOfExpr(n.Left, c.allowReturnValue)
	rt := c.a.typeOfExpr(n.Right, c.allowReturnValue)
	if lt == nil || rt == nil {
		return nil
	}

	if logicalOps[n.Op] {
		if lt.Kind() != types.Boolean || rt.Kind() != types.Boolean {
			c.a.diags.Errorf(diagnostics.KindTypeMismatch, c.a.span(n.Location),
				"operator %q requires boolean operands, got %s and %s", n.Op, lt, rt)
			return nil
		}
		return c.a.table.Primitive(types.Boolean)
	}

	if comparisonOps[n.Op] {
		if !types.Equal(lt, rt) && !c.a.table.IsAssignable(lt, rt) && !c.a.table.IsAssignable(rt, lt) {
			c.a.diags.Errorf(diagnostics.KindTypeMismatch, c.a.span(n.Location),
				"cannot compare %s and %s", lt, rt)
		}
		return c.a.table.Primitive(types.Boolean)
	}

	// Arithmetic: both operands must be the same numeric kind.
	if (lt.Kind() != types.Integer && lt.Kind() != types.Float) || !types.Equal(lt, rt) {
		c.a.diags.Errorf(diagnostics.KindTypeMismatch, c.a.span(n.Location),
			"operator %q requires matching numeric operands, got %s and %s", n.Op, lt, rt)
		return lt
	}
	return lt
}

func (c *exprChecker) VisitUnary(n *ast.UnaryExpr) interface{} {
	ty := c.a.typeOfExpr(n.Operand, c.allowReturnValue)
	if ty == nil {
		return nil
	}
	switch n.Op {
	case "!":
		if ty.Kind() != types.Boolean {
			c.a.diags.Errorf(diagnostics.KindTypeMismatch, c.a.span(n.Location),
				"operator \"!\" requires a boolean operand, got %s", ty)
		}
		return c.a.table.Primitive(types.Boolean)
	default: // "-"
		if ty.Kind() != types.Integer && ty.Kind() != types.Float {
			c.a.diags.Errorf(diagnostics.KindTypeMismatch, c.a.span(n.Location),
				"operator %q requires a numeric operand, got %s", n.Op, ty)
		}
		return ty
	}
}

func (c *exprChecker) VisitCall(n *ast.CallExpr) interface{} {
	sig, ok := c.a.funcs[n.Callee]
	if !ok {
		if _, isVar := c.a.syms.Lookup(n.Callee); isVar {
			c.a.diags.Errorf(diagnostics.KindNotAFunction, c.a.span(n.Location), "%q is not a function", n.Callee)
		} else {
			c.a.diags.Errorf(diagnostics.KindUndefinedSymbol, c.a.span(n.Location), "call to undefined function %q", n.Callee)
		}
		for _, arg := range n.Args {
			c.a.typeOfExpr(arg, c.allowReturnValue)
		}
		return nil
	}
	if len(n.Args) != len(sig.params) {
		c.a.diags.Errorf(diagnostics.KindArityMismatch, c.a.span(n.Location),
			"%q expects %d argument(s), got %d", n.Callee, len(sig.params), len(n.Args))
	}
	for i, arg := range n.Args {
		argTy := c.a.typeOfExpr(arg, c.allowReturnValue)
		if argTy == nil || i >= len(sig.params) {
			continue
		}
		if !types.Equal(argTy, sig.params[i]) && !c.a.table.IsAssignable(argTy, sig.params[i]) {
			c.a.diags.Errorf(diagnostics.KindTypeMismatch, c.a.span(arg.Loc()),
				"argument %d to %q: cannot use %s as %s", i+1, n.Callee, argTy, sig.params[i])
		}
	}
	return sig.ret
}

func (c *exprChecker) VisitIf(n *ast.IfExpr) interface{} {
	condTy := c.a.typeOfExpr(n.Cond, c.allowReturnValue)
	if condTy != nil && condTy.Kind() != types.Boolean {
		c.a.diags.Errorf(diagnostics.KindTypeMismatch, c.a.span(n.Cond.Loc()),
			"if condition must be boolean, got %s", condTy)
	}

	thenTy := c.a.checkBlockValue(n.ThenBranch)
	if n.ElseBranch == nil {
		return c.a.table.Primitive(types.Void)
	}
	elseTy := c.a.checkBlockValue(n.ElseBranch)
	if thenTy == nil || elseTy == nil {
		return nil
	}
	unified, ok := c.a.table.Unify(thenTy, elseTy)
	if !ok {
		c.a.diags.Errorf(diagnostics.KindTypeMismatch, c.a.span(n.Location),
			"if branches diverge: %s vs %s", thenTy, elseTy)
		return nil
	}
	return unified
}

func (c *exprChecker) VisitFieldAccess(n *ast.FieldAccessExpr) interface{} {
	objTy := c.a.typeOfExpr(n.Object, c.allowReturnValue)
	if objTy == nil {
		return nil
	}
	if objTy.Kind() != types.Record {
		c.a.diags.Errorf(diagnostics.KindTypeMismatch, c.a.span(n.Location),
			"field access on non-record type %s", objTy)
		return nil
	}
	for _, f := range objTy.Fields() {
		if f.Name == n.Field {
			return f.Type
		}
	}
	c.a.diags.Errorf(diagnostics.KindTypeMismatch, c.a.span(n.Location),
		"%s has no field %q", objTy, n.Field)
	return nil
}

func (c *exprChecker) VisitArrayAccess(n *ast.ArrayAccessExpr) interface{} {
	arrTy := c.a.typeOfExpr(n.Array, c.allowReturnValue)
	idxTy := c.a.typeOfExpr(n.Index, c.allowReturnValue)
	if idxTy != nil && idxTy.Kind() != types.Integer {
		c.a.diags.Errorf(diagnostics.KindTypeMismatch, c.a.span(n.Index.Loc()),
			"array index must be integer, got %s", idxTy)
	}
	if arrTy == nil {
		return nil
	}
	if arrTy.Kind() != types.Array {
		c.a.diags.Errorf(diagnostics.KindTypeMismatch, c.a.span(n.Location),
			"index into non-array type %s", arrTy)
		return nil
	}
	return arrTy.Elem()
}
