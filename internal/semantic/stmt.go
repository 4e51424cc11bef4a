package semantic

import (
	"aetherc/internal/ast"
	"aetherc/internal/diagnostics"
	"aetherc/internal/symbols"
	"aetherc/internal/types"
)

// checkBlock type-checks a function body (or any nested block reached only
// for side effects, e.g. a while body): every statement is checked in
// order, and any return statement's value is checked against retTy.
func (a *Analyzer) checkBlock(b *ast.Block, retTy *types.Type) {
	for _, s := range b.Stmts {
		a.checkStmt(s, retTy)
	}
}

// checkBlockValue type-checks a block used as an if-branch expression and
// reports the type it evaluates to: a trailing ExprStmt is the block's
// value (mirroring internal/mirbuilder's lowerBranch), anything else
// yields void.
func (a *Analyzer) checkBlockValue(b *ast.Block) *types.Type {
	last := a.table.Primitive(types.Void)
	for i, s := range b.Stmts {
		if i == len(b.Stmts)-1 {
			if es, ok := s.(*ast.ExprStmt); ok {
				last = a.typeOfExpr(es.Value, false)
				continue
			}
		}
		a.checkStmt(s, nil)
	}
	return last
}

func (a *Analyzer) checkStmt(s ast.Stmt, retTy *types.Type) {
	switch n := s.(type) {
	case *ast.LetStmt:
		a.checkLet(n)
	case *ast.AssignStmt:
		a.checkAssign(n)
	case *ast.ExprStmt:
		a.typeOfExpr(n.Value, false)
	case *ast.ReturnStmt:
		a.checkReturn(n, retTy)
	case *ast.WhileStmt:
		a.checkWhile(n, retTy)
	case *ast.BlockStmt:
		a.syms.Push()
		a.checkBlock(n.Body, retTy)
		a.syms.Pop()
	}
}

func (a *Analyzer) checkLet(n *ast.LetStmt) {
	inferred := a.typeOfExpr(n.Value, false)

	declared := inferred
	if n.Type != nil {
		declared = a.resolveType(n.Type)
		if inferred != nil && !types.Equal(inferred, declared) && !a.table.IsAssignable(inferred, declared) {
			a.diags.Errorf(diagnostics.KindTypeMismatch, a.span(n.Location),
				"%q declared as %s but initializer is %s", n.Name, declared, inferred)
		}
	}
	if declared == nil {
		declared = a.table.Primitive(types.Void)
	}
	if err := a.syms.Redeclared(n.Name); err != nil {
		a.diags.Errorf(diagnostics.KindTypeMismatch, a.span(n.Location), "%s", err.Error())
	}
	a.syms.Declare(&symbols.Symbol{Name: n.Name, Type: declared, Mutable: n.Mutable, Origin: symbols.OriginLocal})
}

func (a *Analyzer) checkAssign(n *ast.AssignStmt) {
	valTy := a.typeOfExpr(n.Value, false)
	targetTy := a.typeOfExpr(n.Target, false)
	if valTy == nil || targetTy == nil {
		return
	}
	if !types.Equal(valTy, targetTy) && !a.table.IsAssignable(valTy, targetTy) {
		a.diags.Errorf(diagnostics.KindTypeMismatch, a.span(n.Location),
			"cannot assign %s to target of type %s", valTy, targetTy)
	}
	if ref, ok := n.Target.(*ast.VarRef); ok {
		if sym, ok := a.syms.Lookup(ref.Name); ok && !sym.Mutable && sym.Origin != symbols.OriginParameter {
			a.diags.Errorf(diagnostics.KindAssignToImmutable, a.span(n.Location),
				"cannot assign to immutable binding %q", ref.Name)
		}
	}
}

func (a *Analyzer) checkReturn(n *ast.ReturnStmt, retTy *types.Type) {
	if n.Value == nil {
		if retTy != nil && retTy.Kind() != types.Void {
			a.diags.Errorf(diagnostics.KindTypeMismatch, a.span(n.Location),
				"missing return value, function returns %s", retTy)
		}
		return
	}
	valTy := a.typeOfExpr(n.Value, false)
	if valTy == nil || retTy == nil {
		return
	}
	if retTy.Kind() == types.Void {
		a.diags.Errorf(diagnostics.KindTypeMismatch, a.span(n.Location),
			"void function cannot return a value")
		return
	}
	if !types.Equal(valTy, retTy) && !a.table.IsAssignable(valTy, retTy) {
		a.diags.Errorf(diagnostics.KindTypeMismatch, a.span(n.Location),
			"return type mismatch: expected %s, got %s", retTy, valTy)
	}
}

func (a *Analyzer) checkWhile(n *ast.WhileStmt, retTy *types.Type) {
	condTy := a.typeOfExpr(n.Cond, false)
	if condTy != nil && condTy.Kind() != types.Boolean {
		a.diags.Errorf(diagnostics.KindTypeMismatch, a.span(n.Cond.Loc()),
			"while condition must be boolean, got %s", condTy)
	}
	a.syms.Push()
	a.checkBlock(n.Body, retTy)
	a.syms.Pop()
}
