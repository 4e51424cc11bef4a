package mirbuilder

import (
	"aetherc/internal/ast"
	"aetherc/internal/mir"
	"aetherc/internal/types"
)

func (l *Lowerer) lowerStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.LetStmt:
		l.lowerLet(n)
	case *ast.AssignStmt:
		l.lowerAssign(n)
	case *ast.ExprStmt:
		l.lowerExpr(n.Value)
	case *ast.ReturnStmt:
		l.lowerReturn(n)
	case *ast.WhileStmt:
		l.lowerWhile(n)
	case *ast.BlockStmt:
		l.own.EnterRegion()
		for _, inner := range n.Body.Stmts {
			l.lowerStmt(inner)
			if l.builder.HasTerminator() {
				break
			}
		}
		l.exitRegionWithDrops()
	}
}

// lowerLet implements the §4.5 rule:
//
//	let x = e  =>  StorageLive(x); _ = eval(e) -> operand; Assign(x, Use(operand))
func (l *Lowerer) lowerLet(n *ast.LetStmt) {
	operand, inferredType := l.lowerExprTyped(n.Value)

	declaredType := inferredType
	if n.Type != nil {
		if ty, err := l.table.Resolve(n.Type, l.records); err == nil {
			declaredType = ty
		}
	}

	local := l.builder.NewLocal(declaredType, n.Mutable, n.Name)
	l.builder.PushStatement(mir.StorageLive(local))
	l.builder.PushStatement(mir.Assign(mir.SimplePlace(local), mir.UseRvalue(operand)))

	l.locals[n.Name] = local
	ref := l.own.Declare(n.Name, traitOf(declaredType), true)
	l.ownRefs[n.Name] = ref
}

// lowerAssign implements assignment to a variable, field, or array index.
// Only the plain-variable case threads through the ownership analyzer's
// Assign operation (§4.2); field/array-index targets are lowered as a
// Place with projections and are not subject to the move/borrow state
// machine the way a whole local is.
func (l *Lowerer) lowerAssign(n *ast.AssignStmt) {
	operand := l.lowerExprToOperand(n.Value)

	switch target := n.Target.(type) {
	case *ast.VarRef:
		local, ok := l.locals[target.Name]
		if !ok {
			return
		}
		ref := l.ownRefs[target.Name]
		mutable := true
		if fnLocal, ok := l.localMutable(local); ok {
			mutable = fnLocal
		}
		l.own.Assign(ref, mutable, target.Location.Line, target.Location.Column)
		l.builder.PushStatement(mir.Assign(mir.SimplePlace(local), mir.UseRvalue(operand)))
	case *ast.FieldAccessExpr:
		place := l.lowerPlace(target)
		l.builder.PushStatement(mir.Assign(place, mir.UseRvalue(operand)))
	case *ast.ArrayAccessExpr:
		place := l.lowerPlace(target)
		l.builder.PushStatement(mir.Assign(place, mir.UseRvalue(operand)))
	}
}

func (l *Lowerer) localMutable(id mir.LocalID) (bool, bool) {
	if int(id) >= len(l.builder.fn.Locals) {
		return true, false
	}
	return l.builder.fn.Locals[id].Mutable, true
}

// lowerReturn implements: return e => Assign(retLocal, Use(e_operand));
// postconditions; Return. Postconditions run through the shared
// emitReturn path so RETURN_VALUE sees the value just assigned here.
func (l *Lowerer) lowerReturn(n *ast.ReturnStmt) {
	if n.Value != nil && l.hasRet {
		operand := l.lowerExprToOperand(n.Value)
		l.builder.PushStatement(mir.Assign(mir.SimplePlace(l.retLocal), mir.UseRvalue(operand)))
	} else if n.Value != nil {
		// Void-returning function with an expression statement return;
		// still evaluate for side effects, but there is no return slot.
		l.lowerExprToOperand(n.Value)
	}
	l.emitReturn()
}

// lowerWhile implements the §4.5 rule:
//
//	while c { B }  =>  head: eval(c), SwitchInt to body or exit; body ends Goto(head)
func (l *Lowerer) lowerWhile(n *ast.WhileStmt) {
	head := l.builder.NewBlock()
	body := l.builder.NewBlock()
	exit := l.builder.NewBlock()

	l.builder.SetTerminator(mir.GotoTerm(head))

	l.builder.SwitchToBlock(head)
	condOperand := l.lowerExprToOperand(n.Cond)
	l.builder.SetTerminator(mir.SwitchIntTerm(condOperand, l.boolType(), mir.SwitchTargets{
		Values:    []int64{1},
		Targets:   []mir.BlockID{body},
		Otherwise: exit,
	}))

	l.builder.SwitchToBlock(body)
	l.own.EnterRegion()
	for _, s := range n.Body.Stmts {
		l.lowerStmt(s)
		if l.builder.HasTerminator() {
			break
		}
	}
	l.exitRegionWithDrops()
	if !l.builder.HasTerminator() {
		l.builder.SetTerminator(mir.GotoTerm(head))
	}

	l.builder.SwitchToBlock(exit)
}

func (l *Lowerer) boolType() *types.Type { return l.table.Primitive(types.Boolean) }
