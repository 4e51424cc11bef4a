package mirbuilder

import (
	"aetherc/internal/ast"
	"aetherc/internal/mir"
	"aetherc/internal/types"
)

// exprLowerer implements ast.ExprVisitor, evaluating one expression into a
// basic block as a sequence of temporaries and returning the final operand
// plus its static type. It is a thin per-call companion to Lowerer rather
// than a long-lived field, mirroring the teacher's Compiler.Compile(expr)
// entry point that walks one expression tree per call.
type exprLowerer struct {
	l *Lowerer
}

// lowerExprTyped evaluates expr and returns the resulting operand together
// with its static type, per §4.5's expression-lowering rules.
func (l *Lowerer) lowerExprTyped(expr ast.Expr) (mir.Operand, *types.Type) {
	ev := &exprLowerer{l: l}
	result := expr.Accept(ev).(exprResult)
	return result.operand, result.typ
}

// lowerExprToOperand discards the static type when the caller already
// knows it (e.g. an assignment target's declared type).
func (l *Lowerer) lowerExprToOperand(expr ast.Expr) mir.Operand {
	op, _ := l.lowerExprTyped(expr)
	return op
}

// lowerExpr evaluates expr purely for side effects (an ExprStmt), ignoring
// the result.
func (l *Lowerer) lowerExpr(expr ast.Expr) {
	l.lowerExprToOperand(expr)
}

// exprResult is what every ExprVisitor method returns, boxed through the
// interface{} Accept signature the AST defines.
type exprResult struct {
	operand mir.Operand
	typ     *types.Type
}

func (e *exprLowerer) bind(rv mir.Rvalue, ty *types.Type) exprResult {
	tmp := e.l.builder.NewLocal(ty, false, "")
	e.l.builder.PushStatement(mir.StorageLive(tmp))
	e.l.builder.PushStatement(mir.Assign(mir.SimplePlace(tmp), rv))
	return exprResult{operand: mir.CopyOf(mir.SimplePlace(tmp)), typ: ty}
}

func (e *exprLowerer) VisitIntLiteral(n *ast.IntLiteral) interface{} {
	ty := e.l.table.Primitive(types.Integer)
	c := mir.Constant{Type: ty, Value: mir.ConstantValue{Kind: mir.ConstInt, Int: n.Value}}
	return exprResult{operand: mir.ConstOperand(c), typ: ty}
}

func (e *exprLowerer) VisitFloatLiteral(n *ast.FloatLiteral) interface{} {
	ty := e.l.table.Primitive(types.Float)
	c := mir.Constant{Type: ty, Value: mir.ConstantValue{Kind: mir.ConstFloat, Float: n.Value}}
	return exprResult{operand: mir.ConstOperand(c), typ: ty}
}

func (e *exprLowerer) VisitBoolLiteral(n *ast.BoolLiteral) interface{} {
	ty := e.l.table.Primitive(types.Boolean)
	c := mir.Constant{Type: ty, Value: mir.ConstantValue{Kind: mir.ConstBool, Bool: n.Value}}
	return exprResult{operand: mir.ConstOperand(c), typ: ty}
}

func (e *exprLowerer) VisitStringLiteral(n *ast.StringLiteral) interface{} {
	ty := e.l.table.Primitive(types.String)
	c := mir.Constant{Type: ty, Value: mir.ConstantValue{Kind: mir.ConstString, Str: n.Value}}
	return exprResult{operand: mir.ConstOperand(c), typ: ty}
}

// VisitVarRef reads a local, threading the reference through the ownership
// analyzer (§4.2) so a use of a moved-from or uninitialized binding is
// caught at the point of use. Reads of an Owned, droppable local are moves
// (the last read of a linear resource transfers it); everything else is a
// copy. The analyzer itself tracks which it was via Read's return.
func (e *exprLowerer) VisitVarRef(n *ast.VarRef) interface{} {
	local, ok := e.l.locals[n.Name]
	if !ok {
		return exprResult{operand: mir.ConstOperand(mir.Constant{Type: e.l.table.Primitive(types.Void)}), typ: e.l.table.Primitive(types.Void)}
	}
	ref, hasRef := e.l.ownRefs[n.Name]
	ty := e.l.builder.fn.Locals[local].Type
	place := mir.SimplePlace(local)

	if !hasRef {
		return exprResult{operand: mir.CopyOf(place), typ: ty}
	}

	moveSemantics := ty.RequiresDrop() && ty.Kind() != types.Record
	if ty.IsOwned() && ty.Ownership() != types.KindOwned {
		moveSemantics = false // borrows and shares are always read by copy
	}

	e.l.own.Read(ref, n.Location.Line, n.Location.Column)
	if moveSemantics {
		e.l.own.Move(ref, n.Location.Line, n.Location.Column)
		return exprResult{operand: mir.MoveOf(place), typ: ty}
	}
	return exprResult{operand: mir.CopyOf(place), typ: ty}
}

// VisitIntrinsic implements RETURN_VALUE (postcondition-only, reads the
// function's dedicated return local) and ARRAY_LENGTH (§3.3, §4.5 lowers to
// an Rvalue::Len of the array operand's place).
func (e *exprLowerer) VisitIntrinsic(n *ast.Intrinsic) interface{} {
	switch n.Kind {
	case ast.ReturnValue:
		ty := e.l.builder.fn.ReturnType
		return exprResult{operand: mir.CopyOf(mir.SimplePlace(e.l.retLocal)), typ: ty}
	case ast.ArrayLength:
		place := e.l.lowerPlace(n.Operand)
		return e.bind(mir.LenRvalue(place), e.l.table.Primitive(types.Integer))
	default:
		ty := e.l.table.Primitive(types.Void)
		return exprResult{operand: mir.ConstOperand(mir.Constant{Type: ty}), typ: ty}
	}
}

var binOpTable = map[string]mir.BinOp{
	"+": mir.BinAdd, "-": mir.BinSub, "*": mir.BinMul, "/": mir.BinDiv, "%": mir.BinMod,
	"==": mir.BinEq, "!=": mir.BinNe, ">": mir.BinGt, "<": mir.BinLt, ">=": mir.BinGe, "<=": mir.BinLe,
	"&&": mir.BinAnd, "||": mir.BinOr,
}

// VisitBinary implements §4.5's `a op b => tmp = BinaryOp(op, a_operand, b_operand)`.
func (e *exprLowerer) VisitBinary(n *ast.BinaryExpr) interface{} {
	left, leftTy := e.l.lowerExprTyped(n.Left)
	right, _ := e.l.lowerExprTyped(n.Right)

	op, ok := binOpTable[n.Op]
	if !ok {
		op = mir.BinAdd
	}

	resultTy := leftTy
	switch n.Op {
	case "==", "!=", ">", "<", ">=", "<=", "&&", "||":
		resultTy = e.l.table.Primitive(types.Boolean)
	}
	return e.bind(mir.BinaryOpRvalue(op, left, right), resultTy)
}

// VisitUnary implements §4.5's `op a => tmp = UnaryOp(op, a_operand)`.
func (e *exprLowerer) VisitUnary(n *ast.UnaryExpr) interface{} {
	operand, ty := e.l.lowerExprTyped(n.Operand)
	op := mir.UnNeg
	if n.Op == "!" {
		op = mir.UnNot
		ty = e.l.table.Primitive(types.Boolean)
	}
	return e.bind(mir.UnaryOpRvalue(op, operand), ty)
}

// VisitCall implements §4.5's call-as-terminator rule: a Call ends the
// current block, yielding the destination temporary on the NormalTarget
// block so subsequent lowering in the caller's expression tree continues
// linearly without the caller needing to know a terminator was involved.
func (e *exprLowerer) VisitCall(n *ast.CallExpr) interface{} {
	args := make([]mir.Operand, len(n.Args))
	for i, a := range n.Args {
		args[i] = e.l.lowerExprToOperand(a)
	}

	// The callee's return type was already checked by the semantic analyzer
	// before lowering; l.sigs is the same signature table the analyzer
	// built its declaration pass from, so the destination local gets the
	// callee's real return type (§4.7 "Call.destination.type equals the
	// callee return type") rather than assuming Void.
	retTy := e.l.table.Primitive(types.Void)
	if e.l.sigs != nil {
		if ret, ok := e.l.sigs.Signature(n.Callee); ok {
			retTy = ret
		}
	}

	// A void-returning callee gets no destination place at all: the
	// codegen backend allocates one alloca per MIR local and would have
	// to store a void call result into it otherwise, which LLVM rejects.
	var destPlacePtr *mir.Place
	result := mir.ConstOperand(mir.Constant{Type: retTy})
	if retTy.Kind() != types.Void {
		dest := e.l.builder.NewLocal(retTy, false, "")
		e.l.builder.PushStatement(mir.StorageLive(dest))
		destPlace := mir.SimplePlace(dest)
		destPlacePtr = &destPlace
		result = mir.CopyOf(destPlace)
	}

	normal := e.l.builder.NewBlock()
	e.l.builder.SetTerminator(mir.CallTerm(n.Callee, args, destPlacePtr, normal, nil))
	e.l.builder.SwitchToBlock(normal)

	return exprResult{operand: result, typ: retTy}
}

// VisitIf implements §4.5's if-expression lowering: SwitchInt on the
// condition, then/else branches each assign a shared result temporary and
// Goto a merge block; the merge block becomes current on return so the
// enclosing statement sees one continuous operand.
func (e *exprLowerer) VisitIf(n *ast.IfExpr) interface{} {
	cond := e.l.lowerExprToOperand(n.Cond)

	thenBlock := e.l.builder.NewBlock()
	elseBlock := e.l.builder.NewBlock()
	merge := e.l.builder.NewBlock()

	e.l.builder.SetTerminator(mir.SwitchIntTerm(cond, e.l.boolType(), mir.SwitchTargets{
		Values:    []int64{1},
		Targets:   []mir.BlockID{thenBlock},
		Otherwise: elseBlock,
	}))

	result := e.l.table.Primitive(types.Void)
	resultLocal := e.l.builder.NewLocal(result, false, "")
	e.l.builder.PushStatement(mir.StorageLive(resultLocal))
	resultPlace := mir.SimplePlace(resultLocal)

	e.l.builder.SwitchToBlock(thenBlock)
	e.l.own.EnterRegion()
	thenOperand, thenTy := e.lowerBranch(n.ThenBranch)
	if !e.l.builder.HasTerminator() {
		e.l.builder.PushStatement(mir.Assign(resultPlace, mir.UseRvalue(thenOperand)))
	}
	thenSnapshot := e.l.own.Snapshot()
	e.l.exitRegionWithDrops()
	if !e.l.builder.HasTerminator() {
		e.l.builder.SetTerminator(mir.GotoTerm(merge))
	}

	e.l.builder.SwitchToBlock(elseBlock)
	e.l.own.EnterRegion()
	var elseOperand mir.Operand
	elseTy := result
	if n.ElseBranch != nil {
		elseOperand, elseTy = e.lowerBranch(n.ElseBranch)
	} else {
		elseOperand = mir.ConstOperand(mir.Constant{Type: result})
	}
	if !e.l.builder.HasTerminator() {
		e.l.builder.PushStatement(mir.Assign(resultPlace, mir.UseRvalue(elseOperand)))
	}
	elseSnapshot := e.l.own.Snapshot()
	e.l.exitRegionWithDrops()
	if !e.l.builder.HasTerminator() {
		e.l.builder.SetTerminator(mir.GotoTerm(merge))
	}

	e.l.own.Merge(n.Location.Line, n.Location.Column, thenSnapshot, elseSnapshot)

	e.l.builder.SwitchToBlock(merge)

	// Prefer whichever branch produced a non-void value; a well-typed
	// program has both branches agree, which the contract/type validator
	// checks independently of lowering.
	voidTy := e.l.table.Primitive(types.Void)
	result = thenTy
	if thenTy == voidTy {
		result = elseTy
	}
	return exprResult{operand: mir.CopyOf(resultPlace), typ: result}
}

// lowerBranch lowers an if-branch's statements and returns the operand its
// trailing expression statement produced, if its last statement was an
// ExprStmt (the branch's value in AetherScript's expression-oriented
// surface syntax); otherwise the branch produces void.
func (e *exprLowerer) lowerBranch(b *ast.Block) (mir.Operand, *types.Type) {
	var last mir.Operand
	lastTy := e.l.table.Primitive(types.Void)
	for i, s := range b.Stmts {
		if i == len(b.Stmts)-1 {
			if es, ok := s.(*ast.ExprStmt); ok {
				last, lastTy = e.l.lowerExprTyped(es.Value)
				continue
			}
		}
		e.l.lowerStmt(s)
		if e.l.builder.HasTerminator() {
			break
		}
	}
	return last, lastTy
}

// VisitFieldAccess and VisitArrayAccess read through a projected Place
// (§3.4 GLOSSARY "Place"); both route through lowerPlace so assignment
// targets and read expressions share one projection-building path.
func (e *exprLowerer) VisitFieldAccess(n *ast.FieldAccessExpr) interface{} {
	place := e.l.lowerPlace(n)
	ty := e.l.placeType(place)
	return exprResult{operand: mir.CopyOf(place), typ: ty}
}

func (e *exprLowerer) VisitArrayAccess(n *ast.ArrayAccessExpr) interface{} {
	place := e.l.lowerPlace(n)
	ty := e.l.placeType(place)
	return exprResult{operand: mir.CopyOf(place), typ: ty}
}

// lowerPlace builds a Place for a field-access or array-index expression
// (used both as an assignment target and as a read), recursing through
// nested accesses by extending the projection list on the same base local.
func (l *Lowerer) lowerPlace(expr ast.Expr) mir.Place {
	switch n := expr.(type) {
	case *ast.VarRef:
		local, ok := l.locals[n.Name]
		if !ok {
			return mir.Place{}
		}
		return mir.SimplePlace(local)
	case *ast.FieldAccessExpr:
		base := l.lowerPlace(n.Object)
		base.Projection = append(base.Projection, mir.Projection{Kind: mir.ProjField, Field: n.Field})
		return base
	case *ast.ArrayAccessExpr:
		base := l.lowerPlace(n.Array)
		idx := l.lowerExprToOperand(n.Index)
		base.Projection = append(base.Projection, mir.Projection{Kind: mir.ProjIndex, Index: idx})
		return base
	default:
		op := l.lowerExprToOperand(expr)
		if op.Kind == mir.OpCopy || op.Kind == mir.OpMove {
			return op.Place
		}
		return mir.Place{}
	}
}

// placeType walks a Place's local type through its projections to find the
// type of the final projected location.
func (l *Lowerer) placeType(p mir.Place) *types.Type {
	if int(p.Local) >= len(l.builder.fn.Locals) {
		return l.table.Primitive(types.Void)
	}
	ty := l.builder.fn.Locals[p.Local].Type
	for _, proj := range p.Projection {
		switch proj.Kind {
		case mir.ProjField:
			for _, f := range ty.Fields() {
				if f.Name == proj.Field {
					ty = f.Type
					break
				}
			}
		case mir.ProjIndex:
			ty = ty.Elem()
		}
	}
	return ty
}
