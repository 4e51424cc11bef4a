package mirbuilder

import (
	"fmt"

	"aetherc/internal/ast"
	"aetherc/internal/diagnostics"
	"aetherc/internal/mir"
	"aetherc/internal/ownership"
	"aetherc/internal/types"
)

// SignatureLookup resolves a callee's declared return type during MIR
// lowering, the call-site analogue of types.RecordRegistry for field
// lookup. internal/semantic.Analyzer implements it directly (backed by
// the same funcSig table the declaration pass already computes), which is
// how a Call's destination local ends up typed as the callee's real
// return type instead of Void (§4.7 "Call.destination.type equals the
// callee return type").
type SignatureLookup interface {
	Signature(name string) (ret *types.Type, known bool)
}

// Lowerer walks an annotated ast.Function and emits its mir.Function,
// implementing the lowering rules table of §4.5. It threads the ownership
// analyzer alongside MIR construction so every Move/Copy operand decision
// and every scope-exit Drop insertion is made from live ownership state,
// not recomputed after the fact.
type Lowerer struct {
	builder        *Builder
	table          *types.Table
	records        types.RecordRegistry
	sigs           SignatureLookup
	own            *ownership.Analyzer
	diags          *diagnostics.Bag
	file           string
	locals         map[string]mir.LocalID
	ownRefs        map[string]ownership.LocalRef
	retLocal       mir.LocalID
	hasRet         bool
	postconditions []ast.Condition
}

// LowerFunction lowers fn into a *mir.Function. purityOf and typeOf are not
// needed here (the contract validator already ran); the lowerer trusts
// that a successfully-analyzed function type-checks. sigs resolves a
// callee's declared return type for Call lowering (§4.7); pass the same
// SignatureLookup (e.g. the semantic.Analyzer used for this compilation
// unit) that declared every function and extern in scope.
func LowerFunction(fn *ast.Function, table *types.Table, records types.RecordRegistry, sigs SignatureLookup, diags *diagnostics.Bag, file string) *mir.Function {
	retType, err := table.Resolve(fn.Return, records)
	if err != nil {
		diags.Errorf(diagnostics.KindUnknownType, span(file, fn.Location), "return type: %s", err)
		retType = table.Primitive(types.Void)
	}

	params := make([]mir.Param, len(fn.Params))
	for i, p := range fn.Params {
		pt, err := table.Resolve(p.Type, records)
		if err != nil {
			diags.Errorf(diagnostics.KindUnknownType, span(file, p.Location), "parameter %q: %s", p.Name, err)
			pt = table.Primitive(types.Void)
		}
		params[i] = mir.Param{Name: p.Name, Type: pt}
	}

	l := &Lowerer{
		builder:        StartFunction(fn.Name, params, retType),
		table:          table,
		records:        records,
		sigs:           sigs,
		own:            ownership.New(diags, file),
		diags:          diags,
		file:           file,
		locals:         make(map[string]mir.LocalID),
		ownRefs:        make(map[string]ownership.LocalRef),
		postconditions: fn.Metadata.Postconditions,
	}

	for i, p := range fn.Params {
		l.locals[p.Name] = mir.LocalID(i)
		startState := ownership.Owned
		switch {
		case p.Type != nil && p.Type.HasOwnership && p.Type.Ownership == ast.BorrowedKind:
			startState = ownership.ImmutablyBorrowed
		case p.Type != nil && p.Type.HasOwnership && p.Type.Ownership == ast.BorrowedMutKind:
			startState = ownership.MutablyBorrowed
		case p.Type != nil && p.Type.HasOwnership && p.Type.Ownership == ast.SharedKind:
			startState = ownership.Owned
		}
		ref := l.own.DeclareParam(p.Name, traitOf(params[i].Type), startState)
		l.ownRefs[p.Name] = ref
	}

	// The return value lives in a dedicated local allocated right after
	// the parameters rather than at local 0: §3.4 fixes locals
	// 0..params.len() as the parameter block, so a literal local-0 return
	// slot (as §4.5's lowering-rules table names it) would collide with
	// parameter 0 whenever the function takes any arguments. Allocating a
	// distinct return local preserves the §3.4 invariant; this mirrors
	// original_source's own MIR builder test, where local 0 is the
	// function's first parameter, not its return slot.
	if retType.Kind() != types.Void {
		l.retLocal = l.builder.NewLocal(retType, true, "$return")
		l.hasRet = true
	}

	// Preconditions (§4.3, §9) trap before any body statement runs: a
	// violated entry contract must not let a single effect happen first.
	l.lowerConditions(fn.Metadata.Preconditions, "precondition")

	if fn.Body != nil {
		l.lowerBlockTopLevel(fn.Body)
	}
	if !l.builder.HasTerminator() {
		l.builder.SetTerminator(mir.ReturnTerm())
	}

	return l.builder.FinishFunction()
}

// emitReturn lowers the current function's postconditions (§4.3, §9) —
// RETURN_VALUE resolves correctly here because the return value has
// already been assigned to retLocal before this is called — then closes
// the current block with a Return terminator. Used by every explicit
// `return` statement (stmt.go's lowerReturn); the implicit fall-off-the-
// end case is handled by lowerBlockTopLevel itself, which must run the
// postcondition check before its own scope-exit drops rather than after.
func (l *Lowerer) emitReturn() {
	l.lowerConditions(l.postconditions, "postcondition")
	l.builder.SetTerminator(mir.ReturnTerm())
}

// lowerConditions evaluates each condition's predicate and chains an
// Assert terminator (§9 "Contract failures surface as Assert terminators
// in MIR with a diagnostic payload") off the current block: on success
// control falls through to a fresh continuation block; on failure codegen
// traps (internal/codegen's TermAssert lowering). kind labels the
// diagnostic payload when the condition itself carries no explicit
// Message.
func (l *Lowerer) lowerConditions(conds []ast.Condition, kind string) {
	for _, cond := range conds {
		operand := l.lowerExprToOperand(cond.Predicate)
		msg := cond.Message
		if msg == "" {
			msg = fmt.Sprintf("%s %q failed", kind, cond.Name)
		}
		cont := l.builder.NewBlock()
		l.builder.SetTerminator(mir.AssertTerm(operand, true, msg, cont, nil))
		l.builder.SwitchToBlock(cont)
	}
}

func span(file string, loc ast.SourceLocation) diagnostics.SourceSpan {
	return diagnostics.SourceSpan{File: file, Line: loc.Line, Column: loc.Column}
}

func traitOf(ty *types.Type) ownership.LocalTrait {
	trait := ownership.LocalTrait{RequiresDrop: ty.RequiresDrop()}
	if ty.IsOwned() {
		switch ty.Ownership() {
		case types.KindShared:
			trait.Shared = true
		case types.KindOwned:
			trait.NonTrivial = !ty.Inner().IsPrimitive()
		}
	}
	return trait
}

// lowerBlockTopLevel lowers a function body: a fresh region, the
// postcondition check for an implicit fall-off-the-end return (only if no
// statement already terminated the block via an explicit `return`, which
// ran its own check through emitReturn), then that region's scope-exit
// drops. Postconditions must evaluate before the drops: a postcondition
// referencing a parameter needs to see it before scope exit retires it.
func (l *Lowerer) lowerBlockTopLevel(b *ast.Block) {
	l.own.EnterRegion()
	for _, s := range b.Stmts {
		l.lowerStmt(s)
		if l.builder.HasTerminator() {
			break
		}
	}
	if !l.builder.HasTerminator() {
		l.lowerConditions(l.postconditions, "postcondition")
	}
	l.exitRegionWithDrops()
}

func (l *Lowerer) exitRegionWithDrops() {
	drops := l.own.ExitRegion()
	if l.builder.HasTerminator() {
		return
	}
	for _, d := range drops {
		local, ok := l.locals[d.Name]
		if !ok {
			continue
		}
		l.builder.PushStatement(mir.StorageDead(local))
		l.builder.PushStatement(mir.Drop(mir.SimplePlace(local)))
	}
}
