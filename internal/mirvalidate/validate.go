// Package mirvalidate implements the MIR validator of spec.md §4.7: the
// structural and type invariants every lowering or optimization pass must
// preserve (every block ends in exactly one terminator, every Place
// references a declared local, every SwitchInt target is reachable, every
// Call's destination type matches the callee's declared return, ...), plus
// the advisory reachability and return-on-every-path warnings.
//
// Grounded on original_source's tests/mir_tests.rs ("validator.validate_function(&function)
// .expect(...)" as the pass/fail contract every builder test leans on) and
// adapted to the teacher's accumulate-then-report diagnostics.Bag style
// used throughout the semantic layer rather than a single fail-fast error.
package mirvalidate

import (
	"fmt"

	"aetherc/internal/cfg"
	"aetherc/internal/diagnostics"
	"aetherc/internal/mir"
	"aetherc/internal/types"
)

// CalleeSignatures resolves a callee's declared return type so a Call
// terminator's destination can be checked against it. internal/semantic's
// Analyzer (the same one that declared every function and extern in
// scope) implements it with the identical method set mirbuilder's own
// SignatureLookup uses, so one Analyzer value satisfies both.
type CalleeSignatures interface {
	Signature(name string) (ret *types.Type, known bool)
}

// Validate checks fn against every invariant in §4.7 and returns the
// collected violations. An empty slice means fn is well-formed MIR. sigs
// resolves callee return types for the Call-destination check; pass nil
// to skip that one check (e.g. a hand-built fn in a test with no program
// context) — every other invariant is still checked.
func Validate(fn *mir.Function, sigs CalleeSignatures) []string {
	v := &validator{fn: fn, sigs: sigs}
	v.checkBlocks()
	v.checkReachability()
	v.checkReturnsOnEveryPath()
	return v.problems
}

type validator struct {
	fn       *mir.Function
	sigs     CalleeSignatures
	problems []string
}

func (v *validator) fail(format string, args ...interface{}) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

// checkBlocks verifies every block has exactly one terminator and every
// Place/Operand/Call target it contains refers to a declared local or
// reachable block (§4.7 "Structural invariants").
func (v *validator) checkBlocks() {
	numLocals := len(v.fn.Locals)

	checkLocal := func(context string, id mir.LocalID) {
		if int(id) < 0 || int(id) >= numLocals {
			v.fail("%s references undeclared local %d", context, id)
		}
	}
	checkPlace := func(context string, p mir.Place) {
		checkLocal(context, p.Local)
		for _, proj := range p.Projection {
			if proj.Kind == mir.ProjIndex {
				checkOperand(v, context, proj.Index, checkLocal)
			}
		}
	}
	checkOp := func(context string, op mir.Operand) { checkOperand(v, context, op, checkLocal) }

	for _, id := range v.fn.BlockIDs() {
		blk, _ := v.fn.Block(id)
		if !blk.HasTerminator() {
			v.fail("block %s has no terminator", id)
		}

		for i, stmt := range blk.Statements {
			context := fmt.Sprintf("block %s statement %d", id, i)
			switch stmt.Kind {
			case mir.StmtAssign:
				checkPlace(context, stmt.Place)
				checkRvalue(v, context, stmt.Rvalue, checkOp, checkPlace)
			case mir.StmtStorageLive, mir.StmtStorageDead, mir.StmtDrop:
				checkLocal(context, stmt.Local)
			}
		}

		v.checkTerminator(id, blk.Terminator, checkOp, checkPlace)
	}
}

func (v *validator) checkTerminator(id mir.BlockID, term mir.Terminator, checkOp func(string, mir.Operand), checkPlace func(string, mir.Place)) {
	context := fmt.Sprintf("block %s terminator", id)
	blockExists := func(target mir.BlockID) bool {
		_, ok := v.fn.Block(target)
		return ok
	}

	switch term.Kind {
	case mir.TermInvalid:
		// already reported by checkBlocks's HasTerminator check
	case mir.TermGoto:
		if !blockExists(term.Target) {
			v.fail("%s: Goto target %s does not exist", context, term.Target)
		}
	case mir.TermSwitchInt:
		checkOp(context, term.Discriminant)
		if len(term.Targets.Values) != len(term.Targets.Targets) {
			v.fail("%s: SwitchInt has %d values but %d targets", context, len(term.Targets.Values), len(term.Targets.Targets))
		}
		seen := make(map[int64]bool)
		for _, val := range term.Targets.Values {
			if seen[val] {
				v.fail("%s: SwitchInt value %d is not distinct", context, val)
			}
			seen[val] = true
		}
		for _, t := range term.Targets.Targets {
			if !blockExists(t) {
				v.fail("%s: SwitchInt target %s does not exist", context, t)
			}
		}
		if !blockExists(term.Targets.Otherwise) {
			v.fail("%s: SwitchInt otherwise target %s does not exist", context, term.Targets.Otherwise)
		}
	case mir.TermCall:
		for _, a := range term.CallArgs {
			checkOp(context, a)
		}
		if term.CallDestination != nil {
			checkPlace(context, *term.CallDestination)
			v.checkCallDestinationType(context, term.CallFunc, *term.CallDestination)
		}
		if !blockExists(term.NormalTarget) {
			v.fail("%s: Call normal target %s does not exist", context, term.NormalTarget)
		}
		if term.UnwindTarget != nil && !blockExists(*term.UnwindTarget) {
			v.fail("%s: Call unwind target %s does not exist", context, *term.UnwindTarget)
		}
	case mir.TermAssert:
		checkOp(context, term.AssertCond)
		if !blockExists(term.AssertTarget) {
			v.fail("%s: Assert target %s does not exist", context, term.AssertTarget)
		}
		if term.AssertUnwind != nil && !blockExists(*term.AssertUnwind) {
			v.fail("%s: Assert unwind target %s does not exist", context, *term.AssertUnwind)
		}
	case mir.TermReturn, mir.TermUnreachable:
		// no operands or targets to check
	}
}

// checkCallDestinationType implements §4.7's "every Call's destination
// type matches the callee's declared return": dest is always the
// no-projection local internal/mirbuilder.VisitCall allocates, so its
// declared type is just fn.Locals[dest.Local].Type.
func (v *validator) checkCallDestinationType(context, callFunc string, dest mir.Place) {
	if v.sigs == nil {
		return
	}
	want, known := v.sigs.Signature(callFunc)
	if !known {
		return // unresolvable callee; checkPlace/checkOp already cover operand soundness
	}
	if int(dest.Local) < 0 || int(dest.Local) >= len(v.fn.Locals) {
		return // already reported by checkPlace's undeclared-local check
	}
	got := v.fn.Locals[dest.Local].Type
	if !types.Equal(got, want) {
		v.fail("%s: Call destination has type %s but callee %q returns %s", context, got, callFunc, want)
	}
}

func checkOperand(v *validator, context string, op mir.Operand, checkLocal func(string, mir.LocalID)) {
	switch op.Kind {
	case mir.OpCopy, mir.OpMove:
		checkLocal(context, op.Place.Local)
	}
}

func checkRvalue(v *validator, context string, rv mir.Rvalue, checkOp func(string, mir.Operand), checkPlace func(string, mir.Place)) {
	switch rv.Kind {
	case mir.RvalUse:
		checkOp(context, rv.Operand)
	case mir.RvalBinaryOp:
		checkOp(context, rv.Left)
		checkOp(context, rv.Right)
	case mir.RvalUnaryOp:
		checkOp(context, rv.Un)
	case mir.RvalRef:
		checkPlace(context, rv.RefPlace)
	case mir.RvalCast:
		checkOp(context, rv.CastOp)
	case mir.RvalAggregate:
		for _, e := range rv.AggElems {
			checkOp(context, e)
		}
	case mir.RvalLen:
		checkPlace(context, rv.LenPlace)
	}
}

// checkReachability warns (does not fail validation) about blocks that no
// path from the entry ever reaches, left over from an optimization pass
// that hasn't yet run simplify-CFG (§4.7 "Reachability").
func (v *validator) checkReachability() {
	g := cfg.Build(v.fn)
	reached := make(map[mir.BlockID]bool)
	for _, id := range g.Blocks() {
		reached[id] = true
	}
	for _, id := range v.fn.BlockIDs() {
		if !reached[id] {
			v.fail("block %s is unreachable from the entry block", id)
		}
	}
}

// checkReturnsOnEveryPath verifies every path from the entry ends in a
// Return or Unreachable terminator (§4.7 "Return on every path"); a path
// that falls off the end of the CFG without either is a lowering bug, not
// a user error, since the front end requires an explicit return on every
// non-void function and the builder closes unterminated blocks itself.
func (v *validator) checkReturnsOnEveryPath() {
	g := cfg.Build(v.fn)
	for _, id := range g.Blocks() {
		blk, ok := v.fn.Block(id)
		if !ok {
			continue
		}
		if len(g.Successors(id)) == 0 {
			switch blk.Terminator.Kind {
			case mir.TermReturn, mir.TermUnreachable:
			default:
				v.fail("block %s has no successors and does not terminate in Return or Unreachable", id)
			}
		}
	}
}

// ValidateIntoBag runs Validate and records every violation as an internal
// compiler error in diags, for callers (e.g. the optimization pipeline)
// that want validator failures to surface through the normal diagnostics
// channel instead of a bare string slice.
func ValidateIntoBag(fn *mir.Function, sigs CalleeSignatures, diags *diagnostics.Bag, file string) {
	for _, problem := range Validate(fn, sigs) {
		diags.Errorf(diagnostics.KindInternalError, diagnostics.SourceSpan{File: file}, "%s: %s", fn.Name, problem)
	}
}
