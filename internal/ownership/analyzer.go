package ownership

import (
	"aetherc/internal/diagnostics"
)

// Analyzer tracks ownership state for every local in one function. A
// fresh Analyzer is created per function (§4.4 step (b)); it is never
// shared across functions or units.
type Analyzer struct {
	locals []LocalState
	traits []LocalTrait
	names  []string

	regions []*region // stack; last element is the innermost region

	diags *diagnostics.Bag
	file  string
}

// New creates an Analyzer for one function with no locals declared yet;
// parameters are added via DeclareParam and other locals via Declare as
// the function body is walked.
func New(diags *diagnostics.Bag, file string) *Analyzer {
	a := &Analyzer{diags: diags, file: file}
	a.enterRegion()
	return a
}

func (a *Analyzer) span(line, col int) diagnostics.SourceSpan {
	return diagnostics.SourceSpan{File: a.file, Line: line, Column: col}
}

// Declare registers a new local (§4.2 "declare"). init reports whether the
// declaration carries an initializer, in which case the state starts
// Owned rather than Uninitialized.
func (a *Analyzer) Declare(name string, trait LocalTrait, init bool) LocalRef {
	ref := LocalRef(len(a.locals))
	state := Uninitialized
	if init {
		state = Owned
	}
	a.locals = append(a.locals, LocalState{State: state})
	a.traits = append(a.traits, trait)
	a.names = append(a.names, name)

	top := a.regions[len(a.regions)-1]
	top.locals = append(top.locals, ref)
	top.strategy[ref] = a.inferStrategy(trait)
	return ref
}

// DeclareParam seeds a parameter's initial ownership state with
// startState, which the caller derives from the parameter's ownership kind
// per §4.4 step (b); a parameter started ImmutablyBorrowed gets a borrow
// count of 1. MIR lowering starts owned and shared parameters Owned and
// borrowed ones already borrowed, so later reads succeed without a
// separate synthetic borrow() call.
func (a *Analyzer) DeclareParam(name string, trait LocalTrait, startState State) LocalRef {
	ref := LocalRef(len(a.locals))
	ls := LocalState{State: startState}
	if startState == ImmutablyBorrowed {
		ls.BorrowCount = 1
	}
	a.locals = append(a.locals, ls)
	a.traits = append(a.traits, trait)
	a.names = append(a.names, name)

	top := a.regions[len(a.regions)-1]
	top.locals = append(top.locals, ref)
	top.strategy[ref] = a.inferStrategy(trait)
	return ref
}

func (a *Analyzer) inferStrategy(trait LocalTrait) AllocationStrategy {
	switch {
	case trait.Shared:
		return RefCounted
	case trait.RegionAnnotated || trait.EscapesToRegion:
		return RegionStrategy
	case trait.NonTrivial:
		return Linear
	default:
		return Stack
	}
}

// Strategy reports the inferred allocation strategy for a local.
func (a *Analyzer) Strategy(ref LocalRef) AllocationStrategy {
	for i := len(a.regions) - 1; i >= 0; i-- {
		if s, ok := a.regions[i].strategy[ref]; ok {
			return s
		}
	}
	return Stack
}

func (a *Analyzer) name(ref LocalRef) string {
	if int(ref) < len(a.names) {
		return a.names[ref]
	}
	return "<unknown>"
}

// Read accepts Owned or ImmutablyBorrowed(>=0) (§4.2 "read"). A
// MutablyBorrowed local is also read without a diagnostic. It reports
// UseOfUninitialized or UseAfterMove on violation and otherwise leaves the
// state unchanged.
func (a *Analyzer) Read(ref LocalRef, line, col int) bool {
	ls := &a.locals[ref]
	switch ls.State {
	case Owned, ImmutablyBorrowed:
		return true
	case Uninitialized:
		a.diags.Errorf(diagnostics.KindUseOfUninitialized, a.span(line, col),
			"use of uninitialized value %q", a.name(ref))
		return false
	case MovedFrom:
		d := a.diags.Errorf(diagnostics.KindUseAfterMove, a.span(line, col),
			"use of moved value %q", a.name(ref))
		d.WithNote(ls.LastMove, "value was moved here")
		return false
	default:
		return true
	}
}

// Move requires Owned (§4.2 "move"). On success, transitions the local to
// MovedFrom and records the move site for future UseAfterMove diagnostics.
func (a *Analyzer) Move(ref LocalRef, line, col int) bool {
	ls := &a.locals[ref]
	if ls.State != Owned {
		if ls.State == MovedFrom {
			d := a.diags.Errorf(diagnostics.KindUseAfterMove, a.span(line, col),
				"use of moved value %q", a.name(ref))
			d.WithNote(ls.LastMove, "value was moved here")
			return false
		}
		a.diags.Errorf(diagnostics.KindUseOfUninitialized, a.span(line, col),
			"move of uninitialized value %q", a.name(ref))
		return false
	}
	ls.State = MovedFrom
	ls.LastMove = a.span(line, col)
	return true
}

// Borrow requires State in {Owned, ImmutablyBorrowed} for an immutable
// borrow, or exactly Owned for a mutable borrow (§4.2 "borrow").
func (a *Analyzer) Borrow(ref LocalRef, mut bool, line, col int) bool {
	ls := &a.locals[ref]
	if mut {
		if ls.State != Owned {
			a.diags.Errorf(diagnostics.KindBorrowConflict, a.span(line, col),
				"cannot mutably borrow %q: %s", a.name(ref), conflictError(a.name(ref), ls.State))
			return false
		}
		ls.State = MutablyBorrowed
		return true
	}
	switch ls.State {
	case Owned:
		ls.State = ImmutablyBorrowed
		ls.BorrowCount = 1
		return true
	case ImmutablyBorrowed:
		ls.BorrowCount++
		return true
	default:
		a.diags.Errorf(diagnostics.KindBorrowConflict, a.span(line, col),
			"cannot borrow %q: %s", a.name(ref), conflictError(a.name(ref), ls.State))
		return false
	}
}

// ReleaseBorrow decrements/clears a borrow (§4.2 "release_borrow"); when
// the last immutable borrow is released, or a mutable borrow ends, the
// local returns to Owned.
func (a *Analyzer) ReleaseBorrow(ref LocalRef, mut bool) {
	ls := &a.locals[ref]
	if mut {
		if ls.State == MutablyBorrowed {
			ls.State = Owned
		}
		return
	}
	if ls.State == ImmutablyBorrowed {
		ls.BorrowCount--
		if ls.BorrowCount <= 0 {
			ls.State = Owned
			ls.BorrowCount = 0
		}
	}
}

// Assign requires the local be mutable, unless it is still in its initial
// Uninitialized state (first binding is always permitted) (§4.2 "assign").
func (a *Analyzer) Assign(ref LocalRef, mutable bool, line, col int) bool {
	ls := &a.locals[ref]
	if ls.State != Uninitialized && !mutable {
		a.diags.Errorf(diagnostics.KindAssignToImmutable, a.span(line, col),
			"cannot assign to immutable value %q", a.name(ref))
		return false
	}
	ls.State = Owned
	ls.LastWrite = a.span(line, col)
	return true
}

// State exposes the current abstract state of a local, for callers (e.g.
// MIR lowering) that need to decide Move vs. Copy for an operand without
// mutating analyzer state themselves.
func (a *Analyzer) State(ref LocalRef) State { return a.locals[ref].State }

// NumLocals returns how many locals have been declared so far.
func (a *Analyzer) NumLocals() int { return len(a.locals) }
