// Package ownership implements the per-function move/borrow analyzer of
// spec.md §4.2: it tracks each local's ownership state across straight-line
// code and control-flow joins, enforces the move-once and borrow-exclusion
// disciplines, and infers an allocation strategy for each declared local.
//
// The analyzer is grounded on the teacher's state-machine style (e.g.
// internal/vm's stack/register bookkeeping) generalized to the abstract
// states spec.md names rather than concrete runtime stack slots.
package ownership

import (
	"fmt"

	"github.com/google/uuid"

	"aetherc/internal/diagnostics"
)

// State is the per-local ownership state machine (§4.2).
type State int

const (
	Uninitialized State = iota
	Owned
	MovedFrom
	ImmutablyBorrowed // carries a borrow count, tracked alongside State
	MutablyBorrowed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Owned:
		return "owned"
	case MovedFrom:
		return "moved_from"
	case ImmutablyBorrowed:
		return "immutably_borrowed"
	case MutablyBorrowed:
		return "mutably_borrowed"
	default:
		return "unknown"
	}
}

// LocalState is the full per-local record the analyzer threads through a
// function: its abstract State plus, when ImmutablyBorrowed, how many
// live immutable borrows there are.
type LocalState struct {
	State       State
	BorrowCount int // valid when State == ImmutablyBorrowed

	// LastWrite and LastMove record where the local was last written or
	// moved, so a later conflicting use can point at the prior event
	// (§4.2 "Diagnostics": "the source location of ... the prior
	// write/move").
	LastWrite diagnostics.SourceSpan
	LastMove  diagnostics.SourceSpan
}

// AllocationStrategy is inferred per local (§4.2 "Allocation-strategy inference").
type AllocationStrategy int

const (
	Stack AllocationStrategy = iota
	RegionStrategy
	RefCounted
	Linear
)

func (a AllocationStrategy) String() string {
	switch a {
	case Stack:
		return "stack"
	case RegionStrategy:
		return "region"
	case RefCounted:
		return "ref_counted"
	case Linear:
		return "linear"
	default:
		return "unknown"
	}
}

// RegionID names a lexical scope's allocation arena. google/uuid gives a
// collision-free identifier usable across parallel compilation units
// without a shared counter (§5 "Shared resource policy").
type RegionID uuid.UUID

func newRegionID() RegionID { return RegionID(uuid.New()) }

func (r RegionID) String() string { return uuid.UUID(r).String() }

// region records the locals allocated into one lexical scope and their
// inferred allocation strategy.
type region struct {
	id       RegionID
	locals   []LocalRef
	strategy map[LocalRef]AllocationStrategy
}

// LocalRef identifies a local within a function by index, matching the
// MIR's dense local array (§3.4).
type LocalRef int

// LocalTrait describes the properties of a local the ownership analyzer
// needs but doesn't own: whether its type requires a destructor, and
// whether it was explicitly annotated to live in a region or as a
// reference-counted/linear value.
type LocalTrait struct {
	RequiresDrop    bool
	Shared          bool // Owned(Shared, _): inferred RefCounted
	NonTrivial      bool // Owned(Owned, _) of non-primitive inner: inferred Linear
	RegionAnnotated bool
	EscapesToRegion bool // escape analysis confined it to an explicit region
}

// Error kinds the analyzer reports, mirrored as diagnostics.Kind values in
// the Analyzer so callers keyed on stable strings per §6.5 need nothing
// beyond the diagnostics package.
var (
	errUseAfterMove       = diagnostics.KindUseAfterMove
	errUseOfUninitialized = diagnostics.KindUseOfUninitialized
	errBorrowConflict     = diagnostics.KindBorrowConflict
	errAssignToImmutable  = diagnostics.KindAssignToImmutable
)

// conflictError is a small internal helper to format a consistent message
// across the analyzer's operations.
func conflictError(local string, state State) string {
	return fmt.Sprintf("%q is %s", local, state)
}
