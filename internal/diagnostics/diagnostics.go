// Package diagnostics generalizes the teacher's internal/errors package
// (SentraError/SourceLocation/StackFrame) into the stable, tool-keyable
// diagnostic shape spec.md §6.5 and §7 describe: a Kind string, a primary
// SourceSpan, optional secondary Notes (e.g. "prior move was here"), and a
// Bag that accumulates diagnostics across an analysis instead of aborting
// on the first one.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/kr/text"
	"github.com/pkg/errors"
	expslices "golang.org/x/exp/slices"
)

// Kind is a stable identifier per §6.5, e.g. "use_after_move".
type Kind string

const (
	KindUseAfterMove        Kind = "use_after_move"
	KindUseOfUninitialized  Kind = "use_of_uninitialized"
	KindBorrowConflict      Kind = "borrow_conflict"
	KindAssignToImmutable   Kind = "assign_to_immutable"
	KindDanglingBorrow      Kind = "dangling_borrow"
	KindOwnershipConflict   Kind = "ownership_conflict"
	KindTypeMismatch        Kind = "type_mismatch"
	KindUnknownType         Kind = "unknown_type"
	KindArityMismatch       Kind = "arity_mismatch"
	KindNotAFunction        Kind = "not_a_function"
	KindUndefinedSymbol     Kind = "undefined_symbol"
	KindImpurityInPredicate Kind = "impurity_in_predicate"
	KindPredicateNotBoolean Kind = "predicate_not_boolean"
	KindUnknownPredicateRef Kind = "unknown_predicate_reference"
	KindInternalError       Kind = "internal_compiler_error"
	KindMalformedAST        Kind = "malformed_ast"

	// KindInvalidVersionConstraint flags an import's version constraint
	// (§3.3) that isn't a well-formed semantic version.
	KindInvalidVersionConstraint Kind = "invalid_version_constraint"
)

// SourceSpan locates a diagnostic in source text.
type SourceSpan struct {
	File   string
	Line   int
	Column int
}

func (s SourceSpan) String() string {
	if s.File == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}

// Less orders spans by file then line then column, the ordering §5
// "Ordering" requires before diagnostics are printed.
func (s SourceSpan) Less(o SourceSpan) bool {
	if s.File != o.File {
		return s.File < o.File
	}
	if s.Line != o.Line {
		return s.Line < o.Line
	}
	return s.Column < o.Column
}

// Note is a secondary label attached to a Diagnostic, e.g. the location of
// the prior move that makes a use-after-move an error.
type Note struct {
	Span    SourceSpan
	Message string
}

// Diagnostic is a single compiler error or warning.
type Diagnostic struct {
	Kind    Kind
	Message string
	Span    SourceSpan
	Notes   []Note
	Warning bool
	cause   error
}

// WithNote appends a secondary label and returns the same Diagnostic for chaining.
func (d *Diagnostic) WithNote(span SourceSpan, message string) *Diagnostic {
	d.Notes = append(d.Notes, Note{Span: span, Message: message})
	return d
}

// WithCause attaches a wrapped external error (e.g. file I/O) using
// github.com/pkg/errors so Cause() can unwrap it later without losing the
// diagnostic's own stack-trace-free batch semantics.
func (d *Diagnostic) WithCause(cause error) *Diagnostic {
	d.cause = errors.Wrap(cause, string(d.Kind))
	return d
}

// Cause returns the wrapped external error, if any.
func (d *Diagnostic) Cause() error {
	if d.cause == nil {
		return nil
	}
	return errors.Cause(d.cause)
}

// New constructs a Diagnostic. Kind is one of the stable identifiers above.
func New(kind Kind, span SourceSpan, message string, args ...interface{}) *Diagnostic {
	if len(args) > 0 {
		message = fmt.Sprintf(message, args...)
	}
	return &Diagnostic{Kind: kind, Message: message, Span: span}
}

// Error implements the error interface, rendering per §6.5:
// "<file>:<line>:<col>: <kind>: <message>" plus indented secondary labels.
func (d *Diagnostic) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s: %s", d.Span, d.Kind, d.Message)
	for _, n := range d.Notes {
		fmt.Fprintf(&sb, "\n%s", text.Indent(fmt.Sprintf("note: %s: %s", n.Span, n.Message), "  "))
	}
	return sb.String()
}

// Bag accumulates diagnostics across an analysis so a single error never
// aborts the whole compilation (§7 "Propagation").
type Bag struct {
	diags []*Diagnostic
}

// Add appends a diagnostic to the bag.
func (b *Bag) Add(d *Diagnostic) { b.diags = append(b.diags, d) }

// Errorf is a convenience that constructs and adds a Diagnostic in one call.
func (b *Bag) Errorf(kind Kind, span SourceSpan, format string, args ...interface{}) *Diagnostic {
	d := New(kind, span, format, args...)
	b.Add(d)
	return d
}

// HasErrors reports whether any non-warning diagnostic was recorded.
func (b *Bag) HasErrors() bool {
	for _, d := range b.diags {
		if !d.Warning {
			return true
		}
	}
	return false
}

// Len reports how many diagnostics have been recorded.
func (b *Bag) Len() int { return len(b.diags) }

// Sorted returns diagnostics ordered by source location (§5 "Ordering"),
// using golang.org/x/exp/slices.SortFunc. That sort is not stable: the
// relative order of diagnostics at the same location is not defined.
func (b *Bag) Sorted() []*Diagnostic {
	out := make([]*Diagnostic, len(b.diags))
	copy(out, b.diags)
	expslices.SortFunc(out, func(a, c *Diagnostic) int {
		switch {
		case a.Span.Less(c.Span):
			return -1
		case c.Span.Less(a.Span):
			return 1
		default:
			return 0
		}
	})
	return out
}

// Merge appends another bag's diagnostics into this one, used when joining
// the per-unit bags produced by parallel compilation (§5).
func (b *Bag) Merge(other *Bag) {
	b.diags = append(b.diags, other.diags...)
}

// All returns every recorded diagnostic in insertion order.
func (b *Bag) All() []*Diagnostic {
	out := make([]*Diagnostic, len(b.diags))
	copy(out, b.diags)
	return out
}
