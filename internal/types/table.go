package types

import (
	"fmt"
	"strings"
	"sync"
)

// Table interns Types. Per §9 "Global mutable state", a Table is an
// explicit, constructible component — never a package-level singleton —
// so test suites can build fresh instances. A Table is safe for concurrent
// use: §5's shared-resource policy requires the type-intern table to use
// an exclusive lock on insertion and a shared lock on lookup when multiple
// compilation units run in parallel.
type Table struct {
	mu      sync.RWMutex
	interns map[string]*Type

	integerT *Type
	floatT   *Type
	booleanT *Type
	stringT  *Type
	voidT    *Type
}

// New creates a fresh, empty Table with the primitive types pre-interned.
func New() *Table {
	t := &Table{interns: make(map[string]*Type)}
	t.integerT = t.intern(&Type{kind: Integer}, "integer")
	t.floatT = t.intern(&Type{kind: Float}, "float")
	t.booleanT = t.intern(&Type{kind: Boolean}, "boolean")
	t.stringT = t.intern(&Type{kind: String}, "string")
	t.voidT = t.intern(&Type{kind: Void}, "void")
	return t
}

func (t *Table) intern(candidate *Type, key string) *Type {
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.interns[key]; ok {
		return existing
	}
	t.interns[key] = candidate
	return candidate
}

func (t *Table) lookup(key string) (*Type, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ty, ok := t.interns[key]
	return ty, ok
}

// Primitive returns the interned Type for one of the scalar kinds.
func (t *Table) Primitive(kind Kind) *Type {
	switch kind {
	case Integer:
		return t.integerT
	case Float:
		return t.floatT
	case Boolean:
		return t.booleanT
	case String:
		return t.stringT
	case Void:
		return t.voidT
	default:
		panic(fmt.Sprintf("types: %s is not a primitive kind", kind))
	}
}

// ArrayOf interns Array(elem, length).
func (t *Table) ArrayOf(elem *Type, length int) *Type {
	key := fmt.Sprintf("array:%p:%d", elem, length)
	if ty, ok := t.lookup(key); ok {
		return ty
	}
	return t.intern(&Type{kind: Array, elem: elem, length: length}, key)
}

// MapOf interns Map(key, val).
func (t *Table) MapOf(key, val *Type) *Type {
	cacheKey := fmt.Sprintf("map:%p:%p", key, val)
	if ty, ok := t.lookup(cacheKey); ok {
		return ty
	}
	return t.intern(&Type{kind: Map, key: key, val: val}, cacheKey)
}

// RecordOf interns a named record with the given fields. Field order is
// part of structural identity: two records with the same fields in
// different order intern separately, matching a C-like ABI-significant
// layout.
func (t *Table) RecordOf(name string, fields []Field) *Type {
	var sb strings.Builder
	sb.WriteString("record:")
	sb.WriteString(name)
	for _, f := range fields {
		fmt.Fprintf(&sb, ":%s=%p", f.Name, f.Type)
	}
	key := sb.String()
	if ty, ok := t.lookup(key); ok {
		return ty
	}
	return t.intern(&Type{kind: Record, name: name, fields: fields}, key)
}

// FunctionType interns Fn(params, ret).
func (t *Table) FunctionType(params []*Type, ret *Type) *Type {
	var sb strings.Builder
	sb.WriteString("fn:")
	for _, p := range params {
		fmt.Fprintf(&sb, "%p,", p)
	}
	fmt.Fprintf(&sb, "->%p", ret)
	key := sb.String()
	if ty, ok := t.lookup(key); ok {
		return ty
	}
	return t.intern(&Type{kind: Function, params: params, ret: ret}, key)
}

// OwnershipWrap interns Owned(kind, inner). Per §3.1's invariant, Owned
// wrappers never nest: wrapping an already-Owned inner type returns a
// wrapper around the original inner type with the new ownership kind
// rather than producing Owned(Owned(...)).
func (t *Table) OwnershipWrap(kind OwnershipKind, inner *Type) *Type {
	if inner.kind == Owned {
		inner = inner.inner
	}
	key := fmt.Sprintf("owned:%d:%p", kind, inner)
	if ty, ok := t.lookup(key); ok {
		return ty
	}
	return t.intern(&Type{kind: Owned, ownership: kind, inner: inner}, key)
}

// Equal reports structural equality. Because all Types are interned,
// this is pointer equality.
func Equal(a, b *Type) bool { return a == b }

// IsAssignable implements §4.1's assignability rules.
func (t *Table) IsAssignable(from, to *Type) bool {
	// Owned(Owned, T) to Owned(Owned, T) takes a move, not an assignment.
	if from.kind == Owned && to.kind == Owned && from.ownership == KindOwned && to.ownership == KindOwned {
		return false
	}
	if Equal(from, to) {
		return true
	}
	// Owned(Owned, T) auto-reborrows to Owned(Borrowed, T) at call boundaries.
	if from.kind == Owned && to.kind == Owned && from.ownership == KindOwned && to.ownership == KindBorrowed {
		return Equal(from.inner, to.inner)
	}
	// Arrays are invariant in element type; length must match exactly.
	if from.kind == Array && to.kind == Array {
		return from.length == to.length && Equal(from.elem, to.elem)
	}
	return false
}

// Unify attempts to find a common type for from and to, used when merging
// control-flow branches whose static types must agree. It returns ok=false
// when no such type exists; callers treat that as a type error, never a
// silent widening.
func (t *Table) Unify(a, b *Type) (*Type, bool) {
	if Equal(a, b) {
		return a, true
	}
	if t.IsAssignable(a, b) {
		return b, true
	}
	if t.IsAssignable(b, a) {
		return a, true
	}
	return nil, false
}
