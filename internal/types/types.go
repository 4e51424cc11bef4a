// Package types implements AetherScript's structural type system: primitives,
// arrays, maps, records, function types, and ownership wrappers. Types are
// interned so that equality reduces to pointer identity after construction.
package types

import (
	"fmt"
	"strings"
)

// Kind discriminates the shape of a Type.
type Kind int

const (
	Invalid Kind = iota
	Integer
	Float
	Boolean
	String
	Void
	Array
	Map
	Record
	Function
	Owned
)

func (k Kind) String() string {
	switch k {
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Boolean:
		return "boolean"
	case String:
		return "string"
	case Void:
		return "void"
	case Array:
		return "array"
	case Map:
		return "map"
	case Record:
		return "record"
	case Function:
		return "function"
	case Owned:
		return "owned"
	default:
		return "invalid"
	}
}

// OwnershipKind distinguishes the wrapper a non-primitive value is held
// under. It has nothing to do with Kind: Kind says "this is an Owned
// wrapper", OwnershipKind says which discipline the wrapper enforces.
type OwnershipKind int

const (
	KindOwned OwnershipKind = iota
	KindBorrowed
	KindBorrowedMut
	KindShared
)

func (k OwnershipKind) String() string {
	switch k {
	case KindOwned:
		return "owned"
	case KindBorrowed:
		return "borrowed"
	case KindBorrowedMut:
		return "borrowed_mut"
	case KindShared:
		return "shared"
	default:
		return "unknown"
	}
}

// Type is an interned, structurally-identified type. Two Types are equal
// iff they are the same pointer; the Table is the only thing that
// constructs Types, and it guarantees that structurally-equal requests
// return the same pointer.
type Type struct {
	kind Kind

	// Array
	elem   *Type
	length int

	// Map
	key *Type
	val *Type

	// Record
	name   string
	fields []Field

	// Function
	params []*Type
	ret    *Type

	// Owned
	ownership OwnershipKind
	inner     *Type
}

// Field is a named, typed member of a Record.
type Field struct {
	Name string
	Type *Type
}

func (t *Type) Kind() Kind { return t.kind }

func (t *Type) String() string {
	switch t.kind {
	case Array:
		return fmt.Sprintf("[%s; %d]", t.elem.String(), t.length)
	case Map:
		return fmt.Sprintf("map<%s, %s>", t.key.String(), t.val.String())
	case Record:
		names := make([]string, len(t.fields))
		for i, f := range t.fields {
			names[i] = f.Name + ": " + f.Type.String()
		}
		return fmt.Sprintf("%s{%s}", t.name, strings.Join(names, ", "))
	case Function:
		parts := make([]string, len(t.params))
		for i, p := range t.params {
			parts[i] = p.String()
		}
		return fmt.Sprintf("fn(%s) -> %s", strings.Join(parts, ", "), t.ret.String())
	case Owned:
		return fmt.Sprintf("%s<%s>", t.ownership, t.inner.String())
	default:
		return t.kind.String()
	}
}

// Elem returns the element type of an Array, or nil for any other Kind.
func (t *Type) Elem() *Type { return t.elem }

// Length returns the fixed length of an Array.
func (t *Type) Length() int { return t.length }

// MapKey and MapVal return a Map's key/value types.
func (t *Type) MapKey() *Type { return t.key }
func (t *Type) MapVal() *Type { return t.val }

// RecordName and Fields describe a Record.
func (t *Type) RecordName() string { return t.name }
func (t *Type) Fields() []Field    { return t.fields }

// Params and Return describe a Function type.
func (t *Type) Params() []*Type { return t.params }
func (t *Type) Return() *Type   { return t.ret }

// Ownership and Inner describe an Owned wrapper.
func (t *Type) Ownership() OwnershipKind { return t.ownership }
func (t *Type) Inner() *Type             { return t.inner }

// IsOwned reports whether t is an Owned wrapper.
func (t *Type) IsOwned() bool { return t.kind == Owned }

// IsPrimitive reports whether t is one of the scalar primitives.
func (t *Type) IsPrimitive() bool {
	switch t.kind {
	case Integer, Float, Boolean, String, Void:
		return true
	default:
		return false
	}
}

// RequiresDrop reports whether values of this type need a Drop statement
// inserted when they leave scope owned (§3.5 Lifecycles): strings, arrays,
// maps, records, and owned or shared wrappers (whatever their inner type)
// are non-trivially droppable; scalar primitives and borrowed wrappers are
// not.
func (t *Type) RequiresDrop() bool {
	switch t.kind {
	case String, Array, Map, Record:
		return true
	case Owned:
		if t.ownership == KindBorrowed || t.ownership == KindBorrowedMut {
			return false
		}
		return true
	default:
		return false
	}
}
