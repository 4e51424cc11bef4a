package types

import (
	"fmt"

	"aetherc/internal/ast"
)

// RecordRegistry resolves a record name to its field layout, supplied by
// the symbol table (or the semantic analyzer's module-level scope) so the
// type resolver doesn't need to know about modules itself.
type RecordRegistry interface {
	LookupRecord(name string) ([]Field, bool)
}

// Resolve turns a parsed ast.TypeSpec into an interned *Type. It is the
// single place that understands the surface-syntax ownership sigils
// (^ owned, & borrowed, &mut borrowed_mut, ~ shared) the parser already
// reduced into ast.OwnershipKind.
func (t *Table) Resolve(spec *ast.TypeSpec, records RecordRegistry) (*Type, error) {
	if spec == nil {
		return t.Primitive(Void), nil
	}

	if spec.HasOwnership {
		inner, err := t.Resolve(spec.Inner, records)
		if err != nil {
			return nil, err
		}
		return t.OwnershipWrap(ownershipKindOf(spec.Ownership), inner), nil
	}

	if spec.Elem != nil {
		elem, err := t.Resolve(spec.Elem, records)
		if err != nil {
			return nil, err
		}
		return t.ArrayOf(elem, spec.Length), nil
	}

	if spec.IsMap {
		key, err := t.Resolve(spec.Key, records)
		if err != nil {
			return nil, err
		}
		val, err := t.Resolve(spec.Elem, records)
		if err != nil {
			return nil, err
		}
		return t.MapOf(key, val), nil
	}

	if spec.Params != nil || spec.Return != nil {
		params := make([]*Type, len(spec.Params))
		for i, p := range spec.Params {
			pt, err := t.Resolve(p, records)
			if err != nil {
				return nil, err
			}
			params[i] = pt
		}
		ret, err := t.Resolve(spec.Return, records)
		if err != nil {
			return nil, err
		}
		return t.FunctionType(params, ret), nil
	}

	switch spec.Name {
	case "integer":
		return t.Primitive(Integer), nil
	case "float":
		return t.Primitive(Float), nil
	case "boolean":
		return t.Primitive(Boolean), nil
	case "string":
		return t.Primitive(String), nil
	case "void", "":
		return t.Primitive(Void), nil
	default:
		if records != nil {
			if fields, ok := records.LookupRecord(spec.Name); ok {
				return t.RecordOf(spec.Name, fields), nil
			}
		}
		return nil, fmt.Errorf("types: unknown type %q", spec.Name)
	}
}

func ownershipKindOf(k ast.OwnershipKind) OwnershipKind {
	switch k {
	case ast.OwnedKind:
		return KindOwned
	case ast.BorrowedKind:
		return KindBorrowed
	case ast.BorrowedMutKind:
		return KindBorrowedMut
	case ast.SharedKind:
		return KindShared
	default:
		return KindOwned
	}
}
