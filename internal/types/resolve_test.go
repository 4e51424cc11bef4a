package types

import (
	"testing"

	"aetherc/internal/ast"
)

func TestResolvePrimitive(t *testing.T) {
	table := New()
	ty, err := table.Resolve(&ast.TypeSpec{Name: "integer"}, nil)
	if err != nil || ty.Kind() != Integer {
		t.Fatalf("expected integer, got %v err=%v", ty, err)
	}
}

func TestResolveOwnershipWrapper(t *testing.T) {
	table := New()
	spec := &ast.TypeSpec{
		HasOwnership: true,
		Ownership:    ast.BorrowedMutKind,
		Inner:        &ast.TypeSpec{Name: "integer"},
	}
	ty, err := table.Resolve(spec, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ty.Kind() != Owned || ty.Ownership() != KindBorrowedMut {
		t.Fatalf("expected Owned(BorrowedMut, integer), got %v", ty)
	}
}

func TestResolveUnknownRecordFails(t *testing.T) {
	table := New()
	_, err := table.Resolve(&ast.TypeSpec{Name: "Widget"}, nil)
	if err == nil {
		t.Fatalf("expected an error resolving an unknown record type")
	}
}
