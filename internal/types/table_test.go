package types

import "testing"

func TestPrimitivesInternToSamePointer(t *testing.T) {
	table := New()
	a := table.Primitive(Integer)
	b := table.Primitive(Integer)
	if a != b {
		t.Fatalf("expected interned primitives to share identity, got %p != %p", a, b)
	}
}

func TestArrayInterningByStructure(t *testing.T) {
	table := New()
	elem := table.Primitive(Integer)
	a := table.ArrayOf(elem, 10)
	b := table.ArrayOf(elem, 10)
	if a != b {
		t.Fatalf("expected structurally-equal arrays to intern to the same pointer")
	}
	c := table.ArrayOf(elem, 11)
	if a == c {
		t.Fatalf("arrays of different length must not intern together")
	}
}

func TestOwnershipWrapDoesNotNest(t *testing.T) {
	table := New()
	inner := table.Primitive(Integer)
	owned := table.OwnershipWrap(KindOwned, inner)
	if owned.Inner().Kind() == Owned {
		t.Fatalf("Owned wrapper must not nest another Owned wrapper")
	}
	reborrowed := table.OwnershipWrap(KindBorrowed, owned)
	if reborrowed.Inner() != inner {
		t.Fatalf("expected reborrow to wrap the original inner type, got %s", reborrowed.Inner())
	}
}

func TestIsAssignableOwnedToBorrowedReborrow(t *testing.T) {
	table := New()
	inner := table.Primitive(Integer)
	owned := table.OwnershipWrap(KindOwned, inner)
	borrowed := table.OwnershipWrap(KindBorrowed, inner)

	if !table.IsAssignable(owned, borrowed) {
		t.Fatalf("Owned(Owned, T) should auto-reborrow to Owned(Borrowed, T)")
	}
	if table.IsAssignable(owned, owned) {
		t.Fatalf("Owned(Owned, T) must not be assignable to another Owned(Owned, T) without a move")
	}
}

func TestArrayInvariantElementType(t *testing.T) {
	table := New()
	ints := table.ArrayOf(table.Primitive(Integer), 4)
	floats := table.ArrayOf(table.Primitive(Float), 4)
	if table.IsAssignable(ints, floats) {
		t.Fatalf("arrays must be invariant in element type")
	}
}

func TestUnifyFindsCommonType(t *testing.T) {
	table := New()
	inner := table.Primitive(Integer)
	owned := table.OwnershipWrap(KindOwned, inner)
	borrowed := table.OwnershipWrap(KindBorrowed, inner)

	unified, ok := table.Unify(owned, borrowed)
	if !ok || unified != borrowed {
		t.Fatalf("expected unify(owned, borrowed) = borrowed, got %v ok=%v", unified, ok)
	}

	_, ok = table.Unify(table.Primitive(Integer), table.Primitive(Boolean))
	if ok {
		t.Fatalf("integer and boolean must not unify")
	}
}
