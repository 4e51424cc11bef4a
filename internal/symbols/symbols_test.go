package symbols

import (
	"testing"

	"aetherc/internal/types"
)

func TestShadowingInnerHidesOuter(t *testing.T) {
	table := NewTable()
	tt := types.New()
	table.Declare(&Symbol{Name: "x", Type: tt.Primitive(types.Integer), Origin: OriginGlobal})

	table.Push()
	table.Declare(&Symbol{Name: "x", Type: tt.Primitive(types.String), Origin: OriginLocal})

	sym, ok := table.Lookup("x")
	if !ok || sym.Type.Kind() != types.String {
		t.Fatalf("expected inner x (string) to shadow outer x (integer)")
	}

	table.Pop()
	sym, ok = table.Lookup("x")
	if !ok || sym.Type.Kind() != types.Integer {
		t.Fatalf("expected outer x (integer) to be visible after inner scope pops")
	}
}

func TestRedeclaredDetectsSameScopeCollisionOnly(t *testing.T) {
	table := NewTable()
	tt := types.New()
	table.Declare(&Symbol{Name: "x", Type: tt.Primitive(types.Integer)})
	if err := table.Redeclared("x"); err == nil {
		t.Fatalf("expected redeclaration in the same scope to be reported")
	}

	table.Push()
	if err := table.Redeclared("x"); err != nil {
		t.Fatalf("shadowing in an inner scope must not be treated as redeclaration, got %v", err)
	}
}
