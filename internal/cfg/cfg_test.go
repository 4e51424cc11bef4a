package cfg

import (
	"testing"

	"aetherc/internal/mir"
	"aetherc/internal/types"
)

// buildDiamond builds: entry -> (then, else) -> merge -> return, the
// canonical shape for exercising dominators and the backward liveness
// meet-over-union.
func buildDiamond(t *testing.T) *mir.Function {
	t.Helper()
	table := types.New()
	intTy := table.Primitive(types.Integer)
	boolTy := table.Primitive(types.Boolean)

	fn := mir.NewFunction("diamond", []mir.Param{{Name: "x", Type: intTy}}, intTy)
	a := fn.AddLocal(mir.Local{Type: boolTy, DebugName: "cond"})
	r := fn.AddLocal(mir.Local{Type: intTy, DebugName: "result"})

	entry := fn.NewBlock() // block 0, matches Builder.StartFunction's entry allocation
	then := fn.NewBlock()
	els := fn.NewBlock()
	merge := fn.NewBlock()

	fn.Blocks[entry].Statements = []mir.Statement{
		mir.Assign(mir.SimplePlace(a), mir.UseRvalue(mir.CopyOf(mir.SimplePlace(0)))),
	}
	fn.Blocks[entry].Terminator = mir.SwitchIntTerm(mir.CopyOf(mir.SimplePlace(a)), boolTy, mir.SwitchTargets{
		Values: []int64{1}, Targets: []mir.BlockID{then}, Otherwise: els,
	})

	fn.Blocks[then].Statements = []mir.Statement{
		mir.Assign(mir.SimplePlace(r), mir.UseRvalue(mir.CopyOf(mir.SimplePlace(0)))),
	}
	fn.Blocks[then].Terminator = mir.GotoTerm(merge)

	fn.Blocks[els].Statements = []mir.Statement{
		mir.Assign(mir.SimplePlace(r), mir.UseRvalue(mir.CopyOf(mir.SimplePlace(a)))),
	}
	fn.Blocks[els].Terminator = mir.GotoTerm(merge)

	fn.Blocks[merge].Terminator = mir.ReturnTerm()

	return fn
}

func TestDominatorsOfDiamond(t *testing.T) {
	fn := buildDiamond(t)
	g := Build(fn)
	doms := g.Dominators()

	entry := fn.Entry
	then := mir.BlockID(1)
	els := mir.BlockID(2)
	merge := mir.BlockID(3)

	if doms[then] != entry || doms[els] != entry {
		t.Fatalf("expected entry to immediately dominate both branches, got then=%v else=%v", doms[then], doms[els])
	}
	if doms[merge] != entry {
		t.Fatalf("expected entry to immediately dominate the merge block, got %v", doms[merge])
	}
	if !g.Dominates(doms, entry, merge) {
		t.Fatalf("expected entry to dominate merge")
	}
	if g.Dominates(doms, then, merge) {
		t.Fatalf("then does not dominate merge: else is an alternate path")
	}
}

func TestLivenessAcrossDiamond(t *testing.T) {
	fn := buildDiamond(t)
	result := Liveness(fn)

	entry := fn.Entry
	// Entry reads param local 0 directly (assigning it into `a`), so it
	// must be live-in to entry.
	if _, live := result.In[entry][0]; !live {
		t.Fatalf("expected param local 0 to be live-in at entry, got %v", result.In[entry])
	}
}

func TestSetOperations(t *testing.T) {
	a := NewSet(1, 2, 3)
	b := NewSet(2, 3, 4)

	if !a.Union(b).Equal(NewSet(1, 2, 3, 4)) {
		t.Fatalf("union mismatch")
	}
	if !a.Difference(b).Equal(NewSet(1)) {
		t.Fatalf("difference mismatch")
	}
	if a.Equal(b) {
		t.Fatalf("a and b should not be equal")
	}
}
