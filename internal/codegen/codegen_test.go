package codegen

import (
	"strings"
	"testing"

	"aetherc/internal/mir"
	"aetherc/internal/types"
)

// buildAddFunction constructs the MIR for `function add(a: integer, b: integer) -> integer { return a + b }`.
func buildAddFunction(table *types.Table) *mir.Function {
	intTy := table.Primitive(types.Integer)
	fn := mir.NewFunction("add", []mir.Param{{Name: "a", Type: intTy}, {Name: "b", Type: intTy}}, intTy)
	ret := fn.AddLocal(mir.Local{Type: intTy, Mutable: true, DebugName: "$return"})
	entry := fn.NewBlock()

	sum := mir.BinaryOpRvalue(mir.BinAdd, mir.CopyOf(mir.SimplePlace(0)), mir.CopyOf(mir.SimplePlace(1)))
	fn.Blocks[entry].Statements = []mir.Statement{
		mir.Assign(mir.SimplePlace(ret), sum),
	}
	fn.Blocks[entry].Terminator = mir.ReturnTerm()
	return fn
}

func TestGenerateLowersSimpleFunction(t *testing.T) {
	table := types.New()
	prog := mir.NewProgram()
	prog.Functions["add"] = buildAddFunction(table)

	module, err := Generate(prog)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	text := module.String()
	if !strings.Contains(text, "define i64 @add(i64") {
		t.Fatalf("expected an i64 add definition, got:\n%s", text)
	}
	if !strings.Contains(text, "ret i64") {
		t.Fatalf("expected a ret i64 instruction, got:\n%s", text)
	}
}

func TestGenerateDeclaresRuntimeSymbols(t *testing.T) {
	prog := mir.NewProgram()
	module, err := Generate(prog)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	text := module.String()
	for _, want := range []string{"aether_print", "aether_collections_map_create", "aether_rt_drop"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected runtime symbol %q to be declared, got:\n%s", want, text)
		}
	}
}

func TestGenerateVoidFunctionReturnsVoid(t *testing.T) {
	table := types.New()
	voidTy := table.Primitive(types.Void)
	prog := mir.NewProgram()
	fn := mir.NewFunction("noop", nil, voidTy)
	entry := fn.NewBlock()
	fn.Blocks[entry].Terminator = mir.ReturnTerm()
	prog.Functions["noop"] = fn

	module, err := Generate(prog)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	text := module.String()
	if !strings.Contains(text, "define void @noop()") {
		t.Fatalf("expected a void noop definition, got:\n%s", text)
	}
}
