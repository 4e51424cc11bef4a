package buildutil

import (
	"context"
	"testing"
)

func TestRunCompilesAndOptimizesAUnit(t *testing.T) {
	src := `(module m (function add ((integer a) (integer b)) integer (+ a b)))`
	res, err := Run(context.Background(), []Unit{{File: "m.aether", Source: src}}, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected pipeline error: %v", err)
	}
	if res.Diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", res.Diags.Sorted())
	}
	if res.Program == nil || res.Program.Functions["add"] == nil {
		t.Fatalf("expected a lowered function named add, got %+v", res.Program)
	}
}

func TestRunAcrossMultipleUnitsSeesCrossUnitCalls(t *testing.T) {
	unitA := Unit{File: "a.aether", Source: `(module a (function helper ((integer x)) integer (* x 2)))`}
	unitB := Unit{File: "b.aether", Source: `(module b (function main () integer (helper 21)))`}
	res, err := Run(context.Background(), []Unit{unitA, unitB}, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected pipeline error: %v", err)
	}
	if res.Diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", res.Diags.Sorted())
	}
	if res.Program.Functions["main"] == nil || res.Program.Functions["helper"] == nil {
		t.Fatalf("expected both cross-unit functions lowered, got %+v", res.Program.Functions)
	}
}

func TestRunReportsUndefinedCallee(t *testing.T) {
	src := `(module m (function broken () integer (does_not_exist)))`
	res, err := Run(context.Background(), []Unit{{File: "m.aether", Source: src}}, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected pipeline error: %v", err)
	}
	if !res.Diags.HasErrors() {
		t.Fatalf("expected a diagnostic for the undefined callee")
	}
	if res.Program != nil {
		t.Fatalf("expected no program when semantic analysis fails, got %+v", res.Program)
	}
}
