package buildutil

import (
	"context"
	"testing"

	"golang.org/x/tools/txtar"
)

// unitsFromArchive bundles a multi-file fixture (several .aether modules
// that should compile as one unit) into a single golang.org/x/tools/txtar
// archive, the way compiler test suites commonly package a source tree
// plus its expected output as one fixture file.
func unitsFromArchive(data string) []Unit {
	arc := txtar.Parse([]byte(data))
	units := make([]Unit, len(arc.Files))
	for i, f := range arc.Files {
		units[i] = Unit{File: f.Name, Source: string(f.Data)}
	}
	return units
}

func TestRunAcceptsATxtarBundledFixture(t *testing.T) {
	const fixture = `
-- a.aether --
(module a (function helper ((integer x)) integer (* x 2)))
-- b.aether --
(module b (function main () integer (helper 21)))
`
	res, err := Run(context.Background(), unitsFromArchive(fixture), DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected pipeline error: %v", err)
	}
	if res.Diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", res.Diags.Sorted())
	}
	if res.Program.Functions["main"] == nil || res.Program.Functions["helper"] == nil {
		t.Fatalf("expected both bundled functions lowered, got %+v", res.Program.Functions)
	}
}
