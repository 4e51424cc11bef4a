// Package optimize implements the optimization manager of spec.md §4.8: an
// ordered pipeline of MIR-to-MIR passes, each declaring whether it runs
// once or to a fixed point, with every pass's output re-checked by
// mirvalidate and reverted if it broke an invariant.
//
// The Pass interface and pipeline-driver shape are grounded on the
// OptimizationPass/OptimizationPipeline pair in the kanso-lang IR
// optimizer, generalized from its EVM-gas-focused pass list (constant
// folding, checked-arithmetic, DCE, CSE) to this module's MIR and default
// pipeline order (§4.8: constant folding, copy propagation, dead-store
// elimination, common subexpression elimination, dead-block elimination,
// simplify CFG). SimplifyCFG's trivial-goto-block removal is grounded on
// the surge compiler's mir.SimplifyCFG.
package optimize

import "aetherc/internal/mir"

// Policy says how many times a pass runs per invocation of the pipeline
// (§4.8 "Pass scheduling").
type Policy int

const (
	// RunOnce applies the pass exactly once per pipeline run.
	RunOnce Policy = iota
	// RunToFixedPoint re-applies the pass until it reports no change, or a
	// safety cap of iterations is hit (runaway-pass backstop).
	RunToFixedPoint
)

// Pass is a single MIR-to-MIR transformation (§4.8 "Optimization pass").
type Pass interface {
	Name() string
	// Apply rewrites fn in place and reports whether it changed anything.
	Apply(fn *mir.Function) bool
}

// Entry pairs a Pass with its scheduling Policy.
type Entry struct {
	Pass   Pass
	Policy Policy
}

// fixedPointCap bounds RunToFixedPoint passes against a pathological
// oscillation that would otherwise loop the pipeline forever.
const fixedPointCap = 64

// Pipeline runs an ordered list of passes over every function in a
// Program, validating after each pass and reverting that pass's effect on
// a function if validation fails (§4.8 "Validator-guarded reversion").
type Pipeline struct {
	entries []Entry

	// Validate is called after each pass application; it returns the
	// validation problems found, or nil if fn is still well-formed. It is
	// a field (not a direct mirvalidate.Validate call) so tests can swap
	// in a stricter or looser check without an import cycle between
	// optimize and mirvalidate's own tests.
	Validate func(fn *mir.Function) []string
}

// Default builds the §4.8 default pipeline: constant folding and copy
// propagation run to a fixed point (each can expose new opportunities for
// the other), then dead-store elimination, common subexpression
// elimination, dead-block elimination, and finally CFG simplification,
// each run once.
func Default() *Pipeline {
	p := &Pipeline{}
	p.Add(&ConstantFolding{}, RunToFixedPoint)
	p.Add(&CopyPropagation{}, RunToFixedPoint)
	p.Add(&DeadStoreElimination{}, RunOnce)
	p.Add(&CommonSubexpressionElimination{}, RunOnce)
	p.Add(&DeadBlockElimination{}, RunOnce)
	p.Add(&SimplifyCFG{}, RunOnce)
	return p
}

// Add appends a pass to the pipeline with the given scheduling policy.
func (p *Pipeline) Add(pass Pass, policy Policy) {
	p.entries = append(p.entries, Entry{Pass: pass, Policy: policy})
}

// Run applies every pass, in order, to fn. A pass whose output fails
// validation is reverted by restoring the snapshot taken before that pass
// ran, and the pipeline continues with the next pass (§4.8 "one broken pass
// never aborts the whole pipeline").
func (p *Pipeline) Run(fn *mir.Function) Report {
	var report Report
	for _, entry := range p.entries {
		switch entry.Policy {
		case RunOnce:
			before := Snapshot(fn)
			changed := entry.Pass.Apply(fn)
			report.record(entry.Pass.Name(), changed, p.revertIfInvalid(fn, before))
		case RunToFixedPoint:
			for i := 0; i < fixedPointCap; i++ {
				before := Snapshot(fn)
				changed := entry.Pass.Apply(fn)
				reverted := p.revertIfInvalid(fn, before)
				report.record(entry.Pass.Name(), changed, reverted)
				if !changed || reverted {
					break
				}
			}
		}
	}
	return report
}

func (p *Pipeline) revertIfInvalid(fn *mir.Function, before *mir.Function) bool {
	if p.Validate == nil {
		return false
	}
	if problems := p.Validate(fn); len(problems) > 0 {
		Restore(fn, before)
		return true
	}
	return false
}

// Report summarizes what a Pipeline.Run did, pass by pass, for callers
// that want to surface an optimization log (the CLI driver's verbose
// mode, per the ambient debug-output stack).
type Report struct {
	Entries []RunEntry
}

type RunEntry struct {
	Pass     string
	Changed  bool
	Reverted bool
}

func (r *Report) record(name string, changed, reverted bool) {
	r.Entries = append(r.Entries, RunEntry{Pass: name, Changed: changed, Reverted: reverted})
}
