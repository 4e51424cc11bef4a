// pipeline.go implements the §5 build pipeline driver: lex and parse each
// compilation unit concurrently, join at a barrier so cross-unit references
// are visible, then run semantic analysis, MIR lowering and the MIR
// optimizer once, sequentially, over the merged program. LLVM codegen is
// not part of this pipeline; the driver calls it on the result.
//
// The fan-out/join shape is grounded on the teacher's own concurrency
// idiom elsewhere in this tree (internal/concurrency's worker-pool
// pattern) generalized from task queues to a fixed per-file pipeline,
// using golang.org/x/sync/errgroup instead of a hand-rolled
// WaitGroup+channel, the way the rest of the ambient stack prefers a
// pack library over a stdlib-only equivalent wherever one fits.
package buildutil

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"aetherc/internal/ast"
	"aetherc/internal/diagnostics"
	"aetherc/internal/lexer"
	"aetherc/internal/mir"
	"aetherc/internal/mirbuilder"
	"aetherc/internal/mirvalidate"
	"aetherc/internal/optimize"
	"aetherc/internal/parser"
	"aetherc/internal/semantic"
	"aetherc/internal/types"
)

// Options configures one invocation of the pipeline (§5's "Options" record).
type Options struct {
	// OptLevel selects how many optimizer passes run: 0 disables
	// optimize.Default() entirely, >=1 runs it.
	OptLevel int
	// MaxFixedPointIters is not read by Run: RunToFixedPoint passes are
	// always bounded by the optimizer package's own fixed cap.
	MaxFixedPointIters int
	// DebugInfo records the driver's --debug flag. Run does not read it,
	// and codegen emits no source locations.
	DebugInfo bool
	// EmitLLVM records that the driver will generate LLVM IR from the
	// result. Run does not read it.
	EmitLLVM bool
}

// DefaultOptions returns the pipeline's default configuration.
func DefaultOptions() Options {
	return Options{OptLevel: 1}
}

// Unit is one source file handed to the pipeline.
type Unit struct {
	File   string
	Source string
}

// Result is everything one pipeline run produced: the merged MIR
// program (nil if any unit failed to parse or type-check), and every
// diagnostic recorded along the way, in deterministic per-unit order.
type Result struct {
	Program *mir.Program
	Diags   *diagnostics.Bag
}

// unitOutput is one compiled unit's intermediate state, produced by the
// first (parallel) pipeline stage.
type unitOutput struct {
	file  string
	mods  []*ast.Module
	diags *diagnostics.Bag
}

// Run executes the pipeline over every unit: the front end (lex, parse)
// runs concurrently, one goroutine per unit with no limit on their number,
// joined at a barrier; semantic analysis, MIR lowering and optimization
// then run sequentially over the merged program.
//
// ctx is honored as a best-effort cancellation signal: Run also installs
// its own SIGINT/SIGTERM handler (via os/signal and golang.org/x/sys/unix)
// so a build killed from a terminal stops launching new units instead of
// running to completion first.
func Run(ctx context.Context, units []Unit, opts Options) (*Result, error) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, unix.SIGTERM)
	defer stop()

	outputs := make([]*unitOutput, len(units))
	g, gctx := errgroup.WithContext(ctx)
	for i, u := range units {
		i, u := i, u
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outputs[i] = compileUnit(u)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	// Join barrier: merge every unit's modules and diagnostics before
	// anything that needs cross-unit visibility (declaration-pass symbol
	// resolution, then MIR lowering and codegen) runs.
	merged := &ast.Program{}
	bag := &diagnostics.Bag{}
	for _, out := range outputs {
		merged.Modules = append(merged.Modules, out.mods...)
		bag.Merge(out.diags)
	}

	table := types.New()
	analyzer := semantic.New(table, bag, joinedFileLabel(units))
	annotated := analyzer.Analyze(merged)
	if bag.HasErrors() {
		return &Result{Diags: bag}, nil
	}

	// validateFn closes over analyzer so both the post-lowering check below
	// and the optimizer's per-pass revalidation (optimize.Pipeline.Validate,
	// which only accepts a bare func(*mir.Function) []string) can check a
	// Call's destination type against the same signature table the
	// lowerer itself used.
	validateFn := func(fn *mir.Function) []string { return mirvalidate.Validate(fn, analyzer) }

	prog := mir.NewProgram()
	for _, fn := range annotated.Functions {
		lowered := mirbuilder.LowerFunction(fn, table, analyzer, analyzer, bag, fileOf(fn))
		if problems := validateFn(lowered); len(problems) > 0 {
			for _, p := range problems {
				bag.Errorf(diagnostics.KindInternalError, diagnostics.SourceSpan{File: fileOf(fn)}, "%s", p)
			}
			continue
		}
		prog.Functions[fn.Name] = lowered
	}
	if bag.HasErrors() {
		return &Result{Diags: bag}, nil
	}

	if opts.OptLevel > 0 {
		pipeline := optimize.Default()
		pipeline.Validate = validateFn
		for _, fn := range prog.Functions {
			pipeline.Run(fn)
		}
	}

	return &Result{Program: prog, Diags: bag}, nil
}

// compileUnit runs the front end (lex, parse) for a single file. Semantic
// analysis happens afterward, at the join barrier, because it needs every
// unit's declarations visible for cross-unit calls to resolve.
func compileUnit(u Unit) *unitOutput {
	diags := &diagnostics.Bag{}
	toks := lexer.NewScanner(u.Source, u.File).ScanTokens()
	prog := parser.NewParser(toks, u.File, diags).Parse()
	return &unitOutput{file: u.File, mods: prog.Modules, diags: diags}
}

func fileOf(fn *ast.Function) string { return fn.Location.File }

func joinedFileLabel(units []Unit) string {
	if len(units) == 1 {
		return units[0].File
	}
	return fmt.Sprintf("%d units", len(units))
}
