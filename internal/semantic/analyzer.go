// Package semantic implements the conductor of spec.md §4.4: it walks each
// module's AST once in declaration order, resolves every TypeSpec through
// internal/types, threads a lexical scope through internal/symbols, and
// hands each function's contract metadata to internal/contracts after its
// body has been checked, whether or not the body had errors.
//
// Ownership tracking (§4.2) is deliberately not duplicated here: it already
// runs fused with MIR lowering in internal/mirbuilder, which trusts (per its
// own LowerFunction doc comment) that a function the analyzer accepted
// type-checks. Running a second full ownership walk over the same AST would
// just be two passes computing the same fixed point; the conductor's job
// stops at typing, scoping, and contract validation.
package semantic

import (
	"fmt"

	"aetherc/internal/ast"
	"aetherc/internal/contracts"
	"aetherc/internal/diagnostics"
	"aetherc/internal/symbols"
	"aetherc/internal/types"
)

// AnnotatedProgram is the semantic analyzer's success output (§6.2 "From
// the front end"): only functions that type-checked and validated cleanly
// are included, so the MIR builder never sees a function the analyzer
// couldn't make sense of. A function with errors is dropped from this list
// but analysis of every other function still proceeds (§7 "one bad
// function does not mask others").
type AnnotatedProgram struct {
	Modules   []*ast.Module
	Functions []*ast.Function
	Externs   []*ast.ExternFunction
	Constants []*ast.ConstDecl
}

// funcSig is what the analyzer needs to know about a function or extern to
// check calls to it, independent of whether its own body has been checked
// yet — this is what makes forward references and recursion work.
type funcSig struct {
	params []*types.Type
	ret    *types.Type
	pure   bool
}

// Analyzer is the §4.4 conductor. One Analyzer processes one compilation
// unit (the set of modules belonging to a single input file); §5's
// cross-unit join happens one layer up, after each unit's Analyze call
// returns.
type Analyzer struct {
	table   *types.Table
	diags   *diagnostics.Bag
	file    string
	syms    *symbols.Table
	funcs   map[string]funcSig
	records map[string][]types.Field

	// curFunc is set while checking one function's body and
	// metadata; typeOfExpr and IsPure both read it, which is how the
	// contracts.Validator ends up calling back into this analyzer's own
	// type-checker and purity table without either package importing the
	// other's concrete type.
	curFunc *ast.Function
}

// New creates an Analyzer for one file's worth of modules.
func New(table *types.Table, diags *diagnostics.Bag, file string) *Analyzer {
	return &Analyzer{
		table:   table,
		diags:   diags,
		file:    file,
		syms:    symbols.NewTable(),
		funcs:   make(map[string]funcSig),
		records: make(map[string][]types.Field),
	}
}

// LookupRecord implements types.RecordRegistry. The surface grammar this
// conductor parses has no record-declaration form (AetherScript's
// [MODULE] set never introduces one), so this registry is permanently
// empty; it exists purely so internal/types.Table.Resolve has something
// non-nil to call. A future record-declaration construct would populate
// a.records during the declaration pass below and this method would start
// returning real entries without any other code changing.
func (a *Analyzer) LookupRecord(name string) ([]types.Field, bool) {
	fields, ok := a.records[name]
	return fields, ok
}

// IsPure implements contracts.PurityOracle.
func (a *Analyzer) IsPure(name string) (pure bool, known bool) {
	sig, ok := a.funcs[name]
	if !ok {
		return false, false
	}
	return sig.pure, true
}

// Signature implements mirbuilder.SignatureLookup and mirvalidate's callee
// analogue: it exposes the declared return type computed during the
// declaration pass (funcSig, populated for both ordinary functions and
// externs) so MIR lowering and validation can type a Call's destination
// against the callee's real return type rather than assuming Void.
func (a *Analyzer) Signature(name string) (ret *types.Type, known bool) {
	sig, ok := a.funcs[name]
	if !ok {
		return nil, false
	}
	return sig.ret, true
}

func (a *Analyzer) span(loc ast.SourceLocation) diagnostics.SourceSpan {
	return diagnostics.SourceSpan{File: a.file, Line: loc.Line, Column: loc.Column}
}

// Analyze runs the full conductor over prog and returns the annotated
// subset that is safe to hand to MIR lowering. Diagnostics accumulate in
// the Bag supplied to New; Analyze itself never returns an error, matching
// §7's batch-accumulation propagation model.
func (a *Analyzer) Analyze(prog *ast.Program) *AnnotatedProgram {
	out := &AnnotatedProgram{Modules: prog.Modules}

	// Declaration pass: every module-level name is registered before any
	// function body is checked, so forward references and mutual
	// recursion across functions (and across modules, since all modules
	// of a unit share one Analyzer) resolve correctly.
	seenConstraints := make(map[string]string)
	for _, mod := range prog.Modules {
		for _, imp := range mod.Imports {
			a.checkImport(imp, seenConstraints)
		}
		for _, ext := range mod.Externs {
			a.declareExtern(ext)
		}
		for _, fn := range mod.Functions {
			a.declareFunction(fn)
		}
		for _, c := range mod.Constants {
			a.declareConstant(c)
		}
	}

	for _, mod := range prog.Modules {
		out.Externs = append(out.Externs, mod.Externs...)
		out.Constants = append(out.Constants, mod.Constants...)
		for _, fn := range mod.Functions {
			if a.analyzeFunction(fn) {
				out.Functions = append(out.Functions, fn)
			}
		}
	}
	return out
}

// checkImport validates one module's import (§3.3) against every other
// constraint already seen for the same path within this compilation unit,
// reporting a diagnostic for a malformed version string rather than
// resolving the import itself (AetherScript has no external package
// registry in scope here — see spec.md §1 Non-goals).
func (a *Analyzer) checkImport(imp ast.Import, seen map[string]string) {
	if imp.Constraint == "" {
		return
	}
	if !symbols.ValidateConstraint(imp.Constraint) {
		a.diags.Errorf(diagnostics.KindInvalidVersionConstraint, a.span(imp.Location),
			"import %q: %q is not a valid semantic version", imp.Path, imp.Constraint)
		return
	}
	if prior, ok := seen[imp.Path]; ok {
		seen[imp.Path] = symbols.StricterConstraint(prior, imp.Constraint)
		return
	}
	seen[imp.Path] = imp.Constraint
}

func (a *Analyzer) resolveType(spec *ast.TypeSpec) *types.Type {
	ty, err := a.table.Resolve(spec, a)
	if err != nil {
		loc := ast.SourceLocation{}
		if spec != nil {
			loc = spec.Location
		}
		a.diags.Errorf(diagnostics.KindUnknownType, a.span(loc), "%s", err.Error())
		return a.table.Primitive(types.Void)
	}
	return ty
}

func (a *Analyzer) declareExtern(ext *ast.ExternFunction) {
	params := make([]*types.Type, len(ext.Params))
	for i, p := range ext.Params {
		params[i] = a.resolveType(p.Type)
	}
	ret := a.resolveType(ext.Return)
	a.funcs[ext.Name] = funcSig{params: params, ret: ret, pure: false}
	a.syms.Declare(&symbols.Symbol{
		Name: ext.Name, Type: a.table.FunctionType(params, ret), Origin: symbols.OriginImported,
	})
}

func (a *Analyzer) declareFunction(fn *ast.Function) {
	params := make([]*types.Type, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = a.resolveType(p.Type)
	}
	ret := a.resolveType(fn.Return)
	a.funcs[fn.Name] = funcSig{params: params, ret: ret, pure: fn.Pure}
	a.syms.Declare(&symbols.Symbol{
		Name: fn.Name, Type: a.table.FunctionType(params, ret), Origin: symbols.OriginFunction,
	})
}

func (a *Analyzer) declareConstant(c *ast.ConstDecl) {
	declared := a.resolveType(c.Type)
	a.curFunc = nil
	actual := a.typeOfExpr(c.Value, false)
	if actual != nil && c.Type != nil && !a.table.IsAssignable(actual, declared) && !types.Equal(actual, declared) {
		a.diags.Errorf(diagnostics.KindTypeMismatch, a.span(c.Location),
			"constant %q declared as %s but initializer is %s", c.Name, declared, actual)
	}
	final := declared
	if c.Type == nil && actual != nil {
		final = actual
	}
	a.syms.Declare(&symbols.Symbol{Name: c.Name, Type: final, Origin: symbols.OriginGlobal})
}

// analyzeFunction type-checks fn's body and validates its contract
// metadata, reporting whether fn came through clean. A clean function is
// eligible for MIR lowering; a function with any new diagnostic is not,
// but checking still continues on to the next function in the module.
func (a *Analyzer) analyzeFunction(fn *ast.Function) bool {
	before := a.diags.Len()
	a.curFunc = fn

	a.syms.Push()
	for i, p := range fn.Params {
		a.syms.Declare(&symbols.Symbol{
			Name: p.Name, Type: a.funcs[fn.Name].params[i], Mutable: p.Mutable, Origin: symbols.OriginParameter,
		})
	}

	retTy := a.funcs[fn.Name].ret
	if fn.Body != nil {
		a.checkBlock(fn.Body, retTy)
	}

	contracts.New(a.diags, a, a.typeOfExprForContracts, a.table, a.file).ValidateFunction(fn)

	a.syms.Pop()
	a.syms.ResetRetained()
	a.curFunc = nil

	return a.diags.Len() == before
}

// typeOfExprForContracts adapts typeOfExpr to contracts.TypeOfExpr's
// error-returning signature: the contract validator only needs to know
// whether a predicate's static type is boolean, and the expression
// checker has already reported any type error itself, so a nil type here
// always means "already diagnosed, skip the boolean check."
func (a *Analyzer) typeOfExprForContracts(e ast.Expr, allowReturnValue bool) (*types.Type, error) {
	ty := a.typeOfExpr(e, allowReturnValue)
	if ty == nil {
		return nil, fmt.Errorf("semantic: expression did not type-check")
	}
	return ty, nil
}
