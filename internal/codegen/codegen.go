// Package codegen translates a validated mir.Program into an llir/llvm
// ir.Module (§6.3 "To the backend (MIR contract)"): MIR functions, basic
// blocks, places, rvalues, and operands each have a direct LLVM IR
// analogue, so this package's job stops at building the in-memory
// ir.Module and returning it from Generate — actual object emission, linking,
// and the runtime library itself are the external backend's job (§1
// Non-goals).
//
// The instruction-selection shape (one alloca per MIR local, loads/stores
// bracketing every read/write, a straight switch over Rvalue/Terminator
// kinds) is grounded on the dshills-alas codegen optimizer's own
// block-and-instruction-level manipulation of *ir.Func/*ir.Block
// (github.com/llir/llvm/ir), generalized from an optimization pass
// operating on existing IR to a from-scratch emitter building that IR in
// the first place.
package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	irtypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"aetherc/internal/mir"
	"aetherc/internal/runtimeabi"
	"aetherc/internal/types"
)

// Generate lowers every function and extern declaration in prog into a
// fresh ir.Module, plus the runtime ABI declarations any emitted Call
// terminator or Drop statement needs to link against.
func Generate(prog *mir.Program) (*ir.Module, error) {
	m := ir.NewModule()
	g := &generator{module: m, funcs: make(map[string]*ir.Func), externs: make(map[string]*ir.Func)}

	for name, sig := range prog.Externs {
		g.declareExtern(name, sig.Params, sig.Return)
	}
	for _, sig := range runtimeabi.All() {
		g.declareRuntimeFunc(sig)
	}

	for name, fn := range prog.Functions {
		g.declareFunction(name, fn)
	}
	for name, fn := range prog.Functions {
		if err := g.defineFunction(g.funcs[name], fn); err != nil {
			return nil, fmt.Errorf("codegen: function %s: %w", name, err)
		}
	}
	return m, nil
}

type generator struct {
	module  *ir.Module
	funcs   map[string]*ir.Func
	externs map[string]*ir.Func
	strings int
}

// internString defines a new file-scope global holding s's NUL-terminated
// bytes and returns a pointer to its first byte.
func (g *generator) internString(s string) value.Value {
	data := constant.NewCharArrayFromString(s + "\x00")
	name := fmt.Sprintf(".str.%d", g.strings)
	g.strings++
	global := g.module.NewGlobalDef(name, data)
	global.Immutable = true
	zero := constant.NewInt(irtypes.I64, 0)
	return constant.NewGetElementPtr(data.Typ, global, zero, zero)
}

func (g *generator) declareExtern(name string, params []*types.Type, ret *types.Type) {
	llParams := make([]*ir.Param, len(params))
	for i, p := range params {
		llParams[i] = ir.NewParam("", llvmType(p))
	}
	g.externs[name] = g.module.NewFunc(name, llvmType(ret), llParams...)
}

func (g *generator) declareRuntimeFunc(sig runtimeabi.Signature) {
	if _, exists := g.externs[sig.Symbol]; exists {
		return
	}
	params := make([]*ir.Param, len(sig.Params))
	for i, k := range sig.Params {
		params[i] = ir.NewParam("", llvmKindType(k))
	}
	fn := g.module.NewFunc(sig.Symbol, llvmKindType(sig.Return), params...)
	fn.Sig.Variadic = sig.Variadic
	g.externs[sig.Symbol] = fn
}

func (g *generator) declareFunction(name string, fn *mir.Function) {
	params := make([]*ir.Param, fn.NumParams())
	for i, p := range fn.Params {
		params[i] = ir.NewParam(p.Name, llvmType(p.Type))
	}
	g.funcs[name] = g.module.NewFunc(name, llvmType(fn.ReturnType), params...)
}

// funcBuilder holds the per-function lowering state: one alloca per MIR
// local (so every Place read/write is a plain load/store, deferring
// register promotion to the backend's own mem2reg) and the llir block a
// given mir.BlockID maps to.
type funcBuilder struct {
	g       *generator
	mirFn   *mir.Function
	llFn    *ir.Func
	blocks  map[mir.BlockID]*ir.Block
	allocas map[mir.LocalID]*ir.InstAlloca
	entry   *ir.Block
}

func (g *generator) defineFunction(llFn *ir.Func, fn *mir.Function) error {
	if len(fn.Blocks) == 0 {
		return nil // extern-only declaration, nothing to lower
	}
	fb := &funcBuilder{g: g, mirFn: fn, llFn: llFn, blocks: make(map[mir.BlockID]*ir.Block), allocas: make(map[mir.LocalID]*ir.InstAlloca)}

	fb.entry = llFn.NewBlock("entry")
	for i := range fn.Locals {
		fb.allocas[mir.LocalID(i)] = fb.entry.NewAlloca(llvmType(fn.Locals[i].Type))
	}
	for i, param := range llFn.Params {
		fb.entry.NewStore(param, fb.allocas[mir.LocalID(i)])
	}

	for _, id := range fn.BlockIDs() {
		name := fmt.Sprintf("bb%d", int(id))
		if id == fn.Entry {
			fb.blocks[id] = fb.entry
			fb.entry.SetName(name)
			continue
		}
		fb.blocks[id] = llFn.NewBlock(name)
	}

	for _, id := range fn.BlockIDs() {
		blk, _ := fn.Block(id)
		if err := fb.lowerBlock(blk); err != nil {
			return err
		}
	}
	return nil
}

func (fb *funcBuilder) lowerBlock(blk *mir.BasicBlock) error {
	b := fb.blocks[blk.ID]
	for _, stmt := range blk.Statements {
		if err := fb.lowerStatement(b, stmt); err != nil {
			return err
		}
	}
	return fb.lowerTerminator(b, blk.Terminator)
}

func (fb *funcBuilder) lowerStatement(b *ir.Block, stmt mir.Statement) error {
	switch stmt.Kind {
	case mir.StmtAssign:
		rv, err := fb.lowerRvalue(b, stmt.Rvalue)
		if err != nil {
			return err
		}
		fb.storePlace(b, stmt.Place, rv)
	case mir.StmtStorageLive, mir.StmtStorageDead, mir.StmtNop:
		// Alloca lifetime is whole-function in this naive lowering;
		// nothing to emit (the backend's mem2reg pass narrows it).
	case mir.StmtDrop:
		ty := fb.placeType(stmt.Place)
		if ty.RequiresDrop() {
			handle := fb.loadPlace(b, stmt.Place)
			tag := constant.NewInt(irtypes.I64, int64(ty.Kind()))
			b.NewCall(fb.g.externs[runtimeabi.Drop.Symbol], handle, tag)
		}
	}
	return nil
}

func (fb *funcBuilder) lowerTerminator(b *ir.Block, term mir.Terminator) error {
	switch term.Kind {
	case mir.TermGoto:
		b.NewBr(fb.blocks[term.Target])
	case mir.TermReturn:
		if fb.mirFn.ReturnType.Kind() == types.Void {
			b.NewRet(nil)
		} else {
			b.NewRet(fb.loadPlace(b, mir.SimplePlace(mir.LocalID(fb.returnLocal()))))
		}
	case mir.TermUnreachable:
		b.NewUnreachable()
	case mir.TermSwitchInt:
		disc := fb.operandValue(b, term.Discriminant)
		cases := make([]*ir.Case, len(term.Targets.Values))
		for i, v := range term.Targets.Values {
			width := llvmType(term.SwitchType).(*irtypes.IntType)
			cases[i] = ir.NewCase(constant.NewInt(width, v), fb.blocks[term.Targets.Targets[i]])
		}
		b.NewSwitch(disc, fb.blocks[term.Targets.Otherwise], cases...)
	case mir.TermCall:
		callee := fb.g.funcs[term.CallFunc]
		if callee == nil {
			callee = fb.g.externs[term.CallFunc]
		}
		args := make([]value.Value, len(term.CallArgs))
		for i, a := range term.CallArgs {
			args[i] = fb.operandValue(b, a)
		}
		result := b.NewCall(callee, args...)
		if term.CallDestination != nil {
			fb.storePlace(b, *term.CallDestination, result)
		}
		b.NewBr(fb.blocks[term.NormalTarget])
	case mir.TermAssert:
		cond := fb.operandValue(b, term.AssertCond)
		expect := constant.NewBool(term.AssertExpected)
		ok := b.NewICmp(enum.IPredEQ, cond, expect)
		failBlock := fb.llFn.NewBlock("")
		b.NewCondBr(ok, fb.blocks[term.AssertTarget], failBlock)
		failBlock.NewUnreachable()
	default:
		return fmt.Errorf("codegen: block %s has no terminator", fb.mirFn.Name)
	}
	return nil
}

// returnLocal reports the local the analyzer/lowerer reserves to hold the
// function's return value before a Return terminator (§4.5 "$return
// local"); it is always the last parameter-adjacent local the MIR
// lowerer declares, which by construction is local index NumParams().
func (fb *funcBuilder) returnLocal() int { return fb.mirFn.NumParams() }
