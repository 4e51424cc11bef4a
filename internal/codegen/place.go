package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	irtypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"aetherc/internal/mir"
	"aetherc/internal/types"
)

// addressOf walks a Place's projections from its base alloca, emitting a
// GetElementPtr chain, and returns the pointer to the final addressed
// storage plus the Type stored there.
func (fb *funcBuilder) addressOf(b *ir.Block, p mir.Place) (value.Value, *types.Type) {
	addr := value.Value(fb.allocas[p.Local])
	ty := fb.mirFn.Locals[p.Local].Type
	elemType := llvmType(ty)

	for _, proj := range p.Projection {
		switch proj.Kind {
		case mir.ProjField:
			idx := fieldIndex(ty, proj.Field)
			addr = b.NewGetElementPtr(elemType, addr, constant.NewInt(irtypes.I32, 0), constant.NewInt(irtypes.I32, int64(idx)))
			ty = ty.Fields()[idx].Type
			elemType = llvmType(ty)
		case mir.ProjIndex:
			index := fb.operandValue(b, proj.Index)
			addr = b.NewGetElementPtr(elemType, addr, constant.NewInt(irtypes.I64, 0), index)
			ty = ty.Elem()
			elemType = llvmType(ty)
		case mir.ProjDeref:
			addr = b.NewLoad(elemType, addr)
			ty = ty.Inner()
			elemType = llvmType(ty)
		}
	}
	return addr, ty
}

func fieldIndex(recordTy *types.Type, name string) int {
	for i, f := range recordTy.Fields() {
		if f.Name == name {
			return i
		}
	}
	return 0
}

func (fb *funcBuilder) placeType(p mir.Place) *types.Type {
	_, ty := fb.addressOfType(p)
	return ty
}

// addressOfType mirrors addressOf's projection walk without emitting any
// instructions, for callers (Drop lowering) that only need the type a
// Place denotes.
func (fb *funcBuilder) addressOfType(p mir.Place) (value.Value, *types.Type) {
	ty := fb.mirFn.Locals[p.Local].Type
	for _, proj := range p.Projection {
		switch proj.Kind {
		case mir.ProjField:
			ty = ty.Fields()[fieldIndex(ty, proj.Field)].Type
		case mir.ProjIndex:
			ty = ty.Elem()
		case mir.ProjDeref:
			ty = ty.Inner()
		}
	}
	return nil, ty
}

func (fb *funcBuilder) loadPlace(b *ir.Block, p mir.Place) value.Value {
	addr, ty := fb.addressOf(b, p)
	return b.NewLoad(llvmType(ty), addr)
}

func (fb *funcBuilder) storePlace(b *ir.Block, p mir.Place, v value.Value) {
	addr, _ := fb.addressOf(b, p)
	b.NewStore(v, addr)
}

func (fb *funcBuilder) operandValue(b *ir.Block, op mir.Operand) value.Value {
	switch op.Kind {
	case mir.OpCopy, mir.OpMove:
		return fb.loadPlace(b, op.Place)
	case mir.OpConstant:
		return fb.constantValue(op.Constant)
	default:
		return constant.NewInt(irtypes.I64, 0)
	}
}

// constantValue materializes a mir.Constant as an LLVM value. String
// constants need a backing global (LLVM has no inline pointer-to-array
// constant), so they are interned as file-scope globals and addressed via
// a GEP to their first byte — the pointer shape llvmType(types.String)
// expects everywhere else.
func (fb *funcBuilder) constantValue(c mir.Constant) value.Value {
	switch c.Value.Kind {
	case mir.ConstInt:
		return constant.NewInt(irtypes.I64, c.Value.Int)
	case mir.ConstFloat:
		return constant.NewFloat(irtypes.Double, canonicalFloat64(c.Value.Float))
	case mir.ConstBool:
		return constant.NewBool(c.Value.Bool)
	case mir.ConstString:
		return fb.g.internString(c.Value.Str)
	default:
		return constant.NewInt(irtypes.I64, 0)
	}
}
