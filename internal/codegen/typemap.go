package codegen

import (
	irtypes "github.com/llir/llvm/ir/types"

	"aetherc/internal/types"
)

// llvmType maps a compiler *types.Type onto its LLVM IR storage shape.
// Record and Map values are runtime-managed opaque handles (the runtime
// owns their layout in Rust, per original_source/runtime/src/collections.rs)
// so both are represented as an i8* pointer rather than an LLVM struct
// type codegen would have to keep in lockstep with the runtime's own
// #[repr(C)] definitions.
func llvmType(t *types.Type) irtypes.Type {
	switch t.Kind() {
	case types.Integer:
		return irtypes.I64
	case types.Float:
		return irtypes.Double
	case types.Boolean:
		return irtypes.I1
	case types.String:
		return irtypes.NewPointer(irtypes.I8)
	case types.Void:
		return irtypes.Void
	case types.Array:
		return irtypes.NewArray(uint64(t.Length()), llvmType(t.Elem()))
	case types.Map, types.Record:
		return irtypes.NewPointer(irtypes.I8)
	case types.Function:
		params := make([]irtypes.Type, len(t.Params()))
		for i, p := range t.Params() {
			params[i] = llvmType(p)
		}
		return irtypes.NewPointer(irtypes.NewFunc(llvmType(t.Return()), params...))
	case types.Owned:
		return llvmType(t.Inner())
	default:
		return irtypes.Void
	}
}

// llvmKindType maps a bare types.Kind (used by runtimeabi's Signature,
// which has no *types.Table handy to build a full *types.Type from) onto
// an LLVM type: Integer, Float, Boolean and Void map as llvmType maps them,
// and every other Kind maps to i64.
func llvmKindType(k types.Kind) irtypes.Type {
	switch k {
	case types.Integer:
		return irtypes.I64
	case types.Float:
		return irtypes.Double
	case types.Boolean:
		return irtypes.I1
	case types.Void:
		return irtypes.Void
	default:
		return irtypes.I64
	}
}
