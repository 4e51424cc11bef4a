package codegen

import (
	"strconv"

	"github.com/mewmew/float"
)

// canonicalFloat64 round-trips an Aether float constant through
// mewmew/float's hexadecimal-precision parser — the package llir/llvm's
// own assembler uses to read back the hex float literals its printer
// emits for Double constants — so the bit pattern codegen hands to
// constant.NewFloat is exactly the one LLVM's textual IR would produce
// from the same source literal, rather than whatever decimal Go's
// shortest round-trip formatting happens to choose.
func canonicalFloat64(v float64) float64 {
	hex := strconv.FormatFloat(v, 'x', -1, 64)
	bf := float.NewFloatFromString(float.Float64, hex)
	f, _ := bf.Float64()
	return f
}
