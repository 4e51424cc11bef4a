// mirdump.go renders a mir.Program as readable text for `aetherc
// emit-mir` — one line per statement/terminator, grouped by basic
// block, the way a disassembler lists a bytecode.Chunk's instructions
// one opcode per line.
package main

import (
	"fmt"
	"sort"

	"aetherc/internal/buildutil"
	"aetherc/internal/mir"
)

func dumpMIR(res *buildutil.Result) {
	names := make([]string, 0, len(res.Program.Functions))
	for name := range res.Program.Functions {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		dumpFunction(res.Program.Functions[name])
	}
}

func dumpFunction(fn *mir.Function) {
	fmt.Printf("fn %s(", fn.Name)
	for i, p := range fn.Params {
		if i > 0 {
			fmt.Print(", ")
		}
		fmt.Printf("%s: %s", p.Name, p.Type)
	}
	fmt.Printf(") -> %s {\n", fn.ReturnType)

	for _, id := range fn.BlockIDs() {
		blk, ok := fn.Block(id)
		if !ok {
			continue
		}
		fmt.Printf("  %s:\n", id)
		for _, stmt := range blk.Statements {
			fmt.Printf("    %s\n", dumpStatement(stmt))
		}
		fmt.Printf("    %s\n", dumpTerminator(blk.Terminator))
	}
	fmt.Println("}")
}

func dumpStatement(s mir.Statement) string {
	switch s.Kind {
	case mir.StmtAssign:
		return fmt.Sprintf("%s = %s", dumpPlace(s.Place), dumpRvalue(s.Rvalue))
	case mir.StmtStorageLive:
		return fmt.Sprintf("StorageLive(_%d)", s.Local)
	case mir.StmtStorageDead:
		return fmt.Sprintf("StorageDead(_%d)", s.Local)
	case mir.StmtDrop:
		return fmt.Sprintf("drop(%s)", dumpPlace(s.Place))
	default:
		return "nop"
	}
}

func dumpTerminator(t mir.Terminator) string {
	switch t.Kind {
	case mir.TermGoto:
		return fmt.Sprintf("goto -> %s", t.Target)
	case mir.TermReturn:
		return "return"
	case mir.TermUnreachable:
		return "unreachable"
	case mir.TermSwitchInt:
		return fmt.Sprintf("switchInt(%s) -> [otherwise: %s]", dumpOperand(t.Discriminant), t.Targets.Otherwise)
	case mir.TermCall:
		return fmt.Sprintf("call %s(...) -> %s", t.CallFunc, t.NormalTarget)
	case mir.TermAssert:
		return fmt.Sprintf("assert(%s == %v) -> %s", dumpOperand(t.AssertCond), t.AssertExpected, t.AssertTarget)
	default:
		return "<invalid terminator>"
	}
}

func dumpPlace(p mir.Place) string {
	s := fmt.Sprintf("_%d", p.Local)
	for _, proj := range p.Projection {
		switch proj.Kind {
		case mir.ProjField:
			s += "." + proj.Field
		case mir.ProjIndex:
			s += fmt.Sprintf("[%s]", dumpOperand(proj.Index))
		case mir.ProjDeref:
			s = "*" + s
		}
	}
	return s
}

func dumpOperand(o mir.Operand) string {
	switch o.Kind {
	case mir.OpCopy:
		return dumpPlace(o.Place)
	case mir.OpMove:
		return "move " + dumpPlace(o.Place)
	default:
		return dumpConstant(o.Constant)
	}
}

func dumpConstant(c mir.Constant) string {
	switch c.Value.Kind {
	case mir.ConstInt:
		return fmt.Sprintf("%d", c.Value.Int)
	case mir.ConstFloat:
		return fmt.Sprintf("%g", c.Value.Float)
	case mir.ConstBool:
		return fmt.Sprintf("%v", c.Value.Bool)
	case mir.ConstString:
		return fmt.Sprintf("%q", c.Value.Str)
	default:
		return fmt.Sprintf("%v", c.Value.Bytes)
	}
}

func dumpRvalue(r mir.Rvalue) string {
	switch r.Kind {
	case mir.RvalUse:
		return dumpOperand(r.Operand)
	case mir.RvalBinaryOp:
		return fmt.Sprintf("%s(%s, %s)", binOpName(r.BinOp), dumpOperand(r.Left), dumpOperand(r.Right))
	case mir.RvalUnaryOp:
		return fmt.Sprintf("%s(%s)", unOpName(r.UnOp), dumpOperand(r.Un))
	case mir.RvalRef:
		if r.RefMutable {
			return "&mut " + dumpPlace(r.RefPlace)
		}
		return "&" + dumpPlace(r.RefPlace)
	case mir.RvalCast:
		return fmt.Sprintf("cast(%s as %s)", dumpOperand(r.CastOp), r.CastTo)
	case mir.RvalAggregate:
		out := "aggregate["
		for i, e := range r.AggElems {
			if i > 0 {
				out += ", "
			}
			out += dumpOperand(e)
		}
		return out + "]"
	case mir.RvalLen:
		return fmt.Sprintf("len(%s)", dumpPlace(r.LenPlace))
	default:
		return "<invalid rvalue>"
	}
}

func binOpName(op mir.BinOp) string {
	names := [...]string{"add", "sub", "mul", "div", "mod", "eq", "ne", "gt", "lt", "ge", "le", "and", "or"}
	if int(op) < len(names) {
		return names[op]
	}
	return "?"
}

func unOpName(op mir.UnOp) string {
	if op == mir.UnNeg {
		return "neg"
	}
	return "not"
}
